package orchestration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/packplan/pkg/application/dto"
	"github.com/vsinha/packplan/pkg/application/services/session"
	"github.com/vsinha/packplan/pkg/domain/entities"
	"github.com/vsinha/packplan/pkg/infrastructure/repositories/memory"
)

func qty(s string) decimal.NullDecimal {
	return entities.NewNullDecimal(decimal.RequireFromString(s))
}

func newTestOrchestrator() (*SubmissionOrchestrator, *memory.SubmissionRepository) {
	repo := memory.NewSubmissionRepository()
	base := session.Config{Clock: func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) }}
	return NewSubmissionOrchestrator(base, repo), repo
}

func planRequest() dto.PlanRequest {
	return dto.PlanRequest{
		Contract: dto.ContractInput{ContractID: 42},
		Allocations: []dto.AllocationInput{{
			Region:     "N",
			SupplierID: 7,
			GoodID:     3,
			GoodType:   "A",
			StartTime:  "2025-01-01",
			EndTime:    "2025-01-31",
			Quantity:   qty("5000"),
			UnitPrice:  qty("2000"),
		}},
	}
}

func TestSubmissionOrchestrator_EvaluatePlan(t *testing.T) {
	o, _ := newTestOrchestrator()
	eval, err := o.EvaluatePlan(context.Background(), planRequest())
	if err != nil {
		t.Fatalf("Failed to evaluate plan: %v", err)
	}
	if !eval.Summary.TotalWeight.Equal(decimal.NewFromInt(5000)) {
		t.Errorf("Expected total weight 5000, got %s", eval.Summary.TotalWeight)
	}
	if !eval.Summary.CanSubmit {
		t.Errorf("Expected plan submittable, got violations %+v", eval.Summary.Violations)
	}
}

func TestSubmissionOrchestrator_InvalidRequest(t *testing.T) {
	o, _ := newTestOrchestrator()
	req := planRequest()
	req.Allocations[0].StartTime = "01/01/2025"

	_, err := o.EvaluatePlan(context.Background(), req)
	if !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("Expected ErrInvalidRequest, got %v", err)
	}

	req = planRequest()
	req.Contract.WeightThresholdUnit = "stone"
	if _, err := o.EvaluatePlan(context.Background(), req); !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("Expected ErrInvalidRequest for unit, got %v", err)
	}
}

func TestSubmissionOrchestrator_PlanThenWeighing(t *testing.T) {
	o, repo := newTestOrchestrator()
	ctx := context.Background()

	planned, err := o.SubmitPlan(ctx, planRequest())
	if err != nil {
		t.Fatalf("Failed to submit plan: %v", err)
	}
	if len(planned.IDs) != 1 {
		t.Fatalf("Expected 1 id, got %d", len(planned.IDs))
	}

	req := dto.WeighingRequest{
		Contract: dto.ContractInput{ContractID: 42},
		Records: []dto.WeighingInput{{
			CodeBooking: "BK-1",
			Region:      "N",
			SupplierID:  7,
			GoodID:      3,
			GoodType:    "A",
			LoadingDate: "2025-01-05",
			Weight:      decimal.NewFromInt(3000),
		}},
		ShipmentMatch: &dto.ShipmentMatchInput{
			GoodID: 3,
			Candidates: []dto.ShipmentCandidateInput{{
				CodeBooking:    "BK-2",
				Region:         "N",
				SupplierID:     7,
				GoodType:       "A",
				LoadingDate:    "2025-01-06",
				ContainerCount: 2,
			}},
		},
	}

	eval, err := o.EvaluateWeighing(ctx, req)
	if err != nil {
		t.Fatalf("Failed to evaluate weighing: %v", err)
	}
	if len(eval.Records) != 3 {
		t.Fatalf("Expected 3 records after match, got %d", len(eval.Records))
	}
	if eval.Records[0].AllocationRowKey == nil {
		t.Error("Expected record linked to the stored plan")
	}
	if eval.Summary.Pending {
		t.Error("Expected settled evaluation")
	}

	submitted, err := o.SubmitWeighing(ctx, req)
	if err != nil {
		t.Fatalf("Failed to submit weighing: %v", err)
	}
	if len(submitted.IDs) != 3 {
		t.Errorf("Expected 3 ids, got %d", len(submitted.IDs))
	}
	stored, _ := repo.LoadWeighing(ctx, 42)
	if len(stored) != 3 {
		t.Errorf("Expected 3 stored records, got %d", len(stored))
	}
}

func TestSubmissionOrchestrator_SubmitRefused(t *testing.T) {
	o, repo := newTestOrchestrator()
	req := planRequest()
	req.Contract.BreakEvenPrice = qty("1000")

	_, err := o.SubmitPlan(context.Background(), req)
	if !errors.Is(err, entities.ErrNotSubmittable) {
		t.Fatalf("Expected ErrNotSubmittable, got %v", err)
	}
	if stored, _ := repo.LoadPlan(context.Background(), 42); len(stored) != 0 {
		t.Errorf("Expected nothing stored, got %d rows", len(stored))
	}
}

func TestSubmissionOrchestrator_StoredWeighingFreezesPlan(t *testing.T) {
	o, _ := newTestOrchestrator()
	ctx := context.Background()

	if _, err := o.SubmitPlan(ctx, planRequest()); err != nil {
		t.Fatalf("Failed to submit plan: %v", err)
	}
	_, err := o.SubmitWeighing(ctx, dto.WeighingRequest{
		Contract: dto.ContractInput{ContractID: 42},
		Records: []dto.WeighingInput{{
			CodeBooking: "BK-1",
			Region:      "N",
			SupplierID:  7,
			GoodID:      3,
			GoodType:    "A",
			LoadingDate: "2025-01-05",
			Weight:      decimal.NewFromInt(3000),
		}},
	})
	if err != nil {
		t.Fatalf("Failed to submit weighing: %v", err)
	}

	s, err := o.OpenPlan(ctx, dto.PlanRequest{Contract: dto.ContractInput{ContractID: 42}})
	if err != nil {
		t.Fatalf("Failed to open stored plan: %v", err)
	}
	parent, _ := s.Tree().At(0)
	if !parent.HasWeightSlip {
		t.Fatal("Expected stored allocation to carry a weight slip")
	}
	if !parent.ActualQuantity.Equal(decimal.NewFromInt(3000)) {
		t.Errorf("Expected actual quantity 3000, got %s", parent.ActualQuantity)
	}
	if !parent.RemainingQuantity.Equal(decimal.NewFromInt(2000)) {
		t.Errorf("Expected remaining quantity 2000, got %s", parent.RemainingQuantity)
	}

	if err := s.Remove(0); !errors.Is(err, entities.ErrInvalidOperation) {
		t.Errorf("Expected ErrInvalidOperation removing a weighed allocation, got %v", err)
	}
	if s.Tree().Len() != 1 {
		t.Fatalf("Expected weighed allocation kept, got %d rows", s.Tree().Len())
	}
	ci, err := s.AddChild(0)
	if err != nil {
		t.Fatalf("Expected sub-allocation on a weighed allocation, got %v", err)
	}
	child, _ := s.Tree().At(ci)
	if !child.MaxQuantity.Decimal.Equal(decimal.NewFromInt(2000)) {
		t.Errorf("Expected child max quantity 2000, got %s", child.MaxQuantity.Decimal)
	}

	w, err := o.OpenWeighing(ctx, dto.WeighingRequest{Contract: dto.ContractInput{ContractID: 42}})
	if err != nil {
		t.Fatalf("Failed to open stored weighing: %v", err)
	}
	if w.Reconciler().Len() != 1 {
		t.Errorf("Expected 1 stored record loaded, got %d", w.Reconciler().Len())
	}
	if a, _ := w.Plan().At(0); !a.HasWeightSlip {
		t.Error("Expected weighing session plan to carry the weight slip")
	}
}
