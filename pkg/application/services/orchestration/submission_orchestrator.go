package orchestration

import (
	"context"
	"errors"
	"fmt"

	"github.com/vsinha/packplan/pkg/application/dto"
	"github.com/vsinha/packplan/pkg/application/services/session"
	"github.com/vsinha/packplan/pkg/domain/entities"
	"github.com/vsinha/packplan/pkg/domain/repositories"
)

// ErrInvalidRequest marks input that could not be converted into a session
var ErrInvalidRequest = errors.New("invalid request")

// SubmissionOrchestrator turns one request into a session, evaluates it and optionally submits it
type SubmissionOrchestrator struct {
	base session.Config
	repo repositories.SubmissionRepository
}

// NewSubmissionOrchestrator creates an orchestrator. Terms in base are replaced per request.
func NewSubmissionOrchestrator(base session.Config, repo repositories.SubmissionRepository) *SubmissionOrchestrator {
	return &SubmissionOrchestrator{base: base, repo: repo}
}

// PlanSubmission is the result of a successful plan submit
type PlanSubmission struct {
	IDs        map[string]int64   `json:"ids"`
	Evaluation dto.PlanEvaluation `json:"evaluation"`
	Payload    dto.PlanPayload    `json:"payload"`
}

// WeighingSubmission is the result of a successful weighing submit
type WeighingSubmission struct {
	IDs        map[string]int64       `json:"ids"`
	Evaluation dto.WeighingEvaluation `json:"evaluation"`
	Payload    dto.WeighingPayload    `json:"payload"`
}

// OpenPlan builds a plan session from the request. When the request carries no allocations
// the contract's stored plan is loaded instead. Stored weighing records are applied to the
// plan so weighed rows carry their weight slips.
func (o *SubmissionOrchestrator) OpenPlan(ctx context.Context, req dto.PlanRequest) (*session.PlanSession, error) {
	cfg, err := o.config(req.Contract)
	if err != nil {
		return nil, err
	}
	allocations, err := o.allocations(ctx, cfg.Terms.ContractID, req.Allocations)
	if err != nil {
		return nil, err
	}
	s, err := session.NewPlanSession(cfg, allocations)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if o.repo != nil {
		stored, err := o.repo.LoadWeighing(ctx, cfg.Terms.ContractID)
		if err != nil {
			return nil, fmt.Errorf("load weighing: %w", err)
		}
		if err := s.RestoreWeighing(stored); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// EvaluatePlan returns the derived state of the requested plan
func (o *SubmissionOrchestrator) EvaluatePlan(ctx context.Context, req dto.PlanRequest) (*dto.PlanEvaluation, error) {
	s, err := o.OpenPlan(ctx, req)
	if err != nil {
		return nil, err
	}
	eval := s.Evaluation()
	return &eval, nil
}

// SubmitPlan stores the requested plan when every gate is open
func (o *SubmissionOrchestrator) SubmitPlan(ctx context.Context, req dto.PlanRequest) (*PlanSubmission, error) {
	s, err := o.OpenPlan(ctx, req)
	if err != nil {
		return nil, err
	}
	ids, err := s.Submit(ctx, o.repo)
	if err != nil {
		return nil, err
	}
	out := &PlanSubmission{
		IDs:        make(map[string]int64, len(ids)),
		Evaluation: s.Evaluation(),
		Payload:    s.Payload(),
	}
	for k, id := range ids {
		out.IDs[k.String()] = int64(id)
	}
	return out, nil
}

// OpenWeighing builds a weighing session from the request and applies its shipment match.
// When the request carries no records the contract's stored records are loaded instead.
// The set is flushed so a request always evaluates settled.
func (o *SubmissionOrchestrator) OpenWeighing(ctx context.Context, req dto.WeighingRequest) (*session.WeighingSession, error) {
	cfg, err := o.config(req.Contract)
	if err != nil {
		return nil, err
	}
	plan, err := o.allocations(ctx, cfg.Terms.ContractID, req.Allocations)
	if err != nil {
		return nil, err
	}
	records, err := o.records(ctx, cfg.Terms.ContractID, req.Records)
	if err != nil {
		return nil, err
	}
	s, err := session.NewWeighingSession(cfg, plan, records)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if req.ShipmentMatch != nil {
		match, err := req.ShipmentMatch.ToMatch()
		if err != nil {
			return nil, fmt.Errorf("%w: shipment match: %v", ErrInvalidRequest, err)
		}
		if _, err := s.ApplyShipmentMatch(match); err != nil {
			return nil, fmt.Errorf("%w: shipment match: %v", ErrInvalidRequest, err)
		}
	}
	s.Flush()
	return s, nil
}

// EvaluateWeighing returns the derived state of the requested weighing set
func (o *SubmissionOrchestrator) EvaluateWeighing(ctx context.Context, req dto.WeighingRequest) (*dto.WeighingEvaluation, error) {
	s, err := o.OpenWeighing(ctx, req)
	if err != nil {
		return nil, err
	}
	eval := s.Evaluation()
	return &eval, nil
}

// SubmitWeighing stores the requested weighing set when every gate is open
func (o *SubmissionOrchestrator) SubmitWeighing(ctx context.Context, req dto.WeighingRequest) (*WeighingSubmission, error) {
	s, err := o.OpenWeighing(ctx, req)
	if err != nil {
		return nil, err
	}
	ids, err := s.Submit(ctx, o.repo)
	if err != nil {
		return nil, err
	}
	out := &WeighingSubmission{
		IDs:        make(map[string]int64, len(ids)),
		Evaluation: s.Evaluation(),
		Payload:    s.Payload(),
	}
	for k, id := range ids {
		out.IDs[k.String()] = int64(id)
	}
	return out, nil
}

func (o *SubmissionOrchestrator) config(contract dto.ContractInput) (session.Config, error) {
	terms, err := contract.ToTerms()
	if err != nil {
		return session.Config{}, fmt.Errorf("%w: contract: %v", ErrInvalidRequest, err)
	}
	cfg := o.base
	cfg.Terms = terms
	return cfg, nil
}

func (o *SubmissionOrchestrator) allocations(ctx context.Context, contractID int64, inputs []dto.AllocationInput) ([]*entities.GoodsAllocation, error) {
	if len(inputs) == 0 && o.repo != nil {
		stored, err := o.repo.LoadPlan(ctx, contractID)
		if err != nil {
			return nil, fmt.Errorf("load plan: %w", err)
		}
		return stored, nil
	}
	allocations, err := dto.AllocationsFromInputs(inputs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return allocations, nil
}

func (o *SubmissionOrchestrator) records(ctx context.Context, contractID int64, inputs []dto.WeighingInput) ([]*entities.ActualWeighingRecord, error) {
	if len(inputs) == 0 && o.repo != nil {
		stored, err := o.repo.LoadWeighing(ctx, contractID)
		if err != nil {
			return nil, fmt.Errorf("load weighing: %w", err)
		}
		return stored, nil
	}
	records, err := dto.RecordsFromInputs(inputs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return records, nil
}
