package session

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vsinha/packplan/pkg/application/dto"
	"github.com/vsinha/packplan/pkg/application/services/allocation"
	"github.com/vsinha/packplan/pkg/application/services/reconcile"
	"github.com/vsinha/packplan/pkg/application/services/validation"
	"github.com/vsinha/packplan/pkg/domain/entities"
	"github.com/vsinha/packplan/pkg/domain/repositories"
	"github.com/vsinha/packplan/pkg/infrastructure/events"
)

// PlanSession edits the allocation set of one contract
type PlanSession struct {
	id        string
	cfg       Config
	tree      *allocation.Tree
	validator *validation.Validator
}

// NewPlanSession opens a session over previously persisted allocations
func NewPlanSession(cfg Config, existing []*entities.GoodsAllocation) (*PlanSession, error) {
	cfg = cfg.withDefaults()
	tree := allocation.NewTree(allocation.Options{
		Terms:       cfg.Terms,
		Catalog:     cfg.Catalog,
		GracePeriod: cfg.GracePeriod,
		Clock:       cfg.Clock,
		Logger:      cfg.Logger,
	})
	if err := tree.Load(existing); err != nil {
		return nil, fmt.Errorf("failed to load allocations: %w", err)
	}
	return &PlanSession{
		id:        fmt.Sprintf("plan-%d-%s", cfg.Terms.ContractID, uuid.NewString()),
		cfg:       cfg,
		tree:      tree,
		validator: validation.NewValidator(cfg.Terms, cfg.Unit),
	}, nil
}

// ID is the event stream of the session
func (s *PlanSession) ID() string {
	return s.id
}

// Tree exposes the allocation set for reading
func (s *PlanSession) Tree() *allocation.Tree {
	return s.tree
}

// AddTopLevel appends an allocation
func (s *PlanSession) AddTopLevel(draft entities.AllocationDraft) (int, error) {
	i, err := s.tree.AddTopLevel(draft)
	if err != nil {
		return -1, err
	}
	a, _ := s.tree.At(i)
	publish(s.cfg, s.id, events.NewAllocationAddedEvent(s.id, a.RowKey, 0, s.cfg.Clock()))
	return i, nil
}

// AddChild splits a sub-allocation out of the allocation at parentIndex
func (s *PlanSession) AddChild(parentIndex int) (int, error) {
	i, err := s.tree.AddChild(parentIndex)
	if err != nil {
		return -1, err
	}
	a, _ := s.tree.At(i)
	publish(s.cfg, s.id, events.NewAllocationAddedEvent(s.id, a.RowKey, int64(a.ParentID), s.cfg.Clock()))
	return i, nil
}

// Remove deletes the allocation at index
func (s *PlanSession) Remove(index int) error {
	a, err := s.tree.At(index)
	if err != nil {
		return err
	}
	rowKey := a.RowKey
	returned := decimal.Zero
	if a.IsChild() {
		returned = a.QuantityOrZero()
	}
	if err := s.tree.Remove(index); err != nil {
		return err
	}
	publish(s.cfg, s.id, events.NewAllocationRemovedEvent(s.id, rowKey, returned, s.cfg.Clock()))
	return nil
}

// SetQuantity sets the visible quantity of the allocation at index
func (s *PlanSession) SetQuantity(index int, quantity decimal.Decimal) error {
	return s.update(index, "quantity", func() error { return s.tree.SetQuantity(index, quantity) })
}

// SetUnitPrice sets the unit price of the allocation at index
func (s *PlanSession) SetUnitPrice(index int, price decimal.Decimal) error {
	return s.update(index, "unitPrice", func() error { return s.tree.SetUnitPrice(index, price) })
}

// SetKey changes the commodity key of the allocation at index
func (s *PlanSession) SetKey(index int, key entities.CommodityKey) error {
	return s.update(index, "key", func() error { return s.tree.SetKey(index, key) })
}

// SetWindow changes the window of the allocation at index
func (s *PlanSession) SetWindow(index int, window entities.TimeWindow) error {
	return s.update(index, "window", func() error { return s.tree.SetWindow(index, window) })
}

// ApplyConsumption feeds saved weighing totals back into the plan
func (s *PlanSession) ApplyConsumption(consumption map[uuid.UUID]decimal.Decimal) {
	s.tree.ApplyConsumption(consumption)
}

// RestoreWeighing derives weighed amounts and weight slips from the contract's stored
// weighing records. Records are linked against the current plan; only saved ones count.
func (s *PlanSession) RestoreWeighing(records []*entities.ActualWeighingRecord) error {
	if len(records) == 0 {
		return nil
	}
	r := reconcile.NewReconciler(s.tree, reconcile.Options{
		GracePeriod: s.cfg.GracePeriod,
		Clock:       s.cfg.Clock,
		Logger:      s.cfg.Logger,
	})
	if err := r.Load(records); err != nil {
		return fmt.Errorf("failed to load weighing records: %w", err)
	}
	consumption := r.Consumption()
	s.tree.ApplyConsumption(consumption)
	s.cfg.Logger.Debug("weighing restored into plan",
		zap.Int64("contract_id", s.cfg.Terms.ContractID),
		zap.Int("records", len(records)),
		zap.Int("weighed_rows", len(consumption)))
	return nil
}

// Tick re-evaluates time-based state such as initialization gates
func (s *PlanSession) Tick() {
	s.tree.RecomputeDerived()
}

// Summary evaluates the current set against the contract
func (s *PlanSession) Summary() validation.PlanSummary {
	return s.validator.EvaluatePlan(s.tree)
}

// Evaluation renders rows, groups and summary for output
func (s *PlanSession) Evaluation() dto.PlanEvaluation {
	return dto.NewPlanEvaluation(s.tree.Allocations(), s.tree.OverQuantityGroups(), s.Summary())
}

// Payload builds the plan tree submitted to storage
func (s *PlanSession) Payload() dto.PlanPayload {
	return dto.BuildPlanPayload(s.cfg.Terms.ContractID, s.tree.Allocations())
}

// Submit stores the set when every gate is open. A failed submit leaves the session unchanged.
func (s *PlanSession) Submit(ctx context.Context, repo repositories.SubmissionRepository) (map[uuid.UUID]entities.AllocationID, error) {
	start := s.cfg.Clock()
	summary := s.Summary()
	if !summary.CanSubmit() {
		err := notSubmittable(summary.Violations)
		publish(s.cfg, s.id, events.NewSubmissionFailedEvent(s.id, events.PlanSession, err.Error(), start))
		return nil, err
	}

	rows := s.tree.Allocations()
	snapshot := make([]*entities.GoodsAllocation, len(rows))
	for i, a := range rows {
		snapshot[i] = a.Clone()
	}
	ids, err := repo.SavePlan(ctx, s.cfg.Terms.ContractID, snapshot)
	if err != nil {
		s.cfg.Logger.Error("plan submission failed", zap.Int64("contract_id", s.cfg.Terms.ContractID), zap.Error(err))
		publish(s.cfg, s.id, events.NewSubmissionFailedEvent(s.id, events.PlanSession, err.Error(), s.cfg.Clock()))
		return nil, fmt.Errorf("failed to save plan: %w", err)
	}

	s.tree.MarkSaved(ids)
	took := s.cfg.Clock().Sub(start)
	s.cfg.Logger.Info("plan submitted",
		zap.Int64("contract_id", s.cfg.Terms.ContractID),
		zap.Int("rows", len(rows)),
		zap.Duration("took", took))
	publish(s.cfg, s.id, events.NewSessionSubmittedEvent(s.id, events.PlanSession, len(rows), took, s.cfg.Clock()))
	return ids, nil
}

func (s *PlanSession) update(index int, field string, apply func() error) error {
	if err := apply(); err != nil {
		return err
	}
	a, _ := s.tree.At(index)
	publish(s.cfg, s.id, events.NewAllocationUpdatedEvent(s.id, a.RowKey, field, s.cfg.Clock()))
	return nil
}

func notSubmittable(violations []entities.Violation) error {
	if len(violations) == 0 {
		return entities.ErrNotSubmittable
	}
	return fmt.Errorf("%w: %d violations, first: %s", entities.ErrNotSubmittable, len(violations), violations[0].Message)
}
