package session

import (
	"context"
	"fmt"
	"time"

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

// WeighingSession edits the weighing records of one contract against its plan
type WeighingSession struct {
	id         string
	cfg        Config
	plan       *allocation.Tree
	reconciler *reconcile.Reconciler
	validator  *validation.Validator
}

// NewWeighingSession opens a session over the contract's plan and its persisted records.
// Saved records feed their weight back into the plan before any edit.
func NewWeighingSession(cfg Config, plan []*entities.GoodsAllocation, existing []*entities.ActualWeighingRecord) (*WeighingSession, error) {
	cfg = cfg.withDefaults()
	tree := allocation.NewTree(allocation.Options{
		Terms:       cfg.Terms,
		GracePeriod: cfg.GracePeriod,
		Clock:       cfg.Clock,
		Logger:      cfg.Logger,
	})
	if err := tree.Load(plan); err != nil {
		return nil, fmt.Errorf("failed to load plan: %w", err)
	}
	r := reconcile.NewReconciler(tree, reconcile.Options{
		BatchThreshold: cfg.BatchThreshold,
		GracePeriod:    cfg.GracePeriod,
		Clock:          cfg.Clock,
		Logger:         cfg.Logger,
	})
	if err := r.Load(existing); err != nil {
		return nil, fmt.Errorf("failed to load weighing records: %w", err)
	}
	tree.ApplyConsumption(r.Consumption())
	return &WeighingSession{
		id:         fmt.Sprintf("weighing-%d-%s", cfg.Terms.ContractID, uuid.NewString()),
		cfg:        cfg,
		plan:       tree,
		reconciler: r,
		validator:  validation.NewValidator(cfg.Terms, cfg.Unit),
	}, nil
}

// ID is the event stream of the session
func (s *WeighingSession) ID() string {
	return s.id
}

// Plan exposes the allocation set the records link to
func (s *WeighingSession) Plan() *allocation.Tree {
	return s.plan
}

// Reconciler exposes the weighing set for reading
func (s *WeighingSession) Reconciler() *reconcile.Reconciler {
	return s.reconciler
}

// Add inserts one record
func (s *WeighingSession) Add(draft entities.ActualWeighingRecord) (int, error) {
	if err := s.checkKey(draft.Key); err != nil {
		return -1, err
	}
	i, err := s.reconciler.Add(draft)
	if err != nil {
		return -1, err
	}
	rec, _ := s.reconciler.At(i)
	publish(s.cfg, s.id, events.NewWeighingRecordsInsertedEvent(s.id, []uuid.UUID{rec.RowKey}, false, s.cfg.Clock()))
	return i, nil
}

// InsertBatch inserts many records; large batches leave the set pending until Flush
func (s *WeighingSession) InsertBatch(drafts []entities.ActualWeighingRecord) ([]int, error) {
	indexes, err := s.reconciler.InsertBatch(drafts)
	if err != nil {
		return nil, err
	}
	s.publishInserted(indexes)
	return indexes, nil
}

// ApplyShipmentMatch replaces conflicting records with the matched candidates
func (s *WeighingSession) ApplyShipmentMatch(match reconcile.ShipmentMatch) (reconcile.MatchResult, error) {
	result, err := s.reconciler.ApplyShipmentMatch(match)
	if err != nil {
		return result, err
	}
	s.publishInserted(result.Inserted)
	return result, nil
}

// Flush settles a pending set
func (s *WeighingSession) Flush() {
	pending := s.reconciler.Mode() == reconcile.Pending
	s.reconciler.Flush()
	if pending {
		publish(s.cfg, s.id, events.NewReconciliationFlushedEvent(s.id, s.reconciler.Len(), s.cfg.Clock()))
	}
}

// Remove deletes the record at index
func (s *WeighingSession) Remove(index int) error {
	rec, err := s.reconciler.At(index)
	if err != nil {
		return err
	}
	rowKey := rec.RowKey
	if err := s.reconciler.Remove(index); err != nil {
		return err
	}
	publish(s.cfg, s.id, events.NewWeighingRecordRemovedEvent(s.id, rowKey, s.cfg.Clock()))
	return nil
}

// SetKey changes the commodity key of the record at index
func (s *WeighingSession) SetKey(index int, key entities.CommodityKey) error {
	if err := s.checkKey(key); err != nil {
		return err
	}
	return s.update(index, "key", func() error { return s.reconciler.SetKey(index, key) })
}

// SetLoadingDate changes the loading date of the record at index
func (s *WeighingSession) SetLoadingDate(index int, date time.Time) error {
	return s.update(index, "loadingDate", func() error { return s.reconciler.SetLoadingDate(index, date) })
}

// SetBooking changes the booking of the record at index
func (s *WeighingSession) SetBooking(index int, codeBooking string, shippingScheduleID int64) error {
	return s.update(index, "codeBooking", func() error { return s.reconciler.SetBooking(index, codeBooking, shippingScheduleID) })
}

// SetActualWeight changes the weighed amount of the record at index
func (s *WeighingSession) SetActualWeight(index int, weight decimal.Decimal) error {
	return s.update(index, "weight", func() error { return s.reconciler.SetActualWeight(index, weight) })
}

// SetCoverage changes the coverage of the record at index
func (s *WeighingSession) SetCoverage(index int, quantity decimal.NullDecimal, quality entities.QualityType) error {
	return s.update(index, "coverage", func() error { return s.reconciler.SetCoverage(index, quantity, quality) })
}

// SetLogistics changes the logistics fields of the record at index
func (s *WeighingSession) SetLogistics(index int, l reconcile.Logistics) error {
	return s.update(index, "logistics", func() error { return s.reconciler.SetLogistics(index, l) })
}

// Tick re-evaluates time-based state on a settled set
func (s *WeighingSession) Tick() {
	if s.reconciler.Mode() == reconcile.Settled {
		s.reconciler.Recompute()
	}
}

// Summary evaluates the weighing set
func (s *WeighingSession) Summary() validation.WeighingSummary {
	return s.validator.EvaluateWeighing(s.reconciler)
}

// Evaluation renders records, groups and summary for output
func (s *WeighingSession) Evaluation() dto.WeighingEvaluation {
	return dto.NewWeighingEvaluation(s.reconciler.Records(), s.Summary())
}

// Payload builds the weighing list submitted to storage
func (s *WeighingSession) Payload() dto.WeighingPayload {
	return dto.BuildWeighingPayload(s.cfg.Terms.ContractID, s.reconciler.Records())
}

// Submit stores the set when it is settled and every gate is open. On success every record
// is saved and every linked allocation carries a weight slip; on failure nothing changes.
func (s *WeighingSession) Submit(ctx context.Context, repo repositories.SubmissionRepository) (map[uuid.UUID]entities.WeighingID, error) {
	start := s.cfg.Clock()
	if s.reconciler.Mode() == reconcile.Pending {
		publish(s.cfg, s.id, events.NewSubmissionFailedEvent(s.id, events.WeighingSession, entities.ErrPendingReconciliation.Error(), start))
		return nil, entities.ErrPendingReconciliation
	}
	summary := s.Summary()
	if !summary.CanSubmit() {
		err := notSubmittable(summary.Violations)
		publish(s.cfg, s.id, events.NewSubmissionFailedEvent(s.id, events.WeighingSession, err.Error(), start))
		return nil, err
	}

	records := s.reconciler.Records()
	snapshot := make([]*entities.ActualWeighingRecord, len(records))
	for i, rec := range records {
		c := *rec
		snapshot[i] = &c
	}
	ids, err := repo.SaveWeighing(ctx, s.cfg.Terms.ContractID, snapshot)
	if err != nil {
		s.cfg.Logger.Error("weighing submission failed", zap.Int64("contract_id", s.cfg.Terms.ContractID), zap.Error(err))
		publish(s.cfg, s.id, events.NewSubmissionFailedEvent(s.id, events.WeighingSession, err.Error(), s.cfg.Clock()))
		return nil, fmt.Errorf("failed to save weighing records: %w", err)
	}

	s.reconciler.MarkSaved(ids)
	s.plan.ApplyConsumption(s.reconciler.Consumption())
	s.reconciler.Recompute()

	took := s.cfg.Clock().Sub(start)
	s.cfg.Logger.Info("weighing submitted",
		zap.Int64("contract_id", s.cfg.Terms.ContractID),
		zap.Int("records", len(records)),
		zap.Duration("took", took))
	publish(s.cfg, s.id, events.NewSessionSubmittedEvent(s.id, events.WeighingSession, len(records), took, s.cfg.Clock()))
	return ids, nil
}

func (s *WeighingSession) update(index int, field string, apply func() error) error {
	if err := apply(); err != nil {
		return err
	}
	rec, _ := s.reconciler.At(index)
	publish(s.cfg, s.id, events.NewWeighingRecordUpdatedEvent(s.id, rec.RowKey, field, s.cfg.Clock()))
	return nil
}

func (s *WeighingSession) publishInserted(indexes []int) {
	if len(indexes) == 0 {
		return
	}
	keys := make([]uuid.UUID, 0, len(indexes))
	for _, i := range indexes {
		if rec, err := s.reconciler.At(i); err == nil {
			keys = append(keys, rec.RowKey)
		}
	}
	deferred := s.reconciler.Mode() == reconcile.Pending
	publish(s.cfg, s.id, events.NewWeighingRecordsInsertedEvent(s.id, keys, deferred, s.cfg.Clock()))
}

func (s *WeighingSession) checkKey(key entities.CommodityKey) error {
	if s.cfg.Catalog == nil {
		return nil
	}
	return s.cfg.Catalog.ValidateKey(key)
}
