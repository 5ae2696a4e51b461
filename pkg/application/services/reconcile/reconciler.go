// Package reconcile links weighing events to the allocations they consume and derives the
// remaining capacity each event may still claim.
package reconcile

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vsinha/packplan/pkg/domain/entities"
)

// DefaultBatchThreshold is the batch size above which InsertBatch defers the recompute
const DefaultBatchThreshold = 15

// Mode tells whether derived fields reflect the current inputs
type Mode int

const (
	Settled Mode = iota
	Pending
)

// String method for Mode enum
func (m Mode) String() string {
	switch m {
	case Settled:
		return "Settled"
	case Pending:
		return "Pending"
	default:
		return "Unknown"
	}
}

// AllocationSource provides the plan's allocations, read-only
type AllocationSource interface {
	Allocations() []*entities.GoodsAllocation
}

// Options configures a Reconciler
type Options struct {
	BatchThreshold int
	GracePeriod    time.Duration
	Clock          func() time.Time
	Logger         *zap.Logger
}

// Reconciler owns the weighing records of one weighing session.
// It is not safe for concurrent use.
type Reconciler struct {
	source  AllocationSource
	records []*entities.ActualWeighingRecord
	groups  []WeightGroup
	mode    Mode

	threshold int
	grace     time.Duration
	clock     func() time.Time
	logger    *zap.Logger
}

// NewReconciler creates an empty reconciler over the given allocations
func NewReconciler(source AllocationSource, opts Options) *Reconciler {
	if opts.BatchThreshold <= 0 {
		opts.BatchThreshold = DefaultBatchThreshold
	}
	if opts.GracePeriod <= 0 {
		opts.GracePeriod = entities.DefaultGracePeriod
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Reconciler{
		source:    source,
		threshold: opts.BatchThreshold,
		grace:     opts.GracePeriod,
		clock:     opts.Clock,
		logger:    opts.Logger,
	}
}

// Load replaces the set with previously persisted records and settles it
func (r *Reconciler) Load(existing []*entities.ActualWeighingRecord) error {
	records := make([]*entities.ActualWeighingRecord, 0, len(existing))
	for i, rec := range existing {
		if rec == nil {
			return fmt.Errorf("weighing record %d is nil", i)
		}
		if rec.ActualWeight.IsNegative() {
			return fmt.Errorf("%w: weighing record %d has negative weight %s", entities.ErrInvalidQuantity, i, rec.ActualWeight)
		}
		c := *rec
		if c.RowKey == uuid.Nil {
			c.RowKey = uuid.New()
		}
		if c.Saved {
			c.Init = entities.InitializedGate()
		}
		records = append(records, &c)
	}
	r.records = records
	r.Recompute()
	return nil
}

// Len returns the number of records
func (r *Reconciler) Len() int {
	return len(r.records)
}

// At returns the record at index
func (r *Reconciler) At(index int) (*entities.ActualWeighingRecord, error) {
	if index < 0 || index >= len(r.records) {
		return nil, fmt.Errorf("%w: weighing record %d of %d", entities.ErrIndexOutOfRange, index, len(r.records))
	}
	return r.records[index], nil
}

// Records returns the current set. Callers must treat the records as read-only.
func (r *Reconciler) Records() []*entities.ActualWeighingRecord {
	out := make([]*entities.ActualWeighingRecord, len(r.records))
	copy(out, r.records)
	return out
}

// Mode reports whether the set is settled or waiting for a deferred recompute
func (r *Reconciler) Mode() Mode {
	return r.mode
}

// BatchThreshold returns the batch size above which recompute is deferred
func (r *Reconciler) BatchThreshold() int {
	return r.threshold
}

// Add inserts a single draft record and recomputes
func (r *Reconciler) Add(draft entities.ActualWeighingRecord) (int, error) {
	rec, err := r.newRecord(draft)
	if err != nil {
		return -1, err
	}
	r.records = append(r.records, rec)
	r.Recompute()
	return len(r.records) - 1, nil
}

// InsertBatch appends many drafts at once. Batches larger than the threshold leave the
// set Pending; the recompute runs on Flush or on the next single-record mutation.
func (r *Reconciler) InsertBatch(drafts []entities.ActualWeighingRecord) ([]int, error) {
	recs := make([]*entities.ActualWeighingRecord, 0, len(drafts))
	for i, d := range drafts {
		rec, err := r.newRecord(d)
		if err != nil {
			return nil, fmt.Errorf("batch record %d: %w", i, err)
		}
		recs = append(recs, rec)
	}

	indexes := make([]int, len(recs))
	for i, rec := range recs {
		indexes[i] = len(r.records)
		r.records = append(r.records, rec)
	}

	if len(recs) > r.threshold {
		r.mode = Pending
		r.logger.Debug("batch recompute deferred", zap.Int("batch_size", len(recs)), zap.Int("threshold", r.threshold))
		return indexes, nil
	}
	r.Recompute()
	return indexes, nil
}

// Flush settles a pending set. It is a no-op recompute on a settled set.
func (r *Reconciler) Flush() {
	r.Recompute()
}

// Remove deletes the record at index. Saved records are read-only.
func (r *Reconciler) Remove(index int) error {
	rec, err := r.At(index)
	if err != nil {
		return err
	}
	if rec.Saved {
		return fmt.Errorf("%w: weighing record %s is saved", entities.ErrInvalidOperation, rec.CodeBooking)
	}
	r.records = append(r.records[:index], r.records[index+1:]...)
	r.Recompute()
	return nil
}

// SetKey changes the commodity key and re-resolves the link
func (r *Reconciler) SetKey(index int, key entities.CommodityKey) error {
	rec, err := r.editable(index)
	if err != nil {
		return err
	}
	rec.Key = key
	r.Recompute()
	return nil
}

// SetLoadingDate changes the loading date and re-resolves the link
func (r *Reconciler) SetLoadingDate(index int, date time.Time) error {
	rec, err := r.editable(index)
	if err != nil {
		return err
	}
	rec.LoadingDate = entities.Day(date)
	r.Recompute()
	return nil
}

// SetBooking changes the booking reference
func (r *Reconciler) SetBooking(index int, codeBooking string, shippingScheduleID int64) error {
	rec, err := r.editable(index)
	if err != nil {
		return err
	}
	rec.CodeBooking = codeBooking
	rec.ShippingScheduleID = shippingScheduleID
	r.Recompute()
	return nil
}

// SetActualWeight changes the weighed amount. On a settled set the value may not exceed
// the record's ceiling.
func (r *Reconciler) SetActualWeight(index int, weight decimal.Decimal) error {
	rec, err := r.editable(index)
	if err != nil {
		return err
	}
	if weight.IsNegative() {
		return fmt.Errorf("%w: weight cannot be negative, got %s", entities.ErrInvalidQuantity, weight)
	}
	if r.mode == Settled && rec.MaxGoodWeight.Valid && weight.GreaterThan(rec.MaxGoodWeight.Decimal) {
		return fmt.Errorf("%w: weight %s exceeds the remaining %s", entities.ErrAboveCeiling, weight, rec.MaxGoodWeight.Decimal)
	}
	rec.ActualWeight = weight
	r.Recompute()
	return nil
}

// SetCoverage attributes a supplementary weight of another quality grade to the record.
// An invalid quantity clears the coverage.
func (r *Reconciler) SetCoverage(index int, quantity decimal.NullDecimal, quality entities.QualityType) error {
	rec, err := r.editable(index)
	if err != nil {
		return err
	}
	if quantity.Valid && quantity.Decimal.IsNegative() {
		return fmt.Errorf("%w: coverage cannot be negative, got %s", entities.ErrInvalidQuantity, quantity.Decimal)
	}
	rec.CoverageQuantity = quantity
	rec.CoverageType = quality
	if !quantity.Valid {
		rec.CoverageType = ""
	}
	r.Recompute()
	return nil
}

// Logistics are the fields of a record that stay editable after it is saved
type Logistics struct {
	ContainerNumber    string
	SealNumber         string
	TruckNumber        string
	UnloadingPort      string
	UnitPriceTransport decimal.NullDecimal
}

// SetLogistics updates container, seal, truck, port and transport price
func (r *Reconciler) SetLogistics(index int, l Logistics) error {
	rec, err := r.At(index)
	if err != nil {
		return err
	}
	rec.ContainerNumber = l.ContainerNumber
	rec.SealNumber = l.SealNumber
	rec.TruckNumber = l.TruckNumber
	rec.UnloadingPort = l.UnloadingPort
	rec.UnitPriceTransport = l.UnitPriceTransport
	return nil
}

// Consumption totals the weight of saved records per linked allocation row
func (r *Reconciler) Consumption() map[uuid.UUID]decimal.Decimal {
	out := make(map[uuid.UUID]decimal.Decimal)
	for _, rec := range r.records {
		if !rec.Saved || rec.LinkedAllocation == nil {
			continue
		}
		key := rec.LinkedAllocation.RowKey
		out[key] = out[key].Add(rec.ActualWeight)
	}
	return out
}

// MarkSaved flips every record to saved, recording any assigned identities
func (r *Reconciler) MarkSaved(ids map[uuid.UUID]entities.WeighingID) {
	for _, rec := range r.records {
		rec.Saved = true
		rec.Init = entities.InitializedGate()
		if id, ok := ids[rec.RowKey]; ok && id != 0 {
			rec.ID = id
		}
	}
}

func (r *Reconciler) editable(index int) (*entities.ActualWeighingRecord, error) {
	rec, err := r.At(index)
	if err != nil {
		return nil, err
	}
	if rec.Saved {
		return nil, fmt.Errorf("%w: weighing record %s is saved", entities.ErrInvalidOperation, rec.CodeBooking)
	}
	return rec, nil
}

func (r *Reconciler) newRecord(draft entities.ActualWeighingRecord) (*entities.ActualWeighingRecord, error) {
	if draft.ActualWeight.IsNegative() {
		return nil, fmt.Errorf("%w: weight cannot be negative, got %s", entities.ErrInvalidQuantity, draft.ActualWeight)
	}
	rec := draft
	rec.ID = 0
	rec.RowKey = uuid.New()
	rec.LoadingDate = entities.Day(draft.LoadingDate)
	rec.GoodPrice = decimal.NullDecimal{}
	rec.LinkedAllocation = nil
	rec.MaxGoodWeight = decimal.NullDecimal{}
	rec.Saved = false
	rec.Init = entities.NewInitGate(r.clock(), r.grace)
	return &rec, nil
}
