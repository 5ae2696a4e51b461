// Package allocation owns the set of goods allocations of one plan edit session and keeps
// every derived quantity and flag consistent after each mutation.
package allocation

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vsinha/packplan/pkg/application/services/conflict"
	"github.com/vsinha/packplan/pkg/domain/entities"
)

// Options configures a Tree
type Options struct {
	Terms       entities.ContractTerms
	Catalog     *entities.Catalog
	GracePeriod time.Duration
	Clock       func() time.Time
	Logger      *zap.Logger
}

// Tree is a flat list of allocations linked parent to child through ParentID.
// It is not safe for concurrent use; one plan session owns one tree.
type Tree struct {
	allocations  []*entities.GoodsAllocation
	overQuantity []OverQuantityGroup
	conflicts    []conflict.Pair

	terms   entities.ContractTerms
	catalog *entities.Catalog
	grace   time.Duration
	clock   func() time.Time
	logger  *zap.Logger
}

// NewTree creates an empty allocation tree
func NewTree(opts Options) *Tree {
	if opts.GracePeriod <= 0 {
		opts.GracePeriod = entities.DefaultGracePeriod
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Tree{
		terms:   opts.Terms,
		catalog: opts.Catalog,
		grace:   opts.GracePeriod,
		clock:   opts.Clock,
		logger:  opts.Logger,
	}
}

// Load replaces the set with persisted allocations. Each row's Quantity is its own visible
// quantity; a missing BaseQuantity is rebuilt as Quantity plus the children's quantities.
func (t *Tree) Load(existing []*entities.GoodsAllocation) error {
	rows := make([]*entities.GoodsAllocation, 0, len(existing))
	seen := make(map[entities.AllocationID]bool)
	for i, a := range existing {
		if a == nil {
			return fmt.Errorf("allocation %d is nil", i)
		}
		if a.ID != 0 {
			if seen[a.ID] {
				return fmt.Errorf("duplicate allocation id %d", a.ID)
			}
			seen[a.ID] = true
		}
		if a.Quantity.Valid && a.Quantity.Decimal.IsNegative() {
			return fmt.Errorf("%w: allocation %d has negative quantity %s", entities.ErrInvalidQuantity, a.ID, a.Quantity.Decimal)
		}
		row := a.Clone()
		if row.RowKey == uuid.Nil {
			row.RowKey = uuid.New()
		}
		if row.IsSaved() {
			row.Init = entities.InitializedGate()
		}
		rows = append(rows, row)
	}

	childSums := make(map[entities.AllocationID]decimal.Decimal)
	for _, row := range rows {
		if row.IsChild() {
			childSums[row.ParentID] = childSums[row.ParentID].Add(row.QuantityOrZero())
		}
	}
	for _, row := range rows {
		if row.BaseQuantity.Valid || !row.Quantity.Valid {
			continue
		}
		row.BaseQuantity = entities.NewNullDecimal(row.Quantity.Decimal.Add(childSums[row.ID]))
	}

	t.allocations = rows
	t.RecomputeDerived()
	t.logger.Debug("allocations loaded", zap.Int("count", len(rows)))
	return nil
}

// Len returns the number of allocations
func (t *Tree) Len() int {
	return len(t.allocations)
}

// At returns the allocation at index
func (t *Tree) At(index int) (*entities.GoodsAllocation, error) {
	if index < 0 || index >= len(t.allocations) {
		return nil, fmt.Errorf("%w: allocation %d of %d", entities.ErrIndexOutOfRange, index, len(t.allocations))
	}
	return t.allocations[index], nil
}

// IndexOf returns the index of the allocation with the given row key, or -1
func (t *Tree) IndexOf(rowKey uuid.UUID) int {
	for i, a := range t.allocations {
		if a.RowKey == rowKey {
			return i
		}
	}
	return -1
}

// Allocations returns the current set. Callers must treat the rows as read-only.
func (t *Tree) Allocations() []*entities.GoodsAllocation {
	out := make([]*entities.GoodsAllocation, len(t.allocations))
	copy(out, t.allocations)
	return out
}

// Terms returns the contract terms the tree validates windows against
func (t *Tree) Terms() entities.ContractTerms {
	return t.terms
}

// AddTopLevel appends a new top-level allocation with unfilled quantities
func (t *Tree) AddTopLevel(draft entities.AllocationDraft) (int, error) {
	window, err := t.checkWindow(draft.Window)
	if err != nil {
		return -1, err
	}
	if err := t.checkKey(draft.Key); err != nil {
		return -1, err
	}

	row := &entities.GoodsAllocation{
		RowKey:    uuid.New(),
		Key:       draft.Key,
		Window:    window,
		UnitPrice: draft.UnitPrice,
		Init:      entities.NewInitGate(t.clock(), t.grace),
	}
	t.allocations = append(t.allocations, row)
	t.RecomputeDerived()

	t.logger.Debug("top-level allocation added", zap.String("row", row.RowKey.String()))
	return len(t.allocations) - 1, nil
}

// AddChild carves a sub-allocation out of the parent at parentIndex. The parent must be
// persisted and already have at least one weighing event. The child inherits region,
// supplier, good and unit price, and may take at most the parent's remaining quantity.
func (t *Tree) AddChild(parentIndex int) (int, error) {
	parent, err := t.At(parentIndex)
	if err != nil {
		return -1, err
	}
	if !parent.IsSaved() {
		t.logger.Info("add child rejected: parent not saved", zap.String("parent", parent.RowKey.String()))
		return -1, fmt.Errorf("%w: cannot split an unsaved allocation", entities.ErrInvalidOperation)
	}
	if !parent.HasWeightSlip {
		t.logger.Info("add child rejected: parent has no weight slip", zap.Int64("parent_id", int64(parent.ID)))
		return -1, fmt.Errorf("%w: allocation %d has no weighing events to cover", entities.ErrInvalidOperation, parent.ID)
	}

	child := &entities.GoodsAllocation{
		RowKey:   uuid.New(),
		ParentID: parent.ID,
		Key: entities.CommodityKey{
			Region:   parent.Key.Region,
			Supplier: parent.Key.Supplier,
			Good:     parent.Key.Good,
		},
		MaxQuantity: entities.NewNullDecimal(parent.RemainingQuantity),
		UnitPrice:   parent.UnitPrice,
		Init:        entities.NewInitGate(t.clock(), t.grace),
	}

	pos := parentIndex + 1
	for _, ci := range t.Children(parentIndex) {
		if ci+1 > pos {
			pos = ci + 1
		}
	}
	t.allocations = append(t.allocations, nil)
	copy(t.allocations[pos+1:], t.allocations[pos:])
	t.allocations[pos] = child
	t.RecomputeDerived()

	t.logger.Debug("child allocation added",
		zap.Int64("parent_id", int64(parent.ID)),
		zap.String("max_quantity", child.MaxQuantity.Decimal.String()))
	return pos, nil
}

// Remove deletes the allocation at index. Rows with weighing events and rows that still
// have children cannot be removed. A removed child's quantity returns to its parent when
// the parent's quantity is derived again from its base.
func (t *Tree) Remove(index int) error {
	row, err := t.At(index)
	if err != nil {
		return err
	}
	if row.HasWeightSlip {
		return fmt.Errorf("%w: allocation %d has weighing events", entities.ErrInvalidOperation, row.ID)
	}
	if len(t.Children(index)) > 0 {
		return fmt.Errorf("%w: allocation %d still has sub-allocations", entities.ErrInvalidOperation, row.ID)
	}

	t.allocations = append(t.allocations[:index], t.allocations[index+1:]...)
	t.RecomputeDerived()
	return nil
}

// SetQuantity sets the visible quantity of the allocation at index. For a parent the base
// quantity follows, so that base = visible + children.
func (t *Tree) SetQuantity(index int, quantity decimal.Decimal) error {
	row, err := t.At(index)
	if err != nil {
		return err
	}
	if quantity.IsNegative() {
		return fmt.Errorf("%w: quantity cannot be negative, got %s", entities.ErrInvalidQuantity, quantity)
	}

	base := quantity
	for _, ci := range t.Children(index) {
		base = base.Add(t.allocations[ci].QuantityOrZero())
	}
	row.Quantity = entities.NewNullDecimal(quantity)
	row.BaseQuantity = entities.NewNullDecimal(base)
	t.RecomputeDerived()
	return nil
}

// SetUnitPrice sets the unit price of the allocation at index
func (t *Tree) SetUnitPrice(index int, price decimal.Decimal) error {
	row, err := t.At(index)
	if err != nil {
		return err
	}
	if price.IsNegative() {
		return fmt.Errorf("%w: unit price cannot be negative, got %s", entities.ErrInvalidQuantity, price)
	}
	row.UnitPrice = entities.NewNullDecimal(price)
	t.RecomputeDerived()
	return nil
}

// SetKey changes the commodity key. Frozen once the allocation has weighing events.
func (t *Tree) SetKey(index int, key entities.CommodityKey) error {
	row, err := t.At(index)
	if err != nil {
		return err
	}
	if row.HasWeightSlip {
		return fmt.Errorf("%w: commodity key of allocation %d is frozen by weighing events", entities.ErrInvalidOperation, row.ID)
	}
	if err := t.checkKey(key); err != nil {
		return err
	}
	row.Key = key
	t.RecomputeDerived()
	return nil
}

// SetWindow changes the pickup window. Frozen once the allocation has weighing events.
func (t *Tree) SetWindow(index int, window entities.TimeWindow) error {
	row, err := t.At(index)
	if err != nil {
		return err
	}
	if row.HasWeightSlip {
		return fmt.Errorf("%w: window of allocation %d is frozen by weighing events", entities.ErrInvalidOperation, row.ID)
	}
	w, err := t.checkWindow(window)
	if err != nil {
		return err
	}
	row.Window = w
	t.RecomputeDerived()
	return nil
}

// ApplyConsumption sets each allocation's weighed amount from reconciliation, keyed by row.
// An allocation with any consumption entry carries a weight slip from then on.
func (t *Tree) ApplyConsumption(consumption map[uuid.UUID]decimal.Decimal) {
	for _, row := range t.allocations {
		weighed, ok := consumption[row.RowKey]
		if !ok {
			continue
		}
		row.ActualQuantity = weighed
		row.HasWeightSlip = true
	}
	t.RecomputeDerived()
}

// MarkSaved records the identities assigned by a successful submission
func (t *Tree) MarkSaved(ids map[uuid.UUID]entities.AllocationID) {
	for _, row := range t.allocations {
		if id, ok := ids[row.RowKey]; ok && id != 0 {
			row.ID = id
			row.Init = entities.InitializedGate()
		}
	}
	t.RecomputeDerived()
}

// Children returns the indexes of the direct children of the allocation at parentIndex
func (t *Tree) Children(parentIndex int) []int {
	if parentIndex < 0 || parentIndex >= len(t.allocations) {
		return nil
	}
	parent := t.allocations[parentIndex]
	if !parent.IsSaved() {
		return nil
	}
	var children []int
	for i, a := range t.allocations {
		if a.ParentID == parent.ID {
			children = append(children, i)
		}
	}
	return children
}

// Parent returns the index of the parent of the allocation at index, or -1
func (t *Tree) Parent(index int) int {
	if index < 0 || index >= len(t.allocations) {
		return -1
	}
	row := t.allocations[index]
	if !row.IsChild() {
		return -1
	}
	return t.indexOfID(row.ParentID)
}

// OverQuantityGroups returns the parent/children groups whose children exceed the parent's capacity
func (t *Tree) OverQuantityGroups() []OverQuantityGroup {
	return t.overQuantity
}

// ConflictPairs returns the conflicting pairs found by the last recompute
func (t *Tree) ConflictPairs() []conflict.Pair {
	return t.conflicts
}

func (t *Tree) indexOfID(id entities.AllocationID) int {
	if id == 0 {
		return -1
	}
	for i, a := range t.allocations {
		if a.ID == id {
			return i
		}
	}
	return -1
}

func (t *Tree) checkKey(key entities.CommodityKey) error {
	if t.catalog == nil {
		return nil
	}
	return t.catalog.ValidateKey(key)
}

func (t *Tree) checkWindow(window entities.TimeWindow) (entities.TimeWindow, error) {
	if !window.IsComplete() {
		return entities.TimeWindow{Start: entities.Day(window.Start), End: entities.Day(window.End)}, nil
	}
	w, err := entities.NewTimeWindow(window.Start, window.End)
	if err != nil {
		return entities.TimeWindow{}, err
	}
	if !t.terms.AllowsWindow(w) {
		return entities.TimeWindow{}, fmt.Errorf("%w: window ends %s, after the last buying day %s",
			entities.ErrInvalidWindow, w.End.Format(entities.DateLayout), t.terms.MaxDateToBuy.Format(entities.DateLayout))
	}
	return w, nil
}
