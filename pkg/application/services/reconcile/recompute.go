package reconcile

import (
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vsinha/packplan/pkg/domain/entities"
)

// WeightGroup summarizes the records booked against one plan line for display
type WeightGroup struct {
	Key              entities.CommodityKey
	Window           entities.TimeWindow
	AllocationRowKey uuid.UUID
	TotalWeight      decimal.Decimal
	CurrentWeight    decimal.Decimal
	RemainingWeight  decimal.Decimal
	HasOverWeight    bool
	RecordRowKeys    []uuid.UUID
}

// ExceedAmount is how far the current weight is past the plan, zero when within it
func (g WeightGroup) ExceedAmount() decimal.Decimal {
	return entities.MaxZero(g.CurrentWeight.Sub(g.TotalWeight))
}

type groupKey struct {
	Key          entities.CommodityKey
	Start        string
	End          string
	PlanQuantity string
}

// Recompute runs the full pass over the set: link resolution, price, ceilings, the
// over-weight summary and initialization gates. The set is Settled afterwards.
func (r *Reconciler) Recompute() {
	allocations := r.source.Allocations()
	byKey := make(map[entities.CommodityKey][]*entities.GoodsAllocation)
	for _, a := range allocations {
		if !a.Key.IsComplete() {
			continue
		}
		byKey[a.Key] = append(byKey[a.Key], a)
	}

	for _, rec := range r.records {
		r.resolveLink(rec, byKey)
	}

	buckets := make(map[*entities.GoodsAllocation]decimal.Decimal)
	for _, rec := range r.records {
		link := rec.LinkedAllocation
		if link == nil || !link.Window.Contains(rec.LoadingDate) {
			continue
		}
		buckets[link] = buckets[link].Add(rec.ActualWeight)
	}
	for _, rec := range r.records {
		link := rec.LinkedAllocation
		if link == nil || !link.Quantity.Valid {
			rec.MaxGoodWeight = decimal.NullDecimal{}
			continue
		}
		others := buckets[link].Sub(rec.ActualWeight)
		rec.MaxGoodWeight = entities.NewNullDecimal(entities.MaxZero(link.Quantity.Decimal.Sub(others)))
	}

	r.groups = summarize(r.records)

	now := r.clock()
	for _, rec := range r.records {
		rec.Init.Evaluate(rec.IdentityComplete(), now)
	}

	if r.mode == Pending {
		r.logger.Debug("deferred recompute flushed", zap.Int("records", len(r.records)))
	}
	r.mode = Settled
}

// resolveLink points rec at the first allocation with the exact key whose window contains
// the loading date, copying its unit price. No match clears link, price and ceiling.
func (r *Reconciler) resolveLink(rec *entities.ActualWeighingRecord, byKey map[entities.CommodityKey][]*entities.GoodsAllocation) {
	rec.LinkedAllocation = nil
	rec.GoodPrice = decimal.NullDecimal{}
	if !rec.Key.IsComplete() || rec.LoadingDate.IsZero() {
		return
	}
	for _, a := range byKey[rec.Key] {
		if a.Window.Contains(rec.LoadingDate) {
			rec.LinkedAllocation = a
			rec.GoodPrice = a.UnitPrice
			return
		}
	}
}

func summarize(records []*entities.ActualWeighingRecord) []WeightGroup {
	index := make(map[groupKey]int)
	var groups []WeightGroup
	for _, rec := range records {
		link := rec.LinkedAllocation
		if link == nil {
			continue
		}
		plan := link.QuantityOrZero()
		k := groupKey{
			Key:          link.Key,
			Start:        link.Window.Start.Format(entities.DateLayout),
			End:          link.Window.End.Format(entities.DateLayout),
			PlanQuantity: plan.String(),
		}
		gi, ok := index[k]
		if !ok {
			gi = len(groups)
			index[k] = gi
			groups = append(groups, WeightGroup{
				Key:              link.Key,
				Window:           link.Window,
				AllocationRowKey: link.RowKey,
				TotalWeight:      plan,
				CurrentWeight:    decimal.Zero,
			})
		}
		g := &groups[gi]
		g.CurrentWeight = g.CurrentWeight.Add(rec.ConsumedWeight())
		g.RecordRowKeys = append(g.RecordRowKeys, rec.RowKey)
	}

	for i := range groups {
		g := &groups[i]
		g.HasOverWeight = g.CurrentWeight.GreaterThan(g.TotalWeight)
		g.RemainingWeight = entities.MaxZero(g.TotalWeight.Sub(g.CurrentWeight))
	}
	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].Key.String() != groups[j].Key.String() {
			return groups[i].Key.String() < groups[j].Key.String()
		}
		return groups[i].Window.Start.Before(groups[j].Window.Start)
	})
	return groups
}

// Groups returns the over-weight summary computed by the last recompute
func (r *Reconciler) Groups() []WeightGroup {
	return r.groups
}

// HasOverWeight reports whether any group is past its plan quantity
func (r *Reconciler) HasOverWeight() bool {
	for _, g := range r.groups {
		if g.HasOverWeight {
			return true
		}
	}
	return false
}
