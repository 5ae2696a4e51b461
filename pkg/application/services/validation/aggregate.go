// Package validation computes contract-level totals and the gates that decide whether a
// plan or weighing session may be submitted.
package validation

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vsinha/packplan/pkg/application/services/allocation"
	"github.com/vsinha/packplan/pkg/application/services/conflict"
	"github.com/vsinha/packplan/pkg/application/services/reconcile"
	"github.com/vsinha/packplan/pkg/domain/entities"
)

// PlanView is the read side of an allocation tree
type PlanView interface {
	Allocations() []*entities.GoodsAllocation
	OverQuantityGroups() []allocation.OverQuantityGroup
	ConflictPairs() []conflict.Pair
}

// WeighingView is the read side of a weight reconciler
type WeighingView interface {
	Records() []*entities.ActualWeighingRecord
	Groups() []reconcile.WeightGroup
	Mode() reconcile.Mode
}

var (
	_ PlanView     = (*allocation.Tree)(nil)
	_ WeighingView = (*reconcile.Reconciler)(nil)
)

// PlanSummary is the aggregate state of an allocation set
type PlanSummary struct {
	TotalWeight               decimal.Decimal
	TotalCost                 decimal.Decimal
	PriceAverage              decimal.Decimal
	Unit                      entities.WeightUnit
	ConditionRangeTotalWeight bool
	ConditionPriceAverage     bool
	HasConflict               bool
	HasOverQuantity           bool
	AllInitialized            bool
	Violations                []entities.Violation
}

// CanSubmit reports whether every plan gate is open
func (s PlanSummary) CanSubmit() bool {
	return !s.HasConflict && !s.HasOverQuantity &&
		s.ConditionRangeTotalWeight && s.ConditionPriceAverage &&
		s.AllInitialized
}

// WeighingSummary is the aggregate state of a weighing set
type WeighingSummary struct {
	TotalWeight    decimal.Decimal
	TotalCost      decimal.Decimal
	PriceAverage   decimal.Decimal
	Unit           entities.WeightUnit
	HasOverWeight  bool
	Pending        bool
	AllLinked      bool
	AllInitialized bool
	Groups         []reconcile.WeightGroup
	Violations     []entities.Violation
}

// CanSubmit reports whether every weighing gate is open
func (s WeighingSummary) CanSubmit() bool {
	return !s.Pending && !s.HasOverWeight && s.AllLinked && s.AllInitialized
}

// Validator evaluates sets against one contract's terms. Quantities and weights are taken
// to be in unit.
type Validator struct {
	terms entities.ContractTerms
	unit  entities.WeightUnit
}

// NewValidator creates a validator; an empty unit means kilograms
func NewValidator(terms entities.ContractTerms, unit entities.WeightUnit) *Validator {
	if unit == "" {
		unit = entities.Kilogram
	}
	return &Validator{terms: terms, unit: unit}
}

// Terms returns the contract terms the validator checks against
func (v *Validator) Terms() entities.ContractTerms {
	return v.terms
}

// EvaluatePlan computes totals, conditions and violations for an allocation set.
// Totals count top-level rows only; sub-allocations are carved out of their parent's base.
func (v *Validator) EvaluatePlan(plan PlanView) PlanSummary {
	rows := plan.Allocations()
	s := PlanSummary{
		TotalWeight:    decimal.Zero,
		TotalCost:      decimal.Zero,
		Unit:           v.unit,
		AllInitialized: true,
	}

	var uninitialized []uuid.UUID
	for _, a := range rows {
		if !a.Init.Ready() {
			s.AllInitialized = false
			uninitialized = append(uninitialized, a.RowKey)
		}
		if a.IsChild() {
			continue
		}
		s.TotalWeight = s.TotalWeight.Add(a.QuantityOrZero())
		s.TotalCost = s.TotalCost.Add(a.Cost())
	}
	s.PriceAverage = v.priceAverage(s.TotalCost, s.TotalWeight)

	for _, p := range plan.ConflictPairs() {
		s.HasConflict = true
		s.Violations = append(s.Violations, entities.Violation{
			Kind:    entities.ViolationConflict,
			RowKeys: []uuid.UUID{rows[p.A].RowKey, rows[p.B].RowKey},
			Message: fmt.Sprintf("%s planned twice in overlapping windows %s and %s", rows[p.A].Key, rows[p.A].Window, rows[p.B].Window),
		})
	}
	for _, g := range plan.OverQuantityGroups() {
		s.HasOverQuantity = true
		s.Violations = append(s.Violations, entities.Violation{
			Kind:    entities.ViolationOverQuantity,
			RowKeys: g.RowKeys(),
			Amount:  g.ExceedAmount,
			Message: g.Message(),
		})
	}

	s.ConditionRangeTotalWeight = v.checkThreshold(s.TotalWeight, &s.Violations)
	s.ConditionPriceAverage = v.checkBreakEven(s.PriceAverage, &s.Violations)

	if len(uninitialized) > 0 {
		s.Violations = append(s.Violations, entities.Violation{
			Kind:    entities.ViolationUninitialized,
			RowKeys: uninitialized,
			Message: fmt.Sprintf("%d rows are still being filled in", len(uninitialized)),
		})
	}
	return s
}

// EvaluateWeighing computes totals, over-weight state and violations for a weighing set.
// A pending set reports only Pending; its derived fields are stale.
func (v *Validator) EvaluateWeighing(weighing WeighingView) WeighingSummary {
	s := WeighingSummary{
		TotalWeight:    decimal.Zero,
		TotalCost:      decimal.Zero,
		Unit:           v.unit,
		AllLinked:      true,
		AllInitialized: true,
	}
	if weighing.Mode() == reconcile.Pending {
		s.Pending = true
		return s
	}

	var uninitialized, unlinked []uuid.UUID
	for _, rec := range weighing.Records() {
		if !rec.Init.Ready() {
			s.AllInitialized = false
			uninitialized = append(uninitialized, rec.RowKey)
		}
		if !rec.IsLinked() {
			s.AllLinked = false
			if rec.Init.Ready() {
				unlinked = append(unlinked, rec.RowKey)
			}
		}
		s.TotalWeight = s.TotalWeight.Add(rec.ActualWeight)
		s.TotalCost = s.TotalCost.Add(rec.ActualWeight.Mul(entities.ValueOrZero(rec.GoodPrice)))
	}
	s.PriceAverage = v.priceAverage(s.TotalCost, s.TotalWeight)

	s.Groups = weighing.Groups()
	for _, g := range s.Groups {
		if !g.HasOverWeight {
			continue
		}
		s.HasOverWeight = true
		s.Violations = append(s.Violations, entities.Violation{
			Kind:    entities.ViolationOverWeight,
			RowKeys: g.RecordRowKeys,
			Amount:  g.ExceedAmount(),
			Message: fmt.Sprintf("%s %s weighed %s of %s planned", g.Key, g.Window, g.CurrentWeight, g.TotalWeight),
		})
	}
	if len(unlinked) > 0 {
		s.Violations = append(s.Violations, entities.Violation{
			Kind:    entities.ViolationMissingLink,
			RowKeys: unlinked,
			Message: fmt.Sprintf("%d weighing records match no planned allocation", len(unlinked)),
		})
	}
	if len(uninitialized) > 0 {
		s.Violations = append(s.Violations, entities.Violation{
			Kind:    entities.ViolationUninitialized,
			RowKeys: uninitialized,
			Message: fmt.Sprintf("%d rows are still being filled in", len(uninitialized)),
		})
	}
	return s
}

// priceAverage is cost per ton; zero weight yields zero
func (v *Validator) priceAverage(cost, weight decimal.Decimal) decimal.Decimal {
	tons := v.unit.Convert(weight, entities.Ton)
	if tons.IsZero() {
		return decimal.Zero
	}
	return cost.Div(tons)
}

func (v *Validator) checkThreshold(total decimal.Decimal, violations *[]entities.Violation) bool {
	if !v.terms.WeightThreshold.Valid {
		return true
	}
	unit := v.terms.WeightThresholdUnit
	if unit == "" {
		unit = entities.Kilogram
	}
	threshold := unit.Convert(v.terms.WeightThreshold.Decimal, v.unit)
	if total.LessThanOrEqual(threshold) {
		return true
	}
	*violations = append(*violations, entities.Violation{
		Kind:    entities.ViolationWeightThreshold,
		Amount:  total.Sub(threshold),
		Message: fmt.Sprintf("total weight %s %s exceeds the contract threshold %s %s", total, v.unit, threshold, v.unit),
	})
	return false
}

func (v *Validator) checkBreakEven(average decimal.Decimal, violations *[]entities.Violation) bool {
	if !v.terms.BreakEvenPrice.Valid {
		return true
	}
	if average.LessThanOrEqual(v.terms.BreakEvenPrice.Decimal) {
		return true
	}
	*violations = append(*violations, entities.Violation{
		Kind:    entities.ViolationPriceAverage,
		Amount:  average.Sub(v.terms.BreakEvenPrice.Decimal),
		Message: fmt.Sprintf("average price %s per ton exceeds the break-even price %s", average.StringFixed(2), v.terms.BreakEvenPrice.Decimal),
	})
	return false
}
