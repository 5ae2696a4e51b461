package allocation

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vsinha/packplan/pkg/application/services/conflict"
	"github.com/vsinha/packplan/pkg/domain/entities"
)

// OverQuantityGroup is a parent whose children together take more than the parent can give
type OverQuantityGroup struct {
	ParentIndex      int
	ParentRowKey     uuid.UUID
	ChildIndexes     []int
	ChildRowKeys     []uuid.UUID
	ChildrenQuantity decimal.Decimal
	Capacity         decimal.Decimal
	ExceedAmount     decimal.Decimal
}

// Message renders the group as an inline warning
func (g OverQuantityGroup) Message() string {
	return fmt.Sprintf("children exceed remaining capacity by %s", g.ExceedAmount.String())
}

// RowKeys returns the parent's and every child's row key
func (g OverQuantityGroup) RowKeys() []uuid.UUID {
	return append([]uuid.UUID{g.ParentRowKey}, g.ChildRowKeys...)
}

// RecomputeDerived brings every derived field in line with the current inputs:
// parent quantities, remaining quantities, filled, over-quantity and conflict flags, and
// initialization gates. It reads only inputs, so calling it twice yields the same state.
func (t *Tree) RecomputeDerived() {
	byID := make(map[entities.AllocationID]int, len(t.allocations))
	for i, a := range t.allocations {
		if a.IsSaved() {
			byID[a.ID] = i
		}
	}

	children := make(map[int][]int)
	for i, a := range t.allocations {
		if !a.IsChild() {
			continue
		}
		pi, ok := byID[a.ParentID]
		if !ok {
			t.logger.Warn("sub-allocation without parent in set", zap.Int64("parent_id", int64(a.ParentID)))
			continue
		}
		children[pi] = append(children[pi], i)
	}

	for i, a := range t.allocations {
		if !a.BaseQuantity.Valid {
			continue
		}
		kids, isParent := children[i]
		if !isParent {
			a.Quantity = a.BaseQuantity
			continue
		}
		sum := decimal.Zero
		for _, ci := range kids {
			sum = sum.Add(t.allocations[ci].QuantityOrZero())
		}
		a.Quantity = entities.NewNullDecimal(entities.MaxZero(a.BaseQuantity.Decimal.Sub(sum)))
	}

	for _, a := range t.allocations {
		a.RemainingQuantity = entities.MaxZero(a.QuantityOrZero().Sub(a.ActualQuantity))
		a.IsFilled = a.Quantity.Valid && a.RemainingQuantity.IsZero()
		a.HasOverQuantity = false
	}

	t.overQuantity = nil
	for pi := 0; pi < len(t.allocations); pi++ {
		kids, ok := children[pi]
		if !ok {
			continue
		}
		group := evaluateGroup(t.allocations, pi, kids)
		if !group.ExceedAmount.IsPositive() {
			continue
		}
		t.allocations[pi].HasOverQuantity = true
		for _, ci := range kids {
			t.allocations[ci].HasOverQuantity = true
		}
		t.overQuantity = append(t.overQuantity, group)
	}

	t.conflicts = conflict.Detect(t.allocations)
	flags := make([]bool, len(t.allocations))
	for _, p := range t.conflicts {
		flags[p.A] = true
		flags[p.B] = true
	}
	now := t.clock()
	for i, a := range t.allocations {
		a.HasConflict = flags[i]
		a.Init.Evaluate(a.IdentityComplete(), now)
	}
}

func evaluateGroup(rows []*entities.GoodsAllocation, parentIndex int, childIndexes []int) OverQuantityGroup {
	parent := rows[parentIndex]
	group := OverQuantityGroup{
		ParentIndex:      parentIndex,
		ParentRowKey:     parent.RowKey,
		ChildIndexes:     childIndexes,
		ChildrenQuantity: decimal.Zero,
		Capacity:         parent.Capacity(),
	}
	for _, ci := range childIndexes {
		group.ChildRowKeys = append(group.ChildRowKeys, rows[ci].RowKey)
		group.ChildrenQuantity = group.ChildrenQuantity.Add(rows[ci].QuantityOrZero())
	}
	group.ExceedAmount = group.ChildrenQuantity.Sub(group.Capacity)
	return group
}
