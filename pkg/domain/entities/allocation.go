package entities

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// GoodsAllocation is a planned quantity of one quality grade of one good, sourced from one
// supplier in one region, to be picked up within a time window.
//
// BaseQuantity is the allocation's size before any splitting: its own visible Quantity plus
// everything redistributed to its children. Quantity, RemainingQuantity, IsFilled and the
// flags are derived by the allocation tree and are never set by callers.
type GoodsAllocation struct {
	ID       AllocationID
	ParentID AllocationID
	RowKey   uuid.UUID

	Key    CommodityKey
	Window TimeWindow

	BaseQuantity      decimal.NullDecimal
	Quantity          decimal.NullDecimal
	ActualQuantity    decimal.Decimal
	RemainingQuantity decimal.Decimal
	MaxQuantity       decimal.NullDecimal
	UnitPrice         decimal.NullDecimal

	HasConflict     bool
	HasOverQuantity bool
	IsFilled        bool
	HasWeightSlip   bool

	Init InitGate
}

// AllocationDraft carries the fields a caller may supply when adding a top-level row
type AllocationDraft struct {
	Key       CommodityKey
	Window    TimeWindow
	UnitPrice decimal.NullDecimal
}

// IsSaved reports whether the allocation has been persisted
func (a *GoodsAllocation) IsSaved() bool {
	return a.ID != 0
}

// IsChild reports whether the allocation was carved out of a parent
func (a *GoodsAllocation) IsChild() bool {
	return a.ParentID != 0
}

// IdentityComplete reports whether the commodity key and window are fully specified
func (a *GoodsAllocation) IdentityComplete() bool {
	return a.Key.IsComplete() && a.Window.IsComplete()
}

// QuantityOrZero returns the visible quantity, treating an unfilled quantity as zero
func (a *GoodsAllocation) QuantityOrZero() decimal.Decimal {
	return ValueOrZero(a.Quantity)
}

// Capacity is what children may take from this allocation: max(0, base - actual)
func (a *GoodsAllocation) Capacity() decimal.Decimal {
	return MaxZero(ValueOrZero(a.BaseQuantity).Sub(a.ActualQuantity))
}

// Cost is unit price times visible quantity
func (a *GoodsAllocation) Cost() decimal.Decimal {
	return ValueOrZero(a.UnitPrice).Mul(a.QuantityOrZero())
}

// Clone returns a shallow copy safe to hand to readers
func (a *GoodsAllocation) Clone() *GoodsAllocation {
	c := *a
	return &c
}
