package entities

import "github.com/shopspring/decimal"

// Region is the code of a sourcing region
type Region string

// SupplierID references a supplier in the caller's reference data
type SupplierID int64

// GoodID references a good in the caller's reference data
type GoodID int64

// QualityType is the quality grade of a good
type QualityType string

// AllocationID is the persisted identity of a GoodsAllocation, zero while unsaved
type AllocationID int64

// WeighingID is the persisted identity of an ActualWeighingRecord, zero while unsaved
type WeighingID int64

// ValueOrZero unwraps a nullable decimal, treating an unfilled value as zero
func ValueOrZero(d decimal.NullDecimal) decimal.Decimal {
	if !d.Valid {
		return decimal.Zero
	}
	return d.Decimal
}

// NewNullDecimal wraps a value as a filled nullable decimal
func NewNullDecimal(d decimal.Decimal) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: d, Valid: true}
}

// MaxZero clamps negative values to zero
func MaxZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
