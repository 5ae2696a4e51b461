package entities

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// WeightUnit is the unit a weight value is expressed in
type WeightUnit string

const (
	Kilogram WeightUnit = "kg"
	Ton      WeightUnit = "ton"
)

// ParseWeightUnit parses a unit name, defaulting to kilograms for an empty string
func ParseWeightUnit(s string) (WeightUnit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "kg", "kilogram", "kilograms":
		return Kilogram, nil
	case "t", "ton", "tons", "tonne", "tonnes":
		return Ton, nil
	default:
		return "", fmt.Errorf("unsupported weight unit: %s", s)
	}
}

// PerTon is how many of this unit make one ton
func (u WeightUnit) PerTon() decimal.Decimal {
	if u == Ton {
		return decimal.NewFromInt(1)
	}
	return decimal.NewFromInt(1000)
}

// Convert expresses value, given in unit u, in unit to
func (u WeightUnit) Convert(value decimal.Decimal, to WeightUnit) decimal.Decimal {
	if u == to {
		return value
	}
	return value.Div(u.PerTon()).Mul(to.PerTon())
}

// ContractTerms are the contract-level thresholds supplied by the caller
type ContractTerms struct {
	ContractID          int64
	WeightThreshold     decimal.NullDecimal
	WeightThresholdUnit WeightUnit
	BreakEvenPrice      decimal.NullDecimal
	MaxDateToBuy        time.Time
}

// AllowsWindow reports whether a window ends on or before the contract's last buying day
func (c ContractTerms) AllowsWindow(w TimeWindow) bool {
	if c.MaxDateToBuy.IsZero() || w.End.IsZero() {
		return true
	}
	return !Day(w.End).After(Day(c.MaxDateToBuy))
}
