package entities

import (
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidOperation marks a structurally forbidden mutation
	ErrInvalidOperation = errors.New("invalid operation")
	// ErrIndexOutOfRange marks an index that does not address a row
	ErrIndexOutOfRange = errors.New("index out of range")
	// ErrInvalidQuantity marks a negative or otherwise unusable quantity
	ErrInvalidQuantity = errors.New("invalid quantity")
	// ErrInvalidWindow marks a window with missing bounds, inverted bounds or out of contract range
	ErrInvalidWindow = errors.New("invalid time window")
	// ErrAboveCeiling marks an input above its derived ceiling
	ErrAboveCeiling = errors.New("value above ceiling")
	// ErrPendingReconciliation marks a weighing session with a deferred recompute
	ErrPendingReconciliation = errors.New("reconciliation pending")
	// ErrNotSubmittable marks a session whose gates are not all open
	ErrNotSubmittable = errors.New("session is not submittable")
)

// ViolationKind classifies a settled but invalid state
type ViolationKind int

const (
	ViolationConflict ViolationKind = iota
	ViolationOverQuantity
	ViolationOverWeight
	ViolationWeightThreshold
	ViolationPriceAverage
	ViolationMissingLink
	ViolationUninitialized
)

// String method for ViolationKind enum
func (k ViolationKind) String() string {
	switch k {
	case ViolationConflict:
		return "Conflict"
	case ViolationOverQuantity:
		return "OverQuantity"
	case ViolationOverWeight:
		return "OverWeight"
	case ViolationWeightThreshold:
		return "WeightThreshold"
	case ViolationPriceAverage:
		return "PriceAverage"
	case ViolationMissingLink:
		return "MissingLink"
	case ViolationUninitialized:
		return "Uninitialized"
	default:
		return "Unknown"
	}
}

// MarshalText renders the kind by name in JSON payloads
func (k ViolationKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Violation is an inline warning tied to rows, or a contract-level banner when RowKeys is empty
type Violation struct {
	Kind    ViolationKind   `json:"kind"`
	RowKeys []uuid.UUID     `json:"rowKeys,omitempty"`
	Amount  decimal.Decimal `json:"amount"`
	Message string          `json:"message"`
}
