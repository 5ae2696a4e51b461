package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ActualWeighingRecord is one real weighing event consuming capacity from exactly one allocation.
//
// GoodPrice, LinkedAllocation and MaxGoodWeight are derived by the weight reconciler.
// LinkedAllocation points into the plan's allocation set and is read-only here.
type ActualWeighingRecord struct {
	ID                 WeighingID
	RowKey             uuid.UUID
	ShippingScheduleID int64
	CodeBooking        string

	Key         CommodityKey
	LoadingDate time.Time

	ActualWeight     decimal.Decimal
	CoverageQuantity decimal.NullDecimal
	CoverageType     QualityType

	GoodPrice        decimal.NullDecimal
	LinkedAllocation *GoodsAllocation
	MaxGoodWeight    decimal.NullDecimal

	TransportUnit      string
	ContainerNumber    string
	SealNumber         string
	TruckNumber        string
	UnloadingPort      string
	UnitPriceTransport decimal.NullDecimal

	Saved bool
	Init  InitGate
}

// IdentityComplete reports whether commodity key, booking and loading date are filled in
func (r *ActualWeighingRecord) IdentityComplete() bool {
	return r.Key.IsComplete() && r.CodeBooking != "" && !r.LoadingDate.IsZero()
}

// IsLinked reports whether the record resolved to an allocation
func (r *ActualWeighingRecord) IsLinked() bool {
	return r.LinkedAllocation != nil
}

// ConsumedWeight is actual weight plus any coverage quantity
func (r *ActualWeighingRecord) ConsumedWeight() decimal.Decimal {
	return r.ActualWeight.Add(ValueOrZero(r.CoverageQuantity))
}

// DuplicateKey identifies the same physical pickup: booking, supplier, loading day and transport unit
type DuplicateKey struct {
	CodeBooking   string
	Supplier      SupplierID
	LoadingDate   string
	TransportUnit string
}

// DuplicateKey returns the key used to match shipment-match conflicts against existing records
func (r *ActualWeighingRecord) DuplicateKey() DuplicateKey {
	return DuplicateKey{
		CodeBooking:   r.CodeBooking,
		Supplier:      r.Key.Supplier,
		LoadingDate:   Day(r.LoadingDate).Format(DateLayout),
		TransportUnit: r.TransportUnit,
	}
}
