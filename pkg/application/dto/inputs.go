package dto

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vsinha/packplan/pkg/application/services/reconcile"
	"github.com/vsinha/packplan/pkg/domain/entities"
)

// ContractInput carries the contract thresholds supplied by the caller
type ContractInput struct {
	ContractID          int64               `json:"contractId"`
	WeightThreshold     decimal.NullDecimal `json:"weightThreshold"`
	WeightThresholdUnit string              `json:"weightThresholdUnit,omitempty"`
	BreakEvenPrice      decimal.NullDecimal `json:"breakEvenPrice"`
	MaxDateToBuy        string              `json:"maxDateToBuy,omitempty"`
}

// AllocationInput is one persisted or in-progress allocation row
type AllocationInput struct {
	ID             int64               `json:"id,omitempty"`
	ParentID       int64               `json:"parentId,omitempty"`
	RowKey         string              `json:"rowKey,omitempty"`
	Region         string              `json:"region"`
	SupplierID     int64               `json:"supplierId"`
	GoodID         int64               `json:"goodId"`
	GoodType       string              `json:"goodType"`
	StartTime      string              `json:"startTime,omitempty"`
	EndTime        string              `json:"endTime,omitempty"`
	Quantity       decimal.NullDecimal `json:"quantity"`
	ActualQuantity decimal.Decimal     `json:"actualQuantity"`
	UnitPrice      decimal.NullDecimal `json:"unitPrice"`
	HasWeightSlip  bool                `json:"hasWeightSlip,omitempty"`
}

// WeighingInput is one persisted or in-progress weighing record
type WeighingInput struct {
	ID                 int64               `json:"id,omitempty"`
	RowKey             string              `json:"rowKey,omitempty"`
	ShippingScheduleID int64               `json:"shippingScheduleId"`
	CodeBooking        string              `json:"codeBooking"`
	Region             string              `json:"region"`
	SupplierID         int64               `json:"supplierId"`
	GoodID             int64               `json:"goodId"`
	GoodType           string              `json:"goodType"`
	LoadingDate        string              `json:"loadingDate,omitempty"`
	Weight             decimal.Decimal     `json:"weight"`
	CoverageQuantity   decimal.NullDecimal `json:"coverageQuantity"`
	CoverageType       string              `json:"coverageType,omitempty"`
	TransportUnit      string              `json:"transportUnit"`
	ContainerNumber    string              `json:"containerNumber"`
	SealNumber         string              `json:"sealNumber"`
	TruckNumber        string              `json:"truckNumber"`
	UnloadingPort      string              `json:"unloadingPort"`
	UnitPriceTransport decimal.NullDecimal `json:"unitPriceTransport"`
	Saved              bool                `json:"saved,omitempty"`
}

// ShipmentCandidateInput is one shipping-schedule entry from a match lookup
type ShipmentCandidateInput struct {
	ShippingScheduleID int64  `json:"shippingScheduleId"`
	CodeBooking        string `json:"codeBooking"`
	Region             string `json:"region"`
	SupplierID         int64  `json:"supplierId"`
	GoodType           string `json:"goodType"`
	LoadingDate        string `json:"loadingDate"`
	TransportUnit      string `json:"transportUnit"`
	ContainerCount     int    `json:"containerCount"`
}

// ShipmentMatchInput is a batch of candidates plus the existing entries they replace
type ShipmentMatchInput struct {
	GoodID     int64                    `json:"goodId"`
	Candidates []ShipmentCandidateInput `json:"candidates"`
	Conflicts  []ShipmentCandidateInput `json:"conflicts"`
}

// PlanRequest is the body of the plan evaluate and submit endpoints
type PlanRequest struct {
	Contract    ContractInput     `json:"contract"`
	Allocations []AllocationInput `json:"allocations"`
}

// WeighingRequest is the body of the weighing evaluate and submit endpoints
type WeighingRequest struct {
	Contract      ContractInput       `json:"contract"`
	Allocations   []AllocationInput   `json:"allocations"`
	Records       []WeighingInput     `json:"records"`
	ShipmentMatch *ShipmentMatchInput `json:"shipmentMatch,omitempty"`
}

// ToTerms converts the contract input
func (c ContractInput) ToTerms() (entities.ContractTerms, error) {
	unit, err := entities.ParseWeightUnit(c.WeightThresholdUnit)
	if err != nil {
		return entities.ContractTerms{}, err
	}
	maxDate, err := parseDate(c.MaxDateToBuy)
	if err != nil {
		return entities.ContractTerms{}, fmt.Errorf("maxDateToBuy: %w", err)
	}
	return entities.ContractTerms{
		ContractID:          c.ContractID,
		WeightThreshold:     c.WeightThreshold,
		WeightThresholdUnit: unit,
		BreakEvenPrice:      c.BreakEvenPrice,
		MaxDateToBuy:        maxDate,
	}, nil
}

// ToEntity converts an allocation input. Derived fields are left for the tree to compute.
func (in AllocationInput) ToEntity() (*entities.GoodsAllocation, error) {
	start, err := parseDate(in.StartTime)
	if err != nil {
		return nil, fmt.Errorf("startTime: %w", err)
	}
	end, err := parseDate(in.EndTime)
	if err != nil {
		return nil, fmt.Errorf("endTime: %w", err)
	}
	rowKey, err := parseRowKey(in.RowKey)
	if err != nil {
		return nil, err
	}
	return &entities.GoodsAllocation{
		ID:       entities.AllocationID(in.ID),
		ParentID: entities.AllocationID(in.ParentID),
		RowKey:   rowKey,
		Key: entities.CommodityKey{
			Region:   entities.Region(in.Region),
			Supplier: entities.SupplierID(in.SupplierID),
			Good:     entities.GoodID(in.GoodID),
			Quality:  entities.QualityType(in.GoodType),
		},
		Window:         entities.TimeWindow{Start: start, End: end},
		Quantity:       in.Quantity,
		ActualQuantity: in.ActualQuantity,
		UnitPrice:      in.UnitPrice,
		HasWeightSlip:  in.HasWeightSlip,
	}, nil
}

// ToEntity converts a weighing input. Link, price and ceiling are left for the reconciler.
func (in WeighingInput) ToEntity() (*entities.ActualWeighingRecord, error) {
	loading, err := parseDate(in.LoadingDate)
	if err != nil {
		return nil, fmt.Errorf("loadingDate: %w", err)
	}
	rowKey, err := parseRowKey(in.RowKey)
	if err != nil {
		return nil, err
	}
	return &entities.ActualWeighingRecord{
		ID:                 entities.WeighingID(in.ID),
		RowKey:             rowKey,
		ShippingScheduleID: in.ShippingScheduleID,
		CodeBooking:        in.CodeBooking,
		Key: entities.CommodityKey{
			Region:   entities.Region(in.Region),
			Supplier: entities.SupplierID(in.SupplierID),
			Good:     entities.GoodID(in.GoodID),
			Quality:  entities.QualityType(in.GoodType),
		},
		LoadingDate:        loading,
		ActualWeight:       in.Weight,
		CoverageQuantity:   in.CoverageQuantity,
		CoverageType:       entities.QualityType(in.CoverageType),
		TransportUnit:      in.TransportUnit,
		ContainerNumber:    in.ContainerNumber,
		SealNumber:         in.SealNumber,
		TruckNumber:        in.TruckNumber,
		UnloadingPort:      in.UnloadingPort,
		UnitPriceTransport: in.UnitPriceTransport,
		Saved:              in.Saved,
	}, nil
}

// ToMatch converts a shipment match input
func (in ShipmentMatchInput) ToMatch() (reconcile.ShipmentMatch, error) {
	match := reconcile.ShipmentMatch{Good: entities.GoodID(in.GoodID)}
	for i, c := range in.Candidates {
		candidate, err := c.toCandidate()
		if err != nil {
			return match, fmt.Errorf("candidate %d: %w", i, err)
		}
		match.Candidates = append(match.Candidates, candidate)
	}
	for i, c := range in.Conflicts {
		candidate, err := c.toCandidate()
		if err != nil {
			return match, fmt.Errorf("conflict %d: %w", i, err)
		}
		match.Conflicts = append(match.Conflicts, candidate)
	}
	return match, nil
}

func (c ShipmentCandidateInput) toCandidate() (reconcile.ShipmentCandidate, error) {
	loading, err := parseDate(c.LoadingDate)
	if err != nil {
		return reconcile.ShipmentCandidate{}, fmt.Errorf("loadingDate: %w", err)
	}
	return reconcile.ShipmentCandidate{
		ShippingScheduleID: c.ShippingScheduleID,
		CodeBooking:        c.CodeBooking,
		Region:             entities.Region(c.Region),
		Supplier:           entities.SupplierID(c.SupplierID),
		Quality:            entities.QualityType(c.GoodType),
		LoadingDate:        loading,
		TransportUnit:      c.TransportUnit,
		ContainerCount:     c.ContainerCount,
	}, nil
}

// AllocationsFromInputs converts every allocation input, reporting the first failing row
func AllocationsFromInputs(inputs []AllocationInput) ([]*entities.GoodsAllocation, error) {
	out := make([]*entities.GoodsAllocation, 0, len(inputs))
	for i, in := range inputs {
		a, err := in.ToEntity()
		if err != nil {
			return nil, fmt.Errorf("allocation %d: %w", i, err)
		}
		out = append(out, a)
	}
	return out, nil
}

// RecordsFromInputs converts every weighing input, reporting the first failing row
func RecordsFromInputs(inputs []WeighingInput) ([]*entities.ActualWeighingRecord, error) {
	out := make([]*entities.ActualWeighingRecord, 0, len(inputs))
	for i, in := range inputs {
		rec, err := in.ToEntity()
		if err != nil {
			return nil, fmt.Errorf("weighing record %d: %w", i, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(entities.DateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return entities.Day(t), nil
}

func parseRowKey(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid row key %q: %w", s, err)
	}
	return id, nil
}
