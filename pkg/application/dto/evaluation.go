package dto

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vsinha/packplan/pkg/application/services/allocation"
	"github.com/vsinha/packplan/pkg/application/services/reconcile"
	"github.com/vsinha/packplan/pkg/application/services/validation"
	"github.com/vsinha/packplan/pkg/domain/entities"
)

// AllocationView is an allocation with its derived fields, as returned to callers
type AllocationView struct {
	AllocationInput
	RowKey            uuid.UUID           `json:"rowKey"`
	BaseQuantity      decimal.NullDecimal `json:"baseQuantity"`
	RemainingQuantity decimal.Decimal     `json:"remainingQuantity"`
	MaxQuantity       decimal.NullDecimal `json:"maxQuantity"`
	HasConflict       bool                `json:"hasConflict"`
	HasOverQuantity   bool                `json:"hasOverQuantity"`
	IsFilled          bool                `json:"isFilled"`
	HasWeightSlip     bool                `json:"hasWeightSlip"`
	Initialized       bool                `json:"initialized"`
}

// OverQuantityView is one over-quantity group
type OverQuantityView struct {
	ParentRowKey     uuid.UUID       `json:"parentRowKey"`
	ChildRowKeys     []uuid.UUID     `json:"childRowKeys"`
	ChildrenQuantity decimal.Decimal `json:"childrenQuantity"`
	Capacity         decimal.Decimal `json:"capacity"`
	ExceedAmount     decimal.Decimal `json:"exceedAmount"`
	Message          string          `json:"message"`
}

// PlanSummaryView is the aggregate state of a plan
type PlanSummaryView struct {
	TotalWeight               decimal.Decimal      `json:"totalWeight"`
	TotalCost                 decimal.Decimal      `json:"totalCost"`
	PriceAverage              decimal.Decimal      `json:"priceAverage"`
	Unit                      entities.WeightUnit  `json:"unit"`
	ConditionRangeTotalWeight bool                 `json:"conditionRangeTotalWeight"`
	ConditionPriceAverage     bool                 `json:"conditionPriceAverage"`
	HasConflict               bool                 `json:"hasConflict"`
	HasOverQuantity           bool                 `json:"hasOverQuantity"`
	AllInitialized            bool                 `json:"allInitialized"`
	CanSubmit                 bool                 `json:"canSubmit"`
	Violations                []entities.Violation `json:"violations"`
}

// PlanEvaluation is the full derived state of a plan session
type PlanEvaluation struct {
	Allocations  []AllocationView   `json:"allocations"`
	OverQuantity []OverQuantityView `json:"overQuantity"`
	Summary      PlanSummaryView    `json:"summary"`
}

// NewPlanEvaluation assembles the derived state of a plan for output
func NewPlanEvaluation(rows []*entities.GoodsAllocation, groups []allocation.OverQuantityGroup, s validation.PlanSummary) PlanEvaluation {
	eval := PlanEvaluation{
		Allocations:  make([]AllocationView, 0, len(rows)),
		OverQuantity: make([]OverQuantityView, 0, len(groups)),
		Summary: PlanSummaryView{
			TotalWeight:               s.TotalWeight,
			TotalCost:                 s.TotalCost,
			PriceAverage:              s.PriceAverage.Round(2),
			Unit:                      s.Unit,
			ConditionRangeTotalWeight: s.ConditionRangeTotalWeight,
			ConditionPriceAverage:     s.ConditionPriceAverage,
			HasConflict:               s.HasConflict,
			HasOverQuantity:           s.HasOverQuantity,
			AllInitialized:            s.AllInitialized,
			CanSubmit:                 s.CanSubmit(),
			Violations:                nonNil(s.Violations),
		},
	}
	for _, a := range rows {
		eval.Allocations = append(eval.Allocations, NewAllocationView(a))
	}
	for _, g := range groups {
		eval.OverQuantity = append(eval.OverQuantity, OverQuantityView{
			ParentRowKey:     g.ParentRowKey,
			ChildRowKeys:     g.ChildRowKeys,
			ChildrenQuantity: g.ChildrenQuantity,
			Capacity:         g.Capacity,
			ExceedAmount:     g.ExceedAmount,
			Message:          g.Message(),
		})
	}
	return eval
}

// NewAllocationView renders one allocation
func NewAllocationView(a *entities.GoodsAllocation) AllocationView {
	return AllocationView{
		AllocationInput: AllocationInput{
			ID:             int64(a.ID),
			ParentID:       int64(a.ParentID),
			Region:         string(a.Key.Region),
			SupplierID:     int64(a.Key.Supplier),
			GoodID:         int64(a.Key.Good),
			GoodType:       string(a.Key.Quality),
			StartTime:      formatDate(a.Window.Start),
			EndTime:        formatDate(a.Window.End),
			Quantity:       a.Quantity,
			ActualQuantity: a.ActualQuantity,
			UnitPrice:      a.UnitPrice,
		},
		RowKey:            a.RowKey,
		BaseQuantity:      a.BaseQuantity,
		RemainingQuantity: a.RemainingQuantity,
		MaxQuantity:       a.MaxQuantity,
		HasConflict:       a.HasConflict,
		HasOverQuantity:   a.HasOverQuantity,
		IsFilled:          a.IsFilled,
		HasWeightSlip:     a.HasWeightSlip,
		Initialized:       a.Init.Ready(),
	}
}

// WeighingView is a weighing record with its derived fields
type WeighingView struct {
	WeighingInput
	RowKey           uuid.UUID           `json:"rowKey"`
	GoodPrice        decimal.NullDecimal `json:"goodPrice"`
	MaxGoodWeight    decimal.NullDecimal `json:"maxGoodWeight"`
	AllocationRowKey *uuid.UUID          `json:"allocationRowKey"`
	Initialized      bool                `json:"initialized"`
}

// WeightGroupView is one over-weight summary group
type WeightGroupView struct {
	Region           string          `json:"region"`
	SupplierID       int64           `json:"supplierId"`
	GoodID           int64           `json:"goodId"`
	GoodType         string          `json:"goodType"`
	StartTime        string          `json:"startTime"`
	EndTime          string          `json:"endTime"`
	AllocationRowKey uuid.UUID       `json:"allocationRowKey"`
	TotalWeight      decimal.Decimal `json:"totalWeight"`
	CurrentWeight    decimal.Decimal `json:"currentWeight"`
	RemainingWeight  decimal.Decimal `json:"remainingWeight"`
	HasOverWeight    bool            `json:"hasOverWeight"`
	RecordRowKeys    []uuid.UUID     `json:"recordRowKeys"`
}

// WeighingSummaryView is the aggregate state of a weighing set
type WeighingSummaryView struct {
	TotalWeight    decimal.Decimal      `json:"totalWeight"`
	TotalCost      decimal.Decimal      `json:"totalCost"`
	PriceAverage   decimal.Decimal      `json:"priceAverage"`
	Unit           entities.WeightUnit  `json:"unit"`
	HasOverWeight  bool                 `json:"hasOverWeight"`
	Pending        bool                 `json:"pending"`
	AllLinked      bool                 `json:"allLinked"`
	AllInitialized bool                 `json:"allInitialized"`
	CanSubmit      bool                 `json:"canSubmit"`
	Violations     []entities.Violation `json:"violations"`
}

// WeighingEvaluation is the full derived state of a weighing session
type WeighingEvaluation struct {
	Records []WeighingView      `json:"records"`
	Groups  []WeightGroupView   `json:"groups"`
	Summary WeighingSummaryView `json:"summary"`
}

// NewWeighingEvaluation assembles the derived state of a weighing set for output
func NewWeighingEvaluation(records []*entities.ActualWeighingRecord, s validation.WeighingSummary) WeighingEvaluation {
	eval := WeighingEvaluation{
		Records: make([]WeighingView, 0, len(records)),
		Groups:  make([]WeightGroupView, 0, len(s.Groups)),
		Summary: WeighingSummaryView{
			TotalWeight:    s.TotalWeight,
			TotalCost:      s.TotalCost,
			PriceAverage:   s.PriceAverage.Round(2),
			Unit:           s.Unit,
			HasOverWeight:  s.HasOverWeight,
			Pending:        s.Pending,
			AllLinked:      s.AllLinked,
			AllInitialized: s.AllInitialized,
			CanSubmit:      s.CanSubmit(),
			Violations:     nonNil(s.Violations),
		},
	}
	for _, rec := range records {
		eval.Records = append(eval.Records, NewWeighingView(rec))
	}
	for _, g := range s.Groups {
		eval.Groups = append(eval.Groups, newWeightGroupView(g))
	}
	return eval
}

// NewWeighingView renders one weighing record
func NewWeighingView(rec *entities.ActualWeighingRecord) WeighingView {
	view := WeighingView{
		WeighingInput: WeighingInput{
			ID:                 int64(rec.ID),
			ShippingScheduleID: rec.ShippingScheduleID,
			CodeBooking:        rec.CodeBooking,
			Region:             string(rec.Key.Region),
			SupplierID:         int64(rec.Key.Supplier),
			GoodID:             int64(rec.Key.Good),
			GoodType:           string(rec.Key.Quality),
			LoadingDate:        formatDate(rec.LoadingDate),
			Weight:             rec.ActualWeight,
			CoverageQuantity:   rec.CoverageQuantity,
			CoverageType:       string(rec.CoverageType),
			TransportUnit:      rec.TransportUnit,
			ContainerNumber:    rec.ContainerNumber,
			SealNumber:         rec.SealNumber,
			TruckNumber:        rec.TruckNumber,
			UnloadingPort:      rec.UnloadingPort,
			UnitPriceTransport: rec.UnitPriceTransport,
			Saved:              rec.Saved,
		},
		RowKey:        rec.RowKey,
		GoodPrice:     rec.GoodPrice,
		MaxGoodWeight: rec.MaxGoodWeight,
		Initialized:   rec.Init.Ready(),
	}
	if rec.LinkedAllocation != nil {
		key := rec.LinkedAllocation.RowKey
		view.AllocationRowKey = &key
	}
	return view
}

func newWeightGroupView(g reconcile.WeightGroup) WeightGroupView {
	return WeightGroupView{
		Region:           string(g.Key.Region),
		SupplierID:       int64(g.Key.Supplier),
		GoodID:           int64(g.Key.Good),
		GoodType:         string(g.Key.Quality),
		StartTime:        formatDate(g.Window.Start),
		EndTime:          formatDate(g.Window.End),
		AllocationRowKey: g.AllocationRowKey,
		TotalWeight:      g.TotalWeight,
		CurrentWeight:    g.CurrentWeight,
		RemainingWeight:  g.RemainingWeight,
		HasOverWeight:    g.HasOverWeight,
		RecordRowKeys:    g.RecordRowKeys,
	}
}

func nonNil(v []entities.Violation) []entities.Violation {
	if v == nil {
		return []entities.Violation{}
	}
	return v
}
