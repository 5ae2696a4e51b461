package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vsinha/packplan/pkg/domain/entities"
)

// PlanItemPayload is one allocation in the submitted plan tree. Items holds its children.
type PlanItemPayload struct {
	RowKey     uuid.UUID         `json:"rowKey"`
	ID         int64             `json:"id,omitempty"`
	Region     string            `json:"region"`
	SupplierID int64             `json:"supplierId"`
	GoodID     int64             `json:"goodId"`
	Quantity   decimal.Decimal   `json:"quantity"`
	UnitPrice  decimal.Decimal   `json:"unitPrice"`
	GoodType   string            `json:"goodType"`
	StartTime  string            `json:"startTime"`
	EndTime    string            `json:"endTime"`
	ParentID   *int64            `json:"parentId"`
	Items      []PlanItemPayload `json:"items"`
}

// PlanPayload is the submit payload of a plan session
type PlanPayload struct {
	ContractID int64             `json:"contractId"`
	Items      []PlanItemPayload `json:"items"`
}

// Flatten returns every item of the tree, parents before their children
func (p PlanPayload) Flatten() []PlanItemPayload {
	var out []PlanItemPayload
	var walk func(items []PlanItemPayload)
	walk = func(items []PlanItemPayload) {
		for _, it := range items {
			out = append(out, it)
			walk(it.Items)
		}
	}
	walk(p.Items)
	return out
}

// BuildPlanPayload nests the flat allocation set into the submit tree
func BuildPlanPayload(contractID int64, rows []*entities.GoodsAllocation) PlanPayload {
	saved := make(map[entities.AllocationID]bool)
	children := make(map[entities.AllocationID][]*entities.GoodsAllocation)
	for _, a := range rows {
		if a.IsSaved() {
			saved[a.ID] = true
		}
		if a.IsChild() {
			children[a.ParentID] = append(children[a.ParentID], a)
		}
	}

	var build func(a *entities.GoodsAllocation) PlanItemPayload
	build = func(a *entities.GoodsAllocation) PlanItemPayload {
		item := planItem(a)
		if a.IsSaved() {
			for _, c := range children[a.ID] {
				item.Items = append(item.Items, build(c))
			}
		}
		return item
	}

	payload := PlanPayload{ContractID: contractID, Items: []PlanItemPayload{}}
	for _, a := range rows {
		if a.IsChild() && saved[a.ParentID] {
			continue
		}
		payload.Items = append(payload.Items, build(a))
	}
	return payload
}

func planItem(a *entities.GoodsAllocation) PlanItemPayload {
	item := PlanItemPayload{
		RowKey:     a.RowKey,
		ID:         int64(a.ID),
		Region:     string(a.Key.Region),
		SupplierID: int64(a.Key.Supplier),
		GoodID:     int64(a.Key.Good),
		Quantity:   a.QuantityOrZero(),
		UnitPrice:  entities.ValueOrZero(a.UnitPrice),
		GoodType:   string(a.Key.Quality),
		StartTime:  formatDate(a.Window.Start),
		EndTime:    formatDate(a.Window.End),
		Items:      []PlanItemPayload{},
	}
	if a.IsChild() {
		parent := int64(a.ParentID)
		item.ParentID = &parent
	}
	return item
}

// WeighingItemPayload is one record in the submitted weighing list
type WeighingItemPayload struct {
	RowKey             uuid.UUID            `json:"rowKey"`
	ID                 int64                `json:"id,omitempty"`
	AllocationRowKey   uuid.UUID            `json:"allocationRowKey"`
	AllocationID       int64                `json:"allocationId,omitempty"`
	ShippingScheduleID int64                `json:"shippingScheduleId"`
	CodeBooking        string               `json:"codeBooking"`
	Region             string               `json:"region"`
	GoodID             int64                `json:"goodId"`
	SupplierID         int64                `json:"supplierId"`
	TransportUnit      string               `json:"transportUnit"`
	GoodType           string               `json:"goodType"`
	LoadingDate        string               `json:"loadingDate"`
	Weight             decimal.Decimal      `json:"weight"`
	UnitPrice          decimal.Decimal      `json:"unitPrice"`
	ContainerNumber    string               `json:"containerNumber"`
	SealNumber         string               `json:"sealNumber"`
	TruckNumber        string               `json:"truckNumber"`
	UnloadingPort      string               `json:"unloadingPort"`
	UnitPriceTransport decimal.NullDecimal  `json:"unitPriceTransport"`
	CoverageQuantity   *decimal.Decimal     `json:"coverageQuantity,omitempty"`
	CoverageType       entities.QualityType `json:"coverageType,omitempty"`
}

// WeighingPayload is the submit payload of a weighing session
type WeighingPayload struct {
	ContractID int64                 `json:"contractId"`
	Items      []WeighingItemPayload `json:"items"`
}

// BuildWeighingPayload flattens a settled weighing set into the submit list
func BuildWeighingPayload(contractID int64, records []*entities.ActualWeighingRecord) WeighingPayload {
	payload := WeighingPayload{ContractID: contractID, Items: make([]WeighingItemPayload, 0, len(records))}
	for _, rec := range records {
		item := WeighingItemPayload{
			RowKey:             rec.RowKey,
			ID:                 int64(rec.ID),
			ShippingScheduleID: rec.ShippingScheduleID,
			CodeBooking:        rec.CodeBooking,
			Region:             string(rec.Key.Region),
			GoodID:             int64(rec.Key.Good),
			SupplierID:         int64(rec.Key.Supplier),
			TransportUnit:      rec.TransportUnit,
			GoodType:           string(rec.Key.Quality),
			LoadingDate:        formatDate(rec.LoadingDate),
			Weight:             rec.ActualWeight,
			UnitPrice:          entities.ValueOrZero(rec.GoodPrice),
			ContainerNumber:    rec.ContainerNumber,
			SealNumber:         rec.SealNumber,
			TruckNumber:        rec.TruckNumber,
			UnloadingPort:      rec.UnloadingPort,
			UnitPriceTransport: rec.UnitPriceTransport,
		}
		if rec.LinkedAllocation != nil {
			item.AllocationRowKey = rec.LinkedAllocation.RowKey
			item.AllocationID = int64(rec.LinkedAllocation.ID)
		}
		if rec.CoverageQuantity.Valid {
			q := rec.CoverageQuantity.Decimal
			item.CoverageQuantity = &q
			item.CoverageType = rec.CoverageType
		}
		payload.Items = append(payload.Items, item)
	}
	return payload
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(entities.DateLayout)
}
