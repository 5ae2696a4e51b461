package sqlite

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vsinha/packplan/pkg/domain/entities"
)

// allocationModel is the goods_allocations row. Decimals are stored as text so they
// round-trip exactly.
type allocationModel struct {
	ID             int64  `gorm:"primaryKey;autoIncrement"`
	ContractID     int64  `gorm:"index;not null"`
	ParentID       int64  `gorm:"index"`
	RowKey         string `gorm:"size:36;not null"`
	Region         string `gorm:"size:32"`
	SupplierID     int64
	GoodID         int64
	GoodType       string `gorm:"size:32"`
	StartTime      *time.Time
	EndTime        *time.Time
	Quantity       decimal.NullDecimal `gorm:"type:text"`
	BaseQuantity   decimal.NullDecimal `gorm:"type:text"`
	ActualQuantity decimal.Decimal     `gorm:"type:text"`
	UnitPrice      decimal.NullDecimal `gorm:"type:text"`
	HasWeightSlip  bool
	UpdatedAt      time.Time
}

func (allocationModel) TableName() string { return "goods_allocations" }

type weighingModel struct {
	ID                 int64  `gorm:"primaryKey;autoIncrement"`
	ContractID         int64  `gorm:"index;not null"`
	AllocationID       *int64 `gorm:"index"`
	RowKey             string `gorm:"size:36;not null"`
	ShippingScheduleID int64
	CodeBooking        string `gorm:"size:64"`
	Region             string `gorm:"size:32"`
	SupplierID         int64
	GoodID             int64
	GoodType           string `gorm:"size:32"`
	LoadingDate        *time.Time
	Weight             decimal.Decimal     `gorm:"type:text"`
	CoverageQuantity   decimal.NullDecimal `gorm:"type:text"`
	CoverageType       string              `gorm:"size:32"`
	UnitPrice          decimal.NullDecimal `gorm:"type:text"`
	TransportUnit      string              `gorm:"size:32"`
	ContainerNumber    string              `gorm:"size:32"`
	SealNumber         string              `gorm:"size:32"`
	TruckNumber        string              `gorm:"size:32"`
	UnloadingPort      string              `gorm:"size:64"`
	UnitPriceTransport decimal.NullDecimal `gorm:"type:text"`
	UpdatedAt          time.Time
}

func (weighingModel) TableName() string { return "weighing_records" }

func toAllocationModel(contractID int64, a *entities.GoodsAllocation) allocationModel {
	return allocationModel{
		ID:             int64(a.ID),
		ContractID:     contractID,
		ParentID:       int64(a.ParentID),
		RowKey:         a.RowKey.String(),
		Region:         string(a.Key.Region),
		SupplierID:     int64(a.Key.Supplier),
		GoodID:         int64(a.Key.Good),
		GoodType:       string(a.Key.Quality),
		StartTime:      datePtr(a.Window.Start),
		EndTime:        datePtr(a.Window.End),
		Quantity:       a.Quantity,
		BaseQuantity:   a.BaseQuantity,
		ActualQuantity: a.ActualQuantity,
		UnitPrice:      a.UnitPrice,
		HasWeightSlip:  a.HasWeightSlip,
	}
}

func (m allocationModel) toEntity() *entities.GoodsAllocation {
	rowKey, _ := uuid.Parse(m.RowKey)
	return &entities.GoodsAllocation{
		ID:       entities.AllocationID(m.ID),
		ParentID: entities.AllocationID(m.ParentID),
		RowKey:   rowKey,
		Key: entities.CommodityKey{
			Region:   entities.Region(m.Region),
			Supplier: entities.SupplierID(m.SupplierID),
			Good:     entities.GoodID(m.GoodID),
			Quality:  entities.QualityType(m.GoodType),
		},
		Window:         entities.TimeWindow{Start: dateValue(m.StartTime), End: dateValue(m.EndTime)},
		Quantity:       m.Quantity,
		BaseQuantity:   m.BaseQuantity,
		ActualQuantity: m.ActualQuantity,
		UnitPrice:      m.UnitPrice,
		HasWeightSlip:  m.HasWeightSlip,
	}
}

func toWeighingModel(contractID int64, r *entities.ActualWeighingRecord) weighingModel {
	m := weighingModel{
		ID:                 int64(r.ID),
		ContractID:         contractID,
		RowKey:             r.RowKey.String(),
		ShippingScheduleID: r.ShippingScheduleID,
		CodeBooking:        r.CodeBooking,
		Region:             string(r.Key.Region),
		SupplierID:         int64(r.Key.Supplier),
		GoodID:             int64(r.Key.Good),
		GoodType:           string(r.Key.Quality),
		LoadingDate:        datePtr(r.LoadingDate),
		Weight:             r.ActualWeight,
		CoverageQuantity:   r.CoverageQuantity,
		CoverageType:       string(r.CoverageType),
		UnitPrice:          r.GoodPrice,
		TransportUnit:      r.TransportUnit,
		ContainerNumber:    r.ContainerNumber,
		SealNumber:         r.SealNumber,
		TruckNumber:        r.TruckNumber,
		UnloadingPort:      r.UnloadingPort,
		UnitPriceTransport: r.UnitPriceTransport,
	}
	if r.LinkedAllocation != nil && r.LinkedAllocation.IsSaved() {
		id := int64(r.LinkedAllocation.ID)
		m.AllocationID = &id
	}
	return m
}

func (m weighingModel) toEntity() *entities.ActualWeighingRecord {
	rowKey, _ := uuid.Parse(m.RowKey)
	return &entities.ActualWeighingRecord{
		ID:                 entities.WeighingID(m.ID),
		RowKey:             rowKey,
		ShippingScheduleID: m.ShippingScheduleID,
		CodeBooking:        m.CodeBooking,
		Key: entities.CommodityKey{
			Region:   entities.Region(m.Region),
			Supplier: entities.SupplierID(m.SupplierID),
			Good:     entities.GoodID(m.GoodID),
			Quality:  entities.QualityType(m.GoodType),
		},
		LoadingDate:        dateValue(m.LoadingDate),
		ActualWeight:       m.Weight,
		CoverageQuantity:   m.CoverageQuantity,
		CoverageType:       entities.QualityType(m.CoverageType),
		GoodPrice:          m.UnitPrice,
		TransportUnit:      m.TransportUnit,
		ContainerNumber:    m.ContainerNumber,
		SealNumber:         m.SealNumber,
		TruckNumber:        m.TruckNumber,
		UnloadingPort:      m.UnloadingPort,
		UnitPriceTransport: m.UnitPriceTransport,
		Saved:              true,
	}
}

func datePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	y, m, d := t.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &day
}

func dateValue(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
