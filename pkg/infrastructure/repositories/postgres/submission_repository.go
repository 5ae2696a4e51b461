package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vsinha/packplan/pkg/domain/entities"
	"github.com/vsinha/packplan/pkg/domain/repositories"
)

// Numerics travel as text in both directions so decimals stay exact without a codec.
const (
	insertAllocation = `
INSERT INTO goods_allocations (contract_id, parent_id, row_key, region, supplier_id, good_id, good_type,
    start_time, end_time, quantity, base_quantity, actual_quantity, unit_price, has_weight_slip)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10::text::numeric, $11::text::numeric, $12::text::numeric,
    $13::text::numeric, $14)
RETURNING id`

	updateAllocation = `
UPDATE goods_allocations SET parent_id = $3, row_key = $4, region = $5, supplier_id = $6, good_id = $7,
    good_type = $8, start_time = $9, end_time = $10, quantity = $11::text::numeric,
    base_quantity = $12::text::numeric, actual_quantity = $13::text::numeric,
    unit_price = $14::text::numeric, has_weight_slip = $15, updated_at = now()
WHERE id = $1 AND contract_id = $2`

	selectAllocations = `
SELECT id, parent_id, row_key, region, supplier_id, good_id, good_type, start_time, end_time,
    quantity::text, base_quantity::text, actual_quantity::text, unit_price::text, has_weight_slip
FROM goods_allocations WHERE contract_id = $1 ORDER BY id`

	insertWeighing = `
INSERT INTO weighing_records (contract_id, allocation_id, row_key, shipping_schedule_id, code_booking,
    region, supplier_id, good_id, good_type, loading_date, weight, coverage_quantity, coverage_type,
    unit_price, transport_unit, container_number, seal_number, truck_number, unloading_port,
    unit_price_transport)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11::text::numeric, $12::text::numeric, $13,
    $14::text::numeric, $15, $16, $17, $18, $19, $20::text::numeric)
RETURNING id`

	updateWeighing = `
UPDATE weighing_records SET allocation_id = $3, row_key = $4, shipping_schedule_id = $5,
    code_booking = $6, region = $7, supplier_id = $8, good_id = $9, good_type = $10,
    loading_date = $11, weight = $12::text::numeric, coverage_quantity = $13::text::numeric,
    coverage_type = $14, unit_price = $15::text::numeric, transport_unit = $16,
    container_number = $17, seal_number = $18, truck_number = $19, unloading_port = $20,
    unit_price_transport = $21::text::numeric, updated_at = now()
WHERE id = $1 AND contract_id = $2`

	selectWeighings = `
SELECT id, row_key, shipping_schedule_id, code_booking, region, supplier_id, good_id, good_type,
    loading_date, weight::text, coverage_quantity::text, coverage_type, unit_price::text,
    transport_unit, container_number, seal_number, truck_number, unloading_port,
    unit_price_transport::text
FROM weighing_records WHERE contract_id = $1 ORDER BY id`
)

// SubmissionRepository stores submissions in PostgreSQL
type SubmissionRepository struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewSubmissionRepository(pool *pgxpool.Pool, log *zap.Logger) *SubmissionRepository {
	if log == nil {
		log = zap.NewNop()
	}
	return &SubmissionRepository{pool: pool, logger: log}
}

var _ repositories.SubmissionRepository = (*SubmissionRepository)(nil)

var errNotFound = errors.New("not found")

func (r *SubmissionRepository) SavePlan(ctx context.Context, contractID int64, allocations []*entities.GoodsAllocation) (map[uuid.UUID]entities.AllocationID, error) {
	ids := make(map[uuid.UUID]entities.AllocationID, len(allocations))
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		keep := make([]int64, 0, len(allocations))
		for _, a := range allocations {
			id := int64(a.ID)
			if id == 0 {
				err := tx.QueryRow(ctx, insertAllocation,
					contractID, int64(a.ParentID), a.RowKey.String(), string(a.Key.Region),
					int64(a.Key.Supplier), int64(a.Key.Good), string(a.Key.Quality),
					date(a.Window.Start), date(a.Window.End),
					nullText(a.Quantity), nullText(a.BaseQuantity), a.ActualQuantity.String(),
					nullText(a.UnitPrice), a.HasWeightSlip,
				).Scan(&id)
				if err != nil {
					return fmt.Errorf("insert allocation: %w", err)
				}
			} else {
				tag, err := tx.Exec(ctx, updateAllocation,
					id, contractID, int64(a.ParentID), a.RowKey.String(), string(a.Key.Region),
					int64(a.Key.Supplier), int64(a.Key.Good), string(a.Key.Quality),
					date(a.Window.Start), date(a.Window.End),
					nullText(a.Quantity), nullText(a.BaseQuantity), a.ActualQuantity.String(),
					nullText(a.UnitPrice), a.HasWeightSlip,
				)
				if err != nil {
					return fmt.Errorf("update allocation %d: %w", id, err)
				}
				if tag.RowsAffected() == 0 {
					return fmt.Errorf("allocation %d: %w", id, errNotFound)
				}
			}
			ids[a.RowKey] = entities.AllocationID(id)
			keep = append(keep, id)
		}
		_, err := tx.Exec(ctx, `DELETE FROM goods_allocations WHERE contract_id = $1 AND NOT (id = ANY($2))`, contractID, keep)
		return err
	})
	if err != nil {
		return nil, err
	}
	r.logger.Debug("plan stored", zap.Int64("contract_id", contractID), zap.Int("rows", len(ids)))
	return ids, nil
}

func (r *SubmissionRepository) SaveWeighing(ctx context.Context, contractID int64, records []*entities.ActualWeighingRecord) (map[uuid.UUID]entities.WeighingID, error) {
	ids := make(map[uuid.UUID]entities.WeighingID, len(records))
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		keep := make([]int64, 0, len(records))
		for _, rec := range records {
			var allocationID *int64
			if rec.LinkedAllocation != nil && rec.LinkedAllocation.IsSaved() {
				v := int64(rec.LinkedAllocation.ID)
				allocationID = &v
			}
			id := int64(rec.ID)
			if id == 0 {
				err := tx.QueryRow(ctx, insertWeighing,
					contractID, allocationID, rec.RowKey.String(), rec.ShippingScheduleID, rec.CodeBooking,
					string(rec.Key.Region), int64(rec.Key.Supplier), int64(rec.Key.Good), string(rec.Key.Quality),
					date(rec.LoadingDate), rec.ActualWeight.String(), nullText(rec.CoverageQuantity),
					string(rec.CoverageType), nullText(rec.GoodPrice), rec.TransportUnit,
					rec.ContainerNumber, rec.SealNumber, rec.TruckNumber, rec.UnloadingPort,
					nullText(rec.UnitPriceTransport),
				).Scan(&id)
				if err != nil {
					return fmt.Errorf("insert weighing record: %w", err)
				}
			} else {
				tag, err := tx.Exec(ctx, updateWeighing,
					id, contractID, allocationID, rec.RowKey.String(), rec.ShippingScheduleID, rec.CodeBooking,
					string(rec.Key.Region), int64(rec.Key.Supplier), int64(rec.Key.Good), string(rec.Key.Quality),
					date(rec.LoadingDate), rec.ActualWeight.String(), nullText(rec.CoverageQuantity),
					string(rec.CoverageType), nullText(rec.GoodPrice), rec.TransportUnit,
					rec.ContainerNumber, rec.SealNumber, rec.TruckNumber, rec.UnloadingPort,
					nullText(rec.UnitPriceTransport),
				)
				if err != nil {
					return fmt.Errorf("update weighing record %d: %w", id, err)
				}
				if tag.RowsAffected() == 0 {
					return fmt.Errorf("weighing record %d: %w", id, errNotFound)
				}
			}
			ids[rec.RowKey] = entities.WeighingID(id)
			keep = append(keep, id)
		}
		_, err := tx.Exec(ctx, `DELETE FROM weighing_records WHERE contract_id = $1 AND NOT (id = ANY($2))`, contractID, keep)
		return err
	})
	if err != nil {
		return nil, err
	}
	r.logger.Debug("weighing stored", zap.Int64("contract_id", contractID), zap.Int("rows", len(ids)))
	return ids, nil
}

func (r *SubmissionRepository) LoadPlan(ctx context.Context, contractID int64) ([]*entities.GoodsAllocation, error) {
	rows, err := r.pool.Query(ctx, selectAllocations, contractID)
	if err != nil {
		return nil, fmt.Errorf("load plan: %w", err)
	}
	defer rows.Close()

	var out []*entities.GoodsAllocation
	for rows.Next() {
		var (
			a                            entities.GoodsAllocation
			id, parentID, supplier, good int64
			rowKey, region, quality      string
			start, end                   *time.Time
			quantity, base, price        *string
			actual                       string
		)
		if err := rows.Scan(&id, &parentID, &rowKey, &region, &supplier, &good, &quality,
			&start, &end, &quantity, &base, &actual, &price, &a.HasWeightSlip); err != nil {
			return nil, fmt.Errorf("scan allocation: %w", err)
		}
		a.ID = entities.AllocationID(id)
		a.ParentID = entities.AllocationID(parentID)
		a.RowKey, _ = uuid.Parse(rowKey)
		a.Key = entities.CommodityKey{
			Region:   entities.Region(region),
			Supplier: entities.SupplierID(supplier),
			Good:     entities.GoodID(good),
			Quality:  entities.QualityType(quality),
		}
		a.Window = entities.TimeWindow{Start: dateValue(start), End: dateValue(end)}
		if a.Quantity, err = parseNull(quantity); err != nil {
			return nil, err
		}
		if a.BaseQuantity, err = parseNull(base); err != nil {
			return nil, err
		}
		if a.UnitPrice, err = parseNull(price); err != nil {
			return nil, err
		}
		if a.ActualQuantity, err = decimal.NewFromString(actual); err != nil {
			return nil, err
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}

func (r *SubmissionRepository) LoadWeighing(ctx context.Context, contractID int64) ([]*entities.ActualWeighingRecord, error) {
	rows, err := r.pool.Query(ctx, selectWeighings, contractID)
	if err != nil {
		return nil, fmt.Errorf("load weighing records: %w", err)
	}
	defer rows.Close()

	var out []*entities.ActualWeighingRecord
	for rows.Next() {
		var (
			rec                             entities.ActualWeighingRecord
			id, supplier, good              int64
			rowKey, region, quality, covTyp string
			loading                         *time.Time
			weight                          string
			coverage, price, transport      *string
		)
		if err := rows.Scan(&id, &rowKey, &rec.ShippingScheduleID, &rec.CodeBooking, &region, &supplier,
			&good, &quality, &loading, &weight, &coverage, &covTyp, &price, &rec.TransportUnit,
			&rec.ContainerNumber, &rec.SealNumber, &rec.TruckNumber, &rec.UnloadingPort, &transport); err != nil {
			return nil, fmt.Errorf("scan weighing record: %w", err)
		}
		rec.ID = entities.WeighingID(id)
		rec.RowKey, _ = uuid.Parse(rowKey)
		rec.Key = entities.CommodityKey{
			Region:   entities.Region(region),
			Supplier: entities.SupplierID(supplier),
			Good:     entities.GoodID(good),
			Quality:  entities.QualityType(quality),
		}
		rec.CoverageType = entities.QualityType(covTyp)
		rec.LoadingDate = dateValue(loading)
		if rec.ActualWeight, err = decimal.NewFromString(weight); err != nil {
			return nil, err
		}
		if rec.CoverageQuantity, err = parseNull(coverage); err != nil {
			return nil, err
		}
		if rec.GoodPrice, err = parseNull(price); err != nil {
			return nil, err
		}
		if rec.UnitPriceTransport, err = parseNull(transport); err != nil {
			return nil, err
		}
		rec.Saved = true
		out = append(out, &rec)
	}
	return out, rows.Err()
}

func nullText(d decimal.NullDecimal) *string {
	if !d.Valid {
		return nil
	}
	s := d.Decimal.String()
	return &s
}

func parseNull(s *string) (decimal.NullDecimal, error) {
	if s == nil {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(*s)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("parse numeric %q: %w", *s, err)
	}
	return entities.NewNullDecimal(d), nil
}

func date(t time.Time) *time.Time {
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
