package sqlite

import (
	"context"
	"errors"
	"fmt"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/vsinha/packplan/pkg/domain/entities"
	"github.com/vsinha/packplan/pkg/domain/repositories"
)

// Open opens (creating if needed) the sqlite database at path and migrates its schema
func Open(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.AutoMigrate(&allocationModel{}, &weighingModel{}); err != nil {
		return nil, fmt.Errorf("automigrate: %w", err)
	}
	return db, nil
}

// SubmissionRepository stores submissions in a local sqlite database through gorm
type SubmissionRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewSubmissionRepository(db *gorm.DB, log *zap.Logger) *SubmissionRepository {
	if log == nil {
		log = zap.NewNop()
	}
	return &SubmissionRepository{db: db, logger: log}
}

var _ repositories.SubmissionRepository = (*SubmissionRepository)(nil)

func (r *SubmissionRepository) SavePlan(ctx context.Context, contractID int64, allocations []*entities.GoodsAllocation) (map[uuid.UUID]entities.AllocationID, error) {
	ids := make(map[uuid.UUID]entities.AllocationID, len(allocations))
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		keep := make([]int64, 0, len(allocations))
		for _, a := range allocations {
			m := toAllocationModel(contractID, a)
			if m.ID == 0 {
				if err := tx.Create(&m).Error; err != nil {
					return fmt.Errorf("insert allocation: %w", err)
				}
			} else {
				res := tx.Model(&allocationModel{}).
					Where("id = ? AND contract_id = ?", m.ID, contractID).
					Select("*").Omit("id", "contract_id").
					Updates(&m)
				if res.Error != nil {
					return fmt.Errorf("update allocation %d: %w", m.ID, res.Error)
				}
				if res.RowsAffected == 0 {
					return fmt.Errorf("allocation not found: %d", m.ID)
				}
			}
			ids[a.RowKey] = entities.AllocationID(m.ID)
			keep = append(keep, m.ID)
		}
		return deleteAbsent(tx, &allocationModel{}, contractID, keep)
	})
	if err != nil {
		return nil, err
	}
	r.logger.Debug("plan stored", zap.Int64("contract_id", contractID), zap.Int("rows", len(ids)))
	return ids, nil
}

func (r *SubmissionRepository) SaveWeighing(ctx context.Context, contractID int64, records []*entities.ActualWeighingRecord) (map[uuid.UUID]entities.WeighingID, error) {
	ids := make(map[uuid.UUID]entities.WeighingID, len(records))
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		keep := make([]int64, 0, len(records))
		for _, rec := range records {
			m := toWeighingModel(contractID, rec)
			if m.ID == 0 {
				if err := tx.Create(&m).Error; err != nil {
					return fmt.Errorf("insert weighing record: %w", err)
				}
			} else {
				res := tx.Model(&weighingModel{}).
					Where("id = ? AND contract_id = ?", m.ID, contractID).
					Select("*").Omit("id", "contract_id").
					Updates(&m)
				if res.Error != nil {
					return fmt.Errorf("update weighing record %d: %w", m.ID, res.Error)
				}
				if res.RowsAffected == 0 {
					return fmt.Errorf("weighing record not found: %d", m.ID)
				}
			}
			ids[rec.RowKey] = entities.WeighingID(m.ID)
			keep = append(keep, m.ID)
		}
		return deleteAbsent(tx, &weighingModel{}, contractID, keep)
	})
	if err != nil {
		return nil, err
	}
	r.logger.Debug("weighing stored", zap.Int64("contract_id", contractID), zap.Int("rows", len(ids)))
	return ids, nil
}

func (r *SubmissionRepository) LoadPlan(ctx context.Context, contractID int64) ([]*entities.GoodsAllocation, error) {
	var models []allocationModel
	err := r.db.WithContext(ctx).Where("contract_id = ?", contractID).Order("id").Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("load plan: %w", err)
	}
	out := make([]*entities.GoodsAllocation, 0, len(models))
	for _, m := range models {
		out = append(out, m.toEntity())
	}
	return out, nil
}

func (r *SubmissionRepository) LoadWeighing(ctx context.Context, contractID int64) ([]*entities.ActualWeighingRecord, error) {
	var models []weighingModel
	err := r.db.WithContext(ctx).Where("contract_id = ?", contractID).Order("id").Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("load weighing records: %w", err)
	}
	out := make([]*entities.ActualWeighingRecord, 0, len(models))
	for _, m := range models {
		out = append(out, m.toEntity())
	}
	return out, nil
}

func deleteAbsent(tx *gorm.DB, model interface{}, contractID int64, keep []int64) error {
	q := tx.Where("contract_id = ?", contractID)
	if len(keep) > 0 {
		q = q.Where("id NOT IN ?", keep)
	}
	if err := q.Delete(model).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("delete removed rows: %w", err)
	}
	return nil
}
