package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/vsinha/packplan/pkg/domain/entities"
	"github.com/vsinha/packplan/pkg/domain/repositories"
)

// SubmissionRepository provides in-memory submission storage
type SubmissionRepository struct {
	mu         sync.Mutex
	plans      map[int64][]entities.GoodsAllocation
	weighings  map[int64][]entities.ActualWeighingRecord
	nextAllocs entities.AllocationID
	nextWeighs entities.WeighingID
}

// NewSubmissionRepository creates a new in-memory submission repository
func NewSubmissionRepository() *SubmissionRepository {
	return &SubmissionRepository{
		plans:     make(map[int64][]entities.GoodsAllocation),
		weighings: make(map[int64][]entities.ActualWeighingRecord),
	}
}

// Verify interface compliance
var _ repositories.SubmissionRepository = (*SubmissionRepository)(nil)

// SavePlan replaces the contract's stored allocations
func (r *SubmissionRepository) SavePlan(ctx context.Context, contractID int64, allocations []*entities.GoodsAllocation) (map[uuid.UUID]entities.AllocationID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	known := make(map[entities.AllocationID]bool)
	for _, a := range r.plans[contractID] {
		known[a.ID] = true
	}

	next := r.nextAllocs
	ids := make(map[uuid.UUID]entities.AllocationID, len(allocations))
	rows := make([]entities.GoodsAllocation, 0, len(allocations))
	for _, a := range allocations {
		row := *a
		if row.ID == 0 {
			next++
			row.ID = next
		} else if !known[row.ID] {
			return nil, fmt.Errorf("allocation not found: %d", row.ID)
		}
		ids[row.RowKey] = row.ID
		rows = append(rows, row)
	}
	for i := range rows {
		if rows[i].IsChild() && !containsAllocation(rows, rows[i].ParentID) {
			return nil, fmt.Errorf("allocation %d references missing parent %d", rows[i].ID, rows[i].ParentID)
		}
	}

	r.nextAllocs = next
	r.plans[contractID] = rows
	return ids, nil
}

// SaveWeighing replaces the contract's stored weighing records
func (r *SubmissionRepository) SaveWeighing(ctx context.Context, contractID int64, records []*entities.ActualWeighingRecord) (map[uuid.UUID]entities.WeighingID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	known := make(map[entities.WeighingID]bool)
	for _, rec := range r.weighings[contractID] {
		known[rec.ID] = true
	}

	next := r.nextWeighs
	ids := make(map[uuid.UUID]entities.WeighingID, len(records))
	rows := make([]entities.ActualWeighingRecord, 0, len(records))
	for _, rec := range records {
		row := *rec
		if row.ID == 0 {
			next++
			row.ID = next
		} else if !known[row.ID] {
			return nil, fmt.Errorf("weighing record not found: %d", row.ID)
		}
		row.LinkedAllocation = nil
		row.Saved = true
		ids[row.RowKey] = row.ID
		rows = append(rows, row)
	}

	r.nextWeighs = next
	r.weighings[contractID] = rows
	return ids, nil
}

// LoadPlan returns copies of the contract's stored allocations
func (r *SubmissionRepository) LoadPlan(ctx context.Context, contractID int64) ([]*entities.GoodsAllocation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*entities.GoodsAllocation
	for i := range r.plans[contractID] {
		a := r.plans[contractID][i]
		out = append(out, &a)
	}
	return out, nil
}

// LoadWeighing returns copies of the contract's stored weighing records
func (r *SubmissionRepository) LoadWeighing(ctx context.Context, contractID int64) ([]*entities.ActualWeighingRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*entities.ActualWeighingRecord
	for i := range r.weighings[contractID] {
		rec := r.weighings[contractID][i]
		out = append(out, &rec)
	}
	return out, nil
}

func containsAllocation(rows []entities.GoodsAllocation, id entities.AllocationID) bool {
	for i := range rows {
		if rows[i].ID == id {
			return true
		}
	}
	return false
}
