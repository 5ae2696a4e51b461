package repositories

import (
	"context"

	"github.com/google/uuid"

	"github.com/vsinha/packplan/pkg/domain/entities"
)

// SubmissionRepository persists the sets of plan and weighing sessions.
//
// Save calls replace the contract's stored set with the given one in a single transaction:
// rows with a zero ID are inserted, rows with an ID are updated, and stored rows absent from
// the set are deleted. The returned map holds the identity of every row by row key.
// On error nothing is stored.
type SubmissionRepository interface {
	SavePlan(ctx context.Context, contractID int64, allocations []*entities.GoodsAllocation) (map[uuid.UUID]entities.AllocationID, error)
	SaveWeighing(ctx context.Context, contractID int64, records []*entities.ActualWeighingRecord) (map[uuid.UUID]entities.WeighingID, error)
	LoadPlan(ctx context.Context, contractID int64) ([]*entities.GoodsAllocation, error)
	LoadWeighing(ctx context.Context, contractID int64) ([]*entities.ActualWeighingRecord, error)
}
