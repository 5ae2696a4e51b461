package reconcile

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/vsinha/packplan/pkg/domain/entities"
)

// ShipmentCandidate is one shipping-schedule entry offered by the match lookup
type ShipmentCandidate struct {
	ShippingScheduleID int64
	CodeBooking        string
	Region             entities.Region
	Supplier           entities.SupplierID
	Quality            entities.QualityType
	LoadingDate        time.Time
	TransportUnit      string
	ContainerCount     int
}

// DuplicateKey returns the key existing records are matched against
func (c ShipmentCandidate) DuplicateKey() entities.DuplicateKey {
	return entities.DuplicateKey{
		CodeBooking:   c.CodeBooking,
		Supplier:      c.Supplier,
		LoadingDate:   entities.Day(c.LoadingDate).Format(entities.DateLayout),
		TransportUnit: c.TransportUnit,
	}
}

// ShipmentMatch is the outcome of matching shipping schedules against one contract's good.
// Conflicts are entries that already exist in the set and are replaced by the candidates.
type ShipmentMatch struct {
	Good       entities.GoodID
	Candidates []ShipmentCandidate
	Conflicts  []ShipmentCandidate
}

// MatchResult reports what ApplyShipmentMatch changed
type MatchResult struct {
	Removed  int
	Inserted []int
}

// ApplyShipmentMatch removes every record matching a conflict, then inserts one draft per
// container of each candidate as a single batch.
func (r *Reconciler) ApplyShipmentMatch(match ShipmentMatch) (MatchResult, error) {
	var result MatchResult

	drafts := make([]entities.ActualWeighingRecord, 0, len(match.Candidates))
	for i, c := range match.Candidates {
		if c.CodeBooking == "" {
			return result, fmt.Errorf("shipment candidate %d: booking code cannot be empty", i)
		}
		if c.ContainerCount < 0 {
			return result, fmt.Errorf("shipment candidate %d: container count must be positive, got %d", i, c.ContainerCount)
		}
		drafts = append(drafts, expandCandidate(match.Good, c)...)
	}

	if len(match.Conflicts) > 0 {
		conflicts := make(map[entities.DuplicateKey]bool, len(match.Conflicts))
		for _, c := range match.Conflicts {
			conflicts[c.DuplicateKey()] = true
		}
		kept := r.records[:0:0]
		for _, rec := range r.records {
			if conflicts[rec.DuplicateKey()] {
				result.Removed++
				continue
			}
			kept = append(kept, rec)
		}
		r.records = kept
	}

	inserted, err := r.InsertBatch(drafts)
	if err != nil {
		return result, err
	}
	result.Inserted = inserted
	if len(inserted) == 0 && result.Removed > 0 {
		r.Recompute()
	}

	r.logger.Info("shipment match applied",
		zap.Int("removed", result.Removed),
		zap.Int("inserted", len(inserted)),
		zap.Stringer("mode", r.mode))
	return result, nil
}

func expandCandidate(good entities.GoodID, c ShipmentCandidate) []entities.ActualWeighingRecord {
	n := c.ContainerCount
	if n < 1 {
		n = 1
	}
	drafts := make([]entities.ActualWeighingRecord, n)
	for i := range drafts {
		drafts[i] = entities.ActualWeighingRecord{
			ShippingScheduleID: c.ShippingScheduleID,
			CodeBooking:        c.CodeBooking,
			Key: entities.CommodityKey{
				Region:   c.Region,
				Supplier: c.Supplier,
				Good:     good,
				Quality:  c.Quality,
			},
			LoadingDate:   c.LoadingDate,
			TransportUnit: c.TransportUnit,
		}
	}
	return drafts
}
