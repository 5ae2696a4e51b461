package reconcile

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vsinha/packplan/pkg/domain/entities"
)

var testKey = entities.CommodityKey{Region: "N", Supplier: 7, Good: 3, Quality: "A"}

type staticPlan []*entities.GoodsAllocation

func (p staticPlan) Allocations() []*entities.GoodsAllocation { return p }

func day(month time.Month, d int) time.Time {
	return time.Date(2025, month, d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func planLine(quantity string, start, end time.Time) *entities.GoodsAllocation {
	return &entities.GoodsAllocation{
		ID:        1,
		RowKey:    uuid.New(),
		Key:       testKey,
		Window:    entities.TimeWindow{Start: start, End: end},
		Quantity:  entities.NewNullDecimal(dec(quantity)),
		UnitPrice: entities.NewNullDecimal(dec("1.5")),
	}
}

func draft(booking string, loading time.Time, weight string) entities.ActualWeighingRecord {
	return entities.ActualWeighingRecord{
		CodeBooking:  booking,
		Key:          testKey,
		LoadingDate:  loading,
		ActualWeight: dec(weight),
	}
}

func newTestReconciler(plan staticPlan) *Reconciler {
	return NewReconciler(plan, Options{Clock: func() time.Time { return day(time.January, 1) }})
}

func TestReconciler_CeilingRecomputesAcrossRecords(t *testing.T) {
	r := newTestReconciler(staticPlan{planLine("5000", day(time.January, 1), day(time.January, 31))})

	a, err := r.Add(draft("BK-1", day(time.January, 5), "3000"))
	if err != nil {
		t.Fatalf("Failed to add record A: %v", err)
	}
	recA, _ := r.At(a)
	if !recA.MaxGoodWeight.Decimal.Equal(dec("5000")) {
		t.Errorf("Expected A ceiling 5000, got %s", recA.MaxGoodWeight.Decimal)
	}

	b, err := r.Add(draft("BK-2", day(time.January, 10), "1000"))
	if err != nil {
		t.Fatalf("Failed to add record B: %v", err)
	}
	recA, _ = r.At(a)
	recB, _ := r.At(b)
	if !recA.MaxGoodWeight.Decimal.Equal(dec("4000")) {
		t.Errorf("Expected A ceiling 4000, got %s", recA.MaxGoodWeight.Decimal)
	}
	if !recB.MaxGoodWeight.Decimal.Equal(dec("2000")) {
		t.Errorf("Expected B ceiling 2000, got %s", recB.MaxGoodWeight.Decimal)
	}
	if !recB.GoodPrice.Decimal.Equal(dec("1.5")) {
		t.Errorf("Expected linked price 1.5, got %s", recB.GoodPrice.Decimal)
	}
}

func TestReconciler_LinkResolution(t *testing.T) {
	january := planLine("5000", day(time.January, 1), day(time.January, 31))
	february := planLine("2000", day(time.February, 1), day(time.February, 28))
	february.ID = 2
	r := newTestReconciler(staticPlan{january, february})

	tests := []struct {
		name    string
		key     entities.CommodityKey
		loading time.Time
		want    *entities.GoodsAllocation
	}{
		{"inside first window", testKey, day(time.January, 15), january},
		{"inside second window", testKey, day(time.February, 3), february},
		{"window boundary", testKey, day(time.January, 31), january},
		{"outside every window", testKey, day(time.March, 1), nil},
		{"other quality", entities.CommodityKey{Region: "N", Supplier: 7, Good: 3, Quality: "B"}, day(time.January, 15), nil},
		{"incomplete key", entities.CommodityKey{Region: "N", Supplier: 7, Good: 3}, day(time.January, 15), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := draft("BK", tt.loading, "10")
			d.Key = tt.key
			i, err := r.Add(d)
			if err != nil {
				t.Fatalf("Failed to add record: %v", err)
			}
			rec, _ := r.At(i)
			if rec.LinkedAllocation != tt.want {
				t.Errorf("Expected link %v, got %v", tt.want, rec.LinkedAllocation)
			}
			if tt.want == nil && (rec.GoodPrice.Valid || rec.MaxGoodWeight.Valid) {
				t.Error("Expected price and ceiling cleared for unlinked record")
			}
		})
	}
}

func TestReconciler_SetActualWeightCeiling(t *testing.T) {
	r := newTestReconciler(staticPlan{planLine("5000", day(time.January, 1), day(time.January, 31))})
	r.Add(draft("BK-1", day(time.January, 5), "3000"))
	b, _ := r.Add(draft("BK-2", day(time.January, 10), "1000"))

	if err := r.SetActualWeight(b, dec("2500")); !errors.Is(err, entities.ErrAboveCeiling) {
		t.Errorf("Expected ErrAboveCeiling, got %v", err)
	}
	if err := r.SetActualWeight(b, dec("-1")); !errors.Is(err, entities.ErrInvalidQuantity) {
		t.Errorf("Expected ErrInvalidQuantity, got %v", err)
	}
	if err := r.SetActualWeight(b, dec("2000")); err != nil {
		t.Errorf("Expected weight at ceiling accepted, got %v", err)
	}
	rec, _ := r.At(b)
	if !rec.ActualWeight.Equal(dec("2000")) {
		t.Errorf("Expected weight 2000, got %s", rec.ActualWeight)
	}
}

func TestReconciler_OverWeightGroups(t *testing.T) {
	r := newTestReconciler(staticPlan{planLine("1000", day(time.January, 1), day(time.January, 31))})
	r.Add(draft("BK-1", day(time.January, 5), "800"))
	i, _ := r.Add(draft("BK-2", day(time.January, 6), "100"))

	if r.HasOverWeight() {
		t.Fatal("Expected no over-weight before coverage")
	}
	if err := r.SetCoverage(i, entities.NewNullDecimal(dec("150")), "B"); err != nil {
		t.Fatalf("Failed to set coverage: %v", err)
	}

	groups := r.Groups()
	if len(groups) != 1 {
		t.Fatalf("Expected 1 group, got %d", len(groups))
	}
	g := groups[0]
	if !g.HasOverWeight {
		t.Error("Expected group over weight")
	}
	if !g.CurrentWeight.Equal(dec("1050")) {
		t.Errorf("Expected current weight 1050, got %s", g.CurrentWeight)
	}
	if !g.ExceedAmount().Equal(dec("50")) {
		t.Errorf("Expected exceed 50, got %s", g.ExceedAmount())
	}
	if !g.RemainingWeight.IsZero() {
		t.Errorf("Expected remaining 0, got %s", g.RemainingWeight)
	}
	if len(g.RecordRowKeys) != 2 {
		t.Errorf("Expected 2 records in group, got %d", len(g.RecordRowKeys))
	}
}

func TestReconciler_BatchDeferral(t *testing.T) {
	tests := []struct {
		name     string
		size     int
		wantMode Mode
	}{
		{"at threshold", DefaultBatchThreshold, Settled},
		{"above threshold", DefaultBatchThreshold + 1, Pending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestReconciler(staticPlan{planLine("50000", day(time.January, 1), day(time.January, 31))})
			var drafts []entities.ActualWeighingRecord
			for i := 0; i < tt.size; i++ {
				drafts = append(drafts, draft(fmt.Sprintf("BK-%d", i), day(time.January, 2), "10"))
			}

			indexes, err := r.InsertBatch(drafts)
			if err != nil {
				t.Fatalf("Failed to insert batch: %v", err)
			}
			if len(indexes) != tt.size {
				t.Fatalf("Expected %d indexes, got %d", tt.size, len(indexes))
			}
			if r.Mode() != tt.wantMode {
				t.Fatalf("Expected mode %s, got %s", tt.wantMode, r.Mode())
			}

			rec, _ := r.At(0)
			if tt.wantMode == Pending && rec.IsLinked() {
				t.Error("Expected derived fields stale while pending")
			}

			r.Flush()
			rec, _ = r.At(0)
			if r.Mode() != Settled || !rec.IsLinked() {
				t.Error("Expected settled and linked after flush")
			}
		})
	}
}

func TestReconciler_PendingSkipsCeilingCheck(t *testing.T) {
	r := newTestReconciler(staticPlan{planLine("100", day(time.January, 1), day(time.January, 31))})
	var drafts []entities.ActualWeighingRecord
	for i := 0; i <= DefaultBatchThreshold; i++ {
		drafts = append(drafts, draft(fmt.Sprintf("BK-%d", i), day(time.January, 2), "0"))
	}
	if _, err := r.InsertBatch(drafts); err != nil {
		t.Fatalf("Failed to insert batch: %v", err)
	}

	if err := r.SetActualWeight(0, dec("500")); err != nil {
		t.Fatalf("Expected weight accepted while pending, got %v", err)
	}
	if r.Mode() != Settled {
		t.Errorf("Expected single-record edit to settle the set, got %s", r.Mode())
	}
	if !r.HasOverWeight() {
		t.Error("Expected over-weight after settling")
	}
}

func TestReconciler_SavedRecordsReadOnly(t *testing.T) {
	r := newTestReconciler(staticPlan{planLine("5000", day(time.January, 1), day(time.January, 31))})
	saved := draft("BK-1", day(time.January, 5), "3000")
	saved.ID = 10
	saved.Saved = true
	if err := r.Load([]*entities.ActualWeighingRecord{&saved}); err != nil {
		t.Fatalf("Failed to load: %v", err)
	}

	if err := r.Remove(0); !errors.Is(err, entities.ErrInvalidOperation) {
		t.Errorf("Expected remove rejected, got %v", err)
	}
	if err := r.SetActualWeight(0, dec("1")); !errors.Is(err, entities.ErrInvalidOperation) {
		t.Errorf("Expected weight frozen, got %v", err)
	}
	if err := r.SetLogistics(0, Logistics{ContainerNumber: "MSKU123", SealNumber: "S1"}); err != nil {
		t.Errorf("Expected logistics editable, got %v", err)
	}
	rec, _ := r.At(0)
	if rec.ContainerNumber != "MSKU123" {
		t.Errorf("Expected container MSKU123, got %q", rec.ContainerNumber)
	}
	if !rec.Init.Ready() {
		t.Error("Expected loaded record initialized")
	}
}

func TestReconciler_Consumption(t *testing.T) {
	line := planLine("5000", day(time.January, 1), day(time.January, 31))
	r := newTestReconciler(staticPlan{line})
	saved := draft("BK-1", day(time.January, 5), "3000")
	saved.Saved = true
	if err := r.Load([]*entities.ActualWeighingRecord{&saved}); err != nil {
		t.Fatalf("Failed to load: %v", err)
	}
	r.Add(draft("BK-2", day(time.January, 6), "500"))

	got := r.Consumption()
	if !got[line.RowKey].Equal(dec("3000")) {
		t.Errorf("Expected consumption 3000 from saved records only, got %s", got[line.RowKey])
	}

	r.MarkSaved(nil)
	got = r.Consumption()
	if !got[line.RowKey].Equal(dec("3500")) {
		t.Errorf("Expected consumption 3500 after save, got %s", got[line.RowKey])
	}
}

func TestReconciler_ApplyShipmentMatch(t *testing.T) {
	r := newTestReconciler(staticPlan{planLine("50000", day(time.January, 1), day(time.January, 31))})
	existing := draft("BK-OLD", day(time.January, 3), "900")
	existing.TransportUnit = "container"
	existing.Saved = true
	other := draft("BK-KEEP", day(time.January, 4), "100")
	if err := r.Load([]*entities.ActualWeighingRecord{&existing, &other}); err != nil {
		t.Fatalf("Failed to load: %v", err)
	}

	match := ShipmentMatch{
		Good: 3,
		Candidates: []ShipmentCandidate{
			{CodeBooking: "BK-OLD", Region: "N", Supplier: 7, Quality: "A", LoadingDate: day(time.January, 3), TransportUnit: "container", ContainerCount: 3},
			{CodeBooking: "BK-NEW", Region: "N", Supplier: 7, Quality: "A", LoadingDate: day(time.January, 8), TransportUnit: "truck"},
		},
		Conflicts: []ShipmentCandidate{
			{CodeBooking: "BK-OLD", Supplier: 7, LoadingDate: day(time.January, 3), TransportUnit: "container"},
		},
	}

	result, err := r.ApplyShipmentMatch(match)
	if err != nil {
		t.Fatalf("Failed to apply shipment match: %v", err)
	}
	if result.Removed != 1 {
		t.Errorf("Expected 1 removed, got %d", result.Removed)
	}
	if len(result.Inserted) != 4 {
		t.Errorf("Expected 4 inserted, got %d", len(result.Inserted))
	}
	if r.Len() != 5 {
		t.Fatalf("Expected 5 records, got %d", r.Len())
	}

	first, _ := r.At(0)
	if first.CodeBooking != "BK-KEEP" {
		t.Errorf("Expected unmatched record kept first, got %s", first.CodeBooking)
	}
	for _, i := range result.Inserted {
		rec, _ := r.At(i)
		if rec.Saved {
			t.Errorf("Expected inserted record %d unsaved", i)
		}
		if rec.Key != testKey {
			t.Errorf("Expected key %s, got %s", testKey, rec.Key)
		}
	}
}
