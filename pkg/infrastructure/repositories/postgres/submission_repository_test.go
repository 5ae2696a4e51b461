package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vsinha/packplan/pkg/domain/entities"
)

func TestNullDecimalText(t *testing.T) {
	if nullText(decimal.NullDecimal{}) != nil {
		t.Error("Expected nil for unset decimal")
	}
	s := nullText(entities.NewNullDecimal(decimal.RequireFromString("12.500")))
	if s == nil || *s != "12.5" {
		t.Errorf("Expected 12.5, got %v", s)
	}

	got, err := parseNull(s)
	if err != nil || !got.Valid || !got.Decimal.Equal(decimal.RequireFromString("12.5")) {
		t.Errorf("Expected 12.5 parsed back, got %v (%v)", got, err)
	}
	bad := "abc"
	if _, err := parseNull(&bad); err == nil {
		t.Error("Expected error for non-numeric text")
	}
}

func TestDateNormalization(t *testing.T) {
	if date(time.Time{}) != nil {
		t.Error("Expected nil for zero date")
	}
	loc := time.FixedZone("UTC+7", 7*3600)
	d := date(time.Date(2025, 3, 4, 23, 30, 0, 0, loc))
	want := time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC)
	if d == nil || !d.Equal(want) {
		t.Errorf("Expected %v, got %v", want, d)
	}
}

// Runs against a live database when PACKPLAN_TEST_POSTGRES_DSN is set.
func TestSubmissionRepository_Postgres(t *testing.T) {
	dsn := os.Getenv("PACKPLAN_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("PACKPLAN_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	if err := Migrate(dsn); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}
	pool, err := Connect(ctx, dsn, 2)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	defer pool.Close()

	repo := NewSubmissionRepository(pool, nil)
	contractID := time.Now().UnixNano()
	a := &entities.GoodsAllocation{
		RowKey:   uuid.New(),
		Key:      entities.CommodityKey{Region: "N", Supplier: 7, Good: 3, Quality: "A"},
		Window:   entities.TimeWindow{Start: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), End: time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)},
		Quantity: entities.NewNullDecimal(decimal.RequireFromString("5000")),
	}
	ids, err := repo.SavePlan(ctx, contractID, []*entities.GoodsAllocation{a})
	if err != nil {
		t.Fatalf("Failed to save plan: %v", err)
	}
	a.ID = ids[a.RowKey]

	rec := &entities.ActualWeighingRecord{
		RowKey:           uuid.New(),
		CodeBooking:      "BK-1",
		Key:              a.Key,
		LoadingDate:      time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC),
		ActualWeight:     decimal.RequireFromString("2500.25"),
		LinkedAllocation: a,
	}
	if _, err := repo.SaveWeighing(ctx, contractID, []*entities.ActualWeighingRecord{rec}); err != nil {
		t.Fatalf("Failed to save weighing: %v", err)
	}

	plan, err := repo.LoadPlan(ctx, contractID)
	if err != nil || len(plan) != 1 || !plan[0].Quantity.Decimal.Equal(a.Quantity.Decimal) {
		t.Fatalf("Expected stored plan, got %+v (%v)", plan, err)
	}
	records, err := repo.LoadWeighing(ctx, contractID)
	if err != nil || len(records) != 1 || !records[0].ActualWeight.Equal(rec.ActualWeight) {
		t.Fatalf("Expected stored record, got %+v (%v)", records, err)
	}

	if _, err := repo.SavePlan(ctx, contractID, nil); err != nil {
		t.Fatalf("Failed to clear plan: %v", err)
	}
	if plan, _ := repo.LoadPlan(ctx, contractID); len(plan) != 0 {
		t.Errorf("Expected plan cleared, got %d rows", len(plan))
	}
}
