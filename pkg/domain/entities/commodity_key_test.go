package entities

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestNewCommodityKey(t *testing.T) {
	key, err := NewCommodityKey("N", 7, 3, "A")
	if err != nil {
		t.Fatalf("Expected valid key, got %v", err)
	}
	if key.String() != "N|7|3|A" {
		t.Errorf("Expected N|7|3|A, got %s", key.String())
	}

	testCases := []struct {
		name        string
		region      Region
		supplier    SupplierID
		good        GoodID
		quality     QualityType
		expectError string
	}{
		{"empty region", "", 7, 3, "A", "region cannot be empty"},
		{"zero supplier", "N", 0, 3, "A", "supplier must be positive, got 0"},
		{"negative good", "N", 7, -1, "A", "good must be positive, got -1"},
		{"empty quality", "N", 7, 3, "", "quality type cannot be empty"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewCommodityKey(tc.region, tc.supplier, tc.good, tc.quality)
			if err == nil || err.Error() != tc.expectError {
				t.Errorf("Expected error %q, got %v", tc.expectError, err)
			}
		})
	}
}

func TestCatalog_ValidateKey(t *testing.T) {
	c := NewCatalog()
	c.AddRegion(Option{Value: "N", Label: "North"})
	c.AddSupplier(3, "N", Option{Value: "7", Label: "Acme"})
	c.AddQuality(3, "N", 7, Option{Value: "A", Label: "Grade A"})

	testCases := []struct {
		name    string
		key     CommodityKey
		wantErr bool
	}{
		{"offered", CommodityKey{Region: "N", Supplier: 7, Good: 3, Quality: "A"}, false},
		{"partial key", CommodityKey{Region: "N"}, false},
		{"unknown region", CommodityKey{Region: "S"}, true},
		{"supplier not offered for good", CommodityKey{Region: "N", Supplier: 7, Good: 4}, true},
		{"unknown quality", CommodityKey{Region: "N", Supplier: 7, Good: 3, Quality: "B"}, true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := c.ValidateKey(tc.key)
			if (err != nil) != tc.wantErr {
				t.Errorf("Expected error %v, got %v", tc.wantErr, err)
			}
		})
	}

	if len(c.SuppliersFor(3, "N")) != 1 || len(c.QualitiesFor(3, "N", 8)) != 0 {
		t.Error("Expected options scoped by good, region and supplier")
	}
}

func TestInitGate_Evaluate(t *testing.T) {
	now := date(time.January, 1)
	g := NewInitGate(now, DefaultGracePeriod)

	g.Evaluate(false, now.Add(time.Second))
	if g.Ready() {
		t.Fatal("Expected gate closed inside the grace period")
	}
	g.Evaluate(false, now.Add(DefaultGracePeriod))
	if !g.Ready() {
		t.Fatal("Expected gate open once the grace period elapsed")
	}

	early := NewInitGate(now, DefaultGracePeriod)
	early.Evaluate(true, now)
	if early.State != Initialized {
		t.Errorf("Expected Initialized for complete identity, got %s", early.State)
	}
	early.Evaluate(false, now)
	if !early.Ready() {
		t.Error("Expected the transition to be one way")
	}
}

func TestWeightUnit(t *testing.T) {
	for _, s := range []string{"", "kg", "Kilograms"} {
		if u, err := ParseWeightUnit(s); err != nil || u != Kilogram {
			t.Errorf("Expected kg for %q, got %s (%v)", s, u, err)
		}
	}
	if u, err := ParseWeightUnit(" tonnes "); err != nil || u != Ton {
		t.Errorf("Expected ton, got %s (%v)", u, err)
	}
	if _, err := ParseWeightUnit("stone"); err == nil {
		t.Error("Expected error for unsupported unit")
	}

	got := Ton.Convert(decimal.RequireFromString("1.5"), Kilogram)
	if !got.Equal(decimal.NewFromInt(1500)) {
		t.Errorf("Expected 1500 kg, got %s", got)
	}
	got = Kilogram.Convert(decimal.NewFromInt(250), Ton)
	if !got.Equal(decimal.RequireFromString("0.25")) {
		t.Errorf("Expected 0.25 ton, got %s", got)
	}
}

func TestContractTerms_AllowsWindow(t *testing.T) {
	terms := ContractTerms{MaxDateToBuy: date(time.January, 31)}
	if !terms.AllowsWindow(TimeWindow{Start: date(time.January, 1), End: date(time.January, 31)}) {
		t.Error("Expected window ending on the last buying day to be allowed")
	}
	if terms.AllowsWindow(TimeWindow{Start: date(time.January, 1), End: date(time.February, 1)}) {
		t.Error("Expected window ending after the last buying day to be rejected")
	}
	if !(ContractTerms{}).AllowsWindow(TimeWindow{End: date(time.December, 31)}) {
		t.Error("Expected no bound without a last buying day")
	}
}
