package entities

import "fmt"

// CommodityKey identifies "the same thing" for conflict detection and bucket grouping
type CommodityKey struct {
	Region   Region
	Supplier SupplierID
	Good     GoodID
	Quality  QualityType
}

// NewCommodityKey creates a validated, fully specified CommodityKey
func NewCommodityKey(region Region, supplier SupplierID, good GoodID, quality QualityType) (CommodityKey, error) {
	if region == "" {
		return CommodityKey{}, fmt.Errorf("region cannot be empty")
	}
	if supplier <= 0 {
		return CommodityKey{}, fmt.Errorf("supplier must be positive, got %d", supplier)
	}
	if good <= 0 {
		return CommodityKey{}, fmt.Errorf("good must be positive, got %d", good)
	}
	if quality == "" {
		return CommodityKey{}, fmt.Errorf("quality type cannot be empty")
	}
	return CommodityKey{Region: region, Supplier: supplier, Good: good, Quality: quality}, nil
}

// IsComplete reports whether every component of the key is filled in
func (k CommodityKey) IsComplete() bool {
	return k.Region != "" && k.Supplier > 0 && k.Good > 0 && k.Quality != ""
}

// String returns the key as "region|supplier|good|quality"
func (k CommodityKey) String() string {
	return fmt.Sprintf("%s|%d|%d|%s", k.Region, k.Supplier, k.Good, k.Quality)
}
