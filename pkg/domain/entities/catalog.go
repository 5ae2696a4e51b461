package entities

import (
	"fmt"
	"strconv"
)

// Option is a {value, label} pair from the caller's reference data
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

type supplierScope struct {
	Good   GoodID
	Region Region
}

type qualityScope struct {
	Good     GoodID
	Region   Region
	Supplier SupplierID
}

// Catalog holds the option lists a commodity key is chosen from.
// Suppliers are scoped by good and region, qualities by good, region and supplier.
type Catalog struct {
	regions   []Option
	suppliers map[supplierScope][]Option
	qualities map[qualityScope][]Option
}

// NewCatalog creates an empty catalog
func NewCatalog() *Catalog {
	return &Catalog{
		suppliers: make(map[supplierScope][]Option),
		qualities: make(map[qualityScope][]Option),
	}
}

// AddRegion registers a region option
func (c *Catalog) AddRegion(opt Option) {
	c.regions = append(c.regions, opt)
}

// AddSupplier registers a supplier option for a good in a region
func (c *Catalog) AddSupplier(good GoodID, region Region, opt Option) {
	scope := supplierScope{Good: good, Region: region}
	c.suppliers[scope] = append(c.suppliers[scope], opt)
}

// AddQuality registers a quality option for a good, region and supplier
func (c *Catalog) AddQuality(good GoodID, region Region, supplier SupplierID, opt Option) {
	scope := qualityScope{Good: good, Region: region, Supplier: supplier}
	c.qualities[scope] = append(c.qualities[scope], opt)
}

// Regions returns the region options
func (c *Catalog) Regions() []Option {
	return c.regions
}

// SuppliersFor returns the supplier options offered for a good in a region
func (c *Catalog) SuppliersFor(good GoodID, region Region) []Option {
	return c.suppliers[supplierScope{Good: good, Region: region}]
}

// QualitiesFor returns the quality options offered for a good, region and supplier
func (c *Catalog) QualitiesFor(good GoodID, region Region, supplier SupplierID) []Option {
	return c.qualities[qualityScope{Good: good, Region: region, Supplier: supplier}]
}

// ValidateKey checks every filled-in component of key against the option lists.
// Unfilled components are not reported; completeness is checked elsewhere.
func (c *Catalog) ValidateKey(key CommodityKey) error {
	if key.Region != "" && !containsValue(c.regions, string(key.Region)) {
		return fmt.Errorf("region %s is not offered", key.Region)
	}
	if key.Supplier > 0 && key.Region != "" && key.Good > 0 {
		supplier := strconv.FormatInt(int64(key.Supplier), 10)
		if !containsValue(c.SuppliersFor(key.Good, key.Region), supplier) {
			return fmt.Errorf("supplier %d is not offered for good %d in region %s", key.Supplier, key.Good, key.Region)
		}
	}
	if key.Quality != "" && key.Supplier > 0 && key.Region != "" && key.Good > 0 {
		if !containsValue(c.QualitiesFor(key.Good, key.Region, key.Supplier), string(key.Quality)) {
			return fmt.Errorf("quality %s is not offered by supplier %d for good %d in region %s",
				key.Quality, key.Supplier, key.Good, key.Region)
		}
	}
	return nil
}

func containsValue(options []Option, value string) bool {
	for _, opt := range options {
		if opt.Value == value {
			return true
		}
	}
	return false
}
