package crawl

import "github.com/ternarybob/dropscout/internal/models"

// rawProductDetail mirrors the shape of the fetcher's embedded
// productDetailData object before normalization. Field names follow the
// catalog's own casing; only normalize() produces the canonical record.
type rawProductDetail struct {
	ProductID      string       `json:"productId"`
	Name           string       `json:"name"`
	SKU            string       `json:"sku"`
	CategoryPath   []string     `json:"categoryPath"`
	SupplierID     string       `json:"supplierId"`
	Warehouses     []string     `json:"warehouseCountries"`
	ImageURLs      []string     `json:"imageUrls"`
	InventoryCount *int         `json:"inventoryCount"`
	Variants       []rawVariant `json:"variants"`
}

type rawVariant struct {
	SKU             string  `json:"sku"`
	SellPrice       float64 `json:"sellPrice"`
	SuggestedRetail float64 `json:"suggestedRetailPrice"`
	Weight          float64 `json:"weight"`
	PackWeight      float64 `json:"packWeight"`
}

// normalize maps the raw payload to the canonical internal record
// (spec.md §4.6 "Canonical product record"), deriving the product-level
// min/max sell price and weight range from its variants.
func (r rawProductDetail) normalize() *models.CanonicalProduct {
	product := &models.CanonicalProduct{
		SourceProductID: r.ProductID,
		DisplayName:     r.Name,
		PrimarySKU:      r.SKU,
		CategoryPath:    r.CategoryPath,
		SupplierID:      r.SupplierID,
		Warehouses:      r.Warehouses,
		ImageURLs:       r.ImageURLs,
		InventoryCount:  r.InventoryCount,
	}

	for i, v := range r.Variants {
		product.Variants = append(product.Variants, models.ProductVariant{
			SKU:             v.SKU,
			SellPrice:       v.SellPrice,
			SuggestedRetail: v.SuggestedRetail,
			Weight:          v.Weight,
			PackWeight:      v.PackWeight,
		})
		if i == 0 {
			product.MinSellPrice, product.MaxSellPrice = v.SellPrice, v.SellPrice
			product.MinWeight, product.MaxWeight = v.Weight, v.Weight
			continue
		}
		if v.SellPrice < product.MinSellPrice {
			product.MinSellPrice = v.SellPrice
		}
		if v.SellPrice > product.MaxSellPrice {
			product.MaxSellPrice = v.SellPrice
		}
		if v.Weight < product.MinWeight {
			product.MinWeight = v.Weight
		}
		if v.Weight > product.MaxWeight {
			product.MaxWeight = v.Weight
		}
	}
	if len(r.Variants) == 0 && r.SKU != "" {
		product.PrimarySKU = r.SKU
	}
	return product
}

// rawSearchResults mirrors the embedded searchResultsData object.
type rawSearchResults struct {
	ProductURLs    []string `json:"productUrls"`
	PaginationURLs []string `json:"paginationUrls"`
}
