package models

// ProductVariant is one purchasable variant of a catalog product.
type ProductVariant struct {
	SKU             string  `json:"sku"`
	SellPrice       float64 `json:"sell_price"`
	SuggestedRetail float64 `json:"suggested_retail_price"`
	Weight          float64 `json:"weight"`
	PackWeight      float64 `json:"pack_weight"`
}

// CanonicalProduct is the normalized internal record the Catalog Parser
// produces from a product-detail payload (spec.md §4.6).
type CanonicalProduct struct {
	SourceProductID string           `json:"source_product_id"`
	DisplayName     string           `json:"display_name"`
	PrimarySKU      string           `json:"primary_sku"`
	MinSellPrice    float64          `json:"min_sell_price"`
	MaxSellPrice    float64          `json:"max_sell_price"`
	MinWeight       float64          `json:"min_weight"`
	MaxWeight       float64          `json:"max_weight"`
	CategoryPath    []string         `json:"category_path"`
	SupplierID      string           `json:"supplier_id"`
	Warehouses      []string         `json:"warehouse_countries"`
	Variants        []ProductVariant `json:"variants"`
	ImageURLs       []string         `json:"image_urls"`
	InventoryCount  *int             `json:"inventory_count,omitempty"`
}

// SearchPageResult is what the Catalog Parser recovers from a search or
// pagination payload: discovered product URLs and, if present, the next
// pagination URL.
type SearchPageResult struct {
	ProductURLs    []string `json:"product_urls"`
	PaginationURLs []string `json:"pagination_urls"`
}
