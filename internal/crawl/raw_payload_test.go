package crawl

import (
	"testing"
)

func TestRawProductDetail_Normalize_VariantRanges(t *testing.T) {
	raw := rawProductDetail{
		ProductID:  "8839201",
		Name:       "Garden Hose",
		SKU:        "GH-000",
		SupplierID: "sup-1",
		Warehouses: []string{"US", "CA"},
		Variants: []rawVariant{
			{SKU: "GH-50", SellPrice: 19.99, SuggestedRetail: 29.99, Weight: 1.2, PackWeight: 1.5},
			{SKU: "GH-100", SellPrice: 34.99, SuggestedRetail: 49.99, Weight: 2.1, PackWeight: 2.4},
			{SKU: "GH-25", SellPrice: 9.99, SuggestedRetail: 14.99, Weight: 0.6, PackWeight: 0.8},
		},
	}

	product := raw.normalize()

	if product.SourceProductID != "8839201" || product.DisplayName != "Garden Hose" {
		t.Fatalf("unexpected identity fields: %+v", product)
	}
	if product.MinSellPrice != 9.99 || product.MaxSellPrice != 34.99 {
		t.Errorf("got min=%v max=%v, want min=9.99 max=34.99", product.MinSellPrice, product.MaxSellPrice)
	}
	if product.MinWeight != 0.6 || product.MaxWeight != 2.1 {
		t.Errorf("got minWeight=%v maxWeight=%v, want 0.6/2.1", product.MinWeight, product.MaxWeight)
	}
	if len(product.Variants) != 3 {
		t.Errorf("got %d variants, want 3", len(product.Variants))
	}
}

func TestRawProductDetail_Normalize_NoVariantsFallsBackToSKU(t *testing.T) {
	raw := rawProductDetail{
		ProductID: "1",
		Name:      "No-variant item",
		SKU:       "BARE-SKU",
	}

	product := raw.normalize()
	if product.PrimarySKU != "BARE-SKU" {
		t.Errorf("got primary sku %q, want BARE-SKU", product.PrimarySKU)
	}
	if product.MinSellPrice != 0 || product.MaxSellPrice != 0 {
		t.Errorf("expected zero-value price range with no variants, got min=%v max=%v", product.MinSellPrice, product.MaxSellPrice)
	}
}

func TestValidateProductComplete(t *testing.T) {
	complete := rawProductDetail{ProductID: "1", Name: "X", Variants: []rawVariant{{SellPrice: 5}}}.normalize()
	if err := validateProductComplete(complete); err != nil {
		t.Errorf("expected valid product, got error: %v", err)
	}

	missingID := rawProductDetail{Name: "X", Variants: []rawVariant{{SellPrice: 5}}}.normalize()
	if err := validateProductComplete(missingID); err == nil {
		t.Error("expected error for missing id")
	}

	missingPrice := rawProductDetail{ProductID: "1", Name: "X"}.normalize()
	if err := validateProductComplete(missingPrice); err == nil {
		t.Error("expected error for missing sell price")
	}
}
