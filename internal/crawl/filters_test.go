package crawl

import (
	"context"
	"testing"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/dropscout/internal/models"
	"github.com/ternarybob/dropscout/internal/storage/badger"
)

func newTestExclusionCache(t *testing.T, rules []models.ExclusionRule) *badger.ExclusionCache {
	t.Helper()
	cache := badger.NewExclusionCache(arbor.NewLogger())
	cache.Refresh(context.Background(), rules)
	return cache
}

func baseProduct() *models.CanonicalProduct {
	return &models.CanonicalProduct{
		SourceProductID: "p1",
		DisplayName:     "Garden Hose 50ft",
		SupplierID:      "supplier-1",
		CategoryPath:    []string{"garden", "outdoor"},
		Warehouses:      []string{"US"},
		MinSellPrice:    10,
		MaxSellPrice:    10,
	}
}

func TestExclusionFilter_AdmitsWithinAllBounds(t *testing.T) {
	cache := newTestExclusionCache(t, nil)
	filter := NewExclusionFilter(cache)
	cfg := models.JobConfig{
		IncludeWarehouses: []string{"US"},
		PriceMin:          5,
		PriceMax:          50,
	}

	decision := filter.Evaluate(baseProduct(), cfg)
	if !decision.Admitted {
		t.Fatalf("expected admitted, got rejected: %s", decision.Reason)
	}
}

func TestExclusionFilter_RejectsPriceAboveMax(t *testing.T) {
	cache := newTestExclusionCache(t, nil)
	filter := NewExclusionFilter(cache)
	cfg := models.JobConfig{IncludeWarehouses: []string{"US"}, PriceMin: 5, PriceMax: 50}

	product := baseProduct()
	product.MinSellPrice, product.MaxSellPrice = 60, 60

	decision := filter.Evaluate(product, cfg)
	if decision.Admitted || decision.Reason != RejectPrice {
		t.Fatalf("expected RejectPrice, got admitted=%v reason=%s", decision.Admitted, decision.Reason)
	}
}

func TestExclusionFilter_RejectsWarehouseNotIncluded(t *testing.T) {
	cache := newTestExclusionCache(t, nil)
	filter := NewExclusionFilter(cache)
	cfg := models.JobConfig{IncludeWarehouses: []string{"US"}}

	product := baseProduct()
	product.Warehouses = []string{"CN"}

	decision := filter.Evaluate(product, cfg)
	if decision.Admitted || decision.Reason != RejectWarehouse {
		t.Fatalf("expected RejectWarehouse, got admitted=%v reason=%s", decision.Admitted, decision.Reason)
	}
}

func TestExclusionFilter_RejectsWarehouseExcludedByJob(t *testing.T) {
	cache := newTestExclusionCache(t, nil)
	filter := NewExclusionFilter(cache)
	cfg := models.JobConfig{ExcludeWarehouses: []string{"US"}}

	decision := filter.Evaluate(baseProduct(), cfg)
	if decision.Admitted || decision.Reason != RejectWarehouse {
		t.Fatalf("expected RejectWarehouse, got admitted=%v reason=%s", decision.Admitted, decision.Reason)
	}
}

func TestExclusionFilter_RejectsWarehouseExcludedByPersistentRule(t *testing.T) {
	cache := newTestExclusionCache(t, []models.ExclusionRule{
		{Kind: models.ExclusionKindCountry, Value: "US"},
	})
	filter := NewExclusionFilter(cache)

	decision := filter.Evaluate(baseProduct(), models.JobConfig{})
	if decision.Admitted || decision.Reason != RejectWarehouse {
		t.Fatalf("expected RejectWarehouse, got admitted=%v reason=%s", decision.Admitted, decision.Reason)
	}
}

func TestExclusionFilter_EmptyIncludeSetAdmitsAnyWarehouse(t *testing.T) {
	cache := newTestExclusionCache(t, nil)
	filter := NewExclusionFilter(cache)

	product := baseProduct()
	product.Warehouses = []string{"DE"}

	decision := filter.Evaluate(product, models.JobConfig{PriceMin: 1, PriceMax: 100})
	if !decision.Admitted {
		t.Fatalf("expected admitted with empty include set, got reason=%s", decision.Reason)
	}
}

func TestExclusionFilter_RejectsCategoryNotIncluded(t *testing.T) {
	cache := newTestExclusionCache(t, nil)
	filter := NewExclusionFilter(cache)
	cfg := models.JobConfig{IncludeCategories: []string{"electronics"}}

	decision := filter.Evaluate(baseProduct(), cfg)
	if decision.Admitted || decision.Reason != RejectCategory {
		t.Fatalf("expected RejectCategory, got admitted=%v reason=%s", decision.Admitted, decision.Reason)
	}
}

func TestExclusionFilter_RejectsCategoryExcludedByPersistentRule(t *testing.T) {
	cache := newTestExclusionCache(t, []models.ExclusionRule{
		{Kind: models.ExclusionKindCategory, Value: "garden"},
	})
	filter := NewExclusionFilter(cache)

	decision := filter.Evaluate(baseProduct(), models.JobConfig{})
	if decision.Admitted || decision.Reason != RejectCategory {
		t.Fatalf("expected RejectCategory, got admitted=%v reason=%s", decision.Admitted, decision.Reason)
	}
}

func TestExclusionFilter_RejectsSupplierFromPersistentRule(t *testing.T) {
	cache := newTestExclusionCache(t, []models.ExclusionRule{
		{Kind: models.ExclusionKindSupplier, Value: "supplier-1"},
	})
	filter := NewExclusionFilter(cache)

	decision := filter.Evaluate(baseProduct(), models.JobConfig{})
	if decision.Admitted || decision.Reason != RejectSupplier {
		t.Fatalf("expected RejectSupplier, got admitted=%v reason=%s", decision.Admitted, decision.Reason)
	}
}

func TestExclusionFilter_RejectsKeywordCaseInsensitiveSubstring(t *testing.T) {
	cache := newTestExclusionCache(t, []models.ExclusionRule{
		{Kind: models.ExclusionKindKeyword, Value: "hose"},
	})
	filter := NewExclusionFilter(cache)

	decision := filter.Evaluate(baseProduct(), models.JobConfig{})
	if decision.Admitted || decision.Reason != RejectKeyword {
		t.Fatalf("expected RejectKeyword, got admitted=%v reason=%s", decision.Admitted, decision.Reason)
	}
}

func TestExclusionFilter_PriceConditionUsesMinMaxOverlap(t *testing.T) {
	cache := newTestExclusionCache(t, nil)
	filter := NewExclusionFilter(cache)
	cfg := models.JobConfig{PriceMin: 20, PriceMax: 40}

	// variants span [10, 60]; the range overlaps [20,40] so it should be admitted.
	product := baseProduct()
	product.MinSellPrice, product.MaxSellPrice = 10, 60

	decision := filter.Evaluate(product, cfg)
	if !decision.Admitted {
		t.Fatalf("expected admitted due to overlapping price range, got reason=%s", decision.Reason)
	}
}
