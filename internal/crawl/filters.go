package crawl

import (
	"strings"

	"github.com/ternarybob/dropscout/internal/models"
	"github.com/ternarybob/dropscout/internal/storage/badger"
)

// RejectReason names which admission condition of the Exclusion Filter
// (spec.md §4.7) rejected a product, used to attribute the job's
// "filtered" counter.
type RejectReason string

const (
	RejectWarehouse RejectReason = "warehouse"
	RejectCategory  RejectReason = "category"
	RejectSupplier  RejectReason = "supplier"
	RejectKeyword   RejectReason = "keyword"
	RejectPrice     RejectReason = "price"
)

// FilterDecision is the outcome of applying the Exclusion Filter to one
// product against one job's configuration.
type FilterDecision struct {
	Admitted bool
	Reason   RejectReason
}

// ExclusionFilter is the Exclusion Filter (C8): evaluates a product against
// a job's include/exclude config and the process-wide persistent rule
// cache.
type ExclusionFilter struct {
	cache *badger.ExclusionCache
}

// NewExclusionFilter builds an Exclusion Filter backed by the given
// process-wide rule cache.
func NewExclusionFilter(cache *badger.ExclusionCache) *ExclusionFilter {
	return &ExclusionFilter{cache: cache}
}

// Evaluate applies the five admission conditions of spec.md §4.7, in the
// order that most cheaply short-circuits: warehouse, category, supplier,
// keyword, then price.
func (f *ExclusionFilter) Evaluate(product *models.CanonicalProduct, cfg models.JobConfig) FilterDecision {
	if !f.warehouseAdmitted(product.Warehouses, cfg) {
		return FilterDecision{Admitted: false, Reason: RejectWarehouse}
	}
	if !f.categoryAdmitted(product.CategoryPath, cfg) {
		return FilterDecision{Admitted: false, Reason: RejectCategory}
	}
	if f.supplierExcluded(product.SupplierID) {
		return FilterDecision{Admitted: false, Reason: RejectSupplier}
	}
	if f.keywordExcluded(product.DisplayName) {
		return FilterDecision{Admitted: false, Reason: RejectKeyword}
	}
	if !priceAdmitted(product, cfg) {
		return FilterDecision{Admitted: false, Reason: RejectPrice}
	}
	return FilterDecision{Admitted: true}
}

// warehouseAdmitted: the product's warehouse country must be in the job's
// include set (or that set is empty), and not in the union of the job's
// exclude set and the persistent country rules.
func (f *ExclusionFilter) warehouseAdmitted(warehouses []string, cfg models.JobConfig) bool {
	excludedCountries := f.cache.Countries()
	jobExclude := toSet(cfg.ExcludeWarehouses)
	jobInclude := toSet(cfg.IncludeWarehouses)

	for _, w := range warehouses {
		if len(jobInclude) > 0 {
			if _, ok := jobInclude[w]; !ok {
				continue
			}
		}
		if _, ok := jobExclude[w]; ok {
			continue
		}
		if _, ok := excludedCountries[w]; ok {
			continue
		}
		return true
	}
	return false
}

// categoryAdmitted: the product's category path must intersect the job's
// include set (or that set is empty), and have no intersection with the
// union of the job's exclude set and the persistent category rules.
func (f *ExclusionFilter) categoryAdmitted(categories []string, cfg models.JobConfig) bool {
	excludedCategories := f.cache.Categories()
	jobExclude := toSet(cfg.ExcludeCategories)
	jobInclude := toSet(cfg.IncludeCategories)

	for _, c := range categories {
		if _, ok := jobExclude[c]; ok {
			return false
		}
		if _, ok := excludedCategories[c]; ok {
			return false
		}
	}
	if len(jobInclude) == 0 {
		return true
	}
	for _, c := range categories {
		if _, ok := jobInclude[c]; ok {
			return true
		}
	}
	return false
}

func (f *ExclusionFilter) supplierExcluded(supplierID string) bool {
	_, ok := f.cache.Suppliers()[supplierID]
	return ok
}

func (f *ExclusionFilter) keywordExcluded(name string) bool {
	lowerName := strings.ToLower(name)
	for _, kw := range f.cache.Keywords() {
		if kw == "" {
			continue
		}
		if strings.Contains(lowerName, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

func priceAdmitted(product *models.CanonicalProduct, cfg models.JobConfig) bool {
	if cfg.PriceMin > 0 && product.MaxSellPrice < cfg.PriceMin {
		return false
	}
	if cfg.PriceMax > 0 && product.MinSellPrice > cfg.PriceMax {
		return false
	}
	return true
}

func toSet(values []string) map[string]struct{} {
	out := make(map[string]struct{}, len(values))
	for _, v := range values {
		out[v] = struct{}{}
	}
	return out
}
