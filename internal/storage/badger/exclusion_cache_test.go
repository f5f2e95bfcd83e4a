package badger

import (
	"context"
	"testing"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/dropscout/internal/models"
)

func TestExclusionCache_RefreshGroupsByKind(t *testing.T) {
	cache := NewExclusionCache(arbor.NewLogger())
	rules := []models.ExclusionRule{
		{Kind: models.ExclusionKindCountry, Value: "CN"},
		{Kind: models.ExclusionKindCountry, Value: "RU"},
		{Kind: models.ExclusionKindCategory, Value: "weapons"},
		{Kind: models.ExclusionKindSupplier, Value: "sup-bad"},
		{Kind: models.ExclusionKindKeyword, Value: "knockoff"},
	}
	cache.Refresh(context.Background(), rules)

	countries := cache.Countries()
	if _, ok := countries["CN"]; !ok {
		t.Error("expected CN in countries")
	}
	if _, ok := countries["RU"]; !ok {
		t.Error("expected RU in countries")
	}
	if len(countries) != 2 {
		t.Errorf("got %d countries, want 2", len(countries))
	}

	categories := cache.Categories()
	if _, ok := categories["weapons"]; !ok {
		t.Error("expected weapons in categories")
	}

	suppliers := cache.Suppliers()
	if _, ok := suppliers["sup-bad"]; !ok {
		t.Error("expected sup-bad in suppliers")
	}

	keywords := cache.Keywords()
	found := false
	for _, k := range keywords {
		if k == "knockoff" {
			found = true
		}
	}
	if !found {
		t.Error("expected knockoff in keywords")
	}
}

func TestExclusionCache_RefreshReplacesPreviousContents(t *testing.T) {
	cache := NewExclusionCache(arbor.NewLogger())
	cache.Refresh(context.Background(), []models.ExclusionRule{
		{Kind: models.ExclusionKindCountry, Value: "CN"},
	})
	if len(cache.Countries()) != 1 {
		t.Fatalf("expected 1 country after first refresh")
	}

	cache.Refresh(context.Background(), []models.ExclusionRule{
		{Kind: models.ExclusionKindCountry, Value: "RU"},
	})
	countries := cache.Countries()
	if len(countries) != 1 {
		t.Fatalf("expected 1 country after second refresh, got %d", len(countries))
	}
	if _, ok := countries["CN"]; ok {
		t.Error("stale rule from first refresh should be gone")
	}
	if _, ok := countries["RU"]; !ok {
		t.Error("expected RU after second refresh")
	}
}

func TestExclusionCache_EmptyBeforeRefresh(t *testing.T) {
	cache := NewExclusionCache(arbor.NewLogger())
	if len(cache.Countries()) != 0 || len(cache.Categories()) != 0 || len(cache.Suppliers()) != 0 || len(cache.Keywords()) != 0 {
		t.Error("expected all-empty cache before first refresh")
	}
	if !cache.LoadedAt().IsZero() {
		t.Error("expected zero LoadedAt before first refresh")
	}
}
