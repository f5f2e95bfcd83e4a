package badger

import (
	"context"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/dropscout/internal/models"
)

// ExclusionCache is the only process-wide mutable state in the system
// (spec.md §9, "Global mutable state"): a short-TTL in-memory mirror of the
// persistent exclusion_rules table (C8's rule source). It is initialized
// from the store on startup and refreshed on a timer; it must never be
// populated by scattered ad hoc config reads.
type ExclusionCache struct {
	logger arbor.ILogger

	mu       sync.RWMutex
	byKind   map[models.ExclusionKind]map[string]models.ExclusionRule
	loadedAt time.Time
}

// NewExclusionCache creates an empty exclusion cache; call Refresh before
// first use.
func NewExclusionCache(logger arbor.ILogger) *ExclusionCache {
	return &ExclusionCache{
		logger: logger,
		byKind: make(map[models.ExclusionKind]map[string]models.ExclusionRule),
	}
}

// Refresh replaces the cache contents with the given rule set, atomically.
func (c *ExclusionCache) Refresh(ctx context.Context, rules []models.ExclusionRule) {
	grouped := make(map[models.ExclusionKind]map[string]models.ExclusionRule)
	for _, r := range rules {
		m, ok := grouped[r.Kind]
		if !ok {
			m = make(map[string]models.ExclusionRule)
			grouped[r.Kind] = m
		}
		m[r.Value] = r
	}

	c.mu.Lock()
	c.byKind = grouped
	c.loadedAt = time.Now()
	c.mu.Unlock()

	c.logger.Debug().Int("rule_count", len(rules)).Msg("Exclusion cache refreshed")
}

// Countries returns the set of persistent country exclusion values.
func (c *ExclusionCache) Countries() map[string]struct{} {
	return c.valuesForKind(models.ExclusionKindCountry)
}

// Categories returns the set of persistent category exclusion values.
func (c *ExclusionCache) Categories() map[string]struct{} {
	return c.valuesForKind(models.ExclusionKindCategory)
}

// Suppliers returns the set of persistent supplier exclusion values.
func (c *ExclusionCache) Suppliers() map[string]struct{} {
	return c.valuesForKind(models.ExclusionKindSupplier)
}

// Keywords returns the list of persistent keyword-substring exclusion rules.
func (c *ExclusionCache) Keywords() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	m := c.byKind[models.ExclusionKindKeyword]
	out := make([]string, 0, len(m))
	for value := range m {
		out = append(out, value)
	}
	return out
}

func (c *ExclusionCache) valuesForKind(kind models.ExclusionKind) map[string]struct{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]struct{})
	for value := range c.byKind[kind] {
		out[value] = struct{}{}
	}
	return out
}

// LoadedAt reports when the cache was last refreshed.
func (c *ExclusionCache) LoadedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loadedAt
}
