package badger

import (
	"context"
	"testing"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"
)

func newTestBadgerDB(t *testing.T) *BadgerDB {
	t.Helper()
	dir := t.TempDir()

	options := badgerhold.DefaultOptions
	options.Dir = dir
	options.ValueDir = dir

	store, err := badgerhold.Open(options)
	if err != nil {
		t.Fatalf("open badgerhold store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	return &BadgerDB{store: store, logger: arbor.NewLogger()}
}

func TestDedupCache_ContainsAfterMark(t *testing.T) {
	db := newTestBadgerDB(t)
	cache := NewDedupCache(db, arbor.NewLogger())
	ctx := context.Background()

	hit, err := cache.Contains(ctx, "p1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hit {
		t.Fatal("expected miss before Mark")
	}

	if err := cache.Mark(ctx, "p1", time.Now()); err != nil {
		t.Fatalf("Mark failed: %v", err)
	}

	hit, err = cache.Contains(ctx, "p1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !hit {
		t.Fatal("expected hit after Mark")
	}
}

func TestDedupCache_Warm(t *testing.T) {
	db := newTestBadgerDB(t)
	cache := NewDedupCache(db, arbor.NewLogger())
	ctx := context.Background()

	ids := []string{"a", "b", "c"}
	if err := cache.Warm(ctx, ids, time.Now()); err != nil {
		t.Fatalf("Warm failed: %v", err)
	}

	for _, id := range ids {
		hit, err := cache.Contains(ctx, id)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !hit {
			t.Errorf("expected %q to be present after Warm", id)
		}
	}

	hit, err := cache.Contains(ctx, "not-warmed")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hit {
		t.Error("unwarmed id should be a miss")
	}
}
