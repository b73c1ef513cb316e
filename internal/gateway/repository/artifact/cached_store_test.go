package artifact

import (
	"context"
	"testing"
)

// countingStore wraps a Store and counts origin List calls.
type countingStore struct {
	Store
	lists int
}

func (s *countingStore) List(ctx context.Context, runID string) ([]string, error) {
	s.lists++
	return s.Store.List(ctx, runID)
}

func TestCachedStoreCachesListings(t *testing.T) {
	origin := &countingStore{Store: NewLocalStore(t.TempDir())}
	cached, err := NewCachedStore(origin, 8)
	if err != nil {
		t.Fatalf("NewCachedStore() error = %v", err)
	}
	ctx := context.Background()

	if _, err := cached.Put(ctx, "run-1", 1, "png", []byte("x")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	for i := 0; i < 3; i++ {
		keys, err := cached.List(ctx, "run-1")
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(keys) != 1 {
			t.Fatalf("keys = %v", keys)
		}
	}
	if origin.lists != 1 {
		t.Fatalf("origin List calls = %d, want 1 (cached)", origin.lists)
	}
}

func TestCachedStorePutInvalidates(t *testing.T) {
	origin := &countingStore{Store: NewLocalStore(t.TempDir())}
	cached, err := NewCachedStore(origin, 8)
	if err != nil {
		t.Fatalf("NewCachedStore() error = %v", err)
	}
	ctx := context.Background()

	if _, err := cached.Put(ctx, "run-1", 1, "png", []byte("x")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if _, err := cached.List(ctx, "run-1"); err != nil {
		t.Fatalf("List() error = %v", err)
	}

	if _, err := cached.Put(ctx, "run-1", 2, "png", []byte("y")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	keys, err := cached.List(ctx, "run-1")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("keys = %v, want the fresh listing after invalidation", keys)
	}
}

func TestCachedStoreDeleteRunInvalidates(t *testing.T) {
	origin := &countingStore{Store: NewLocalStore(t.TempDir())}
	cached, err := NewCachedStore(origin, 8)
	if err != nil {
		t.Fatalf("NewCachedStore() error = %v", err)
	}
	ctx := context.Background()

	if _, err := cached.Put(ctx, "run-1", 1, "png", []byte("x")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if _, err := cached.List(ctx, "run-1"); err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if err := cached.DeleteRun(ctx, "run-1"); err != nil {
		t.Fatalf("DeleteRun() error = %v", err)
	}
	keys, err := cached.List(ctx, "run-1")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(keys) != 0 {
		t.Fatalf("keys = %v, want empty after run delete", keys)
	}
}
