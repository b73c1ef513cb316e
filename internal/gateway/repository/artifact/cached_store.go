package artifact

import (
	"context"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CachedStore fronts another Store with an LRU over per-run listings, the
// hot read on the run detail page. Writes invalidate the run's entry.
type CachedStore struct {
	origin Store
	cache  *lru.Cache[string, []string]
}

func NewCachedStore(origin Store, size int) (*CachedStore, error) {
	if size <= 0 {
		size = 1024
	}
	cache, err := lru.New[string, []string](size)
	if err != nil {
		return nil, err
	}
	return &CachedStore{origin: origin, cache: cache}, nil
}

func (s *CachedStore) Put(ctx context.Context, runID string, number int, ext string, content []byte) (string, error) {
	key, err := s.origin.Put(ctx, runID, number, ext, content)
	if err == nil {
		s.cache.Remove(strings.TrimSpace(runID))
	}
	return key, err
}

func (s *CachedStore) Get(ctx context.Context, runID string, number int, ext string) ([]byte, error) {
	return s.origin.Get(ctx, runID, number, ext)
}

func (s *CachedStore) GetURL(ctx context.Context, runID string, number int, ext string) (string, error) {
	return s.origin.GetURL(ctx, runID, number, ext)
}

func (s *CachedStore) List(ctx context.Context, runID string) ([]string, error) {
	key := strings.TrimSpace(runID)
	if cached, ok := s.cache.Get(key); ok {
		return cached, nil
	}
	listed, err := s.origin.List(ctx, runID)
	if err != nil {
		return nil, err
	}
	s.cache.Add(key, listed)
	return listed, nil
}

func (s *CachedStore) DeleteRun(ctx context.Context, runID string) error {
	err := s.origin.DeleteRun(ctx, runID)
	if err == nil {
		s.cache.Remove(strings.TrimSpace(runID))
	}
	return err
}
