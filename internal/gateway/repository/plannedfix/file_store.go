package plannedfix

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"evaltrack/internal/gateway/entity"
)

// FileStore keeps planned fixes in one JSON document on disk.
type FileStore struct {
	path string

	loadOnce sync.Once
	loadErr  error
	mu       sync.RWMutex
	byID     map[string]entity.PlannedFix

	now func() time.Time
}

type fixesDocument struct {
	PlannedFixes []entity.PlannedFix `json:"plannedFixes"`
}

func NewFileStore(path string) *FileStore {
	return &FileStore{
		path: path,
		byID: make(map[string]entity.PlannedFix),
		now:  time.Now,
	}
}

func (s *FileStore) ensureLoaded() error {
	s.loadOnce.Do(func() {
		b, err := os.ReadFile(s.path)
		if err != nil {
			if os.IsNotExist(err) {
				return
			}
			s.loadErr = entity.Backendf("read planned fixes document", err)
			return
		}
		var doc fixesDocument
		if err := json.Unmarshal(b, &doc); err != nil {
			s.loadErr = entity.Backendf("decode planned fixes document", err)
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		for _, fix := range doc.PlannedFixes {
			id := strings.TrimSpace(fix.ID)
			if id == "" {
				continue
			}
			s.byID[id] = entity.NormalizePlannedFix(fix)
		}
	})
	return s.loadErr
}

func (s *FileStore) saveLocked() error {
	doc := fixesDocument{PlannedFixes: make([]entity.PlannedFix, 0, len(s.byID))}
	for _, fix := range s.byID {
		doc.PlannedFixes = append(doc.PlannedFixes, fix)
	}
	sort.Slice(doc.PlannedFixes, func(i, j int) bool {
		return doc.PlannedFixes[i].ID < doc.PlannedFixes[j].ID
	})
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return entity.Backendf("encode planned fixes document", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return entity.Backendf("create data dir", err)
	}
	if err := os.WriteFile(s.path, b, 0o644); err != nil {
		return entity.Backendf("write planned fixes document", err)
	}
	return nil
}

func (s *FileStore) List(_ context.Context) ([]entity.PlannedFix, error) {
	if err := s.ensureLoaded(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]entity.PlannedFix, 0, len(s.byID))
	for _, fix := range s.byID {
		out = append(out, fix)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *FileStore) Get(_ context.Context, id string) (entity.PlannedFix, error) {
	if err := s.ensureLoaded(); err != nil {
		return entity.PlannedFix{}, err
	}
	s.mu.RLock()
	fix, ok := s.byID[strings.TrimSpace(id)]
	s.mu.RUnlock()
	if !ok {
		return entity.PlannedFix{}, entity.ErrNotFound
	}
	return fix, nil
}

func (s *FileStore) Upsert(_ context.Context, fix entity.PlannedFix) (entity.PlannedFix, error) {
	if err := s.ensureLoaded(); err != nil {
		return entity.PlannedFix{}, err
	}
	normalized := entity.NormalizePlannedFix(fix)
	if normalized.Name == "" {
		return entity.PlannedFix{}, entity.Invalidf("name", "must not be empty")
	}
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.byID[normalized.ID]; ok && normalized.ID != "" {
		normalized.CreatedAt = existing.CreatedAt
		normalized.UpdatedAt = now
	} else {
		if normalized.ID == "" {
			normalized.ID = uuid.New().String()
		}
		normalized.CreatedAt = now
		normalized.UpdatedAt = now
	}
	s.byID[normalized.ID] = normalized
	if err := s.saveLocked(); err != nil {
		return entity.PlannedFix{}, err
	}
	return normalized, nil
}

func (s *FileStore) Delete(_ context.Context, id string) error {
	if err := s.ensureLoaded(); err != nil {
		return err
	}
	key := strings.TrimSpace(id)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[key]; !ok {
		return entity.ErrNotFound
	}
	delete(s.byID, key)
	return s.saveLocked()
}
