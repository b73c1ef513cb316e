package annotations

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

// FileStore keeps the annotation collection in one JSON document on disk.
type FileStore struct {
	path string

	loadOnce sync.Once
	loadErr  error
	mu       sync.RWMutex
	byID     map[string]entity.Annotation

	now func() time.Time
}

type annotationsDocument struct {
	Annotations []entity.Annotation `json:"annotations"`
}

func NewFileStore(path string) *FileStore {
	return &FileStore{
		path: path,
		byID: make(map[string]entity.Annotation),
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
			s.loadErr = entity.Backendf("read annotations document", err)
			return
		}
		var doc annotationsDocument
		if err := json.Unmarshal(b, &doc); err != nil {
			s.loadErr = entity.Backendf("decode annotations document", err)
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		for _, a := range doc.Annotations {
			id := strings.TrimSpace(a.ID)
			if id == "" {
				continue
			}
			s.byID[id] = entity.NormalizeAnnotation(a)
		}
	})
	return s.loadErr
}

func (s *FileStore) saveLocked() error {
	doc := annotationsDocument{Annotations: make([]entity.Annotation, 0, len(s.byID))}
	for _, a := range s.byID {
		doc.Annotations = append(doc.Annotations, a)
	}
	sort.Slice(doc.Annotations, func(i, j int) bool {
		return doc.Annotations[i].ID < doc.Annotations[j].ID
	})
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return entity.Backendf("encode annotations document", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return entity.Backendf("create data dir", err)
	}
	if err := os.WriteFile(s.path, b, 0o644); err != nil {
		return entity.Backendf("write annotations document", err)
	}
	return nil
}

func (s *FileStore) list(filter func(entity.Annotation) bool) []entity.Annotation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]entity.Annotation, 0, len(s.byID))
	for _, a := range s.byID {
		if filter == nil || filter(a) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (s *FileStore) List(_ context.Context) ([]entity.Annotation, error) {
	if err := s.ensureLoaded(); err != nil {
		return nil, err
	}
	return s.list(nil), nil
}

func (s *FileStore) ListByRun(_ context.Context, runID string) ([]entity.Annotation, error) {
	if err := s.ensureLoaded(); err != nil {
		return nil, err
	}
	id := strings.TrimSpace(runID)
	return s.list(func(a entity.Annotation) bool {
		return a.RunID == id
	}), nil
}

func (s *FileStore) ListByRunMessage(_ context.Context, runID string, messageID int) ([]entity.Annotation, error) {
	if err := s.ensureLoaded(); err != nil {
		return nil, err
	}
	id := strings.TrimSpace(runID)
	return s.list(func(a entity.Annotation) bool {
		return a.RunID == id && a.MessageID == messageID
	}), nil
}

func (s *FileStore) Get(_ context.Context, id string) (entity.Annotation, error) {
	if err := s.ensureLoaded(); err != nil {
		return entity.Annotation{}, err
	}
	s.mu.RLock()
	a, ok := s.byID[strings.TrimSpace(id)]
	s.mu.RUnlock()
	if !ok {
		return entity.Annotation{}, entity.ErrNotFound
	}
	return a, nil
}

func (s *FileStore) Upsert(_ context.Context, a entity.Annotation) (entity.Annotation, error) {
	if err := s.ensureLoaded(); err != nil {
		return entity.Annotation{}, err
	}
	normalized := entity.NormalizeAnnotation(a)
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.byID[normalized.ID]; ok && normalized.ID != "" {
		// Update in place: absent optional fields overwrite, they do not
		// mean "leave unchanged".
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
		return entity.Annotation{}, err
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

func (s *FileStore) DeleteByRunMessage(_ context.Context, runID string, messageID int) error {
	if err := s.ensureLoaded(); err != nil {
		return err
	}
	id := strings.TrimSpace(runID)
	s.mu.Lock()
	defer s.mu.Unlock()
	deleted := false
	for key, a := range s.byID {
		if a.RunID == id && a.MessageID == messageID {
			delete(s.byID, key)
			deleted = true
		}
	}
	if !deleted {
		return entity.ErrNotFound
	}
	return s.saveLocked()
}

func (s *FileStore) DeleteByRun(_ context.Context, runID string) error {
	if err := s.ensureLoaded(); err != nil {
		return err
	}
	id := strings.TrimSpace(runID)
	s.mu.Lock()
	defer s.mu.Unlock()
	changed := false
	for key, a := range s.byID {
		if a.RunID == id {
			delete(s.byID, key)
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return s.saveLocked()
}

func (s *FileStore) ClearPlannedFix(_ context.Context, fixID string) error {
	if err := s.ensureLoaded(); err != nil {
		return err
	}
	id := strings.TrimSpace(fixID)
	s.mu.Lock()
	defer s.mu.Unlock()
	changed := false
	for key, a := range s.byID {
		if a.PlannedFixID != nil && *a.PlannedFixID == id {
			a.PlannedFixID = nil
			a.UpdatedAt = s.now()
			s.byID[key] = a
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return s.saveLocked()
}
