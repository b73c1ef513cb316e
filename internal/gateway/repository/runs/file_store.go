package runs

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"evaltrack/internal/gateway/entity"
)

// FileStore keeps the full run collection in one JSON document on disk. It is
// the single-user local fallback; every write rewrites the whole file under an
// in-process lock.
type FileStore struct {
	path string

	loadOnce sync.Once
	loadErr  error
	mu       sync.RWMutex
	byID     map[string]entity.Run
}

type runsDocument struct {
	Runs []entity.Run `json:"runs"`
}

func NewFileStore(path string) *FileStore {
	return &FileStore{
		path: path,
		byID: make(map[string]entity.Run),
	}
}

func (s *FileStore) ensureLoaded() error {
	s.loadOnce.Do(func() {
		b, err := os.ReadFile(s.path)
		if err != nil {
			if os.IsNotExist(err) {
				return
			}
			s.loadErr = entity.Backendf("read runs document", err)
			return
		}
		var doc runsDocument
		if err := json.Unmarshal(b, &doc); err != nil {
			s.loadErr = entity.Backendf("decode runs document", err)
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		for _, run := range doc.Runs {
			id := strings.TrimSpace(run.ID)
			if id == "" {
				continue
			}
			s.byID[id] = entity.NormalizeRun(run)
		}
	})
	return s.loadErr
}

// saveLocked rewrites the document. Caller holds the write lock.
func (s *FileStore) saveLocked() error {
	doc := runsDocument{Runs: make([]entity.Run, 0, len(s.byID))}
	for _, run := range s.byID {
		doc.Runs = append(doc.Runs, run)
	}
	sort.Slice(doc.Runs, func(i, j int) bool {
		return doc.Runs[i].ID < doc.Runs[j].ID
	})
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return entity.Backendf("encode runs document", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return entity.Backendf("create data dir", err)
	}
	if err := os.WriteFile(s.path, b, 0o644); err != nil {
		return entity.Backendf("write runs document", err)
	}
	return nil
}

func (s *FileStore) List(_ context.Context) ([]entity.Run, error) {
	if err := s.ensureLoaded(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]entity.Run, 0, len(s.byID))
	for _, run := range s.byID {
		out = append(out, run)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out, nil
}

func (s *FileStore) Get(_ context.Context, runID string) (entity.Run, error) {
	if err := s.ensureLoaded(); err != nil {
		return entity.Run{}, err
	}
	id := strings.TrimSpace(runID)
	s.mu.RLock()
	run, ok := s.byID[id]
	s.mu.RUnlock()
	if !ok {
		return entity.Run{}, entity.ErrNotFound
	}
	return run, nil
}

func (s *FileStore) Put(_ context.Context, run entity.Run) error {
	if err := s.ensureLoaded(); err != nil {
		return err
	}
	normalized := entity.NormalizeRun(run)
	if normalized.ID == "" {
		return entity.Invalidf("id", "must not be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[normalized.ID] = normalized
	return s.saveLocked()
}

func (s *FileStore) Update(_ context.Context, runID string, fn func(*entity.Run) error) (entity.Run, error) {
	if err := s.ensureLoaded(); err != nil {
		return entity.Run{}, err
	}
	id := strings.TrimSpace(runID)
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.byID[id]
	if !ok {
		return entity.Run{}, entity.ErrNotFound
	}
	if err := fn(&run); err != nil {
		return entity.Run{}, err
	}
	run.ID = id
	run = entity.NormalizeRun(run)
	s.byID[id] = run
	if err := s.saveLocked(); err != nil {
		return entity.Run{}, err
	}
	return run, nil
}

func (s *FileStore) Delete(_ context.Context, runID string) error {
	if err := s.ensureLoaded(); err != nil {
		return err
	}
	id := strings.TrimSpace(runID)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return entity.ErrNotFound
	}
	delete(s.byID, id)
	return s.saveLocked()
}

func (s *FileStore) ListPending(ctx context.Context) (captured, capturing []entity.Run, err error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, nil, err
	}
	return splitPending(all)
}

// splitPending partitions runs by effective state. Shared with the relational
// adapter so both backends classify legacy rows identically.
func splitPending(all []entity.Run) (captured, capturing []entity.Run, err error) {
	captured = make([]entity.Run, 0)
	capturing = make([]entity.Run, 0)
	for _, run := range all {
		switch run.State.Effective() {
		case entity.StateCaptured:
			captured = append(captured, run)
		case entity.StateCapturing:
			capturing = append(capturing, run)
		}
	}
	return captured, capturing, nil
}
