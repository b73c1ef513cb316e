package artifact

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// LocalStore keeps artifact images under a local directory, mirroring the
// bucket key layout. It is the fallback when no object store is configured.
type LocalStore struct {
	root string
}

func NewLocalStore(root string) *LocalStore {
	return &LocalStore{root: root}
}

func (s *LocalStore) filePath(runID string, number int, ext string) (string, error) {
	key, err := ObjectKey(runID, number, ext)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.root, filepath.FromSlash(key)), nil
}

func (s *LocalStore) Put(ctx context.Context, runID string, number int, ext string, content []byte) (string, error) {
	key, err := ObjectKey(runID, number, ext)
	if err != nil {
		return "", err
	}
	path := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	if content == nil {
		content = []byte{}
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", err
	}
	return key, nil
}

func (s *LocalStore) Get(_ context.Context, runID string, number int, ext string) ([]byte, error) {
	path, err := s.filePath(runID, number, ext)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	return data, err
}

func (s *LocalStore) GetURL(_ context.Context, runID string, number int, ext string) (string, error) {
	// Local artifacts are served by the API itself; the key doubles as the
	// relative URL.
	return ObjectKey(runID, number, ext)
}

func (s *LocalStore) List(_ context.Context, runID string) ([]string, error) {
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return nil, fmt.Errorf("run_id is required")
	}
	dir := filepath.Join(s.root, "artifacts", runID)
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		keys = append(keys, "artifacts/"+runID+"/"+e.Name())
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *LocalStore) DeleteRun(_ context.Context, runID string) error {
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return fmt.Errorf("run_id is required")
	}
	return os.RemoveAll(filepath.Join(s.root, "artifacts", runID))
}
