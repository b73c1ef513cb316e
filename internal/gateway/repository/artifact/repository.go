package artifact

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Store holds the artifact images runs reference. Keys follow the
// artifacts/{runId}/v{number}.{ext} convention that derived paths elsewhere
// in the system are built from.
type Store interface {
	Put(ctx context.Context, runID string, number int, ext string, content []byte) (string, error)
	Get(ctx context.Context, runID string, number int, ext string) ([]byte, error)
	GetURL(ctx context.Context, runID string, number int, ext string) (string, error)
	List(ctx context.Context, runID string) ([]string, error)
	DeleteRun(ctx context.Context, runID string) error
}

var ErrNotFound = errors.New("artifact not found")

// ObjectKey builds the canonical storage key for one prompt's artifact.
func ObjectKey(runID string, number int, ext string) (string, error) {
	runID = strings.TrimSpace(runID)
	ext = strings.TrimPrefix(strings.TrimSpace(ext), ".")
	if runID == "" {
		return "", fmt.Errorf("run_id is required")
	}
	if number < 1 {
		return "", fmt.Errorf("prompt number must be >= 1, got %d", number)
	}
	if ext == "" {
		ext = "png"
	}
	return fmt.Sprintf("artifacts/%s/v%d.%s", runID, number, ext), nil
}
