package runs

import (
	"context"

	"evaltrack/internal/gateway/entity"
	"evaltrack/internal/gateway/storage"
)

// Repository is the data-access port for runs. Both adapters must expose the
// same externally observable semantics for every operation.
type Repository interface {
	List(ctx context.Context) ([]entity.Run, error)
	Get(ctx context.Context, runID string) (entity.Run, error)
	// Put upserts the full run document, prompts included. On the relational
	// backend the run row and its prompt rows are written in one transaction.
	Put(ctx context.Context, run entity.Run) error
	// Update applies fn to the stored run and persists the result. Returns
	// entity.ErrNotFound when the run is absent. An error from fn aborts the
	// update: nothing is written and the error is returned as-is.
	Update(ctx context.Context, runID string, fn func(*entity.Run) error) (entity.Run, error)
	Delete(ctx context.Context, runID string) error
	// ListPending returns the captured set (ready to score) and the capturing
	// set (still in progress), separately.
	ListPending(ctx context.Context) (captured, capturing []entity.Run, err error)
}

// NewStore picks the relational adapter when the gateway is configured, else
// the JSON file adapter rooted at path.
func NewStore(gw *storage.Gateway, path string) Repository {
	if gw.Configured() {
		return NewPostgresStore(gw)
	}
	return NewFileStore(path)
}
