package annotations

import (
	"context"

	"evaltrack/internal/gateway/entity"
	"evaltrack/internal/gateway/storage"
)

// Repository is the data-access port for annotations. The cascade helpers
// (DeleteByRun, ClearPlannedFix) exist so the coordinating layer can apply
// referential-integrity rules identically on both backends.
type Repository interface {
	List(ctx context.Context) ([]entity.Annotation, error)
	ListByRun(ctx context.Context, runID string) ([]entity.Annotation, error)
	ListByRunMessage(ctx context.Context, runID string, messageID int) ([]entity.Annotation, error)
	Get(ctx context.Context, id string) (entity.Annotation, error)
	// Upsert updates in place when the supplied id matches an existing row,
	// overwriting optional fields even when absent; otherwise it inserts with
	// a fresh id. The stored row is returned.
	Upsert(ctx context.Context, a entity.Annotation) (entity.Annotation, error)
	Delete(ctx context.Context, id string) error
	// DeleteByRunMessage removes every annotation for (runID, messageID).
	// Kept for legacy callers that predate annotation ids.
	DeleteByRunMessage(ctx context.Context, runID string, messageID int) error
	// DeleteByRun removes all annotations owned by runID (run delete cascade).
	DeleteByRun(ctx context.Context, runID string) error
	// ClearPlannedFix nulls the fix link on every annotation referencing
	// fixID. The annotations themselves survive.
	ClearPlannedFix(ctx context.Context, fixID string) error
}

func NewStore(gw *storage.Gateway, path string) Repository {
	if gw.Configured() {
		return NewPostgresStore(gw)
	}
	return NewFileStore(path)
}
