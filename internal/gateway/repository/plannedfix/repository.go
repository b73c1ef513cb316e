package plannedfix

import (
	"context"

	"evaltrack/internal/gateway/entity"
	"evaltrack/internal/gateway/storage"
)

// Repository is the data-access port for planned fixes.
type Repository interface {
	List(ctx context.Context) ([]entity.PlannedFix, error)
	Get(ctx context.Context, id string) (entity.PlannedFix, error)
	Upsert(ctx context.Context, fix entity.PlannedFix) (entity.PlannedFix, error)
	Delete(ctx context.Context, id string) error
}

func NewStore(gw *storage.Gateway, path string) Repository {
	if gw.Configured() {
		return NewPostgresStore(gw)
	}
	return NewFileStore(path)
}
