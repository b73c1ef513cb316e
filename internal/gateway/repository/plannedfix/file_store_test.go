package plannedfix

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"evaltrack/internal/gateway/entity"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	return NewFileStore(filepath.Join(t.TempDir(), "planned_fixes.json"))
}

func TestUpsertInsert(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	fix, err := store.Upsert(ctx, entity.PlannedFix{Name: "tighten header spacing", Owner: "dana"})
	require.NoError(t, err)
	require.NotEmpty(t, fix.ID)
	require.False(t, fix.CreatedAt.IsZero())

	got, err := store.Get(ctx, fix.ID)
	require.NoError(t, err)
	require.Equal(t, "tighten header spacing", got.Name)
}

func TestUpsertRequiresName(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Upsert(context.Background(), entity.PlannedFix{Name: "   "})
	require.Error(t, err)
}

func TestUpsertUpdateKeepsCreatedAt(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first, err := store.Upsert(ctx, entity.PlannedFix{Name: "fix contrast"})
	require.NoError(t, err)

	update := first
	update.Resolved = true
	update.JiraTicket = "EVAL-42"
	second, err := store.Upsert(ctx, update)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, first.CreatedAt, second.CreatedAt)
	require.True(t, second.Resolved)

	all, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
}

func TestDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	fix, err := store.Upsert(ctx, entity.PlannedFix{Name: "fix truncation"})
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, fix.ID))
	_, err = store.Get(ctx, fix.ID)
	require.ErrorIs(t, err, entity.ErrNotFound)
	require.ErrorIs(t, store.Delete(ctx, fix.ID), entity.ErrNotFound)
}

func TestPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "planned_fixes.json")
	ctx := context.Background()

	first := NewFileStore(path)
	fix, err := first.Upsert(ctx, entity.PlannedFix{Name: "regression sweep"})
	require.NoError(t, err)

	reopened := NewFileStore(path)
	got, err := reopened.Get(ctx, fix.ID)
	require.NoError(t, err)
	require.Equal(t, fix.Name, got.Name)
}
