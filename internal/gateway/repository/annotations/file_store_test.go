package annotations

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"evaltrack/internal/gateway/entity"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	return NewFileStore(filepath.Join(t.TempDir(), "annotations.json"))
}

func sampleAnnotation() entity.Annotation {
	return entity.Annotation{
		RunID:     "run-1",
		MessageID: 1,
		Author:    entity.AuthorTester,
		IssueType: entity.IssueLayout,
		Severity:  entity.SeverityHigh,
		Note:      "title overlaps the header",
	}
}

func TestUpsertInsertGeneratesID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	stored, err := store.Upsert(ctx, sampleAnnotation())
	require.NoError(t, err)
	require.NotEmpty(t, stored.ID)
	require.False(t, stored.CreatedAt.IsZero())
	require.Equal(t, stored.CreatedAt, stored.UpdatedAt)

	all, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
}

func TestUpsertWithExistingIDUpdatesInPlace(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first, err := store.Upsert(ctx, sampleAnnotation())
	require.NoError(t, err)

	fix := "fix-1"
	update := sampleAnnotation()
	update.ID = first.ID
	update.Severity = entity.SeverityLow
	update.PlannedFixID = &fix
	update.Owner = "dana"

	second, err := store.Upsert(ctx, update)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, entity.SeverityLow, second.Severity)
	require.Equal(t, first.CreatedAt, second.CreatedAt)

	all, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1, "upsert with existing id must never duplicate")
}

func TestUpsertOverwritesAbsentOptionalFields(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	fix := "fix-1"
	initial := sampleAnnotation()
	initial.PlannedFixID = &fix
	initial.Owner = "dana"
	first, err := store.Upsert(ctx, initial)
	require.NoError(t, err)

	// resubmit without the optional fields: they are explicit nulls, not
	// "leave unchanged"
	update := sampleAnnotation()
	update.ID = first.ID
	second, err := store.Upsert(ctx, update)
	require.NoError(t, err)
	require.Nil(t, second.PlannedFixID)
	require.Empty(t, second.Owner)
}

func TestDeleteByRun(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	a := sampleAnnotation()
	_, err := store.Upsert(ctx, a)
	require.NoError(t, err)
	b := sampleAnnotation()
	b.MessageID = 2
	_, err = store.Upsert(ctx, b)
	require.NoError(t, err)
	other := sampleAnnotation()
	other.RunID = "run-2"
	kept, err := store.Upsert(ctx, other)
	require.NoError(t, err)

	require.NoError(t, store.DeleteByRun(ctx, "run-1"))

	all, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Equal(t, kept.ID, all[0].ID)

	// deleting annotations for an unknown run is a no-op, not an error
	require.NoError(t, store.DeleteByRun(ctx, "run-9"))
}

func TestDeleteByRunMessage(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Upsert(ctx, sampleAnnotation())
	require.NoError(t, err)
	other := sampleAnnotation()
	other.MessageID = 2
	_, err = store.Upsert(ctx, other)
	require.NoError(t, err)

	require.NoError(t, store.DeleteByRunMessage(ctx, "run-1", 1))

	remaining, err := store.ListByRun(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	require.Equal(t, 2, remaining[0].MessageID)

	err = store.DeleteByRunMessage(ctx, "run-1", 7)
	require.ErrorIs(t, err, entity.ErrNotFound)
}

func TestClearPlannedFix(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	fix := "fix-1"
	linked := sampleAnnotation()
	linked.PlannedFixID = &fix
	stored, err := store.Upsert(ctx, linked)
	require.NoError(t, err)

	require.NoError(t, store.ClearPlannedFix(ctx, "fix-1"))

	got, err := store.Get(ctx, stored.ID)
	require.NoError(t, err)
	require.Nil(t, got.PlannedFixID, "fix link must be cleared")
	require.Equal(t, stored.Note, got.Note, "annotation itself must survive")
}

func TestListFilters(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, a := range []entity.Annotation{
		{RunID: "run-1", MessageID: 1, Author: entity.AuthorTester, IssueType: entity.IssueStyle, Severity: entity.SeverityLow},
		{RunID: "run-1", MessageID: 2, Author: entity.AuthorTester, IssueType: entity.IssueStyle, Severity: entity.SeverityLow},
		{RunID: "run-2", MessageID: 1, Author: entity.AuthorTester, IssueType: entity.IssueStyle, Severity: entity.SeverityLow},
	} {
		_, err := store.Upsert(ctx, a)
		require.NoError(t, err)
	}

	byRun, err := store.ListByRun(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, byRun, 2)

	byMessage, err := store.ListByRunMessage(ctx, "run-1", 2)
	require.NoError(t, err)
	require.Len(t, byMessage, 1)
	require.Equal(t, 2, byMessage[0].MessageID)
}

func TestGetMissing(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Get(context.Background(), "nope")
	if !errors.Is(err, entity.ErrNotFound) {
		t.Fatalf("Get() error = %v, want ErrNotFound", err)
	}
}
