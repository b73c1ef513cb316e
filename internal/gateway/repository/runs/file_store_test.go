package runs

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"evaltrack/internal/gateway/entity"
)

func newTestStore(t *testing.T) (*FileStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "runs.json")
	return NewFileStore(path), path
}

func sampleRun(id string) entity.Run {
	return entity.Run{
		ID:        id,
		Format:    "table",
		TestType:  "iteration-v2",
		Timestamp: time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
		State:     entity.StateCapturing,
		Prompts: []entity.Prompt{
			{Number: 1, Title: "V1", Text: "draft"},
			{Number: 2, Title: "V2", Text: "tighten spacing"},
		},
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	store, path := newTestStore(t)
	ctx := context.Background()

	want := sampleRun("run-1")
	if err := store.Put(ctx, want); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	got, err := store.Get(ctx, "run-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Format != want.Format || got.TestType != want.TestType || got.State != want.State {
		t.Fatalf("Get() = %+v, want %+v", got, want)
	}
	if len(got.Prompts) != 2 || got.Prompts[1].Title != "V2" {
		t.Fatalf("Get() prompts = %+v", got.Prompts)
	}

	// a fresh store instance must read the same document back
	reopened := NewFileStore(path)
	got2, err := reopened.Get(ctx, "run-1")
	if err != nil {
		t.Fatalf("Get() after reopen error = %v", err)
	}
	if !got2.Timestamp.Equal(want.Timestamp) || len(got2.Prompts) != 2 {
		t.Fatalf("reopened Get() = %+v", got2)
	}
}

func TestFileStoreGetMissing(t *testing.T) {
	store, _ := newTestStore(t)
	if _, err := store.Get(context.Background(), "nope"); !errors.Is(err, entity.ErrNotFound) {
		t.Fatalf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestFileStoreUpdateMissing(t *testing.T) {
	store, _ := newTestStore(t)
	_, err := store.Update(context.Background(), "nope", func(*entity.Run) error { return nil })
	if !errors.Is(err, entity.ErrNotFound) {
		t.Fatalf("Update() error = %v, want ErrNotFound", err)
	}
}

func TestFileStoreUpdateClosureErrorSkipsWrite(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	run := sampleRun("run-1")
	if err := store.Put(ctx, run); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	_, err := store.Update(ctx, "run-1", func(r *entity.Run) error {
		r.Format = "mutated"
		return entity.ErrInvalidState
	})
	if !errors.Is(err, entity.ErrInvalidState) {
		t.Fatalf("Update() error = %v, want the closure's error as-is", err)
	}

	got, err := store.Get(ctx, "run-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Format != run.Format {
		t.Fatalf("Format = %q, want %q: aborted update must not persist", got.Format, run.Format)
	}
}

func TestFileStoreUpsertReplaces(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	run := sampleRun("run-1")
	if err := store.Put(ctx, run); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	run.Format = "document"
	if err := store.Put(ctx, run); err != nil {
		t.Fatalf("second Put() error = %v", err)
	}
	all, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("List() returned %d runs after upsert, want 1", len(all))
	}
	if all[0].Format != "document" {
		t.Fatalf("upsert did not replace: format = %q", all[0].Format)
	}
}

func TestFileStoreDelete(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	if err := store.Put(ctx, sampleRun("run-1")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := store.Delete(ctx, "run-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := store.Get(ctx, "run-1"); !errors.Is(err, entity.ErrNotFound) {
		t.Fatalf("Get() after delete error = %v, want ErrNotFound", err)
	}
	if err := store.Delete(ctx, "run-1"); !errors.Is(err, entity.ErrNotFound) {
		t.Fatalf("second Delete() error = %v, want ErrNotFound", err)
	}
}

func TestFileStoreListPending(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	capturing := sampleRun("run-a")
	captured := sampleRun("run-b")
	captured.State = entity.StateCaptured
	scored := sampleRun("run-c")
	scored.State = entity.StateScored
	legacy := sampleRun("run-d")
	legacy.State = entity.StateLegacy

	for _, run := range []entity.Run{capturing, captured, scored, legacy} {
		if err := store.Put(ctx, run); err != nil {
			t.Fatalf("Put(%s) error = %v", run.ID, err)
		}
	}

	gotCaptured, gotCapturing, err := store.ListPending(ctx)
	if err != nil {
		t.Fatalf("ListPending() error = %v", err)
	}
	if len(gotCaptured) != 1 || gotCaptured[0].ID != "run-b" {
		t.Fatalf("captured set = %+v", gotCaptured)
	}
	if len(gotCapturing) != 1 || gotCapturing[0].ID != "run-a" {
		t.Fatalf("capturing set = %+v", gotCapturing)
	}
}
