package ledger

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/petrijr/tally/pkg/api"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("sql.Open failed: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Close()
	})

	store, err := NewSQLiteStore(db)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}

	return store
}

func TestSQLiteStore_RecordIfNewDedupes(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	fresh, err := store.RecordIfNew(ctx, 101, []byte(`{"text":"lunch 12"}`))
	if err != nil {
		t.Fatalf("RecordIfNew failed: %v", err)
	}
	if !fresh {
		t.Fatal("first insert must report fresh")
	}

	// A second insert for the same id hits the primary key; that is the
	// dedup short-circuit, not an error.
	fresh, err = store.RecordIfNew(ctx, 101, []byte(`{"text":"lunch 12"}`))
	if err != nil {
		t.Fatalf("duplicate insert must not error: %v", err)
	}
	if fresh {
		t.Fatal("duplicate insert must not report fresh")
	}

	rec, err := store.GetEvent(ctx, 101)
	if err != nil {
		t.Fatalf("GetEvent failed: %v", err)
	}
	if rec.Status != api.EventPending {
		t.Fatalf("expected pending, got %s", rec.Status)
	}
	if string(rec.Payload) != `{"text":"lunch 12"}` {
		t.Fatalf("unexpected payload: %s", rec.Payload)
	}
}

func TestSQLiteStore_IsDuplicate(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	dup, err := store.IsDuplicate(ctx, 5)
	if err != nil {
		t.Fatalf("IsDuplicate failed: %v", err)
	}
	if dup {
		t.Fatal("unseen id reported duplicate")
	}

	if _, err := store.RecordIfNew(ctx, 5, nil); err != nil {
		t.Fatalf("RecordIfNew failed: %v", err)
	}

	dup, err = store.IsDuplicate(ctx, 5)
	if err != nil {
		t.Fatalf("IsDuplicate failed: %v", err)
	}
	if !dup {
		t.Fatal("seen id not reported duplicate")
	}
}

func TestSQLiteStore_Lifecycle(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	if _, err := store.RecordIfNew(ctx, 1, nil); err != nil {
		t.Fatalf("RecordIfNew failed: %v", err)
	}

	if err := store.MarkProcessing(ctx, 1); err != nil {
		t.Fatalf("MarkProcessing failed: %v", err)
	}
	rec, err := store.GetEvent(ctx, 1)
	if err != nil {
		t.Fatalf("GetEvent failed: %v", err)
	}
	if rec.Status != api.EventProcessing {
		t.Fatalf("expected processing, got %s", rec.Status)
	}

	if err := store.MarkFailed(ctx, 1, errors.New("transcription timeout")); err != nil {
		t.Fatalf("MarkFailed failed: %v", err)
	}
	rec, err = store.GetEvent(ctx, 1)
	if err != nil {
		t.Fatalf("GetEvent failed: %v", err)
	}
	if rec.Status != api.EventFailed {
		t.Fatalf("expected failed, got %s", rec.Status)
	}
	if rec.Error != "transcription timeout" {
		t.Fatalf("unexpected error detail: %q", rec.Error)
	}
	if rec.ProcessedAt == nil {
		t.Fatal("failed must stamp processed_at")
	}
}

func TestSQLiteStore_MarkUnknownEvent(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	if err := store.MarkCompleted(ctx, 404); !errors.Is(err, ErrEventNotFound) {
		t.Fatalf("expected ErrEventNotFound, got %v", err)
	}
	if _, err := store.GetEvent(ctx, 404); !errors.Is(err, ErrEventNotFound) {
		t.Fatalf("expected ErrEventNotFound, got %v", err)
	}
}
