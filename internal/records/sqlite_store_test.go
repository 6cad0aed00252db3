package records

import (
	"context"
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"
)

func newTestSQLiteStore(t *testing.T) (*SQLiteStore, *sql.DB) {
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

	return store, db
}

func TestSQLiteStore_AssignsSequentialDisplayIDs(t *testing.T) {
	store, _ := newTestSQLiteStore(t)
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		id, displayID, err := store.Insert(ctx, "u1", []byte("groceries"))
		if err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
		if id == "" {
			t.Fatal("expected a record id")
		}
		if displayID != want {
			t.Fatalf("expected display id %d, got %d", want, displayID)
		}
	}
}

func TestSQLiteStore_DisplayIDsArePerOwner(t *testing.T) {
	store, _ := newTestSQLiteStore(t)
	ctx := context.Background()

	if _, displayID, err := store.Insert(ctx, "u1", nil); err != nil || displayID != 1 {
		t.Fatalf("u1 first insert: id=%d err=%v", displayID, err)
	}
	if _, displayID, err := store.Insert(ctx, "u1", nil); err != nil || displayID != 2 {
		t.Fatalf("u1 second insert: id=%d err=%v", displayID, err)
	}
	// A different owner starts its own sequence.
	if _, displayID, err := store.Insert(ctx, "u2", nil); err != nil || displayID != 1 {
		t.Fatalf("u2 first insert: id=%d err=%v", displayID, err)
	}
}

func TestIsDisplayIDConflict_Classification(t *testing.T) {
	_, db := newTestSQLiteStore(t)

	mustExec := func(query string, args ...any) error {
		_, err := db.Exec(query, args...)
		return err
	}

	if err := mustExec(`
		INSERT INTO records (id, owner, display_id, payload, created_at)
		VALUES ('a', 'u1', 1, NULL, '2026-01-01')`); err != nil {
		t.Fatalf("seed insert failed: %v", err)
	}

	// Same (owner, display_id): the benign race this package retries.
	err := mustExec(`
		INSERT INTO records (id, owner, display_id, payload, created_at)
		VALUES ('b', 'u1', 1, NULL, '2026-01-01')`)
	if err == nil {
		t.Fatal("expected unique violation")
	}
	if !isDisplayIDConflict(err) {
		t.Fatalf("expected display id conflict classification, got %v", err)
	}

	// Same primary key: a unique violation too, but NOT the display id
	// constraint; it must stay fatal.
	err = mustExec(`
		INSERT INTO records (id, owner, display_id, payload, created_at)
		VALUES ('a', 'u9', 42, NULL, '2026-01-01')`)
	if err == nil {
		t.Fatal("expected primary key violation")
	}
	if isDisplayIDConflict(err) {
		t.Fatalf("primary key violation must not classify as display id conflict: %v", err)
	}

	if isDisplayIDConflict(nil) {
		t.Fatal("nil must not classify")
	}
}
