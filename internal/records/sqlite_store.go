package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/petrijr/tally/pkg/api"
)

// SQLiteStore is a RecordStore backed by SQLite.
//
// The display identifier is assigned inside the INSERT itself (MAX+1 over
// the owner's existing rows) and guarded by UNIQUE(owner, display_id), so
// two concurrent inserts for the same owner can compute the same value; the
// loser surfaces api.ErrDisplayIDCollision.
type SQLiteStore struct {
	db *sql.DB
}

var _ api.RecordStore = (*SQLiteStore)(nil)

// NewSQLiteStore initializes the required schema in the given database and
// returns a new SQLiteStore.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS records (
			id TEXT PRIMARY KEY,
			owner TEXT NOT NULL,
			display_id INTEGER NOT NULL,
			payload BLOB,
			created_at TIMESTAMP NOT NULL,
			UNIQUE (owner, display_id)
		);`,
	)
	return err
}

func (s *SQLiteStore) Insert(ctx context.Context, owner string, payload []byte) (string, int64, error) {
	id := uuid.NewString()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO records (id, owner, display_id, payload, created_at)
		VALUES (?, ?, (SELECT COALESCE(MAX(display_id), 0) + 1 FROM records WHERE owner = ?), ?, ?)`,
		id,
		owner,
		owner,
		payload,
		time.Now().UTC(),
	)
	if err != nil {
		if isDisplayIDConflict(err) {
			return "", 0, fmt.Errorf("insert record for owner %q: %w", owner, api.ErrDisplayIDCollision)
		}
		return "", 0, err
	}

	var displayID int64
	if err := s.db.QueryRowContext(ctx, `
		SELECT display_id FROM records WHERE id = ?`, id,
	).Scan(&displayID); err != nil {
		return "", 0, err
	}
	return id, displayID, nil
}

// isDisplayIDConflict reports whether err is a violation of specifically
// the (owner, display_id) uniqueness constraint. Other constraint failures
// stay fatal.
func isDisplayIDConflict(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	if se.Code() != sqlite3.SQLITE_CONSTRAINT_UNIQUE {
		return false
	}
	return strings.Contains(err.Error(), "records.owner, records.display_id")
}
