package ledger

import (
	"context"
	"database/sql"
	"errors"
	"time"

	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/petrijr/tally/pkg/api"
)

// SQLiteStore is a Ledger backed by SQLite.
//
// It expects an *sql.DB that uses a SQLite driver (for example,
// "modernc.org/sqlite"). The caller is responsible for importing the driver,
// e.g.:
//
//	import _ "modernc.org/sqlite"
type SQLiteStore struct {
	db *sql.DB
}

var _ api.Ledger = (*SQLiteStore)(nil)

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
		CREATE TABLE IF NOT EXISTS ingested_events (
			event_id INTEGER PRIMARY KEY,
			payload BLOB,
			status TEXT NOT NULL,
			error TEXT,
			processed_at TIMESTAMP,
			created_at TIMESTAMP NOT NULL
		);`,
	)
	return err
}

func (s *SQLiteStore) RecordIfNew(ctx context.Context, eventID int64, payload []byte) (bool, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ingested_events (event_id, payload, status, created_at)
		VALUES (?, ?, ?, ?)`,
		eventID,
		payload,
		string(api.EventPending),
		time.Now().UTC(),
	)
	if err != nil {
		if isSQLiteUniqueViolation(err) {
			// Already seen: not an error, just the dedup short-circuit.
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *SQLiteStore) IsDuplicate(ctx context.Context, eventID int64) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM ingested_events WHERE event_id = ?)`,
		eventID,
	).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (s *SQLiteStore) MarkProcessing(ctx context.Context, eventID int64) error {
	return s.transition(ctx, eventID, `
		UPDATE ingested_events SET status = ? WHERE event_id = ?`,
		string(api.EventProcessing), eventID)
}

func (s *SQLiteStore) MarkCompleted(ctx context.Context, eventID int64) error {
	return s.transition(ctx, eventID, `
		UPDATE ingested_events SET status = ?, processed_at = ? WHERE event_id = ?`,
		string(api.EventCompleted), time.Now().UTC(), eventID)
}

func (s *SQLiteStore) MarkFailed(ctx context.Context, eventID int64, cause error) error {
	detail := ""
	if cause != nil {
		detail = cause.Error()
	}
	return s.transition(ctx, eventID, `
		UPDATE ingested_events SET status = ?, error = ?, processed_at = ? WHERE event_id = ?`,
		string(api.EventFailed), detail, time.Now().UTC(), eventID)
}

func (s *SQLiteStore) transition(ctx context.Context, eventID int64, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrEventNotFound
	}
	return nil
}

func (s *SQLiteStore) GetEvent(ctx context.Context, eventID int64) (*api.EventRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT event_id, payload, status, error, processed_at, created_at
		FROM ingested_events
		WHERE event_id = ?`,
		eventID,
	)

	var rec api.EventRecord
	var statusStr string
	var errStr sql.NullString
	var processedAt sql.NullTime

	if err := row.Scan(&rec.EventID, &rec.Payload, &statusStr, &errStr, &processedAt, &rec.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}

	rec.Status = api.EventStatus(statusStr)
	if errStr.Valid {
		rec.Error = errStr.String
	}
	if processedAt.Valid {
		ts := processedAt.Time
		rec.ProcessedAt = &ts
	}
	return &rec, nil
}

// isSQLiteUniqueViolation reports whether err is a primary key / unique
// constraint violation from the modernc SQLite driver.
func isSQLiteUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
		return true
	}
	return false
}
