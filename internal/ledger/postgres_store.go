package ledger

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/petrijr/tally/pkg/api"
)

// pgUniqueViolation is the PostgreSQL error code for unique_violation.
const pgUniqueViolation = "23505"

// PostgresStore is a Ledger backed by PostgreSQL.
//
// It expects an *sql.DB that uses a PostgreSQL driver surfacing
// *pgconn.PgError, e.g. "github.com/jackc/pgx/v5/stdlib". The caller is
// responsible for importing the driver for its side effects and providing a
// DSN via sql.Open.
type PostgresStore struct {
	db *sql.DB
}

var _ api.Ledger = (*PostgresStore)(nil)

// NewPostgresStore initializes the required schema in the given database
// and returns a new PostgresStore.
func NewPostgresStore(db *sql.DB) (*PostgresStore, error) {
	s := &PostgresStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS ingested_events (
			event_id BIGINT PRIMARY KEY,
			payload BYTEA,
			status TEXT NOT NULL,
			error TEXT,
			processed_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL
		);
	`)
	return err
}

func (s *PostgresStore) RecordIfNew(ctx context.Context, eventID int64, payload []byte) (bool, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ingested_events (event_id, payload, status, created_at)
		VALUES ($1, $2, $3, $4)`,
		eventID,
		payload,
		string(api.EventPending),
		time.Now().UTC(),
	)
	if err != nil {
		if isPostgresUniqueViolation(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *PostgresStore) IsDuplicate(ctx context.Context, eventID int64) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM ingested_events WHERE event_id = $1)`,
		eventID,
	).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (s *PostgresStore) MarkProcessing(ctx context.Context, eventID int64) error {
	return s.transition(ctx, `
		UPDATE ingested_events SET status = $1 WHERE event_id = $2`,
		string(api.EventProcessing), eventID)
}

func (s *PostgresStore) MarkCompleted(ctx context.Context, eventID int64) error {
	return s.transition(ctx, `
		UPDATE ingested_events SET status = $1, processed_at = $2 WHERE event_id = $3`,
		string(api.EventCompleted), time.Now().UTC(), eventID)
}

func (s *PostgresStore) MarkFailed(ctx context.Context, eventID int64, cause error) error {
	detail := ""
	if cause != nil {
		detail = cause.Error()
	}
	return s.transition(ctx, `
		UPDATE ingested_events SET status = $1, error = $2, processed_at = $3 WHERE event_id = $4`,
		string(api.EventFailed), detail, time.Now().UTC(), eventID)
}

func (s *PostgresStore) transition(ctx context.Context, query string, args ...any) error {
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

func (s *PostgresStore) GetEvent(ctx context.Context, eventID int64) (*api.EventRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT event_id, payload, status, error, processed_at, created_at
		FROM ingested_events
		WHERE event_id = $1`,
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

// isPostgresUniqueViolation reports whether err is a unique constraint
// violation surfaced by the pgx driver.
func isPostgresUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
