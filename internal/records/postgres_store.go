package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/petrijr/tally/pkg/api"
)

const (
	pgUniqueViolation   = "23505"
	displayIDConstraint = "records_owner_display_id_key"
)

// PostgresStore is a RecordStore backed by PostgreSQL.
//
// It expects an *sql.DB using a driver that surfaces *pgconn.PgError, e.g.
// "github.com/jackc/pgx/v5/stdlib".
type PostgresStore struct {
	db *sql.DB
}

var _ api.RecordStore = (*PostgresStore)(nil)

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
		CREATE TABLE IF NOT EXISTS records (
			id TEXT PRIMARY KEY,
			owner TEXT NOT NULL,
			display_id BIGINT NOT NULL,
			payload BYTEA,
			created_at TIMESTAMPTZ NOT NULL,
			CONSTRAINT records_owner_display_id_key UNIQUE (owner, display_id)
		);
	`)
	return err
}

func (s *PostgresStore) Insert(ctx context.Context, owner string, payload []byte) (string, int64, error) {
	id := uuid.NewString()

	var displayID int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO records (id, owner, display_id, payload, created_at)
		VALUES ($1, $2, (SELECT COALESCE(MAX(display_id), 0) + 1 FROM records WHERE owner = $2), $3, $4)
		RETURNING display_id`,
		id,
		owner,
		payload,
		time.Now().UTC(),
	).Scan(&displayID)
	if err != nil {
		if isDisplayIDConflictPG(err) {
			return "", 0, fmt.Errorf("insert record for owner %q: %w", owner, api.ErrDisplayIDCollision)
		}
		return "", 0, err
	}
	return id, displayID, nil
}

// isDisplayIDConflictPG matches a unique violation against specifically the
// (owner, display_id) constraint; any other rejection stays fatal.
func isDisplayIDConflictPG(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == pgUniqueViolation && pgErr.ConstraintName == displayIDConstraint
}
