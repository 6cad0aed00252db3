package api

import (
	"context"
	"time"
)

// RecordStore persists domain records whose per-owner display identifier is
// assigned by the store at insert time, guarded by a uniqueness constraint
// on (owner, display_id).
//
// Because the display id is computed inside the store, two concurrent
// inserts for the same owner can compute the same next value; the loser
// must surface that as ErrDisplayIDCollision (and nothing else as that
// error), so the Inserter can tell a benign race from a real rejection.
type RecordStore interface {
	Insert(ctx context.Context, owner string, payload []byte) (id string, displayID int64, err error)
}

// InsertResult reports a successful optimistic insert.
type InsertResult struct {
	// ID is the record's primary key.
	ID string

	// DisplayID is the per-owner sequential identifier the store assigned.
	DisplayID int64

	// Attempts is how many inserts were tried, including the successful one.
	Attempts int

	// Duration is the total wall time spent, backoff included.
	Duration time.Duration
}

// Inserter persists a record while resolving display id collisions with
// bounded, backed-off retries.
type Inserter interface {
	InsertWithRetry(ctx context.Context, owner string, payload []byte) (InsertResult, error)
}

// BackoffPolicy controls how an Inserter retries display id collisions.
// MaxAttempts includes the first attempt. Initial is the delay before the
// second attempt; each subsequent delay is multiplied by Multiplier and
// capped at Max (no cap if Max <= 0).
type BackoffPolicy struct {
	MaxAttempts int
	Initial     time.Duration
	Max         time.Duration
	Multiplier  float64
}
