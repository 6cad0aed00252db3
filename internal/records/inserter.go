// Package records persists domain records whose per-owner sequential
// display identifier is assigned by the store at insert time, and resolves
// the resulting collisions under concurrent writers.
package records

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/petrijr/tally/pkg/api"
)

// DefaultBackoff is the policy used when the caller supplies a zero-valued
// one: up to 7 attempts, delays 100ms, 200ms, 400ms, ... capped at 2s.
var DefaultBackoff = api.BackoffPolicy{
	MaxAttempts: 7,
	Initial:     100 * time.Millisecond,
	Max:         2 * time.Second,
	Multiplier:  2.0,
}

// Inserter retries RecordStore inserts that lose the per-owner display id
// race. Only api.ErrDisplayIDCollision is retried; any other store error is
// fatal immediately, since retrying a non-collision error risks masking a
// real defect or duplicating a write.
type Inserter struct {
	store  api.RecordStore
	policy api.BackoffPolicy
	logger *slog.Logger
}

// NewInserter creates an Inserter over store. Zero policy fields fall back
// to DefaultBackoff; a nil logger defaults to slog.Default().
func NewInserter(store api.RecordStore, policy api.BackoffPolicy, logger *slog.Logger) *Inserter {
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = DefaultBackoff.MaxAttempts
	}
	if policy.Initial <= 0 {
		policy.Initial = DefaultBackoff.Initial
	}
	if policy.Max <= 0 {
		policy.Max = DefaultBackoff.Max
	}
	if policy.Multiplier <= 0 {
		policy.Multiplier = DefaultBackoff.Multiplier
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Inserter{store: store, policy: policy, logger: logger}
}

// InsertWithRetry attempts the insert, backing off and retrying on display
// id collisions until it succeeds, the attempts are exhausted, or the
// context is cancelled. Exhaustion returns a *api.ContentionError,
// distinguishable from the store rejecting the write.
func (i *Inserter) InsertWithRetry(ctx context.Context, owner string, payload []byte) (api.InsertResult, error) {
	start := time.Now()
	backoff := i.policy.Initial

	for attempt := 1; ; attempt++ {
		id, displayID, err := i.store.Insert(ctx, owner, payload)
		if err == nil {
			return api.InsertResult{
				ID:        id,
				DisplayID: displayID,
				Attempts:  attempt,
				Duration:  time.Since(start),
			}, nil
		}

		if !errors.Is(err, api.ErrDisplayIDCollision) {
			return api.InsertResult{}, err
		}

		i.logger.Debug("display_id_collision",
			slog.String("owner", owner),
			slog.Int("attempt", attempt),
		)

		if attempt == i.policy.MaxAttempts {
			return api.InsertResult{}, &api.ContentionError{Owner: owner, Attempts: attempt}
		}

		delay := backoff
		if i.policy.Max > 0 && delay > i.policy.Max {
			delay = i.policy.Max
		}

		select {
		case <-ctx.Done():
			return api.InsertResult{}, ctx.Err()
		case <-time.After(delay):
		}

		next := time.Duration(float64(backoff) * i.policy.Multiplier)
		if i.policy.Max > 0 && next > i.policy.Max {
			backoff = i.policy.Max
		} else {
			backoff = next
		}
	}
}
