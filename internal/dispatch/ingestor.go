// Package dispatch turns an at-least-once, possibly-concurrent external
// event stream into exactly-once handler dispatches, using the ingestion
// ledger for deduplication and status tracking.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/petrijr/tally/pkg/api"
)

// Ingestor runs the inbound-event algorithm: dedup check, ledger insert,
// status transitions around exactly one handler dispatch per event id.
//
// Callers must acknowledge the event source whatever the outcome —
// accept-and-drop beats reject-and-get-redelivered-forever for webhook-like
// sources. Ledger bookkeeping is best-effort throughout: its failures are
// logged distinctly but never block processing, since the ledger is a
// dedup/observability aid, not the source of truth for side effects.
type Ingestor struct {
	ledger  api.Ledger
	handler api.HandlerFunc
	logger  *slog.Logger
}

// NewIngestor creates an Ingestor dispatching deduplicated events to
// handler. A nil logger defaults to slog.Default().
func NewIngestor(ledger api.Ledger, handler api.HandlerFunc, logger *slog.Logger) *Ingestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingestor{
		ledger:  ledger,
		handler: handler,
		logger:  logger,
	}
}

// Ingest processes one delivery of the given event id.
//
// The returned error carries the handler failure (if any) for the caller's
// logging; it never means "reject the delivery". A duplicate id, whether
// found by the existence check or by losing the insert race to a concurrent
// identical delivery, short-circuits without dispatching the handler.
func (g *Ingestor) Ingest(ctx context.Context, eventID int64, payload []byte) (api.IngestOutcome, error) {
	dup, err := g.ledger.IsDuplicate(ctx, eventID)
	if err != nil {
		// Bookkeeping failure, not a processing failure: log it apart and
		// fall through to the insert attempt.
		g.logger.Warn("ledger_check_failed",
			slog.Int64("event_id", eventID),
			slog.Any("error", err),
		)
	} else if dup {
		g.logger.Debug("event_duplicate",
			slog.Int64("event_id", eventID),
		)
		return api.IngestDuplicate, nil
	}

	fresh, err := g.ledger.RecordIfNew(ctx, eventID, payload)
	if err != nil {
		// Availability over strict bookkeeping: process the event anyway,
		// but keep this failure distinguishable from a processing failure.
		g.logger.Warn("ledger_record_failed",
			slog.Int64("event_id", eventID),
			slog.Any("error", err),
		)
	} else if !fresh {
		// Lost the race to a concurrent identical delivery; the winner
		// dispatches, we must not.
		g.logger.Debug("event_duplicate_race",
			slog.Int64("event_id", eventID),
		)
		return api.IngestDuplicate, nil
	}

	if err := g.ledger.MarkProcessing(ctx, eventID); err != nil {
		g.logger.Warn("ledger_mark_failed",
			slog.Int64("event_id", eventID),
			slog.String("status", string(api.EventProcessing)),
			slog.Any("error", err),
		)
	}

	if herr := g.dispatch(ctx, eventID, payload); herr != nil {
		if err := g.ledger.MarkFailed(ctx, eventID, herr); err != nil {
			g.logger.Warn("ledger_mark_failed",
				slog.Int64("event_id", eventID),
				slog.String("status", string(api.EventFailed)),
				slog.Any("error", err),
			)
		}
		g.logger.Error("event_failed",
			slog.Int64("event_id", eventID),
			slog.Any("error", herr),
		)
		return api.IngestFailed, herr
	}

	if err := g.ledger.MarkCompleted(ctx, eventID); err != nil {
		g.logger.Warn("ledger_mark_failed",
			slog.Int64("event_id", eventID),
			slog.String("status", string(api.EventCompleted)),
			slog.Any("error", err),
		)
	}
	return api.IngestProcessed, nil
}

// dispatch invokes the handler, converting a panic into an error so the
// caller can still acknowledge the source.
func (g *Ingestor) dispatch(ctx context.Context, eventID int64, payload []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return g.handler(ctx, eventID, payload)
}
