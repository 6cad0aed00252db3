package api

import "context"

// HandlerFunc processes one deduplicated event end-to-end (typically: run
// the pipeline, persist the result, finish the progress session).
type HandlerFunc func(ctx context.Context, eventID int64, payload []byte) error

// Ingestor turns at-least-once deliveries into exactly-once handler
// dispatches. Whatever the outcome, callers acknowledge the event source.
type Ingestor interface {
	Ingest(ctx context.Context, eventID int64, payload []byte) (IngestOutcome, error)
}

// IngestOutcome says what the ingestor did with a delivery.
type IngestOutcome int

const (
	// IngestProcessed means the event was new and the handler ran.
	IngestProcessed IngestOutcome = iota

	// IngestDuplicate means the event id was already seen; the handler was
	// not dispatched. The source should still be acknowledged.
	IngestDuplicate

	// IngestFailed means the handler ran and failed, or an internal error
	// occurred. The source must STILL be acknowledged: accept-and-drop
	// beats an endless redelivery storm for this class of event source.
	IngestFailed
)

func (o IngestOutcome) String() string {
	switch o {
	case IngestProcessed:
		return "processed"
	case IngestDuplicate:
		return "duplicate"
	case IngestFailed:
		return "failed"
	default:
		return "unknown"
	}
}
