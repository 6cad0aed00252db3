package api

import (
	"context"
	"time"
)

// EventStatus is the lifecycle state of an ingested event record.
type EventStatus string

const (
	EventPending    EventStatus = "pending"
	EventProcessing EventStatus = "processing"
	EventCompleted  EventStatus = "completed"
	EventFailed     EventStatus = "failed"
)

// EventRecord is the durable dedup/status record kept for every
// externally-delivered event. Records are never deleted by this layer;
// retention is the owner's concern.
type EventRecord struct {
	EventID     int64
	Payload     []byte
	Status      EventStatus
	Error       string
	ProcessedAt *time.Time
	CreatedAt   time.Time
}

// Ledger deduplicates externally-delivered events and tracks their
// processing status across redeliveries.
//
// The ledger is an observability and dedup aid, not the source of truth for
// whether the user-visible side effect happened: the Mark* transitions are
// best-effort, and callers log their failures rather than aborting the
// in-flight request.
type Ledger interface {
	// RecordIfNew attempts to insert a pending record keyed by eventID.
	// It returns (true, nil) if this is the first sighting of the id,
	// (false, nil) if the id was already recorded, and (false, err) for any
	// other storage failure.
	RecordIfNew(ctx context.Context, eventID int64, payload []byte) (bool, error)

	// IsDuplicate is a fast existence check, usable before attempting a
	// full insert to short-circuit obviously repeated deliveries without a
	// write.
	IsDuplicate(ctx context.Context, eventID int64) (bool, error)

	// MarkProcessing transitions the record to processing before dispatch.
	MarkProcessing(ctx context.Context, eventID int64) error

	// MarkCompleted transitions the record to completed and stamps
	// processed_at.
	MarkCompleted(ctx context.Context, eventID int64) error

	// MarkFailed transitions the record to failed, recording cause.
	MarkFailed(ctx context.Context, eventID int64, cause error) error

	// GetEvent looks up a record by event id, mainly for inspection and
	// tests.
	GetEvent(ctx context.Context, eventID int64) (*EventRecord, error)
}
