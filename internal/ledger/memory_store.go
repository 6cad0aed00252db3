package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/petrijr/tally/pkg/api"
)

// MemoryStore is a goroutine-safe in-memory Ledger backed by a map.
// It is intended for tests and local development; durability comes from the
// SQLite and Postgres stores.
type MemoryStore struct {
	mu     sync.Mutex
	events map[int64]*api.EventRecord
}

var _ api.Ledger = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		events: make(map[int64]*api.EventRecord),
	}
}

func (s *MemoryStore) RecordIfNew(ctx context.Context, eventID int64, payload []byte) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.events[eventID]; exists {
		return false, nil
	}
	s.events[eventID] = &api.EventRecord{
		EventID:   eventID,
		Payload:   payload,
		Status:    api.EventPending,
		CreatedAt: time.Now().UTC(),
	}
	return true, nil
}

func (s *MemoryStore) IsDuplicate(ctx context.Context, eventID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, exists := s.events[eventID]
	return exists, nil
}

func (s *MemoryStore) MarkProcessing(ctx context.Context, eventID int64) error {
	return s.transition(eventID, api.EventProcessing, "", false)
}

func (s *MemoryStore) MarkCompleted(ctx context.Context, eventID int64) error {
	return s.transition(eventID, api.EventCompleted, "", true)
}

func (s *MemoryStore) MarkFailed(ctx context.Context, eventID int64, cause error) error {
	detail := ""
	if cause != nil {
		detail = cause.Error()
	}
	return s.transition(eventID, api.EventFailed, detail, true)
}

func (s *MemoryStore) transition(eventID int64, status api.EventStatus, detail string, stamp bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, exists := s.events[eventID]
	if !exists {
		return ErrEventNotFound
	}
	rec.Status = status
	rec.Error = detail
	if stamp {
		now := time.Now().UTC()
		rec.ProcessedAt = &now
	}
	return nil
}

func (s *MemoryStore) GetEvent(ctx context.Context, eventID int64) (*api.EventRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, exists := s.events[eventID]
	if !exists {
		return nil, ErrEventNotFound
	}
	// Copy so callers cannot mutate stored state.
	cp := *rec
	if rec.ProcessedAt != nil {
		ts := *rec.ProcessedAt
		cp.ProcessedAt = &ts
	}
	return &cp, nil
}
