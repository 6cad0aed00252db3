// Package progress manages the single live status message shown to a user
// while their request is in flight, serializing edits so they never tear
// and never outlive the request.
package progress

import (
	"context"
	"log/slog"
	"sync"

	"github.com/petrijr/tally/pkg/api"
)

// Session owns one outbound status message. At most one edit is in flight
// at any time (a per-session exclusion, not a global one); what happens to
// updates requested meanwhile is decided by the configured policy.
//
// All flags (busy, terminal, current stage, pending slot) are guarded by
// one mutex, so an update requested after Complete or Fail can never start
// an edit: the terminal check and the busy acquisition happen under the
// same lock.
type Session struct {
	editor api.Editor
	ref    api.MessageRef
	policy api.ProgressPolicy
	logger *slog.Logger

	mu       sync.Mutex
	busy     bool
	terminal bool
	hasStage bool
	current  api.Stage
	pending  *api.Stage // CoalesceLatest only
}

// Options configures a Session.
type Options struct {
	Policy api.ProgressPolicy
	Logger *slog.Logger
}

var _ api.Reporter = (*Session)(nil)

// NewSession creates a Session editing the message at ref through editor.
func NewSession(editor api.Editor, ref api.MessageRef, opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		editor: editor,
		ref:    ref,
		policy: opts.Policy,
		logger: logger,
	}
}

// Update idempotently moves the visible message to stage's text.
//
// It no-ops when the session is terminal or the stage is already displayed.
// When another edit is in flight, DropWhileBusy discards the request and
// CoalesceLatest parks it in the single pending slot (replacing whatever
// was parked before); the goroutine finishing the in-flight edit drains the
// slot.
func (s *Session) Update(ctx context.Context, stage api.Stage) error {
	s.mu.Lock()
	if s.terminal {
		s.mu.Unlock()
		return nil
	}
	if s.hasStage && s.current == stage {
		s.mu.Unlock()
		return nil
	}
	if s.busy {
		if s.policy == api.CoalesceLatest {
			st := stage
			s.pending = &st
		}
		s.mu.Unlock()
		return nil
	}
	s.busy = true
	s.mu.Unlock()

	return s.editLoop(ctx, stage)
}

// editLoop performs the edit for stage and, under CoalesceLatest, keeps
// draining the pending slot until it is empty or the session turned
// terminal. The returned error is the first edit failure, kept only for
// callers that want to log it; progress is cosmetic and never retried.
func (s *Session) editLoop(ctx context.Context, stage api.Stage) error {
	var firstErr error

	for {
		err := s.editor.EditText(ctx, s.ref, string(stage))
		if err != nil {
			s.logger.Debug("progress_edit_failed",
				slog.Int64("chat_id", s.ref.ChatID),
				slog.Int64("message_id", s.ref.MessageID),
				slog.Any("error", err),
			)
			if firstErr == nil {
				firstErr = err
			}
		}

		s.mu.Lock()
		if err == nil {
			s.current = stage
			s.hasStage = true
		}

		if s.terminal || s.pending == nil {
			s.busy = false
			s.pending = nil
			s.mu.Unlock()
			return firstErr
		}

		next := *s.pending
		s.pending = nil
		if s.hasStage && s.current == next {
			s.busy = false
			s.mu.Unlock()
			return firstErr
		}
		s.mu.Unlock()

		stage = next
	}
}

// Emit is the fire-and-forget form of Update: it returns immediately and
// swallows all errors. A failed or slow edit must never surface to or block
// the pipeline.
func (s *Session) Emit(stage api.Stage) {
	go func() {
		_ = s.Update(context.Background(), stage)
	}()
}

// Complete marks the session terminal. An edit already in flight is allowed
// to finish; no update requested afterwards is honored.
func (s *Session) Complete() {
	s.mu.Lock()
	s.terminal = true
	s.pending = nil
	s.mu.Unlock()
}

// Fail marks the session terminal and deletes the status message, so the
// user is not left staring at a frozen progress indicator. The delete is
// best-effort.
func (s *Session) Fail(ctx context.Context) error {
	s.mu.Lock()
	wasTerminal := s.terminal
	s.terminal = true
	s.pending = nil
	s.mu.Unlock()

	if wasTerminal {
		return nil
	}

	if err := s.editor.Delete(ctx, s.ref); err != nil {
		s.logger.Debug("progress_delete_failed",
			slog.Int64("chat_id", s.ref.ChatID),
			slog.Int64("message_id", s.ref.MessageID),
			slog.Any("error", err),
		)
		return err
	}
	return nil
}

// Active reports whether the session still accepts updates.
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.terminal
}
