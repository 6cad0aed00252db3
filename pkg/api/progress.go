package api

import "context"

// MessageRef locates a live status message in the chat transport.
type MessageRef struct {
	ChatID    int64
	MessageID int64
}

// Editor is the outbound message-edit capability the progress session
// depends on. Both calls are fallible; the session treats failures as
// cosmetic and never propagates them.
type Editor interface {
	EditText(ctx context.Context, ref MessageRef, text string) error
	Delete(ctx context.Context, ref MessageRef) error
}

// Stage is the user-facing text for one phase of a run, e.g.
// "Listening to your voice note…".
type Stage string

// StageMap maps pipeline step names to the stage text shown while the step
// runs. Steps absent from the map produce no visible transition.
type StageMap map[string]Stage

// ProgressPolicy selects what a session does with a stage update requested
// while another edit is already in flight.
type ProgressPolicy int

const (
	// DropWhileBusy discards updates requested while an edit is in flight.
	// Under load the display skips intermediate stages; only the final
	// state matters to the user.
	DropWhileBusy ProgressPolicy = iota

	// CoalesceLatest keeps a single pending slot, replacing it on every
	// request; the goroutine finishing the in-flight edit drains it. The
	// display still skips stages, but always catches up to the newest one.
	CoalesceLatest
)

// Reporter manages one outbound status message for one in-flight request.
type Reporter interface {
	// Update moves the visible message to stage's text. It no-ops when the
	// session is terminal, the stage is already displayed, or (under
	// DropWhileBusy) another edit is in flight.
	Update(ctx context.Context, stage Stage) error

	// Emit is the non-blocking fire-and-forget form of Update; it swallows
	// and logs all errors.
	Emit(stage Stage)

	// Complete marks the session terminal. An edit already in flight may
	// finish, but no update requested after Complete is honored.
	Complete()

	// Fail marks the session terminal and deletes the status message
	// instead of leaving it mid-progress.
	Fail(ctx context.Context) error

	// Active reports whether the session is still accepting updates.
	Active() bool
}
