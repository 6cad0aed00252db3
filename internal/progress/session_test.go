package progress

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/petrijr/tally/pkg/api"
)

// fakeEditor records edits and deletes; an optional gate blocks EditText
// until released so tests can hold an edit in flight.
type fakeEditor struct {
	mu      sync.Mutex
	edits   []string
	deletes int
	failAll bool

	gate chan struct{} // nil means edits complete immediately
}

func (e *fakeEditor) EditText(ctx context.Context, ref api.MessageRef, text string) error {
	if e.gate != nil {
		<-e.gate
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.failAll {
		return errors.New("message to edit not found")
	}
	e.edits = append(e.edits, text)
	return nil
}

func (e *fakeEditor) Delete(ctx context.Context, ref api.MessageRef) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.failAll {
		return errors.New("message to delete not found")
	}
	e.deletes++
	return nil
}

func (e *fakeEditor) snapshot() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.edits...)
}

func (e *fakeEditor) deleteCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.deletes
}

var testRef = api.MessageRef{ChatID: 42, MessageID: 7}

func TestUpdate_EditsAndDedupesStage(t *testing.T) {
	ed := &fakeEditor{}
	s := NewSession(ed, testRef, Options{})
	ctx := context.Background()

	if err := s.Update(ctx, "Thinking…"); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	// Same stage again: idempotent, no second edit.
	if err := s.Update(ctx, "Thinking…"); err != nil {
		t.Fatalf("repeat update failed: %v", err)
	}
	if err := s.Update(ctx, "Saving…"); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	got := ed.snapshot()
	if len(got) != 2 || got[0] != "Thinking…" || got[1] != "Saving…" {
		t.Fatalf("unexpected edits: %v", got)
	}
}

func TestUpdate_DropWhileBusyDropsConcurrentRequests(t *testing.T) {
	ed := &fakeEditor{gate: make(chan struct{})}
	s := NewSession(ed, testRef, Options{Policy: api.DropWhileBusy})
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		done <- s.Update(ctx, "stage-1")
	}()

	waitBusy(t, s)

	// Requested while stage-1's edit is in flight: dropped, not queued.
	if err := s.Update(ctx, "stage-2"); err != nil {
		t.Fatalf("busy update must no-op, got %v", err)
	}
	if err := s.Update(ctx, "stage-3"); err != nil {
		t.Fatalf("busy update must no-op, got %v", err)
	}

	close(ed.gate)
	if err := <-done; err != nil {
		t.Fatalf("in-flight update failed: %v", err)
	}

	got := ed.snapshot()
	if len(got) != 1 || got[0] != "stage-1" {
		t.Fatalf("expected only the in-flight edit, got %v", got)
	}
}

func TestUpdate_CoalesceLatestDrainsNewestPending(t *testing.T) {
	gate := make(chan struct{}, 8)
	ed := &fakeEditor{gate: gate}
	s := NewSession(ed, testRef, Options{Policy: api.CoalesceLatest})
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		done <- s.Update(ctx, "stage-1")
	}()

	waitBusy(t, s)

	// Both requested mid-flight; stage-2 is replaced by stage-3 in the
	// single pending slot.
	if err := s.Update(ctx, "stage-2"); err != nil {
		t.Fatalf("busy update must no-op, got %v", err)
	}
	if err := s.Update(ctx, "stage-3"); err != nil {
		t.Fatalf("busy update must no-op, got %v", err)
	}

	gate <- struct{}{} // finish stage-1
	gate <- struct{}{} // finish the drained stage-3
	if err := <-done; err != nil {
		t.Fatalf("in-flight update failed: %v", err)
	}

	got := ed.snapshot()
	if len(got) != 2 || got[0] != "stage-1" || got[1] != "stage-3" {
		t.Fatalf("expected stage-1 then stage-3, got %v", got)
	}
}

func TestComplete_TerminalIsIrreversible(t *testing.T) {
	ed := &fakeEditor{}
	s := NewSession(ed, testRef, Options{})
	ctx := context.Background()

	if !s.Active() {
		t.Fatal("fresh session must be active")
	}

	s.Complete()

	if s.Active() {
		t.Fatal("completed session must not be active")
	}
	if err := s.Update(ctx, "late stage"); err != nil {
		t.Fatalf("post-complete update must no-op, got %v", err)
	}
	s.Emit("even later")
	time.Sleep(20 * time.Millisecond)

	if got := ed.snapshot(); len(got) != 0 {
		t.Fatalf("no edit may happen after Complete, got %v", got)
	}

	// Still terminal, forever.
	s.Complete()
	if s.Active() {
		t.Fatal("session must stay terminal")
	}
}

func TestComplete_DuringInFlightEditSuppressesPending(t *testing.T) {
	ed := &fakeEditor{gate: make(chan struct{})}
	s := NewSession(ed, testRef, Options{Policy: api.CoalesceLatest})
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		done <- s.Update(ctx, "stage-1")
	}()

	waitBusy(t, s)

	// Parked while busy, then the session turns terminal: the pending
	// update must never be drained.
	if err := s.Update(ctx, "stage-2"); err != nil {
		t.Fatalf("busy update must no-op, got %v", err)
	}
	s.Complete()

	close(ed.gate)
	if err := <-done; err != nil {
		t.Fatalf("in-flight update failed: %v", err)
	}

	got := ed.snapshot()
	if len(got) != 1 || got[0] != "stage-1" {
		t.Fatalf("in-flight edit may finish but pending must not run, got %v", got)
	}
}

func TestFail_DeletesMessageOnce(t *testing.T) {
	ed := &fakeEditor{}
	s := NewSession(ed, testRef, Options{})
	ctx := context.Background()

	if err := s.Update(ctx, "Working…"); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if err := s.Fail(ctx); err != nil {
		t.Fatalf("fail errored: %v", err)
	}
	if s.Active() {
		t.Fatal("failed session must not be active")
	}
	// Idempotent: a second Fail does not delete again.
	if err := s.Fail(ctx); err != nil {
		t.Fatalf("second fail errored: %v", err)
	}
	if ed.deleteCount() != 1 {
		t.Fatalf("expected exactly one delete, got %d", ed.deleteCount())
	}

	if err := s.Update(ctx, "zombie stage"); err != nil {
		t.Fatalf("post-fail update must no-op, got %v", err)
	}
	if got := ed.snapshot(); len(got) != 1 {
		t.Fatalf("no edit may happen after Fail, got %v", got)
	}
}

func TestEmit_SwallowsEditorFailures(t *testing.T) {
	ed := &fakeEditor{failAll: true}
	s := NewSession(ed, testRef, Options{})

	// Must not panic and must not affect the session.
	s.Emit("stage-1")
	time.Sleep(20 * time.Millisecond)

	if !s.Active() {
		t.Fatal("editor failure must not terminate the session")
	}

	// Update reports the failure but the session keeps working.
	if err := s.Update(context.Background(), "stage-2"); err == nil {
		t.Fatal("expected edit failure to be reported by Update")
	}
	if !s.Active() {
		t.Fatal("edit failure must not terminate the session")
	}
}

func TestUpdate_FinalStageIsFromEmittedSequence(t *testing.T) {
	gate := make(chan struct{}, 16)
	ed := &fakeEditor{gate: gate}
	s := NewSession(ed, testRef, Options{Policy: api.DropWhileBusy})

	stages := []string{"s1", "s2", "s3", "s4", "s5"}
	for range stages {
		gate <- struct{}{}
	}

	var wg sync.WaitGroup
	for _, st := range stages {
		wg.Add(1)
		go func(st string) {
			defer wg.Done()
			_ = s.Update(context.Background(), api.Stage(st))
		}(st)
	}
	wg.Wait()

	got := ed.snapshot()
	if len(got) == 0 {
		t.Fatal("expected at least one edit")
	}
	final := got[len(got)-1]
	found := false
	for _, st := range stages {
		if final == st {
			found = true
		}
	}
	if !found {
		t.Fatalf("final stage %q not from the emitted sequence", final)
	}
}

// waitBusy spins until the session reports an edit in flight.
func waitBusy(t *testing.T, s *Session) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		s.mu.Lock()
		busy := s.busy
		s.mu.Unlock()
		if busy {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("session never became busy")
}
