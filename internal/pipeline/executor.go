// Package pipeline implements the synchronous pipeline executor.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/petrijr/tally/pkg/api"
)

// Executor is a simple, synchronous, in-process executor. Runs are
// ephemeral: state lives in the *api.Run for the duration of Execute and is
// gone when it returns. Steps of one run never execute concurrently.
type Executor struct {
	mu   sync.RWMutex
	defs map[string]api.PipelineDefinition

	observer api.Observer
	logger   *slog.Logger
}

// Config describes how to construct an Executor. External callers use the
// constructors in the root tally package.
type Config struct {
	Observer api.Observer
	Logger   *slog.Logger
}

// New creates an Executor from cfg. A nil Observer defaults to
// api.NoopObserver; a nil Logger defaults to slog.Default().
func New(cfg Config) *Executor {
	obs := cfg.Observer
	if obs == nil {
		obs = api.NoopObserver{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{
		defs:     make(map[string]api.PipelineDefinition),
		observer: obs,
		logger:   logger,
	}
}

var _ api.Executor = (*Executor)(nil)

// RegisterPipeline registers a definition by name.
func (e *Executor) RegisterPipeline(def api.PipelineDefinition) error {
	if def.Name == "" {
		return errors.New("pipeline name is required")
	}
	if len(def.Steps) == 0 {
		return errors.New("pipeline must have at least one step")
	}
	for _, s := range def.Steps {
		if s.Name == "" {
			return fmt.Errorf("pipeline %q has an unnamed step", def.Name)
		}
		if s.Fn == nil {
			return fmt.Errorf("pipeline %q: step %q has nil function", def.Name, s.Name)
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.defs[def.Name]; exists {
		return fmt.Errorf("pipeline already registered: %s", def.Name)
	}
	e.defs[def.Name] = def
	return nil
}

// Execute runs the named pipeline to completion.
func (e *Executor) Execute(ctx context.Context, name string, input any) (*api.Run, error) {
	e.mu.RLock()
	def, ok := e.defs[name]
	e.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", api.ErrUnknownPipeline, name)
	}

	run := &api.Run{
		ID:       uuid.NewString(),
		Pipeline: def.Name,
		Status:   api.StatusRunning,
		Input:    input,
	}

	e.notify(func() { e.observer.OnRunStart(ctx, run) })

	current := input
	for i, step := range def.Steps {
		run.CurrentStep = i

		if err := ctx.Err(); err != nil {
			return e.fail(ctx, run, err)
		}

		start := time.Now()
		e.notify(func() { e.observer.OnStepStart(ctx, run, step.Name, i) })

		next, err := step.Fn(ctx, current)

		duration := time.Since(start)
		e.notify(func() { e.observer.OnStepCompleted(ctx, run, step.Name, i, err, duration) })

		if err != nil {
			return e.fail(ctx, run, err)
		}
		current = next
	}

	run.Status = api.StatusCompleted
	run.Output = current
	run.CurrentStep = len(def.Steps)

	e.notify(func() { e.observer.OnRunCompleted(ctx, run) })

	return run, nil
}

// fail marks the run failed and returns it alongside the error. Later steps
// never execute; there is no retry at this layer.
func (e *Executor) fail(ctx context.Context, run *api.Run, err error) (*api.Run, error) {
	run.Status = api.StatusFailed
	run.Err = err
	e.notify(func() { e.observer.OnRunFailed(ctx, run, err) })
	return run, err
}

// notify invokes an observer callback, containing panics so a broken
// subscriber cannot fail the run.
func (e *Executor) notify(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("observer_panic", slog.Any("panic", r))
		}
	}()
	fn()
}
