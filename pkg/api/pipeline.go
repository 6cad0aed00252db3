package api

import (
	"context"
)

// Status represents the lifecycle state of a pipeline run.
type Status string

const (
	StatusRunning   Status = "RUNNING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
)

// StepFunc is a single step in a pipeline: a fallible transform from one
// payload shape to the next. Steps run strictly in sequence; the executor
// never interleaves two steps of the same run.
type StepFunc func(ctx context.Context, input any) (any, error)

// StepDefinition describes a named step.
type StepDefinition struct {
	Name string
	Fn   StepFunc
}

// PipelineDefinition describes a pipeline as an ordered sequence of steps.
type PipelineDefinition struct {
	Name  string
	Steps []StepDefinition
}

// Run holds the result of executing a pipeline once for a single inbound
// message. Runs are ephemeral: they live only for the duration of the
// invocation and are never persisted.
type Run struct {
	ID       string
	Pipeline string
	Status   Status
	Output   any
	Err      error

	// Input is the payload the run was started with.
	Input any

	// CurrentStep tracks progress through the pipeline steps.
	// Semantics:
	//   - While running step i: i
	//   - After successful completion: len(steps)
	//   - On failure: index of the step that failed.
	CurrentStep int
}

// TypedStep wraps a strongly-typed function into a StepFunc.
//
// The resulting step fails with a *ConfigError if the payload flowing into
// it is not assignable to I; that indicates a miswired pipeline, not a
// runtime condition.
func TypedStep[I, O any](fn func(context.Context, I) (O, error)) StepFunc {
	return func(ctx context.Context, input any) (any, error) {
		in, ok := input.(I)
		if !ok {
			return nil, NewConfigError("typed step received payload of type %T", input)
		}
		return fn(ctx, in)
	}
}

// BranchCase is one arm of a branch point: a predicate over the current
// payload and the sub-step to run when it matches.
type BranchCase struct {
	Name string
	When func(input any) bool
	Fn   StepFunc
}

// BranchOutcome carries the output of a branch point to the matching join
// step. Outputs holds the sub-step result keyed by branch name; a correctly
// executed branch produces exactly one entry.
type BranchOutcome struct {
	Outputs map[string]any
}

// BranchStep returns a step that evaluates every case's predicate against
// the current payload and runs the single matching sub-step. Zero matches or
// more than one match is a pipeline configuration defect and fails the run
// with a *ConfigError rather than guessing.
//
// The sub-step's output is wrapped in a BranchOutcome so a downstream
// JoinStep can verify exactly one branch produced output.
func BranchStep(cases ...BranchCase) StepFunc {
	return func(ctx context.Context, input any) (any, error) {
		matched := -1
		for i, c := range cases {
			if !c.When(input) {
				continue
			}
			if matched >= 0 {
				return nil, NewConfigError("branch: cases %q and %q both match", cases[matched].Name, c.Name)
			}
			matched = i
		}
		if matched < 0 {
			return nil, NewConfigError("branch: no case matches payload of type %T", input)
		}

		c := cases[matched]
		out, err := c.Fn(ctx, input)
		if err != nil {
			return nil, err
		}
		return BranchOutcome{Outputs: map[string]any{c.Name: out}}, nil
	}
}

// JoinStep returns a step that normalizes a branch's output back to a common
// shape. It requires its input to be a BranchOutcome holding exactly one
// branch output; anything else indicates an executor or wiring bug and fails
// the run with a *ConfigError.
func JoinStep(fn func(ctx context.Context, branch string, value any) (any, error)) StepFunc {
	return func(ctx context.Context, input any) (any, error) {
		outcome, ok := input.(BranchOutcome)
		if !ok {
			return nil, NewConfigError("join: expected BranchOutcome, got %T", input)
		}
		if n := len(outcome.Outputs); n != 1 {
			return nil, NewConfigError("join: expected exactly one branch output, got %d", n)
		}
		for branch, value := range outcome.Outputs {
			return fn(ctx, branch, value)
		}
		panic("unreachable")
	}
}
