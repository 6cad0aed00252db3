package api

import "context"

// Executor runs registered pipelines synchronously, one step at a time.
type Executor interface {
	// RegisterPipeline registers a definition by name.
	RegisterPipeline(def PipelineDefinition) error

	// Execute runs the named pipeline to completion with the given input.
	//
	// A run that started always comes back as a non-nil *Run, even when it
	// failed; run.Status and run.Err say how it ended. A nil *Run means the
	// run never started (for example ErrUnknownPipeline), so callers can
	// distinguish "ran and failed" from "never ran".
	Execute(ctx context.Context, name string, input any) (*Run, error)
}
