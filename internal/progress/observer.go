package progress

import (
	"context"

	"github.com/petrijr/tally/pkg/api"
)

// Observer bridges executor step-transition notifications to a progress
// session: when a step with a mapped stage starts, the stage text is
// emitted fire-and-forget. Steps absent from the map are silent.
//
// There is exactly one progress consumer per run, so this is a plain
// callback rather than a pub/sub bus.
type Observer struct {
	api.NoopObserver

	reporter api.Reporter
	stages   api.StageMap
}

// NewObserver creates an Observer emitting to reporter according to stages.
func NewObserver(reporter api.Reporter, stages api.StageMap) *Observer {
	return &Observer{reporter: reporter, stages: stages}
}

func (o *Observer) OnStepStart(ctx context.Context, run *api.Run, stepName string, idx int) {
	if stage, ok := o.stages[stepName]; ok {
		o.reporter.Emit(stage)
	}
}
