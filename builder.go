package tally

import (
	"context"
	"fmt"

	"github.com/petrijr/tally/pkg/api"
)

// PipelineBuilder provides a fluent API for defining pipelines:
//
//	flow := tally.New("HandleMessage").
//	    Step("classify", classify).
//	    Branch("route",
//	        tally.BranchCase{Name: "expense", When: isExpense, Fn: logExpense},
//	        tally.BranchCase{Name: "query", When: isQuery, Fn: answerQuery},
//	    ).
//	    Join("normalize", normalize).
//	    Step("persist", persist)
//
//	if err := flow.Register(executor); err != nil {
//	    log.Fatal(err)
//	}
//
//	run, err := tally.Execute(ctx, executor, flow.Name(), input)
type PipelineBuilder struct {
	def api.PipelineDefinition
}

// New creates a new pipeline builder with the given name.
func New(name string) *PipelineBuilder {
	return &PipelineBuilder{
		def: api.PipelineDefinition{
			Name:  name,
			Steps: make([]api.StepDefinition, 0),
		},
	}
}

// Name returns the pipeline name.
func (b *PipelineBuilder) Name() string {
	return b.def.Name
}

// Definition returns the underlying PipelineDefinition.
// Typically used when interacting with lower-level APIs.
func (b *PipelineBuilder) Definition() PipelineDefinition {
	return b.def
}

// Step appends a basic step to the pipeline.
func (b *PipelineBuilder) Step(name string, fn StepFunc) *PipelineBuilder {
	if name == "" {
		panic("tally: step name must not be empty")
	}
	if fn == nil {
		panic(fmt.Sprintf("tally: step %q has nil function", name))
	}

	b.def.Steps = append(b.def.Steps, api.StepDefinition{
		Name: name,
		Fn:   fn,
	})
	return b
}

// Branch appends a branch point: exactly one case's predicate must match
// the payload at runtime, and that case's sub-step runs. Zero or multiple
// matches fail the run with a configuration error.
func (b *PipelineBuilder) Branch(name string, cases ...BranchCase) *PipelineBuilder {
	if len(cases) == 0 {
		panic(fmt.Sprintf("tally: branch %q has no cases", name))
	}
	for _, c := range cases {
		if c.Name == "" {
			panic(fmt.Sprintf("tally: branch %q has an unnamed case", name))
		}
		if c.When == nil || c.Fn == nil {
			panic(fmt.Sprintf("tally: branch %q case %q is incomplete", name, c.Name))
		}
	}
	return b.Step(name, api.BranchStep(cases...))
}

// Join appends a join step that normalizes the preceding branch's output
// back to a common shape.
func (b *PipelineBuilder) Join(name string, fn func(ctx context.Context, branch string, value any) (any, error)) *PipelineBuilder {
	if fn == nil {
		panic(fmt.Sprintf("tally: join %q has nil function", name))
	}
	return b.Step(name, api.JoinStep(fn))
}

// Register registers the built pipeline with the given executor.
func (b *PipelineBuilder) Register(exec Executor) error {
	return exec.RegisterPipeline(b.def)
}

// MustRegister is like Register but panics on error.
// Useful for initialization in main().
func (b *PipelineBuilder) MustRegister(exec Executor) {
	if err := b.Register(exec); err != nil {
		panic(err)
	}
}
