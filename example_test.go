package tally_test

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/petrijr/tally"
)

// Example_pipelineBuilder demonstrates defining and running a branching
// pipeline using the high-level PipelineBuilder API.
func Example_pipelineBuilder() {
	ctx := context.Background()

	flow := tally.New("HandleMessage").
		Step("trim", trimText).
		Branch("route",
			tally.BranchCase{
				Name: "expense",
				When: func(in any) bool { return strings.ContainsAny(in.(string), "0123456789") },
				Fn:   logExpense,
			},
			tally.BranchCase{
				Name: "query",
				When: func(in any) bool { return !strings.ContainsAny(in.(string), "0123456789") },
				Fn:   answerQuery,
			},
		).
		Join("normalize", func(ctx context.Context, branch string, value any) (any, error) {
			return fmt.Sprintf("[%s] %v", branch, value), nil
		})

	exec := tally.NewExecutor()
	if err := flow.Register(exec); err != nil {
		log.Fatal(err)
	}

	run, err := tally.Execute(ctx, exec, flow.Name(), "  coffee 5.50  ")
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("pipeline finished with status %s and output %v\n", run.Status, run.Output)
	// Output: pipeline finished with status COMPLETED and output [expense] logged: coffee 5.50
}

// Example_ingestor demonstrates deduplicating redelivered events before
// dispatching them to a handler.
func Example_ingestor() {
	ctx := context.Background()

	ing := tally.NewIngestor(tally.NewMemoryLedger(),
		func(ctx context.Context, eventID int64, payload []byte) error {
			fmt.Printf("handling event %d: %s\n", eventID, payload)
			return nil
		})

	for _, id := range []int64{101, 101, 102} {
		outcome, err := ing.Ingest(ctx, id, []byte("spent 5.50 on coffee"))
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("event %d: %s\n", id, outcome)
	}

	// Output:
	// handling event 101: spent 5.50 on coffee
	// event 101: processed
	// event 101: duplicate
	// handling event 102: spent 5.50 on coffee
	// event 102: processed
}

func trimText(ctx context.Context, input any) (any, error) {
	text, ok := input.(string)
	if !ok {
		return nil, fmt.Errorf("trim: expected string input, got %T", input)
	}
	return strings.TrimSpace(text), nil
}

func logExpense(ctx context.Context, input any) (any, error) {
	return "logged: " + input.(string), nil
}

func answerQuery(ctx context.Context, input any) (any, error) {
	return "answer: " + input.(string), nil
}
