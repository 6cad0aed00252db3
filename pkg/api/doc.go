// Package api defines the public contracts of the tally reliability core.
//
// It contains the types shared between the root tally package and the
// internal implementations:
//
//   - Pipeline types: PipelineDefinition, StepDefinition, StepFunc, Run,
//     Status, and the branch/join helpers (BranchStep, JoinStep,
//     BranchOutcome).
//   - Executor: the synchronous pipeline runner.
//   - Observer: run/step lifecycle callbacks, with Noop, Composite,
//     Logging and BasicMetrics implementations.
//   - Ledger: the durable ingestion dedup/status record.
//   - RecordStore / InsertResult / BackoffPolicy: the optimistic insert
//     surface.
//   - Editor / MessageRef / Stage / StageMap / Reporter: the progress
//     reporting surface.
//   - ResponseCache: the (owner, normalized text) reply cache.
//
// Error kinds live here too: ConfigError for pipeline wiring defects,
// ErrDisplayIDCollision for the expected insert race, ContentionError for
// exhausted retries, ErrUnknownPipeline for execution of an unregistered
// name. Correctness-affecting failures propagate through these types;
// cosmetic failures (progress edits, ledger bookkeeping) are contained by
// the implementations and only logged.
//
// Most users construct concrete implementations through the root tally
// package and only reference this package for the type names.
package api
