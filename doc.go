// Package tally is the message-delivery reliability core of a chat-driven
// assistant: it turns an unreliable, possibly-duplicated, possibly-
// concurrent external event stream into exactly-once handler dispatches
// with order-preserving, user-visible progress, and persists results
// correctly under write races.
//
// # Core Concepts
//
// The programming model is intentionally small and idiomatic:
//
//  1. Executor
//  2. Ingestor
//  3. Reporter
//  4. Inserter
//  5. PipelineBuilder
//
// # Executor
//
// The Executor runs registered pipelines synchronously: an ordered list of
// typed steps, optionally branching through exactly one of several
// predicate-selected sub-steps and re-joining to a common payload shape.
// A run is ephemeral — it lives in memory for one invocation and is never
// persisted or resumed. Step transitions are published to an Observer;
// observers are fire-and-forget and can never fail a run.
//
// # Ingestor
//
// The Ingestor sits between an at-least-once event source (for example a
// webhook deliverer) and the pipeline. Backed by a durable Ledger keyed on
// the externally-assigned event id, it dispatches each event exactly once,
// short-circuits redeliveries, and prefers accept-and-drop over rejection
// so the source never falls into a redelivery storm. Ledger bookkeeping is
// best-effort and never blocks request handling.
//
// # Reporter
//
// A progress Reporter owns the single live status message shown to the
// user during a run. Edits are serialized one at a time per session;
// updates arriving while an edit is in flight are dropped (or coalesced
// into a latest-wins slot, by policy). Once the session is completed or
// failed no further edit starts, and failure deletes the message rather
// than leaving it frozen mid-progress. Progress is cosmetic: its failures
// are logged, never propagated.
//
// # Inserter
//
// The Inserter persists domain records whose per-owner sequential display
// identifier is assigned by the store at insert time under a uniqueness
// constraint. Concurrent inserts for one owner can collide; the Inserter
// retries exactly that collision with capped exponential backoff and fails
// fast on everything else.
//
// # PipelineBuilder
//
// PipelineBuilder is the declarative API used to define pipelines:
//
//	tally.New("HandleMessage").
//	    Step("classify", classify).
//	    Branch("route", cases...).
//	    Join("normalize", normalize).
//	    Step("persist", persist)
//
// Storage backends are pluggable: SQLite and PostgreSQL for the ledger and
// record store, Redis or in-process memory for the response cache. All
// collaborators are injected through constructors — there are no package
// globals — so tests substitute fakes freely.
//
// For a complete wiring, see NewSQLiteBundle and the /examples directory.
package tally
