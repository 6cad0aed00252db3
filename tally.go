package tally

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/petrijr/tally/internal/cache"
	"github.com/petrijr/tally/internal/dispatch"
	"github.com/petrijr/tally/internal/ledger"
	"github.com/petrijr/tally/internal/pipeline"
	"github.com/petrijr/tally/internal/progress"
	"github.com/petrijr/tally/internal/records"
	"github.com/petrijr/tally/pkg/api"
)

// Re-export key types so users don't need to dig into pkg/api.

type (
	Executor           = api.Executor
	PipelineDefinition = api.PipelineDefinition
	StepDefinition     = api.StepDefinition
	StepFunc           = api.StepFunc
	Run                = api.Run
	Status             = api.Status
	BranchCase         = api.BranchCase
	BranchOutcome      = api.BranchOutcome

	Observer             = api.Observer
	NoopObserver         = api.NoopObserver
	CompositeObserver    = api.CompositeObserver
	LoggingObserver      = api.LoggingObserver
	BasicMetrics         = api.BasicMetrics
	BasicMetricsSnapshot = api.BasicMetricsSnapshot

	Ledger      = api.Ledger
	EventRecord = api.EventRecord
	EventStatus = api.EventStatus

	RecordStore   = api.RecordStore
	Inserter      = api.Inserter
	InsertResult  = api.InsertResult
	BackoffPolicy = api.BackoffPolicy

	Editor         = api.Editor
	MessageRef     = api.MessageRef
	Stage          = api.Stage
	StageMap       = api.StageMap
	Reporter       = api.Reporter
	ProgressPolicy = api.ProgressPolicy

	ResponseCache = api.ResponseCache

	Ingestor      = api.Ingestor
	IngestOutcome = api.IngestOutcome
	HandlerFunc   = api.HandlerFunc

	ConfigError     = api.ConfigError
	ContentionError = api.ContentionError
)

// Re-export common observer helpers.

var (
	NewLoggingObserver   = api.NewLoggingObserver
	NewCompositeObserver = api.NewCompositeObserver
)

// Re-export error kinds and helpers.

var (
	ErrUnknownPipeline    = api.ErrUnknownPipeline
	ErrDisplayIDCollision = api.ErrDisplayIDCollision

	IsConfigError     = api.IsConfigError
	IsContentionError = api.IsContentionError
)

// Re-export status and policy values for convenience.

const (
	StatusRunning   = api.StatusRunning
	StatusCompleted = api.StatusCompleted
	StatusFailed    = api.StatusFailed

	EventPending    = api.EventPending
	EventProcessing = api.EventProcessing
	EventCompleted  = api.EventCompleted
	EventFailed     = api.EventFailed

	DropWhileBusy  = api.DropWhileBusy
	CoalesceLatest = api.CoalesceLatest

	IngestProcessed = api.IngestProcessed
	IngestDuplicate = api.IngestDuplicate
	IngestFailed    = api.IngestFailed
)

// Executor constructors
// These wrap the internal/pipeline package so external callers never need
// to import internal packages.

// NewExecutor returns a synchronous in-process Executor with no observer.
func NewExecutor() Executor {
	return pipeline.New(pipeline.Config{})
}

// NewExecutorWithObserver returns an Executor notifying the given Observer
// of run and step transitions.
func NewExecutorWithObserver(obs Observer) Executor {
	return pipeline.New(pipeline.Config{Observer: obs})
}

// Ledger constructors

// NewMemoryLedger returns an in-memory Ledger, best for tests.
func NewMemoryLedger() Ledger {
	return ledger.NewMemoryStore()
}

// NewSQLiteLedger returns a Ledger persisting event records in SQLite.
func NewSQLiteLedger(db *sql.DB) (Ledger, error) {
	return ledger.NewSQLiteStore(db)
}

// NewPostgresLedger returns a Ledger persisting event records in PostgreSQL.
func NewPostgresLedger(db *sql.DB) (Ledger, error) {
	return ledger.NewPostgresStore(db)
}

// Record store / inserter constructors

// NewSQLiteRecordStore returns a RecordStore assigning per-owner display
// identifiers in SQLite.
func NewSQLiteRecordStore(db *sql.DB) (RecordStore, error) {
	return records.NewSQLiteStore(db)
}

// NewPostgresRecordStore returns a RecordStore assigning per-owner display
// identifiers in PostgreSQL.
func NewPostgresRecordStore(db *sql.DB) (RecordStore, error) {
	return records.NewPostgresStore(db)
}

// NewInserter returns an Inserter retrying display id collisions against
// store with the given backoff. Zero policy fields use the defaults
// (7 attempts, 100ms doubling, capped at 2s).
func NewInserter(store RecordStore, policy BackoffPolicy) Inserter {
	return records.NewInserter(store, policy, nil)
}

// Progress constructors

// NewProgressSession returns a Reporter editing the status message at ref
// through editor, with the given in-flight policy.
func NewProgressSession(editor Editor, ref MessageRef, policy ProgressPolicy) Reporter {
	return progress.NewSession(editor, ref, progress.Options{Policy: policy})
}

// NewProgressObserver returns an Observer that emits stage text to reporter
// whenever a step named in stages starts.
func NewProgressObserver(reporter Reporter, stages StageMap) Observer {
	return progress.NewObserver(reporter, stages)
}

// Cache constructors

// NewMemoryCache returns an in-process ResponseCache with the given TTL
// (ttl <= 0 disables expiry).
func NewMemoryCache(ttl time.Duration) ResponseCache {
	return cache.NewMemoryCache(ttl)
}

// NewRedisCache returns a ResponseCache backed by Redis.
func NewRedisCache(client *redis.Client, prefix string, ttl time.Duration) ResponseCache {
	return cache.NewRedisCache(client, prefix, ttl)
}

// NormalizeText canonicalizes the text half of a response cache key.
func NormalizeText(text string) string {
	return cache.NormalizeText(text)
}

// Ingestor constructor

// NewIngestor returns an Ingestor deduplicating deliveries through l and
// dispatching fresh events to handler.
func NewIngestor(l Ledger, handler HandlerFunc) Ingestor {
	return dispatch.NewIngestor(l, handler, nil)
}

// NewIngestorWithLogger is NewIngestor with an explicit logger.
func NewIngestorWithLogger(l Ledger, handler HandlerFunc, logger *slog.Logger) Ingestor {
	return dispatch.NewIngestor(l, handler, logger)
}

// Convenience helpers that just forward to the underlying Executor.

// Execute runs a registered pipeline synchronously.
func Execute(ctx context.Context, exec Executor, name string, input any) (*Run, error) {
	return exec.Execute(ctx, name, input)
}
