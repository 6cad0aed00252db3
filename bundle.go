package tally

import "database/sql"

// SQLiteBundle wires the durable pieces of the reliability core — ledger,
// record store, inserter — around one shared SQLite database, plus an
// executor observing with obs.
//
// Typical usage:
//
//	db, _ := sql.Open("sqlite", "file:tally.db?_journal=WAL")
//	bundle, err := tally.NewSQLiteBundle(db, tally.NewLoggingObserver(nil))
//	// register pipelines on bundle.Executor
//	// hand bundle.Ledger to a tally.NewIngestor
//	// persist results via bundle.Inserter
type SQLiteBundle struct {
	Ledger   Ledger
	Records  RecordStore
	Inserter Inserter
	Executor Executor
}

// NewSQLiteBundle constructs the bundle, initializing both schemas in db.
// obs may be nil. The inserter uses the default backoff policy.
func NewSQLiteBundle(db *sql.DB, obs Observer) (*SQLiteBundle, error) {
	led, err := NewSQLiteLedger(db)
	if err != nil {
		return nil, err
	}

	store, err := NewSQLiteRecordStore(db)
	if err != nil {
		return nil, err
	}

	return &SQLiteBundle{
		Ledger:   led,
		Records:  store,
		Inserter: NewInserter(store, BackoffPolicy{}),
		Executor: NewExecutorWithObserver(obs),
	}, nil
}
