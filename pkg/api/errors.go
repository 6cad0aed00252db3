package api

import (
	"errors"
	"fmt"
)

// ErrUnknownPipeline is returned by Execute when the named pipeline was
// never registered. It is the only case in which no Run is produced.
var ErrUnknownPipeline = errors.New("unknown pipeline")

// ErrDisplayIDCollision is the error kind a RecordStore reports when an
// insert lost the race for a per-owner display identifier: the store's
// UNIQUE(owner, display_id) constraint rejected the row. It is an expected,
// retryable condition, not a defect.
var ErrDisplayIDCollision = errors.New("display id collision")

// ConfigError marks a pipeline configuration defect: a branch with zero or
// multiple matching cases, a join fed something other than a single branch
// outcome, a typed step wired to the wrong payload shape. These are
// programming errors; they fail the run loudly and are never retried.
type ConfigError struct {
	Msg string
}

func (e *ConfigError) Error() string {
	return "pipeline config: " + e.Msg
}

// NewConfigError creates a ConfigError with a formatted message.
func NewConfigError(format string, args ...any) error {
	return &ConfigError{Msg: fmt.Sprintf(format, args...)}
}

// IsConfigError reports whether err is (or wraps) a ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// ContentionError is returned by an Inserter when every allowed attempt hit
// a display id collision. It is distinguishable from a store rejecting the
// write: the write was never rejected for cause, it just kept losing races.
type ContentionError struct {
	Owner    string
	Attempts int
}

func (e *ContentionError) Error() string {
	return fmt.Sprintf("insert for owner %q exhausted %d attempts under contention", e.Owner, e.Attempts)
}

// IsContentionError reports whether err is (or wraps) a ContentionError.
func IsContentionError(err error) bool {
	var ce *ContentionError
	return errors.As(err, &ce)
}
