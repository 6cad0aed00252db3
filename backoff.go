package tally

import "time"

// BackoffBuilder provides a fluent way to construct BackoffPolicy values
// for use with NewInserter.
type BackoffBuilder struct {
	policy BackoffPolicy
}

// Backoff creates a BackoffBuilder with the given maxAttempts.
//
// maxAttempts <= 0 is treated as 1 (no retries).
func Backoff(maxAttempts int) BackoffBuilder {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	return BackoffBuilder{
		policy: BackoffPolicy{
			MaxAttempts: maxAttempts,
		},
	}
}

// WithExponentialBackoff configures exponential backoff:
//
//   - initial is the delay before the first retry.
//   - multiplier > 1 grows the delay each attempt (default 2.0 if <= 0).
//   - max caps the delay; if <= 0, there is no cap.
//
// Example:
//
//	Backoff(7).WithExponentialBackoff(100*time.Millisecond, 2.0, 2*time.Second)
func (b BackoffBuilder) WithExponentialBackoff(initial time.Duration, multiplier float64, max time.Duration) BackoffBuilder {
	p := b.policy
	p.Initial = initial
	p.Max = max
	if multiplier <= 0 {
		multiplier = 2.0
	}
	p.Multiplier = multiplier
	return BackoffBuilder{policy: p}
}

// WithConstantBackoff configures a constant delay between retries.
//
// This is equivalent to an exponential backoff with multiplier 1.0 and
// no cap.
func (b BackoffBuilder) WithConstantBackoff(delay time.Duration) BackoffBuilder {
	p := b.policy
	p.Initial = delay
	p.Max = 0
	p.Multiplier = 1.0
	return BackoffBuilder{policy: p}
}

// Policy returns the underlying BackoffPolicy to be passed to NewInserter.
func (b BackoffBuilder) Policy() BackoffPolicy {
	return b.policy
}
