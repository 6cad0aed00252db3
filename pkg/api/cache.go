package api

import "context"

// ResponseCache stores assistant replies keyed by (owner, normalized input
// text), so a repeated question can skip the expensive branches of a run.
//
// Get returns (reply, true, nil) on a hit and ("", false, nil) on a miss;
// errors are reserved for backend failures. Implementations normalize the
// text key themselves so both paths agree on it.
type ResponseCache interface {
	Get(ctx context.Context, owner, text string) (string, bool, error)
	Set(ctx context.Context, owner, text, reply string) error
}
