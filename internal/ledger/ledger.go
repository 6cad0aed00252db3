// Package ledger implements the durable ingestion ledger: one record per
// externally-delivered event id, used for deduplication and status
// tracking across redeliveries.
package ledger

import "errors"

// ErrEventNotFound is returned by GetEvent when no record exists for the
// given event id.
var ErrEventNotFound = errors.New("event not found")
