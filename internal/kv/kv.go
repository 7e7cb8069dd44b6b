// Package kv defines the key-value persistence port used by the stores and
// its local backends. Values are serialized JSON documents; the stores own
// the format, the backends only move text.
package kv

import "context"

// Keys persisted by the application. Each key is written independently;
// there is no cross-key atomicity.
const (
	KeyCategories   = "categories"
	KeyTransactions = "transactions"
	KeyBalance      = "balance"
)

// Store is the persistence port.
type Store interface {
	// Get returns the value for key. ok is false when the key was never
	// written; that is not an error.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Set writes the value for key, replacing any previous value.
	Set(ctx context.Context, key string, value string) error
}
