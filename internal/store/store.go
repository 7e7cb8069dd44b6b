// Package store implements the two state managers that own the
// application's data: categories with their running totals, and
// transactions with the running balance.
//
// Every operation is a read-modify-write over a whole persisted collection
// with no optimistic-concurrency check, so each store guards its state with
// a mutex; concurrent callers serialize per store. Cross-store ordering is
// caller-sequenced: adding a transaction and folding its amount into a
// category are two independent operations with no atomicity between them.
//
// Persistence ordering: every mutation writes to the key-value store first
// and commits to memory only when the write succeeds, so observers never
// see state that is not persisted. The one exception is the second write of
// AddTransaction (see TransactionStore).
package store

import (
	"context"
	"sync"

	"pocket/internal/event"
)

// Publisher is the outbound event hook satisfied by *event.Client.
// A nil Publisher disables event publishing.
type Publisher interface {
	Publish(ctx context.Context, m event.Message) error
}

// observers fans a snapshot notification out to subscribers. Callbacks run
// on the mutating goroutine after the persistence write has settled and the
// store mutex has been released; they must not block for long.
type observers struct {
	mu   sync.Mutex
	subs []func()
}

// Subscribe registers fn to run after every mutation.
func (o *observers) Subscribe(fn func()) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.subs = append(o.subs, fn)
}

func (o *observers) notify() {
	o.mu.Lock()
	subs := make([]func(), len(o.subs))
	copy(subs, o.subs)
	o.mu.Unlock()
	for _, fn := range subs {
		fn()
	}
}
