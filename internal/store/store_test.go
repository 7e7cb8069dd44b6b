package store

import (
	"context"

	"pocket/internal/event"
	"pocket/internal/kv"
)

// spyKV wraps a memory store, counting Set calls per key and optionally
// failing them. Shared by the category and transaction store tests.
type spyKV struct {
	inner   *kv.MemoryStore
	sets    map[string]int
	failSet map[string]error
}

func newSpyKV() *spyKV {
	return &spyKV{
		inner:   kv.NewMemoryStore(),
		sets:    make(map[string]int),
		failSet: make(map[string]error),
	}
}

func (s *spyKV) Get(ctx context.Context, key string) (string, bool, error) {
	return s.inner.Get(ctx, key)
}

func (s *spyKV) Set(ctx context.Context, key, value string) error {
	s.sets[key]++
	if err := s.failSet[key]; err != nil {
		return err
	}
	return s.inner.Set(ctx, key, value)
}

// capturingPublisher records published event messages.
type capturingPublisher struct {
	messages []event.Message
	err      error
}

func (p *capturingPublisher) Publish(_ context.Context, m event.Message) error {
	p.messages = append(p.messages, m)
	return p.err
}
