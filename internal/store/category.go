package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"pocket/internal/core"
	"pocket/internal/event"
	"pocket/internal/kv"
	"pocket/internal/log"
)

// CategoryStore owns the ordered category list and each category's running
// amount and count.
type CategoryStore struct {
	observers

	mu      sync.Mutex
	kv      kv.Store
	events  Publisher
	logger  *log.Logger
	cats    []core.Category
	version uint64
	loading bool
}

// NewCategoryStore builds a store over the given persistence backend.
// events may be nil. Call Load before serving reads.
func NewCategoryStore(kvs kv.Store, events Publisher, logger *log.Logger) *CategoryStore {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &CategoryStore{
		kv:      kvs,
		events:  events,
		logger:  logger.WithComponent(log.ComponentCategories),
		loading: true,
	}
}

// Load reads the stored category list. A missing key seeds the default
// categories and persists them; read or parse failures are logged and
// leave the store with an empty list. The loading flag clears either way.
func (s *CategoryStore) Load(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() { s.loading = false }()

	raw, ok, err := s.kv.Get(ctx, kv.KeyCategories)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to load categories",
			log.FieldOperation, log.OpLoad, log.FieldError, err)
		return
	}
	if !ok {
		s.seedDefaults(ctx)
		return
	}

	var cats []core.Category
	if err := json.Unmarshal([]byte(raw), &cats); err != nil {
		s.logger.ErrorContext(ctx, "Failed to parse stored categories",
			log.FieldOperation, log.OpLoad, log.FieldError, err)
		return
	}
	s.cats = cats
	s.version++
}

// seedDefaults runs under the store mutex. If the seed write fails the
// store starts empty rather than adopting state that was never persisted.
func (s *CategoryStore) seedDefaults(ctx context.Context) {
	defaults := core.DefaultCategories()
	data, err := json.Marshal(defaults)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to encode default categories",
			log.FieldOperation, log.OpSeed, log.FieldError, err)
		return
	}
	if err := s.kv.Set(ctx, kv.KeyCategories, string(data)); err != nil {
		s.logger.ErrorContext(ctx, "Failed to seed default categories",
			log.FieldOperation, log.OpSeed, log.FieldError, err)
		return
	}
	s.cats = defaults
	s.version++
	s.logger.InfoContext(ctx, "Seeded default categories", "count", len(defaults))
}

// AddCategory appends a new category with a fresh id and zeroed running
// totals. Any amount or count on the input is discarded. The list is
// persisted before the store adopts it; a failed write returns the error
// with memory unchanged.
func (s *CategoryStore) AddCategory(ctx context.Context, in core.CategoryInput) (core.Category, error) {
	s.mu.Lock()
	cat := core.Category{
		ID:    uuid.NewString(),
		Name:  in.Name,
		Icon:  in.Icon,
		Color: in.Color,
	}
	next := make([]core.Category, 0, len(s.cats)+1)
	next = append(next, s.cats...)
	next = append(next, cat)
	if err := s.persist(ctx, next); err != nil {
		s.mu.Unlock()
		return core.Category{}, fmt.Errorf("add category: %w", err)
	}
	s.cats = next
	s.version++
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Category added",
		log.FieldCategoryID, cat.ID, "name", cat.Name)
	s.publish(ctx, event.KindCategoryAdded, cat.ID)
	return cat, nil
}

// UpdateCategoryAmount folds amount into the category's running total and
// bumps its count. An unknown id leaves every category unchanged but the
// sequence is still re-persisted and observers re-notified: a no-op update
// is a full write.
func (s *CategoryStore) UpdateCategoryAmount(ctx context.Context, id string, amount core.Money) error {
	s.mu.Lock()
	next := make([]core.Category, len(s.cats))
	copy(next, s.cats)
	found := false
	for i := range next {
		if next[i].ID == id {
			next[i].Amount += amount
			next[i].Count++
			found = true
			break
		}
	}
	if err := s.persist(ctx, next); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("update category amount: %w", err)
	}
	s.cats = next
	s.version++
	s.mu.Unlock()

	if found {
		s.logger.InfoContext(ctx, "Category amount updated",
			log.FieldCategoryID, id, log.FieldAmountCents, int64(amount))
	} else {
		s.logger.WarnContext(ctx, "Category not found for amount update",
			log.FieldCategoryID, id)
	}
	s.publish(ctx, event.KindCategoryUpdated, id)
	return nil
}

// Categories returns a snapshot copy of the category list in insertion
// order.
func (s *CategoryStore) Categories() []core.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Category, len(s.cats))
	copy(out, s.cats)
	return out
}

// Loading reports whether the initial Load has not finished yet.
func (s *CategoryStore) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Version is a monotonic counter bumped on every adopted snapshot. Useful
// as a cache key for derived views.
func (s *CategoryStore) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

func (s *CategoryStore) persist(ctx context.Context, cats []core.Category) error {
	data, err := json.Marshal(cats)
	if err != nil {
		return fmt.Errorf("encode categories: %w", err)
	}
	if err := s.kv.Set(ctx, kv.KeyCategories, string(data)); err != nil {
		return fmt.Errorf("persist categories: %w", err)
	}
	return nil
}

func (s *CategoryStore) publish(ctx context.Context, kind, id string) {
	s.notify()
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, event.NewMessage(kind, id)); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish mutation event",
			"kind", kind, log.FieldError, err)
	}
}
