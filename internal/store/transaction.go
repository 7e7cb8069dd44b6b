package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"pocket/internal/core"
	"pocket/internal/event"
	"pocket/internal/kv"
	"pocket/internal/log"
)

// TransactionStore owns the transaction list and the running balance. The
// two live under independent keys and are written independently.
type TransactionStore struct {
	observers

	mu      sync.Mutex
	kv      kv.Store
	events  Publisher
	logger  *log.Logger
	txns    []core.Transaction
	balance core.Balance
	version uint64
	loading bool
}

// NewTransactionStore builds a store over the given persistence backend.
// events may be nil. Call Load before serving reads.
func NewTransactionStore(kvs kv.Store, events Publisher, logger *log.Logger) *TransactionStore {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &TransactionStore{
		kv:      kvs,
		events:  events,
		logger:  logger.WithComponent(log.ComponentTransactions),
		loading: true,
	}
}

// Load reads transactions and balance concurrently from their two keys.
// A missing or unreadable key falls back to its default (empty list,
// zero uninitialized balance) without failing the other; errors are
// logged, never returned. The loading flag clears in all cases.
func (s *TransactionStore) Load(ctx context.Context) {
	var (
		txns    []core.Transaction
		balance core.Balance
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		raw, ok, err := s.kv.Get(gctx, kv.KeyTransactions)
		if err != nil {
			s.logger.ErrorContext(gctx, "Failed to load transactions",
				log.FieldOperation, log.OpLoad, log.FieldError, err)
			return nil
		}
		if !ok {
			return nil
		}
		if err := json.Unmarshal([]byte(raw), &txns); err != nil {
			s.logger.ErrorContext(gctx, "Failed to parse stored transactions",
				log.FieldOperation, log.OpLoad, log.FieldError, err)
			txns = nil
		}
		return nil
	})
	g.Go(func() error {
		raw, ok, err := s.kv.Get(gctx, kv.KeyBalance)
		if err != nil {
			s.logger.ErrorContext(gctx, "Failed to load balance",
				log.FieldOperation, log.OpLoad, log.FieldError, err)
			return nil
		}
		if !ok {
			return nil
		}
		if err := json.Unmarshal([]byte(raw), &balance); err != nil {
			s.logger.ErrorContext(gctx, "Failed to parse stored balance",
				log.FieldOperation, log.OpLoad, log.FieldError, err)
			balance = core.Balance{}
		}
		return nil
	})
	_ = g.Wait() // both readers swallow their errors

	s.mu.Lock()
	s.txns = txns
	s.balance = balance
	s.version++
	s.loading = false
	s.mu.Unlock()
}

// SetInitialBalance overwrites the balance with the given starting amount
// and marks it initialized. Calling it again simply resets the total,
// discarding transaction-driven changes; gating it to once per install is
// the caller's policy, not the store's.
func (s *TransactionStore) SetInitialBalance(ctx context.Context, amount core.Money) error {
	s.mu.Lock()
	next := core.Balance{Total: amount, IsInitialized: true}
	if err := s.persistBalance(ctx, next); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("set initial balance: %w", err)
	}
	s.balance = next
	s.version++
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Initial balance set",
		log.FieldAmountCents, int64(amount))
	s.publish(ctx, event.KindBalanceSet, "")
	return nil
}

// AddTransaction appends a transaction with a fresh id and the input fields
// adopted verbatim (validation is the caller's job), then applies the
// signed amount to the balance. The two persistence writes are independent:
// when the balance write fails after the transaction write succeeded, the
// transaction is committed and returned alongside the error, and the two
// stored keys disagree until the next balance write. There is no
// compensation.
func (s *TransactionStore) AddTransaction(ctx context.Context, in core.TransactionInput) (core.Transaction, error) {
	s.mu.Lock()
	txn := core.Transaction{
		ID:         uuid.NewString(),
		Title:      in.Title,
		Amount:     in.Amount,
		Type:       in.Type,
		Date:       in.Date,
		CategoryID: in.CategoryID,
		Note:       in.Note,
	}
	next := make([]core.Transaction, 0, len(s.txns)+1)
	next = append(next, s.txns...)
	next = append(next, txn)
	if err := s.persistTransactions(ctx, next); err != nil {
		s.mu.Unlock()
		return core.Transaction{}, fmt.Errorf("add transaction: %w", err)
	}
	s.txns = next

	delta := txn.Amount
	if txn.Type == core.Expense {
		delta = -delta
	}
	newBalance := core.Balance{
		Total:         s.balance.Total + delta,
		IsInitialized: s.balance.IsInitialized,
	}
	if err := s.persistBalance(ctx, newBalance); err != nil {
		s.version++
		s.mu.Unlock()
		s.logger.ErrorContext(ctx, "Balance write failed after transaction write",
			log.FieldTransactionID, txn.ID, log.FieldError, err)
		s.publish(ctx, event.KindTransactionAdded, txn.ID)
		return txn, fmt.Errorf("persist balance: %w", err)
	}
	s.balance = newBalance
	s.version++
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Transaction added",
		log.FieldTransactionID, txn.ID,
		log.FieldType, string(txn.Type),
		log.FieldAmountCents, int64(txn.Amount),
		log.FieldCategoryID, txn.CategoryID)
	s.publish(ctx, event.KindTransactionAdded, txn.ID)
	return txn, nil
}

// Transactions returns a snapshot copy in insertion order, not date order.
func (s *TransactionStore) Transactions() []core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Transaction, len(s.txns))
	copy(out, s.txns)
	return out
}

// Balance returns the current balance snapshot.
func (s *TransactionStore) Balance() core.Balance {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balance
}

// TotalIncome sums the amounts of all income transactions.
func (s *TransactionStore) TotalIncome() core.Money {
	return s.sumByType(core.Income)
}

// TotalExpenses sums the amounts of all expense transactions.
func (s *TransactionStore) TotalExpenses() core.Money {
	return s.sumByType(core.Expense)
}

func (s *TransactionStore) sumByType(tt core.TransactionType) core.Money {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sum core.Money
	for _, t := range s.txns {
		if t.Type == tt {
			sum += t.Amount
		}
	}
	return sum
}

// RecentTransactions returns up to n transactions sorted by date
// descending. Same-date transactions keep their insertion order, so the
// result is reproducible. Dates compare lexicographically, which is
// chronological for the YYYY-MM-DD layout.
func (s *TransactionStore) RecentTransactions(n int) []core.Transaction {
	out := s.Transactions()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date > out[j].Date
	})
	if n >= 0 && n < len(out) {
		out = out[:n]
	}
	return out
}

// Loading reports whether the initial Load has not finished yet.
func (s *TransactionStore) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Version is a monotonic counter bumped on every adopted snapshot.
func (s *TransactionStore) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

func (s *TransactionStore) persistTransactions(ctx context.Context, txns []core.Transaction) error {
	data, err := json.Marshal(txns)
	if err != nil {
		return fmt.Errorf("encode transactions: %w", err)
	}
	if err := s.kv.Set(ctx, kv.KeyTransactions, string(data)); err != nil {
		return fmt.Errorf("persist transactions: %w", err)
	}
	return nil
}

func (s *TransactionStore) persistBalance(ctx context.Context, b core.Balance) error {
	data, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("encode balance: %w", err)
	}
	if err := s.kv.Set(ctx, kv.KeyBalance, string(data)); err != nil {
		return fmt.Errorf("persist balance: %w", err)
	}
	return nil
}

func (s *TransactionStore) publish(ctx context.Context, kind, id string) {
	s.notify()
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, event.NewMessage(kind, id)); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish mutation event",
			"kind", kind, log.FieldError, err)
	}
}
