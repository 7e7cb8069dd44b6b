package core

import (
	"errors"
	"strings"
	"time"
)

const (
	// Income increases the running balance.
	Income TransactionType = "income"
	// Expense decreases the running balance.
	Expense TransactionType = "expense"
)

// DateLayout is the calendar-date format used on transactions.
const DateLayout = "2006-01-02"

type (
	// TransactionType determines the sign of a transaction's balance impact.
	TransactionType string

	// Category is a user-defined spending/income bucket. Amount and Count are
	// running totals of the transactions folded into it.
	Category struct {
		ID     string `json:"id"`
		Name   string `json:"name"`
		Icon   string `json:"icon"`
		Color  string `json:"color"`
		Amount Money  `json:"amount"`
		Count  int64  `json:"count"`
	}

	// Transaction is a single recorded income or expense event. Immutable
	// after creation. CategoryID is a weak reference: it is never checked
	// against the category list.
	Transaction struct {
		ID         string          `json:"id"`
		Title      string          `json:"title"`
		Amount     Money           `json:"amount"`
		Type       TransactionType `json:"type"`
		Date       string          `json:"date"`
		CategoryID string          `json:"categoryId"`
		Note       string          `json:"note,omitempty"`
	}

	// Balance is the single running net total. IsInitialized gates the
	// one-time "set initial amount" prompt in clients.
	Balance struct {
		Total         Money `json:"total"`
		IsInitialized bool  `json:"isInitialized"`
	}

	// TransactionInput carries caller-supplied fields for a new transaction.
	// The store adopts them verbatim; validation happens here, on the caller
	// side, before the store is invoked.
	TransactionInput struct {
		Title      string
		Amount     Money
		Type       TransactionType
		Date       string
		CategoryID string
		Note       string
	}

	// CategoryInput carries caller-supplied fields for a new category.
	// Amount and Count may be set by callers but are always ignored: a new
	// category starts empty.
	CategoryInput struct {
		Name   string
		Icon   string
		Color  string
		Amount Money
		Count  int64
	}
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidType   = errors.New("invalid transaction type")
	ErrInvalidDate   = errors.New("invalid date")
	ErrEmptyTitle    = errors.New("empty title")
	ErrEmptyName     = errors.New("empty category name")
	ErrEmptyIcon     = errors.New("empty category icon")
	ErrEmptyColor    = errors.New("empty category color")
	ErrNoCategory    = errors.New("no category selected")
)

// IsValid reports whether the type is one of the two known values.
func (t TransactionType) IsValid() bool {
	switch t {
	case Income, Expense:
		return true
	default:
		return false
	}
}

func (in TransactionInput) Validate() error {
	if len(strings.TrimSpace(in.Title)) == 0 {
		return ErrEmptyTitle
	}
	if len(in.Title) > 200 {
		return errors.New("title too long (max 200 characters)")
	}
	if err := in.Amount.Validate(); err != nil {
		return err
	}
	if !in.Type.IsValid() {
		return ErrInvalidType
	}
	if _, err := time.Parse(DateLayout, in.Date); err != nil {
		return ErrInvalidDate
	}
	if strings.TrimSpace(in.CategoryID) == "" {
		return ErrNoCategory
	}
	return nil
}

func (in CategoryInput) Validate() error {
	if len(strings.TrimSpace(in.Name)) == 0 {
		return ErrEmptyName
	}
	if len(in.Name) > 100 {
		return errors.New("category name too long (max 100 characters)")
	}
	if strings.TrimSpace(in.Icon) == "" {
		return ErrEmptyIcon
	}
	if strings.TrimSpace(in.Color) == "" {
		return ErrEmptyColor
	}
	return nil
}

// DefaultCategories returns the seed set adopted on first run, before the
// user has created any category of their own. All running totals start at
// zero.
func DefaultCategories() []Category {
	return []Category{
		{ID: "1", Name: "Food & Drinks", Icon: "cutlery", Color: "#f97316"},
		{ID: "2", Name: "Smoking", Icon: "fire", Color: "#64748b"},
		{ID: "3", Name: "Drinks", Icon: "glass", Color: "#8b5cf6"},
		{ID: "4", Name: "Shopping", Icon: "shopping-cart", Color: "#06b6d4"},
		{ID: "5", Name: "Transportation", Icon: "car", Color: "#ec4899"},
		{ID: "6", Name: "Bills", Icon: "file-text-o", Color: "#f43f5e"},
		{ID: "7", Name: "Entertainment", Icon: "gamepad", Color: "#22c55e"},
		{ID: "8", Name: "Salary", Icon: "money", Color: "#22c55e"},
	}
}
