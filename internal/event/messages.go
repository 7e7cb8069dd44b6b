package event

import (
	"encoding/json"
	"time"
)

// Mutation kinds published by the stores.
const (
	KindCategoryAdded    = "category.added"
	KindCategoryUpdated  = "category.updated"
	KindTransactionAdded = "transaction.added"
	KindBalanceSet       = "balance.set"
)

// Message announces a store mutation. It carries only the kind and the id
// of the touched record; consumers fetch current state themselves, so a
// lost message costs nothing but a stale view.
type Message struct {
	Kind string    `json:"kind"`
	ID   string    `json:"id,omitempty"`
	At   time.Time `json:"at"`
}

func NewMessage(kind, id string) Message {
	return Message{
		Kind: kind,
		ID:   id,
		At:   time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m Message) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// FromJSON creates a message from JSON bytes
func FromJSON(data []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return Message{}, err
	}
	return m, nil
}
