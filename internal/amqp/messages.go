package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ChangeKind names the ledger mutation carried by a LedgerChanged message.
type ChangeKind string

const (
	ExpenseAdded    ChangeKind = "expense.added"
	ExpenseDeleted  ChangeKind = "expense.deleted"
	CategoryAdded   ChangeKind = "category.added"
	CategoryUpdated ChangeKind = "category.updated"
	CategoryDeleted ChangeKind = "category.deleted"
)

func (k ChangeKind) Valid() bool {
	switch k {
	case ExpenseAdded, ExpenseDeleted, CategoryAdded, CategoryUpdated, CategoryDeleted:
		return true
	}
	return false
}

// LedgerChanged is a lightweight notification of a committed mutation.
// It carries only identifiers; consumers reload the ledger for details.
// Date is the expense date (YYYY-MM-DD) and is empty for category changes.
type LedgerChanged struct {
	Kind      ChangeKind `json:"kind"`
	ID        string     `json:"id"`
	Date      string     `json:"date,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

var ErrInvalidMessage = errors.New("invalid ledger message")

func NewLedgerChanged(kind ChangeKind, id, date string) *LedgerChanged {
	return &LedgerChanged{
		Kind:      kind,
		ID:        id,
		Date:      date,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *LedgerChanged) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerChangedFromJSON decodes and checks a message body.
func LedgerChangedFromJSON(data []byte) (*LedgerChanged, error) {
	var msg LedgerChanged
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	if !msg.Kind.Valid() {
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidMessage, msg.Kind)
	}
	if msg.ID == "" {
		return nil, fmt.Errorf("%w: missing id", ErrInvalidMessage)
	}
	return &msg, nil
}
