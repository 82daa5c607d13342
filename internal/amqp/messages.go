package amqp

import (
	"encoding/json"
	"time"
)

// Event kinds carried on the wire.
const (
	EventExpenseCreated  = "expense.created"
	EventExpenseUpdated  = "expense.updated"
	EventExpenseDeleted  = "expense.deleted"
	EventExpenseImported = "expense.imported"
	EventRatesRefreshed  = "rates.refreshed"
)

// ChangeMessage is a lightweight notification of a data change. It carries
// only identifiers; consumers fetch the full record from the store.
type ChangeMessage struct {
	Kind      string    `json:"kind"`
	ExpenseID string    `json:"expense_id,omitempty"`
	Count     int       `json:"count,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewChangeMessage creates a change notification for a single expense.
func NewChangeMessage(kind, expenseID string) *ChangeMessage {
	return &ChangeMessage{
		Kind:      kind,
		ExpenseID: expenseID,
		Timestamp: time.Now(),
	}
}

// NewBatchMessage creates a change notification for a batch operation,
// such as an import.
func NewBatchMessage(kind string, count int) *ChangeMessage {
	return &ChangeMessage{
		Kind:      kind,
		Count:     count,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ChangeMessageFromJSON creates a message from JSON bytes
func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
