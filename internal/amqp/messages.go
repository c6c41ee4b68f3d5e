package amqp

import (
	"encoding/json"
	"time"

	"agency/internal/core"
)

// Delivery type headers used to dispatch consumed messages.
const (
	TypeTransactionSync   = "transaction.sync"
	TypeTransactionDelete = "transaction.delete"
)

// TransactionSyncMessage asks the worker to mirror one transaction to the
// ledger backup. It carries only the ID; the worker reads the current row
// from the database so it never syncs stale data.
type TransactionSyncMessage struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewTransactionSyncMessage(id int64) *TransactionSyncMessage {
	return &TransactionSyncMessage{ID: id, Timestamp: time.Now()}
}

func (m *TransactionSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func TransactionSyncMessageFromJSON(data []byte) (*TransactionSyncMessage, error) {
	var msg TransactionSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// TransactionDeleteMessage carries a snapshot of the deleted row, since by
// the time the worker handles it the database row is gone.
type TransactionDeleteMessage struct {
	ID          int64     `json:"id"`
	Type        string    `json:"type"`
	Category    string    `json:"category"`
	Amount      float64   `json:"amount"`
	Description string    `json:"description"`
	OccurredAt  time.Time `json:"occurred_at"`
	Timestamp   time.Time `json:"timestamp"`
}

func NewTransactionDeleteMessage(t core.Transaction) *TransactionDeleteMessage {
	return &TransactionDeleteMessage{
		ID:          t.ID,
		Type:        string(t.Type),
		Category:    t.Category,
		Amount:      t.Amount,
		Description: t.Description,
		OccurredAt:  t.OccurredAt,
		Timestamp:   time.Now(),
	}
}

// Transaction rebuilds the row snapshot as a domain value.
func (m *TransactionDeleteMessage) Transaction() core.Transaction {
	return core.Transaction{
		ID:          m.ID,
		Type:        core.TransactionType(m.Type),
		Category:    m.Category,
		Amount:      m.Amount,
		Description: m.Description,
		OccurredAt:  m.OccurredAt,
	}
}

func (m *TransactionDeleteMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func TransactionDeleteMessageFromJSON(data []byte) (*TransactionDeleteMessage, error) {
	var msg TransactionDeleteMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
