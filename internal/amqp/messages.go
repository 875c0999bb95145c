package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ExpenseSyncMessage asks the export worker to mirror one expense row.
// It carries only the ID; the worker fetches the full row from storage.
type ExpenseSyncMessage struct {
	ExpenseID uuid.UUID `json:"expense_id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewExpenseSyncMessage(expenseID uuid.UUID) *ExpenseSyncMessage {
	return &ExpenseSyncMessage{
		ExpenseID: expenseID,
		Timestamp: time.Now(),
	}
}

func (m *ExpenseSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ExpenseSyncMessageFromJSON(data []byte) (*ExpenseSyncMessage, error) {
	var msg ExpenseSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
