package events

import (
	"budget-bee-server/src/models"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	TransactionPosted = "transaction.posted"
	IncomeTriggered   = "income.triggered"
)

// TransactionMessage describes one committed ledger write.
type TransactionMessage struct {
	Event          string                 `json:"event"`
	TransactionID  uuid.UUID              `json:"transaction_id"`
	UserID         uuid.UUID              `json:"user_id"`
	AccountID      uuid.UUID              `json:"account_id"`
	IncomeSourceID *uuid.UUID             `json:"income_source_id,omitempty"`
	Type           models.TransactionType `json:"type"`
	Amount         int64                  `json:"amount"`
	Date           time.Time              `json:"date"`
	EmittedAt      time.Time              `json:"emitted_at"`
}

func NewTransactionMessage(event string, t models.Transaction) TransactionMessage {
	return TransactionMessage{
		Event:          event,
		TransactionID:  t.ID,
		UserID:         t.UserID,
		AccountID:      t.AccountID,
		IncomeSourceID: t.IncomeSourceID,
		Type:           t.Type,
		Amount:         t.Amount,
		Date:           t.Date,
		EmittedAt:      time.Now().UTC(),
	}
}

func (m TransactionMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func TransactionMessageFromJSON(data []byte) (*TransactionMessage, error) {
	var msg TransactionMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
