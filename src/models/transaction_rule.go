package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type TransactionRule struct {
	ID         uuid.UUID       `json:"id"`
	UserID     uuid.UUID       `json:"user_id"`
	Name       string          `json:"name"`
	Conditions json.RawMessage `json:"conditions"` // JSONB
	CategoryID uuid.UUID       `json:"category_id"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// RuleCandidate is a transaction plus the fields rules can match on that live
// outside the transactions table.
type RuleCandidate struct {
	Transaction
	AccountName string `json:"account_name"`
}
