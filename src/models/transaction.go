package models

import (
	"time"

	"github.com/google/uuid"
)

type TransactionType string

const (
	TransactionIncome  TransactionType = "INCOME"
	TransactionExpense TransactionType = "EXPENSE"
)

func (t TransactionType) Valid() bool {
	return t == TransactionIncome || t == TransactionExpense
}

// Signed returns amount with the sign it has on an account balance.
func (t TransactionType) Signed(amount int64) int64 {
	if t == TransactionExpense {
		return -amount
	}
	return amount
}

type Transaction struct {
	ID             uuid.UUID       `json:"id"`
	UserID         uuid.UUID       `json:"user_id"`
	AccountID      uuid.UUID       `json:"account_id"`
	HouseholdID    *uuid.UUID      `json:"household_id,omitempty"`
	IncomeSourceID *uuid.UUID      `json:"income_source_id,omitempty"`
	Type           TransactionType `json:"type"`
	Amount         int64           `json:"amount"`
	CategoryID     uuid.UUID       `json:"category_id"`
	Date           time.Time       `json:"date"`
	Merchant       *string         `json:"merchant,omitempty"`
	Note           *string         `json:"note,omitempty"`
	ExternalID     *string         `json:"external_id,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

type TransactionFilter struct {
	AccountID *uuid.UUID
	From      *time.Time
	To        *time.Time
	Limit     int
}
