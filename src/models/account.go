package models

import (
	"time"

	"github.com/google/uuid"
)

type AccountType string

const (
	AccountTypeBank AccountType = "BANK"
	AccountTypeCash AccountType = "CASH"
	AccountTypeCard AccountType = "CARD"
)

func (t AccountType) Valid() bool {
	switch t {
	case AccountTypeBank, AccountTypeCash, AccountTypeCard:
		return true
	}
	return false
}

type Account struct {
	ID          uuid.UUID   `json:"id"`
	UserID      uuid.UUID   `json:"user_id"`
	Name        string      `json:"name"`
	Type        AccountType `json:"type"`
	Balance     int64       `json:"balance"`
	CardNumber  *string     `json:"card_number,omitempty"`
	CardNetwork *string     `json:"card_network,omitempty"`
	CardHolder  *string     `json:"card_holder,omitempty"`
	Expiry      *string     `json:"expiry,omitempty"`
	Color       *string     `json:"color,omitempty"`
	IsActive    bool        `json:"is_active"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// AccountDetail is an account with the transactions posted to it today.
type AccountDetail struct {
	Account
	Transactions []Transaction `json:"transactions"`
}

type AccountBalance struct {
	ID      uuid.UUID   `json:"id"`
	Name    string      `json:"name"`
	Type    AccountType `json:"type"`
	Balance int64       `json:"balance"`
	Color   *string     `json:"color,omitempty"`
}

type AccountSummary struct {
	TotalBalance int64            `json:"total_balance"`
	Accounts     []AccountBalance `json:"accounts"`
}
