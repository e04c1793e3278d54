package models

import (
	"time"

	"github.com/google/uuid"
)

type BankLink struct {
	ID              uuid.UUID `json:"id"`
	UserID          uuid.UUID `json:"user_id"`
	AccountID       uuid.UUID `json:"account_id"`
	ItemID          string    `json:"item_id"`
	AccessToken     string    `json:"-"`
	PlaidAccountID  *string   `json:"plaid_account_id,omitempty"`
	InstitutionName *string   `json:"institution_name,omitempty"`
	SyncCursor      string    `json:"-"`
	CreatedAt       time.Time `json:"created_at"`
}
