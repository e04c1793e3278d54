package models

import (
	"time"

	"github.com/google/uuid"
)

type Budget struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"user_id"`
	CategoryID uuid.UUID `json:"category_id"`
	Amount     int64     `json:"amount"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// BudgetStatus is a budget with what was spent against it this month.
type BudgetStatus struct {
	Budget
	CategoryName string `json:"category_name"`
	Spent        int64  `json:"spent"`
	Remaining    int64  `json:"remaining"`
}
