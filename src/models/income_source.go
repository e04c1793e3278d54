package models

import (
	"time"

	"github.com/google/uuid"
)

type IncomeSource struct {
	ID            uuid.UUID  `json:"id"`
	UserID        uuid.UUID  `json:"user_id"`
	AccountID     uuid.UUID  `json:"account_id"`
	CategoryID    *uuid.UUID `json:"category_id,omitempty"`
	Name          string     `json:"name"`
	Amount        int64      `json:"amount"`
	FrequencyDays int        `json:"frequency_days"`
	NextDate      time.Time  `json:"next_date"`
	IsActive      bool       `json:"is_active"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	Account       *Account   `json:"account,omitempty"`
}

// DueAt reports whether the source fires when triggered at asOf.
func (s IncomeSource) DueAt(asOf time.Time) bool {
	return s.IsActive && !s.NextDate.After(asOf)
}

// NextAfter returns the occurrence one interval after next. Days are added
// in UTC; pgx hands timestamptz back in time.Local, where a DST change would
// move the instant by an hour.
func (s IncomeSource) NextAfter(next time.Time) time.Time {
	return next.UTC().AddDate(0, 0, s.FrequencyDays)
}
