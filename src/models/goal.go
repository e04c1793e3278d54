package models

import (
	"time"

	"github.com/google/uuid"
)

type Goal struct {
	ID           uuid.UUID  `json:"id"`
	UserID       uuid.UUID  `json:"user_id"`
	HouseholdID  *uuid.UUID `json:"household_id,omitempty"`
	Name         string     `json:"name"`
	TargetAmount int64      `json:"target_amount"`
	SavedAmount  int64      `json:"saved_amount"`
	Deadline     *time.Time `json:"deadline,omitempty"`
	IsPaid       bool       `json:"is_paid"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
