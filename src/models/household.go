package models

import (
	"time"

	"github.com/google/uuid"
)

type HouseholdRole string

const (
	HouseholdAdmin  HouseholdRole = "ADMIN"
	HouseholdMember HouseholdRole = "MEMBER"
)

type Household struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedBy uuid.UUID `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	Members   []Member  `json:"members"`
}

type Member struct {
	HouseholdID uuid.UUID     `json:"household_id"`
	UserID      uuid.UUID     `json:"user_id"`
	Role        HouseholdRole `json:"role"`
	FirstName   string        `json:"first_name"`
	LastName    string        `json:"last_name"`
	JoinedAt    time.Time     `json:"joined_at"`
}
