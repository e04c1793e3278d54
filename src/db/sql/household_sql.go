package db

import (
	"budget-bee-server/src/models"
	"context"
	"fmt"

	"github.com/google/uuid"
)

// CreateHousehold inserts the household and makes its creator the admin. Run
// it inside a transaction so both rows land together.
func CreateHousehold(ctx context.Context, q DBTX, name string, createdBy uuid.UUID) (*models.Household, error) {
	var h models.Household
	query := `
		INSERT INTO households (name, created_by)
		VALUES ($1, $2)
		RETURNING id, name, created_by, created_at
	`
	err := q.QueryRow(ctx, query, name, createdBy).Scan(&h.ID, &h.Name, &h.CreatedBy, &h.CreatedAt)
	if err != nil {
		return nil, err
	}
	if _, err := UpsertHouseholdMember(ctx, q, h.ID, createdBy, models.HouseholdAdmin); err != nil {
		return nil, err
	}
	h.Members, err = GetHouseholdMembers(ctx, q, h.ID)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func GetHouseholdsForUser(ctx context.Context, q DBTX, userID uuid.UUID) ([]models.Household, error) {
	query := `
		SELECT h.id, h.name, h.created_by, h.created_at
		FROM households h
		JOIN household_members m ON m.household_id = h.id
		WHERE m.user_id = $1
		ORDER BY h.created_at ASC
	`
	rows, err := q.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	households := []models.Household{}
	for rows.Next() {
		var h models.Household
		if err := rows.Scan(&h.ID, &h.Name, &h.CreatedBy, &h.CreatedAt); err != nil {
			rows.Close()
			return nil, err
		}
		households = append(households, h)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range households {
		households[i].Members, err = GetHouseholdMembers(ctx, q, households[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return households, nil
}

// GetHouseholdForMember returns the household only when userID belongs to it.
func GetHouseholdForMember(ctx context.Context, q DBTX, userID, householdID uuid.UUID) (*models.Household, error) {
	var h models.Household
	query := `
		SELECT h.id, h.name, h.created_by, h.created_at
		FROM households h
		JOIN household_members m ON m.household_id = h.id
		WHERE h.id = $1 AND m.user_id = $2
	`
	err := q.QueryRow(ctx, query, householdID, userID).Scan(&h.ID, &h.Name, &h.CreatedBy, &h.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	h.Members, err = GetHouseholdMembers(ctx, q, h.ID)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func GetHouseholdMembers(ctx context.Context, q DBTX, householdID uuid.UUID) ([]models.Member, error) {
	query := `
		SELECT m.household_id, m.user_id, m.role, u.first_name, u.last_name, m.joined_at
		FROM household_members m
		JOIN users u ON u.id = m.user_id
		WHERE m.household_id = $1
		ORDER BY m.joined_at ASC
	`
	rows, err := q.Query(ctx, query, householdID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := []models.Member{}
	for rows.Next() {
		var m models.Member
		if err := rows.Scan(&m.HouseholdID, &m.UserID, &m.Role, &m.FirstName, &m.LastName, &m.JoinedAt); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func GetMemberRole(ctx context.Context, q DBTX, householdID, userID uuid.UUID) (models.HouseholdRole, error) {
	var role models.HouseholdRole
	query := `SELECT role FROM household_members WHERE household_id = $1 AND user_id = $2`
	if err := q.QueryRow(ctx, query, householdID, userID).Scan(&role); err != nil {
		return "", notFound(err)
	}
	return role, nil
}

// UpsertHouseholdMember adds the user with role, leaving an existing
// membership untouched.
func UpsertHouseholdMember(ctx context.Context, q DBTX, householdID, userID uuid.UUID, role models.HouseholdRole) (*models.Member, error) {
	query := `
		INSERT INTO household_members (household_id, user_id, role)
		VALUES ($1, $2, $3)
		ON CONFLICT (household_id, user_id) DO UPDATE SET role = household_members.role
		RETURNING household_id, user_id, role, joined_at
	`
	var m models.Member
	err := q.QueryRow(ctx, query, householdID, userID, role).Scan(&m.HouseholdID, &m.UserID, &m.Role, &m.JoinedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func RemoveHouseholdMember(ctx context.Context, q DBTX, householdID, userID uuid.UUID) error {
	cmd, err := q.Exec(ctx, `DELETE FROM household_members WHERE household_id = $1 AND user_id = $2`, householdID, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("household member %w", ErrNotFound)
	}
	return nil
}
