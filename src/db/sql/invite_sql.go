package db

import (
	"budget-bee-server/src/models"
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

func CreateInvite(ctx context.Context, q DBTX, email string) (*models.Invite, error) {
	var inv models.Invite
	query := `
		INSERT INTO invites (email)
		VALUES ($1)
		RETURNING id, email, created_at, updated_at
	`
	err := q.QueryRow(ctx, query, strings.ToLower(email)).Scan(&inv.ID, &inv.Email, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func GetAllInvites(ctx context.Context, q DBTX) ([]models.Invite, error) {
	rows, err := q.Query(ctx, `SELECT id, email, created_at, updated_at FROM invites ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	invites := []models.Invite{}
	for rows.Next() {
		var inv models.Invite
		if err := rows.Scan(&inv.ID, &inv.Email, &inv.CreatedAt, &inv.UpdatedAt); err != nil {
			return nil, err
		}
		invites = append(invites, inv)
	}
	return invites, rows.Err()
}

func IsEmailInvited(ctx context.Context, q DBTX, email string) (bool, error) {
	var exists bool
	err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM invites WHERE email = $1)`, strings.ToLower(email)).Scan(&exists)
	return exists, err
}

func DeleteInvite(ctx context.Context, q DBTX, id uuid.UUID) error {
	cmd, err := q.Exec(ctx, `DELETE FROM invites WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("invite %w", ErrNotFound)
	}
	return nil
}
