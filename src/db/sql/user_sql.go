package db

import (
	"budget-bee-server/src/models"
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const userColumns = `id, email, first_name, last_name, password_hash, super_admin, locked, last_login, created_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.PasswordHash,
		&u.SuperAdmin, &u.Locked, &u.LastLogin, &u.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func GetUserByID(ctx context.Context, q DBTX, id uuid.UUID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(q.QueryRow(ctx, query, id))
}

func GetUserByEmail(ctx context.Context, q DBTX, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(q.QueryRow(ctx, query, email))
}

func CreateUser(ctx context.Context, q DBTX, req models.RegisterRequest, hashedPassword []byte) (*models.User, error) {
	query := `
		INSERT INTO users (email, first_name, last_name, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + userColumns
	u, err := scanUser(q.QueryRow(ctx, query, req.Email, req.FirstName, req.LastName, hashedPassword))
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return u, nil
}

func GetAllUsers(ctx context.Context, q DBTX) ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at`
	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func UpdateUserLastLogin(ctx context.Context, q DBTX, id uuid.UUID) error {
	_, err := q.Exec(ctx, `UPDATE users SET last_login = NOW() WHERE id = $1`, id)
	return err
}

func UpdateUserProfile(ctx context.Context, q DBTX, id uuid.UUID, email, firstName, lastName string) (*models.User, error) {
	query := `
		UPDATE users
		SET email = $1, first_name = $2, last_name = $3, updated_at = NOW()
		WHERE id = $4
		RETURNING ` + userColumns
	return scanUser(q.QueryRow(ctx, query, email, firstName, lastName, id))
}

func UpdateUserPassword(ctx context.Context, q DBTX, id uuid.UUID, hashedPassword []byte) error {
	cmd, err := q.Exec(ctx, `UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2`, hashedPassword, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("user %w", ErrNotFound)
	}
	return nil
}

func SetUserLocked(ctx context.Context, q DBTX, id uuid.UUID, locked bool) error {
	cmd, err := q.Exec(ctx, `UPDATE users SET locked = $1, updated_at = NOW() WHERE id = $2`, locked, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("user %w", ErrNotFound)
	}
	return nil
}

// DeleteUser removes the user and everything owned by them. Rows that only
// reference the user's accounts are removed first since those foreign keys do
// not cascade.
func DeleteUser(ctx context.Context, q DBTX, id uuid.UUID) error {
	stmts := []string{
		`DELETE FROM bank_links WHERE user_id = $1`,
		`DELETE FROM transactions WHERE user_id = $1`,
		`DELETE FROM income_sources WHERE user_id = $1`,
		`DELETE FROM accounts WHERE user_id = $1`,
	}
	for _, stmt := range stmts {
		if _, err := q.Exec(ctx, stmt, id); err != nil {
			return fmt.Errorf("failed to delete user data: %w", err)
		}
	}
	cmd, err := q.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("user %w", ErrNotFound)
	}
	return nil
}
