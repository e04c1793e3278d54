package db

import (
	"budget-bee-server/src/models"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const incomeSourceColumns = `id, user_id, account_id, category_id, name, amount, frequency_days, next_date, is_active, created_at, updated_at`

func scanIncomeSource(row pgx.Row) (*models.IncomeSource, error) {
	var s models.IncomeSource
	err := row.Scan(&s.ID, &s.UserID, &s.AccountID, &s.CategoryID, &s.Name, &s.Amount, &s.FrequencyDays,
		&s.NextDate, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

func queryIncomeSources(ctx context.Context, q DBTX, query string, args ...any) ([]models.IncomeSource, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sources := []models.IncomeSource{}
	for rows.Next() {
		s, err := scanIncomeSource(rows)
		if err != nil {
			return nil, err
		}
		sources = append(sources, *s)
	}
	return sources, rows.Err()
}

func CreateIncomeSource(ctx context.Context, q DBTX, source *models.IncomeSource) (*models.IncomeSource, error) {
	query := `
		INSERT INTO income_sources (user_id, account_id, category_id, name, amount, frequency_days, next_date, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + incomeSourceColumns
	return scanIncomeSource(q.QueryRow(ctx, query, source.UserID, source.AccountID, source.CategoryID, source.Name,
		source.Amount, source.FrequencyDays, source.NextDate, source.IsActive))
}

// GetIncomeSourcesForUser lists every source with its account, oldest first.
func GetIncomeSourcesForUser(ctx context.Context, q DBTX, userID uuid.UUID) ([]models.IncomeSource, error) {
	query := `
		SELECT s.id, s.user_id, s.account_id, s.category_id, s.name, s.amount, s.frequency_days, s.next_date,
			s.is_active, s.created_at, s.updated_at,
			a.id, a.user_id, a.name, a.type, a.balance, a.card_number, a.card_network, a.card_holder,
			a.expiry, a.color, a.is_active, a.created_at, a.updated_at
		FROM income_sources s
		JOIN accounts a ON a.id = s.account_id
		WHERE s.user_id = $1
		ORDER BY s.created_at ASC, s.id ASC
	`
	rows, err := q.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sources := []models.IncomeSource{}
	for rows.Next() {
		var s models.IncomeSource
		var a models.Account
		err := rows.Scan(&s.ID, &s.UserID, &s.AccountID, &s.CategoryID, &s.Name, &s.Amount, &s.FrequencyDays,
			&s.NextDate, &s.IsActive, &s.CreatedAt, &s.UpdatedAt,
			&a.ID, &a.UserID, &a.Name, &a.Type, &a.Balance, &a.CardNumber, &a.CardNetwork, &a.CardHolder,
			&a.Expiry, &a.Color, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
		if err != nil {
			return nil, err
		}
		s.Account = &a
		sources = append(sources, s)
	}
	return sources, rows.Err()
}

func GetIncomeSourceByID(ctx context.Context, q DBTX, userID, sourceID uuid.UUID) (*models.IncomeSource, error) {
	query := `SELECT ` + incomeSourceColumns + ` FROM income_sources WHERE id = $1 AND user_id = $2`
	return scanIncomeSource(q.QueryRow(ctx, query, sourceID, userID))
}

func UpdateIncomeSource(ctx context.Context, q DBTX, source *models.IncomeSource) (*models.IncomeSource, error) {
	query := `
		UPDATE income_sources
		SET account_id = $1, category_id = $2, name = $3, amount = $4, frequency_days = $5,
			next_date = $6, is_active = $7, updated_at = NOW()
		WHERE id = $8 AND user_id = $9
		RETURNING ` + incomeSourceColumns
	return scanIncomeSource(q.QueryRow(ctx, query, source.AccountID, source.CategoryID, source.Name, source.Amount,
		source.FrequencyDays, source.NextDate, source.IsActive, source.ID, source.UserID))
}

func DeleteIncomeSource(ctx context.Context, q DBTX, userID, sourceID uuid.UUID) error {
	cmd, err := q.Exec(ctx, `DELETE FROM income_sources WHERE id = $1 AND user_id = $2`, sourceID, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("income source %w", ErrNotFound)
	}
	return nil
}

func HasDueIncomeSources(ctx context.Context, q DBTX, userID uuid.UUID, asOf time.Time) (bool, error) {
	var due bool
	query := `SELECT EXISTS (SELECT 1 FROM income_sources WHERE user_id = $1 AND is_active AND next_date <= $2)`
	err := q.QueryRow(ctx, query, userID, asOf).Scan(&due)
	return due, err
}

// GetDueIncomeSourcesForUpdate locks the user's due sources in creation order.
// A concurrent caller blocks on the lock and, once it is released, only sees
// rows whose committed next_date is still due.
func GetDueIncomeSourcesForUpdate(ctx context.Context, q DBTX, userID uuid.UUID, asOf time.Time) ([]models.IncomeSource, error) {
	query := `
		SELECT ` + incomeSourceColumns + `
		FROM income_sources
		WHERE user_id = $1 AND is_active AND next_date <= $2
		ORDER BY created_at ASC, id ASC
		FOR UPDATE
	`
	return queryIncomeSources(ctx, q, query, userID, asOf)
}

func SetIncomeSourceNextDate(ctx context.Context, q DBTX, sourceID uuid.UUID, next time.Time) error {
	cmd, err := q.Exec(ctx, `UPDATE income_sources SET next_date = $1, updated_at = NOW() WHERE id = $2`, next, sourceID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("income source %w", ErrNotFound)
	}
	return nil
}

func GetUsersWithDueIncome(ctx context.Context, q DBTX, asOf time.Time) ([]uuid.UUID, error) {
	query := `
		SELECT user_id
		FROM income_sources
		WHERE is_active AND next_date <= $1
		GROUP BY user_id
		ORDER BY MIN(created_at)
	`
	rows, err := q.Query(ctx, query, asOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		users = append(users, id)
	}
	return users, rows.Err()
}
