package db

import (
	"budget-bee-server/src/models"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const transactionColumns = `id, user_id, account_id, household_id, income_source_id, type, amount, category_id, date, merchant, note, external_id, created_at`

func scanTransaction(row pgx.Row) (*models.Transaction, error) {
	var t models.Transaction
	err := row.Scan(&t.ID, &t.UserID, &t.AccountID, &t.HouseholdID, &t.IncomeSourceID, &t.Type, &t.Amount,
		&t.CategoryID, &t.Date, &t.Merchant, &t.Note, &t.ExternalID, &t.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

func queryTransactions(ctx context.Context, q DBTX, query string, args ...any) ([]models.Transaction, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	transactions := []models.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, *t)
	}
	return transactions, rows.Err()
}

func InsertTransaction(ctx context.Context, q DBTX, t *models.Transaction) (*models.Transaction, error) {
	query := `
		INSERT INTO transactions (user_id, account_id, household_id, income_source_id, type, amount,
			category_id, date, merchant, note, external_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + transactionColumns
	return scanTransaction(q.QueryRow(ctx, query, t.UserID, t.AccountID, t.HouseholdID, t.IncomeSourceID,
		t.Type, t.Amount, t.CategoryID, t.Date, t.Merchant, t.Note, t.ExternalID))
}

func TransactionExists(ctx context.Context, q DBTX, accountID uuid.UUID, externalID string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM transactions WHERE account_id = $1 AND external_id = $2)`
	err := q.QueryRow(ctx, query, accountID, externalID).Scan(&exists)
	return exists, err
}

func GetTransactionsForUser(ctx context.Context, q DBTX, userID uuid.UUID, filter models.TransactionFilter) ([]models.Transaction, error) {
	where := []string{"user_id = $1"}
	args := []any{userID}
	if filter.AccountID != nil {
		args = append(args, *filter.AccountID)
		where = append(where, fmt.Sprintf("account_id = $%d", len(args)))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		where = append(where, fmt.Sprintf("date >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		where = append(where, fmt.Sprintf("date < $%d", len(args)))
	}
	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	args = append(args, limit)

	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY date DESC, created_at DESC
		LIMIT $` + fmt.Sprint(len(args))
	return queryTransactions(ctx, q, query, args...)
}

func GetHouseholdTransactions(ctx context.Context, q DBTX, householdID uuid.UUID) ([]models.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions WHERE household_id = $1
		ORDER BY date DESC
	`
	return queryTransactions(ctx, q, query, householdID)
}

// GetTransactionsInRange returns the user's transactions in [from, to) oldest
// first. A nil txType selects both kinds.
func GetTransactionsInRange(ctx context.Context, q DBTX, userID uuid.UUID, from, to time.Time, txType *models.TransactionType) ([]models.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE user_id = $1 AND date >= $2 AND date < $3 AND ($4::text IS NULL OR type = $4)
		ORDER BY date ASC, created_at ASC
	`
	return queryTransactions(ctx, q, query, userID, from, to, txType)
}

func SumTransactionsSince(ctx context.Context, q DBTX, userID uuid.UUID, txType models.TransactionType, since time.Time) (int64, error) {
	var total int64
	query := `SELECT COALESCE(SUM(amount), 0)::bigint FROM transactions WHERE user_id = $1 AND type = $2 AND date >= $3`
	err := q.QueryRow(ctx, query, userID, txType, since).Scan(&total)
	return total, err
}

// GetSpendingByCategory totals every expense of the user per category.
func GetSpendingByCategory(ctx context.Context, q DBTX, userID uuid.UUID) ([]models.SpendingSlice, error) {
	query := `
		SELECT c.name, c.color, COALESCE(SUM(t.amount), 0)::bigint
		FROM transactions t
		JOIN categories c ON c.id = t.category_id
		WHERE t.user_id = $1 AND t.type = 'EXPENSE'
		GROUP BY c.id, c.name, c.color
		ORDER BY 3 DESC
	`
	rows, err := q.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	slices := []models.SpendingSlice{}
	for rows.Next() {
		var s models.SpendingSlice
		if err := rows.Scan(&s.CategoryName, &s.Color, &s.Total); err != nil {
			return nil, err
		}
		slices = append(slices, s)
	}
	return slices, rows.Err()
}

func UpdateTransactionCategory(ctx context.Context, q DBTX, transactionID, categoryID uuid.UUID) error {
	_, err := q.Exec(ctx, `UPDATE transactions SET category_id = $1 WHERE id = $2`, categoryID, transactionID)
	return err
}
