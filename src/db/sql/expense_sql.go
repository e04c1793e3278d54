package db

import (
	"budget-bee-server/src/models"
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const expenseColumns = `id, user_id, household_id, group_name, name, amount, due_date, priority, logo_url, is_paid, created_at, updated_at`

// visibleExpense matches expenses owned by the user or by a household the
// user belongs to. $2 is the user id.
const visibleExpense = `(user_id = $2 OR household_id IN (SELECT household_id FROM household_members WHERE user_id = $2))`

func scanExpense(row pgx.Row) (*models.Expense, error) {
	var e models.Expense
	err := row.Scan(&e.ID, &e.UserID, &e.HouseholdID, &e.GroupName, &e.Name, &e.Amount, &e.DueDate,
		&e.Priority, &e.LogoURL, &e.IsPaid, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &e, nil
}

func queryExpenses(ctx context.Context, q DBTX, query string, args ...any) ([]models.Expense, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	expenses := []models.Expense{}
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, *e)
	}
	return expenses, rows.Err()
}

// GetExpenses lists expenses by scope: "personal" for the user's own,
// "household" for one household, anything else for both.
func GetExpenses(ctx context.Context, q DBTX, userID uuid.UUID, scope string, householdID *uuid.UUID) ([]models.Expense, error) {
	where := `user_id = $1 OR household_id = $2`
	args := []any{userID, householdID}
	switch scope {
	case "personal":
		where = `user_id = $1`
		args = []any{userID}
	case "household":
		where = `household_id = $1`
		args = []any{householdID}
	}
	query := `
		SELECT ` + expenseColumns + `
		FROM expenses
		WHERE ` + where + `
		ORDER BY group_name ASC, created_at ASC
	`
	return queryExpenses(ctx, q, query, args...)
}

func GetHouseholdExpenses(ctx context.Context, q DBTX, householdID uuid.UUID) ([]models.Expense, error) {
	query := `
		SELECT ` + expenseColumns + `
		FROM expenses WHERE household_id = $1
		ORDER BY group_name ASC, created_at ASC
	`
	return queryExpenses(ctx, q, query, householdID)
}

// CreateExpense stores a household expense without an owning user, matching
// how household bills are shared.
func CreateExpense(ctx context.Context, q DBTX, e *models.Expense) (*models.Expense, error) {
	query := `
		INSERT INTO expenses (user_id, household_id, group_name, name, amount, due_date, priority, logo_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + expenseColumns
	userID := e.UserID
	if e.HouseholdID != nil {
		userID = nil
	}
	return scanExpense(q.QueryRow(ctx, query, userID, e.HouseholdID, e.GroupName, e.Name, e.Amount, e.DueDate,
		e.Priority, e.LogoURL))
}

func GetExpenseForUser(ctx context.Context, q DBTX, userID, expenseID uuid.UUID) (*models.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE id = $1 AND ` + visibleExpense
	return scanExpense(q.QueryRow(ctx, query, expenseID, userID))
}

func UpdateExpense(ctx context.Context, q DBTX, userID uuid.UUID, e *models.Expense) (*models.Expense, error) {
	query := `
		UPDATE expenses
		SET group_name = $3, name = $4, amount = $5, due_date = $6, priority = $7, logo_url = $8, updated_at = NOW()
		WHERE id = $1 AND ` + visibleExpense + `
		RETURNING ` + expenseColumns
	return scanExpense(q.QueryRow(ctx, query, e.ID, userID, e.GroupName, e.Name, e.Amount, e.DueDate,
		e.Priority, e.LogoURL))
}

func ToggleExpensePaid(ctx context.Context, q DBTX, userID, expenseID uuid.UUID) (*models.Expense, error) {
	query := `
		UPDATE expenses SET is_paid = NOT is_paid, updated_at = NOW()
		WHERE id = $1 AND ` + visibleExpense + `
		RETURNING ` + expenseColumns
	return scanExpense(q.QueryRow(ctx, query, expenseID, userID))
}

func DeleteExpense(ctx context.Context, q DBTX, userID, expenseID uuid.UUID) error {
	cmd, err := q.Exec(ctx, `DELETE FROM expenses WHERE id = $1 AND `+visibleExpense, expenseID, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("expense %w", ErrNotFound)
	}
	return nil
}
