package db

import (
	"budget-bee-server/src/models"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const budgetColumns = `id, user_id, category_id, amount, created_at, updated_at`

func scanBudget(row pgx.Row) (*models.Budget, error) {
	var b models.Budget
	if err := row.Scan(&b.ID, &b.UserID, &b.CategoryID, &b.Amount, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, notFound(err)
	}
	return &b, nil
}

func CreateBudget(ctx context.Context, q DBTX, budget *models.Budget) (*models.Budget, error) {
	query := `
		INSERT INTO budgets (user_id, category_id, amount)
		VALUES ($1, $2, $3)
		RETURNING ` + budgetColumns
	return scanBudget(q.QueryRow(ctx, query, budget.UserID, budget.CategoryID, budget.Amount))
}

func GetBudgetByID(ctx context.Context, q DBTX, userID, budgetID uuid.UUID) (*models.Budget, error) {
	query := `SELECT ` + budgetColumns + ` FROM budgets WHERE id = $1 AND user_id = $2`
	return scanBudget(q.QueryRow(ctx, query, budgetID, userID))
}

// GetBudgetStatuses returns every budget of the user with the EXPENSE total of
// its category since monthStart.
func GetBudgetStatuses(ctx context.Context, q DBTX, userID uuid.UUID, monthStart time.Time) ([]models.BudgetStatus, error) {
	query := `
		SELECT b.id, b.user_id, b.category_id, b.amount, b.created_at, b.updated_at, c.name,
			COALESCE((
				SELECT SUM(t.amount) FROM transactions t
				WHERE t.user_id = b.user_id AND t.category_id = b.category_id
					AND t.type = 'EXPENSE' AND t.date >= $2
			), 0)::bigint
		FROM budgets b
		JOIN categories c ON c.id = b.category_id
		WHERE b.user_id = $1
		ORDER BY c.name ASC
	`
	rows, err := q.Query(ctx, query, userID, monthStart)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	statuses := []models.BudgetStatus{}
	for rows.Next() {
		var s models.BudgetStatus
		err := rows.Scan(&s.ID, &s.UserID, &s.CategoryID, &s.Amount, &s.CreatedAt, &s.UpdatedAt, &s.CategoryName, &s.Spent)
		if err != nil {
			return nil, err
		}
		s.Remaining = s.Amount - s.Spent
		statuses = append(statuses, s)
	}
	return statuses, rows.Err()
}

func UpdateBudget(ctx context.Context, q DBTX, budget *models.Budget) (*models.Budget, error) {
	query := `
		UPDATE budgets
		SET amount = $1, category_id = $2, updated_at = NOW()
		WHERE id = $3 AND user_id = $4
		RETURNING ` + budgetColumns
	return scanBudget(q.QueryRow(ctx, query, budget.Amount, budget.CategoryID, budget.ID, budget.UserID))
}

func DeleteBudget(ctx context.Context, q DBTX, userID, budgetID uuid.UUID) error {
	cmd, err := q.Exec(ctx, `DELETE FROM budgets WHERE id = $1 AND user_id = $2`, budgetID, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("budget %w", ErrNotFound)
	}
	return nil
}
