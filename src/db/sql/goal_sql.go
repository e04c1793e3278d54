package db

import (
	"budget-bee-server/src/models"
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const goalColumns = `id, user_id, household_id, name, target_amount, saved_amount, deadline, is_paid, created_at, updated_at`

func scanGoal(row pgx.Row) (*models.Goal, error) {
	var g models.Goal
	err := row.Scan(&g.ID, &g.UserID, &g.HouseholdID, &g.Name, &g.TargetAmount, &g.SavedAmount, &g.Deadline,
		&g.IsPaid, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &g, nil
}

func CreateGoal(ctx context.Context, q DBTX, g *models.Goal) (*models.Goal, error) {
	query := `
		INSERT INTO goals (user_id, household_id, name, target_amount, saved_amount, deadline)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + goalColumns
	return scanGoal(q.QueryRow(ctx, query, g.UserID, g.HouseholdID, g.Name, g.TargetAmount, g.SavedAmount, g.Deadline))
}

func GetGoalsForUser(ctx context.Context, q DBTX, userID uuid.UUID) ([]models.Goal, error) {
	query := `SELECT ` + goalColumns + ` FROM goals WHERE user_id = $1 ORDER BY created_at ASC`
	rows, err := q.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	goals := []models.Goal{}
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		goals = append(goals, *g)
	}
	return goals, rows.Err()
}

func GetGoalByID(ctx context.Context, q DBTX, userID, goalID uuid.UUID) (*models.Goal, error) {
	query := `SELECT ` + goalColumns + ` FROM goals WHERE id = $1 AND user_id = $2`
	return scanGoal(q.QueryRow(ctx, query, goalID, userID))
}

// UpdateGoal writes g's fields. saved_amount becomes savedAmount when set,
// otherwise the stored value, plus add; the sum is taken in SQL so concurrent
// increments all land.
func UpdateGoal(ctx context.Context, q DBTX, g *models.Goal, savedAmount *int64, add int64) (*models.Goal, error) {
	query := `
		UPDATE goals
		SET name = $1, target_amount = $2, saved_amount = COALESCE($3::bigint, saved_amount) + $4,
			deadline = $5, updated_at = NOW()
		WHERE id = $6 AND user_id = $7
		RETURNING ` + goalColumns
	return scanGoal(q.QueryRow(ctx, query, g.Name, g.TargetAmount, savedAmount, add, g.Deadline, g.ID, g.UserID))
}

func ToggleGoalPaid(ctx context.Context, q DBTX, userID, goalID uuid.UUID) (*models.Goal, error) {
	query := `
		UPDATE goals SET is_paid = NOT is_paid, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING ` + goalColumns
	return scanGoal(q.QueryRow(ctx, query, goalID, userID))
}

func DeleteGoal(ctx context.Context, q DBTX, userID, goalID uuid.UUID) error {
	cmd, err := q.Exec(ctx, `DELETE FROM goals WHERE id = $1 AND user_id = $2`, goalID, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("goal %w", ErrNotFound)
	}
	return nil
}
