package db

import (
	"budget-bee-server/src/models"
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const ruleColumns = `id, user_id, name, conditions, category_id, created_at, updated_at`

func scanRule(row pgx.Row) (*models.TransactionRule, error) {
	var r models.TransactionRule
	if err := row.Scan(&r.ID, &r.UserID, &r.Name, &r.Conditions, &r.CategoryID, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, notFound(err)
	}
	return &r, nil
}

func CreateTransactionRule(ctx context.Context, q DBTX, rule *models.TransactionRule) (*models.TransactionRule, error) {
	query := `
		INSERT INTO transaction_rules (user_id, name, conditions, category_id)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + ruleColumns
	return scanRule(q.QueryRow(ctx, query, rule.UserID, rule.Name, rule.Conditions, rule.CategoryID))
}

func GetTransactionRuleByID(ctx context.Context, q DBTX, userID, ruleID uuid.UUID) (*models.TransactionRule, error) {
	query := `SELECT ` + ruleColumns + ` FROM transaction_rules WHERE id = $1 AND user_id = $2`
	return scanRule(q.QueryRow(ctx, query, ruleID, userID))
}

// GetAllTransactionRules returns rules in creation order; the first match wins.
func GetAllTransactionRules(ctx context.Context, q DBTX, userID uuid.UUID) ([]models.TransactionRule, error) {
	query := `SELECT ` + ruleColumns + ` FROM transaction_rules WHERE user_id = $1 ORDER BY created_at, id`
	rows, err := q.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rules := []models.TransactionRule{}
	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, *r)
	}
	return rules, rows.Err()
}

func UpdateTransactionRule(ctx context.Context, q DBTX, rule *models.TransactionRule) (*models.TransactionRule, error) {
	query := `
		UPDATE transaction_rules
		SET name = $1, conditions = $2, category_id = $3, updated_at = NOW()
		WHERE id = $4 AND user_id = $5
		RETURNING ` + ruleColumns
	return scanRule(q.QueryRow(ctx, query, rule.Name, rule.Conditions, rule.CategoryID, rule.ID, rule.UserID))
}

func DeleteTransactionRule(ctx context.Context, q DBTX, userID, ruleID uuid.UUID) error {
	cmd, err := q.Exec(ctx, `DELETE FROM transaction_rules WHERE id = $1 AND user_id = $2`, ruleID, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("transaction rule %w", ErrNotFound)
	}
	return nil
}

// GetRuleCandidates returns all of the user's transactions with the account
// name joined in.
func GetRuleCandidates(ctx context.Context, q DBTX, userID uuid.UUID) ([]models.RuleCandidate, error) {
	query := `
		SELECT t.id, t.user_id, t.account_id, t.household_id, t.income_source_id, t.type, t.amount,
			t.category_id, t.date, t.merchant, t.note, t.external_id, t.created_at, a.name
		FROM transactions t
		JOIN accounts a ON a.id = t.account_id
		WHERE t.user_id = $1
		ORDER BY t.date DESC
	`
	rows, err := q.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	candidates := []models.RuleCandidate{}
	for rows.Next() {
		var c models.RuleCandidate
		t := &c.Transaction
		err := rows.Scan(&t.ID, &t.UserID, &t.AccountID, &t.HouseholdID, &t.IncomeSourceID, &t.Type, &t.Amount,
			&t.CategoryID, &t.Date, &t.Merchant, &t.Note, &t.ExternalID, &t.CreatedAt, &c.AccountName)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}
