package db

import (
	"budget-bee-server/src/models"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const accountColumns = `id, user_id, name, type, balance, card_number, card_network, card_holder, expiry, color, is_active, created_at, updated_at`

func scanAccount(row pgx.Row) (*models.Account, error) {
	var a models.Account
	err := row.Scan(&a.ID, &a.UserID, &a.Name, &a.Type, &a.Balance, &a.CardNumber, &a.CardNetwork,
		&a.CardHolder, &a.Expiry, &a.Color, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}

func CreateAccount(ctx context.Context, q DBTX, account *models.Account) (*models.Account, error) {
	query := `
		INSERT INTO accounts (user_id, name, type, balance, card_number, card_network, card_holder, expiry, color)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + accountColumns
	return scanAccount(q.QueryRow(ctx, query, account.UserID, account.Name, account.Type, account.Balance,
		account.CardNumber, account.CardNetwork, account.CardHolder, account.Expiry, account.Color))
}

func GetAccountsForUser(ctx context.Context, q DBTX, userID uuid.UUID) ([]models.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts WHERE user_id = $1 AND is_active
		ORDER BY name ASC
	`
	rows, err := q.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	accounts := []models.Account{}
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *a)
	}
	return accounts, rows.Err()
}

func GetAccountByID(ctx context.Context, q DBTX, userID, accountID uuid.UUID) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1 AND user_id = $2 AND is_active`
	return scanAccount(q.QueryRow(ctx, query, accountID, userID))
}

// GetAccountForUpdate locks the active account row until the surrounding
// transaction ends.
func GetAccountForUpdate(ctx context.Context, q DBTX, userID, accountID uuid.UUID) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1 AND user_id = $2 AND is_active FOR UPDATE`
	return scanAccount(q.QueryRow(ctx, query, accountID, userID))
}

func UpdateAccount(ctx context.Context, q DBTX, account *models.Account) (*models.Account, error) {
	query := `
		UPDATE accounts
		SET name = $1, type = $2, card_number = $3, card_network = $4, card_holder = $5,
			expiry = $6, color = $7, updated_at = NOW()
		WHERE id = $8 AND user_id = $9 AND is_active
		RETURNING ` + accountColumns
	return scanAccount(q.QueryRow(ctx, query, account.Name, account.Type, account.CardNumber, account.CardNetwork,
		account.CardHolder, account.Expiry, account.Color, account.ID, account.UserID))
}

func DeactivateAccount(ctx context.Context, q DBTX, userID, accountID uuid.UUID) error {
	query := `UPDATE accounts SET is_active = FALSE, updated_at = NOW() WHERE id = $1 AND user_id = $2 AND is_active`
	cmd, err := q.Exec(ctx, query, accountID, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("account %w", ErrNotFound)
	}
	return nil
}

// AddToAccountBalance applies a signed delta to the cached balance.
func AddToAccountBalance(ctx context.Context, q DBTX, accountID uuid.UUID, delta int64) error {
	query := `UPDATE accounts SET balance = balance + $1, updated_at = NOW() WHERE id = $2`
	cmd, err := q.Exec(ctx, query, delta, accountID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("account %w", ErrNotFound)
	}
	return nil
}

func GetAccountTransactionsSince(ctx context.Context, q DBTX, accountID uuid.UUID, since time.Time, limit int) ([]models.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE account_id = $1 AND date >= $2
		ORDER BY date DESC
		LIMIT $3
	`
	return queryTransactions(ctx, q, query, accountID, since, limit)
}
