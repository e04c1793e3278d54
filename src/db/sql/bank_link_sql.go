package db

import (
	"budget-bee-server/src/models"
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const bankLinkColumns = `id, user_id, account_id, item_id, access_token, plaid_account_id, institution_name, sync_cursor, created_at`

func scanBankLink(row pgx.Row) (*models.BankLink, error) {
	var l models.BankLink
	err := row.Scan(&l.ID, &l.UserID, &l.AccountID, &l.ItemID, &l.AccessToken, &l.PlaidAccountID,
		&l.InstitutionName, &l.SyncCursor, &l.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &l, nil
}

func CreateBankLink(ctx context.Context, q DBTX, l *models.BankLink) (*models.BankLink, error) {
	query := `
		INSERT INTO bank_links (user_id, account_id, item_id, access_token, plaid_account_id, institution_name)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + bankLinkColumns
	return scanBankLink(q.QueryRow(ctx, query, l.UserID, l.AccountID, l.ItemID, l.AccessToken, l.PlaidAccountID, l.InstitutionName))
}

func GetBankLinksForUser(ctx context.Context, q DBTX, userID uuid.UUID) ([]models.BankLink, error) {
	rows, err := q.Query(ctx, `SELECT `+bankLinkColumns+` FROM bank_links WHERE user_id = $1 ORDER BY created_at`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	links := []models.BankLink{}
	for rows.Next() {
		l, err := scanBankLink(rows)
		if err != nil {
			return nil, err
		}
		links = append(links, *l)
	}
	return links, rows.Err()
}

func GetBankLinkByID(ctx context.Context, q DBTX, userID, linkID uuid.UUID) (*models.BankLink, error) {
	return scanBankLink(q.QueryRow(ctx, `SELECT `+bankLinkColumns+` FROM bank_links WHERE id = $1 AND user_id = $2`, linkID, userID))
}

func GetBankLinkByItemID(ctx context.Context, q DBTX, itemID string) (*models.BankLink, error) {
	return scanBankLink(q.QueryRow(ctx, `SELECT `+bankLinkColumns+` FROM bank_links WHERE item_id = $1`, itemID))
}

func UpdateBankLinkCursor(ctx context.Context, q DBTX, linkID uuid.UUID, cursor string) error {
	_, err := q.Exec(ctx, `UPDATE bank_links SET sync_cursor = $1 WHERE id = $2`, cursor, linkID)
	return err
}

func DeleteBankLink(ctx context.Context, q DBTX, userID, linkID uuid.UUID) error {
	cmd, err := q.Exec(ctx, `DELETE FROM bank_links WHERE id = $1 AND user_id = $2`, linkID, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("bank link %w", ErrNotFound)
	}
	return nil
}
