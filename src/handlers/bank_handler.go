package handlers

import (
	"budget-bee-server/src/bank"
	db "budget-bee-server/src/db/sql"
	"budget-bee-server/src/ledger"
	"budget-bee-server/src/middleware"
	"budget-bee-server/src/models"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/plaid/plaid-go/v41/plaid"
)

const maxWebhookSize = 1 << 20

// BankClient is the Plaid surface the handlers use.
type BankClient interface {
	CreateLinkToken(ctx context.Context, userID uuid.UUID) (string, error)
	Exchange(ctx context.Context, publicToken string) (*bank.Item, error)
	Sync(ctx context.Context, accessToken, cursor string) ([]plaid.Transaction, string, error)
	RemoveItem(ctx context.Context, accessToken string) error
	VerifyWebhook(ctx context.Context, body []byte, headers map[string]string) (bool, error)
}

// syncLink pulls new bank transactions for link into its account. Entries go
// through one PostBatch; the cursor only moves once that batch committed.
func syncLink(ctx context.Context, pool *pgxpool.Pool, client BankClient, poster Poster, link *models.BankLink) (*ledger.BatchResult, error) {
	account, err := db.GetAccountByID(ctx, pool, link.UserID, link.AccountID)
	if err != nil {
		return nil, err
	}
	txs, cursor, err := client.Sync(ctx, link.AccessToken, link.SyncCursor)
	if err != nil {
		return nil, err
	}
	entries := bank.ToEntries(txs, link.PlaidAccountID)
	if err := categorize(ctx, pool, link.UserID, account, entries); err != nil {
		return nil, err
	}
	result, err := poster.PostBatch(ctx, link.UserID, link.AccountID, entries)
	if err != nil {
		return nil, err
	}
	if err := db.UpdateBankLinkCursor(ctx, pool, link.ID, cursor); err != nil {
		return nil, err
	}
	return result, nil
}

func CreateLinkToken(client BankClient) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserID(r)
		token, err := client.CreateLinkToken(r.Context(), userID)
		if err != nil {
			log.Printf("ERROR: Plaid link token creation failed for user %s: %v", userID, err)
			writeError(w, http.StatusBadGateway, "Failed to create link token")
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"link_token": token}, "Link token created")
	}
}

// ExchangePublicToken links a Plaid item to one of the user's accounts.
func ExchangePublicToken(pool *pgxpool.Pool, client BankClient) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserID(r)
		var req struct {
			PublicToken    string    `json:"public_token"`
			AccountID      uuid.UUID `json:"account_id"`
			PlaidAccountID *string   `json:"plaid_account_id"`
		}
		if err := decode(r, &req); err != nil {
			log.Printf("ERROR: Failed to decode exchange public token request body for user %s: %v", userID, err)
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if req.PublicToken == "" {
			writeError(w, http.StatusBadRequest, "public_token is required")
			return
		}
		if _, err := db.GetAccountByID(r.Context(), pool, userID, req.AccountID); err != nil {
			log.Printf("ERROR: Bank link to unknown account %s for user %s: %v", req.AccountID, userID, err)
			writeFailure(w, err, "Account not found")
			return
		}

		item, err := client.Exchange(r.Context(), req.PublicToken)
		if err != nil {
			log.Printf("ERROR: Plaid public token exchange failed for user %s: %v", userID, err)
			writeError(w, http.StatusBadGateway, "Failed to exchange public token")
			return
		}

		link, err := db.CreateBankLink(r.Context(), pool, &models.BankLink{
			UserID:          userID,
			AccountID:       req.AccountID,
			ItemID:          item.ItemID,
			AccessToken:     item.AccessToken,
			PlaidAccountID:  req.PlaidAccountID,
			InstitutionName: item.InstitutionName,
		})
		if err != nil {
			if db.IsUniqueViolation(err) {
				writeError(w, http.StatusConflict, "This bank item is already linked")
				return
			}
			log.Printf("ERROR: Failed to store bank link %s for user %s: %v", item.ItemID, userID, err)
			writeFailure(w, err, "Failed to link bank")
			return
		}
		log.Printf("INFO: Linked Plaid item %s to account %s for user %s", item.ItemID, req.AccountID, userID)
		writeJSON(w, http.StatusCreated, link, "Bank linked")
	}
}

func GetBankLinks(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserID(r)
		links, err := db.GetBankLinksForUser(r.Context(), pool, userID)
		if err != nil {
			log.Printf("ERROR: Failed to get bank links for user %s: %v", userID, err)
			writeFailure(w, err, "Failed to fetch bank links")
			return
		}
		writeJSON(w, http.StatusOK, links, "Bank links fetched")
	}
}

func SyncBankLink(pool *pgxpool.Pool, client BankClient, poster Poster) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserID(r)
		linkID, err := parseID(r, "link_id")
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		link, err := db.GetBankLinkByID(r.Context(), pool, userID, linkID)
		if err != nil {
			log.Printf("ERROR: Bank link %s not found for user %s: %v", linkID, userID, err)
			writeFailure(w, err, "Bank link not found")
			return
		}

		result, err := syncLink(r.Context(), pool, client, poster, link)
		if err != nil {
			log.Printf("ERROR: Failed to sync bank link %s for user %s: %v", linkID, userID, err)
			writeFailure(w, err, "Failed to sync bank transactions")
			return
		}
		log.Printf("INFO: Synced bank link %s for user %s: %d posted, %d skipped", linkID, userID, len(result.Posted), result.Skipped)
		writeJSON(w, http.StatusOK, result, "Bank transactions synced")
	}
}

// DeleteBankLink removes the item at Plaid and forgets it. Transactions that
// were already imported stay on the account.
func DeleteBankLink(pool *pgxpool.Pool, client BankClient) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserID(r)
		linkID, err := parseID(r, "link_id")
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		link, err := db.GetBankLinkByID(r.Context(), pool, userID, linkID)
		if err != nil {
			log.Printf("ERROR: Bank link %s not found for user %s: %v", linkID, userID, err)
			writeFailure(w, err, "Bank link not found")
			return
		}
		if err := client.RemoveItem(r.Context(), link.AccessToken); err != nil {
			log.Printf("ERROR: Failed to remove Plaid item %s for user %s: %v", link.ItemID, userID, err)
		}
		if err := db.DeleteBankLink(r.Context(), pool, userID, linkID); err != nil {
			log.Printf("ERROR: Failed to delete bank link %s for user %s: %v", linkID, userID, err)
			writeFailure(w, err, "Bank link not found")
			return
		}
		log.Printf("INFO: Deleted bank link %s for user %s", linkID, userID)
		writeJSON(w, http.StatusOK, nil, "Bank link deleted")
	}
}

func BankWebhook(pool *pgxpool.Pool, client BankClient, poster Poster) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookSize))
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid webhook body")
			return
		}

		headers := make(map[string]string, len(r.Header))
		for k := range r.Header {
			headers[k] = r.Header.Get(k)
		}
		ok, err := client.VerifyWebhook(r.Context(), body, headers)
		if err != nil || !ok {
			log.Printf("ERROR: Rejected unverified Plaid webhook: %v", err)
			writeError(w, http.StatusUnauthorized, "Invalid webhook signature")
			return
		}

		var event bank.WebhookEvent
		if err := json.Unmarshal(body, &event); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid webhook body")
			return
		}
		if !event.NeedsSync() {
			writeJSON(w, http.StatusOK, nil, "Webhook ignored")
			return
		}

		link, err := db.GetBankLinkByItemID(r.Context(), pool, event.ItemID)
		if err != nil {
			log.Printf("ERROR: Webhook for unknown Plaid item %s: %v", event.ItemID, err)
			writeFailure(w, err, "Bank link not found")
			return
		}
		result, err := syncLink(r.Context(), pool, client, poster, link)
		if err != nil {
			log.Printf("ERROR: Webhook sync failed for item %s, user %s: %v", event.ItemID, link.UserID, err)
			writeFailure(w, err, "Failed to sync bank transactions")
			return
		}
		log.Printf("INFO: Webhook synced item %s for user %s: %d posted, %d skipped", event.ItemID, link.UserID, len(result.Posted), result.Skipped)
		writeJSON(w, http.StatusOK, nil, "Webhook processed")
	}
}
