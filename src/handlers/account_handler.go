package handlers

import (
	cache "budget-bee-server/src/db"
	db "budget-bee-server/src/db/sql"
	"budget-bee-server/src/middleware"
	"budget-bee-server/src/models"
	"budget-bee-server/src/reports"
	"budget-bee-server/src/statement"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	accountsSummaryCacheName = "accounts_summary"
	maxStatementSize         = 5 << 20
	accountDetailLimit       = 50
)

type accountRequest struct {
	Name        string             `json:"name"`
	Type        models.AccountType `json:"type"`
	Balance     int64              `json:"balance"`
	CardNumber  *string            `json:"card_number"`
	CardNetwork *string            `json:"card_network"`
	CardHolder  *string            `json:"card_holder"`
	Expiry      *string            `json:"expiry"`
	Color       *string            `json:"color"`
}

func (req *accountRequest) validate() string {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return "Account name is required"
	}
	if !req.Type.Valid() {
		return "Account type must be BANK, CASH or CARD"
	}
	return ""
}

func (req *accountRequest) toAccount() *models.Account {
	return &models.Account{
		Name:        req.Name,
		Type:        req.Type,
		Balance:     req.Balance,
		CardNumber:  req.CardNumber,
		CardNetwork: req.CardNetwork,
		CardHolder:  req.CardHolder,
		Expiry:      req.Expiry,
		Color:       req.Color,
	}
}

func GetAccounts(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserID(r)
		accounts, err := db.GetAccountsForUser(r.Context(), pool, userID)
		if err != nil {
			log.Printf("ERROR: Failed to get accounts for user %s: %v", userID, err)
			writeFailure(w, err, "Failed to fetch accounts")
			return
		}
		writeJSON(w, http.StatusOK, accounts, "Accounts fetched")
	}
}

func CreateAccount(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserID(r)
		var req accountRequest
		if err := decode(r, &req); err != nil {
			log.Printf("ERROR: Failed to decode create account request body for user %s: %v", userID, err)
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if msg := req.validate(); msg != "" {
			writeError(w, http.StatusBadRequest, msg)
			return
		}

		account := req.toAccount()
		account.UserID = userID
		created, err := db.CreateAccount(r.Context(), pool, account)
		if err != nil {
			log.Printf("ERROR: Failed to create account for user %s: %v", userID, err)
			writeFailure(w, err, "Failed to create account")
			return
		}
		cache.ClearUserCaches(userID)
		log.Printf("INFO: Created account %s for user %s", created.ID, userID)
		writeJSON(w, http.StatusCreated, created, "Account created")
	}
}

func GetAccountsSummary(pool *pgxpool.Pool, ttl time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserID(r)
		cacheKey := cache.UserCacheKey(userID, accountsSummaryCacheName)
		if cached, found := cache.GetCache(cacheKey); found {
			if summary, ok := cached.(models.AccountSummary); ok {
				writeJSON(w, http.StatusOK, summary, "Accounts summary fetched")
				return
			}
		}

		accounts, err := db.GetAccountsForUser(r.Context(), pool, userID)
		if err != nil {
			log.Printf("ERROR: Failed to get accounts summary for user %s: %v", userID, err)
			writeFailure(w, err, "Failed to fetch accounts summary")
			return
		}
		totals := reports.Summarize(accounts, 0, 0)
		summary := models.AccountSummary{TotalBalance: totals.TotalBalance, Accounts: totals.AccountBreakdown}
		cache.SetUserCache(userID, cacheKey, summary, ttl)
		writeJSON(w, http.StatusOK, summary, "Accounts summary fetched")
	}
}

func GetAccount(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserID(r)
		accountID, err := parseID(r, "account_id")
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		account, err := db.GetAccountByID(r.Context(), pool, userID, accountID)
		if err != nil {
			log.Printf("ERROR: Account %s not found for user %s: %v", accountID, userID, err)
			writeFailure(w, err, "Account not found")
			return
		}
		txs, err := db.GetAccountTransactionsSince(r.Context(), pool, accountID, reports.DayStart(time.Now()), accountDetailLimit)
		if err != nil {
			log.Printf("ERROR: Failed to get today's transactions for account %s, user %s: %v", accountID, userID, err)
			writeFailure(w, err, "Failed to fetch account")
			return
		}
		writeJSON(w, http.StatusOK, models.AccountDetail{Account: *account, Transactions: txs}, "Account fetched")
	}
}

func UpdateAccount(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserID(r)
		accountID, err := parseID(r, "account_id")
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		var req accountRequest
		if err := decode(r, &req); err != nil {
			log.Printf("ERROR: Failed to decode update account request body for user %s: %v", userID, err)
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if msg := req.validate(); msg != "" {
			writeError(w, http.StatusBadRequest, msg)
			return
		}

		// The balance only moves through the ledger, so req.Balance is ignored.
		account := req.toAccount()
		account.ID = accountID
		account.UserID = userID
		updated, err := db.UpdateAccount(r.Context(), pool, account)
		if err != nil {
			log.Printf("ERROR: Failed to update account %s for user %s: %v", accountID, userID, err)
			writeFailure(w, err, "Account not found")
			return
		}
		cache.ClearUserCaches(userID)
		log.Printf("INFO: Updated account %s for user %s", accountID, userID)
		writeJSON(w, http.StatusOK, updated, "Account updated")
	}
}

func DeleteAccount(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserID(r)
		accountID, err := parseID(r, "account_id")
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := db.DeactivateAccount(r.Context(), pool, userID, accountID); err != nil {
			log.Printf("ERROR: Failed to delete account %s for user %s: %v", accountID, userID, err)
			writeFailure(w, err, "Account not found")
			return
		}
		cache.ClearUserCaches(userID)
		log.Printf("INFO: Deactivated account %s for user %s", accountID, userID)
		writeJSON(w, http.StatusOK, nil, "Account deleted")
	}
}

// ImportStatement posts every transaction of an uploaded OFX or QFX file to
// the account. Lines already imported are skipped by their FITID.
func ImportStatement(pool *pgxpool.Pool, poster Poster) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserID(r)
		accountID, err := parseID(r, "account_id")
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		account, err := db.GetAccountByID(r.Context(), pool, userID, accountID)
		if err != nil {
			log.Printf("ERROR: Import into unknown account %s for user %s: %v", accountID, userID, err)
			writeFailure(w, err, "Account not found")
			return
		}

		entries, err := statement.Parse(http.MaxBytesReader(w, r.Body, maxStatementSize))
		if err != nil {
			log.Printf("ERROR: Failed to parse statement for account %s, user %s: %v", accountID, userID, err)
			if errors.Is(err, statement.ErrEmpty) {
				writeError(w, http.StatusBadRequest, "Statement contains no transactions")
				return
			}
			writeError(w, http.StatusBadRequest, "Invalid statement file")
			return
		}

		if err := categorize(r.Context(), pool, userID, account, entries); err != nil {
			log.Printf("ERROR: Failed to load transaction rules for user %s: %v", userID, err)
			writeFailure(w, err, "Failed to import statement")
			return
		}

		result, err := poster.PostBatch(r.Context(), userID, accountID, entries)
		if err != nil {
			log.Printf("ERROR: Failed to import statement into account %s for user %s: %v", accountID, userID, err)
			writeFailure(w, err, "Failed to import statement")
			return
		}
		log.Printf("INFO: Imported %d transactions (%d skipped) into account %s for user %s",
			len(result.Posted), result.Skipped, accountID, userID)
		writeJSON(w, http.StatusOK, result, "Statement imported")
	}
}
