package handlers

import (
	db "budget-bee-server/src/db/sql"
	"budget-bee-server/src/ledger"
	"budget-bee-server/src/middleware"
	"budget-bee-server/src/models"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

func GetTransactions(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserID(r)
		query := r.URL.Query()

		var filter models.TransactionFilter
		if raw := query.Get("account_id"); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "Invalid account_id")
				return
			}
			filter.AccountID = &id
		}
		for name, dst := range map[string]**time.Time{"from": &filter.From, "to": &filter.To} {
			if raw := query.Get(name); raw != "" {
				t, err := parseDate(raw)
				if err != nil {
					writeError(w, http.StatusBadRequest, "Invalid "+name+" date")
					return
				}
				*dst = &t
			}
		}
		if raw := query.Get("limit"); raw != "" {
			limit, err := strconv.Atoi(raw)
			if err != nil || limit < 1 {
				writeError(w, http.StatusBadRequest, "Invalid limit")
				return
			}
			filter.Limit = limit
		}

		txs, err := db.GetTransactionsForUser(r.Context(), pool, userID, filter)
		if err != nil {
			log.Printf("ERROR: Failed to get transactions for user %s: %v", userID, err)
			writeFailure(w, err, "Failed to fetch transactions")
			return
		}
		writeJSON(w, http.StatusOK, txs, "Transactions fetched")
	}
}

type transactionRequest struct {
	AccountID   uuid.UUID              `json:"account_id"`
	HouseholdID *uuid.UUID             `json:"household_id"`
	Type        models.TransactionType `json:"type"`
	Amount      int64                  `json:"amount"`
	CategoryID  *uuid.UUID             `json:"category_id"`
	Date        *string                `json:"date"`
	Merchant    *string                `json:"merchant"`
	Note        *string                `json:"note"`
}

func CreateTransaction(pool *pgxpool.Pool, poster Poster) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserID(r)
		var req transactionRequest
		if err := decode(r, &req); err != nil {
			log.Printf("ERROR: Failed to decode create transaction request body for user %s: %v", userID, err)
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		date, err := parseOptionalDate(req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date")
			return
		}

		if req.HouseholdID != nil {
			if _, err := requireMember(r.Context(), pool, *req.HouseholdID, userID); err != nil {
				log.Printf("ERROR: User %s cannot post to household %s: %v", userID, *req.HouseholdID, err)
				writeFailure(w, err, "Failed to create transaction")
				return
			}
		}

		entry := ledger.Entry{
			AccountID:   req.AccountID,
			HouseholdID: req.HouseholdID,
			Type:        req.Type,
			Amount:      req.Amount,
			CategoryID:  req.CategoryID,
			Merchant:    req.Merchant,
			Note:        req.Note,
		}
		if date != nil {
			entry.Date = *date
		}

		tx, err := poster.PostTransaction(r.Context(), userID, entry)
		if err != nil {
			log.Printf("ERROR: Failed to post transaction to account %s for user %s: %v", req.AccountID, userID, err)
			writeFailure(w, err, "Failed to create transaction")
			return
		}
		log.Printf("INFO: Posted %s transaction %s on account %s for user %s", tx.Type, tx.ID, tx.AccountID, userID)
		writeJSON(w, http.StatusCreated, tx, "Transaction created")
	}
}
