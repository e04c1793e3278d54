package handlers

import (
	db "budget-bee-server/src/db/sql"
	"budget-bee-server/src/middleware"
	"budget-bee-server/src/models"
	"budget-bee-server/src/reports"
	"budget-bee-server/src/util"
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type incomeSourceRequest struct {
	AccountID     uuid.UUID  `json:"account_id"`
	CategoryID    *uuid.UUID `json:"category_id"`
	Name          string     `json:"name"`
	Amount        int64      `json:"amount"`
	FrequencyDays int        `json:"frequency_days"`
	NextDate      string     `json:"next_date"`
	IsActive      *bool      `json:"is_active"`
}

func (req *incomeSourceRequest) toSource(userID uuid.UUID) (*models.IncomeSource, string) {
	req.Name = strings.TrimSpace(req.Name)
	switch {
	case req.Name == "":
		return nil, "Name is required"
	case req.AccountID == uuid.Nil:
		return nil, "account_id is required"
	case req.Amount <= 0:
		return nil, "Amount must be positive"
	case req.FrequencyDays <= 0:
		return nil, "frequency_days must be positive"
	}
	next, err := parseDate(req.NextDate)
	if err != nil {
		return nil, "Invalid next_date"
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	return &models.IncomeSource{
		UserID:        userID,
		AccountID:     req.AccountID,
		CategoryID:    req.CategoryID,
		Name:          req.Name,
		Amount:        req.Amount,
		FrequencyDays: req.FrequencyDays,
		NextDate:      reports.DayStart(next),
		IsActive:      active,
	}, ""
}

func GetIncomeSources(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserID(r)
		sources, err := db.GetIncomeSourcesForUser(r.Context(), pool, userID)
		if err != nil {
			log.Printf("ERROR: Failed to get income sources for user %s: %v", userID, err)
			writeFailure(w, err, "Failed to fetch income sources")
			return
		}
		writeJSON(w, http.StatusOK, sources, "Income sources fetched")
	}
}

func CreateIncomeSource(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserID(r)
		var req incomeSourceRequest
		if err := decode(r, &req); err != nil {
			log.Printf("ERROR: Failed to decode create income source request body for user %s: %v", userID, err)
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		source, msg := req.toSource(userID)
		if msg != "" {
			writeError(w, http.StatusBadRequest, msg)
			return
		}
		if _, err := db.GetAccountByID(r.Context(), pool, userID, source.AccountID); err != nil {
			log.Printf("ERROR: Income source for unknown account %s, user %s: %v", source.AccountID, userID, err)
			writeFailure(w, err, "Account not found")
			return
		}
		if err := checkCategory(r.Context(), pool, source.CategoryID); err != nil {
			log.Printf("ERROR: Income source for unknown category, user %s: %v", userID, err)
			writeFailure(w, err, "Category not found")
			return
		}

		created, err := db.CreateIncomeSource(r.Context(), pool, source)
		if err != nil {
			log.Printf("ERROR: Failed to create income source for user %s: %v", userID, err)
			writeFailure(w, err, "Failed to create income source")
			return
		}
		log.Printf("INFO: Created income source %s for user %s", created.ID, userID)
		writeJSON(w, http.StatusCreated, created, "Income source created")
	}
}

// checkCategory fails with db.ErrNotFound for an id that names no category.
// A nil id passes.
func checkCategory(ctx context.Context, q db.DBTX, id *uuid.UUID) error {
	if id == nil {
		return nil
	}
	_, err := db.GetCategoryByID(ctx, q, *id)
	return err
}

func UpdateIncomeSource(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserID(r)
		sourceID, err := parseID(r, "source_id")
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		var req incomeSourceRequest
		if err := decode(r, &req); err != nil {
			log.Printf("ERROR: Failed to decode update income source request body for user %s: %v", userID, err)
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		source, msg := req.toSource(userID)
		if msg != "" {
			writeError(w, http.StatusBadRequest, msg)
			return
		}
		if _, err := db.GetAccountByID(r.Context(), pool, userID, source.AccountID); err != nil {
			log.Printf("ERROR: Income source %s moved to unknown account %s, user %s: %v", sourceID, source.AccountID, userID, err)
			writeFailure(w, err, "Account not found")
			return
		}
		if err := checkCategory(r.Context(), pool, source.CategoryID); err != nil {
			log.Printf("ERROR: Income source %s moved to unknown category, user %s: %v", sourceID, userID, err)
			writeFailure(w, err, "Category not found")
			return
		}

		source.ID = sourceID
		updated, err := db.UpdateIncomeSource(r.Context(), pool, source)
		if err != nil {
			log.Printf("ERROR: Failed to update income source %s for user %s: %v", sourceID, userID, err)
			writeFailure(w, err, "Income source not found")
			return
		}
		log.Printf("INFO: Updated income source %s for user %s", sourceID, userID)
		writeJSON(w, http.StatusOK, updated, "Income source updated")
	}
}

func DeleteIncomeSource(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserID(r)
		sourceID, err := parseID(r, "source_id")
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := db.DeleteIncomeSource(r.Context(), pool, userID, sourceID); err != nil {
			log.Printf("ERROR: Failed to delete income source %s for user %s: %v", sourceID, userID, err)
			writeFailure(w, err, "Income source not found")
			return
		}
		log.Printf("INFO: Deleted income source %s for user %s", sourceID, userID)
		writeJSON(w, http.StatusOK, nil, "Income source deleted")
	}
}

// TriggerIncomeSources fires the caller's income sources that are due by the
// start of today.
func TriggerIncomeSources(trigger IncomeTrigger, now func() time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserID(r)
		created, err := trigger.TriggerDueIncomeSources(r.Context(), userID, reports.DayStart(now()))
		if err != nil {
			log.Printf("ERROR: Failed to trigger income sources for user %s: %v", userID, err)
			writeFailure(w, err, "Failed to trigger income sources")
			return
		}
		if len(created) == 0 {
			writeJSON(w, http.StatusOK, []models.Transaction{}, "No income sources to trigger")
			return
		}
		var total int64
		for _, t := range created {
			total += t.Amount
		}
		log.Printf("INFO: Triggered %d income transactions (%s) for user %s", len(created), util.FormatMinorUnits(total), userID)
		writeJSON(w, http.StatusOK, created, "Income sources triggered")
	}
}
