package handlers

import (
	db "budget-bee-server/src/db/sql"
	"budget-bee-server/src/middleware"
	"budget-bee-server/src/models"
	"budget-bee-server/src/reports"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type budgetRequest struct {
	CategoryID uuid.UUID `json:"category_id"`
	Amount     int64     `json:"amount"`
}

func (req budgetRequest) validate() string {
	if req.CategoryID == uuid.Nil {
		return "category_id is required"
	}
	if req.Amount <= 0 {
		return "Amount must be positive"
	}
	return ""
}

func CreateBudget(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserID(r)
		var req budgetRequest
		if err := decode(r, &req); err != nil {
			log.Printf("ERROR: Failed to decode create budget request body for user %s: %v", userID, err)
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if msg := req.validate(); msg != "" {
			writeError(w, http.StatusBadRequest, msg)
			return
		}
		if _, err := db.GetCategoryByID(r.Context(), pool, req.CategoryID); err != nil {
			log.Printf("ERROR: Budget for unknown category %s, user %s: %v", req.CategoryID, userID, err)
			writeFailure(w, err, "Category not found")
			return
		}

		created, err := db.CreateBudget(r.Context(), pool, &models.Budget{
			UserID:     userID,
			CategoryID: req.CategoryID,
			Amount:     req.Amount,
		})
		if err != nil {
			if db.IsUniqueViolation(err) {
				writeError(w, http.StatusConflict, "A budget for this category already exists")
				return
			}
			log.Printf("ERROR: Failed to create budget for user %s: %v", userID, err)
			writeFailure(w, err, "Failed to create budget")
			return
		}
		log.Printf("INFO: Created budget %s for user %s, category %s", created.ID, userID, created.CategoryID)
		writeJSON(w, http.StatusCreated, created, "Budget created")
	}
}

// GetBudgets lists the user's budgets with this month's spending in each.
func GetBudgets(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserID(r)
		statuses, err := db.GetBudgetStatuses(r.Context(), pool, userID, reports.MonthStart(time.Now()))
		if err != nil {
			log.Printf("ERROR: Failed to get budgets for user %s: %v", userID, err)
			writeFailure(w, err, "Failed to fetch budgets")
			return
		}
		writeJSON(w, http.StatusOK, statuses, "Budgets fetched")
	}
}

func GetBudget(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserID(r)
		budgetID, err := parseID(r, "budget_id")
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		budget, err := db.GetBudgetByID(r.Context(), pool, userID, budgetID)
		if err != nil {
			log.Printf("ERROR: Budget %s not found for user %s: %v", budgetID, userID, err)
			writeFailure(w, err, "Budget not found")
			return
		}
		writeJSON(w, http.StatusOK, budget, "Budget fetched")
	}
}

func UpdateBudget(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserID(r)
		budgetID, err := parseID(r, "budget_id")
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		var req budgetRequest
		if err := decode(r, &req); err != nil {
			log.Printf("ERROR: Failed to decode update budget request body for user %s: %v", userID, err)
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if msg := req.validate(); msg != "" {
			writeError(w, http.StatusBadRequest, msg)
			return
		}

		updated, err := db.UpdateBudget(r.Context(), pool, &models.Budget{
			ID:         budgetID,
			UserID:     userID,
			CategoryID: req.CategoryID,
			Amount:     req.Amount,
		})
		if err != nil {
			if db.IsUniqueViolation(err) {
				writeError(w, http.StatusConflict, "A budget for this category already exists")
				return
			}
			log.Printf("ERROR: Failed to update budget %s for user %s: %v", budgetID, userID, err)
			writeFailure(w, err, "Budget not found")
			return
		}
		log.Printf("INFO: Updated budget %s for user %s", updated.ID, userID)
		writeJSON(w, http.StatusOK, updated, "Budget updated")
	}
}

func DeleteBudget(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserID(r)
		budgetID, err := parseID(r, "budget_id")
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := db.DeleteBudget(r.Context(), pool, userID, budgetID); err != nil {
			log.Printf("ERROR: Failed to delete budget %s for user %s: %v", budgetID, userID, err)
			writeFailure(w, err, "Budget not found")
			return
		}
		log.Printf("INFO: Deleted budget %s for user %s", budgetID, userID)
		writeJSON(w, http.StatusOK, nil, "Budget deleted")
	}
}
