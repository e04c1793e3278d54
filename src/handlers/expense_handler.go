package handlers

import (
	db "budget-bee-server/src/db/sql"
	"budget-bee-server/src/middleware"
	"budget-bee-server/src/models"
	"budget-bee-server/src/reports"
	"log"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type expenseRequest struct {
	HouseholdID *uuid.UUID      `json:"household_id"`
	GroupName   string          `json:"group_name"`
	Name        string          `json:"name"`
	Amount      int64           `json:"amount"`
	DueDate     *string         `json:"due_date"`
	Priority    models.Priority `json:"priority"`
	LogoURL     *string         `json:"logo_url"`
}

func (req *expenseRequest) toExpense() (*models.Expense, string) {
	req.Name = strings.TrimSpace(req.Name)
	req.GroupName = strings.TrimSpace(req.GroupName)
	if req.Priority == "" {
		req.Priority = models.PriorityMedium
	}
	switch {
	case req.Name == "":
		return nil, "Name is required"
	case req.GroupName == "":
		return nil, "group_name is required"
	case req.Amount <= 0:
		return nil, "Amount must be positive"
	case !req.Priority.Valid():
		return nil, "Priority must be HIGH, MEDIUM or LOW"
	}
	due, err := parseOptionalDate(req.DueDate)
	if err != nil {
		return nil, "Invalid due_date"
	}
	return &models.Expense{
		HouseholdID: req.HouseholdID,
		GroupName:   req.GroupName,
		Name:        req.Name,
		Amount:      req.Amount,
		DueDate:     due,
		Priority:    req.Priority,
		LogoURL:     req.LogoURL,
	}, ""
}

// GetExpenses returns expenses grouped by group name. type=personal and
// type=household narrow the list; household requires household_id.
func GetExpenses(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserID(r)
		scope := r.URL.Query().Get("type")

		var householdID *uuid.UUID
		if raw := r.URL.Query().Get("household_id"); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "Invalid household_id")
				return
			}
			householdID = &id
		}
		if scope == "household" && householdID == nil {
			writeError(w, http.StatusBadRequest, "household_id is required")
			return
		}
		if householdID != nil {
			if _, err := requireMember(r.Context(), pool, *householdID, userID); err != nil {
				log.Printf("ERROR: User %s cannot read household %s expenses: %v", userID, *householdID, err)
				writeFailure(w, err, "Failed to fetch expenses")
				return
			}
		}

		expenses, err := db.GetExpenses(r.Context(), pool, userID, scope, householdID)
		if err != nil {
			log.Printf("ERROR: Failed to get expenses for user %s: %v", userID, err)
			writeFailure(w, err, "Failed to fetch expenses")
			return
		}
		writeJSON(w, http.StatusOK, reports.GroupExpenses(expenses), "Expenses fetched")
	}
}

func CreateExpense(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserID(r)
		var req expenseRequest
		if err := decode(r, &req); err != nil {
			log.Printf("ERROR: Failed to decode create expense request body for user %s: %v", userID, err)
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		expense, msg := req.toExpense()
		if msg != "" {
			writeError(w, http.StatusBadRequest, msg)
			return
		}
		if expense.HouseholdID != nil {
			if _, err := requireMember(r.Context(), pool, *expense.HouseholdID, userID); err != nil {
				log.Printf("ERROR: User %s cannot add expenses to household %s: %v", userID, *expense.HouseholdID, err)
				writeFailure(w, err, "Failed to create expense")
				return
			}
		}
		expense.UserID = &userID

		created, err := db.CreateExpense(r.Context(), pool, expense)
		if err != nil {
			log.Printf("ERROR: Failed to create expense for user %s: %v", userID, err)
			writeFailure(w, err, "Failed to create expense")
			return
		}
		log.Printf("INFO: Created expense %s for user %s", created.ID, userID)
		writeJSON(w, http.StatusCreated, created, "Expense created")
	}
}

func UpdateExpense(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserID(r)
		expenseID, err := parseID(r, "expense_id")
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		var req expenseRequest
		if err := decode(r, &req); err != nil {
			log.Printf("ERROR: Failed to decode update expense request body for user %s: %v", userID, err)
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		expense, msg := req.toExpense()
		if msg != "" {
			writeError(w, http.StatusBadRequest, msg)
			return
		}
		expense.ID = expenseID

		updated, err := db.UpdateExpense(r.Context(), pool, userID, expense)
		if err != nil {
			log.Printf("ERROR: Failed to update expense %s for user %s: %v", expenseID, userID, err)
			writeFailure(w, err, "Expense not found")
			return
		}
		log.Printf("INFO: Updated expense %s for user %s", expenseID, userID)
		writeJSON(w, http.StatusOK, updated, "Expense updated")
	}
}

func ToggleExpensePaid(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserID(r)
		expenseID, err := parseID(r, "expense_id")
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		expense, err := db.ToggleExpensePaid(r.Context(), pool, userID, expenseID)
		if err != nil {
			log.Printf("ERROR: Failed to toggle expense %s for user %s: %v", expenseID, userID, err)
			writeFailure(w, err, "Expense not found")
			return
		}
		writeJSON(w, http.StatusOK, expense, "Expense updated")
	}
}

func DeleteExpense(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserID(r)
		expenseID, err := parseID(r, "expense_id")
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := db.DeleteExpense(r.Context(), pool, userID, expenseID); err != nil {
			log.Printf("ERROR: Failed to delete expense %s for user %s: %v", expenseID, userID, err)
			writeFailure(w, err, "Expense not found")
			return
		}
		log.Printf("INFO: Deleted expense %s for user %s", expenseID, userID)
		writeJSON(w, http.StatusOK, nil, "Expense deleted")
	}
}
