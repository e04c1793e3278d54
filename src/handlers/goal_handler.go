package handlers

import (
	db "budget-bee-server/src/db/sql"
	"budget-bee-server/src/middleware"
	"budget-bee-server/src/models"
	"log"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

func GetGoals(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserID(r)
		goals, err := db.GetGoalsForUser(r.Context(), pool, userID)
		if err != nil {
			log.Printf("ERROR: Failed to get goals for user %s: %v", userID, err)
			writeFailure(w, err, "Failed to fetch goals")
			return
		}
		writeJSON(w, http.StatusOK, goals, "Goals fetched")
	}
}

func CreateGoal(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserID(r)
		var req struct {
			HouseholdID  *uuid.UUID `json:"household_id"`
			Name         string     `json:"name"`
			TargetAmount int64      `json:"target_amount"`
			SavedAmount  int64      `json:"saved_amount"`
			Deadline     *string    `json:"deadline"`
		}
		if err := decode(r, &req); err != nil {
			log.Printf("ERROR: Failed to decode create goal request body for user %s: %v", userID, err)
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		req.Name = strings.TrimSpace(req.Name)
		if req.Name == "" || req.TargetAmount <= 0 || req.SavedAmount < 0 {
			writeError(w, http.StatusBadRequest, "Name and a positive target_amount are required")
			return
		}
		deadline, err := parseOptionalDate(req.Deadline)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid deadline")
			return
		}
		if req.HouseholdID != nil {
			if _, err := requireMember(r.Context(), pool, *req.HouseholdID, userID); err != nil {
				log.Printf("ERROR: User %s cannot add goals to household %s: %v", userID, *req.HouseholdID, err)
				writeFailure(w, err, "Failed to create goal")
				return
			}
		}

		created, err := db.CreateGoal(r.Context(), pool, &models.Goal{
			UserID:       userID,
			HouseholdID:  req.HouseholdID,
			Name:         req.Name,
			TargetAmount: req.TargetAmount,
			SavedAmount:  req.SavedAmount,
			Deadline:     deadline,
		})
		if err != nil {
			log.Printf("ERROR: Failed to create goal for user %s: %v", userID, err)
			writeFailure(w, err, "Failed to create goal")
			return
		}
		log.Printf("INFO: Created goal %s for user %s", created.ID, userID)
		writeJSON(w, http.StatusCreated, created, "Goal created")
	}
}

// UpdateGoal applies the fields present in the body. add_amount is added to
// the saved amount instead of replacing it.
func UpdateGoal(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserID(r)
		goalID, err := parseID(r, "goal_id")
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		var req struct {
			Name         *string `json:"name"`
			TargetAmount *int64  `json:"target_amount"`
			SavedAmount  *int64  `json:"saved_amount"`
			AddAmount    *int64  `json:"add_amount"`
			Deadline     *string `json:"deadline"`
		}
		if err := decode(r, &req); err != nil {
			log.Printf("ERROR: Failed to decode update goal request body for user %s: %v", userID, err)
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		goal, err := db.GetGoalByID(r.Context(), pool, userID, goalID)
		if err != nil {
			log.Printf("ERROR: Goal %s not found for user %s: %v", goalID, userID, err)
			writeFailure(w, err, "Goal not found")
			return
		}
		if req.Name != nil {
			goal.Name = strings.TrimSpace(*req.Name)
		}
		if req.TargetAmount != nil {
			goal.TargetAmount = *req.TargetAmount
		}
		var add int64
		if req.AddAmount != nil {
			add = *req.AddAmount
		}
		if req.Deadline != nil {
			if goal.Deadline, err = parseOptionalDate(req.Deadline); err != nil {
				writeError(w, http.StatusBadRequest, "Invalid deadline")
				return
			}
		}
		if goal.Name == "" || goal.TargetAmount <= 0 || (req.SavedAmount != nil && *req.SavedAmount < 0) {
			writeError(w, http.StatusBadRequest, "Name, a positive target_amount and a non-negative saved_amount are required")
			return
		}

		updated, err := db.UpdateGoal(r.Context(), pool, goal, req.SavedAmount, add)
		if db.IsCheckViolation(err) {
			writeError(w, http.StatusBadRequest, "saved_amount cannot go below zero")
			return
		}
		if err != nil {
			log.Printf("ERROR: Failed to update goal %s for user %s: %v", goalID, userID, err)
			writeFailure(w, err, "Goal not found")
			return
		}
		log.Printf("INFO: Updated goal %s for user %s", goalID, userID)
		writeJSON(w, http.StatusOK, updated, "Goal updated")
	}
}

func ToggleGoalPaid(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserID(r)
		goalID, err := parseID(r, "goal_id")
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		goal, err := db.ToggleGoalPaid(r.Context(), pool, userID, goalID)
		if err != nil {
			log.Printf("ERROR: Failed to toggle goal %s for user %s: %v", goalID, userID, err)
			writeFailure(w, err, "Goal not found")
			return
		}
		writeJSON(w, http.StatusOK, goal, "Goal updated")
	}
}

func DeleteGoal(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserID(r)
		goalID, err := parseID(r, "goal_id")
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := db.DeleteGoal(r.Context(), pool, userID, goalID); err != nil {
			log.Printf("ERROR: Failed to delete goal %s for user %s: %v", goalID, userID, err)
			writeFailure(w, err, "Goal not found")
			return
		}
		log.Printf("INFO: Deleted goal %s for user %s", goalID, userID)
		writeJSON(w, http.StatusOK, nil, "Goal deleted")
	}
}
