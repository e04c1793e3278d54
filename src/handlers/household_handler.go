package handlers

import (
	db "budget-bee-server/src/db/sql"
	"budget-bee-server/src/middleware"
	"budget-bee-server/src/models"
	"budget-bee-server/src/util"
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// requireMember returns the caller's role, or errNotMember.
func requireMember(ctx context.Context, q db.DBTX, householdID, userID uuid.UUID) (models.HouseholdRole, error) {
	role, err := db.GetMemberRole(ctx, q, householdID, userID)
	if errors.Is(err, db.ErrNotFound) {
		return "", fmt.Errorf("household %s: %w", householdID, errNotMember)
	}
	return role, err
}

func GetHouseholds(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserID(r)
		households, err := db.GetHouseholdsForUser(r.Context(), pool, userID)
		if err != nil {
			log.Printf("ERROR: Failed to get households for user %s: %v", userID, err)
			writeFailure(w, err, "Failed to fetch households")
			return
		}
		writeJSON(w, http.StatusOK, households, "Households fetched")
	}
}

func CreateHousehold(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserID(r)
		var req struct {
			Name string `json:"name"`
		}
		if err := decode(r, &req); err != nil {
			log.Printf("ERROR: Failed to decode create household request body for user %s: %v", userID, err)
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		req.Name = strings.TrimSpace(req.Name)
		if req.Name == "" {
			writeError(w, http.StatusBadRequest, "Household name is required")
			return
		}

		tx, err := pool.Begin(r.Context())
		if err != nil {
			log.Printf("ERROR: Failed to begin household transaction for user %s: %v", userID, err)
			writeFailure(w, err, "Failed to create household")
			return
		}
		defer tx.Rollback(context.WithoutCancel(r.Context()))

		household, err := db.CreateHousehold(r.Context(), tx, req.Name, userID)
		if err != nil {
			log.Printf("ERROR: Failed to create household for user %s: %v", userID, err)
			writeFailure(w, err, "Failed to create household")
			return
		}
		if err := tx.Commit(r.Context()); err != nil {
			log.Printf("ERROR: Failed to commit household %s for user %s: %v", household.ID, userID, err)
			writeFailure(w, err, "Failed to create household")
			return
		}
		log.Printf("INFO: Created household %s for user %s", household.ID, userID)
		writeJSON(w, http.StatusCreated, household, "Household created")
	}
}

func GetHousehold(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserID(r)
		householdID, err := parseID(r, "household_id")
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		household, err := db.GetHouseholdForMember(r.Context(), pool, userID, householdID)
		if err != nil {
			log.Printf("ERROR: Household %s not found for user %s: %v", householdID, userID, err)
			writeFailure(w, err, "Household not found")
			return
		}
		writeJSON(w, http.StatusOK, household, "Household fetched")
	}
}

// AddHouseholdMember adds an existing user by email. Adding someone who is
// already a member keeps their role.
func AddHouseholdMember(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserID(r)
		householdID, err := parseID(r, "household_id")
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		var req struct {
			Email string `json:"email"`
		}
		if err := decode(r, &req); err != nil {
			log.Printf("ERROR: Failed to decode add member request body for user %s: %v", userID, err)
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		role, err := requireMember(r.Context(), pool, householdID, userID)
		if err != nil {
			log.Printf("ERROR: User %s cannot add members to household %s: %v", userID, householdID, err)
			writeFailure(w, err, "Failed to add member")
			return
		}
		if role != models.HouseholdAdmin {
			writeError(w, http.StatusForbidden, "Only household admins can add members")
			return
		}

		invitee, err := db.GetUserByEmail(r.Context(), pool, util.NormalizeEmail(req.Email))
		if err != nil {
			log.Printf("ERROR: Member email %s not found for household %s: %v", req.Email, householdID, err)
			writeFailure(w, err, "User not found")
			return
		}
		member, err := db.UpsertHouseholdMember(r.Context(), pool, householdID, invitee.ID, models.HouseholdMember)
		if err != nil {
			log.Printf("ERROR: Failed to add user %s to household %s: %v", invitee.ID, householdID, err)
			writeFailure(w, err, "Failed to add member")
			return
		}
		member.FirstName, member.LastName = invitee.FirstName, invitee.LastName
		log.Printf("INFO: User %s added %s to household %s", userID, invitee.ID, householdID)
		writeJSON(w, http.StatusOK, member, "Member added")
	}
}

// RemoveHouseholdMember lets an admin remove anyone and a member remove
// themselves.
func RemoveHouseholdMember(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserID(r)
		householdID, err := parseID(r, "household_id")
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		memberID, err := parseID(r, "user_id")
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		role, err := requireMember(r.Context(), pool, householdID, userID)
		if err != nil {
			log.Printf("ERROR: User %s cannot remove members from household %s: %v", userID, householdID, err)
			writeFailure(w, err, "Failed to remove member")
			return
		}
		if role != models.HouseholdAdmin && memberID != userID {
			writeError(w, http.StatusForbidden, "Only household admins can remove other members")
			return
		}

		if err := db.RemoveHouseholdMember(r.Context(), pool, householdID, memberID); err != nil {
			log.Printf("ERROR: Failed to remove user %s from household %s: %v", memberID, householdID, err)
			writeFailure(w, err, "Member not found")
			return
		}
		log.Printf("INFO: User %s removed %s from household %s", userID, memberID, householdID)
		writeJSON(w, http.StatusOK, nil, "Member removed")
	}
}

func GetHouseholdTransactions(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserID(r)
		householdID, err := parseID(r, "household_id")
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if _, err := requireMember(r.Context(), pool, householdID, userID); err != nil {
			log.Printf("ERROR: User %s cannot read household %s transactions: %v", userID, householdID, err)
			writeFailure(w, err, "Failed to fetch household transactions")
			return
		}
		txs, err := db.GetHouseholdTransactions(r.Context(), pool, householdID)
		if err != nil {
			log.Printf("ERROR: Failed to get transactions of household %s for user %s: %v", householdID, userID, err)
			writeFailure(w, err, "Failed to fetch household transactions")
			return
		}
		writeJSON(w, http.StatusOK, txs, "Household transactions fetched")
	}
}

func GetHouseholdExpenses(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserID(r)
		householdID, err := parseID(r, "household_id")
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if _, err := requireMember(r.Context(), pool, householdID, userID); err != nil {
			log.Printf("ERROR: User %s cannot read household %s expenses: %v", userID, householdID, err)
			writeFailure(w, err, "Failed to fetch household expenses")
			return
		}
		expenses, err := db.GetHouseholdExpenses(r.Context(), pool, householdID)
		if err != nil {
			log.Printf("ERROR: Failed to get expenses of household %s for user %s: %v", householdID, userID, err)
			writeFailure(w, err, "Failed to fetch household expenses")
			return
		}
		writeJSON(w, http.StatusOK, expenses, "Household expenses fetched")
	}
}
