package handlers

import (
	cache "budget-bee-server/src/db"
	db "budget-bee-server/src/db/sql"
	"budget-bee-server/src/middleware"
	"budget-bee-server/src/models"
	"budget-bee-server/src/rules"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type transactionRuleRequest struct {
	Name       string          `json:"name"`
	Conditions json.RawMessage `json:"conditions"`
	CategoryID uuid.UUID       `json:"category_id"`
}

// toRule checks the condition tree and the target category before anything
// is stored, so a saved rule always compiles.
func (req *transactionRuleRequest) toRule(r *http.Request, pool *pgxpool.Pool) (*models.TransactionRule, string) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return nil, "Name is required"
	}
	if _, err := rules.Parse(req.Conditions); err != nil {
		return nil, err.Error()
	}
	if _, err := db.GetCategoryByID(r.Context(), pool, req.CategoryID); err != nil {
		return nil, "Category not found"
	}
	return &models.TransactionRule{
		Name:       req.Name,
		Conditions: req.Conditions,
		CategoryID: req.CategoryID,
	}, ""
}

func CreateTransactionRule(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserID(r)
		var req transactionRuleRequest
		if err := decode(r, &req); err != nil {
			log.Printf("ERROR: Failed to decode create transaction rule request body for user %s: %v", userID, err)
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		rule, msg := req.toRule(r, pool)
		if msg != "" {
			writeError(w, http.StatusBadRequest, msg)
			return
		}
		rule.UserID = userID

		created, err := db.CreateTransactionRule(r.Context(), pool, rule)
		if err != nil {
			log.Printf("ERROR: Failed to create transaction rule for user %s: %v", userID, err)
			writeFailure(w, err, "Failed to create transaction rule")
			return
		}
		log.Printf("INFO: Created transaction rule %s for user %s, name %s", created.ID, userID, created.Name)
		writeJSON(w, http.StatusCreated, created, "Transaction rule created")
	}
}

func GetTransactionRule(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserID(r)
		ruleID, err := parseID(r, "rule_id")
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		rule, err := db.GetTransactionRuleByID(r.Context(), pool, userID, ruleID)
		if err != nil {
			log.Printf("ERROR: Transaction rule %s not found for user %s: %v", ruleID, userID, err)
			writeFailure(w, err, "Transaction rule not found")
			return
		}
		writeJSON(w, http.StatusOK, rule, "Transaction rule fetched")
	}
}

func GetTransactionRules(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserID(r)
		rs, err := db.GetAllTransactionRules(r.Context(), pool, userID)
		if err != nil {
			log.Printf("ERROR: Failed to get transaction rules for user %s: %v", userID, err)
			writeFailure(w, err, "Failed to fetch transaction rules")
			return
		}
		writeJSON(w, http.StatusOK, rs, "Transaction rules fetched")
	}
}

func UpdateTransactionRule(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserID(r)
		ruleID, err := parseID(r, "rule_id")
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		var req transactionRuleRequest
		if err := decode(r, &req); err != nil {
			log.Printf("ERROR: Failed to decode update transaction rule request body for user %s: %v", userID, err)
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		rule, msg := req.toRule(r, pool)
		if msg != "" {
			writeError(w, http.StatusBadRequest, msg)
			return
		}
		rule.ID = ruleID
		rule.UserID = userID

		updated, err := db.UpdateTransactionRule(r.Context(), pool, rule)
		if err != nil {
			log.Printf("ERROR: Failed to update transaction rule %s for user %s: %v", ruleID, userID, err)
			writeFailure(w, err, "Transaction rule not found")
			return
		}
		log.Printf("INFO: Updated transaction rule %s for user %s", updated.ID, userID)
		writeJSON(w, http.StatusOK, updated, "Transaction rule updated")
	}
}

func DeleteTransactionRule(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserID(r)
		ruleID, err := parseID(r, "rule_id")
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := db.DeleteTransactionRule(r.Context(), pool, userID, ruleID); err != nil {
			log.Printf("ERROR: Failed to delete transaction rule %s for user %s: %v", ruleID, userID, err)
			writeFailure(w, err, "Transaction rule not found")
			return
		}
		log.Printf("INFO: Deleted transaction rule %s for user %s", ruleID, userID)
		writeJSON(w, http.StatusOK, nil, "Transaction rule deleted")
	}
}

// TriggerTransactionRules re-categorises every transaction of the user in one
// database transaction. The first matching rule wins.
func TriggerTransactionRules(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserID(r)

		tx, err := pool.Begin(r.Context())
		if err != nil {
			log.Printf("ERROR: Failed to begin rule run for user %s: %v", userID, err)
			writeFailure(w, err, "Failed to trigger transaction rules")
			return
		}
		defer tx.Rollback(context.WithoutCancel(r.Context()))

		rs, err := db.GetAllTransactionRules(r.Context(), tx, userID)
		if err != nil {
			log.Printf("ERROR: Failed to load transaction rules for user %s: %v", userID, err)
			writeFailure(w, err, "Failed to trigger transaction rules")
			return
		}
		candidates, err := db.GetRuleCandidates(r.Context(), tx, userID)
		if err != nil {
			log.Printf("ERROR: Failed to load transactions for rule run, user %s: %v", userID, err)
			writeFailure(w, err, "Failed to trigger transaction rules")
			return
		}

		changes := rules.Apply(rs, candidates)
		for _, c := range changes {
			if err := db.UpdateTransactionCategory(r.Context(), tx, c.TransactionID, c.To); err != nil {
				log.Printf("ERROR: Failed to recategorise transaction %s for user %s: %v", c.TransactionID, userID, err)
				writeFailure(w, err, "Failed to trigger transaction rules")
				return
			}
		}
		if err := tx.Commit(r.Context()); err != nil {
			log.Printf("ERROR: Failed to commit rule run for user %s: %v", userID, err)
			writeFailure(w, err, "Failed to trigger transaction rules")
			return
		}

		cache.ClearUserCaches(userID)
		log.Printf("INFO: Transaction rules updated %d of %d transactions for user %s", len(changes), len(candidates), userID)
		writeJSON(w, http.StatusOK, map[string]int{"updated": len(changes)}, "Transaction rules triggered")
	}
}
