package handlers

import (
	cache "budget-bee-server/src/db"
	db "budget-bee-server/src/db/sql"
	"budget-bee-server/src/middleware"
	"budget-bee-server/src/reports"
	"log"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

func GetAllUsers(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users, err := db.GetAllUsers(r.Context(), pool)
		if err != nil {
			log.Printf("ERROR: Failed to get all users: %v", err)
			writeFailure(w, err, "Failed to fetch users")
			return
		}
		writeJSON(w, http.StatusOK, users, "Users fetched")
	}
}

func setLocked(pool *pgxpool.Pool, locked bool) http.HandlerFunc {
	action := "unlock"
	if locked {
		action = "lock"
	}
	return func(w http.ResponseWriter, r *http.Request) {
		targetID, err := parseID(r, "user_id")
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if targetID == middleware.UserID(r) {
			writeError(w, http.StatusBadRequest, "Cannot "+action+" your own account")
			return
		}
		if err := db.SetUserLocked(r.Context(), pool, targetID, locked); err != nil {
			log.Printf("ERROR: Failed to %s user %s: %v", action, targetID, err)
			writeFailure(w, err, "User not found")
			return
		}
		log.Printf("INFO: Admin %s performed %s on user %s", middleware.UserID(r), action, targetID)
		writeJSON(w, http.StatusOK, nil, "User "+action+"ed")
	}
}

func LockUser(pool *pgxpool.Pool) http.HandlerFunc {
	return setLocked(pool, true)
}

func UnlockUser(pool *pgxpool.Pool) http.HandlerFunc {
	return setLocked(pool, false)
}

func AdminDeleteUser(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		targetID, err := parseID(r, "user_id")
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if targetID == middleware.UserID(r) {
			writeError(w, http.StatusBadRequest, "Cannot delete your own account here")
			return
		}
		if err := db.DeleteUser(r.Context(), pool, targetID); err != nil {
			log.Printf("ERROR: Admin failed to delete user %s: %v", targetID, err)
			writeFailure(w, err, "User not found")
			return
		}
		cache.ClearUserCaches(targetID)
		log.Printf("INFO: Admin %s deleted user %s", middleware.UserID(r), targetID)
		writeJSON(w, http.StatusOK, nil, "User deleted")
	}
}

func ClearCache() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cache.ClearAllCaches()
		log.Printf("INFO: Admin %s cleared all caches", middleware.UserID(r))
		writeJSON(w, http.StatusOK, nil, "Cache cleared")
	}
}

// SweepIncome runs the global income sweep now, as the scheduler would.
func SweepIncome(sweeper IncomeSweeper, now func() time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, err := sweeper.SweepDueIncome(r.Context(), reports.DayStart(now()))
		if err != nil {
			log.Printf("ERROR: Manual income sweep failed: %v", err)
			writeFailure(w, err, "Failed to sweep income sources")
			return
		}
		log.Printf("INFO: Manual income sweep: %d users, %d transactions, %d failed",
			report.Users, report.Transactions, len(report.Failed))
		writeJSON(w, http.StatusOK, map[string]any{
			"as_of":        report.AsOf,
			"users":        report.Users,
			"transactions": report.Transactions,
			"failed":       report.FailedUsers(),
		}, "Income sweep completed")
	}
}
