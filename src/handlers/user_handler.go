package handlers

import (
	cache "budget-bee-server/src/db"
	db "budget-bee-server/src/db/sql"
	"budget-bee-server/src/middleware"
	"budget-bee-server/src/util"
	"log"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

func GetUser(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserID(r)
		user, err := db.GetUserByID(r.Context(), pool, userID)
		if err != nil {
			log.Printf("ERROR: Failed to get user %s: %v", userID, err)
			writeFailure(w, err, "User not found")
			return
		}
		writeJSON(w, http.StatusOK, user, "User fetched")
	}
}

func UpdateUser(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserID(r)

		var req struct {
			Email     string `json:"email"`
			FirstName string `json:"first_name"`
			LastName  string `json:"last_name"`
		}
		if err := decode(r, &req); err != nil {
			log.Printf("ERROR: Failed to decode update user request body for user %s: %v", userID, err)
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		req.Email = util.NormalizeEmail(req.Email)
		req.FirstName = strings.TrimSpace(req.FirstName)
		req.LastName = strings.TrimSpace(req.LastName)
		if !util.ValidateEmail(req.Email) {
			writeError(w, http.StatusBadRequest, "Invalid email format")
			return
		}
		if !util.ValidateName(req.FirstName) || !util.ValidateName(req.LastName) {
			writeError(w, http.StatusBadRequest, "First and last name must be between 2 and 50 characters")
			return
		}

		user, err := db.UpdateUserProfile(r.Context(), pool, userID, req.Email, req.FirstName, req.LastName)
		if err != nil {
			if db.IsUniqueViolation(err) {
				writeError(w, http.StatusConflict, "Email already in use")
				return
			}
			log.Printf("ERROR: Failed to update user %s: %v", userID, err)
			writeFailure(w, err, "Failed to update user")
			return
		}

		log.Printf("INFO: Updated profile for user %s", userID)
		writeJSON(w, http.StatusOK, user, "User updated")
	}
}

func ChangePassword(pool *pgxpool.Pool, bcryptCost int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserID(r)

		var req struct {
			CurrentPassword string `json:"current_password"`
			NewPassword     string `json:"new_password"`
		}
		if err := decode(r, &req); err != nil {
			log.Printf("ERROR: Failed to decode change password request body for user %s: %v", userID, err)
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		user, err := db.GetUserByID(r.Context(), pool, userID)
		if err != nil {
			log.Printf("ERROR: Failed to get user %s for password change: %v", userID, err)
			writeFailure(w, err, "User not found")
			return
		}
		if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(req.CurrentPassword)); err != nil {
			log.Printf("ERROR: Wrong current password for user %s", userID)
			writeError(w, http.StatusUnauthorized, "Current password is incorrect")
			return
		}
		if !util.ValidatePassword(req.NewPassword) {
			writeError(w, http.StatusBadRequest, "Password must be at least 8 characters with uppercase, lowercase, digit, and special character")
			return
		}

		hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcryptCost)
		if err != nil {
			log.Printf("ERROR: Failed to hash new password for user %s: %v", userID, err)
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		if err := db.UpdateUserPassword(r.Context(), pool, userID, hashed); err != nil {
			log.Printf("ERROR: Failed to update password for user %s: %v", userID, err)
			writeFailure(w, err, "Failed to change password")
			return
		}

		log.Printf("INFO: Password changed for user %s", userID)
		writeJSON(w, http.StatusOK, nil, "Password changed")
	}
}

func DeleteUser(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserID(r)
		if err := db.DeleteUser(r.Context(), pool, userID); err != nil {
			log.Printf("ERROR: Failed to delete user %s: %v", userID, err)
			writeFailure(w, err, "Failed to delete user")
			return
		}
		cache.ClearUserCaches(userID)
		log.Printf("INFO: Deleted user %s", userID)
		writeJSON(w, http.StatusOK, nil, "User deleted")
	}
}
