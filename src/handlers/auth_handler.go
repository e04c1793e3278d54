package handlers

import (
	"budget-bee-server/src/auth"
	db "budget-bee-server/src/db/sql"
	"budget-bee-server/src/models"
	"budget-bee-server/src/util"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

type AuthOptions struct {
	BcryptCost int
	InviteOnly bool
}

func Register(pool *pgxpool.Pool, tokens *auth.Tokens, opts AuthOptions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.RegisterRequest
		if err := decode(r, &req); err != nil {
			log.Printf("ERROR: Failed to decode register request body: %v", err)
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		req.Email = util.NormalizeEmail(req.Email)
		req.FirstName = strings.TrimSpace(req.FirstName)
		req.LastName = strings.TrimSpace(req.LastName)

		if !util.ValidateEmail(req.Email) {
			log.Printf("ERROR: Email validation failed during registration - Email: %s", req.Email)
			writeError(w, http.StatusBadRequest, "Invalid email format")
			return
		}
		if !util.ValidateName(req.FirstName) || !util.ValidateName(req.LastName) {
			log.Printf("ERROR: Name validation failed during registration - Email: %s", req.Email)
			writeError(w, http.StatusBadRequest, "First and last name must be between 2 and 50 characters")
			return
		}
		if !util.ValidatePassword(req.Password) {
			log.Printf("ERROR: Password validation failed during registration - Email: %s", req.Email)
			writeError(w, http.StatusBadRequest, "Password must be at least 8 characters with uppercase, lowercase, digit, and special character")
			return
		}

		if opts.InviteOnly {
			invited, err := db.IsEmailInvited(r.Context(), pool, req.Email)
			if err != nil {
				log.Printf("ERROR: Failed to check invite for %s: %v", req.Email, err)
				writeError(w, http.StatusInternalServerError, "Internal server error")
				return
			}
			if !invited {
				log.Printf("ERROR: Registration denied for email without invite: %s", req.Email)
				writeError(w, http.StatusForbidden, "Registration is restricted to invited emails")
				return
			}
		}

		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), opts.BcryptCost)
		if err != nil {
			log.Printf("ERROR: Failed to hash password for %s: %v", req.Email, err)
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		user, err := db.CreateUser(r.Context(), pool, req, hashedPassword)
		if err != nil {
			if db.IsUniqueViolation(err) {
				log.Printf("ERROR: Registration failed - email already exists - Email: %s", req.Email)
				writeError(w, http.StatusConflict, "User already exists")
				return
			}
			log.Printf("ERROR: Failed to create user %s: %v", req.Email, err)
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		token, err := tokens.Issue(user.ID, user.SuperAdmin)
		if err != nil {
			log.Printf("ERROR: Failed to generate JWT token for user %s: %v", user.ID, err)
			writeError(w, http.StatusInternalServerError, "Error generating token")
			return
		}

		log.Printf("INFO: Successful registration - User: %s, ID: %s", user.Email, user.ID)
		writeJSON(w, http.StatusCreated, models.AuthResponse{Token: token, User: *user}, "User registered")
	}
}

func Login(pool *pgxpool.Pool, tokens *auth.Tokens) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var credentials struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := decode(r, &credentials); err != nil {
			log.Printf("ERROR: Failed to decode login request body: %v", err)
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		email := util.NormalizeEmail(credentials.Email)
		user, err := db.GetUserByEmail(r.Context(), pool, email)
		if err != nil {
			if !errors.Is(err, db.ErrNotFound) {
				log.Printf("ERROR: Failed to look up user during login - Email: %s: %v", email, err)
				writeError(w, http.StatusInternalServerError, "Internal server error")
				return
			}
			log.Printf("ERROR: Login for unknown email %s", email)
			writeError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}

		if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(credentials.Password)); err != nil {
			log.Printf("ERROR: Invalid password attempt for email %s from IP %s", email, r.RemoteAddr)
			writeError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}

		if user.Locked {
			log.Printf("ERROR: Locked user attempted login - Email: %s", email)
			writeError(w, http.StatusForbidden, "User account is locked")
			return
		}

		token, err := tokens.Issue(user.ID, user.SuperAdmin)
		if err != nil {
			log.Printf("ERROR: Failed to generate JWT token for user %s: %v", user.ID, err)
			writeError(w, http.StatusInternalServerError, "Error generating token")
			return
		}

		if err := db.UpdateUserLastLogin(r.Context(), pool, user.ID); err != nil {
			log.Printf("ERROR: Failed to update last_login for user %s: %v", user.ID, err)
		}

		log.Printf("INFO: Successful login - User: %s, ID: %s", user.Email, user.ID)
		writeJSON(w, http.StatusOK, models.AuthResponse{Token: token, User: *user}, "Login successful")
	}
}
