package handlers

import (
	db "budget-bee-server/src/db/sql"
	"budget-bee-server/src/util"
	"log"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
)

func CreateInvite(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email string `json:"email"`
		}
		if err := decode(r, &req); err != nil {
			log.Printf("ERROR: Failed to decode create invite request body: %v", err)
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		email := util.NormalizeEmail(req.Email)
		if !util.ValidateEmail(email) {
			writeError(w, http.StatusBadRequest, "Invalid email format")
			return
		}

		invite, err := db.CreateInvite(r.Context(), pool, email)
		if err != nil {
			if db.IsUniqueViolation(err) {
				writeError(w, http.StatusConflict, "Email already invited")
				return
			}
			log.Printf("ERROR: Failed to create invite for %s: %v", email, err)
			writeFailure(w, err, "Failed to create invite")
			return
		}
		log.Printf("INFO: Invited %s", email)
		writeJSON(w, http.StatusCreated, invite, "Invite created")
	}
}

func GetInvites(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		invites, err := db.GetAllInvites(r.Context(), pool)
		if err != nil {
			log.Printf("ERROR: Failed to get invites: %v", err)
			writeFailure(w, err, "Failed to fetch invites")
			return
		}
		writeJSON(w, http.StatusOK, invites, "Invites fetched")
	}
}

func DeleteInvite(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		inviteID, err := parseID(r, "invite_id")
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := db.DeleteInvite(r.Context(), pool, inviteID); err != nil {
			log.Printf("ERROR: Failed to delete invite %s: %v", inviteID, err)
			writeFailure(w, err, "Invite not found")
			return
		}
		log.Printf("INFO: Deleted invite %s", inviteID)
		writeJSON(w, http.StatusOK, nil, "Invite deleted")
	}
}
