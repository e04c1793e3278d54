package handlers

import (
	cache "budget-bee-server/src/db"
	db "budget-bee-server/src/db/sql"
	"budget-bee-server/src/models"
	"log"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const categoriesCacheKey = "categories"

func GetCategories(pool *pgxpool.Pool, ttl time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cached, found := cache.GetCache(categoriesCacheKey); found {
			if categories, ok := cached.([]models.Category); ok {
				writeJSON(w, http.StatusOK, categories, "Categories fetched")
				return
			}
		}

		categories, err := db.GetAllCategories(r.Context(), pool)
		if err != nil {
			log.Printf("ERROR: Failed to get categories: %v", err)
			writeFailure(w, err, "Failed to fetch categories")
			return
		}
		cache.SetSharedCache(categoriesCacheKey, categories, ttl)
		writeJSON(w, http.StatusOK, categories, "Categories fetched")
	}
}
