package handlers

import (
	cache "budget-bee-server/src/db"
	db "budget-bee-server/src/db/sql"
	"budget-bee-server/src/middleware"
	"budget-bee-server/src/models"
	"budget-bee-server/src/reports"
	"log"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

const dashboardSummaryCacheName = "dashboard_summary"

func setCacheHeader(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "max-age=60")
}

func GetDashboardSummary(pool *pgxpool.Pool, ttl time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserID(r)
		setCacheHeader(w)

		cacheKey := cache.UserCacheKey(userID, dashboardSummaryCacheName)
		if cached, found := cache.GetCache(cacheKey); found {
			if summary, ok := cached.(models.DashboardSummary); ok {
				writeJSON(w, http.StatusOK, summary, "Dashboard summary fetched")
				return
			}
		}

		monthStart := reports.MonthStart(time.Now())
		var (
			accounts      []models.Account
			earned, spent int64
		)
		g, ctx := errgroup.WithContext(r.Context())
		g.Go(func() error {
			var err error
			accounts, err = db.GetAccountsForUser(ctx, pool, userID)
			return err
		})
		g.Go(func() error {
			var err error
			earned, err = db.SumTransactionsSince(ctx, pool, userID, models.TransactionIncome, monthStart)
			return err
		})
		g.Go(func() error {
			var err error
			spent, err = db.SumTransactionsSince(ctx, pool, userID, models.TransactionExpense, monthStart)
			return err
		})
		if err := g.Wait(); err != nil {
			log.Printf("ERROR: Failed to build dashboard summary for user %s: %v", userID, err)
			writeFailure(w, err, "Failed to fetch dashboard summary")
			return
		}

		summary := reports.Summarize(accounts, earned, spent)
		cache.SetUserCache(userID, cacheKey, summary, ttl)
		writeJSON(w, http.StatusOK, summary, "Dashboard summary fetched")
	}
}

// GetMonthlyChart returns the running net change of this month, one point
// per day that had activity.
func GetMonthlyChart(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserID(r)
		start := reports.MonthStart(time.Now())
		txs, err := db.GetTransactionsInRange(r.Context(), pool, userID, start, start.AddDate(0, 1, 0), nil)
		if err != nil {
			log.Printf("ERROR: Failed to build monthly chart for user %s: %v", userID, err)
			writeFailure(w, err, "Failed to fetch monthly chart")
			return
		}
		setCacheHeader(w)
		writeJSON(w, http.StatusOK, reports.RunningBalance(txs), "Monthly balance chart fetched")
	}
}

func GetAccountsChart(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserID(r)
		accounts, err := db.GetAccountsForUser(r.Context(), pool, userID)
		if err != nil {
			log.Printf("ERROR: Failed to build accounts chart for user %s: %v", userID, err)
			writeFailure(w, err, "Failed to fetch accounts chart")
			return
		}
		setCacheHeader(w)
		writeJSON(w, http.StatusOK, reports.Summarize(accounts, 0, 0).AccountBreakdown, "Accounts chart data fetched")
	}
}

func GetSpendingChart(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserID(r)
		slices, err := db.GetSpendingByCategory(r.Context(), pool, userID)
		if err != nil {
			log.Printf("ERROR: Failed to build spending chart for user %s: %v", userID, err)
			writeFailure(w, err, "Failed to fetch spending chart")
			return
		}
		setCacheHeader(w)
		writeJSON(w, http.StatusOK, reports.SpendingShares(slices), "Spending chart data fetched")
	}
}

// GetCompareChart returns daily expense totals for each year in ?years=.
func GetCompareChart(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserID(r)
		years := reports.ParseYears(r.URL.Query().Get("years"))
		if len(years) == 0 {
			writeError(w, http.StatusBadRequest, "years query parameter is required")
			return
		}

		expense := models.TransactionExpense
		results := make([]models.YearComparison, 0, len(years))
		for _, year := range years {
			from, to := reports.YearBounds(year)
			txs, err := db.GetTransactionsInRange(r.Context(), pool, userID, from, to, &expense)
			if err != nil {
				log.Printf("ERROR: Failed to build compare chart for user %s, year %d: %v", userID, year, err)
				writeFailure(w, err, "Failed to fetch compare chart")
				return
			}
			results = append(results, models.YearComparison{Year: year, DailyTotals: reports.DailyExpenses(txs)})
		}
		setCacheHeader(w)
		writeJSON(w, http.StatusOK, results, "Dashboard compare chart data fetched")
	}
}
