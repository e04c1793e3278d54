package api

import (
	"budget-bee-server/src/auth"
	"budget-bee-server/src/bank"
	"budget-bee-server/src/config"
	"budget-bee-server/src/handlers"
	"budget-bee-server/src/ledger"
	"budget-bee-server/src/middleware"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Deps struct {
	Pool   *pgxpool.Pool
	Tokens *auth.Tokens
	Ledger *ledger.Service
	// Bank is nil when Plaid is not configured; the bank routes are then not
	// mounted.
	Bank   *bank.Client
	Config *config.Config
}

func NewRouter(d Deps) *chi.Mux {
	pool, cfg := d.Pool, d.Config
	demo := middleware.DemoModeMiddleware(cfg.DemoMode)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.With(demo).Group(func(r chi.Router) {
			r.Post("/auth/register", handlers.Register(pool, d.Tokens, handlers.AuthOptions{
				BcryptCost: cfg.BcryptCost,
				InviteOnly: cfg.InviteOnly,
			}))
			r.Post("/auth/login", handlers.Login(pool, d.Tokens))
			if d.Bank != nil {
				r.Post("/bank/webhook", handlers.BankWebhook(pool, d.Bank, d.Ledger))
			}
		})

		// Protected routes
		r.With(middleware.JWTAuthMiddleware(d.Tokens), demo).Group(func(r chi.Router) {
			// User
			r.Get("/user", handlers.GetUser(pool))
			r.Put("/user", handlers.UpdateUser(pool))
			r.Post("/user/change-password", handlers.ChangePassword(pool, cfg.BcryptCost))
			r.Delete("/user", handlers.DeleteUser(pool))

			// Accounts
			r.Get("/accounts", handlers.GetAccounts(pool))
			r.Post("/accounts", handlers.CreateAccount(pool))
			r.Get("/accounts/summary", handlers.GetAccountsSummary(pool, cfg.CacheTTL))
			r.Get("/accounts/{account_id}", handlers.GetAccount(pool))
			r.Put("/accounts/{account_id}", handlers.UpdateAccount(pool))
			r.Delete("/accounts/{account_id}", handlers.DeleteAccount(pool))
			r.Post("/accounts/{account_id}/import", handlers.ImportStatement(pool, d.Ledger))

			// Transactions
			r.Get("/transactions", handlers.GetTransactions(pool))
			r.Post("/transactions", handlers.CreateTransaction(pool, d.Ledger))

			r.Get("/categories", handlers.GetCategories(pool, cfg.CacheTTL))

			// Income sources
			r.Get("/income-sources", handlers.GetIncomeSources(pool))
			r.Post("/income-sources", handlers.CreateIncomeSource(pool))
			r.Post("/income-sources/trigger", handlers.TriggerIncomeSources(d.Ledger, time.Now))
			r.Put("/income-sources/{source_id}", handlers.UpdateIncomeSource(pool))
			r.Delete("/income-sources/{source_id}", handlers.DeleteIncomeSource(pool))

			// Expenses
			r.Get("/expenses", handlers.GetExpenses(pool))
			r.Post("/expenses", handlers.CreateExpense(pool))
			r.Put("/expenses/{expense_id}", handlers.UpdateExpense(pool))
			r.Delete("/expenses/{expense_id}", handlers.DeleteExpense(pool))
			r.Patch("/expenses/{expense_id}/pay", handlers.ToggleExpensePaid(pool))

			// Goals
			r.Get("/goals", handlers.GetGoals(pool))
			r.Post("/goals", handlers.CreateGoal(pool))
			r.Put("/goals/{goal_id}", handlers.UpdateGoal(pool))
			r.Delete("/goals/{goal_id}", handlers.DeleteGoal(pool))
			r.Patch("/goals/{goal_id}/pay", handlers.ToggleGoalPaid(pool))

			// Households
			r.Get("/households", handlers.GetHouseholds(pool))
			r.Post("/households", handlers.CreateHousehold(pool))
			r.Get("/households/{household_id}", handlers.GetHousehold(pool))
			r.Post("/households/{household_id}/members", handlers.AddHouseholdMember(pool))
			r.Delete("/households/{household_id}/members/{user_id}", handlers.RemoveHouseholdMember(pool))
			r.Get("/households/{household_id}/transactions", handlers.GetHouseholdTransactions(pool))
			r.Get("/households/{household_id}/expenses", handlers.GetHouseholdExpenses(pool))

			// Dashboard
			r.Get("/dashboard/summary", handlers.GetDashboardSummary(pool, cfg.CacheTTL))
			r.Get("/dashboard/charts/monthly", handlers.GetMonthlyChart(pool))
			r.Get("/dashboard/charts/accounts", handlers.GetAccountsChart(pool))
			r.Get("/dashboard/charts/spending", handlers.GetSpendingChart(pool))
			r.Get("/dashboard/charts/compare", handlers.GetCompareChart(pool))

			// Budget
			r.Post("/budgets", handlers.CreateBudget(pool))
			r.Get("/budgets", handlers.GetBudgets(pool))
			r.Get("/budgets/{budget_id}", handlers.GetBudget(pool))
			r.Put("/budgets/{budget_id}", handlers.UpdateBudget(pool))
			r.Delete("/budgets/{budget_id}", handlers.DeleteBudget(pool))

			// Transaction Rules
			r.Post("/transaction-rules", handlers.CreateTransactionRule(pool))
			r.Post("/transaction-rules/trigger", handlers.TriggerTransactionRules(pool))
			r.Get("/transaction-rules", handlers.GetTransactionRules(pool))
			r.Get("/transaction-rules/{rule_id}", handlers.GetTransactionRule(pool))
			r.Put("/transaction-rules/{rule_id}", handlers.UpdateTransactionRule(pool))
			r.Delete("/transaction-rules/{rule_id}", handlers.DeleteTransactionRule(pool))

			// Bank
			if d.Bank != nil {
				r.Post("/bank/link-token", handlers.CreateLinkToken(d.Bank))
				r.Post("/bank/exchange", handlers.ExchangePublicToken(pool, d.Bank))
				r.Get("/bank/links", handlers.GetBankLinks(pool))
				r.Post("/bank/links/{link_id}/sync", handlers.SyncBankLink(pool, d.Bank, d.Ledger))
				r.Delete("/bank/links/{link_id}", handlers.DeleteBankLink(pool, d.Bank))
			}
		})

		// Super Admin Routes
		r.With(middleware.JWTAuthMiddleware(d.Tokens), middleware.SuperAdminMiddleware).Group(func(r chi.Router) {
			r.Get("/admin/users", handlers.GetAllUsers(pool))
			r.Delete("/admin/users/{user_id}", handlers.AdminDeleteUser(pool))
			r.Post("/admin/users/{user_id}/lock", handlers.LockUser(pool))
			r.Post("/admin/users/{user_id}/unlock", handlers.UnlockUser(pool))

			r.Post("/admin/cache/clear", handlers.ClearCache())
			r.Post("/admin/income-sources/sweep", handlers.SweepIncome(d.Ledger, time.Now))

			// Invites
			r.Post("/admin/invites", handlers.CreateInvite(pool))
			r.Get("/admin/invites", handlers.GetInvites(pool))
			r.Delete("/admin/invites/{invite_id}", handlers.DeleteInvite(pool))
		})
	})

	return r
}
