package models

type DashboardSummary struct {
	TotalBalance      int64            `json:"total_balance"`
	EarningsThisMonth int64            `json:"earnings_this_month"`
	SpentThisMonth    int64            `json:"spent_this_month"`
	AccountBreakdown  []AccountBalance `json:"account_breakdown"`
}

type DailyBalance struct {
	Date    string `json:"date"`
	Balance int64  `json:"balance"`
}

type SpendingSlice struct {
	CategoryName string  `json:"category_name"`
	Total        int64   `json:"total"`
	Percentage   float64 `json:"percentage"`
	Color        string  `json:"color"`
}

type DailyExpense struct {
	Date    string `json:"date"`
	Expense int64  `json:"expense"`
}

type YearComparison struct {
	Year        int            `json:"year"`
	DailyTotals []DailyExpense `json:"daily_totals"`
}
