// Package reports shapes ledger rows into the series the dashboard draws.
package reports

import (
	"budget-bee-server/src/models"
	"sort"
	"strconv"
	"strings"
	"time"
)

const dayFormat = time.DateOnly

// MonthStart returns midnight UTC on the first day of t's month.
func MonthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// DayStart returns midnight UTC of t's day.
func DayStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// RunningBalance walks txs oldest first and reports the net change since the
// first transaction at the end of every day that had activity.
func RunningBalance(txs []models.Transaction) []models.DailyBalance {
	sorted := append([]models.Transaction(nil), txs...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	out := []models.DailyBalance{}
	var running int64
	for _, t := range sorted {
		running += t.Type.Signed(t.Amount)
		key := t.Date.UTC().Format(dayFormat)
		if n := len(out); n > 0 && out[n-1].Date == key {
			out[n-1].Balance = running
			continue
		}
		out = append(out, models.DailyBalance{Date: key, Balance: running})
	}
	return out
}

// SpendingShares fills in each slice's percentage of the overall total.
func SpendingShares(slices []models.SpendingSlice) []models.SpendingSlice {
	var total int64
	for _, s := range slices {
		total += s.Total
	}
	out := make([]models.SpendingSlice, len(slices))
	for i, s := range slices {
		if total > 0 {
			s.Percentage = float64(s.Total) / float64(total) * 100
		}
		out[i] = s
	}
	return out
}

// DailyExpenses totals EXPENSE transactions per day in date order.
func DailyExpenses(txs []models.Transaction) []models.DailyExpense {
	totals := make(map[string]int64)
	for _, t := range txs {
		if t.Type != models.TransactionExpense {
			continue
		}
		totals[t.Date.UTC().Format(dayFormat)] += t.Amount
	}

	days := make([]string, 0, len(totals))
	for d := range totals {
		days = append(days, d)
	}
	sort.Strings(days)

	out := make([]models.DailyExpense, 0, len(days))
	for _, d := range days {
		out = append(out, models.DailyExpense{Date: d, Expense: totals[d]})
	}
	return out
}

// ParseYears reads a comma separated year list, dropping blanks and
// anything that is not a number.
func ParseYears(param string) []int {
	var years []int
	for _, part := range strings.Split(param, ",") {
		y, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		years = append(years, y)
	}
	return years
}

// YearBounds returns [Jan 1 of year, Jan 1 of year+1) in UTC.
func YearBounds(year int) (time.Time, time.Time) {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(1, 0, 0)
}

// GroupExpenses buckets expenses by group name, groups sorted by name and
// items kept in their input order.
func GroupExpenses(expenses []models.Expense) []models.ExpenseGroup {
	index := make(map[string]int)
	groups := []models.ExpenseGroup{}
	for _, e := range expenses {
		i, ok := index[e.GroupName]
		if !ok {
			i = len(groups)
			index[e.GroupName] = i
			groups = append(groups, models.ExpenseGroup{GroupName: e.GroupName, Items: []models.Expense{}})
		}
		groups[i].Total += e.Amount
		groups[i].Items = append(groups[i].Items, e)
	}
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].GroupName < groups[j].GroupName })
	return groups
}

// Summarize builds the dashboard headline numbers from the user's active
// accounts and this month's totals.
func Summarize(accounts []models.Account, earned, spent int64) models.DashboardSummary {
	summary := models.DashboardSummary{
		EarningsThisMonth: earned,
		SpentThisMonth:    spent,
		AccountBreakdown:  make([]models.AccountBalance, 0, len(accounts)),
	}
	for _, a := range accounts {
		summary.TotalBalance += a.Balance
		summary.AccountBreakdown = append(summary.AccountBreakdown, models.AccountBalance{
			ID:      a.ID,
			Name:    a.Name,
			Type:    a.Type,
			Balance: a.Balance,
			Color:   a.Color,
		})
	}
	return summary
}
