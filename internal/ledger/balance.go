package ledger

import (
	"sort"
	"time"

	"expense-ledger/internal/models"

	"github.com/shopspring/decimal"
)

// ComputeDailyBalances returns the net movement per distinct date, in the
// order dates first appear in records. Income counts positive, expenses
// negative.
func ComputeDailyBalances(records []models.ExpenseRecord) []models.DailyBalance {
	index := make(map[time.Time]int)
	balances := []models.DailyBalance{}

	for _, r := range records {
		day := models.DateOf(r.OccurredOn)
		i, ok := index[day]
		if !ok {
			i = len(balances)
			index[day] = i
			balances = append(balances, models.DailyBalance{Date: day, Net: decimal.Zero})
		}
		balances[i].Net = balances[i].Net.Add(r.Signed())
	}
	return balances
}

// ComputeRunningBalance returns the cumulative net amount of records.
func ComputeRunningBalance(records []models.ExpenseRecord) decimal.Decimal {
	total := decimal.Zero
	for _, r := range records {
		total = total.Add(r.Signed())
	}
	return total
}

// ComputeDateBalance returns the net of the records already booked on date.
// It is offered as context when entering a new record for that day and is
// never stored.
func ComputeDateBalance(records []models.ExpenseRecord, date time.Time) decimal.Decimal {
	day := models.DateOf(date)
	total := decimal.Zero
	for _, r := range records {
		if models.DateOf(r.OccurredOn).Equal(day) {
			total = total.Add(r.Signed())
		}
	}
	return total
}

// ComputeMonthlyTotals groups records by calendar month, oldest first.
func ComputeMonthlyTotals(records []models.ExpenseRecord) []models.MonthlyTotal {
	byMonth := make(map[string]*models.MonthlyTotal)
	for _, r := range records {
		key := r.OccurredOn.Format("2006-01")
		mt, ok := byMonth[key]
		if !ok {
			mt = &models.MonthlyTotal{Month: key, Income: decimal.Zero, Expense: decimal.Zero, Net: decimal.Zero}
			byMonth[key] = mt
		}
		if r.Type == models.Income {
			mt.Income = mt.Income.Add(r.Amount)
		} else {
			mt.Expense = mt.Expense.Add(r.Amount)
		}
		mt.Net = mt.Net.Add(r.Signed())
	}

	totals := make([]models.MonthlyTotal, 0, len(byMonth))
	for _, mt := range byMonth {
		totals = append(totals, *mt)
	}
	sort.Slice(totals, func(i, j int) bool { return totals[i].Month < totals[j].Month })
	return totals
}
