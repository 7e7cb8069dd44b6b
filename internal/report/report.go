// Package report derives the read-side views from store snapshots. All
// functions are pure: they take snapshot values and compute fresh results,
// holding no state of their own. At this data volume recomputing per
// request is fine; the HTTP layer memoizes on store versions as a
// courtesy, not a requirement.
package report

import (
	"pocket/internal/core"
)

// Overview is the dashboard summary: balance, income/expense totals with
// their progress-bar shares, and the most recent transactions.
type Overview struct {
	Balance       core.Balance       `json:"balance"`
	TotalIncome   core.Money         `json:"totalIncome"`
	TotalExpenses core.Money         `json:"totalExpenses"`
	IncomeShare   float64            `json:"incomeShare"`
	ExpenseShare  float64            `json:"expenseShare"`
	Recent        []core.Transaction `json:"recent"`
}

// CategoryShare is one category's slice of the spending breakdown.
type CategoryShare struct {
	core.Category
	Share float64 `json:"share"`
}

// Breakdown is the analytics view: total folded amount, per-category
// shares, and the parallel series/colors arrays a pie chart consumes.
type Breakdown struct {
	Total  core.Money      `json:"total"`
	Items  []CategoryShare `json:"items"`
	Series []core.Money    `json:"series"`
	Colors []string        `json:"colors"`
}

// BuildOverview computes the dashboard numbers from a balance snapshot and
// a transaction snapshot. recent limits the recent-transactions list; the
// shares scale each total against the larger of the two, the way the
// dashboard's paired progress bars are drawn.
func BuildOverview(balance core.Balance, txns []core.Transaction, recent []core.Transaction) Overview {
	var income, expenses core.Money
	for _, t := range txns {
		switch t.Type {
		case core.Income:
			income += t.Amount
		case core.Expense:
			expenses += t.Amount
		}
	}

	max := income
	if expenses > max {
		max = expenses
	}
	var incomeShare, expenseShare float64
	if max > 0 {
		incomeShare = float64(income) / float64(max)
		expenseShare = float64(expenses) / float64(max)
	}

	return Overview{
		Balance:       balance,
		TotalIncome:   income,
		TotalExpenses: expenses,
		IncomeShare:   incomeShare,
		ExpenseShare:  expenseShare,
		Recent:        recent,
	}
}

// BuildBreakdown computes the per-category rollup from a category
// snapshot. Shares are fractions of the summed category amounts; with no
// folded amounts every share is zero.
func BuildBreakdown(cats []core.Category) Breakdown {
	var total core.Money
	for _, c := range cats {
		total += c.Amount
	}

	b := Breakdown{
		Total:  total,
		Items:  make([]CategoryShare, 0, len(cats)),
		Series: make([]core.Money, 0, len(cats)),
		Colors: make([]string, 0, len(cats)),
	}
	for _, c := range cats {
		var share float64
		if total > 0 {
			share = float64(c.Amount) / float64(total)
		}
		b.Items = append(b.Items, CategoryShare{Category: c, Share: share})
		b.Series = append(b.Series, c.Amount)
		b.Colors = append(b.Colors, c.Color)
	}
	return b
}
