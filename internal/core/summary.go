package core

import (
	"sort"
	"time"
)

const (
	// RecentLimit is how many of the newest expenses a summary keeps.
	RecentLimit = 5
	// TrendMonths is the maximum number of months in a summary trend.
	TrendMonths = 6
)

type (
	// MonthlyAmount is the spend for one calendar month label.
	MonthlyAmount struct {
		Month  string
		Amount Money
	}

	// CategoryAmount represents an amount aggregated by category name.
	CategoryAmount struct {
		Name   string
		Color  string
		Amount Money
	}

	// Summary is the dashboard view of one user's expenses. It is derived
	// from the expense list on every fetch and holds no state of its own.
	Summary struct {
		TotalSpent     Money
		ByCategory     map[string]Money
		RecentExpenses []Expense
		MonthlyTrend   []MonthlyAmount
		// ByMonth holds the spend for every month label seen, not only the
		// trend window.
		ByMonth map[string]Money
	}
)

// Summarize reduces a date-descending expense list to a Summary.
//
// The monthly trend sums amounts per month label in order of first
// appearance and then keeps the last TrendMonths entries. For a descending
// input with more than TrendMonths distinct months this keeps the oldest
// months, listed newest first.
func Summarize(expenses []Expense) Summary {
	s := Summary{
		ByCategory:     make(map[string]Money),
		RecentExpenses: []Expense{},
		MonthlyTrend:   []MonthlyAmount{},
		ByMonth:        make(map[string]Money),
	}

	var (
		order   []string
		byMonth = s.ByMonth
	)
	for _, e := range expenses {
		s.TotalSpent = s.TotalSpent.Add(e.Amount)
		s.ByCategory[e.Category] = s.ByCategory[e.Category].Add(e.Amount)

		label := e.Date.MonthLabel()
		if _, seen := byMonth[label]; !seen {
			order = append(order, label)
		}
		byMonth[label] = byMonth[label].Add(e.Amount)
	}

	n := min(RecentLimit, len(expenses))
	s.RecentExpenses = append(s.RecentExpenses, expenses[:n]...)

	if len(order) > TrendMonths {
		order = order[len(order)-TrendMonths:]
	}
	for _, label := range order {
		s.MonthlyTrend = append(s.MonthlyTrend, MonthlyAmount{Month: label, Amount: byMonth[label]})
	}
	return s
}

// Categories returns the category totals in registry order, followed by
// unregistered names sorted alphabetically.
func (s Summary) Categories() []CategoryAmount {
	out := make([]CategoryAmount, 0, len(s.ByCategory))
	known := make(map[string]bool, len(defaultCategories))
	for _, c := range defaultCategories {
		known[c.Name] = true
		if amt, ok := s.ByCategory[c.Name]; ok {
			out = append(out, CategoryAmount{Name: c.Name, Color: c.Color, Amount: amt})
		}
	}
	var extra []CategoryAmount
	for name, amt := range s.ByCategory {
		if !known[name] {
			extra = append(extra, CategoryAmount{Name: name, Color: FallbackColor, Amount: amt})
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i].Name < extra[j].Name })
	return append(out, extra...)
}

// SpentInMonth returns the spend for the calendar month containing now.
func (s Summary) SpentInMonth(now time.Time) Money {
	return s.ByMonth[NewDate(now.Year(), int(now.Month()), 1).MonthLabel()]
}

// BudgetRemaining returns budget minus the spend in the month containing
// now, which may be negative.
func (s Summary) BudgetRemaining(budget Money, now time.Time) Money {
	return Money{Cents: budget.Cents - s.SpentInMonth(now).Cents}
}
