package core

import (
	"reflect"
	"testing"
	"time"
)

func exp(id string, cents int64, category string, y, m, d int) Expense {
	return Expense{
		ID:       id,
		Title:    "t" + id,
		Amount:   Money{Cents: cents},
		Category: category,
		Date:     NewDate(y, m, d),
		UserID:   "u1",
	}
}

func TestSummarize_SingleMonth(t *testing.T) {
	in := []Expense{
		exp("a", 1000, "Food", 2025, 1, 5),
		exp("b", 2000, "Food", 2025, 1, 1),
	}
	s := Summarize(in)

	if s.TotalSpent.Cents != 3000 {
		t.Fatalf("total = %d, want 3000", s.TotalSpent.Cents)
	}
	if !reflect.DeepEqual(s.ByCategory, map[string]Money{"Food": {Cents: 3000}}) {
		t.Fatalf("by category = %v", s.ByCategory)
	}
	if !reflect.DeepEqual(s.RecentExpenses, in) {
		t.Fatalf("recent = %v", s.RecentExpenses)
	}
	want := []MonthlyAmount{{Month: "Jan 2025", Amount: Money{Cents: 3000}}}
	if !reflect.DeepEqual(s.MonthlyTrend, want) {
		t.Fatalf("trend = %v, want %v", s.MonthlyTrend, want)
	}
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)
	if s.TotalSpent.Cents != 0 {
		t.Fatalf("total = %d", s.TotalSpent.Cents)
	}
	if s.ByCategory == nil || len(s.ByCategory) != 0 {
		t.Fatalf("by category = %v", s.ByCategory)
	}
	if s.RecentExpenses == nil || len(s.RecentExpenses) != 0 {
		t.Fatalf("recent = %v", s.RecentExpenses)
	}
	if s.MonthlyTrend == nil || len(s.MonthlyTrend) != 0 {
		t.Fatalf("trend = %v", s.MonthlyTrend)
	}
}

func TestSummarize_TrendKeepsTailOfFirstOccurrence(t *testing.T) {
	// One expense per month, Aug 2025 down to Jan 2025.
	var in []Expense
	for m := 8; m >= 1; m-- {
		in = append(in, exp(string(rune('a'+m)), int64(m*100), "Rent", 2025, m, 10))
	}
	s := Summarize(in)

	want := []MonthlyAmount{
		{Month: "Jun 2025", Amount: Money{Cents: 600}},
		{Month: "May 2025", Amount: Money{Cents: 500}},
		{Month: "Apr 2025", Amount: Money{Cents: 400}},
		{Month: "Mar 2025", Amount: Money{Cents: 300}},
		{Month: "Feb 2025", Amount: Money{Cents: 200}},
		{Month: "Jan 2025", Amount: Money{Cents: 100}},
	}
	if !reflect.DeepEqual(s.MonthlyTrend, want) {
		t.Fatalf("trend = %v\nwant    %v", s.MonthlyTrend, want)
	}
}

func TestSummarize_Properties(t *testing.T) {
	lists := [][]Expense{
		nil,
		{exp("a", 1, "Food", 2024, 12, 31)},
		{
			exp("a", 1250, "Food", 2025, 3, 2),
			exp("b", 999, "Rent", 2025, 3, 1),
			exp("c", 1, "Snacks", 2025, 2, 28),
			exp("d", 40000, "Rent", 2025, 2, 1),
			exp("e", 75, "Food", 2024, 11, 3),
			exp("f", 0, "Other", 2024, 10, 3),
			exp("g", 3300, "Utilities", 2024, 1, 3),
		},
	}
	for i, in := range lists {
		s := Summarize(in)

		var total int64
		for _, e := range in {
			total += e.Amount.Cents
		}
		if s.TotalSpent.Cents != total {
			t.Fatalf("list %d: total = %d, want %d", i, s.TotalSpent.Cents, total)
		}

		var catSum int64
		for _, m := range s.ByCategory {
			catSum += m.Cents
		}
		if catSum != total {
			t.Fatalf("list %d: categories sum to %d, want %d", i, catSum, total)
		}

		n := min(RecentLimit, len(in))
		if len(s.RecentExpenses) != n {
			t.Fatalf("list %d: recent len = %d, want %d", i, len(s.RecentExpenses), n)
		}
		for j := 0; j < n; j++ {
			if s.RecentExpenses[j].ID != in[j].ID {
				t.Fatalf("list %d: recent[%d] = %s, want %s", i, j, s.RecentExpenses[j].ID, in[j].ID)
			}
		}

		if len(s.MonthlyTrend) > TrendMonths {
			t.Fatalf("list %d: trend len = %d", i, len(s.MonthlyTrend))
		}

		if again := Summarize(in); !reflect.DeepEqual(s, again) {
			t.Fatalf("list %d: summarize is not deterministic", i)
		}
	}
}

func TestSummarize_DoesNotAliasInput(t *testing.T) {
	in := []Expense{exp("a", 100, "Food", 2025, 1, 1)}
	s := Summarize(in)
	s.RecentExpenses[0].Title = "changed"
	if in[0].Title != "ta" {
		t.Fatalf("input modified through summary")
	}
}

func TestSummaryCategories(t *testing.T) {
	s := Summary{ByCategory: map[string]Money{
		"Zeta":  {Cents: 1},
		"Rent":  {Cents: 2},
		"Food":  {Cents: 3},
		"Alpha": {Cents: 4},
	}}
	got := s.Categories()
	names := make([]string, len(got))
	for i, c := range got {
		names[i] = c.Name
	}
	want := []string{"Food", "Rent", "Alpha", "Zeta"}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("order = %v, want %v", names, want)
	}
	if got[0].Color != "#EF4444" || got[2].Color != FallbackColor {
		t.Fatalf("colors = %s, %s", got[0].Color, got[2].Color)
	}
}

func TestBudgetRemainingCountsCurrentMonthOnly(t *testing.T) {
	in := []Expense{
		exp("c", 5000, "Food", 2025, 3, 2),
		exp("b", 5000, "Food", 2024, 6, 10),
		exp("a", 5000, "Rent", 2024, 1, 15),
	}
	s := Summarize(in)
	now := time.Date(2025, 3, 31, 23, 0, 0, 0, time.UTC)

	if got := s.SpentInMonth(now); got.Cents != 5000 {
		t.Fatalf("spent in month = %d", got.Cents)
	}
	if got := s.BudgetRemaining(Money{Cents: 10000}, now); got.Cents != 5000 {
		t.Fatalf("remaining = %d, want 5000", got.Cents)
	}
	if got := s.BudgetRemaining(Money{Cents: 3000}, now); got.Cents != -2000 {
		t.Fatalf("over budget remaining = %d", got.Cents)
	}
	if got := s.BudgetRemaining(Money{Cents: 10000}, now.AddDate(0, 2, 0)); got.Cents != 10000 {
		t.Fatalf("empty month remaining = %d", got.Cents)
	}
}
