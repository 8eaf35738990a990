package http

import (
	"bytes"
	"errors"
	"net/http"

	"trackex/internal/charts"
	"trackex/internal/core"
	"trackex/internal/dashboard"
	"trackex/internal/log"
)

type (
	categoryRow struct {
		Name    string
		Color   string
		Amount  string
		Percent int
	}

	expenseRow struct {
		Title    string
		Amount   string
		Category string
		Color    string
		Date     string
		Notes    string
	}

	monthRow struct {
		Month  string
		Amount string
	}

	dashboardPage struct {
		pageData
		TotalSpent string
		Budget     string
		MonthSpent string
		Remaining  string
		OverBudget bool
		Categories []categoryRow
		Recent     []expenseRow
		Trend      []monthRow
		HasData    bool
	}
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		NotFoundError("Page not found").Write(w)
		return
	}
	if resp := RequireMethod(r, http.MethodGet); resp != nil {
		resp.Write(w)
		return
	}
	u, _ := currentUser(r)

	summary, _ := s.deps.Dashboard.LoadOrEmpty(r.Context(), u.ID, dashboard.ViewDashboard)
	page := buildDashboard(summary)
	page.pageData = userPage("Dashboard", u)
	if r.URL.Query().Get("added") == "1" {
		page.Notice = "Expense added."
	}

	p, err := s.deps.Auth.Profile(r.Context(), u.ID)
	if err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Profile unavailable for dashboard",
			log.FieldError, err, log.FieldUserID, u.ID)
	} else if p.MonthlyBudget != nil {
		now := s.now()
		remaining := summary.BudgetRemaining(*p.MonthlyBudget, now)
		page.Budget = p.MonthlyBudget.Format()
		page.MonthSpent = summary.SpentInMonth(now).Format()
		page.Remaining = remaining.Format()
		page.OverBudget = remaining.Cents < 0
	}

	s.render(w, r, http.StatusOK, "dashboard.html", page)
}

func buildDashboard(sum core.Summary) dashboardPage {
	page := dashboardPage{
		TotalSpent: sum.TotalSpent.Format(),
		HasData:    len(sum.RecentExpenses) > 0,
	}
	for _, c := range sum.Categories() {
		pct := 0
		if sum.TotalSpent.Cents > 0 {
			pct = int((c.Amount.Cents*100 + sum.TotalSpent.Cents/2) / sum.TotalSpent.Cents)
		}
		page.Categories = append(page.Categories, categoryRow{
			Name:    c.Name,
			Color:   c.Color,
			Amount:  c.Amount.Format(),
			Percent: pct,
		})
	}
	for _, e := range sum.RecentExpenses {
		page.Recent = append(page.Recent, expenseRow{
			Title:    e.Title,
			Amount:   e.Amount.Format(),
			Category: e.Category,
			Color:    core.CategoryColor(e.Category),
			Date:     e.Date.String(),
			Notes:    e.Notes,
		})
	}
	for _, m := range sum.MonthlyTrend {
		page.Trend = append(page.Trend, monthRow{Month: m.Month, Amount: m.Amount.Format()})
	}
	return page
}

func (s *Server) handleCategoryChart(w http.ResponseWriter, r *http.Request) {
	s.serveChart(w, r, dashboard.ViewCategoryChart, func(buf *bytes.Buffer, sum core.Summary) error {
		return charts.CategoryPie(buf, sum.Categories(), charts.DefaultWidth, charts.DefaultHeight)
	})
}

func (s *Server) handleTrendChart(w http.ResponseWriter, r *http.Request) {
	s.serveChart(w, r, dashboard.ViewTrendChart, func(buf *bytes.Buffer, sum core.Summary) error {
		return charts.TrendLine(buf, sum.MonthlyTrend, charts.DefaultWidth, charts.DefaultHeight)
	})
}

// serveChart renders a chart of the user's summary. Too little data is
// 204 No Content.
func (s *Server) serveChart(w http.ResponseWriter, r *http.Request, view dashboard.View, draw func(*bytes.Buffer, core.Summary) error) {
	if resp := RequireMethod(r, http.MethodGet); resp != nil {
		resp.Write(w)
		return
	}
	u, _ := currentUser(r)
	summary, _ := s.deps.Dashboard.LoadOrEmpty(r.Context(), u.ID, view)

	var buf bytes.Buffer
	if err := draw(&buf, summary); err != nil {
		if errors.Is(err, charts.ErrNotEnoughData) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Chart rendering failed",
			log.FieldError, err,
			log.FieldUserID, u.ID,
			"view", string(view),
			log.FieldOperation, log.OpRender)
		InternalServerError("Chart unavailable").Write(w)
		return
	}
	SVGResponse(buf.Bytes()).Write(w)
}
