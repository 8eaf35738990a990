package http

import (
	"errors"
	"net/http"

	"trackex/internal/core"
	"trackex/internal/log"
	"trackex/internal/services"
)

type addExpensePage struct {
	pageData
	Categories []core.Category
	Form       services.NewExpense
	Field      string
}

var fieldMessages = map[string]string{
	"title":    "Enter a title of at most 200 characters.",
	"amount":   "Amount must be a positive number, for example 12.50.",
	"category": "Choose one of the listed categories.",
	"date":     "Date must be in YYYY-MM-DD format.",
	"notes":    "Notes can be at most 1000 characters.",
}

func (s *Server) handleAddExpense(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodGet, http.MethodPost); resp != nil {
		resp.Write(w)
		return
	}
	u, _ := currentUser(r)
	page := addExpensePage{
		pageData:   userPage("Add expense", u),
		Categories: core.Categories(),
	}

	if r.Method == http.MethodGet {
		page.Form.Date = s.now().Format("2006-01-02")
		s.render(w, r, http.StatusOK, "add_expense.html", page)
		return
	}

	if resp := ParseFormOrFail(w, r); resp != nil {
		resp.Write(w)
		return
	}
	page.Form = services.NewExpense{
		Title:    FormValue(r.PostForm, "title"),
		Amount:   FormValue(r.PostForm, "amount"),
		Category: FormValue(r.PostForm, "category"),
		Date:     FormValue(r.PostForm, "date"),
		Notes:    FormValue(r.PostForm, "notes"),
	}

	if _, err := s.deps.Expenses.Create(r.Context(), u.ID, page.Form); err != nil {
		var verr *services.ValidationError
		if errors.As(err, &verr) {
			page.Field = verr.Field
			page.Error = fieldMessages[verr.Field]
			if page.Error == "" {
				page.Error = "Check the highlighted fields."
			}
			s.render(w, r, http.StatusUnprocessableEntity, "add_expense.html", page)
			return
		}
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Expense save failed",
			log.FieldError, err,
			log.FieldUserID, u.ID,
			log.FieldOperation, log.OpCreate)
		page.Error = "Could not save the expense. Please try again."
		s.render(w, r, http.StatusInternalServerError, "add_expense.html", page)
		return
	}

	http.Redirect(w, r, "/?added=1", http.StatusSeeOther)
}
