package http

import (
	"errors"
	"net/http"

	"trackex/internal/core"
	"trackex/internal/identity"
	"trackex/internal/log"
)

// pageData is shared by every template. User is nil on public pages.
type pageData struct {
	Title  string
	User   *identity.User
	Error  string
	Notice string
}

type authPage struct {
	pageData
	Email       string
	DisplayName string
}

type profilePage struct {
	pageData
	Email         string
	DisplayName   string
	MonthlyBudget string
}

func userPage(title string, u identity.User) pageData {
	return pageData{Title: title, User: &u}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodGet, http.MethodPost); resp != nil {
		resp.Write(w)
		return
	}
	page := authPage{pageData: pageData{Title: "Sign in"}}
	if r.Method == http.MethodGet {
		s.render(w, r, http.StatusOK, "login.html", page)
		return
	}
	if resp := ParseFormOrFail(w, r); resp != nil {
		resp.Write(w)
		return
	}

	page.Email = FormValue(r.PostForm, "email")
	sess, err := s.deps.Auth.SignIn(r.Context(), page.Email, r.PostForm.Get("password"))
	if err != nil {
		status := http.StatusUnauthorized
		page.Error = "Invalid email or password."
		if !errors.Is(err, identity.ErrInvalidCredentials) {
			status = http.StatusInternalServerError
			page.Error = "Sign-in failed. Please try again."
			log.FromContext(r.Context()).ErrorContext(r.Context(), "Sign-in failed",
				log.FieldError, err, log.FieldOperation, log.OpSignIn)
		}
		s.render(w, r, status, "login.html", page)
		return
	}

	s.setSessionCookie(w, sess)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodGet, http.MethodPost); resp != nil {
		resp.Write(w)
		return
	}
	page := authPage{pageData: pageData{Title: "Create account"}}
	if r.Method == http.MethodGet {
		s.render(w, r, http.StatusOK, "register.html", page)
		return
	}
	if resp := ParseFormOrFail(w, r); resp != nil {
		resp.Write(w)
		return
	}

	page.Email = FormValue(r.PostForm, "email")
	page.DisplayName = FormValue(r.PostForm, "display_name")
	password := r.PostForm.Get("password")
	if confirm := r.PostForm.Get("confirm_password"); confirm != "" && confirm != password {
		page.Error = "Passwords do not match."
		s.render(w, r, http.StatusUnprocessableEntity, "register.html", page)
		return
	}

	sess, err := s.deps.Auth.SignUp(r.Context(), page.Email, password, page.DisplayName)
	if err != nil {
		status := http.StatusUnprocessableEntity
		switch {
		case errors.Is(err, identity.ErrInvalidEmail):
			page.Error = "Enter a valid email address."
		case errors.Is(err, identity.ErrWeakPassword):
			page.Error = "Password must be at least 6 characters."
		case errors.Is(err, identity.ErrEmailTaken):
			page.Error = "An account with this email already exists."
		case errors.Is(err, identity.ErrDisplayNameTooLong):
			page.Error = "Display name is too long."
		default:
			status = http.StatusInternalServerError
			page.Error = "Could not create the account. Please try again."
			log.FromContext(r.Context()).ErrorContext(r.Context(), "Sign-up failed",
				log.FieldError, err, log.FieldOperation, log.OpSignUp)
		}
		s.render(w, r, status, "register.html", page)
		return
	}

	s.setSessionCookie(w, sess)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleLogout signs out. A failed sign-out is logged and leaves the
// session as it was.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodPost); resp != nil {
		resp.Write(w)
		return
	}
	if err := s.deps.Auth.SignOut(r.Context(), sessionToken(r)); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Sign-out failed",
			log.FieldError, err, log.FieldOperation, log.OpSignOut)
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.clearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodGet, http.MethodPost); resp != nil {
		resp.Write(w)
		return
	}
	u, _ := currentUser(r)
	page := profilePage{pageData: userPage("Profile", u)}

	if r.Method == http.MethodGet {
		p, err := s.deps.Auth.Profile(r.Context(), u.ID)
		if err != nil {
			log.FromContext(r.Context()).ErrorContext(r.Context(), "Profile load failed",
				log.FieldError, err, log.FieldUserID, u.ID, log.FieldOperation, log.OpRead)
			InternalServerError("Could not load your profile.").Write(w)
			return
		}
		page.Email = p.Email
		page.DisplayName = p.DisplayName
		if p.MonthlyBudget != nil {
			page.MonthlyBudget = p.MonthlyBudget.String()
		}
		if r.URL.Query().Get("saved") == "1" {
			page.Notice = "Profile saved."
		}
		s.render(w, r, http.StatusOK, "profile.html", page)
		return
	}

	if resp := ParseFormOrFail(w, r); resp != nil {
		resp.Write(w)
		return
	}
	page.Email = u.Email
	page.DisplayName = FormValue(r.PostForm, "display_name")
	page.MonthlyBudget = FormValue(r.PostForm, "monthly_budget")

	var budget *core.Money
	if page.MonthlyBudget != "" {
		m, err := core.ParseAmount(page.MonthlyBudget)
		if err != nil {
			page.Error = "Monthly budget must be a positive amount."
			s.render(w, r, http.StatusUnprocessableEntity, "profile.html", page)
			return
		}
		budget = &m
	}

	if _, err := s.deps.Auth.UpdateProfile(r.Context(), u.ID, page.DisplayName, budget); err != nil {
		if errors.Is(err, identity.ErrDisplayNameTooLong) || errors.Is(err, core.ErrInvalidAmount) {
			page.Error = err.Error()
			s.render(w, r, http.StatusUnprocessableEntity, "profile.html", page)
			return
		}
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Profile update failed",
			log.FieldError, err, log.FieldUserID, u.ID, log.FieldOperation, log.OpUpdate)
		page.Error = "Could not save your profile. Please try again."
		s.render(w, r, http.StatusInternalServerError, "profile.html", page)
		return
	}
	http.Redirect(w, r, "/profile?saved=1", http.StatusSeeOther)
}
