// Package http serves the TrackEx web pages.
package http

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"trackex/internal/core"
	"trackex/internal/dashboard"
	"trackex/internal/identity"
	"trackex/internal/log"
	"trackex/internal/middleware/ratelimit"
	"trackex/internal/middleware/security"
	"trackex/internal/middleware/trace"
	"trackex/internal/services"
	"trackex/internal/session"
	appweb "trackex/web"
)

type (
	// Authenticator is the identity service as seen by the pages.
	Authenticator interface {
		SignUp(ctx context.Context, email, password, displayName string) (identity.Session, error)
		SignIn(ctx context.Context, email, password string) (identity.Session, error)
		SignOut(ctx context.Context, token string) error
		Profile(ctx context.Context, userID string) (identity.Profile, error)
		UpdateProfile(ctx context.Context, userID, displayName string, budget *core.Money) (identity.Profile, error)
	}

	SessionResolver interface {
		Resolve(ctx context.Context, token string) session.Result
	}

	SummaryLoader interface {
		LoadOrEmpty(ctx context.Context, userID string, view dashboard.View) (core.Summary, bool)
	}

	ExpenseCreator interface {
		Create(ctx context.Context, userID string, in services.NewExpense) (core.Expense, error)
	}

	// Deps wires the server to the rest of the process. Limiter, Ready and
	// Gauges are optional.
	Deps struct {
		Auth         Authenticator
		Sessions     SessionResolver
		Dashboard    SummaryLoader
		Expenses     ExpenseCreator
		Limiter      *ratelimit.Limiter
		Ready        func(ctx context.Context) error
		Gauges       func() map[string]int
		CookieSecure bool
		Logger       *log.Logger
	}
)

type Server struct {
	http.Server
	templates *template.Template
	deps      Deps
	logger    *log.Logger
	trace     *trace.Middleware
	detector  *security.Detector
	now       func() time.Time
}

// NewServer parses the embedded templates and mounts every route.
func NewServer(addr string, deps Deps) (*Server, error) {
	if deps.Auth == nil || deps.Sessions == nil || deps.Dashboard == nil || deps.Expenses == nil {
		return nil, fmt.Errorf("http: auth, sessions, dashboard and expenses are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = log.ForComponent(log.ComponentHTTP)
	}

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	detector := security.NewDetector(logger.WithComponent(log.ComponentSecurity))
	s := &Server{
		templates: t,
		deps:      deps,
		logger:    logger,
		detector:  detector,
		trace:     trace.NewMiddleware(detector.ExtractClientIP, logger.WithComponent(log.ComponentTrace)),
		now:       time.Now,
	}

	mux := http.NewServeMux()

	// Static assets (served from embedded FS)
	sub, err := fs.Sub(appweb.StaticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("mount static assets: %w", err)
	}
	mux.Handle("/static/", security.StaticAssetMiddleware(3600)(
		http.StripPrefix("/static/", http.FileServer(http.FS(sub)))))

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/metrics", s.handleMetrics)

	mux.Handle("/login", s.limited(s.guard(session.Public, s.handleLogin)))
	mux.Handle("/register", s.limited(s.guard(session.Public, s.handleRegister)))

	mux.Handle("/", s.guard(session.Protected, s.handleDashboard))
	mux.Handle("/add-expense", s.guard(session.Protected, s.handleAddExpense))
	mux.Handle("/profile", s.guard(session.Protected, s.handleProfile))
	mux.Handle("/logout", s.guard(session.Protected, s.handleLogout))
	mux.Handle("/charts/category.svg", s.guard(session.Protected, s.handleCategoryChart))
	mux.Handle("/charts/trend.svg", s.guard(session.Protected, s.handleTrendChart))

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	s.Server = http.Server{
		Addr:              addr,
		Handler:           detector.Middleware(headers.Middleware(s.trace.Middleware(mux))),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

// limited applies the auth rate limit to form submissions.
func (s *Server) limited(next http.Handler) http.Handler {
	if s.deps.Limiter == nil {
		return next
	}
	onLimit := func(w http.ResponseWriter, r *http.Request) {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
			log.FieldClientIP, s.detector.ExtractClientIP(r),
			log.FieldPath, r.URL.Path)
		ErrorResponse(http.StatusTooManyRequests, "Too many attempts. Please wait a minute and try again.").Write(w)
	}
	return s.deps.Limiter.Middleware(s.detector.ExtractClientIP, onLimit, http.MethodPost)(next)
}

// guard resolves the session cookie and applies the routing policy before
// next runs. next sees the result through session.FromContext.
func (s *Server) guard(access session.Access, next http.HandlerFunc) http.Handler {
	return security.NoStore(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res := s.deps.Sessions.Resolve(r.Context(), sessionToken(r))

		outcome := session.Decide(access, res.State)
		fields := log.NewFields().
			WithSession(res.SessionID, res.State.String()).
			WithUser(res.User.ID)
		log.FromContext(r.Context()).DebugContext(r.Context(), "Session guard",
			append(fields.ToSlice(), log.FieldPath, r.URL.Path, "outcome", outcome.Location())...)

		switch outcome {
		case session.ShowLoading:
			s.render(w, r, http.StatusOK, "loading.html", pageData{Title: "Loading"})
		case session.RedirectToLogin, session.RedirectToHome:
			http.Redirect(w, r, outcome.Location(), http.StatusSeeOther)
		default:
			next(w, r.WithContext(session.WithResult(r.Context(), res)))
		}
	}))
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.Ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.deps.Ready(ctx); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("not ready"))
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodGet); resp != nil {
		resp.Write(w)
		return
	}
	body := map[string]any{
		"http":     s.trace.GetMetrics(),
		"security": s.detector.GetMetrics(),
	}
	if s.deps.Limiter != nil {
		body["rate_limit"] = s.deps.Limiter.GetMetrics()
	}
	if s.deps.Gauges != nil {
		body["gauges"] = s.deps.Gauges()
	}
	JSONResponse(body).Write(w)
}

// render executes a page template. Execution errors after the header is
// written can only be logged.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Template execution failed",
			log.FieldError, err,
			"template", name,
			log.FieldOperation, log.OpRender)
	}
}
