// Package dashboard loads a user's expenses and reduces them to the
// dashboard summary.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"trackex/internal/core"
	"trackex/internal/identity"
	"trackex/internal/log"
	"trackex/internal/ports"
)

var (
	// ErrSuperseded is the cause a fetch is cancelled with when a newer
	// fetch for the same user and view replaces it. Callers of the replaced
	// fetch receive the newer fetch's result instead.
	ErrSuperseded = errors.New("dashboard: fetch superseded")
	// ErrSignedOut is returned by a fetch cancelled because its user
	// signed out.
	ErrSignedOut = errors.New("dashboard: user signed out")
)

type subscriber interface {
	Subscribe(fn func(identity.Event)) (unsubscribe func())
}

// fetch is one store call shared by every caller waiting on it. Fields
// below done are written once before done is closed.
type fetch struct {
	key     fetchKey
	cancel  context.CancelCauseFunc
	waiters int // guarded by Loader.mu
	next    *fetch

	done    chan struct{}
	summary core.Summary
	err     error
}

// View names a consumer of the summary. Fetches supersede each other only
// within the same user and view.
type View string

const (
	ViewDashboard     View = "dashboard"
	ViewCategoryChart View = "category_chart"
	ViewTrendChart    View = "trend_chart"
)

type fetchKey struct {
	userID string
	view   View
}

// Loader runs at most one expense fetch per user and view. A fetch lives
// while at least one request waits on it, bounded by a timeout.
type Loader struct {
	store   ports.ExpenseLister
	timeout time.Duration
	logger  *log.Logger

	mu       sync.Mutex
	inflight map[fetchKey]*fetch
}

func NewLoader(store ports.ExpenseLister, timeout time.Duration, logger *log.Logger) *Loader {
	if logger == nil {
		logger = log.ForComponent(log.ComponentDashboard)
	}
	return &Loader{
		store:    store,
		timeout:  timeout,
		logger:   logger,
		inflight: make(map[fetchKey]*fetch),
	}
}

// Attach cancels a user's in-flight fetches when that user signs out.
func (l *Loader) Attach(sub subscriber) (detach func()) {
	return sub.Subscribe(func(ev identity.Event) {
		if ev.Type != identity.EventSignedOut {
			return
		}
		l.mu.Lock()
		for k, f := range l.inflight {
			if k.userID == ev.User.ID {
				f.cancel(ErrSignedOut)
				delete(l.inflight, k)
			}
		}
		l.mu.Unlock()
	})
}

// Load fetches the user's expenses for the dashboard view and summarizes
// them.
func (l *Loader) Load(ctx context.Context, userID string) (core.Summary, error) {
	return l.LoadView(ctx, userID, ViewDashboard)
}

// LoadView is Load for a named view. A newer call for the same user and
// view restarts the fetch so it sees the latest writes; every caller still
// waiting gets the newest fetch's result. When the last waiter's context
// ends the fetch is cancelled.
func (l *Loader) LoadView(ctx context.Context, userID string, view View) (core.Summary, error) {
	key := fetchKey{userID: userID, view: view}

	l.mu.Lock()
	f := l.start(ctx, key)
	if prev, ok := l.inflight[key]; ok {
		prev.next = f
		f.waiters += prev.waiters
		prev.waiters = 0
		prev.cancel(ErrSuperseded)
	}
	l.inflight[key] = f
	l.mu.Unlock()

	for {
		select {
		case <-f.done:
			if !errors.Is(f.err, ErrSuperseded) {
				return f.summary, f.err
			}
			l.mu.Lock()
			f = f.next
			l.mu.Unlock()
		case <-ctx.Done():
			l.leave(f)
			return core.Summary{}, ctx.Err()
		}
	}
}

// start launches the store call for key with one waiter. Callers hold l.mu.
func (l *Loader) start(ctx context.Context, key fetchKey) *fetch {
	fctx, cancel := context.WithCancelCause(context.WithoutCancel(ctx))
	f := &fetch{key: key, cancel: cancel, waiters: 1, done: make(chan struct{})}

	go func() {
		defer cancel(nil)
		tctx := fctx
		if l.timeout > 0 {
			var stop context.CancelFunc
			tctx, stop = context.WithTimeout(fctx, l.timeout)
			defer stop()
		}

		expenses, err := l.store.ListExpenses(tctx, key.userID)

		l.mu.Lock()
		if l.inflight[key] == f {
			delete(l.inflight, key)
		}
		l.mu.Unlock()

		switch cause := context.Cause(fctx); {
		case cause != nil:
			f.err = cause
		case err != nil:
			f.err = fmt.Errorf("list expenses: %w", err)
		default:
			f.summary = core.Summarize(expenses)
		}
		close(f.done)
	}()
	return f
}

// leave drops one waiter from f, following any fetches that superseded it,
// and cancels the fetch nobody waits on anymore.
func (l *Loader) leave(f *fetch) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for f.next != nil {
		f = f.next
	}
	f.waiters--
	if f.waiters > 0 {
		return
	}
	f.cancel(context.Canceled)
	if l.inflight[f.key] == f {
		delete(l.inflight, f.key)
	}
}

// LoadOrEmpty is Load for views: on failure it logs and returns the empty
// summary with ok=false.
func (l *Loader) LoadOrEmpty(ctx context.Context, userID string, view View) (s core.Summary, ok bool) {
	s, err := l.LoadView(ctx, userID, view)
	if err == nil {
		return s, true
	}
	if errors.Is(err, ErrSignedOut) || errors.Is(err, context.Canceled) {
		l.logger.DebugContext(ctx, "Dashboard fetch abandoned",
			log.FieldUserID, userID, "view", string(view), log.FieldError, err)
	} else {
		l.logger.ErrorContext(ctx, "Dashboard fetch failed",
			log.FieldUserID, userID,
			"view", string(view),
			log.FieldOperation, log.OpList,
			log.FieldError, err)
	}
	return core.Summarize(nil), false
}

// InFlight reports how many fetches are running.
func (l *Loader) InFlight() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.inflight)
}
