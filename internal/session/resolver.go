package session

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"trackex/internal/identity"
	"trackex/internal/log"
)

// Identity is the part of the identity service the resolver needs.
type Identity interface {
	SessionID(token string) (string, error)
	Resolve(ctx context.Context, token string) (identity.Session, error)
}

// Result is the session state for one request.
type Result struct {
	State     State
	SessionID string
	Token     string
	User      identity.User
}

// Resolver turns a session token into a State, asking the identity service
// at most once per session id at a time.
type Resolver struct {
	id      Identity
	known   *Context
	wait    time.Duration
	timeout time.Duration
	logger  *log.Logger
	group   singleflight.Group
}

// NewResolver creates a resolver. wait bounds how long a request blocks on
// resolution; timeout bounds the resolution itself.
func NewResolver(id Identity, known *Context, wait, timeout time.Duration, logger *log.Logger) *Resolver {
	if logger == nil {
		logger = log.ForComponent(log.ComponentSession)
	}
	if timeout < wait {
		timeout = wait
	}
	return &Resolver{id: id, known: known, wait: wait, timeout: timeout, logger: logger}
}

// Resolve reports the state of token. Failures of any kind are
// Unauthenticated. If resolution outlasts the wait it keeps running in the
// background and the request sees Resolving.
func (r *Resolver) Resolve(ctx context.Context, token string) Result {
	if token == "" {
		return Result{State: Unauthenticated}
	}
	sid, err := r.id.SessionID(token)
	if err != nil {
		return Result{State: Unauthenticated}
	}
	if e, ok := r.known.Lookup(sid); ok {
		return Result{State: Authenticated, SessionID: sid, Token: token, User: e.User}
	}

	ch := r.group.DoChan(sid, func() (interface{}, error) {
		rctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()
		return r.id.Resolve(rctx, token)
	})

	timer := time.NewTimer(r.wait)
	defer timer.Stop()

	select {
	case res := <-ch:
		if res.Err != nil {
			r.logger.DebugContext(ctx, "Session resolution failed",
				log.FieldSessionID, sid,
				log.FieldError, res.Err)
			return Result{State: Unauthenticated}
		}
		sess := res.Val.(identity.Session)
		return Result{State: Authenticated, SessionID: sess.ID, Token: token, User: sess.User}
	case <-timer.C:
		return Result{State: Resolving, SessionID: sid, Token: token}
	case <-ctx.Done():
		return Result{State: Resolving, SessionID: sid, Token: token}
	}
}

type resultKey struct{}

// WithResult stores the request's session result in ctx.
func WithResult(ctx context.Context, res Result) context.Context {
	return context.WithValue(ctx, resultKey{}, res)
}

// FromContext returns the session result stored by WithResult.
func FromContext(ctx context.Context) (Result, bool) {
	res, ok := ctx.Value(resultKey{}).(Result)
	return res, ok
}
