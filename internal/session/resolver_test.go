package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trackex/internal/identity"
	"trackex/internal/log"
)

// fakeIdentity resolves tokens of the form "tok-<sid>" and publishes a
// restored event like the real service does.
type fakeIdentity struct {
	mu      sync.Mutex
	subs    []func(identity.Event)
	calls   atomic.Int32
	release chan struct{}
	fail    bool
}

func (f *fakeIdentity) Subscribe(fn func(identity.Event)) func() {
	f.mu.Lock()
	f.subs = append(f.subs, fn)
	f.mu.Unlock()
	return func() {}
}

func (f *fakeIdentity) emit(ev identity.Event) {
	f.mu.Lock()
	subs := append([]func(identity.Event){}, f.subs...)
	f.mu.Unlock()
	for _, fn := range subs {
		fn(ev)
	}
}

func (f *fakeIdentity) SessionID(token string) (string, error) {
	if !strings.HasPrefix(token, "tok-") {
		return "", identity.ErrInvalidToken
	}
	return strings.TrimPrefix(token, "tok-"), nil
}

func (f *fakeIdentity) Resolve(ctx context.Context, token string) (identity.Session, error) {
	f.calls.Add(1)
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return identity.Session{}, ctx.Err()
		}
	}
	if f.fail {
		return identity.Session{}, errors.New("identity service unavailable")
	}
	sid, _ := f.SessionID(token)
	sess := identity.Session{ID: sid, Token: token, User: identity.User{ID: "u-" + sid}, ExpiresAt: time.Now().Add(time.Hour)}
	f.emit(identity.Event{Type: identity.EventRestored, SessionID: sid, User: sess.User, ExpiresAt: sess.ExpiresAt})
	return sess, nil
}

func newResolver(f *fakeIdentity, wait, timeout time.Duration) (*Resolver, *Context) {
	known := NewContext(nil)
	known.Attach(f)
	return NewResolver(f, known, wait, timeout, log.Discard()), known
}

func TestResolveNoToken(t *testing.T) {
	r, _ := newResolver(&fakeIdentity{}, time.Second, time.Second)
	assert.Equal(t, Unauthenticated, r.Resolve(context.Background(), "").State)
	assert.Equal(t, Unauthenticated, r.Resolve(context.Background(), "bogus").State)
}

func TestResolveAuthenticatesAndRemembers(t *testing.T) {
	f := &fakeIdentity{}
	r, known := newResolver(f, time.Second, time.Second)

	res := r.Resolve(context.Background(), "tok-s1")
	require.Equal(t, Authenticated, res.State)
	assert.Equal(t, "u-s1", res.User.ID)
	assert.Equal(t, 1, known.Len())

	res = r.Resolve(context.Background(), "tok-s1")
	assert.Equal(t, Authenticated, res.State)
	assert.Equal(t, int32(1), f.calls.Load(), "known session must not be resolved again")
}

func TestResolveFailureIsUnauthenticated(t *testing.T) {
	r, _ := newResolver(&fakeIdentity{fail: true}, time.Second, time.Second)
	assert.Equal(t, Unauthenticated, r.Resolve(context.Background(), "tok-s1").State)
}

func TestResolveSlowIdentityShowsResolving(t *testing.T) {
	f := &fakeIdentity{release: make(chan struct{})}
	r, known := newResolver(f, 10*time.Millisecond, time.Second)

	res := r.Resolve(context.Background(), "tok-s2")
	assert.Equal(t, Resolving, res.State)

	close(f.release)
	require.Eventually(t, func() bool {
		_, ok := known.Lookup("s2")
		return ok
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, Authenticated, r.Resolve(context.Background(), "tok-s2").State)
}

func TestResolveDeduplicatesConcurrentRequests(t *testing.T) {
	f := &fakeIdentity{release: make(chan struct{})}
	r, _ := newResolver(f, time.Second, time.Second)

	var wg sync.WaitGroup
	results := make([]Result, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = r.Resolve(context.Background(), "tok-s3")
		}(i)
	}
	time.Sleep(20 * time.Millisecond)
	close(f.release)
	wg.Wait()

	for _, res := range results {
		assert.Equal(t, Authenticated, res.State)
	}
	assert.Equal(t, int32(1), f.calls.Load())
}

func TestContextEvents(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	f := &fakeIdentity{}
	c := NewContext(clock)
	detach := c.Attach(f)
	defer detach()

	f.emit(identity.Event{Type: identity.EventSignedIn, SessionID: "a", User: identity.User{ID: "u1"}, ExpiresAt: now.Add(time.Hour)})
	f.emit(identity.Event{Type: identity.EventSignedIn, SessionID: "b", User: identity.User{ID: "u1"}, ExpiresAt: now.Add(time.Minute)})
	require.Equal(t, 2, c.Len())

	f.emit(identity.Event{Type: identity.EventUpdated, User: identity.User{ID: "u1", DisplayName: "New"}})
	e, ok := c.Lookup("a")
	require.True(t, ok)
	assert.Equal(t, "New", e.User.DisplayName)

	f.emit(identity.Event{Type: identity.EventSignedOut, SessionID: "a"})
	_, ok = c.Lookup("a")
	assert.False(t, ok)

	now = now.Add(2 * time.Minute)
	_, ok = c.Lookup("b")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestContextIgnoresRestoreAfterSignOut(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	f := &fakeIdentity{}
	c := NewContext(clock)
	c.Attach(f)

	exp := now.Add(time.Hour)
	f.emit(identity.Event{Type: identity.EventSignedIn, SessionID: "a", User: identity.User{ID: "u1"}, ExpiresAt: exp})
	f.emit(identity.Event{Type: identity.EventSignedOut, SessionID: "a", User: identity.User{ID: "u1"}, ExpiresAt: exp})
	f.emit(identity.Event{Type: identity.EventRestored, SessionID: "a", User: identity.User{ID: "u1"}, ExpiresAt: exp})

	_, ok := c.Lookup("a")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())

	f.emit(identity.Event{Type: identity.EventRestored, SessionID: "b", User: identity.User{ID: "u1"}, ExpiresAt: exp})
	assert.Equal(t, 0, c.CleanExpired())

	now = exp
	assert.Equal(t, 2, c.CleanExpired())
	assert.Equal(t, 0, c.Len())
}
