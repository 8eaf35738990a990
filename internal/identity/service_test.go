package identity_test

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"trackex/internal/core"
	"trackex/internal/identity"
	"trackex/internal/log"
	"trackex/internal/store/memory"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newService(t *testing.T) (*identity.Service, *clock) {
	t.Helper()
	clk := &clock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	svc, err := identity.New(memory.NewUsers(), identity.Options{
		Secret:     []byte("test-secret-test-secret"),
		TTL:        time.Hour,
		BcryptCost: bcrypt.MinCost,
		Now:        clk.now,
		Logger:     log.Discard(),
	})
	require.NoError(t, err)
	return svc, clk
}

func TestSignUpSignInResolve(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	var events []identity.EventType
	svc.Subscribe(func(ev identity.Event) { events = append(events, ev.Type) })

	sess, err := svc.SignUp(ctx, "  Ann@Example.com ", "secret1", "Ann")
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", sess.User.Email)
	assert.NotEmpty(t, sess.Token)

	_, err = svc.SignUp(ctx, "ann@example.com", "another", "")
	assert.ErrorIs(t, err, identity.ErrEmailTaken)

	_, err = svc.SignIn(ctx, "ann@example.com", "wrong-password")
	assert.ErrorIs(t, err, identity.ErrInvalidCredentials)
	_, err = svc.SignIn(ctx, "nobody@example.com", "secret1")
	assert.ErrorIs(t, err, identity.ErrInvalidCredentials)

	in, err := svc.SignIn(ctx, "ANN@example.com", "secret1")
	require.NoError(t, err)
	assert.NotEqual(t, sess.ID, in.ID)

	got, err := svc.Resolve(ctx, in.Token)
	require.NoError(t, err)
	assert.Equal(t, in.ID, got.ID)
	assert.Equal(t, sess.User.ID, got.User.ID)
	assert.Equal(t, "Ann", got.User.Name())

	assert.Equal(t, []identity.EventType{
		identity.EventSignedIn, identity.EventSignedIn, identity.EventRestored,
	}, events)
}

func TestSignUpValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	_, err := svc.SignUp(ctx, "not-an-email", "secret1", "")
	assert.ErrorIs(t, err, identity.ErrInvalidEmail)
	_, err = svc.SignUp(ctx, "a@b.c", "12345", "")
	assert.ErrorIs(t, err, identity.ErrWeakPassword)
}

func TestResolveRejectsBadTokens(t *testing.T) {
	ctx := context.Background()
	svc, clk := newService(t)
	sess, err := svc.SignUp(ctx, "a@b.c", "secret1", "")
	require.NoError(t, err)

	_, err = svc.Resolve(ctx, "")
	assert.ErrorIs(t, err, identity.ErrNoSession)
	_, err = svc.Resolve(ctx, "garbage")
	assert.ErrorIs(t, err, identity.ErrInvalidToken)

	other, err := identity.New(memory.NewUsers(), identity.Options{Secret: []byte("different"), BcryptCost: bcrypt.MinCost})
	require.NoError(t, err)
	_, err = other.Resolve(ctx, sess.Token)
	assert.ErrorIs(t, err, identity.ErrInvalidToken)

	clk.advance(2 * time.Hour)
	_, err = svc.Resolve(ctx, sess.Token)
	assert.ErrorIs(t, err, identity.ErrInvalidToken)
}

func TestSignOutRevokesToken(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	sess, err := svc.SignUp(ctx, "a@b.c", "secret1", "")
	require.NoError(t, err)

	var got identity.Event
	unsubscribe := svc.Subscribe(func(ev identity.Event) { got = ev })

	require.NoError(t, svc.SignOut(ctx, sess.Token))
	assert.Equal(t, identity.EventSignedOut, got.Type)
	assert.Equal(t, sess.ID, got.SessionID)
	assert.Equal(t, sess.User.ID, got.User.ID)

	_, err = svc.Resolve(ctx, sess.Token)
	assert.ErrorIs(t, err, identity.ErrInvalidToken)

	unsubscribe()
	unsubscribe()
	got = identity.Event{}
	_, err = svc.SignIn(ctx, "a@b.c", "secret1")
	require.NoError(t, err)
	assert.Empty(t, got.Type)

	assert.ErrorIs(t, svc.SignOut(ctx, "nope"), identity.ErrInvalidToken)
}

func TestRevocationSurvivesManyOtherSignOuts(t *testing.T) {
	if testing.Short() {
		t.Skip("signs out 100k sessions")
	}
	ctx := context.Background()
	svc, clk := newService(t)
	sess, err := svc.SignUp(ctx, "ann@example.com", "secret1", "Ann")
	require.NoError(t, err)
	require.NoError(t, svc.SignOut(ctx, sess.Token))

	exp := jwt.NewNumericDate(clk.now().Add(time.Hour))
	for i := range 100_001 {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			ID:        "other-" + strconv.Itoa(i),
			Subject:   "someone",
			ExpiresAt: exp,
		}).SignedString([]byte("test-secret-test-secret"))
		require.NoError(t, err)
		require.NoError(t, svc.SignOut(ctx, token))
	}

	_, err = svc.Resolve(ctx, sess.Token)
	assert.ErrorIs(t, err, identity.ErrInvalidToken)

	assert.Zero(t, svc.Revocations().CleanExpired())
	_, err = svc.Resolve(ctx, sess.Token)
	assert.ErrorIs(t, err, identity.ErrInvalidToken)

	clk.advance(2 * time.Hour)
	assert.Equal(t, 100_002, svc.Revocations().CleanExpired())
}

// signOutDuringLookup signs a token out while Resolve is loading its user.
type signOutDuringLookup struct {
	identity.UserStore
	hook func()
}

func (s *signOutDuringLookup) FindUserByID(ctx context.Context, id string) (identity.Account, error) {
	if s.hook != nil {
		s.hook()
	}
	return s.UserStore.FindUserByID(ctx, id)
}

func TestResolveDoesNotRestoreSessionSignedOutMidway(t *testing.T) {
	ctx := context.Background()
	users := &signOutDuringLookup{UserStore: memory.NewUsers()}
	svc, err := identity.New(users, identity.Options{
		Secret:     []byte("test-secret-test-secret"),
		BcryptCost: bcrypt.MinCost,
		Logger:     log.Discard(),
	})
	require.NoError(t, err)

	sess, err := svc.SignUp(ctx, "ann@example.com", "secret1", "Ann")
	require.NoError(t, err)

	var events []identity.EventType
	svc.Subscribe(func(ev identity.Event) { events = append(events, ev.Type) })
	users.hook = func() { require.NoError(t, svc.SignOut(ctx, sess.Token)) }

	_, err = svc.Resolve(ctx, sess.Token)
	assert.ErrorIs(t, err, identity.ErrInvalidToken)
	assert.Equal(t, []identity.EventType{identity.EventSignedOut}, events)
}

func TestProfile(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	sess, err := svc.SignUp(ctx, "a@b.c", "secret1", "")
	require.NoError(t, err)

	var updated identity.User
	svc.Subscribe(func(ev identity.Event) {
		if ev.Type == identity.EventUpdated {
			updated = ev.User
		}
	})

	budget := core.Money{Cents: 250000}
	p, err := svc.UpdateProfile(ctx, sess.User.ID, "  Bea ", &budget)
	require.NoError(t, err)
	assert.Equal(t, "Bea", p.DisplayName)
	assert.Equal(t, "a@b.c", p.Email)
	require.NotNil(t, p.MonthlyBudget)
	assert.Equal(t, int64(250000), p.MonthlyBudget.Cents)
	assert.Equal(t, "Bea", updated.DisplayName)

	p, err = svc.Profile(ctx, sess.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bea", p.DisplayName)

	_, err = svc.UpdateProfile(ctx, "missing", "x", nil)
	assert.ErrorIs(t, err, identity.ErrUserNotFound)
}
