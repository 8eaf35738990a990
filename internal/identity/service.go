// Package identity is the identity service: account sign-up and sign-in,
// signed session tokens, sign-out with revocation, and a subscription feed
// of session events.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"trackex/internal/cache"
	"trackex/internal/core"
	"trackex/internal/log"
)

// EventType names a session change.
type EventType string

const (
	EventSignedIn  EventType = "signed_in"
	EventRestored  EventType = "restored"
	EventSignedOut EventType = "signed_out"
	EventUpdated   EventType = "user_updated"
)

const maxDisplayName = 100

var ErrDisplayNameTooLong = errors.New("display name too long (max 100 characters)")

type (
	// Session is an authenticated session. Token is what the client keeps.
	Session struct {
		ID        string
		Token     string
		User      User
		ExpiresAt time.Time
	}

	// Event is delivered to subscribers on every session change. For
	// EventUpdated only User is set.
	Event struct {
		Type      EventType
		SessionID string
		User      User
		ExpiresAt time.Time
	}

	Options struct {
		Secret     []byte
		TTL        time.Duration
		BcryptCost int
		Now        func() time.Time
		Logger     *log.Logger
	}

	Service struct {
		users   UserStore
		secret  []byte
		ttl     time.Duration
		cost    int
		now     func() time.Time
		logger  *log.Logger
		revoked *cache.Expiring[struct{}]

		mu      sync.Mutex
		subs    map[int]func(Event)
		order   []int
		nextSub int
	}

	claims struct {
		Email string `json:"email,omitempty"`
		jwt.RegisteredClaims
	}
)

func New(users UserStore, opts Options) (*Service, error) {
	if users == nil {
		return nil, errors.New("identity: user store is required")
	}
	if len(opts.Secret) == 0 {
		return nil, errors.New("identity: session secret is required")
	}
	if opts.TTL <= 0 {
		opts.TTL = 24 * time.Hour
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = log.ForComponent(log.ComponentIdentity)
	}
	return &Service{
		users:   users,
		secret:  opts.Secret,
		ttl:     opts.TTL,
		cost:    opts.BcryptCost,
		now:     opts.Now,
		logger:  opts.Logger,
		revoked: cache.NewExpiring[struct{}](opts.TTL).WithClock(opts.Now),
		subs:    make(map[int]func(Event)),
	}, nil
}

// Revocations exposes the revocation cache so a janitor can sweep it.
func (s *Service) Revocations() cache.Cleaner { return s.revoked }

// SignUp creates an account and signs it in.
func (s *Service) SignUp(ctx context.Context, email, password, displayName string) (Session, error) {
	email = NormalizeEmail(email)
	if !validEmail(email) {
		return Session{}, ErrInvalidEmail
	}
	if len(password) < MinPasswordLength {
		return Session{}, ErrWeakPassword
	}
	displayName = strings.TrimSpace(displayName)
	if len(displayName) > maxDisplayName {
		return Session{}, ErrDisplayNameTooLong
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return Session{}, fmt.Errorf("hash password: %w", err)
	}
	now := s.now().UTC()
	acc := Account{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		DisplayName:  displayName,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.CreateUser(ctx, acc); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return Session{}, ErrEmailTaken
		}
		return Session{}, fmt.Errorf("create user: %w", err)
	}

	s.logger.InfoContext(ctx, "Account created", log.FieldUserID, acc.ID, log.FieldOperation, log.OpSignUp)
	return s.issue(acc.User(), EventSignedIn)
}

// SignIn checks credentials and starts a session.
func (s *Service) SignIn(ctx context.Context, email, password string) (Session, error) {
	acc, err := s.users.FindUserByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, fmt.Errorf("find user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword(acc.PasswordHash, []byte(password)); err != nil {
		return Session{}, ErrInvalidCredentials
	}
	return s.issue(acc.User(), EventSignedIn)
}

// Resolve validates a session token and loads its user. A successful
// resolution is announced as EventRestored.
func (s *Service) Resolve(ctx context.Context, token string) (Session, error) {
	c, err := s.parse(token)
	if err != nil {
		return Session{}, err
	}
	if _, revoked := s.revoked.Get(c.ID); revoked {
		return Session{}, ErrInvalidToken
	}
	acc, err := s.users.FindUserByID(ctx, c.Subject)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return Session{}, ErrNoSession
		}
		return Session{}, fmt.Errorf("load session user: %w", err)
	}

	sess := Session{
		ID:        c.ID,
		Token:     token,
		User:      acc.User(),
		ExpiresAt: c.ExpiresAt.Time,
	}
	// SignOut may have run while the user was loading.
	if _, revoked := s.revoked.Get(c.ID); revoked {
		return Session{}, ErrInvalidToken
	}
	s.publish(Event{Type: EventRestored, SessionID: sess.ID, User: sess.User, ExpiresAt: sess.ExpiresAt})
	return sess, nil
}

// SignOut revokes the token until it would have expired.
func (s *Service) SignOut(ctx context.Context, token string) error {
	c, err := s.parse(token)
	if err != nil {
		return err
	}
	ttl := c.ExpiresAt.Time.Sub(s.now())
	if ttl <= 0 {
		return ErrInvalidToken
	}
	s.revoked.SetWithTTL(c.ID, struct{}{}, ttl)

	s.logger.InfoContext(ctx, "Signed out",
		log.FieldUserID, c.Subject,
		log.FieldSessionID, c.ID,
		log.FieldOperation, log.OpSignOut)
	s.publish(Event{
		Type:      EventSignedOut,
		SessionID: c.ID,
		User:      User{ID: c.Subject, Email: c.Email},
		ExpiresAt: c.ExpiresAt.Time,
	})
	return nil
}

// SessionID extracts the session id from a token whose signature and
// expiry are valid. It does not consult revocations or the user store.
func (s *Service) SessionID(token string) (string, error) {
	c, err := s.parse(token)
	if err != nil {
		return "", err
	}
	return c.ID, nil
}

func (s *Service) Profile(ctx context.Context, userID string) (Profile, error) {
	acc, err := s.users.FindUserByID(ctx, userID)
	if err != nil {
		return Profile{}, err
	}
	return acc.Profile(), nil
}

// UpdateProfile changes the display name and monthly budget. A nil budget
// clears it.
func (s *Service) UpdateProfile(ctx context.Context, userID, displayName string, budget *core.Money) (Profile, error) {
	displayName = strings.TrimSpace(displayName)
	if len(displayName) > maxDisplayName {
		return Profile{}, ErrDisplayNameTooLong
	}
	if budget != nil {
		if err := budget.Validate(); err != nil {
			return Profile{}, err
		}
	}
	if err := s.users.UpdateProfile(ctx, userID, displayName, budget, s.now().UTC()); err != nil {
		return Profile{}, fmt.Errorf("update profile: %w", err)
	}
	acc, err := s.users.FindUserByID(ctx, userID)
	if err != nil {
		return Profile{}, err
	}
	s.publish(Event{Type: EventUpdated, User: acc.User()})
	return acc.Profile(), nil
}

// Subscribe registers fn for session events. Subscribers run synchronously
// in registration order. The returned func unsubscribes.
func (s *Service) Subscribe(fn func(Event)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.order = append(s.order, id)
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs, id)
			for i, v := range s.order {
				if v == id {
					s.order = append(s.order[:i], s.order[i+1:]...)
					break
				}
			}
		})
	}
}

func (s *Service) publish(ev Event) {
	s.mu.Lock()
	fns := make([]func(Event), 0, len(s.order))
	for _, id := range s.order {
		fns = append(fns, s.subs[id])
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

func (s *Service) issue(u User, typ EventType) (Session, error) {
	now := s.now()
	sess := Session{
		ID:        uuid.NewString(),
		User:      u,
		ExpiresAt: now.Add(s.ttl).Truncate(time.Second),
	}
	c := claims{
		Email: u.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sess.ID,
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return Session{}, fmt.Errorf("sign session token: %w", err)
	}
	sess.Token = token

	s.publish(Event{Type: typ, SessionID: sess.ID, User: sess.User, ExpiresAt: sess.ExpiresAt})
	return sess, nil
}

func (s *Service) parse(token string) (*claims, error) {
	if token == "" {
		return nil, ErrNoSession
	}
	c := &claims{}
	_, err := jwt.ParseWithClaims(token, c, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if c.ID == "" || c.Subject == "" {
		return nil, ErrInvalidToken
	}
	return c, nil
}
