package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"trackex/internal/core"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrWeakPassword       = errors.New("password must be at least 6 characters")
	ErrInvalidToken       = errors.New("invalid session token")
	ErrNoSession          = errors.New("no session")
)

// MinPasswordLength matches what the hosted identity provider enforces.
const MinPasswordLength = 6

type (
	// User is the identity a session carries.
	User struct {
		ID          string
		Email       string
		DisplayName string
	}

	// Profile is the user-editable part of an account.
	Profile struct {
		DisplayName   string
		Email         string
		MonthlyBudget *core.Money
		UpdatedAt     time.Time
	}

	// Account is a stored user record.
	Account struct {
		ID            string
		Email         string
		PasswordHash  []byte
		DisplayName   string
		MonthlyBudget *core.Money
		CreatedAt     time.Time
		UpdatedAt     time.Time
	}

	// UserStore persists accounts. Emails are stored normalized and are
	// unique.
	UserStore interface {
		CreateUser(ctx context.Context, a Account) error
		FindUserByEmail(ctx context.Context, email string) (Account, error)
		FindUserByID(ctx context.Context, id string) (Account, error)
		UpdateProfile(ctx context.Context, id, displayName string, budget *core.Money, at time.Time) error
	}
)

func (a Account) User() User {
	return User{ID: a.ID, Email: a.Email, DisplayName: a.DisplayName}
}

func (a Account) Profile() Profile {
	return Profile{
		DisplayName:   a.DisplayName,
		Email:         a.Email,
		MonthlyBudget: a.MonthlyBudget,
		UpdatedAt:     a.UpdatedAt,
	}
}

// Name returns the display name, falling back to the email.
func (u User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Email
}

// NormalizeEmail trims and lowercases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	at := strings.IndexByte(email, '@')
	return at > 0 && at < len(email)-1 && !strings.ContainsAny(email, " \t\r\n")
}
