// Package memory holds in-process expense and user stores for local runs
// and tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"trackex/internal/core"
	"trackex/internal/identity"
)

type Store struct {
	mu    sync.Mutex
	items []core.Expense
}

func New(seed ...core.Expense) *Store {
	return &Store{items: append([]core.Expense(nil), seed...)}
}

// AddExpense stores the expense as given.
func (s *Store) AddExpense(_ context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, e)
	return e, nil
}

// ListExpenses returns the owner's expenses, newest date first. Ties keep
// the most recently added expense first.
func (s *Store) ListExpenses(ctx context.Context, ownerID string) ([]core.Expense, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	out := make([]core.Expense, 0, len(s.items))
	for i := len(s.items) - 1; i >= 0; i-- {
		if s.items[i].UserID == ownerID {
			out = append(out, s.items[i])
		}
	}
	s.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date.Time)
	})
	return out, nil
}

// Len reports the number of stored expenses across all owners.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Users is an in-memory identity.UserStore.
type Users struct {
	mu      sync.RWMutex
	byID    map[string]identity.Account
	byEmail map[string]string
}

func NewUsers() *Users {
	return &Users{
		byID:    make(map[string]identity.Account),
		byEmail: make(map[string]string),
	}
}

func (u *Users) CreateUser(_ context.Context, a identity.Account) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if _, ok := u.byEmail[a.Email]; ok {
		return identity.ErrEmailTaken
	}
	u.byID[a.ID] = a
	u.byEmail[a.Email] = a.ID
	return nil
}

func (u *Users) FindUserByEmail(_ context.Context, email string) (identity.Account, error) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	id, ok := u.byEmail[email]
	if !ok {
		return identity.Account{}, identity.ErrUserNotFound
	}
	return u.byID[id], nil
}

func (u *Users) FindUserByID(_ context.Context, id string) (identity.Account, error) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	a, ok := u.byID[id]
	if !ok {
		return identity.Account{}, identity.ErrUserNotFound
	}
	return a, nil
}

func (u *Users) UpdateProfile(_ context.Context, id, displayName string, budget *core.Money, at time.Time) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	a, ok := u.byID[id]
	if !ok {
		return identity.ErrUserNotFound
	}
	a.DisplayName = displayName
	a.MonthlyBudget = budget
	a.UpdatedAt = at
	u.byID[id] = a
	return nil
}
