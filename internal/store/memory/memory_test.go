package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"trackex/internal/core"
	"trackex/internal/identity"
)

func expense(id, owner string, y, m, d int) core.Expense {
	return core.Expense{
		ID:       id,
		Title:    "t",
		Amount:   core.Money{Cents: 100},
		Category: "Food",
		Date:     core.NewDate(y, m, d),
		UserID:   owner,
	}
}

func TestStoreListFiltersAndSorts(t *testing.T) {
	ctx := context.Background()
	s := New()
	for _, e := range []core.Expense{
		expense("a", "u1", 2025, 1, 3),
		expense("b", "u2", 2025, 2, 1),
		expense("c", "u1", 2025, 3, 1),
		expense("d", "u1", 2025, 1, 3),
	} {
		if _, err := s.AddExpense(ctx, e); err != nil {
			t.Fatalf("add %s: %v", e.ID, err)
		}
	}

	got, err := s.ListExpenses(ctx, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	ids := ""
	for _, e := range got {
		ids += e.ID
	}
	if ids != "cda" {
		t.Fatalf("order = %q, want %q", ids, "cda")
	}

	none, _ := s.ListExpenses(ctx, "nobody")
	if len(none) != 0 {
		t.Fatalf("expected no expenses, got %d", len(none))
	}
}

func TestStoreRejectsInvalid(t *testing.T) {
	s := New()
	bad := expense("x", "", 2025, 1, 1)
	if _, err := s.AddExpense(context.Background(), bad); !errors.Is(err, core.ErrEmptyOwner) {
		t.Fatalf("expected ErrEmptyOwner, got %v", err)
	}
	if s.Len() != 0 {
		t.Fatalf("invalid expense stored")
	}
}

func TestStoreHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New().ListExpenses(ctx, "u1"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestUsers(t *testing.T) {
	ctx := context.Background()
	u := NewUsers()
	acc := identity.Account{ID: "1", Email: "a@b.c", PasswordHash: []byte("h")}
	if err := u.CreateUser(ctx, acc); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := u.CreateUser(ctx, identity.Account{ID: "2", Email: "a@b.c"}); !errors.Is(err, identity.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
	if _, err := u.FindUserByEmail(ctx, "x@y.z"); !errors.Is(err, identity.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	budget := core.Money{Cents: 50000}
	now := time.Now()
	if err := u.UpdateProfile(ctx, "1", "Ann", &budget, now); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := u.FindUserByID(ctx, "1")
	if err != nil || got.DisplayName != "Ann" || got.MonthlyBudget.Cents != 50000 {
		t.Fatalf("unexpected account: %+v, %v", got, err)
	}
}
