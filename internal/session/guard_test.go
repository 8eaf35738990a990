package session

import "testing"

func TestDecide(t *testing.T) {
	cases := []struct {
		name   string
		access Access
		state  State
		want   Outcome
	}{
		{"anonymous on dashboard", Protected, Unauthenticated, RedirectToLogin},
		{"signed in on dashboard", Protected, Authenticated, Allow},
		{"resolving on dashboard", Protected, Resolving, ShowLoading},
		{"anonymous on login", Public, Unauthenticated, Allow},
		{"signed in on login", Public, Authenticated, RedirectToHome},
		{"resolving on login", Public, Resolving, ShowLoading},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Decide(tc.access, tc.state); got != tc.want {
				t.Fatalf("Decide(%v, %v) = %v, want %v", tc.access, tc.state, got, tc.want)
			}
		})
	}
}

func TestOutcomeLocation(t *testing.T) {
	if RedirectToLogin.Location() != "/login" || RedirectToHome.Location() != "/" {
		t.Fatalf("unexpected redirect targets")
	}
	if Allow.Location() != "" || ShowLoading.Location() != "" {
		t.Fatalf("non-redirect outcomes must not have a location")
	}
}
