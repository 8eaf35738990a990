// Package session tracks which sessions are known to be live and decides
// what each route may show for a given session state.
package session

// State is the session state seen by a request.
type State int

const (
	Resolving State = iota
	Authenticated
	Unauthenticated
)

func (s State) String() string {
	switch s {
	case Resolving:
		return "resolving"
	case Authenticated:
		return "authenticated"
	case Unauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// Access classifies a route.
type Access int

const (
	Public Access = iota
	Protected
)

// Outcome is what the guard lets a request do.
type Outcome int

const (
	Allow Outcome = iota
	ShowLoading
	RedirectToLogin
	RedirectToHome
)

const (
	LoginPath = "/login"
	HomePath  = "/"
)

// Decide applies the routing policy. While the session is resolving every
// route shows the loading placeholder.
func Decide(access Access, state State) Outcome {
	switch {
	case state == Resolving:
		return ShowLoading
	case access == Public && state == Authenticated:
		return RedirectToHome
	case access == Protected && state != Authenticated:
		return RedirectToLogin
	default:
		return Allow
	}
}

// Location returns the redirect target of an outcome, or "".
func (o Outcome) Location() string {
	switch o {
	case RedirectToLogin:
		return LoginPath
	case RedirectToHome:
		return HomePath
	default:
		return ""
	}
}
