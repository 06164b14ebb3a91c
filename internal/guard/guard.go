package guard

import "github.com/Skotchmaster/storefront/internal/session"

type Requirement int

const (
	Public Requirement = iota
	Authenticated
	Admin
)

func (r Requirement) String() string {
	switch r {
	case Authenticated:
		return "authenticated"
	case Admin:
		return "admin"
	default:
		return "public"
	}
}

type Decision int

const (
	Allow Decision = iota
	Loading
	RedirectLogin
	RedirectHome
)

func (d Decision) String() string {
	switch d {
	case Loading:
		return "loading"
	case RedirectLogin:
		return "redirect_login"
	case RedirectHome:
		return "redirect_home"
	default:
		return "allow"
	}
}

const (
	LoginPath = "/login"
	HomePath  = "/"
)

// Decide evaluates loading, then authentication, then role. A loading session never
// redirects, whatever token it holds.
func Decide(state session.State, req Requirement) Decision {
	if req == Public {
		return Allow
	}
	if state.Loading {
		return Loading
	}
	if !state.IsAuthenticated() {
		return RedirectLogin
	}
	if req == Admin && !state.IsAdmin() {
		return RedirectHome
	}
	return Allow
}

// Destination is the redirect target of d, or "" when d does not redirect.
func (d Decision) Destination() string {
	switch d {
	case RedirectLogin:
		return LoginPath
	case RedirectHome:
		return HomePath
	default:
		return ""
	}
}
