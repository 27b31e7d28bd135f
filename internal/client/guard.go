package client

import (
	"net/http"
	"net/url"
	"slices"

	"github.com/daycare-hub/apiserver/types"
)

const (
	LoginPath        = "/login"
	UnauthorizedPath = "/unauthorized"
)

// Action is what the client should do with a navigation request.
type Action int

const (
	Render Action = iota
	RedirectLogin
	RedirectUnauthorized
)

func (a Action) String() string {
	switch a {
	case RedirectLogin:
		return "redirect-login"
	case RedirectUnauthorized:
		return "redirect-unauthorized"
	default:
		return "render"
	}
}

// Decision is the outcome of a guard check. Location is set for redirects.
type Decision struct {
	Action   Action
	Location string
}

// IdentitySource returns the identity cached at login, if any.
type IdentitySource interface {
	Load() (Session, error)
}

// Guard decides whether a view may be shown. It only reads the locally cached
// identity and never calls the server, so it is a presentation aid and not a
// security boundary; the server's gate makes the real decision.
type Guard struct {
	sessions IdentitySource
}

func NewGuard(sessions IdentitySource) *Guard {
	return &Guard{sessions: sessions}
}

// Check evaluates requested against roles. With no roles, any logged-in user
// may render the view.
func (g *Guard) Check(requested string, roles ...types.Role) Decision {
	session, err := g.sessions.Load()
	if err != nil || session.Token == "" {
		return loginRedirect(requested)
	}
	if len(roles) > 0 && !slices.Contains(roles, session.User.Role) {
		return Decision{Action: RedirectUnauthorized, Location: UnauthorizedPath}
	}
	return Decision{Action: Render}
}

// RedirectForStatus maps a server answer for requested onto a navigation
// decision: 401 sends the user to log in again and 403 to the unauthorized
// view. Anything else renders.
func RedirectForStatus(status int, requested string) Decision {
	switch status {
	case http.StatusUnauthorized:
		return loginRedirect(requested)
	case http.StatusForbidden:
		return Decision{Action: RedirectUnauthorized, Location: UnauthorizedPath}
	default:
		return Decision{Action: Render}
	}
}

func loginRedirect(requested string) Decision {
	q := url.Values{}
	q.Set("from", requested)
	return Decision{Action: RedirectLogin, Location: LoginPath + "?" + q.Encode()}
}
