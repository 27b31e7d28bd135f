package client

import (
	"errors"
	"net/http"
	"testing"

	"github.com/daycare-hub/apiserver/types"
	"github.com/stretchr/testify/assert"
)

type staticSessions struct {
	session Session
	err     error
}

func (s staticSessions) Load() (Session, error) { return s.session, s.err }

func TestGuardCheck(t *testing.T) {
	staff := staticSessions{session: Session{Token: "t", User: User{Role: types.RoleStaff}}}
	admin := staticSessions{session: Session{Token: "t", User: User{Role: types.RoleAdmin}}}
	none := staticSessions{err: ErrNoSession}

	tests := []struct {
		name     string
		sessions IdentitySource
		roles    []types.Role
		want     Decision
	}{
		{
			name:     "no identity keeps the requested location",
			sessions: none,
			roles:    []types.Role{types.RoleAdmin},
			want:     Decision{Action: RedirectLogin, Location: "/login?from=%2Faccounts%3Fpage%3D2"},
		},
		{
			name:     "broken session file behaves like none",
			sessions: staticSessions{err: errors.New("parse session")},
			want:     Decision{Action: RedirectLogin, Location: "/login?from=%2Faccounts%3Fpage%3D2"},
		},
		{
			name:     "role outside allow-list",
			sessions: staff,
			roles:    []types.Role{types.RoleSupervisor, types.RoleAdmin},
			want:     Decision{Action: RedirectUnauthorized, Location: "/unauthorized"},
		},
		{
			name:     "role inside allow-list",
			sessions: admin,
			roles:    []types.Role{types.RoleSupervisor, types.RoleAdmin},
			want:     Decision{Action: Render},
		},
		{
			name:     "any logged-in user when no roles are required",
			sessions: staff,
			want:     Decision{Action: Render},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := NewGuard(tc.sessions).Check("/accounts?page=2", tc.roles...)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestRedirectForStatus(t *testing.T) {
	assert.Equal(t, Decision{Action: RedirectLogin, Location: "/login?from=%2Fprofile"}, RedirectForStatus(http.StatusUnauthorized, "/profile"))
	assert.Equal(t, Decision{Action: RedirectUnauthorized, Location: "/unauthorized"}, RedirectForStatus(http.StatusForbidden, "/profile"))
	assert.Equal(t, Decision{Action: Render}, RedirectForStatus(http.StatusOK, "/profile"))
}

func TestActionString(t *testing.T) {
	assert.Equal(t, "render", Render.String())
	assert.Equal(t, "redirect-login", RedirectLogin.String())
	assert.Equal(t, "redirect-unauthorized", RedirectUnauthorized.String())
}
