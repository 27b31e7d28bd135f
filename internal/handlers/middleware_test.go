package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/daycare-hub/apiserver/internal/token"
	"github.com/daycare-hub/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGateFixture(t *testing.T) (*Gate, *token.Issuer, *countingRecorder) {
	t.Helper()
	issuer, err := token.NewIssuer(testSecret, time.Hour)
	require.NoError(t, err)
	recorder := &countingRecorder{}
	return NewGate(issuer, recorder), issuer, recorder
}

// adminOnly mirrors how routers stack the two filters.
func adminOnly(gate *Gate) (http.Handler, *bool) {
	reached := false
	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		identity, _ := IdentityFromContext(r.Context())
		w.Header().Set("X-Subject", identity.Subject)
		w.WriteHeader(http.StatusNoContent)
	})
	return gate.RequireAuth(gate.RequireRole(types.RoleAdmin)(final)), &reached
}

func serve(h http.Handler, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestGateRoleAllowList(t *testing.T) {
	gate, issuer, recorder := newGateFixture(t)
	h, reached := adminOnly(gate)

	staff, err := issuer.Issue("staff-1", types.RoleStaff, "s@x.com")
	require.NoError(t, err)
	admin, err := issuer.Issue("admin-1", types.RoleAdmin, "a@x.com")
	require.NoError(t, err)

	rec := serve(h, map[string]string{AuthTokenHeader: staff})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, *reached)

	rec = serve(h, map[string]string{AuthTokenHeader: admin})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, *reached)
	assert.Equal(t, "admin-1", rec.Header().Get("X-Subject"))

	assert.Equal(t, 1, recorder.reasons[DenyForbiddenRole])
}

func TestGateTokenSources(t *testing.T) {
	gate, issuer, _ := newGateFixture(t)
	h, _ := adminOnly(gate)

	admin, err := issuer.Issue("admin-1", types.RoleAdmin, "a@x.com")
	require.NoError(t, err)
	staff, err := issuer.Issue("staff-1", types.RoleStaff, "s@x.com")
	require.NoError(t, err)

	tests := []struct {
		name    string
		headers map[string]string
		status  int
	}{
		{name: "custom header", headers: map[string]string{AuthTokenHeader: admin}, status: http.StatusNoContent},
		{name: "bearer", headers: map[string]string{"Authorization": "Bearer " + admin}, status: http.StatusNoContent},
		{name: "bearer scheme is case-insensitive", headers: map[string]string{"Authorization": "bearer " + admin}, status: http.StatusNoContent},
		{name: "custom header wins", headers: map[string]string{AuthTokenHeader: staff, "Authorization": "Bearer " + admin}, status: http.StatusForbidden},
		{name: "blank custom header falls back", headers: map[string]string{AuthTokenHeader: "  ", "Authorization": "Bearer " + admin}, status: http.StatusNoContent},
		{name: "invalid custom header does not fall back", headers: map[string]string{AuthTokenHeader: "garbage", "Authorization": "Bearer " + admin}, status: http.StatusUnauthorized},
		{name: "basic scheme", headers: map[string]string{"Authorization": "Basic " + admin}, status: http.StatusUnauthorized},
		{name: "empty bearer", headers: map[string]string{"Authorization": "Bearer "}, status: http.StatusUnauthorized},
		{name: "none", headers: nil, status: http.StatusUnauthorized},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := serve(h, tc.headers)
			assert.Equal(t, tc.status, rec.Code)
		})
	}
}

func TestGateExpiredToken(t *testing.T) {
	gate, _, recorder := newGateFixture(t)
	h, reached := adminOnly(gate)

	past, err := token.NewIssuer(testSecret, time.Minute, token.WithClock(func() time.Time {
		return time.Now().Add(-time.Hour)
	}))
	require.NoError(t, err)
	expired, err := past.Issue("admin-1", types.RoleAdmin, "a@x.com")
	require.NoError(t, err)

	rec := serve(h, map[string]string{AuthTokenHeader: expired})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, *reached)
	assert.Equal(t, "token expired", decodeBody(t, rec)["message"])
	assert.Equal(t, 1, recorder.reasons[DenyExpiredToken])
}

func TestGateForeignSignature(t *testing.T) {
	gate, _, recorder := newGateFixture(t)
	h, _ := adminOnly(gate)

	other, err := token.NewIssuer("someone-elses-secret", time.Hour)
	require.NoError(t, err)
	forged, err := other.Issue("admin-1", types.RoleAdmin, "a@x.com")
	require.NoError(t, err)

	rec := serve(h, map[string]string{AuthTokenHeader: forged})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, 1, recorder.reasons[DenyInvalidToken])
}

func TestRequireRoleWithoutIdentity(t *testing.T) {
	gate, _, _ := newGateFixture(t)
	h := gate.RequireRole(types.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	rec := serve(h, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
