package token

import (
	"strings"
	"testing"
	"time"

	"github.com/daycare-hub/apiserver/types"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

var epoch = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func newTestIssuer(t *testing.T, clock *fakeClock) *Issuer {
	t.Helper()
	issuer, err := NewIssuer(testSecret, time.Hour, WithClock(clock.Now))
	require.NoError(t, err)
	return issuer
}

func signRaw(t *testing.T, method jwt.SigningMethod, key any, claims jwt.Claims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	clock := &fakeClock{t: epoch}
	issuer := newTestIssuer(t, clock)

	for _, role := range types.Roles() {
		t.Run(string(role), func(t *testing.T) {
			tok, err := issuer.Issue("acct-1", role, "a@x.com")
			require.NoError(t, err)

			id, err := issuer.Verify(tok)
			require.NoError(t, err)
			assert.Equal(t, "acct-1", id.Subject)
			assert.Equal(t, role, id.Role)
			assert.Equal(t, "a@x.com", id.Email)
			assert.Equal(t, epoch, id.IssuedAt.UTC())
			assert.Equal(t, epoch.Add(time.Hour), id.ExpiresAt.UTC())
		})
	}
}

func TestVerifyExpiryBoundary(t *testing.T) {
	clock := &fakeClock{t: epoch}
	issuer := newTestIssuer(t, clock)

	tok, err := issuer.Issue("acct-1", types.RoleStaff, "s@x.com")
	require.NoError(t, err)

	clock.t = epoch.Add(time.Hour - time.Second)
	_, err = issuer.Verify(tok)
	require.NoError(t, err)

	clock.t = epoch.Add(time.Hour)
	_, err = issuer.Verify(tok)
	require.ErrorIs(t, err, ErrTokenExpired)

	clock.t = epoch.Add(48 * time.Hour)
	_, err = issuer.Verify(tok)
	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerifyRejects(t *testing.T) {
	clock := &fakeClock{t: epoch}
	issuer := newTestIssuer(t, clock)

	valid := Claims{
		Role:  types.RoleAdmin,
		Email: "a@x.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "acct-1",
			IssuedAt:  jwt.NewNumericDate(epoch),
			ExpiresAt: jwt.NewNumericDate(epoch.Add(time.Hour)),
		},
	}

	good, err := issuer.Issue("acct-1", types.RoleAdmin, "a@x.com")
	require.NoError(t, err)
	parts := strings.Split(good, ".")
	require.Len(t, parts, 3)

	noSubject := valid
	noSubject.Subject = ""

	badRole := valid
	badRole.Role = types.Role("root")

	noExpiry := valid
	noExpiry.ExpiresAt = nil

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "garbage", token: "not.a.token"},
		{name: "tampered payload", token: parts[0] + "." + parts[1] + "x." + parts[2]},
		{name: "wrong secret", token: signRaw(t, jwt.SigningMethodHS256, []byte("other"), valid)},
		{name: "alg none", token: signRaw(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, valid)},
		{name: "alg hs512", token: signRaw(t, jwt.SigningMethodHS512, []byte(testSecret), valid)},
		{name: "missing subject", token: signRaw(t, jwt.SigningMethodHS256, []byte(testSecret), noSubject)},
		{name: "unknown role", token: signRaw(t, jwt.SigningMethodHS256, []byte(testSecret), badRole)},
		{name: "missing expiry", token: signRaw(t, jwt.SigningMethodHS256, []byte(testSecret), noExpiry)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := issuer.Verify(tc.token)
			require.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestIssueRejectsBadInput(t *testing.T) {
	issuer := newTestIssuer(t, &fakeClock{t: epoch})

	_, err := issuer.Issue("", types.RoleParent, "a@x.com")
	require.Error(t, err)

	_, err = issuer.Issue("acct-1", types.Role("owner"), "a@x.com")
	require.Error(t, err)
}

func TestNewIssuerValidation(t *testing.T) {
	_, err := NewIssuer("  ", time.Hour)
	require.Error(t, err)

	_, err = NewIssuer(testSecret, 0)
	require.Error(t, err)

	issuer, err := NewIssuer(testSecret, 90*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 90*time.Minute, issuer.TTL())
}
