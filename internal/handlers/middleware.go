package handlers

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/daycare-hub/apiserver/internal/logging"
	"github.com/daycare-hub/apiserver/internal/token"
	"github.com/daycare-hub/apiserver/types"
)

// AuthTokenHeader carries a bare token. It takes precedence over the
// Authorization header when both are sent.
const AuthTokenHeader = "x-auth-token"

// Gate denial reasons, also used as metric labels.
const (
	DenyMissingToken  = "missing_token"
	DenyInvalidToken  = "invalid_token"
	DenyExpiredToken  = "expired_token"
	DenyForbiddenRole = "forbidden_role"
)

type contextKey string

const contextIdentityKey contextKey = "identity"

type TokenVerifier interface {
	Verify(tokenString string) (token.Identity, error)
}

// GateRecorder counts rejected requests by reason.
type GateRecorder interface {
	GateDenied(reason string)
}

// Gate authenticates requests from their token and filters them by role.
// It performs no I/O beyond signature verification.
type Gate struct {
	verifier TokenVerifier
	recorder GateRecorder
}

// NewGate builds a Gate. recorder may be nil.
func NewGate(verifier TokenVerifier, recorder GateRecorder) *Gate {
	return &Gate{verifier: verifier, recorder: recorder}
}

// RequireAuth rejects requests without a valid token and attaches the
// verified identity to the request context.
func (g *Gate) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString, err := extractToken(r)
		if err != nil {
			g.deny(r, DenyMissingToken)
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}

		identity, err := g.verifier.Verify(tokenString)
		if err != nil {
			if errors.Is(err, token.ErrTokenExpired) {
				g.deny(r, DenyExpiredToken)
				writeError(w, http.StatusUnauthorized, "token expired")
				return
			}
			g.deny(r, DenyInvalidToken)
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), contextIdentityKey, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole admits only identities whose role is in roles. It must run
// after RequireAuth; a request without an identity is unauthenticated.
func (g *Gate) RequireRole(roles ...types.Role) func(http.Handler) http.Handler {
	allowed := slices.Clone(roles)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFromContext(r.Context())
			if !ok {
				g.deny(r, DenyMissingToken)
				writeError(w, http.StatusUnauthorized, "authentication required")
				return
			}
			if !slices.Contains(allowed, identity.Role) {
				g.deny(r, DenyForbiddenRole)
				writeError(w, http.StatusForbidden, "insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (g *Gate) deny(r *http.Request, reason string) {
	logging.FromContext(r.Context()).Warn("request denied", "reason", reason)
	if g.recorder != nil {
		g.recorder.GateDenied(reason)
	}
}

// IdentityFromContext returns the identity attached by RequireAuth.
func IdentityFromContext(ctx context.Context) (token.Identity, bool) {
	identity, ok := ctx.Value(contextIdentityKey).(token.Identity)
	return identity, ok
}

// extractToken prefers the custom header; a blank one counts as absent.
func extractToken(r *http.Request) (string, error) {
	if custom := strings.TrimSpace(r.Header.Get(AuthTokenHeader)); custom != "" {
		return custom, nil
	}
	return bearerToken(r)
}

func bearerToken(r *http.Request) (string, error) {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if auth == "" {
		return "", errors.New("missing authorization")
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization")
	}
	value := strings.TrimSpace(parts[1])
	if value == "" {
		return "", errors.New("invalid authorization")
	}
	return value, nil
}
