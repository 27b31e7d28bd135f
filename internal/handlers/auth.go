package handlers

import (
	"net/http"
	"time"

	"github.com/daycare-hub/apiserver/internal/services"
	"github.com/daycare-hub/apiserver/types"
	"github.com/go-chi/chi/v5"
)

// AuthHandler provides signup, login and identity endpoints.
type AuthHandler struct {
	authService *services.AuthService
	devMode     bool
}

func NewAuthHandler(authService *services.AuthService, devMode bool) *AuthHandler {
	return &AuthHandler{authService: authService, devMode: devMode}
}

// AuthRouter registers auth routes on the given router. throttle guards the
// credential endpoints and may be nil.
func AuthRouter(
	r chi.Router,
	authService *services.AuthService,
	gate *Gate,
	throttle func(http.Handler) http.Handler,
	devMode bool,
) {
	handler := NewAuthHandler(authService, devMode)

	credentials := r
	if throttle != nil {
		credentials = r.With(throttle)
	}
	credentials.Post("/signup", handler.Signup)
	credentials.Post("/login", handler.Login)
	r.With(gate.RequireAuth).Get("/me", handler.Me)
}

type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
	AdminKey string `json:"adminKey,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// PublicAccount is the account shape returned to clients.
type PublicAccount struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Role      types.Role `json:"role"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

type AuthResponse struct {
	Success bool          `json:"success"`
	User    PublicAccount `json:"user"`
	Token   string        `json:"token"`
}

type AccountResponse struct {
	Success bool          `json:"success"`
	User    types.Account `json:"user"`
}

// Signup creates an account and returns it with a token.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.authService.Register(r.Context(), services.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
		AdminKey: req.AdminKey,
	})
	if err != nil {
		writeServiceError(w, r, err, h.devMode)
		return
	}

	createdAt := result.Account.CreatedAt
	writeJSON(w, http.StatusCreated, AuthResponse{
		Success: true,
		User:    publicAccount(result.Account, &createdAt),
		Token:   result.Token,
	})
}

// Login verifies credentials and returns a token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.authService.Login(r.Context(), services.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeServiceError(w, r, err, h.devMode)
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{
		Success: true,
		User:    publicAccount(result.Account, nil),
		Token:   result.Token,
	})
}

// Me returns the account of the authenticated caller.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	account, err := h.authService.Account(r.Context(), identity.Subject)
	if err != nil {
		writeServiceError(w, r, err, h.devMode)
		return
	}

	writeJSON(w, http.StatusOK, AccountResponse{Success: true, User: account})
}

func publicAccount(account types.Account, createdAt *time.Time) PublicAccount {
	return PublicAccount{
		ID:        account.ID,
		Name:      account.Name,
		Email:     account.Email,
		Role:      account.Role,
		CreatedAt: createdAt,
	}
}
