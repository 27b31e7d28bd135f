package handlers

import (
	"net/http"

	"github.com/daycare-hub/apiserver/internal/services"
	"github.com/daycare-hub/apiserver/types"
	"github.com/go-chi/chi/v5"
)

// AccountHandler serves the account directory.
type AccountHandler struct {
	accountService *services.AccountService
	devMode        bool
}

func NewAccountHandler(accountService *services.AccountService, devMode bool) *AccountHandler {
	return &AccountHandler{accountService: accountService, devMode: devMode}
}

// AccountRouter registers account routes. Listing is open to supervisors and
// admins; changes are admin only.
func AccountRouter(r chi.Router, accountService *services.AccountService, gate *Gate, devMode bool) {
	handler := NewAccountHandler(accountService, devMode)

	r.Use(gate.RequireAuth)
	r.With(gate.RequireRole(types.RoleSupervisor, types.RoleAdmin)).Get("/", handler.ListAccounts)
	r.With(gate.RequireRole(types.RoleAdmin)).Patch("/{accountID}", handler.UpdateAccount)
}

// AccountListResponse is the paginated list response payload.
type AccountListResponse struct {
	Success bool            `json:"success"`
	Items   []types.Account `json:"items"`
	Page    int             `json:"page"`
	Limit   int             `json:"limit"`
	Total   int             `json:"total"`
}

type AccountUpdateRequest struct {
	Name *string `json:"name,omitempty"`
	Role *string `json:"role,omitempty"`
}

func (h *AccountHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	page, limit, err := parsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	items, total, err := h.accountService.List(r.Context(), page, limit)
	if err != nil {
		writeServiceError(w, r, err, h.devMode)
		return
	}

	writeJSON(w, http.StatusOK, AccountListResponse{
		Success: true,
		Items:   items,
		Page:    page,
		Limit:   limit,
		Total:   total,
	})
}

func (h *AccountHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	var req AccountUpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == nil && req.Role == nil {
		writeError(w, http.StatusBadRequest, "nothing to update")
		return
	}

	account, err := h.accountService.Update(r.Context(), chi.URLParam(r, "accountID"), services.AccountUpdate{
		Name: req.Name,
		Role: req.Role,
	})
	if err != nil {
		writeServiceError(w, r, err, h.devMode)
		return
	}

	writeJSON(w, http.StatusOK, AccountResponse{Success: true, User: account})
}
