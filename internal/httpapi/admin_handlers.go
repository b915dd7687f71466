package httpapi

import (
	"net/http"

	"complyhq.org/internal/audit"
	"complyhq.org/internal/auth"
	"complyhq.org/internal/tenant"
)

// requireAdmin gates the root admin surface: a valid session with the global
// admin role. Subdomain requests never get this far: the router redirects
// them away from /admin before any session check.
func (a *API) requireAdmin(w http.ResponseWriter, r *http.Request) (auth.Principal, bool) {
	principal, ok := a.requestPrincipal(r)
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return auth.Principal{}, false
	}
	if !principal.IsAdmin() {
		writeError(w, r, http.StatusForbidden, "admin role required")
		return auth.Principal{}, false
	}
	return principal, true
}

func (a *API) handleAdminListTenants(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.requireAdmin(w, r); !ok {
		return
	}
	list, err := a.directory.List(r.Context())
	if err != nil {
		writeError(w, r, errStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tenants": list})
}

type createTenantRequest struct {
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

func (a *API) handleAdminCreateTenant(w http.ResponseWriter, r *http.Request) {
	principal, ok := a.requireAdmin(w, r)
	if !ok {
		return
	}
	var req createTenantRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	t := &tenant.Tenant{Slug: req.Slug, Name: req.Name, Description: req.Description}
	if err := a.directory.Create(r.Context(), t); err != nil {
		writeError(w, r, errStatus(err), err.Error())
		return
	}
	_ = audit.LogEvent(auth.ContextWithPrincipal(r.Context(), principal), "tenant.created", map[string]any{
		"tenant_id": t.ID,
		"slug":      t.Slug,
	})
	writeJSON(w, http.StatusCreated, t)
}

func (a *API) handleAdminGetTenant(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.requireAdmin(w, r); !ok {
		return
	}
	t, err := a.directory.FindByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, errStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (a *API) handleAdminListUsers(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.requireAdmin(w, r); !ok {
		return
	}
	t, err := a.directory.FindByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, errStatus(err), err.Error())
		return
	}
	users, err := a.users.ListByTenant(r.Context(), t.ID)
	if err != nil {
		writeError(w, r, errStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

type createUserRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name,omitempty"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

func (a *API) handleAdminCreateUser(w http.ResponseWriter, r *http.Request) {
	principal, ok := a.requireAdmin(w, r)
	if !ok {
		return
	}
	t, err := a.directory.FindByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, errStatus(err), err.Error())
		return
	}
	var req createUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "password is required")
		return
	}
	u := &auth.User{
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: hash,
		Role:         auth.ParseRole(req.Role),
		HomeTenantID: t.ID,
	}
	if err := a.users.Create(r.Context(), u); err != nil {
		writeError(w, r, errStatus(err), err.Error())
		return
	}
	_ = audit.LogEvent(auth.ContextWithPrincipal(r.Context(), principal), "user.created", map[string]any{
		"user_id":   u.ID,
		"tenant_id": t.ID,
		"role":      string(u.Role),
	})
	writeJSON(w, http.StatusCreated, u)
}
