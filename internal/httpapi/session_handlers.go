package httpapi

import (
	"net/http"
	"strings"

	"complyhq.org/internal/audit"
	"complyhq.org/internal/auth"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	User auth.Principal `json:"user"`
}

// handleLoginPage serves the tenant's login surface. It is public and must
// not reveal whether the tenant or any account exists.
func (a *API) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"tenant": r.PathValue("key"),
		"login":  "POST email and password to this path",
	})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	principal, err := auth.Login(r.Context(), a.users, req.Email, req.Password)
	if err != nil {
		_ = audit.LogEvent(r.Context(), "session.login_failed", map[string]any{
			"tenant": r.PathValue("key"),
			"email":  strings.ToLower(strings.TrimSpace(req.Email)),
		})
		writeError(w, r, http.StatusUnauthorized, "invalid credentials")
		return
	}

	if err := a.sessions.Set(w, principal); err != nil {
		writeError(w, r, http.StatusInternalServerError, "session error")
		return
	}
	_ = audit.LogEvent(auth.ContextWithPrincipal(r.Context(), principal), "session.created", map[string]any{
		"tenant": r.PathValue("key"),
	})
	writeJSON(w, http.StatusOK, loginResponse{User: principal})
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	if principal, ok := a.requestPrincipal(r); ok {
		_ = audit.LogEvent(auth.ContextWithPrincipal(r.Context(), principal), "session.cleared", nil)
	}
	a.sessions.Clear(w)
	writeJSON(w, http.StatusOK, map[string]any{"status": "logged_out"})
}
