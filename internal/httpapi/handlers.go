package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"complyhq.org/internal/audit"
	"complyhq.org/internal/auth"
	"complyhq.org/internal/records"
	"complyhq.org/internal/tenant"
)

// ReadyProbe checks readiness dependencies (DB ping when configured).
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

func (a *API) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "complyhq-api",
		"version": a.version,
	})
}

func (a *API) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

func (a *API) handleInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "complyhq-api",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}

func (a *API) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name": "ComplyHQ",
	})
}

func (a *API) handleTenantNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]any{
		"error": "tenant not found",
	})
}

// --- request helpers ---

// requestPrincipal returns the authenticated principal for the request,
// preferring the one the router attached and falling back to the session
// cookie so direct hits on the internal namespace stay authenticated.
func (a *API) requestPrincipal(r *http.Request) (auth.Principal, bool) {
	if principal, ok := auth.PrincipalFromContext(r.Context()); ok {
		return principal, true
	}
	sess, ok := a.sessions.Get(r)
	if !ok {
		return auth.Principal{}, false
	}
	return sess.Principal, true
}

// requestTenant resolves the {key} path segment into a tenant record,
// preferring the router-attached tenant.
func (a *API) requestTenant(r *http.Request) (*tenant.Tenant, error) {
	if t, ok := tenant.FromContext(r.Context()); ok {
		return t, nil
	}
	return a.authorizer.Resolve(r.Context(), r.PathValue("key"))
}

// tenantRequest is the common preamble for tenant-scoped handlers: resolve
// the tenant, require a principal, and gate at the page level. The record
// store independently re-checks every access underneath.
func (a *API) tenantRequest(w http.ResponseWriter, r *http.Request) (*tenant.Tenant, auth.Principal, bool) {
	target, err := a.requestTenant(r)
	if err != nil {
		writeError(w, r, errStatus(err), "tenant not found")
		return nil, auth.Principal{}, false
	}
	principal, ok := a.requestPrincipal(r)
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return nil, auth.Principal{}, false
	}
	if auth.CanAccess(principal, target.ID) != auth.Allow {
		writeError(w, r, http.StatusForbidden, "access denied")
		return nil, auth.Principal{}, false
	}
	return target, principal, true
}

// --- JSON helpers ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	writeJSON(w, code, map[string]any{
		"error":      msg,
		"request_id": audit.RequestIDFromContext(r.Context()),
	})
}

func decodeJSON(r *http.Request, v any) error {
	defer func() { _, _ = io.Copy(io.Discard, r.Body) }()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.New("invalid JSON body")
	}
	return nil
}

// errStatus maps domain errors onto HTTP statuses. Unauthorized stays
// distinct from NotFound: callers of the data layer must be able to tell "no
// access" from "no data".
func errStatus(err error) int {
	switch {
	case errors.Is(err, auth.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, records.ErrNotFound),
		errors.Is(err, tenant.ErrNotFound),
		errors.Is(err, auth.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, records.ErrInvalidInput),
		errors.Is(err, auth.ErrInvalidInput),
		errors.Is(err, tenant.ErrInvalidSlug):
		return http.StatusBadRequest
	case errors.Is(err, tenant.ErrAlreadyExists),
		errors.Is(err, auth.ErrAlreadyExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
