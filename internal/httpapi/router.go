package httpapi

import (
	"errors"
	"net/http"
	"path"
	"strings"

	"complyhq.org/internal/audit"
	"complyhq.org/internal/auth"
	"complyhq.org/internal/obs"
	"complyhq.org/internal/tenant"
)

const (
	tenantNamespace = "/tenant/"
	adminNamespace  = "/admin"
	notFoundPath    = "/tenant-not-found"
)

// Paths inside a tenant surface that are reachable without a session.
var publicTenantPaths = []string{"/login"}
var publicTenantPrefixes = []string{"/auth/"}

// withTenantRouting is the request router/rewriter. Per request it resolves
// the tenant key from the hostname, gates the admin namespace, checks the
// session and the access authorizer, and finally rewrites the request into
// the tenant-scoped internal namespace, or redirects to that tenant's login.
//
// The rewritten path is built only from the validated tenant key and the
// cleaned original path; no other request input reaches the internal
// namespace.
func (a *API) withTenantRouting(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := a.resolver.ResolveKey(r.URL.String(), r.Host)
		if key == "" || tenant.ValidateSlug(key) != nil {
			// Root domain, or a hostname that cannot denote a tenant:
			// serve the root surface. Routing fails open only toward
			// public content, never toward tenant data.
			obs.ObserveTenantResolution("root")
			next.ServeHTTP(w, r)
			return
		}
		obs.ObserveTenantResolution("resolved")

		reqPath := cleanRequestPath(r.URL.Path)

		// Subdomains must never reach admin surfaces, before any session
		// check.
		if reqPath == adminNamespace || strings.HasPrefix(reqPath, adminNamespace+"/") {
			http.Redirect(w, r, "/", http.StatusFound)
			return
		}

		rewritten := tenantNamespace + key + reqPath
		loginURL := tenantNamespace + key + "/login"

		if isPublicTenantPath(reqPath) {
			a.rewrite(w, r, next, rewritten)
			return
		}

		sess, ok := a.sessions.Get(r)
		if !ok {
			http.Redirect(w, r, loginURL, http.StatusFound)
			return
		}

		decision, target, err := a.authorizer.Authorize(r.Context(), sess.Principal, key)
		obs.ObserveAuthzDecision("router", string(decision))
		if err != nil {
			if errors.Is(err, tenant.ErrNotFound) {
				http.Redirect(w, r, a.rootURL(notFoundPath), http.StatusFound)
				return
			}
			// Directory failure: fail closed toward the login surface.
			http.Redirect(w, r, loginURL, http.StatusFound)
			return
		}
		if decision != auth.Allow {
			// Same redirect as "no session": the response must not reveal
			// whether the tenant exists or where the user does belong.
			_ = audit.LogEvent(auth.ContextWithPrincipal(r.Context(), sess.Principal), "authz.denied", map[string]any{
				"tenant": key,
				"path":   reqPath,
			})
			http.Redirect(w, r, loginURL, http.StatusFound)
			return
		}

		ctx := auth.ContextWithPrincipal(r.Context(), sess.Principal)
		ctx = tenant.NewContext(ctx, target)
		a.rewrite(w, r.WithContext(ctx), next, rewritten)
	})
}

// rewrite substitutes the effective request path server-side, without a
// client-visible redirect.
func (a *API) rewrite(w http.ResponseWriter, r *http.Request, next http.Handler, to string) {
	r2 := r.Clone(r.Context())
	r2.URL.Path = to
	r2.URL.RawPath = ""
	next.ServeHTTP(w, r2)
}

func (a *API) rootURL(p string) string {
	return a.cfg.Protocol + "://" + a.cfg.RootDomain + p
}

// cleanRequestPath normalizes the inbound path before it is prefixed with the
// tenant namespace, closing path-injection routes into internal handlers.
func cleanRequestPath(p string) string {
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}

func isPublicTenantPath(p string) bool {
	for _, pub := range publicTenantPaths {
		if p == pub {
			return true
		}
	}
	for _, prefix := range publicTenantPrefixes {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}
	return false
}
