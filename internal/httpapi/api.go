package httpapi

import (
	"net/http"

	"complyhq.org/internal/auth"
	"complyhq.org/internal/config"
	"complyhq.org/internal/obs"
	"complyhq.org/internal/records"
	"complyhq.org/internal/tenant"
)

// API is the HTTP layer: the root surface, the admin surface and the
// tenant-scoped internal namespace, fronted by the tenant router.
type API struct {
	mux        *http.ServeMux
	cfg        config.Config
	resolver   tenant.Resolver
	sessions   *auth.Sessions
	authorizer *auth.Authorizer
	directory  tenant.Directory
	users      auth.UserStore
	store      records.Store
	readyProbe ReadyProbe
	version    string
}

// New wires the HTTP surface. The same directory backs both the router's
// tenant lookups and the authorizer so the two layers can never disagree
// about which tenant a slug denotes.
func New(cfg config.Config, dir tenant.Directory, users auth.UserStore, store records.Store, sessions *auth.Sessions, rp ReadyProbe, version string) *API {
	a := &API{
		mux: http.NewServeMux(),
		cfg: cfg,
		resolver: tenant.Resolver{
			RootDomain:    cfg.RootDomain,
			LocalMarker:   cfg.LocalMarker,
			PreviewMarker: cfg.PreviewMarker,
		},
		sessions:   sessions,
		authorizer: auth.NewAuthorizer(dir),
		directory:  dir,
		users:      users,
		store:      store,
		readyProbe: rp,
		version:    version,
	}

	// Root surface.
	a.mux.HandleFunc("GET /healthz", a.handleHealthz)
	a.mux.HandleFunc("GET /readyz", a.handleReady)
	a.mux.HandleFunc("GET /v1/info", a.handleInfo)
	a.mux.Handle("GET /metrics", obs.Handler())
	a.mux.HandleFunc("GET /tenant-not-found", a.handleTenantNotFound)
	a.mux.HandleFunc("GET /{$}", a.handleRoot)

	// Admin surface, root domain only: the router redirects any subdomain
	// request targeting /admin before it can reach these handlers.
	a.mux.HandleFunc("GET /admin/tenants", a.handleAdminListTenants)
	a.mux.HandleFunc("POST /admin/tenants", a.handleAdminCreateTenant)
	a.mux.HandleFunc("GET /admin/tenants/{id}", a.handleAdminGetTenant)
	a.mux.HandleFunc("GET /admin/tenants/{id}/users", a.handleAdminListUsers)
	a.mux.HandleFunc("POST /admin/tenants/{id}/users", a.handleAdminCreateUser)

	// Tenant-scoped internal namespace. Handlers never build these paths
	// from request input; only the router's rewrite targets them.
	a.mux.HandleFunc("GET /tenant/{key}/login", a.handleLoginPage)
	a.mux.HandleFunc("POST /tenant/{key}/login", a.handleLogin)
	a.mux.HandleFunc("POST /tenant/{key}/logout", a.handleLogout)
	a.mux.HandleFunc("GET /tenant/{key}/dashboard", a.handleDashboard)
	a.mux.HandleFunc("GET /tenant/{key}/buildings", a.handleListBuildings)
	a.mux.HandleFunc("POST /tenant/{key}/buildings", a.handleCreateBuilding)
	a.mux.HandleFunc("GET /tenant/{key}/buildings/{id}", a.handleGetBuilding)
	a.mux.HandleFunc("PUT /tenant/{key}/buildings/{id}", a.handleUpdateBuilding)
	a.mux.HandleFunc("DELETE /tenant/{key}/buildings/{id}", a.handleDeleteBuilding)
	a.mux.HandleFunc("GET /tenant/{key}/buildings/{id}/documents", a.handleListDocuments)
	a.mux.HandleFunc("POST /tenant/{key}/buildings/{id}/documents", a.handleCreateDocument)
	a.mux.HandleFunc("GET /tenant/{key}/documents/{id}", a.handleGetDocument)
	a.mux.HandleFunc("DELETE /tenant/{key}/documents/{id}", a.handleDeleteDocument)
	a.mux.HandleFunc("GET /tenant/{key}/tasks", a.handleListTasks)
	a.mux.HandleFunc("POST /tenant/{key}/tasks", a.handleCreateTask)
	a.mux.HandleFunc("GET /tenant/{key}/tasks/{id}", a.handleGetTask)
	a.mux.HandleFunc("POST /tenant/{key}/tasks/{id}/status", a.handleSetTaskStatus)

	return a
}

// Handler assembles the middleware chain around the mux. The tenant router
// sits innermost so every earlier layer sees the original request path.
func (a *API) Handler() http.Handler {
	h := a.withTenantRouting(a.mux)
	h = RateLimit(h, a.cfg.RateBurst, a.cfg.RatePerSec)
	h = MaxBodyBytes(h, 1<<20)
	h = SecurityHeaders(h)
	h = LoggingJSON(h)
	h = RequestID(h)
	return obs.Instrument(h)
}
