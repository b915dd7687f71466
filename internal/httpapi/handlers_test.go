package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"complyhq.org/internal/auth"
	"complyhq.org/internal/records"
)

func seedUser(t *testing.T, env *testEnv, email, password, tenantID string, role auth.Role) *auth.User {
	t.Helper()
	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	u := &auth.User{Email: email, PasswordHash: hash, Role: role, HomeTenantID: tenantID}
	if err := env.users.Create(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func tenantPost(host, path, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "https://"+host+path, strings.NewReader(body))
	req.Host = host
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestLoginFlowEndToEnd(t *testing.T) {
	env := newTestEnv(t)
	seedUser(t, env, "sam@acme.test", "correct horse", env.acme.ID, auth.RoleUser)

	// Login on the subdomain goes through the public-route rewrite.
	rr := env.serve(tenantPost("acme.example.com", "/login", `{"email":"sam@acme.test","password":"correct horse"}`))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected login 200, got %d: %s", rr.Code, rr.Body.String())
	}
	cookies := rr.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != auth.CookieName {
		t.Fatalf("expected session cookie, got %+v", cookies)
	}

	// The fresh session opens the dashboard.
	req := tenantGet("acme.example.com", "/dashboard")
	req.AddCookie(cookies[0])
	rr = env.serve(req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected dashboard 200, got %d", rr.Code)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	env := newTestEnv(t)
	seedUser(t, env, "sam@acme.test", "correct horse", env.acme.ID, auth.RoleUser)

	for _, body := range []string{
		`{"email":"sam@acme.test","password":"wrong"}`,
		`{"email":"ghost@acme.test","password":"whatever"}`,
	} {
		rr := env.serve(tenantPost("acme.example.com", "/login", body))
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rr.Code)
		}
		if len(rr.Result().Cookies()) != 0 {
			t.Fatal("expected no session cookie on failed login")
		}
	}
}

func TestLogoutClearsSession(t *testing.T) {
	env := newTestEnv(t)
	member := auth.Principal{ID: "u-1", Role: auth.RoleUser, HomeTenantID: env.acme.ID}

	req := tenantPost("acme.example.com", "/logout", "")
	req.Header.Del("Content-Type")
	req.AddCookie(env.sessionCookie(t, member))
	rr := env.serve(req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected logout 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var cleared bool
	for _, c := range rr.Result().Cookies() {
		if c.Name == auth.CookieName && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Fatal("expected session cookie removal")
	}
}

// Direct hits on the internal namespace via the root domain bypass the
// router's rewrite; the handler layer and the record store must still hold
// the line.
func TestInternalNamespaceDirectAccessStillGuarded(t *testing.T) {
	env := newTestEnv(t)
	b := &records.Building{TenantID: env.acme.ID, Name: "HQ"}
	adminPrincipal := auth.Principal{ID: "u-admin", Role: auth.RoleAdmin}
	if err := env.store.Buildings().Create(context.Background(), adminPrincipal, b); err != nil {
		t.Fatalf("seed building: %v", err)
	}

	// No session at all: 401.
	rr := env.serve(tenantGet("example.com", "/tenant/acme/buildings/"+b.ID))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}

	// Foreign principal with a valid session: 403, not an empty 200.
	foreign := auth.Principal{ID: "u-2", Role: auth.RoleUser, HomeTenantID: env.other.ID}
	req := tenantGet("example.com", "/tenant/acme/buildings/"+b.ID)
	req.AddCookie(env.sessionCookie(t, foreign))
	rr = env.serve(req)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestBuildingCRUDThroughRouter(t *testing.T) {
	env := newTestEnv(t)
	member := auth.Principal{ID: "u-1", Role: auth.RoleUser, HomeTenantID: env.acme.ID}
	cookie := env.sessionCookie(t, member)

	req := tenantPost("acme.example.com", "/buildings", `{"name":"HQ","address":"1 Main St"}`)
	req.AddCookie(cookie)
	rr := env.serve(req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var created records.Building
	if err := json.Unmarshal(rr.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode building: %v", err)
	}
	if created.TenantID != env.acme.ID {
		t.Fatalf("tenant reference must come from the route, got %q", created.TenantID)
	}

	listReq := tenantGet("acme.example.com", "/buildings")
	listReq.AddCookie(cookie)
	rr = env.serve(listReq)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 list, got %d", rr.Code)
	}
	var listBody struct {
		Buildings []records.Building `json:"buildings"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &listBody); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(listBody.Buildings) != 1 || listBody.Buildings[0].ID != created.ID {
		t.Fatalf("unexpected list %+v", listBody.Buildings)
	}
}

func TestAdminSurfaceOnRootDomain(t *testing.T) {
	env := newTestEnv(t)
	adminPrincipal := auth.Principal{ID: "u-admin", Role: auth.RoleAdmin}
	memberPrincipal := auth.Principal{ID: "u-1", Role: auth.RoleUser, HomeTenantID: env.acme.ID}

	// Unauthenticated: 401.
	rr := env.serve(tenantGet("example.com", "/admin/tenants"))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}

	// Non-admin: 403.
	req := tenantGet("example.com", "/admin/tenants")
	req.AddCookie(env.sessionCookie(t, memberPrincipal))
	rr = env.serve(req)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rr.Code)
	}

	// Admin provisions a tenant.
	createReq := tenantPost("example.com", "/admin/tenants", `{"slug":"initech","name":"Initech"}`)
	createReq.AddCookie(env.sessionCookie(t, adminPrincipal))
	rr = env.serve(createReq)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}

	// Reserved slugs are rejected.
	badReq := tenantPost("example.com", "/admin/tenants", `{"slug":"admin","name":"Nope"}`)
	badReq.AddCookie(env.sessionCookie(t, adminPrincipal))
	rr = env.serve(badReq)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for reserved slug, got %d", rr.Code)
	}
}
