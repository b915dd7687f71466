package obs

import "testing"

func TestCanonicalPath(t *testing.T) {
	cases := map[string]string{
		"":                                       "/",
		"/":                                      "/",
		"/metrics":                               "/metrics",
		"/healthz":                               "/healthz",
		"/tenant/acme/dashboard":                 "/tenant/:key/dashboard",
		"/tenant/acme/buildings":                 "/tenant/:key/buildings",
		"/tenant/acme/buildings/01J0X":           "/tenant/:key/buildings/:id",
		"/tenant/acme/buildings/01J0X/documents": "/tenant/:key/buildings/:id/documents",
		"/tenant/acme/tasks/01J0Y/status":        "/tenant/:key/tasks/:id/status",
		"/admin/tenants":                         "/admin/tenants",
		"/admin/tenants/01J0Z":                   "/admin/tenants/:id",
		"/admin/tenants/01J0Z/users":             "/admin/tenants/:id/users",
		"/tenant/acme/login?next=/dashboard":     "/tenant/:key/login",
	}
	for input, expected := range cases {
		if got := CanonicalPath(input); got != expected {
			t.Fatalf("CanonicalPath(%q)=%q, want %q", input, got, expected)
		}
	}
}
