package auth

import (
	"context"
	"errors"
	"testing"

	"complyhq.org/internal/tenant"
)

func TestCanAccessAdminAlwaysAllowed(t *testing.T) {
	admin := Principal{ID: "u-admin", Role: RoleAdmin}
	for _, tenantID := range []string{"t-1", "t-2", ""} {
		if got := CanAccess(admin, tenantID); got != Allow {
			t.Fatalf("admin vs %q: got %s, want allow", tenantID, got)
		}
	}
}

func TestCanAccessHomeTenantOnly(t *testing.T) {
	user := Principal{ID: "u-1", Role: RoleUser, HomeTenantID: "t-1"}
	if got := CanAccess(user, "t-1"); got != Allow {
		t.Fatalf("home tenant: got %s, want allow", got)
	}
	if got := CanAccess(user, "t-2"); got != Deny {
		t.Fatalf("foreign tenant: got %s, want deny", got)
	}
}

func TestCanAccessUnassignedUserDenied(t *testing.T) {
	// A user without a home tenant must never match a tenant whose id is
	// empty by accident.
	user := Principal{ID: "u-1", Role: RoleUser}
	if got := CanAccess(user, ""); got != Deny {
		t.Fatalf("got %s, want deny", got)
	}
}

func TestAuthorizeResolvesSlug(t *testing.T) {
	ctx := context.Background()
	dir := tenant.NewMemoryDirectory()
	acme := &tenant.Tenant{Slug: "acme", Name: "Acme"}
	if err := dir.Create(ctx, acme); err != nil {
		t.Fatalf("create tenant: %v", err)
	}
	az := NewAuthorizer(dir)

	member := Principal{ID: "u-1", Role: RoleUser, HomeTenantID: acme.ID}
	decision, target, err := az.Authorize(ctx, member, "acme")
	if err != nil {
		t.Fatalf("authorize: %v", err)
	}
	if decision != Allow || target.ID != acme.ID {
		t.Fatalf("got %s for %+v", decision, target)
	}

	stranger := Principal{ID: "u-2", Role: RoleUser, HomeTenantID: "t-other"}
	decision, _, err = az.Authorize(ctx, stranger, "acme")
	if err != nil {
		t.Fatalf("authorize: %v", err)
	}
	if decision != Deny {
		t.Fatalf("got %s, want deny", decision)
	}
}

func TestAuthorizeResolvesID(t *testing.T) {
	ctx := context.Background()
	dir := tenant.NewMemoryDirectory()
	acme := &tenant.Tenant{Slug: "acme", Name: "Acme"}
	if err := dir.Create(ctx, acme); err != nil {
		t.Fatalf("create tenant: %v", err)
	}
	az := NewAuthorizer(dir)

	admin := Principal{ID: "u-admin", Role: RoleAdmin}
	decision, target, err := az.Authorize(ctx, admin, acme.ID)
	if err != nil {
		t.Fatalf("authorize: %v", err)
	}
	if decision != Allow || target.Slug != "acme" {
		t.Fatalf("got %s for %+v", decision, target)
	}
}

func TestAuthorizeUnknownTenant(t *testing.T) {
	ctx := context.Background()
	az := NewAuthorizer(tenant.NewMemoryDirectory())

	decision, _, err := az.Authorize(ctx, Principal{ID: "u-1", Role: RoleAdmin}, "ghost")
	if !errors.Is(err, tenant.ErrNotFound) {
		t.Fatalf("expected tenant.ErrNotFound, got %v", err)
	}
	if decision != Deny {
		t.Fatalf("got %s, want deny on unknown tenant", decision)
	}
}

func TestLoginUniformFailure(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryUserStore()

	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if err := store.Create(ctx, &User{
		Email:        "sam@acme.test",
		PasswordHash: hash,
		Role:         RoleUser,
		HomeTenantID: "t-acme",
	}); err != nil {
		t.Fatalf("create user: %v", err)
	}

	if _, err := Login(ctx, store, "sam@acme.test", "correct horse"); err != nil {
		t.Fatalf("expected login success: %v", err)
	}

	// Unknown account and wrong password must be indistinguishable.
	_, errUnknown := Login(ctx, store, "ghost@acme.test", "whatever")
	_, errWrong := Login(ctx, store, "sam@acme.test", "wrong")
	if !errors.Is(errUnknown, ErrInvalidCredentials) || !errors.Is(errWrong, ErrInvalidCredentials) {
		t.Fatalf("expected uniform ErrInvalidCredentials, got %v and %v", errUnknown, errWrong)
	}
}

func TestValidateUserRequiresHomeTenant(t *testing.T) {
	err := ValidateUser(&User{Email: "sam@acme.test", Role: RoleUser})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for user without home tenant, got %v", err)
	}
	if err := ValidateUser(&User{Email: "root@hq.test", Role: RoleAdmin}); err != nil {
		t.Fatalf("admin without home tenant should be valid: %v", err)
	}
}
