package auth

import (
	"context"
	"errors"
	"strings"

	"complyhq.org/internal/tenant"
)

// Decision is the outcome of an access check.
type Decision string

const (
	Allow Decision = "allow"
	Deny  Decision = "deny"
)

// CanAccess is the single tenant-access predicate shared by the routing layer
// and every record-store function: global admins may access any tenant, other
// principals only their home tenant. Keeping one function here prevents the
// check from drifting between call sites.
func CanAccess(principal Principal, tenantID string) Decision {
	if principal.IsAdmin() {
		return Allow
	}
	if principal.HomeTenantID != "" && principal.HomeTenantID == tenantID {
		return Allow
	}
	return Deny
}

// Authorizer resolves a tenant key through the directory and applies
// CanAccess. It is stateless: tenant and role can change between requests, so
// nothing is memoized.
type Authorizer struct {
	dir tenant.Directory
}

func NewAuthorizer(dir tenant.Directory) *Authorizer {
	return &Authorizer{dir: dir}
}

// Authorize resolves slugOrID (slug first, then id) and decides whether the
// principal may access that tenant. An unknown tenant yields Deny together
// with tenant.ErrNotFound so callers can route "no such tenant" separately
// from "no access".
func (a *Authorizer) Authorize(ctx context.Context, principal Principal, slugOrID string) (Decision, *tenant.Tenant, error) {
	target, err := a.Resolve(ctx, slugOrID)
	if err != nil {
		return Deny, nil, err
	}
	return CanAccess(principal, target.ID), target, nil
}

// Resolve looks up a tenant by slug, falling back to id lookup.
func (a *Authorizer) Resolve(ctx context.Context, slugOrID string) (*tenant.Tenant, error) {
	slugOrID = strings.TrimSpace(slugOrID)
	if slugOrID == "" {
		return nil, tenant.ErrNotFound
	}
	target, err := a.dir.FindBySlug(ctx, slugOrID)
	if errors.Is(err, tenant.ErrNotFound) {
		target, err = a.dir.FindByID(ctx, slugOrID)
	}
	if err != nil {
		return nil, err
	}
	return target, nil
}
