package tenant

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"
)

var (
	ErrNotFound      = errors.New("tenant: not found")
	ErrAlreadyExists = errors.New("tenant: already exists")
	ErrInvalidSlug   = errors.New("tenant: invalid slug")
)

// Tenant is one customer organization, the unit of data isolation.
// The slug is globally unique and immutable after creation: subdomain routing
// and the internal rewrite namespace both depend on its stability.
type Tenant struct {
	ID          string    `json:"id"`
	Slug        string    `json:"slug"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Directory resolves tenants by slug or id. Read-mostly; a missing tenant is
// reported as ErrNotFound, never as a nil tenant with nil error.
type Directory interface {
	FindBySlug(ctx context.Context, slug string) (*Tenant, error)
	FindByID(ctx context.Context, id string) (*Tenant, error)
	Create(ctx context.Context, t *Tenant) error
	List(ctx context.Context) ([]*Tenant, error)
}

var slugPattern = regexp.MustCompile(`^[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?$`)

// Labels that can never be tenant slugs because the router gives them meaning.
var reservedSlugs = map[string]struct{}{
	"www":    {},
	"admin":  {},
	"tenant": {},
	"api":    {},
}

// ValidateSlug checks that slug is usable as a subdomain label and is not
// reserved by the routing layer.
func ValidateSlug(slug string) error {
	slug = strings.TrimSpace(slug)
	if !slugPattern.MatchString(slug) {
		return ErrInvalidSlug
	}
	if _, reserved := reservedSlugs[slug]; reserved {
		return ErrInvalidSlug
	}
	return nil
}
