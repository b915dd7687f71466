package tenant

import "context"

type tenantContextKey struct{}

// NewContext attaches the resolved tenant to the context.
func NewContext(ctx context.Context, t *Tenant) context.Context {
	if t == nil {
		return ctx
	}
	return context.WithValue(ctx, tenantContextKey{}, t)
}

// FromContext extracts the resolved tenant from the context.
func FromContext(ctx context.Context) (*Tenant, bool) {
	if ctx == nil {
		return nil, false
	}
	t, ok := ctx.Value(tenantContextKey{}).(*Tenant)
	if !ok || t == nil {
		return nil, false
	}
	return t, true
}
