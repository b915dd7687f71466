package tenant

import (
	"context"
	"strings"
	"sync"
	"time"

	"complyhq.org/internal/ids"
)

var _ Directory = (*MemoryDirectory)(nil)

// MemoryDirectory is an in-process Directory used by tests and DSN-less
// development mode.
type MemoryDirectory struct {
	mu      sync.RWMutex
	byID    map[string]*Tenant
	bySlug  map[string]string
	nowFunc func() time.Time
}

func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{
		byID:    make(map[string]*Tenant),
		bySlug:  make(map[string]string),
		nowFunc: time.Now,
	}
}

func (d *MemoryDirectory) FindBySlug(_ context.Context, slug string) (*Tenant, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	d.mu.RLock()
	defer d.mu.RUnlock()
	id, ok := d.bySlug[slug]
	if !ok {
		return nil, ErrNotFound
	}
	return copyTenant(d.byID[id]), nil
}

func (d *MemoryDirectory) FindByID(_ context.Context, id string) (*Tenant, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	t, ok := d.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyTenant(t), nil
}

func (d *MemoryDirectory) Create(_ context.Context, t *Tenant) error {
	t.Slug = strings.ToLower(strings.TrimSpace(t.Slug))
	if err := ValidateSlug(t.Slug); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.bySlug[t.Slug]; exists {
		return ErrAlreadyExists
	}
	if t.ID == "" {
		t.ID = ids.New()
	}
	now := d.nowFunc().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
	d.byID[t.ID] = copyTenant(t)
	d.bySlug[t.Slug] = t.ID
	return nil
}

func (d *MemoryDirectory) List(_ context.Context) ([]*Tenant, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	res := make([]*Tenant, 0, len(d.byID))
	for _, t := range d.byID {
		res = append(res, copyTenant(t))
	}
	return res, nil
}

func copyTenant(t *Tenant) *Tenant {
	if t == nil {
		return nil
	}
	dup := *t
	return &dup
}
