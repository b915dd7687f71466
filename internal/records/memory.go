package records

import (
	"context"
	"sort"
	"sync"
	"time"

	"complyhq.org/internal/auth"
	"complyhq.org/internal/ids"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore is an in-process Store used by tests and DSN-less development
// mode. It applies exactly the same access-check pattern as the Postgres
// implementation.
type MemoryStore struct {
	mu        sync.RWMutex
	buildings map[string]*Building
	tasks     map[string]*Task
	documents map[string]*Document
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		buildings: make(map[string]*Building),
		tasks:     make(map[string]*Task),
		documents: make(map[string]*Document),
	}
}

func (s *MemoryStore) Buildings() BuildingStore { return &memBuildings{s} }
func (s *MemoryStore) Tasks() TaskStore         { return &memTasks{s} }
func (s *MemoryStore) Documents() DocumentStore { return &memDocuments{s} }

func (s *MemoryStore) Summary(_ context.Context, principal auth.Principal, tenantID string) (Summary, error) {
	if err := authorize(principal, tenantID); err != nil {
		return Summary{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	sum := Summary{TenantID: tenantID}
	for _, b := range s.buildings {
		if b.TenantID == tenantID {
			sum.Buildings++
		}
	}
	for _, t := range s.tasks {
		if t.TenantID == tenantID && t.Status == TaskStatusOpen {
			sum.OpenTasks++
		}
	}
	for _, d := range s.documents {
		if d.TenantID == tenantID {
			sum.Documents++
		}
	}
	return sum, nil
}

// Buildings ----------------------------------------------------------------

type memBuildings struct{ s *MemoryStore }

func (m *memBuildings) Create(_ context.Context, principal auth.Principal, b *Building) error {
	if err := validateBuilding(b); err != nil {
		return err
	}
	if err := authorize(principal, b.TenantID); err != nil {
		return err
	}
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if b.ID == "" {
		b.ID = ids.New()
	}
	now := time.Now().UTC()
	b.CreatedAt = now
	b.UpdatedAt = now
	dup := *b
	m.s.buildings[b.ID] = &dup
	return nil
}

func (m *memBuildings) Get(_ context.Context, principal auth.Principal, id string) (*Building, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	b, ok := m.s.buildings[id]
	if !ok {
		return nil, ErrNotFound
	}
	if err := authorize(principal, b.TenantID); err != nil {
		return nil, err
	}
	dup := *b
	return &dup, nil
}

func (m *memBuildings) Update(_ context.Context, principal auth.Principal, b *Building) error {
	if err := validateBuilding(b); err != nil {
		return err
	}
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	existing, ok := m.s.buildings[b.ID]
	if !ok {
		return ErrNotFound
	}
	if err := authorize(principal, existing.TenantID); err != nil {
		return err
	}
	existing.Name = b.Name
	existing.Address = b.Address
	existing.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *memBuildings) Delete(_ context.Context, principal auth.Principal, id string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	existing, ok := m.s.buildings[id]
	if !ok {
		return ErrNotFound
	}
	if err := authorize(principal, existing.TenantID); err != nil {
		return err
	}
	delete(m.s.buildings, id)
	return nil
}

func (m *memBuildings) ListByTenant(_ context.Context, principal auth.Principal, tenantID string) ([]*Building, error) {
	if err := authorize(principal, tenantID); err != nil {
		return nil, err
	}
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	var res []*Building
	for _, b := range m.s.buildings {
		if b.TenantID == tenantID {
			dup := *b
			res = append(res, &dup)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].CreatedAt.Before(res[j].CreatedAt) })
	return res, nil
}

// Tasks --------------------------------------------------------------------

type memTasks struct{ s *MemoryStore }

func (m *memTasks) Create(_ context.Context, principal auth.Principal, task *Task) error {
	if err := validateTask(task); err != nil {
		return err
	}
	if err := authorize(principal, task.TenantID); err != nil {
		return err
	}
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if task.BuildingID != "" {
		parent, ok := m.s.buildings[task.BuildingID]
		if !ok {
			return ErrNotFound
		}
		if parent.TenantID != task.TenantID {
			return auth.ErrUnauthorized
		}
	}
	if task.ID == "" {
		task.ID = ids.New()
	}
	if task.Status == "" {
		task.Status = TaskStatusOpen
	}
	now := time.Now().UTC()
	task.CreatedAt = now
	task.UpdatedAt = now
	dup := *task
	m.s.tasks[task.ID] = &dup
	return nil
}

func (m *memTasks) Get(_ context.Context, principal auth.Principal, id string) (*Task, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	task, ok := m.s.tasks[id]
	if !ok {
		return nil, ErrNotFound
	}
	if err := authorize(principal, task.TenantID); err != nil {
		return nil, err
	}
	dup := *task
	return &dup, nil
}

func (m *memTasks) SetStatus(_ context.Context, principal auth.Principal, id, status string) error {
	if !validStatus(status) {
		return ErrInvalidInput
	}
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	task, ok := m.s.tasks[id]
	if !ok {
		return ErrNotFound
	}
	if err := authorize(principal, task.TenantID); err != nil {
		return err
	}
	task.Status = status
	task.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *memTasks) ListByTenant(_ context.Context, principal auth.Principal, tenantID string) ([]*Task, error) {
	if err := authorize(principal, tenantID); err != nil {
		return nil, err
	}
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	var res []*Task
	for _, task := range m.s.tasks {
		if task.TenantID == tenantID {
			dup := *task
			res = append(res, &dup)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].CreatedAt.Before(res[j].CreatedAt) })
	return res, nil
}

// Documents ----------------------------------------------------------------

type memDocuments struct{ s *MemoryStore }

func (m *memDocuments) Create(_ context.Context, principal auth.Principal, doc *Document) error {
	if err := validateDocument(doc); err != nil {
		return err
	}
	if err := authorize(principal, doc.TenantID); err != nil {
		return err
	}
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	parent, ok := m.s.buildings[doc.BuildingID]
	if !ok {
		return ErrNotFound
	}
	if parent.TenantID != doc.TenantID {
		return auth.ErrUnauthorized
	}
	if doc.ID == "" {
		doc.ID = ids.New()
	}
	now := time.Now().UTC()
	doc.CreatedAt = now
	doc.UpdatedAt = now
	dup := *doc
	m.s.documents[doc.ID] = &dup
	return nil
}

func (m *memDocuments) Get(_ context.Context, principal auth.Principal, id string) (*Document, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	doc, ok := m.s.documents[id]
	if !ok {
		return nil, ErrNotFound
	}
	if err := authorize(principal, doc.TenantID); err != nil {
		return nil, err
	}
	dup := *doc
	return &dup, nil
}

func (m *memDocuments) Delete(_ context.Context, principal auth.Principal, id string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	doc, ok := m.s.documents[id]
	if !ok {
		return ErrNotFound
	}
	if err := authorize(principal, doc.TenantID); err != nil {
		return err
	}
	delete(m.s.documents, id)
	return nil
}

func (m *memDocuments) ListByBuilding(_ context.Context, principal auth.Principal, buildingID string) ([]*Document, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	parent, ok := m.s.buildings[buildingID]
	if !ok {
		return nil, ErrNotFound
	}
	if err := authorize(principal, parent.TenantID); err != nil {
		return nil, err
	}
	var res []*Document
	for _, doc := range m.s.documents {
		if doc.BuildingID == buildingID {
			dup := *doc
			res = append(res, &dup)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].CreatedAt.Before(res[j].CreatedAt) })
	return res, nil
}
