package records

import (
	"context"
	"database/sql"
	"errors"

	"complyhq.org/internal/auth"
	"complyhq.org/internal/ids"
)

var _ Store = (*PGStore)(nil)

// PGStore implements Store using PostgreSQL.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Buildings() BuildingStore { return &pgBuildings{db: s.db} }
func (s *PGStore) Tasks() TaskStore         { return &pgTasks{db: s.db} }
func (s *PGStore) Documents() DocumentStore { return &pgDocuments{db: s.db} }

// Summary counts tenant records with the tenant filter applied at the query
// boundary, never after fetching.
func (s *PGStore) Summary(ctx context.Context, principal auth.Principal, tenantID string) (Summary, error) {
	if err := authorize(principal, tenantID); err != nil {
		return Summary{}, err
	}
	row := s.db.QueryRowContext(ctx,
		`select
			(select count(*) from buildings where tenant_id=$1),
			(select count(*) from compliance_tasks where tenant_id=$1 and status=$2),
			(select count(*) from documents where tenant_id=$1)`,
		tenantID, TaskStatusOpen)
	sum := Summary{TenantID: tenantID}
	if err := row.Scan(&sum.Buildings, &sum.OpenTasks, &sum.Documents); err != nil {
		return Summary{}, err
	}
	return sum, nil
}

// recordTenant loads the minimal projection needed to discover a record's
// tenant reference before any data is returned or mutated.
func recordTenant(ctx context.Context, db *sql.DB, table, id string) (string, error) {
	var tenantID string
	err := db.QueryRowContext(ctx, `select tenant_id from `+table+` where id=$1`, id).Scan(&tenantID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return tenantID, nil
}

// checkRecordAccess loads the tenant reference for one record and re-runs the
// access predicate.
func checkRecordAccess(ctx context.Context, db *sql.DB, table string, principal auth.Principal, id string) error {
	tenantID, err := recordTenant(ctx, db, table, id)
	if err != nil {
		return err
	}
	return authorize(principal, tenantID)
}

// Buildings ----------------------------------------------------------------

type pgBuildings struct{ db *sql.DB }

const buildingColumns = `id, tenant_id, name, address, created_at, updated_at`

func (s *pgBuildings) Create(ctx context.Context, principal auth.Principal, b *Building) error {
	if err := validateBuilding(b); err != nil {
		return err
	}
	if err := authorize(principal, b.TenantID); err != nil {
		return err
	}
	if b.ID == "" {
		b.ID = ids.New()
	}
	_, err := s.db.ExecContext(ctx,
		`insert into buildings(id, tenant_id, name, address) values($1,$2,$3,$4)`,
		b.ID, b.TenantID, b.Name, b.Address,
	)
	return err
}

func (s *pgBuildings) Get(ctx context.Context, principal auth.Principal, id string) (*Building, error) {
	if err := checkRecordAccess(ctx, s.db, "buildings", principal, id); err != nil {
		return nil, err
	}
	row := s.db.QueryRowContext(ctx,
		`select `+buildingColumns+` from buildings where id=$1`, id)
	var b Building
	if err := row.Scan(&b.ID, &b.TenantID, &b.Name, &b.Address, &b.CreatedAt, &b.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (s *pgBuildings) Update(ctx context.Context, principal auth.Principal, b *Building) error {
	if err := validateBuilding(b); err != nil {
		return err
	}
	if err := checkRecordAccess(ctx, s.db, "buildings", principal, b.ID); err != nil {
		return err
	}
	// tenant_id is deliberately absent from the update set: the reference is
	// immutable after creation.
	_, err := s.db.ExecContext(ctx,
		`update buildings set name=$2, address=$3, updated_at=now() where id=$1`,
		b.ID, b.Name, b.Address,
	)
	return err
}

func (s *pgBuildings) Delete(ctx context.Context, principal auth.Principal, id string) error {
	if err := checkRecordAccess(ctx, s.db, "buildings", principal, id); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `delete from buildings where id=$1`, id)
	return err
}

func (s *pgBuildings) ListByTenant(ctx context.Context, principal auth.Principal, tenantID string) ([]*Building, error) {
	if err := authorize(principal, tenantID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`select `+buildingColumns+` from buildings where tenant_id=$1 order by created_at`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*Building
	for rows.Next() {
		var b Building
		if err := rows.Scan(&b.ID, &b.TenantID, &b.Name, &b.Address, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		res = append(res, &b)
	}
	return res, rows.Err()
}

// Tasks --------------------------------------------------------------------

type pgTasks struct{ db *sql.DB }

const taskColumns = `id, tenant_id, building_id, title, status, due_at, created_at, updated_at`

func (s *pgTasks) Create(ctx context.Context, principal auth.Principal, task *Task) error {
	if err := validateTask(task); err != nil {
		return err
	}
	if err := authorize(principal, task.TenantID); err != nil {
		return err
	}
	if task.BuildingID != "" {
		// A task attached to a building must stay inside the same tenant.
		parentTenant, err := recordTenant(ctx, s.db, "buildings", task.BuildingID)
		if err != nil {
			return err
		}
		if parentTenant != task.TenantID {
			return auth.ErrUnauthorized
		}
	}
	if task.ID == "" {
		task.ID = ids.New()
	}
	if task.Status == "" {
		task.Status = TaskStatusOpen
	}
	_, err := s.db.ExecContext(ctx,
		`insert into compliance_tasks(id, tenant_id, building_id, title, status, due_at) values($1,$2,nullif($3,''),$4,$5,$6)`,
		task.ID, task.TenantID, task.BuildingID, task.Title, task.Status, task.DueAt,
	)
	return err
}

func (s *pgTasks) Get(ctx context.Context, principal auth.Principal, id string) (*Task, error) {
	if err := checkRecordAccess(ctx, s.db, "compliance_tasks", principal, id); err != nil {
		return nil, err
	}
	row := s.db.QueryRowContext(ctx,
		`select `+taskColumns+` from compliance_tasks where id=$1`, id)
	return scanTask(row)
}

func (s *pgTasks) SetStatus(ctx context.Context, principal auth.Principal, id, status string) error {
	if !validStatus(status) {
		return ErrInvalidInput
	}
	if err := checkRecordAccess(ctx, s.db, "compliance_tasks", principal, id); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`update compliance_tasks set status=$2, updated_at=now() where id=$1`, id, status)
	return err
}

func (s *pgTasks) ListByTenant(ctx context.Context, principal auth.Principal, tenantID string) ([]*Task, error) {
	if err := authorize(principal, tenantID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`select `+taskColumns+` from compliance_tasks where tenant_id=$1 order by due_at nulls last, created_at`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, task)
	}
	return res, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*Task, error) {
	var (
		task     Task
		building sql.NullString
		dueAt    sql.NullTime
	)
	err := row.Scan(&task.ID, &task.TenantID, &building, &task.Title, &task.Status, &dueAt, &task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	task.BuildingID = building.String
	if dueAt.Valid {
		t := dueAt.Time
		task.DueAt = &t
	}
	return &task, nil
}

// Documents ----------------------------------------------------------------

type pgDocuments struct{ db *sql.DB }

const documentColumns = `id, tenant_id, building_id, title, file_key, created_at, updated_at`

func (s *pgDocuments) Create(ctx context.Context, principal auth.Principal, doc *Document) error {
	if err := validateDocument(doc); err != nil {
		return err
	}
	if err := authorize(principal, doc.TenantID); err != nil {
		return err
	}
	// Nested entity: the parent building's tenant reference is checked too.
	parentTenant, err := recordTenant(ctx, s.db, "buildings", doc.BuildingID)
	if err != nil {
		return err
	}
	if parentTenant != doc.TenantID {
		return auth.ErrUnauthorized
	}
	if doc.ID == "" {
		doc.ID = ids.New()
	}
	_, err = s.db.ExecContext(ctx,
		`insert into documents(id, tenant_id, building_id, title, file_key) values($1,$2,$3,$4,$5)`,
		doc.ID, doc.TenantID, doc.BuildingID, doc.Title, doc.FileKey,
	)
	return err
}

func (s *pgDocuments) Get(ctx context.Context, principal auth.Principal, id string) (*Document, error) {
	if err := checkRecordAccess(ctx, s.db, "documents", principal, id); err != nil {
		return nil, err
	}
	row := s.db.QueryRowContext(ctx,
		`select `+documentColumns+` from documents where id=$1`, id)
	var d Document
	if err := row.Scan(&d.ID, &d.TenantID, &d.BuildingID, &d.Title, &d.FileKey, &d.CreatedAt, &d.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (s *pgDocuments) Delete(ctx context.Context, principal auth.Principal, id string) error {
	if err := checkRecordAccess(ctx, s.db, "documents", principal, id); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `delete from documents where id=$1`, id)
	return err
}

func (s *pgDocuments) ListByBuilding(ctx context.Context, principal auth.Principal, buildingID string) ([]*Document, error) {
	// The building's tenant gates the whole listing.
	if err := checkRecordAccess(ctx, s.db, "buildings", principal, buildingID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`select `+documentColumns+` from documents where building_id=$1 order by created_at`, buildingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.ID, &d.TenantID, &d.BuildingID, &d.Title, &d.FileKey, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		res = append(res, &d)
	}
	return res, rows.Err()
}
