package tenant

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"complyhq.org/internal/ids"
)

var _ Directory = (*PGDirectory)(nil)

// PGDirectory implements Directory using PostgreSQL.
type PGDirectory struct {
	db *sql.DB
}

func NewPGDirectory(db *sql.DB) *PGDirectory {
	return &PGDirectory{db: db}
}

const tenantColumns = `id, slug, name, description, created_at, updated_at`

func (d *PGDirectory) FindBySlug(ctx context.Context, slug string) (*Tenant, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	if slug == "" {
		return nil, ErrNotFound
	}
	row := d.db.QueryRowContext(ctx,
		`select `+tenantColumns+` from tenants where slug=$1`, slug)
	return scanTenant(row)
}

func (d *PGDirectory) FindByID(ctx context.Context, id string) (*Tenant, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrNotFound
	}
	row := d.db.QueryRowContext(ctx,
		`select `+tenantColumns+` from tenants where id=$1`, id)
	return scanTenant(row)
}

func (d *PGDirectory) Create(ctx context.Context, t *Tenant) error {
	t.Slug = strings.ToLower(strings.TrimSpace(t.Slug))
	if err := ValidateSlug(t.Slug); err != nil {
		return err
	}
	if t.ID == "" {
		t.ID = ids.New()
	}
	_, err := d.db.ExecContext(ctx,
		`insert into tenants(id, slug, name, description) values($1,$2,$3,$4)`,
		t.ID, t.Slug, t.Name, t.Description,
	)
	if err != nil && isUniqueViolation(err) {
		return ErrAlreadyExists
	}
	return err
}

func (d *PGDirectory) List(ctx context.Context) ([]*Tenant, error) {
	rows, err := d.db.QueryContext(ctx,
		`select `+tenantColumns+` from tenants order by created_at asc`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*Tenant
	for rows.Next() {
		var t Tenant
		if err := rows.Scan(&t.ID, &t.Slug, &t.Name, &t.Description, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		res = append(res, &t)
	}
	return res, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTenant(row rowScanner) (*Tenant, error) {
	var t Tenant
	if err := row.Scan(&t.ID, &t.Slug, &t.Name, &t.Description, &t.CreatedAt, &t.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

func isUniqueViolation(err error) bool {
	// pgx surfaces SQLSTATE 23505 in the error text through database/sql.
	return err != nil && strings.Contains(err.Error(), "23505")
}
