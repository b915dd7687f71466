package records

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"complyhq.org/internal/auth"
)

func newMockStore(t *testing.T) (*PGStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewPGStore(db), mock
}

func expectTenantProjection(mock sqlmock.Sqlmock, table, id, tenantID string) {
	mock.ExpectQuery(regexp.QuoteMeta(`select tenant_id from ` + table + ` where id=$1`)).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"tenant_id"}).AddRow(tenantID))
}

func TestPGGetLoadsTenantProjectionFirst(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()

	expectTenantProjection(mock, "buildings", "b-1", "t-acme")
	mock.ExpectQuery(regexp.QuoteMeta(`select id, tenant_id, name, address, created_at, updated_at from buildings where id=$1`)).
		WithArgs("b-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "name", "address", "created_at", "updated_at"}).
			AddRow("b-1", "t-acme", "HQ", "1 Main St", now, now))

	got, err := store.Buildings().Get(context.Background(), acmeUser, "b-1")
	if err != nil {
		t.Fatalf("get building: %v", err)
	}
	if got.TenantID != "t-acme" {
		t.Fatalf("unexpected building %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPGGetDeniesBeforeLoadingData(t *testing.T) {
	store, mock := newMockStore(t)

	// Only the tenant projection is queried; the full row never is.
	expectTenantProjection(mock, "buildings", "b-1", "t-acme")

	_, err := store.Buildings().Get(context.Background(), otherUser, "b-1")
	if !errors.Is(err, auth.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPGDeleteDeniedWithoutMutation(t *testing.T) {
	store, mock := newMockStore(t)

	// No ExpectExec: a denied delete must never reach the mutation.
	expectTenantProjection(mock, "documents", "d-1", "t-acme")

	err := store.Documents().Delete(context.Background(), otherUser, "d-1")
	if !errors.Is(err, auth.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPGGetMissingRecordIsNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`select tenant_id from compliance_tasks where id=$1`)).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"tenant_id"}))

	_, err := store.Tasks().Get(context.Background(), acmeUser, "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGListFiltersAtQueryBoundary(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta(`select id, tenant_id, name, address, created_at, updated_at from buildings where tenant_id=$1 order by created_at`)).
		WithArgs("t-acme").
		WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "name", "address", "created_at", "updated_at"}).
			AddRow("b-1", "t-acme", "HQ", "", now, now))

	res, err := store.Buildings().ListByTenant(context.Background(), acmeUser, "t-acme")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(res) != 1 || res[0].ID != "b-1" {
		t.Fatalf("unexpected result %+v", res)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPGListDeniedWithoutQuery(t *testing.T) {
	store, mock := newMockStore(t)

	// Denied lists short-circuit before any SQL runs.
	_, err := store.Buildings().ListByTenant(context.Background(), otherUser, "t-acme")
	if !errors.Is(err, auth.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPGDocumentCreateChecksParentTenant(t *testing.T) {
	store, mock := newMockStore(t)

	expectTenantProjection(mock, "buildings", "b-other", "t-other")

	err := store.Documents().Create(context.Background(), admin, &Document{
		TenantID:   "t-acme",
		BuildingID: "b-other",
		Title:      "Gas safety certificate",
	})
	if !errors.Is(err, auth.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for cross-tenant parent, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
