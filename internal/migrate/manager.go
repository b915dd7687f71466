package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Manager applies the schema migrations and seed files shipped under
// ops/migrations. Applied files are tracked by name in bookkeeping tables so
// runs are idempotent.
type Manager struct {
	db            *sql.DB
	migrationsDir string
	seedsDir      string
	migrations    ledger
	seeds         ledger
}

func NewManager(db *sql.DB, migrationsDir, seedsDir string) *Manager {
	return &Manager{
		db:            db,
		migrationsDir: migrationsDir,
		seedsDir:      seedsDir,
		migrations:    ledger{table: "schema_migrations"},
		seeds:         ledger{table: "schema_seeds"},
	}
}

// Up applies every pending .up.sql migration in lexical order.
func (m *Manager) Up(ctx context.Context) error {
	if err := m.ensure(ctx); err != nil {
		return err
	}
	done, err := m.migrations.applied(ctx, m.db)
	if err != nil {
		return err
	}
	names, err := listSQL(m.migrationsDir, ".up.sql")
	if err != nil {
		return err
	}
	for _, name := range names {
		if done[name] {
			continue
		}
		if err := m.runFile(ctx, filepath.Join(m.migrationsDir, name)); err != nil {
			return fmt.Errorf("migrate: apply %s: %w", name, err)
		}
		if err := m.migrations.record(ctx, m.db, name); err != nil {
			return err
		}
	}
	return nil
}

// Down rolls back the most recently applied migration using its .down.sql
// counterpart.
func (m *Manager) Down(ctx context.Context) error {
	if err := m.ensure(ctx); err != nil {
		return err
	}
	history, err := m.migrations.history(ctx, m.db)
	if err != nil {
		return err
	}
	if len(history) == 0 {
		return errors.New("migrate: nothing applied")
	}
	last := history[len(history)-1]
	down := strings.TrimSuffix(last, ".up.sql") + ".down.sql"
	downPath := filepath.Join(m.migrationsDir, down)
	if _, err := os.Stat(downPath); err != nil {
		return fmt.Errorf("migrate: no down file for %s", last)
	}
	if err := m.runFile(ctx, downPath); err != nil {
		return fmt.Errorf("migrate: rollback %s: %w", last, err)
	}
	return m.migrations.remove(ctx, m.db, last)
}

// Seed applies every pending seed file. Seeds are tracked separately from
// migrations so re-running after a new deploy only applies new files.
func (m *Manager) Seed(ctx context.Context) error {
	if err := m.ensure(ctx); err != nil {
		return err
	}
	done, err := m.seeds.applied(ctx, m.db)
	if err != nil {
		return err
	}
	names, err := listSQL(m.seedsDir, ".sql")
	if err != nil {
		return err
	}
	for _, name := range names {
		if done[name] {
			continue
		}
		if err := m.runFile(ctx, filepath.Join(m.seedsDir, name)); err != nil {
			return fmt.Errorf("migrate: seed %s: %w", name, err)
		}
		if err := m.seeds.record(ctx, m.db, name); err != nil {
			return err
		}
	}
	return nil
}

// Status lists applied migrations in application order.
func (m *Manager) Status(ctx context.Context) ([]string, error) {
	if err := m.ensure(ctx); err != nil {
		return nil, err
	}
	return m.migrations.history(ctx, m.db)
}

func (m *Manager) ensure(ctx context.Context) error {
	if err := m.migrations.ensure(ctx, m.db); err != nil {
		return err
	}
	return m.seeds.ensure(ctx, m.db)
}

// runFile executes one SQL file inside a transaction, statement by statement.
func (m *Manager) runFile(ctx context.Context, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	for _, stmt := range splitStatements(string(raw)) {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ledger is one bookkeeping table mapping applied file names to timestamps.
type ledger struct {
	table string
}

func (l ledger) ensure(ctx context.Context, db *sql.DB) error {
	ddl := fmt.Sprintf(`create table if not exists %s (
		name text primary key,
		applied_at timestamptz not null default now()
	)`, l.table)
	_, err := db.ExecContext(ctx, ddl)
	return err
}

func (l ledger) applied(ctx context.Context, db *sql.DB) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf(`select name from %s`, l.table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	done := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		done[name] = true
	}
	return done, rows.Err()
}

func (l ledger) history(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf(`select name from %s order by applied_at`, l.table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (l ledger) record(ctx context.Context, db *sql.DB, name string) error {
	_, err := db.ExecContext(ctx,
		fmt.Sprintf(`insert into %s(name, applied_at) values ($1, $2)`, l.table),
		name, time.Now().UTC())
	return err
}

func (l ledger) remove(ctx context.Context, db *sql.DB, name string) error {
	_, err := db.ExecContext(ctx, fmt.Sprintf(`delete from %s where name = $1`, l.table), name)
	return err
}

// listSQL returns the matching file names in dir, sorted lexically. A missing
// directory is treated as empty.
func listSQL(dir, suffix string) ([]string, error) {
	if dir == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), suffix) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// splitStatements splits a SQL script on semicolons outside single-quoted
// strings. Dollar-quoted bodies are not supported; migration files keep to
// plain DDL.
func splitStatements(script string) []string {
	var stmts []string
	var cur strings.Builder
	inString := false
	for _, r := range script {
		switch {
		case r == '\'':
			inString = !inString
			cur.WriteRune(r)
		case r == ';' && !inString:
			if s := strings.TrimSpace(cur.String()); s != "" {
				stmts = append(stmts, s)
			}
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	if s := strings.TrimSpace(cur.String()); s != "" {
		stmts = append(stmts, s)
	}
	return stmts
}
