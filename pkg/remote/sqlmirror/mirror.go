// Package sqlmirror keeps the remote copy of entries in a SQL table, either a
// Postgres database or a SQLite file on a shared drive.
package sqlmirror

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"tableflip.dev/compound/pkg/remote"
)

var (
	//go:embed schema_postgres.sql
	postgresSchema string

	//go:embed schema_sqlite.sql
	sqliteSchema string
)

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

const columns = "id, text, health, energy, tomorrow, analysis, device_id, updated_at"

// Mirror is a remote.Mirror over a sqlx database.
type Mirror struct {
	db    *sqlx.DB
	table string

	upsertQuery   string
	selectQuery   string
	analysisQuery string
}

var _ remote.Mirror = (*Mirror)(nil)

// Open connects to the database named by cfg and makes sure the table exists.
func Open(ctx context.Context, cfg remote.Config) (*Mirror, error) {
	if cfg.DSN == "" {
		return nil, remote.ErrNotConfigured
	}
	driver, err := driverName(cfg.Driver)
	if err != nil {
		return nil, err
	}
	db, err := sqlx.ConnectContext(ctx, driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("sqlmirror: connect %s: %w", driver, err)
	}
	m, err := New(db, cfg.TableName())
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := m.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return m, nil
}

// New wraps an open database. The bind style follows db.DriverName().
func New(db *sqlx.DB, table string) (*Mirror, error) {
	if db == nil {
		return nil, errors.New("sqlmirror: db required")
	}
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("sqlmirror: invalid table name %q", table)
	}
	return &Mirror{
		db:    db,
		table: table,
		upsertQuery: fmt.Sprintf(`INSERT INTO %[1]s (%[2]s)
VALUES (:id, :text, :health, :energy, :tomorrow, :analysis, :device_id, :updated_at)
ON CONFLICT (id) DO UPDATE SET
    text = excluded.text,
    health = excluded.health,
    energy = excluded.energy,
    tomorrow = excluded.tomorrow,
    analysis = COALESCE(excluded.analysis, %[1]s.analysis),
    device_id = excluded.device_id,
    updated_at = excluded.updated_at`, table, columns),
		selectQuery:   fmt.Sprintf("SELECT %s FROM %s ORDER BY id DESC", columns, table),
		analysisQuery: db.Rebind(fmt.Sprintf("UPDATE %s SET analysis = ? WHERE id = ?", table)),
	}, nil
}

// EnsureSchema creates the table when it is missing.
func (m *Mirror) EnsureSchema(ctx context.Context) error {
	schema := sqliteSchema
	if m.db.DriverName() == "postgres" {
		schema = postgresSchema
	}
	schema = strings.ReplaceAll(schema, "{{table}}", m.table)
	if _, err := m.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("sqlmirror: init schema: %w", err)
	}
	return nil
}

// Upsert writes rows in one transaction.
func (m *Mirror) Upsert(ctx context.Context, rows []remote.Row) (err error) {
	if len(rows) == 0 {
		return nil
	}
	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlmirror: begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareNamedContext(ctx, m.upsertQuery)
	if err != nil {
		return fmt.Errorf("sqlmirror: prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		if r.Health == nil {
			r.Health = remote.Health{}
		}
		if _, err = stmt.ExecContext(ctx, r); err != nil {
			return fmt.Errorf("sqlmirror: upsert %s: %w", r.ID, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("sqlmirror: commit: %w", err)
	}
	return nil
}

func (m *Mirror) SelectAll(ctx context.Context) ([]remote.Row, error) {
	rows := make([]remote.Row, 0)
	if err := m.db.SelectContext(ctx, &rows, m.selectQuery); err != nil {
		return nil, fmt.Errorf("sqlmirror: select: %w", err)
	}
	return rows, nil
}

func (m *Mirror) SetAnalysis(ctx context.Context, id, analysis string) error {
	if _, err := m.db.ExecContext(ctx, m.analysisQuery, analysis, id); err != nil {
		return fmt.Errorf("sqlmirror: set analysis %s: %w", id, err)
	}
	return nil
}

func (m *Mirror) Close() error {
	return m.db.Close()
}

func driverName(d string) (string, error) {
	switch d {
	case remote.DriverPostgres:
		return "postgres", nil
	case remote.DriverSQLite, "sqlite3":
		return "sqlite3", nil
	default:
		return "", fmt.Errorf("sqlmirror: unsupported driver %q", d)
	}
}
