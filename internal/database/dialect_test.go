package database

import (
	"errors"
	"testing"
	"time"

	"github.com/lib/pq"
)

func TestNewDialect(t *testing.T) {
	tests := []struct {
		in   DialectType
		want string
	}{
		{DialectSQLite, "sqlite"},
		{DialectPostgres, "postgres"},
		{DialectType("unknown"), "sqlite"},
	}
	for _, tc := range tests {
		if got := NewDialect(tc.in).DriverName(); got != tc.want {
			t.Errorf("NewDialect(%q).DriverName() = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestDialectPlaceholders(t *testing.T) {
	sqlite, pg := &SQLiteDialect{}, &PostgresDialect{}
	for pos := 1; pos <= 3; pos++ {
		if got := sqlite.Placeholder(pos); got != "?" {
			t.Errorf("SQLite Placeholder(%d) = %q, want ?", pos, got)
		}
	}
	if got := pg.Placeholder(2); got != "$2" {
		t.Errorf("Postgres Placeholder(2) = %q, want $2", got)
	}
}

func TestDialectReturning(t *testing.T) {
	if !(&SQLiteDialect{}).SupportsLastInsertID() {
		t.Error("SQLite should support LastInsertId")
	}
	if got := (&SQLiteDialect{}).ReturningClause("id"); got != "" {
		t.Errorf("SQLite ReturningClause = %q, want empty", got)
	}
	if (&PostgresDialect{}).SupportsLastInsertID() {
		t.Error("Postgres should not support LastInsertId")
	}
	if got := (&PostgresDialect{}).ReturningClause("id"); got != " RETURNING id" {
		t.Errorf("Postgres ReturningClause = %q", got)
	}
}

func TestDialectSerialPrimaryKey(t *testing.T) {
	if got := (&SQLiteDialect{}).SerialPrimaryKey(); got != "INTEGER PRIMARY KEY AUTOINCREMENT" {
		t.Errorf("SQLite SerialPrimaryKey = %q", got)
	}
	if got := (&PostgresDialect{}).SerialPrimaryKey(); got != "BIGSERIAL PRIMARY KEY" {
		t.Errorf("Postgres SerialPrimaryKey = %q", got)
	}
}

func TestSQLiteDialect_IsDuplicateKeyError(t *testing.T) {
	d := &SQLiteDialect{}
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("UNIQUE constraint failed: maps.digest"), true},
		{errors.New("no such table: maps"), false},
	}
	for _, tc := range tests {
		if got := d.IsDuplicateKeyError(tc.err); got != tc.want {
			t.Errorf("IsDuplicateKeyError(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}

func TestPostgresDialect_IsDuplicateKeyError(t *testing.T) {
	d := &PostgresDialect{}
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"unique violation", &pq.Error{Code: "23505"}, true},
		{"wrapped", errors.Join(errors.New("insert"), &pq.Error{Code: "23505"}), true},
		{"other code", &pq.Error{Code: "23503"}, false},
		{"plain error", errors.New("duplicate key value"), false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := d.IsDuplicateKeyError(tc.err); got != tc.want {
				t.Errorf("IsDuplicateKeyError() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestQueryBuilder_Build(t *testing.T) {
	tests := []struct {
		name    string
		dialect Dialect
		in      string
		want    string
	}{
		{
			"sqlite unchanged",
			&SQLiteDialect{},
			"SELECT id FROM maps WHERE digest = ? AND seed = ?",
			"SELECT id FROM maps WHERE digest = ? AND seed = ?",
		},
		{
			"postgres numbered",
			&PostgresDialect{},
			"SELECT id FROM maps WHERE digest = ? AND seed = ?",
			"SELECT id FROM maps WHERE digest = $1 AND seed = $2",
		},
		{
			"postgres skips literals",
			&PostgresDialect{},
			"SELECT '?' FROM maps WHERE id = ?",
			"SELECT '?' FROM maps WHERE id = $1",
		},
		{
			"no placeholders",
			&PostgresDialect{},
			"SELECT COUNT(*) FROM maps",
			"SELECT COUNT(*) FROM maps",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := NewQueryBuilder(tc.dialect).Build(tc.in); got != tc.want {
				t.Errorf("Build() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestQueryBuilder_BuildWithReturning(t *testing.T) {
	query := "INSERT INTO maps (seed) VALUES (?)"

	if got := NewQueryBuilder(&SQLiteDialect{}).BuildWithReturning(query, "id"); got != query {
		t.Errorf("SQLite BuildWithReturning() = %q", got)
	}

	want := "INSERT INTO maps (seed) VALUES ($1) RETURNING id"
	if got := NewQueryBuilder(&PostgresDialect{}).BuildWithReturning(query, "id"); got != want {
		t.Errorf("Postgres BuildWithReturning() = %q, want %q", got, want)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("/tmp/maps.db")
	if cfg.Driver != "sqlite" || cfg.SQLitePath != "/tmp/maps.db" {
		t.Errorf("DefaultConfig() = %+v", cfg)
	}
}

func TestDefaultPostgresConfig(t *testing.T) {
	cfg := DefaultPostgresConfig()
	if cfg.Host != "localhost" || cfg.Port != 5432 || cfg.SSLMode != "disable" {
		t.Errorf("DefaultPostgresConfig() = %+v", cfg)
	}
	if cfg.ConnMaxLifetime != 5*time.Minute {
		t.Errorf("ConnMaxLifetime = %v, want 5m", cfg.ConnMaxLifetime)
	}
}

func TestPostgresDSN(t *testing.T) {
	cfg := PostgresConfig{Host: "db", Port: 5433, User: "u", Password: "p", Database: "maps"}
	want := "host=db port=5433 user=u password=p dbname=maps sslmode=disable"
	if got := cfg.DSN(); got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}

	cfg.SSLMode = "require"
	if got := cfg.DSN(); got != "host=db port=5433 user=u password=p dbname=maps sslmode=require" {
		t.Errorf("DSN() = %q", got)
	}
}

func TestDialect_InterfaceCompliance(t *testing.T) {
	var _ Dialect = &SQLiteDialect{}
	var _ Dialect = &PostgresDialect{}
}
