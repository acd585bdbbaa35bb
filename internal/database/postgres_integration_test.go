package database

import (
	"fmt"
	"os"
	"testing"
	"time"
)

// getPostgresTestConfig returns a config when TILEGEN_TEST_POSTGRES is set.
//
//	TILEGEN_TEST_POSTGRES_HOST (default: localhost)
//	TILEGEN_TEST_POSTGRES_PORT (default: 5432)
//	TILEGEN_TEST_POSTGRES_USER (default: tilegen)
//	TILEGEN_TEST_POSTGRES_PASSWORD (default: tilegen)
//	TILEGEN_TEST_POSTGRES_DATABASE (default: tilegen_test)
func getPostgresTestConfig() *Config {
	if os.Getenv("TILEGEN_TEST_POSTGRES") == "" {
		return nil
	}

	env := func(key, fallback string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return fallback
	}

	port := 5432
	fmt.Sscanf(env("TILEGEN_TEST_POSTGRES_PORT", "5432"), "%d", &port)

	return &Config{
		Driver: "postgres",
		Postgres: PostgresConfig{
			Host:            env("TILEGEN_TEST_POSTGRES_HOST", "localhost"),
			Port:            port,
			User:            env("TILEGEN_TEST_POSTGRES_USER", "tilegen"),
			Password:        env("TILEGEN_TEST_POSTGRES_PASSWORD", "tilegen"),
			Database:        env("TILEGEN_TEST_POSTGRES_DATABASE", "tilegen_test"),
			SSLMode:         "disable",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: time.Minute,
		},
	}
}

// skipIfNoPostgres skips the test if PostgreSQL is not configured.
func skipIfNoPostgres(t *testing.T) *Config {
	cfg := getPostgresTestConfig()
	if cfg == nil {
		t.Skip("Skipping PostgreSQL test: TILEGEN_TEST_POSTGRES not set")
	}
	return cfg
}

func TestPostgres_OpenWithConfig(t *testing.T) {
	cfg := skipIfNoPostgres(t)

	db, err := OpenWithConfig(*cfg)
	if err != nil {
		t.Fatalf("OpenWithConfig() failed: %v", err)
	}
	defer db.Close()

	if _, ok := db.Dialect().(*PostgresDialect); !ok {
		t.Errorf("Dialect() = %T, want *PostgresDialect", db.Dialect())
	}
	if _, err := db.CountMaps(); err != nil {
		t.Errorf("CountMaps() failed: %v", err)
	}
}

func TestPostgres_ConnectionPoolSettings(t *testing.T) {
	cfg := skipIfNoPostgres(t)

	db, err := OpenWithConfig(*cfg)
	if err != nil {
		t.Fatalf("OpenWithConfig() failed: %v", err)
	}
	defer db.Close()

	if got := db.DB().Stats().MaxOpenConnections; got != cfg.Postgres.MaxOpenConns {
		t.Errorf("MaxOpenConnections = %d, want %d", got, cfg.Postgres.MaxOpenConns)
	}
}

func TestPostgres_MigrateIdempotent(t *testing.T) {
	cfg := skipIfNoPostgres(t)

	for i := 0; i < 2; i++ {
		db, err := OpenWithConfig(*cfg)
		if err != nil {
			t.Fatalf("open %d failed: %v", i+1, err)
		}
		db.Close()
	}
}
