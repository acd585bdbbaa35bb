package database

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestOpen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}

	var count int
	if err := db.db.QueryRow("SELECT COUNT(*) FROM maps").Scan(&count); err != nil {
		t.Errorf("Failed to query maps table: %v", err)
	}
	if _, ok := db.Dialect().(*SQLiteDialect); !ok {
		t.Errorf("Dialect() = %T, want *SQLiteDialect", db.Dialect())
	}
}

func TestOpenCreatesDirectory(t *testing.T) {
	nestedPath := filepath.Join(t.TempDir(), "nested", "dir", "test.db")

	db, err := Open(nestedPath)
	if err != nil {
		t.Fatalf("Failed to open database with nested path: %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(nestedPath); os.IsNotExist(err) {
		t.Error("Database file was not created in nested directory")
	}
}

func TestOpenTwiceKeepsData(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("First open failed: %v", err)
	}
	if _, _, err := db.SaveMap(1, testMap(t)); err != nil {
		t.Fatalf("SaveMap() failed: %v", err)
	}
	db.Close()

	db, err = Open(dbPath)
	if err != nil {
		t.Fatalf("Second open failed: %v", err)
	}
	defer db.Close()

	if n, err := db.CountMaps(); err != nil || n != 1 {
		t.Errorf("CountMaps() = %d, %v, want 1", n, err)
	}
}

func TestOpenWithConfigUnknownDriver(t *testing.T) {
	for _, driver := range []string{"", "mysql"} {
		if _, err := OpenWithConfig(Config{Driver: driver}); !errors.Is(err, ErrUnknownDriver) {
			t.Errorf("OpenWithConfig(%q) error = %v, want ErrUnknownDriver", driver, err)
		}
	}
}
