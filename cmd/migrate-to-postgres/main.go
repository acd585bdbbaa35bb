// migrate-to-postgres copies a SQLite map archive into PostgreSQL. Layouts
// already present in the target are skipped, so the tool can be re-run.
// With -prune, each map is removed from SQLite once PostgreSQL holds it.
//
// Usage:
//
//	go run ./cmd/migrate-to-postgres \
//	    -sqlite data/maps.db \
//	    -pg-host localhost \
//	    -pg-port 5432 \
//	    -pg-user tilegen \
//	    -pg-password tilegen \
//	    -pg-database tilegen
package main

import (
	"flag"
	"fmt"
	"log"
	"slices"

	"github.com/lawnchairsociety/tilegen/internal/database"
)

const pageSize = 500

func main() {
	sqlitePath := flag.String("sqlite", "data/maps.db", "Path to SQLite archive")
	pgHost := flag.String("pg-host", "localhost", "PostgreSQL host")
	pgPort := flag.Int("pg-port", 5432, "PostgreSQL port")
	pgUser := flag.String("pg-user", "tilegen", "PostgreSQL user")
	pgPassword := flag.String("pg-password", "tilegen", "PostgreSQL password")
	pgDatabase := flag.String("pg-database", "tilegen", "PostgreSQL database name")
	pgSSLMode := flag.String("pg-sslmode", "disable", "PostgreSQL SSL mode")
	dryRun := flag.Bool("dry-run", false, "Show what would be migrated without making changes")
	prune := flag.Bool("prune", false, "Delete each map from SQLite once it is in PostgreSQL")
	flag.Parse()

	log.Println("Map archive migration: SQLite to PostgreSQL")
	log.Println("===========================================")

	log.Printf("Opening SQLite archive: %s", *sqlitePath)
	source, err := database.Open(*sqlitePath)
	if err != nil {
		log.Fatalf("Failed to open SQLite archive: %v", err)
	}
	defer source.Close()

	pgConfig := database.DefaultPostgresConfig()
	pgConfig.Host = *pgHost
	pgConfig.Port = *pgPort
	pgConfig.User = *pgUser
	pgConfig.Password = *pgPassword
	pgConfig.Database = *pgDatabase
	pgConfig.SSLMode = *pgSSLMode

	log.Printf("Opening PostgreSQL archive: %s@%s:%d/%s", *pgUser, *pgHost, *pgPort, *pgDatabase)
	target, err := database.OpenWithConfig(database.Config{
		Driver:   string(database.DialectPostgres),
		Postgres: pgConfig,
	})
	if err != nil {
		log.Fatalf("Failed to open PostgreSQL archive: %v", err)
	}
	defer target.Close()

	if *dryRun {
		log.Println("DRY RUN MODE - No changes will be made")
	}

	counts, err := migrate(source, target, *dryRun, *prune)
	if err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	log.Println("===========================================")
	log.Printf("Migration complete! Maps copied: %d, already present: %d, pruned: %d",
		counts.copied, counts.skipped, counts.pruned)
	if *dryRun {
		log.Println("(DRY RUN - No actual changes were made)")
	}
}

type migration struct {
	copied, skipped, pruned int
}

// migrate copies every map of source into target. With prune, each map is
// deleted from source once target holds it.
func migrate(source, target *database.Database, dryRun, prune bool) (migration, error) {
	var m migration

	records, err := loadAll(source)
	if err != nil {
		return m, fmt.Errorf("read source archive: %w", err)
	}
	log.Printf("Found %d maps", len(records))

	for _, rec := range records {
		if dryRun {
			if _, err := target.GetMapByDigest(rec.Digest); err == nil {
				m.skipped++
			} else {
				m.copied++
			}
			continue
		}

		sourceID := rec.ID
		created, err := target.ImportMap(rec)
		if err != nil {
			return m, fmt.Errorf("migrate map %d: %w", sourceID, err)
		}
		if created {
			m.copied++
		} else {
			m.skipped++
		}

		if prune {
			if err := source.DeleteMap(sourceID); err != nil {
				return m, fmt.Errorf("prune map %d: %w", sourceID, err)
			}
			m.pruned++
		}
	}
	return m, nil
}

// loadAll reads every archived map, oldest first so new ids keep the
// original order.
func loadAll(db *database.Database) ([]*database.MapRecord, error) {
	var all []*database.MapRecord
	for offset := 0; ; offset += pageSize {
		page, err := db.ListMaps(pageSize, offset)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < pageSize {
			break
		}
	}
	slices.Reverse(all)
	return all, nil
}
