package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lawnchairsociety/tilegen/internal/tiles"
	"github.com/lawnchairsociety/tilegen/internal/wfc"
)

// ErrMapNotFound is returned when a map lookup fails.
var ErrMapNotFound = errors.New("map not found")

// MapRecord is one archived map. Tiles holds row-major tile ids.
type MapRecord struct {
	ID        int64
	Seed      int64
	Bounds    wfc.Bounds
	Digest    string
	Tiles     []string
	CreatedAt time.Time
}

// TileMap rebuilds the archived layout against c.
func (r *MapRecord) TileMap(c tiles.Catalogue) (*wfc.TileMap, error) {
	return wfc.FromTileIDs(c, r.Bounds, r.Tiles)
}

const mapColumns = "id, seed, x_min, y_min, width, height, digest, tiles, created_at"

// SaveMap archives m. A layout already in the archive is not stored twice:
// the existing record is returned with created false.
func (d *Database) SaveMap(seed int64, m *wfc.TileMap) (rec *MapRecord, created bool, err error) {
	ids, err := wfc.TileIDs(m)
	if err != nil {
		return nil, false, err
	}
	digest, err := wfc.Digest(m)
	if err != nil {
		return nil, false, err
	}

	if existing, err := d.GetMapByDigest(digest); err == nil {
		return existing, false, nil
	} else if !errors.Is(err, ErrMapNotFound) {
		return nil, false, err
	}

	rec = &MapRecord{
		Seed:      seed,
		Bounds:    wfc.MapBounds(m),
		Digest:    digest,
		Tiles:     ids,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	return d.insertMap(rec)
}

// ImportMap stores a record taken from another archive, keeping its seed
// and creation time. rec.ID is replaced by the new id. A layout already in
// the archive is skipped and reported with created false.
func (d *Database) ImportMap(rec *MapRecord) (created bool, err error) {
	if err := rec.Bounds.Validate(); err != nil {
		return false, fmt.Errorf("record %d: %w", rec.ID, err)
	}
	if len(rec.Tiles) != rec.Bounds.Width*rec.Bounds.Height || rec.Digest == "" {
		return false, fmt.Errorf("%w: record %d", wfc.ErrInvalidSize, rec.ID)
	}
	if _, err := d.GetMapByDigest(rec.Digest); err == nil {
		return false, nil
	} else if !errors.Is(err, ErrMapNotFound) {
		return false, err
	}

	imported := *rec
	saved, created, err := d.insertMap(&imported)
	if err != nil {
		return false, err
	}
	rec.ID = saved.ID
	return created, nil
}

// insertMap writes rec, filling in its id. When a concurrent writer stored
// the same digest first, that record is returned with created false.
func (d *Database) insertMap(rec *MapRecord) (*MapRecord, bool, error) {
	b := rec.Bounds
	query := d.qb.BuildWithReturning(
		`INSERT INTO maps (seed, x_min, y_min, width, height, digest, tiles, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`, "id")
	args := []any{rec.Seed, b.XMin, b.YMin, b.Width, b.Height, rec.Digest, strings.Join(rec.Tiles, ","), rec.CreatedAt}

	var (
		id  int64
		err error
	)
	if d.dialect.SupportsLastInsertID() {
		var result sql.Result
		result, err = d.db.Exec(query, args...)
		if err == nil {
			id, err = result.LastInsertId()
		}
	} else {
		err = d.db.QueryRow(query, args...).Scan(&id)
	}
	if err != nil {
		// Lost a race with a concurrent writer of the same layout.
		if d.dialect.IsDuplicateKeyError(err) {
			existing, getErr := d.GetMapByDigest(rec.Digest)
			if getErr != nil {
				return nil, false, getErr
			}
			return existing, false, nil
		}
		return nil, false, fmt.Errorf("failed to save map: %w", err)
	}

	rec.ID = id
	return rec, true, nil
}

// GetMap loads a map by id.
func (d *Database) GetMap(id int64) (*MapRecord, error) {
	row := d.db.QueryRow(d.qb.Build("SELECT "+mapColumns+" FROM maps WHERE id = ?"), id)
	return scanMap(row)
}

// GetMapByDigest loads a map by layout digest.
func (d *Database) GetMapByDigest(digest string) (*MapRecord, error) {
	row := d.db.QueryRow(d.qb.Build("SELECT "+mapColumns+" FROM maps WHERE digest = ?"), digest)
	return scanMap(row)
}

// ListMaps returns up to limit maps, newest first, skipping offset.
func (d *Database) ListMaps(limit, offset int) ([]*MapRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := d.db.Query(
		d.qb.Build("SELECT "+mapColumns+" FROM maps ORDER BY id DESC LIMIT ? OFFSET ?"),
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list maps: %w", err)
	}
	defer rows.Close()

	var maps []*MapRecord
	for rows.Next() {
		rec, err := scanMap(rows)
		if err != nil {
			return nil, err
		}
		maps = append(maps, rec)
	}
	return maps, rows.Err()
}

// CountMaps returns the number of archived maps.
func (d *Database) CountMaps() (int, error) {
	var n int
	if err := d.db.QueryRow("SELECT COUNT(*) FROM maps").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count maps: %w", err)
	}
	return n, nil
}

// DeleteMap removes a map by id.
func (d *Database) DeleteMap(id int64) error {
	result, err := d.db.Exec(d.qb.Build("DELETE FROM maps WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("failed to delete map: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ErrMapNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMap(row rowScanner) (*MapRecord, error) {
	var (
		rec MapRecord
		ids string
	)
	err := row.Scan(&rec.ID, &rec.Seed,
		&rec.Bounds.XMin, &rec.Bounds.YMin, &rec.Bounds.Width, &rec.Bounds.Height,
		&rec.Digest, &ids, &rec.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrMapNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load map: %w", err)
	}
	if ids != "" {
		rec.Tiles = strings.Split(ids, ",")
	}
	return &rec, nil
}
