package wfc

import (
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/blake2b"

	"github.com/lawnchairsociety/tilegen/internal/grid"
	"github.com/lawnchairsociety/tilegen/internal/tiles"
)

// MapBounds returns the domain covered by m.
func MapBounds(m *TileMap) Bounds {
	xMin, yMin, w, h := m.Bounds()
	return Bounds{XMin: xMin, YMin: yMin, Width: w, Height: h}
}

// TileIDs lists the tile id of every cell in row-major order. Unresolved
// cells are reported as an error.
func TileIDs(m *TileMap) ([]string, error) {
	ids := make([]string, 0, m.Width()*m.Height())
	for _, p := range m.Points() {
		cell := m.Get(p)
		if !cell.Resolved {
			return nil, fmt.Errorf("%w: %s", ErrUnresolved, p)
		}
		ids = append(ids, cell.Tile.ID())
	}
	return ids, nil
}

// FromTileIDs rebuilds a map from row-major tile ids, resolving each id
// against c. The result is checked with Verify.
func FromTileIDs(c tiles.Catalogue, b Bounds, ids []string) (*TileMap, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	if len(ids) != b.Width*b.Height {
		return nil, fmt.Errorf("%w: %d tiles for %dx%d", ErrInvalidSize, len(ids), b.Width, b.Height)
	}

	m := grid.New[Cell](b.XMin, b.YMin, b.Width, b.Height)
	for i, p := range m.Points() {
		tile, err := tiles.ParseOriented(c, ids[i])
		if err != nil {
			return nil, fmt.Errorf("tile at %s: %w", p, err)
		}
		m.Set(p, Cell{Tile: tile, Resolved: true})
	}

	if err := Verify(m); err != nil {
		return nil, err
	}
	return m, nil
}

// Digest identifies a solved layout: the hex blake2b-256 of its bounds and
// row-major tile ids. Equal layouts always share a digest.
func Digest(m *TileMap) (string, error) {
	ids, err := TileIDs(m)
	if err != nil {
		return "", err
	}
	b := MapBounds(m)

	h, _ := blake2b.New256(nil)
	fmt.Fprintf(h, "%d,%d,%d,%d;", b.XMin, b.YMin, b.Width, b.Height)
	h.Write([]byte(strings.Join(ids, ",")))
	return hex.EncodeToString(h.Sum(nil)), nil
}
