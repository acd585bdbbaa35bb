package wfc

import (
	"fmt"
	"sort"

	"github.com/lawnchairsociety/tilegen/internal/grid"
	"github.com/lawnchairsociety/tilegen/internal/tiles"
)

// Placement is a resolved cell with its position.
type Placement struct {
	Point grid.Point
	Tile  tiles.Oriented
}

// Verify checks that every cell of m is resolved and that no two adjacent
// cells disagree on their shared edge.
func Verify(m *TileMap) error {
	for _, p := range m.Points() {
		cell := m.Get(p)
		if !cell.Resolved {
			return fmt.Errorf("%w: %s", ErrUnresolved, p)
		}

		// East and north cover every shared edge exactly once
		for _, dir := range []tiles.Direction{tiles.East, tiles.North} {
			dx, dy := dir.Offset()
			q := p.Add(dx, dy)
			if !m.InBounds(q) {
				continue
			}
			other := m.Get(q)
			if other.Resolved && !cell.Tile.Connects(other.Tile, dir) {
				return fmt.Errorf("%w: %s %s at %s vs %s at %s",
					ErrInconsistent, dir, cell.Tile, p, other.Tile, q)
			}
		}
	}
	return nil
}

// Placements lists the resolved cells of m sorted by Y then X for
// deterministic output.
func Placements(m *TileMap) []Placement {
	var out []Placement
	for _, p := range m.Points() {
		if cell := m.Get(p); cell.Resolved {
			out = append(out, Placement{Point: p, Tile: cell.Tile})
		}
	}
	SortPlacements(out)
	return out
}

// SortPlacements sorts placements by Y then X.
func SortPlacements(ps []Placement) {
	sort.Slice(ps, func(i, j int) bool {
		return ps[i].Point.Less(ps[j].Point)
	})
}

// CountShapes tallies resolved cells by shape id.
func CountShapes(m *TileMap) map[string]int {
	counts := make(map[string]int)
	for _, p := range m.Points() {
		if cell := m.Get(p); cell.Resolved {
			counts[cell.Tile.Shape.ID]++
		}
	}
	return counts
}
