// Package render draws solved maps as text or HTML.
package render

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/lawnchairsociety/tilegen/internal/tiles"
	"github.com/lawnchairsociety/tilegen/internal/wfc"
)

// TextOptions controls the ASCII renderer.
type TextOptions struct {
	Title  string
	Legend bool
}

// Text draws each tile as a 3x3 block, northern row first:
//
//	 C        north side
//	-+-       west, centre, east
//	 .        south side
func Text(w io.Writer, m *wfc.TileMap, opts TextOptions) error {
	bw := bufio.NewWriter(w)

	if opts.Title != "" {
		fmt.Fprintln(bw, opts.Title)
		fmt.Fprintln(bw, strings.Repeat("=", max(len(opts.Title), 3*m.Width())))
	}

	lo, hi := m.Min(), m.Max()
	for y := hi.Y; y >= lo.Y; y-- {
		var top, mid, bottom strings.Builder
		for x := lo.X; x <= hi.X; x++ {
			cell := m.At(x, y)
			if !cell.Resolved {
				top.WriteString("   ")
				mid.WriteString(" ? ")
				bottom.WriteString("   ")
				continue
			}
			t := cell.Tile
			top.WriteString(" " + string(sideGlyph(t.Feature(tiles.North), true)) + " ")
			mid.WriteByte(sideGlyph(t.Feature(tiles.West), false))
			mid.WriteByte(centreGlyph(t))
			mid.WriteByte(sideGlyph(t.Feature(tiles.East), false))
			bottom.WriteString(" " + string(sideGlyph(t.Feature(tiles.South), true)) + " ")
		}
		fmt.Fprintln(bw, top.String())
		fmt.Fprintln(bw, mid.String())
		fmt.Fprintln(bw, bottom.String())
	}

	if opts.Legend {
		bw.WriteString(legend)
	}
	return bw.Flush()
}

// sideGlyph returns the character for a side. Roads follow the side's axis.
func sideGlyph(f tiles.Feature, vertical bool) byte {
	switch f {
	case tiles.City:
		return 'C'
	case tiles.Road:
		if vertical {
			return '|'
		}
		return '-'
	default:
		return '.'
	}
}

// centreGlyph summarises the tile: a pennant, a junction, a city or a field.
func centreGlyph(t tiles.Oriented) byte {
	if strings.HasSuffix(t.Shape.ID, "S") {
		return '*'
	}

	var roads, cities int
	for _, f := range t.Shape.Features {
		switch f {
		case tiles.Road:
			roads++
		case tiles.City:
			cities++
		}
	}

	switch {
	case roads == 2:
		return '+'
	case roads > 0:
		return 'o'
	case cities > 1:
		return '#'
	default:
		return ' '
	}
}

const legend = `
Legend:
  C   City edge
  .   Forest edge
  | - Road edge
  *   City with pennant
  +   Road passes through
  o   Road ends (junction or village)
  #   Joined city
`
