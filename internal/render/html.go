package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/lawnchairsociety/tilegen/internal/tiles"
	"github.com/lawnchairsociety/tilegen/internal/wfc"
)

//go:embed assets/map.html.tmpl assets/style.css
var assets embed.FS

var pageTemplate = template.Must(template.New("map.html.tmpl").ParseFS(assets, "assets/map.html.tmpl"))

// HTMLOptions controls the HTML renderer.
type HTMLOptions struct {
	Title string
	Seed  int64
	// CellSize is the edge length of a tile in pixels. 0 means 24.
	CellSize int
}

type htmlCell struct {
	Class string
	Title string
}

type htmlPage struct {
	Title    string
	Seed     int64
	Width    int
	Height   int
	CellSize int
	Style    template.CSS
	Rows     [][]htmlCell
}

// HTML writes a standalone page with one div.grid-square per cell, the
// northern row first. Each square carries its tile id and one class per
// side feature (n-city, e-road, ...) that the embedded stylesheet colours.
func HTML(w io.Writer, m *wfc.TileMap, opts HTMLOptions) error {
	style, err := assets.ReadFile("assets/style.css")
	if err != nil {
		return err
	}

	page := htmlPage{
		Title:    opts.Title,
		Seed:     opts.Seed,
		Width:    m.Width(),
		Height:   m.Height(),
		CellSize: opts.CellSize,
		Style:    template.CSS(style),
	}
	if page.Title == "" {
		page.Title = fmt.Sprintf("tilegen %dx%d", m.Width(), m.Height())
	}
	if page.CellSize <= 0 {
		page.CellSize = 24
	}

	lo, hi := m.Min(), m.Max()
	for y := hi.Y; y >= lo.Y; y-- {
		row := make([]htmlCell, 0, m.Width())
		for x := lo.X; x <= hi.X; x++ {
			row = append(row, cellOf(m.At(x, y), x, y))
		}
		page.Rows = append(page.Rows, row)
	}

	return pageTemplate.Execute(w, page)
}

func cellOf(c wfc.Cell, x, y int) htmlCell {
	if !c.Resolved {
		return htmlCell{Class: "grid-square unresolved", Title: fmt.Sprintf("(%d,%d)", x, y)}
	}

	t := c.Tile
	classes := []string{"grid-square", t.ID()}
	for _, d := range tiles.AllDirections() {
		classes = append(classes, fmt.Sprintf("%c-%s", d.String()[0], t.Feature(d)))
	}
	return htmlCell{
		Class: strings.Join(classes, " "),
		Title: fmt.Sprintf("%s at (%d,%d)", t.ID(), x, y),
	}
}
