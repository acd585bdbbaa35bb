// mapview draws a saved map file as text, or converts it to HTML.
package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/lawnchairsociety/tilegen/internal/mapfile"
	"github.com/lawnchairsociety/tilegen/internal/render"
	"github.com/lawnchairsociety/tilegen/internal/tiles"
	"github.com/lawnchairsociety/tilegen/internal/wfc"
)

func main() {
	inputFile := flag.String("input", "map.yaml", "Path to map YAML file")
	catalogueFile := flag.String("catalogue", "", "Tile catalogue the map was generated with (default: base game)")
	outputFile := flag.String("output", "", "Output file (empty for stdout)")
	asHTML := flag.Bool("html", false, "Write HTML instead of text")
	showLegend := flag.Bool("legend", true, "Show legend")
	showCounts := flag.Bool("counts", false, "List how often each tile shape was placed")
	flag.Parse()

	f, err := mapfile.Load(*inputFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading map: %v\n", err)
		os.Exit(1)
	}

	c := tiles.BaseGame()
	if *catalogueFile != "" {
		if c, err = tiles.LoadCatalogue(*catalogueFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error reading catalogue: %v\n", err)
			os.Exit(1)
		}
	}

	m, err := f.TileMap(c)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading map: %v\n", err)
		os.Exit(1)
	}

	var output strings.Builder
	title := fmt.Sprintf("Map %dx%d at (%d,%d), seed %d", f.Width, f.Height, f.XMin, f.YMin, f.Seed)
	if *asHTML {
		err = render.HTML(&output, m, render.HTMLOptions{Title: title, Seed: f.Seed})
	} else {
		err = render.Text(&output, m, render.TextOptions{Title: title, Legend: *showLegend})
		if err == nil && *showCounts {
			writeCounts(&output, m)
		}
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error rendering map: %v\n", err)
		os.Exit(1)
	}

	if *outputFile != "" {
		if err := os.WriteFile(*outputFile, []byte(output.String()), 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output file: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Map written to %s\n", *outputFile)
	} else {
		fmt.Print(output.String())
	}
}

func writeCounts(output *strings.Builder, m *wfc.TileMap) {
	counts := wfc.CountShapes(m)
	ids := make([]string, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	// Most placed first, then by id
	sort.Slice(ids, func(i, j int) bool {
		if counts[ids[i]] != counts[ids[j]] {
			return counts[ids[i]] > counts[ids[j]]
		}
		return ids[i] < ids[j]
	})

	output.WriteString("\nShapes placed:\n")
	for _, id := range ids {
		fmt.Fprintf(output, "  %-6s %d\n", id, counts[id])
	}
}
