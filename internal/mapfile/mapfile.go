// Package mapfile stores solved maps as YAML.
package mapfile

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lawnchairsociety/tilegen/internal/tiles"
	"github.com/lawnchairsociety/tilegen/internal/wfc"
)

var (
	ErrMalformed      = errors.New("mapfile: malformed map")
	ErrDigestMismatch = errors.New("mapfile: digest does not match tiles")
)

// MapFile is the on-disk form of a solved map. Rows run from the highest y
// down, each a space-separated list of tile ids from west to east, so the
// file reads like the rendered map.
type MapFile struct {
	Seed        int64     `yaml:"seed"`
	XMin        int       `yaml:"x_min"`
	YMin        int       `yaml:"y_min"`
	Width       int       `yaml:"width"`
	Height      int       `yaml:"height"`
	GeneratedAt time.Time `yaml:"generated_at"`
	Digest      string    `yaml:"digest"`
	Rows        []string  `yaml:"rows"`
}

// FromMap captures m. generatedAt is stored as UTC.
func FromMap(m *wfc.TileMap, seed int64, generatedAt time.Time) (*MapFile, error) {
	ids, err := wfc.TileIDs(m)
	if err != nil {
		return nil, err
	}
	digest, err := wfc.Digest(m)
	if err != nil {
		return nil, err
	}

	b := wfc.MapBounds(m)
	f := &MapFile{
		Seed:        seed,
		XMin:        b.XMin,
		YMin:        b.YMin,
		Width:       b.Width,
		Height:      b.Height,
		GeneratedAt: generatedAt.UTC(),
		Digest:      digest,
		Rows:        make([]string, 0, b.Height),
	}
	for y := b.Height - 1; y >= 0; y-- {
		f.Rows = append(f.Rows, strings.Join(ids[y*b.Width:(y+1)*b.Width], " "))
	}
	return f, nil
}

// Bounds returns the map domain.
func (f *MapFile) Bounds() wfc.Bounds {
	return wfc.Bounds{XMin: f.XMin, YMin: f.YMin, Width: f.Width, Height: f.Height}
}

// TileMap rebuilds the map against c and checks it against the stored
// digest.
func (f *MapFile) TileMap(c tiles.Catalogue) (*wfc.TileMap, error) {
	if err := f.Bounds().Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if len(f.Rows) != f.Height {
		return nil, fmt.Errorf("%w: %d rows, height %d", ErrMalformed, len(f.Rows), f.Height)
	}

	rows := make([][]string, f.Height)
	for i, row := range f.Rows {
		fields := strings.Fields(row)
		if len(fields) != f.Width {
			return nil, fmt.Errorf("%w: row %d has %d tiles, width %d", ErrMalformed, i, len(fields), f.Width)
		}
		rows[f.Height-1-i] = fields
	}
	ids := make([]string, 0, f.Width*f.Height)
	for _, fields := range rows {
		ids = append(ids, fields...)
	}

	m, err := wfc.FromTileIDs(c, f.Bounds(), ids)
	if err != nil {
		return nil, err
	}

	if f.Digest != "" {
		digest, err := wfc.Digest(m)
		if err != nil {
			return nil, err
		}
		if digest != f.Digest {
			return nil, fmt.Errorf("%w: have %s, computed %s", ErrDigestMismatch, f.Digest, digest)
		}
	}
	return m, nil
}

// Encode writes f as YAML with a short comment header.
func Encode(w io.Writer, f *MapFile) error {
	fmt.Fprintf(w, "# tilegen map %dx%d at (%d,%d)\n", f.Width, f.Height, f.XMin, f.YMin)
	fmt.Fprintf(w, "# Generated with seed: %d\n\n", f.Seed)

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(f); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return encoder.Close()
}

// Decode reads a map written by Encode.
func Decode(r io.Reader) (*MapFile, error) {
	var f MapFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if f.Width <= 0 || f.Height <= 0 {
		return nil, fmt.Errorf("%w: size %dx%d", ErrMalformed, f.Width, f.Height)
	}
	return &f, nil
}

// Save writes f to path.
func Save(path string, f *MapFile) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if err := Encode(out, f); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// Load reads a map file from path.
func Load(path string) (*MapFile, error) {
	in, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open map file: %w", err)
	}
	defer in.Close()
	return Decode(in)
}
