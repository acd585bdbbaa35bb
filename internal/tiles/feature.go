package tiles

import "fmt"

// Feature is the terrain visible on one side of a tile.
type Feature int

const (
	City Feature = iota
	Forest
	Road
)

// String returns the string representation of a Feature
func (f Feature) String() string {
	switch f {
	case City:
		return "city"
	case Forest:
		return "forest"
	case Road:
		return "road"
	default:
		return "unknown"
	}
}

// Letter returns the single-letter code used in shape identifiers.
func (f Feature) Letter() byte {
	switch f {
	case City:
		return 'C'
	case Forest:
		return 'F'
	case Road:
		return 'R'
	default:
		return '?'
	}
}

// ParseFeature accepts either the full name ("city") or the letter ("C").
func ParseFeature(s string) (Feature, error) {
	switch s {
	case "city", "C", "c":
		return City, nil
	case "forest", "F", "f":
		return Forest, nil
	case "road", "R", "r":
		return Road, nil
	}
	return 0, fmt.Errorf("unknown feature %q", s)
}
