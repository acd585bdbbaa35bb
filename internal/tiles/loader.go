package tiles

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ShapeYAML is one shape in a catalogue file.
//
//	shapes:
//	  - id: FRFR
//	    weight: 8
//	    sides: [forest, road, forest, road]   # or "FRFR"
//
// A missing weight defaults to 1.
type ShapeYAML struct {
	ID     string    `yaml:"id"`
	Weight *int      `yaml:"weight"`
	Sides  yaml.Node `yaml:"sides"`
}

// CatalogueYAML is the top-level structure of a catalogue file.
type CatalogueYAML struct {
	Shapes []ShapeYAML `yaml:"shapes"`
}

// LoadCatalogue reads a YAML catalogue file.
func LoadCatalogue(path string) (Catalogue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalogue{}, fmt.Errorf("failed to read catalogue file: %w", err)
	}
	return ParseCatalogue(data)
}

// ParseCatalogue decodes a YAML catalogue document.
func ParseCatalogue(data []byte) (Catalogue, error) {
	var doc CatalogueYAML
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Catalogue{}, fmt.Errorf("failed to parse catalogue YAML: %w", err)
	}

	shapes := make([]Shape, 0, len(doc.Shapes))
	for i, s := range doc.Shapes {
		if s.ID == "" {
			return Catalogue{}, fmt.Errorf("shape %d: missing id", i)
		}
		sides, err := decodeSides(&s.Sides)
		if err != nil {
			return Catalogue{}, fmt.Errorf("shape %s: %w", s.ID, err)
		}
		weight := 1
		if s.Weight != nil {
			weight = *s.Weight
		}
		shapes = append(shapes, Shape{ID: s.ID, Weight: weight, Features: sides})
	}

	return NewCatalogue(shapes)
}

// decodeSides accepts either a four-letter string or a list of four names.
func decodeSides(node *yaml.Node) ([4]Feature, error) {
	var sides [4]Feature
	var names []string

	switch node.Kind {
	case yaml.ScalarNode:
		if len(node.Value) != 4 {
			return sides, fmt.Errorf("sides %q: want 4 letters", node.Value)
		}
		for _, r := range node.Value {
			names = append(names, string(r))
		}
	case yaml.SequenceNode:
		if err := node.Decode(&names); err != nil {
			return sides, err
		}
	default:
		return sides, fmt.Errorf("sides: want a string or a list")
	}

	if len(names) != 4 {
		return sides, fmt.Errorf("sides: got %d entries, want 4", len(names))
	}
	for i, name := range names {
		f, err := ParseFeature(strings.TrimSpace(name))
		if err != nil {
			return sides, err
		}
		sides[i] = f
	}
	return sides, nil
}
