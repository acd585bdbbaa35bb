// Package tiles defines the edge-typed Carcassonne tiles placed by the
// generator: terrain features, the weighted shape catalogue, rotations,
// directions and oriented tiles.
package tiles

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyCatalogue = errors.New("tiles: catalogue has no shapes")
	ErrDuplicateShape = errors.New("tiles: duplicate shape id")
	ErrInvalidWeight  = errors.New("tiles: shape weight must be at least 1")
	ErrUnknownShape   = errors.New("tiles: unknown shape")
	ErrInvalidTileID  = errors.New("tiles: invalid tile id")
)

// Shape is one catalogue entry. Features are indexed North, East, South,
// West in the unrotated orientation.
type Shape struct {
	ID       string
	Weight   int
	Features [4]Feature
}

// Catalogue is an ordered, read-only set of shapes.
type Catalogue struct {
	shapes []Shape
	byID   map[string]int
}

// NewCatalogue validates shapes and builds a catalogue from them.
func NewCatalogue(shapes []Shape) (Catalogue, error) {
	if len(shapes) == 0 {
		return Catalogue{}, ErrEmptyCatalogue
	}

	c := Catalogue{
		shapes: make([]Shape, len(shapes)),
		byID:   make(map[string]int, len(shapes)),
	}
	copy(c.shapes, shapes)

	for i, s := range c.shapes {
		if s.Weight < 1 {
			return Catalogue{}, fmt.Errorf("%w: %s has weight %d", ErrInvalidWeight, s.ID, s.Weight)
		}
		if _, dup := c.byID[s.ID]; dup {
			return Catalogue{}, fmt.Errorf("%w: %s", ErrDuplicateShape, s.ID)
		}
		c.byID[s.ID] = i
	}

	return c, nil
}

// MustCatalogue is NewCatalogue for static tables; it panics on error.
func MustCatalogue(shapes []Shape) Catalogue {
	c, err := NewCatalogue(shapes)
	if err != nil {
		panic(err)
	}
	return c
}

// Len returns the number of shapes.
func (c Catalogue) Len() int { return len(c.shapes) }

// Shapes returns a copy of the shapes in catalogue order.
func (c Catalogue) Shapes() []Shape {
	out := make([]Shape, len(c.shapes))
	copy(out, c.shapes)
	return out
}

// Shape looks up a shape by identifier.
func (c Catalogue) Shape(id string) (Shape, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Shape{}, false
	}
	return c.shapes[i], true
}

// TotalWeight returns the sum of all nominal shape weights.
func (c Catalogue) TotalWeight() int {
	total := 0
	for _, s := range c.shapes {
		total += s.Weight
	}
	return total
}

// Variants returns the cross-product of shapes and rotations, shape-major.
// Rotation-symmetric shapes are not deduplicated: a shape with four equal
// sides yields four behaviourally identical variants.
func (c Catalogue) Variants() []Oriented {
	variants := make([]Oriented, 0, len(c.shapes)*4)
	for _, s := range c.shapes {
		for _, r := range Rotations() {
			variants = append(variants, Oriented{Shape: s, Rotation: r})
		}
	}
	return variants
}

// EffectiveWeight is the total sampling weight a shape receives across all
// of its variants, i.e. four times its nominal weight.
func (c Catalogue) EffectiveWeight(id string) int {
	total := 0
	for _, v := range c.Variants() {
		if v.Shape.ID == id {
			total += v.Weight()
		}
	}
	return total
}

// IsSymmetric reports whether every rotation of s presents the same sides.
func (s Shape) IsSymmetric() bool {
	f := s.Features
	return f[0] == f[1] && f[1] == f[2] && f[2] == f[3]
}

func shape(id string, weight int, n, e, s, w Feature) Shape {
	return Shape{ID: id, Weight: weight, Features: [4]Feature{n, e, s, w}}
}

// baseGame lists the Carcassonne base game tiles (C1 edition) by side layout.
// A trailing S marks the pennant (shield) variant, a trailing 2 an
// alternative artwork with the same sides.
var baseGame = MustCatalogue([]Shape{
	shape("CCCCS", 1, City, City, City, City),
	shape("CCCF", 3, City, City, City, Forest),
	shape("CCCFS", 1, City, City, City, Forest),
	shape("CCCR", 1, City, City, City, Road),
	shape("CCCRS", 2, City, City, City, Road),
	shape("CCFF", 3, City, City, Forest, Forest),
	shape("CCFFS", 2, City, City, Forest, Forest),
	shape("CCFF2", 2, City, City, Forest, Forest),
	shape("CCRR", 3, City, City, Road, Road),
	shape("CCRRS", 2, City, City, Road, Road),
	shape("CFCF", 1, City, Forest, City, Forest),
	shape("CFCFS", 2, City, Forest, City, Forest),
	shape("CFCF2", 3, City, Forest, City, Forest),
	shape("CFFF", 5, City, Forest, Forest, Forest),
	shape("CFRR", 3, City, Forest, Road, Road),
	shape("CRFR", 3, City, Road, Forest, Road),
	shape("CRRF", 3, City, Road, Road, Forest),
	shape("CRRR", 3, City, Road, Road, Road),
	shape("FFFF", 4, Forest, Forest, Forest, Forest),
	shape("FFFR", 2, Forest, Forest, Forest, Road),
	shape("FFRR", 9, Forest, Forest, Road, Road),
	shape("FRFR", 8, Forest, Road, Forest, Road),
	shape("FRRR", 4, Forest, Road, Road, Road),
	shape("RRRR", 1, Road, Road, Road, Road),
})

// BaseGame returns the 24-shape base game catalogue.
func BaseGame() Catalogue {
	return baseGame
}
