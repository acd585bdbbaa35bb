package tiles

import (
	"fmt"
	"strconv"
	"strings"
)

// Oriented is a shape placed with a rotation. It is a comparable value.
type Oriented struct {
	Shape    Shape
	Rotation Rotation
}

// New pairs a shape with a rotation.
func New(s Shape, r Rotation) Oriented {
	return Oriented{Shape: s, Rotation: r}
}

// Feature returns the feature presented on side after rotation.
func (o Oriented) Feature(side Direction) Feature {
	index := (side.Index() + (4 - o.Rotation.Index())) % 4
	return o.Shape.Features[index]
}

// Connects reports whether other may sit on the given side of o.
// side is taken from o's point of view: the feature o shows on side must
// equal the feature other shows on side.Opposite().
func (o Oriented) Connects(other Oriented, side Direction) bool {
	return o.Feature(side) == other.Feature(side.Opposite())
}

// Weight returns the occurrence weight of the underlying shape.
func (o Oriented) Weight() int {
	return o.Shape.Weight
}

// ID returns "<shape>-<degrees>", e.g. "CFFF-180".
func (o Oriented) ID() string {
	return o.Shape.ID + "-" + o.Rotation.String()
}

// String implements fmt.Stringer.
func (o Oriented) String() string {
	return o.ID()
}

// Sides returns the four rotated features as letters in N, E, S, W order.
func (o Oriented) Sides() string {
	var b [4]byte
	for _, d := range AllDirections() {
		b[d.Index()] = o.Feature(d).Letter()
	}
	return string(b[:])
}

// ParseOriented resolves an identifier produced by Oriented.ID against c.
func ParseOriented(c Catalogue, id string) (Oriented, error) {
	i := strings.LastIndexByte(id, '-')
	if i <= 0 || i == len(id)-1 {
		return Oriented{}, fmt.Errorf("%w: %q", ErrInvalidTileID, id)
	}

	deg, err := strconv.Atoi(id[i+1:])
	if err != nil {
		return Oriented{}, fmt.Errorf("%w: %q: %v", ErrInvalidTileID, id, err)
	}
	rot, ok := RotationFromDegrees(deg)
	if !ok {
		return Oriented{}, fmt.Errorf("%w: %q: bad rotation %d", ErrInvalidTileID, id, deg)
	}

	s, ok := c.Shape(id[:i])
	if !ok {
		return Oriented{}, fmt.Errorf("%w: %s", ErrUnknownShape, id[:i])
	}

	return Oriented{Shape: s, Rotation: rot}, nil
}
