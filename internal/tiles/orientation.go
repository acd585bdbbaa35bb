package tiles

// Direction represents a cardinal direction in the grid
type Direction int

const (
	North Direction = iota
	East
	South
	West
)

// String returns the string representation of a Direction
func (d Direction) String() string {
	switch d {
	case North:
		return "north"
	case East:
		return "east"
	case South:
		return "south"
	case West:
		return "west"
	default:
		return "unknown"
	}
}

// Index returns the side index (0..3) used to read a shape's feature array.
func (d Direction) Index() int {
	return int(d) & 3
}

// Opposite returns the opposite direction
func (d Direction) Opposite() Direction {
	switch d {
	case North:
		return South
	case East:
		return West
	case South:
		return North
	case West:
		return East
	default:
		return d
	}
}

// Offset returns the unit step in grid coordinates. Y grows northwards.
func (d Direction) Offset() (dx, dy int) {
	switch d {
	case North:
		return 0, 1
	case East:
		return 1, 0
	case South:
		return 0, -1
	case West:
		return -1, 0
	}
	return 0, 0
}

// AllDirections returns all four cardinal directions
func AllDirections() []Direction {
	return []Direction{North, East, South, West}
}

// Rotation is a clockwise quarter-turn count.
type Rotation int

const (
	D0 Rotation = iota
	D90
	D180
	D270
)

// Index returns the number of clockwise quarter turns (0..3).
func (r Rotation) Index() int {
	return int(r) & 3
}

// Degrees returns the rotation in degrees.
func (r Rotation) Degrees() int {
	return r.Index() * 90
}

// String returns the rotation in degrees, e.g. "90".
func (r Rotation) String() string {
	switch r {
	case D0:
		return "0"
	case D90:
		return "90"
	case D180:
		return "180"
	case D270:
		return "270"
	default:
		return "unknown"
	}
}

// RotationFromDegrees converts 0, 90, 180 or 270 to a Rotation.
func RotationFromDegrees(deg int) (Rotation, bool) {
	switch deg {
	case 0:
		return D0, true
	case 90:
		return D90, true
	case 180:
		return D180, true
	case 270:
		return D270, true
	}
	return D0, false
}

// Rotations returns all four rotations in ascending order.
func Rotations() []Rotation {
	return []Rotation{D0, D90, D180, D270}
}
