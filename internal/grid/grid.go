// Package grid provides a fixed-size 2D container addressed by signed
// coordinates over an arbitrary rectangular domain.
package grid

import (
	"fmt"
	"math"
)

// Point is a cell coordinate.
type Point struct {
	X, Y int
}

// Add returns p shifted by (dx, dy).
func (p Point) Add(dx, dy int) Point {
	return Point{X: p.X + dx, Y: p.Y + dy}
}

// String returns the point as "(x,y)".
func (p Point) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Less orders points row-major: by Y, then by X.
func (p Point) Less(q Point) bool {
	if p.Y != q.Y {
		return p.Y < q.Y
	}
	return p.X < q.X
}

// Intn is the random source used by SamplePoint. *math/rand.Rand satisfies it.
type Intn interface {
	Intn(n int) int
}

// Grid holds one T per cell of the rectangle
// [XMin, XMin+Width) x [YMin, YMin+Height).
// The domain is fixed at construction.
type Grid[T any] struct {
	cells  []T
	xMin   int
	yMin   int
	width  int
	height int
}

// ValidDomain reports whether [xMin, xMin+width) x [yMin, yMin+height) is a
// non-empty rectangle whose end coordinates and cell count fit in an int.
func ValidDomain(xMin, yMin, width, height int) bool {
	if width <= 0 || height <= 0 {
		return false
	}
	if xMin > math.MaxInt-width || yMin > math.MaxInt-height {
		return false
	}
	return width <= math.MaxInt/height
}

// New allocates a width*height grid of zero values with its lower corner at
// (xMin, yMin). It panics unless ValidDomain holds.
func New[T any](xMin, yMin, width, height int) *Grid[T] {
	if !ValidDomain(xMin, yMin, width, height) {
		panic(fmt.Sprintf("grid: invalid domain %dx%d at (%d,%d)", width, height, xMin, yMin))
	}
	return &Grid[T]{
		cells:  make([]T, width*height),
		xMin:   xMin,
		yMin:   yMin,
		width:  width,
		height: height,
	}
}

// Width returns the number of columns.
func (g *Grid[T]) Width() int { return g.width }

// Height returns the number of rows.
func (g *Grid[T]) Height() int { return g.height }

// Bounds returns the domain as (xMin, yMin, width, height).
func (g *Grid[T]) Bounds() (xMin, yMin, width, height int) {
	return g.xMin, g.yMin, g.width, g.height
}

// Min returns the lowest in-domain point.
func (g *Grid[T]) Min() Point { return Point{X: g.xMin, Y: g.yMin} }

// Max returns the highest in-domain point.
func (g *Grid[T]) Max() Point {
	return Point{X: g.xMin + g.width - 1, Y: g.yMin + g.height - 1}
}

// InBounds reports whether p lies inside the domain.
func (g *Grid[T]) InBounds(p Point) bool {
	return p.X >= g.xMin && p.X < g.xMin+g.width &&
		p.Y >= g.yMin && p.Y < g.yMin+g.height
}

// index translates p to the linear buffer index.
// Out-of-domain access is a caller bug and panics rather than wrapping.
func (g *Grid[T]) index(p Point) int {
	if !g.InBounds(p) {
		panic(fmt.Sprintf("grid: point %s out of bounds [%d,%d)x[%d,%d)",
			p, g.xMin, g.xMin+g.width, g.yMin, g.yMin+g.height))
	}
	return (p.X - g.xMin) + g.width*(p.Y-g.yMin)
}

// Get returns the value stored at p.
func (g *Grid[T]) Get(p Point) T {
	return g.cells[g.index(p)]
}

// At is Get with separate coordinates.
func (g *Grid[T]) At(x, y int) T {
	return g.Get(Point{X: x, Y: y})
}

// Ref returns a pointer to the cell at p for in-place updates.
func (g *Grid[T]) Ref(p Point) *T {
	return &g.cells[g.index(p)]
}

// Set stores v at p.
func (g *Grid[T]) Set(p Point, v T) {
	g.cells[g.index(p)] = v
}

// Fill overwrites every cell with a copy of v.
func (g *Grid[T]) Fill(v T) {
	for i := range g.cells {
		g.cells[i] = v
	}
}

// FillFunc sets every cell to fn(p).
func (g *Grid[T]) FillFunc(fn func(p Point) T) {
	for _, p := range g.Points() {
		g.Set(p, fn(p))
	}
}

// Points returns every in-domain point in row-major order (Y ascending,
// then X ascending).
func (g *Grid[T]) Points() []Point {
	points := make([]Point, 0, len(g.cells))
	for y := g.yMin; y < g.yMin+g.height; y++ {
		for x := g.xMin; x < g.xMin+g.width; x++ {
			points = append(points, Point{X: x, Y: y})
		}
	}
	return points
}

// SamplePoint draws x and y independently and uniformly from the domain.
func (g *Grid[T]) SamplePoint(r Intn) Point {
	x := g.xMin + r.Intn(g.width)
	y := g.yMin + r.Intn(g.height)
	return Point{X: x, Y: y}
}
