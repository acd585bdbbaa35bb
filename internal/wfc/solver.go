package wfc

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/lawnchairsociety/tilegen/internal/grid"
	"github.com/lawnchairsociety/tilegen/internal/tiles"
)

var (
	ErrContradiction          = errors.New("wfc: contradiction - no valid tiles for cell")
	ErrDegenerateDistribution = errors.New("wfc: candidate weights sum to zero")
	ErrMaxSteps               = errors.New("wfc: exceeded maximum steps")
	ErrInvalidSize            = errors.New("wfc: invalid grid size")
	ErrNoVariants             = errors.New("wfc: no tile variants")
	ErrTooManyVariants        = errors.New("wfc: too many tile variants")
	ErrUnresolved             = errors.New("wfc: frontier exhausted with unresolved cells")
	ErrInconsistent           = errors.New("wfc: adjacent tiles disagree on shared edge")
)

// Cell is one slot of a solved map. Tile is meaningful only when Resolved.
type Cell struct {
	Tile     tiles.Oriented
	Resolved bool
}

// TileMap is the solver output: one Cell per grid point.
type TileMap = grid.Grid[Cell]

// Bounds is the rectangular generation domain.
type Bounds struct {
	XMin, YMin    int
	Width, Height int
}

// Validate reports ErrInvalidSize for an empty domain or one whose far
// corner overflows int.
func (b Bounds) Validate() error {
	if !grid.ValidDomain(b.XMin, b.YMin, b.Width, b.Height) {
		return fmt.Errorf("%w: %dx%d at (%d,%d)", ErrInvalidSize, b.Width, b.Height, b.XMin, b.YMin)
	}
	return nil
}

// NewBounds returns a domain with its lower corner at the origin.
func NewBounds(width, height int) Bounds {
	return Bounds{Width: width, Height: height}
}

// Stats counts what a Generate call did.
type Stats struct {
	Steps      int // selection steps, including rejected samples
	Collapses  int // cells committed
	Rejections int // samples discarded against a resolved neighbour
}

// Solver implements wave function collapse over a fixed list of oriented
// tiles. A Solver runs one Generate at a time and is not safe for
// concurrent use; separate solvers may run in parallel.
type Solver struct {
	Bounds Bounds

	// MaxSteps bounds the number of selection steps. Zero means
	// Width*Height*(len(variants)+1), which no run can exceed.
	MaxSteps int

	// Observer, if set, receives every collapse, rejection and constraint.
	Observer func(Event)

	variants []tiles.Oriented
	weights  []int
	all      CandidateSet

	// Per-run state
	tileMap    *TileMap
	candidates *grid.Grid[CandidateSet]
	frontier   []grid.Point // kept sorted row-major
	stats      Stats
}

// NewSolver creates a solver placing the given variants inside bounds.
func NewSolver(variants []tiles.Oriented, bounds Bounds) (*Solver, error) {
	if err := bounds.Validate(); err != nil {
		return nil, err
	}
	if len(variants) == 0 {
		return nil, ErrNoVariants
	}
	if len(variants) > MaxVariants {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyVariants, len(variants), MaxVariants)
	}

	s := &Solver{
		Bounds:   bounds,
		variants: make([]tiles.Oriented, len(variants)),
		weights:  make([]int, len(variants)),
		all:      FullSet(len(variants)),
	}
	copy(s.variants, variants)
	for i, v := range s.variants {
		s.weights[i] = v.Weight()
	}

	return s, nil
}

// NewCatalogueSolver creates a solver over every shape and rotation of c.
func NewCatalogueSolver(c tiles.Catalogue, bounds Bounds) (*Solver, error) {
	return NewSolver(c.Variants(), bounds)
}

// Variants returns the oriented tiles the solver chooses from.
func (s *Solver) Variants() []tiles.Oriented {
	out := make([]tiles.Oriented, len(s.variants))
	copy(out, s.variants)
	return out
}

// Stats returns the counters of the last Generate call.
func (s *Solver) Stats() Stats {
	return s.stats
}

func (s *Solver) stepBudget() int {
	if s.MaxSteps > 0 {
		return s.MaxSteps
	}
	return s.Bounds.Width * s.Bounds.Height * (len(s.variants) + 1)
}

// reset allocates fresh per-run state.
func (s *Solver) reset() {
	b := s.Bounds
	s.tileMap = grid.New[Cell](b.XMin, b.YMin, b.Width, b.Height)
	s.candidates = grid.New[CandidateSet](b.XMin, b.YMin, b.Width, b.Height)
	s.candidates.Fill(s.all)
	s.frontier = s.frontier[:0]
	s.stats = Stats{}
}

// Generate runs the solver to completion and returns a fully resolved map,
// or an error and no map. Failures are never partially committed.
func (s *Solver) Generate(r Random) (*TileMap, error) {
	return s.GenerateContext(context.Background(), r)
}

// GenerateContext is Generate, stopping with ctx.Err() once ctx is done.
func (s *Solver) GenerateContext(ctx context.Context, r Random) (*TileMap, error) {
	s.reset()

	// Seed the frontier with a random cell
	s.addFrontier(s.tileMap.SamplePoint(r))

	return s.run(ctx, r)
}

// run drains the frontier.
func (s *Solver) run(ctx context.Context, r Random) (*TileMap, error) {
	budget := s.stepBudget()
	for len(s.frontier) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if s.stats.Steps >= budget {
			return nil, fmt.Errorf("%w: %d", ErrMaxSteps, budget)
		}
		s.stats.Steps++

		// 1) lowest-entropy frontier cell
		p, h := s.selectCell()
		set := s.candidates.Get(p)
		if set.Empty() {
			return nil, fmt.Errorf("%w at %s", ErrContradiction, p)
		}

		// 2) weighted sample
		idx, err := s.sample(set, r)
		if err != nil {
			return nil, fmt.Errorf("%w at %s", err, p)
		}
		tile := s.variants[idx]

		// 3) check against resolved neighbours; reject only this candidate
		if !s.fitsResolved(p, tile) {
			s.candidates.Ref(p).Remove(idx)
			s.stats.Rejections++
			s.emit(Event{Kind: EventReject, Point: p, Tile: tile, Entropy: h, Step: s.stats.Steps})
			continue
		}

		// 4) commit and propagate
		s.commit(p, tile, h)
		s.removeFrontier(p)
	}

	for _, p := range s.tileMap.Points() {
		if !s.tileMap.Get(p).Resolved {
			return nil, fmt.Errorf("%w: first at %s", ErrUnresolved, p)
		}
	}

	return s.tileMap, nil
}

// selectCell returns the frontier cell with the least entropy. Ties go to
// the first cell in row-major order.
func (s *Solver) selectCell() (grid.Point, int) {
	best := s.frontier[0]
	bestEntropy := s.entropy(s.candidates.Get(best))
	for _, p := range s.frontier[1:] {
		if h := s.entropy(s.candidates.Get(p)); h < bestEntropy {
			best, bestEntropy = p, h
		}
	}
	return best, bestEntropy
}

// fitsResolved reports whether tile agrees with every resolved neighbour of p.
func (s *Solver) fitsResolved(p grid.Point, tile tiles.Oriented) bool {
	for _, dir := range tiles.AllDirections() {
		q, ok := s.neighbor(p, dir)
		if !ok {
			continue
		}
		if other := s.tileMap.Get(q); other.Resolved && !tile.Connects(other.Tile, dir) {
			return false
		}
	}
	return true
}

// commit places tile at p and narrows every unresolved neighbour to the
// variants that match across the shared edge.
func (s *Solver) commit(p grid.Point, tile tiles.Oriented, h int) {
	s.tileMap.Set(p, Cell{Tile: tile, Resolved: true})
	s.stats.Collapses++
	s.emit(Event{Kind: EventCollapse, Point: p, Tile: tile, Entropy: h, Step: s.stats.Steps})

	for _, dir := range tiles.AllDirections() {
		q, ok := s.neighbor(p, dir)
		if !ok || s.tileMap.Get(q).Resolved {
			continue
		}
		s.addFrontier(q)

		set := s.candidates.Ref(q)
		for i := range set.All() {
			if !tile.Connects(s.variants[i], dir) {
				set.Remove(i)
			}
		}
		s.emit(Event{Kind: EventConstrain, Point: q, Entropy: s.entropy(*set), Step: s.stats.Steps})
	}
}

// neighbor returns the in-bounds neighbour of p in dir.
func (s *Solver) neighbor(p grid.Point, dir tiles.Direction) (grid.Point, bool) {
	dx, dy := dir.Offset()
	q := p.Add(dx, dy)
	return q, s.tileMap.InBounds(q)
}

func (s *Solver) addFrontier(p grid.Point) {
	i := sort.Search(len(s.frontier), func(i int) bool { return !s.frontier[i].Less(p) })
	if i < len(s.frontier) && s.frontier[i] == p {
		return
	}
	s.frontier = append(s.frontier, grid.Point{})
	copy(s.frontier[i+1:], s.frontier[i:])
	s.frontier[i] = p
}

func (s *Solver) removeFrontier(p grid.Point) {
	i := sort.Search(len(s.frontier), func(i int) bool { return !s.frontier[i].Less(p) })
	if i < len(s.frontier) && s.frontier[i] == p {
		s.frontier = append(s.frontier[:i], s.frontier[i+1:]...)
	}
}

// Generate is a one-shot helper: it builds a solver over every variant of c
// and runs it once.
func Generate(c tiles.Catalogue, bounds Bounds, r Random) (*TileMap, error) {
	s, err := NewCatalogueSolver(c, bounds)
	if err != nil {
		return nil, err
	}
	return s.Generate(r)
}
