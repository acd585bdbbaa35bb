package wfc

import (
	"github.com/lawnchairsociety/tilegen/internal/grid"
	"github.com/lawnchairsociety/tilegen/internal/tiles"
)

// EventKind identifies what happened during a solver step.
type EventKind int

const (
	EventCollapse  EventKind = iota // a cell was resolved to Tile
	EventReject                     // Tile was sampled at Point and discarded
	EventConstrain                  // an unresolved neighbour's candidates were narrowed
)

// String returns the string representation of an EventKind
func (k EventKind) String() string {
	switch k {
	case EventCollapse:
		return "collapse"
	case EventReject:
		return "reject"
	case EventConstrain:
		return "constrain"
	default:
		return "unknown"
	}
}

// Event describes one observable solver action.
//
// For collapse and reject, Entropy is the selected cell's entropy when it
// was chosen. For constrain, it is the neighbour's entropy after filtering
// and Tile is unset.
type Event struct {
	Kind    EventKind
	Point   grid.Point
	Tile    tiles.Oriented
	Entropy int
	Step    int
}

func (s *Solver) emit(e Event) {
	if s.Observer != nil {
		s.Observer(e)
	}
}
