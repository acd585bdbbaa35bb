package server

import (
	"errors"
	"fmt"

	"github.com/lawnchairsociety/tilegen/internal/wfc"
)

// ErrBadRequest is returned for generation requests the server refuses.
var ErrBadRequest = errors.New("bad request")

// MaxOrigin bounds |x_min| and |y_min| of a request.
const MaxOrigin = 1 << 20

// Message types sent to websocket clients.
const (
	TypeCollapse = "collapse"
	TypeReject   = "reject"
	TypeRetry    = "retry"
	TypeDone     = "done"
	TypeError    = "error"
)

// Request asks for one generated map. Seed 0 picks a time-based seed.
type Request struct {
	Width  int   `json:"width"`
	Height int   `json:"height"`
	XMin   int   `json:"x_min"`
	YMin   int   `json:"y_min"`
	Seed   int64 `json:"seed"`

	// Quiet suppresses per-step messages; only the result is sent.
	Quiet bool `json:"quiet,omitempty"`
}

// Bounds returns the requested domain.
func (r Request) Bounds() wfc.Bounds {
	return wfc.Bounds{XMin: r.XMin, YMin: r.YMin, Width: r.Width, Height: r.Height}
}

// validate checks the requested domain against the server limits.
func (r Request) validate(maxWidth, maxHeight int) error {
	if r.Width <= 0 || r.Height <= 0 {
		return fmt.Errorf("%w: size %dx%d", ErrBadRequest, r.Width, r.Height)
	}
	if r.Width > maxWidth || r.Height > maxHeight {
		return fmt.Errorf("%w: size %dx%d exceeds %dx%d", ErrBadRequest, r.Width, r.Height, maxWidth, maxHeight)
	}
	if r.XMin < -MaxOrigin || r.XMin > MaxOrigin || r.YMin < -MaxOrigin || r.YMin > MaxOrigin {
		return fmt.Errorf("%w: origin (%d,%d) outside +/-%d", ErrBadRequest, r.XMin, r.YMin, MaxOrigin)
	}
	if err := r.Bounds().Validate(); err != nil {
		return errors.Join(ErrBadRequest, err)
	}
	return nil
}

// StepMessage reports one collapse or rejection.
type StepMessage struct {
	Type    string `json:"type"`
	X       int    `json:"x"`
	Y       int    `json:"y"`
	Tile    string `json:"tile"`
	Entropy int    `json:"entropy"`
	Step    int    `json:"step"`
}

// RetryMessage reports a failed attempt that will be retried.
type RetryMessage struct {
	Type    string `json:"type"`
	Attempt int    `json:"attempt"`
	Seed    int64  `json:"seed"`
	Error   string `json:"error"`
}

// DoneMessage carries the finished map. Rows run from the top row down,
// each a space-separated list of tile ids.
type DoneMessage struct {
	Type       string   `json:"type"`
	Seed       int64    `json:"seed"`
	BaseSeed   int64    `json:"base_seed"`
	Attempts   int      `json:"attempts"`
	XMin       int      `json:"x_min"`
	YMin       int      `json:"y_min"`
	Width      int      `json:"width"`
	Height     int      `json:"height"`
	Rows       []string `json:"rows"`
	Digest     string   `json:"digest"`
	Steps      int      `json:"steps"`
	Collapses  int      `json:"collapses"`
	Rejections int      `json:"rejections"`

	// MapID is the archive id, when the server archives maps.
	MapID int64 `json:"map_id,omitempty"`
}

// ErrorMessage reports why a request produced no map.
type ErrorMessage struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

func stepMessage(e wfc.Event) StepMessage {
	kind := TypeCollapse
	if e.Kind == wfc.EventReject {
		kind = TypeReject
	}
	return StepMessage{
		Type:    kind,
		X:       e.Point.X,
		Y:       e.Point.Y,
		Tile:    e.Tile.ID(),
		Entropy: e.Entropy,
		Step:    e.Step,
	}
}
