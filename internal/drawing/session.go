// Package drawing implements the map drawing tool state machine.
//
// A Session is idle, placing a pin, or tracing an area. A pin completes on
// its single click. An area collects vertices until Finish closes the ring.
// A completed shape stays in the session until Commit, so a caller that
// fails to store it keeps the user's work. Switching tools or stopping
// discards whatever was in progress; nothing is emitted for a discarded shape.
package drawing

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/joeblew999/plat-mapdraw/internal/feature"
)

// Mode is the active drawing tool.
type Mode string

const (
	Idle Mode = "idle"
	Pin  Mode = "pin"
	Area Mode = "area"
)

var (
	ErrNotDrawing     = errors.New("no drawing in progress")
	ErrUnknownMode    = errors.New("unknown drawing mode")
	ErrTooFewVertices = errors.New("area needs at least 3 distinct vertices")
	ErrNoVertices     = errors.New("area has no vertices")
)

// ParseMode parses a drawing tool name.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case Idle, Pin, Area:
		return Mode(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// Surface is the map the session draws its in-progress shape on.
type Surface interface {
	ShowDraft(g orb.Geometry)
	ClearDraft()
}

type nopSurface struct{}

func (nopSurface) ShowDraft(orb.Geometry) {}
func (nopSurface) ClearDraft()            {}

// State is a snapshot of a session.
type State struct {
	Mode     Mode
	Vertices []orb.Point
	// Complete reports whether the in-progress geometry can be finished now.
	Complete bool
}

// Session is a single drawing session. It is not safe for concurrent use.
type Session struct {
	mode     Mode
	vertices []orb.Point
	surface  Surface
}

// NewSession returns an idle session drawing on surface (may be nil).
func NewSession(surface Surface) *Session {
	if surface == nil {
		surface = nopSurface{}
	}
	return &Session{mode: Idle, surface: surface}
}

// Mode returns the active tool.
func (s *Session) Mode() Mode {
	return s.mode
}

// State returns a snapshot of the session.
func (s *Session) State() State {
	vs := make([]orb.Point, len(s.vertices))
	copy(vs, s.vertices)
	return State{
		Mode:     s.mode,
		Vertices: vs,
		Complete: s.mode == Area && feature.DistinctVertices(s.vertices) >= feature.MinAreaVertices,
	}
}

// Start selects a tool. Any in-progress geometry is discarded and its
// vertex count returned. Starting Idle is the same as Stop.
func (s *Session) Start(mode Mode) (discarded int, err error) {
	if _, err := ParseMode(string(mode)); err != nil {
		return 0, err
	}
	discarded = s.reset()
	s.mode = mode
	return discarded, nil
}

// Stop returns to idle and discards in-progress geometry.
func (s *Session) Stop() (discarded int) {
	return s.reset()
}

// Click handles a map click at p ([lng, lat]). In pin mode it returns the
// completed pin; the session stays in pin mode until Commit. In area mode it
// appends a vertex and returns a nil feature.
func (s *Session) Click(p orb.Point) (*geojson.Feature, error) {
	switch s.mode {
	case Pin:
		return feature.NewPin(p)
	case Area:
		if err := feature.ValidPosition(p); err != nil {
			return nil, err
		}
		s.vertices = append(s.vertices, p)
		s.surface.ShowDraft(s.draft())
		return nil, nil
	default:
		return nil, ErrNotDrawing
	}
}

// Undo removes the last area vertex.
func (s *Session) Undo() error {
	if s.mode != Area {
		return ErrNotDrawing
	}
	if len(s.vertices) == 0 {
		return ErrNoVertices
	}
	s.vertices = s.vertices[:len(s.vertices)-1]
	if len(s.vertices) == 0 {
		s.surface.ClearDraft()
	} else {
		s.surface.ShowDraft(s.draft())
	}
	return nil
}

// Finish closes the area ring and returns the completed polygon. The
// vertices are kept until Commit. With fewer than three distinct vertices it
// returns ErrTooFewVertices.
func (s *Session) Finish() (*geojson.Feature, error) {
	if s.mode != Area {
		return nil, ErrNotDrawing
	}
	if n := feature.DistinctVertices(s.vertices); n < feature.MinAreaVertices {
		return nil, fmt.Errorf("%w: have %d", ErrTooFewVertices, n)
	}
	return feature.NewArea(s.vertices)
}

// Commit ends the current shape once the caller has stored it. The session
// goes idle.
func (s *Session) Commit() {
	s.reset()
}

func (s *Session) reset() int {
	n := len(s.vertices)
	wasDrawing := s.mode != Idle
	s.mode = Idle
	s.vertices = nil
	if wasDrawing {
		s.surface.ClearDraft()
	}
	return n
}

// draft is the preview geometry for the current vertices.
func (s *Session) draft() orb.Geometry {
	switch len(s.vertices) {
	case 0:
		return nil
	case 1:
		return s.vertices[0]
	case 2:
		return orb.LineString{s.vertices[0], s.vertices[1]}
	}
	ring := make(orb.Ring, 0, len(s.vertices)+1)
	ring = append(ring, s.vertices...)
	ring = append(ring, s.vertices[0])
	return orb.Polygon{ring}
}
