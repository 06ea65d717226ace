package drawing

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/plat-mapdraw/internal/feature"
)

type recordingSurface struct {
	drafts  []orb.Geometry
	cleared int
}

func (r *recordingSurface) ShowDraft(g orb.Geometry) { r.drafts = append(r.drafts, g) }
func (r *recordingSurface) ClearDraft()              { r.cleared++ }

func TestPinClickCompletes(t *testing.T) {
	s := NewSession(nil)
	_, err := s.Start(Pin)
	require.NoError(t, err)

	f, err := s.Click(orb.Point{-93.2650, 44.9778})
	require.NoError(t, err)
	require.NotNil(t, f)

	assert.Equal(t, "Point", f.Geometry.GeoJSONType())
	assert.Equal(t, orb.Point{-93.2650, 44.9778}, f.Geometry.(orb.Point))
	assert.Equal(t, "pin", f.Properties[feature.PropType])
	assert.Equal(t, Pin, s.Mode())

	s.Commit()
	assert.Equal(t, Idle, s.Mode())
}

func TestPinInvalidClickStaysInPinMode(t *testing.T) {
	s := NewSession(nil)
	s.Start(Pin)

	_, err := s.Click(orb.Point{500, 0})
	assert.ErrorIs(t, err, feature.ErrInvalidGeometry)
	assert.Equal(t, Pin, s.Mode())
}

func TestAreaFinish(t *testing.T) {
	surface := &recordingSurface{}
	s := NewSession(surface)
	s.Start(Area)

	for _, p := range []orb.Point{{-93.3, 44.9}, {-93.2, 44.9}, {-93.2, 45.0}} {
		f, err := s.Click(p)
		require.NoError(t, err)
		assert.Nil(t, f)
	}
	assert.True(t, s.State().Complete)
	require.Len(t, surface.drafts, 3)
	assert.Equal(t, "Polygon", surface.drafts[2].GeoJSONType())

	f, err := s.Finish()
	require.NoError(t, err)
	ring := f.Geometry.(orb.Polygon)[0]
	assert.GreaterOrEqual(t, len(ring), 4)
	assert.Equal(t, ring[0], ring[len(ring)-1])
	assert.Equal(t, Area, s.Mode())
	assert.Len(t, s.State().Vertices, 3)
	assert.Zero(t, surface.cleared)

	s.Commit()
	assert.Equal(t, Idle, s.Mode())
	assert.Empty(t, s.State().Vertices)
	assert.Equal(t, 1, surface.cleared)
}

func TestAreaFinishTooFew(t *testing.T) {
	s := NewSession(nil)
	s.Start(Area)
	s.Click(orb.Point{1, 1})
	s.Click(orb.Point{2, 2})
	s.Click(orb.Point{1, 1})

	_, err := s.Finish()
	assert.ErrorIs(t, err, ErrTooFewVertices)
	assert.Equal(t, Area, s.Mode())
	assert.Len(t, s.State().Vertices, 3)
	assert.False(t, s.State().Complete)
}

func TestSwitchingToolDiscardsArea(t *testing.T) {
	s := NewSession(nil)
	s.Start(Area)
	s.Click(orb.Point{-93.3, 44.9})
	s.Click(orb.Point{-93.2, 44.9})

	discarded, err := s.Start(Pin)
	require.NoError(t, err)
	assert.Equal(t, 2, discarded)
	assert.Equal(t, Pin, s.Mode())
	assert.Empty(t, s.State().Vertices)

	_, err = s.Finish()
	assert.ErrorIs(t, err, ErrNotDrawing)
}

func TestStop(t *testing.T) {
	s := NewSession(nil)
	s.Start(Area)
	s.Click(orb.Point{0, 0})

	assert.Equal(t, 1, s.Stop())
	assert.Equal(t, Idle, s.Mode())

	_, err := s.Click(orb.Point{0, 0})
	assert.ErrorIs(t, err, ErrNotDrawing)
}

func TestUndo(t *testing.T) {
	surface := &recordingSurface{}
	s := NewSession(surface)

	assert.ErrorIs(t, s.Undo(), ErrNotDrawing)

	s.Start(Area)
	assert.ErrorIs(t, s.Undo(), ErrNoVertices)

	s.Click(orb.Point{0, 0})
	s.Click(orb.Point{1, 0})
	require.NoError(t, s.Undo())
	assert.Equal(t, []orb.Point{{0, 0}}, s.State().Vertices)
	require.NoError(t, s.Undo())
	assert.Empty(t, s.State().Vertices)
	assert.Equal(t, 1, surface.cleared)
}

func TestStartUnknownMode(t *testing.T) {
	s := NewSession(nil)
	_, err := s.Start(Mode("lasso"))
	assert.ErrorIs(t, err, ErrUnknownMode)
	assert.Equal(t, Idle, s.Mode())
}
