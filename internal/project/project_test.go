package project

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
)

func TestForward_CityHallInPlausibleRange(t *testing.T) {
	p := NewProjector()

	// Philadelphia City Hall.
	out, err := p.Forward(geom.Coord{-75.1635, 39.9526})
	require.NoError(t, err)

	// Center City lands in the 2.6-2.8M ft easting, 200-300k ft
	// northing band of the PA South zone.
	assert.Greater(t, out[0], 2.6e6)
	assert.Less(t, out[0], 2.8e6)
	assert.Greater(t, out[1], 2.0e5)
	assert.Less(t, out[1], 3.0e5)
}

func TestForward_Deterministic(t *testing.T) {
	p := NewProjector()

	a, err := p.Forward(geom.Coord{-75.16, 39.95})
	require.NoError(t, err)
	b, err := p.Forward(geom.Coord{-75.16, 39.95})
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestForward_PreservesRelativeOrdering(t *testing.T) {
	p := NewProjector()

	west, err := p.Forward(geom.Coord{-75.25, 39.95})
	require.NoError(t, err)
	east, err := p.Forward(geom.Coord{-75.05, 39.95})
	require.NoError(t, err)
	assert.Less(t, west[0], east[0])

	south, err := p.Forward(geom.Coord{-75.16, 39.90})
	require.NoError(t, err)
	north, err := p.Forward(geom.Coord{-75.16, 40.05})
	require.NoError(t, err)
	assert.Less(t, south[1], north[1])
}

func TestRoundTrip(t *testing.T) {
	p := NewProjector()

	coords := []geom.Coord{
		{-75.1635, 39.9526}, // City Hall
		{-75.2437, 39.8744}, // airport
		{-74.9558, 40.0852}, // far northeast
		{-75.25, 40.05},
	}

	for _, c := range coords {
		planar, err := p.Forward(c)
		require.NoError(t, err)
		back, err := p.Inverse(planar)
		require.NoError(t, err)

		// Within ~1e-9 degrees (sub-millimeter).
		assert.InDelta(t, c[0], back[0], 1e-9)
		assert.InDelta(t, c[1], back[1], 1e-9)
	}
}

func TestForward_RejectsBadInput(t *testing.T) {
	p := NewProjector()

	_, err := p.Forward(geom.Coord{-75.16})
	assert.Error(t, err)

	_, err = p.Forward(geom.Coord{-200, 39.95})
	assert.Error(t, err)

	_, err = p.Forward(geom.Coord{-75.16, 95})
	assert.Error(t, err)
}
