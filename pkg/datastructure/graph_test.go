package datastructure

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-polyline"
)

func TestLocationCoordinate(t *testing.T) {
	l := Location{ID: "gaff", X: 42.5, Y: 17}
	assert.Equal(t, NewCoordinate(42.5, 17), l.Coordinate())
}

func TestRenderPath(t *testing.T) {
	path := []Location{
		{ID: "p", X: 0, Y: 0},
		{ID: "q", X: 3, Y: 0},
		{ID: "r", X: 3, Y: 4},
	}

	coords, rest, err := polyline.DecodeCoords([]byte(RenderPath(path)))
	require.NoError(t, err)
	assert.Empty(t, rest)
	require.Len(t, coords, len(path))
	for i, l := range path {
		c := l.Coordinate()
		assert.InDelta(t, c.Y, coords[i][0], 1e-5)
		assert.InDelta(t, c.X, coords[i][1], 1e-5)
	}

	assert.Equal(t, "", RenderPath(nil))
}
