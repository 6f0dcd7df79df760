package regions

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iddryg/seg-flow/raster"
)

// TestComputeRectangle checks every measurement against hand-derived values
// for an axis-aligned 4x6 rectangle.
func TestComputeRectangle(t *testing.T) {
	labels := raster.NewLabels(10, 12)
	for r := 2; r < 6; r++ {
		for c := 3; c < 9; c++ {
			labels.Set(r, c, 5)
		}
	}

	table, err := Compute(labels)
	require.NoError(t, err)
	require.Equal(t, 1, table.Len())
	require.True(t, table.Has(5))

	p, ok := table.Get(5)
	require.True(t, ok)
	assert.Equal(t, 24, p.Area)
	assert.InDelta(t, 3.5, p.Centroid.Row, 1e-9)
	assert.InDelta(t, 5.5, p.Centroid.Col, 1e-9)
	assert.Equal(t, BBox{MinRow: 2, MinCol: 3, MaxRow: 6, MaxCol: 9}, p.BBox)
	assert.InDelta(t, 1.0, p.Extent, 1e-9, "a rectangle fills its bounding box")
	assert.InDelta(t, 1.0, p.Solidity, 1e-9, "a rectangle is its own convex hull")

	// Row variance 1.25, col variance 17.5/6, each plus the 1/12 pixel term.
	assert.InDelta(t, 4*math.Sqrt(17.5/6+1.0/12), p.MajorAxisLength, 1e-9)
	assert.InDelta(t, 4*math.Sqrt(1.25+1.0/12), p.MinorAxisLength, 1e-9)
	assert.InDelta(t, math.Sqrt(1-(1.25+1.0/12)/(17.5/6+1.0/12)), p.Eccentricity, 1e-9)
	assert.InDelta(t, math.Pi/2, math.Abs(p.Orientation), 1e-9, "major axis along the columns")
}

// TestComputeSinglePixel verifies the 1/12 pixel moment keeps a one-pixel
// instance measurable instead of degenerate.
func TestComputeSinglePixel(t *testing.T) {
	labels := raster.NewLabels(4, 4)
	labels.Set(1, 2, 3)

	table, err := Compute(labels)
	require.NoError(t, err)
	p, ok := table.Get(3)
	require.True(t, ok)

	assert.Equal(t, 1, p.Area)
	assert.InDelta(t, 4*math.Sqrt(1.0/12), p.MajorAxisLength, 1e-9)
	assert.InDelta(t, p.MajorAxisLength, p.MinorAxisLength, 1e-9, "a pixel is isotropic")
	assert.InDelta(t, 0, p.Eccentricity, 1e-9)
	assert.InDelta(t, 1.0, p.Solidity, 1e-9)
}

func TestComputeEmptyRaster(t *testing.T) {
	table, err := Compute(raster.NewLabels(4, 4))
	require.NoError(t, err)
	assert.Equal(t, 0, table.Len())
	assert.False(t, table.Has(1), "missing id answers false")
}

func TestTableIDsSorted(t *testing.T) {
	labels := raster.NewLabels(2, 3)
	labels.Set(0, 0, 9)
	labels.Set(0, 1, 2)
	labels.Set(1, 2, 5)

	table, err := Compute(labels)
	require.NoError(t, err)
	assert.Equal(t, []int32{2, 5, 9}, table.IDs())
}

// TestComponentsConnectivity verifies diagonal pixels split under 4- and
// join under 8-connectivity.
func TestComponentsConnectivity(t *testing.T) {
	src := raster.NewLabels(3, 3)
	src.Set(0, 0, 7)
	src.Set(1, 1, 7)

	_, n4, err := Components(src, Conn4)
	require.NoError(t, err)
	assert.Equal(t, 2, n4, "diagonal neighbors are separate under 4-connectivity")

	out, n8, err := Components(src, Conn8)
	require.NoError(t, err)
	assert.Equal(t, 1, n8, "diagonal neighbors join under 8-connectivity")
	assert.Equal(t, out.At(0, 0), out.At(1, 1), "joined pixels share one component id")
}

func TestComponentsFreshIDs(t *testing.T) {
	src := raster.NewLabels(1, 5)
	src.Set(0, 0, 42)
	src.Set(0, 3, 42) // same input label, disconnected

	out, n, err := Components(src, Conn4)
	require.NoError(t, err)
	assert.Equal(t, 2, n, "input label values do not merge disconnected pixels")
	assert.Equal(t, int32(1), out.At(0, 0), "components numbered from 1 in scan order")
	assert.Equal(t, int32(2), out.At(0, 3))
}

func TestComponentsInvalidConnectivity(t *testing.T) {
	_, _, err := Components(raster.NewLabels(2, 2), Connectivity(6))
	assert.Error(t, err)
}
