package morph

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iddryg/seg-flow/raster"
)

func labelsFrom(t *testing.T, height, width int, values []int32) *raster.Labels {
	t.Helper()
	l, err := raster.LabelsFromSlice(height, width, values)
	require.NoError(t, err)
	return l
}

func TestNewBinaryMaskRejectsNonBinary(t *testing.T) {
	_, err := NewBinaryMask(labelsFrom(t, 1, 3, []int32{0, 1, 2}), StrategyFilter)
	assert.Error(t, err, "values outside {0,1} must be rejected at construction")
}

func TestBinarize(t *testing.T) {
	src := labelsFrom(t, 1, 4, []int32{0, 7, 0, 9})
	m := Binarize(src, StrategyFilter)
	assert.Equal(t, []int32{0, 1, 0, 1}, m.Labels().Pix(), "non-background thresholds to 1")
	assert.Equal(t, int32(7), src.At(0, 1), "source raster untouched")
}

// TestBinaryDilateFilter verifies a single foreground pixel grows into a
// square block under the filter strategy.
func TestBinaryDilateFilter(t *testing.T) {
	src := raster.NewLabels(5, 5)
	src.Set(2, 2, 1)
	m, err := NewBinaryMask(src, StrategyFilter)
	require.NoError(t, err)

	dilated, err := m.Dilate(1)
	require.NoError(t, err)
	out := dilated.Labels()
	for r := 0; r < 5; r++ {
		for c := 0; c < 5; c++ {
			inBlock := r >= 1 && r <= 3 && c >= 1 && c <= 3
			if inBlock {
				assert.Equal(t, int32(1), out.At(r, c), "pixel (%d,%d) inside the grown block", r, c)
			} else {
				assert.Equal(t, int32(0), out.At(r, c), "pixel (%d,%d) outside the grown block", r, c)
			}
		}
	}

	// The input mask is immutable.
	assert.Equal(t, int32(0), m.Labels().At(1, 1), "dilation must not mutate the source mask")
}

// TestBinaryErodeFilter verifies erosion keeps only pixels whose whole
// window is foreground.
func TestBinaryErodeFilter(t *testing.T) {
	src := raster.NewLabels(5, 5)
	for r := 1; r <= 3; r++ {
		for c := 1; c <= 3; c++ {
			src.Set(r, c, 1)
		}
	}
	m, err := NewBinaryMask(src, StrategyFilter)
	require.NoError(t, err)

	eroded, err := m.Erode(1)
	require.NoError(t, err)
	out := eroded.Labels()
	assert.Equal(t, int32(1), out.At(2, 2), "block center survives")
	assert.Equal(t, 1, out.PixelCount(1), "only the center survives a radius-1 erosion of a 3x3 block")
}

// TestBinaryCloseFilter verifies closing fills an interior hole.
func TestBinaryCloseFilter(t *testing.T) {
	src := raster.NewLabels(5, 5)
	for r := 1; r <= 3; r++ {
		for c := 1; c <= 3; c++ {
			if r == 2 && c == 2 {
				continue // the hole
			}
			src.Set(r, c, 1)
		}
	}
	m, err := NewBinaryMask(src, StrategyFilter)
	require.NoError(t, err)

	closed, err := m.Close(1)
	require.NoError(t, err)
	assert.Equal(t, int32(1), closed.Labels().At(2, 2), "interior hole is filled")
}

func TestBinaryInvalidRadius(t *testing.T) {
	m, err := NewBinaryMask(raster.NewLabels(3, 3), StrategyFilter)
	require.NoError(t, err)
	_, err = m.Dilate(0)
	assert.Error(t, err, "radius must be at least 1")
}

// TestLabelDilateNoMerge verifies label dilation claims background without
// ever overwriting another instance.
func TestLabelDilateNoMerge(t *testing.T) {
	src := raster.NewLabels(5, 5)
	src.Set(2, 0, 1)
	src.Set(2, 4, 2)
	m := NewLabelMask(src, StrategyFilter)

	grown, err := m.Dilate(2)
	require.NoError(t, err)
	out := grown.Labels()

	assert.Equal(t, int32(1), out.At(2, 0), "seed pixels keep their label")
	assert.Equal(t, int32(2), out.At(2, 4), "seed pixels keep their label")
	assert.Equal(t, int32(1), out.At(2, 1), "background claimed by the nearest label")
	assert.Equal(t, int32(2), out.At(2, 3), "background claimed by the nearest label")
	assert.True(t, out.Contains(1) && out.Contains(2), "both instances survive dilation")

	// Every originally labeled pixel is unchanged.
	for i, v := range src.Pix() {
		if v != 0 {
			assert.Equal(t, v, out.Pix()[i], "labeled pixel %d overwritten", i)
		}
	}
}

// TestLabelErodeIndependent verifies each instance shrinks against its own
// boundary, not against neighboring instances.
func TestLabelErodeIndependent(t *testing.T) {
	src := raster.NewLabels(7, 7)
	for r := 1; r <= 3; r++ {
		for c := 1; c <= 3; c++ {
			src.Set(r, c, 5)
		}
	}
	src.Set(5, 5, 9) // single pixel instance, erodes away
	m := NewLabelMask(src, StrategyFilter)

	eroded, err := m.Erode(1)
	require.NoError(t, err)
	out := eroded.Labels()
	assert.Equal(t, int32(5), out.At(2, 2), "3x3 block erodes to its center")
	assert.Equal(t, 1, out.PixelCount(5))
	assert.False(t, out.Contains(9), "single-pixel instance erodes away entirely")
}

func TestLabelCloseUnsupported(t *testing.T) {
	m := NewLabelMask(raster.NewLabels(3, 3), StrategyFilter)
	_, err := m.Close(1)
	assert.True(t, errors.Is(err, ErrLabelClose), "label closing is a typed unsupported error")
}

func TestMaskCrop(t *testing.T) {
	src := raster.NewLabels(4, 4)
	src.Set(1, 1, 1)
	m, err := NewBinaryMask(src, StrategyFilter)
	require.NoError(t, err)

	cropped, err := m.Crop(1, 1, 1, 1)
	require.NoError(t, err)
	h, w := cropped.Labels().Dims()
	assert.Equal(t, 2, h)
	assert.Equal(t, 2, w)
	assert.Equal(t, int32(1), cropped.Labels().At(0, 0), "content shifts with the crop")
}
