package raster

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestReflectPadValues verifies the reflect pad excludes the edge sample,
// matching NumPy's 'reflect' mode rather than 'symmetric'.
func TestReflectPadValues(t *testing.T) {
	src, err := LabelsFromSlice(2, 3, []int32{
		1, 2, 3,
		4, 5, 6,
	})
	require.NoError(t, err)

	padded := src.PadReflect(1, 0, 1, 0)
	h, w := padded.Dims()
	assert.Equal(t, 3, h, "one row of top padding")
	assert.Equal(t, 4, w, "one column of left padding")

	want := []int32{
		5, 4, 5, 6,
		2, 1, 2, 3,
		5, 4, 5, 6,
	}
	assert.Equal(t, want, padded.Pix(), "reflection must mirror around the edge without repeating it")
}

// TestPadCropRoundTrip verifies cropping by the pad amounts restores the
// original raster exactly.
func TestPadCropRoundTrip(t *testing.T) {
	src, err := ContinuousFromSlice(3, 3, []float32{
		1, 2, 3,
		4, 5, 6,
		7, 8, 9,
	})
	require.NoError(t, err)

	padded := src.PadReflect(2, 1, 0, 3)
	cropped, err := padded.Crop(2, 1, 0, 3)
	require.NoError(t, err)
	assert.Equal(t, src.Pix(), cropped.Pix(), "pad then crop must be the identity")
}

// TestCropZeroAmounts verifies a zero pad amount crops to the full extent
// instead of producing an empty axis.
func TestCropZeroAmounts(t *testing.T) {
	src := NewLabels(4, 5)
	cropped, err := src.Crop(0, 0, 0, 0)
	require.NoError(t, err)
	h, w := cropped.Dims()
	assert.Equal(t, 4, h, "zero crop keeps every row")
	assert.Equal(t, 5, w, "zero crop keeps every column")
}

func TestCropLeavingNothingFails(t *testing.T) {
	src := NewLabels(4, 4)
	_, err := src.Crop(2, 2, 0, 0)
	assert.Error(t, err, "cropping away all rows must fail")
}

// TestStackChannels verifies plane interleaving and extraction round-trip.
func TestStackChannels(t *testing.T) {
	a, err := ContinuousFromSlice(2, 2, []float32{1, 2, 3, 4})
	require.NoError(t, err)
	b, err := ContinuousFromSlice(2, 2, []float32{10, 20, 30, 40})
	require.NoError(t, err)

	stacked, err := StackChannels(a, b)
	require.NoError(t, err)
	h, w, c := stacked.Dims()
	assert.Equal(t, [3]int{2, 2, 2}, [3]int{h, w, c})
	assert.Equal(t, []float32{1, 10, 2, 20, 3, 30, 4, 40}, stacked.Pix(), "channels interleave per pixel")

	back, err := stacked.Channel(1)
	require.NoError(t, err)
	assert.Equal(t, b.Pix(), back.Pix(), "channel extraction must invert stacking")

	_, err = stacked.Channel(2)
	assert.Error(t, err, "out-of-range channel index must fail")
}

func TestStackChannelsShapeMismatch(t *testing.T) {
	a := NewContinuous(2, 2)
	b := NewContinuous(3, 2)
	_, err := StackChannels(a, b)
	assert.Error(t, err, "mismatched plane shapes must fail")
}

// TestNormalize verifies per-channel standardization: zero mean, unit sample
// variance, channels independent.
func TestNormalize(t *testing.T) {
	a, err := ContinuousFromSlice(2, 2, []float32{1, 2, 3, 4})
	require.NoError(t, err)
	b, err := ContinuousFromSlice(2, 2, []float32{100, 200, 300, 400})
	require.NoError(t, err)
	img, err := StackChannels(a, b)
	require.NoError(t, err)

	img.Normalize()

	for ch := 0; ch < 2; ch++ {
		plane, err := img.Channel(ch)
		require.NoError(t, err)
		pix := plane.Pix()

		mean := 0.0
		for _, v := range pix {
			mean += float64(v)
		}
		mean /= float64(len(pix))
		assert.InDelta(t, 0, mean, 1e-6, "channel %d mean", ch)

		variance := 0.0
		for _, v := range pix {
			variance += (float64(v) - mean) * (float64(v) - mean)
		}
		variance /= float64(len(pix) - 1)
		assert.InDelta(t, 1, variance, 1e-5, "channel %d sample variance", ch)
	}
}

// TestNormalizeConstantChannel verifies the zero-variance guard yields zeros
// instead of NaN.
func TestNormalizeConstantChannel(t *testing.T) {
	a, err := ContinuousFromSlice(2, 2, []float32{7, 7, 7, 7})
	require.NoError(t, err)
	img, err := StackChannels(a, a)
	require.NoError(t, err)

	img.Normalize()
	for _, v := range img.Pix() {
		assert.False(t, math.IsNaN(float64(v)), "constant channel must not normalize to NaN")
		assert.Equal(t, float32(0), v, "constant channel centers at zero")
	}
}

func TestLabelsQueries(t *testing.T) {
	l, err := LabelsFromSlice(2, 3, []int32{
		0, 5, 5,
		2, 0, 9,
	})
	require.NoError(t, err)

	assert.Equal(t, []int32{2, 5, 9}, l.Unique(), "unique ids sorted, background excluded")
	assert.True(t, l.Contains(5))
	assert.False(t, l.Contains(3), "absent id is an answer, not an error")
	assert.Equal(t, 2, l.PixelCount(5))
	assert.Equal(t, int32(9), l.MaxLabel())
}

func TestFromSliceLengthChecked(t *testing.T) {
	_, err := LabelsFromSlice(2, 2, []int32{1, 2, 3})
	assert.Error(t, err, "slice length must match the shape")
}
