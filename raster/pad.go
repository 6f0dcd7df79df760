package raster

import "github.com/pkg/errors"

// reflectIndex maps an out-of-range index back into [0, n) by reflecting
// around the borders without repeating the edge sample, matching NumPy's
// 'reflect' pad mode: for n=4, indices -2,-1,0,1 map to 2,1,0,1.
func reflectIndex(i, n int) int {
	if n == 1 {
		return 0
	}
	period := 2 * (n - 1)
	i %= period
	if i < 0 {
		i += period
	}
	if i >= n {
		i = period - i
	}
	return i
}

// padReflect2D reflects a row-major plane outward by the four pad amounts.
// The element stride lets the same loop serve single-plane and interleaved
// multi-channel layouts.
func padReflect2D[T any](src []T, height, width, stride, top, bottom, left, right int) []T {
	outH := height + top + bottom
	outW := width + left + right
	dst := make([]T, outH*outW*stride)
	for r := 0; r < outH; r++ {
		sr := reflectIndex(r-top, height)
		for c := 0; c < outW; c++ {
			sc := reflectIndex(c-left, width)
			copy(dst[(r*outW+c)*stride:(r*outW+c+1)*stride], src[(sr*width+sc)*stride:(sr*width+sc+1)*stride])
		}
	}
	return dst
}

// cropRect copies the window [top, height-bottom) x [left, width-right) out of
// a row-major plane. Bounds are explicit: a zero pad amount maps to the full
// extent rather than a negative-zero stop.
func cropRect[T any](src []T, height, width, stride, top, bottom, left, right int) ([]T, int, int, error) {
	endRow := height - bottom
	endCol := width - right
	if top < 0 || bottom < 0 || left < 0 || right < 0 || endRow <= top || endCol <= left {
		return nil, 0, 0, errors.Errorf("raster: crop (top=%d bottom=%d left=%d right=%d) leaves nothing of a %dx%d raster", top, bottom, left, right, height, width)
	}
	outH := endRow - top
	outW := endCol - left
	dst := make([]T, outH*outW*stride)
	for r := 0; r < outH; r++ {
		srcOff := ((top+r)*width + left) * stride
		copy(dst[r*outW*stride:(r+1)*outW*stride], src[srcOff:srcOff+outW*stride])
	}
	return dst, outH, outW, nil
}

// PadReflect returns a copy grown by edge-reflection so that content near the
// original borders is a statistically continuous extension rather than a
// mirror of background.
func (l *Labels) PadReflect(top, bottom, left, right int) *Labels {
	height, width := l.Dims()
	dst := padReflect2D(l.Pix(), height, width, 1, top, bottom, left, right)
	out, _ := LabelsFromSlice(height+top+bottom, width+left+right, dst)
	return out
}

// Crop removes the given pad amounts, returning the raster to its pre-pad
// extent.
func (l *Labels) Crop(top, bottom, left, right int) (*Labels, error) {
	height, width := l.Dims()
	dst, outH, outW, err := cropRect(l.Pix(), height, width, 1, top, bottom, left, right)
	if err != nil {
		return nil, err
	}
	return LabelsFromSlice(outH, outW, dst)
}

// PadReflect returns a copy grown by edge-reflection.
func (c *Continuous) PadReflect(top, bottom, left, right int) *Continuous {
	height, width := c.Dims()
	dst := padReflect2D(c.Pix(), height, width, 1, top, bottom, left, right)
	out, _ := ContinuousFromSlice(height+top+bottom, width+left+right, dst)
	return out
}

// Crop removes the given pad amounts.
func (c *Continuous) Crop(top, bottom, left, right int) (*Continuous, error) {
	height, width := c.Dims()
	dst, outH, outW, err := cropRect(c.Pix(), height, width, 1, top, bottom, left, right)
	if err != nil {
		return nil, err
	}
	return ContinuousFromSlice(outH, outW, dst)
}

// PadReflect returns a copy grown by edge-reflection on the spatial axes.
// The channel axis is untouched.
func (c *Channels) PadReflect(top, bottom, left, right int) *Channels {
	height, width, channels := c.Dims()
	dst := padReflect2D(c.Pix(), height, width, channels, top, bottom, left, right)
	out, _ := ChannelsFromSlice(height+top+bottom, width+left+right, channels, dst)
	return out
}

// Crop removes the given pad amounts from the spatial axes.
func (c *Channels) Crop(top, bottom, left, right int) (*Channels, error) {
	height, width, channels := c.Dims()
	dst, outH, outW, err := cropRect(c.Pix(), height, width, channels, top, bottom, left, right)
	if err != nil {
		return nil, err
	}
	return ChannelsFromSlice(outH, outW, channels, dst)
}
