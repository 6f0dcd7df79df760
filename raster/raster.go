// Package raster - tensor-backed rasters for whole-slide segmentation pipelines.
//
// Three raster kinds cover the pipeline's data model: Labels holds integer
// instance masks (0 is background), Continuous holds a single float32 plane
// (intensity, probability, density), and Channels holds a float32 plane with
// a trailing channel axis for the multi-channel source image. All three are
// dense row-major tensors.
package raster

import (
	"sort"

	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// Labels is a 2D instance-label raster. Zero is background, positive values
// are instance ids. Ids are tile-local until confidence reduction makes them
// unique across a tile set.
type Labels struct {
	dense *tensor.Dense
}

// NewLabels allocates a zeroed label raster of the given size.
func NewLabels(height, width int) *Labels {
	backing := make([]int32, height*width)
	return &Labels{dense: tensor.New(tensor.WithShape(height, width), tensor.WithBacking(backing))}
}

// LabelsFromSlice wraps a row-major int32 slice as a label raster. The slice
// is used directly, not copied.
func LabelsFromSlice(height, width int, values []int32) (*Labels, error) {
	if len(values) != height*width {
		return nil, errors.Errorf("raster: %d values cannot fill a %dx%d label raster", len(values), height, width)
	}
	return &Labels{dense: tensor.New(tensor.WithShape(height, width), tensor.WithBacking(values))}, nil
}

// Dims returns the raster height and width.
func (l *Labels) Dims() (height, width int) {
	shape := l.dense.Shape()
	return shape[0], shape[1]
}

// Pix returns the row-major backing slice. Mutating it mutates the raster.
func (l *Labels) Pix() []int32 {
	return l.dense.Data().([]int32)
}

// Dense returns the underlying tensor.
func (l *Labels) Dense() *tensor.Dense {
	return l.dense
}

// At returns the label at (row, col).
func (l *Labels) At(row, col int) int32 {
	_, width := l.Dims()
	return l.Pix()[row*width+col]
}

// Set writes the label at (row, col).
func (l *Labels) Set(row, col int, value int32) {
	_, width := l.Dims()
	l.Pix()[row*width+col] = value
}

// Clone returns a deep copy.
func (l *Labels) Clone() *Labels {
	return &Labels{dense: l.dense.Clone().(*tensor.Dense)}
}

// Unique returns the sorted set of non-background ids present in the raster.
func (l *Labels) Unique() []int32 {
	seen := make(map[int32]struct{})
	for _, v := range l.Pix() {
		if v != 0 {
			seen[v] = struct{}{}
		}
	}
	ids := make([]int32, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Contains reports whether the id claims at least one pixel. Callers use this
// to audit an instance set before acting on it; a missing id is a detectable
// condition, not an error.
func (l *Labels) Contains(id int32) bool {
	for _, v := range l.Pix() {
		if v == id {
			return true
		}
	}
	return false
}

// PixelCount returns the number of pixels claimed by id.
func (l *Labels) PixelCount(id int32) int {
	n := 0
	for _, v := range l.Pix() {
		if v == id {
			n++
		}
	}
	return n
}

// MaxLabel returns the largest id in the raster, 0 when empty.
func (l *Labels) MaxLabel() int32 {
	var m int32
	for _, v := range l.Pix() {
		if v > m {
			m = v
		}
	}
	return m
}

// Continuous is a 2D float32 raster for non-label planes.
type Continuous struct {
	dense *tensor.Dense
}

// NewContinuous allocates a zeroed continuous raster of the given size.
func NewContinuous(height, width int) *Continuous {
	backing := make([]float32, height*width)
	return &Continuous{dense: tensor.New(tensor.WithShape(height, width), tensor.WithBacking(backing))}
}

// ContinuousFromSlice wraps a row-major float32 slice as a continuous raster.
// The slice is used directly, not copied.
func ContinuousFromSlice(height, width int, values []float32) (*Continuous, error) {
	if len(values) != height*width {
		return nil, errors.Errorf("raster: %d values cannot fill a %dx%d continuous raster", len(values), height, width)
	}
	return &Continuous{dense: tensor.New(tensor.WithShape(height, width), tensor.WithBacking(values))}, nil
}

// Dims returns the raster height and width.
func (c *Continuous) Dims() (height, width int) {
	shape := c.dense.Shape()
	return shape[0], shape[1]
}

// Pix returns the row-major backing slice. Mutating it mutates the raster.
func (c *Continuous) Pix() []float32 {
	return c.dense.Data().([]float32)
}

// Dense returns the underlying tensor.
func (c *Continuous) Dense() *tensor.Dense {
	return c.dense
}

// At returns the value at (row, col).
func (c *Continuous) At(row, col int) float32 {
	_, width := c.Dims()
	return c.Pix()[row*width+col]
}

// Set writes the value at (row, col).
func (c *Continuous) Set(row, col int, value float32) {
	_, width := c.Dims()
	c.Pix()[row*width+col] = value
}

// Clone returns a deep copy.
func (c *Continuous) Clone() *Continuous {
	return &Continuous{dense: c.dense.Clone().(*tensor.Dense)}
}

// Channels is a float32 raster with a trailing channel axis, shape
// (height, width, channels). Only the continuous source image carries a
// channel axis; label masks never do.
type Channels struct {
	dense *tensor.Dense
}

// NewChannels allocates a zeroed multi-channel raster.
func NewChannels(height, width, channels int) *Channels {
	backing := make([]float32, height*width*channels)
	return &Channels{dense: tensor.New(tensor.WithShape(height, width, channels), tensor.WithBacking(backing))}
}

// ChannelsFromSlice wraps a row-major (height, width, channel) float32 slice.
// The slice is used directly, not copied.
func ChannelsFromSlice(height, width, channels int, values []float32) (*Channels, error) {
	if len(values) != height*width*channels {
		return nil, errors.Errorf("raster: %d values cannot fill a %dx%dx%d raster", len(values), height, width, channels)
	}
	return &Channels{dense: tensor.New(tensor.WithShape(height, width, channels), tensor.WithBacking(values))}, nil
}

// StackChannels interleaves same-shape continuous planes into one
// multi-channel raster, in argument order.
func StackChannels(planes ...*Continuous) (*Channels, error) {
	if len(planes) == 0 {
		return nil, errors.New("raster: no planes to stack")
	}
	height, width := planes[0].Dims()
	for i, p := range planes[1:] {
		h, w := p.Dims()
		if h != height || w != width {
			return nil, errors.Errorf("raster: plane %d is %dx%d, want %dx%d", i+1, h, w, height, width)
		}
	}
	n := len(planes)
	out := make([]float32, height*width*n)
	for ch, p := range planes {
		pix := p.Pix()
		for i, v := range pix {
			out[i*n+ch] = v
		}
	}
	return ChannelsFromSlice(height, width, n, out)
}

// Dims returns height, width and channel count.
func (c *Channels) Dims() (height, width, channels int) {
	shape := c.dense.Shape()
	return shape[0], shape[1], shape[2]
}

// Pix returns the row-major (height, width, channel) backing slice.
func (c *Channels) Pix() []float32 {
	return c.dense.Data().([]float32)
}

// Dense returns the underlying tensor.
func (c *Channels) Dense() *tensor.Dense {
	return c.dense
}

// At returns the value at (row, col, channel).
func (c *Channels) At(row, col, channel int) float32 {
	_, width, channels := c.Dims()
	return c.Pix()[(row*width+col)*channels+channel]
}

// Set writes the value at (row, col, channel).
func (c *Channels) Set(row, col, channel int, value float32) {
	_, width, channels := c.Dims()
	c.Pix()[(row*width+col)*channels+channel] = value
}

// Clone returns a deep copy.
func (c *Channels) Clone() *Channels {
	return &Channels{dense: c.dense.Clone().(*tensor.Dense)}
}

// Channel extracts one plane as a continuous raster. The plane is copied.
func (c *Channels) Channel(index int) (*Continuous, error) {
	height, width, channels := c.Dims()
	if index < 0 || index >= channels {
		return nil, errors.Errorf("raster: channel %d out of range [0,%d)", index, channels)
	}
	pix := c.Pix()
	out := make([]float32, height*width)
	for i := range out {
		out[i] = pix[i*channels+index]
	}
	return ContinuousFromSlice(height, width, out)
}
