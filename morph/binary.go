package morph

import (
	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"github.com/iddryg/seg-flow/raster"
)

// BinaryMask is a foreground/background mask with values restricted to
// {0,1}. The restriction is checked once, at construction.
type BinaryMask struct {
	labels   *raster.Labels
	strategy Strategy
}

// NewBinaryMask wraps src as a binary mask. Any value outside {0,1} is an
// error; use Binarize to threshold an arbitrary label raster instead. The
// raster is copied.
func NewBinaryMask(src *raster.Labels, strategy Strategy) (*BinaryMask, error) {
	for i, v := range src.Pix() {
		if v != 0 && v != 1 {
			return nil, errors.Errorf("morph: value %d at offset %d, binary masks hold only 0 and 1", v, i)
		}
	}
	return &BinaryMask{labels: src.Clone(), strategy: strategy}, nil
}

// Binarize builds a binary mask from any label raster: every non-background
// pixel becomes foreground.
func Binarize(src *raster.Labels, strategy Strategy) *BinaryMask {
	out := src.Clone()
	pix := out.Pix()
	for i, v := range pix {
		if v != 0 {
			pix[i] = 1
		}
	}
	return &BinaryMask{labels: out, strategy: strategy}
}

// Labels returns a copy of the mask's raster.
func (m *BinaryMask) Labels() *raster.Labels {
	return m.labels.Clone()
}

// Strategy returns the implementation the mask's operations use.
func (m *BinaryMask) Strategy() Strategy {
	return m.strategy
}

// Dilate grows the foreground by radius pixels.
func (m *BinaryMask) Dilate(radius int) (Mask, error) {
	return m.apply(radius, gocv.MorphDilate)
}

// Erode shrinks the foreground by radius pixels.
func (m *BinaryMask) Erode(radius int) (Mask, error) {
	return m.apply(radius, gocv.MorphErode)
}

// Close fills foreground gaps narrower than the kernel: a dilation followed
// by an erosion with the same element.
func (m *BinaryMask) Close(radius int) (Mask, error) {
	return m.apply(radius, gocv.MorphClose)
}

// Crop removes the given amounts from the mask borders.
func (m *BinaryMask) Crop(top, bottom, left, right int) (Mask, error) {
	cropped, err := m.labels.Crop(top, bottom, left, right)
	if err != nil {
		return nil, err
	}
	return &BinaryMask{labels: cropped, strategy: m.strategy}, nil
}

func (m *BinaryMask) apply(radius int, op gocv.MorphType) (Mask, error) {
	if err := validRadius(radius); err != nil {
		return nil, err
	}
	height, width := m.labels.Dims()
	var (
		out []int32
		err error
	)
	switch m.strategy {
	case StrategyOpenCV:
		out, err = opencvOp(m.labels.Pix(), height, width, radius, op)
		if err != nil {
			return nil, err
		}
	case StrategyFilter:
		switch op {
		case gocv.MorphDilate:
			out = maxFilter(m.labels.Pix(), height, width, radius)
		case gocv.MorphErode:
			out = minFilter(m.labels.Pix(), height, width, radius)
		case gocv.MorphClose:
			out = minFilter(maxFilter(m.labels.Pix(), height, width, radius), height, width, radius)
		}
	default:
		return nil, errors.Errorf("morph: unknown strategy %d", m.strategy)
	}
	labels, err := raster.LabelsFromSlice(height, width, out)
	if err != nil {
		return nil, err
	}
	return &BinaryMask{labels: labels, strategy: m.strategy}, nil
}
