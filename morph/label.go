package morph

import (
	"github.com/iddryg/seg-flow/raster"
)

// LabelMask is an instance-label mask. Operations preserve instance
// identity: dilation grows each label into background only and never lets
// two instances merge, erosion shrinks each instance independently.
type LabelMask struct {
	labels   *raster.Labels
	strategy Strategy
}

// NewLabelMask wraps src as a label mask. The raster is copied.
func NewLabelMask(src *raster.Labels, strategy Strategy) *LabelMask {
	return &LabelMask{labels: src.Clone(), strategy: strategy}
}

// Labels returns a copy of the mask's raster.
func (m *LabelMask) Labels() *raster.Labels {
	return m.labels.Clone()
}

// Strategy returns the implementation used for per-label erosion.
func (m *LabelMask) Strategy() Strategy {
	return m.strategy
}

// Dilate grows every label into background by up to radius pixels of BFS
// distance. A background pixel is claimed by its nearest label (first BFS
// wave to reach it); labeled pixels are never overwritten, so adjacent
// instances stay distinct.
func (m *LabelMask) Dilate(radius int) (Mask, error) {
	if err := validRadius(radius); err != nil {
		return nil, err
	}
	height, width := m.labels.Dims()
	out := m.labels.Clone()
	pix := out.Pix()

	frontier := make([]int, 0, len(pix)/8)
	for i, v := range pix {
		if v != 0 {
			frontier = append(frontier, i)
		}
	}

	for step := 0; step < radius && len(frontier) > 0; step++ {
		next := frontier[:0:0]
		for _, i := range frontier {
			r, c := i/width, i%width
			id := pix[i]
			if c > 0 && pix[i-1] == 0 {
				pix[i-1] = id
				next = append(next, i-1)
			}
			if c < width-1 && pix[i+1] == 0 {
				pix[i+1] = id
				next = append(next, i+1)
			}
			if r > 0 && pix[i-width] == 0 {
				pix[i-width] = id
				next = append(next, i-width)
			}
			if r < height-1 && pix[i+width] == 0 {
				pix[i+width] = id
				next = append(next, i+width)
			}
		}
		frontier = next
	}
	return &LabelMask{labels: out, strategy: m.strategy}, nil
}

// Erode shrinks every instance independently: each label is lifted into its
// own binary mask, eroded with the mask's strategy, and written back. Since
// erosion only removes pixels, the eroded instances cannot collide.
func (m *LabelMask) Erode(radius int) (Mask, error) {
	if err := validRadius(radius); err != nil {
		return nil, err
	}
	height, width := m.labels.Dims()
	src := m.labels.Pix()
	out := raster.NewLabels(height, width)
	dst := out.Pix()

	for _, id := range m.labels.Unique() {
		plane := make([]int32, len(src))
		for i, v := range src {
			if v == id {
				plane[i] = 1
			}
		}
		single, err := raster.LabelsFromSlice(height, width, plane)
		if err != nil {
			return nil, err
		}
		eroded, err := (&BinaryMask{labels: single, strategy: m.strategy}).Erode(radius)
		if err != nil {
			return nil, err
		}
		for i, v := range eroded.Labels().Pix() {
			if v != 0 {
				dst[i] = id
			}
		}
	}
	return &LabelMask{labels: out, strategy: m.strategy}, nil
}

// Close always fails with ErrLabelClose.
func (m *LabelMask) Close(radius int) (Mask, error) {
	return nil, ErrLabelClose
}

// Crop removes the given amounts from the mask borders.
func (m *LabelMask) Crop(top, bottom, left, right int) (Mask, error) {
	cropped, err := m.labels.Crop(top, bottom, left, right)
	if err != nil {
		return nil, err
	}
	return &LabelMask{labels: cropped, strategy: m.strategy}, nil
}
