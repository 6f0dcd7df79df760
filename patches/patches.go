// Package patches - per-cell patch extraction and cleanup.
//
// A patch is a fixed-size window of the whole-image label raster centered on
// one instance's centroid. Patches carry their anchor instance, its measured
// properties and their position in the source image, so cleanup passes can
// act per cell and the cleaned patches can be pasted back into a full mask.
package patches

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/iddryg/seg-flow/raster"
	"github.com/iddryg/seg-flow/regions"
	"github.com/iddryg/seg-flow/tiling"
)

// EdgeFlags records which image borders forced a patch's window to shift
// away from its centroid.
type EdgeFlags struct {
	Top, Bottom, Left, Right bool
}

// Patch is one instance-centered window of the label raster.
type Patch struct {
	// Label is the instance the patch is centered on.
	Label int32
	// Data is the bboxHeight x bboxWidth label window. It may contain
	// neighboring instances.
	Data *raster.Labels
	// Position is the window's top-left corner in the source image.
	Position tiling.Position
	// Props carries the anchor instance's measurements.
	Props regions.Props
	// Edge flags the borders that clamped the window.
	Edge EdgeFlags
}

// Set is an ordered collection of patches cut from one label raster.
type Set struct {
	patches     []Patch
	imageHeight int
	imageWidth  int
	boxHeight   int
	boxWidth    int
}

// Len returns the number of patches.
func (s *Set) Len() int { return len(s.patches) }

// Patch returns the i-th patch.
func (s *Set) Patch(i int) Patch { return s.patches[i] }

// Labels returns the anchor label of every patch, in patch order.
func (s *Set) Labels() []int32 {
	out := make([]int32, len(s.patches))
	for i, p := range s.patches {
		out[i] = p.Label
	}
	return out
}

// FromLabels cuts one patch per measured instance, centered on its centroid.
//
// Windows that would leave the image are shifted inward until they fit, and
// the borders responsible are flagged in the patch's Edge. The window size
// must not exceed the image.
//
// Arguments:
//   - labels: the whole-image instance raster.
//   - table: measurements from regions.Compute over the same raster.
//   - boxHeight, boxWidth: the fixed patch window size.
//
// Returns the patch set, in ascending instance-id order.
func FromLabels(labels *raster.Labels, table regions.Table, boxHeight, boxWidth int) (*Set, error) {
	height, width := labels.Dims()
	if boxHeight < 1 || boxWidth < 1 {
		return nil, errors.Errorf("patches: window %dx%d, want at least 1x1", boxHeight, boxWidth)
	}
	if boxHeight > height || boxWidth > width {
		return nil, errors.Errorf("patches: window %dx%d exceeds image %dx%d", boxHeight, boxWidth, height, width)
	}

	set := &Set{
		imageHeight: height,
		imageWidth:  width,
		boxHeight:   boxHeight,
		boxWidth:    boxWidth,
	}
	for _, id := range table.IDs() {
		props, _ := table.Get(id)
		rowMin := int(props.Centroid.Row) - boxHeight/2
		colMin := int(props.Centroid.Col) - boxWidth/2

		var edge EdgeFlags
		if rowMin < 0 {
			edge.Top = true
			rowMin = 0
		}
		if rowMin+boxHeight > height {
			edge.Bottom = true
			rowMin = height - boxHeight
		}
		if colMin < 0 {
			edge.Left = true
			colMin = 0
		}
		if colMin+boxWidth > width {
			edge.Right = true
			colMin = width - boxWidth
		}

		window, err := labels.Crop(rowMin, height-rowMin-boxHeight, colMin, width-colMin-boxWidth)
		if err != nil {
			return nil, errors.Wrapf(err, "patches: cutting window for instance %d", id)
		}
		set.patches = append(set.patches, Patch{
			Label:    id,
			Data:     window,
			Position: tiling.Position{Row: rowMin, Col: colMin},
			Props:    props,
			Edge:     edge,
		})
	}
	return set, nil
}

// Combine pastes every patch back into a zeroed image-shaped raster. Patch
// background is transparent: only non-zero pixels are written, later patches
// overwriting earlier ones where cells overlap.
func (s *Set) Combine() (*raster.Labels, error) {
	out := raster.NewLabels(s.imageHeight, s.imageWidth)
	dst := out.Pix()
	for i, p := range s.patches {
		height, width := p.Data.Dims()
		if p.Position.Row+height > s.imageHeight || p.Position.Col+width > s.imageWidth {
			return nil, errors.Errorf("patches: patch %d at (%d,%d) exceeds image %dx%d", i, p.Position.Row, p.Position.Col, s.imageHeight, s.imageWidth)
		}
		src := p.Data.Pix()
		for r := 0; r < height; r++ {
			dstOff := (p.Position.Row+r)*s.imageWidth + p.Position.Col
			for c := 0; c < width; c++ {
				if v := src[r*width+c]; v != 0 {
					dst[dstOff+c] = v
				}
			}
		}
	}
	return out, nil
}

// clone copies the set with fresh patch rasters, keeping metadata.
func (s *Set) clone() *Set {
	out := &Set{
		patches:     make([]Patch, len(s.patches)),
		imageHeight: s.imageHeight,
		imageWidth:  s.imageWidth,
		boxHeight:   s.boxHeight,
		boxWidth:    s.boxWidth,
	}
	for i, p := range s.patches {
		p.Data = p.Data.Clone()
		out.patches[i] = p
	}
	return out
}

func sortedIDs(seen map[int32]struct{}) []int32 {
	out := make([]int32, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
