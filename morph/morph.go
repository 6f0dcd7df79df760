// Package morph - morphological operations over segmentation masks.
//
// Masks come in two variants resolved at construction time: BinaryMask holds
// foreground/background values {0,1}, LabelMask holds instance ids. The two
// obey different rules under the same operations (binary dilation grows the
// foreground; label dilation grows each instance without merging neighbors),
// so the variant is part of the type, never inferred from pixel values at
// call time.
//
// Binary primitives have one implementation per Strategy: StrategyOpenCV
// applies an elliptical structuring element through OpenCV, StrategyFilter
// is a pure-Go separable square min/max filter. The two agree on interior
// pixels up to the kernel shape (ellipse vs square).
//
// Every operation returns a new mask; masks are immutable after
// construction.
package morph

import (
	"github.com/pkg/errors"

	"github.com/iddryg/seg-flow/raster"
)

// Strategy selects the implementation of the binary primitives.
type Strategy int

const (
	// StrategyFilter is the pure-Go separable square min/max filter.
	StrategyFilter Strategy = iota
	// StrategyOpenCV applies an elliptical structuring element via OpenCV.
	StrategyOpenCV
)

// ErrLabelClose is returned by LabelMask.Close: closing is a
// dilate-then-erode round trip, and the non-merging rule of label dilation
// makes its inverse ill-defined per instance.
var ErrLabelClose = errors.New("morph: closing is not defined for label masks")

// Mask is a segmentation mask under morphological operations. The radius is
// in pixels: a square window of side 2*radius+1 for StrategyFilter, an
// elliptical kernel of the same side for StrategyOpenCV, and BFS growth
// distance for label dilation.
type Mask interface {
	Dilate(radius int) (Mask, error)
	Erode(radius int) (Mask, error)
	Close(radius int) (Mask, error)
	Crop(top, bottom, left, right int) (Mask, error)
	Labels() *raster.Labels
}

func validRadius(radius int) error {
	if radius < 1 {
		return errors.Errorf("morph: radius %d, want >= 1", radius)
	}
	return nil
}
