package mosaic

import (
	"github.com/pkg/errors"

	"github.com/iddryg/seg-flow/raster"
	"github.com/iddryg/seg-flow/tiling"
)

// OverlapDensity builds the whole-mosaic density map: per pixel, the number
// of confidence tiles that contributed a non-background label there. A pixel
// claimed by exactly one tile holds 1; a pixel claimed by none stays 0, so
// the set of pixels >= 1 equals the union of all confidence-tile footprints.
//
// Counting is a plain per-pixel increment from a zero baseline, which is
// commutative: tile order does not affect the result.
func OverlapDensity(tiles []*raster.Labels, positions []tiling.Position, paddedHeight, paddedWidth int) (*raster.Labels, error) {
	if len(tiles) != len(positions) {
		return nil, errors.Errorf("mosaic: %d tiles with %d positions", len(tiles), len(positions))
	}
	density := raster.NewLabels(paddedHeight, paddedWidth)
	counts := density.Pix()
	for i, tile := range tiles {
		height, width := tile.Dims()
		p := positions[i]
		if p.Row < 0 || p.Col < 0 || p.Row+height > paddedHeight || p.Col+width > paddedWidth {
			return nil, errors.Errorf("mosaic: tile %d at (%d,%d) exceeds padded extent %dx%d", i, p.Row, p.Col, paddedHeight, paddedWidth)
		}
		src := tile.Pix()
		for r := 0; r < height; r++ {
			dstOff := (p.Row+r)*paddedWidth + p.Col
			srcOff := r * width
			for c := 0; c < width; c++ {
				if src[srcOff+c] != 0 {
					counts[dstOff+c]++
				}
			}
		}
	}
	return density, nil
}
