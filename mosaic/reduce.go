package mosaic

import (
	"github.com/pkg/errors"

	"github.com/iddryg/seg-flow/raster"
)

// ConfidenceMarginDivisor sets the trusted-region margin to
// tileSize/ConfidenceMarginDivisor on every side. One eighth (a 64-pixel
// margin on a 512-pixel tile) is a tunable constant, not a derived
// invariant.
const ConfidenceMarginDivisor = 8

// ReduceConfidence restricts every tile to the instances it is trusted to
// contribute and relabels survivors with ids unique across the whole tile
// set.
//
// Predictions near a tile border are the least reliable because instances
// get truncated by the tile boundary, so only instances touching the central
// region ([margin, tileSize-margin) on both axes) are kept. A discarded
// instance loses all of its pixels, including those inside the center.
// Survivors are offset by the running maximum id so far; the running id is
// threaded through as an explicit accumulator and never decreases, even for
// tiles that keep nothing.
//
// Arguments:
//   - tiles: the predicted label tiles, in tile order.
//   - tileSize: the side length every tile must have.
//   - nextID: the running maximum id from any previously reduced tiles
//     (0 for a fresh run).
//
// Returns:
//   - one confidence tile per input tile, ids globally unique.
//   - the updated running maximum id.
//   - an error if a tile's shape does not match tileSize.
func ReduceConfidence(tiles []*raster.Labels, tileSize int, nextID int32) ([]*raster.Labels, int32, error) {
	margin := tileSize / ConfidenceMarginDivisor
	reduced := make([]*raster.Labels, len(tiles))
	maxLabel := nextID

	for i, tile := range tiles {
		height, width := tile.Dims()
		if height != tileSize || width != tileSize {
			return nil, 0, errors.Errorf("mosaic: tile %d is %dx%d, want %dx%d", i, height, width, tileSize, tileSize)
		}

		// Instances present anywhere in the trusted center.
		keep := make(map[int32]struct{})
		src := tile.Pix()
		for r := margin; r < tileSize-margin; r++ {
			for c := margin; c < tileSize-margin; c++ {
				if v := src[r*tileSize+c]; v != 0 {
					keep[v] = struct{}{}
				}
			}
		}

		out := raster.NewLabels(tileSize, tileSize)
		dst := out.Pix()
		tileMax := maxLabel
		for j, v := range src {
			if v == 0 {
				continue
			}
			if _, ok := keep[v]; !ok {
				continue
			}
			adjusted := v + maxLabel
			dst[j] = adjusted
			if adjusted > tileMax {
				tileMax = adjusted
			}
		}
		maxLabel = tileMax
		reduced[i] = out
	}
	return reduced, maxLabel, nil
}
