package mosaic

import (
	"github.com/pkg/errors"

	"github.com/iddryg/seg-flow/raster"
	"github.com/iddryg/seg-flow/tiling"
)

// Recombine arbitrates the confidence tiles into a single whole-mosaic label
// raster.
//
// Every mosaic pixel starts unclaimed (label 0, score 0). Tiles are walked
// strictly in tile order; within a tile's region a pixel is overwritten only
// where the tile's per-pixel score strictly exceeds the score already on the
// mosaic AND the tile pixel is non-background. The strict comparison is the
// tie-break contract: on an exact score tie the earlier tile keeps its
// claim, so recombination is deterministic given tile order, weights and
// thresholds.
//
// The tile's per-pixel score raster is the instance's coverage score
// broadcast onto its pixels; pixels of unscored instances stay at 0 and can
// never claim anything.
//
// Returns the final mosaic (same shape as the padded image) and diagnostic
// Stats. The mosaic is complete when Recombine returns and must not be
// mutated afterwards.
func Recombine(tiles []*raster.Labels, scores []map[int32]float32, positions []tiling.Position, paddedHeight, paddedWidth int) (*raster.Labels, Stats, error) {
	var stats Stats
	if len(tiles) != len(positions) {
		return nil, stats, errors.Errorf("mosaic: %d tiles with %d positions", len(tiles), len(positions))
	}
	if len(tiles) != len(scores) {
		return nil, stats, errors.Errorf("mosaic: %d tiles with %d score maps", len(tiles), len(scores))
	}

	mosaic := raster.NewLabels(paddedHeight, paddedWidth)
	labels := mosaic.Pix()
	mosaicScores := make([]float32, paddedHeight*paddedWidth)

	distinct := make(map[int32]struct{})
	for i, tile := range tiles {
		height, width := tile.Dims()
		p := positions[i]
		if p.Row < 0 || p.Col < 0 || p.Row+height > paddedHeight || p.Col+width > paddedWidth {
			return nil, stats, errors.Errorf("mosaic: tile %d at (%d,%d) exceeds padded extent %dx%d", i, p.Row, p.Col, paddedHeight, paddedWidth)
		}
		src := tile.Pix()
		tileScores := scores[i]
		for r := 0; r < height; r++ {
			dstOff := (p.Row+r)*paddedWidth + p.Col
			srcOff := r * width
			for c := 0; c < width; c++ {
				id := src[srcOff+c]
				if id == 0 {
					continue
				}
				distinct[id] = struct{}{}
				score := tileScores[id]
				if score <= mosaicScores[dstOff+c] {
					continue
				}
				if labels[dstOff+c] != 0 {
					stats.PixelsOverwritten++
				}
				labels[dstOff+c] = id
				mosaicScores[dstOff+c] = score
			}
		}
	}
	stats.CellsBefore = len(distinct)
	stats.CellsAfter = len(mosaic.Unique())
	return mosaic, stats, nil
}
