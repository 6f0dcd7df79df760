package mosaic

import (
	"github.com/chewxy/math32"
	"github.com/pkg/errors"

	"github.com/iddryg/seg-flow/raster"
	"github.com/iddryg/seg-flow/tiling"
)

// HannWindow returns the n-point raised-cosine window normalized so its peak
// is exactly 1.0. An n of 1 degenerates to a single unit weight.
func HannWindow(n int) []float32 {
	window := make([]float32, n)
	if n == 1 {
		window[0] = 1
		return window
	}
	peak := float32(0)
	for i := range window {
		window[i] = 0.5 - 0.5*math32.Cos(2*math32.Pi*float32(i)/float32(n-1))
		if window[i] > peak {
			peak = window[i]
		}
	}
	for i := range window {
		window[i] /= peak
	}
	return window
}

// BlendContinuous merges overlapping continuous (non-label) tiles by
// weighted averaging instead of label arbitration. Each tile is multiplied
// by a separable 2D Hann window before accumulation, which smooths the seams
// between tiles; the final raster is the accumulator divided by the summed
// weights. Weight cells that never received a contribution are set to 1
// before dividing, leaving the corresponding output at 0.
func BlendContinuous(tiles []*raster.Continuous, positions []tiling.Position, tileSize, paddedHeight, paddedWidth int) (*raster.Continuous, error) {
	if len(tiles) != len(positions) {
		return nil, errors.Errorf("mosaic: %d tiles with %d positions", len(tiles), len(positions))
	}
	window := HannWindow(tileSize)

	out := raster.NewContinuous(paddedHeight, paddedWidth)
	accum := out.Pix()
	weights := make([]float32, paddedHeight*paddedWidth)

	for i, tile := range tiles {
		height, width := tile.Dims()
		if height != tileSize || width != tileSize {
			return nil, errors.Errorf("mosaic: tile %d is %dx%d, want %dx%d", i, height, width, tileSize, tileSize)
		}
		p := positions[i]
		if p.Row < 0 || p.Col < 0 || p.Row+tileSize > paddedHeight || p.Col+tileSize > paddedWidth {
			return nil, errors.Errorf("mosaic: tile %d at (%d,%d) exceeds padded extent %dx%d", i, p.Row, p.Col, paddedHeight, paddedWidth)
		}
		src := tile.Pix()
		for r := 0; r < tileSize; r++ {
			dstOff := (p.Row+r)*paddedWidth + p.Col
			srcOff := r * tileSize
			for c := 0; c < tileSize; c++ {
				w := window[r] * window[c]
				accum[dstOff+c] += src[srcOff+c] * w
				weights[dstOff+c] += w
			}
		}
	}

	for i := range accum {
		if weights[i] == 0 {
			weights[i] = 1
		}
		accum[i] /= weights[i]
	}
	return out, nil
}
