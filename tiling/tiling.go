// Package tiling - overlapping tile geometry for whole-slide rasters.
//
// A Grid slides a square window of side TileSize across a padded raster with
// step Stride. Padding is computed so the window reaches exactly to the
// padded edge with no leftover pixels and no out-of-bounds tile, for any
// combination of image size, tile size and stride.
package tiling

import (
	"github.com/pkg/errors"

	"github.com/iddryg/seg-flow/raster"
)

// Position is the top-left (row, col) offset of a tile inside the padded
// raster. Tile order is row-major over positions and is semantically
// meaningful: on exact score ties the recombiner keeps the earlier tile.
type Position struct {
	Row int
	Col int
}

// Padding holds the per-side pad amounts applied before extraction. They are
// recorded so the stitched output can be cropped back to the original extent.
type Padding struct {
	Top    int
	Bottom int
	Left   int
	Right  int
}

// Grid defines the tile geometry.
type Grid struct {
	// TileSize is the side length of every extracted square tile.
	TileSize int
	// Stride is the step between consecutive tile origins.
	Stride int
}

// Validate reports a degenerate geometry before it can produce an empty or
// non-covering tile set.
func (g Grid) Validate() error {
	if g.TileSize <= 0 {
		return errors.Errorf("tiling: tile size %d must be positive", g.TileSize)
	}
	if g.Stride <= 0 {
		return errors.Errorf("tiling: stride %d must be positive", g.Stride)
	}
	if g.Stride > g.TileSize {
		return errors.Errorf("tiling: stride %d larger than tile size %d leaves coverage gaps", g.Stride, g.TileSize)
	}
	return nil
}

// PadAmounts computes the symmetric padding that makes an height x width
// raster exactly tileable by the grid.
//
// For each spatial dimension of size S the total pad is
//
//	tileSize + ((tileSize - (S - tileSize) mod stride) mod stride)
//
// which guarantees (padded - tileSize) % stride == 0 and padded >= tileSize.
// The total is split roughly in half with the remainder going to the
// bottom/right.
func (g Grid) PadAmounts(height, width int) Padding {
	padH := g.padTotal(height)
	padW := g.padTotal(width)
	return Padding{
		Top:    padH / 2,
		Bottom: padH - padH/2,
		Left:   padW / 2,
		Right:  padW - padW/2,
	}
}

func (g Grid) padTotal(size int) int {
	return g.TileSize + mod(g.TileSize-mod(size-g.TileSize, g.Stride), g.Stride)
}

// mod is the non-negative remainder, matching Python's % on negative
// operands (size - tileSize may be negative for small images).
func mod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

// Positions enumerates tile origins in row-major order over a padded extent.
// Origins step by Stride while origin+TileSize stays inside the extent; the
// padded-extent invariant makes the final tile flush against the far edge.
// No positions are produced when TileSize exceeds a padded dimension.
func (g Grid) Positions(paddedHeight, paddedWidth int) []Position {
	var positions []Position
	for row := 0; row+g.TileSize <= paddedHeight; row += g.Stride {
		for col := 0; col+g.TileSize <= paddedWidth; col += g.Stride {
			positions = append(positions, Position{Row: row, Col: col})
		}
	}
	return positions
}

// ExtractLabels cuts the grid's tiles out of a padded label raster.
//
// Returns the tiles and their positions in matching row-major order.
func ExtractLabels(src *raster.Labels, g Grid) ([]*raster.Labels, []Position) {
	height, width := src.Dims()
	positions := g.Positions(height, width)
	pix := src.Pix()
	tiles := make([]*raster.Labels, len(positions))
	for i, p := range positions {
		out := make([]int32, g.TileSize*g.TileSize)
		for r := 0; r < g.TileSize; r++ {
			srcOff := (p.Row+r)*width + p.Col
			copy(out[r*g.TileSize:(r+1)*g.TileSize], pix[srcOff:srcOff+g.TileSize])
		}
		tiles[i], _ = raster.LabelsFromSlice(g.TileSize, g.TileSize, out)
	}
	return tiles, positions
}

// ExtractContinuous cuts the grid's tiles out of a padded continuous raster.
func ExtractContinuous(src *raster.Continuous, g Grid) ([]*raster.Continuous, []Position) {
	height, width := src.Dims()
	positions := g.Positions(height, width)
	pix := src.Pix()
	tiles := make([]*raster.Continuous, len(positions))
	for i, p := range positions {
		out := make([]float32, g.TileSize*g.TileSize)
		for r := 0; r < g.TileSize; r++ {
			srcOff := (p.Row+r)*width + p.Col
			copy(out[r*g.TileSize:(r+1)*g.TileSize], pix[srcOff:srcOff+g.TileSize])
		}
		tiles[i], _ = raster.ContinuousFromSlice(g.TileSize, g.TileSize, out)
	}
	return tiles, positions
}

// ExtractChannels cuts the grid's tiles out of a padded multi-channel raster.
func ExtractChannels(src *raster.Channels, g Grid) ([]*raster.Channels, []Position) {
	height, width, channels := src.Dims()
	positions := g.Positions(height, width)
	pix := src.Pix()
	tiles := make([]*raster.Channels, len(positions))
	for i, p := range positions {
		out := make([]float32, g.TileSize*g.TileSize*channels)
		for r := 0; r < g.TileSize; r++ {
			srcOff := ((p.Row+r)*width + p.Col) * channels
			rowLen := g.TileSize * channels
			copy(out[r*rowLen:(r+1)*rowLen], pix[srcOff:srcOff+rowLen])
		}
		tiles[i], _ = raster.ChannelsFromSlice(g.TileSize, g.TileSize, channels, out)
	}
	return tiles, positions
}
