// Package segflow reconstructs one label-consistent whole-slide instance
// segmentation mask from overlapping, independently predicted tile
// segmentations.
//
// Flow owns the lifecycle: load the source channels, normalize, pad to an
// exactly tileable extent, extract overlapping tiles, run a black-box
// segmentation predictor over them, then stitch the predicted label tiles
// back into a single mask through confidence reduction, overlap density
// scoring and pixel-level arbitration.
package segflow

import (
	"context"
	"math/rand"

	"github.com/pkg/errors"

	"github.com/iddryg/seg-flow/config"
	"github.com/iddryg/seg-flow/mosaic"
	"github.com/iddryg/seg-flow/predict"
	"github.com/iddryg/seg-flow/raster"
	"github.com/iddryg/seg-flow/tiling"
)

// Lifecycle precondition violations, checked with errors.Is.
var (
	// ErrNoImage means no source channels have been loaded.
	ErrNoImage = errors.New("segflow: no image loaded")
	// ErrNotPadded means the image has not been padded to a tileable extent.
	ErrNotPadded = errors.New("segflow: image not padded")
	// ErrTilesNotExtracted means tile-level results were offered before any
	// tiles were extracted, so there is no geometry to stitch them into.
	ErrTilesNotExtracted = errors.New("segflow: tiles not extracted")
)

// Flow coordinates the whole-slide segmentation pipeline. It is not safe for
// concurrent use; the pipeline is deliberately synchronous because tile
// order is part of the stitching contract.
type Flow struct {
	grid      tiling.Grid
	stitch    mosaic.Config
	batchSize int
	imageMPP  float64

	image     *raster.Channels
	padded    *raster.Channels
	pad       tiling.Padding
	tiles     []*raster.Channels
	positions []tiling.Position
}

// New builds a Flow from the given configuration, falling back to defaults
// when cfg is nil.
func New(cfg *config.Config) (*Flow, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	grid := tiling.Grid{TileSize: cfg.Stitch.TileSize, Stride: cfg.Stitch.Stride}
	if err := grid.Validate(); err != nil {
		return nil, err
	}
	return &Flow{
		grid: grid,
		stitch: mosaic.Config{
			TileSize:      cfg.Stitch.TileSize,
			Stride:        cfg.Stitch.Stride,
			AverageWeight: cfg.Stitch.AverageWeight,
			SumWeight:     cfg.Stitch.SumWeight,
			MinPixels:     cfg.Stitch.MinPixels,
		},
		batchSize: cfg.Predict.BatchSize,
		imageMPP:  cfg.Predict.ImageMPP,
	}, nil
}

// LoadArrays loads the nuclear and membrane source channels. Segmentation
// models expect two channels; when no membrane stain exists the nuclear
// channel is duplicated in its place. Loading resets any padded geometry and
// extracted tiles from a previous image.
func (f *Flow) LoadArrays(nuclear, membrane *raster.Continuous) error {
	if nuclear == nil {
		return errors.New("segflow: nil nuclear channel")
	}
	if membrane == nil {
		membrane = nuclear
	} else {
		nh, nw := nuclear.Dims()
		mh, mw := membrane.Dims()
		if nh != mh || nw != mw {
			return errors.Errorf("segflow: nuclear %dx%d and membrane %dx%d differ", nh, nw, mh, mw)
		}
	}
	image, err := raster.StackChannels(nuclear, membrane)
	if err != nil {
		return err
	}
	f.image = image
	f.padded = nil
	f.pad = tiling.Padding{}
	f.tiles = nil
	f.positions = nil
	return nil
}

// Normalize z-scores each loaded channel in place (zero mean, unit
// variance). Run before Pad so the reflected border carries normalized
// values.
func (f *Flow) Normalize() error {
	if f.image == nil {
		return ErrNoImage
	}
	f.image.Normalize()
	return nil
}

// Pad reflects the image outward so the tile grid covers it exactly. The pad
// amounts are retained for cropping stitched results back to the original
// extent.
func (f *Flow) Pad() error {
	if f.image == nil {
		return ErrNoImage
	}
	height, width, _ := f.image.Dims()
	f.pad = f.grid.PadAmounts(height, width)
	f.padded = f.image.PadReflect(f.pad.Top, f.pad.Bottom, f.pad.Left, f.pad.Right)
	f.tiles = nil
	f.positions = nil
	return nil
}

// ExtractTiles cuts the padded image into overlapping tiles, caching the
// result: repeated calls return the same tile set.
func (f *Flow) ExtractTiles() ([]*raster.Channels, []tiling.Position, error) {
	if f.image == nil {
		return nil, nil, ErrNoImage
	}
	if f.padded == nil {
		return nil, nil, ErrNotPadded
	}
	if f.tiles == nil {
		f.tiles, f.positions = tiling.ExtractChannels(f.padded, f.grid)
	}
	return f.tiles, f.positions, nil
}

// RunSegmentation feeds the extracted tiles through the predictor in
// sequential batches and returns one predicted label tile per image tile, in
// tile order.
func (f *Flow) RunSegmentation(ctx context.Context, p predict.Predictor) ([]*raster.Labels, error) {
	tiles, _, err := f.ExtractTiles()
	if err != nil {
		return nil, err
	}
	return predict.RunBatches(ctx, p, tiles, f.imageMPP, f.batchSize)
}

// IngestTileSegmentation stitches predicted label tiles into one whole-image
// mask: confidence reduction, overlap density, coverage scoring, pixel
// arbitration, then cropping back to the original extent.
//
// The tiles must correspond one-to-one, in order, with the tiles returned by
// ExtractTiles.
func (f *Flow) IngestTileSegmentation(segTiles []*raster.Labels) (*raster.Labels, mosaic.Stats, error) {
	var stats mosaic.Stats
	if f.positions == nil {
		return nil, stats, ErrTilesNotExtracted
	}
	if len(segTiles) != len(f.positions) {
		return nil, stats, errors.Errorf("segflow: %d segmented tiles for %d extracted tiles", len(segTiles), len(f.positions))
	}
	paddedHeight, paddedWidth, _ := f.padded.Dims()

	reduced, _, err := mosaic.ReduceConfidence(segTiles, f.grid.TileSize, 0)
	if err != nil {
		return nil, stats, err
	}
	density, err := mosaic.OverlapDensity(reduced, f.positions, paddedHeight, paddedWidth)
	if err != nil {
		return nil, stats, err
	}
	scores, err := mosaic.CoverageScores(reduced, density, f.positions, f.grid, f.stitch)
	if err != nil {
		return nil, stats, err
	}
	stitched, stats, err := mosaic.Recombine(reduced, scores, f.positions, paddedHeight, paddedWidth)
	if err != nil {
		return nil, stats, err
	}
	mask, err := stitched.Crop(f.pad.Top, f.pad.Bottom, f.pad.Left, f.pad.Right)
	if err != nil {
		return nil, stats, err
	}
	return mask, stats, nil
}

// CombineContinuousTiles blends per-tile continuous rasters (probability or
// intensity maps) into one whole-image raster with Hann-window weighted
// averaging, cropped back to the original extent.
func (f *Flow) CombineContinuousTiles(tiles []*raster.Continuous) (*raster.Continuous, error) {
	if f.positions == nil {
		return nil, ErrTilesNotExtracted
	}
	if len(tiles) != len(f.positions) {
		return nil, errors.Errorf("segflow: %d continuous tiles for %d extracted tiles", len(tiles), len(f.positions))
	}
	paddedHeight, paddedWidth, _ := f.padded.Dims()
	blended, err := mosaic.BlendContinuous(tiles, f.positions, f.grid.TileSize, paddedHeight, paddedWidth)
	if err != nil {
		return nil, err
	}
	return blended.Crop(f.pad.Top, f.pad.Bottom, f.pad.Left, f.pad.Right)
}

// Padding returns the pad amounts applied by Pad.
func (f *Flow) Padding() tiling.Padding {
	return f.pad
}

// Grid returns the tile geometry.
func (f *Flow) Grid() tiling.Grid {
	return f.grid
}

// RandomizeLabels remaps the raster's instance ids through a seeded
// permutation of themselves. Adjacent ids usually belong to adjacent tiles,
// which renders as near-identical colors; shuffling makes neighboring
// instances visually distinct without changing any instance's pixels.
func RandomizeLabels(labels *raster.Labels, seed int64) *raster.Labels {
	ids := labels.Unique()
	perm := rand.New(rand.NewSource(seed)).Perm(len(ids))
	mapping := make(map[int32]int32, len(ids))
	for i, id := range ids {
		mapping[id] = ids[perm[i]]
	}

	out := labels.Clone()
	pix := out.Pix()
	for i, v := range pix {
		if v != 0 {
			pix[i] = mapping[v]
		}
	}
	return out
}
