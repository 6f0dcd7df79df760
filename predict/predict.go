// Package predict - the black-box segmentation predictor boundary.
//
// The stitching engine never sees a model; it sees a Predictor that maps a
// batch of multi-channel tiles to one instance-label tile per input. The
// batch runner feeds tiles through in fixed-size sequential batches purely
// to bound peak memory, and treats any contract violation (wrong batch
// length, wrong tile shape) as fatal: silently reshaping a label tile would
// corrupt instance identities.
package predict

import (
	"context"

	"github.com/pkg/errors"

	"github.com/iddryg/seg-flow/raster"
)

// DefaultBatchSize bounds how many tiles are sent to the predictor at once.
const DefaultBatchSize = 64

// Predictor is an externally supplied segmentation model.
//
// Predict must return exactly one label tile per input tile, each matching
// the input's spatial shape, integer-valued with 0 as background. The mpp
// argument is the image's microns-per-pixel scale hint.
type Predictor interface {
	Predict(ctx context.Context, batch []*raster.Channels, mpp float64) ([]*raster.Labels, error)
}

// RunBatches runs the predictor over all tiles in strictly sequential
// batches and concatenates the results in input order.
//
// Arguments:
//   - ctx: passed through to every predictor call.
//   - p: the segmentation predictor.
//   - tiles: the extracted image tiles, in tile order.
//   - mpp: microns-per-pixel scale hint forwarded to the predictor.
//   - batchSize: tiles per predictor call; DefaultBatchSize when <= 0.
//
// Returns:
//   - one label tile per input tile, in input order.
//   - a fatal error if any batch fails or violates the predictor contract.
func RunBatches(ctx context.Context, p Predictor, tiles []*raster.Channels, mpp float64, batchSize int) ([]*raster.Labels, error) {
	if p == nil {
		return nil, errors.New("predict: nil predictor")
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	out := make([]*raster.Labels, 0, len(tiles))
	for start := 0; start < len(tiles); start += batchSize {
		end := start + batchSize
		if end > len(tiles) {
			end = len(tiles)
		}
		batch := tiles[start:end]

		preds, err := p.Predict(ctx, batch, mpp)
		if err != nil {
			return nil, errors.Wrapf(err, "predict: batch starting at tile %d failed", start)
		}
		if len(preds) != len(batch) {
			return nil, errors.Errorf("predict: batch starting at tile %d returned %d label tiles for %d inputs", start, len(preds), len(batch))
		}
		for i, pred := range preds {
			wantH, wantW, _ := batch[i].Dims()
			gotH, gotW := pred.Dims()
			if gotH != wantH || gotW != wantW {
				return nil, errors.Errorf("predict: label tile %d is %dx%d, want %dx%d", start+i, gotH, gotW, wantH, wantW)
			}
		}
		out = append(out, preds...)
	}
	return out, nil
}
