package predict

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iddryg/seg-flow/raster"
)

// mockPredictor drives RunBatches with a scriptable Predict.
type mockPredictor struct {
	fn      func(batch []*raster.Channels, mpp float64) ([]*raster.Labels, error)
	batches []int
}

func (m *mockPredictor) Predict(ctx context.Context, batch []*raster.Channels, mpp float64) ([]*raster.Labels, error) {
	m.batches = append(m.batches, len(batch))
	return m.fn(batch, mpp)
}

func channelTiles(t *testing.T, n, size int) []*raster.Channels {
	t.Helper()
	tiles := make([]*raster.Channels, n)
	for i := range tiles {
		tile := raster.NewChannels(size, size, 1)
		tile.Set(0, 0, 0, float32(i))
		tiles[i] = tile
	}
	return tiles
}

// echoLabels returns one label tile per input, stamped with the input's
// first pixel so output order is observable.
func echoLabels(batch []*raster.Channels, _ float64) ([]*raster.Labels, error) {
	out := make([]*raster.Labels, len(batch))
	for i, tile := range batch {
		h, w, _ := tile.Dims()
		labels := raster.NewLabels(h, w)
		labels.Set(0, 0, int32(tile.At(0, 0, 0))+1)
		out[i] = labels
	}
	return out, nil
}

// TestRunBatchesOrder verifies sequential batching and in-order
// concatenation across an uneven final batch.
func TestRunBatchesOrder(t *testing.T) {
	p := &mockPredictor{fn: echoLabels}
	tiles := channelTiles(t, 5, 4)

	out, err := RunBatches(context.Background(), p, tiles, 0.5, 2)
	require.NoError(t, err)
	require.Len(t, out, 5, "one label tile per input tile")

	assert.Equal(t, []int{2, 2, 1}, p.batches, "fixed batches with a short tail")
	for i, labels := range out {
		assert.Equal(t, int32(i+1), labels.At(0, 0), "tile %d out of order", i)
	}
}

func TestRunBatchesDefaultBatchSize(t *testing.T) {
	p := &mockPredictor{fn: echoLabels}
	_, err := RunBatches(context.Background(), p, channelTiles(t, 3, 4), 0.5, 0)
	require.NoError(t, err)
	assert.Equal(t, []int{3}, p.batches, "non-positive batch size falls back to the default")
}

// TestRunBatchesCountMismatchFatal verifies a predictor returning the wrong
// number of tiles is a fatal error, not a partial success.
func TestRunBatchesCountMismatchFatal(t *testing.T) {
	p := &mockPredictor{fn: func(batch []*raster.Channels, _ float64) ([]*raster.Labels, error) {
		return []*raster.Labels{raster.NewLabels(4, 4)}, nil
	}}
	_, err := RunBatches(context.Background(), p, channelTiles(t, 3, 4), 0.5, 2)
	assert.Error(t, err, "wrong output count violates the predictor contract")
}

// TestRunBatchesShapeMismatchFatal verifies a wrongly shaped label tile is
// rejected rather than reshaped.
func TestRunBatchesShapeMismatchFatal(t *testing.T) {
	p := &mockPredictor{fn: func(batch []*raster.Channels, _ float64) ([]*raster.Labels, error) {
		out := make([]*raster.Labels, len(batch))
		for i := range out {
			out[i] = raster.NewLabels(2, 2)
		}
		return out, nil
	}}
	_, err := RunBatches(context.Background(), p, channelTiles(t, 2, 4), 0.5, 2)
	assert.Error(t, err, "label tile shape must match the input tile")
}

func TestRunBatchesWrapsPredictorError(t *testing.T) {
	boom := errors.New("model exploded")
	p := &mockPredictor{fn: func([]*raster.Channels, float64) ([]*raster.Labels, error) {
		return nil, boom
	}}
	_, err := RunBatches(context.Background(), p, channelTiles(t, 1, 4), 0.5, 1)
	require.Error(t, err)
	assert.Equal(t, boom, errors.Cause(err), "predictor error surfaces as the cause")
}

func TestRunBatchesNilPredictor(t *testing.T) {
	_, err := RunBatches(context.Background(), nil, nil, 0.5, 1)
	assert.Error(t, err)
}

// TestScaledPredictorPassThrough verifies no resampling happens when the
// pitches already match or are unknown.
func TestScaledPredictorPassThrough(t *testing.T) {
	inner := &mockPredictor{fn: echoLabels}
	sp := NewScaledPredictor(inner, 0.5)

	tiles := channelTiles(t, 1, 8)
	out, err := sp.Predict(context.Background(), tiles, 0.5)
	require.NoError(t, err)
	h, w := out[0].Dims()
	assert.Equal(t, 8, h)
	assert.Equal(t, 8, w)

	_, err = sp.Predict(context.Background(), tiles, 0)
	assert.NoError(t, err, "unknown image pitch passes through")
}

// TestScaledPredictorResamples verifies the inner predictor sees tiles at
// the model pitch and the labels come back at the original geometry.
func TestScaledPredictorResamples(t *testing.T) {
	var innerH, innerW int
	inner := &mockPredictor{fn: func(batch []*raster.Channels, mpp float64) ([]*raster.Labels, error) {
		innerH, innerW, _ = batch[0].Dims()
		out := make([]*raster.Labels, len(batch))
		for i := range out {
			labels := raster.NewLabels(innerH, innerW)
			pix := labels.Pix()
			for j := range pix {
				pix[j] = 3
			}
			out[i] = labels
		}
		return out, nil
	}}
	sp := NewScaledPredictor(inner, 0.25)

	// Image at 0.5 mpp, model at 0.25 mpp: tiles upsample 2x.
	out, err := sp.Predict(context.Background(), channelTiles(t, 1, 8), 0.5)
	require.NoError(t, err)

	assert.Equal(t, 16, innerH, "inner predictor sees the upsampled height")
	assert.Equal(t, 16, innerW, "inner predictor sees the upsampled width")
	h, w := out[0].Dims()
	assert.Equal(t, 8, h, "labels restored to the original height")
	assert.Equal(t, 8, w, "labels restored to the original width")
	assert.Equal(t, int32(3), out[0].At(4, 4), "nearest-neighbor mapping preserves ids")
}
