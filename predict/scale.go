package predict

import (
	"context"
	"image"
	"image/color"

	"github.com/nfnt/resize"
	"github.com/pkg/errors"

	"github.com/iddryg/seg-flow/raster"
)

// ScaledPredictor adapts an image captured at one pixel pitch to a model
// trained at another. When the image mpp differs from the model mpp the
// tiles are resampled to the model's pitch before prediction and the label
// tiles are mapped back to the original geometry afterwards.
//
// Continuous channels are resampled with Lanczos; label tiles are mapped
// back with nearest-neighbor indexing only, since interpolating instance
// ids would invent labels that exist in no tile.
type ScaledPredictor struct {
	inner    Predictor
	modelMPP float64
}

// NewScaledPredictor wraps inner so it always sees tiles at modelMPP
// microns per pixel.
func NewScaledPredictor(inner Predictor, modelMPP float64) *ScaledPredictor {
	return &ScaledPredictor{inner: inner, modelMPP: modelMPP}
}

// Predict resamples the batch from mpp to the model's pitch, delegates, and
// restores the original tile geometry on the returned labels. When either
// pitch is unknown (<= 0) or they already match, the batch passes through
// untouched.
func (s *ScaledPredictor) Predict(ctx context.Context, batch []*raster.Channels, mpp float64) ([]*raster.Labels, error) {
	if mpp <= 0 || s.modelMPP <= 0 || mpp == s.modelMPP {
		return s.inner.Predict(ctx, batch, mpp)
	}
	if len(batch) == 0 {
		return nil, nil
	}

	// A coarser image (larger mpp) is upsampled to match the model's pitch.
	scale := mpp / s.modelMPP

	scaled := make([]*raster.Channels, len(batch))
	dims := make([][2]int, len(batch))
	for i, tile := range batch {
		h, w, _ := tile.Dims()
		dims[i] = [2]int{h, w}
		targetH := int(float64(h)*scale + 0.5)
		targetW := int(float64(w)*scale + 0.5)
		if targetH < 1 || targetW < 1 {
			return nil, errors.Errorf("predict: tile %d rescales to %dx%d at scale %.4f", i, targetH, targetW, scale)
		}
		resampled, err := rescaleChannels(tile, targetH, targetW)
		if err != nil {
			return nil, errors.Wrapf(err, "predict: rescaling tile %d", i)
		}
		scaled[i] = resampled
	}

	preds, err := s.inner.Predict(ctx, scaled, s.modelMPP)
	if err != nil {
		return nil, err
	}
	if len(preds) != len(batch) {
		return nil, errors.Errorf("predict: scaled predictor returned %d label tiles for %d inputs", len(preds), len(batch))
	}

	out := make([]*raster.Labels, len(batch))
	for i, pred := range preds {
		restored, err := nearestLabels(pred, dims[i][0], dims[i][1])
		if err != nil {
			return nil, errors.Wrapf(err, "predict: restoring label tile %d", i)
		}
		out[i] = restored
	}
	return out, nil
}

// rescaleChannels resamples every channel plane independently with Lanczos.
// The resize library operates on images, so each plane is affinely mapped
// onto the 16-bit gray range and back; the round trip quantizes values to
// 1/65535 of the plane's dynamic range.
func rescaleChannels(tile *raster.Channels, targetH, targetW int) (*raster.Channels, error) {
	_, _, channels := tile.Dims()
	planes := make([]*raster.Continuous, channels)
	for c := 0; c < channels; c++ {
		plane, err := tile.Channel(c)
		if err != nil {
			return nil, err
		}
		planes[c] = rescalePlane(plane, targetH, targetW)
	}
	return raster.StackChannels(planes...)
}

func rescalePlane(plane *raster.Continuous, targetH, targetW int) *raster.Continuous {
	height, width := plane.Dims()
	src := plane.Pix()

	lo, hi := src[0], src[0]
	for _, v := range src {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}

	gray := image.NewGray16(image.Rect(0, 0, width, height))
	for i, v := range src {
		g := uint16((v - lo) / span * 65535)
		gray.Pix[2*i] = uint8(g >> 8)
		gray.Pix[2*i+1] = uint8(g)
	}

	resized := resize.Resize(uint(targetW), uint(targetH), gray, resize.Lanczos3)

	out := raster.NewContinuous(targetH, targetW)
	dst := out.Pix()
	for r := 0; r < targetH; r++ {
		for c := 0; c < targetW; c++ {
			g := color.Gray16Model.Convert(resized.At(c, r)).(color.Gray16)
			dst[r*targetW+c] = lo + float32(g.Y)/65535*span
		}
	}
	return out
}

// nearestLabels maps a label tile back to the original geometry by sampling
// the nearest source pixel for every destination pixel.
func nearestLabels(pred *raster.Labels, targetH, targetW int) (*raster.Labels, error) {
	height, width := pred.Dims()
	if height == targetH && width == targetW {
		return pred, nil
	}
	if height < 1 || width < 1 {
		return nil, errors.Errorf("predict: empty label tile %dx%d", height, width)
	}
	src := pred.Pix()
	out := raster.NewLabels(targetH, targetW)
	dst := out.Pix()
	for r := 0; r < targetH; r++ {
		sr := r * height / targetH
		for c := 0; c < targetW; c++ {
			sc := c * width / targetW
			dst[r*targetW+c] = src[sr*width+sc]
		}
	}
	return out, nil
}
