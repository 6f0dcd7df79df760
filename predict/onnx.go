package predict

import (
	"context"

	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/iddryg/seg-flow/raster"
)

// ONNXConfig configures an ONNX Runtime backed predictor.
type ONNXConfig struct {
	// ModelPath is the path to the .onnx segmentation model.
	ModelPath string
	// LibraryPath optionally points at the onnxruntime shared library. When
	// empty the runtime's default lookup applies.
	LibraryPath string
	// InputName and OutputName are the model's graph tensor names.
	// They default to "image" and "labels".
	InputName  string
	OutputName string
}

// ONNXPredictor runs a segmentation model through ONNX Runtime.
//
// The model contract is NHWC float32 in, NHW int64 instance labels out, with
// 0 as background. The mpp hint is not forwarded; wrap the predictor in a
// ScaledPredictor when the model expects a fixed pixel pitch.
type ONNXPredictor struct {
	session *ort.DynamicAdvancedSession
	cfg     ONNXConfig
}

// NewONNXPredictor initializes the ONNX Runtime environment (once per
// process) and loads the model at cfg.ModelPath.
func NewONNXPredictor(cfg ONNXConfig) (*ONNXPredictor, error) {
	if cfg.ModelPath == "" {
		return nil, errors.New("predict: empty ONNX model path")
	}
	if cfg.InputName == "" {
		cfg.InputName = "image"
	}
	if cfg.OutputName == "" {
		cfg.OutputName = "labels"
	}
	if cfg.LibraryPath != "" {
		ort.SetSharedLibraryPath(cfg.LibraryPath)
	}
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, errors.Wrap(err, "predict: initializing ONNX runtime")
		}
	}
	session, err := ort.NewDynamicAdvancedSession(cfg.ModelPath, []string{cfg.InputName}, []string{cfg.OutputName}, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "predict: loading ONNX model %s", cfg.ModelPath)
	}
	return &ONNXPredictor{session: session, cfg: cfg}, nil
}

// Predict packs the batch into a single NHWC tensor, runs one session
// invocation and unpacks the NHW int64 output into label tiles.
func (p *ONNXPredictor) Predict(ctx context.Context, batch []*raster.Channels, mpp float64) ([]*raster.Labels, error) {
	if len(batch) == 0 {
		return nil, nil
	}
	height, width, channels := batch[0].Dims()
	data := make([]float32, 0, len(batch)*height*width*channels)
	for i, tile := range batch {
		h, w, c := tile.Dims()
		if h != height || w != width || c != channels {
			return nil, errors.Errorf("predict: tile %d is %dx%dx%d, batch is %dx%dx%d", i, h, w, c, height, width, channels)
		}
		data = append(data, tile.Pix()...)
	}

	input, err := ort.NewTensor(ort.NewShape(int64(len(batch)), int64(height), int64(width), int64(channels)), data)
	if err != nil {
		return nil, errors.Wrap(err, "predict: building input tensor")
	}
	defer input.Destroy()

	output, err := ort.NewEmptyTensor[int64](ort.NewShape(int64(len(batch)), int64(height), int64(width)))
	if err != nil {
		return nil, errors.Wrap(err, "predict: building output tensor")
	}
	defer output.Destroy()

	if err := p.session.Run([]ort.Value{input}, []ort.Value{output}); err != nil {
		return nil, errors.Wrapf(err, "predict: running ONNX model %s", p.cfg.ModelPath)
	}

	flat := output.GetData()
	plane := height * width
	labels := make([]*raster.Labels, len(batch))
	for i := range batch {
		vals := make([]int32, plane)
		for j := 0; j < plane; j++ {
			vals[j] = int32(flat[i*plane+j])
		}
		labels[i], err = raster.LabelsFromSlice(height, width, vals)
		if err != nil {
			return nil, errors.Wrapf(err, "predict: unpacking label tile %d", i)
		}
	}
	return labels, nil
}

// Close releases the underlying ONNX session.
func (p *ONNXPredictor) Close() error {
	return p.session.Destroy()
}
