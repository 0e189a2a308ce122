package detectors

import (
	"context"
	"image"
	"sync"

	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"
	"go.uber.org/multierr"

	"github.com/nvr-ai/go-eval/inference/providers"
	"github.com/nvr-ai/go-eval/models/fasterrcnn"
	"github.com/nvr-ai/go-eval/models/model"
	"github.com/nvr-ai/go-eval/models/postprocess"
)

// onnxDetector runs a model through an ONNX Runtime dynamic session. Output
// tensors are allocated by the runtime for every call since the number of
// detections varies per image.
type onnxDetector struct {
	mu      sync.Mutex
	session *ort.DynamicAdvancedSession
	model   model.Model
	config  Config
}

func newONNXDetector(provider providers.ExecutionProvider, m model.Model, cfg Config) (*onnxDetector, error) {
	if provider == nil {
		return nil, errors.New("onnx detector requires an execution provider")
	}
	if err := providers.InitializeEnvironment(cfg.Provider.SharedLibraryPath); err != nil {
		return nil, err
	}

	opts := m.Options()
	options, err := providers.NewSessionOptions(provider, cfg.Provider.Optimization)
	if err != nil {
		return nil, multierr.Append(err, providers.ReleaseEnvironment())
	}
	defer options.Destroy()

	session, err := ort.NewDynamicAdvancedSession(opts.Path, opts.Inputs, opts.Outputs, options)
	if err != nil {
		err = errors.Wrapf(err, "load %s", opts.Path)
		return nil, multierr.Append(err, providers.ReleaseEnvironment())
	}

	return &onnxDetector{session: session, model: m, config: cfg}, nil
}

// Detect runs the model on img.
func (d *onnxDetector) Detect(ctx context.Context, img image.Image) ([]postprocess.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	opts := d.model.Options()
	input := PrepareInput(img, opts.InputShape)
	shape := ort.NewShape(3, int64(input.Size.Y), int64(input.Size.X))
	if d.config.BatchDim {
		shape = ort.NewShape(1, 3, int64(input.Size.Y), int64(input.Size.X))
	}

	tensor, err := ort.NewTensor(shape, input.Data)
	if err != nil {
		return nil, errors.Wrap(err, "create input tensor")
	}
	defer tensor.Destroy()

	outputs := make([]ort.Value, len(opts.Outputs))
	d.mu.Lock()
	err = d.session.Run([]ort.Value{tensor}, outputs)
	d.mu.Unlock()
	defer func() {
		for _, out := range outputs {
			if out != nil {
				out.Destroy()
			}
		}
	}()
	if err != nil {
		return nil, errors.Wrap(err, "run onnx session")
	}

	packed, err := packOutputs(outputs)
	if err != nil {
		return nil, err
	}

	cfg := d.config.decodeConfig()
	cfg.Frame = img.Bounds().Size()
	cfg.ScaleX, cfg.ScaleY = input.ScaleX, input.ScaleY
	return d.model.PostProcess(packed, &cfg), nil
}

// packOutputs flattens the session outputs into the row layout the models
// decode. A single float32 output is used as is; three outputs are taken as
// the torchvision boxes, labels and scores.
func packOutputs(outputs []ort.Value) ([]float32, error) {
	switch len(outputs) {
	case 1:
		t, ok := outputs[0].(*ort.Tensor[float32])
		if !ok {
			return nil, errors.Errorf("unexpected output type %T", outputs[0])
		}
		return t.GetData(), nil
	case 3:
		boxes, ok := outputs[0].(*ort.Tensor[float32])
		if !ok {
			return nil, errors.Errorf("unexpected boxes type %T", outputs[0])
		}
		labels, ok := outputs[1].(*ort.Tensor[int64])
		if !ok {
			return nil, errors.Errorf("unexpected labels type %T", outputs[1])
		}
		scores, ok := outputs[2].(*ort.Tensor[float32])
		if !ok {
			return nil, errors.Errorf("unexpected scores type %T", outputs[2])
		}
		return fasterrcnn.Pack(boxes.GetData(), labels.GetData(), scores.GetData()), nil
	default:
		return nil, errors.Errorf("unsupported number of outputs: %d", len(outputs))
	}
}

// Close destroys the session and releases the runtime environment.
func (d *onnxDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var err error
	if d.session != nil {
		err = d.session.Destroy()
		d.session = nil
		err = multierr.Append(err, providers.ReleaseEnvironment())
	}
	return err
}
