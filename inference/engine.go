// Package inference - Inference engine interface and implementation.
package inference

import (
	"context"
	"image"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-eval/inference/detectors"
	"github.com/nvr-ai/go-eval/inference/providers"
	"github.com/nvr-ai/go-eval/models"
	"github.com/nvr-ai/go-eval/models/model"
	"github.com/nvr-ai/go-eval/models/postprocess"
)

// Engine runs a detection model on single images.
type Engine interface {
	// Predict returns every detection for img, unfiltered by score.
	Predict(ctx context.Context, img image.Image) ([]postprocess.Result, error)
	// Info describes the loaded model and where it runs.
	Info() Info
	Close() error
}

// Info describes an engine.
type Info struct {
	Model   model.Name        `json:"model"`
	Path    string            `json:"path"`
	Backend detectors.Backend `json:"backend"`
	Device  providers.Device  `json:"device"`
}

// EngineBuilder builds an Engine with a fluent API. The first error stops
// every later step and is returned by Build.
type EngineBuilder struct {
	providerConfig *providers.Config
	probe          providers.ProbeFunc
	model          model.Model
	detector       detectors.Detector
	info           Info
	err            error
}

// NewEngineBuilder creates a new engine builder.
//
// Returns:
//   - *EngineBuilder: The engine builder.
//
// @example
// engine, err := NewEngineBuilder().
//
//	WithProvider(providers.DefaultConfig()).
//	WithModel(model.NewModelArgs{Name: model.ModelNameFasterRCNN, Path: path}).
//	WithDetector(detectors.DefaultConfig()).
//	Build()
func NewEngineBuilder() *EngineBuilder {
	return &EngineBuilder{}
}

// WithProvider sets the device and execution provider configuration.
//
// Arguments:
//   - args: The provider configuration.
//
// Returns:
//   - *EngineBuilder: The engine builder.
func (b *EngineBuilder) WithProvider(args providers.Config) *EngineBuilder {
	if b.HasError() {
		return b
	}
	b.providerConfig = &args
	return b
}

// WithProbe overrides how device availability is probed for providers.DeviceAuto.
func (b *EngineBuilder) WithProbe(probe providers.ProbeFunc) *EngineBuilder {
	b.probe = probe
	return b
}

// WithModel sets the model for the engine.
//
// Arguments:
//   - args: The model arguments.
//
// Returns:
//   - *EngineBuilder: The engine builder.
func (b *EngineBuilder) WithModel(args model.NewModelArgs) *EngineBuilder {
	if b.HasError() {
		return b
	}
	m, err := models.NewModel(args)
	if err != nil {
		b.err = err
		return b
	}
	b.model = m
	return b
}

// WithDetector resolves the device and loads the model on it. It must follow
// WithProvider and WithModel.
//
// Arguments:
//   - cfg: The detector configuration. Its Provider field is replaced by the
//     configuration given to WithProvider.
//
// Returns:
//   - *EngineBuilder: The engine builder.
func (b *EngineBuilder) WithDetector(cfg detectors.Config) *EngineBuilder {
	if b.HasError() {
		return b
	}
	if b.providerConfig == nil {
		b.err = errors.New("provider not configured")
		return b
	}
	if b.model == nil {
		b.err = errors.New("model not configured")
		return b
	}
	cfg.Provider = *b.providerConfig

	// The auto probe needs a live ONNX Runtime environment; the detector takes
	// its own reference.
	if cfg.Backend == detectors.BackendONNX || cfg.Backend == "" {
		if cfg.Provider.Device == providers.DeviceAuto && b.probe == nil {
			if err := providers.InitializeEnvironment(cfg.Provider.SharedLibraryPath); err != nil {
				b.err = err
				return b
			}
			defer providers.ReleaseEnvironment()
		}
	}

	provider, err := providers.Select(cfg.Provider, b.probe)
	if err != nil {
		b.err = err
		return b
	}

	detector, err := detectors.NewDetector(provider, b.model, cfg)
	if err != nil {
		b.err = err
		return b
	}
	b.detector = detector

	opts := b.model.Options()
	b.info = Info{
		Model:   opts.Name,
		Path:    opts.Path,
		Backend: cfg.Backend,
		Device:  providers.DeviceOf(provider),
	}
	if b.info.Backend == "" {
		b.info.Backend = detectors.BackendONNX
	}
	return b
}

// HasError checks if the engine builder has errors.
//
// Returns:
//   - bool: True if there are errors, false otherwise.
func (b *EngineBuilder) HasError() bool {
	return b.err != nil
}

// MustBuild builds the engine and panics if there is an error.
//
// Returns:
//   - Engine: The engine.
func (b *EngineBuilder) MustBuild() Engine {
	e, err := b.Build()
	if err != nil {
		panic(err)
	}
	return e
}

// Build builds the engine.
//
// Returns:
//   - Engine: The engine.
//   - error: The error if any.
func (b *EngineBuilder) Build() (Engine, error) {
	if b.HasError() {
		return nil, b.err
	}
	if b.providerConfig == nil {
		return nil, errors.New("provider not configured")
	}
	if b.model == nil {
		return nil, errors.New("model not configured")
	}
	if b.detector == nil {
		return nil, errors.New("detector not configured")
	}

	return &engine{detector: b.detector, info: b.info}, nil
}

// engine implements the Engine interface.
type engine struct {
	detector detectors.Detector
	info     Info
}

// Predict predicts the detections of the model for img.
func (e *engine) Predict(ctx context.Context, img image.Image) ([]postprocess.Result, error) {
	if img == nil {
		return nil, errors.New("nil image")
	}
	return e.detector.Detect(ctx, img)
}

// Info describes the engine.
func (e *engine) Info() Info {
	return e.info
}

// Close releases the detector.
func (e *engine) Close() error {
	return e.detector.Close()
}

// PredictAll runs the engine on every image in order, one at a time.
//
// Arguments:
//   - ctx: Checked between images.
//   - e: The engine.
//   - imgs: The images.
//
// Returns:
//   - [][]postprocess.Result: One detection set per image, in input order.
//   - error: The first prediction error, with the index of the failing image.
func PredictAll(ctx context.Context, e Engine, imgs []image.Image) ([][]postprocess.Result, error) {
	out := make([][]postprocess.Result, 0, len(imgs))
	for i, img := range imgs {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		dets, err := e.Predict(ctx, img)
		if err != nil {
			return out, errors.Wrapf(err, "image %d", i)
		}
		out = append(out, dets)
	}
	return out, nil
}
