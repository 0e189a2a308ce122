package detectors

import (
	"context"
	"image"
	"os"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-eval/inference/providers"
	"github.com/nvr-ai/go-eval/models/model"
	"github.com/nvr-ai/go-eval/models/postprocess"
)

// ErrModelNotFound is returned when the model file does not exist or is empty.
var ErrModelNotFound = errors.New("model file not found")

// Detector runs a model on one image at a time.
type Detector interface {
	// Detect returns every decoded detection for img in source image pixels.
	Detect(ctx context.Context, img image.Image) ([]postprocess.Result, error)
	Close() error
}

// NewDetector creates the detector for the configured backend.
//
// Arguments:
//   - provider: The execution provider. The OpenCV backend only uses its device.
//   - m: The model to run.
//   - cfg: The detector configuration.
//
// Returns:
//   - Detector: The detector.
//   - error: An error if the model cannot be loaded on the requested device.
func NewDetector(provider providers.ExecutionProvider, m model.Model, cfg Config) (Detector, error) {
	if err := checkModelFile(m.Options().Path); err != nil {
		return nil, err
	}

	switch cfg.Backend {
	case BackendONNX, "":
		return newONNXDetector(provider, m, cfg)
	case BackendOpenCV:
		return newNetDetector(providers.DeviceOf(provider), m, cfg)
	default:
		return nil, errors.Wrapf(ErrUnknownBackend, "%q", cfg.Backend)
	}
}

func checkModelFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return errors.Wrapf(ErrModelNotFound, "%s: %v", path, err)
	}
	if info.IsDir() || info.Size() == 0 {
		return errors.Wrapf(ErrModelNotFound, "%s is empty", path)
	}
	return nil
}
