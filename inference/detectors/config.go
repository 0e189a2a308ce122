// Package detectors - Object detectors backed by ONNX Runtime or OpenCV DNN.
package detectors

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-eval/inference/providers"
	"github.com/nvr-ai/go-eval/models/postprocess"
)

// Backend selects the inference runtime.
type Backend string

const (
	// BackendONNX runs the model with ONNX Runtime.
	BackendONNX Backend = "onnx"
	// BackendOpenCV runs the model with OpenCV DNN.
	BackendOpenCV Backend = "opencv"
)

// ErrUnknownBackend is returned by ParseBackend for unsupported names.
var ErrUnknownBackend = errors.New("unknown backend")

// ParseBackend parses a backend name, case-insensitively. Empty means onnx.
func ParseBackend(s string) (Backend, error) {
	switch b := Backend(strings.ToLower(strings.TrimSpace(s))); b {
	case "":
		return BackendONNX, nil
	case BackendONNX, BackendOpenCV:
		return b, nil
	default:
		return "", errors.Wrapf(ErrUnknownBackend, "%q", s)
	}
}

// Config represents the configuration of a detector.
type Config struct {
	// Backend is the inference runtime.
	Backend Backend `json:"backend" yaml:"backend"`

	// Provider selects the device and, for ONNX Runtime, the execution provider.
	Provider providers.Config `json:"provider" yaml:"provider"`

	// MinScore drops raw detections at or below this score while decoding.
	// Evaluation thresholds are applied by the caller.
	MinScore float32 `json:"min_score" yaml:"min_score"`

	// NMS, when set, is applied to decoded detections.
	NMS *postprocess.NMSConfig `json:"nms,omitempty" yaml:"nms,omitempty"`

	// BatchDim prepends a batch dimension to the ONNX input ([1,3,H,W]).
	BatchDim bool `json:"batch_dim" yaml:"batch_dim"`

	// NetConfigPath is the optional OpenCV network description (.pbtxt, .prototxt).
	NetConfigPath string `json:"net_config_path" yaml:"net_config_path"`
	// BlobScale multiplies pixel values when building the OpenCV input blob.
	BlobScale float64 `json:"blob_scale" yaml:"blob_scale"`
	// SwapRB converts OpenCV's BGR order to RGB.
	SwapRB bool `json:"swap_rb" yaml:"swap_rb"`
}

// DefaultConfig returns the configuration used for evaluation runs.
//
// @example
// config := DefaultConfig()
// config.Backend = BackendOpenCV
func DefaultConfig() Config {
	return Config{
		Backend:   BackendONNX,
		Provider:  providers.DefaultConfig(),
		BlobScale: 1.0 / 255.0,
		SwapRB:    true,
	}
}

func (c Config) decodeConfig() postprocess.Config {
	return postprocess.Config{MinScore: c.MinScore, NMS: c.NMS}
}
