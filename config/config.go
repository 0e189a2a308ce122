// Package config - Evaluation run configuration.
package config

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/nvr-ai/go-eval/inference/detectors"
	"github.com/nvr-ai/go-eval/inference/providers"
	"github.com/nvr-ai/go-eval/models"
	"github.com/nvr-ai/go-eval/models/model"
)

// ErrInvalidConfig is wrapped by every validation error.
var ErrInvalidConfig = errors.New("invalid config")

// Variant names.
const (
	VariantClear = "clear"
	VariantFoggy = "foggy"
)

// DataConfig locates the dataset.
type DataConfig struct {
	// Root is the Cityscapes root directory.
	Root string `json:"root" yaml:"root"`
	// Split is the split to evaluate, e.g. "val".
	Split string `json:"split" yaml:"split"`
	// FogBeta selects the foggy images, e.g. "0.02".
	FogBeta string `json:"fog_beta" yaml:"fog_beta"`
}

// Config represents a complete evaluation run.
type Config struct {
	Model    model.NewModelArgs `json:"model" yaml:"model"`
	Data     DataConfig         `json:"data" yaml:"data"`
	Detector detectors.Config   `json:"detector" yaml:"detector"`

	// Variants are evaluated in order.
	Variants []string `json:"variants" yaml:"variants"`

	// SampleSize is the number of images drawn per variant.
	SampleSize int `json:"sample_size" yaml:"sample_size"`
	// Seed seeds the sampler; 0 seeds from the clock.
	Seed uint64 `json:"seed" yaml:"seed"`

	ScoreThreshold float32 `json:"score_threshold" yaml:"score_threshold"`
	IoUThreshold   float32 `json:"iou_threshold" yaml:"iou_threshold"`
	// NMSThreshold enables greedy NMS on detections when positive.
	NMSThreshold float32 `json:"nms_threshold" yaml:"nms_threshold"`

	// ClassLabels are the Cityscapes label ids of the model classes, in
	// model index order (index 0 is background).
	ClassLabels []int `json:"class_labels" yaml:"class_labels"`

	OutputDir string `json:"output_dir" yaml:"output_dir"`
	// HistoryPath is the SQLite run history; empty disables it.
	HistoryPath string `json:"history_path" yaml:"history_path"`

	LogLevel string `json:"log_level" yaml:"log_level"`
	Progress bool   `json:"progress" yaml:"progress"`
}

// Default returns the configuration of the standard run: a Cityscapes Faster
// R-CNN checkpoint evaluated on 50 clear and 50 foggy validation images.
func Default() Config {
	return Config{
		Model: model.NewModelArgs{
			Name:   model.ModelNameFasterRCNN,
			Path:   "experiments/faster_rcnn_cityscapes.onnx",
			Family: model.ModelFamilyCityscapes,
		},
		Data: DataConfig{
			Root:    "data/cityscapes",
			Split:   "val",
			FogBeta: "0.02",
		},
		Detector:       detectors.DefaultConfig(),
		Variants:       []string{VariantClear, VariantFoggy},
		SampleSize:     50,
		ScoreThreshold: 0.5,
		IoUThreshold:   0.5,
		ClassLabels:    append([]int(nil), models.DefaultCityscapesTargets...),
		OutputDir:      "outputs",
		LogLevel:       "info",
		Progress:       true,
	}
}

// Load reads a YAML file over the defaults. Keys absent from the file keep
// their default values.
//
// Arguments:
//   - path: The YAML file.
//
// Returns:
//   - Config: The configuration.
//   - error: Error if the file cannot be read or parsed.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "read config")
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(ErrInvalidConfig, "parse %s: %v", path, err)
	}

	return cfg, nil
}

// Validate checks the configuration. Every error wraps ErrInvalidConfig.
func (c *Config) Validate() error {
	if c.Model.Path == "" {
		return errors.Wrap(ErrInvalidConfig, "model path is required")
	}
	if c.SampleSize <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "sample_size must be positive, got %d", c.SampleSize)
	}
	if c.ScoreThreshold < 0 || c.ScoreThreshold > 1 {
		return errors.Wrapf(ErrInvalidConfig, "score_threshold %v not in [0,1]", c.ScoreThreshold)
	}
	if c.IoUThreshold < 0 || c.IoUThreshold > 1 {
		return errors.Wrapf(ErrInvalidConfig, "iou_threshold %v not in [0,1]", c.IoUThreshold)
	}
	if c.NMSThreshold < 0 || c.NMSThreshold > 1 {
		return errors.Wrapf(ErrInvalidConfig, "nms_threshold %v not in [0,1]", c.NMSThreshold)
	}
	if c.OutputDir == "" {
		return errors.Wrap(ErrInvalidConfig, "output_dir is required")
	}

	if len(c.Variants) == 0 {
		return errors.Wrap(ErrInvalidConfig, "at least one variant is required")
	}
	seen := make(map[string]bool, len(c.Variants))
	for _, v := range c.Variants {
		if v != VariantClear && v != VariantFoggy {
			return errors.Wrapf(ErrInvalidConfig, "unknown variant %q", v)
		}
		if seen[v] {
			return errors.Wrapf(ErrInvalidConfig, "duplicate variant %q", v)
		}
		seen[v] = true
	}

	if len(c.ClassLabels) == 0 {
		return errors.Wrap(ErrInvalidConfig, "class_labels is required")
	}
	if _, err := models.NewCityscapesClassSet(c.ClassLabels); err != nil {
		return errors.Wrapf(ErrInvalidConfig, "class_labels: %v", err)
	}

	if _, err := detectors.ParseBackend(string(c.Detector.Backend)); err != nil {
		return errors.Wrapf(ErrInvalidConfig, "%v", err)
	}
	if _, err := providers.ParseDevice(string(c.Detector.Provider.Device)); err != nil {
		return errors.Wrapf(ErrInvalidConfig, "%v", err)
	}
	if _, err := zapcore.ParseLevel(strings.ToLower(c.LogLevel)); err != nil {
		return errors.Wrapf(ErrInvalidConfig, "log_level: %v", err)
	}

	return nil
}
