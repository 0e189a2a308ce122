package config

import (
	"github.com/pkg/errors"

	"github.com/nvr-ai/go-eval/dataset"
	"github.com/nvr-ai/go-eval/evaluation"
	"github.com/nvr-ai/go-eval/inference/detectors"
	"github.com/nvr-ai/go-eval/models"
	"github.com/nvr-ai/go-eval/models/postprocess"
)

// ClassSet builds the model label space from ClassLabels.
func (c *Config) ClassSet() (*models.OutputClassSet, error) {
	return models.NewCityscapesClassSet(c.ClassLabels)
}

// DetectorConfig returns the detector configuration with NMS enabled when
// NMSThreshold is positive.
func (c *Config) DetectorConfig() detectors.Config {
	cfg := c.Detector
	if c.NMSThreshold > 0 {
		cfg.NMS = &postprocess.NMSConfig{IoUThreshold: c.NMSThreshold}
	}
	return cfg
}

// EvaluationConfig returns the evaluator parameters. Labels are drawn with
// the names of classes.
func (c *Config) EvaluationConfig(classes *models.OutputClassSet) evaluation.Config {
	cfg := evaluation.DefaultConfig()
	cfg.SampleSize = c.SampleSize
	cfg.ScoreThreshold = c.ScoreThreshold
	cfg.IoUThreshold = c.IoUThreshold
	cfg.OutputDir = c.OutputDir
	cfg.Render.Classes = classes
	return cfg
}

// Datasets opens the configured variants, in order.
//
// Arguments:
//   - classes: The model label space used to read annotations.
//
// Returns:
//   - []dataset.Dataset: One dataset per variant.
//   - error: Error if a variant cannot be opened.
func (c *Config) Datasets(classes *models.OutputClassSet) ([]dataset.Dataset, error) {
	out := make([]dataset.Dataset, 0, len(c.Variants))
	for _, v := range c.Variants {
		ds, err := dataset.NewCityscapes(dataset.CityscapesConfig{
			Root:    c.Data.Root,
			Split:   c.Data.Split,
			Foggy:   v == VariantFoggy,
			FogBeta: c.Data.FogBeta,
			Classes: classes,
		})
		if err != nil {
			return nil, errors.Wrapf(err, "variant %s", v)
		}
		out = append(out, ds)
	}
	return out, nil
}
