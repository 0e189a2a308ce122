package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"

	"github.com/nvr-ai/go-eval/inference/detectors"
	"github.com/nvr-ai/go-eval/inference/providers"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "EVAL_"

// LoadDotEnv loads the given .env files, or ".env" when none are given, into
// the process environment. Missing files are ignored and variables already
// set are kept.
func LoadDotEnv(files ...string) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		_ = godotenv.Load(f)
	}
}

// FromEnv overlays EVAL_* environment variables onto c:
//
//	EVAL_MODEL_PATH, EVAL_DATA_ROOT, EVAL_DATA_SPLIT, EVAL_FOG_BETA,
//	EVAL_OUTPUT_DIR, EVAL_HISTORY_PATH, EVAL_SAMPLE_SIZE, EVAL_SEED,
//	EVAL_SCORE_THRESHOLD, EVAL_IOU_THRESHOLD, EVAL_NMS_THRESHOLD,
//	EVAL_BACKEND, EVAL_DEVICE, EVAL_ORT_LIBRARY, EVAL_LOG_LEVEL.
//
// Arguments:
//   - c: The configuration to update.
//
// Returns:
//   - error: An ErrInvalidConfig error if a value cannot be parsed.
func FromEnv(c *Config) error {
	return fromLookup(c, os.LookupEnv)
}

func fromLookup(c *Config, lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok && v != "" {
			*dst = v
		}
	}
	str("MODEL_PATH", &c.Model.Path)
	str("DATA_ROOT", &c.Data.Root)
	str("DATA_SPLIT", &c.Data.Split)
	str("FOG_BETA", &c.Data.FogBeta)
	str("OUTPUT_DIR", &c.OutputDir)
	str("HISTORY_PATH", &c.HistoryPath)
	str("ORT_LIBRARY", &c.Detector.Provider.SharedLibraryPath)
	str("LOG_LEVEL", &c.LogLevel)

	if v, ok := lookup(EnvPrefix + "BACKEND"); ok && v != "" {
		b, err := detectors.ParseBackend(v)
		if err != nil {
			return errors.Wrapf(ErrInvalidConfig, "%sBACKEND: %v", EnvPrefix, err)
		}
		c.Detector.Backend = b
	}
	if v, ok := lookup(EnvPrefix + "DEVICE"); ok && v != "" {
		d, err := providers.ParseDevice(v)
		if err != nil {
			return errors.Wrapf(ErrInvalidConfig, "%sDEVICE: %v", EnvPrefix, err)
		}
		c.Detector.Provider.Device = d
	}

	if v, ok := lookup(EnvPrefix + "SAMPLE_SIZE"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrapf(ErrInvalidConfig, "%sSAMPLE_SIZE: %v", EnvPrefix, err)
		}
		c.SampleSize = n
	}
	if v, ok := lookup(EnvPrefix + "SEED"); ok && v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return errors.Wrapf(ErrInvalidConfig, "%sSEED: %v", EnvPrefix, err)
		}
		c.Seed = n
	}

	for key, dst := range map[string]*float32{
		"SCORE_THRESHOLD": &c.ScoreThreshold,
		"IOU_THRESHOLD":   &c.IoUThreshold,
		"NMS_THRESHOLD":   &c.NMSThreshold,
	} {
		v, ok := lookup(EnvPrefix + key)
		if !ok || v == "" {
			continue
		}
		f, err := strconv.ParseFloat(v, 32)
		if err != nil {
			return errors.Wrapf(ErrInvalidConfig, "%s%s: %v", EnvPrefix, key, err)
		}
		*dst = float32(f)
	}

	return nil
}
