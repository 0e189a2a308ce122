package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/nvr-ai/go-eval/config"
	"github.com/nvr-ai/go-eval/inference/providers"
	"github.com/nvr-ai/go-eval/store"
)

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &out
	noEnv := filepath.Join(t.TempDir(), "missing.env")
	err := app.Run(append([]string{"evaluate", "--env-file", noEnv}, args...))
	return out.String(), err
}

func TestConfigCommand(t *testing.T) {
	out, err := runApp(t, "config", "--sample-size", "7", "--device", "cpu", "--seed", "3", "--output", "runs")
	require.NoError(t, err)

	var cfg config.Config
	require.NoError(t, yaml.Unmarshal([]byte(out), &cfg))
	assert.Equal(t, 7, cfg.SampleSize)
	assert.Equal(t, uint64(3), cfg.Seed)
	assert.Equal(t, "runs", cfg.OutputDir)
	assert.Equal(t, providers.DeviceCPU, cfg.Detector.Provider.Device)
	assert.Equal(t, "experiments/faster_rcnn_cityscapes.onnx", cfg.Model.Path)
}

func TestConfigCommandInvalid(t *testing.T) {
	_, err := runApp(t, "config", "--device", "tpu")
	assert.True(t, errors.Is(err, config.ErrInvalidConfig))

	_, err = runApp(t, "config", "--sample-size", "0")
	assert.True(t, errors.Is(err, config.ErrInvalidConfig))
}

func TestHistoryCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	history, err := store.Open(path)
	require.NoError(t, err)
	_, err = history.RecordRun(context.Background(), &store.Run{
		Variant: "clear", Model: "model.onnx", Device: "cpu", Images: 50, HasMetrics: true, Average: 0.8125,
	}, nil)
	require.NoError(t, err)
	_, err = history.RecordRun(context.Background(), &store.Run{Variant: "foggy", Model: "model.onnx", Images: 50}, nil)
	require.NoError(t, err)
	require.NoError(t, history.Close())

	out, err := runApp(t, "history", "--history", path)
	require.NoError(t, err)
	assert.Contains(t, out, "AVERAGE IOU")
	assert.Contains(t, out, "0.8125")
	assert.Contains(t, out, "foggy")

	out, err = runApp(t, "history", "--history", path, "--variant", "foggy")
	require.NoError(t, err)
	assert.NotContains(t, out, "0.8125")
}

func TestHistoryCommandNoFile(t *testing.T) {
	t.Setenv("EVAL_HISTORY_PATH", "")
	_, err := runApp(t, "history")
	assert.True(t, errors.Is(err, config.ErrInvalidConfig))
}
