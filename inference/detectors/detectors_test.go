package detectors

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"github.com/nvr-ai/go-eval/inference/providers"
	"github.com/nvr-ai/go-eval/models/fasterrcnn"
	"github.com/nvr-ai/go-eval/models/model"
)

func TestPrepareInput_NativeSize(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 2))
	img.Set(1, 0, color.RGBA{R: 255, G: 0, B: 51, A: 255})

	input := PrepareInput(img, image.Point{})
	assert.Equal(t, image.Point{X: 4, Y: 2}, input.Size)
	assert.Equal(t, float32(1), input.ScaleX)
	assert.Equal(t, float32(1), input.ScaleY)
	require.Len(t, input.Data, 3*8)

	// planes are R, G, B; pixel (1,0) has index 1 in each plane
	assert.InDelta(t, 1.0, input.Data[1], 1e-6)
	assert.InDelta(t, 0.0, input.Data[8+1], 1e-6)
	assert.InDelta(t, 0.2, input.Data[16+1], 1e-6)
}

func TestPrepareInput_Resize(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 200, 100))
	for y := 0; y < 100; y++ {
		for x := 0; x < 200; x++ {
			img.Set(x, y, color.RGBA{R: 128, G: 128, B: 128, A: 255})
		}
	}

	input := PrepareInput(img, image.Point{X: 50, Y: 50})
	assert.Equal(t, image.Point{X: 50, Y: 50}, input.Size)
	assert.Equal(t, float32(4), input.ScaleX)
	assert.Equal(t, float32(2), input.ScaleY)
	require.Len(t, input.Data, 3*50*50)
	for _, v := range input.Data {
		assert.GreaterOrEqual(t, v, float32(0))
		assert.LessOrEqual(t, v, float32(1))
	}
	assert.InDelta(t, 128.0/255.0, input.Data[25*50+25], 0.01)
}

func TestPrepareInput_OffsetBounds(t *testing.T) {
	img := image.NewRGBA(image.Rect(10, 10, 12, 11))
	img.Set(11, 10, color.RGBA{G: 255, A: 255})

	input := PrepareInput(img, image.Point{})
	assert.Equal(t, image.Point{X: 2, Y: 1}, input.Size)
	assert.InDelta(t, 1.0, input.Data[2+1], 1e-6)
}

func TestParseBackend(t *testing.T) {
	b, err := ParseBackend("")
	require.NoError(t, err)
	assert.Equal(t, BackendONNX, b)

	b, err = ParseBackend("OpenCV")
	require.NoError(t, err)
	assert.Equal(t, BackendOpenCV, b)

	_, err = ParseBackend("tflite")
	assert.True(t, errors.Is(err, ErrUnknownBackend))
}

func TestNetTarget(t *testing.T) {
	backend, target, err := netTarget(providers.DeviceAuto)
	require.NoError(t, err)
	assert.Equal(t, gocv.NetBackendOpenCV, backend)
	assert.Equal(t, gocv.NetTargetCPU, target)

	backend, target, err = netTarget(providers.DeviceCUDA)
	require.NoError(t, err)
	assert.Equal(t, gocv.NetBackendCUDA, backend)
	assert.Equal(t, gocv.NetTargetCUDA, target)

	_, _, err = netTarget(providers.DeviceCoreML)
	assert.Error(t, err)
}

func TestNewDetector_MissingModel(t *testing.T) {
	m, err := fasterrcnn.NewModel(model.NewModelArgs{Path: filepath.Join(t.TempDir(), "missing.onnx")})
	require.NoError(t, err)

	_, err = NewDetector(providers.NewCPUProvider(providers.CPUOptions{}), m, DefaultConfig())
	assert.True(t, errors.Is(err, ErrModelNotFound))

	empty := filepath.Join(t.TempDir(), "empty.onnx")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	m, err = fasterrcnn.NewModel(model.NewModelArgs{Path: empty})
	require.NoError(t, err)

	_, err = NewDetector(providers.NewCPUProvider(providers.CPUOptions{}), m, DefaultConfig())
	assert.True(t, errors.Is(err, ErrModelNotFound))
}
