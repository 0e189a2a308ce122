package detectors

import (
	"context"
	"image"
	"sync"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"github.com/nvr-ai/go-eval/inference/providers"
	"github.com/nvr-ai/go-eval/models/model"
	"github.com/nvr-ai/go-eval/models/postprocess"
)

// netDetector runs a model through OpenCV DNN (gocv.ReadNet).
type netDetector struct {
	mu     sync.Mutex
	net    gocv.Net
	model  model.Model
	config Config
	output string
}

// netTarget maps a device to the OpenCV DNN backend and target. Auto stays on
// the CPU since OpenCV offers no cheap way to probe for CUDA support.
func netTarget(device providers.Device) (gocv.NetBackendType, gocv.NetTargetType, error) {
	switch device {
	case providers.DeviceAuto, providers.DeviceCPU, "":
		return gocv.NetBackendOpenCV, gocv.NetTargetCPU, nil
	case providers.DeviceCUDA:
		return gocv.NetBackendCUDA, gocv.NetTargetCUDA, nil
	case providers.DeviceOpenVINO:
		return gocv.NetBackendOpenVINO, gocv.NetTargetCPU, nil
	default:
		return 0, 0, errors.Errorf("device %q is not supported by the opencv backend", device)
	}
}

func newNetDetector(device providers.Device, m model.Model, cfg Config) (*netDetector, error) {
	backend, target, err := netTarget(device)
	if err != nil {
		return nil, err
	}

	opts := m.Options()
	net := gocv.ReadNet(opts.Path, cfg.NetConfigPath)
	if net.Empty() {
		return nil, errors.Errorf("failed to load %s (model may be incompatible with OpenCV DNN)", opts.Path)
	}
	net.SetPreferableBackend(backend)
	net.SetPreferableTarget(target)

	var output string
	if len(opts.Outputs) > 0 {
		output = opts.Outputs[0]
	}
	return &netDetector{net: net, model: m, config: cfg, output: output}, nil
}

// Detect runs the network on img.
func (d *netDetector) Detect(ctx context.Context, img image.Image) ([]postprocess.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, errors.Wrap(err, "convert image")
	}
	defer mat.Close()

	frame := img.Bounds().Size()
	size := d.model.Options().InputShape
	if size.X <= 0 || size.Y <= 0 {
		size = frame
	}

	blob := gocv.BlobFromImage(mat, d.config.BlobScale, size, gocv.NewScalar(0, 0, 0, 0), d.config.SwapRB, false)
	defer blob.Close()

	d.mu.Lock()
	d.net.SetInput(blob, "")
	out := d.net.Forward(d.output)
	d.mu.Unlock()
	defer out.Close()

	if out.Empty() {
		return nil, errors.New("opencv inference returned empty output")
	}
	data, err := out.DataPtrFloat32()
	if err != nil {
		return nil, errors.Wrap(err, "read output blob")
	}
	// The blob memory is released with the Mat.
	packed := make([]float32, len(data))
	copy(packed, data)

	cfg := d.config.decodeConfig()
	cfg.Frame = frame
	return d.model.PostProcess(packed, &cfg), nil
}

// Close releases the network.
func (d *netDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.net.Close()
}
