package providers

import (
	"strings"

	"github.com/pkg/errors"
)

// Device names the hardware inference runs on.
type Device string

const (
	// DeviceAuto picks CUDA when it is usable and falls back to CPU.
	DeviceAuto Device = "auto"
	// DeviceCPU runs on the CPU.
	DeviceCPU Device = "cpu"
	// DeviceCUDA runs on an NVIDIA GPU.
	DeviceCUDA Device = "cuda"
	// DeviceCoreML runs through Apple CoreML.
	DeviceCoreML Device = "coreml"
	// DeviceOpenVINO runs through Intel OpenVINO.
	DeviceOpenVINO Device = "openvino"
)

// ErrUnknownDevice is returned by ParseDevice for unsupported names.
var ErrUnknownDevice = errors.New("unknown device")

// ParseDevice parses a device name, case-insensitively. Empty means auto.
func ParseDevice(s string) (Device, error) {
	switch d := Device(strings.ToLower(strings.TrimSpace(s))); d {
	case "":
		return DeviceAuto, nil
	case DeviceAuto, DeviceCPU, DeviceCUDA, DeviceCoreML, DeviceOpenVINO:
		return d, nil
	default:
		return "", errors.Wrapf(ErrUnknownDevice, "%q", s)
	}
}

// Config selects and tunes the execution provider.
type Config struct {
	// Device is the requested device.
	Device Device `json:"device" yaml:"device"`
	// SharedLibraryPath is the ONNX Runtime library. Empty selects the platform default.
	SharedLibraryPath string `json:"shared_library_path" yaml:"shared_library_path"`

	CPU      CPUOptions      `json:"cpu" yaml:"cpu"`
	CUDA     CUDAOptions     `json:"cuda" yaml:"cuda"`
	CoreML   CoreMLOptions   `json:"coreml" yaml:"coreml"`
	OpenVINO OpenVINOOptions `json:"openvino" yaml:"openvino"`

	Optimization OptimizationConfig `json:"optimization" yaml:"optimization"`
}

// DefaultConfig returns a configuration that prefers CUDA and falls back to CPU.
//
// @example
// config := DefaultConfig()
// config.Device = DeviceCPU
func DefaultConfig() Config {
	return Config{
		Device:       DeviceAuto,
		CPU:          CPUOptions{EnableMemArena: true},
		CUDA:         CUDAOptions{DoCopyInDefaultStream: true},
		Optimization: DefaultOptimizationConfig(),
	}
}

// OptionsFor returns the provider options configured for device.
func (c Config) OptionsFor(device Device) (ProviderOptions, error) {
	switch device {
	case DeviceCPU:
		return c.CPU, nil
	case DeviceCUDA:
		return c.CUDA, nil
	case DeviceCoreML:
		return c.CoreML, nil
	case DeviceOpenVINO:
		return c.OpenVINO, nil
	default:
		return nil, errors.Wrapf(ErrUnknownDevice, "%q", device)
	}
}
