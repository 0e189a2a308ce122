package providers

import (
	"strconv"

	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/nvr-ai/go-eval/models/model"
)

const (
	// OpenVINOProviderBackend uses Intel OpenVINO for inference optimization.
	OpenVINOProviderBackend ProviderBackend = "openvino"
)

// OpenVINOProvider implements the ExecutionProvider interface.
type OpenVINOProvider struct {
	options OpenVINOOptions
}

// OpenVINOOptions contains arguments for the OpenVINO provider.
// See:
// https://onnxruntime.ai/docs/execution-providers/OpenVINO-ExecutionProvider.html#summary-of-options
type OpenVINOOptions struct {
	// Overrides the accelerator hardware type (CPU, GPU, NPU) at runtime.
	DeviceType string `json:"deviceType" yaml:"deviceType"`
	// Supported precisions for HW {CPU:FP32, GPU:[FP32, FP16, ACCURACY], NPU:FP16}.
	Precision model.Precision `json:"precision" yaml:"precision"`
	// Overrides the accelerator default number of threads. Zero keeps the default.
	NumOfThreads int `json:"numOfThreads" yaml:"numOfThreads"`
	// Overrides the accelerator default streams. Zero keeps the default.
	NumStreams int `json:"numStreams" yaml:"numStreams"`
	// Directory used to cache compiled blobs.
	CacheDir string `json:"cacheDir" yaml:"cacheDir"`
	// Rewrite dynamic shaped models to static shape at runtime.
	DisableDynamicShapes bool `json:"disableDynamicShapes" yaml:"disableDynamicShapes"`
}

// isProviderOptions is a marker function to ensure the options are valid.
func (OpenVINOOptions) isProviderOptions() {}

// Settings returns the provider options in the key/value form ONNX Runtime expects.
func (o OpenVINOOptions) Settings() map[string]string {
	settings := map[string]string{
		"disable_dynamic_shapes": strconv.FormatBool(o.DisableDynamicShapes),
	}
	if o.DeviceType != "" {
		settings["device_type"] = o.DeviceType
	}
	if o.Precision != "" {
		settings["precision"] = string(o.Precision)
	}
	if o.NumOfThreads > 0 {
		settings["num_of_threads"] = strconv.Itoa(o.NumOfThreads)
	}
	if o.NumStreams > 0 {
		settings["num_streams"] = strconv.Itoa(o.NumStreams)
	}
	if o.CacheDir != "" {
		settings["cache_dir"] = o.CacheDir
	}
	return settings
}

// Backend returns the backend of the OpenVINO provider.
func (p *OpenVINOProvider) Backend() ProviderBackend {
	return OpenVINOProviderBackend
}

// Options returns the options of the OpenVINO provider.
func (p *OpenVINOProvider) Options() ProviderOptions {
	return p.options
}

// Append registers OpenVINO on the session options.
func (p *OpenVINOProvider) Append(options *ort.SessionOptions) error {
	if err := options.AppendExecutionProviderOpenVINO(p.options.Settings()); err != nil {
		return errors.Wrap(err, "enable OpenVINO")
	}
	return nil
}

// NewOpenVINOProvider creates a new OpenVINO provider.
func NewOpenVINOProvider(args OpenVINOOptions) *OpenVINOProvider {
	return &OpenVINOProvider{options: args}
}
