package providers

import (
	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"
)

const (
	// CoreMLProviderBackend uses Apple CoreML for macOS acceleration.
	CoreMLProviderBackend ProviderBackend = "coreml"
)

// CoreML flags, see coreml_provider_factory.h.
const (
	coreMLFlagUseCPUOnly        uint32 = 0x001
	coreMLFlagEnableOnSubgraphs uint32 = 0x002
	coreMLFlagOnlyStaticShapes  uint32 = 0x008
	coreMLFlagCreateMLProgram   uint32 = 0x010
	coreMLFlagUseCPUAndGPU      uint32 = 0x020
)

// CoreMLProvider implements the ExecutionProvider interface.
type CoreMLProvider struct {
	options CoreMLOptions
}

// CoreMLOptions contains arguments for the CoreML provider.
// See: https://onnxruntime.ai/docs/execution-providers/CoreML-ExecutionProvider.html
type CoreMLOptions struct {
	// Create an MLProgram format model instead of a NeuralNetwork (Core ML 5+).
	MLProgram bool `json:"mlProgram" yaml:"mlProgram"`
	// Limit CoreML to running on CPU only.
	CPUOnly bool `json:"cpuOnly" yaml:"cpuOnly"`
	// Restrict CoreML to CPU and GPU, skipping the Neural Engine.
	CPUAndGPU bool `json:"cpuAndGPU" yaml:"cpuAndGPU"`
	// Only allow nodes with static input shapes.
	RequireStaticInputShapes bool `json:"requireStaticInputShapes" yaml:"requireStaticInputShapes"`
	// Allow CoreML inside control flow subgraphs.
	EnableOnSubgraphs bool `json:"enableOnSubgraphs" yaml:"enableOnSubgraphs"`
}

func (CoreMLOptions) isProviderOptions() {}

// Flags returns the CoreML provider flag bitmask.
func (o CoreMLOptions) Flags() uint32 {
	var flags uint32
	if o.CPUOnly {
		flags |= coreMLFlagUseCPUOnly
	}
	if o.CPUAndGPU {
		flags |= coreMLFlagUseCPUAndGPU
	}
	if o.MLProgram {
		flags |= coreMLFlagCreateMLProgram
	}
	if o.RequireStaticInputShapes {
		flags |= coreMLFlagOnlyStaticShapes
	}
	if o.EnableOnSubgraphs {
		flags |= coreMLFlagEnableOnSubgraphs
	}
	return flags
}

// Backend returns the backend of the CoreML provider.
func (p *CoreMLProvider) Backend() ProviderBackend {
	return CoreMLProviderBackend
}

// Options returns the options of the CoreML provider.
func (p *CoreMLProvider) Options() ProviderOptions {
	return p.options
}

// Append registers CoreML on the session options.
func (p *CoreMLProvider) Append(options *ort.SessionOptions) error {
	if err := options.AppendExecutionProviderCoreML(p.options.Flags()); err != nil {
		return errors.Wrap(err, "enable CoreML")
	}
	return nil
}

// NewCoreMLProvider creates a new CoreML provider.
func NewCoreMLProvider(options CoreMLOptions) *CoreMLProvider {
	return &CoreMLProvider{
		options: options,
	}
}
