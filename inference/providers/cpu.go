package providers

import ort "github.com/yalue/onnxruntime_go"

const (
	// CPUProviderBackend runs inference on the default CPU provider.
	CPUProviderBackend ProviderBackend = "cpu"
)

// CPUOptions contains arguments for the CPU provider.
type CPUOptions struct {
	// Use the CPU memory arena allocator.
	EnableMemArena bool `json:"enableMemArena" yaml:"enableMemArena"`
}

func (CPUOptions) isProviderOptions() {}

// CPUProvider implements the ExecutionProvider interface.
type CPUProvider struct {
	options CPUOptions
}

// Backend returns the backend of the CPU provider.
func (p *CPUProvider) Backend() ProviderBackend {
	return CPUProviderBackend
}

// Options returns the options of the CPU provider.
func (p *CPUProvider) Options() ProviderOptions {
	return p.options
}

// Append configures the CPU allocator. ONNX Runtime always falls back to the
// CPU provider, so nothing is registered.
func (p *CPUProvider) Append(options *ort.SessionOptions) error {
	return options.SetCpuMemArena(p.options.EnableMemArena)
}

// NewCPUProvider creates a new CPU provider.
func NewCPUProvider(options CPUOptions) *CPUProvider {
	return &CPUProvider{options: options}
}
