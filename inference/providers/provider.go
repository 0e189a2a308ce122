// Package providers - Execution providers for ONNX Runtime sessions.
package providers

import (
	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"
)

// ProviderBackend represents different ONNX Runtime execution providers
type ProviderBackend string

// ProviderOptions is a marker interface for provider-specific config.
type ProviderOptions interface {
	isProviderOptions()
}

// ExecutionProvider represents the contract that all execution providers must implement.
type ExecutionProvider interface {
	Backend() ProviderBackend
	Options() ProviderOptions
	// Append registers the provider on the session options. CPU is always
	// available and appends nothing.
	Append(options *ort.SessionOptions) error
}

// NewProvider creates a new provider based on the type of its options.
//
// Arguments:
//   - options: The options for the provider.
//
// Returns:
//   - ExecutionProvider: The new provider.
//   - error: An error if the options type is not supported.
func NewProvider(options ProviderOptions) (ExecutionProvider, error) {
	switch opts := options.(type) {
	case CPUOptions:
		return NewCPUProvider(opts), nil
	case CUDAOptions:
		return NewCUDAProvider(opts), nil
	case CoreMLOptions:
		return NewCoreMLProvider(opts), nil
	case OpenVINOOptions:
		return NewOpenVINOProvider(opts), nil
	default:
		return nil, errors.Errorf("unsupported provider options type: %T", opts)
	}
}
