package providers

import (
	"runtime"

	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"
)

// OptimizationConfig contains the ONNX Runtime session tuning knobs.
type OptimizationConfig struct {
	// IntraOpNumThreads sets threads for parallelizing ops. Zero lets ONNX Runtime decide.
	IntraOpNumThreads int `json:"intra_op_num_threads" yaml:"intra_op_num_threads"`
	// InterOpNumThreads sets threads for parallelizing independent ops.
	InterOpNumThreads int `json:"inter_op_num_threads" yaml:"inter_op_num_threads"`
	// EnableMemoryPattern enables memory pattern optimization.
	EnableMemoryPattern bool `json:"enable_memory_pattern" yaml:"enable_memory_pattern"`
}

// DefaultOptimizationConfig returns the configuration used for evaluation runs:
// half the cores for a single image at a time.
func DefaultOptimizationConfig() OptimizationConfig {
	return OptimizationConfig{
		IntraOpNumThreads:   max(1, runtime.NumCPU()/2),
		InterOpNumThreads:   1,
		EnableMemoryPattern: true,
	}
}

// Apply writes the configuration onto session options.
func (c OptimizationConfig) Apply(options *ort.SessionOptions) error {
	if err := options.SetIntraOpNumThreads(c.IntraOpNumThreads); err != nil {
		return errors.Wrap(err, "set intra-op threads")
	}
	if err := options.SetInterOpNumThreads(c.InterOpNumThreads); err != nil {
		return errors.Wrap(err, "set inter-op threads")
	}
	if err := options.SetMemPattern(c.EnableMemoryPattern); err != nil {
		return errors.Wrap(err, "set memory pattern")
	}
	return nil
}
