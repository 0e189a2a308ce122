package providers

import (
	"sync"

	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"
)

var (
	envMu   sync.Mutex
	envRefs int
)

// InitializeEnvironment loads the ONNX Runtime shared library and prepares the
// native environment. Calls are reference counted: the environment is created
// by the first call and destroyed when every caller has released it.
//
// Arguments:
//   - libPath: The path of the shared library. Empty selects the platform default.
//
// Returns:
//   - error: An error if the library is missing or the environment fails to start.
func InitializeEnvironment(libPath string) error {
	envMu.Lock()
	defer envMu.Unlock()

	if envRefs > 0 {
		envRefs++
		return nil
	}

	path, err := ResolveSharedLibPath(libPath)
	if err != nil {
		return err
	}
	ort.SetSharedLibraryPath(path)
	if err := ort.InitializeEnvironment(); err != nil {
		return errors.Wrap(err, "initialize onnxruntime environment")
	}
	envRefs = 1
	return nil
}

// ReleaseEnvironment drops one reference taken by InitializeEnvironment and
// destroys the native environment with the last one.
func ReleaseEnvironment() error {
	envMu.Lock()
	defer envMu.Unlock()

	if envRefs == 0 {
		return nil
	}
	envRefs--
	if envRefs > 0 {
		return nil
	}
	if err := ort.DestroyEnvironment(); err != nil {
		return errors.Wrap(err, "destroy onnxruntime environment")
	}
	return nil
}

// NewSessionOptions creates session options tuned by optimization with the
// execution provider appended. The caller owns the options and must Destroy them.
//
// Arguments:
//   - provider: The execution provider for the session.
//   - optimization: The threading and memory settings.
//
// Returns:
//   - *ort.SessionOptions: The configured options.
//   - error: An error if the options cannot be created or the provider is unavailable.
func NewSessionOptions(provider ExecutionProvider, optimization OptimizationConfig) (*ort.SessionOptions, error) {
	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, errors.Wrap(err, "create session options")
	}
	if err := optimization.Apply(options); err != nil {
		options.Destroy()
		return nil, err
	}
	if err := provider.Append(options); err != nil {
		options.Destroy()
		return nil, errors.Wrapf(err, "append %s provider", provider.Backend())
	}
	return options, nil
}

// Probe reports whether provider can be appended to a session with the
// currently loaded ONNX Runtime library. The environment must be initialised.
func Probe(provider ExecutionProvider) error {
	options, err := NewSessionOptions(provider, OptimizationConfig{})
	if err != nil {
		return err
	}
	return options.Destroy()
}
