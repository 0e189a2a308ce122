package providers

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/pkg/errors"
)

// ErrLibraryNotFound is returned when the ONNX Runtime shared library is missing.
var ErrLibraryNotFound = errors.New("onnxruntime shared library not found")

// GetSharedLibPath returns the default path of the ONNX Runtime shared library
// for the current platform, relative to dir.
//
// Arguments:
//   - dir: The directory holding the third_party libraries.
//
// Returns:
//   - string: The path to the shared library.
//   - error: An error if the platform has no known library name.
func GetSharedLibPath(dir string) (string, error) {
	var name string
	switch runtime.GOOS {
	case "windows":
		name = "onnxruntime.dll"
	case "darwin":
		name = "libonnxruntime.dylib"
	case "linux":
		if runtime.GOARCH == "arm64" {
			name = "onnxruntime_arm64.so"
		} else {
			name = "onnxruntime.so"
		}
	default:
		return "", errors.Errorf("no onnxruntime library for %s/%s", runtime.GOOS, runtime.GOARCH)
	}
	return filepath.Join(dir, name), nil
}

// ResolveSharedLibPath returns path when set, else the platform default under
// ./third_party, and checks that the file exists.
func ResolveSharedLibPath(path string) (string, error) {
	if path == "" {
		var err error
		if path, err = GetSharedLibPath("third_party"); err != nil {
			return "", err
		}
	}
	if _, err := os.Stat(path); err != nil {
		return "", errors.Wrapf(ErrLibraryNotFound, "%s: %v", path, err)
	}
	return path, nil
}
