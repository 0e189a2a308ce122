package providers

// ProbeFunc reports whether a provider is usable.
type ProbeFunc func(ExecutionProvider) error

// Select resolves the configured device to an execution provider. An explicit
// device is returned as is and fails later if unusable. DeviceAuto probes CUDA
// and falls back to CPU when the probe fails.
//
// Arguments:
//   - config: The provider configuration.
//   - probe: Checks provider availability; Probe when nil.
//
// Returns:
//   - ExecutionProvider: The selected provider.
//   - error: An error if the device is unknown.
func Select(config Config, probe ProbeFunc) (ExecutionProvider, error) {
	if probe == nil {
		probe = Probe
	}

	device := config.Device
	if device == "" {
		device = DeviceAuto
	}
	if device != DeviceAuto {
		options, err := config.OptionsFor(device)
		if err != nil {
			return nil, err
		}
		return NewProvider(options)
	}

	cuda := NewCUDAProvider(config.CUDA)
	if err := probe(cuda); err == nil {
		return cuda, nil
	}
	return NewCPUProvider(config.CPU), nil
}

// DeviceOf maps a provider back to its device name.
func DeviceOf(provider ExecutionProvider) Device {
	if provider == nil {
		return ""
	}
	switch provider.Backend() {
	case CUDAProviderBackend:
		return DeviceCUDA
	case CoreMLProviderBackend:
		return DeviceCoreML
	case OpenVINOProviderBackend:
		return DeviceOpenVINO
	case CPUProviderBackend:
		return DeviceCPU
	default:
		return Device(provider.Backend())
	}
}
