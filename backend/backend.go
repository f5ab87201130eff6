// Package backend hosts the registry of map generation backends. A backend
// adapts a concrete GPU stack to the gpu.Device interface; the wgpu backend
// generates maps with a compute shader, the software backend renders them on
// the CPU for devices and tests without compute access.
package backend

import (
	"errors"

	"github.com/gogpu/gpucontext"
	"github.com/mbucchia/vrsinject/gpu"
)

// Well-known backend names. Backends self-register from their package init.
const (
	// BackendWGPU generates maps with a compute dispatch through gogpu/wgpu.
	BackendWGPU = "wgpu"
	// BackendSoftware renders maps on the CPU and uploads them.
	BackendSoftware = "software"
)

// ErrBackendNotAvailable is returned when a requested backend is not
// registered in this build.
var ErrBackendNotAvailable = errors.New("backend not available")

// Config carries everything a factory may need to adopt the host's device.
// Fields a given backend does not use are ignored.
type Config struct {
	// Provider exposes the host's device and queue. The wgpu backend
	// requires a provider whose concrete type surfaces hal handles.
	Provider gpucontext.DeviceProvider

	// HALDevice and HALQueue pass hal handles directly, for hosts that
	// have no gpucontext provider. They take precedence over Provider.
	HALDevice any
	HALQueue  any

	// Capabilities, when non-nil, overrides the detected variable rate
	// shading capabilities. Hosts that query the native API pass the real
	// values here; WebGPU itself has no VRS feature query.
	Capabilities *gpu.Capabilities
}

// Factory creates a backend device from the host configuration.
type Factory func(Config) (gpu.Device, error)
