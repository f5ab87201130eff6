// Package wgpu generates shading rate maps on the GPU through the gogpu/wgpu
// HAL: a compute dispatch per map on a dedicated fenced timeline. The host
// shares its device through a gpucontext provider that exposes HAL handles.
package wgpu

import (
	"fmt"

	"github.com/gogpu/wgpu/hal"
	"github.com/mbucchia/vrsinject/backend"
	"github.com/mbucchia/vrsinject/gpu"
)

func init() {
	backend.Register(backend.BackendWGPU, New)
}

// defaultCapabilities is assumed when the host gives no override. WebGPU has
// no shading rate feature query; hosts that know the native values pass them
// through backend.Config.Capabilities.
var defaultCapabilities = gpu.Capabilities{ShadingRateTier: 2, TileSize: 16}

// New creates a wgpu device from the host configuration. HAL handles come
// from Config.HALDevice/HALQueue when set; otherwise the provider must
// implement HalDevice() any and HalQueue() any returning hal.Device and
// hal.Queue, the convention gogpu hosts follow for sharing their device.
func New(cfg backend.Config) (gpu.Device, error) {
	rawDevice, rawQueue := cfg.HALDevice, cfg.HALQueue
	if rawDevice == nil || rawQueue == nil {
		type halProvider interface {
			HalDevice() any
			HalQueue() any
		}
		hp, ok := cfg.Provider.(halProvider)
		if !ok {
			return nil, fmt.Errorf("wgpu: provider does not expose HAL types")
		}
		rawDevice, rawQueue = hp.HalDevice(), hp.HalQueue()
	}
	device, ok := rawDevice.(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("wgpu: host device is not hal.Device")
	}
	queue, ok := rawQueue.(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("wgpu: host queue is not hal.Queue")
	}

	caps := defaultCapabilities
	if cfg.Capabilities != nil {
		caps = *cfg.Capabilities
	}
	return &Device{device: device, queue: queue, caps: caps}, nil
}

// Device is a gpu.Device backed by a shared HAL device.
type Device struct {
	device hal.Device
	queue  hal.Queue
	caps   gpu.Capabilities
}

// Capabilities implements gpu.Device.
func (d *Device) Capabilities() gpu.Capabilities { return d.caps }

// NewTimeline implements gpu.Device.
func (d *Device) NewTimeline(label string) (gpu.Timeline, error) {
	return newTimeline(d.device, d.queue, label)
}

// HAL returns the underlying HAL device.
func (d *Device) HAL() hal.Device { return d.device }
