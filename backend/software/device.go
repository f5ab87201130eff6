// Package software is the CPU fallback backend: shading rate maps are
// rasterized in memory and completion is immediate. It serves hosts that
// upload maps themselves, headless tests, and the demo tool.
package software

import (
	"sync"

	"github.com/mbucchia/vrsinject/backend"
	"github.com/mbucchia/vrsinject/gpu"
	"github.com/mbucchia/vrsinject/pattern"
)

func init() {
	backend.Register(backend.BackendSoftware, New)
}

// New creates a software device. It adopts any configuration; when no
// capability override is given it reports tier 2 with 16 pixel tiles so the
// manager runs its full path.
func New(cfg backend.Config) (gpu.Device, error) {
	caps := gpu.Capabilities{ShadingRateTier: 2, TileSize: 16}
	if cfg.Capabilities != nil {
		caps = *cfg.Capabilities
	}
	return &Device{caps: caps}, nil
}

// Device is a CPU-backed gpu.Device.
type Device struct {
	caps gpu.Capabilities
}

// Capabilities implements gpu.Device.
func (d *Device) Capabilities() gpu.Capabilities { return d.caps }

// NewTimeline implements gpu.Device.
func (d *Device) NewTimeline(label string) (gpu.Timeline, error) {
	return &Timeline{label: label}, nil
}

// Timeline generates maps synchronously on the calling goroutine, so every
// marker is complete the moment GenerateMap returns.
type Timeline struct {
	label string

	mu        sync.Mutex
	submitted uint64
}

// CreateMapTexture implements gpu.Timeline.
func (t *Timeline) CreateMapTexture(res gpu.TiledResolution) (gpu.Texture, error) {
	return &Texture{res: res, data: make([]byte, res.Tiles())}, nil
}

// GenerateMap implements gpu.Timeline.
func (t *Timeline) GenerateMap(tex gpu.Texture, p gpu.MapParams) (uint64, error) {
	st := tex.(*Texture)

	st.mu.Lock()
	copy(st.data, pattern.Render(st.res, p))
	st.mu.Unlock()

	t.mu.Lock()
	t.submitted++
	marker := t.submitted
	t.mu.Unlock()
	return marker, nil
}

// IsComplete implements gpu.Timeline. Generation is synchronous, so any
// issued marker is complete.
func (t *Timeline) IsComplete(marker uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return marker <= t.submitted
}

// Fence implements gpu.Timeline. The software timeline has no GPU fence;
// it returns itself as an inert handle. Hosts never need to wait on it
// because every marker completes before Enable returns.
func (t *Timeline) Fence() gpu.Fence { return t }

// Destroy implements gpu.Timeline.
func (t *Timeline) Destroy() {}

// Texture is an in-memory shading rate map.
type Texture struct {
	res gpu.TiledResolution

	mu   sync.Mutex
	data []byte
}

// Resolution implements gpu.Texture.
func (t *Texture) Resolution() gpu.TiledResolution { return t.res }

// Destroy implements gpu.Texture.
func (t *Texture) Destroy() {}

// Bytes returns a copy of the map contents, row-major, one rate byte per
// tile. Hosts use it to upload the map to their own GPU resources.
func (t *Texture) Bytes() []byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]byte, len(t.data))
	copy(out, t.data)
	return out
}

// At returns the shading rate of the tile at (x, y).
func (t *Texture) At(x, y uint32) gpu.ShadingRate {
	t.mu.Lock()
	defer t.mu.Unlock()
	return gpu.ShadingRate(t.data[y*t.res.Width+x])
}
