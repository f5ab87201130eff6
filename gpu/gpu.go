// Package gpu defines the boundary types between the VRS injector core and
// the host application's graphics stack.
//
// Two kinds of interfaces live here:
//
//   - Generation-side interfaces (Device, Timeline, Texture) are implemented
//     by the backends under backend/. They own the dedicated GPU timeline on
//     which shading rate maps are generated, away from the application's
//     rendering queue.
//
//   - Host-side interfaces (CommandList, Queue, Swapchain) are implemented by
//     the interception layer around the real graphics API. The core never
//     creates these; it only receives them at its three entry points.
//
// Completion of generation work is expressed as a monotonically increasing
// fence value (the completion marker). Work submitted with marker N is known
// finished once Timeline.IsComplete(N) reports true; until then, consuming
// queues must insert a GPU-side wait via Queue.WaitFence.
package gpu

import "math"

// TiledResolution is a resolution expressed in shading rate tile units.
// It is an immutable value type; equality is exact integer equality, which
// makes it usable as a map key.
type TiledResolution struct {
	Width  uint32
	Height uint32
}

// Tiles returns the total number of tiles covered by the resolution.
func (r TiledResolution) Tiles() int {
	return int(r.Width) * int(r.Height)
}

// TiledResolutionFor converts a viewport size in pixels to a resolution in
// tile units, rounding up to whole tiles. The small epsilon counters float
// representation of integral viewport sizes (1920 stored as 1919.999...).
// tileSize must be a power of two, as guaranteed by all shading rate tiers.
func TiledResolutionFor(vpWidth, vpHeight float32, tileSize uint32) TiledResolution {
	return TiledResolution{
		Width:  alignUp(uint32(float64(vpWidth)+epsilon), tileSize) / tileSize,
		Height: alignUp(uint32(float64(vpHeight)+epsilon), tileSize) / tileSize,
	}
}

var epsilon = math.Nextafter(1, 2) - 1

func alignUp(v, pad uint32) uint32 {
	return (v + pad - 1) &^ (pad - 1)
}

// ShadingRate encodes a per-tile shading density class. The values follow
// the D3D12_SHADING_RATE encoding (AxB packed as (log2(A)<<2)|log2(B)),
// which is what shading rate map texels carry on the wire.
type ShadingRate uint8

const (
	Rate1x1 ShadingRate = 0x0
	Rate1x2 ShadingRate = 0x1
	Rate2x1 ShadingRate = 0x4
	Rate2x2 ShadingRate = 0x5
	Rate2x4 ShadingRate = 0x6
	Rate4x2 ShadingRate = 0x9
	Rate4x4 ShadingRate = 0xA
)

// Rates groups the three shading rate classes used by the foveation pattern.
type Rates struct {
	// Full is applied inside the inner ring (the foveal zone).
	Full ShadingRate
	// Medium is applied between the inner and outer rings.
	Medium ShadingRate
	// Coarse is applied outside the outer ring (the periphery).
	Coarse ShadingRate
}

// DefaultRates returns the standard full/medium/coarse progression.
func DefaultRates() Rates {
	return Rates{Full: Rate1x1, Medium: Rate2x2, Coarse: Rate4x4}
}

// MapParams are the resolved inputs of one shading rate map generation, all
// in tile units. They are derived from the normalized gaze point and head
// distance by pattern.ParamsFor and consumed verbatim by the generation
// shader (or its CPU equivalent).
type MapParams struct {
	// CenterX, CenterY locate the foveal center on the tile grid.
	CenterX float32
	CenterY float32

	// InnerRing and OuterRing are the ring radii in tiles. Tiles inside
	// InnerRing shade at Rates.Full, tiles inside OuterRing at Rates.Medium,
	// all others at Rates.Coarse.
	InnerRing float32
	OuterRing float32

	Rates Rates
}

// Capabilities describes the device's variable rate shading support.
type Capabilities struct {
	// ShadingRateTier is the supported VRS tier. Image-based shading rates
	// require tier 2.
	ShadingRateTier uint32

	// TileSize is the screen tile edge length in pixels covered by one
	// shading rate map texel, typically 8 or 16.
	TileSize uint32
}

// Supported reports whether the device can consume shading rate map images.
func (c Capabilities) Supported() bool {
	return c.ShadingRateTier >= 2 && c.TileSize >= 2
}

// Texture is a GPU shading rate map texture, one byte per tile.
type Texture interface {
	// Resolution returns the texture size in tiles.
	Resolution() TiledResolution

	// Destroy releases the GPU resources backing the texture.
	Destroy()
}

// Fence identifies the generation timeline's GPU fence. The core treats it
// as opaque and only hands it to Queue.WaitFence; host queue implementations
// assert it back to the backend's concrete type.
type Fence interface{}

// Timeline is the dedicated GPU timeline on which shading rate maps are
// generated. Generation is issued synchronously but completes asynchronously;
// progress is observable through monotonically increasing completion markers.
//
// Implementations must make IsComplete a non-blocking poll: callers invoke it
// while holding cache locks and must never stall on the GPU there.
type Timeline interface {
	// CreateMapTexture allocates a texture sized to res, one byte per tile,
	// writable by the generation work and bindable as a shading rate image.
	CreateMapTexture(res TiledResolution) (Texture, error)

	// GenerateMap issues GPU work that (re)populates tex with the pattern
	// described by p. It returns the completion marker for that work.
	GenerateMap(tex Texture, p MapParams) (uint64, error)

	// IsComplete reports whether the work identified by marker has finished
	// on the GPU. Non-blocking.
	IsComplete(marker uint64) bool

	// Fence returns the timeline's fence for use with Queue.WaitFence.
	Fence() Fence

	// Destroy releases the timeline and its pipeline resources. Textures
	// created by the timeline are owned by their callers and released
	// separately.
	Destroy()
}

// Device is the generation-side view of a GPU device.
type Device interface {
	Capabilities() Capabilities

	// NewTimeline creates a generation timeline, separate from the
	// application's rendering queues so that map generation never blocks
	// frame submission.
	NewTimeline(label string) (Timeline, error)
}

// CommandList is the host's handle to a command list under recording.
// Implementations must be comparable (pointer types are); the core uses them
// as dependency map keys, mirroring how the interception layer sees one
// stable object identity per native command list.
type CommandList interface {
	// Device returns the device the command list was created on.
	Device() Device

	// SetShadingRateImage binds tex as the command list's shading rate
	// source for subsequent draws. The host should also set the per-draw
	// base rate to 1x1 with MAX combiners so the coarsest source wins.
	SetShadingRateImage(tex Texture)

	// ClearShadingRateImage restores full-rate shading for subsequent draws.
	ClearShadingRateImage()
}

// Queue is the host's handle to a submission queue.
type Queue interface {
	// Device returns the device the queue belongs to.
	Device() Device

	// WaitFence inserts a GPU-side wait into the queue's command stream:
	// work submitted after the call must not begin executing until the
	// fence reaches value. The call itself must not block the CPU.
	WaitFence(f Fence, value uint64)
}

// WindowID identifies the native window a swapchain presents to.
type WindowID uint64

// Swapchain is the host's handle to a swapchain at present time.
type Swapchain interface {
	// Device returns the presenting device. ok is false when the swapchain
	// cannot surface one (hybrid-API presentation paths); the injector
	// skips such presents.
	Device() (dev Device, ok bool)

	// Extent returns the present resolution in pixels.
	Extent() (width, height uint32)

	// Window returns the presenting window, when one is known. Gaze
	// tracking attaches to this window.
	Window() (win WindowID, ok bool)
}
