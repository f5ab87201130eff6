// Package vrs implements the per-device shading rate manager: a cache of
// shading rate map textures keyed by tiled resolution, the generation
// counter that invalidates them when the gaze moves, and the command list
// dependency tracking that keeps consuming queues behind map generation.
package vrs

import (
	"fmt"
	"sync/atomic"

	"github.com/mbucchia/vrsinject/cache"
	"github.com/mbucchia/vrsinject/gaze"
	"github.com/mbucchia/vrsinject/gpu"
	"github.com/mbucchia/vrsinject/pattern"
)

// DefaultEvictionAge is how many presents a cache entry survives unused
// before its sweep evicts it.
const DefaultEvictionAge = 100

// shadingRateMap is one cached map texture. generation records the gaze
// generation the texture content reflects; marker is the completion marker
// of the last generation pass that wrote it.
type shadingRateMap struct {
	texture    gpu.Texture
	generation uint64
	marker     uint64
}

// Manager owns the shading rate state of one device. All methods are safe
// for concurrent use; the host calls Enable and Disable from recording
// threads, SyncQueue from submission threads, and Present from the present
// thread.
type Manager struct {
	dev      gpu.Device
	timeline gpu.Timeline // nil in passthrough mode
	tileSize uint32
	rates    gpu.Rates
	maxAge   uint32

	maps *cache.Age[gpu.TiledResolution, *shadingRateMap]
	deps *cache.Age[gpu.CommandList, uint64]

	// generation increments once per present. A cached map whose recorded
	// generation lags behind is stale and gets regenerated on next use
	// while gaze tracking is active.
	generation atomic.Uint64

	// usingGaze remembers whether the previous Enable saw a fresh gaze
	// sample, so that losing the tracker still produces one final
	// recentering update.
	usingGaze atomic.Bool
}

// Option configures a Manager.
type Option func(*options)

type options struct {
	rates  gpu.Rates
	maxAge uint32
}

// WithRates overrides the full/medium/coarse rate progression.
func WithRates(r gpu.Rates) Option {
	return func(o *options) { o.rates = r }
}

// WithEvictionAge overrides how many presents an unused cache entry
// survives before eviction.
func WithEvictionAge(age uint32) Option {
	return func(o *options) { o.maxAge = age }
}

// New creates a manager for dev. On devices without tier 2 variable rate
// shading the manager comes up in passthrough mode, where every operation
// is a no-op; that is not an error. Failing to create the generation
// timeline on a capable device is.
func New(dev gpu.Device, opts ...Option) (*Manager, error) {
	o := options{rates: gpu.DefaultRates(), maxAge: DefaultEvictionAge}
	for _, opt := range opts {
		opt(&o)
	}

	caps := dev.Capabilities()
	m := &Manager{
		dev:      dev,
		tileSize: caps.TileSize,
		rates:    o.rates,
		maxAge:   o.maxAge,
		maps:     cache.NewAge[gpu.TiledResolution, *shadingRateMap](),
		deps:     cache.NewAge[gpu.CommandList, uint64](),
	}
	if !caps.Supported() {
		slogger().Warn("variable rate shading unsupported, passthrough mode",
			"tier", caps.ShadingRateTier, "tileSize", caps.TileSize)
		return m, nil
	}

	tl, err := dev.NewTimeline("vrs-map-generation")
	if err != nil {
		return nil, fmt.Errorf("create generation timeline: %w", err)
	}
	m.timeline = tl
	slogger().Info("shading rate manager ready", "tileSize", caps.TileSize)
	return m, nil
}

// Supported reports whether the manager is active. A false result means
// passthrough mode: the device cannot consume shading rate maps.
func (m *Manager) Supported() bool { return m.timeline != nil }

// Generation returns the current gaze generation.
func (m *Manager) Generation() uint64 { return m.generation.Load() }

// Enable binds a shading rate map matching the viewport to cl. sample, when
// non-nil, steers the foveal center and ring scale; nil recenters the
// pattern at unit scale. A cached texture for the viewport's tiled
// resolution is reused when current, regenerated in place when the gaze
// generation moved on, and created on first sight.
func (m *Manager) Enable(cl gpu.CommandList, vpWidth, vpHeight float32, sample *gaze.Sample) error {
	if m.timeline == nil {
		return nil
	}

	centerX, centerY, scale := float32(0.5), float32(0.5), float32(1)
	active := sample != nil
	if active {
		centerX, centerY = sample.X, sample.Y
		scale = pattern.ScaleFactorForDistance(sample.DistanceMM)
	}
	// One final regeneration recenters the pattern right after the gaze
	// stream goes stale.
	refresh := m.usingGaze.Swap(active) || active

	res := gpu.TiledResolutionFor(vpWidth, vpHeight, m.tileSize)
	gen := m.generation.Load()

	needsDependency := false
	entry, err := m.maps.Upsert(res, func(old *shadingRateMap, ok bool) (*shadingRateMap, error) {
		if !ok {
			tex, err := m.timeline.CreateMapTexture(res)
			if err != nil {
				return nil, fmt.Errorf("create shading rate map %dx%d: %w", res.Width, res.Height, err)
			}
			marker, err := m.timeline.GenerateMap(tex, pattern.ParamsFor(res, centerX, centerY, scale, m.rates))
			if err != nil {
				tex.Destroy()
				return nil, fmt.Errorf("generate shading rate map %dx%d: %w", res.Width, res.Height, err)
			}
			slogger().Debug("created shading rate map",
				"width", res.Width, "height", res.Height, "generation", gen)
			needsDependency = true
			return &shadingRateMap{texture: tex, generation: gen, marker: marker}, nil
		}
		if old.generation != gen && refresh {
			marker, err := m.timeline.GenerateMap(old.texture, pattern.ParamsFor(res, centerX, centerY, scale, m.rates))
			if err != nil {
				return nil, fmt.Errorf("regenerate shading rate map %dx%d: %w", res.Width, res.Height, err)
			}
			old.generation = gen
			old.marker = marker
			needsDependency = true
			return old, nil
		}
		needsDependency = !m.timeline.IsComplete(old.marker)
		return old, nil
	})
	if err != nil {
		return err
	}

	// A binding with no dependency of its own leaves any earlier one on the
	// same list intact: the list may still reference that in-flight map.
	if needsDependency {
		m.deps.Put(cl, entry.marker)
	}
	cl.SetShadingRateImage(entry.texture)
	return nil
}

// Disable restores full rate shading for draws recorded on cl after the
// call. Any dependency recorded by an earlier Enable on the same list stays:
// the list may still reference a map being generated.
func (m *Manager) Disable(cl gpu.CommandList) {
	if m.timeline == nil {
		return
	}
	cl.ClearShadingRateImage()
}

// SyncQueue inserts the queue waits that keep the submitted command lists
// behind any still-running map generation. Call it immediately before the
// host submits cls to q; each satisfied dependency is consumed.
func (m *Manager) SyncQueue(q gpu.Queue, cls []gpu.CommandList) {
	if m.timeline == nil {
		return
	}
	fence := m.timeline.Fence()
	for _, cl := range cls {
		if marker, ok := m.deps.Take(cl); ok {
			q.WaitFence(fence, marker)
		}
	}
}

// Present advances the gaze generation and ages both caches, evicting map
// textures and dependency records untouched for more than the eviction age.
// Call once per presented frame.
func (m *Manager) Present() {
	m.maps.Sweep(m.maxAge, func(res gpu.TiledResolution, sm *shadingRateMap) {
		slogger().Debug("evicted shading rate map", "width", res.Width, "height", res.Height)
		sm.texture.Destroy()
	})
	// Dependencies normally drain through SyncQueue; sweeping catches
	// command lists that were recorded but never executed.
	m.deps.Sweep(m.maxAge, nil)
	m.generation.Add(1)
}

// Destroy releases every cached texture and the generation timeline.
// The manager must not be used afterwards.
func (m *Manager) Destroy() {
	m.maps.Clear(func(_ gpu.TiledResolution, sm *shadingRateMap) {
		sm.texture.Destroy()
	})
	m.deps.Clear(nil)
	if m.timeline != nil {
		m.timeline.Destroy()
		m.timeline = nil
	}
}

// MapStats returns the shading rate map cache counters.
func (m *Manager) MapStats() cache.StatsSnapshot { return m.maps.Stats() }
