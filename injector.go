package vrsinject

import (
	"sync"
	"sync/atomic"

	"github.com/mbucchia/vrsinject/cache"
	"github.com/mbucchia/vrsinject/gaze"
	"github.com/mbucchia/vrsinject/gpu"
	"github.com/mbucchia/vrsinject/vrs"
)

// renderingContext is the per-device state: the shading rate manager and the
// present resolution last observed for the device, against which viewport
// eligibility is judged.
type renderingContext struct {
	manager       *vrs.Manager
	presentWidth  uint32
	presentHeight uint32
}

// Injector is the top-level entry point wired into the host's interception
// layer. It tracks one shading rate manager per device and a single gaze
// source attached to the most recently presenting window.
//
// All methods are safe for concurrent use.
type Injector struct {
	opts    options
	enabled atomic.Bool

	// contexts maps each sighted device to its state. Entries age with
	// presents of other devices and are destroyed once the device stops
	// presenting, so a swapchain recreation on a new device cannot leak
	// the old one.
	contexts *cache.Age[gpu.Device, *renderingContext]

	gazeMu     sync.Mutex
	gazeSource gaze.Source
	gazeWindow gpu.WindowID
	gazeAge    uint32
	// gazeSampled limits tracker updates to one per frame; cleared at
	// present.
	gazeSampled bool
}

// New creates an Injector.
func New(opts ...Option) *Injector {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	inj := &Injector{
		opts:     o,
		contexts: cache.NewAge[gpu.Device, *renderingContext](),
	}
	inj.enabled.Store(o.enabled)
	return inj
}

// SetEnabled toggles injection at runtime. While disabled, viewport events
// leave command lists at full rate; cached state is retained and ages out
// normally if injection stays off.
func (i *Injector) SetEnabled(enabled bool) {
	if i.enabled.Swap(enabled) != enabled {
		slogger().Info("injection toggled", "enabled", enabled)
	}
}

// Enabled reports whether injection is active.
func (i *Injector) Enabled() bool { return i.enabled.Load() }

// OnSetViewports handles a viewport binding on a command list. When the
// first viewport is an eligible render target, a shading rate map matching
// it is bound to the command list; otherwise any bound map is cleared.
//
// Devices are adopted at present time, so viewports on a device that has
// never presented are ignored.
func (i *Injector) OnSetViewports(cl gpu.CommandList, vps []Viewport) {
	ctx, ok := i.contexts.Peek(cl.Device())
	if !ok {
		return
	}

	if !i.enabled.Load() || len(vps) == 0 {
		ctx.manager.Disable(cl)
		return
	}

	vp := vps[0]
	if !isViewportEligible(ctx.presentWidth, ctx.presentHeight, vp,
		i.opts.minViewportScale, i.opts.aspectTolerance) {
		ctx.manager.Disable(cl)
		return
	}

	if err := ctx.manager.Enable(cl, vp.Width, vp.Height, i.currentSample()); err != nil {
		slogger().Warn("shading rate injection failed", "error", err)
		ctx.manager.Disable(cl)
	}
}

// OnExecuteCommandLists handles a submission. Dependencies recorded for the
// submitted command lists become queue waits, inserted before the host
// forwards the submission. Runs even while injection is disabled so that
// dependencies recorded earlier still drain.
func (i *Injector) OnExecuteCommandLists(q gpu.Queue, cls []gpu.CommandList) {
	if ctx, ok := i.contexts.Peek(q.Device()); ok {
		ctx.manager.SyncQueue(q, cls)
	}
}

// OnFramePresent handles a swapchain present. The presenting device is
// adopted on first sight; afterwards each present advances the device's
// gaze generation, sweeps its caches, and refreshes the gaze attachment.
func (i *Injector) OnFramePresent(sc gpu.Swapchain) {
	dev, ok := sc.Device()
	if !ok {
		slogger().Debug("present without device, skipped")
		return
	}
	width, height := sc.Extent()

	firstSight := false
	ctx, err := i.contexts.Upsert(dev, func(old *renderingContext, ok bool) (*renderingContext, error) {
		if !ok {
			mgr, err := vrs.New(dev,
				vrs.WithRates(i.opts.rates),
				vrs.WithEvictionAge(i.opts.evictionAge))
			if err != nil {
				return nil, err
			}
			firstSight = true
			old = &renderingContext{manager: mgr}
		}
		old.presentWidth = width
		old.presentHeight = height
		return old, nil
	})
	if err != nil {
		slogger().Warn("device adoption failed", "error", err)
		return
	}
	if firstSight {
		slogger().Info("device adopted",
			"width", width, "height", height, "supported", ctx.manager.Supported())
	}

	i.presentGaze(sc)

	// The adopting present only observes the device; generations start
	// advancing on the next frame.
	if !firstSight {
		ctx.manager.Present()
	}

	i.contexts.Sweep(i.opts.evictionAge, func(_ gpu.Device, old *renderingContext) {
		slogger().Info("device context evicted")
		old.manager.Destroy()
	})
}

// presentGaze maintains the gaze attachment across presents: attach to a
// newly presenting window, age out a source whose window stopped presenting,
// and re-arm the once-per-frame tracker update.
func (i *Injector) presentGaze(sc gpu.Swapchain) {
	i.gazeMu.Lock()
	defer i.gazeMu.Unlock()

	i.gazeSampled = false

	win, hasWindow := sc.Window()

	// The source ages with every present not coming from its window,
	// windowless presents included, so a stale attachment always drains.
	if i.gazeSource != nil {
		if hasWindow && win == i.gazeWindow {
			i.gazeAge = 0
			return
		}
		i.gazeAge++
		if i.gazeAge <= i.opts.evictionAge {
			return
		}
		slogger().Info("gaze source aged out", "window", i.gazeWindow)
		i.closeGazeLocked()
	}

	if !hasWindow || i.opts.gazeProvider == nil {
		return
	}
	src, err := i.opts.gazeProvider(win)
	if err != nil {
		slogger().Warn("gaze source attach failed", "window", win, "error", err)
		return
	}
	slogger().Info("gaze source attached", "window", win)
	i.gazeSource = src
	i.gazeWindow = win
	i.gazeAge = 0
}

// currentSample returns the gaze sample steering this frame's maps, or nil
// when no fresh sample exists. The tracker is polled at most once per frame.
func (i *Injector) currentSample() *gaze.Sample {
	i.gazeMu.Lock()
	defer i.gazeMu.Unlock()

	if i.gazeSource == nil {
		return nil
	}
	if !i.gazeSampled {
		i.gazeSource.Update()
		i.gazeSampled = true
	}
	s, ok := i.gazeSource.TryGet()
	if !ok {
		return nil
	}
	return &s
}

func (i *Injector) closeGazeLocked() {
	if err := i.gazeSource.Close(); err != nil {
		slogger().Warn("gaze source close failed", "error", err)
	}
	i.gazeSource = nil
	i.gazeWindow = 0
	i.gazeAge = 0
}

// Close tears down every device context and the gaze attachment. The host
// must have idled the GPU first; cached textures are destroyed immediately.
func (i *Injector) Close() {
	i.contexts.Clear(func(_ gpu.Device, ctx *renderingContext) {
		ctx.manager.Destroy()
	})

	i.gazeMu.Lock()
	defer i.gazeMu.Unlock()
	if i.gazeSource != nil {
		i.closeGazeLocked()
	}
}
