package vrsinject

import (
	"github.com/mbucchia/vrsinject/gaze"
	"github.com/mbucchia/vrsinject/gpu"
	"github.com/mbucchia/vrsinject/vrs"
)

// Option configures an Injector during creation.
type Option func(*options)

// options holds optional configuration for Injector creation.
type options struct {
	enabled          bool
	minViewportScale float32
	aspectTolerance  float64
	evictionAge      uint32
	rates            gpu.Rates
	gazeProvider     gaze.Provider
}

// defaultOptions returns the default injector options.
func defaultOptions() options {
	return options{
		enabled:          true,
		minViewportScale: DefaultMinViewportScale,
		aspectTolerance:  DefaultAspectTolerance,
		evictionAge:      vrs.DefaultEvictionAge,
		rates:            gpu.DefaultRates(),
	}
}

// WithEnabled sets the initial enabled state. Injection can be toggled at
// runtime with Injector.SetEnabled.
func WithEnabled(enabled bool) Option {
	return func(o *options) { o.enabled = enabled }
}

// WithMinViewportScale overrides the minimum viewport-to-present scale for
// eligibility. Viewports smaller than this fraction of the present width are
// treated as UI or auxiliary surfaces and left at full rate.
func WithMinViewportScale(scale float32) Option {
	return func(o *options) { o.minViewportScale = scale }
}

// WithAspectTolerance overrides the maximum aspect ratio difference between
// a viewport and the swapchain for the viewport to count as a main render
// target.
func WithAspectTolerance(tol float64) Option {
	return func(o *options) { o.aspectTolerance = tol }
}

// WithEvictionAge overrides how many presents cached maps, dependency
// records, and idle per-device state survive unused before eviction.
func WithEvictionAge(age uint32) Option {
	return func(o *options) { o.evictionAge = age }
}

// WithRates overrides the full/medium/coarse shading rate progression used
// by generated maps.
func WithRates(r gpu.Rates) Option {
	return func(o *options) { o.rates = r }
}

// WithGazeProvider installs the eye tracker integration. The provider is
// invoked when a present first identifies its window; without one the
// foveation pattern stays centered.
func WithGazeProvider(p gaze.Provider) Option {
	return func(o *options) { o.gazeProvider = p }
}
