package vrsinject

import "math"

// Eligibility defaults. A viewport qualifies for shading rate injection when
// its aspect ratio matches the swapchain's and it is not drastically smaller
// than the present resolution.
const (
	// DefaultMinViewportScale is the smallest viewport-to-present width
	// ratio still treated as a main render target. Upscalers commonly
	// render as low as one third of the output resolution; shadow map and
	// UI viewports sit far below this.
	DefaultMinViewportScale = 0.32

	// DefaultAspectTolerance is the maximum aspect ratio difference between
	// viewport and swapchain. Main render targets match the swapchain
	// aspect exactly up to float rounding.
	DefaultAspectTolerance = 1e-4
)

// Viewport is a viewport rectangle as bound on a command list, in pixels.
type Viewport struct {
	X      float32
	Y      float32
	Width  float32
	Height float32
}

// IsViewportEligible reports whether vp looks like a main render target for
// a swapchain presenting at the given resolution, using the default
// eligibility thresholds.
func IsViewportEligible(presentWidth, presentHeight uint32, vp Viewport) bool {
	return isViewportEligible(presentWidth, presentHeight, vp,
		DefaultMinViewportScale, DefaultAspectTolerance)
}

func isViewportEligible(presentWidth, presentHeight uint32, vp Viewport, minScale float32, aspectTol float64) bool {
	if presentWidth == 0 || presentHeight == 0 {
		return false
	}
	if vp.Width <= 0 || vp.Height <= 0 {
		return false
	}

	presentAspect := float64(presentHeight) / float64(presentWidth)
	viewportAspect := float64(vp.Height) / float64(vp.Width)
	if math.Abs(presentAspect-viewportAspect) >= aspectTol {
		return false
	}

	return vp.Width >= minScale*float32(presentWidth)
}
