// Package pattern computes the foveated shading rate pattern: two concentric
// rings around the gaze point, full rate inside the inner ring, medium rate
// between the rings, coarse rate outside. All geometry is expressed in tile
// units so the result feeds directly into map generation.
package pattern

import "github.com/mbucchia/vrsinject/gpu"

const (
	// innerRingRatio and outerRingRatio size the rings relative to the
	// tiled height, before distance scaling.
	innerRingRatio = 0.25
	outerRingRatio = 0.8
)

// ReferenceDistanceMM is the head distance at which the pattern has unit
// scale. Closer heads see proportionally smaller rings, further heads larger.
const ReferenceDistanceMM = 600

const (
	minScaleFactor = 0.1
	maxScaleFactor = 1.5
)

// ScaleFactorForDistance maps a head distance in millimeters to the ring
// scale factor, clamped to [0.1, 1.5]. Non-positive distances mean the
// tracker had no head pose; they fall back to unit scale.
func ScaleFactorForDistance(distanceMM float32) float32 {
	if distanceMM <= 0 {
		return 1
	}
	s := distanceMM / ReferenceDistanceMM
	if s < minScaleFactor {
		return minScaleFactor
	}
	if s > maxScaleFactor {
		return maxScaleFactor
	}
	return s
}

// ParamsFor resolves the generation parameters for a map of the given tiled
// resolution. centerX and centerY are the normalized gaze point in [0, 1]
// (0.5, 0.5 is screen center); scale is the ring scale factor, typically
// from ScaleFactorForDistance.
func ParamsFor(res gpu.TiledResolution, centerX, centerY, scale float32, rates gpu.Rates) gpu.MapParams {
	h := float32(res.Height)
	return gpu.MapParams{
		CenterX:   centerX * float32(res.Width),
		CenterY:   centerY * h,
		InnerRing: innerRingRatio * h * scale,
		OuterRing: outerRingRatio * h * scale,
		Rates:     rates,
	}
}

// ClassifyTile returns the shading rate of the tile at (x, y). The tile is
// classified by the distance from its center to the foveal center, so the
// CPU path and the compute shader agree texel for texel.
func ClassifyTile(x, y uint32, p gpu.MapParams) gpu.ShadingRate {
	dx := float64(float32(x) + 0.5 - p.CenterX)
	dy := float64(float32(y) + 0.5 - p.CenterY)
	d2 := dx*dx + dy*dy
	if d2 <= float64(p.InnerRing)*float64(p.InnerRing) {
		return p.Rates.Full
	}
	if d2 <= float64(p.OuterRing)*float64(p.OuterRing) {
		return p.Rates.Medium
	}
	return p.Rates.Coarse
}

// Render rasterizes the pattern to a row-major byte slice, one shading rate
// byte per tile. This is the CPU reference for the compute shader and the
// generation path of the software backend.
func Render(res gpu.TiledResolution, p gpu.MapParams) []byte {
	out := make([]byte, res.Tiles())
	i := 0
	for y := uint32(0); y < res.Height; y++ {
		for x := uint32(0); x < res.Width; x++ {
			out[i] = byte(ClassifyTile(x, y, p))
			i++
		}
	}
	return out
}
