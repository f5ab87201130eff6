package pattern

import (
	"math"
	"testing"

	"github.com/mbucchia/vrsinject/gpu"
)

func TestScaleFactorForDistance(t *testing.T) {
	tests := []struct {
		name       string
		distanceMM float32
		want       float32
	}{
		{"reference distance", 600, 1},
		{"half distance", 300, 0.5},
		{"clamped near", 30, 0.1},
		{"clamped far", 1200, 1.5},
		{"no head pose", 0, 1},
		{"negative", -50, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ScaleFactorForDistance(tt.distanceMM)
			if math.Abs(float64(got-tt.want)) > 1e-6 {
				t.Errorf("ScaleFactorForDistance(%v) = %v, want %v", tt.distanceMM, got, tt.want)
			}
		})
	}
}

func TestParamsFor(t *testing.T) {
	// 1920x1080 at 16px tiles.
	res := gpu.TiledResolution{Width: 120, Height: 68}
	p := ParamsFor(res, 0.5, 0.5, 1, gpu.DefaultRates())

	if p.CenterX != 60 || p.CenterY != 34 {
		t.Errorf("center = (%v, %v), want (60, 34)", p.CenterX, p.CenterY)
	}
	if p.InnerRing != 0.25*68 {
		t.Errorf("inner ring = %v, want 17", p.InnerRing)
	}
	if math.Abs(float64(p.OuterRing-0.8*68)) > 1e-4 {
		t.Errorf("outer ring = %v, want 54.4", p.OuterRing)
	}
}

func TestParamsForScalesRings(t *testing.T) {
	res := gpu.TiledResolution{Width: 120, Height: 68}
	unit := ParamsFor(res, 0.5, 0.5, 1, gpu.DefaultRates())
	half := ParamsFor(res, 0.5, 0.5, 0.5, gpu.DefaultRates())

	if half.InnerRing != unit.InnerRing/2 || half.OuterRing != unit.OuterRing/2 {
		t.Errorf("rings not scaled: unit (%v, %v) half (%v, %v)",
			unit.InnerRing, unit.OuterRing, half.InnerRing, half.OuterRing)
	}
	if half.CenterX != unit.CenterX || half.CenterY != unit.CenterY {
		t.Error("center must not scale with distance")
	}
}

func TestClassifyTile(t *testing.T) {
	rates := gpu.DefaultRates()
	p := gpu.MapParams{
		CenterX: 60, CenterY: 34,
		InnerRing: 17, OuterRing: 54.4,
		Rates: rates,
	}

	tests := []struct {
		name string
		x, y uint32
		want gpu.ShadingRate
	}{
		{"foveal center", 60, 34, rates.Full},
		{"inside inner ring", 60, 44, rates.Full},
		{"between rings", 60, 60, rates.Medium},
		{"left periphery", 0, 34, rates.Coarse},
		{"corner", 0, 0, rates.Coarse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyTile(tt.x, tt.y, p); got != tt.want {
				t.Errorf("ClassifyTile(%d, %d) = %#x, want %#x", tt.x, tt.y, got, tt.want)
			}
		})
	}
}

func TestClassifyTileOffCenterGaze(t *testing.T) {
	res := gpu.TiledResolution{Width: 120, Height: 68}
	// Gaze at the top-left quadrant.
	p := ParamsFor(res, 0.25, 0.25, 1, gpu.DefaultRates())

	if got := ClassifyTile(30, 17, p); got != p.Rates.Full {
		t.Errorf("tile at gaze = %#x, want full rate", got)
	}
	if got := ClassifyTile(119, 67, p); got != p.Rates.Coarse {
		t.Errorf("far corner = %#x, want coarse rate", got)
	}
}

func TestRenderMatchesClassify(t *testing.T) {
	res := gpu.TiledResolution{Width: 40, Height: 30}
	p := ParamsFor(res, 0.6, 0.4, 0.8, gpu.DefaultRates())

	out := Render(res, p)
	if len(out) != res.Tiles() {
		t.Fatalf("expected %d bytes, got %d", res.Tiles(), len(out))
	}
	for y := uint32(0); y < res.Height; y++ {
		for x := uint32(0); x < res.Width; x++ {
			want := byte(ClassifyTile(x, y, p))
			if got := out[y*res.Width+x]; got != want {
				t.Fatalf("tile (%d, %d) = %#x, want %#x", x, y, got, want)
			}
		}
	}
}

func TestRenderContainsAllThreeRates(t *testing.T) {
	res := gpu.TiledResolution{Width: 120, Height: 68}
	rates := gpu.DefaultRates()
	out := Render(res, ParamsFor(res, 0.5, 0.5, 1, rates))

	counts := map[byte]int{}
	for _, b := range out {
		counts[b]++
	}
	if counts[byte(rates.Full)] == 0 {
		t.Error("expected full rate tiles in the foveal zone")
	}
	if counts[byte(rates.Medium)] == 0 {
		t.Error("expected medium rate tiles between the rings")
	}
	if counts[byte(rates.Coarse)] == 0 {
		t.Error("expected coarse rate tiles in the periphery")
	}
	// The periphery dominates a centered pattern at unit scale.
	if counts[byte(rates.Coarse)] <= counts[byte(rates.Full)] {
		t.Errorf("expected coarse to dominate: full=%d coarse=%d",
			counts[byte(rates.Full)], counts[byte(rates.Coarse)])
	}
}
