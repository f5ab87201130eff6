// Command vrsmapdemo renders a shading rate map to a PNG for inspection.
// Each tile's rate is mapped to a gray level and upscaled to the viewport
// size, visualizing the foveation rings a game would receive.
package main

import (
	"flag"
	"image"
	"image/png"
	"log"
	"os"

	"golang.org/x/image/draw"

	"github.com/mbucchia/vrsinject/gpu"
	"github.com/mbucchia/vrsinject/pattern"
)

func main() {
	var (
		width    = flag.Int("width", 1920, "viewport width in pixels")
		height   = flag.Int("height", 1080, "viewport height in pixels")
		tileSize = flag.Int("tile", 16, "shading rate tile size in pixels")
		gazeX    = flag.Float64("gaze-x", 0.5, "normalized gaze X in [0,1]")
		gazeY    = flag.Float64("gaze-y", 0.5, "normalized gaze Y in [0,1]")
		distance = flag.Float64("distance", 600, "head distance in millimeters")
		output   = flag.String("output", "ratemap.png", "output file")
	)
	flag.Parse()

	res := gpu.TiledResolutionFor(float32(*width), float32(*height), uint32(*tileSize))
	scale := pattern.ScaleFactorForDistance(float32(*distance))
	params := pattern.ParamsFor(res, float32(*gazeX), float32(*gazeY), scale, gpu.DefaultRates())
	tiles := pattern.Render(res, params)

	// One gray pixel per tile, then nearest-neighbor upscale so tile
	// boundaries stay sharp.
	small := image.NewGray(image.Rect(0, 0, int(res.Width), int(res.Height)))
	for i, rate := range tiles {
		small.Pix[i] = rateGray(gpu.ShadingRate(rate), params.Rates)
	}
	big := image.NewGray(image.Rect(0, 0, *width, *height))
	draw.NearestNeighbor.Scale(big, big.Bounds(), small, small.Bounds(), draw.Src, nil)

	f, err := os.Create(*output)
	if err != nil {
		log.Fatalf("Failed to create output: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, big); err != nil {
		log.Fatalf("Failed to encode: %v", err)
	}

	log.Printf("Rate map saved to %s (%dx%d tiles, scale %.2f)\n",
		*output, res.Width, res.Height, scale)
}

// rateGray maps the three pattern rates to distinct gray levels: bright for
// full rate, dark for coarse.
func rateGray(r gpu.ShadingRate, rates gpu.Rates) uint8 {
	switch r {
	case rates.Full:
		return 0xFF
	case rates.Medium:
		return 0x90
	default:
		return 0x30
	}
}
