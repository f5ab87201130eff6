package wgpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/mbucchia/vrsinject/gpu"
)

// Texture is a GPU shading rate map. WebGPU storage textures have no 8-bit
// uint format, so texels are r32uint with the rate in the low byte; hosts
// binding the map as a native shading rate image copy it through an R8 alias.
type Texture struct {
	device hal.Device
	tex    hal.Texture
	view   hal.TextureView
	res    gpu.TiledResolution
}

func newTexture(device hal.Device, res gpu.TiledResolution) (*Texture, error) {
	label := fmt.Sprintf("vrs_rate_map_%dx%d", res.Width, res.Height)

	tex, err := device.CreateTexture(&hal.TextureDescriptor{
		Label: label,
		Size: hal.Extent3D{
			Width:              res.Width,
			Height:             res.Height,
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatR32Uint,
		Usage: gputypes.TextureUsageStorageBinding |
			gputypes.TextureUsageTextureBinding |
			gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create rate map texture: %w", err)
	}

	view, err := device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label: label + "_view",
	})
	if err != nil {
		device.DestroyTexture(tex)
		return nil, fmt.Errorf("wgpu: create rate map view: %w", err)
	}

	return &Texture{device: device, tex: tex, view: view, res: res}, nil
}

// Resolution implements gpu.Texture.
func (t *Texture) Resolution() gpu.TiledResolution { return t.res }

// Destroy implements gpu.Texture.
func (t *Texture) Destroy() {
	if t.view != nil {
		t.device.DestroyTextureView(t.view)
		t.view = nil
	}
	if t.tex != nil {
		t.device.DestroyTexture(t.tex)
		t.tex = nil
	}
}

// HAL returns the underlying HAL texture, for hosts that bind it natively.
func (t *Texture) HAL() hal.Texture { return t.tex }

// View returns the storage view used by map generation.
func (t *Texture) View() hal.TextureView { return t.view }
