package wgpu

import (
	_ "embed"
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"
	"github.com/mbucchia/vrsinject/gpu"
)

//go:embed shaders/ratemap.wgsl
var rateMapWGSL string

// paramsSize is sizeof(Params) in ratemap.wgsl.
const paramsSize = 32

const workgroupEdge = 8

// Timeline runs map generation dispatches on the shared HAL queue, fenced so
// completion is observable without blocking. One fence serves the whole
// timeline; each submission signals the next marker value.
type Timeline struct {
	mu     sync.Mutex
	device hal.Device
	queue  hal.Queue
	label  string

	shaderModule   hal.ShaderModule
	bindLayout     hal.BindGroupLayout
	pipelineLayout hal.PipelineLayout
	pipeline       hal.ComputePipeline

	fence     hal.Fence
	submitted uint64
	completed uint64

	// pending holds per-dispatch resources until the fence passes their
	// marker. Ordered by marker.
	pending []pendingDispatch
}

type pendingDispatch struct {
	marker    uint64
	cmdBuf    hal.CommandBuffer
	bindGroup hal.BindGroup
	paramsBuf hal.Buffer
}

func newTimeline(device hal.Device, queue hal.Queue, label string) (*Timeline, error) {
	t := &Timeline{device: device, queue: queue, label: label}

	spirvBytes, err := naga.Compile(rateMapWGSL)
	if err != nil {
		return nil, fmt.Errorf("wgpu: compile rate map shader: %w", err)
	}
	spirv := make([]uint32, len(spirvBytes)/4)
	for i := range spirv {
		spirv[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}

	t.shaderModule, err = device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  label + "_shader",
		Source: hal.ShaderSource{SPIRV: spirv},
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create shader module: %w", err)
	}

	t.bindLayout, err = device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: label + "_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageCompute,
				Buffer: &gputypes.BufferBindingLayout{
					Type:           gputypes.BufferBindingTypeUniform,
					MinBindingSize: paramsSize,
				},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageCompute,
				StorageTexture: &gputypes.StorageTextureBindingLayout{
					Access:        gputypes.StorageTextureAccessReadWrite,
					Format:        gputypes.TextureFormatR32Uint,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
		},
	})
	if err != nil {
		t.Destroy()
		return nil, fmt.Errorf("wgpu: create bind group layout: %w", err)
	}

	t.pipelineLayout, err = device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            label + "_pipeline_layout",
		BindGroupLayouts: []hal.BindGroupLayout{t.bindLayout},
	})
	if err != nil {
		t.Destroy()
		return nil, fmt.Errorf("wgpu: create pipeline layout: %w", err)
	}

	t.pipeline, err = device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label:  label + "_pipeline",
		Layout: t.pipelineLayout,
		Compute: hal.ComputeState{
			Module:     t.shaderModule,
			EntryPoint: "cs_rate_map",
		},
	})
	if err != nil {
		t.Destroy()
		return nil, fmt.Errorf("wgpu: create compute pipeline: %w", err)
	}

	t.fence, err = device.CreateFence()
	if err != nil {
		t.Destroy()
		return nil, fmt.Errorf("wgpu: create fence: %w", err)
	}

	return t, nil
}

// CreateMapTexture implements gpu.Timeline.
func (t *Timeline) CreateMapTexture(res gpu.TiledResolution) (gpu.Texture, error) {
	return newTexture(t.device, res)
}

// GenerateMap implements gpu.Timeline.
func (t *Timeline) GenerateMap(tex gpu.Texture, p gpu.MapParams) (uint64, error) {
	wt, ok := tex.(*Texture)
	if !ok {
		return 0, fmt.Errorf("wgpu: foreign texture %T", tex)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	// Each dispatch carries its own uniform buffer so an in-flight one is
	// never overwritten.
	paramsBuf, err := t.device.CreateBuffer(&hal.BufferDescriptor{
		Label: t.label + "_params",
		Size:  paramsSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return 0, fmt.Errorf("wgpu: create params buffer: %w", err)
	}
	t.queue.WriteBuffer(paramsBuf, 0, paramsToBytes(p))

	bindGroup, err := t.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  t.label + "_bind",
		Layout: t.bindLayout,
		Entries: []gputypes.BindGroupEntry{
			{
				Binding: 0,
				Resource: gputypes.BufferBinding{
					Buffer: paramsBuf.NativeHandle(),
					Offset: 0,
					Size:   paramsSize,
				},
			},
			{
				Binding: 1,
				Resource: gputypes.TextureViewBinding{
					TextureView: wt.view.NativeHandle(),
				},
			},
		},
	})
	if err != nil {
		t.device.DestroyBuffer(paramsBuf)
		return 0, fmt.Errorf("wgpu: create bind group: %w", err)
	}

	cmdBuf, err := t.encodeDispatch(bindGroup, wt.res)
	if err != nil {
		t.device.DestroyBindGroup(bindGroup)
		t.device.DestroyBuffer(paramsBuf)
		return 0, err
	}

	marker := t.submitted + 1
	if err := t.queue.Submit([]hal.CommandBuffer{cmdBuf}, t.fence, marker); err != nil {
		t.device.FreeCommandBuffer(cmdBuf)
		t.device.DestroyBindGroup(bindGroup)
		t.device.DestroyBuffer(paramsBuf)
		return 0, fmt.Errorf("wgpu: submit rate map generation: %w", err)
	}
	t.submitted = marker
	t.pending = append(t.pending, pendingDispatch{
		marker:    marker,
		cmdBuf:    cmdBuf,
		bindGroup: bindGroup,
		paramsBuf: paramsBuf,
	})

	t.reapLocked()
	return marker, nil
}

func (t *Timeline) encodeDispatch(bindGroup hal.BindGroup, res gpu.TiledResolution) (hal.CommandBuffer, error) {
	encoder, err := t.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: t.label,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding(t.label); err != nil {
		return nil, fmt.Errorf("wgpu: begin encoding: %w", err)
	}

	pass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: t.label})
	pass.SetPipeline(t.pipeline)
	pass.SetBindGroup(0, bindGroup, nil)
	pass.Dispatch(
		(res.Width+workgroupEdge-1)/workgroupEdge,
		(res.Height+workgroupEdge-1)/workgroupEdge,
		1,
	)
	pass.End()

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return nil, fmt.Errorf("wgpu: end encoding: %w", err)
	}
	return cmdBuf, nil
}

// IsComplete implements gpu.Timeline. Non-blocking: the fence is polled with
// a zero timeout.
func (t *Timeline) IsComplete(marker uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	done := t.pollLocked(marker)
	t.reapLocked()
	return done
}

// pollLocked refreshes the completed watermark against marker.
func (t *Timeline) pollLocked(marker uint64) bool {
	if marker <= t.completed {
		return true
	}
	ok, err := t.device.Wait(t.fence, marker, 0)
	if err != nil || !ok {
		return false
	}
	t.completed = marker
	return true
}

// reapLocked frees per-dispatch resources whose marker the fence has passed.
func (t *Timeline) reapLocked() {
	for len(t.pending) > 0 {
		pd := t.pending[0]
		if !t.pollLocked(pd.marker) {
			return
		}
		t.device.FreeCommandBuffer(pd.cmdBuf)
		t.device.DestroyBindGroup(pd.bindGroup)
		t.device.DestroyBuffer(pd.paramsBuf)
		t.pending = t.pending[1:]
	}
}

// Fence implements gpu.Timeline.
func (t *Timeline) Fence() gpu.Fence { return t.fence }

// Destroy implements gpu.Timeline. In-flight dispatch resources are freed
// regardless of completion; the caller is expected to have idled the device.
func (t *Timeline) Destroy() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, pd := range t.pending {
		t.device.FreeCommandBuffer(pd.cmdBuf)
		t.device.DestroyBindGroup(pd.bindGroup)
		t.device.DestroyBuffer(pd.paramsBuf)
	}
	t.pending = nil

	if t.fence != nil {
		t.device.DestroyFence(t.fence)
		t.fence = nil
	}
	if t.pipeline != nil {
		t.device.DestroyComputePipeline(t.pipeline)
		t.pipeline = nil
	}
	if t.pipelineLayout != nil {
		t.device.DestroyPipelineLayout(t.pipelineLayout)
		t.pipelineLayout = nil
	}
	if t.bindLayout != nil {
		t.device.DestroyBindGroupLayout(t.bindLayout)
		t.bindLayout = nil
	}
	if t.shaderModule != nil {
		t.device.DestroyShaderModule(t.shaderModule)
		t.shaderModule = nil
	}
}

// paramsToBytes serializes MapParams to the Params uniform layout in
// ratemap.wgsl.
func paramsToBytes(p gpu.MapParams) []byte {
	buf := make([]byte, paramsSize)
	binary.LittleEndian.PutUint32(buf[0:], math.Float32bits(p.CenterX))
	binary.LittleEndian.PutUint32(buf[4:], math.Float32bits(p.CenterY))
	binary.LittleEndian.PutUint32(buf[8:], math.Float32bits(p.InnerRing))
	binary.LittleEndian.PutUint32(buf[12:], math.Float32bits(p.OuterRing))
	binary.LittleEndian.PutUint32(buf[16:], uint32(p.Rates.Full))
	binary.LittleEndian.PutUint32(buf[20:], uint32(p.Rates.Medium))
	binary.LittleEndian.PutUint32(buf[24:], uint32(p.Rates.Coarse))
	return buf
}
