// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package native

import (
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/batch/gpucore"
)

//go:embed shaders/color.wgsl
var colorShaderSource string

// globalsSize is the byte size of the viewport uniform buffer.
// Layout: viewport (vec2<f32>) + padding (vec2<f32>) = 16 bytes.
const globalsSize = 16

// vertexStride is the byte stride of the position+color layout:
// vec2<f32> position + vec4<f32> color = 24 bytes.
const vertexStride = 24

// fenceTimeout bounds the wait for frame completion.
const fenceTimeout = 5 * time.Second

// Errors returned by the native adapter.
var (
	ErrUnsupported = errors.New("native: render state not supported")
	ErrNoFrame     = errors.New("native: no frame in progress")
	ErrFrameOpen   = errors.New("native: frame already in progress")
)

// Clear is the color a frame starts from.
type Clear struct {
	R, G, B, A float64
}

// pipelineKey selects a cached render pipeline.
type pipelineKey struct {
	topology gpucore.Topology
	blend    gpucore.BlendMode
}

// Adapter implements gpucore.Adapter on the pure-Go gogpu/wgpu HAL,
// rendering into an offscreen RGBA8 texture with CPU readback.
type Adapter struct {
	device hal.Device
	queue  hal.Queue

	buffers map[gpucore.BufferID]hal.Buffer
	nextBuf uint64

	shader        hal.ShaderModule
	uniformLayout hal.BindGroupLayout
	pipeLayout    hal.PipelineLayout
	pipelines     map[pipelineKey]hal.RenderPipeline

	uniformBuf hal.Buffer
	bindGroup  hal.BindGroup

	width, height uint32
	colorTex      hal.Texture
	colorView     hal.TextureView

	encoder hal.CommandEncoder
	pass    hal.RenderPassEncoder
}

var _ gpucore.Adapter = (*Adapter)(nil)

// New creates an adapter on an existing HAL device and queue.
func New(device hal.Device, queue hal.Queue) (*Adapter, error) {
	if device == nil || queue == nil {
		return nil, errors.New("native: nil device or queue")
	}
	a := &Adapter{
		device:    device,
		queue:     queue,
		buffers:   make(map[gpucore.BufferID]hal.Buffer),
		pipelines: make(map[pipelineKey]hal.RenderPipeline),
	}
	if err := a.createShared(); err != nil {
		a.Destroy()
		return nil, err
	}
	return a, nil
}

// FromProvider creates an adapter from a shared GPU device exposed by an
// external provider implementing HalDevice() any and HalQueue() any.
func FromProvider(provider any) (*Adapter, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, errors.New("native: provider does not expose HAL types")
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, errors.New("native: provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, errors.New("native: provider HalQueue is not hal.Queue")
	}
	return New(device, queue)
}

// createShared compiles the shader and creates the layouts and uniform
// resources every pipeline shares.
func (a *Adapter) createShared() error {
	shader, err := a.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "batch_color_shader",
		Source: hal.ShaderSource{WGSL: colorShaderSource},
	})
	if err != nil {
		return fmt.Errorf("compile color shader: %w", err)
	}
	a.shader = shader

	uniformLayout, err := a.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "batch_uniform_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageVertex,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create uniform layout: %w", err)
	}
	a.uniformLayout = uniformLayout

	pipeLayout, err := a.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "batch_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{a.uniformLayout},
	})
	if err != nil {
		return fmt.Errorf("create pipeline layout: %w", err)
	}
	a.pipeLayout = pipeLayout

	uniformBuf, err := a.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "batch_globals",
		Size:  globalsSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create uniform buffer: %w", err)
	}
	a.uniformBuf = uniformBuf

	bindGroup, err := a.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "batch_globals_bind",
		Layout: a.uniformLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{
				Buffer: a.uniformBuf.NativeHandle(), Offset: 0, Size: globalsSize,
			}},
		},
	})
	if err != nil {
		return fmt.Errorf("create bind group: %w", err)
	}
	a.bindGroup = bindGroup
	return nil
}

// Begin starts a frame: (re)creates the offscreen target if the size
// changed, updates the viewport uniform and opens the render pass.
func (a *Adapter) Begin(width, height uint32, clear Clear) error {
	if a.pass != nil {
		return ErrFrameOpen
	}
	if err := a.ensureTarget(width, height); err != nil {
		return err
	}
	a.queue.WriteBuffer(a.uniformBuf, 0, viewportUniform(width, height))

	encoder, err := a.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "batch_frame_encoder",
	})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("batch_frame"); err != nil {
		return fmt.Errorf("begin encoding: %w", err)
	}
	a.encoder = encoder
	a.pass = encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "batch_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       a.colorView,
			LoadOp:     gputypes.LoadOpClear,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: gputypes.Color{R: clear.R, G: clear.G, B: clear.B, A: clear.A},
		}},
	})
	return nil
}

// End closes the frame, submits it, waits for the GPU and returns the
// rendered RGBA pixels, tightly packed at width*height*4 bytes.
func (a *Adapter) End() ([]byte, error) {
	if a.pass == nil {
		return nil, ErrNoFrame
	}
	a.pass.End()
	a.pass = nil
	encoder := a.encoder
	a.encoder = nil

	// Copy pitch must be 256-byte aligned for readback.
	bytesPerRow := a.width * 4
	const copyPitchAlignment = 256
	alignedBytesPerRow := (bytesPerRow + copyPitchAlignment - 1) &^ (copyPitchAlignment - 1)
	stagingSize := uint64(alignedBytesPerRow) * uint64(a.height)

	stagingBuf, err := a.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "batch_staging",
		Size:  stagingSize,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		encoder.DiscardEncoding()
		return nil, fmt.Errorf("create staging buffer: %w", err)
	}
	defer a.device.DestroyBuffer(stagingBuf)

	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: a.colorTex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageRenderAttachment,
			NewUsage: gputypes.TextureUsageCopySrc,
		},
	}})
	encoder.CopyTextureToBuffer(a.colorTex, stagingBuf, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{Offset: 0, BytesPerRow: alignedBytesPerRow, RowsPerImage: a.height},
		TextureBase:  hal.ImageCopyTexture{Texture: a.colorTex, MipLevel: 0},
		Size:         hal.Extent3D{Width: a.width, Height: a.height, DepthOrArrayLayers: 1},
	}})
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: a.colorTex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageCopySrc,
			NewUsage: gputypes.TextureUsageRenderAttachment,
		},
	}})

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return nil, fmt.Errorf("end encoding: %w", err)
	}
	defer a.device.FreeCommandBuffer(cmdBuf)

	fence, err := a.device.CreateFence()
	if err != nil {
		return nil, fmt.Errorf("create fence: %w", err)
	}
	defer a.device.DestroyFence(fence)

	if err := a.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return nil, fmt.Errorf("submit: %w", err)
	}
	fenceOK, err := a.device.Wait(fence, 1, fenceTimeout)
	if err != nil {
		return nil, fmt.Errorf("wait for GPU: %w", err)
	}
	if !fenceOK {
		return nil, errors.New("native: wait for GPU timed out")
	}

	readback := make([]byte, stagingSize)
	if err := a.queue.ReadBuffer(stagingBuf, 0, readback); err != nil {
		return nil, fmt.Errorf("readback: %w", err)
	}
	if alignedBytesPerRow == bytesPerRow {
		return readback[:uint64(bytesPerRow)*uint64(a.height)], nil
	}
	tight := make([]byte, uint64(bytesPerRow)*uint64(a.height))
	for row := uint32(0); row < a.height; row++ {
		srcOff := int(row) * int(alignedBytesPerRow)
		dstOff := int(row) * int(bytesPerRow)
		copy(tight[dstOff:dstOff+int(bytesPerRow)], readback[srcOff:srcOff+int(bytesPerRow)])
	}
	return tight, nil
}

// CreateBuffer allocates a HAL buffer and returns an opaque ID for it.
func (a *Adapter) CreateBuffer(size int, usage gpucore.BufferUsage) (gpucore.BufferID, error) {
	buf, err := a.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "batch_vertices",
		Size:  uint64(size),
		Usage: convertUsage(usage),
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("native: create buffer: %w", err)
	}
	a.nextBuf++
	id := gpucore.BufferID(a.nextBuf)
	a.buffers[id] = buf
	return id, nil
}

// GrowBuffer replaces a buffer with a larger, freshly allocated one. The
// contents are undefined; the caller re-uploads.
func (a *Adapter) GrowBuffer(id gpucore.BufferID, newSize int) (gpucore.BufferID, error) {
	old, ok := a.buffers[id]
	if !ok {
		return gpucore.InvalidID, fmt.Errorf("native: grow of unknown buffer %d", id)
	}
	grown, err := a.CreateBuffer(newSize, gpucore.BufferUsageVertex|gpucore.BufferUsageCopyDst)
	if err != nil {
		return gpucore.InvalidID, err
	}
	a.device.DestroyBuffer(old)
	delete(a.buffers, id)
	return grown, nil
}

// WriteBuffer uploads data at the given byte offset.
func (a *Adapter) WriteBuffer(id gpucore.BufferID, offset uint64, data []byte) {
	buf, ok := a.buffers[id]
	if !ok {
		return
	}
	a.queue.WriteBuffer(buf, offset, data)
}

// DestroyBuffer releases a buffer.
func (a *Adapter) DestroyBuffer(id gpucore.BufferID) {
	if buf, ok := a.buffers[id]; ok {
		a.device.DestroyBuffer(buf)
		delete(a.buffers, id)
	}
}

// BindState selects the pipeline for subsequent draws. Textured states and
// the position+color+uv format are rejected: the HAL has no queue texture
// upload yet, so there is nothing to sample from.
func (a *Adapter) BindState(s gpucore.State) error {
	if a.pass == nil {
		return ErrNoFrame
	}
	if s.Texture != gpucore.NoTexture || s.Format != gpucore.FormatPosColor {
		return fmt.Errorf("%w: %v/%v", ErrUnsupported, s.Format, s.Texture)
	}
	p, err := a.pipeline(pipelineKey{topology: s.Topology, blend: s.Blend})
	if err != nil {
		return err
	}
	a.pass.SetPipeline(p)
	a.pass.SetBindGroup(0, a.bindGroup, nil)
	return nil
}

// Draw issues one draw from the shared vertex buffer.
func (a *Adapter) Draw(buffer gpucore.BufferID, firstVertex, vertexCount uint32) error {
	if a.pass == nil {
		return ErrNoFrame
	}
	buf, ok := a.buffers[buffer]
	if !ok {
		return fmt.Errorf("native: draw from unknown buffer %d", buffer)
	}
	a.pass.SetVertexBuffer(0, buf, 0)
	a.pass.Draw(vertexCount, 1, firstVertex, 0)
	return nil
}

// Destroy releases every GPU resource the adapter holds. Safe to call more
// than once.
func (a *Adapter) Destroy() {
	if a.device == nil {
		return
	}
	for key, p := range a.pipelines {
		a.device.DestroyRenderPipeline(p)
		delete(a.pipelines, key)
	}
	for id, buf := range a.buffers {
		a.device.DestroyBuffer(buf)
		delete(a.buffers, id)
	}
	a.destroyTarget()
	if a.bindGroup != nil {
		a.device.DestroyBindGroup(a.bindGroup)
		a.bindGroup = nil
	}
	if a.uniformBuf != nil {
		a.device.DestroyBuffer(a.uniformBuf)
		a.uniformBuf = nil
	}
	if a.pipeLayout != nil {
		a.device.DestroyPipelineLayout(a.pipeLayout)
		a.pipeLayout = nil
	}
	if a.uniformLayout != nil {
		a.device.DestroyBindGroupLayout(a.uniformLayout)
		a.uniformLayout = nil
	}
	if a.shader != nil {
		a.device.DestroyShaderModule(a.shader)
		a.shader = nil
	}
}

// pipeline returns the cached render pipeline for a key, creating it on
// first use.
func (a *Adapter) pipeline(key pipelineKey) (hal.RenderPipeline, error) {
	if p, ok := a.pipelines[key]; ok {
		return p, nil
	}
	topology, err := convertTopology(key.topology)
	if err != nil {
		return nil, err
	}
	p, err := a.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "batch_pipeline_" + key.topology.String() + "_" + key.blend.String(),
		Layout: a.pipeLayout,
		Vertex: hal.VertexState{
			Module:     a.shader,
			EntryPoint: "vs_main",
			Buffers:    colorVertexLayout(),
		},
		Fragment: &hal.FragmentState{
			Module:     a.shader,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{
				{
					Format:    gputypes.TextureFormatRGBA8Unorm,
					Blend:     convertBlend(key.blend),
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: topology,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("native: create pipeline: %w", err)
	}
	a.pipelines[key] = p
	return p, nil
}

// ensureTarget (re)creates the offscreen color texture for the frame size.
func (a *Adapter) ensureTarget(width, height uint32) error {
	if a.colorTex != nil && a.width == width && a.height == height {
		return nil
	}
	a.destroyTarget()

	tex, err := a.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "batch_color",
		Size:          hal.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return fmt.Errorf("create color texture: %w", err)
	}
	view, err := a.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label: "batch_color_view",
	})
	if err != nil {
		a.device.DestroyTexture(tex)
		return fmt.Errorf("create color view: %w", err)
	}
	a.colorTex = tex
	a.colorView = view
	a.width = width
	a.height = height
	return nil
}

func (a *Adapter) destroyTarget() {
	if a.colorView != nil {
		a.device.DestroyTextureView(a.colorView)
		a.colorView = nil
	}
	if a.colorTex != nil {
		a.device.DestroyTexture(a.colorTex)
		a.colorTex = nil
	}
}
