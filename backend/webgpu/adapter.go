// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package webgpu

import (
	_ "embed"
	"errors"
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gogpu/naga"

	"github.com/gogpu/batch/gpucore"
)

//go:embed shaders/color.wgsl
var colorShaderSource string

//go:embed shaders/texture.wgsl
var textureShaderSource string

// globalsSize is the byte size of the viewport uniform buffer:
// vec2<f32> viewport + vec2<f32> padding.
const globalsSize = 16

// Errors returned by the webgpu adapter.
var (
	ErrNoFrame        = errors.New("webgpu: no frame in progress")
	ErrFrameOpen      = errors.New("webgpu: frame already in progress")
	ErrUnknownTexture = errors.New("webgpu: unknown texture")
	ErrUnknownBuffer  = errors.New("webgpu: unknown buffer")
)

// Clear is the color a frame starts from. A nil *Clear in Begin loads the
// existing target contents instead, for batches layered over other passes.
type Clear struct {
	R, G, B, A float64
}

// pipelineKey selects a cached render pipeline. Textured states share
// pipelines regardless of which texture is bound; the texture itself is a
// bind group, not pipeline state.
type pipelineKey struct {
	topology gpucore.Topology
	blend    gpucore.BlendMode
	format   gpucore.VertexFormat
	textured bool
}

// textureEntry holds the GPU objects for one registered texture.
type textureEntry struct {
	texture *wgpu.Texture
	view    *wgpu.TextureView
	bind    *wgpu.BindGroup
	width   uint32
	height  uint32
}

// Adapter implements gpucore.Adapter on cogentcore/webgpu.
type Adapter struct {
	dev        *Device
	ownsDevice bool
	format     wgpu.TextureFormat

	buffers map[gpucore.BufferID]*wgpu.Buffer
	nextBuf uint64

	textures map[gpucore.TextureID]*textureEntry
	nextTex  uint64

	globalsBuf    *wgpu.Buffer
	globalsBG     *wgpu.BindGroup
	globalsLayout *wgpu.BindGroupLayout
	textureLayout *wgpu.BindGroupLayout
	colorLayout   *wgpu.PipelineLayout
	texPipeLayout *wgpu.PipelineLayout
	sampler       *wgpu.Sampler

	colorModule   *wgpu.ShaderModule
	textureModule *wgpu.ShaderModule
	pipelines     map[pipelineKey]*wgpu.RenderPipeline

	encoder *wgpu.CommandEncoder
	pass    *wgpu.RenderPassEncoder
}

var _ gpucore.Adapter = (*Adapter)(nil)

// New creates an adapter on an existing device, targeting color
// attachments of the given format (usually the surface format).
func New(dev *Device, format wgpu.TextureFormat) (*Adapter, error) {
	a := &Adapter{
		dev:       dev,
		format:    format,
		buffers:   make(map[gpucore.BufferID]*wgpu.Buffer),
		textures:  make(map[gpucore.TextureID]*textureEntry),
		pipelines: make(map[pipelineKey]*wgpu.RenderPipeline),
	}
	if err := a.createShared(); err != nil {
		a.Destroy()
		return nil, err
	}
	return a, nil
}

// createShared validates and compiles the shaders and creates the layouts,
// sampler and uniform resources shared by every pipeline.
func (a *Adapter) createShared() error {
	// Run the shaders through naga first: a WGSL error surfaces here as a
	// compiler diagnostic instead of a device loss at pipeline creation.
	for name, src := range map[string]string{"color": colorShaderSource, "texture": textureShaderSource} {
		if _, err := naga.Compile(src); err != nil {
			return fmt.Errorf("webgpu: validate %s shader: %w", name, err)
		}
	}

	device := a.dev.Device
	colorModule, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "batch-color-shader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: colorShaderSource},
	})
	if err != nil {
		return fmt.Errorf("webgpu: compile color shader: %w", err)
	}
	a.colorModule = colorModule

	textureModule, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "batch-texture-shader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: textureShaderSource},
	})
	if err != nil {
		return fmt.Errorf("webgpu: compile texture shader: %w", err)
	}
	a.textureModule = textureModule

	globalsLayout, err := device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "batch-globals-layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageVertex,
				Buffer:     wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("webgpu: create globals layout: %w", err)
	}
	a.globalsLayout = globalsLayout

	textureLayout, err := device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "batch-texture-layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageFragment,
				Texture: wgpu.TextureBindingLayout{
					SampleType:    wgpu.TextureSampleTypeFloat,
					ViewDimension: wgpu.TextureViewDimension2D,
				},
			},
			{
				Binding:    1,
				Visibility: wgpu.ShaderStageFragment,
				Sampler:    wgpu.SamplerBindingLayout{Type: wgpu.SamplerBindingTypeFiltering},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("webgpu: create texture layout: %w", err)
	}
	a.textureLayout = textureLayout

	colorLayout, err := device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "batch-color-pipe-layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{a.globalsLayout},
	})
	if err != nil {
		return fmt.Errorf("webgpu: create color pipeline layout: %w", err)
	}
	a.colorLayout = colorLayout

	texPipeLayout, err := device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "batch-texture-pipe-layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{a.globalsLayout, a.textureLayout},
	})
	if err != nil {
		return fmt.Errorf("webgpu: create texture pipeline layout: %w", err)
	}
	a.texPipeLayout = texPipeLayout

	globalsBuf, err := device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "batch-globals",
		Size:  globalsSize,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("webgpu: create globals buffer: %w", err)
	}
	a.globalsBuf = globalsBuf

	globalsBG, err := device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "batch-globals-bind",
		Layout: a.globalsLayout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: a.globalsBuf, Offset: 0, Size: globalsSize},
		},
	})
	if err != nil {
		return fmt.Errorf("webgpu: create globals bind group: %w", err)
	}
	a.globalsBG = globalsBG

	sampler, err := device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:        "batch-sampler",
		AddressModeU: wgpu.AddressModeClampToEdge,
		AddressModeV: wgpu.AddressModeClampToEdge,
		AddressModeW: wgpu.AddressModeClampToEdge,
		MagFilter:    wgpu.FilterModeLinear,
		MinFilter:    wgpu.FilterModeLinear,
		MipmapFilter: wgpu.MipmapFilterModeNearest,
	})
	if err != nil {
		return fmt.Errorf("webgpu: create sampler: %w", err)
	}
	a.sampler = sampler
	return nil
}

// SetViewport sets the pixel size drawables are laid out in. Vertex
// positions are mapped from [0,w]x[0,h] (y down) to clip space.
func (a *Adapter) SetViewport(width, height uint32) {
	a.dev.Queue.WriteBuffer(a.globalsBuf, 0, viewportUniform(width, height))
}

// Begin opens a render pass on the given target view. With a nil clear the
// pass loads the target's existing contents.
func (a *Adapter) Begin(view *wgpu.TextureView, clear *Clear) error {
	if a.pass != nil {
		return ErrFrameOpen
	}
	encoder, err := a.dev.Device.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{
		Label: "batch-frame",
	})
	if err != nil {
		return fmt.Errorf("webgpu: create command encoder: %w", err)
	}
	attachment := wgpu.RenderPassColorAttachment{
		View:    view,
		LoadOp:  wgpu.LoadOpLoad,
		StoreOp: wgpu.StoreOpStore,
	}
	if clear != nil {
		attachment.LoadOp = wgpu.LoadOpClear
		attachment.ClearValue = wgpu.Color{R: clear.R, G: clear.G, B: clear.B, A: clear.A}
	}
	a.encoder = encoder
	a.pass = encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label:            "batch-pass",
		ColorAttachments: []wgpu.RenderPassColorAttachment{attachment},
	})
	return nil
}

// End closes the render pass and submits the frame.
func (a *Adapter) End() error {
	if a.pass == nil {
		return ErrNoFrame
	}
	a.pass.End()
	a.pass.Release()
	a.pass = nil

	cmd, err := a.encoder.Finish(nil)
	a.encoder.Release()
	a.encoder = nil
	if err != nil {
		return fmt.Errorf("webgpu: finish encoder: %w", err)
	}
	a.dev.Queue.Submit(cmd)
	cmd.Release()
	return nil
}

// CreateBuffer allocates a GPU buffer and returns an opaque ID for it.
func (a *Adapter) CreateBuffer(size int, usage gpucore.BufferUsage) (gpucore.BufferID, error) {
	buf, err := a.dev.Device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            "batch-vertices",
		Size:             uint64(size),
		Usage:            convertUsage(usage),
		MappedAtCreation: false,
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("webgpu: create buffer: %w", err)
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
		return gpucore.InvalidID, fmt.Errorf("%w: %d", ErrUnknownBuffer, id)
	}
	grown, err := a.CreateBuffer(newSize, gpucore.BufferUsageVertex|gpucore.BufferUsageCopyDst)
	if err != nil {
		return gpucore.InvalidID, err
	}
	old.Release()
	delete(a.buffers, id)
	return grown, nil
}

// WriteBuffer uploads data at the given byte offset.
func (a *Adapter) WriteBuffer(id gpucore.BufferID, offset uint64, data []byte) {
	if buf, ok := a.buffers[id]; ok {
		a.dev.Queue.WriteBuffer(buf, offset, data)
	}
}

// DestroyBuffer releases a buffer.
func (a *Adapter) DestroyBuffer(id gpucore.BufferID) {
	if buf, ok := a.buffers[id]; ok {
		buf.Release()
		delete(a.buffers, id)
	}
}

// BindState selects the pipeline and bind groups for subsequent draws.
func (a *Adapter) BindState(s gpucore.State) error {
	if a.pass == nil {
		return ErrNoFrame
	}
	textured := s.Texture != gpucore.NoTexture
	p, err := a.pipeline(pipelineKey{
		topology: s.Topology,
		blend:    s.Blend,
		format:   s.Format,
		textured: textured,
	})
	if err != nil {
		return err
	}
	a.pass.SetPipeline(p)
	a.pass.SetBindGroup(0, a.globalsBG, nil)
	if textured {
		te, ok := a.textures[s.Texture]
		if !ok {
			return fmt.Errorf("%w: %d", ErrUnknownTexture, s.Texture)
		}
		a.pass.SetBindGroup(1, te.bind, nil)
	}
	return nil
}

// Draw issues one draw from the shared vertex buffer.
func (a *Adapter) Draw(buffer gpucore.BufferID, firstVertex, vertexCount uint32) error {
	if a.pass == nil {
		return ErrNoFrame
	}
	buf, ok := a.buffers[buffer]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownBuffer, buffer)
	}
	a.pass.SetVertexBuffer(0, buf, 0, wgpu.WholeSize)
	a.pass.Draw(vertexCount, 1, firstVertex, 0)
	return nil
}

// Destroy releases every GPU resource the adapter holds, and the device
// too if the adapter created it. Safe to call more than once.
func (a *Adapter) Destroy() {
	for key, p := range a.pipelines {
		p.Release()
		delete(a.pipelines, key)
	}
	for id := range a.textures {
		a.DestroyTexture(id)
	}
	for id, buf := range a.buffers {
		buf.Release()
		delete(a.buffers, id)
	}
	if a.sampler != nil {
		a.sampler.Release()
		a.sampler = nil
	}
	if a.globalsBG != nil {
		a.globalsBG.Release()
		a.globalsBG = nil
	}
	if a.globalsBuf != nil {
		a.globalsBuf.Release()
		a.globalsBuf = nil
	}
	if a.texPipeLayout != nil {
		a.texPipeLayout.Release()
		a.texPipeLayout = nil
	}
	if a.colorLayout != nil {
		a.colorLayout.Release()
		a.colorLayout = nil
	}
	if a.textureLayout != nil {
		a.textureLayout.Release()
		a.textureLayout = nil
	}
	if a.globalsLayout != nil {
		a.globalsLayout.Release()
		a.globalsLayout = nil
	}
	if a.textureModule != nil {
		a.textureModule.Release()
		a.textureModule = nil
	}
	if a.colorModule != nil {
		a.colorModule.Release()
		a.colorModule = nil
	}
	if a.ownsDevice && a.dev != nil {
		a.dev.Release()
		a.dev = nil
	}
}

// pipeline returns the cached render pipeline for a key, creating it on
// first use.
func (a *Adapter) pipeline(key pipelineKey) (*wgpu.RenderPipeline, error) {
	if p, ok := a.pipelines[key]; ok {
		return p, nil
	}
	module, layout := a.colorModule, a.colorLayout
	if key.textured {
		module, layout = a.textureModule, a.texPipeLayout
	}
	topology, err := convertTopology(key.topology)
	if err != nil {
		return nil, err
	}
	p, err := a.dev.Device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  "batch-pipeline-" + key.topology.String() + "-" + key.blend.String(),
		Layout: layout,
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: "vs_main",
			Buffers:    vertexLayout(key.format),
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{
				{
					Format:    a.format,
					Blend:     convertBlend(key.blend),
					WriteMask: wgpu.ColorWriteMaskAll,
				},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  topology,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("webgpu: create pipeline: %w", err)
	}
	a.pipelines[key] = p
	return p, nil
}
