// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package webgpu

import (
	"fmt"
	"image"

	"github.com/cogentcore/webgpu/wgpu"
	xdraw "golang.org/x/image/draw"

	"github.com/gogpu/batch/gpucore"
)

// CreateTextureFromImage uploads img as an RGBA8 texture and returns an ID
// usable in render states. Non-RGBA images are converted on the CPU first.
func (a *Adapter) CreateTextureFromImage(img image.Image) (gpucore.TextureID, error) {
	rgba := imageToRGBA(img)
	sz := rgba.Rect.Size()
	w, h := uint32(sz.X), uint32(sz.Y)

	extent := wgpu.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1}
	tex, err := a.dev.Device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "batch-texture",
		Size:          extent,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatRGBA8Unorm,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
	})
	if err != nil {
		return gpucore.NoTexture, fmt.Errorf("webgpu: create texture: %w", err)
	}

	a.dev.Queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Aspect:   wgpu.TextureAspectAll,
			Texture:  tex,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{X: 0, Y: 0, Z: 0},
		},
		rgba.Pix,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  4 * w,
			RowsPerImage: h,
		},
		&extent,
	)

	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return gpucore.NoTexture, fmt.Errorf("webgpu: create texture view: %w", err)
	}
	bind, err := a.dev.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "batch-texture-bind",
		Layout: a.textureLayout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, TextureView: view},
			{Binding: 1, Sampler: a.sampler},
		},
	})
	if err != nil {
		view.Release()
		tex.Release()
		return gpucore.NoTexture, fmt.Errorf("webgpu: create texture bind group: %w", err)
	}

	a.nextTex++
	id := gpucore.TextureID(a.nextTex)
	a.textures[id] = &textureEntry{texture: tex, view: view, bind: bind, width: w, height: h}
	return id, nil
}

// DestroyTexture releases a texture and its bind group. Render states
// still referring to the ID fail at the next BindState.
func (a *Adapter) DestroyTexture(id gpucore.TextureID) {
	te, ok := a.textures[id]
	if !ok {
		return
	}
	te.bind.Release()
	te.view.Release()
	te.texture.Release()
	delete(a.textures, id)
}

// TextureSize returns a registered texture's pixel dimensions.
func (a *Adapter) TextureSize(id gpucore.TextureID) (width, height uint32, err error) {
	te, ok := a.textures[id]
	if !ok {
		return 0, 0, fmt.Errorf("%w: %d", ErrUnknownTexture, id)
	}
	return te.width, te.height, nil
}

// imageToRGBA returns img as *image.RGBA, converting only when necessary.
func imageToRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	rgba := image.NewRGBA(image.Rectangle{Max: img.Bounds().Size()})
	xdraw.Copy(rgba, image.Point{}, img, img.Bounds(), xdraw.Src, nil)
	return rgba
}
