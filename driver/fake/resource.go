// Copyright 2024 The RG Authors. All rights reserved.

package fake

import (
	"github.com/kestrelgx/rg/driver"
)

// Image is the fake driver.Image.
type Image struct {
	gpu       *GPU
	id        uint64
	pf        driver.PixelFmt
	size      driver.Dim3D
	layers    int
	levels    int
	samples   int
	usage     driver.Usage
	bytes     int64
	destroyed bool
}

// ID returns an identifier unique among live fake images.
// It exists purely so tests can tell two Image values apart
// without relying on pointer equality leaking through an
// interface comparison.
func (i *Image) ID() uint64 { return i.id }

// NewView implements driver.Image.
func (i *Image) NewView(typ driver.ViewType, layer, layers, level, levels int) (driver.ImageView, error) {
	return &ImageView{img: i, typ: typ, layer: layer, layers: layers, level: level, levels: levels}, nil
}

// Destroy implements driver.Destroyer.
func (i *Image) Destroy() {
	if i.destroyed {
		return
	}
	i.destroyed = true
	i.gpu.track(-i.bytes)
}

// ImageView is the fake driver.ImageView.
type ImageView struct {
	img    *Image
	typ    driver.ViewType
	layer  int
	layers int
	level  int
	levels int
}

// Image returns the view's parent Image.
func (v *ImageView) Image() *Image { return v.img }

// Destroy implements driver.Destroyer.
func (v *ImageView) Destroy() {}

// Buffer is the fake driver.Buffer.
type Buffer struct {
	gpu       *GPU
	size      int64
	visible   bool
	data      []byte
	destroyed bool
}

// Visible implements driver.Buffer.
func (b *Buffer) Visible() bool { return b.visible }

// Bytes implements driver.Buffer.
func (b *Buffer) Bytes() []byte { return b.data }

// Cap implements driver.Buffer.
func (b *Buffer) Cap() int64 { return b.size }

// Destroy implements driver.Destroyer.
func (b *Buffer) Destroy() {
	if b.destroyed {
		return
	}
	b.destroyed = true
	b.gpu.track(-b.size)
}

// RenderPass is the fake driver.RenderPass.
type RenderPass struct {
	att []driver.Attachment
	sub []driver.Subpass
}

// NewFB implements driver.RenderPass.
func (p *RenderPass) NewFB(iv []driver.ImageView, width, height, layers int) (driver.Framebuf, error) {
	v := make([]driver.ImageView, len(iv))
	copy(v, iv)
	return &Framebuf{pass: p, views: v, width: width, height: height, layers: layers}, nil
}

// Destroy implements driver.Destroyer.
func (p *RenderPass) Destroy() {}

// Framebuf is the fake driver.Framebuf.
type Framebuf struct {
	pass   *RenderPass
	views  []driver.ImageView
	width  int
	height int
	layers int
}

// Destroy implements driver.Destroyer.
func (f *Framebuf) Destroy() {}

// ShaderCode is the fake driver.ShaderCode.
type ShaderCode struct{}

// Destroy implements driver.Destroyer.
func (*ShaderCode) Destroy() {}

// Sampler is the fake driver.Sampler.
type Sampler struct{}

// Destroy implements driver.Destroyer.
func (*Sampler) Destroy() {}

// Pipeline is the fake driver.Pipeline.
type Pipeline struct{}

// Destroy implements driver.Destroyer.
func (*Pipeline) Destroy() {}

// DescHeap is the fake driver.DescHeap.
type DescHeap struct {
	descs []driver.Descriptor
	count int
}

// New implements driver.DescHeap.
func (h *DescHeap) New(n int) error {
	h.count = n
	return nil
}

// SetBuffer implements driver.DescHeap.
func (h *DescHeap) SetBuffer(cpy, nr, start int, buf []driver.Buffer, off, size []int64) {}

// SetImage implements driver.DescHeap.
func (h *DescHeap) SetImage(cpy, nr, start int, iv []driver.ImageView) {}

// SetSampler implements driver.DescHeap.
func (h *DescHeap) SetSampler(cpy, nr, start int, splr []driver.Sampler) {}

// Count implements driver.DescHeap.
func (h *DescHeap) Count() int { return h.count }

// Destroy implements driver.Destroyer.
func (h *DescHeap) Destroy() {}

// DescTable is the fake driver.DescTable.
type DescTable struct{}

// Destroy implements driver.Destroyer.
func (*DescTable) Destroy() {}
