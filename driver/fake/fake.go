// Copyright 2024 The RG Authors. All rights reserved.

// Package fake implements an in-memory driver.Driver that
// allocates no real GPU resources.
//
// It exists so that code built on top of package driver —
// chiefly the rg package — can be exercised by tests without
// a real backend (driver/vk and friends) installed. It plays
// the same role in this module's test suite that a software
// rasterizer plays for a renderer: wrong to ship, useful to
// verify scheduling logic against.
package fake

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/kestrelgx/rg/driver"
)

func init() {
	driver.Register(&Driver{})
}

// Driver is the fake driver.Driver.
type Driver struct {
	mu  sync.Mutex
	gpu *GPU
}

// Name implements driver.Driver.
func (d *Driver) Name() string { return "fake" }

// Open implements driver.Driver.
func (d *Driver) Open() (driver.GPU, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.gpu == nil {
		d.gpu = &GPU{drv: d, limits: DefaultLimits()}
	}
	return d.gpu, nil
}

// Close implements driver.Driver.
func (d *Driver) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.gpu = nil
}

// DefaultLimits returns generous limits suitable for tests.
func DefaultLimits() driver.Limits {
	return driver.Limits{
		MaxImage1D:        16384,
		MaxImage2D:        16384,
		MaxImageCube:      16384,
		MaxImage3D:        2048,
		MaxLayers:         2048,
		MaxDescHeaps:      8,
		MaxDBuffer:        1 << 20,
		MaxDImage:         1 << 20,
		MaxDConstant:      1 << 20,
		MaxDTexture:       1 << 20,
		MaxDSampler:       1 << 16,
		MaxDBufferRange:   1 << 27,
		MaxDConstantRange: 1 << 16,
		MaxColorTargets:   8,
		MaxFBSize:         [2]int{16384, 16384},
		MaxFBLayers:       2048,
		MaxPointSize:      256,
		MaxViewports:      16,
		MaxVertexIn:       32,
		MaxFragmentIn:     32,
		MaxDispatch:       [3]int{65535, 65535, 65535},
	}
}

// GPU is the fake driver.GPU.
type GPU struct {
	drv    *Driver
	limits driver.Limits

	mu        sync.Mutex
	allocated int64 // bytes currently allocated via NewImage/NewBuffer
	failNext  error // if set, the next resource-creating call fails and clears it
}

// FailNext makes the next allocation call on g return err instead
// of succeeding. It is used by pool tests to exercise the
// out-of-memory path deterministically.
func (g *GPU) FailNext(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failNext = err
}

func (g *GPU) takeFailure() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	err := g.failNext
	g.failNext = nil
	return err
}

// Allocated returns the number of bytes currently allocated
// through NewImage/NewBuffer and not yet Destroyed. Tests use
// this to assert that the transient pool actually reuses
// allocations instead of growing unboundedly.
func (g *GPU) Allocated() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.allocated
}

func (g *GPU) track(delta int64) {
	g.mu.Lock()
	g.allocated += delta
	g.mu.Unlock()
}

// Driver implements driver.GPU.
func (g *GPU) Driver() driver.Driver { return g.drv }

// Limits implements driver.GPU.
func (g *GPU) Limits() driver.Limits { return g.limits }

// Commit implements driver.GPU. It runs no actual work; it
// sends a single nil on ch for the whole batch, from a new
// goroutine, the way a real backend reports once its fence
// signals.
func (g *GPU) Commit(cb []driver.CmdBuffer, ch chan<- error) {
	go func() {
		ch <- nil
	}()
}

// NewCmdBuffer implements driver.GPU.
func (g *GPU) NewCmdBuffer() (driver.CmdBuffer, error) {
	return &CmdBuffer{}, nil
}

// NewRenderPass implements driver.GPU.
func (g *GPU) NewRenderPass(att []driver.Attachment, sub []driver.Subpass) (driver.RenderPass, error) {
	a := make([]driver.Attachment, len(att))
	copy(a, att)
	s := make([]driver.Subpass, len(sub))
	copy(s, sub)
	return &RenderPass{att: a, sub: s}, nil
}

// NewShaderCode implements driver.GPU.
func (g *GPU) NewShaderCode(data []byte) (driver.ShaderCode, error) {
	return &ShaderCode{}, nil
}

// NewDescHeap implements driver.GPU.
func (g *GPU) NewDescHeap(ds []driver.Descriptor) (driver.DescHeap, error) {
	d := make([]driver.Descriptor, len(ds))
	copy(d, ds)
	return &DescHeap{descs: d}, nil
}

// NewDescTable implements driver.GPU.
func (g *GPU) NewDescTable(dh []driver.DescHeap) (driver.DescTable, error) {
	return &DescTable{}, nil
}

// NewPipeline implements driver.GPU.
func (g *GPU) NewPipeline(state any) (driver.Pipeline, error) {
	switch state.(type) {
	case *driver.GraphState, *driver.CompState:
		return &Pipeline{}, nil
	default:
		return nil, errors.New("fake: NewPipeline: state must be *driver.GraphState or *driver.CompState")
	}
}

var nextImageID atomic.Uint64

// NewImage implements driver.GPU.
func (g *GPU) NewImage(pf driver.PixelFmt, size driver.Dim3D, layers, levels, samples int, usg driver.Usage) (driver.Image, error) {
	if err := g.takeFailure(); err != nil {
		return nil, err
	}
	if size.Width < 1 || size.Height < 1 {
		return nil, errors.New("fake: NewImage: invalid size")
	}
	bytes := int64(size.Width) * int64(size.Height) * int64(max(size.Depth, 1)) * int64(max(layers, 1)) * 4
	g.track(bytes)
	return &Image{
		gpu:     g,
		id:      nextImageID.Add(1),
		pf:      pf,
		size:    size,
		layers:  layers,
		levels:  levels,
		samples: samples,
		usage:   usg,
		bytes:   bytes,
	}, nil
}

// NewBuffer implements driver.GPU.
func (g *GPU) NewBuffer(size int64, visible bool, usg driver.Usage) (driver.Buffer, error) {
	if err := g.takeFailure(); err != nil {
		return nil, err
	}
	if size < 1 {
		return nil, errors.New("fake: NewBuffer: invalid size")
	}
	g.track(size)
	var data []byte
	if visible {
		data = make([]byte, size)
	}
	return &Buffer{gpu: g, size: size, visible: visible, data: data}, nil
}

// NewSampler implements driver.GPU.
func (g *GPU) NewSampler(spln *driver.Sampling) (driver.Sampler, error) {
	return &Sampler{}, nil
}
