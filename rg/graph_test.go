// Copyright 2024 The RG Authors. All rights reserved.

package rg_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kestrelgx/rg/rg"
	"github.com/kestrelgx/rg/driver"
	"github.com/kestrelgx/rg/driver/fake"
)

func newFakeGPU(t *testing.T) driver.GPU {
	t.Helper()
	d := &fake.Driver{}
	gpu, err := d.Open()
	require.NoError(t, err)
	return gpu
}

func colorDesc(w, h int) rg.TextureDesc {
	return rg.TextureDesc{
		Format:  driver.BGRA8un,
		Size:    driver.Dim3D{Width: w, Height: h, Depth: 1},
		Layers:  1,
		Levels:  1,
		Samples: 1,
		Usage:   driver.URenderTarget | driver.UShaderSample,
	}
}

// Scenario 1: a linear chain of passes, each reading the previous
// pass's output, must execute in declaration order with a barrier
// transitioning the resource between render-target and shader-read on
// every hop.
func TestLinearChain(t *testing.T) {
	gpu := newFakeGPU(t)
	pool := rg.NewPool(gpu, 64<<20)
	g := rg.New(gpu, pool, rg.Config{})

	type data struct {
		out rg.WriteID
		in  rg.ReadID
	}

	var order []string

	rg.AddPass(g, "gbuffer", rg.PassGraphics, rg.PassNone,
		func(d *data, b *rg.Builder) {
			b.DeclareTexture("albedo", colorDesc(64, 64))
			d.out = b.WriteRenderTarget("albedo", driver.LClear, driver.SStore)
		},
		func(d *data, ctx *rg.Context) error {
			order = append(order, "gbuffer")
			return nil
		},
	)
	// Nothing reads "lit", so the last pass is kept alive explicitly.
	rg.AddPass(g, "lighting", rg.PassGraphics, rg.PassForceNoCull,
		func(d *data, b *rg.Builder) {
			d.in = b.ReadTexture("albedo", rg.AccessShaderResourcePixel)
			b.DeclareTexture("lit", colorDesc(64, 64))
			d.out = b.WriteRenderTarget("lit", driver.LClear, driver.SStore)
		},
		func(d *data, ctx *rg.Context) error {
			order = append(order, "lighting")
			return nil
		},
	)

	require.NoError(t, g.Compile())

	cb := &fake.CmdBuffer{}
	require.NoError(t, g.Execute(cb))

	require.Equal(t, []string{"gbuffer", "lighting"}, order)

	var transitions int
	for _, c := range cb.Cmds {
		if c.Kind == fake.CmdTransition {
			transitions++
		}
	}
	require.GreaterOrEqual(t, transitions, 2, "expected at least one transition per pass boundary")
}

// Scenario 2: a pass whose sole output is never read by anything else
// in the graph is culled, and nothing attempts to execute it.
func TestDeadBranchCulling(t *testing.T) {
	gpu := newFakeGPU(t)
	pool := rg.NewPool(gpu, 64<<20)
	g := rg.New(gpu, pool, rg.Config{})

	var ran []string

	type data struct{}

	rg.AddPass(g, "A", rg.PassGraphics, rg.PassNone,
		func(d *data, b *rg.Builder) {
			b.DeclareTexture("X", colorDesc(32, 32))
			b.WriteRenderTarget("X", driver.LClear, driver.SStore)
		},
		func(d *data, ctx *rg.Context) error { ran = append(ran, "A"); return nil },
	)
	rg.AddPass(g, "B", rg.PassGraphics, rg.PassNone,
		func(d *data, b *rg.Builder) {
			b.ReadTexture("X", rg.AccessShaderResourcePixel)
			b.DeclareTexture("Y", colorDesc(32, 32))
			b.WriteRenderTarget("Y", driver.LClear, driver.SStore)
		},
		func(d *data, ctx *rg.Context) error { ran = append(ran, "B"); return nil },
	)
	rg.AddPass(g, "E", rg.PassGraphics, rg.PassNone,
		func(d *data, b *rg.Builder) {
			b.ReadTexture("X", rg.AccessShaderResourcePixel)
			b.DeclareTexture("Z", colorDesc(32, 32))
			b.WriteRenderTarget("Z", driver.LClear, driver.SStore)
		},
		func(d *data, ctx *rg.Context) error { ran = append(ran, "E"); return nil },
	)
	// "Y" is read, "Z" is not.
	rg.AddPass(g, "present", rg.PassGraphics, rg.PassSkipAutoRenderPass,
		func(d *data, b *rg.Builder) {
			b.ReadTexture("Y", rg.AccessShaderResourcePixel)
		},
		func(d *data, ctx *rg.Context) error { ran = append(ran, "present"); return nil },
	)

	require.NoError(t, g.Compile())
	require.NoError(t, g.Execute(&fake.CmdBuffer{}))

	require.Equal(t, []string{"A", "B", "present"}, ran)
}

// Scenario 3: two textures with disjoint lifetimes are allocated from
// the same pool entry, proving aliasing actually happens.
func TestTransientAliasing(t *testing.T) {
	gpu := newFakeGPU(t)
	pool := rg.NewPool(gpu, 64<<20)
	g := rg.New(gpu, pool, rg.Config{})

	type data struct{}

	rg.AddPass(g, "first", rg.PassGraphics, rg.PassNone,
		func(d *data, b *rg.Builder) {
			b.DeclareTexture("scratchA", colorDesc(128, 128))
			b.WriteRenderTarget("scratchA", driver.LClear, driver.SStore)
		},
		func(d *data, ctx *rg.Context) error { return nil },
	)
	rg.AddPass(g, "consumeA", rg.PassGraphics, rg.PassSkipAutoRenderPass,
		func(d *data, b *rg.Builder) {
			b.ReadTexture("scratchA", rg.AccessShaderResourcePixel)
		},
		func(d *data, ctx *rg.Context) error { return nil },
	)
	rg.AddPass(g, "produceB", rg.PassGraphics, rg.PassNone,
		func(d *data, b *rg.Builder) {
			b.DeclareTexture("scratchB", colorDesc(128, 128))
			b.WriteRenderTarget("scratchB", driver.LClear, driver.SStore)
		},
		func(d *data, ctx *rg.Context) error { return nil },
	)
	rg.AddPass(g, "consumeB", rg.PassGraphics, rg.PassSkipAutoRenderPass,
		func(d *data, b *rg.Builder) {
			b.ReadTexture("scratchB", rg.AccessShaderResourcePixel)
		},
		func(d *data, ctx *rg.Context) error { return nil },
	)

	require.NoError(t, g.Compile())
	require.NoError(t, g.Execute(&fake.CmdBuffer{}))

	// scratchB's lifetime begins only after scratchA's has ended, so
	// the pool should have allocated exactly one image, not two.
	require.Equal(t, int64(128*128*4), gpu.(*fake.GPU).Allocated())
}

// Scenario 4: an imported resource round-trips Present -> RenderTarget
// -> Present, and is restored to its declared final layout even though
// nothing in the graph explicitly transitions it back.
func TestImportedRoundTrip(t *testing.T) {
	gpu := newFakeGPU(t)
	img, err := gpu.NewImage(driver.BGRA8un, driver.Dim3D{Width: 256, Height: 256, Depth: 1}, 1, 1, 1, driver.URenderTarget)
	require.NoError(t, err)

	pool := rg.NewPool(gpu, 64<<20)
	g := rg.New(gpu, pool, rg.Config{})

	backBuf, err := g.ImportTexture("backbuffer", img, driver.LPresent, driver.LPresent)
	require.NoError(t, err)
	require.True(t, backBuf.Valid())

	type data struct{}
	rg.AddPass(g, "blit", rg.PassGraphics, rg.PassNone,
		func(d *data, b *rg.Builder) {
			b.WriteRenderTarget("backbuffer", driver.LClear, driver.SStore)
		},
		func(d *data, ctx *rg.Context) error { return nil },
	)

	require.NoError(t, g.Compile())

	cb := &fake.CmdBuffer{}
	require.NoError(t, g.Execute(cb))

	var transitions []driver.Transition
	for _, c := range cb.Cmds {
		if c.Kind == fake.CmdTransition {
			transitions = append(transitions, c.Transition...)
		}
	}
	require.NotEmpty(t, transitions)
	last := transitions[len(transitions)-1]
	require.Equal(t, driver.LPresent, last.LayoutAfter)
}

// Scenario 5: a compute pass that ping-pongs a buffer between two UAV
// writes must emit a barrier for each hazard, since a UAV touch always
// re-barriers even when the resolved state doesn't otherwise change.
func TestUAVPingPong(t *testing.T) {
	gpu := newFakeGPU(t)
	pool := rg.NewPool(gpu, 64<<20)
	g := rg.New(gpu, pool, rg.Config{})

	bufDesc := rg.BufferDesc{Size: 4096, Usage: driver.UShaderRead | driver.UShaderWrite}

	type data struct{}
	rg.AddPass(g, "seed", rg.PassCompute, rg.PassNone,
		func(d *data, b *rg.Builder) {
			b.DeclareBuffer("particles", bufDesc)
			b.WriteBuffer("particles")
		},
		func(d *data, ctx *rg.Context) error { return nil },
	)
	rg.AddPass(g, "simA", rg.PassCompute, rg.PassNone,
		func(d *data, b *rg.Builder) {
			b.ReadBuffer("particles", rg.AccessUnorderedAccess)
			b.WriteBuffer("particles")
		},
		func(d *data, ctx *rg.Context) error { return nil },
	)
	rg.AddPass(g, "simB", rg.PassCompute, rg.PassForceNoCull,
		func(d *data, b *rg.Builder) {
			b.ReadBuffer("particles", rg.AccessUnorderedAccess)
			b.WriteBuffer("particles")
		},
		func(d *data, ctx *rg.Context) error { return nil },
	)

	require.NoError(t, g.Compile())

	cb := &fake.CmdBuffer{}
	require.NoError(t, g.Execute(cb))

	var barriers int
	for _, c := range cb.Cmds {
		if c.Kind == fake.CmdBarrier {
			barriers += len(c.Barriers)
		}
	}
	require.GreaterOrEqual(t, barriers, 2, "every UAV write after the first must re-barrier")
}

// Scenario 6: PassForceNoCull keeps an otherwise-dead pass (nothing
// reads its output) in the execution plan.
func TestForceNoCull(t *testing.T) {
	gpu := newFakeGPU(t)
	pool := rg.NewPool(gpu, 64<<20)
	g := rg.New(gpu, pool, rg.Config{})

	var ran bool
	type data struct{}
	rg.AddPass(g, "telemetry", rg.PassCopy, rg.PassForceNoCull,
		func(d *data, b *rg.Builder) {
			b.DeclareBuffer("stats", rg.BufferDesc{Size: 256, Usage: driver.UShaderWrite})
			b.WriteBuffer("stats")
		},
		func(d *data, ctx *rg.Context) error { ran = true; return nil },
	)

	require.NoError(t, g.Compile())
	require.NoError(t, g.Execute(&fake.CmdBuffer{}))
	require.True(t, ran, "a PassForceNoCull pass must still execute even though nothing reads its output")
}

func TestCreatorCulledReturnsError(t *testing.T) {
	gpu := newFakeGPU(t)
	pool := rg.NewPool(gpu, 64<<20)
	g := rg.New(gpu, pool, rg.Config{})

	type data struct{}
	rg.AddPass(g, "shadow", rg.PassGraphics, rg.PassActAsCreatorWhenWriting,
		func(d *data, b *rg.Builder) {
			b.DeclareTexture("shadowmap", colorDesc(16, 16))
			b.WriteRenderTarget("shadowmap", driver.LClear, driver.SStore)
		},
		func(d *data, ctx *rg.Context) error { return nil },
	)

	err := g.Compile()
	require.ErrorIs(t, err, rg.ErrCreatorCulled)
}

// TestInvalidIDOnErrorPath asserts that a failed import reports
// Valid() == false, not the zero resourceID (which is always a real
// resource: the first one declared or imported in any frame).
func TestInvalidIDOnErrorPath(t *testing.T) {
	gpu := newFakeGPU(t)
	pool := rg.NewPool(gpu, 64<<20)
	g := rg.New(gpu, pool, rg.Config{})

	img, err := gpu.NewImage(driver.BGRA8un, driver.Dim3D{Width: 8, Height: 8, Depth: 1}, 1, 1, 1, driver.URenderTarget)
	require.NoError(t, err)

	first, err := g.ImportTexture("dup", img, driver.LPresent, driver.LPresent)
	require.NoError(t, err)
	require.True(t, first.Valid())

	second, err := g.ImportTexture("dup", img, driver.LPresent, driver.LPresent)
	require.Error(t, err)
	require.False(t, second.Valid())

	buf, err := gpu.NewBuffer(256, true, driver.UShaderRead)
	require.NoError(t, err)

	firstBuf, err := g.ImportBuffer("dupbuf", buf, driver.ANone, driver.ANone)
	require.NoError(t, err)
	require.True(t, firstBuf.Valid())

	secondBuf, err := g.ImportBuffer("dupbuf", buf, driver.ANone, driver.ANone)
	require.Error(t, err)
	require.False(t, secondBuf.Valid())
}

func TestCompileTwicePanics(t *testing.T) {
	gpu := newFakeGPU(t)
	pool := rg.NewPool(gpu, 64<<20)
	g := rg.New(gpu, pool, rg.Config{})

	type data struct{}
	rg.AddPass(g, "noop", rg.PassGraphics, rg.PassSkipAutoRenderPass,
		func(d *data, b *rg.Builder) {},
		func(d *data, ctx *rg.Context) error { return nil },
	)

	require.NoError(t, g.Compile())
	require.Panics(t, func() { g.Compile() })
}
