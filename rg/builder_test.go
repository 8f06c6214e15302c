// Copyright 2024 The RG Authors. All rights reserved.

package rg_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kestrelgx/rg/rg"
	"github.com/kestrelgx/rg/driver"
)

type noData struct{}

func TestDeclareDuplicateNamePanics(t *testing.T) {
	gpu := newFakeGPU(t)
	pool := rg.NewPool(gpu, 64<<20)
	g := rg.New(gpu, pool, rg.Config{})

	require.Panics(t, func() {
		rg.AddPass(g, "dup", rg.PassGraphics, rg.PassSkipAutoRenderPass,
			func(d *noData, b *rg.Builder) {
				b.DeclareTexture("tex", colorDesc(8, 8))
				b.DeclareTexture("tex", colorDesc(8, 8))
			},
			func(d *noData, ctx *rg.Context) error { return nil },
		)
	})
}

func TestReadNeverWrittenPanics(t *testing.T) {
	gpu := newFakeGPU(t)
	pool := rg.NewPool(gpu, 64<<20)
	g := rg.New(gpu, pool, rg.Config{})

	require.Panics(t, func() {
		rg.AddPass(g, "bad-read", rg.PassGraphics, rg.PassSkipAutoRenderPass,
			func(d *noData, b *rg.Builder) {
				b.DeclareTexture("tex", colorDesc(8, 8))
				b.ReadTexture("tex", rg.AccessShaderResourcePixel)
			},
			func(d *noData, ctx *rg.Context) error { return nil },
		)
	})
}

func TestWriteThenReadSamePassPanics(t *testing.T) {
	gpu := newFakeGPU(t)
	pool := rg.NewPool(gpu, 64<<20)
	g := rg.New(gpu, pool, rg.Config{})

	require.Panics(t, func() {
		rg.AddPass(g, "conflict", rg.PassGraphics, rg.PassSkipAutoRenderPass,
			func(d *noData, b *rg.Builder) {
				b.DeclareTexture("tex", colorDesc(8, 8))
				b.WriteRenderTarget("tex", driver.LClear, driver.SStore)
				b.ReadTexture("tex", rg.AccessShaderResourcePixel)
			},
			func(d *noData, ctx *rg.Context) error { return nil },
		)
	})
}

func TestUAVReadWriteSamePassAllowed(t *testing.T) {
	gpu := newFakeGPU(t)
	pool := rg.NewPool(gpu, 64<<20)
	g := rg.New(gpu, pool, rg.Config{})

	rg.AddPass(g, "seed", rg.PassCompute, rg.PassNone,
		func(d *noData, b *rg.Builder) {
			b.DeclareBuffer("buf", rg.BufferDesc{Size: 64, Usage: driver.UShaderRead | driver.UShaderWrite})
			b.WriteBuffer("buf")
		},
		func(d *noData, ctx *rg.Context) error { return nil },
	)

	require.NotPanics(t, func() {
		rg.AddPass(g, "rmw", rg.PassCompute, rg.PassForceNoCull,
			func(d *noData, b *rg.Builder) {
				b.ReadBuffer("buf", rg.AccessUnorderedAccess)
				b.WriteBuffer("buf")
			},
			func(d *noData, ctx *rg.Context) error { return nil },
		)
	})
}

func TestBuilderUsedAfterSetupPanics(t *testing.T) {
	gpu := newFakeGPU(t)
	pool := rg.NewPool(gpu, 64<<20)
	g := rg.New(gpu, pool, rg.Config{})

	var captured *rg.Builder
	rg.AddPass(g, "capture", rg.PassGraphics, rg.PassSkipAutoRenderPass,
		func(d *noData, b *rg.Builder) { captured = b },
		func(d *noData, ctx *rg.Context) error { return nil },
	)

	require.Panics(t, func() { captured.DeclareTexture("late", colorDesc(4, 4)) })
}

func TestIsDeclared(t *testing.T) {
	gpu := newFakeGPU(t)
	pool := rg.NewPool(gpu, 64<<20)
	g := rg.New(gpu, pool, rg.Config{})

	var before, after bool
	rg.AddPass(g, "check", rg.PassGraphics, rg.PassSkipAutoRenderPass,
		func(d *noData, b *rg.Builder) {
			before = b.IsDeclared("tex")
			b.DeclareTexture("tex", colorDesc(4, 4))
			after = b.IsDeclared("tex")
		},
		func(d *noData, ctx *rg.Context) error { return nil },
	)

	require.False(t, before)
	require.True(t, after)
}
