// Copyright 2024 The RG Authors. All rights reserved.

package rg_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kestrelgx/rg/rg"
	"github.com/kestrelgx/rg/driver"
	"github.com/kestrelgx/rg/driver/fake"
)

// TestPoolCrossFrameCarryover verifies that an entry freed at the end
// of one frame is reused by a later frame requesting the same
// descriptor, rather than allocated again, as long as it stays within
// the configured budget.
func TestPoolCrossFrameCarryover(t *testing.T) {
	gpu := newFakeGPU(t)
	pool := rg.NewPool(gpu, 64<<20)

	run := func() {
		g := rg.New(gpu, pool, rg.Config{})
		type data struct{}
		rg.AddPass(g, "p", rg.PassGraphics, rg.PassSkipAutoRenderPass|rg.PassForceNoCull,
			func(d *data, b *rg.Builder) {
				b.DeclareTexture("scratch", colorDesc(64, 64))
				b.WriteRenderTarget("scratch", driver.LClear, driver.SStore)
			},
			func(d *data, ctx *rg.Context) error { return nil },
		)
		require.NoError(t, g.Compile())
		require.NoError(t, g.Execute(&fake.CmdBuffer{}))
	}

	run()
	allocatedAfterFirst := gpu.(*fake.GPU).Allocated()
	run()
	allocatedAfterSecond := gpu.(*fake.GPU).Allocated()

	require.Equal(t, allocatedAfterFirst, allocatedAfterSecond, "second frame should reuse the first frame's allocation, not grow")
}

// TestPoolOutOfMemoryPropagatesError exercises the pool's error path
// when the underlying GPU refuses to allocate.
func TestPoolOutOfMemoryPropagatesError(t *testing.T) {
	gpu := newFakeGPU(t)
	pool := rg.NewPool(gpu, 64<<20)
	g := rg.New(gpu, pool, rg.Config{})

	gpu.(*fake.GPU).FailNext(driver.ErrNoDeviceMemory)

	type data struct{}
	rg.AddPass(g, "p", rg.PassGraphics, rg.PassSkipAutoRenderPass|rg.PassForceNoCull,
		func(d *data, b *rg.Builder) {
			b.DeclareTexture("scratch", colorDesc(64, 64))
			b.WriteRenderTarget("scratch", driver.LClear, driver.SStore)
		},
		func(d *data, ctx *rg.Context) error { return nil },
	)

	err := g.Compile()
	require.Error(t, err)
}
