// Copyright 2024 The RG Authors. All rights reserved.

package rg_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kestrelgx/rg/rg"
)

type cameraData struct {
	FOV float32
}

type lightingData struct {
	Intensity float32
}

func TestBlackboardAddGetTryGet(t *testing.T) {
	gpu := newFakeGPU(t)
	pool := rg.NewPool(gpu, 64<<20)
	g := rg.New(gpu, pool, rg.Config{})

	bb := g.Blackboard()
	rg.Add(bb, cameraData{FOV: 75})

	got := rg.Get[cameraData](bb)
	require.Equal(t, float32(75), got.FOV)

	_, ok := rg.TryGet[lightingData](bb)
	require.False(t, ok)

	rg.Add(bb, lightingData{Intensity: 2})
	v, ok := rg.TryGet[lightingData](bb)
	require.True(t, ok)
	require.Equal(t, float32(2), v.Intensity)
}

func TestBlackboardGetMissingPanics(t *testing.T) {
	gpu := newFakeGPU(t)
	pool := rg.NewPool(gpu, 64<<20)
	g := rg.New(gpu, pool, rg.Config{})

	require.Panics(t, func() { rg.Get[cameraData](g.Blackboard()) })
}
