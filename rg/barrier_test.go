// Copyright 2024 The RG Authors. All rights reserved.

package rg

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kestrelgx/rg/driver"
)

func TestAccessStateTable(t *testing.T) {
	cases := []struct {
		access AccessKind
		layout driver.Layout
		sync   driver.Sync
		access2 driver.Access
	}{
		{AccessVertexBuffer, driver.LUndefined, driver.SVertexInput, driver.AVertexBufRead},
		{AccessIndexBuffer, driver.LUndefined, driver.SVertexInput, driver.AIndexBufRead},
		{AccessCopySrc, driver.LCopySrc, driver.SCopy, driver.ACopyRead},
		{AccessCopyDst, driver.LCopyDst, driver.SCopy, driver.ACopyWrite},
		{AccessRenderTarget, driver.LColorTarget, driver.SColorOutput, driver.AColorRead | driver.AColorWrite},
		{AccessUnorderedAccess, driver.LCommon, driver.SComputeShading, driver.AShaderRead | driver.AShaderWrite},
	}
	for _, c := range cases {
		st := accessState(c.access)
		require.Equal(t, c.layout, st.layout, c.access.String())
		require.Equal(t, c.sync, st.sync, c.access.String())
		require.Equal(t, c.access2, st.access, c.access.String())
	}
}

func TestAccessStateUnknownPanics(t *testing.T) {
	require.Panics(t, func() { accessState(AccessKind(999)) })
}

func TestStateUnion(t *testing.T) {
	a := accessState(AccessShaderResourceVertex)
	b := accessState(AccessShaderResourcePixel)
	u := a.union(b)
	require.Equal(t, driver.SVertexShading|driver.SFragmentShading, u.sync)
	require.Equal(t, driver.AShaderRead, u.access)
}
