// Copyright 2024 The RG Authors. All rights reserved.

package rg

import "github.com/kestrelgx/rg/driver"

// state is the resolved (Layout, Sync, Access) triple an access kind
// maps to. hasLayout is false for the buffer-only access kinds, since
// driver.Layout is an image-only concept; buffers are tracked purely
// by Sync/Access scopes, as in modern D3D12/Vulkan barrier models.
type state struct {
	layout    driver.Layout
	sync      driver.Sync
	access    driver.Access
	hasLayout bool
}

// accessState is the Barrier Engine's access-kind to state table.
func accessState(a AccessKind) state {
	switch a {
	case AccessVertexBuffer:
		return state{sync: driver.SVertexInput, access: driver.AVertexBufRead}
	case AccessIndexBuffer:
		return state{sync: driver.SVertexInput, access: driver.AIndexBufRead}
	case AccessConstantBuffer:
		return state{sync: driver.SVertexShading | driver.SFragmentShading | driver.SComputeShading, access: driver.AShaderRead}
	case AccessShaderResourceVertex:
		return state{layout: driver.LShaderRead, hasLayout: true, sync: driver.SVertexShading, access: driver.AShaderRead}
	case AccessShaderResourcePixel:
		return state{layout: driver.LShaderRead, hasLayout: true, sync: driver.SFragmentShading, access: driver.AShaderRead}
	case AccessShaderResourceNonPixel:
		return state{layout: driver.LShaderRead, hasLayout: true, sync: driver.SVertexShading | driver.SComputeShading, access: driver.AShaderRead}
	case AccessShaderResourceAll:
		return state{layout: driver.LShaderRead, hasLayout: true, sync: driver.SVertexShading | driver.SFragmentShading | driver.SComputeShading, access: driver.AShaderRead}
	case AccessCopySrc:
		return state{layout: driver.LCopySrc, hasLayout: true, sync: driver.SCopy, access: driver.ACopyRead}
	case AccessCopyDst:
		return state{layout: driver.LCopyDst, hasLayout: true, sync: driver.SCopy, access: driver.ACopyWrite}
	case AccessIndirectArgs:
		return state{sync: driver.SDraw, access: driver.AAnyRead}
	case AccessDepthRead:
		return state{layout: driver.LDSRead, hasLayout: true, sync: driver.SDSOutput, access: driver.ADSRead}
	case AccessRenderTarget:
		return state{layout: driver.LColorTarget, hasLayout: true, sync: driver.SColorOutput, access: driver.AColorRead | driver.AColorWrite}
	case AccessDepthWrite:
		return state{layout: driver.LDSTarget, hasLayout: true, sync: driver.SDSOutput, access: driver.ADSRead | driver.ADSWrite}
	case AccessUnorderedAccess:
		return state{layout: driver.LCommon, hasLayout: true, sync: driver.SComputeShading, access: driver.AShaderRead | driver.AShaderWrite}
	default:
		panic("rg: accessState: unknown access kind")
	}
}

// union merges two states touching the same resource within a single
// pass: sync and access scopes are OR-ed, and s's layout is kept while
// o's is ignored. builder.go's markSeen rejects non-UAV write/read
// mixes, but it accepts any two reads of one resource, including read
// kinds whose layouts differ (e.g. a shader-resource read together
// with a CopySrc or DepthRead).
func (s state) union(o state) state {
	s.sync |= o.sync
	s.access |= o.access
	return s
}
