// Copyright 2024 The RG Authors. All rights reserved.

package rg

import "github.com/kestrelgx/rg/driver"

// PassType is the kind of GPU work a pass performs.
type PassType int

// Pass types.
const (
	PassGraphics PassType = iota
	PassCompute
	PassCopy
)

// PassFlags modulates how the compiler and executor treat a pass.
type PassFlags uint8

// Pass flags.
const (
	PassNone PassFlags = 0

	// PassSkipAutoRenderPass disables the executor's automatic
	// render-pass open/close around a Graphics pass, for passes that
	// need to drive BeginPass/EndPass themselves (or don't render at
	// all despite being marked Graphics).
	PassSkipAutoRenderPass PassFlags = 1 << (iota - 1)

	// PassForceNoCull keeps a pass in the execution plan even if
	// culling would otherwise remove it (ref_count == 0).
	PassForceNoCull

	// PassLegacyRenderPass marks a pass as using the "old" per-entity
	// draw path rather than a batched/instanced one. The graph does
	// not interpret this flag; it exists purely as a hint threaded
	// through to pass bodies, which are out of this module's scope.
	PassLegacyRenderPass

	// PassActAsCreatorWhenWriting lets a pass that writes to an
	// upstream-declared or imported resource register as that
	// resource's primary producer for ordering, instead of the pass
	// that originally declared/imported it. If the pass carrying this
	// flag is itself culled, Compile fails with ErrCreatorCulled: see
	// DESIGN.md for the reasoning.
	PassActAsCreatorWhenWriting
)

type rtRef struct {
	id    resourceID
	newID resourceID // version after the write this target represents
	load  driver.LoadOp
	store driver.StoreOp
}

type readEntry struct {
	id     resourceID
	kind   ResourceKind
	access AccessKind
}

type writeEntry struct {
	id     resourceID // id being superseded
	newID  resourceID // id of the new version
	kind   ResourceKind
	access AccessKind
}

// PassNode is the Pass Record of the data model. It is built up by a
// Builder during AddPass and consulted, read-only, by the compiler
// and executor afterwards.
type PassNode struct {
	name  string
	typ   PassType
	flags PassFlags
	index int

	creates []resourceID
	reads   []readEntry
	writes  []writeEntry

	renderTargets []rtRef
	depthStencil  *rtRef

	viewportW, viewportH int

	refCount int
	culled   bool

	// seen enforces the "no simultaneous non-UAV write and read of
	// the same resource" invariant while the builder is recording
	// accesses. Keyed by Name rather than resourceID: a write rebinds
	// the name to a new resourceID, so only the name stays stable
	// across a write within one pass.
	seen map[Name]AccessKind

	executeFn func(ctx *Context) error
}

func newPassNode(index int, name string, typ PassType, flags PassFlags) *PassNode {
	return &PassNode{
		index: index,
		name:  name,
		typ:   typ,
		flags: flags,
		seen:  make(map[Name]AccessKind),
	}
}
