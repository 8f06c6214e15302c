// Copyright 2024 The RG Authors. All rights reserved.

// Package rg implements a frame-scoped, declarative render graph: a
// scheduler that accepts a collection of passes, each declaring the
// GPU resources it reads, writes, or creates, and produces a linear
// execution plan with correct resource-state transitions,
// transient-resource aliasing, culling of dead work, and per-pass
// descriptor materialization, against the driver package's
// backend-agnostic GPU abstraction.
package rg

import (
	"log"

	"github.com/google/uuid"

	"github.com/kestrelgx/rg/driver"
)

// Config carries the few tunables the render graph needs beyond the
// driver.GPU and Pool it is handed.
type Config struct {
	// TransientBudget is not read by New or by any other part of the
	// graph. The cap on transient memory carried over between frames
	// is the budget passed to NewPool.
	TransientBudget int64

	// Verbose enables log.Printf diagnostics for pass culling,
	// transient-pool growth, and aliasing decisions, each line
	// tagged with the graph's FrameID.
	Verbose bool
}

type viewKey struct {
	id     resourceID
	access AccessKind
}

// Graph is the render graph for a single frame. It is constructed by
// New, populated by ImportTexture/ImportBuffer/AddPass, and consumed
// by Compile and Execute; it must not be reused across frames.
type Graph struct {
	gpu  driver.GPU
	pool *Pool
	cfg  Config

	// FrameID is minted once per Graph for diagnostic correlation; it
	// is not part of resource identity.
	FrameID uuid.UUID

	reg    *registry
	passes []*PassNode
	bb     *Blackboard

	views    map[viewKey]uint32
	nextView uint32

	order    []int
	compiled bool
}

// New constructs a Graph for one frame against gpu, drawing transient
// allocations from pool (which may be shared and long-lived across
// many frames; Graph itself may not be).
func New(gpu driver.GPU, pool *Pool, cfg Config) *Graph {
	g := &Graph{
		gpu:     gpu,
		pool:    pool,
		cfg:     cfg,
		FrameID: uuid.New(),
		reg:     newRegistry(),
		bb:      newBlackboard(),
		views:   make(map[viewKey]uint32),
	}
	pool.newFrame()
	if cfg.Verbose {
		log.Printf("rg[%s]: new frame", g.FrameID)
	}
	return g
}

func (g *Graph) logf(format string, args ...any) {
	if g.cfg.Verbose {
		log.Printf("rg[%s]: "+format, append([]any{g.FrameID}, args...)...)
	}
}

// ImportTexture registers an externally owned image under name. The
// graph tracks only its layout transitions, never its ownership;
// initial is the layout physical is assumed to already be in, and
// final is the layout the executor restores it to after the last
// pass that touches it.
func (g *Graph) ImportTexture(name string, physical driver.Image, initial, final driver.Layout) (TextureID, error) {
	return g.reg.importTexture(name, physical, initial, final)
}

// ImportBuffer registers an externally owned buffer under name, with
// initial/final access scopes analogous to ImportTexture's layouts.
func (g *Graph) ImportBuffer(name string, physical driver.Buffer, initial, final driver.Access) (BufferID, error) {
	return g.reg.importBuffer(name, physical, initial, final)
}

// AddPass registers a pass. setup runs synchronously, before AddPass
// returns, with a live Builder; execute is deferred until Execute
// walks the compiled pass order. Data is allocated once and shared by
// pointer between the two callbacks; the graph never introspects it.
func AddPass[Data any](g *Graph, name string, typ PassType, flags PassFlags, setup func(*Data, *Builder), execute func(*Data, *Context) error) *Data {
	data := new(Data)
	pass := newPassNode(len(g.passes), name, typ, flags)
	pass.executeFn = func(ctx *Context) error { return execute(data, ctx) }
	g.passes = append(g.passes, pass)

	b := newBuilder(g, pass)
	setup(data, b)
	b.poison()

	return data
}

// Blackboard returns the graph's type-keyed shared-data store.
func (g *Graph) Blackboard() *Blackboard { return g.bb }

// allocView assigns a deterministic, deduplicated view index for
// (id, access) and packs it into a DescriptorID.
func (g *Graph) allocView(id resourceID, access AccessKind) DescriptorID {
	k := viewKey{id: id, access: access}
	idx, ok := g.views[k]
	if !ok {
		idx = g.nextView
		g.nextView++
		g.views[k] = idx
	}
	return newDescriptorID(id, idx)
}

func (g *Graph) resourceName(id resourceID) string {
	return g.reg.display[g.reg.records[id].name]
}
