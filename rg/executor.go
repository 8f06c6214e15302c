// Copyright 2024 The RG Authors. All rights reserved.

package rg

import (
	"fmt"

	"github.com/kestrelgx/rg/driver"
)

// Context is handed to a pass's execute callback. It resolves the
// ReadID/WriteID values the pass captured during setup into concrete
// driver objects, and gives access to the command buffer the pass
// should record its draw/dispatch/copy commands into.
type Context struct {
	g    *Graph
	pass *PassNode
	cb   driver.CmdBuffer
}

// CmdBuffer returns the command buffer the executor is currently
// recording this pass's commands into.
func (c *Context) CmdBuffer() driver.CmdBuffer { return c.cb }

// GetReadOnly resolves a ReadID to the underlying driver object: a
// driver.ImageView for a texture, a driver.Buffer for a buffer.
func (c *Context) GetReadOnly(id ReadID) any {
	rec := c.g.reg.record(id.desc.resourceID())
	if rec.kind == KindTexture {
		return rec.physView
	}
	return rec.physBuffer
}

// GetReadWrite resolves a WriteID to the underlying driver object, the
// same way GetReadOnly does for a ReadID.
func (c *Context) GetReadWrite(id WriteID) any {
	rec := c.g.reg.record(id.desc.resourceID())
	if rec.kind == KindTexture {
		return rec.physView
	}
	return rec.physBuffer
}

// GetRenderTarget resolves a WriteID produced by WriteRenderTarget or
// WriteDepthStencil to its driver.ImageView.
func (c *Context) GetRenderTarget(id WriteID) driver.ImageView {
	rec := c.g.reg.record(id.desc.resourceID())
	return rec.physView
}

// ResolvedResource is the result of Context.Resolve.
type ResolvedResource struct {
	Kind    ResourceKind
	Texture TextureID
	Buffer  BufferID
}

// Resolve looks up name's current binding for debugging purposes
// (logging, assertions). It does not record a read or write edge.
func (c *Context) Resolve(name string) (ResolvedResource, bool) {
	id, kind, err := c.g.reg.lookup(name)
	if err != nil {
		return ResolvedResource{}, false
	}
	if kind == KindTexture {
		return ResolvedResource{Kind: kind, Texture: TextureID{id: id}}, true
	}
	return ResolvedResource{Kind: kind, Buffer: BufferID{id: id}}, true
}

type touch struct {
	id   resourceID
	kind ResourceKind
	st   state
	uav  bool
}

// aggregateTouches unions every access a pass records against a given
// resource (a pass may legally read the same image with several
// compatible access kinds) into one target state, in first-touch
// order so barrier emission stays deterministic.
func (g *Graph) aggregateTouches(pass *PassNode) []touch {
	index := make(map[resourceID]int, len(pass.reads)+len(pass.writes))
	var list []touch
	add := func(id resourceID, kind ResourceKind, access AccessKind) {
		st := accessState(access)
		uav := access == AccessUnorderedAccess
		if i, ok := index[id]; ok {
			list[i].st = list[i].st.union(st)
			list[i].uav = list[i].uav || uav
			return
		}
		index[id] = len(list)
		list = append(list, touch{id: id, kind: kind, st: st, uav: uav})
	}
	for _, re := range pass.reads {
		add(re.id, re.kind, re.access)
	}
	for _, w := range pass.writes {
		add(w.newID, w.kind, w.access)
	}
	return list
}

// emitBarriers computes and records the transitions/barriers needed
// to bring every resource a pass touches into its required state,
// batched into at most one Transition call and one Barrier call.
func (g *Graph) emitBarriers(cb driver.CmdBuffer, pass *PassNode) {
	touches := g.aggregateTouches(pass)

	var transitions []driver.Transition
	var barriers []driver.Barrier

	for _, t := range touches {
		rec := g.reg.record(t.id)
		rec.touched = true

		if t.kind == KindTexture {
			if rec.curLayout != t.st.layout {
				transitions = append(transitions, driver.Transition{
					Barrier: driver.Barrier{
						SyncBefore:   rec.curSync,
						SyncAfter:    t.st.sync,
						AccessBefore: rec.curAccess,
						AccessAfter:  t.st.access,
					},
					LayoutBefore: rec.curLayout,
					LayoutAfter:  t.st.layout,
					IView:        rec.physView,
				})
				rec.curLayout, rec.curSync, rec.curAccess = t.st.layout, t.st.sync, t.st.access
				continue
			}
			if t.uav {
				barriers = append(barriers, driver.Barrier{
					SyncBefore: rec.curSync, SyncAfter: t.st.sync,
					AccessBefore: rec.curAccess, AccessAfter: t.st.access,
				})
				rec.curSync, rec.curAccess = t.st.sync, t.st.access
				continue
			}
			if rec.curSync != t.st.sync || rec.curAccess != t.st.access {
				barriers = append(barriers, driver.Barrier{
					SyncBefore: rec.curSync, SyncAfter: t.st.sync,
					AccessBefore: rec.curAccess, AccessAfter: t.st.access,
				})
				rec.curSync, rec.curAccess = t.st.sync, t.st.access
			}
			continue
		}

		// Buffers have no layout; a state change is any sync/access
		// change, and a UAV touch always re-barriers.
		if t.uav || rec.curSync != t.st.sync || rec.curAccess != t.st.access {
			barriers = append(barriers, driver.Barrier{
				SyncBefore: rec.curSync, SyncAfter: t.st.sync,
				AccessBefore: rec.curAccess, AccessAfter: t.st.access,
			})
			rec.curSync, rec.curAccess = t.st.sync, t.st.access
		}
	}

	if len(transitions) > 0 {
		cb.Transition(transitions)
	}
	if len(barriers) > 0 {
		cb.Barrier(barriers)
	}
}

// defaultColorFormat/defaultDepthFormat (with a sample count of 1)
// are used when a render target or depth-stencil write targets an
// imported resource: driver.Image
// exposes no Format accessor, and ImportTexture's signature (fixed by
// the interfaces this module exposes) carries no format either, so
// the executor falls back to the conventional swap-chain format
// rather than threading a new parameter through the public API.
const (
	defaultColorFormat = driver.BGRA8un
	defaultDepthFormat = driver.D32f
)

func (g *Graph) beginRenderPass(cb driver.CmdBuffer, pass *PassNode) (bool, error) {
	if len(pass.renderTargets) == 0 && pass.depthStencil == nil {
		return false, nil
	}

	var atts []driver.Attachment
	var views []driver.ImageView
	var clears []driver.ClearValue
	var colorIdx []int
	width, height := pass.viewportW, pass.viewportH

	for i, rt := range pass.renderTargets {
		rec := g.reg.record(rt.newID)
		format, samples := defaultColorFormat, 1
		if !rec.imported {
			format, samples = rec.texDesc.Format, rec.texDesc.Samples
			if width == 0 {
				width, height = rec.texDesc.Size.Width, rec.texDesc.Size.Height
			}
		}
		atts = append(atts, driver.Attachment{
			Format: format, Samples: samples,
			Load:  [2]driver.LoadOp{rt.load, driver.LDontCare},
			Store: [2]driver.StoreOp{rt.store, driver.SDontCare},
		})
		colorIdx = append(colorIdx, i)
		views = append(views, rec.physView)
		clears = append(clears, driver.ClearValue{Color: rec.texDesc.Clear.Color})
	}

	dsIdx := -1
	if pass.depthStencil != nil {
		rec := g.reg.record(pass.depthStencil.newID)
		format, samples := defaultDepthFormat, 1
		if !rec.imported {
			format, samples = rec.texDesc.Format, rec.texDesc.Samples
		}
		atts = append(atts, driver.Attachment{
			Format: format, Samples: samples,
			Load:  [2]driver.LoadOp{pass.depthStencil.load, driver.LDontCare},
			Store: [2]driver.StoreOp{pass.depthStencil.store, driver.SDontCare},
		})
		dsIdx = len(atts) - 1
		views = append(views, rec.physView)
		clears = append(clears, driver.ClearValue{Depth: rec.texDesc.Clear.Depth, Stencil: rec.texDesc.Clear.Stencil})
	}

	rp, err := g.gpu.NewRenderPass(atts, []driver.Subpass{{Color: colorIdx, DS: dsIdx}})
	if err != nil {
		return false, fmt.Errorf("rg: pass %q: NewRenderPass: %w", pass.name, err)
	}
	fb, err := rp.NewFB(views, width, height, 1)
	if err != nil {
		return false, fmt.Errorf("rg: pass %q: NewFB: %w", pass.name, err)
	}
	cb.BeginPass(rp, fb, clears)
	return true, nil
}

func (g *Graph) executePass(cb driver.CmdBuffer, pass *PassNode) error {
	g.emitBarriers(cb, pass)

	opened := false
	if pass.typ == PassGraphics && pass.flags&PassSkipAutoRenderPass == 0 {
		var err error
		opened, err = g.beginRenderPass(cb, pass)
		if err != nil {
			return err
		}
	}
	if pass.viewportW > 0 && pass.viewportH > 0 {
		cb.SetViewport([]driver.Viewport{{X: 0, Y: 0, Width: float32(pass.viewportW), Height: float32(pass.viewportH), Znear: 0, Zfar: 1}})
		cb.SetScissor([]driver.Scissor{{X: 0, Y: 0, Width: pass.viewportW, Height: pass.viewportH}})
	}

	ctx := &Context{g: g, pass: pass, cb: cb}
	err := pass.executeFn(ctx)
	if opened {
		cb.EndPass()
	}
	if err != nil {
		return fmt.Errorf("rg: pass %q: %w", pass.name, err)
	}
	return nil
}

// restoreImported transitions every touched imported resource back to
// its declared final state. Resources never touched this frame are
// left exactly as they were found.
func (g *Graph) restoreImported(cb driver.CmdBuffer) {
	var transitions []driver.Transition
	var barriers []driver.Barrier

	for i := range g.reg.records {
		rec := &g.reg.records[i]
		if !rec.imported || !rec.touched {
			continue
		}
		if rec.kind == KindTexture {
			if rec.curLayout == rec.imgFinal {
				continue
			}
			transitions = append(transitions, driver.Transition{
				Barrier: driver.Barrier{
					SyncBefore: rec.curSync, SyncAfter: driver.SNone,
					AccessBefore: rec.curAccess, AccessAfter: driver.ANone,
				},
				LayoutBefore: rec.curLayout,
				LayoutAfter:  rec.imgFinal,
				IView:        rec.physView,
			})
			rec.curLayout = rec.imgFinal
		} else {
			if rec.curAccess == rec.bufFinal {
				continue
			}
			barriers = append(barriers, driver.Barrier{
				SyncBefore: rec.curSync, SyncAfter: driver.SNone,
				AccessBefore: rec.curAccess, AccessAfter: rec.bufFinal,
			})
			rec.curAccess = rec.bufFinal
		}
	}

	if len(transitions) > 0 {
		cb.Transition(transitions)
	}
	if len(barriers) > 0 {
		cb.Barrier(barriers)
	}
}

// Execute walks the compiled pass order, emitting barriers and
// driving each pass's execute callback against cb, then restores
// imported resources to their declared final state. cb must not
// already be recording: Execute brackets the whole frame with
// Begin/End itself.
func (g *Graph) Execute(cb driver.CmdBuffer) error {
	if !g.compiled {
		panic("rg: Execute called before Compile")
	}
	if err := cb.Begin(); err != nil {
		return fmt.Errorf("rg: Execute: %w", err)
	}
	for _, idx := range g.order {
		if err := g.executePass(cb, g.passes[idx]); err != nil {
			return err
		}
	}
	g.restoreImported(cb)
	return cb.End()
}
