// Copyright 2024 The RG Authors. All rights reserved.

package rg

import (
	"fmt"

	"github.com/kestrelgx/rg/driver"
)

// Builder is handed to a pass's setup callback by AddPass. It is the
// sole legal way to declare resources, record accesses, request
// views, and set the pass's viewport. Calls are pure bookkeeping: no
// GPU state is touched.
//
// A Builder is only valid for the duration of the setup call it was
// passed to. Every method panics if called afterwards, so an execute
// closure that accidentally captured the Builder fails loudly instead
// of corrupting a later frame.
type Builder struct {
	g    *Graph
	pass *PassNode
	live bool
}

func newBuilder(g *Graph, pass *PassNode) *Builder {
	return &Builder{g: g, pass: pass, live: true}
}

func (b *Builder) poison() { b.live = false }

func (b *Builder) check() {
	if !b.live {
		panic("rg: Builder used after its pass's setup callback returned")
	}
}

// markSeen enforces the invariant that a resource may not be used as
// both a non-UAV write and a read within a single pass.
func (b *Builder) markSeen(name Name, access AccessKind) {
	if prev, ok := b.pass.seen[name]; ok {
		prevNonUAVWrite := prev.isWrite() && prev != AccessUnorderedAccess
		newNonUAVWrite := access.isWrite() && access != AccessUnorderedAccess
		prevIsRead := !prev.isWrite()
		newIsRead := !access.isWrite()
		conflict := (prevNonUAVWrite && newIsRead) ||
			(newNonUAVWrite && prevIsRead) ||
			(prevNonUAVWrite && newNonUAVWrite && prev != access)
		if conflict {
			panic(fmt.Sprintf("rg: pass %q: resource cannot be both written (non-UAV) and read in the same pass", b.pass.name))
		}
	}
	b.pass.seen[name] = access
}

// DeclareTexture declares a new transient texture resource.
func (b *Builder) DeclareTexture(name string, desc TextureDesc) TextureID {
	b.check()
	id, err := b.g.reg.declareTexture(name, desc)
	if err != nil {
		panic(err.Error())
	}
	b.pass.creates = append(b.pass.creates, id.id)
	return id
}

// DeclareBuffer declares a new transient buffer resource.
func (b *Builder) DeclareBuffer(name string, desc BufferDesc) BufferID {
	b.check()
	id, err := b.g.reg.declareBuffer(name, desc)
	if err != nil {
		panic(err.Error())
	}
	b.pass.creates = append(b.pass.creates, id.id)
	return id
}

// writeAccess resolves the access kind implied by a plain write_texture
// /write_buffer call: Copy passes write as a copy destination, every
// other pass type writes as an unordered access (the common
// read-modify-write shape of a compute pass, and the only write kind
// besides the explicit render-target/depth-stencil ones).
func (b *Builder) writeAccess() AccessKind {
	if b.pass.typ == PassCopy {
		return AccessCopyDst
	}
	return AccessUnorderedAccess
}

func (b *Builder) write(display string) (resourceID, resourceID, ResourceKind, error) {
	id, kind, err := b.g.reg.lookup(display)
	if err != nil {
		return 0, 0, 0, err
	}
	newID, err := b.g.reg.recordWrite(b.pass.index, id)
	if err != nil {
		return 0, 0, 0, err
	}
	return id, newID, kind, nil
}

// WriteTexture records a write to an already-declared or imported
// texture, producing a new version of it.
func (b *Builder) WriteTexture(name string) WriteID {
	b.check()
	id, newID, kind, err := b.write(name)
	if err != nil {
		panic(err.Error())
	}
	if kind != KindTexture {
		panic(fmt.Sprintf("rg: WriteTexture: %q is a buffer", name))
	}
	access := b.writeAccess()
	b.markSeen(newName(name), access)
	b.pass.writes = append(b.pass.writes, writeEntry{id: id, newID: newID, kind: kind, access: access})
	view := b.g.allocView(newID, access)
	return WriteID{desc: view, kind: kind, access: access}
}

// WriteBuffer records a write to an already-declared or imported
// buffer, producing a new version of it.
func (b *Builder) WriteBuffer(name string) WriteID {
	b.check()
	id, newID, kind, err := b.write(name)
	if err != nil {
		panic(err.Error())
	}
	if kind != KindBuffer {
		panic(fmt.Sprintf("rg: WriteBuffer: %q is a texture", name))
	}
	access := b.writeAccess()
	b.markSeen(newName(name), access)
	b.pass.writes = append(b.pass.writes, writeEntry{id: id, newID: newID, kind: kind, access: access})
	view := b.g.allocView(newID, access)
	return WriteID{desc: view, kind: kind, access: access}
}

func (b *Builder) read(display string, access AccessKind) (resourceID, ResourceKind, error) {
	id, kind, err := b.g.reg.lookup(display)
	if err != nil {
		return 0, 0, err
	}
	if err := b.g.reg.recordRead(b.pass.index, id); err != nil {
		return 0, 0, err
	}
	return id, kind, nil
}

// ReadTexture records a read of a texture with the given access kind.
func (b *Builder) ReadTexture(name string, access AccessKind) ReadID {
	b.check()
	id, kind, err := b.read(name, access)
	if err != nil {
		panic(err.Error())
	}
	if kind != KindTexture {
		panic(fmt.Sprintf("rg: ReadTexture: %q is a buffer", name))
	}
	b.markSeen(newName(name), access)
	b.pass.reads = append(b.pass.reads, readEntry{id: id, kind: kind, access: access})
	view := b.g.allocView(id, access)
	return ReadID{desc: view, kind: kind, access: access}
}

// ReadBuffer records a read of a buffer with the given access kind.
func (b *Builder) ReadBuffer(name string, access AccessKind) ReadID {
	b.check()
	id, kind, err := b.read(name, access)
	if err != nil {
		panic(err.Error())
	}
	if kind != KindBuffer {
		panic(fmt.Sprintf("rg: ReadBuffer: %q is a texture", name))
	}
	b.markSeen(newName(name), access)
	b.pass.reads = append(b.pass.reads, readEntry{id: id, kind: kind, access: access})
	view := b.g.allocView(id, access)
	return ReadID{desc: view, kind: kind, access: access}
}

// WriteRenderTarget records a write to a texture as a color render
// target, with the given load/store operations, and adds it to the
// pass's render target list in call order.
func (b *Builder) WriteRenderTarget(name string, load driver.LoadOp, store driver.StoreOp) WriteID {
	b.check()
	id, newID, kind, err := b.write(name)
	if err != nil {
		panic(err.Error())
	}
	if kind != KindTexture {
		panic(fmt.Sprintf("rg: WriteRenderTarget: %q is a buffer", name))
	}
	b.markSeen(newName(name), AccessRenderTarget)
	b.pass.writes = append(b.pass.writes, writeEntry{id: id, newID: newID, kind: kind, access: AccessRenderTarget})
	b.pass.renderTargets = append(b.pass.renderTargets, rtRef{id: id, newID: newID, load: load, store: store})
	view := b.g.allocView(newID, AccessRenderTarget)
	return WriteID{desc: view, kind: kind, access: AccessRenderTarget}
}

// WriteDepthStencil records a write to a texture as the pass's depth
// stencil target.
func (b *Builder) WriteDepthStencil(name string, load driver.LoadOp, store driver.StoreOp) WriteID {
	b.check()
	id, newID, kind, err := b.write(name)
	if err != nil {
		panic(err.Error())
	}
	if kind != KindTexture {
		panic(fmt.Sprintf("rg: WriteDepthStencil: %q is a buffer", name))
	}
	if b.pass.depthStencil != nil {
		panic(fmt.Sprintf("rg: pass %q: depth stencil target already set", b.pass.name))
	}
	b.markSeen(newName(name), AccessDepthWrite)
	b.pass.writes = append(b.pass.writes, writeEntry{id: id, newID: newID, kind: kind, access: AccessDepthWrite})
	ref := rtRef{id: id, newID: newID, load: load, store: store}
	b.pass.depthStencil = &ref
	view := b.g.allocView(newID, AccessDepthWrite)
	return WriteID{desc: view, kind: kind, access: AccessDepthWrite}
}

// ReadDepthStencil records a read-only use of a texture as a depth
// stencil target (depth test without depth write).
func (b *Builder) ReadDepthStencil(name string) ReadID {
	b.check()
	id, kind, err := b.read(name, AccessDepthRead)
	if err != nil {
		panic(err.Error())
	}
	if kind != KindTexture {
		panic(fmt.Sprintf("rg: ReadDepthStencil: %q is a buffer", name))
	}
	b.markSeen(newName(name), AccessDepthRead)
	b.pass.reads = append(b.pass.reads, readEntry{id: id, kind: kind, access: AccessDepthRead})
	if b.pass.depthStencil == nil {
		ref := rtRef{id: id, newID: id, load: driver.LLoad, store: driver.SDontCare}
		b.pass.depthStencil = &ref
	}
	view := b.g.allocView(id, AccessDepthRead)
	return ReadID{desc: view, kind: kind, access: AccessDepthRead}
}

// SetViewport sets the pass's viewport/scissor extent.
func (b *Builder) SetViewport(w, h int) {
	b.check()
	b.pass.viewportW, b.pass.viewportH = w, h
}

// IsDeclared reports whether name is bound to a resource this frame.
func (b *Builder) IsDeclared(name string) bool {
	b.check()
	return b.g.reg.nameBound(newName(name))
}

// DummyRead records a read of name without returning a usable
// descriptor, for passes that need to order after a producer purely
// for a side effect (e.g. a readback fence) rather than to bind the
// resource for shader access.
func (b *Builder) DummyRead(name string) {
	b.check()
	id, _, err := b.g.reg.lookup(name)
	if err != nil {
		panic(err.Error())
	}
	if err := b.g.reg.recordRead(b.pass.index, id); err != nil {
		panic(err.Error())
	}
}
