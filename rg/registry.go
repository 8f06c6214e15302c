// Copyright 2024 The RG Authors. All rights reserved.

package rg

import (
	"fmt"
	"hash/fnv"

	"github.com/kestrelgx/rg/driver"
)

// Name is a stable, hashed identifier for a logical resource. Passes
// declare/read/write resources by name; Name is the interned form the
// registry actually keys on, matching the compile-time string
// interning the design notes call for.
type Name [8]byte

func newName(s string) Name {
	h := fnv.New64a()
	h.Write([]byte(s))
	var n Name
	copy(n[:], h.Sum(nil))
	return n
}

// AccessKind enumerates the semantic ways a pass may touch a
// resource. Each kind maps to exactly one barrier-engine state; see
// barrier.go.
type AccessKind int

// Access kinds.
const (
	AccessVertexBuffer AccessKind = iota
	AccessIndexBuffer
	AccessConstantBuffer
	AccessShaderResourceVertex
	AccessShaderResourcePixel
	AccessShaderResourceNonPixel
	AccessShaderResourceAll
	AccessCopySrc
	AccessIndirectArgs
	AccessDepthRead
	AccessRenderTarget
	AccessDepthWrite
	AccessUnorderedAccess
	AccessCopyDst
)

func (a AccessKind) isWrite() bool {
	switch a {
	case AccessRenderTarget, AccessDepthWrite, AccessUnorderedAccess, AccessCopyDst:
		return true
	}
	return false
}

func (a AccessKind) String() string {
	switch a {
	case AccessVertexBuffer:
		return "vertex-buffer"
	case AccessIndexBuffer:
		return "index-buffer"
	case AccessConstantBuffer:
		return "constant-buffer"
	case AccessShaderResourceVertex:
		return "shader-resource-vertex"
	case AccessShaderResourcePixel:
		return "shader-resource-pixel"
	case AccessShaderResourceNonPixel:
		return "shader-resource-non-pixel"
	case AccessShaderResourceAll:
		return "shader-resource-all"
	case AccessCopySrc:
		return "copy-src"
	case AccessIndirectArgs:
		return "indirect-args"
	case AccessDepthRead:
		return "depth-read"
	case AccessRenderTarget:
		return "render-target"
	case AccessDepthWrite:
		return "depth-write"
	case AccessUnorderedAccess:
		return "unordered-access"
	case AccessCopyDst:
		return "copy-dst"
	default:
		return "access(?)"
	}
}

// resourceRecord is the Resource Record of the data model.
type resourceRecord struct {
	id   resourceID
	kind ResourceKind
	name Name

	texDesc TextureDesc
	bufDesc BufferDesc

	imported bool

	// producer is the index of the pass that gave this version of the
	// resource its contents: the pass that declared-and-wrote it, the
	// pass that wrote a new version of it, or -1 if it was only
	// declared/imported and never written.
	producer int

	firstPass int
	lastPass  int
	refCount  int
	version   int

	readers []int

	imgInitial driver.Layout
	imgFinal   driver.Layout
	bufInitial driver.Access
	bufFinal   driver.Access

	// running barrier-engine state, mutated by the executor.
	curLayout driver.Layout
	curSync   driver.Sync
	curAccess driver.Access
	touched   bool // at least one pass referenced this record during Execute

	physImage  driver.Image
	physView   driver.ImageView
	physBuffer driver.Buffer
	poolEntry  *poolEntry // nil for imported resources
}

// registry owns every resource record declared, imported, or written
// during one frame. It is a per-Graph value, not a package singleton:
// a Graph, and therefore its registry, lives for exactly one frame.
type registry struct {
	records []resourceRecord
	names   map[Name]resourceID
	display map[Name]string // original strings, for error messages only
}

func newRegistry() *registry {
	return &registry{
		names:   make(map[Name]resourceID),
		display: make(map[Name]string),
	}
}

func (r *registry) record(id resourceID) *resourceRecord { return &r.records[id] }

func (r *registry) nameBound(name Name) bool {
	_, ok := r.names[name]
	return ok
}

func (r *registry) bind(name Name, display string, id resourceID) {
	r.names[name] = id
	r.display[name] = display
}

func (r *registry) declareTexture(display string, desc TextureDesc) (TextureID, error) {
	name := newName(display)
	if r.nameBound(name) {
		return TextureID{id: invalidID}, fmt.Errorf("rg: declare_texture: name %q already bound this frame", display)
	}
	if !desc.valid() {
		return TextureID{id: invalidID}, fmt.Errorf("rg: declare_texture: %q: width/height/layers/levels/samples must be > 0", display)
	}
	id := resourceID(len(r.records))
	r.records = append(r.records, resourceRecord{
		id:        id,
		kind:      KindTexture,
		name:      name,
		texDesc:   desc,
		producer:  -1,
		firstPass: -1,
		lastPass:  -1,
		curLayout: driver.LUndefined,
	})
	r.bind(name, display, id)
	return TextureID{id: id}, nil
}

func (r *registry) declareBuffer(display string, desc BufferDesc) (BufferID, error) {
	name := newName(display)
	if r.nameBound(name) {
		return BufferID{id: invalidID}, fmt.Errorf("rg: declare_buffer: name %q already bound this frame", display)
	}
	if !desc.valid() {
		return BufferID{id: invalidID}, fmt.Errorf("rg: declare_buffer: %q: size must be > 0", display)
	}
	id := resourceID(len(r.records))
	r.records = append(r.records, resourceRecord{
		id:        id,
		kind:      KindBuffer,
		name:      name,
		bufDesc:   desc,
		producer:  -1,
		firstPass: -1,
		lastPass:  -1,
	})
	r.bind(name, display, id)
	return BufferID{id: id}, nil
}

func (r *registry) importTexture(display string, img driver.Image, initial, final driver.Layout) (TextureID, error) {
	name := newName(display)
	if r.nameBound(name) {
		return TextureID{id: invalidID}, newConstructionError("ImportTexture", fmt.Sprintf("name %q already bound this frame", display))
	}
	// A default whole-resource view is created up front: imported
	// textures commonly serve as render targets (the swap chain back
	// buffer), and attachment construction needs a view, not a raw
	// image.
	view, err := img.NewView(driver.IView2D, 0, 1, 0, 1)
	if err != nil {
		return TextureID{id: invalidID}, newConstructionError("ImportTexture", fmt.Sprintf("%q: failed to create default view: %v", display, err))
	}
	id := resourceID(len(r.records))
	r.records = append(r.records, resourceRecord{
		id:         id,
		kind:       KindTexture,
		name:       name,
		imported:   true,
		producer:   -1,
		firstPass:  -1,
		lastPass:   -1,
		imgInitial: initial,
		imgFinal:   final,
		curLayout:  initial,
		physImage:  img,
		physView:   view,
	})
	r.bind(name, display, id)
	return TextureID{id: id}, nil
}

func (r *registry) importBuffer(display string, buf driver.Buffer, initial, final driver.Access) (BufferID, error) {
	name := newName(display)
	if r.nameBound(name) {
		return BufferID{id: invalidID}, newConstructionError("ImportBuffer", fmt.Sprintf("name %q already bound this frame", display))
	}
	id := resourceID(len(r.records))
	r.records = append(r.records, resourceRecord{
		id:         id,
		kind:       KindBuffer,
		name:       name,
		imported:   true,
		producer:   -1,
		firstPass:  -1,
		lastPass:   -1,
		bufInitial: initial,
		bufFinal:   final,
		curAccess:  initial,
		physBuffer: buf,
	})
	r.bind(name, display, id)
	return BufferID{id: id}, nil
}

func (r *registry) lookup(display string) (resourceID, ResourceKind, error) {
	name := newName(display)
	id, ok := r.names[name]
	if !ok {
		return 0, 0, fmt.Errorf("rg: lookup: name %q is not declared, imported, or written this frame", display)
	}
	return id, r.records[id].kind, nil
}

// recordWrite bumps the version of id's name, producing a new record
// bound to the same name, and sets the writing pass as its producer.
func (r *registry) recordWrite(pass int, id resourceID) (resourceID, error) {
	src := &r.records[id]
	newID := resourceID(len(r.records))
	rec := *src
	rec.id = newID
	rec.version++
	rec.producer = pass
	rec.refCount = 0
	rec.readers = nil
	rec.firstPass = -1
	rec.lastPass = -1
	r.records = append(r.records, rec)
	r.names[src.name] = newID
	return newID, nil
}

// recordRead increments id's reference count and links pass as a
// reader. id must already have been written (or imported); reading a
// resource that was only declared is a registry error.
func (r *registry) recordRead(pass int, id resourceID) error {
	rec := &r.records[id]
	if rec.producer < 0 && !rec.imported {
		return fmt.Errorf("rg: read of resource %q was never written", r.display[rec.name])
	}
	rec.refCount++
	rec.readers = append(rec.readers, pass)
	return nil
}
