// Copyright 2024 The RG Authors. All rights reserved.

package rg

// ResourceKind distinguishes the two resource families the registry
// tracks. It is the tag half of the tagged-variant encoding described
// for TextureID/BufferID below.
type ResourceKind uint8

// Resource kinds.
const (
	KindTexture ResourceKind = iota
	KindBuffer
)

// resourceID is the registry's internal, per-frame handle. Every
// Graph has its own registry, so numbering restarts at 0 each frame;
// within a frame an id is never reused: a
// write to an existing name allocates a fresh resourceID rather than
// mutating the one it supersedes, so that passes which captured an
// earlier id still observe the version they read.
type resourceID uint32

const invalidID resourceID = ^resourceID(0)

// TextureID and BufferID are zero-cost newtypes over resourceID. They
// exist so the compiler catches a BufferID passed where a TextureID
// was expected (and vice versa), standing in for the phantom-type tag
// a C++ template parameter would give the same id.
type TextureID struct{ id resourceID }

// BufferID is the buffer counterpart of TextureID.
type BufferID struct{ id resourceID }

// Valid reports whether id refers to a real resource record.
func (id TextureID) Valid() bool { return id.id != invalidID }

// Valid reports whether id refers to a real resource record.
func (id BufferID) Valid() bool { return id.id != invalidID }

// DescriptorID is a compact view handle: a 32-bit view index packed
// with the 32-bit resource id it views, as described for the View
// Descriptor in the data model.
type DescriptorID uint64

func newDescriptorID(res resourceID, view uint32) DescriptorID {
	return DescriptorID(view)<<32 | DescriptorID(uint32(res))
}

func (d DescriptorID) resourceID() resourceID { return resourceID(uint32(d)) }

func (d DescriptorID) viewIndex() uint32 { return uint32(d >> 32) }

// ReadID is returned by the Builder's read methods and consumed by
// Context.GetReadOnly. It is opaque to callers.
type ReadID struct {
	desc   DescriptorID
	kind   ResourceKind
	access AccessKind
}

// WriteID is returned by the Builder's write methods and consumed by
// Context.GetReadWrite/GetRenderTarget. It is opaque to callers.
type WriteID struct {
	desc   DescriptorID
	kind   ResourceKind
	access AccessKind
}
