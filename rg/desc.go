// Copyright 2024 The RG Authors. All rights reserved.

package rg

import (
	"encoding/binary"
	"hash/fnv"

	"github.com/kestrelgx/rg/driver"
)

// BufferFlags carries the buffer-specific misc flags the data model
// calls out that have no equivalent in driver.Usage (which only
// describes how a resource may be bound, not what it semantically
// is).
type BufferFlags uint8

// Buffer flags.
const (
	FlagConstantBuffer BufferFlags = 1 << iota
	FlagIndirectArgs
	FlagRayTracingAccel
	FlagRaw
)

// TextureDesc is an immutable texture descriptor, as declared by
// Builder.DeclareTexture or Graph.ImportTexture.
type TextureDesc struct {
	Format  driver.PixelFmt
	Size    driver.Dim3D
	Layers  int
	Levels  int
	Samples int
	Clear   driver.ClearValue
	Usage   driver.Usage
}

func (d *TextureDesc) valid() bool {
	return d.Size.Width > 0 && d.Size.Height > 0 && d.Layers > 0 && d.Levels > 0 && d.Samples > 0
}

func (d *TextureDesc) hash() uint64 {
	h := fnv.New64a()
	var b [8]byte
	binary.LittleEndian.PutUint32(b[0:4], uint32(d.Format))
	h.Write(b[0:4])
	binary.LittleEndian.PutUint32(b[0:4], uint32(d.Size.Width))
	binary.LittleEndian.PutUint32(b[4:8], uint32(d.Size.Height))
	h.Write(b[:])
	binary.LittleEndian.PutUint32(b[0:4], uint32(d.Size.Depth))
	binary.LittleEndian.PutUint32(b[4:8], uint32(d.Layers))
	h.Write(b[:])
	binary.LittleEndian.PutUint32(b[0:4], uint32(d.Levels))
	binary.LittleEndian.PutUint32(b[4:8], uint32(d.Samples))
	h.Write(b[:])
	binary.LittleEndian.PutUint32(b[0:4], uint32(d.Usage))
	h.Write(b[0:4])
	return h.Sum64()
}

// BufferDesc is an immutable buffer descriptor, as declared by
// Builder.DeclareBuffer or Graph.ImportBuffer.
type BufferDesc struct {
	Size   int64
	Stride int64
	Typed  bool
	Format driver.PixelFmt // meaningful only if Typed
	Flags  BufferFlags
	Usage  driver.Usage
}

func (d *BufferDesc) valid() bool { return d.Size > 0 }

func (d *BufferDesc) hash() uint64 {
	h := fnv.New64a()
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(d.Size))
	h.Write(b[:])
	binary.LittleEndian.PutUint64(b[:], uint64(d.Stride))
	h.Write(b[:])
	binary.LittleEndian.PutUint32(b[0:4], uint32(d.Format))
	binary.LittleEndian.PutUint32(b[4:8], uint32(d.Usage))
	h.Write(b[:])
	b[0] = byte(d.Flags)
	if d.Typed {
		b[1] = 1
	}
	h.Write(b[0:2])
	return h.Sum64()
}

// descHash combines a resource kind with its descriptor hash so that
// a texture and a buffer never collide in the transient pool's free
// list even if their raw descriptor bytes happen to match.
func descHash(kind ResourceKind, h uint64) uint64 {
	return h*1099511628211 ^ uint64(kind)
}
