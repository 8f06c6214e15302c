// Copyright 2024 The RG Authors. All rights reserved.

package rg

import (
	"fmt"
	"sync"

	"github.com/kestrelgx/rg/driver"
	"github.com/kestrelgx/rg/internal/bitm"
)

// poolEntry is one physical allocation the Transient Resource Pool
// owns. An entry is matched against a requested descriptor by hash
// and reused across passes, and across frames, whenever their
// lifetime windows don't overlap.
type poolEntry struct {
	hash uint64
	kind ResourceKind

	image  driver.Image
	view   driver.ImageView
	buffer driver.Buffer
	bytes  int64

	// lastUsed is the pass index (within the frame currently being
	// compiled) through which this entry is reserved. An entry is a
	// candidate for reuse by a new request whose first_pass is
	// greater than lastUsed. It is reset to -1 at the start of every
	// frame by newFrame, which is also where cross-frame lifetime
	// bookkeeping would otherwise go stale.
	lastUsed int
}

// Pool is the Transient Resource Pool: a cache, keyed by canonicalized
// descriptor hash, of physical driver.Image/driver.Buffer allocations.
// Unlike a Graph, a Pool is long-lived: a caller constructs one per
// driver.GPU and reuses it across many frames so that allocations are
// amortized rather than recreated every frame.
type Pool struct {
	gpu    driver.GPU
	budget int64

	mu      sync.Mutex
	entries []*poolEntry
	usedGen bitm.Bitm[uint32] // set for entries acquired during the most recently compiled frame
}

// NewPool constructs a Pool that allocates through gpu. At the start
// of each frame, while the pool's total allocation (used and idle
// entries alike) exceeds budget bytes, entries left idle in the
// previous frame are destroyed; entries used in that frame are kept.
func NewPool(gpu driver.GPU, budget int64) *Pool {
	return &Pool{gpu: gpu, budget: budget}
}

func (p *Pool) ensureCap(n int) {
	for p.usedGen.Len() < n {
		p.usedGen.Grow(1)
	}
}

// newFrame evicts idle entries (those not used in the frame that just
// finished) down to the pool's budget, then resets every surviving
// entry's reservation so it is immediately available to the new
// frame's first acquire.
func (p *Pool) newFrame() {
	p.mu.Lock()
	defer p.mu.Unlock()

	total := int64(0)
	for _, e := range p.entries {
		total += e.bytes
	}
	if total > p.budget {
		kept := p.entries[:0]
		for i, e := range p.entries {
			if total > p.budget && !p.usedGen.IsSet(i) {
				total -= e.bytes
				if e.image != nil {
					e.image.Destroy()
				}
				if e.buffer != nil {
					e.buffer.Destroy()
				}
				continue
			}
			kept = append(kept, e)
		}
		p.entries = kept
	}

	p.usedGen.Clear()
	p.ensureCap(len(p.entries))
	for _, e := range p.entries {
		e.lastUsed = -1
	}
}

// acquireTexture returns a physical image/view backing desc, reusing
// an existing entry whose lifetime has already ended by firstPass if
// one exists, or allocating a new one via the pool's driver.GPU.
func (p *Pool) acquireTexture(desc TextureDesc, firstPass, lastPass int) (driver.Image, driver.ImageView, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	h := descHash(KindTexture, desc.hash())
	for i, e := range p.entries {
		if e.kind == KindTexture && e.hash == h && e.lastUsed < firstPass {
			e.lastUsed = lastPass
			p.ensureCap(len(p.entries))
			p.usedGen.Set(i)
			return e.image, e.view, nil
		}
	}

	img, err := p.gpu.NewImage(desc.Format, desc.Size, desc.Layers, desc.Levels, desc.Samples, desc.Usage)
	if err != nil {
		return nil, nil, fmt.Errorf("rg: transient pool: out of memory allocating texture: %w", err)
	}
	view, err := img.NewView(viewTypeFor(desc), 0, desc.Layers, 0, desc.Levels)
	if err != nil {
		img.Destroy()
		return nil, nil, fmt.Errorf("rg: transient pool: failed to create view: %w", err)
	}
	e := &poolEntry{
		hash:     h,
		kind:     KindTexture,
		image:    img,
		view:     view,
		bytes:    int64(desc.Size.Width) * int64(desc.Size.Height) * int64(max(desc.Size.Depth, 1)) * int64(desc.Layers) * 4,
		lastUsed: lastPass,
	}
	p.entries = append(p.entries, e)
	p.ensureCap(len(p.entries))
	p.usedGen.Set(len(p.entries) - 1)
	return img, view, nil
}

// acquireBuffer is acquireTexture's buffer counterpart.
func (p *Pool) acquireBuffer(desc BufferDesc, firstPass, lastPass int) (driver.Buffer, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	h := descHash(KindBuffer, desc.hash())
	for i, e := range p.entries {
		if e.kind == KindBuffer && e.hash == h && e.lastUsed < firstPass {
			e.lastUsed = lastPass
			p.ensureCap(len(p.entries))
			p.usedGen.Set(i)
			return e.buffer, nil
		}
	}

	buf, err := p.gpu.NewBuffer(desc.Size, false, desc.Usage)
	if err != nil {
		return nil, fmt.Errorf("rg: transient pool: out of memory allocating buffer: %w", err)
	}
	e := &poolEntry{
		hash:     h,
		kind:     KindBuffer,
		buffer:   buf,
		bytes:    desc.Size,
		lastUsed: lastPass,
	}
	p.entries = append(p.entries, e)
	p.ensureCap(len(p.entries))
	p.usedGen.Set(len(p.entries) - 1)
	return buf, nil
}

func viewTypeFor(desc TextureDesc) driver.ViewType {
	switch {
	case desc.Layers > 1 && desc.Samples > 1:
		return driver.IView2DMSArray
	case desc.Samples > 1:
		return driver.IView2DMS
	case desc.Layers > 1:
		return driver.IView2DArray
	default:
		return driver.IView2D
	}
}
