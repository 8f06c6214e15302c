// Copyright 2024 The RG Authors. All rights reserved.

package rg

import (
	"errors"
	"fmt"
)

// Compile performs the seven-step graph compilation: build edges
// (already recorded incrementally by the registry during AddPass),
// compute reference counts, cull dead passes, order the survivors,
// compute lifetime windows, allocate transients, and create views
// (also already done incrementally, by Builder's read/write methods
// via Graph.allocView). It must be called exactly once, after every
// pass has been registered and before Execute.
func (g *Graph) Compile() error {
	if g.compiled {
		panic("rg: Compile called more than once on the same Graph")
	}

	// Imported resources carry an implicit external reader so their
	// producer is never culled purely because nothing inside this
	// graph reads them.
	for i := range g.reg.records {
		if g.reg.records[i].imported {
			g.reg.records[i].refCount++
		}
	}

	for _, p := range g.passes {
		p.refCount = len(p.writes)
	}

	// Resources nobody reads are immediately dead; seed the
	// worklist with them and cascade.
	var worklist []resourceID
	for i := range g.reg.records {
		if g.reg.records[i].refCount == 0 {
			worklist = append(worklist, resourceID(i))
		}
	}
	for len(worklist) > 0 {
		id := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]

		rec := g.reg.record(id)
		if rec.producer < 0 {
			continue
		}
		prod := g.passes[rec.producer]
		if prod.culled {
			continue
		}
		prod.refCount--
		if prod.refCount == 0 && prod.flags&PassForceNoCull == 0 {
			prod.culled = true
			g.logf("culled pass %q", prod.name)
			for _, re := range prod.reads {
				rr := g.reg.record(re.id)
				rr.refCount--
				if rr.refCount == 0 {
					worklist = append(worklist, re.id)
				}
			}
		}
	}

	for _, p := range g.passes {
		if p.culled && p.flags&PassActAsCreatorWhenWriting != 0 {
			return fmt.Errorf("%w: pass %q", ErrCreatorCulled, p.name)
		}
	}

	order, err := g.orderPasses()
	if err != nil {
		return err
	}
	g.order = order

	if err := g.allocateTransients(); err != nil {
		return err
	}

	g.compiled = true
	return nil
}

// orderPasses computes a stable topological order over the non-culled
// passes: among passes with no outstanding dependency, the one with
// the lowest registration index is always placed next, so independent
// passes keep their AddPass order and frame-to-frame barrier patterns
// stay consistent.
func (g *Graph) orderPasses() ([]int, error) {
	n := len(g.passes)
	indeg := make([]int, n)
	adj := make([][]int, n)

	for _, p := range g.passes {
		if p.culled {
			continue
		}
		for _, re := range p.reads {
			rec := g.reg.record(re.id)
			if rec.producer < 0 || g.passes[rec.producer].culled {
				continue
			}
			adj[rec.producer] = append(adj[rec.producer], p.index)
			indeg[p.index]++
		}
	}

	want := 0
	for _, p := range g.passes {
		if !p.culled {
			want++
		}
	}

	placed := make([]bool, n)
	order := make([]int, 0, want)
	for len(order) < want {
		next := -1
		for i := 0; i < n; i++ {
			p := g.passes[i]
			if p.culled || placed[i] || indeg[i] > 0 {
				continue
			}
			next = i
			break
		}
		if next < 0 {
			return nil, errors.New("rg: compile: cycle detected while ordering passes")
		}
		placed[next] = true
		order = append(order, next)
		for _, c := range adj[next] {
			indeg[c]--
		}
	}
	return order, nil
}

// allocateTransients computes each surviving non-imported resource's
// lifetime window, expressed in execution-order positions rather than
// raw pass indices, and asks the Transient Pool for its backing
// physical resource.
func (g *Graph) allocateTransients() error {
	orderPos := make([]int, len(g.passes))
	for pos, idx := range g.order {
		orderPos[idx] = pos
	}

	for i := range g.reg.records {
		rec := &g.reg.records[i]
		if rec.imported || rec.producer < 0 || g.passes[rec.producer].culled {
			continue
		}

		first := orderPos[rec.producer]
		last := first
		for _, rp := range rec.readers {
			if g.passes[rp].culled {
				continue
			}
			if pos := orderPos[rp]; pos > last {
				last = pos
			}
		}
		rec.firstPass, rec.lastPass = first, last

		switch rec.kind {
		case KindTexture:
			img, view, err := g.pool.acquireTexture(rec.texDesc, first, last)
			if err != nil {
				return err
			}
			rec.physImage, rec.physView = img, view
		case KindBuffer:
			buf, err := g.pool.acquireBuffer(rec.bufDesc, first, last)
			if err != nil {
				return err
			}
			rec.physBuffer = buf
		}
		g.logf("allocated transient %q for passes %d..%d", g.resourceName(rec.id), first, last)
	}
	return nil
}
