// Copyright 2024 The RG Authors. All rights reserved.

package fake

import (
	"errors"

	"github.com/kestrelgx/rg/driver"
)

// CmdKind identifies the kind of a recorded Cmd.
type CmdKind int

// Recorded command kinds. Only the ones the rg package's
// executor cares about for assertions are broken out; the
// rest are lumped into CmdOther so tests can still count
// total recorded commands without enumerating every case.
const (
	CmdBeginPass CmdKind = iota
	CmdEndPass
	CmdBarrier
	CmdTransition
	CmdSetViewport
	CmdSetScissor
	CmdDraw
	CmdDrawIndexed
	CmdDispatch
	CmdOther
)

// Cmd is one recorded command.
type Cmd struct {
	Kind       CmdKind
	Barriers   []driver.Barrier
	Transition []driver.Transition
	Pass       driver.RenderPass
	Viewport   []driver.Viewport
}

// CmdBuffer is the fake driver.CmdBuffer. It records every
// call it receives, in order, so tests can assert on the
// exact sequence of barriers/transitions the rg executor
// produced for a given graph.
type CmdBuffer struct {
	recording bool
	inPass    bool
	inWork    bool
	inBlit    bool

	Cmds []Cmd
}

// Begin implements driver.CmdBuffer.
func (c *CmdBuffer) Begin() error {
	if c.recording {
		return errors.New("fake: CmdBuffer: already recording")
	}
	c.recording = true
	c.Cmds = c.Cmds[:0]
	return nil
}

// checkRecording panics if the buffer has no Begin in effect: every
// recording method is only valid between Begin and End, and a missing
// Begin is a caller bug, not a recoverable condition.
func (c *CmdBuffer) checkRecording() {
	if !c.recording {
		panic("fake: CmdBuffer: recording method called outside Begin/End")
	}
}

func (c *CmdBuffer) record(k CmdKind) {
	c.checkRecording()
	c.Cmds = append(c.Cmds, Cmd{Kind: k})
}

// BeginPass implements driver.CmdBuffer.
func (c *CmdBuffer) BeginPass(pass driver.RenderPass, fb driver.Framebuf, clear []driver.ClearValue) {
	c.checkRecording()
	c.inPass = true
	c.Cmds = append(c.Cmds, Cmd{Kind: CmdBeginPass, Pass: pass})
}

// NextSubpass implements driver.CmdBuffer.
func (c *CmdBuffer) NextSubpass() { c.record(CmdOther) }

// EndPass implements driver.CmdBuffer.
func (c *CmdBuffer) EndPass() {
	c.inPass = false
	c.record(CmdEndPass)
}

// BeginWork implements driver.CmdBuffer.
func (c *CmdBuffer) BeginWork(wait bool) {
	c.record(CmdOther)
	c.inWork = true
}

// EndWork implements driver.CmdBuffer.
func (c *CmdBuffer) EndWork() {
	c.record(CmdOther)
	c.inWork = false
}

// BeginBlit implements driver.CmdBuffer.
func (c *CmdBuffer) BeginBlit(wait bool) {
	c.record(CmdOther)
	c.inBlit = true
}

// EndBlit implements driver.CmdBuffer.
func (c *CmdBuffer) EndBlit() {
	c.record(CmdOther)
	c.inBlit = false
}

// SetPipeline implements driver.CmdBuffer.
func (c *CmdBuffer) SetPipeline(pl driver.Pipeline) { c.record(CmdOther) }

// SetViewport implements driver.CmdBuffer.
func (c *CmdBuffer) SetViewport(vp []driver.Viewport) {
	c.checkRecording()
	v := make([]driver.Viewport, len(vp))
	copy(v, vp)
	c.Cmds = append(c.Cmds, Cmd{Kind: CmdSetViewport, Viewport: v})
}

// SetScissor implements driver.CmdBuffer.
func (c *CmdBuffer) SetScissor(sciss []driver.Scissor) { c.record(CmdSetScissor) }

// SetBlendColor implements driver.CmdBuffer.
func (c *CmdBuffer) SetBlendColor(r, g, b, a float32) { c.record(CmdOther) }

// SetStencilRef implements driver.CmdBuffer.
func (c *CmdBuffer) SetStencilRef(value uint32) { c.record(CmdOther) }

// SetVertexBuf implements driver.CmdBuffer.
func (c *CmdBuffer) SetVertexBuf(start int, buf []driver.Buffer, off []int64) { c.record(CmdOther) }

// SetIndexBuf implements driver.CmdBuffer.
func (c *CmdBuffer) SetIndexBuf(format driver.IndexFmt, buf driver.Buffer, off int64) {
	c.record(CmdOther)
}

// SetDescTableGraph implements driver.CmdBuffer.
func (c *CmdBuffer) SetDescTableGraph(table driver.DescTable, start int, heapCopy []int) {
	c.record(CmdOther)
}

// SetDescTableComp implements driver.CmdBuffer.
func (c *CmdBuffer) SetDescTableComp(table driver.DescTable, start int, heapCopy []int) {
	c.record(CmdOther)
}

// Draw implements driver.CmdBuffer.
func (c *CmdBuffer) Draw(vertCount, instCount, baseVert, baseInst int) { c.record(CmdDraw) }

// DrawIndexed implements driver.CmdBuffer.
func (c *CmdBuffer) DrawIndexed(idxCount, instCount, baseIdx, vertOff, baseInst int) {
	c.record(CmdDrawIndexed)
}

// Dispatch implements driver.CmdBuffer.
func (c *CmdBuffer) Dispatch(grpCountX, grpCountY, grpCountZ int) { c.record(CmdDispatch) }

// CopyBuffer implements driver.CmdBuffer.
func (c *CmdBuffer) CopyBuffer(param *driver.BufferCopy) { c.record(CmdOther) }

// CopyImage implements driver.CmdBuffer.
func (c *CmdBuffer) CopyImage(param *driver.ImageCopy) { c.record(CmdOther) }

// CopyBufToImg implements driver.CmdBuffer.
func (c *CmdBuffer) CopyBufToImg(param *driver.BufImgCopy) { c.record(CmdOther) }

// CopyImgToBuf implements driver.CmdBuffer.
func (c *CmdBuffer) CopyImgToBuf(param *driver.BufImgCopy) { c.record(CmdOther) }

// Fill implements driver.CmdBuffer.
func (c *CmdBuffer) Fill(buf driver.Buffer, off int64, value byte, size int64) { c.record(CmdOther) }

// Barrier implements driver.CmdBuffer.
func (c *CmdBuffer) Barrier(b []driver.Barrier) {
	c.checkRecording()
	cp := make([]driver.Barrier, len(b))
	copy(cp, b)
	c.Cmds = append(c.Cmds, Cmd{Kind: CmdBarrier, Barriers: cp})
}

// Transition implements driver.CmdBuffer.
func (c *CmdBuffer) Transition(t []driver.Transition) {
	c.checkRecording()
	cp := make([]driver.Transition, len(t))
	copy(cp, t)
	c.Cmds = append(c.Cmds, Cmd{Kind: CmdTransition, Transition: cp})
}

// End implements driver.CmdBuffer.
func (c *CmdBuffer) End() error {
	if !c.recording {
		return errors.New("fake: CmdBuffer: not recording")
	}
	c.recording = false
	return nil
}

// Reset implements driver.CmdBuffer.
func (c *CmdBuffer) Reset() error {
	c.recording = false
	c.Cmds = c.Cmds[:0]
	return nil
}

// Destroy implements driver.Destroyer.
func (c *CmdBuffer) Destroy() {}
