package sim

import (
	"encoding/binary"
	"fmt"

	"github.com/ardnew/softmci/host/hal"
	"github.com/ardnew/softmci/pkg"
)

// MaxQueuedBuffers bounds the DMA channel queue.
const MaxQueuedBuffers = 128

type dmaCompletion struct {
	fn     hal.DMADoneFunc
	size   int
	result hal.DMAResult
}

// DMAChannel is a simulated DMA channel wired to a [Controller] data FIFO.
// Its state is guarded by the controller lock.
type DMAChannel struct {
	c *Controller

	dir     hal.DMADirection
	done    hal.DMADoneFunc
	queue   [][]byte
	pos     int
	started bool

	configures int
}

var _ hal.DMA = (*DMAChannel)(nil)

// Configure sets the transfer direction. The FIFO offset must be the
// controller's data register.
func (d *DMAChannel) Configure(dir hal.DMADirection, fifoOffset uint32) error {
	d.c.mu.Lock()
	defer d.c.mu.Unlock()
	if fifoOffset != d.c.variant.DATA {
		return fmt.Errorf("%w: FIFO offset 0x%02x, want 0x%02x", pkg.ErrInvalidParameter, fifoOffset, d.c.variant.DATA)
	}
	d.dir = dir
	d.configures++
	return nil
}

// SetDoneFunc installs the completion callback.
func (d *DMAChannel) SetDoneFunc(fn hal.DMADoneFunc) {
	d.c.mu.Lock()
	defer d.c.mu.Unlock()
	d.done = fn
}

// Enqueue appends a buffer. Buffer lengths must be word multiples.
func (d *DMAChannel) Enqueue(buf []byte) error {
	d.c.mu.Lock()
	defer d.c.mu.Unlock()
	if len(buf) == 0 || len(buf)%4 != 0 {
		return fmt.Errorf("%w: DMA buffer length %d", pkg.ErrInvalidParameter, len(buf))
	}
	if len(d.queue) >= MaxQueuedBuffers {
		return pkg.ErrQueueFull
	}
	d.queue = append(d.queue, buf)
	return nil
}

// Start begins servicing the queue.
func (d *DMAChannel) Start() error {
	d.c.mu.Lock()
	d.started = true
	d.c.mu.Unlock()
	d.c.poke()
	return nil
}

// Flush discards all queued buffers without completion callbacks.
func (d *DMAChannel) Flush() error {
	d.c.mu.Lock()
	defer d.c.mu.Unlock()
	d.queue = nil
	d.pos = 0
	d.started = false
	return nil
}

// Configures returns how many times Configure succeeded.
func (d *DMAChannel) Configures() int {
	d.c.mu.Lock()
	defer d.c.mu.Unlock()
	return d.configures
}

// Queued returns the number of buffers waiting in the queue.
func (d *DMAChannel) Queued() int {
	d.c.mu.Lock()
	defer d.c.mu.Unlock()
	return len(d.queue)
}

func (d *DMAChannel) activeLocked(dir hal.DMADirection) bool {
	return d.started && d.dir == dir && len(d.queue) > 0
}

// failLocked completes the head buffer with an error and stops the channel.
func (d *DMAChannel) failLocked(out []dmaCompletion) []dmaCompletion {
	out = append(out, dmaCompletion{d.done, d.pos, hal.DMAError})
	d.queue = d.queue[1:]
	d.pos = 0
	d.started = false
	return out
}

func (d *DMAChannel) advanceLocked(out []dmaCompletion) []dmaCompletion {
	d.pos += 4
	if d.pos == len(d.queue[0]) {
		out = append(out, dmaCompletion{d.done, d.pos, hal.DMAOK})
		d.queue = d.queue[1:]
		d.pos = 0
	}
	return out
}

// drainLocked moves words from the FIFO into queued buffers.
func (d *DMAChannel) drainLocked(out []dmaCompletion) ([]dmaCompletion, bool) {
	moved := false
	for len(d.c.fifo) > 0 && d.activeLocked(hal.DMAFromDevice) {
		if d.pos == 0 && d.c.takeFault(FaultDMA) {
			return d.failLocked(out), true
		}
		binary.LittleEndian.PutUint32(d.queue[0][d.pos:], d.c.fifo[0])
		d.c.fifo = d.c.fifo[1:]
		out = d.advanceLocked(out)
		moved = true
	}
	return out, moved
}

// fillLocked moves words from queued buffers into the FIFO.
func (d *DMAChannel) fillLocked(out []dmaCompletion) ([]dmaCompletion, bool) {
	moved := false
	for len(d.c.fifo) < fifoWords && d.activeLocked(hal.DMAFromMemory) {
		if d.pos == 0 && d.c.takeFault(FaultDMA) {
			return d.failLocked(out), true
		}
		d.c.fifo = append(d.c.fifo, binary.LittleEndian.Uint32(d.queue[0][d.pos:]))
		out = d.advanceLocked(out)
		moved = true
	}
	return out, moved
}
