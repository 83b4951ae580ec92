package hal

import "github.com/ardnew/softmci/mmc"

// Bus is the memory-mapped register window of one SDI controller.
//
// Implementations must be safe for concurrent use: the engine reads status
// registers from the interrupt path while the worker goroutine moves FIFO
// data. A read of the data register pops one word from the receive FIFO and a
// write pushes one word into the transmit FIFO.
type Bus interface {
	// Read32 returns the 32-bit register at byte offset off.
	Read32(off uint32) uint32

	// Write32 stores v into the 32-bit register at byte offset off.
	Write32(off, v uint32)
}

// DMADirection selects the memory side of a DMA transfer.
type DMADirection uint8

// DMA directions.
const (
	DMANone       DMADirection = iota
	DMAFromMemory              // Memory to controller (card write)
	DMAFromDevice              // Controller to memory (card read)
)

// String returns the direction name.
func (d DMADirection) String() string {
	switch d {
	case DMAFromMemory:
		return "mem->dev"
	case DMAFromDevice:
		return "dev->mem"
	default:
		return "none"
	}
}

// DMAResult is the outcome reported for one enqueued buffer.
type DMAResult uint8

// DMA results.
const (
	DMAOK DMAResult = iota
	DMAError
	DMAAborted
)

// String returns the result name.
func (r DMAResult) String() string {
	switch r {
	case DMAOK:
		return "ok"
	case DMAError:
		return "error"
	case DMAAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// DMADoneFunc is called once per enqueued buffer, in enqueue order. It may be
// called from any goroutine.
type DMADoneFunc func(size int, result DMAResult)

// DMA is the channel serving the controller's data FIFO.
//
// The engine only sequences calls into this interface: Configure when the
// direction changes, Flush, one Enqueue per scatter segment, then Start.
type DMA interface {
	// Configure sets the transfer direction and the peripheral address
	// (the controller's data register offset).
	Configure(dir DMADirection, fifoOffset uint32) error

	// SetDoneFunc installs the per-buffer completion callback.
	SetDoneFunc(fn DMADoneFunc)

	// Enqueue appends a buffer to the channel queue.
	Enqueue(buf []byte) error

	// Start begins servicing the queue.
	Start() error

	// Flush discards every queued buffer. Flushed buffers do not produce
	// completion callbacks.
	Flush() error
}

// Power switches card supply voltage. It is optional board support.
type Power interface {
	SetPower(mode mmc.PowerMode, vdd uint16)
}

// PowerFunc adapts a function to the [Power] interface.
type PowerFunc func(mode mmc.PowerMode, vdd uint16)

// SetPower calls f(mode, vdd).
func (f PowerFunc) SetPower(mode mmc.PowerMode, vdd uint16) {
	f(mode, vdd)
}
