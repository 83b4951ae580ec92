package host

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/ardnew/softmci/host/sdi"
	"github.com/ardnew/softmci/mmc"
	"github.com/ardnew/softmci/pkg"
)

var errNoMoreBuffers = errors.New("no more buffers")

// getDataBuffer advances the PIO cursor to the next scatter segment.
func (h *Host) getDataBuffer() error {
	if h.pioActive == xferNone {
		return pkg.ErrInvalidRequest
	}
	if h.mrq == nil || h.mrq.Data == nil {
		return pkg.ErrInvalidRequest
	}
	segs := h.mrq.Data.Segments
	if h.pioSgPtr >= len(segs) {
		pkg.LogDebug(pkg.ComponentPIO, "no more buffers", "segment", h.pioSgPtr, "segments", len(segs))
		return errNoMoreBuffers
	}

	h.pioBuf = segs[h.pioSgPtr]
	h.pioWords = uint32(len(h.pioBuf) >> 2)
	h.pioSgPtr++

	pkg.LogDebug(pkg.ComponentPIO, "new buffer", "segment", h.pioSgPtr, "segments", len(segs), "words", h.pioWords)
	return nil
}

// preparePIOLocked resets the PIO cursor, primes the FIFO for writes and
// arms the FIFO interrupts.
func (h *Host) preparePIOLocked(data *mmc.Data) error {
	h.pioSgPtr = 0
	h.pioWords = 0
	h.pioCount = 0
	h.pioBuf = nil

	if data.IsWrite() {
		h.pioActive = xferWrite
		h.pioWriteLocked()
		h.enableIMask(sdi.IMskTx)
	} else {
		h.pioActive = xferRead
		h.enableIMask(sdi.IMskRx)
	}
	return nil
}

// pioReadLocked drains the receive FIFO into the scatter list.
func (h *Host) pioReadLocked() {
	// The prescaler may have been slowed for the read setup.
	h.bus.Write32(sdi.PRE, h.prescaler)

	for {
		fifo := sdi.FIFOFill(h.bus.Read32(sdi.FSTA))
		if fifo == 0 {
			break
		}
		if h.pioWords == 0 {
			if err := h.getDataBuffer(); err != nil {
				h.pioActive = xferNone
				h.target = targetFinalize
				pkg.LogDebug(pkg.ComponentPIO, "read complete, no more data", "words", h.pioCount)
				return
			}
		}
		if fifo > h.pioWords {
			fifo = h.pioWords
		}
		h.pioWords -= fifo
		h.pioCount += fifo
		h.stats.PIOWords += uint64(fifo)

		for ; fifo > 0; fifo-- {
			binary.LittleEndian.PutUint32(h.pioBuf, h.bus.Read32(h.variant.DATA))
			h.pioBuf = h.pioBuf[4:]
		}
	}

	if h.pioWords == 0 {
		if err := h.getDataBuffer(); err != nil {
			h.pioActive = xferNone
			h.target = targetFinalize
			pkg.LogDebug(pkg.ComponentPIO, "read complete, no more buffers", "words", h.pioCount)
			return
		}
	}

	h.enableIMask(sdi.IMskRx)
}

// pioWriteLocked fills the transmit FIFO from the scatter list.
func (h *Host) pioWriteLocked() {
	for {
		fifo := sdi.FIFOFree(h.bus.Read32(sdi.FSTA))
		if fifo == 0 {
			break
		}
		if h.pioWords == 0 {
			if err := h.getDataBuffer(); err != nil {
				h.pioActive = xferNone
				pkg.LogDebug(pkg.ComponentPIO, "write complete, no more data", "words", h.pioCount)
				return
			}
		}
		if fifo > h.pioWords {
			fifo = h.pioWords
		}
		h.pioWords -= fifo
		h.pioCount += fifo
		h.stats.PIOWords += uint64(fifo)

		for ; fifo > 0; fifo-- {
			h.bus.Write32(h.variant.DATA, binary.LittleEndian.Uint32(h.pioBuf))
			h.pioBuf = h.pioBuf[4:]
		}
	}

	h.enableIMask(sdi.IMskTx)
}

// runTask is the deferred step: move PIO data, then finalize once the
// request has reached its completion target.
func (h *Host) runTask() {
	h.mu.Lock()

	if h.pioActive == xferWrite {
		h.pioWriteLocked()
	}
	if h.pioActive == xferRead {
		h.pioReadLocked()
	}

	var f *finished
	if h.target == targetFinalize {
		h.clearIMask()
		if h.pioActive != xferNone && h.mrq != nil && h.mrq.Data != nil {
			pkg.LogError(pkg.ComponentPIO, "unfinished transfer",
				"dir", h.pioActive.String(),
				"words", h.pioCount,
				"remaining", h.pioWords)
			h.mrq.Data.Error = fmt.Errorf("%w: unfinished PIO %s", pkg.ErrDMA, h.pioActive)
			h.pioActive = xferNone
		}
		f = h.finalizeLocked()
	}

	h.mu.Unlock()
	h.finish(f)
}
