package host

import (
	"fmt"

	"github.com/ardnew/softmci/host/hal"
	"github.com/ardnew/softmci/mmc"
	"github.com/ardnew/softmci/pkg"
)

// dmaSetupLocked reconfigures the channel when the direction changes.
func (h *Host) dmaSetupLocked(dir hal.DMADirection) error {
	if h.dmaDir == dir {
		return nil
	}
	if err := h.dma.Configure(dir, h.variant.DATA); err != nil {
		return fmt.Errorf("configure %s: %w", dir, err)
	}
	h.dmaDir = dir
	pkg.LogDebug(pkg.ComponentDMA, "channel configured", "dir", dir.String())
	return nil
}

// prepareDMALocked queues one DMA buffer per scatter segment and starts
// the channel.
func (h *Host) prepareDMALocked(data *mmc.Data) error {
	dir := hal.DMAFromDevice
	if data.IsWrite() {
		dir = hal.DMAFromMemory
	}
	if err := h.dmaSetupLocked(dir); err != nil {
		return err
	}
	if err := h.dma.Flush(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}

	h.dmaComplete = false
	h.dmaToGo = len(data.Segments)

	for i, seg := range data.Segments {
		if err := h.dma.Enqueue(seg); err != nil {
			h.dmaToGo = 0
			if ferr := h.dma.Flush(); ferr != nil {
				pkg.LogWarn(pkg.ComponentDMA, "flush after enqueue failure", "error", ferr)
			}
			return fmt.Errorf("enqueue segment %d: %w", i, err)
		}
	}

	if err := h.dma.Start(); err != nil {
		h.dmaToGo = 0
		return fmt.Errorf("start: %w", err)
	}

	pkg.LogDebug(pkg.ComponentDMA, "transfer started",
		"dir", dir.String(),
		"segments", len(data.Segments),
		"bytes", data.Len())
	return nil
}

// dmaDone is the per-buffer completion callback of the DMA channel.
func (h *Host) dmaDone(size int, result hal.DMAResult) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.mrq == nil || h.mrq.Data == nil || h.dmaToGo == 0 {
		pkg.LogDebug(pkg.ComponentDMA, "spurious completion", "size", size, "result", result.String())
		return
	}

	pkg.LogDebug(pkg.ComponentDMA, "buffer done",
		"size", size,
		"result", result.String(),
		"togo", h.dmaToGo-1)

	if result != hal.DMAOK {
		h.mrq.Data.Error = fmt.Errorf("%w: %s", pkg.ErrDMA, result)
		h.dmaToGo = 0
		h.target = targetFinalize
		h.clearIMask()
		h.schedule()
		return
	}

	h.dmaToGo--
	if h.dmaToGo == 0 {
		h.dmaComplete = true
		h.target = targetFinalize
	}
	h.schedule()
}
