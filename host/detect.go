package host

import (
	"time"

	"periph.io/x/conn/v3/gpio"

	"github.com/ardnew/softmci/pkg"
)

// ReadOnly reports whether the inserted card is write protected. Without a
// write-protect line the card is assumed writable.
func (h *Host) ReadOnly() bool {
	if h.cfg.WriteProtect == nil {
		return false
	}
	return h.cfg.WriteProtect.Read() == gpio.High
}

// CardPresent reports whether a card is in the slot. Without a detect line
// a card is assumed present.
func (h *Host) CardPresent() bool {
	if h.cfg.Detect == nil {
		return true
	}
	return h.cfg.Detect.Read() == gpio.Low
}

// OnCardDetect handles a card-detect edge. The change is reported through
// Config.OnCardChange after Config.DetectDelay; edges arriving within the
// delay restart it.
func (h *Host) OnCardDetect() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.detectTimer != nil {
		h.detectTimer.Stop()
	}
	h.detectTimer = time.AfterFunc(h.cfg.DetectDelay, h.cardChanged)
	pkg.LogDebug(pkg.ComponentCard, "card detect edge", "delay", h.cfg.DetectDelay)
}

func (h *Host) cardChanged() {
	present := h.CardPresent()
	pkg.LogInfo(pkg.ComponentCard, "card changed", "name", h.cfg.Name, "present", present)
	if h.cfg.OnCardChange != nil {
		h.cfg.OnCardChange(present)
	}
}
