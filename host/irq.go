package host

import (
	"github.com/ardnew/softmci/host/sdi"
	"github.com/ardnew/softmci/mmc"
	"github.com/ardnew/softmci/pkg"
)

// OnInterrupt handles the SDI transfer interrupt. It must be connected to
// the controller's interrupt line by the platform code.
//
// Errors are recorded on the command or data of the in-flight request and
// escalate to finalization; nothing is returned. Conditions that do not end
// the request are acknowledged and the handler waits for the next
// interrupt.
func (h *Host) OnInterrupt() {
	h.mu.Lock()
	defer h.mu.Unlock()

	csta := h.bus.Read32(sdi.CMDSTAT)
	dsta := h.bus.Read32(sdi.DSTA)
	dcnt := h.bus.Read32(sdi.DCNT)
	fsta := h.bus.Read32(sdi.FSTA)

	h.handleInterruptLocked(csta, dsta, fsta)

	pkg.LogDebug(pkg.ComponentIRQ, "interrupt",
		"csta", pkg.Hex32(csta),
		"dsta", pkg.Hex32(dsta),
		"fsta", pkg.Hex32(fsta),
		"dcnt", pkg.Hex32(dcnt),
		"target", h.target.String(),
		"status", h.status)
}

func (h *Host) handleInterruptLocked(csta, dsta, fsta uint32) {
	var cclear, dclear uint32

	if h.target == targetNone || h.target == targetFinalize {
		h.status = "nothing to complete"
		h.clearIMask()
		return
	}
	if h.mrq == nil {
		h.status = "no active request"
		h.clearIMask()
		return
	}
	cmd := h.currentCmd()
	if cmd == nil {
		h.status = "no active command"
		h.clearIMask()
		return
	}

	if !h.useDMA {
		if h.pioActive == xferWrite && fsta&sdi.FStaTFDet != 0 {
			h.disableIMask(sdi.IMskTx)
			h.schedule()
			h.status = "pio tx"
		}
		if h.pioActive == xferRead && fsta&sdi.FStaRFDet != 0 {
			h.disableIMask(sdi.IMskRx)
			h.schedule()
			h.status = "pio rx"
		}
	}

	if csta&sdi.CmdStatCmdTimeout != 0 {
		cmd.Error = pkg.ErrTimeout
		h.status = "error: command timeout"
		h.failTransferLocked()
		return
	}

	if csta&sdi.CmdStatCmdSent != 0 {
		if h.target == targetCmdSent {
			h.status = "ok: command sent"
			h.closeTransferLocked()
			return
		}
		cclear |= sdi.CmdStatCmdSent
	}

	if csta&sdi.CmdStatCRCFail != 0 {
		if cmd.Flags.Has(mmc.RspCRC) && !cmd.Flags.Has(mmc.Rsp136) {
			cmd.Error = pkg.ErrBadCRC
			h.status = "error: bad command crc"
			h.failTransferLocked()
			return
		}
		pkg.LogDebug(pkg.ComponentIRQ, "ignoring CRC failure", "cmd", cmd.String())
		cclear |= sdi.CmdStatCRCFail
	}

	if csta&sdi.CmdStatRspFin != 0 {
		if h.target == targetRspFin {
			h.status = "ok: command response received"
			h.closeTransferLocked()
			return
		}
		if h.target == targetXferFinishRspFin {
			h.target = targetXferFinish
		}
		cclear |= sdi.CmdStatRspFin
	}

	// Errors past this point only matter while data is moving.
	if data := cmd.Data; data != nil {
		switch {
		case h.variant.FIFOFailed(dsta, fsta):
			data.Error = pkg.ErrFIFO
			h.status = "error: fifo failure"
			h.failTransferLocked()
			return
		case dsta&sdi.DStaRxCRCFail != 0:
			data.Error = pkg.ErrBadCRC
			h.status = "error: bad data crc (outgoing)"
			h.failTransferLocked()
			return
		case dsta&sdi.DStaCRCFail != 0:
			data.Error = pkg.ErrBadCRC
			h.status = "error: bad data crc (incoming)"
			h.failTransferLocked()
			return
		case dsta&sdi.DStaDataTimeout != 0:
			data.Error = pkg.ErrTimeout
			h.status = "error: data timeout"
			h.failTransferLocked()
			return
		}

		if dsta&sdi.DStaXferFinish != 0 {
			if h.target == targetXferFinish {
				h.status = "ok: data transfer completed"
				h.closeTransferLocked()
				return
			}
			if h.target == targetXferFinishRspFin {
				h.target = targetRspFin
			}
			dclear |= sdi.DStaXferFinish
		}
	}

	h.bus.Write32(sdi.CMDSTAT, cclear)
	h.bus.Write32(sdi.DSTA, dclear)
}

// failTransferLocked abandons any PIO transfer and closes the request.
func (h *Host) failTransferLocked() {
	h.pioActive = xferNone
	h.closeTransferLocked()
}

// closeTransferLocked hands the request to the worker for finalization.
func (h *Host) closeTransferLocked() {
	h.target = targetFinalize
	h.clearIMask()
	h.schedule()
}
