package host

import (
	"fmt"

	"github.com/ardnew/softmci/host/sdi"
	"github.com/ardnew/softmci/mmc"
	"github.com/ardnew/softmci/pkg"
	"github.com/ardnew/softmci/trace"
)

// setupRetries is the number of stop-and-reset attempts made when a
// previous data phase is still running.
const setupRetries = 3

// Request submits req and returns immediately. Completion is reported
// through req.Done. Only one request may be in flight; a second submission
// fails with pkg.ErrBusy.
func (h *Host) Request(req *mmc.Request) error {
	if err := req.Validate(); err != nil {
		return err
	}
	if err := h.checkLimits(req.Data); err != nil {
		return err
	}

	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return pkg.ErrNotRunning
	}
	if h.mrq != nil {
		h.mu.Unlock()
		return pkg.ErrBusy
	}

	req.Prepare()
	h.mrq = req
	h.cmdIsStop = false
	if h.tracer != nil {
		h.reqTask = trace.Task{
			ID:    trace.NewTaskID(),
			Kind:  trace.KindRequest,
			What:  req.Cmd.String(),
			Where: h.cfg.Name,
		}
		h.tracer.StartTask(h.reqTask)
	}

	f := h.sendRequestLocked()
	h.mu.Unlock()

	h.finish(f)
	return nil
}

func (h *Host) checkLimits(data *mmc.Data) error {
	if data == nil {
		return nil
	}
	switch {
	case data.BlockSize > MaxBlockSize:
		return fmt.Errorf("%w: block size %d exceeds %d", pkg.ErrInvalidRequest, data.BlockSize, MaxBlockSize)
	case data.Len() > MaxReqSize:
		return fmt.Errorf("%w: request of %d bytes exceeds %d", pkg.ErrInvalidRequest, data.Len(), MaxReqSize)
	case len(data.Segments) > MaxSegments:
		return fmt.Errorf("%w: %d segments exceeds %d", pkg.ErrInvalidRequest, len(data.Segments), MaxSegments)
	}
	return nil
}

// sendRequestLocked issues the current command (the request's command, or
// its stop command once the data phase is done). If the data phase cannot
// be set up the request completes at once with pkg.ErrDMA.
func (h *Host) sendRequestLocked() *finished {
	cmd := h.currentCmd()
	h.stats.Commands++

	pkg.LogDebug(pkg.ComponentHost, "send command",
		"cmd", cmd.String(),
		"stop", h.cmdIsStop,
		"data", cmd.Data != nil)

	// Clear command, data and FIFO status. The FIFO clear only matters on
	// the S3C2440 but is harmless on the S3C2410.
	h.bus.Write32(sdi.CMDSTAT, 0xFFFFFFFF)
	h.bus.Write32(sdi.DSTA, 0xFFFFFFFF)
	h.bus.Write32(sdi.FSTA, 0xFFFFFFFF)

	if cmd.Data != nil {
		err := h.setupDataLocked(cmd.Data)
		h.stats.DataPhases++
		if err == nil {
			if h.useDMA {
				err = h.prepareDMALocked(cmd.Data)
			} else {
				err = h.preparePIOLocked(cmd.Data)
			}
		}
		if err != nil {
			pkg.LogError(pkg.ComponentHost, "data setup failed", "cmd", cmd.String(), "error", err)
			cmd.Error = fmt.Errorf("%w: %v", pkg.ErrDMA, err)
			cmd.Data.Error = cmd.Error
			h.clearIMask()
			return h.doneLocked()
		}
	}

	h.sendCommandLocked(cmd)
	return nil
}

// sendCommandLocked arms the command interrupts, chooses the completion
// target and starts the command.
func (h *Host) sendCommandLocked(cmd *mmc.Command) {
	h.enableIMask(sdi.IMskCommand)

	switch {
	case cmd.Data != nil:
		h.target = targetXferFinishRspFin
	case cmd.Flags.Has(mmc.RspPresent):
		h.target = targetRspFin
	default:
		h.target = targetCmdSent
	}

	h.bus.Write32(sdi.CMDARG, cmd.Arg)

	ccon := uint32(cmd.Opcode) & sdi.CmdConIndexMask
	ccon |= sdi.CmdConSenderHost | sdi.CmdConCmdStart
	if cmd.Flags.Has(mmc.RspPresent) {
		ccon |= sdi.CmdConWaitRsp
	}
	if cmd.Flags.Has(mmc.Rsp136) {
		ccon |= sdi.CmdConLongRsp
	}
	h.bus.Write32(sdi.CMDCON, ccon)
}

// setupDataLocked programs DCON, BSIZE, TIMER and the data interrupts.
func (h *Host) setupDataLocked(data *mmc.Data) error {
	tries := setupRetries
	for h.bus.Read32(sdi.DSTA)&(sdi.DStaTxDataOn|sdi.DStaRxDataOn) != 0 {
		pkg.LogWarn(pkg.ComponentHost, "data transfer still in progress, resetting")
		h.bus.Write32(sdi.DCON, h.variant.DConStop)
		h.resetLocked()
		if tries == 0 {
			return fmt.Errorf("%w: data path stuck", pkg.ErrBusy)
		}
		tries--
	}

	dcon := uint32(data.Blocks) & sdi.DConBlkNumMask
	if h.useDMA {
		dcon |= sdi.DConDMAEn
	}
	if h.busWidth == mmc.BusWidth4 {
		dcon |= sdi.DConWideBus
	}
	if data.Flags&mmc.DataStream == 0 {
		dcon |= sdi.DConBlockMode
	}
	if data.IsWrite() {
		dcon |= sdi.DConTxAfterResp | sdi.DConXferTxStart
	}
	if data.IsRead() {
		dcon |= sdi.DConRxAfterCmd | sdi.DConXferRxStart
	}
	dcon |= h.variant.DConExtra
	h.bus.Write32(sdi.DCON, dcon)

	h.bus.Write32(sdi.BSIZE, uint32(data.BlockSize))

	h.enableIMask(sdi.IMskData)

	h.bus.Write32(sdi.TIMER, h.variant.DataTimer)

	// Slow the clock while a read is set up to avoid data timeouts.
	if h.variant.SlowReadPrescaler != 0 && data.IsRead() {
		h.bus.Write32(sdi.PRE, h.variant.SlowReadPrescaler)
	}
	return nil
}

// resetLocked resets the SDI block.
func (h *Host) resetLocked() {
	con := h.bus.Read32(sdi.CON)
	h.bus.Write32(sdi.CON, con|sdi.ConSDReset)
}
