package host

import (
	"github.com/ardnew/softmci/host/sdi"
	"github.com/ardnew/softmci/pkg"
	"github.com/ardnew/softmci/trace"
)

// finalizeLocked completes the current command: it collects the response,
// quiesces the controller and either chains the stop command or ends the
// request. It returns nil while the request is still in flight.
func (h *Host) finalizeLocked() *finished {
	if h.target != targetFinalize || h.mrq == nil {
		return nil
	}
	cmd := h.currentCmd()

	if cmd.Data != nil && cmd.Error == nil && cmd.Data.Error == nil &&
		h.useDMA && !h.dmaComplete {
		pkg.LogDebug(pkg.ComponentDMA, "DMA missing", "togo", h.dmaToGo)
		return nil
	}

	cmd.Resp[0] = h.bus.Read32(sdi.RSP0)
	cmd.Resp[1] = h.bus.Read32(sdi.RSP1)
	cmd.Resp[2] = h.bus.Read32(sdi.RSP2)
	cmd.Resp[3] = h.bus.Read32(sdi.RSP3)

	h.bus.Write32(sdi.PRE, h.prescaler)

	h.bus.Write32(sdi.CMDARG, 0)
	h.bus.Write32(sdi.DCON, h.variant.DConStop)
	h.bus.Write32(sdi.CMDCON, 0)
	h.clearIMask()

	if cmd.Data != nil && cmd.Error != nil && cmd.Data.Error == nil {
		cmd.Data.Error = cmd.Error
	}

	if cmd.Data != nil && cmd.Data.Stop != nil && !h.cmdIsStop {
		h.cmdIsStop = true
		if h.tracer != nil {
			h.stopTask = trace.Task{
				ID:       trace.NewTaskID(),
				ParentID: h.reqTask.ID,
				Kind:     trace.KindStop,
				What:     cmd.Data.Stop.String(),
				Where:    h.cfg.Name,
			}
			h.tracer.StartTask(h.stopTask)
		}
		return h.sendRequestLocked()
	}

	if data := h.mrq.Data; data != nil {
		var stopErr error
		if h.mrq.Stop != nil {
			stopErr = h.mrq.Stop.Error
		}
		if data.Error == nil && h.mrq.Cmd.Error == nil && stopErr == nil {
			data.BytesXfered = data.Len()
		} else {
			data.BytesXfered = 0
		}

		if data.Error != nil {
			if h.useDMA {
				if err := h.dma.Flush(); err != nil {
					pkg.LogWarn(pkg.ComponentDMA, "flush failed", "error", err)
				}
			}
			h.variant.ResetFIFO(h.bus)
		}
	}

	return h.doneLocked()
}
