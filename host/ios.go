package host

import (
	"periph.io/x/conn/v3/physic"

	"github.com/ardnew/softmci/host/sdi"
	"github.com/ardnew/softmci/mmc"
	"github.com/ardnew/softmci/pkg"
)

// SetIOS applies bus settings: card power, clock and bus width. The clock
// is the fastest prescaled rate not above ios.Clock; a zero clock stops it.
func (h *Host) SetIOS(ios mmc.IOS) {
	h.mu.Lock()
	defer h.mu.Unlock()

	con := h.bus.Read32(sdi.CON)

	switch ios.PowerMode {
	case mmc.PowerOn, mmc.PowerUp:
		if h.cfg.Power != nil {
			h.cfg.Power.SetPower(ios.PowerMode, ios.VDD)
		}
		con |= h.variant.PowerUpCon
	default:
		if h.cfg.Power != nil {
			h.cfg.Power.SetPower(ios.PowerMode, ios.VDD)
		}
		con |= h.variant.PowerOffCon
	}

	var (
		psc  uint32
		rate physic.Frequency
	)
	for psc = 0; psc < 255; psc++ {
		rate = h.cfg.ClockRate / physic.Frequency(h.variant.ClockDiv*(psc+1))
		if rate <= ios.Clock {
			break
		}
	}
	h.prescaler = psc
	h.bus.Write32(sdi.PRE, psc)

	if ios.Clock == 0 {
		rate = 0
		con &^= sdi.ConClockType
	} else {
		con |= sdi.ConClockType
	}
	h.bus.Write32(sdi.CON, con)

	h.realRate = rate
	h.busWidth = ios.BusWidth

	pkg.LogDebug(pkg.ComponentHost, "set ios",
		"power", ios.PowerMode.String(),
		"vdd", ios.VDD,
		"clock", rate.String(),
		"requested", ios.Clock.String(),
		"prescaler", psc,
		"width", ios.BusWidth)
}

// ClockRate returns the card clock programmed by the last SetIOS.
func (h *Host) ClockRate() physic.Frequency {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.realRate
}
