package linux

import (
	"fmt"
	"sync/atomic"

	"periph.io/x/host/v3/pmem"

	"github.com/ardnew/softmci/host/hal"
	"github.com/ardnew/softmci/pkg"
)

// Bus is a memory-mapped SDI register window.
type Bus struct {
	regs []uint32
	view *pmem.View
}

var _ hal.Bus = (*Bus)(nil)

// NewBus returns a Bus over an already mapped register window. regs[0] is
// the register at offset 0.
func NewBus(regs []uint32) *Bus {
	return &Bus{regs: regs}
}

// Map maps the SDI register window at physical address base from /dev/mem.
// base must be page aligned.
func Map(base uint64) (*Bus, error) {
	if base%pageSize != 0 {
		return nil, fmt.Errorf("%w: base 0x%x is not page aligned", pkg.ErrInvalidParameter, base)
	}
	view, err := pmem.Map(base, pageSize)
	if err != nil {
		return nil, fmt.Errorf("map SDI window at 0x%x: %w", base, err)
	}
	regs := view.Uint32()
	if len(regs) < WindowSize/4 {
		_ = view.Close()
		return nil, fmt.Errorf("%w: mapped window holds %d registers", pkg.ErrInvalidParameter, len(regs))
	}
	pkg.LogInfo(pkg.ComponentHAL, "mapped SDI registers", "base", fmt.Sprintf("0x%x", base))
	return &Bus{regs: regs[:WindowSize/4], view: view}, nil
}

// Read32 implements hal.Bus. Offsets outside the window read as zero.
func (b *Bus) Read32(off uint32) uint32 {
	i := int(off >> 2)
	if i >= len(b.regs) {
		return 0
	}
	return atomic.LoadUint32(&b.regs[i])
}

// Write32 implements hal.Bus. Writes outside the window are dropped.
func (b *Bus) Write32(off, v uint32) {
	i := int(off >> 2)
	if i >= len(b.regs) {
		pkg.LogWarn(pkg.ComponentHAL, "register write outside window", "offset", pkg.Hex32(off))
		return
	}
	atomic.StoreUint32(&b.regs[i], v)
}

// Close unmaps the window. It is a no-op for a Bus created with NewBus.
func (b *Bus) Close() error {
	if b.view == nil {
		return nil
	}
	err := b.view.Close()
	b.view = nil
	b.regs = nil
	return err
}
