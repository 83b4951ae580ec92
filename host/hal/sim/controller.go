package sim

import (
	"context"
	"encoding/binary"
	"sync"

	"github.com/ardnew/softmci/host/hal"
	"github.com/ardnew/softmci/host/sdi"
	"github.com/ardnew/softmci/pkg"
)

const fifoWords = sdi.FIFODepth / 4

type xferState uint8

const (
	xferIdle xferState = iota
	xferRead
	xferWrite
)

// RegWrite is one recorded register write.
type RegWrite struct {
	Offset uint32
	Value  uint32
}

// Controller simulates one S3C24xx SDI block with a card in its slot.
//
// Status registers are write-1-to-clear. Writing CMDCON with the start bit
// executes the command against the card immediately; a configured data phase
// then moves data between the card and the 64-byte FIFO from a background
// goroutine. The interrupt handler is called from that goroutine whenever a
// new unmasked status condition is raised, never with the controller lock
// held.
type Controller struct {
	variant *sdi.Variant
	card    *Card
	dma     *DMAChannel

	mu      sync.Mutex
	con     uint32
	pre     uint32
	cmdArg  uint32
	cmdCon  uint32
	cmdStat uint32
	rsp     [4]uint32
	timer   uint32
	bsize   uint32
	dcon    uint32
	dsta    uint32
	fstaErr uint32
	imsk    uint32
	fifo    []uint32

	xfer     xferState
	xferBase int
	xferLen  int
	xferOff  int
	rxBuf    []byte
	txFailed bool

	gen         uint64
	lastGen     uint64
	lastPending uint32

	faults  map[Fault]int
	history []RegWrite
	irq     func()

	kick    chan struct{}
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

var _ hal.Bus = (*Controller)(nil)

// New creates a controller of the given variant with card in its slot.
func New(v *sdi.Variant, card *Card) *Controller {
	c := &Controller{
		variant: v,
		card:    card,
		faults:  make(map[Fault]int),
		kick:    make(chan struct{}, 1),
	}
	c.dma = &DMAChannel{c: c}
	return c
}

// Variant returns the simulated chip variant.
func (c *Controller) Variant() *sdi.Variant { return c.variant }

// Card returns the card in the slot.
func (c *Controller) Card() *Card { return c.card }

// DMA returns the DMA channel wired to the data FIFO.
func (c *Controller) DMA() *DMAChannel { return c.dma }

// SetInterruptHandler installs the function called for the SDI interrupt.
func (c *Controller) SetInterruptHandler(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.irq = fn
}

// Start launches the goroutine that moves data and raises interrupts.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return pkg.ErrAlreadyRunning
	}
	c.ctx, c.cancel = context.WithCancel(ctx)
	c.running = true
	c.wg.Add(1)
	go c.run()
	pkg.LogInfo(pkg.ComponentHAL, "simulated controller started", "variant", c.variant.Name)
	return nil
}

// Stop halts the background goroutine.
func (c *Controller) Stop() error {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return nil
	}
	c.running = false
	c.cancel()
	c.mu.Unlock()

	c.wg.Wait()
	pkg.LogInfo(pkg.ComponentHAL, "simulated controller stopped")
	return nil
}

// InjectFault arms a one-shot fault. For FaultFIFO, after is the number of
// data bytes moved before the FIFO fails; it is ignored otherwise.
func (c *Controller) InjectFault(f Fault, after int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.faults[f] = after
}

// ClearFaults disarms every pending fault.
func (c *Controller) ClearFaults() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.faults)
}

// History returns a copy of every register write since the last
// ClearHistory.
func (c *Controller) History() []RegWrite {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]RegWrite(nil), c.history...)
}

// ClearHistory forgets recorded register writes.
func (c *Controller) ClearHistory() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history = c.history[:0]
}

// FIFOLen returns the number of bytes held in the FIFO.
func (c *Controller) FIFOLen() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.fifo) * 4
}

// Pending returns the unmasked interrupt conditions.
func (c *Controller) Pending() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pendingLocked()
}

// Read32 implements hal.Bus. Reading the data register pops the FIFO.
func (c *Controller) Read32(off uint32) uint32 {
	c.mu.Lock()
	var v uint32
	popped := false
	switch {
	case off == c.variant.IMSK:
		v = c.imsk
	case off == c.variant.DATA:
		if len(c.fifo) > 0 {
			v = c.fifo[0]
			c.fifo = c.fifo[1:]
			popped = true
		}
	case off == sdi.CON:
		v = c.con
	case off == sdi.PRE:
		v = c.pre
	case off == sdi.CMDARG:
		v = c.cmdArg
	case off == sdi.CMDCON:
		v = c.cmdCon
	case off == sdi.CMDSTAT:
		v = c.cmdStat
	case off >= sdi.RSP0 && off <= sdi.RSP3:
		v = c.rsp[(off-sdi.RSP0)/4]
	case off == sdi.TIMER:
		v = c.timer
	case off == sdi.BSIZE:
		v = c.bsize
	case off == sdi.DCON:
		v = c.dcon
	case off == sdi.DCNT:
		v = uint32(c.xferLen - c.xferOff)
	case off == sdi.DSTA:
		v = c.dstaLocked()
	case off == sdi.FSTA:
		v = c.fstaLocked()
	}
	c.mu.Unlock()
	if popped {
		c.poke()
	}
	return v
}

// Write32 implements hal.Bus.
func (c *Controller) Write32(off, v uint32) {
	c.mu.Lock()
	c.history = append(c.history, RegWrite{off, v})
	switch {
	case off == c.variant.IMSK:
		c.imsk = v
	case off == c.variant.DATA:
		if len(c.fifo) < fifoWords {
			c.fifo = append(c.fifo, v)
		} else {
			pkg.LogWarn(pkg.ComponentHAL, "FIFO overrun", "word", pkg.Hex32(v))
		}
	case off == sdi.CON:
		c.writeConLocked(v)
	case off == sdi.PRE:
		c.pre = v
	case off == sdi.CMDARG:
		c.cmdArg = v
	case off == sdi.CMDCON:
		c.cmdCon = v
		if v&sdi.CmdConCmdStart != 0 {
			c.executeLocked()
		}
	case off == sdi.CMDSTAT:
		c.cmdStat &^= v
	case off == sdi.TIMER:
		c.timer = v
	case off == sdi.BSIZE:
		c.bsize = v
	case off == sdi.DCON:
		c.dcon = v
		if v&sdi.DConXferMask == 0 {
			c.stopDataLocked()
		}
	case off == sdi.DSTA:
		c.dsta &^= v
	case off == sdi.FSTA:
		if v&sdi.FStaFIFOReset != 0 {
			c.fifo = nil
		}
		c.fstaErr &^= v & sdi.FStaFIFOFail
	}
	c.mu.Unlock()
	c.poke()
}

func (c *Controller) writeConLocked(v uint32) {
	if v&sdi.ConSDReset != 0 {
		c.stopDataLocked()
		c.fifo = nil
		c.cmdStat = 0
		c.dsta = 0
		c.fstaErr = 0
	}
	if v&sdi.ConFIFOReset != 0 {
		c.fifo = nil
	}
	c.con = v &^ (sdi.ConSDReset | sdi.ConFIFOReset)
}

func (c *Controller) dstaLocked() uint32 {
	v := c.dsta
	switch c.xfer {
	case xferRead:
		v |= sdi.DStaRxDataOn
	case xferWrite:
		v |= sdi.DStaTxDataOn
	}
	return v
}

func (c *Controller) fstaLocked() uint32 {
	count := uint32(len(c.fifo) * 4)
	v := count | c.fstaErr
	switch c.xfer {
	case xferRead:
		if count >= sdi.FIFODepth/2 {
			v |= sdi.FStaRFHalf | sdi.FStaRFDet
		}
		if count == sdi.FIFODepth {
			v |= sdi.FStaRFFull
		}
		if count > 0 && c.xferOff == c.xferLen {
			v |= sdi.FStaRFLast | sdi.FStaRFDet
		}
	case xferWrite:
		if count <= sdi.FIFODepth/2 {
			v |= sdi.FStaTFHalf | sdi.FStaTFDet
		}
		if count == 0 {
			v |= sdi.FStaTFEmpty
		}
	}
	return v
}

func (c *Controller) pendingLocked() uint32 {
	var p uint32
	cs := c.cmdStat
	if cs&sdi.CmdStatCmdTimeout != 0 {
		p |= sdi.IMskCmdTimeout
	}
	if cs&sdi.CmdStatCmdSent != 0 {
		p |= sdi.IMskCmdSent
	}
	if cs&sdi.CmdStatRspFin != 0 {
		p |= sdi.IMskResponseEnd
	}
	if cs&sdi.CmdStatCRCFail != 0 {
		p |= sdi.IMskResponseCRC
	}
	ds := c.dsta
	if ds&sdi.DStaXferFinish != 0 {
		p |= sdi.IMskDataFinish
	}
	if ds&sdi.DStaDataTimeout != 0 {
		p |= sdi.IMskDataTimeout
	}
	if ds&sdi.DStaCRCFail != 0 {
		p |= sdi.IMskDataCRC
	}
	if ds&sdi.DStaRxCRCFail != 0 {
		p |= sdi.IMskCRCStatus | sdi.IMskDataCRC
	}
	fs := c.fstaLocked()
	if c.variant.FIFOFailed(ds, fs) {
		p |= sdi.IMskFIFOFail
	}
	if fs&sdi.FStaRFHalf != 0 {
		p |= sdi.IMskRxFIFOHalf
	}
	if fs&sdi.FStaRFLast != 0 {
		p |= sdi.IMskRxFIFOLast
	}
	if fs&sdi.FStaRFFull != 0 {
		p |= sdi.IMskRxFIFOFull
	}
	if fs&sdi.FStaTFHalf != 0 {
		p |= sdi.IMskTxFIFOHalf
	}
	if fs&sdi.FStaTFEmpty != 0 {
		p |= sdi.IMskTxFIFOEmpty
	}
	return p & c.imsk
}

func (c *Controller) takeFault(f Fault) bool {
	if _, ok := c.faults[f]; !ok {
		return false
	}
	delete(c.faults, f)
	return true
}

// executeLocked runs the command in CMDCON/CMDARG against the card.
func (c *Controller) executeLocked() {
	op := uint8(c.cmdCon & sdi.CmdConIndexMask)
	c.gen++
	c.cmdCon &^= sdi.CmdConCmdStart

	if !c.card.Present() || c.takeFault(FaultCmdTimeout) {
		c.cmdStat |= sdi.CmdStatCmdTimeout
		pkg.LogDebug(pkg.ComponentHAL, "command timeout", "opcode", op)
		return
	}

	c.cmdStat |= sdi.CmdStatCmdSent
	if c.cmdCon&sdi.CmdConWaitRsp != 0 {
		rsp := c.card.Respond(op, c.cmdArg)
		if c.cmdCon&sdi.CmdConLongRsp != 0 {
			c.rsp = rsp
		} else {
			c.rsp = [4]uint32{rsp[0]}
		}
		c.cmdStat |= sdi.CmdStatRspFin
		if c.takeFault(FaultCmdCRC) {
			c.cmdStat |= sdi.CmdStatCRCFail
		}
	}
	c.startDataLocked()
}

// startDataLocked begins the data phase configured in DCON, if any.
func (c *Controller) startDataLocked() {
	mode := c.dcon & sdi.DConXferMask
	if mode != sdi.DConXferRxStart && mode != sdi.DConXferTxStart {
		return
	}
	size := int(c.bsize)
	c.xferBase = int(c.cmdArg) * size
	c.xferLen = int(c.dcon&sdi.DConBlkNumMask) * size
	c.xferOff = 0
	c.txFailed = false

	if c.takeFault(FaultDataTimeout) {
		c.dsta |= sdi.DStaDataTimeout
		return
	}

	if mode == sdi.DConXferRxStart {
		c.rxBuf = make([]byte, c.xferLen)
		if err := c.card.ReadAt(c.rxBuf, c.xferBase); err != nil {
			pkg.LogDebug(pkg.ComponentHAL, "read out of range", "error", err)
			c.dsta |= sdi.DStaDataTimeout
			return
		}
		c.xfer = xferRead
	} else {
		if c.xferBase+c.xferLen > c.card.Blocks()*DefaultBlockSize {
			c.dsta |= sdi.DStaDataTimeout
			return
		}
		c.txFailed = c.card.ReadOnly()
		c.xfer = xferWrite
	}
	pkg.LogDebug(pkg.ComponentHAL, "data phase started",
		"read", c.xfer == xferRead,
		"offset", c.xferBase,
		"length", c.xferLen)
}

func (c *Controller) stopDataLocked() {
	if c.xfer != xferIdle {
		pkg.LogDebug(pkg.ComponentHAL, "data phase stopped", "moved", c.xferOff, "length", c.xferLen)
	}
	c.xfer = xferIdle
	c.rxBuf = nil
}

// fifoFailLocked raises the FIFO failure when the armed byte count is
// reached.
func (c *Controller) fifoFailLocked() bool {
	after, ok := c.faults[FaultFIFO]
	if !ok || c.xferOff < after {
		return false
	}
	delete(c.faults, FaultFIFO)
	if c.variant.FIFOFailReg == sdi.FSTA {
		c.fstaErr |= 1 << 14
	} else {
		c.dsta |= c.variant.FIFOFailMask
	}
	c.stopDataLocked()
	c.gen++
	return true
}

func (c *Controller) finishDataLocked() {
	read := c.xfer == xferRead
	c.stopDataLocked()
	c.gen++
	switch {
	case read && c.takeFault(FaultDataCRC):
		c.dsta |= sdi.DStaCRCFail
	case !read && (c.txFailed || c.takeFault(FaultDataCRC)):
		c.dsta |= sdi.DStaRxCRCFail
	default:
		c.dsta |= sdi.DStaXferFinish
	}
}

// stepLocked moves as much data as the FIFO and DMA queue allow.
func (c *Controller) stepLocked() []dmaCompletion {
	var done []dmaCompletion
	dmaEn := c.dcon&sdi.DConDMAEn != 0
	for progress := true; progress; {
		progress = false
		var moved bool
		switch c.xfer {
		case xferRead:
			for len(c.fifo) < fifoWords && c.xferOff < c.xferLen {
				if c.fifoFailLocked() {
					return done
				}
				c.fifo = append(c.fifo, binary.LittleEndian.Uint32(c.rxBuf[c.xferOff:]))
				c.xferOff += 4
				progress = true
			}
			if dmaEn {
				done, moved = c.dma.drainLocked(done)
				progress = progress || moved
			}
			if c.xfer == xferRead && c.xferOff == c.xferLen && len(c.fifo) == 0 {
				c.finishDataLocked()
			}
		case xferWrite:
			if dmaEn {
				done, moved = c.dma.fillLocked(done)
				progress = progress || moved
			}
			for len(c.fifo) > 0 && c.xferOff < c.xferLen {
				if c.fifoFailLocked() {
					return done
				}
				var w [4]byte
				binary.LittleEndian.PutUint32(w[:], c.fifo[0])
				c.fifo = c.fifo[1:]
				if !c.txFailed {
					if err := c.card.WriteAt(w[:], c.xferBase+c.xferOff); err != nil {
						c.txFailed = true
					}
				}
				c.xferOff += 4
				progress = true
			}
			if c.xfer == xferWrite && c.xferOff == c.xferLen {
				c.finishDataLocked()
			}
		}
		if progress {
			c.gen++
		}
	}
	return done
}

func (c *Controller) poke() {
	select {
	case c.kick <- struct{}{}:
	default:
	}
}

func (c *Controller) run() {
	defer c.wg.Done()
	for {
		select {
		case <-c.ctx.Done():
			return
		case <-c.kick:
		}
		c.service()
	}
}

// service runs one simulation step, delivers DMA completions and then
// raises the interrupt if a new condition is pending.
func (c *Controller) service() {
	c.mu.Lock()
	done := c.stepLocked()
	c.mu.Unlock()

	for _, d := range done {
		if d.fn != nil {
			d.fn(d.size, d.result)
		}
	}

	c.mu.Lock()
	pending := c.pendingLocked()
	fire := pending != 0 && (pending != c.lastPending || c.gen != c.lastGen)
	c.lastPending = pending
	c.lastGen = c.gen
	handler := c.irq
	c.mu.Unlock()

	if fire && handler != nil {
		handler()
	}
	if len(done) > 0 || fire {
		c.poke()
	}
}
