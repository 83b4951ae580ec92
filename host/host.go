package host

import (
	"context"
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"

	"github.com/ardnew/softmci/host/hal"
	"github.com/ardnew/softmci/host/sdi"
	"github.com/ardnew/softmci/mmc"
	"github.com/ardnew/softmci/pkg"
	"github.com/ardnew/softmci/trace"
)

// Defaults applied by New.
const (
	DefaultName        = "sdi0"
	DefaultClockRate   = 50 * physic.MegaHertz
	DefaultDetectDelay = 500 * time.Millisecond

	// MaxBusClock is the fastest card clock the SDI block supports.
	MaxBusClock = 25 * physic.MegaHertz
)

// Controller limits.
const (
	MaxBlockCount = mmc.MaxBlocks
	MaxBlockSize  = 4095
	MaxReqSize    = 4095 * 512
	MaxSegments   = 128
)

// Config selects the controller variant and its board wiring.
type Config struct {
	// Name identifies the controller in logs and traces.
	Name string

	// Variant is the chip variant. Defaults to sdi.S3C2410.
	Variant *sdi.Variant

	// UseDMA moves data through DMA instead of PIO. Requires DMA.
	UseDMA bool
	DMA    hal.DMA

	// ClockRate is the peripheral clock feeding the SDI block.
	ClockRate physic.Frequency

	// Detect is the card-detect line (active low). WriteProtect reads
	// high when the card is write protected. Either may be nil.
	Detect       gpio.PinIn
	WriteProtect gpio.PinIn

	// Power switches card supply. May be nil.
	Power hal.Power

	// DetectDelay debounces card-detect interrupts before OnCardChange
	// is called.
	DetectDelay time.Duration

	// OnCardChange is called after a debounced card-detect change.
	OnCardChange func(present bool)
}

// Stats are engine counters.
type Stats struct {
	Requests   uint64 // Requests completed
	Errors     uint64 // Requests completed with an error
	Commands   uint64 // Commands issued, including stop commands
	DataPhases uint64 // Data phases set up
	PIOWords   uint64 // Words moved by PIO
	Status     string // Classification of the last interrupt
}

// Limits describe what the controller accepts.
type Limits struct {
	FMin          physic.Frequency
	FMax          physic.Frequency
	MaxBlockCount int
	MaxBlockSize  int
	MaxReqSize    int
	MaxSegments   int
}

// target is the hardware event that ends the current request.
type target uint8

const (
	targetNone target = iota
	targetFinalize
	targetCmdSent
	targetRspFin
	targetXferFinish
	targetXferFinishRspFin
)

// String returns the target name.
func (t target) String() string {
	switch t {
	case targetNone:
		return "none"
	case targetFinalize:
		return "finalize"
	case targetCmdSent:
		return "cmdsent"
	case targetRspFin:
		return "rspfin"
	case targetXferFinish:
		return "xferfinish"
	case targetXferFinishRspFin:
		return "xferfinish+rspfin"
	default:
		return "unknown"
	}
}

type xferDir uint8

const (
	xferNone xferDir = iota
	xferRead
	xferWrite
)

// String returns the direction name.
func (d xferDir) String() string {
	switch d {
	case xferRead:
		return "read"
	case xferWrite:
		return "write"
	default:
		return "none"
	}
}

// Host is the transfer engine for one SDI controller.
type Host struct {
	bus     hal.Bus
	dma     hal.DMA
	variant *sdi.Variant
	cfg     Config
	useDMA  bool

	mu        sync.Mutex
	mrq       *mmc.Request
	cmdIsStop bool
	target    target

	// PIO transfer context
	pioActive xferDir
	pioSgPtr  int
	pioWords  uint32
	pioBuf    []byte
	pioCount  uint32

	// DMA transfer context
	dmaToGo     int
	dmaComplete bool
	dmaDir      hal.DMADirection

	prescaler uint32
	busWidth  mmc.BusWidth
	realRate  physic.Frequency

	status string
	stats  Stats

	tracer   trace.Tracer
	reqTask  trace.Task
	stopTask trace.Task

	detectTimer *time.Timer

	tasks   chan struct{}
	running bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// finished carries a completed request out of the critical section.
type finished struct {
	req    *mmc.Request
	tracer trace.Tracer
	task   trace.Task
	stop   trace.Task
}

// New creates a transfer engine over bus.
func New(bus hal.Bus, cfg Config) (*Host, error) {
	if bus == nil {
		return nil, fmt.Errorf("%w: nil bus", pkg.ErrInvalidParameter)
	}
	if cfg.UseDMA && cfg.DMA == nil {
		return nil, fmt.Errorf("%w: DMA requested without a channel", pkg.ErrInvalidParameter)
	}
	if cfg.Name == "" {
		cfg.Name = DefaultName
	}
	if cfg.Variant == nil {
		cfg.Variant = sdi.S3C2410
	}
	if cfg.ClockRate <= 0 {
		cfg.ClockRate = DefaultClockRate
	}
	if cfg.DetectDelay <= 0 {
		cfg.DetectDelay = DefaultDetectDelay
	}
	return &Host{
		bus:     bus,
		dma:     cfg.DMA,
		variant: cfg.Variant,
		cfg:     cfg,
		useDMA:  cfg.UseDMA,
		tasks:   make(chan struct{}, 1),
	}, nil
}

// Start launches the worker that runs PIO steps and finalization.
func (h *Host) Start(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.running {
		return pkg.ErrAlreadyRunning
	}

	h.ctx, h.cancel = context.WithCancel(ctx)
	if h.dma != nil {
		h.dma.SetDoneFunc(h.dmaDone)
	}
	h.dmaDir = hal.DMANone
	h.target = targetNone
	h.clearIMask()
	h.running = true

	h.wg.Add(1)
	go h.worker()

	pkg.LogInfo(pkg.ComponentHost, "host started",
		"name", h.cfg.Name,
		"variant", h.variant.Name,
		"dma", h.useDMA)
	return nil
}

// Stop halts the worker. A request still in flight completes with
// pkg.ErrNotRunning. Stop waits for the worker to exit and therefore must
// not be called from a completion callback; use go h.Stop() there.
func (h *Host) Stop() error {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return nil
	}
	h.running = false
	h.cancel()
	if h.detectTimer != nil {
		h.detectTimer.Stop()
	}
	var f *finished
	if h.mrq != nil {
		pkg.LogWarn(pkg.ComponentHost, "request abandoned", "cmd", h.mrq.Cmd.String())
		h.clearIMask()
		if cmd := h.currentCmd(); cmd.Error == nil {
			cmd.Error = fmt.Errorf("%w: host stopped", pkg.ErrNotRunning)
		}
		if h.mrq.Data != nil && h.mrq.Data.Error == nil {
			h.mrq.Data.Error = fmt.Errorf("%w: host stopped", pkg.ErrNotRunning)
		}
		f = h.doneLocked()
	}
	h.mu.Unlock()

	h.wg.Wait()
	if h.dma != nil {
		if err := h.dma.Flush(); err != nil {
			pkg.LogWarn(pkg.ComponentDMA, "flush on stop failed", "error", err)
		}
	}
	h.finish(f)

	pkg.LogInfo(pkg.ComponentHost, "host stopped", "name", h.cfg.Name)
	return nil
}

// IsRunning returns true if the worker is running.
func (h *Host) IsRunning() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.running
}

// Variant returns the controller variant.
func (h *Host) Variant() *sdi.Variant {
	return h.variant
}

// Limits returns the clock range and transfer limits of the controller.
// FMax is capped at MaxBusClock.
func (h *Host) Limits() Limits {
	div := physic.Frequency(h.variant.ClockDiv)
	fmax := min(h.cfg.ClockRate/div, MaxBusClock)
	return Limits{
		FMin:          h.cfg.ClockRate / (div * 256),
		FMax:          fmax,
		MaxBlockCount: MaxBlockCount,
		MaxBlockSize:  MaxBlockSize,
		MaxReqSize:    MaxReqSize,
		MaxSegments:   MaxSegments,
	}
}

// SetTracer installs a request tracer. Pass nil to disable tracing.
func (h *Host) SetTracer(t trace.Tracer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.tracer = t
}

// Stats returns a copy of the engine counters.
func (h *Host) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	s := h.stats
	s.Status = h.status
	return s
}

// Registers captures every SDI register.
func (h *Host) Registers() sdi.Snapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return sdi.Capture(h.bus, h.variant)
}

// Busy reports whether a request is in flight.
func (h *Host) Busy() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.mrq != nil
}

func (h *Host) worker() {
	defer h.wg.Done()
	for {
		select {
		case <-h.ctx.Done():
			return
		case <-h.tasks:
			h.runTask()
		}
	}
}

// schedule queues one run of the deferred task. Requests made while a run
// is already queued are merged.
func (h *Host) schedule() {
	select {
	case h.tasks <- struct{}{}:
	default:
	}
}

func (h *Host) currentCmd() *mmc.Command {
	if h.mrq == nil {
		return nil
	}
	if h.cmdIsStop {
		return h.mrq.Stop
	}
	return h.mrq.Cmd
}

func (h *Host) enableIMask(mask uint32) uint32 {
	v := h.bus.Read32(h.variant.IMSK) | mask
	h.bus.Write32(h.variant.IMSK, v)
	return v
}

func (h *Host) disableIMask(mask uint32) uint32 {
	v := h.bus.Read32(h.variant.IMSK) &^ mask
	h.bus.Write32(h.variant.IMSK, v)
	return v
}

func (h *Host) clearIMask() {
	h.bus.Write32(h.variant.IMSK, 0)
}

// doneLocked clears the in-flight state and returns the request for
// completion outside the lock.
func (h *Host) doneLocked() *finished {
	mrq := h.mrq
	h.target = targetNone
	h.mrq = nil
	h.cmdIsStop = false
	h.pioActive = xferNone

	h.stats.Requests++
	if mrq.Err() != nil {
		h.stats.Errors++
	}

	f := &finished{req: mrq, tracer: h.tracer, task: h.reqTask, stop: h.stopTask}
	h.reqTask, h.stopTask = trace.Task{}, trace.Task{}
	return f
}

// finish reports a completed request. It must be called without the lock.
func (h *Host) finish(f *finished) {
	if f == nil {
		return
	}
	req := f.req
	err := req.Err()

	if f.tracer != nil {
		if f.stop.ID != "" {
			f.stop.Error = errString(req.Stop.Error)
			f.tracer.EndTask(f.stop)
		}
		if f.task.ID != "" {
			if req.Data != nil {
				f.task.Bytes = req.Data.BytesXfered
			}
			f.task.Error = errString(err)
			f.tracer.EndTask(f.task)
		}
	}

	if err != nil {
		pkg.LogWarn(pkg.ComponentHost, "request failed",
			"cmd", req.Cmd.String(),
			"status", pkg.StatusOf(err).String(),
			"error", err)
	} else {
		pkg.LogDebug(pkg.ComponentHost, "request done", "cmd", req.Cmd.String())
	}

	if req.Done != nil {
		req.Done(req)
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
