package pkg

import "errors"

// Transfer errors recorded on a command or its data phase.
var (
	// ErrTimeout indicates a command or data timeout reported by the controller.
	ErrTimeout = errors.New("timeout")

	// ErrBadCRC indicates a response or data CRC failure.
	ErrBadCRC = errors.New("bad CRC")

	// ErrFIFO indicates a FIFO failure (overrun or underrun).
	ErrFIFO = errors.New("FIFO failure")

	// ErrDMA indicates that the data phase could not be set up or that the
	// DMA channel reported a failed transfer.
	ErrDMA = errors.New("DMA transfer failure")
)

// Submission and lifecycle errors.
var (
	// ErrBusy indicates a request is already in flight on the controller.
	ErrBusy = errors.New("controller busy")

	// ErrInvalidRequest indicates a malformed request.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrInvalidParameter indicates an invalid parameter was provided.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrNotSupported indicates an unsupported operation or feature.
	ErrNotSupported = errors.New("not supported")

	// ErrNoMedia indicates that no card is present in the slot.
	ErrNoMedia = errors.New("no media present")

	// ErrAlreadyRunning indicates the engine is already running.
	ErrAlreadyRunning = errors.New("already running")

	// ErrNotRunning indicates the engine is not running.
	ErrNotRunning = errors.New("not running")

	// ErrQueueFull indicates a bounded queue (such as a DMA channel) is full.
	ErrQueueFull = errors.New("queue full")
)

// Status classifies the outcome of a command or data phase.
type Status int

// Status values.
const (
	StatusOK      Status = iota // Completed without error
	StatusTimeout               // Command or data timeout
	StatusBadCRC                // CRC failure
	StatusFIFO                  // FIFO overrun or underrun
	StatusDMA                   // DMA failure or data phase setup failure
	StatusError                 // Any other error
)

// String returns a string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusTimeout:
		return "timeout"
	case StatusBadCRC:
		return "badcrc"
	case StatusFIFO:
		return "fifo"
	case StatusDMA:
		return "dma"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Error returns the sentinel error corresponding to the status.
func (s Status) Error() error {
	switch s {
	case StatusOK:
		return nil
	case StatusTimeout:
		return ErrTimeout
	case StatusBadCRC:
		return ErrBadCRC
	case StatusFIFO:
		return ErrFIFO
	case StatusDMA:
		return ErrDMA
	default:
		return ErrInvalidRequest
	}
}

// StatusOf classifies err. Wrapped sentinels are recognized with errors.Is.
func StatusOf(err error) Status {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, ErrTimeout):
		return StatusTimeout
	case errors.Is(err, ErrBadCRC):
		return StatusBadCRC
	case errors.Is(err, ErrFIFO):
		return StatusFIFO
	case errors.Is(err, ErrDMA):
		return StatusDMA
	default:
		return StatusError
	}
}
