package mmc

import (
	"fmt"

	"github.com/ardnew/softmci/pkg"
)

// DataFlags describes the direction and mode of a data phase.
type DataFlags uint32

// Data flag bits.
const (
	DataWrite  DataFlags = 1 << 8
	DataRead   DataFlags = 1 << 9
	DataStream DataFlags = 1 << 10
)

// MaxBlocks is the largest block count the controller's 12-bit block
// counter can express.
const MaxBlocks = 0xFFF

// Data describes the data phase of a command.
type Data struct {
	BlockSize int
	Blocks    int
	Flags     DataFlags

	// Segments is the scatter list. Each segment length must be a
	// multiple of 4 and the total must equal Blocks*BlockSize.
	Segments [][]byte

	// BytesXfered is set on completion: Blocks*BlockSize on success,
	// zero when any error was recorded.
	BytesXfered int

	// Error is set by the engine when the data phase fails.
	Error error

	// Stop is the command sent after this data phase. Set by
	// [Request.Prepare].
	Stop *Command
}

// IsRead reports whether the data phase moves data from the card.
func (d *Data) IsRead() bool { return d.Flags&DataRead != 0 }

// IsWrite reports whether the data phase moves data to the card.
func (d *Data) IsWrite() bool { return d.Flags&DataWrite != 0 }

// Len returns the expected transfer length in bytes.
func (d *Data) Len() int { return d.Blocks * d.BlockSize }

// SegmentLen returns the total length of the scatter list.
func (d *Data) SegmentLen() int {
	n := 0
	for _, s := range d.Segments {
		n += len(s)
	}
	return n
}

// Request is one unit of work submitted to the engine.
type Request struct {
	Cmd  *Command
	Data *Data
	Stop *Command

	// Done is called exactly once when the request completes, after the
	// engine has released its lock. It may submit the next request. It
	// often runs on the engine's worker goroutine, so it must not stop the
	// engine synchronously; Host.Stop waits for that goroutine to exit.
	Done func(*Request)
}

// Validate checks that the request is well formed.
func (r *Request) Validate() error {
	if r == nil || r.Cmd == nil {
		return fmt.Errorf("%w: missing command", pkg.ErrInvalidRequest)
	}
	if r.Cmd.Opcode > MaxOpcode {
		return fmt.Errorf("%w: opcode %d out of range", pkg.ErrInvalidRequest, r.Cmd.Opcode)
	}
	d := r.Data
	if d == nil {
		return nil
	}
	if d.IsRead() == d.IsWrite() {
		return fmt.Errorf("%w: data must be exactly one of read or write", pkg.ErrInvalidRequest)
	}
	if d.BlockSize <= 0 || d.Blocks <= 0 {
		return fmt.Errorf("%w: block size %d count %d", pkg.ErrInvalidRequest, d.BlockSize, d.Blocks)
	}
	if d.Blocks > MaxBlocks {
		return fmt.Errorf("%w: %d blocks exceeds limit %d", pkg.ErrInvalidRequest, d.Blocks, MaxBlocks)
	}
	if len(d.Segments) == 0 {
		return fmt.Errorf("%w: empty scatter list", pkg.ErrInvalidRequest)
	}
	for i, s := range d.Segments {
		if len(s) == 0 || len(s)%4 != 0 {
			return fmt.Errorf("%w: segment %d length %d is not a word multiple", pkg.ErrInvalidRequest, i, len(s))
		}
	}
	if n := d.SegmentLen(); n != d.Len() {
		return fmt.Errorf("%w: scatter list holds %d bytes, want %d", pkg.ErrInvalidRequest, n, d.Len())
	}
	return nil
}

// Prepare links the command to its data phase and the data phase to the
// stop command, and clears results left over from a previous submission.
func (r *Request) Prepare() {
	r.Cmd.Data = r.Data
	r.Cmd.Error = nil
	r.Cmd.Resp = [4]uint32{}
	if r.Data != nil {
		r.Data.Stop = r.Stop
		r.Data.Error = nil
		r.Data.BytesXfered = 0
	}
	if r.Stop != nil {
		r.Stop.Data = nil
		r.Stop.Error = nil
		r.Stop.Resp = [4]uint32{}
	}
}

// Err returns the first error recorded on the command, the data phase or
// the stop command.
func (r *Request) Err() error {
	switch {
	case r.Cmd != nil && r.Cmd.Error != nil:
		return r.Cmd.Error
	case r.Data != nil && r.Data.Error != nil:
		return r.Data.Error
	case r.Stop != nil && r.Stop.Error != nil:
		return r.Stop.Error
	}
	return nil
}

// ReadBlocks builds a read of len(buf)/blockSize blocks starting at lba.
// Multi-block reads carry a trailing STOP_TRANSMISSION.
func ReadBlocks(lba uint32, blockSize int, buf ...[]byte) *Request {
	return blockRequest(lba, blockSize, DataRead, CmdReadSingleBlock, CmdReadMultipleBlock, buf)
}

// WriteBlocks builds a write of len(buf)/blockSize blocks starting at lba.
// Multi-block writes carry a trailing STOP_TRANSMISSION.
func WriteBlocks(lba uint32, blockSize int, buf ...[]byte) *Request {
	return blockRequest(lba, blockSize, DataWrite, CmdWriteBlock, CmdWriteMultipleBlock, buf)
}

func blockRequest(lba uint32, blockSize int, flags DataFlags, single, multi uint8, segs [][]byte) *Request {
	data := &Data{BlockSize: blockSize, Flags: flags, Segments: segs}
	if blockSize > 0 {
		data.Blocks = data.SegmentLen() / blockSize
	}
	req := &Request{Data: data}
	if data.Blocks > 1 {
		req.Cmd = NewCommand(multi, lba, RspR1)
		req.Stop = StopCommand()
	} else {
		req.Cmd = NewCommand(single, lba, RspR1)
	}
	return req
}
