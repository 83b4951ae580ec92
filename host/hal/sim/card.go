package sim

import (
	"fmt"
	"sync"

	"github.com/ardnew/softmci/mmc"
	"github.com/ardnew/softmci/pkg"
)

// Card status bits returned in R1 responses.
const (
	StatusReadyForData uint32 = 1 << 8
	StatusStateTran    uint32 = 4 << 9
	StatusAppCmd       uint32 = 1 << 5
)

// Default card identity.
const (
	DefaultBlockSize = 512
	DefaultRCA       = 0x1234
	DefaultOCR       = 0x00ff8000
	ocrBusy          = 1 << 31
)

// Card is a simulated SD card backed by memory. Block addresses are block
// indices, as for high-capacity cards.
type Card struct {
	mu        sync.Mutex
	data      []byte
	blockSize int
	present   bool
	readOnly  bool
	rca       uint16
	ocr       uint32
	cid       [4]uint32
	csd       [4]uint32
	appCmd    bool
}

// NewCard returns an inserted, writable card holding blocks blocks of
// DefaultBlockSize bytes.
func NewCard(blocks int) *Card {
	return &Card{
		data:      make([]byte, blocks*DefaultBlockSize),
		blockSize: DefaultBlockSize,
		present:   true,
		rca:       DefaultRCA,
		ocr:       DefaultOCR,
		cid:       [4]uint32{0x1d414453, 0x434d4349, 0x10000000, 0x0100f601},
		csd:       [4]uint32{0x400e0032, 0x5b590000, 0x1d7f7f80, 0x0a400001},
	}
}

// Blocks returns the card capacity in blocks.
func (c *Card) Blocks() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.data) / c.blockSize
}

// SetPresent inserts or removes the card.
func (c *Card) SetPresent(present bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.present = present
}

// Present reports whether the card is inserted.
func (c *Card) Present() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.present
}

// SetReadOnly sets the write-protect switch.
func (c *Card) SetReadOnly(ro bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.readOnly = ro
}

// ReadOnly reports the write-protect switch.
func (c *Card) ReadOnly() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.readOnly
}

// ReadAt copies card contents at byte offset off into p.
func (c *Card) ReadAt(p []byte, off int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if off < 0 || off+len(p) > len(c.data) {
		return fmt.Errorf("%w: read %d bytes at %d beyond card end", pkg.ErrInvalidParameter, len(p), off)
	}
	copy(p, c.data[off:])
	return nil
}

// WriteAt stores p at byte offset off.
func (c *Card) WriteAt(p []byte, off int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if off < 0 || off+len(p) > len(c.data) {
		return fmt.Errorf("%w: write %d bytes at %d beyond card end", pkg.ErrInvalidParameter, len(p), off)
	}
	copy(c.data[off:], p)
	return nil
}

// Respond returns the response words for a command. Long responses fill all
// four words; short responses use the first.
func (c *Card) Respond(op uint8, arg uint32) [4]uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()

	app := c.appCmd
	c.appCmd = false

	status := StatusReadyForData | StatusStateTran
	switch {
	case app && op == mmc.AppCmdSDSendOpCond:
		return [4]uint32{c.ocr | ocrBusy}
	case op == mmc.CmdSendOpCond:
		return [4]uint32{c.ocr | ocrBusy}
	case op == mmc.CmdAllSendCID:
		return c.cid
	case op == mmc.CmdSendCSD:
		return c.csd
	case op == mmc.CmdSendRelativeAddr:
		return [4]uint32{uint32(c.rca) << 16}
	case op == mmc.CmdSendIfCond:
		return [4]uint32{arg & 0xfff}
	case op == mmc.CmdAppCmd:
		c.appCmd = true
		return [4]uint32{status | StatusAppCmd}
	}
	return [4]uint32{status}
}
