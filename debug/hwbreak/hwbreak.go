package hwbreak

import (
	"errors"
	"fmt"

	"github.com/ardnew/softmci/pkg"
)

// NumSlots is the number of debug address registers (DR0..DR3).
const NumSlots = 4

// Table errors.
var (
	// ErrNoSlot indicates every slot already holds a breakpoint.
	ErrNoSlot = errors.New("no free breakpoint slot")

	// ErrInvalidLength indicates a watchpoint length other than 1, 2 or 4.
	ErrInvalidLength = errors.New("invalid watchpoint length")

	// ErrNotFound indicates no enabled breakpoint matches the address.
	ErrNotFound = errors.New("breakpoint not found")
)

// Kind selects what a slot traps on.
type Kind int

// Breakpoint kinds.
const (
	Exec   Kind = iota // Instruction execution
	Write              // Data write
	Access             // Data read or write
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case Exec:
		return "exec"
	case Write:
		return "write"
	case Access:
		return "access"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// DR7 R/W field encodings.
const (
	TypeExec   uint8 = 0
	TypeWrite  uint8 = 1
	TypeAccess uint8 = 3
)

// Slot is one debug address register and its DR7 field.
type Slot struct {
	Enabled bool
	Addr    uint64
	Type    uint8 // R/W field
	Len     uint8 // LEN field (length-1 for watchpoints)
}

// Table is a fixed set of breakpoint slots. The zero value is empty.
type Table struct {
	slots [NumSlots]Slot
}

// Set places a breakpoint in the first free slot and returns its index.
// Exec breakpoints ignore length.
func (t *Table) Set(addr uint64, length int, kind Kind) (int, error) {
	idx := -1
	for i := range t.slots {
		if !t.slots[i].Enabled {
			idx = i
			break
		}
	}
	if idx < 0 {
		return -1, ErrNoSlot
	}

	var s Slot
	switch kind {
	case Exec:
		s.Type, s.Len = TypeExec, 0
	case Write, Access:
		if length != 1 && length != 2 && length != 4 {
			return -1, fmt.Errorf("%w: %d", ErrInvalidLength, length)
		}
		s.Type = TypeWrite
		if kind == Access {
			s.Type = TypeAccess
		}
		s.Len = uint8(length - 1)
	default:
		return -1, fmt.Errorf("%w: kind %v", pkg.ErrInvalidParameter, kind)
	}
	s.Enabled = true
	s.Addr = addr
	t.slots[idx] = s

	pkg.LogDebug(pkg.ComponentDebug, "breakpoint set",
		"slot", idx, "addr", fmt.Sprintf("%#x", addr), "kind", kind, "len", length)
	return idx, nil
}

// Remove disables the first enabled slot at addr.
func (t *Table) Remove(addr uint64) error {
	for i := range t.slots {
		if t.slots[i].Enabled && t.slots[i].Addr == addr {
			t.slots[i].Enabled = false
			pkg.LogDebug(pkg.ComponentDebug, "breakpoint removed", "slot", i)
			return nil
		}
	}
	return fmt.Errorf("%w: %#x", ErrNotFound, addr)
}

// RemoveAll clears every slot.
func (t *Table) RemoveAll() {
	t.slots = [NumSlots]Slot{}
}

// Slots returns a copy of the table.
func (t *Table) Slots() [NumSlots]Slot {
	return t.slots
}

// CorrectDR7 reconciles dr7 with the table. A slot that is enabled but not
// armed in dr7 gets its local-enable bit and LEN/RW field written; an armed
// slot that is no longer enabled is cleared. The returned flag reports
// whether the register needs writing back. Callers load DRn from
// [Table.Slots] for every slot armed here.
func (t *Table) CorrectDR7(dr7 uint64) (uint64, bool) {
	changed := false
	for n := range t.slots {
		s := t.slots[n]
		enable := uint64(2) << (n << 1)
		field := uint64(0xf0000) << (n << 2)
		switch {
		case dr7&enable == 0 && s.Enabled:
			changed = true
			dr7 |= enable
			dr7 &^= field
			dr7 |= (uint64(s.Len)<<2 | uint64(s.Type)) << 16 << (n << 2)
			pkg.LogDebug(pkg.ComponentDebug, "arm slot",
				"slot", n, "addr", fmt.Sprintf("%#x", s.Addr))
		case dr7&enable != 0 && !s.Enabled:
			changed = true
			dr7 &^= enable
			dr7 &^= field
		}
	}
	return dr7, changed
}

// ResumeFlag reports whether a debug exception described by dr6 was raised
// by an execution breakpoint, in which case RF must be set before resuming
// so the instruction does not trap again. Single-step traps (BS) never
// need it.
func (t *Table) ResumeFlag(dr6 uint64) bool {
	if dr6&dr6SingleStep != 0 {
		return false
	}
	for n := range t.slots {
		if dr6&(1<<n) != 0 && t.slots[n].Type == TypeExec {
			return true
		}
	}
	return false
}

const dr6SingleStep = 0x4000
