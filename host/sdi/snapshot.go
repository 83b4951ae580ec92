package sdi

import (
	"fmt"
	"strings"
)

// Snapshot is a copy of every SDI register.
type Snapshot struct {
	Con     uint32
	Pre     uint32
	CmdArg  uint32
	CmdCon  uint32
	CmdStat uint32
	Rsp     [4]uint32
	Timer   uint32
	BSize   uint32
	DCon    uint32
	DCnt    uint32
	DSta    uint32
	FSta    uint32
	IMsk    uint32
}

// Capture reads every register except DATA, which would pop the FIFO.
func Capture(a Accessor, v *Variant) Snapshot {
	return Snapshot{
		Con:     a.Read32(CON),
		Pre:     a.Read32(PRE),
		CmdArg:  a.Read32(CMDARG),
		CmdCon:  a.Read32(CMDCON),
		CmdStat: a.Read32(CMDSTAT),
		Rsp: [4]uint32{
			a.Read32(RSP0), a.Read32(RSP1), a.Read32(RSP2), a.Read32(RSP3),
		},
		Timer: a.Read32(TIMER),
		BSize: a.Read32(BSIZE),
		DCon:  a.Read32(DCON),
		DCnt:  a.Read32(DCNT),
		DSta:  a.Read32(DSTA),
		FSta:  a.Read32(FSTA),
		IMsk:  a.Read32(v.IMSK),
	}
}

// String formats the snapshot one register per line.
func (s Snapshot) String() string {
	var b strings.Builder
	row := func(name string, v uint32) {
		fmt.Fprintf(&b, "%-8s 0x%08x\n", name, v)
	}
	row("CON", s.Con)
	row("PRE", s.Pre)
	row("CMDARG", s.CmdArg)
	row("CMDCON", s.CmdCon)
	row("CMDSTAT", s.CmdStat)
	for i, r := range s.Rsp {
		row(fmt.Sprintf("RSP%d", i), r)
	}
	row("TIMER", s.Timer)
	row("BSIZE", s.BSize)
	row("DCON", s.DCon)
	row("DCNT", s.DCnt)
	row("DSTA", s.DSta)
	row("FSTA", s.FSta)
	row("IMSK", s.IMsk)
	return b.String()
}
