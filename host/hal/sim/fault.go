package sim

// Fault is an error condition the simulator can raise.
type Fault uint8

// Injectable faults. Each fault fires once and is then cleared.
const (
	FaultCmdTimeout  Fault = iota + 1 // Next command times out
	FaultCmdCRC                       // Next response fails its CRC
	FaultDataTimeout                  // Next data phase times out before any data moves
	FaultDataCRC                      // Next data phase ends with a CRC failure
	FaultFIFO                         // FIFO fails once the given number of bytes moved
	FaultDMA                          // Next DMA buffer completes with an error
)

// String returns the fault name.
func (f Fault) String() string {
	switch f {
	case FaultCmdTimeout:
		return "cmd-timeout"
	case FaultCmdCRC:
		return "cmd-crc"
	case FaultDataTimeout:
		return "data-timeout"
	case FaultDataCRC:
		return "data-crc"
	case FaultFIFO:
		return "fifo"
	case FaultDMA:
		return "dma"
	default:
		return "none"
	}
}

// ParseFault returns the fault with the given name.
func ParseFault(name string) (Fault, bool) {
	for f := FaultCmdTimeout; f <= FaultDMA; f++ {
		if f.String() == name {
			return f, true
		}
	}
	return 0, false
}
