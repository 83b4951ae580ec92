package sdi

import (
	"fmt"
	"strings"

	"github.com/ardnew/softmci/pkg"
)

// Variant holds the per-chip differences of the SDI block.
type Variant struct {
	Name string

	IMSK uint32 // Interrupt mask register offset
	DATA uint32 // Data FIFO register offset

	// ClockDiv divides the peripheral clock before the prescaler.
	ClockDiv uint32

	// DataTimer is written to TIMER for every data phase.
	DataTimer uint32

	// SlowReadPrescaler, when non-zero, is written to PRE while a read
	// is set up and restored once PIO draining begins.
	SlowReadPrescaler uint32

	// DConExtra is OR'd into every data phase DCON value.
	DConExtra uint32

	// DConStop is written to DCON when a request is finalized.
	DConStop uint32

	// FIFOFailReg and FIFOFailMask locate the FIFO failure flag.
	FIFOFailReg  uint32
	FIFOFailMask uint32

	// FIFOResetReg and FIFOResetBits describe the FIFO reset. When
	// FIFOResetRMW is set the bits are OR'd into the current value,
	// otherwise they are written directly.
	FIFOResetReg  uint32
	FIFOResetBits uint32
	FIFOResetRMW  bool

	// PowerUpCon and PowerOffCon are OR'd into CON on power changes.
	PowerUpCon  uint32
	PowerOffCon uint32
}

// S3C2410 is the original SDI block.
var S3C2410 = &Variant{
	Name:              "s3c2410",
	IMSK:              IMSK2410,
	DATA:              DATA2410,
	ClockDiv:          2,
	DataTimer:         0x0000FFFF,
	SlowReadPrescaler: 0xFF,
	DConStop:          DConStop,
	FIFOFailReg:       DSTA,
	FIFOFailMask:      DStaFIFOFail,
	FIFOResetReg:      CON,
	FIFOResetBits:     ConFIFOReset,
	FIFOResetRMW:      true,
	PowerUpCon:        ConFIFOReset,
}

// S3C2440 is the revised SDI block with a wider timer and FIFO status
// reporting.
var S3C2440 = &Variant{
	Name:          "s3c2440",
	IMSK:          IMSK2440,
	DATA:          DATA2440,
	ClockDiv:      1,
	DataTimer:     0x007FFFFF,
	DConExtra:     DConDSWord | DConDatStart,
	FIFOFailReg:   FSTA,
	FIFOFailMask:  FStaFIFOFail,
	FIFOResetReg:  FSTA,
	FIFOResetBits: FStaFIFOReset | FStaFIFOFail,
	PowerOffCon:   ConSDReset,
}

// Variants lists the supported variants.
var Variants = []*Variant{S3C2410, S3C2440}

// LookupVariant returns the variant with the given name. Matching ignores
// case and accepts the bare chip number.
func LookupVariant(name string) (*Variant, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for _, v := range Variants {
		if n == v.Name || "s3c"+n == v.Name {
			return v, nil
		}
	}
	return nil, fmt.Errorf("%w: unknown SDI variant %q", pkg.ErrNotSupported, name)
}

// String returns the variant name.
func (v *Variant) String() string {
	return v.Name
}

// FIFOFailed reports whether the FIFO failure flag is set in the given DSTA
// and FSTA values.
func (v *Variant) FIFOFailed(dsta, fsta uint32) bool {
	if v.FIFOFailReg == FSTA {
		return fsta&v.FIFOFailMask != 0
	}
	return dsta&v.FIFOFailMask != 0
}

// ResetFIFO empties the data FIFO and clears any FIFO failure.
func (v *Variant) ResetFIFO(a Accessor) {
	val := v.FIFOResetBits
	if v.FIFOResetRMW {
		val |= a.Read32(v.FIFOResetReg)
	}
	a.Write32(v.FIFOResetReg, val)
}
