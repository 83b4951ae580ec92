package mmc

import "periph.io/x/conn/v3/physic"

// PowerMode is the requested card power state.
type PowerMode uint8

// Power modes.
const (
	PowerOff PowerMode = iota
	PowerUp
	PowerOn
)

// String returns the power mode name.
func (p PowerMode) String() string {
	switch p {
	case PowerOff:
		return "off"
	case PowerUp:
		return "up"
	case PowerOn:
		return "on"
	default:
		return "unknown"
	}
}

// BusWidth is the number of data lines in use.
type BusWidth uint8

// Bus widths.
const (
	BusWidth1 BusWidth = 0
	BusWidth4 BusWidth = 2
)

// IOS is a bus configuration request from the card layer.
type IOS struct {
	Clock     physic.Frequency
	PowerMode PowerMode
	VDD       uint16
	BusWidth  BusWidth
}
