// Package sdi describes the register block of the Samsung S3C24xx SD/MMC
// interface (SDI).
//
// Register offsets and bit layouts shared by every chip in the family are
// plain constants. The places where the S3C2410 and S3C2440 differ (data and
// interrupt-mask offsets, clock divider, FIFO failure reporting, FIFO reset,
// timeout counter width, data-size bits) are captured once in a [Variant]
// table so that callers never branch on the chip name:
//
//	v := sdi.S3C2440
//	bus.Write32(v.IMSK, 0)
//	v.ResetFIFO(bus)
package sdi
