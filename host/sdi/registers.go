package sdi

// Register offsets common to every variant.
const (
	CON     uint32 = 0x00 // Control
	PRE     uint32 = 0x04 // Baud rate prescaler
	CMDARG  uint32 = 0x08 // Command argument
	CMDCON  uint32 = 0x0C // Command control
	CMDSTAT uint32 = 0x10 // Command status
	RSP0    uint32 = 0x14 // Response word 0
	RSP1    uint32 = 0x18 // Response word 1
	RSP2    uint32 = 0x1C // Response word 2
	RSP3    uint32 = 0x20 // Response word 3
	TIMER   uint32 = 0x24 // Data/busy timeout
	BSIZE   uint32 = 0x28 // Block size
	DCON    uint32 = 0x2C // Data control
	DCNT    uint32 = 0x30 // Data remain counter
	DSTA    uint32 = 0x34 // Data status
	FSTA    uint32 = 0x38 // FIFO status
)

// Variant-specific offsets. Use [Variant.DATA] and [Variant.IMSK].
const (
	DATA2410 uint32 = 0x3C
	IMSK2410 uint32 = 0x40
	DATA2440 uint32 = 0x40
	IMSK2440 uint32 = 0x3C
)

// CON bits.
const (
	ConSDReset   uint32 = 1 << 8 // 2440 only
	ConFIFOReset uint32 = 1 << 1 // 2410 only
	ConClockType uint32 = 1 << 0 // Clock enable
)

// CMDCON bits.
const (
	CmdConLongRsp    uint32 = 1 << 10
	CmdConWaitRsp    uint32 = 1 << 9
	CmdConCmdStart   uint32 = 1 << 8
	CmdConSenderHost uint32 = 1 << 6
	CmdConIndexMask  uint32 = 0x3f
)

// CMDSTAT bits.
const (
	CmdStatCRCFail    uint32 = 1 << 12
	CmdStatCmdSent    uint32 = 1 << 11
	CmdStatCmdTimeout uint32 = 1 << 10
	CmdStatRspFin     uint32 = 1 << 9
	CmdStatCmdOn      uint32 = 1 << 8
)

// DCON bits.
const (
	DConDSWord       uint32 = 2 << 22 // 2440 only: word data size
	DConTxAfterResp  uint32 = 1 << 20
	DConRxAfterCmd   uint32 = 1 << 19
	DConBlockMode    uint32 = 1 << 17
	DConWideBus      uint32 = 1 << 16
	DConDMAEn        uint32 = 1 << 15
	DConStop         uint32 = 1 << 14 // 2410 only
	DConDatStart     uint32 = 1 << 14 // 2440 only
	DConXferMask     uint32 = 3 << 12
	DConXferTxStart  uint32 = 3 << 12
	DConXferRxStart  uint32 = 2 << 12
	DConXferBusyOnly uint32 = 1 << 12
	DConBlkNumMask   uint32 = 0xFFF
)

// DSTA bits.
const (
	DStaFIFOFail    uint32 = 1 << 8 // 2410 only
	DStaCRCFail     uint32 = 1 << 7
	DStaRxCRCFail   uint32 = 1 << 6
	DStaDataTimeout uint32 = 1 << 5
	DStaXferFinish  uint32 = 1 << 4
	DStaTxDataOn    uint32 = 1 << 1
	DStaRxDataOn    uint32 = 1 << 0
)

// FSTA bits.
const (
	FStaFIFOReset uint32 = 1 << 16 // 2440 only
	FStaFIFOFail  uint32 = 3 << 14 // 2440 only
	FStaTFDet     uint32 = 1 << 13
	FStaRFDet     uint32 = 1 << 12
	FStaTFHalf    uint32 = 1 << 11
	FStaTFEmpty   uint32 = 1 << 10
	FStaRFLast    uint32 = 1 << 9
	FStaRFFull    uint32 = 1 << 8
	FStaRFHalf    uint32 = 1 << 7
	FStaCountMask uint32 = 0x7f
)

// IMSK bits.
const (
	IMskResponseCRC uint32 = 1 << 17
	IMskCmdSent     uint32 = 1 << 16
	IMskCmdTimeout  uint32 = 1 << 15
	IMskResponseEnd uint32 = 1 << 14
	IMskReadWait    uint32 = 1 << 13
	IMskSDIOIRQ     uint32 = 1 << 12
	IMskFIFOFail    uint32 = 1 << 11
	IMskCRCStatus   uint32 = 1 << 10
	IMskDataCRC     uint32 = 1 << 9
	IMskDataTimeout uint32 = 1 << 8
	IMskDataFinish  uint32 = 1 << 7
	IMskBusyFinish  uint32 = 1 << 6
	IMskTxFIFOHalf  uint32 = 1 << 4
	IMskTxFIFOEmpty uint32 = 1 << 3
	IMskRxFIFOLast  uint32 = 1 << 2
	IMskRxFIFOFull  uint32 = 1 << 1
	IMskRxFIFOHalf  uint32 = 1 << 0
)

// Interrupt mask groups armed by the engine.
const (
	IMskCommand = IMskCRCStatus | IMskCmdTimeout | IMskResponseEnd |
		IMskCmdSent | IMskResponseCRC
	IMskData = IMskFIFOFail | IMskDataCRC | IMskDataTimeout | IMskDataFinish
	IMskRx   = IMskRxFIFOHalf | IMskRxFIFOLast
	IMskTx   = IMskTxFIFOHalf
)

// FIFODepth is the size of the data FIFO in bytes.
const FIFODepth = 64

// FIFOFill returns the number of whole words waiting in the receive FIFO.
func FIFOFill(fsta uint32) uint32 {
	return (fsta & FStaCountMask) >> 2
}

// FIFOFree returns the number of whole words that can be pushed into the
// transmit FIFO.
func FIFOFree(fsta uint32) uint32 {
	count := fsta & FStaCountMask
	if count > 63 {
		return 0
	}
	return (63 - count) >> 2
}

// Accessor is the register access used by variant helpers.
type Accessor interface {
	Read32(off uint32) uint32
	Write32(off, v uint32)
}
