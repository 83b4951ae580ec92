package mmc

import "fmt"

// RespFlags describes the response a command expects.
type RespFlags uint32

// Response flag bits.
const (
	RspPresent RespFlags = 1 << 0 // Card sends a response
	Rsp136     RespFlags = 1 << 1 // Response is 136 bits long
	RspCRC     RespFlags = 1 << 2 // Response carries a valid CRC
	RspBusy    RespFlags = 1 << 3 // Card may signal busy after the response
	RspOpcode  RespFlags = 1 << 4 // Response echoes the command index
)

// Composite response types.
const (
	RspNone RespFlags = 0
	RspR1             = RspPresent | RspCRC | RspOpcode
	RspR1B            = RspPresent | RspCRC | RspOpcode | RspBusy
	RspR2             = RspPresent | Rsp136 | RspCRC
	RspR3             = RspPresent
	RspR6             = RspPresent | RspCRC | RspOpcode
	RspR7             = RspPresent | RspCRC | RspOpcode
)

// Has reports whether all bits of mask are set.
func (f RespFlags) Has(mask RespFlags) bool {
	return f&mask == mask
}

// Well-known command indices.
const (
	CmdGoIdleState        uint8 = 0
	CmdSendOpCond         uint8 = 1
	CmdAllSendCID         uint8 = 2
	CmdSendRelativeAddr   uint8 = 3
	CmdSelectCard         uint8 = 7
	CmdSendIfCond         uint8 = 8
	CmdSendCSD            uint8 = 9
	CmdStopTransmission   uint8 = 12
	CmdSendStatus         uint8 = 13
	CmdSetBlockLen        uint8 = 16
	CmdReadSingleBlock    uint8 = 17
	CmdReadMultipleBlock  uint8 = 18
	CmdWriteBlock         uint8 = 24
	CmdWriteMultipleBlock uint8 = 25
	CmdAppCmd             uint8 = 55
	AppCmdSDSendOpCond    uint8 = 41
	AppCmdSetBusWidth     uint8 = 6
	MaxOpcode             uint8 = 0x3f
)

var opcodeNames = map[uint8]string{
	CmdGoIdleState:        "GO_IDLE_STATE",
	CmdSendOpCond:         "SEND_OP_COND",
	CmdAllSendCID:         "ALL_SEND_CID",
	CmdSendRelativeAddr:   "SEND_RELATIVE_ADDR",
	CmdSelectCard:         "SELECT_CARD",
	CmdSendIfCond:         "SEND_IF_COND",
	CmdSendCSD:            "SEND_CSD",
	CmdStopTransmission:   "STOP_TRANSMISSION",
	CmdSendStatus:         "SEND_STATUS",
	CmdSetBlockLen:        "SET_BLOCKLEN",
	CmdReadSingleBlock:    "READ_SINGLE_BLOCK",
	CmdReadMultipleBlock:  "READ_MULTIPLE_BLOCK",
	CmdWriteBlock:         "WRITE_BLOCK",
	CmdWriteMultipleBlock: "WRITE_MULTIPLE_BLOCK",
	CmdAppCmd:             "APP_CMD",
	AppCmdSDSendOpCond:    "SD_SEND_OP_COND",
}

// OpcodeName returns the mnemonic for a command index, or "CMD<n>".
func OpcodeName(op uint8) string {
	if name, ok := opcodeNames[op]; ok {
		return name
	}
	return fmt.Sprintf("CMD%d", op)
}

// Command is a single command frame and its response.
type Command struct {
	Opcode  uint8
	Arg     uint32
	Flags   RespFlags
	Resp    [4]uint32
	Retries int

	// Error is set by the engine when the command fails.
	Error error

	// Data is the data phase attached to this command. Set by
	// [Request.Prepare]; nil for the stop command.
	Data *Data
}

// String returns a short description of the command.
func (c *Command) String() string {
	if c == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s(0x%08x)", OpcodeName(c.Opcode), c.Arg)
}

// NewCommand returns a command with the given index, argument and response
// type.
func NewCommand(op uint8, arg uint32, flags RespFlags) *Command {
	return &Command{Opcode: op, Arg: arg, Flags: flags}
}

// StopCommand returns a STOP_TRANSMISSION command.
func StopCommand() *Command {
	return NewCommand(CmdStopTransmission, 0, RspR1B)
}
