package mmc

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardnew/softmci/pkg"
)

func TestRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     *Request
		wantErr bool
	}{
		{
			name: "command only",
			req:  &Request{Cmd: NewCommand(CmdSendStatus, 0x10000, RspR1)},
		},
		{
			name:    "nil command",
			req:     &Request{},
			wantErr: true,
		},
		{
			name: "single block read",
			req:  ReadBlocks(0, 512, make([]byte, 512)),
		},
		{
			name: "scattered write",
			req:  WriteBlocks(8, 512, make([]byte, 256), make([]byte, 768)),
		},
		{
			name: "no direction",
			req: &Request{
				Cmd:  NewCommand(CmdReadSingleBlock, 0, RspR1),
				Data: &Data{BlockSize: 512, Blocks: 1, Segments: [][]byte{make([]byte, 512)}},
			},
			wantErr: true,
		},
		{
			name: "both directions",
			req: &Request{
				Cmd: NewCommand(CmdReadSingleBlock, 0, RspR1),
				Data: &Data{
					BlockSize: 512, Blocks: 1, Flags: DataRead | DataWrite,
					Segments: [][]byte{make([]byte, 512)},
				},
			},
			wantErr: true,
		},
		{
			name: "unaligned segment",
			req: &Request{
				Cmd: NewCommand(CmdReadSingleBlock, 0, RspR1),
				Data: &Data{
					BlockSize: 512, Blocks: 1, Flags: DataRead,
					Segments: [][]byte{make([]byte, 510), make([]byte, 2)},
				},
			},
			wantErr: true,
		},
		{
			name: "short scatter list",
			req: &Request{
				Cmd: NewCommand(CmdReadMultipleBlock, 0, RspR1),
				Data: &Data{
					BlockSize: 512, Blocks: 2, Flags: DataRead,
					Segments: [][]byte{make([]byte, 512)},
				},
			},
			wantErr: true,
		},
		{
			name: "too many blocks",
			req: &Request{
				Cmd: NewCommand(CmdReadMultipleBlock, 0, RspR1),
				Data: &Data{
					BlockSize: 4, Blocks: MaxBlocks + 1, Flags: DataRead,
					Segments: [][]byte{make([]byte, 4*(MaxBlocks+1))},
				},
			},
			wantErr: true,
		},
		{
			name: "zero block size",
			req: &Request{
				Cmd: NewCommand(CmdReadSingleBlock, 0, RspR1),
				Data: &Data{
					Blocks: 1, Flags: DataRead,
					Segments: [][]byte{make([]byte, 4)},
				},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, pkg.ErrInvalidRequest))
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestRequest_Prepare(t *testing.T) {
	req := ReadBlocks(4, 512, make([]byte, 1024))
	req.Cmd.Error = pkg.ErrTimeout
	req.Data.Error = pkg.ErrFIFO
	req.Data.BytesXfered = 17

	req.Prepare()

	assert.Same(t, req.Data, req.Cmd.Data)
	assert.Same(t, req.Stop, req.Data.Stop)
	assert.Nil(t, req.Stop.Data)
	assert.NoError(t, req.Err())
	assert.Zero(t, req.Data.BytesXfered)
}

func TestRequest_Err(t *testing.T) {
	req := WriteBlocks(0, 512, make([]byte, 1024))
	req.Prepare()
	assert.NoError(t, req.Err())

	req.Stop.Error = pkg.ErrTimeout
	assert.ErrorIs(t, req.Err(), pkg.ErrTimeout)

	req.Data.Error = pkg.ErrBadCRC
	assert.ErrorIs(t, req.Err(), pkg.ErrBadCRC)

	req.Cmd.Error = pkg.ErrFIFO
	assert.ErrorIs(t, req.Err(), pkg.ErrFIFO)
}

func TestBlockRequests(t *testing.T) {
	single := ReadBlocks(3, 512, make([]byte, 512))
	assert.Equal(t, CmdReadSingleBlock, single.Cmd.Opcode)
	assert.Equal(t, uint32(3), single.Cmd.Arg)
	assert.Nil(t, single.Stop)
	assert.True(t, single.Data.IsRead())

	multi := WriteBlocks(9, 512, make([]byte, 512), make([]byte, 1024))
	assert.Equal(t, CmdWriteMultipleBlock, multi.Cmd.Opcode)
	assert.Equal(t, 3, multi.Data.Blocks)
	assert.Equal(t, 1536, multi.Data.Len())
	require.NotNil(t, multi.Stop)
	assert.Equal(t, CmdStopTransmission, multi.Stop.Opcode)
	assert.True(t, multi.Stop.Flags.Has(RspBusy))
}

func TestCommand_String(t *testing.T) {
	tests := []struct {
		cmd  *Command
		want string
	}{
		{NewCommand(CmdGoIdleState, 0, RspNone), "GO_IDLE_STATE(0x00000000)"},
		{NewCommand(CmdReadSingleBlock, 0x20, RspR1), "READ_SINGLE_BLOCK(0x00000020)"},
		{NewCommand(AppCmdSDSendOpCond, 0x00ff8000, RspR3), "SD_SEND_OP_COND(0x00ff8000)"},
		{NewCommand(42, 1, RspR1), "CMD42(0x00000001)"},
		{nil, "<nil>"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cmd.String())
		})
	}
}

func TestRespFlags(t *testing.T) {
	assert.True(t, RspR2.Has(Rsp136))
	assert.True(t, RspR2.Has(RspCRC))
	assert.False(t, RspR3.Has(RspCRC))
	assert.False(t, RspNone.Has(RspPresent))
	assert.True(t, RspR1B.Has(RspR1))
}

func TestPowerMode_String(t *testing.T) {
	assert.Equal(t, "off", PowerOff.String())
	assert.Equal(t, "up", PowerUp.String())
	assert.Equal(t, "on", PowerOn.String())
	assert.Equal(t, "unknown", PowerMode(9).String())
}
