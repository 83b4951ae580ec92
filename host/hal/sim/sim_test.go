package sim

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardnew/softmci/host/hal"
	"github.com/ardnew/softmci/host/sdi"
	"github.com/ardnew/softmci/mmc"
	"github.com/ardnew/softmci/pkg"
)

func TestCard(t *testing.T) {
	c := NewCard(4)
	assert.Equal(t, 4, c.Blocks())
	assert.True(t, c.Present())
	assert.False(t, c.ReadOnly())

	data := []byte{1, 2, 3, 4}
	require.NoError(t, c.WriteAt(data, 510))
	got := make([]byte, 4)
	require.NoError(t, c.ReadAt(got, 510))
	assert.Equal(t, data, got)

	assert.ErrorIs(t, c.ReadAt(got, 4*DefaultBlockSize-2), pkg.ErrInvalidParameter)
	assert.ErrorIs(t, c.WriteAt(got, -1), pkg.ErrInvalidParameter)

	c.SetPresent(false)
	c.SetReadOnly(true)
	assert.False(t, c.Present())
	assert.True(t, c.ReadOnly())
}

func TestCard_Respond(t *testing.T) {
	c := NewCard(1)

	assert.Equal(t, uint32(DefaultRCA)<<16, c.Respond(mmc.CmdSendRelativeAddr, 0)[0])
	assert.Equal(t, uint32(0x1aa), c.Respond(mmc.CmdSendIfCond, 0x1aa)[0])
	assert.NotZero(t, c.Respond(mmc.CmdAllSendCID, 0)[3])

	// ACMD41 only after APP_CMD.
	st := c.Respond(mmc.CmdAppCmd, 0)[0]
	assert.NotZero(t, st&StatusAppCmd)
	assert.Equal(t, uint32(DefaultOCR|ocrBusy), c.Respond(mmc.AppCmdSDSendOpCond, 0)[0])
	assert.Equal(t, StatusReadyForData|StatusStateTran, c.Respond(mmc.AppCmdSDSendOpCond, 0)[0])
}

func TestParseFault(t *testing.T) {
	for f := FaultCmdTimeout; f <= FaultDMA; f++ {
		got, ok := ParseFault(f.String())
		require.True(t, ok, f.String())
		assert.Equal(t, f, got)
	}
	_, ok := ParseFault("meteor")
	assert.False(t, ok)
	assert.Equal(t, "none", Fault(0).String())
}

func TestController_Registers(t *testing.T) {
	for _, v := range sdi.Variants {
		t.Run(v.Name, func(t *testing.T) {
			c := New(v, NewCard(1))

			c.Write32(v.IMSK, 0x1234)
			assert.EqualValues(t, 0x1234, c.Read32(v.IMSK))
			c.Write32(sdi.PRE, 7)
			assert.EqualValues(t, 7, c.Read32(sdi.PRE))

			// Status is write-1-to-clear.
			c.Write32(sdi.CMDARG, 0)
			c.Write32(sdi.CMDCON, uint32(mmc.CmdSendStatus)|sdi.CmdConCmdStart|sdi.CmdConWaitRsp)
			st := c.Read32(sdi.CMDSTAT)
			assert.Equal(t, sdi.CmdStatCmdSent|sdi.CmdStatRspFin, st)
			assert.Zero(t, c.Read32(sdi.CMDCON)&sdi.CmdConCmdStart)
			c.Write32(sdi.CMDSTAT, sdi.CmdStatCmdSent)
			assert.Equal(t, sdi.CmdStatRspFin, c.Read32(sdi.CMDSTAT))

			// Data register pushes and pops the FIFO.
			c.Write32(v.DATA, 0xdeadbeef)
			assert.Equal(t, 4, c.FIFOLen())
			assert.EqualValues(t, 4, c.Read32(sdi.FSTA)&sdi.FStaCountMask)
			assert.EqualValues(t, 0xdeadbeef, c.Read32(v.DATA))
			assert.Zero(t, c.FIFOLen())

			hist := c.History()
			require.NotEmpty(t, hist)
			assert.Equal(t, RegWrite{v.IMSK, 0x1234}, hist[0])
			c.ClearHistory()
			assert.Empty(t, c.History())
		})
	}
}

func TestController_FIFOReset(t *testing.T) {
	for _, v := range sdi.Variants {
		t.Run(v.Name, func(t *testing.T) {
			c := New(v, NewCard(1))
			c.Write32(v.DATA, 1)
			c.Write32(v.DATA, 2)
			require.Equal(t, 8, c.FIFOLen())

			v.ResetFIFO(c)
			assert.Zero(t, c.FIFOLen())
		})
	}
}

func TestController_CommandTimeout(t *testing.T) {
	c := New(sdi.S3C2410, NewCard(1))
	c.InjectFault(FaultCmdTimeout, 0)
	c.Write32(sdi.CMDCON, sdi.CmdConCmdStart)
	assert.Equal(t, sdi.CmdStatCmdTimeout, c.Read32(sdi.CMDSTAT))

	// Faults are one-shot.
	c.Write32(sdi.CMDSTAT, 0xFFFFFFFF)
	c.Write32(sdi.CMDCON, sdi.CmdConCmdStart)
	assert.Equal(t, sdi.CmdStatCmdSent, c.Read32(sdi.CMDSTAT))

	c.InjectFault(FaultCmdTimeout, 0)
	c.ClearFaults()
	c.Write32(sdi.CMDSTAT, 0xFFFFFFFF)
	c.Write32(sdi.CMDCON, sdi.CmdConCmdStart)
	assert.Equal(t, sdi.CmdStatCmdSent, c.Read32(sdi.CMDSTAT))
}

// startRead programs a one-block read without a running engine.
func startRead(c *Controller, lba uint32, dma bool) {
	dcon := 1 | sdi.DConXferRxStart | sdi.DConBlockMode | sdi.DConRxAfterCmd
	if dma {
		dcon |= sdi.DConDMAEn
	}
	c.Write32(sdi.BSIZE, DefaultBlockSize)
	c.Write32(sdi.DCON, dcon)
	c.Write32(sdi.CMDARG, lba)
	c.Write32(sdi.CMDCON, uint32(mmc.CmdReadSingleBlock)|sdi.CmdConCmdStart|sdi.CmdConWaitRsp)
}

func TestController_PIORead(t *testing.T) {
	card := NewCard(4)
	want := make([]byte, DefaultBlockSize)
	for i := range want {
		want[i] = byte(i)
	}
	require.NoError(t, card.WriteAt(want, 2*DefaultBlockSize))

	c := New(sdi.S3C2440, card)
	c.Write32(sdi.S3C2440.IMSK, sdi.IMskRx|sdi.IMskData)

	var mu sync.Mutex
	irqs := 0
	c.SetInterruptHandler(func() {
		mu.Lock()
		irqs++
		mu.Unlock()
	})
	require.NoError(t, c.Start(context.Background()))
	defer func() { _ = c.Stop() }()
	assert.ErrorIs(t, c.Start(context.Background()), pkg.ErrAlreadyRunning)

	startRead(c, 2, false)
	assert.NotZero(t, c.Read32(sdi.DSTA)&sdi.DStaRxDataOn)

	got := make([]byte, 0, DefaultBlockSize)
	deadline := time.Now().Add(2 * time.Second)
	for len(got) < DefaultBlockSize && time.Now().Before(deadline) {
		for n := sdi.FIFOFill(c.Read32(sdi.FSTA)); n > 0; n-- {
			w := c.Read32(sdi.DATA2440)
			got = append(got, byte(w), byte(w>>8), byte(w>>16), byte(w>>24))
		}
	}
	assert.True(t, bytes.Equal(want, got))

	assert.Eventually(t, func() bool {
		return c.Read32(sdi.DSTA)&sdi.DStaXferFinish != 0
	}, time.Second, time.Millisecond)
	assert.Zero(t, c.Read32(sdi.DSTA)&sdi.DStaRxDataOn)
	assert.NotZero(t, c.Pending()&sdi.IMskDataFinish)

	mu.Lock()
	assert.Positive(t, irqs)
	mu.Unlock()
}

func TestController_DMARead(t *testing.T) {
	card := NewCard(2)
	want := bytes.Repeat([]byte{0xa5, 0x5a, 0x0f, 0xf0}, DefaultBlockSize/4)
	require.NoError(t, card.WriteAt(want, 0))

	c := New(sdi.S3C2410, card)
	ch := c.DMA()
	assert.ErrorIs(t, ch.Configure(hal.DMAFromDevice, sdi.DATA2440), pkg.ErrInvalidParameter)
	require.NoError(t, ch.Configure(hal.DMAFromDevice, sdi.DATA2410))
	assert.Equal(t, 1, ch.Configures())

	type completion struct {
		size   int
		result hal.DMAResult
	}
	done := make(chan completion, 4)
	ch.SetDoneFunc(func(size int, result hal.DMAResult) { done <- completion{size, result} })

	assert.ErrorIs(t, ch.Enqueue(make([]byte, 3)), pkg.ErrInvalidParameter)
	a, b := make([]byte, 128), make([]byte, 384)
	require.NoError(t, ch.Enqueue(a))
	require.NoError(t, ch.Enqueue(b))
	assert.Equal(t, 2, ch.Queued())

	require.NoError(t, c.Start(context.Background()))
	defer func() { _ = c.Stop() }()
	require.NoError(t, ch.Start())
	startRead(c, 0, true)

	for _, size := range []int{128, 384} {
		select {
		case d := <-done:
			assert.Equal(t, completion{size, hal.DMAOK}, d)
		case <-time.After(2 * time.Second):
			t.Fatal("DMA completion missing")
		}
	}
	assert.True(t, bytes.Equal(want, append(a, b...)))
	assert.Zero(t, ch.Queued())
}

func TestDMAChannel_FlushAndLimits(t *testing.T) {
	c := New(sdi.S3C2440, NewCard(1))
	ch := c.DMA()
	for range MaxQueuedBuffers {
		require.NoError(t, ch.Enqueue(make([]byte, 4)))
	}
	assert.ErrorIs(t, ch.Enqueue(make([]byte, 4)), pkg.ErrQueueFull)

	require.NoError(t, ch.Flush())
	assert.Zero(t, ch.Queued())
}
