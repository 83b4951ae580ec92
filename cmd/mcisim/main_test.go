package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardnew/softmci/pkg"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestRead(t *testing.T) {
	for _, args := range [][]string{
		{"read", "--blocks", "2", "--fill", "0x10"},
		{"read", "--blocks", "2", "--fill", "16", "--dma", "--segments", "4"},
		{"read", "--variant", "s3c2410", "--lba", "3", "--fill", "16"},
	} {
		t.Run(args[len(args)-1], func(t *testing.T) {
			out, err := run(t, args...)
			require.NoError(t, err)
			assert.Contains(t, out, "block ")
			assert.Contains(t, out, "00000000  10 11 12 13")
		})
	}
}

func TestWrite(t *testing.T) {
	out, err := run(t, "write", "--lba", "4", "--blocks", "3", "--segments", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "wrote 1536 bytes at lba 4, verified (2 requests")

	out, err = run(t, "write", "--dma", "--variant", "s3c2410")
	require.NoError(t, err)
	assert.Contains(t, out, "wrote 512 bytes")
}

func TestWrite_BadSegments(t *testing.T) {
	_, err := run(t, "write", "--blocks", "1", "--segments", "3")
	assert.ErrorIs(t, err, pkg.ErrInvalidParameter)
}

func TestRegs(t *testing.T) {
	out, err := run(t, "regs", "--variant", "s3c2410")
	require.NoError(t, err)
	assert.Contains(t, out, "SEND_STATUS")
	assert.Contains(t, out, "CMDSTAT")
	assert.Contains(t, out, "commands=1 requests=1 errors=0")
}

func TestFault(t *testing.T) {
	tests := []struct {
		args   []string
		status string
	}{
		{[]string{"fault", "cmd-timeout"}, "status=timeout"},
		{[]string{"fault", "data-crc"}, "status=badcrc"},
		{[]string{"fault", "fifo", "--after", "256"}, "status=fifo"},
		{[]string{"fault", "dma", "--dma"}, "status=dma"},
	}
	for _, tt := range tests {
		t.Run(tt.args[1], func(t *testing.T) {
			out, err := run(t, tt.args...)
			require.NoError(t, err)
			assert.Contains(t, out, tt.status)
			assert.Contains(t, out, "bytes=0")
		})
	}
}

func TestFault_Invalid(t *testing.T) {
	_, err := run(t, "fault", "meltdown")
	assert.ErrorIs(t, err, pkg.ErrInvalidParameter)

	_, err = run(t, "fault", "dma")
	assert.ErrorIs(t, err, pkg.ErrInvalidParameter)
}

func TestVariant_Unknown(t *testing.T) {
	_, err := run(t, "regs", "--variant", "s3c6410")
	assert.ErrorIs(t, err, pkg.ErrNotSupported)
}

func TestEnvDefaults(t *testing.T) {
	t.Setenv("MCISIM_VARIANT", "s3c2410")
	t.Setenv("MCISIM_DMA", "true")
	t.Setenv("MCISIM_CARD_BLOCKS", "16")

	cmd := newRootCmd()
	f := cmd.PersistentFlags()
	assert.Equal(t, "s3c2410", f.Lookup("variant").DefValue)
	assert.Equal(t, "true", f.Lookup("dma").DefValue)
	assert.Equal(t, "16", f.Lookup("card-blocks").DefValue)

	t.Setenv("MCISIM_DMA", "maybe")
	assert.Equal(t, "false", newRootCmd().PersistentFlags().Lookup("dma").DefValue)
}

func TestTraceCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace")
	_, err := run(t, "write", "--blocks", "2", "--trace-csv", path)
	require.NoError(t, err)

	data, err := os.ReadFile(path + ".csv")
	require.NoError(t, err)
	assert.Contains(t, string(data), "ID,ParentID,Kind")
	assert.Contains(t, string(data), "WRITE_MULTIPLE_BLOCK")
	assert.Contains(t, string(data), "STOP_TRANSMISSION")
}

func TestDR7(t *testing.T) {
	out, err := run(t, "dr7", "--exec", "0x1000", "--write", "0x2000:4")
	require.NoError(t, err)
	assert.Contains(t, out, "DR0  0x0000000000001000 type=0 len=0")
	assert.Contains(t, out, "DR1  0x0000000000002000 type=1 len=3")
	assert.Contains(t, out, "DR7  0x0000000000d0000a changed=true")

	_, err = run(t, "dr7", "--write", "0x2000")
	assert.ErrorIs(t, err, pkg.ErrInvalidParameter)

	_, err = run(t, "dr7", "--access", "0x2000:3")
	assert.Error(t, err)
}
