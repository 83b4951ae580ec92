package hal

import (
	"testing"

	"github.com/ardnew/softmci/mmc"
)

func TestDMADirection_String(t *testing.T) {
	tests := []struct {
		dir      DMADirection
		expected string
	}{
		{DMANone, "none"},
		{DMAFromMemory, "mem->dev"},
		{DMAFromDevice, "dev->mem"},
		{DMADirection(7), "none"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.dir.String(); got != tt.expected {
				t.Errorf("DMADirection.String() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestDMAResult_String(t *testing.T) {
	tests := []struct {
		result   DMAResult
		expected string
	}{
		{DMAOK, "ok"},
		{DMAError, "error"},
		{DMAAborted, "aborted"},
		{DMAResult(9), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.result.String(); got != tt.expected {
				t.Errorf("DMAResult.String() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestPowerFunc(t *testing.T) {
	var gotMode mmc.PowerMode
	var gotVDD uint16

	var p Power = PowerFunc(func(mode mmc.PowerMode, vdd uint16) {
		gotMode, gotVDD = mode, vdd
	})
	p.SetPower(mmc.PowerUp, 21)

	if gotMode != mmc.PowerUp || gotVDD != 21 {
		t.Errorf("SetPower forwarded (%v, %d), want (up, 21)", gotMode, gotVDD)
	}
}
