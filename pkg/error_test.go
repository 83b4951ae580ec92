package pkg

import (
	"errors"
	"fmt"
	"testing"
)

func TestStatus_String(t *testing.T) {
	tests := []struct {
		status Status
		want   string
	}{
		{StatusOK, "ok"},
		{StatusTimeout, "timeout"},
		{StatusBadCRC, "badcrc"},
		{StatusFIFO, "fifo"},
		{StatusDMA, "dma"},
		{StatusError, "error"},
		{Status(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.status.String(); got != tt.want {
				t.Errorf("Status.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStatus_Error(t *testing.T) {
	tests := []struct {
		status  Status
		wantErr error
	}{
		{StatusOK, nil},
		{StatusTimeout, ErrTimeout},
		{StatusBadCRC, ErrBadCRC},
		{StatusFIFO, ErrFIFO},
		{StatusDMA, ErrDMA},
		{StatusError, ErrInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.status.String(), func(t *testing.T) {
			err := tt.status.Error()
			if tt.wantErr == nil && err != nil {
				t.Errorf("Status.Error() = %v, want nil", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Status.Error() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Status
	}{
		{"nil", nil, StatusOK},
		{"timeout", ErrTimeout, StatusTimeout},
		{"wrapped crc", fmt.Errorf("cmd 17: %w", ErrBadCRC), StatusBadCRC},
		{"fifo", ErrFIFO, StatusFIFO},
		{"dma", ErrDMA, StatusDMA},
		{"other", ErrBusy, StatusError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StatusOf(tt.err); got != tt.want {
				t.Errorf("StatusOf(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestSentinelErrors(t *testing.T) {
	errs := []error{
		ErrTimeout,
		ErrBadCRC,
		ErrFIFO,
		ErrDMA,
		ErrBusy,
		ErrInvalidRequest,
		ErrInvalidParameter,
		ErrNotSupported,
		ErrNoMedia,
		ErrAlreadyRunning,
		ErrNotRunning,
		ErrQueueFull,
	}

	for i, err1 := range errs {
		if err1 == nil {
			t.Errorf("error %d is nil", i)
			continue
		}
		for j, err2 := range errs {
			if i != j && errors.Is(err1, err2) {
				t.Errorf("error %d and %d are equal", i, j)
			}
		}
	}
}
