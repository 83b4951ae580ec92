package linux

import (
	"context"
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/ardnew/softmci/pkg"
)

// Pins loads the periph host drivers and resolves the card-detect and
// write-protect lines by name. An empty name yields a nil pin.
func Pins(detect, writeProtect string) (gpio.PinIO, gpio.PinIO, error) {
	if _, err := host.Init(); err != nil {
		return nil, nil, fmt.Errorf("periph host init: %w", err)
	}
	cd, err := lookupPin(detect)
	if err != nil {
		return nil, nil, err
	}
	wp, err := lookupPin(writeProtect)
	if err != nil {
		return nil, nil, err
	}
	return cd, wp, nil
}

func lookupPin(name string) (gpio.PinIO, error) {
	if name == "" {
		return nil, nil
	}
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("%w: unknown GPIO %q", pkg.ErrNotSupported, name)
	}
	return p, nil
}

// WatchDetect configures pin as a pulled-up input sensing both edges and
// calls fn for every edge until ctx is done. It returns ctx.Err().
func WatchDetect(ctx context.Context, pin gpio.PinIn, fn func()) error {
	if err := pin.In(gpio.PullUp, gpio.BothEdges); err != nil {
		return fmt.Errorf("configure %s: %w", pin, err)
	}
	pkg.LogDebug(pkg.ComponentCard, "watching card detect", "pin", pin.String())
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if pin.WaitForEdge(DetectPollInterval) {
			fn()
		}
	}
}
