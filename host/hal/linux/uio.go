//go:build linux

package linux

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync/atomic"
	"syscall"

	"github.com/ardnew/softmci/pkg"
)

// UIO delivers the SDI interrupt from a Linux userspace I/O device.
//
// Reading the device blocks until the interrupt fires and returns the total
// interrupt count; writing 1 re-enables the line, which the kernel masks
// before waking the reader.
type UIO struct {
	path   string
	fd     int
	poller *poller
	count  atomic.Uint32
	missed atomic.Uint32
}

// OpenUIO opens the UIO device node at path, such as /dev/uio0.
func OpenUIO(path string) (*UIO, error) {
	fd, err := syscall.Open(path, syscall.O_RDWR|syscall.O_CLOEXEC|syscall.O_NONBLOCK, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	u, err := newUIO(fd, path)
	if err != nil {
		syscall.Close(fd)
		return nil, err
	}
	return u, nil
}

func newUIO(fd int, path string) (*UIO, error) {
	p, err := newPoller()
	if err != nil {
		return nil, fmt.Errorf("poller for %s: %w", path, err)
	}
	return &UIO{path: path, fd: fd, poller: p}, nil
}

// Run enables the interrupt and calls handler once per interrupt until ctx
// is done. The handler runs on the calling goroutine.
func (u *UIO) Run(ctx context.Context, handler func()) error {
	if err := u.poller.addFD(u.fd, EPOLLIN, func(uint32) { u.service(handler) }); err != nil {
		return fmt.Errorf("watch %s: %w", u.path, err)
	}
	defer u.poller.delFD(u.fd)

	if err := u.enable(); err != nil {
		return err
	}
	pkg.LogInfo(pkg.ComponentHAL, "interrupt loop started", "dev", u.path)
	err := u.poller.poll(ctx)
	pkg.LogInfo(pkg.ComponentHAL, "interrupt loop stopped", "dev", u.path, "count", u.Count())
	return err
}

// Count returns the interrupt count reported by the kernel.
func (u *UIO) Count() uint32 {
	return u.count.Load()
}

// Missed returns how many interrupts were coalesced by the kernel before
// the handler ran.
func (u *UIO) Missed() uint32 {
	return u.missed.Load()
}

// Close releases the device and its poller.
func (u *UIO) Close() error {
	err := u.poller.close()
	if cerr := syscall.Close(u.fd); err == nil {
		err = cerr
	}
	return err
}

func (u *UIO) service(handler func()) {
	var buf [uioEventSize]byte
	n, err := syscall.Read(u.fd, buf[:])
	if err != nil {
		if err != syscall.EAGAIN {
			pkg.LogWarn(pkg.ComponentHAL, "interrupt read failed", "dev", u.path, "error", err)
		}
		return
	}
	if n != uioEventSize {
		pkg.LogWarn(pkg.ComponentHAL, "short interrupt read", "dev", u.path, "bytes", n)
		return
	}

	count := binary.NativeEndian.Uint32(buf[:])
	if prev := u.count.Swap(count); prev != 0 && count > prev+1 {
		u.missed.Add(count - prev - 1)
	}

	handler()

	if err := u.enable(); err != nil {
		pkg.LogWarn(pkg.ComponentHAL, "interrupt enable failed", "dev", u.path, "error", err)
	}
}

func (u *UIO) enable() error {
	var buf [uioEventSize]byte
	binary.NativeEndian.PutUint32(buf[:], 1)
	if _, err := syscall.Write(u.fd, buf[:]); err != nil {
		return fmt.Errorf("enable %s: %w", u.path, err)
	}
	return nil
}
