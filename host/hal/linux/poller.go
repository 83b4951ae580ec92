//go:build linux

package linux

import (
	"context"
	"sync"
	"syscall"
)

// pollDesc describes a file descriptor being polled.
type pollDesc struct {
	fd       int          // File descriptor
	events   uint32       // Events to watch for
	callback func(uint32) // Callback when events occur
}

// =============================================================================
// Poller
// =============================================================================

// poller manages epoll-based waiting on interrupt file descriptors.
type poller struct {
	epfd   int               // epoll file descriptor
	wakefd int               // eventfd for waking the poller
	mu     sync.Mutex        // Protects fds map
	fds    map[int]*pollDesc // Tracked file descriptors
}

// newPoller creates a new poller instance.
func newPoller() (*poller, error) {
	epfd, err := syscall.EpollCreate1(syscall.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}

	wakefd, err := eventfdCreate(0, syscall.O_NONBLOCK|syscall.O_CLOEXEC)
	if err != nil {
		syscall.Close(epfd)
		return nil, err
	}

	p := &poller{
		epfd:   epfd,
		wakefd: wakefd,
		fds:    make(map[int]*pollDesc),
	}

	if err := p.addFD(wakefd, EPOLLIN, nil); err != nil {
		syscall.Close(wakefd)
		syscall.Close(epfd)
		return nil, err
	}

	return p, nil
}

// close releases the epoll and eventfd descriptors.
func (p *poller) close() error {
	if p.wakefd >= 0 {
		syscall.Close(p.wakefd)
		p.wakefd = -1
	}
	if p.epfd >= 0 {
		syscall.Close(p.epfd)
		p.epfd = -1
	}
	return nil
}

// addFD adds a file descriptor to the poller.
func (p *poller) addFD(fd int, events uint32, callback func(uint32)) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	event := syscall.EpollEvent{Events: events, Fd: int32(fd)}
	if err := syscall.EpollCtl(p.epfd, syscall.EPOLL_CTL_ADD, fd, &event); err != nil {
		return err
	}

	p.fds[fd] = &pollDesc{fd: fd, events: events, callback: callback}
	return nil
}

// delFD removes a file descriptor from the poller.
func (p *poller) delFD(fd int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	delete(p.fds, fd)
	return syscall.EpollCtl(p.epfd, syscall.EPOLL_CTL_DEL, fd, &syscall.EpollEvent{})
}

// wake signals the poller to wake up.
func (p *poller) wake() error {
	var buf [8]byte
	buf[0] = 1
	_, err := syscall.Write(p.wakefd, buf[:])
	return err
}

// poll runs the epoll wait loop until ctx is done.
func (p *poller) poll(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() { _ = p.wake() })
	defer stop()

	for ctx.Err() == nil {
		if _, err := p.pollOnce(-1); err != nil {
			if err == syscall.EINTR {
				continue
			}
			return err
		}
	}
	return nil
}

// pollOnce performs a single poll iteration with timeout and returns the
// number of callbacks run. timeout is in milliseconds, -1 for infinite, 0
// for non-blocking.
func (p *poller) pollOnce(timeout int) (int, error) {
	var events [MaxEpollEvents]syscall.EpollEvent

	n, err := syscall.EpollWait(p.epfd, events[:], timeout)
	if err != nil {
		return 0, err
	}

	processed := 0
	for i := 0; i < n; i++ {
		fd := int(events[i].Fd)
		evts := events[i].Events

		if fd == p.wakefd {
			var buf [8]byte
			syscall.Read(p.wakefd, buf[:])
			continue
		}

		p.mu.Lock()
		desc, ok := p.fds[fd]
		p.mu.Unlock()

		if ok && desc.callback != nil {
			desc.callback(evts)
			processed++
		}
	}

	return processed, nil
}

// =============================================================================
// Syscall Wrappers
// =============================================================================

// eventfdCreate creates an eventfd.
func eventfdCreate(initval uint, flags int) (int, error) {
	fd, _, errno := syscall.Syscall(syscall.SYS_EVENTFD2, uintptr(initval), uintptr(flags), 0)
	if errno != 0 {
		return -1, errno
	}
	return int(fd), nil
}
