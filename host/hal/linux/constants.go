package linux

import "time"

// =============================================================================
// Register Window
// =============================================================================

// SDIBase is the physical base address of the SDI block on both the S3C2410
// and the S3C2440.
const SDIBase uint64 = 0x5A000000

// WindowSize is the size of the SDI register window in bytes.
const WindowSize = 0x44

// pageSize is the granularity of /dev/mem mappings.
const pageSize = 4096

// =============================================================================
// System Paths
// =============================================================================

// SysfsUIOPath is the base path for UIO devices in sysfs.
const SysfsUIOPath = "/sys/class/uio"

// DevfsUIOPath is the directory holding UIO device nodes.
const DevfsUIOPath = "/dev"

// =============================================================================
// Polling Constants
// =============================================================================

// Epoll event flags.
const (
	EPOLLIN  = 0x001
	EPOLLOUT = 0x004
	EPOLLERR = 0x008
	EPOLLHUP = 0x010
)

// MaxEpollEvents is the maximum events to retrieve per epoll_wait call.
const MaxEpollEvents = 8

// uioEventSize is the size of the interrupt count read from a UIO device
// and of the enable word written back to it.
const uioEventSize = 4

// DetectPollInterval bounds how long WatchDetect waits for an edge before
// checking for cancellation.
const DetectPollInterval = 100 * time.Millisecond
