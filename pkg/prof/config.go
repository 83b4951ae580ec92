package prof

// Profile names a pprof profile.
type Profile string

// Profile names.
const (
	ProfileCPU          Profile = "cpu"
	ProfileHeap         Profile = "heap"
	ProfileAllocs       Profile = "allocs"
	ProfileGoroutine    Profile = "goroutine"
	ProfileThreadCreate Profile = "threadcreate"
	ProfileBlock        Profile = "block"
	ProfileMutex        Profile = "mutex"
)

// String returns the profile name.
func (p Profile) String() string {
	return string(p)
}

// Config describes what a [Session] collects.
type Config struct {
	// CPUPath receives the CPU profile. Empty disables CPU profiling.
	CPUPath string

	// Snapshots maps snapshot profiles to the files written on Stop.
	Snapshots map[Profile]string

	// BlockRate and MutexFraction enable the block and mutex profiles
	// when positive. See runtime.SetBlockProfileRate and
	// runtime.SetMutexProfileFraction.
	BlockRate     int
	MutexFraction int

	// HTTPAddr serves the net/http/pprof handlers when set.
	HTTPAddr string
}

// Empty reports whether cfg requests nothing.
func (c Config) Empty() bool {
	return c.CPUPath == "" && len(c.Snapshots) == 0 && c.HTTPAddr == "" &&
		c.BlockRate <= 0 && c.MutexFraction <= 0
}
