// Package prof wraps [runtime/pprof] for profiling simulator runs and
// transfer benchmarks.
//
// It is conditionally compiled using the "profile" build tag:
//
//	go build -tags profile ./cmd/mcisim
//
// Without the tag every function is a no-op and [Start] returns an inert
// [Session], so callers never need their own build constraints.
//
// # Sessions
//
// A [Session] bundles the profiles gathered across one run. The CPU profile
// streams while the session is open; snapshot profiles are written when it
// stops:
//
//	s, err := prof.Start(prof.Config{
//	    CPUPath:   "cpu.prof",
//	    Snapshots: map[prof.Profile]string{prof.ProfileMutex: "mutex.prof"},
//	    MutexFraction: 1,
//	})
//	if err != nil {
//	    return err
//	}
//	defer s.Stop()
//
// Only one session may profile the CPU at a time; a second [Start] with a
// CPU path returns [ErrCPUProfileActive].
//
// # HTTP
//
// When [Config.HTTPAddr] is set, the [net/http/pprof] handlers are served on
// that address for the life of the session.
package prof
