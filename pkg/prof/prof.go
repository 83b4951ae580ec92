//go:build profile

package prof

import (
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"runtime"
	runpprof "runtime/pprof"
	"sort"
	"sync"

	"github.com/ardnew/softmci/pkg"
)

// Profiling errors.
var (
	// ErrCPUProfileActive indicates CPU profiling is already active.
	ErrCPUProfileActive = errors.New("cpu profile already active")

	// ErrInvalidProfile indicates an invalid or unsupported profile type.
	ErrInvalidProfile = errors.New("invalid profile")
)

// Enabled reports whether the binary was built with profiling support.
const Enabled = true

var (
	cpuMutex  sync.Mutex
	cpuActive bool
)

// Session is an open profiling run.
type Session struct {
	cfg     Config
	cpuFile *os.File
	srv     *http.Server
	addr    string

	mu      sync.Mutex
	stopped bool
}

// Start opens a session described by cfg.
func Start(cfg Config) (*Session, error) {
	for p := range cfg.Snapshots {
		if err := checkSnapshot(p); err != nil {
			return nil, err
		}
	}

	s := &Session{cfg: cfg}

	if cfg.CPUPath != "" {
		if err := s.startCPU(cfg.CPUPath); err != nil {
			return nil, err
		}
	}

	if cfg.BlockRate > 0 {
		runtime.SetBlockProfileRate(cfg.BlockRate)
	}
	if cfg.MutexFraction > 0 {
		runtime.SetMutexProfileFraction(cfg.MutexFraction)
	}

	if cfg.HTTPAddr != "" {
		if err := s.serve(cfg.HTTPAddr); err != nil {
			s.stopCPU()
			return nil, err
		}
	}

	pkg.LogInfo(pkg.ComponentHost, "profiling started",
		"cpu", cfg.CPUPath, "snapshots", len(cfg.Snapshots), "http", s.addr)
	return s, nil
}

func (s *Session) startCPU(path string) error {
	cpuMutex.Lock()
	defer cpuMutex.Unlock()

	if cpuActive {
		return ErrCPUProfileActive
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cpu profile: %w", err)
	}
	if err := runpprof.StartCPUProfile(f); err != nil {
		f.Close()
		return fmt.Errorf("cpu profile: %w", err)
	}

	s.cpuFile = f
	cpuActive = true
	return nil
}

func (s *Session) stopCPU() error {
	if s.cpuFile == nil {
		return nil
	}

	cpuMutex.Lock()
	defer cpuMutex.Unlock()

	runpprof.StopCPUProfile()
	cpuActive = false
	err := s.cpuFile.Close()
	s.cpuFile = nil
	return err
}

func (s *Session) serve(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("pprof listener: %w", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	s.srv = &http.Server{Handler: mux}
	s.addr = ln.Addr().String()
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			pkg.LogWarn(pkg.ComponentHost, "pprof server stopped", "error", err)
		}
	}()
	return nil
}

// Addr returns the address the HTTP handlers listen on, or "" when the
// session does not serve them.
func (s *Session) Addr() string {
	return s.addr
}

// Stop ends the CPU profile, writes every configured snapshot and shuts
// the HTTP server down. Calling Stop more than once is a no-op.
func (s *Session) Stop() error {
	if s == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return nil
	}
	s.stopped = true

	var errs []error
	if err := s.stopCPU(); err != nil {
		errs = append(errs, err)
	}

	// Deterministic output order.
	names := make([]string, 0, len(s.cfg.Snapshots))
	for p := range s.cfg.Snapshots {
		names = append(names, string(p))
	}
	sort.Strings(names)
	for _, name := range names {
		p := Profile(name)
		if err := Write(p, s.cfg.Snapshots[p]); err != nil {
			errs = append(errs, fmt.Errorf("%s profile: %w", p, err))
		}
	}

	if s.srv != nil {
		if err := s.srv.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	pkg.LogInfo(pkg.ComponentHost, "profiling stopped", "errors", len(errs))
	return errors.Join(errs...)
}

// IsCPUActive reports whether a session is profiling the CPU.
func IsCPUActive() bool {
	cpuMutex.Lock()
	defer cpuMutex.Unlock()
	return cpuActive
}

// Write writes a snapshot profile to path.
func Write(profile Profile, path string) error {
	if err := checkSnapshot(profile); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return WriteTo(profile, f, 0)
}

// WriteTo writes a snapshot profile to w. Debug level 0 produces binary
// protobuf output for go tool pprof; level 1 produces readable text.
func WriteTo(profile Profile, w io.Writer, debug int) error {
	if err := checkSnapshot(profile); err != nil {
		return err
	}
	p := runpprof.Lookup(string(profile))
	if p == nil {
		return fmt.Errorf("%w: %s", ErrInvalidProfile, profile)
	}
	return p.WriteTo(w, debug)
}

func checkSnapshot(profile Profile) error {
	if profile == ProfileCPU {
		return fmt.Errorf("%w: cpu profiles stream for the whole session", ErrInvalidProfile)
	}
	if runpprof.Lookup(string(profile)) == nil {
		return fmt.Errorf("%w: %s", ErrInvalidProfile, profile)
	}
	return nil
}
