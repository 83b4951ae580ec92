//go:build !profile

package prof

import "io"

// Profiling errors. Stubs never return them.
var (
	ErrCPUProfileActive error
	ErrInvalidProfile   error
)

// Enabled reports whether the binary was built with profiling support.
const Enabled = false

// Session is inert without the "profile" tag.
type Session struct{}

// Start returns an inert session.
func Start(Config) (*Session, error) {
	return &Session{}, nil
}

// Addr always returns "".
func (*Session) Addr() string { return "" }

// Stop is a no-op.
func (*Session) Stop() error { return nil }

// IsCPUActive always returns false.
func IsCPUActive() bool { return false }

// Write is a no-op.
func Write(Profile, string) error { return nil }

// WriteTo is a no-op.
func WriteTo(Profile, io.Writer, int) error { return nil }
