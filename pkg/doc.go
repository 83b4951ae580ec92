// Package pkg provides shared utilities for the softmci controller stack.
//
// It holds the pieces every other package leans on:
//
//   - Structured logging via Go's standard [log/slog] package
//   - Sentinel errors for the transfer error taxonomy
//   - Component identifiers for log filtering
//
// # Logging
//
// The logging subsystem wraps [log/slog] with a component attribute:
//
//	pkg.SetLogLevel(slog.LevelDebug)
//	pkg.LogDebug(pkg.ComponentIRQ, "status", "csta", pkg.Hex32(csta))
//
// # Errors
//
// Transfer errors are never returned from the interrupt path. They are
// recorded on the command or data of a request and inspected by the caller
// after the completion callback fires:
//
//	if errors.Is(req.Data.Error, pkg.ErrFIFO) {
//	    // retry the transfer
//	}
//
// [StatusOf] folds an error back into a [Status] for counters and traces.
package pkg
