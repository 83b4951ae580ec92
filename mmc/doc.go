// Package mmc defines the request data model consumed by the SDI transfer
// engine.
//
// A [Request] carries one [Command], an optional [Data] phase described by a
// scatter list of byte segments, and an optional trailing stop [Command]. The
// engine records errors on the command and data objects and reports
// completion through [Request.Done]; nothing is returned from the interrupt
// path.
//
// # Building Requests
//
//	req := mmc.ReadBlocks(lba, 512, buf)
//	req.Done = func(r *mmc.Request) { close(done) }
//	if err := h.Request(req); err != nil {
//	    return err
//	}
//
// Only the command/response framing the engine needs is modeled here; the
// card initialization state machine belongs to the caller.
package mmc
