// Package host implements the transfer engine for the Samsung S3C24xx SD/MMC
// interface (SDI).
//
// The engine drives one request at a time through command issue, an
// optional PIO or DMA data phase, interrupt-driven completion detection,
// error classification and finalization. It talks to hardware only through
// the collaborators in [github.com/ardnew/softmci/host/hal].
//
// # Completion Targets
//
// Every request waits for one hardware event before it may finalize:
//
//   - command sent, for commands without a response
//   - response received, for commands with a response
//   - data finished and response received, for commands with data
//
// The combined target is downgraded as each half arrives. Timeouts, CRC
// failures and FIFO failures escalate straight to finalization with the
// error recorded on the command or its data. The only absorbed fault is a
// CRC failure on a 136-bit response, which the controller reports
// spuriously.
//
// # Concurrency
//
// A single mutex guards the in-flight request and the transfer context.
// [Host.OnInterrupt] classifies status under the lock and hands PIO work and
// finalization to a worker goroutine through a channel. The request's Done
// callback runs after the lock is released and may submit the next request.
//
// # Example
//
//	h, err := host.New(bus, host.Config{Variant: sdi.S3C2440})
//	if err != nil {
//	    return err
//	}
//	if err := h.Start(ctx); err != nil {
//	    return err
//	}
//	defer h.Stop()
//
//	done := make(chan struct{})
//	req := mmc.ReadBlocks(0, 512, buf)
//	req.Done = func(*mmc.Request) { close(done) }
//	if err := h.Request(req); err != nil {
//	    return err
//	}
//	<-done
//	if err := req.Err(); err != nil {
//	    return err
//	}
//
// A simulated controller for testing is available in
// [github.com/ardnew/softmci/host/hal/sim].
package host
