// Package sim provides a simulated S3C24xx SDI controller for testing the
// transfer engine without hardware.
//
// A [Controller] implements [hal.Bus] over an in-memory register file. It
// owns a [Card] and a [DMAChannel] that implements [hal.DMA]. Commands run
// synchronously when CMDCON is written with the start bit; data phases and
// DMA buffers are serviced by a goroutine launched with [Controller.Start],
// which also calls the installed interrupt handler.
//
// # Usage
//
//	card := sim.NewCard(1024)
//	ctrl := sim.New(sdi.S3C2440, card)
//	h, _ := host.New(ctrl, host.Config{Variant: sdi.S3C2440, DMA: ctrl.DMA(), UseDMA: true})
//	ctrl.SetInterruptHandler(h.OnInterrupt)
//	ctrl.Start(ctx)
//	h.Start(ctx)
//
// # Fault Injection
//
// [Controller.InjectFault] arms one-shot faults that exercise every error
// path of the engine:
//
//	ctrl.InjectFault(sim.FaultFIFO, 256) // FIFO fails after 256 bytes
//	ctrl.InjectFault(sim.FaultCmdCRC, 0) // next response fails its CRC
//
// Every register write is recorded and can be inspected with
// [Controller.History].
package sim
