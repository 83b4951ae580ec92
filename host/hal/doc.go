// Package hal defines the collaborators the SDI transfer engine drives.
//
// The engine owns the protocol logic: command framing, interrupt
// classification, PIO draining and DMA sequencing. A HAL only supplies raw
// access to the hardware:
//
//   - [Bus]: 32-bit register reads and writes at byte offsets
//   - [DMA]: a channel that moves scatter segments to or from the data FIFO
//   - [Power]: optional board-level card supply switching
//
// Card-detect and write-protect lines are plain
// [periph.io/x/conn/v3/gpio.PinIn] values and need no interface here.
//
// # Implementing a HAL
//
// To bring the engine up on a new platform:
//  1. Map the SDI register block and implement [Bus] over it
//  2. Wrap the platform DMA controller in a [DMA] implementation
//  3. Deliver the SDI interrupt line to the engine's OnInterrupt method
//
// A simulated controller with a card and DMA channel, used by the tests and
// the mcisim command, is available in [github.com/ardnew/softmci/host/hal/sim].
// A Linux implementation over /dev/mem is available in
// [github.com/ardnew/softmci/host/hal/linux].
package hal
