// Package linux provides the SDI controller HAL for Linux running on an
// S3C24xx board.
//
// The register window is mapped from /dev/mem with [periph.io/x/host/v3/pmem]
// and exposed as a [hal.Bus]. Interrupts reach userspace through a UIO
// device (/dev/uioN) that the kernel binds to the SDI interrupt line; [UIO]
// waits on it with epoll and calls the engine's interrupt handler. The UIO
// device and its register map are discovered from sysfs with [FindUIO].
//
// Card-detect and write-protect lines are resolved by name through
// [periph.io/x/conn/v3/gpio/gpioreg] after the periph host drivers are
// loaded; [WatchDetect] turns detect edges into card-change callbacks.
//
// # Requirements
//
// Mapping /dev/mem requires root or CAP_SYS_RAWIO. The kernel must expose the
// SDI interrupt through uio_pdrv_genirq (or a similar UIO driver) and must not
// bind its own MMC driver to the controller.
//
// # Example
//
//	info, _ := linux.FindUIO("s3c2440-sdi")
//	bus, _ := linux.Map(info.Addr)
//	defer bus.Close()
//	irq, _ := linux.OpenUIO(info.Dev)
//	defer irq.Close()
//	h, _ := host.New(bus, host.Config{Variant: sdi.S3C2440})
//	go irq.Run(ctx, h.OnInterrupt)
package linux
