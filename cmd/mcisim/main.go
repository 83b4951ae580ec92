// Command mcisim drives the SDI transfer engine against a simulated
// controller and card.
//
// Defaults for the persistent flags come from MCISIM_* environment
// variables, which may be placed in a .env file in the working directory:
//
//	MCISIM_VARIANT=s3c2440
//	MCISIM_DMA=true
//	MCISIM_LOG_LEVEL=debug
//
// Examples:
//
//	mcisim read --lba 0 --blocks 2 --fill 0x5a
//	mcisim write --lba 8 --blocks 4 --dma
//	mcisim fault fifo --after 256
//	mcisim regs --variant s3c2410
package main

import (
	"github.com/joho/godotenv"
	"github.com/tebeka/atexit"
)

func main() {
	// A missing .env is not an error.
	_ = godotenv.Load()

	code := 0
	if err := newRootCmd().Execute(); err != nil {
		code = 1
	}
	atexit.Exit(code)
}
