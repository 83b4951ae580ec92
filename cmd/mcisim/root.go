package main

import (
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

const envPrefix = "MCISIM_"

// options are the persistent flags shared by every subcommand.
type options struct {
	variant     string
	dma         bool
	cardBlocks  int
	logLevel    string
	logJSON     bool
	traceCSV    string
	traceSQLite string
	cpuProfile  string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "mcisim",
		Short: "Exercise the S3C24xx SDI transfer engine on a simulated card",
		Long: `mcisim runs MMC/SD requests through the SDI transfer engine against an ` +
			`in-process model of the S3C2410/S3C2440 controller. It can read and write ` +
			`blocks, dump the controller registers and inject hardware faults.`,
		SilenceUsage: true,
	}

	f := root.PersistentFlags()
	f.StringVar(&opts.variant, "variant", envString("VARIANT", "s3c2440"), "controller variant (s3c2410, s3c2440)")
	f.BoolVar(&opts.dma, "dma", envBool("DMA", false), "move data with DMA instead of PIO")
	f.IntVar(&opts.cardBlocks, "card-blocks", envInt("CARD_BLOCKS", 1024), "simulated card capacity in 512-byte blocks")
	f.StringVar(&opts.logLevel, "log-level", envString("LOG_LEVEL", "warn"), "log level (debug, info, warn, error)")
	f.BoolVar(&opts.logJSON, "log-json", envBool("LOG_JSON", false), "emit logs as JSON")
	f.StringVar(&opts.traceCSV, "trace-csv", envString("TRACE_CSV", ""), "record request traces to this CSV file (without suffix)")
	f.StringVar(&opts.traceSQLite, "trace-sqlite", envString("TRACE_SQLITE", ""), "record request traces to this SQLite file (without suffix)")
	f.StringVar(&opts.cpuProfile, "cpuprofile", envString("CPUPROFILE", ""), "write a CPU profile (requires -tags profile)")

	root.AddCommand(
		newReadCmd(opts),
		newWriteCmd(opts),
		newRegsCmd(opts),
		newFaultCmd(opts),
		newDR7Cmd(opts),
	)
	addPlatformCommands(root, opts)
	return root
}

func envString(key, def string) string {
	if v, ok := os.LookupEnv(envPrefix + key); ok {
		return v
	}
	return def
}

func envBool(key string, def bool) bool {
	if v, ok := os.LookupEnv(envPrefix + key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func envInt(key string, def int) int {
	if v, ok := os.LookupEnv(envPrefix + key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
