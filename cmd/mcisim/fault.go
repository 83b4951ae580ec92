package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ardnew/softmci/host/hal/sim"
	"github.com/ardnew/softmci/mmc"
	"github.com/ardnew/softmci/pkg"
)

var faultNames = []string{
	sim.FaultCmdTimeout.String(),
	sim.FaultCmdCRC.String(),
	sim.FaultDataTimeout.String(),
	sim.FaultDataCRC.String(),
	sim.FaultFIFO.String(),
	sim.FaultDMA.String(),
}

func newFaultCmd(opts *options) *cobra.Command {
	var (
		after  int
		blocks int
	)
	cmd := &cobra.Command{
		Use:       "fault <" + strings.Join(faultNames, "|") + ">",
		Short:     "Inject a controller fault into a block write and report the classified error",
		Args:      cobra.ExactArgs(1),
		ValidArgs: faultNames,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, ok := sim.ParseFault(args[0])
			if !ok {
				return fmt.Errorf("%w: unknown fault %q", pkg.ErrInvalidParameter, args[0])
			}
			if f == sim.FaultDMA && !opts.dma {
				return fmt.Errorf("%w: fault %s requires --dma", pkg.ErrInvalidParameter, f)
			}

			s, err := openSession(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer s.close()

			buf := make([]byte, blocks*blockSize)
			fillPattern(buf, 0x3c)
			s.ctrl.InjectFault(f, after)

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()
			req, err := s.do(ctx, mmc.WriteBlocks(0, blockSize, buf))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "fault=%s status=%s bytes=%d\n", f, pkg.StatusOf(req.Err()), req.Data.BytesXfered)
			fmt.Fprintf(out, "cmd:  %v\n", req.Cmd.Error)
			fmt.Fprintf(out, "data: %v\n", req.Data.Error)
			if req.Stop != nil {
				fmt.Fprintf(out, "stop: %v\n", req.Stop.Error)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&after, "after", 0, "bytes moved before a fifo fault fires")
	cmd.Flags().IntVar(&blocks, "blocks", 2, "number of blocks written")
	return cmd
}
