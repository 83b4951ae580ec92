package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ardnew/softmci/host/hal/sim"
	"github.com/ardnew/softmci/mmc"
)

func newRegsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "regs",
		Short: "Send SEND_STATUS and print the controller registers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer s.close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()
			req, err := s.do(ctx, &mmc.Request{
				Cmd: mmc.NewCommand(mmc.CmdSendStatus, sim.DefaultRCA<<16, mmc.RspR1),
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: resp=0x%08x err=%v\n", req.Cmd, req.Cmd.Resp[0], req.Err())
			fmt.Fprint(out, s.host.Registers())
			st := s.host.Stats()
			fmt.Fprintf(out, "commands=%d requests=%d errors=%d status=%q\n",
				st.Commands, st.Requests, st.Errors, st.Status)
			return nil
		},
	}
}
