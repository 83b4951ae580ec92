//go:build linux

package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ardnew/softmci/host"
	"github.com/ardnew/softmci/host/hal/linux"
	"github.com/ardnew/softmci/host/sdi"
	"github.com/ardnew/softmci/mmc"
	"github.com/ardnew/softmci/pkg"
)

func addPlatformCommands(root *cobra.Command, opts *options) {
	hw := &cobra.Command{
		Use:   "hw",
		Short: "Talk to a real SDI controller through /dev/mem and UIO",
	}
	hw.AddCommand(newHWScanCmd(opts), newHWStatusCmd(opts))
	root.AddCommand(hw)
}

func newHWScanCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "List UIO devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := configureLogging(opts); err != nil {
				return err
			}
			devs, err := linux.ScanUIO()
			if err != nil {
				return err
			}
			for _, d := range devs {
				fmt.Fprintf(cmd.OutOrStdout(), "%-12s %-20s addr=0x%08x size=0x%x\n", d.Dev, d.Name, d.Addr, d.Size)
			}
			return nil
		},
	}
}

func newHWStatusCmd(opts *options) *cobra.Command {
	var (
		uioName string
		detect  string
		wp      string
		rca     uint16
	)
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Send SEND_STATUS to the card in a real slot and print the registers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := configureLogging(opts); err != nil {
				return err
			}
			v, err := sdi.LookupVariant(opts.variant)
			if err != nil {
				return err
			}

			info, err := linux.FindUIO(uioName)
			if err != nil {
				return err
			}
			base := info.Addr
			if base == 0 {
				base = linux.SDIBase
			}
			bus, err := linux.Map(base)
			if err != nil {
				return err
			}
			defer bus.Close()

			irq, err := linux.OpenUIO(info.Dev)
			if err != nil {
				return err
			}
			defer irq.Close()

			cd, wpPin, err := linux.Pins(detect, wp)
			if err != nil {
				return err
			}

			h, err := host.New(bus, host.Config{
				Name:         info.Name,
				Variant:      v,
				Detect:       cd,
				WriteProtect: wpPin,
				OnCardChange: func(present bool) {
					pkg.LogInfo(pkg.ComponentCard, "card changed", "present", present)
				},
			})
			if err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			if err := h.Start(ctx); err != nil {
				return err
			}
			defer h.Stop()

			irqDone := make(chan error, 1)
			go func() { irqDone <- irq.Run(ctx, h.OnInterrupt) }()
			if cd != nil {
				go func() { _ = linux.WatchDetect(ctx, cd, h.OnCardDetect) }()
			}

			if !h.CardPresent() {
				return pkg.ErrNoMedia
			}
			h.SetIOS(mmc.IOS{Clock: h.Limits().FMin, PowerMode: mmc.PowerOn, BusWidth: mmc.BusWidth1})

			done := make(chan *mmc.Request, 1)
			req := &mmc.Request{
				Cmd:  mmc.NewCommand(mmc.CmdSendStatus, uint32(rca)<<16, mmc.RspR1),
				Done: func(r *mmc.Request) { done <- r },
			}
			if err := h.Request(req); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			select {
			case r := <-done:
				fmt.Fprintf(out, "%s: resp=0x%08x err=%v read-only=%t\n", r.Cmd, r.Cmd.Resp[0], r.Err(), h.ReadOnly())
			case <-time.After(2 * time.Second):
				fmt.Fprintf(out, "%s: no completion\n", req.Cmd)
			}
			fmt.Fprint(out, h.Registers())
			fmt.Fprintf(out, "interrupts=%d missed=%d\n", irq.Count(), irq.Missed())

			cancel()
			if err := <-irqDone; err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&uioName, "uio", envString("UIO", "s3c2440-sdi"), "UIO device name bound to the SDI interrupt")
	cmd.Flags().StringVar(&detect, "detect", envString("DETECT_PIN", ""), "card-detect GPIO name")
	cmd.Flags().StringVar(&wp, "wp", envString("WP_PIN", ""), "write-protect GPIO name")
	cmd.Flags().Uint16Var(&rca, "rca", 0, "relative card address")
	return cmd
}
