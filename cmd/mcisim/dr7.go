package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ardnew/softmci/debug/hwbreak"
	"github.com/ardnew/softmci/pkg"
)

func newDR7Cmd(opts *options) *cobra.Command {
	var (
		exec   []string
		write  []string
		access []string
		dr7    uint64
	)
	cmd := &cobra.Command{
		Use:   "dr7",
		Short: "Encode hardware breakpoints into a DR7 value",
		Long: `dr7 places breakpoints in the four debug address slots and prints the ` +
			`DR7 value that arms them. Watchpoints take the form addr:len with len 1, 2 or 4.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := configureLogging(opts); err != nil {
				return err
			}

			var t hwbreak.Table
			place := func(specs []string, kind hwbreak.Kind) error {
				for _, spec := range specs {
					addr, length, err := parseBreak(spec, kind)
					if err != nil {
						return err
					}
					if _, err := t.Set(addr, length, kind); err != nil {
						return fmt.Errorf("%s %s: %w", kind, spec, err)
					}
				}
				return nil
			}
			if err := place(exec, hwbreak.Exec); err != nil {
				return err
			}
			if err := place(write, hwbreak.Write); err != nil {
				return err
			}
			if err := place(access, hwbreak.Access); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for i, s := range t.Slots() {
				if s.Enabled {
					fmt.Fprintf(out, "DR%d  0x%016x type=%d len=%d\n", i, s.Addr, s.Type, s.Len)
				}
			}
			next, changed := t.CorrectDR7(dr7)
			fmt.Fprintf(out, "DR7  0x%016x changed=%t\n", next, changed)
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&exec, "exec", nil, "execution breakpoint addresses")
	cmd.Flags().StringSliceVar(&write, "write", nil, "write watchpoints (addr:len)")
	cmd.Flags().StringSliceVar(&access, "access", nil, "access watchpoints (addr:len)")
	cmd.Flags().Uint64Var(&dr7, "from", 0, "current DR7 value")
	return cmd
}

func parseBreak(spec string, kind hwbreak.Kind) (uint64, int, error) {
	addrText, lenText, hasLen := strings.Cut(spec, ":")
	addr, err := strconv.ParseUint(addrText, 0, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: address %q", pkg.ErrInvalidParameter, addrText)
	}
	if kind == hwbreak.Exec {
		return addr, 0, nil
	}
	if !hasLen {
		return 0, 0, fmt.Errorf("%w: watchpoint %q needs a length", pkg.ErrInvalidParameter, spec)
	}
	length, err := strconv.Atoi(lenText)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: length %q", pkg.ErrInvalidParameter, lenText)
	}
	return addr, length, nil
}
