package main

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/ardnew/softmci/mmc"
	"github.com/ardnew/softmci/pkg"
	"github.com/ardnew/softmci/trace"
)

const blockSize = 512

type blockOptions struct {
	lba      uint32
	blocks   int
	segments int
	timeout  time.Duration
}

func (b *blockOptions) register(cmd *cobra.Command) {
	cmd.Flags().Uint32Var(&b.lba, "lba", 0, "first block")
	cmd.Flags().IntVar(&b.blocks, "blocks", 1, "number of blocks")
	cmd.Flags().IntVar(&b.segments, "segments", 1, "split the buffer into this many scatter segments")
	cmd.Flags().DurationVar(&b.timeout, "timeout", 5*time.Second, "per-request timeout")
}

// buffers splits n bytes into count segments. Segment lengths stay
// multiples of the FIFO word size.
func buffers(n, count int) ([][]byte, error) {
	if count <= 0 || n%(count*4) != 0 {
		return nil, fmt.Errorf("%w: cannot split %d bytes into %d segments", pkg.ErrInvalidParameter, n, count)
	}
	segs := make([][]byte, count)
	for i := range segs {
		segs[i] = make([]byte, n/count)
	}
	return segs, nil
}

func join(segs [][]byte) []byte {
	return bytes.Join(segs, nil)
}

func fillPattern(b []byte, seed byte) {
	for i := range b {
		b[i] = seed ^ byte(i) ^ byte(i>>8)
	}
}

// readBlocks reads b.blocks blocks from the card through the engine.
func readBlocks(ctx context.Context, s *session, b *blockOptions) ([]byte, error) {
	segs, err := buffers(b.blocks*blockSize, b.segments)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	req, err := s.do(ctx, mmc.ReadBlocks(b.lba, blockSize, segs...))
	if err != nil {
		return nil, err
	}
	if err := req.Err(); err != nil {
		return nil, fmt.Errorf("read lba %d: %w", b.lba, err)
	}
	return join(segs), nil
}

func newReadCmd(opts *options) *cobra.Command {
	var (
		b    blockOptions
		fill int
	)
	cmd := &cobra.Command{
		Use:   "read",
		Short: "Read blocks from the simulated card and hex dump them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer s.close()

			if fill >= 0 {
				img := make([]byte, b.blocks*blockSize)
				fillPattern(img, byte(fill))
				if err := s.card.WriteAt(img, int(b.lba)*blockSize); err != nil {
					return err
				}
			}

			data, err := readBlocks(cmd.Context(), s, &b)
			if err != nil {
				return err
			}
			dump(cmd.OutOrStdout(), b.lba, data)
			return nil
		},
	}
	b.register(cmd)
	cmd.Flags().IntVar(&fill, "fill", -1, "preload the card with a pattern seeded by this byte (-1 leaves it blank)")
	return cmd
}

func dump(w io.Writer, lba uint32, data []byte) {
	for i := 0; i < len(data); i += blockSize {
		fmt.Fprintf(w, "block %d:\n%s", int(lba)+i/blockSize, hex.Dump(data[i:i+blockSize]))
	}
}

func newWriteCmd(opts *options) *cobra.Command {
	var (
		b    blockOptions
		seed uint8
	)
	cmd := &cobra.Command{
		Use:   "write",
		Short: "Write a pattern to the simulated card and verify it by reading back",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer s.close()

			segs, err := buffers(b.blocks*blockSize, b.segments)
			if err != nil {
				return err
			}
			for i, seg := range segs {
				fillPattern(seg, seed+byte(i))
			}
			want := join(segs)

			ctx, cancel := context.WithTimeout(cmd.Context(), b.timeout)
			defer cancel()
			req, err := s.do(ctx, mmc.WriteBlocks(b.lba, blockSize, segs...))
			if err != nil {
				return err
			}
			if err := req.Err(); err != nil {
				return fmt.Errorf("write lba %d: %w", b.lba, err)
			}

			got, err := readBlocks(cmd.Context(), s, &b)
			if err != nil {
				return err
			}
			if !bytes.Equal(want, got) {
				return fmt.Errorf("verify lba %d: read back differs from written data", b.lba)
			}

			st := s.stats.Stats(trace.KindRequest)
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d bytes at lba %d, verified (%d requests, mean %v)\n",
				req.Data.BytesXfered, b.lba, st.Count, st.MeanTime())
			return nil
		},
	}
	b.register(cmd)
	cmd.Flags().Uint8Var(&seed, "seed", 0xa5, "pattern seed")
	return cmd
}
