package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/ardnew/softmci/host"
	"github.com/ardnew/softmci/host/hal/sim"
	"github.com/ardnew/softmci/host/sdi"
	"github.com/ardnew/softmci/mmc"
	"github.com/ardnew/softmci/pkg"
	"github.com/ardnew/softmci/pkg/prof"
	"github.com/ardnew/softmci/trace"
)

// session is a running engine wired to a simulated controller.
type session struct {
	host  *host.Host
	ctrl  *sim.Controller
	card  *sim.Card
	stats *trace.StatsTracer

	writers []trace.Writer
	prof    *prof.Session
}

// configureLogging applies the logging flags.
func configureLogging(opts *options) error {
	level, err := pkg.ParseLogLevel(opts.logLevel)
	if err != nil {
		return err
	}
	pkg.SetLogLevel(level)
	if opts.logJSON {
		pkg.SetLogFormat(pkg.LogFormatJSON, os.Stderr)
	} else {
		pkg.SetLogFormat(pkg.LogFormatText, os.Stderr)
	}
	return nil
}

// openSession starts the simulator and the engine described by opts.
func openSession(ctx context.Context, opts *options) (*session, error) {
	if err := configureLogging(opts); err != nil {
		return nil, err
	}
	v, err := sdi.LookupVariant(opts.variant)
	if err != nil {
		return nil, err
	}
	if opts.cardBlocks <= 0 {
		return nil, fmt.Errorf("%w: card blocks %d", pkg.ErrInvalidParameter, opts.cardBlocks)
	}

	s := &session{
		card:  sim.NewCard(opts.cardBlocks),
		stats: trace.NewStatsTracer(nil),
	}
	s.ctrl = sim.New(v, s.card)

	if opts.cpuProfile != "" {
		if !prof.Enabled {
			pkg.LogWarn(pkg.ComponentHost, "profiling not compiled in; rebuild with -tags profile")
		}
		if s.prof, err = prof.Start(prof.Config{CPUPath: opts.cpuProfile}); err != nil {
			return nil, err
		}
	}

	tracers := []trace.Tracer{s.stats}
	if opts.traceCSV != "" {
		tracers = append(tracers, s.addWriter(trace.NewCSVWriter(opts.traceCSV)))
	}
	if opts.traceSQLite != "" {
		tracers = append(tracers, s.addWriter(trace.NewSQLiteWriter(opts.traceSQLite)))
	}
	for _, w := range s.writers {
		if err := w.Init(); err != nil {
			s.close()
			return nil, fmt.Errorf("trace: %w", err)
		}
	}

	cfg := host.Config{
		Name:    "mcisim",
		Variant: v,
		UseDMA:  opts.dma,
	}
	if opts.dma {
		cfg.DMA = s.ctrl.DMA()
	}
	s.host, err = host.New(s.ctrl, cfg)
	if err != nil {
		s.close()
		return nil, err
	}
	s.host.SetTracer(trace.Tee(tracers...))
	s.ctrl.SetInterruptHandler(s.host.OnInterrupt)

	if err := s.ctrl.Start(ctx); err != nil {
		s.close()
		return nil, err
	}
	if err := s.host.Start(ctx); err != nil {
		s.close()
		return nil, err
	}

	s.host.SetIOS(mmc.IOS{
		Clock:     s.host.Limits().FMax,
		PowerMode: mmc.PowerOn,
		BusWidth:  mmc.BusWidth4,
	})
	return s, nil
}

func (s *session) addWriter(w trace.Writer) trace.Tracer {
	s.writers = append(s.writers, w)
	return trace.NewRecorder(w)
}

// do submits req and waits for it to complete.
func (s *session) do(ctx context.Context, req *mmc.Request) (*mmc.Request, error) {
	done := make(chan *mmc.Request, 1)
	req.Done = func(r *mmc.Request) { done <- r }
	if err := s.host.Request(req); err != nil {
		return nil, err
	}
	select {
	case r := <-done:
		return r, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", req.Cmd, ctx.Err())
	}
}

// close stops the engine and simulator and closes the trace writers,
// which flush what they buffered.
func (s *session) close() error {
	var errs []error
	if s.host != nil {
		errs = append(errs, s.host.Stop())
	}
	errs = append(errs, s.ctrl.Stop())
	for _, w := range s.writers {
		errs = append(errs, w.Close())
	}
	errs = append(errs, s.prof.Stop())
	return errors.Join(errs...)
}
