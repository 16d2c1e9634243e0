package main

import (
	"context"
	"fmt"

	"github.com/wippyai/qir-runtime/backend/sim"
	"github.com/wippyai/qir-runtime/backend/trace"
	"github.com/wippyai/qir-runtime/config"
	"github.com/wippyai/qir-runtime/output"
	"github.com/wippyai/qir-runtime/program"
	"github.com/wippyai/qir-runtime/runtime"
)

// session is one compiled program with its simulator and report.
type session struct {
	exec   *runtime.Executor
	sim    *sim.Simulator
	rec    *trace.Recorder
	report *output.Report
	path   string
}

func newSession(ctx context.Context, path, entry string, cfg config.Config) (*session, error) {
	var popts []program.Option
	if entry != "" {
		popts = append(popts, program.WithEntryPoint(entry))
	}
	prog, err := program.Load(path, popts...)
	if err != nil {
		return nil, err
	}

	exec, err := runtime.NewExecutor(ctx, prog,
		runtime.WithInterpreter(cfg.Engine.Interpreter),
		runtime.WithMemoryLimitPages(cfg.Engine.MemoryLimitPages),
	)
	if err != nil {
		return nil, err
	}

	simOpts := []sim.Option{sim.WithMaxQubits(cfg.Simulator.MaxQubits)}
	if cfg.Simulator.Seed != nil {
		simOpts = append(simOpts, sim.WithSeed(*cfg.Simulator.Seed))
	}
	s := sim.New(simOpts...)

	var reportOpts []output.ReportOption
	if cfg.Output.KeepShots {
		reportOpts = append(reportOpts, output.KeepShots())
	}
	report := output.NewReport(s, reportOpts...)

	return &session{
		exec:   exec,
		sim:    s,
		rec:    trace.New(trace.WithQuantum(s), trace.WithResult(report)),
		report: report,
		path:   path,
	}, nil
}

// shots runs the program n times, committing each shot to the report.
func (s *session) shots(ctx context.Context, n int) error {
	for i := range n {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.exec.Run(ctx, s.rec, s.rec); err != nil {
			s.report.Discard()
			return fmt.Errorf("shot %d: %w", i+1, err)
		}
		s.report.Commit()
	}
	return nil
}

func (s *session) summary() output.Summary {
	sum := s.report.Summary()
	sum.Source = s.path
	sum.Entry = s.exec.EntryPoint()
	return sum
}

func (s *session) close(ctx context.Context) error {
	return s.exec.Close(ctx)
}
