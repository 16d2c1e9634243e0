package main

import (
	"bytes"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/wippyai/qir-runtime/output"
)

var batchCmd = &cobra.Command{
	Use:   "batch [flags] <program.ll>...",
	Short: "Run several programs concurrently",
	Long:  `Run each program on its own executor and simulator, in parallel, and print the reports in argument order`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runBatch,
}

func init() {
	batchCmd.Flags().IntP("shots", "n", 1, "number of shots per program")
	batchCmd.Flags().Uint64("seed", 0, "simulator seed (random when unset)")
	batchCmd.Flags().StringP("format", "f", "text", "output format (text|json|msgpack)")
	batchCmd.Flags().IntP("jobs", "j", 0, "programs run at once (default GOMAXPROCS)")
	batchCmd.Flags().Bool("keep-going", false, "run the remaining programs after a failure")
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	format, err := output.ParseFormat(cfg.Output.Format)
	if err != nil {
		return err
	}
	jobs, _ := cmd.Flags().GetInt("jobs")
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	keepGoing, _ := cmd.Flags().GetBool("keep-going")
	useColor := colored(cfg.Output.Color)

	// each index is written by one goroutine only
	outputs := make([]bytes.Buffer, len(args))
	failures := make([]error, len(args))
	skipped := make([]bool, len(args))

	g, gctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(min(jobs, len(args)))
	for i, path := range args {
		g.Go(func() error {
			// gctx is only cancelled by an earlier failure or by the caller
			if gctx.Err() != nil {
				skipped[i] = true
				return nil
			}
			err := func() error {
				s, err := newSession(gctx, path, "", cfg)
				if err != nil {
					return err
				}
				defer s.close(gctx)
				if err := s.shots(gctx, cfg.Simulator.Shots); err != nil {
					return err
				}
				return output.Write(&outputs[i], format, s.summary(), useColor)
			}()
			if err != nil && !keepGoing && gctx.Err() != nil {
				skipped[i] = true
				return nil
			}
			if err != nil {
				failures[i] = fmt.Errorf("%s: %w", path, err)
				if !keepGoing {
					return failures[i]
				}
			}
			return nil
		})
	}
	waitErr := g.Wait()

	out := cmd.OutOrStdout()
	failed := 0
	for i := range args {
		if skipped[i] {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: skipped after an earlier failure\n", args[i])
			continue
		}
		if failures[i] != nil {
			failed++
			fmt.Fprintf(cmd.ErrOrStderr(), "%v\n", failures[i])
			continue
		}
		if _, err := outputs[i].WriteTo(out); err != nil {
			return err
		}
	}
	if waitErr != nil {
		return waitErr
	}
	if err := cmd.Context().Err(); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d programs failed", failed, len(args))
	}
	return nil
}
