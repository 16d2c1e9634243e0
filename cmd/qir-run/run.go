package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wippyai/qir-runtime/output"
)

var runCmd = &cobra.Command{
	Use:   "run [flags] <program.ll>",
	Short: "Run a QIR program on the simulator",
	Long:  `Compile a QIR program, run it for the requested number of shots and print the outcome counts`,
	Args:  cobra.ExactArgs(1),
	RunE:  runProgram,
}

func init() {
	runCmd.Flags().IntP("shots", "n", 1, "number of shots")
	runCmd.Flags().Uint64("seed", 0, "simulator seed (random when unset)")
	runCmd.Flags().StringP("format", "f", "text", "output format (text|json|msgpack)")
	runCmd.Flags().String("entry", "", "entry routine name (default: the entry_point attribute)")
	runCmd.Flags().Bool("keep-shots", false, "include every shot in the output")
	runCmd.Flags().Bool("trace", false, "print the callbacks of the last shot")
	runCmd.Flags().BoolP("interactive", "i", false, "interactive mode with TUI")
}

func runProgram(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	entry, _ := cmd.Flags().GetString("entry")
	showTrace, _ := cmd.Flags().GetBool("trace")
	interactive, _ := cmd.Flags().GetBool("interactive")

	if interactive {
		return runInteractive(args[0], entry, cfg)
	}

	ctx := cmd.Context()
	s, err := newSession(ctx, args[0], entry, cfg)
	if err != nil {
		return err
	}
	defer s.close(ctx)

	if err := s.shots(ctx, cfg.Simulator.Shots); err != nil {
		return err
	}

	format, err := output.ParseFormat(cfg.Output.Format)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if err := output.Write(out, format, s.summary(), colored(cfg.Output.Color)); err != nil {
		return err
	}
	if showTrace {
		fmt.Fprintln(cmd.ErrOrStderr(), "trace:")
		for _, c := range s.rec.Commands() {
			fmt.Fprintf(cmd.ErrOrStderr(), "  %s\n", c)
		}
	}
	return nil
}
