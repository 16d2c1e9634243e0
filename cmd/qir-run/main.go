package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"

	"github.com/wippyai/qir-runtime/backend/sim"
	"github.com/wippyai/qir-runtime/backend/trace"
	"github.com/wippyai/qir-runtime/config"
	"github.com/wippyai/qir-runtime/engine"
	"github.com/wippyai/qir-runtime/lower"
	"github.com/wippyai/qir-runtime/program"
	"github.com/wippyai/qir-runtime/runtime"
)

var rootCmd = &cobra.Command{
	Use:           "qir-run",
	Short:         "Execute QIR programs",
	Long:          `qir-run compiles LLVM IR quantum programs and runs them on a state-vector simulator`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.Version = version

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("config", "", "TOML configuration file")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().String("color", "", "colorize output (auto|always|never)")
	rootCmd.PersistentFlags().Bool("interpreter", false, "run programs on the interpreter instead of native code")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads --config, then applies the persistent flags the user
// set explicitly.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()
	path, _ := cmd.Flags().GetString("config")
	if path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return cfg, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Log.Level, _ = flags.GetString("log-level")
	}
	if flags.Changed("color") {
		cfg.Output.Color, _ = flags.GetString("color")
	}
	if flags.Changed("interpreter") {
		cfg.Engine.Interpreter, _ = flags.GetBool("interpreter")
	}
	if flags.Lookup("shots") != nil && flags.Changed("shots") {
		cfg.Simulator.Shots, _ = flags.GetInt("shots")
	}
	if flags.Lookup("seed") != nil && flags.Changed("seed") {
		seed, _ := flags.GetUint64("seed")
		cfg.Simulator.Seed = &seed
	}
	if flags.Lookup("format") != nil && flags.Changed("format") {
		cfg.Output.Format, _ = flags.GetString("format")
	}
	if flags.Lookup("keep-shots") != nil && flags.Changed("keep-shots") {
		cfg.Output.KeepShots, _ = flags.GetBool("keep-shots")
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	logger, err := newLogger(cfg.Log.Level)
	if err != nil {
		return cfg, err
	}
	setLoggers(logger)
	return cfg, nil
}

// newLogger builds a development logger for debug and a production logger
// otherwise, both writing to stderr.
func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	var zc zap.Config
	if lvl == zapcore.DebugLevel {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
		zc.Encoding = "console"
		zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	zc.Level = zap.NewAtomicLevelAt(lvl)
	zc.OutputPaths = []string{"stderr"}
	return zc.Build()
}

func setLoggers(l *zap.Logger) {
	program.SetLogger(l.Named("program"))
	engine.SetLogger(l.Named("engine"))
	lower.SetLogger(l.Named("lower"))
	runtime.SetLogger(l.Named("runtime"))
	sim.SetLogger(l.Named("sim"))
	trace.SetLogger(l.Named("trace"))
}

// colored resolves the color setting against stdout.
func colored(setting string) bool {
	switch setting {
	case "always":
		return true
	case "never":
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isTerminal(os.Stdout)
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
