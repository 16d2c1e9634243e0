package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [flags] <program.ll>",
	Short: "Show the entry point, attributes and symbol bindings of a program",
	Args:  cobra.ExactArgs(1),
	RunE:  inspectProgram,
}

func init() {
	inspectCmd.Flags().String("entry", "", "entry routine name (default: the entry_point attribute)")
}

var (
	labelColor   = color.New(color.Bold)
	boundColor   = color.New(color.FgGreen)
	unboundColor = color.New(color.FgRed)
)

func inspectProgram(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	entry, _ := cmd.Flags().GetString("entry")

	ctx := cmd.Context()
	s, err := newSession(ctx, args[0], entry, cfg)
	if err != nil {
		return err
	}
	defer s.close(ctx)

	if colored(cfg.Output.Color) {
		for _, c := range []*color.Color{labelColor, boundColor, unboundColor} {
			c.EnableColor()
		}
	} else {
		for _, c := range []*color.Color{labelColor, boundColor, unboundColor} {
			c.DisableColor()
		}
	}

	var b strings.Builder
	attrs := s.exec.EntryPointAttrs()
	flags := s.exec.ModuleFlags()
	row := func(label string, value any) {
		fmt.Fprintf(&b, "%s %v\n", labelColor.Sprintf("%-22s", label+":"), value)
	}
	row("source", s.exec.Source())
	row("entry point", s.exec.EntryPoint())
	row("required qubits", attrs.RequiredNumQubits)
	row("required results", attrs.RequiredNumResults)
	row("profiles", orNone(attrs.Profiles))
	row("output labeling", orNone(attrs.OutputLabelingSchema))
	row("qir version", fmt.Sprintf("%d.%d", flags.MajorVersion, flags.MinorVersion))
	row("dynamic qubits", flags.DynamicQubitManagement)
	row("dynamic results", flags.DynamicResultManagement)

	b.WriteString(labelColor.Sprint("symbols:") + "\n")
	for _, sym := range s.exec.Bindings() {
		status := boundColor.Sprint("bound")
		if !sym.Bound {
			status = unboundColor.Sprint("unresolved")
		}
		fmt.Fprintf(&b, "  %-40s %s\n", sym.Name, status)
	}

	_, err = fmt.Fprint(cmd.OutOrStdout(), b.String())
	return err
}

func orNone(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
