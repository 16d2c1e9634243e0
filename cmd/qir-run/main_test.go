package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wippyai/qir-runtime/output"
)

func fixture(name string) string {
	return filepath.Join("..", "..", "runtime", "testdata", name)
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRunCommand_JSON(t *testing.T) {
	stdout, stderr, err := execute(t, "run", "--color", "never", "-n", "40", "--seed", "4", "-f", "json", "--trace", fixture("bell.ll"))
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	var sum output.Summary
	if err := json.Unmarshal([]byte(stdout), &sum); err != nil {
		t.Fatalf("decode %q: %v", stdout, err)
	}
	if sum.Shots != 40 || sum.Entry != "main" {
		t.Errorf("summary = %+v", sum)
	}
	for _, c := range sum.Counts {
		if c.Bits != "00" && c.Bits != "11" {
			t.Errorf("unexpected outcome %q", c.Bits)
		}
	}
	if !strings.Contains(stderr, "cnot q0 q1") {
		t.Errorf("trace missing from stderr: %q", stderr)
	}
}

func TestInspectCommand(t *testing.T) {
	stdout, _, err := execute(t, "inspect", "--color", "never", fixture("unknown_called.ll"))
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	for _, want := range []string{"entry point:", "__quantum__qis__teleport__body", "unresolved"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("output missing %q:\n%s", want, stdout)
		}
	}
}

func TestBatchCommand_ReportsFailures(t *testing.T) {
	stdout, stderr, err := execute(t, "batch", "--color", "never", "--keep-going", fixture("minimal.ll"), fixture("redefined.ll"))
	if err == nil || !strings.Contains(err.Error(), "1 of 2 programs failed") {
		t.Fatalf("batch error = %v", err)
	}
	if !strings.Contains(stdout, "minimal.ll") {
		t.Errorf("stdout missing minimal report: %q", stdout)
	}
	if !strings.Contains(stderr, "redefined.ll") {
		t.Errorf("stderr missing failure: %q", stderr)
	}
}

func TestBatchCommand_StopsAtFirstFailure(t *testing.T) {
	stdout, stderr, err := execute(t, "batch", "--color", "never", "--keep-going=false", "-j", "1",
		fixture("redefined.ll"), fixture("minimal.ll"), fixture("bell.ll"))
	if err == nil || !strings.Contains(err.Error(), "redefined.ll") {
		t.Fatalf("batch error = %v", err)
	}
	if strings.Contains(stderr, "context canceled") {
		t.Errorf("cancelled programs reported as failures:\n%s", stderr)
	}
	for _, name := range []string{"minimal.ll", "bell.ll"} {
		if !strings.Contains(stderr, name+": skipped after an earlier failure") {
			t.Errorf("stderr missing skip notice for %s:\n%s", name, stderr)
		}
	}
	if stdout != "" {
		t.Errorf("stdout = %q, want no reports", stdout)
	}
}

func TestNewLogger(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		if _, err := newLogger(level); err != nil {
			t.Errorf("newLogger(%q): %v", level, err)
		}
	}
	if _, err := newLogger("loud"); err == nil {
		t.Error("newLogger accepted an unknown level")
	}
}

func TestColored(t *testing.T) {
	if !colored("always") {
		t.Error("always should enable color")
	}
	if colored("never") {
		t.Error("never should disable color")
	}
	t.Setenv("NO_COLOR", "1")
	if colored("auto") {
		t.Error("auto should honour NO_COLOR")
	}
}
