package output_test

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	qir "github.com/wippyai/qir-runtime"
	"github.com/wippyai/qir-runtime/backend/sim"
	"github.com/wippyai/qir-runtime/output"
	"github.com/wippyai/qir-runtime/program"
	"github.com/wippyai/qir-runtime/runtime"
)

// fixed answers ReadResult from a map.
type fixed map[uint64]qir.QState

func (f fixed) ReadResult(r qir.Result) (qir.QState, error) { return f[r.Value], nil }

func TestReportCounts(t *testing.T) {
	answers := fixed{}
	report := output.NewReport(answers)

	shots := []struct {
		r0, r1 qir.QState
	}{
		{qir.Zero, qir.Zero},
		{qir.One, qir.One},
		{qir.One, qir.One},
		{qir.Zero, qir.One},
	}
	for _, s := range shots {
		answers[0], answers[1] = s.r0, s.r1
		if err := report.ArrayRecordOutput(2, qir.NoTag); err != nil {
			t.Fatal(err)
		}
		if err := report.ResultRecordOutput(qir.Result{Value: 0}, qir.NewTag("a")); err != nil {
			t.Fatal(err)
		}
		if err := report.ResultRecordOutput(qir.Result{Value: 1}, qir.NewTag("b")); err != nil {
			t.Fatal(err)
		}
		report.Commit()
	}

	// discarded records never reach the counts
	report.IntRecordOutput(5, qir.NoTag)
	report.Discard()

	sum := report.Summary()
	if sum.Shots != 4 {
		t.Errorf("Shots = %d", sum.Shots)
	}
	want := []output.Count{{Bits: "00", Shots: 1}, {Bits: "01", Shots: 1}, {Bits: "11", Shots: 2}}
	if len(sum.Counts) != len(want) {
		t.Fatalf("Counts = %+v", sum.Counts)
	}
	for i := range want {
		if sum.Counts[i] != want[i] {
			t.Errorf("Counts[%d] = %+v, want %+v", i, sum.Counts[i], want[i])
		}
	}
	if sum.Last == nil || len(sum.Last.Entries) != 3 || sum.Last.Entries[1].Tag != "a" {
		t.Errorf("Last = %+v", sum.Last)
	}
	if sum.All != nil {
		t.Error("shots retained without KeepShots")
	}
}

func TestReportValues(t *testing.T) {
	report := output.NewReport(nil, output.KeepShots())
	report.TupleRecordOutput(2, qir.NoTag)
	report.BoolRecordOutput(true, qir.NewTag("flag"))
	report.IntRecordOutput(-3, qir.NoTag)
	shot := report.Commit()

	want := []output.Entry{
		{Kind: output.KindTuple, Value: 2},
		{Kind: output.KindBool, Tag: "flag", Value: 1},
		{Kind: output.KindInt, Value: -3},
	}
	for i := range want {
		if shot.Entries[i] != want[i] {
			t.Errorf("entry %d = %+v, want %+v", i, shot.Entries[i], want[i])
		}
	}
	if shot.Bits() != "" {
		t.Errorf("Bits = %q", shot.Bits())
	}
	if len(report.Summary().All) != 1 {
		t.Error("KeepShots did not retain the shot")
	}
	if err := report.ResultRecordOutput(qir.Result{}, qir.NoTag); err == nil {
		t.Error("result recorded without a reader")
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want output.Format
		ok   bool
	}{
		{"text", output.FormatText, true},
		{"JSON", output.FormatJSON, true},
		{"msgpack", output.FormatMsgpack, true},
		{"yaml", "", false},
	}
	for _, tt := range tests {
		got, err := output.ParseFormat(tt.in)
		if (err == nil) != tt.ok || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func runBell(t *testing.T, shots int) output.Summary {
	t.Helper()
	ctx := context.Background()
	prog, err := program.Load(filepath.Join("..", "runtime", "testdata", "bell.ll"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	exec, err := runtime.NewExecutor(ctx, prog)
	if err != nil {
		t.Fatalf("NewExecutor: %v", err)
	}
	defer exec.Close(ctx)

	s := sim.New(sim.WithSeed(11))
	report := output.NewReport(s)
	for range shots {
		if err := exec.Run(ctx, s, report); err != nil {
			t.Fatalf("Run: %v", err)
		}
		report.Commit()
	}
	sum := report.Summary()
	sum.Source = "bell.ll"
	sum.Entry = exec.EntryPoint()
	return sum
}

func TestBellRendering(t *testing.T) {
	sum := runBell(t, 64)
	for _, c := range sum.Counts {
		if c.Bits != "00" && c.Bits != "11" {
			t.Errorf("uncorrelated outcome %s", c.Bits)
		}
	}

	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		if err := output.Write(&buf, output.FormatText, sum, false); err != nil {
			t.Fatal(err)
		}
		text := buf.String()
		for _, want := range []string{"bell.ll @main (64 shots)", "last shot", "array  2", "result"} {
			if !strings.Contains(text, want) {
				t.Errorf("text output missing %q:\n%s", want, text)
			}
		}
		if strings.Contains(text, "\x1b[") {
			t.Error("uncoloured output contains escape codes")
		}
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		if err := output.Write(&buf, output.FormatJSON, sum, false); err != nil {
			t.Fatal(err)
		}
		var got output.Summary
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if got.Shots != 64 || got.Entry != "main" || got.Last == nil {
			t.Errorf("decoded %+v", got)
		}
		if got.Last.Entries[1].Tag != "r0" {
			t.Errorf("first result tag = %q", got.Last.Entries[1].Tag)
		}
	})

	t.Run("msgpack", func(t *testing.T) {
		var buf bytes.Buffer
		if err := output.Write(&buf, output.FormatMsgpack, sum, false); err != nil {
			t.Fatal(err)
		}
		got, err := output.ReadMsgpack(&buf)
		if err != nil {
			t.Fatal(err)
		}
		if got.Shots != sum.Shots || len(got.Counts) != len(sum.Counts) {
			t.Errorf("decoded %+v", got)
		}
	})
}
