package sim

import (
	"math"
	"strings"
	"testing"

	qir "github.com/wippyai/qir-runtime"
)

func q(v uint64) qir.Qubit  { return qir.Qubit{Value: v} }
func r(v uint64) qir.Result { return qir.Result{Value: v} }

func setUp(t *testing.T, s *Simulator, qubits uint64) {
	t.Helper()
	if err := s.SetUp(qir.EntryPointAttrs{RequiredNumQubits: qubits, RequiredNumResults: qubits}); err != nil {
		t.Fatalf("SetUp: %v", err)
	}
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
}

func TestSetUpRejects(t *testing.T) {
	tests := []struct {
		qubits uint64
		want   string
	}{
		{0, "input is not a quantum program"},
		{5, "simulator supports 4"},
	}
	for _, tt := range tests {
		err := New(WithMaxQubits(4)).SetUp(qir.EntryPointAttrs{RequiredNumQubits: tt.qubits})
		if err == nil || !strings.Contains(err.Error(), tt.want) {
			t.Errorf("SetUp(%d) = %v, want %q", tt.qubits, err, tt.want)
		}
	}
}

func TestMaxQubitsClamped(t *testing.T) {
	tests := []struct {
		n    int
		want int
	}{
		{-3, 1},
		{0, 1},
		{4, 4},
		{QubitLimit, QubitLimit},
		{63, QubitLimit},
		{1000, QubitLimit},
	}
	for _, tt := range tests {
		s := New(WithMaxQubits(tt.n))
		if got := s.MaxQubits(); got != tt.want {
			t.Errorf("WithMaxQubits(%d): MaxQubits() = %d, want %d", tt.n, got, tt.want)
		}
	}

	err := New(WithMaxQubits(-1)).SetUp(qir.EntryPointAttrs{RequiredNumQubits: 2})
	if err == nil || !strings.Contains(err.Error(), "simulator supports 1") {
		t.Errorf("SetUp with negative limit = %v", err)
	}
	err = New(WithMaxQubits(100)).SetUp(qir.EntryPointAttrs{RequiredNumQubits: 64})
	if err == nil || !strings.Contains(err.Error(), "simulator supports 30") {
		t.Errorf("SetUp of 64 qubits = %v", err)
	}
}

func TestDeterministicGates(t *testing.T) {
	tests := []struct {
		name  string
		gates func(s *Simulator) error
		want  []qir.QState
	}{
		{"identity", func(*Simulator) error { return nil }, []qir.QState{qir.Zero, qir.Zero, qir.Zero}},
		{"x", func(s *Simulator) error { return s.X(q(1)) }, []qir.QState{qir.Zero, qir.One, qir.Zero}},
		{"y", func(s *Simulator) error { return s.Y(q(0)) }, []qir.QState{qir.One, qir.Zero, qir.Zero}},
		{"cnot", func(s *Simulator) error {
			if err := s.X(q(0)); err != nil {
				return err
			}
			return s.CNOT(q(0), q(2))
		}, []qir.QState{qir.One, qir.Zero, qir.One}},
		{"cnot control zero", func(s *Simulator) error { return s.CNOT(q(0), q(1)) }, []qir.QState{qir.Zero, qir.Zero, qir.Zero}},
		{"ccx", func(s *Simulator) error {
			if err := s.X(q(0)); err != nil {
				return err
			}
			if err := s.X(q(1)); err != nil {
				return err
			}
			return s.CCX(q(0), q(1), q(2))
		}, []qir.QState{qir.One, qir.One, qir.One}},
		{"swap", func(s *Simulator) error {
			if err := s.X(q(0)); err != nil {
				return err
			}
			return s.Swap(q(0), q(2))
		}, []qir.QState{qir.Zero, qir.Zero, qir.One}},
		{"h h", func(s *Simulator) error {
			if err := s.H(q(0)); err != nil {
				return err
			}
			return s.H(q(0))
		}, []qir.QState{qir.Zero, qir.Zero, qir.Zero}},
		{"h s s h", func(s *Simulator) error {
			for _, g := range []func(qir.Qubit) error{s.H, s.S, s.S, s.H} {
				if err := g(q(0)); err != nil {
					return err
				}
			}
			return nil
		}, []qir.QState{qir.One, qir.Zero, qir.Zero}},
		{"h t t t t h", func(s *Simulator) error {
			for _, g := range []func(qir.Qubit) error{s.H, s.T, s.T, s.T, s.T, s.H} {
				if err := g(q(1)); err != nil {
					return err
				}
			}
			return nil
		}, []qir.QState{qir.Zero, qir.One, qir.Zero}},
		{"h s sadj h", func(s *Simulator) error {
			for _, g := range []func(qir.Qubit) error{s.H, s.S, s.SAdj, s.H} {
				if err := g(q(0)); err != nil {
					return err
				}
			}
			return nil
		}, []qir.QState{qir.Zero, qir.Zero, qir.Zero}},
		{"rx pi", func(s *Simulator) error { return s.RX(math.Pi, q(2)) }, []qir.QState{qir.Zero, qir.Zero, qir.One}},
		{"ry pi", func(s *Simulator) error { return s.RY(math.Pi, q(1)) }, []qir.QState{qir.Zero, qir.One, qir.Zero}},
		{"rz keeps basis", func(s *Simulator) error { return s.RZ(1.3, q(0)) }, []qir.QState{qir.Zero, qir.Zero, qir.Zero}},
		{"cz phase kickback", func(s *Simulator) error {
			// H(1) CZ(0,1) H(1) with q0=|1> acts as X on q1
			for _, g := range []func() error{
				func() error { return s.X(q(0)) },
				func() error { return s.H(q(1)) },
				func() error { return s.CZ(q(0), q(1)) },
				func() error { return s.H(q(1)) },
			} {
				if err := g(); err != nil {
					return err
				}
			}
			return nil
		}, []qir.QState{qir.One, qir.One, qir.Zero}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for seed := range uint64(8) {
				s := New(WithSeed(seed))
				setUp(t, s, 3)
				must(t, tt.gates(s))
				for i, want := range tt.want {
					must(t, s.MZ(q(uint64(i)), r(uint64(i))))
					got, err := s.ReadResult(r(uint64(i)))
					must(t, err)
					if got != want {
						t.Fatalf("seed %d: qubit %d measured %s, want %s", seed, i, got, want)
					}
				}
			}
		})
	}
}

func TestBellCorrelation(t *testing.T) {
	s := New(WithSeed(42))
	ones := 0
	const shots = 400
	for range shots {
		setUp(t, s, 2)
		must(t, s.H(q(0)))
		must(t, s.CNOT(q(0), q(1)))
		must(t, s.MZ(q(0), r(0)))
		must(t, s.MZ(q(1), r(1)))
		a, _ := s.ReadResult(r(0))
		b, _ := s.ReadResult(r(1))
		if a != b {
			t.Fatalf("uncorrelated bell outcome %s%s", a, b)
		}
		if a == qir.One {
			ones++
		}
		must(t, s.TearDown())
	}
	if ones < shots/4 || ones > shots*3/4 {
		t.Errorf("%d of %d shots measured |11>", ones, shots)
	}
}

func TestSeedReproducible(t *testing.T) {
	run := func() []qir.QState {
		s := New(WithSeed(7))
		var out []qir.QState
		for range 32 {
			setUp(t, s, 1)
			must(t, s.H(q(0)))
			must(t, s.MZ(q(0), r(0)))
			v, _ := s.ReadResult(r(0))
			out = append(out, v)
		}
		return out
	}
	a, b := run(), run()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("shot %d differs between runs with the same seed", i)
		}
	}
}

func TestMeasurementCollapses(t *testing.T) {
	s := New(WithSeed(3))
	setUp(t, s, 1)
	must(t, s.H(q(0)))
	p, err := s.Probability(q(0))
	must(t, err)
	if math.Abs(p-0.5) > 1e-9 {
		t.Errorf("P(1) after H = %v", p)
	}
	must(t, s.MZ(q(0), r(0)))
	first, _ := s.ReadResult(r(0))
	for range 5 {
		must(t, s.MZ(q(0), r(1)))
		again, _ := s.ReadResult(r(1))
		if again != first {
			t.Fatal("repeated measurement disagrees with the first")
		}
	}
}

func TestResets(t *testing.T) {
	s := New(WithSeed(1))
	setUp(t, s, 2)
	must(t, s.X(q(0)))
	must(t, s.MResetZ(q(0), r(0)))
	if v, _ := s.ReadResult(r(0)); v != qir.One {
		t.Errorf("MResetZ stored %s, want 1", v)
	}
	must(t, s.X(q(1)))
	must(t, s.Reset(q(1)))
	for i := range uint64(2) {
		p, err := s.Probability(q(i))
		must(t, err)
		if p > 1e-9 {
			t.Errorf("qubit %d not reset: P(1) = %v", i, p)
		}
	}
}

func TestRZZKeepsProbabilities(t *testing.T) {
	s := New(WithSeed(1))
	setUp(t, s, 2)
	must(t, s.H(q(0)))
	must(t, s.RZZ(0.7, q(0), q(1)))
	p, err := s.Probability(q(0))
	must(t, err)
	if math.Abs(p-0.5) > 1e-9 {
		t.Errorf("P(1) = %v after RZZ", p)
	}
}

func TestGateErrors(t *testing.T) {
	s := New()
	if err := s.H(q(0)); err == nil {
		t.Error("gate accepted before SetUp")
	}
	setUp(t, s, 2)
	tests := []struct {
		name string
		err  error
	}{
		{"out of range", s.X(q(2))},
		{"same control and target", s.CNOT(q(1), q(1))},
		{"duplicate controls", s.CCX(q(0), q(0), q(1))},
		{"swap with itself", s.Swap(q(0), q(0))},
	}
	for _, tt := range tests {
		if tt.err == nil {
			t.Errorf("%s: expected error", tt.name)
		}
	}
	if v, err := s.ReadResult(r(9)); err != nil || v != qir.Zero {
		t.Errorf("unmeasured result = %s, %v", v, err)
	}
}
