package sim

import (
	"fmt"
	"math"
	"math/rand/v2"

	"go.uber.org/zap"

	qir "github.com/wippyai/qir-runtime"
)

// DefaultMaxQubits bounds the state vector to 2^20 amplitudes.
const DefaultMaxQubits = 20

// QubitLimit is the largest MaxQubits a Simulator accepts: 2^30 amplitudes
// take 16 GiB.
const QubitLimit = 30

// Option configures a Simulator.
type Option func(*Simulator)

// WithSeed makes measurement outcomes reproducible.
func WithSeed(seed uint64) Option {
	return func(s *Simulator) {
		s.seed = seed
		s.seeded = true
	}
}

// WithMaxQubits changes the largest program SetUp accepts. n is clamped to
// 1..QubitLimit.
func WithMaxQubits(n int) Option {
	return func(s *Simulator) {
		s.maxQubits = min(max(n, 1), QubitLimit)
	}
}

// Simulator is a state-vector quantum backend. Gates are applied as they
// arrive; measurements collapse the state and store the outcome.
//
// A Simulator is not safe for concurrent use. Reuse it across runs: SetUp
// resets the state, the random source carries on.
type Simulator struct {
	rng       *rand.Rand
	state     []complex128
	results   map[uint64]qir.QState
	attrs     qir.EntryPointAttrs
	seed      uint64
	seeded    bool
	maxQubits int
	qubits    int
	gates     int
}

// New creates a simulator.
func New(opts ...Option) *Simulator {
	s := &Simulator{maxQubits: DefaultMaxQubits}
	for _, opt := range opts {
		opt(s)
	}
	if s.seeded {
		s.rng = rand.New(rand.NewPCG(s.seed, s.seed^0x9e3779b97f4a7c15))
	} else {
		s.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return s
}

// SetUp allocates |0...0> for the program's qubits.
func (s *Simulator) SetUp(attrs qir.EntryPointAttrs) error {
	n := attrs.RequiredNumQubits
	if n == 0 {
		return fmt.Errorf("input is not a quantum program (no required qubits)")
	}
	if n > uint64(s.maxQubits) {
		return fmt.Errorf("program requires %d qubits, simulator supports %d", n, s.maxQubits)
	}
	s.attrs = attrs
	s.qubits = int(n)
	s.state = make([]complex128, 1<<n)
	s.state[0] = 1
	s.results = make(map[uint64]qir.QState, attrs.RequiredNumResults)
	s.gates = 0
	Logger().Debug("simulator set up",
		zap.Int("qubits", s.qubits),
		zap.Uint64("results", attrs.RequiredNumResults),
	)
	return nil
}

// TearDown releases the state vector. Stored results stay readable.
func (s *Simulator) TearDown() error {
	Logger().Debug("simulator torn down", zap.Int("gates", s.gates))
	s.state = nil
	return nil
}

// Initialize accepts the runtime initialization call.
func (s *Simulator) Initialize(qir.Tag) error {
	return nil
}

// MaxQubits returns the largest qubit count SetUp accepts.
func (s *Simulator) MaxQubits() int {
	return s.maxQubits
}

// Qubits returns the number of simulated qubits.
func (s *Simulator) Qubits() int {
	return s.qubits
}

// Results returns a copy of the stored measurement outcomes.
func (s *Simulator) Results() map[uint64]qir.QState {
	out := make(map[uint64]qir.QState, len(s.results))
	for k, v := range s.results {
		out[k] = v
	}
	return out
}

// Probability returns the probability of measuring q as |1>.
func (s *Simulator) Probability(q qir.Qubit) (float64, error) {
	bit, err := s.bit(q)
	if err != nil {
		return 0, err
	}
	return s.prob1(bit), nil
}

func (s *Simulator) bit(q qir.Qubit) (int, error) {
	if s.state == nil {
		return 0, fmt.Errorf("simulator is not set up")
	}
	if q.Value >= uint64(s.qubits) {
		return 0, fmt.Errorf("%s out of range: program declares %d qubits", q, s.qubits)
	}
	return 1 << q.Value, nil
}

func (s *Simulator) H(q qir.Qubit) error    { return s.apply1(q, hadamard) }
func (s *Simulator) X(q qir.Qubit) error    { return s.apply1(q, pauliX) }
func (s *Simulator) Y(q qir.Qubit) error    { return s.apply1(q, pauliY) }
func (s *Simulator) Z(q qir.Qubit) error    { return s.apply1(q, pauliZ) }
func (s *Simulator) S(q qir.Qubit) error    { return s.apply1(q, phase(math.Pi/2)) }
func (s *Simulator) T(q qir.Qubit) error    { return s.apply1(q, phase(math.Pi/4)) }
func (s *Simulator) SAdj(q qir.Qubit) error { return s.apply1(q, phase(-math.Pi/2)) }
func (s *Simulator) TAdj(q qir.Qubit) error { return s.apply1(q, phase(-math.Pi/4)) }

func (s *Simulator) RX(theta float64, q qir.Qubit) error { return s.apply1(q, rx(theta)) }
func (s *Simulator) RY(theta float64, q qir.Qubit) error { return s.apply1(q, ry(theta)) }
func (s *Simulator) RZ(theta float64, q qir.Qubit) error { return s.apply1(q, rz(theta)) }

func (s *Simulator) CNOT(control, target qir.Qubit) error {
	return s.controlled(pauliX, target, control)
}

func (s *Simulator) CX(control, target qir.Qubit) error {
	return s.controlled(pauliX, target, control)
}

func (s *Simulator) CY(control, target qir.Qubit) error {
	return s.controlled(pauliY, target, control)
}

func (s *Simulator) CZ(control, target qir.Qubit) error {
	return s.controlled(pauliZ, target, control)
}

func (s *Simulator) CCX(c1, c2, target qir.Qubit) error {
	return s.controlled(pauliX, target, c1, c2)
}

// Swap exchanges two qubits.
func (s *Simulator) Swap(a, b qir.Qubit) error {
	ba, err := s.bit(a)
	if err != nil {
		return err
	}
	bb, err := s.bit(b)
	if err != nil {
		return err
	}
	if ba == bb {
		return fmt.Errorf("swap of %s with itself", a)
	}
	for i := range s.state {
		if i&ba != 0 && i&bb == 0 {
			j := i ^ ba ^ bb
			s.state[i], s.state[j] = s.state[j], s.state[i]
		}
	}
	s.gates++
	return nil
}

// RZZ applies exp(-i theta/2 Z⊗Z).
func (s *Simulator) RZZ(theta float64, a, b qir.Qubit) error {
	ba, err := s.bit(a)
	if err != nil {
		return err
	}
	bb, err := s.bit(b)
	if err != nil {
		return err
	}
	even := expi(-theta / 2)
	odd := expi(theta / 2)
	for i := range s.state {
		if (i&ba != 0) == (i&bb != 0) {
			s.state[i] *= even
		} else {
			s.state[i] *= odd
		}
	}
	s.gates++
	return nil
}

// MZ measures q in the computational basis and stores the outcome in r.
func (s *Simulator) MZ(q qir.Qubit, r qir.Result) error {
	v, err := s.measure(q)
	if err != nil {
		return err
	}
	s.results[r.Value] = v
	return nil
}

// MResetZ measures q into r, then returns q to |0>.
func (s *Simulator) MResetZ(q qir.Qubit, r qir.Result) error {
	if err := s.MZ(q, r); err != nil {
		return err
	}
	if s.results[r.Value] == qir.One {
		return s.X(q)
	}
	return nil
}

// Reset returns q to |0>.
func (s *Simulator) Reset(q qir.Qubit) error {
	v, err := s.measure(q)
	if err != nil {
		return err
	}
	if v == qir.One {
		return s.X(q)
	}
	return nil
}

// ReadResult returns a stored outcome. Results never measured read as
// Zero.
func (s *Simulator) ReadResult(r qir.Result) (qir.QState, error) {
	if s.results == nil {
		return qir.Zero, fmt.Errorf("simulator is not set up")
	}
	return s.results[r.Value], nil
}

func (s *Simulator) measure(q qir.Qubit) (qir.QState, error) {
	bit, err := s.bit(q)
	if err != nil {
		return qir.Zero, err
	}
	p1 := s.prob1(bit)
	outcome := s.rng.Float64() < p1

	norm := math.Sqrt(p1)
	if !outcome {
		norm = math.Sqrt(1 - p1)
	}
	for i := range s.state {
		if (i&bit != 0) == outcome {
			s.state[i] /= complex(norm, 0)
		} else {
			s.state[i] = 0
		}
	}
	return qir.QState(outcome), nil
}

func (s *Simulator) prob1(bit int) float64 {
	var p float64
	for i, a := range s.state {
		if i&bit != 0 {
			p += real(a)*real(a) + imag(a)*imag(a)
		}
	}
	return min(p, 1)
}
