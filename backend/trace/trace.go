package trace

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	qir "github.com/wippyai/qir-runtime"
)

// Command is one recorded callback.
type Command struct {
	Name    string
	Qubits  []uint64
	Results []uint64
	Angle   float64
	Count   qir.SizeType
	Value   int64
	Tag     qir.Tag
}

func (c Command) String() string {
	var args []string
	for _, q := range c.Qubits {
		args = append(args, "q"+strconv.FormatUint(q, 10))
	}
	for _, r := range c.Results {
		args = append(args, "r"+strconv.FormatUint(r, 10))
	}
	switch c.Name {
	case "rx", "ry", "rz", "rzz":
		args = append([]string{strconv.FormatFloat(c.Angle, 'g', -1, 64)}, args...)
	case "array_record_output", "tuple_record_output":
		args = append(args, strconv.FormatUint(c.Count, 10))
	case "bool_record_output", "int_record_output":
		args = append(args, strconv.FormatInt(c.Value, 10))
	}
	if tag, ok := c.Tag.Get(); ok {
		args = append(args, strconv.Quote(tag))
	}
	if len(args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(args, " ")
}

// Recorder is a quantum and output backend that records every callback.
// With a delegate it forwards each call after recording it; without one,
// ReadResult answers from Answers and everything else succeeds.
type Recorder struct {
	// Answers holds ReadResult values when there is no quantum delegate.
	// Missing entries read as Zero.
	Answers map[uint64]qir.QState

	commands []Command
	quantum  qir.QuantumInterface
	result   qir.ResultInterface
	attrs    qir.EntryPointAttrs
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithQuantum forwards instructions to q.
func WithQuantum(q qir.QuantumInterface) Option {
	return func(r *Recorder) {
		r.quantum = q
	}
}

// WithResult forwards output recording to res.
func WithResult(res qir.ResultInterface) Option {
	return func(r *Recorder) {
		r.result = res
	}
}

// New creates a recorder.
func New(opts ...Option) *Recorder {
	r := &Recorder{Answers: map[uint64]qir.QState{}}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Commands returns the callbacks recorded since the last SetUp.
func (r *Recorder) Commands() []Command {
	out := make([]Command, len(r.commands))
	copy(out, r.commands)
	return out
}

// Names returns the names of the recorded callbacks in order.
func (r *Recorder) Names() []string {
	out := make([]string, len(r.commands))
	for i, c := range r.commands {
		out[i] = c.Name
	}
	return out
}

// Attrs returns the attributes passed to the last SetUp.
func (r *Recorder) Attrs() qir.EntryPointAttrs {
	return r.attrs
}

func (r *Recorder) record(c Command) {
	r.commands = append(r.commands, c)
	Logger().Debug("callback", zap.Stringer("command", c))
}

func qubits(qs ...qir.Qubit) []uint64 {
	out := make([]uint64, len(qs))
	for i, q := range qs {
		out[i] = q.Value
	}
	return out
}

// SetUp clears the recorded commands.
func (r *Recorder) SetUp(attrs qir.EntryPointAttrs) error {
	r.commands = nil
	r.attrs = attrs
	if r.quantum != nil {
		return r.quantum.SetUp(attrs)
	}
	return nil
}

func (r *Recorder) TearDown() error {
	if r.quantum != nil {
		return r.quantum.TearDown()
	}
	return nil
}

func (r *Recorder) H(q qir.Qubit) error {
	r.record(Command{Name: "h", Qubits: qubits(q)})
	if r.quantum != nil {
		return r.quantum.H(q)
	}
	return nil
}

func (r *Recorder) CNOT(control, target qir.Qubit) error {
	r.record(Command{Name: "cnot", Qubits: qubits(control, target)})
	if r.quantum != nil {
		return r.quantum.CNOT(control, target)
	}
	return nil
}

func (r *Recorder) MZ(q qir.Qubit, res qir.Result) error {
	r.record(Command{Name: "mz", Qubits: qubits(q), Results: []uint64{res.Value}})
	if r.quantum != nil {
		return r.quantum.MZ(q, res)
	}
	return nil
}

func (r *Recorder) ReadResult(res qir.Result) (qir.QState, error) {
	r.record(Command{Name: "read_result", Results: []uint64{res.Value}})
	if r.quantum != nil {
		return r.quantum.ReadResult(res)
	}
	return r.Answers[res.Value], nil
}

func (r *Recorder) ArrayRecordOutput(n qir.SizeType, tag qir.Tag) error {
	r.record(Command{Name: "array_record_output", Count: n, Tag: tag})
	if r.result != nil {
		return r.result.ArrayRecordOutput(n, tag)
	}
	return nil
}

func (r *Recorder) ResultRecordOutput(res qir.Result, tag qir.Tag) error {
	r.record(Command{Name: "record_output", Results: []uint64{res.Value}, Tag: tag})
	if r.result != nil {
		return r.result.ResultRecordOutput(res, tag)
	}
	return nil
}

// forward passes a call to the delegate when it implements T.
func forward[T any](delegate any, name string, call func(T) error) error {
	if delegate == nil {
		return nil
	}
	d, ok := delegate.(T)
	if !ok {
		return fmt.Errorf("%s: delegate %T does not implement it", name, delegate)
	}
	return call(d)
}

func (r *Recorder) gate(name string, call func(qir.PauliGates) error, qs ...qir.Qubit) error {
	r.record(Command{Name: name, Qubits: qubits(qs...)})
	return forward(r.delegate(), name, call)
}

// delegate returns the quantum delegate as an untyped value, nil when unset.
func (r *Recorder) delegate() any {
	if r.quantum == nil {
		return nil
	}
	return r.quantum
}

func (r *Recorder) X(q qir.Qubit) error {
	return r.gate("x", func(g qir.PauliGates) error { return g.X(q) }, q)
}

func (r *Recorder) Y(q qir.Qubit) error {
	return r.gate("y", func(g qir.PauliGates) error { return g.Y(q) }, q)
}

func (r *Recorder) Z(q qir.Qubit) error {
	return r.gate("z", func(g qir.PauliGates) error { return g.Z(q) }, q)
}

func (r *Recorder) phase(name string, q qir.Qubit, call func(qir.PhaseGates) error) error {
	r.record(Command{Name: name, Qubits: qubits(q)})
	return forward(r.delegate(), name, call)
}

func (r *Recorder) S(q qir.Qubit) error {
	return r.phase("s", q, func(g qir.PhaseGates) error { return g.S(q) })
}

func (r *Recorder) SAdj(q qir.Qubit) error {
	return r.phase("s_adj", q, func(g qir.PhaseGates) error { return g.SAdj(q) })
}

func (r *Recorder) T(q qir.Qubit) error {
	return r.phase("t", q, func(g qir.PhaseGates) error { return g.T(q) })
}

func (r *Recorder) TAdj(q qir.Qubit) error {
	return r.phase("t_adj", q, func(g qir.PhaseGates) error { return g.TAdj(q) })
}

func (r *Recorder) rotation(name string, theta float64, q qir.Qubit, call func(qir.RotationGates) error) error {
	r.record(Command{Name: name, Angle: theta, Qubits: qubits(q)})
	return forward(r.delegate(), name, call)
}

func (r *Recorder) RX(theta float64, q qir.Qubit) error {
	return r.rotation("rx", theta, q, func(g qir.RotationGates) error { return g.RX(theta, q) })
}

func (r *Recorder) RY(theta float64, q qir.Qubit) error {
	return r.rotation("ry", theta, q, func(g qir.RotationGates) error { return g.RY(theta, q) })
}

func (r *Recorder) RZ(theta float64, q qir.Qubit) error {
	return r.rotation("rz", theta, q, func(g qir.RotationGates) error { return g.RZ(theta, q) })
}

func (r *Recorder) twoQubit(c Command, call func(qir.TwoQubitGates) error) error {
	r.record(c)
	return forward(r.delegate(), c.Name, call)
}

func (r *Recorder) CX(control, target qir.Qubit) error {
	return r.twoQubit(Command{Name: "cx", Qubits: qubits(control, target)},
		func(g qir.TwoQubitGates) error { return g.CX(control, target) })
}

func (r *Recorder) CY(control, target qir.Qubit) error {
	return r.twoQubit(Command{Name: "cy", Qubits: qubits(control, target)},
		func(g qir.TwoQubitGates) error { return g.CY(control, target) })
}

func (r *Recorder) CZ(control, target qir.Qubit) error {
	return r.twoQubit(Command{Name: "cz", Qubits: qubits(control, target)},
		func(g qir.TwoQubitGates) error { return g.CZ(control, target) })
}

func (r *Recorder) Swap(a, b qir.Qubit) error {
	return r.twoQubit(Command{Name: "swap", Qubits: qubits(a, b)},
		func(g qir.TwoQubitGates) error { return g.Swap(a, b) })
}

func (r *Recorder) RZZ(theta float64, a, b qir.Qubit) error {
	return r.twoQubit(Command{Name: "rzz", Angle: theta, Qubits: qubits(a, b)},
		func(g qir.TwoQubitGates) error { return g.RZZ(theta, a, b) })
}

func (r *Recorder) CCX(c1, c2, target qir.Qubit) error {
	r.record(Command{Name: "ccx", Qubits: qubits(c1, c2, target)})
	return forward(r.delegate(), "ccx", func(g qir.ToffoliGate) error { return g.CCX(c1, c2, target) })
}

func (r *Recorder) Reset(q qir.Qubit) error {
	r.record(Command{Name: "reset", Qubits: qubits(q)})
	return forward(r.delegate(), "reset", func(g qir.Resetter) error { return g.Reset(q) })
}

func (r *Recorder) MResetZ(q qir.Qubit, res qir.Result) error {
	r.record(Command{Name: "mresetz", Qubits: qubits(q), Results: []uint64{res.Value}})
	return forward(r.delegate(), "mresetz", func(g qir.Resetter) error { return g.MResetZ(q, res) })
}

func (r *Recorder) Initialize(env qir.Tag) error {
	r.record(Command{Name: "initialize", Tag: env})
	if init, ok := r.quantum.(qir.RuntimeInitializer); ok {
		return init.Initialize(env)
	}
	return nil
}

// output returns the result delegate as an untyped value, nil when unset.
func (r *Recorder) output() any {
	if r.result == nil {
		return nil
	}
	return r.result
}

func (r *Recorder) TupleRecordOutput(n qir.SizeType, tag qir.Tag) error {
	r.record(Command{Name: "tuple_record_output", Count: n, Tag: tag})
	return forward(r.output(), "tuple_record_output", func(o qir.TupleRecorder) error { return o.TupleRecordOutput(n, tag) })
}

func (r *Recorder) BoolRecordOutput(v bool, tag qir.Tag) error {
	var n int64
	if v {
		n = 1
	}
	r.record(Command{Name: "bool_record_output", Value: n, Tag: tag})
	return forward(r.output(), "bool_record_output", func(o qir.ValueRecorder) error { return o.BoolRecordOutput(v, tag) })
}

func (r *Recorder) IntRecordOutput(v int64, tag qir.Tag) error {
	r.record(Command{Name: "int_record_output", Value: v, Tag: tag})
	return forward(r.output(), "int_record_output", func(o qir.ValueRecorder) error { return o.IntRecordOutput(v, tag) })
}

var (
	_ qir.QuantumInterface   = (*Recorder)(nil)
	_ qir.ResultInterface    = (*Recorder)(nil)
	_ qir.PauliGates         = (*Recorder)(nil)
	_ qir.PhaseGates         = (*Recorder)(nil)
	_ qir.RotationGates      = (*Recorder)(nil)
	_ qir.TwoQubitGates      = (*Recorder)(nil)
	_ qir.ToffoliGate        = (*Recorder)(nil)
	_ qir.Resetter           = (*Recorder)(nil)
	_ qir.RuntimeInitializer = (*Recorder)(nil)
	_ qir.TupleRecorder      = (*Recorder)(nil)
	_ qir.ValueRecorder      = (*Recorder)(nil)
)
