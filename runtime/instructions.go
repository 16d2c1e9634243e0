package runtime

import (
	"fmt"

	"fortio.org/safecast"
	"github.com/tetratelabs/wazero/api"

	qir "github.com/wippyai/qir-runtime"
	"github.com/wippyai/qir-runtime/engine"
	"github.com/wippyai/qir-runtime/errors"
)

// Reserved symbol prefixes.
const (
	QISPrefix = "__quantum__qis__"
	RTPrefix  = "__quantum__rt__"
)

// QIS returns the symbol name of a body-specialized instruction.
func QIS(name string) string {
	return QISPrefix + name + "__" + qir.Body.String()
}

// QISAdj returns the symbol name of an adjoint-specialized instruction.
func QISAdj(name string) string {
	return QISPrefix + name + "__" + qir.Adj.String()
}

// RT returns the symbol name of a runtime function.
func RT(name string) string {
	return RTPrefix + name
}

// call receives the active backends, the calling module and the argument
// stack of one instruction.
type call func(a *activation, mod api.Module, stack []uint64) error

type instruction struct {
	call call
	name string
	sig  engine.Signature
}

var instructions = []instruction{
	// required quantum instructions
	{name: QIS("h"), sig: engine.Sig("void", "ptr"), call: func(a *activation, _ api.Module, s []uint64) error {
		return a.quantum.H(qubit(s[0]))
	}},
	{name: QIS("cnot"), sig: engine.Sig("void", "ptr", "ptr"), call: func(a *activation, _ api.Module, s []uint64) error {
		return a.quantum.CNOT(qubit(s[0]), qubit(s[1]))
	}},
	{name: QIS("mz"), sig: engine.Sig("void", "ptr", "ptr"), call: func(a *activation, _ api.Module, s []uint64) error {
		return a.quantum.MZ(qubit(s[0]), result(s[1]))
	}},
	{name: QIS("read_result"), sig: engine.Sig("i1", "ptr"), call: func(a *activation, _ api.Module, s []uint64) error {
		st, err := a.quantum.ReadResult(result(s[0]))
		if err != nil {
			return err
		}
		s[0] = 0
		if st == qir.One {
			s[0] = 1
		}
		return nil
	}},

	// required output recording
	{name: RT("array_record_output"), sig: engine.Sig("void", "i64", "ptr"), call: func(a *activation, m api.Module, s []uint64) error {
		tag, err := readTag(m, s[1])
		if err != nil {
			return err
		}
		return a.result.ArrayRecordOutput(s[0], tag)
	}},
	{name: RT("result_record_output"), sig: engine.Sig("void", "ptr", "ptr"), call: func(a *activation, m api.Module, s []uint64) error {
		tag, err := readTag(m, s[1])
		if err != nil {
			return err
		}
		return a.result.ResultRecordOutput(result(s[0]), tag)
	}},

	// optional quantum instructions
	pauli(QIS("x"), qir.PauliGates.X),
	pauli(QIS("y"), qir.PauliGates.Y),
	pauli(QIS("z"), qir.PauliGates.Z),
	phase(QIS("s"), qir.PhaseGates.S),
	phase(QISAdj("s"), qir.PhaseGates.SAdj),
	phase(QIS("t"), qir.PhaseGates.T),
	phase(QISAdj("t"), qir.PhaseGates.TAdj),
	rotation(QIS("rx"), qir.RotationGates.RX),
	rotation(QIS("ry"), qir.RotationGates.RY),
	rotation(QIS("rz"), qir.RotationGates.RZ),
	twoQubit(QIS("cx"), qir.TwoQubitGates.CX),
	twoQubit(QIS("cy"), qir.TwoQubitGates.CY),
	twoQubit(QIS("cz"), qir.TwoQubitGates.CZ),
	twoQubit(QIS("swap"), qir.TwoQubitGates.Swap),
	{name: QIS("rzz"), sig: engine.Sig("void", "double", "ptr", "ptr"), call: func(a *activation, _ api.Module, s []uint64) error {
		g, err := extension[qir.TwoQubitGates](a, QIS("rzz"))
		if err != nil {
			return err
		}
		return g.RZZ(api.DecodeF64(s[0]), qubit(s[1]), qubit(s[2]))
	}},
	{name: QIS("ccx"), sig: engine.Sig("void", "ptr", "ptr", "ptr"), call: func(a *activation, _ api.Module, s []uint64) error {
		g, err := extension[qir.ToffoliGate](a, QIS("ccx"))
		if err != nil {
			return err
		}
		return g.CCX(qubit(s[0]), qubit(s[1]), qubit(s[2]))
	}},
	{name: QIS("reset"), sig: engine.Sig("void", "ptr"), call: func(a *activation, _ api.Module, s []uint64) error {
		g, err := extension[qir.Resetter](a, QIS("reset"))
		if err != nil {
			return err
		}
		return g.Reset(qubit(s[0]))
	}},
	{name: QIS("mresetz"), sig: engine.Sig("void", "ptr", "ptr"), call: func(a *activation, _ api.Module, s []uint64) error {
		g, err := extension[qir.Resetter](a, QIS("mresetz"))
		if err != nil {
			return err
		}
		return g.MResetZ(qubit(s[0]), result(s[1]))
	}},

	// optional runtime functions
	{name: RT("initialize"), sig: engine.Sig("void", "ptr"), call: func(a *activation, m api.Module, s []uint64) error {
		init, ok := a.quantum.(qir.RuntimeInitializer)
		if !ok {
			return nil
		}
		tag, err := readTag(m, s[0])
		if err != nil {
			return err
		}
		return init.Initialize(tag)
	}},
	{name: RT("tuple_record_output"), sig: engine.Sig("void", "i64", "ptr"), call: func(a *activation, m api.Module, s []uint64) error {
		rec, err := outputExtension[qir.TupleRecorder](a, RT("tuple_record_output"))
		if err != nil {
			return err
		}
		tag, err := readTag(m, s[1])
		if err != nil {
			return err
		}
		return rec.TupleRecordOutput(s[0], tag)
	}},
	{name: RT("bool_record_output"), sig: engine.Sig("void", "i1", "ptr"), call: func(a *activation, m api.Module, s []uint64) error {
		rec, err := outputExtension[qir.ValueRecorder](a, RT("bool_record_output"))
		if err != nil {
			return err
		}
		tag, err := readTag(m, s[1])
		if err != nil {
			return err
		}
		return rec.BoolRecordOutput(uint32(s[0]) != 0, tag)
	}},
	{name: RT("int_record_output"), sig: engine.Sig("void", "i64", "ptr"), call: func(a *activation, m api.Module, s []uint64) error {
		rec, err := outputExtension[qir.ValueRecorder](a, RT("int_record_output"))
		if err != nil {
			return err
		}
		tag, err := readTag(m, s[1])
		if err != nil {
			return err
		}
		return rec.IntRecordOutput(int64(s[0]), tag)
	}},
}

func qubit(v uint64) qir.Qubit   { return qir.Qubit{Value: v} }
func result(v uint64) qir.Result { return qir.Result{Value: v} }

// extension returns the quantum backend as an optional instruction set.
func extension[T any](a *activation, symbol string) (T, error) {
	g, ok := a.quantum.(T)
	if !ok {
		return g, unsupported[T](a.quantum, symbol)
	}
	return g, nil
}

// outputExtension returns the output backend as an optional recording interface.
func outputExtension[T any](a *activation, symbol string) (T, error) {
	r, ok := a.result.(T)
	if !ok {
		return r, unsupported[T](a.result, symbol)
	}
	return r, nil
}

func unsupported[T any](backend any, symbol string) error {
	var zero *T
	return errors.Unsupported(errors.PhaseRuntime, symbol,
		fmt.Sprintf("backend %T does not implement %T", backend, zero))
}

func pauli(sym string, gate func(qir.PauliGates, qir.Qubit) error) instruction {
	return instruction{name: sym, sig: engine.Sig("void", "ptr"), call: func(a *activation, _ api.Module, s []uint64) error {
		g, err := extension[qir.PauliGates](a, sym)
		if err != nil {
			return err
		}
		return gate(g, qubit(s[0]))
	}}
}

func phase(sym string, gate func(qir.PhaseGates, qir.Qubit) error) instruction {
	return instruction{name: sym, sig: engine.Sig("void", "ptr"), call: func(a *activation, _ api.Module, s []uint64) error {
		g, err := extension[qir.PhaseGates](a, sym)
		if err != nil {
			return err
		}
		return gate(g, qubit(s[0]))
	}}
}

func rotation(sym string, gate func(qir.RotationGates, float64, qir.Qubit) error) instruction {
	return instruction{name: sym, sig: engine.Sig("void", "double", "ptr"), call: func(a *activation, _ api.Module, s []uint64) error {
		g, err := extension[qir.RotationGates](a, sym)
		if err != nil {
			return err
		}
		return gate(g, api.DecodeF64(s[0]), qubit(s[1]))
	}}
}

func twoQubit(sym string, gate func(qir.TwoQubitGates, qir.Qubit, qir.Qubit) error) instruction {
	return instruction{name: sym, sig: engine.Sig("void", "ptr", "ptr"), call: func(a *activation, _ api.Module, s []uint64) error {
		g, err := extension[qir.TwoQubitGates](a, sym)
		if err != nil {
			return err
		}
		return gate(g, qubit(s[0]), qubit(s[1]))
	}}
}

// maxTagLen bounds the scan for a tag's terminating NUL.
const maxTagLen = 4096

// readTag reads a nullable C string from the program's memory.
func readTag(mod api.Module, ptr uint64) (qir.Tag, error) {
	if ptr == 0 {
		return qir.NoTag, nil
	}
	off, err := safecast.Conv[uint32](ptr)
	if err != nil {
		return qir.NoTag, fmt.Errorf("tag pointer %#x outside linear memory", ptr)
	}
	mem := mod.Memory()
	if mem == nil {
		return qir.NoTag, fmt.Errorf("program has no memory for tag at %#x", ptr)
	}
	n := min(mem.Size()-min(off, mem.Size()), maxTagLen)
	buf, ok := mem.Read(off, n)
	if !ok {
		return qir.NoTag, fmt.Errorf("tag pointer %#x outside linear memory", ptr)
	}
	for i, c := range buf {
		if c == 0 {
			return qir.NewTag(string(buf[:i])), nil
		}
	}
	return qir.NoTag, fmt.Errorf("tag at %#x is not NUL-terminated", ptr)
}
