package qirruntime

// QuantumInterface is the instruction set a quantum target must provide for
// the __quantum__qis__ namespace. An implementation is stateful: it sets up,
// stores and measures the circuit of one execution.
//
//	void @__quantum__qis__h__body(%Qubit*)
//	void @__quantum__qis__cnot__body(%Qubit*, %Qubit*)
//	void @__quantum__qis__mz__body(%Qubit*, %Result*)
//	i1   @__quantum__qis__read_result__body(%Result*)
type QuantumInterface interface {
	// SetUp prepares the circuit for an entry point.
	SetUp(attrs EntryPointAttrs) error
	// TearDown completes an execution.
	TearDown() error

	// H applies the Hadamard gate.
	H(q Qubit) error
	// CNOT applies the controlled-not gate.
	CNOT(control, target Qubit) error

	// MZ measures the qubit in the Z basis and stores the outcome in r.
	MZ(q Qubit, r Result) error
	// ReadResult reads a value previously stored by a measurement.
	ReadResult(r Result) (QState, error)
}

// ResultInterface stores program outputs for the __quantum__rt__ namespace.
//
//	void @__quantum__rt__array_record_output(i64, i8*)
//	void @__quantum__rt__result_record_output(%Result*, i8*)
//
// Typical usage from a program:
//
//	array_record_output(2, null)
//	result_record_output(%Result* null, i8* null)
//	result_record_output(%Result* inttoptr (i64 1 to %Result*), i8* null)
type ResultInterface interface {
	// ArrayRecordOutput announces that n outputs will be recorded.
	ArrayRecordOutput(n SizeType, tag Tag) error
	// ResultRecordOutput records a single result.
	ResultRecordOutput(r Result, tag Tag) error
}

// PauliGates is implemented by backends supporting X, Y and Z.
type PauliGates interface {
	X(q Qubit) error
	Y(q Qubit) error
	Z(q Qubit) error
}

// PhaseGates is implemented by backends supporting S and T and their adjoints.
type PhaseGates interface {
	S(q Qubit) error
	SAdj(q Qubit) error
	T(q Qubit) error
	TAdj(q Qubit) error
}

// RotationGates is implemented by backends supporting parametrised rotations.
type RotationGates interface {
	RX(theta float64, q Qubit) error
	RY(theta float64, q Qubit) error
	RZ(theta float64, q Qubit) error
}

// TwoQubitGates is implemented by backends supporting the remaining
// two-qubit instructions.
type TwoQubitGates interface {
	CX(control, target Qubit) error
	CY(control, target Qubit) error
	CZ(control, target Qubit) error
	Swap(a, b Qubit) error
	RZZ(theta float64, a, b Qubit) error
}

// ToffoliGate is implemented by backends supporting the doubly controlled X.
type ToffoliGate interface {
	CCX(c1, c2, target Qubit) error
}

// Resetter is implemented by backends that can reset qubits.
type Resetter interface {
	Reset(q Qubit) error
	// MResetZ measures q into r and resets it to |0>.
	MResetZ(q Qubit, r Result) error
}

// RuntimeInitializer handles __quantum__rt__initialize.
type RuntimeInitializer interface {
	Initialize(env Tag) error
}

// TupleRecorder handles __quantum__rt__tuple_record_output.
type TupleRecorder interface {
	TupleRecordOutput(n SizeType, tag Tag) error
}

// ValueRecorder handles classical output recording.
type ValueRecorder interface {
	BoolRecordOutput(v bool, tag Tag) error
	IntRecordOutput(v int64, tag Tag) error
}
