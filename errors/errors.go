package errors

import (
	"fmt"
	"strconv"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseLoad    Phase = "load"    // reading and parsing IR
	PhaseResolve Phase = "resolve" // entry point resolution
	PhaseBind    Phase = "bind"    // symbol binding
	PhaseCompile Phase = "compile" // lowering and native compilation
	PhaseRuntime Phase = "runtime" // executor state and traps
	PhaseBackend Phase = "backend" // raised by a backend callback
)

// Kind categorizes the error
type Kind string

const (
	KindParse             Kind = "parse"
	KindNotFound          Kind = "not_found"
	KindAmbiguous         Kind = "ambiguous"
	KindAlreadyDefined    Kind = "already_defined"
	KindSignatureMismatch Kind = "signature_mismatch"
	KindUnresolvedSymbol  Kind = "unresolved_symbol"
	KindReentrant         Kind = "reentrant"
	KindUnsupported       Kind = "unsupported"
	KindInvalidInput      Kind = "invalid_input"
	KindInstantiation     Kind = "instantiation"
	KindTrap              Kind = "trap"
	KindBackend           Kind = "backend"
)

// Error is the structured error type used throughout the module
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Source string // file name or source identifier
	Symbol string // IR routine or instruction symbol
	Detail string
	Line   int
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Source != "" {
		b.WriteString(" in ")
		b.WriteString(e.Source)
		if e.Line > 0 {
			b.WriteByte(':')
			b.WriteString(strconv.Itoa(e.Line))
		}
	}

	if e.Symbol != "" {
		b.WriteString(" at '")
		b.WriteString(e.Symbol)
		b.WriteByte('\'')
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Source sets the source identifier
func (b *Builder) Source(src string) *Builder {
	b.err.Source = src
	return b
}

// Line sets the source line
func (b *Builder) Line(line int) *Builder {
	b.err.Line = line
	return b
}

// Symbol sets the routine or instruction name
func (b *Builder) Symbol(name string) *Builder {
	b.err.Symbol = name
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message verbatim
func (b *Builder) Detail(msg string) *Builder {
	b.err.Detail = msg
	return b
}

// Detailf sets the detail message from a format string
func (b *Builder) Detailf(format string, args ...any) *Builder {
	b.err.Detail = fmt.Sprintf(format, args...)
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Sentinels for errors.Is matching on phase and kind.
var (
	ErrLoad             = &Error{Phase: PhaseLoad, Kind: KindParse}
	ErrNoEntryPoint     = &Error{Phase: PhaseResolve, Kind: KindNotFound}
	ErrAmbiguousEntry   = &Error{Phase: PhaseResolve, Kind: KindAmbiguous}
	ErrAlreadyDefined   = &Error{Phase: PhaseBind, Kind: KindAlreadyDefined}
	ErrSignature        = &Error{Phase: PhaseBind, Kind: KindSignatureMismatch}
	ErrUnresolvedSymbol = &Error{Phase: PhaseRuntime, Kind: KindUnresolvedSymbol}
	ErrReentrant        = &Error{Phase: PhaseRuntime, Kind: KindReentrant}
	ErrUnsupported      = &Error{Phase: PhaseRuntime, Kind: KindUnsupported}
	ErrTrap             = &Error{Phase: PhaseRuntime, Kind: KindTrap}
	ErrBackend          = &Error{Phase: PhaseBackend, Kind: KindBackend}
)

// Convenience constructors for common error patterns

// Load creates a load error for a source that could not be read or parsed
func Load(source string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindParse,
		Source: source,
		Detail: "failed to read QIR input",
		Cause:  cause,
	}
}

// ParseFailed creates a parse error at a source line
func ParseFailed(source string, line int, detail string) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindParse,
		Source: source,
		Line:   line,
		Detail: detail,
	}
}

// NoEntryPoint reports a module without an entry_point routine
func NoEntryPoint(source string) *Error {
	return &Error{
		Phase:  PhaseResolve,
		Kind:   KindNotFound,
		Source: source,
		Detail: "no function with QIR 'entry_point' attribute exists",
	}
}

// AmbiguousEntryPoint reports several routines carrying entry_point
func AmbiguousEntryPoint(source string, names []string) *Error {
	return &Error{
		Phase:  PhaseResolve,
		Kind:   KindAmbiguous,
		Source: source,
		Detail: fmt.Sprintf("multiple functions with QIR 'entry_point' attribute: %s", strings.Join(names, ", ")),
		Value:  names,
	}
}

// EntryNotFound reports a missing explicitly named entry routine
func EntryNotFound(source, name string) *Error {
	return &Error{
		Phase:  PhaseResolve,
		Kind:   KindNotFound,
		Source: source,
		Symbol: name,
		Detail: fmt.Sprintf("no entrypoint function '%s' exists", name),
	}
}

// EntryNotDefined reports an entry routine that is declared without a body
func EntryNotDefined(source, name string) *Error {
	return &Error{
		Phase:  PhaseResolve,
		Kind:   KindNotFound,
		Source: source,
		Symbol: name,
		Detail: fmt.Sprintf("entrypoint function '%s' has no body", name),
	}
}

// AlreadyDefined reports a reserved instruction name that has a body in the IR
func AlreadyDefined(name string) *Error {
	return &Error{
		Phase:  PhaseBind,
		Kind:   KindAlreadyDefined,
		Symbol: name,
		Detail: fmt.Sprintf("could not bind to already-defined function '%s'", name),
	}
}

// SignatureMismatch reports a reserved instruction declared with the wrong type
func SignatureMismatch(name, want, got string) *Error {
	return &Error{
		Phase:  PhaseBind,
		Kind:   KindSignatureMismatch,
		Symbol: name,
		Detail: fmt.Sprintf("declared as %s, expected %s", got, want),
	}
}

// UnresolvedSymbol reports a call to a routine that is neither defined nor bound
func UnresolvedSymbol(name string) *Error {
	return &Error{
		Phase:  PhaseRuntime,
		Kind:   KindUnresolvedSymbol,
		Symbol: name,
		Detail: fmt.Sprintf("cannot call unknown function '%s'", name),
	}
}

// Reentrant reports a Run issued while another Run is in flight
func Reentrant() *Error {
	return &Error{
		Phase:  PhaseRuntime,
		Kind:   KindReentrant,
		Detail: "cannot call executor recursively or concurrently",
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, symbol, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Symbol: symbol,
		Detail: what,
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Instantiation creates an engine instantiation error
func Instantiation(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseCompile,
		Kind:   KindInstantiation,
		Detail: detail,
		Cause:  cause,
	}
}

// Trap wraps a failure raised by the compiled program itself
func Trap(entry string, cause error) *Error {
	return &Error{
		Phase:  PhaseRuntime,
		Kind:   KindTrap,
		Symbol: entry,
		Detail: "execution aborted",
		Cause:  cause,
	}
}

// Backend wraps an error returned by a backend callback
func Backend(symbol string, cause error) *Error {
	return &Error{
		Phase:  PhaseBackend,
		Kind:   KindBackend,
		Symbol: symbol,
		Cause:  cause,
	}
}
