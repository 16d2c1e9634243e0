// Package errors provides structured error types for the QIR runtime.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error
// category). The Error type carries the source identifier, line, the IR symbol
// involved and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseLoad, errors.KindParse).
//		Source("bell.ll").
//		Line(12).
//		Detailf("expected type, got %q", tok).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.AlreadyDefined("__quantum__qis__h__body")
//	err := errors.UnresolvedSymbol("__quantum__qis__foo__body")
//
// Errors match sentinels by phase and kind:
//
//	if errors.Is(err, qirerrors.ErrReentrant) { ... }
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
