package token

import (
	"errors"
	"fmt"
)

// Error is a syntax error at a source line.
type Error struct {
	Msg  string
	Line int
}

func (e *Error) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

// Errorf builds a syntax error.
func Errorf(line int, format string, args ...any) *Error {
	return &Error{Line: line, Msg: fmt.Sprintf(format, args...)}
}

var errUnterminated = errors.New("unterminated string")

func errUnexpected(c byte) error {
	return fmt.Errorf("unexpected character %q", c)
}

func lineErr(line int, err error) *Error {
	return &Error{Line: line, Msg: err.Error()}
}
