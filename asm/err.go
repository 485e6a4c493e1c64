package asm

import (
	"errors"

	"github.com/z33toolchain/z33/codemap"
	"github.com/z33toolchain/z33/internal/translate"
)

var f = translate.From

var (
	ErrStatementMissing   = errors.New(f("statement missing"))
	ErrStatementSyntax    = errors.New(f("statement syntax"))
	ErrMnemonicUnknown    = errors.New(f("mnemonic unknown"))
	ErrOperandMissing     = errors.New(f("operand missing"))
	ErrOperandSyntax      = errors.New(f("operand syntax"))
	ErrOperandNotAllowed  = errors.New(f("operand not allowed for this instruction"))
	ErrDirectiveUnknown   = errors.New(f("directive unknown"))
	ErrStringUnterminated = errors.New(f("string literal unterminated"))
	ErrLabelDuplicate     = errors.New(f("label duplicated"))
	ErrBracketMissing     = errors.New(f("']' missing"))
)

// ErrLabelMissing reports a reference to a label that is never
// defined.
type ErrLabelMissing string

func (el ErrLabelMissing) Error() string {
	return f("label %v missing", string(el))
}

// ParseError carries the source span of an assembly syntax error.
type ParseError struct {
	Range codemap.Range
	Err   error
}

func (err *ParseError) Error() string {
	return f("%v-%v: %v", err.Range.Start, err.Range.End, err.Err)
}

func (err *ParseError) Unwrap() error {
	return err.Err
}

// parseErrAt wraps err with a span unless it already carries one.
func parseErrAt(rng codemap.Range, err error) error {
	var pe *ParseError
	if errors.As(err, &pe) {
		return err
	}
	return &ParseError{Range: rng, Err: err}
}
