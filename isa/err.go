package isa

import (
	"errors"
)

var (
	// Instruction shape errors
	ErrOpcodeUnknown  = errors.New(f("opcode unknown"))
	ErrArityMismatch  = errors.New(f("argument count mismatch"))
	ErrModeNotAllowed = errors.New(f("addressing mode not allowed"))

	// Encoding errors
	ErrOperandRange = errors.New(f("operand exceeds encodable range"))
	ErrModeUnknown  = errors.New(f("addressing mode unknown"))
)
