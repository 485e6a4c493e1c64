package vm

import (
	"errors"

	"github.com/z33toolchain/z33/internal/translate"
	"github.com/z33toolchain/z33/isa"
)

var f = translate.From

// EventCode identifies the cause of a runtime exception. The code is
// stored in the event-code save word while the exception is serviced.
type EventCode int

//go:generate go tool stringer -linecomment -type=EventCode
const (
	EVENT_HARDWARE_INTERRUPT     = EventCode(0) // hardware interrupt
	EVENT_DIVISION_BY_ZERO       = EventCode(1) // division by zero
	EVENT_INVALID_INSTRUCTION    = EventCode(2) // invalid instruction
	EVENT_PRIVILEGED_INSTRUCTION = EventCode(3) // privileged instruction
	EVENT_TRAP                   = EventCode(4) // trap
	EVENT_INVALID_MEMORY_ACCESS  = EventCode(5) // invalid memory access
)

// Exception is a runtime exception raised by instruction execution.
// Exceptions are serviced by the processor's exception prologue rather
// than terminating the run.
type Exception struct {
	Event EventCode
}

func (e Exception) Error() string {
	return f("exception %v", int(e.Event))
}

// ErrServiceFailed marks a failure in the exception prologue itself;
// the run terminates with a fatal error.
var ErrServiceFailed = errors.New(f("exception service failed"))

// ServiceError carries the event whose prologue failed together with
// the underlying failure.
type ServiceError struct {
	Event EventCode
	Err   error
}

func (e *ServiceError) Error() string {
	return f("exception %v: %v: %v", int(e.Event), ErrServiceFailed, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(err error) bool {
	return err == ErrServiceFailed
}

// EncodeError reports the instruction that could not be encoded while
// placing a program image.
type EncodeError struct {
	At   int
	Inst isa.Instruction
}

func (e *EncodeError) Error() string {
	return f("at %v: cannot encode %v", e.At, e.Inst)
}
