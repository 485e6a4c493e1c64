package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/z33toolchain/z33/isa"
	"github.com/z33toolchain/z33/variation"
)

func TestRunner_DivByZeroVectors(t *testing.T) {
	assert := assert.New(t)

	r := NewRunner(variation.Standard)
	a := regCode(t, r.Proc, "a")

	require.NoError(t, r.Rom(
		isa.Instruction{Op: isa.OP_LD, Args: isa.Binary(isa.Imm(0), isa.Reg(a))},
		isa.Instruction{Op: isa.OP_DIV, Args: isa.Binary(isa.Reg(a), isa.Reg(a))},
	))
	require.NoError(t, r.InterruptHandler(
		isa.Instruction{Op: isa.OP_RESET, Args: isa.NoArgs()},
	))

	assert.NoError(r.Run())

	// The handler ran reset, wiping registers; the save area keeps
	// the exception record.
	event, err := r.Proc.Memory.Read(isa.Word(r.Proc.Variation.EventCode))
	assert.NoError(err)
	assert.Equal(isa.Word(EVENT_DIVISION_BY_ZERO), event)
	savedPC, err := r.Proc.Memory.Read(isa.Word(r.Proc.Variation.SavedPC))
	assert.NoError(err)
	assert.Equal(isa.Word(2), savedPC)
}

func TestRunner_StepExceptionState(t *testing.T) {
	assert := assert.New(t)

	r := NewRunner(variation.Standard)
	a := regCode(t, r.Proc, "a")

	require.NoError(t, r.Rom(
		isa.Instruction{Op: isa.OP_LD, Args: isa.Binary(isa.Imm(0), isa.Reg(a))},
		isa.Instruction{Op: isa.OP_DIV, Args: isa.Binary(isa.Reg(a), isa.Reg(a))},
	))
	r.Proc.SetPC(0)
	r.Proc.SetSR(0)

	result, err := r.Step()
	assert.NoError(err)
	assert.Equal(STEP_CONTINUE, result)

	result, err = r.Step()
	assert.NoError(err)
	assert.Equal(STEP_EXCEPTION, result)

	event, _ := r.Proc.Memory.Read(isa.Word(r.Proc.Variation.EventCode))
	assert.Equal(isa.Word(EVENT_DIVISION_BY_ZERO), event)
	assert.True(r.Proc.SR().Supervisor())
	assert.Equal(isa.Word(r.Proc.Variation.VectorAddr), r.Proc.PC())
}

func TestRunner_CountdownLoop(t *testing.T) {
	assert := assert.New(t)

	r := NewRunner(variation.Standard)
	a := regCode(t, r.Proc, "a")

	require.NoError(t, r.Rom(
		isa.Instruction{Op: isa.OP_JMP, Args: isa.Unary(isa.Imm(500))},
	))
	require.NoError(t, r.Code(500,
		isa.Instruction{Op: isa.OP_LD, Args: isa.Binary(isa.Imm(5), isa.Reg(a))},
	))
	// 502: cmp 1, %a; jge 526; sub 1, %a; jmp 502
	require.NoError(t, r.Code(502,
		isa.Instruction{Op: isa.OP_CMP, Args: isa.Binary(isa.Imm(1), isa.Reg(a))},
		isa.Instruction{Op: isa.OP_JGE, Args: isa.Unary(isa.Imm(526))},
		isa.Instruction{Op: isa.OP_SUB, Args: isa.Binary(isa.Imm(1), isa.Reg(a))},
		isa.Instruction{Op: isa.OP_JMP, Args: isa.Unary(isa.Imm(502))},
	))
	require.NoError(t, r.Code(526,
		isa.Instruction{Op: isa.OP_RESET, Args: isa.NoArgs()},
	))

	r.buildCache()
	r.Proc.SetPC(0)

	// Track the decrement: a steps from 5 down to 1, then jge exits.
	seen := []isa.Word{}
	for range 64 {
		result, err := r.Step()
		assert.NoError(err)
		if result == STEP_RESET {
			break
		}
		if r.Proc.PC() == 502 {
			seen = append(seen, r.Proc.regs[a])
		}
	}
	assert.Equal([]isa.Word{5, 4, 3, 2, 1}, seen)
}

func TestRunner_PrivilegedVectors(t *testing.T) {
	assert := assert.New(t)

	r := NewRunner(variation.Standard)

	// Drop to user mode, then attempt a privileged instruction.
	sr := regCode(t, r.Proc, "sr")
	require.NoError(t, r.Rom(
		isa.Instruction{Op: isa.OP_LD, Args: isa.Binary(isa.Imm(0), isa.Reg(sr))},
		isa.Instruction{Op: isa.OP_RTI, Args: isa.NoArgs()},
	))

	r.buildCache()
	r.Proc.SetPC(0)

	result, err := r.Step()
	assert.NoError(err)
	assert.Equal(STEP_CONTINUE, result)
	assert.False(r.Proc.SR().Supervisor())

	result, err = r.Step()
	assert.NoError(err)
	assert.Equal(STEP_EXCEPTION, result)

	event, _ := r.Proc.Memory.Read(isa.Word(r.Proc.Variation.EventCode))
	assert.Equal(isa.Word(EVENT_PRIVILEGED_INSTRUCTION), event)
	assert.Equal(isa.Word(r.Proc.Variation.VectorAddr), r.Proc.PC())
	assert.True(r.Proc.SR().Supervisor())
}

func TestRunner_TrapAndRti(t *testing.T) {
	assert := assert.New(t)

	r := NewRunner(variation.Standard)
	b := regCode(t, r.Proc, "b")

	savedPC := isa.Word(r.Proc.Variation.SavedPC)
	require.NoError(t, r.Rom(
		isa.Instruction{Op: isa.OP_TRAP, Args: isa.NoArgs()},
		isa.Instruction{Op: isa.OP_LD, Args: isa.Binary(isa.Imm(7), isa.Reg(b))},
		isa.Instruction{Op: isa.OP_ST, Args: isa.Binary(isa.Reg(b), isa.Dir(900))},
		isa.Instruction{Op: isa.OP_RESET, Args: isa.NoArgs()},
	))
	// The handler advances the saved pc past the trap before rti, so
	// execution resumes at the following instruction.
	require.NoError(t, r.InterruptHandler(
		isa.Instruction{Op: isa.OP_LD, Args: isa.Binary(isa.Dir(uint32(savedPC)), isa.Reg(b))},
		isa.Instruction{Op: isa.OP_ADD, Args: isa.Binary(isa.Imm(2), isa.Reg(b))},
		isa.Instruction{Op: isa.OP_ST, Args: isa.Binary(isa.Reg(b), isa.Dir(uint32(savedPC)))},
		isa.Instruction{Op: isa.OP_RTI, Args: isa.NoArgs()},
	))

	assert.NoError(r.Run())

	value, _ := r.Proc.Memory.Read(900)
	assert.Equal(isa.Word(7), value)
	resumed, _ := r.Proc.Memory.Read(savedPC)
	assert.Equal(isa.Word(2), resumed)
	event, _ := r.Proc.Memory.Read(isa.Word(r.Proc.Variation.EventCode))
	assert.Equal(isa.Word(EVENT_TRAP), event)
}

func TestRunner_InvalidSlotRaises(t *testing.T) {
	assert := assert.New(t)

	r := NewRunner(variation.Standard)

	// Address 0 holds no valid instruction; a step must vector with
	// an invalid instruction event.
	require.NoError(t, r.Words(0, 0xFFFFFFFF, 0xFFFFFFFF))

	r.buildCache()
	r.Proc.SetPC(0)

	result, err := r.Step()
	assert.NoError(err)
	assert.Equal(STEP_EXCEPTION, result)

	event, _ := r.Proc.Memory.Read(isa.Word(r.Proc.Variation.EventCode))
	assert.Equal(isa.Word(EVENT_INVALID_INSTRUCTION), event)
}
