// Package vm implements the Z33 execution engine: register file,
// flat word-addressed memory, flag and privilege semantics, exception
// vectoring, and the runner that decodes a program image once and
// executes it until a reset or terminating failure.
package vm

import (
	"log"
	"math"

	"github.com/z33toolchain/z33/isa"
	"github.com/z33toolchain/z33/variation"
)

// Processor is the mutable machine state: register values, memory and
// the variation that shapes them.
type Processor struct {
	Verbose bool // Set to enable verbose logging.

	Variation variation.Variation
	Registers *isa.RegisterFile
	Memory    *Memory

	regs [256]isa.Word

	pcCode byte
	spCode byte
	srCode byte
}

// NewProcessor builds a processor for a machine variation. The
// variation must declare pc, sp and sr registers.
func NewProcessor(v variation.Variation) (p *Processor) {
	p = &Processor{
		Variation: v,
		Registers: isa.NewRegisterFile(v),
		Memory:    NewMemory(v.MemoryWords),
	}

	codeOf := func(name string) byte {
		info, ok := p.Registers.ByName(name)
		if !ok {
			panic(f("variation %v lacks register %v", v.Name, name))
		}
		return info.Code
	}
	p.pcCode = codeOf("pc")
	p.spCode = codeOf("sp")
	p.srCode = codeOf("sr")

	p.Reset()
	return
}

// Reset restores the default machine state: all registers zero, the
// supervisor bit set so startup code may touch protected state, and
// memory untouched.
func (p *Processor) Reset() {
	clear(p.regs[:])
	sr := isa.StatusRegister(0)
	sr.SetSupervisor(true)
	p.regs[p.srCode] = isa.Word(sr)
}

// PC returns the current program counter.
func (p *Processor) PC() isa.Word {
	return p.regs[p.pcCode]
}

// SetPC stores the program counter directly, without a privilege
// check.
func (p *Processor) SetPC(v isa.Word) {
	p.regs[p.pcCode] = v
}

// SR returns the current status register.
func (p *Processor) SR() isa.StatusRegister {
	return isa.StatusRegister(p.regs[p.srCode])
}

// SetSR stores the status register directly, without a privilege
// check.
func (p *Processor) SetSR(sr isa.StatusRegister) {
	p.regs[p.srCode] = isa.Word(sr)
}

// ReadRegister reads a register by code, enforcing read protection
// against the current privilege level.
func (p *Processor) ReadRegister(code byte) (value isa.Word, err error) {
	info, ok := p.Registers.ByCode(code)
	if !ok {
		err = Exception{Event: EVENT_INVALID_INSTRUCTION}
		return
	}
	if info.ReadProtected && !p.SR().Supervisor() {
		err = Exception{Event: EVENT_PRIVILEGED_INSTRUCTION}
		return
	}
	value = p.regs[code]
	return
}

// WriteRegister writes a register by code, enforcing write protection
// against the current privilege level.
func (p *Processor) WriteRegister(code byte, value isa.Word) (err error) {
	info, ok := p.Registers.ByCode(code)
	if !ok {
		err = Exception{Event: EVENT_INVALID_INSTRUCTION}
		return
	}
	if info.WriteProtected && !p.SR().Supervisor() {
		err = Exception{Event: EVENT_PRIVILEGED_INSTRUCTION}
		return
	}
	p.regs[code] = value
	return
}

// value resolves an operand to the 32-bit value it names.
func (p *Processor) value(arg isa.Argument) (value isa.Word, err error) {
	switch arg.Mode {
	case isa.MODE_IMMEDIATE:
		value = arg.Value
	case isa.MODE_REGISTER:
		value, err = p.ReadRegister(arg.Register)
	default:
		var addr isa.Word
		addr, err = p.address(arg)
		if err != nil {
			return
		}
		value, err = p.Memory.Read(addr)
	}
	return
}

// address resolves a memory-mode operand to the address it names.
func (p *Processor) address(arg isa.Argument) (addr isa.Word, err error) {
	switch arg.Mode {
	case isa.MODE_DIRECT:
		addr = arg.Value
	case isa.MODE_INDIRECT:
		addr, err = p.ReadRegister(arg.Register)
	case isa.MODE_INDEXED:
		addr, err = p.ReadRegister(arg.Register)
		addr += isa.Word(arg.Offset)
	default:
		panic(f("operand mode %v does not name an address", arg.Mode))
	}
	return
}

// store writes a value through a register or memory-mode operand.
func (p *Processor) store(arg isa.Argument, value isa.Word) (err error) {
	if arg.Mode == isa.MODE_REGISTER {
		return p.WriteRegister(arg.Register, value)
	}
	addr, err := p.address(arg)
	if err != nil {
		return
	}
	return p.Memory.Write(addr, value)
}

// setArithmeticFlags derives zero and negative from the signed result.
func (p *Processor) setArithmeticFlags(result isa.Word) {
	sr := p.SR()
	sr.SetZero(result == 0)
	sr.SetNegative(int32(result) < 0)
	p.SetSR(sr)
}

// addFlags sets all four flags for result = a + b.
func (p *Processor) addFlags(a, b, result isa.Word) {
	sr := p.SR()
	sr.SetCarry(result < a)
	sr.SetOverflow((a^b)&0x80000000 == 0 && (a^result)&0x80000000 != 0)
	sr.SetZero(result == 0)
	sr.SetNegative(int32(result) < 0)
	p.SetSR(sr)
}

// subFlags sets all four flags for result = a - b.
func (p *Processor) subFlags(a, b, result isa.Word) {
	sr := p.SR()
	sr.SetCarry(a < b)
	sr.SetOverflow((a^b)&0x80000000 != 0 && (a^result)&0x80000000 != 0)
	sr.SetZero(result == 0)
	sr.SetNegative(int32(result) < 0)
	p.SetSR(sr)
}

// jump writes the program counter from an operand value.
func (p *Processor) jump(arg isa.Argument) (err error) {
	target, err := p.value(arg)
	if err != nil {
		return
	}
	return p.WriteRegister(p.pcCode, target)
}

// Execute runs a single decoded instruction against the processor
// state. It returns reset=true when the instruction was a reset. A
// returned Exception has not yet been serviced. After a successful
// non-jumping instruction the program counter advances by two words.
func (p *Processor) Execute(inst isa.Instruction) (reset bool, err error) {
	info, ok := isa.InfoByCode(inst.Op)
	if !ok {
		err = Exception{Event: EVENT_INVALID_INSTRUCTION}
		return
	}

	if info.Privileged && !p.SR().Supervisor() {
		err = Exception{Event: EVENT_PRIVILEGED_INSTRUCTION}
		return
	}

	if p.Verbose {
		log.Printf("vm: %04d: %v", p.PC(), inst.Format(p.Registers))
	}

	pc := p.PC()
	lhs := inst.Args.Lhs
	rhs := inst.Args.Rhs

	// binaryOp loads src (lhs value) and dst (rhs register), applies
	// op, and stores the result back into the rhs register.
	binaryOp := func(op func(src, dst isa.Word) (isa.Word, error), flags func(src, dst, result isa.Word)) (err error) {
		src, err := p.value(lhs)
		if err != nil {
			return
		}
		dst, err := p.ReadRegister(rhs.Register)
		if err != nil {
			return
		}
		result, err := op(src, dst)
		if err != nil {
			return
		}
		err = p.WriteRegister(rhs.Register, result)
		if err != nil {
			return
		}
		flags(src, dst, result)
		return
	}

	logical := func(src, dst, result isa.Word) {
		p.setArithmeticFlags(result)
	}

	switch inst.Op {
	case isa.OP_ADD:
		err = binaryOp(
			func(src, dst isa.Word) (isa.Word, error) { return src + dst, nil },
			func(src, dst, result isa.Word) { p.addFlags(src, dst, result) },
		)

	case isa.OP_AND:
		err = binaryOp(func(src, dst isa.Word) (isa.Word, error) { return src & dst, nil }, logical)

	case isa.OP_OR:
		err = binaryOp(func(src, dst isa.Word) (isa.Word, error) { return src | dst, nil }, logical)

	case isa.OP_XOR:
		err = binaryOp(func(src, dst isa.Word) (isa.Word, error) { return src ^ dst, nil }, logical)

	case isa.OP_SHL:
		err = binaryOp(func(src, dst isa.Word) (isa.Word, error) {
			if src >= 32 {
				return 0, nil
			}
			return dst << src, nil
		}, logical)

	case isa.OP_SHR:
		err = binaryOp(func(src, dst isa.Word) (isa.Word, error) {
			if src >= 32 {
				return 0, nil
			}
			return dst >> src, nil
		}, logical)

	case isa.OP_DIV:
		err = binaryOp(func(src, dst isa.Word) (isa.Word, error) {
			if dst == 0 {
				return 0, Exception{Event: EVENT_DIVISION_BY_ZERO}
			}
			if int32(src) == math.MinInt32 && int32(dst) == -1 {
				return 0x80000000, nil
			}
			return isa.Word(int32(src) / int32(dst)), nil
		}, logical)

	case isa.OP_SUB:
		err = binaryOp(
			func(src, dst isa.Word) (isa.Word, error) { return dst - src, nil },
			func(src, dst, result isa.Word) { p.subFlags(dst, src, result) },
		)

	case isa.OP_CMP:
		var src, dst isa.Word
		src, err = p.value(lhs)
		if err != nil {
			break
		}
		dst, err = p.ReadRegister(rhs.Register)
		if err != nil {
			break
		}
		p.subFlags(src, dst, src-dst)

	case isa.OP_LD:
		err = binaryOp(
			func(src, dst isa.Word) (isa.Word, error) { return src, nil },
			func(src, dst, result isa.Word) {},
		)

	case isa.OP_ST:
		var addr, value isa.Word
		value, err = p.ReadRegister(lhs.Register)
		if err != nil {
			break
		}
		addr, err = p.address(rhs)
		if err != nil {
			break
		}
		err = p.Memory.Write(addr, value)

	case isa.OP_FAS:
		var addr, old isa.Word
		addr, err = p.address(lhs)
		if err != nil {
			break
		}
		old, err = p.ReadRegister(rhs.Register)
		if err != nil {
			break
		}
		err = p.WriteRegister(rhs.Register, 1)
		if err != nil {
			break
		}
		err = p.Memory.Write(addr, old)

	case isa.OP_SWAP:
		// Both locations are read before either write. If the second
		// write raises, the first location has already been updated.
		var a, b isa.Word
		a, err = p.value(lhs)
		if err != nil {
			break
		}
		b, err = p.ReadRegister(rhs.Register)
		if err != nil {
			break
		}
		err = p.store(lhs, b)
		if err != nil {
			break
		}
		err = p.WriteRegister(rhs.Register, a)

	case isa.OP_NOT:
		var value isa.Word
		value, err = p.ReadRegister(lhs.Register)
		if err != nil {
			break
		}
		value = ^value
		err = p.WriteRegister(lhs.Register, value)
		if err != nil {
			break
		}
		p.setArithmeticFlags(value)

	case isa.OP_JMP, isa.OP_CALL:
		err = p.jump(lhs)

	case isa.OP_JEQ:
		if p.SR().Zero() {
			err = p.jump(lhs)
		}

	case isa.OP_JNE:
		if !p.SR().Zero() {
			err = p.jump(lhs)
		}

	case isa.OP_JLE:
		sr := p.SR()
		if sr.Overflow() != sr.Carry() || sr.Zero() {
			err = p.jump(lhs)
		}

	case isa.OP_JLT:
		sr := p.SR()
		if sr.Overflow() != sr.Carry() {
			err = p.jump(lhs)
		}

	case isa.OP_JGE:
		sr := p.SR()
		if sr.Overflow() == sr.Carry() {
			err = p.jump(lhs)
		}

	case isa.OP_JGT:
		sr := p.SR()
		if sr.Overflow() == sr.Carry() && sr.Zero() {
			err = p.jump(lhs)
		}

	case isa.OP_PUSH:
		var src, sp isa.Word
		src, err = p.value(lhs)
		if err != nil {
			break
		}
		sp, err = p.ReadRegister(p.spCode)
		if err != nil {
			break
		}
		err = p.Memory.Write(sp, src)
		if err != nil {
			break
		}
		err = p.WriteRegister(p.spCode, sp-1)

	case isa.OP_POP:
		var sp, value isa.Word
		sp, err = p.ReadRegister(p.spCode)
		if err != nil {
			break
		}
		value, err = p.Memory.Read(sp)
		if err != nil {
			break
		}
		err = p.WriteRegister(lhs.Register, value)
		if err != nil {
			break
		}
		err = p.WriteRegister(p.spCode, sp+1)

	case isa.OP_RTN:
		var sp, target isa.Word
		sp, err = p.ReadRegister(p.spCode)
		if err != nil {
			break
		}
		target, err = p.Memory.Read(sp)
		if err != nil {
			break
		}
		err = p.WriteRegister(p.pcCode, target)

	case isa.OP_RTI:
		var savedPC, savedSR isa.Word
		savedPC, err = p.Memory.Read(isa.Word(p.Variation.SavedPC))
		if err != nil {
			break
		}
		savedSR, err = p.Memory.Read(isa.Word(p.Variation.SavedSR))
		if err != nil {
			break
		}
		p.SetPC(savedPC)
		p.SetSR(isa.StatusRegister(savedSR))

	case isa.OP_NOP:
		// pass

	case isa.OP_RESET:
		p.Reset()
		reset = true
		return

	case isa.OP_TRAP:
		err = Exception{Event: EVENT_TRAP}

	default:
		err = Exception{Event: EVENT_INVALID_INSTRUCTION}
	}

	if err != nil {
		return
	}

	// Each instruction occupies two words; jumps that wrote pc skip
	// the auto-increment.
	if p.PC() == pc {
		p.SetPC(pc + 2)
	}
	return
}

// Service runs the exception prologue: save pc, sr and the event code
// to the reserved words, enter supervisor mode, and vector to the
// exception entry. A failure in the prologue itself is fatal.
func (p *Processor) Service(e Exception) (err error) {
	fatal := func(werr error) error {
		return &ServiceError{Event: e.Event, Err: werr}
	}

	if err := p.Memory.Write(isa.Word(p.Variation.SavedPC), p.PC()); err != nil {
		return fatal(err)
	}
	if err := p.Memory.Write(isa.Word(p.Variation.SavedSR), isa.Word(p.SR())); err != nil {
		return fatal(err)
	}
	if err := p.Memory.Write(isa.Word(p.Variation.EventCode), isa.Word(e.Event)); err != nil {
		return fatal(err)
	}

	sr := p.SR()
	sr.SetSupervisor(true)
	p.SetSR(sr)
	p.SetPC(isa.Word(p.Variation.VectorAddr))

	if p.Verbose {
		log.Printf("vm: exception %v vectored to %04d", int(e.Event), p.Variation.VectorAddr)
	}
	return
}
