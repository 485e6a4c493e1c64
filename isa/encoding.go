package isa

// Machine-code layout. Every instruction occupies 64 bits, stored as
// two 32-bit words at consecutive addresses, high word first:
//
//	bits 63..56  opcode
//	bits 55..53  lhs addressing-mode kind
//	bits 52..50  rhs addressing-mode kind
//	bit  49      precision (0 = low, 1 = high)
//	bits 48..0   operand payloads
//
// Payloads pack into the low bits, rhs first: rhs occupies bits
// [0, wr) and lhs bits [wr, wr+wl), where the field widths wl and wr
// depend on the operand kind and the precision:
//
//	immediate, direct   14 bits low    32 bits high
//	register, indirect  10 bits
//	indexed             24 bits low    34 bits high
//
// An indexed payload is the register code above a signed offset: 10+14
// bits at low precision, 10+24 at high. Signed fields sign-extend on
// decode. Low precision is chosen whenever every operand fits; an
// indexed offset wider than 24 bits is not encodable at all.
//
// Opcodes whose ReversedArgs flag is set swap the payload order (lhs
// first in the low bits) while keeping mnemonic order in the syntax.

// Payload widths per operand kind.
const (
	widthValueLow   = 14
	widthValueHigh  = 32
	widthRegister   = 10
	widthOffsetLow  = 14
	widthOffsetHigh = 24
)

// payloadBits is the total payload region below the precision bit.
const payloadBits = 49

func payloadWidth(mode Mode, high bool) int {
	switch mode {
	case MODE_IMMEDIATE, MODE_DIRECT:
		if high {
			return widthValueHigh
		}
		return widthValueLow
	case MODE_REGISTER, MODE_INDIRECT:
		return widthRegister
	case MODE_INDEXED:
		if high {
			return widthRegister + widthOffsetHigh
		}
		return widthRegister + widthOffsetLow
	}
	return 0
}

func fitsSigned(v int32, bits uint) bool {
	limit := int32(1) << (bits - 1)
	return v >= -limit && v < limit
}

// fitsLow reports whether the operand is representable in a
// low-precision payload field.
func fitsLow(arg Argument) bool {
	switch arg.Mode {
	case MODE_IMMEDIATE:
		return fitsSigned(int32(arg.Value), widthValueLow)
	case MODE_DIRECT:
		return arg.Value < 1<<widthValueLow
	case MODE_INDEXED:
		return fitsSigned(arg.Offset, widthOffsetLow)
	}
	return true
}

// fitsHigh reports whether the operand is representable at all.
func fitsHigh(arg Argument) bool {
	if arg.Mode == MODE_INDEXED {
		return fitsSigned(arg.Offset, widthOffsetHigh)
	}
	return true
}

// encodePayload packs one operand into its payload field.
func encodePayload(arg Argument, high bool) (payload uint64) {
	switch arg.Mode {
	case MODE_IMMEDIATE, MODE_DIRECT:
		if high {
			payload = uint64(arg.Value)
		} else {
			payload = uint64(arg.Value) & (1<<widthValueLow - 1)
		}
	case MODE_REGISTER, MODE_INDIRECT:
		payload = uint64(arg.Register)
	case MODE_INDEXED:
		width := uint(widthOffsetLow)
		if high {
			width = widthOffsetHigh
		}
		payload = uint64(arg.Register)<<width | uint64(uint32(arg.Offset))&(1<<width-1)
	}
	return
}

func signExtend(v uint64, bits uint) int32 {
	shift := 64 - bits
	return int32(int64(v<<shift) >> shift)
}

// Encode packs an instruction into its 64-bit machine form. Operands
// that exceed even the high-precision field widths fail with
// ErrOperandRange.
func (inst Instruction) Encode() (value uint64, err error) {
	err = inst.Validate()
	if err != nil {
		return
	}
	info := inst.Info()

	args := []Argument{}
	switch inst.Args.Arity {
	case ARITY_UNARY:
		args = append(args, inst.Args.Lhs)
	case ARITY_BINARY:
		args = append(args, inst.Args.Lhs, inst.Args.Rhs)
	}

	high := false
	for _, arg := range args {
		if !fitsHigh(arg) {
			err = ErrOperandRange
			return
		}
		if !fitsLow(arg) {
			high = true
		}
	}

	value = uint64(info.Code) << 56
	if len(args) == 0 {
		return
	}

	value |= uint64(inst.Args.Lhs.Mode) << 53
	if high {
		value |= 1 << 49
	}

	if inst.Args.Arity == ARITY_UNARY {
		value |= encodePayload(inst.Args.Lhs, high)
		return
	}

	value |= uint64(inst.Args.Rhs.Mode) << 50

	lw := payloadWidth(inst.Args.Lhs.Mode, high)
	rw := payloadWidth(inst.Args.Rhs.Mode, high)
	if lw+rw > payloadBits {
		err = ErrOperandRange
		return
	}

	lp := encodePayload(inst.Args.Lhs, high)
	rp := encodePayload(inst.Args.Rhs, high)
	if info.ReversedArgs {
		value |= lp | rp<<lw
	} else {
		value |= rp | lp<<rw
	}
	return
}

// EncodeWords packs an instruction into the two consecutive memory
// words of its machine form, high word first.
func (inst Instruction) EncodeWords() (hi, lo Word, err error) {
	value, err := inst.Encode()
	if err != nil {
		return
	}
	hi = Word(value >> 32)
	lo = Word(value)
	return
}

// decodePayload unpacks one operand from its payload field, validating
// register codes against rf.
func decodePayload(mode Mode, payload uint64, high bool, rf *RegisterFile) (arg Argument, err error) {
	register := func(code uint64) (b byte, err error) {
		if code > 0xff {
			err = ErrUnknownRegister(f("code %v", code))
			return
		}
		b = byte(code)
		if _, ok := rf.ByCode(b); !ok {
			err = ErrUnknownRegister(f("code %v", code))
		}
		return
	}

	switch mode {
	case MODE_IMMEDIATE:
		if high {
			arg = Imm(Word(payload))
		} else {
			arg = Imm(Word(signExtend(payload, widthValueLow)))
		}
	case MODE_DIRECT:
		arg = Dir(Word(payload))
	case MODE_REGISTER, MODE_INDIRECT:
		var code byte
		code, err = register(payload)
		if err != nil {
			return
		}
		if mode == MODE_REGISTER {
			arg = Reg(code)
		} else {
			arg = Ind(code)
		}
	case MODE_INDEXED:
		width := uint(widthOffsetLow)
		if high {
			width = widthOffsetHigh
		}
		var code byte
		code, err = register(payload >> width)
		if err != nil {
			return
		}
		arg = Idx(code, signExtend(payload&(1<<width-1), width))
	default:
		err = ErrModeUnknown
	}
	return
}

// Decode unpacks a 64-bit machine value into an instruction, resolving
// register codes through rf. Any malformed field fails the decode.
func Decode(value uint64, rf *RegisterFile) (inst Instruction, err error) {
	code := Opcode(value >> 56)
	info, ok := InfoByCode(code)
	if !ok {
		err = ErrOpcodeUnknown
		return
	}
	inst.Op = code

	if info.Arity == ARITY_NONE {
		inst.Args = NoArgs()
		return
	}

	high := (value>>49)&1 != 0
	lhsMode := Mode((value >> 53) & 7)

	if lhsMode > MODE_INDEXED {
		err = ErrModeUnknown
		return
	}
	if !info.Lhs.Contains(lhsMode) {
		err = ErrModeNotAllowed
		return
	}

	if info.Arity == ARITY_UNARY {
		wl := uint(payloadWidth(lhsMode, high))
		var lhs Argument
		lhs, err = decodePayload(lhsMode, value&(1<<wl-1), high, rf)
		if err != nil {
			return
		}
		inst.Args = Unary(lhs)
		return
	}

	rhsMode := Mode((value >> 50) & 7)
	if rhsMode > MODE_INDEXED {
		err = ErrModeUnknown
		return
	}
	if !info.Rhs.Contains(rhsMode) {
		err = ErrModeNotAllowed
		return
	}

	wl := uint(payloadWidth(lhsMode, high))
	wr := uint(payloadWidth(rhsMode, high))

	var lp, rp uint64
	if info.ReversedArgs {
		lp = value & (1<<wl - 1)
		rp = (value >> wl) & (1<<wr - 1)
	} else {
		rp = value & (1<<wr - 1)
		lp = (value >> wr) & (1<<wl - 1)
	}

	lhs, err := decodePayload(lhsMode, lp, high, rf)
	if err != nil {
		return
	}
	rhs, err := decodePayload(rhsMode, rp, high, rf)
	if err != nil {
		return
	}
	inst.Args = Binary(lhs, rhs)
	return
}

// DecodeWords unpacks the two consecutive memory words of an
// instruction, high word first.
func DecodeWords(hi, lo Word, rf *RegisterFile) (inst Instruction, err error) {
	return Decode(uint64(hi)<<32|uint64(lo), rf)
}
