package wasmgen

import (
	"fmt"
	"strconv"
)

// Opcodes emitted by this package.
const (
	OpCall     byte = 0x10
	OpLocalGet byte = 0x20
	OpI64Const byte = 0x42
	OpI64Add   byte = 0x7C
	OpI64Sub   byte = 0x7D
	OpI64Mul   byte = 0x7E
	OpI64DivS  byte = 0x7F
)

// Instruction is a single opcode with its optional immediate.
type Instruction struct {
	Op  byte
	Imm int64
}

// LocalGet pushes local (or parameter) idx.
func LocalGet(idx uint32) Instruction { return Instruction{Op: OpLocalGet, Imm: int64(idx)} }

// I64Const pushes a constant.
func I64Const(v int64) Instruction { return Instruction{Op: OpI64Const, Imm: v} }

// Call invokes function idx. Imported functions come first in the index space.
func Call(idx uint32) Instruction { return Instruction{Op: OpCall, Imm: int64(idx)} }

var (
	I64Add  = Instruction{Op: OpI64Add}
	I64Sub  = Instruction{Op: OpI64Sub}
	I64Mul  = Instruction{Op: OpI64Mul}
	I64DivS = Instruction{Op: OpI64DivS}
)

func (in Instruction) encode(w *writer) {
	w.Byte(in.Op)
	switch in.Op {
	case OpLocalGet, OpCall:
		w.WriteU32(uint32(in.Imm))
	case OpI64Const:
		w.WriteS64(in.Imm)
	}
}

// Encode returns the instruction bytes.
func (in Instruction) Encode() []byte {
	var w writer
	in.encode(&w)
	return w.Bytes()
}

func (in Instruction) String() string {
	switch in.Op {
	case OpLocalGet:
		return fmt.Sprintf("local.get %d", in.Imm)
	case OpCall:
		return fmt.Sprintf("call %d", in.Imm)
	case OpI64Const:
		return fmt.Sprintf("i64.const %d", in.Imm)
	case OpI64Add:
		return "i64.add"
	case OpI64Sub:
		return "i64.sub"
	case OpI64Mul:
		return "i64.mul"
	case OpI64DivS:
		return "i64.div_s"
	default:
		return fmt.Sprintf("op 0x%02x", in.Op)
	}
}

// ParseTokens translates generator tokens into instructions. "x" reads the
// function argument, "+ - * /" are the i64 operators and any other token
// must be a decimal int64 constant.
//
// Tokens are emitted in order, so operands precede their operator:
// "x 2 *" doubles the argument.
func ParseTokens(tokens []string) ([]Instruction, error) {
	instrs := make([]Instruction, 0, len(tokens))
	for i, tok := range tokens {
		switch tok {
		case "+":
			instrs = append(instrs, I64Add)
		case "-":
			instrs = append(instrs, I64Sub)
		case "*":
			instrs = append(instrs, I64Mul)
		case "/":
			instrs = append(instrs, I64DivS)
		case "x":
			instrs = append(instrs, LocalGet(0))
		default:
			v, err := strconv.ParseInt(tok, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("token %d %q: not an operator or integer", i, tok)
			}
			instrs = append(instrs, I64Const(v))
		}
	}
	return instrs, nil
}
