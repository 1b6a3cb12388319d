package cpu

import (
	"fmt"
)

// Opcode is the operation held in the top nibble of an instruction word.
type Opcode int

//go:generate go tool stringer -linecomment -type=Opcode
const (
	OP_CMOV  = Opcode(0)  // cmov
	OP_LOAD  = Opcode(1)  // load
	OP_STORE = Opcode(2)  // store
	OP_ADD   = Opcode(3)  // add
	OP_MUL   = Opcode(4)  // mul
	OP_DIV   = Opcode(5)  // div
	OP_NAND  = Opcode(6)  // nand
	OP_HALT  = Opcode(7)  // halt
	OP_MAP   = Opcode(8)  // map
	OP_UNMAP = Opcode(9)  // unmap
	OP_OUT   = Opcode(10) // out
	OP_IN    = Opcode(11) // in
	OP_LOADP = Opcode(12) // loadp
	OP_LV    = Opcode(13) // lv
)

// OPCODE_COUNT is the number of defined opcodes.
const OPCODE_COUNT = 14

// Valid returns true if the opcode is part of the instruction set.
func (op Opcode) Valid() bool {
	return op >= OP_CMOV && op <= OP_LV
}

// CodeReg is a register selector.
type CodeReg uint8

//go:generate go tool stringer -linecomment -type=CodeReg
const (
	REG_R0 = CodeReg(0) // r0
	REG_R1 = CodeReg(1) // r1
	REG_R2 = CodeReg(2) // r2
	REG_R3 = CodeReg(3) // r3
	REG_R4 = CodeReg(4) // r4
	REG_R5 = CodeReg(5) // r5
	REG_R6 = CodeReg(6) // r6
	REG_R7 = CodeReg(7) // r7
)

// IMMEDIATE_MASK is the mask of the 25-bit load-value immediate.
const IMMEDIATE_MASK = uint32(1<<25 - 1)

// Code is a single 32-bit instruction word.
type Code uint32

// MakeCode creates a three-register instruction.
func MakeCode(op Opcode, a, b, c CodeReg) Code {
	return Code((uint32(op) << 28) | (uint32(a&7) << 6) | (uint32(b&7) << 3) | uint32(c&7))
}

// MakeCodeValue creates a load-value instruction.
// Bits of value above the 25-bit immediate are discarded.
func MakeCodeValue(a CodeReg, value uint32) Code {
	return Code((uint32(OP_LV) << 28) | (uint32(a&7) << 25) | (value & IMMEDIATE_MASK))
}

// MakeCodeHalt creates a halt instruction.
func MakeCodeHalt() Code {
	return MakeCode(OP_HALT, REG_R0, REG_R0, REG_R0)
}

// Opcode returns the operation from the instruction word.
func (code Code) Opcode() Opcode {
	return Opcode(uint32(code) >> 28)
}

// Abc decodes and returns the A, B and C register selectors.
func (code Code) Abc() (a, b, c CodeReg) {
	word := uint32(code)
	a = CodeReg((word >> 6) & 0x7)
	b = CodeReg((word >> 3) & 0x7)
	c = CodeReg((word >> 0) & 0x7)
	return
}

// Value decodes and returns the load-value register and immediate.
func (code Code) Value() (a CodeReg, value uint32) {
	word := uint32(code)
	a = CodeReg((word >> 25) & 0x7)
	value = word & IMMEDIATE_MASK
	return
}

// String returns the assembly language representation of this instruction.
func (code Code) String() (out string) {
	op := code.Opcode()
	a, b, c := code.Abc()

	switch op {
	case OP_CMOV, OP_LOAD, OP_STORE, OP_ADD, OP_MUL, OP_DIV, OP_NAND:
		out = fmt.Sprintf("%v %v %v %v", op, a, b, c)
	case OP_HALT:
		out = op.String()
	case OP_MAP, OP_LOADP:
		out = fmt.Sprintf("%v %v %v", op, b, c)
	case OP_UNMAP, OP_OUT, OP_IN:
		out = fmt.Sprintf("%v %v", op, c)
	case OP_LV:
		reg, value := code.Value()
		out = fmt.Sprintf("%v %v %#x", op, reg, value)
	default:
		out = fmt.Sprintf(".word %#x", uint32(code))
	}

	return
}
