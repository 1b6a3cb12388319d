// Package cpu implements the processor and assembler for the Universal Machine.
//
// The CPU consists of an instruction pointer (IP) into segment 0, eight
// 32-bit general-purpose registers (r0-r7), and fourteen operations over
// registers, segmented memory and a byte I/O channel. Instruction words
// carry a 4-bit opcode in the top nibble, and either three 3-bit
// register selectors in the low nine bits, or a register and 25-bit
// immediate for load-value.
//
// The assembler provides a small assembly language for the instruction
// set, supporting labels, equates, data words, and compile-time
// expression evaluation.
package cpu
