package cpu

import (
	"iter"
)

// Program is an assembled program image.
type Program struct {
	Words []uint32 // Instruction and data words.
	Lines []int    // Source line of each word.
}

// LineNo returns the source line for the word at ip, or 0 if unknown.
func (prog *Program) LineNo(ip uint32) int {
	if uint64(ip) >= uint64(len(prog.Lines)) {
		return 0
	}

	return prog.Lines[ip]
}

// Binary returns the program image words.
func (prog *Program) Binary() (bins []uint32) {
	return prog.Words
}

// Codes iterates over the program words as instructions.
func (prog *Program) Codes() iter.Seq2[uint32, Code] {
	return func(yield func(ip uint32, code Code) bool) {
		for ip, word := range prog.Words {
			if !yield(uint32(ip), Code(word)) {
				return
			}
		}
	}
}
