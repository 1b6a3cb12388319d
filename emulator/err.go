package emulator

import (
	"github.com/ezrec/um/translate"
)

var f = translate.From

// ErrRuntime indicates the location of a runtime error.
type ErrRuntime struct {
	Ip     uint32 // Instruction pointer of the faulting instruction.
	LineNo int    // Source line, when the program was assembled.
	Err    error
}

func (err *ErrRuntime) Error() string {
	if err.LineNo > 0 {
		return f("line %d ip %#x %v", err.LineNo, err.Ip, err.Err)
	}
	return f("ip %#x %v", err.Ip, err.Err)
}

func (err *ErrRuntime) Unwrap() error {
	return err.Err
}
