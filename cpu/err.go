package cpu

import (
	"errors"

	"github.com/ezrec/um/translate"
)

var f = translate.From

var (
	// Cpu errors
	ErrIpEmpty       = errors.New(f("ip past end of program"))
	ErrIpRange       = errors.New(f("ip out of range"))
	ErrHalted        = errors.New(f("halted"))
	ErrDivideByZero  = errors.New(f("divide by zero"))
	ErrOutputRange   = errors.New(f("output exceeds one byte"))
	ErrChannelAbsent = errors.New(f("channel absent"))
	ErrMemoryAbsent  = errors.New(f("memory absent"))

	// Instruction decode errors
	ErrOpcodeInvalid = errors.New(f("opcode invalid"))

	// Assembler errors
	ErrEquateSyntax    = errors.New(f(".equ syntax"))
	ErrEquateDuplicate = errors.New(f(".equ duplicated"))
	ErrLabelDuplicate  = errors.New(f("label duplicated"))
	ErrOpcodeExtraArgs = errors.New(f("excessive arguments"))
	ErrOpcodeArgs      = errors.New(f("missing arguments"))
	ErrRegisterInvalid = errors.New(f("register invalid"))
	ErrValueRange      = errors.New(f("value out of range"))
)

// ErrOpcode reports the instruction word that faulted.
type ErrOpcode Code

func (eo ErrOpcode) Error() string {
	return f("bad opcode %#08x %v", uint32(eo), Code(eo).String())
}

func (eo ErrOpcode) Is(err error) (ok bool) {
	_, ok = err.(ErrOpcode)
	return
}

type ErrLabelMissing string

func (el ErrLabelMissing) Error() string {
	return f("label %v missing", string(el))
}

type ErrOpcodeUnknown string

func (eu ErrOpcodeUnknown) Error() string {
	return f("'%v' is not an opcode", string(eu))
}

type ErrSyntax struct {
	LineNo int
	Line   string
	Err    error
}

func (err ErrSyntax) Error() string {
	return f("line %d '%v' %v", err.LineNo, err.Line, err.Err)
}

func (err ErrSyntax) Unwrap() error {
	return err.Err
}

type ErrParseNumber string

func (err ErrParseNumber) Error() string {
	return f("'%v' is not a number", string(err))
}

type ErrParseExpression string

func (err ErrParseExpression) Error() string {
	return f("$(%v) is not a valid expression", string(err))
}
