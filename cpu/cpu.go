package cpu

import (
	"errors"
	"fmt"
	goio "io"
	"iter"
	"log"
	"maps"

	"github.com/ezrec/um/io"
	"github.com/ezrec/um/memory"
)

// Channel is an I/O channel interface.
type Channel io.Channel

// INPUT_EOF is the value stored by the input instruction at end of input.
const INPUT_EOF = ^uint32(0)

var _cpu_defines = map[string]string{
	"INPUT_EOF":      fmt.Sprintf("%#x", INPUT_EOF),
	"IMMEDIATE_MASK": fmt.Sprintf("%#x", IMMEDIATE_MASK),
}

// Cpu is the simulation context for the Universal Machine processor.
type Cpu struct {
	Verbose bool // Set to enable verbose logging.

	Memory  *memory.Store // Segmented memory.
	Console Channel       // Byte I/O channel.

	Ip       uint32    // Current instruction pointer, an offset into segment 0.
	Register [8]uint32 // Register bank.
	Halted   bool      // Set once the halt instruction has executed.
	Loaded   bool      // Set once segment 0 has been replaced from another segment.

	Ticks int // Executed instruction counter.
}

// NewCpu creates a new CPU over a segment store and console channel.
func NewCpu(store *memory.Store, console Channel) (cpu *Cpu) {
	cpu = &Cpu{
		Memory:  store,
		Console: console,
	}

	return
}

// Defines for the cpu
func (cpu *Cpu) Defines() iter.Seq2[string, string] {
	return maps.All(_cpu_defines)
}

// String returns the current CPU state as a string.
func (cpu *Cpu) String() (text string) {
	text = fmt.Sprintf("% 5s: %04X_%04X\n", "ip", cpu.Ip>>16, cpu.Ip&0xffff)
	for n, val := range cpu.Register {
		text += fmt.Sprintf("% 5s: %04X_%04X\n", CodeReg(n).String(), val>>16, val&0xffff)
	}
	text += fmt.Sprintf("% 5s: %v\n", "ticks", cpu.Ticks)

	return
}

// Reset the CPU state.
// - Clears the registers.
// - Zeros the instruction pointer and statistics counters.
// - Leaves the halted state.
func (cpu *Cpu) Reset() {
	if cpu.Verbose {
		log.Printf("cpu: reset")
	}

	clear(cpu.Register[:])
	cpu.Ip = 0
	cpu.Halted = false
	cpu.Loaded = false
	cpu.Ticks = 0
}

// Fetch fetches the instruction at the instruction pointer.
// ErrIpEmpty is returned once the instruction pointer has run off the
// end of segment 0.
func (cpu *Cpu) Fetch() (code Code, err error) {
	if cpu.Halted {
		err = ErrHalted
		return
	}

	if cpu.Memory == nil {
		err = ErrMemoryAbsent
		return
	}

	if cpu.Ip >= cpu.Memory.ProgramLen() {
		err = ErrIpEmpty
		return
	}

	word, err := cpu.Memory.Read(0, cpu.Ip)
	if err != nil {
		return
	}

	code = Code(word)
	return
}

// Tick executes a single CPU instruction cycle.
func (cpu *Cpu) Tick() (err error) {
	code, err := cpu.Fetch()
	if err != nil {
		return
	}

	cpu.Ip++

	err = cpu.Execute(code)
	if err != nil {
		return
	}

	cpu.Ticks++

	return
}

// Execute executes a single decoded instruction.
// Registers are read before any register is written, so the A, B and C
// selectors may name the same register.
func (cpu *Cpu) Execute(code Code) (err error) {
	defer func() {
		if err != nil {
			err = errors.Join(ErrOpcode(code), err)
		}
	}()

	reg := &cpu.Register
	a, b, c := code.Abc()

	switch code.Opcode() {
	case OP_LOAD, OP_STORE, OP_MAP, OP_UNMAP, OP_LOADP:
		if cpu.Memory == nil {
			err = ErrMemoryAbsent
			return
		}
	}

	switch code.Opcode() {
	case OP_CMOV:
		if reg[c] != 0 {
			reg[a] = reg[b]
		}
	case OP_LOAD:
		var value uint32
		value, err = cpu.Memory.Read(reg[b], reg[c])
		if err != nil {
			return
		}
		reg[a] = value
	case OP_STORE:
		err = cpu.Memory.Write(reg[a], reg[b], reg[c])
	case OP_ADD:
		reg[a] = reg[b] + reg[c]
	case OP_MUL:
		reg[a] = reg[b] * reg[c]
	case OP_DIV:
		if reg[c] == 0 {
			err = ErrDivideByZero
			return
		}
		reg[a] = reg[b] / reg[c]
	case OP_NAND:
		reg[a] = ^(reg[b] & reg[c])
	case OP_HALT:
		cpu.Halted = true
		if cpu.Verbose {
			log.Printf("cpu: halt at ip %#x", cpu.Ip-1)
		}
	case OP_MAP:
		var handle uint32
		handle, err = cpu.Memory.Allocate(reg[c])
		if err != nil {
			return
		}
		reg[b] = handle
	case OP_UNMAP:
		err = cpu.Memory.Free(reg[c])
	case OP_OUT:
		if reg[c] > 0xff {
			err = ErrOutputRange
			return
		}
		if cpu.Console == nil {
			err = ErrChannelAbsent
			return
		}
		err = cpu.Console.Send(byte(reg[c]))
	case OP_IN:
		if cpu.Console == nil {
			err = ErrChannelAbsent
			return
		}
		var value byte
		value, err = cpu.Console.Receive()
		if errors.Is(err, goio.EOF) {
			reg[c] = INPUT_EOF
			err = nil
			return
		}
		if err != nil {
			return
		}
		reg[c] = uint32(value)
	case OP_LOADP:
		ip := reg[c]
		err = cpu.Memory.Load(reg[b])
		if err != nil {
			return
		}
		if reg[b] != 0 {
			cpu.Loaded = true
		}
		if ip >= cpu.Memory.ProgramLen() {
			err = ErrIpRange
			return
		}
		cpu.Ip = ip
	case OP_LV:
		dst, value := code.Value()
		reg[dst] = value
	default:
		err = ErrOpcodeInvalid
	}

	return
}
