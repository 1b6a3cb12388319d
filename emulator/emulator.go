// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"errors"
	"fmt"
	goio "io"
	"iter"
	"log"
	"maps"

	"github.com/ezrec/um/cpu"
	"github.com/ezrec/um/internal"
	"github.com/ezrec/um/io"
	"github.com/ezrec/um/memory"
)

var _emulator_defines = map[string]string{
	"WORD_SIZE": fmt.Sprintf("%v", io.WORD_SIZE),
}

// Emulator state. CPU + segmented memory + IO channels.
type Emulator struct {
	Verbose   bool         // If set, enables verbose logging.
	WordLimit uint64       // Memory limit in words; zero selects memory.WORD_LIMIT.
	*cpu.Cpu               // Reference to the CPU simulation.
	Program   *cpu.Program // Reference to the assembled program listing, if any.

	Tape io.Tape // Console IO channel.
	Rom  io.Rom  // Program image loaded into segment 0 on reset.

	closed bool
}

// NewEmulator creates a new emulator.
func NewEmulator() (emu *Emulator) {
	emu = &Emulator{
		Program: &cpu.Program{},
	}

	emu.Cpu = cpu.NewCpu(nil, &emu.Tape)

	return
}

// Defines returns an iterator over all of the defines
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	return internal.Concat2(maps.All(_emulator_defines),
		emu.Cpu.Defines(),
	)
}

// Load reads a program image into the ROM, replacing any assembled
// program. A partial trailing word is dropped.
func (emu *Emulator) Load(r goio.Reader) (err error) {
	_, err = emu.Rom.ReadFrom(r)
	if io.Truncated(err) {
		if emu.Verbose {
			log.Printf("emulator: %v", err)
		}
		err = nil
	}
	if err != nil {
		return
	}

	emu.Program = &cpu.Program{}

	return
}

// Reset the emulator state.
// - Copies an assembled program, if any, into the ROM.
// - Releases any prior segmented memory.
// - Creates segment 0 from the ROM.
// - Resets the CPU.
func (emu *Emulator) Reset() (err error) {
	if emu.closed {
		err = memory.ErrClosed
		return
	}

	if emu.Program != nil && len(emu.Program.Words) != 0 {
		emu.Rom.Data = emu.Program.Binary()
	}

	if len(emu.Rom.Data) == 0 {
		err = io.ErrImageEmpty
		return
	}

	if emu.Cpu.Memory != nil {
		err = emu.Cpu.Memory.Close()
		if err != nil {
			return
		}
	}

	emu.Cpu.Memory = memory.NewStore(emu.Rom.Data)
	emu.Cpu.Memory.Verbose = emu.Verbose
	if emu.WordLimit != 0 {
		emu.Cpu.Memory.WordLimit = emu.WordLimit
	}
	emu.Cpu.Verbose = emu.Verbose
	emu.Cpu.Reset()

	if emu.Verbose {
		log.Printf("emulator: reset, %d words in segment 0", len(emu.Rom.Data))
	}

	return
}

// Ticks returns the total instructions executed since a reset.
func (emu *Emulator) Ticks() int {
	return emu.Cpu.Ticks
}

// Tick performs a single tick of the emulator.
// done is set once the program has halted, or has run off the end of
// segment 0.
func (emu *Emulator) Tick() (done bool, err error) {
	ip := emu.Cpu.Ip
	loaded := emu.Cpu.Loaded

	defer func() {
		if err != nil {
			lineno := 0
			// After a loadp from another segment the listing no longer applies.
			if !loaded {
				lineno = emu.Program.LineNo(ip)
			}
			err = &ErrRuntime{Ip: ip, LineNo: lineno, Err: err}
		}
	}()

	err = emu.Cpu.Tick()
	switch {
	case errors.Is(err, cpu.ErrIpEmpty):
		if emu.Verbose {
			log.Printf("emulator: end of program at ip %#x", ip)
		}
		err = nil
		done = true
	case errors.Is(err, cpu.ErrHalted):
		err = nil
		done = true
	case err == nil:
		done = emu.Cpu.Halted
	}

	return
}

// Run ticks the emulator until the program is done, or faults.
func (emu *Emulator) Run() (err error) {
	for done := false; !done; {
		done, err = emu.Tick()
		if err != nil {
			return
		}
	}

	if emu.Verbose {
		log.Printf("emulator: done after %d ticks", emu.Ticks())
	}

	return
}

// Close the emulator, releasing all segments and flushing output.
// Only the first call has any effect.
func (emu *Emulator) Close() (err error) {
	if emu.closed {
		return
	}
	emu.closed = true

	if emu.Cpu.Memory != nil {
		err = emu.Cpu.Memory.Close()
	}

	err = errors.Join(err, emu.Tape.Flush())

	return
}
