// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"bufio"
	"flag"
	"fmt"
	goio "io"
	"log"
	"os"

	"github.com/ezrec/um/cpu"
	"github.com/ezrec/um/emulator"
	"github.com/ezrec/um/io"
	"github.com/ezrec/um/memory"
)

// assemble compiles a source file, and writes the program image.
func assemble(emu *emulator.Emulator, source string, image string) (prog *cpu.Program, err error) {
	inf, err := os.Open(source)
	if err != nil {
		return
	}
	defer inf.Close()

	asm := &cpu.Assembler{Verbose: emu.Verbose}
	for key, value := range emu.Defines() {
		asm.Predefine(key, value)
	}

	prog, err = asm.Parse(inf)
	if err != nil {
		err = fmt.Errorf("%v: %w", source, err)
		return
	}

	if emu.Verbose {
		for ip, code := range prog.Codes() {
			log.Printf("%08x: %-24v ; line %d", ip, code, prog.LineNo(ip))
		}
	}

	ouf, err := os.Create(image)
	if err != nil {
		return
	}

	rom := &io.Rom{Data: prog.Binary()}
	_, err = rom.WriteTo(ouf)
	if err != nil {
		ouf.Close()
		return
	}

	err = ouf.Close()
	return
}

// run the command, returning the process exit code.
func run(args []string, stdin goio.Reader, stdout goio.Writer, stderr goio.Writer) (rc int) {
	var compile string
	var save bool
	var verbose bool
	var words uint64

	log.SetOutput(stderr)

	flags := flag.NewFlagSet(args[0], flag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.Usage = func() {
		fmt.Fprintf(stderr, "usage: %v [-v] [-m words] [-c source.uma] [-s] image.um\n", args[0])
		flags.PrintDefaults()
	}

	flags.StringVar(&compile, "c", "", ".uma file to assemble into the image")
	flags.BoolVar(&save, "s", false, "Save the assembled image, do not execute")
	flags.BoolVar(&verbose, "v", false, "Verbose mode")
	flags.Uint64Var(&words, "m", memory.WORD_LIMIT, "Memory limit, in words")

	err := flags.Parse(args[1:])
	if err != nil {
		return 2
	}

	if flags.NArg() != 1 {
		flags.Usage()
		return 2
	}

	image := flags.Arg(0)

	emu := emulator.NewEmulator()
	emu.Verbose = verbose
	emu.WordLimit = words

	if len(compile) != 0 {
		// Compile a new instruction stream.
		emu.Program, err = assemble(emu, compile, image)
		if err != nil {
			log.Printf("%v", err)
			return 1
		}
		if save {
			return 0
		}
	} else {
		inf, err := os.Open(image)
		if err != nil {
			log.Printf("%v", err)
			return 1
		}
		err = emu.Load(inf)
		inf.Close()
		if err != nil {
			log.Printf("%v: %v", image, err)
			return 1
		}
	}

	output := bufio.NewWriter(stdout)
	emu.Tape.Input = bufio.NewReader(stdin)
	emu.Tape.Output = output

	defer func() {
		err := emu.Close()
		if err != nil {
			log.Printf("%v", err)
			if rc == 0 {
				rc = 1
			}
		}
	}()

	err = emu.Reset()
	if err != nil {
		log.Printf("%v: %v", image, err)
		return 1
	}

	err = emu.Run()
	if err != nil {
		log.Printf("%v: %v", image, err)
		if verbose {
			log.Printf("%v", emu.Cpu.String())
		}
		return 1
	}

	return 0
}

func main() {
	os.Exit(run(os.Args, os.Stdin, os.Stdout, os.Stderr))
}
