// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"maps"
	"regexp"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// EQUATE_DEPTH limits how deeply equates may refer to other equates.
const EQUATE_DEPTH = 16

// Predefined system equates
var sysEquate = map[string]string{
	"LINENO": "0",
}

// Assembler is a two pass assembler for the Universal Machine.
type Assembler struct {
	Verbose bool // If set, verbosely logs the assembler actions.

	predefine map[string]string // Predefines
	Label     map[string]int    // Map of labels to word offsets.
	Equate    map[string]string // Map of equates.
}

// line is a source line that emits one word.
type line struct {
	lineNo int
	text   string
}

// Predefine defines a new equate or redefines an existing equate.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

// regMap is a map of register names to register selectors.
var regMap = map[string]CodeReg{
	"r0": REG_R0,
	"r1": REG_R1,
	"r2": REG_R2,
	"r3": REG_R3,
	"r4": REG_R4,
	"r5": REG_R5,
	"r6": REG_R6,
	"r7": REG_R7,
}

// opMap is a map of mnemonics to opcodes.
var opMap = func() map[string]Opcode {
	ops := make(map[string]Opcode, OPCODE_COUNT)
	for op := range Opcode(OPCODE_COUNT) {
		ops[op.String()] = op
	}
	return ops
}()

var (
	charRegexp  = regexp.MustCompile(`'\\?[^']'`)
	parenRegexp = regexp.MustCompile(`\$\([^\$]*\)`)
	identRegexp = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*`)
)

// register returns the register selector for a word, following equates.
func (asm *Assembler) register(word string) (reg CodeReg, err error) {
	for range EQUATE_DEPTH {
		var ok bool
		reg, ok = regMap[word]
		if ok {
			return
		}
		word, ok = asm.Equate[word]
		if !ok {
			break
		}
	}

	err = ErrRegisterInvalid
	return
}

// valueOf returns the value of a word: a number, label, equate or
// $(...) expression.
func (asm *Assembler) valueOf(word string) (value uint32, err error) {
	return asm.valueOfDepth(word, EQUATE_DEPTH)
}

func (asm *Assembler) valueOfDepth(word string, depth int) (value uint32, err error) {
	if len(word) == 0 {
		err = ErrParseNumber(word)
		return
	}

	if strings.HasPrefix(word, "$(") && strings.HasSuffix(word, ")") {
		return asm.parenEvalDepth(word[2:len(word)-1], depth)
	}

	ip, ok := asm.Label[word]
	if ok {
		value = uint32(ip)
		return
	}

	equate, ok := asm.Equate[word]
	if ok {
		if depth == 0 {
			err = ErrParseNumber(word)
			return
		}
		return asm.valueOfDepth(equate, depth-1)
	}

	v64, err := strconv.ParseInt(word, 0, 64)
	if err != nil || v64 > 0xffffffff || v64 < -int64(0x80000000) {
		err = ErrParseNumber(word)
		return
	}

	value = uint32(v64)
	return
}

// parenEval does compile-time $(...) evaluations
func (asm *Assembler) parenEval(expr string) (value uint32, err error) {
	return asm.parenEvalDepth(expr, EQUATE_DEPTH)
}

func (asm *Assembler) parenEvalDepth(expr string, depth int) (value uint32, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for _, key := range identRegexp.FindAllString(expr, -1) {
		if _, ok := pred[key]; ok {
			continue
		}
		if ip, ok := asm.Label[key]; ok {
			pred[key] = starlark.MakeInt(ip)
			continue
		}
		str, ok := asm.Equate[key]
		if !ok || depth == 0 {
			continue
		}
		value32, _err := asm.valueOfDepth(str, depth-1)
		if _err != nil {
			// Ignore non-integer equates. They may be registers
			// or something else.
			continue
		}
		pred[key] = starlark.MakeUint(uint(value32))
	}
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		return
	}
	st_rc, ok := dict["rc"]
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int, ok := st_rc.(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int64, ok := st_int.Int64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	value = uint32(st_int64)
	return
}

// charEval replaces 'x' character literals with their values.
func charEval(text string) string {
	return charRegexp.ReplaceAllStringFunc(text, func(word string) string {
		str := word[1 : len(word)-1]
		if str[0] == '\\' {
			str = str[1:]
			switch str {
			case "\\":
				str = "\\"
			case "n":
				str = "\n"
			case "r":
				str = "\r"
			case "e":
				str = "\033"
			default:
				return word
			}
		} else if len(str) != 1 {
			return word
		}
		return fmt.Sprintf("%v", str[0])
	})
}

// Parse assembles an input stream into a Program.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {
	scanner := bufio.NewScanner(input)

	var text string
	var lineno int

	defer func() {
		if err != nil {
			err = ErrSyntax{LineNo: lineno, Line: text, Err: err}
		}
	}()

	asm.Label = make(map[string]int, 16)
	asm.Equate = maps.Clone(sysEquate)
	for attr, val := range asm.predefine {
		asm.Equate[attr] = val
	}

	// First pass: collect labels and equates.
	var lines []line
	for scanner.Scan() {
		text = scanner.Text()
		lineno += 1

		if asm.Verbose {
			log.Printf("%v: %v\n", lineno, text)
		}

		code := strings.TrimSpace(strings.Split(charEval(text), ";")[0])
		words := strings.Fields(code)

		if len(words) > 0 && words[0] == ".equ" {
			if len(words) < 3 {
				err = ErrEquateSyntax
				return
			}
			_, ok := asm.Equate[words[1]]
			if ok {
				err = ErrEquateDuplicate
				return
			}
			asm.Equate[words[1]] = strings.Join(words[2:], " ")
			continue
		}

		for len(words) > 0 && strings.HasSuffix(words[0], ":") {
			label := words[0][:len(words[0])-1]
			_, ok := asm.Label[label]
			if ok {
				err = ErrLabelDuplicate
				return
			}
			asm.Label[label] = len(lines)
			code = strings.TrimSpace(strings.TrimPrefix(code, words[0]))
			words = words[1:]
		}

		if len(words) > 0 {
			lines = append(lines, line{lineNo: lineno, text: code})
		}
	}

	err = scanner.Err()
	if err != nil {
		return
	}

	// Second pass: encode.
	prog = &Program{}
	for _, ln := range lines {
		lineno = ln.lineNo
		text = ln.text
		asm.Equate["LINENO"] = fmt.Sprintf("%v", lineno)

		var word uint32
		word, err = asm.parseLine(ln.text)
		if err != nil {
			prog = nil
			return
		}

		prog.Words = append(prog.Words, word)
		prog.Lines = append(prog.Lines, lineno)
	}

	return
}

// parseLine encodes a single instruction line.
func (asm *Assembler) parseLine(text string) (word uint32, err error) {
	// Do $() evaluations
	text = parenRegexp.ReplaceAllStringFunc(text, func(str string) string {
		value, _err := asm.parenEval(str[2 : len(str)-1])
		if _err != nil {
			err = _err
		}
		return fmt.Sprintf("%#x", value)
	})
	if err != nil {
		return
	}

	words := strings.Fields(text)
	mnemonic, args := words[0], words[1:]

	if mnemonic == ".word" {
		if len(args) != 1 {
			err = asm.argCount(len(args), 1)
			return
		}
		return asm.valueOf(args[0])
	}

	op, ok := opMap[mnemonic]
	if !ok {
		err = ErrOpcodeUnknown(mnemonic)
		return
	}

	var regs []CodeReg
	switch op {
	case OP_LV:
		if len(args) != 2 {
			err = asm.argCount(len(args), 2)
			return
		}
		var reg CodeReg
		reg, err = asm.register(args[0])
		if err != nil {
			return
		}
		var value uint32
		value, err = asm.valueOf(args[1])
		if err != nil {
			return
		}
		if value > IMMEDIATE_MASK {
			err = ErrValueRange
			return
		}
		word = uint32(MakeCodeValue(reg, value))
		return
	case OP_HALT:
		regs = make([]CodeReg, 0)
	case OP_MAP, OP_LOADP:
		regs = make([]CodeReg, 2)
	case OP_UNMAP, OP_OUT, OP_IN:
		regs = make([]CodeReg, 1)
	default:
		regs = make([]CodeReg, 3)
	}

	if len(args) != len(regs) {
		err = asm.argCount(len(args), len(regs))
		return
	}

	for n, arg := range args {
		regs[n], err = asm.register(arg)
		if err != nil {
			return
		}
	}

	// Right-align so that single register forms land in C, and pairs in B C.
	var abc [3]CodeReg
	copy(abc[3-len(regs):], regs)

	word = uint32(MakeCode(op, abc[0], abc[1], abc[2]))
	return
}

// argCount returns the error for an argument count mismatch.
func (asm *Assembler) argCount(have, want int) error {
	if have > want {
		return ErrOpcodeExtraArgs
	}
	return ErrOpcodeArgs
}
