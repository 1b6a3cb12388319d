package io

import (
	"io"
)

// Tape provides sequential byte I/O over an io.Reader for input and an
// io.Writer for output.
type Tape struct {
	Input  io.Reader
	Output io.Writer
}

var _ Channel = (*Tape)(nil)

// Receive reads one byte from the input stream, after flushing any
// buffered output so a prompt is visible while the read blocks.
// A missing input behaves as an empty stream.
func (tc *Tape) Receive() (value byte, err error) {
	if tc.Input == nil {
		err = io.EOF
		return
	}

	err = tc.Flush()
	if err != nil {
		return
	}

	var one [1]byte
	_, err = io.ReadFull(tc.Input, one[:])
	if err != nil {
		return
	}

	value = one[0]
	return
}

// Send writes one byte to the output stream.
func (tc *Tape) Send(value byte) (err error) {
	if tc.Output == nil {
		err = ErrChannelClosed
		return
	}

	_, err = tc.Output.Write([]byte{value})
	return
}

// Flush flushes the output stream, if it is buffered.
func (tc *Tape) Flush() (err error) {
	flusher, ok := tc.Output.(interface{ Flush() error })
	if ok {
		err = flusher.Flush()
	}

	return
}
