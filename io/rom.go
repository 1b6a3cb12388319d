package io

import (
	"encoding/binary"
	"errors"
	"io"
)

// WORD_SIZE is the size in bytes of an encoded word.
const WORD_SIZE = 4

// Rom is a program image.
type Rom struct {
	Data []uint32
}

var (
	_ io.ReaderFrom = (*Rom)(nil)
	_ io.WriterTo   = (*Rom)(nil)
)

// ReadFrom replaces the image with the big-endian words read from r.
// Trailing bytes that do not form a whole word are dropped, and reported
// as ErrImageTruncated once the whole words have been stored.
func (rc *Rom) ReadFrom(r io.Reader) (n int64, err error) {
	data, err := io.ReadAll(r)
	n = int64(len(data))
	if err != nil {
		return
	}

	words := len(data) / WORD_SIZE
	if words == 0 {
		rc.Data = nil
		err = ErrImageEmpty
		return
	}

	rc.Data = make([]uint32, words)
	for index := range rc.Data {
		rc.Data[index] = binary.BigEndian.Uint32(data[index*WORD_SIZE:])
	}

	if extra := len(data) % WORD_SIZE; extra != 0 {
		err = ErrImageTruncated(extra)
	}

	return
}

// WriteTo writes the image to w as big-endian words.
func (rc *Rom) WriteTo(w io.Writer) (n int64, err error) {
	data := make([]byte, 0, len(rc.Data)*WORD_SIZE)
	for _, word := range rc.Data {
		data = binary.BigEndian.AppendUint32(data, word)
	}

	written, err := w.Write(data)
	n = int64(written)
	return
}

// Truncated returns true if the error only reports a partial trailing word.
func Truncated(err error) bool {
	var trunc ErrImageTruncated
	return errors.As(err, &trunc)
}
