package io

import (
	"errors"

	"github.com/ezrec/um/translate"
)

var f = translate.From

var (
	// Channel errors
	ErrChannelClosed = errors.New(f("channel closed"))

	// Image errors
	ErrImageEmpty = errors.New(f("program image empty"))
)

// ErrImageTruncated reports the count of trailing bytes that did not
// form a whole word.
type ErrImageTruncated int

func (err ErrImageTruncated) Error() string {
	return f("program image has %d trailing bytes", int(err))
}
