package memory

import (
	"errors"

	"github.com/ezrec/um/translate"
)

var f = translate.From

var (
	// Segment store errors
	ErrClosed          = errors.New(f("memory closed"))
	ErrSegmentEmpty    = errors.New(f("segment size zero"))
	ErrSegmentZero     = errors.New(f("segment zero is not unmappable"))
	ErrSegmentInvalid  = errors.New(f("segment invalid"))
	ErrSegmentUnmapped = errors.New(f("segment unmapped"))
	ErrOffsetInvalid   = errors.New(f("offset invalid"))
	ErrHandleExhausted = errors.New(f("segment handles exhausted"))
	ErrMemoryExhausted = errors.New(f("memory word limit exhausted"))
)

// ErrSegment locates a segment store fault.
type ErrSegment struct {
	Handle uint32
	Offset uint32
	Err    error
}

func (err *ErrSegment) Error() string {
	if errors.Is(err.Err, ErrOffsetInvalid) {
		return f("segment %d offset %d: %v", err.Handle, err.Offset, err.Err)
	}
	return f("segment %d: %v", err.Handle, err.Err)
}

func (err *ErrSegment) Unwrap() error {
	return err.Err
}
