package memory

import (
	"container/heap"
	"log"
	"slices"
)

// HANDLE_LIMIT is the number of addressable segment handles.
const HANDLE_LIMIT = uint64(1) << 32

// WORD_LIMIT is the default limit of live words, 1GiB.
const WORD_LIMIT = uint64(1) << 28

// Store is the segmented memory of the machine.
type Store struct {
	Verbose   bool   // Set to enable verbose logging.
	WordLimit uint64 // Maximum count of live words, over all segments.

	segments [][]uint32 // Segments by handle; nil when reclaimed.
	unmapped pool       // Reclaimed handles, lowest first.
	limit    uint64     // Maximum count of handles.
	words    uint64     // Live words, over all segments.
	closed   bool
}

// NewStore creates a segment store with a copy of program as segment 0.
func NewStore(program []uint32) (store *Store) {
	zero := make([]uint32, len(program))
	copy(zero, program)

	store = &Store{
		WordLimit: WORD_LIMIT,
		segments:  [][]uint32{zero},
		limit:     HANDLE_LIMIT,
		words:     uint64(len(zero)),
	}

	return
}

// lookup returns the live segment for a handle.
func (st *Store) lookup(handle uint32) (segment []uint32, err error) {
	if st.closed {
		err = ErrClosed
		return
	}

	if uint64(handle) >= uint64(len(st.segments)) {
		err = &ErrSegment{Handle: handle, Err: ErrSegmentInvalid}
		return
	}

	segment = st.segments[handle]
	if segment == nil {
		err = &ErrSegment{Handle: handle, Err: ErrSegmentUnmapped}
		return
	}

	return
}

// Allocate maps a new zero-filled segment of the requested word count,
// and returns its handle.
func (st *Store) Allocate(words uint32) (handle uint32, err error) {
	if st.closed {
		err = ErrClosed
		return
	}

	if words == 0 {
		err = ErrSegmentEmpty
		return
	}

	if st.words+uint64(words) > st.WordLimit {
		err = ErrMemoryExhausted
		return
	}

	if st.unmapped.Len() == 0 && uint64(len(st.segments)) >= st.limit {
		err = ErrHandleExhausted
		return
	}

	segment := make([]uint32, words)
	st.words += uint64(words)

	if st.unmapped.Len() > 0 {
		handle = heap.Pop(&st.unmapped).(uint32)
		st.segments[handle] = segment
	} else {
		handle = uint32(len(st.segments))
		st.segments = append(st.segments, segment)
	}

	if st.Verbose {
		log.Printf("memory: map %d words at segment %d", words, handle)
	}

	return
}

// Free unmaps a segment, and makes its handle available for reuse.
func (st *Store) Free(handle uint32) (err error) {
	if handle == 0 && !st.closed {
		err = &ErrSegment{Handle: handle, Err: ErrSegmentZero}
		return
	}

	segment, err := st.lookup(handle)
	if err != nil {
		return
	}

	st.words -= uint64(len(segment))
	st.segments[handle] = nil
	heap.Push(&st.unmapped, handle)

	if st.Verbose {
		log.Printf("memory: unmap segment %d", handle)
	}

	return
}

// Load replaces segment 0 with a copy of the segment at handle.
// Loading segment 0 does nothing.
func (st *Store) Load(handle uint32) (err error) {
	if handle == 0 {
		if st.closed {
			err = ErrClosed
		}
		return
	}

	segment, err := st.lookup(handle)
	if err != nil {
		return
	}

	words := st.words - uint64(len(st.segments[0])) + uint64(len(segment))
	if words > st.WordLimit {
		err = ErrMemoryExhausted
		return
	}

	st.segments[0] = slices.Clone(segment)
	st.words = words

	if st.Verbose {
		log.Printf("memory: load segment %d (%d words)", handle, len(segment))
	}

	return
}

// Read returns the word at offset in the segment at handle.
func (st *Store) Read(handle, offset uint32) (value uint32, err error) {
	segment, err := st.lookup(handle)
	if err != nil {
		return
	}

	if uint64(offset) >= uint64(len(segment)) {
		err = &ErrSegment{Handle: handle, Offset: offset, Err: ErrOffsetInvalid}
		return
	}

	value = segment[offset]
	return
}

// Write sets the word at offset in the segment at handle.
func (st *Store) Write(handle, offset, value uint32) (err error) {
	segment, err := st.lookup(handle)
	if err != nil {
		return
	}

	if uint64(offset) >= uint64(len(segment)) {
		err = &ErrSegment{Handle: handle, Offset: offset, Err: ErrOffsetInvalid}
		return
	}

	segment[offset] = value
	return
}

// ProgramLen returns the length of segment 0.
func (st *Store) ProgramLen() uint32 {
	if st.closed {
		return 0
	}

	return uint32(len(st.segments[0]))
}

// Mapped returns the count of live segments, including segment 0.
func (st *Store) Mapped() (count int) {
	for _, segment := range st.segments {
		if segment != nil {
			count++
		}
	}

	return
}

// Close releases all segments and reclaimed handles.
func (st *Store) Close() (err error) {
	if st.closed {
		err = ErrClosed
		return
	}

	if st.Verbose {
		log.Printf("memory: close, %d segments mapped", st.Mapped())
	}

	clear(st.segments)
	st.segments = nil
	st.unmapped = nil
	st.words = 0
	st.closed = true

	return
}
