package memory

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStore_New(t *testing.T) {
	assert := assert.New(t)

	program := []uint32{0x70000000, 0xd0000041}
	st := NewStore(program)

	assert.Equal(uint32(2), st.ProgramLen())
	assert.Equal(1, st.Mapped())

	// Segment 0 is a copy of the program.
	program[0] = 0
	value, err := st.Read(0, 0)
	assert.NoError(err)
	assert.Equal(uint32(0x70000000), value)
}

func TestStore_Allocate(t *testing.T) {
	assert := assert.New(t)

	st := NewStore([]uint32{0})

	for _, words := range []uint32{1, 2, 17, 1024} {
		handle, err := st.Allocate(words)
		assert.NoError(err)
		assert.NotEqual(uint32(0), handle)

		for offset := range words {
			value, err := st.Read(handle, offset)
			assert.NoError(err)
			assert.Equal(uint32(0), value, "offset %d", offset)
		}

		_, err = st.Read(handle, words)
		assert.ErrorIs(err, ErrOffsetInvalid)
	}

	assert.Equal(5, st.Mapped())
}

func TestStore_Allocate_Empty(t *testing.T) {
	assert := assert.New(t)

	st := NewStore([]uint32{0})

	_, err := st.Allocate(0)
	assert.ErrorIs(err, ErrSegmentEmpty)
	assert.Equal(1, st.Mapped())
}

func TestStore_Allocate_Exhausted(t *testing.T) {
	assert := assert.New(t)

	st := NewStore([]uint32{0})
	st.limit = 3

	a, err := st.Allocate(1)
	assert.NoError(err)
	assert.Equal(uint32(1), a)

	b, err := st.Allocate(1)
	assert.NoError(err)
	assert.Equal(uint32(2), b)

	_, err = st.Allocate(1)
	assert.ErrorIs(err, ErrHandleExhausted)

	// Reclaimed handles remain usable at the limit.
	assert.NoError(st.Free(a))
	c, err := st.Allocate(4)
	assert.NoError(err)
	assert.Equal(a, c)
}

func TestStore_WordLimit(t *testing.T) {
	assert := assert.New(t)

	st := NewStore([]uint32{0, 0})
	assert.Equal(WORD_LIMIT, st.WordLimit)
	st.WordLimit = 10

	// Huge requests fail before any memory is reserved.
	_, err := st.Allocate(0xffff_ffff)
	assert.ErrorIs(err, ErrMemoryExhausted)
	assert.Equal(1, st.Mapped())

	a, err := st.Allocate(6)
	assert.NoError(err)

	_, err = st.Allocate(3)
	assert.ErrorIs(err, ErrMemoryExhausted)

	b, err := st.Allocate(2)
	assert.NoError(err)

	// Loading a copy into segment 0 counts against the limit.
	assert.ErrorIs(st.Load(a), ErrMemoryExhausted)
	assert.Equal(uint32(2), st.ProgramLen())
	assert.NoError(st.Load(b))

	// Unmapping returns words to the budget.
	assert.NoError(st.Free(a))
	_, err = st.Allocate(6)
	assert.NoError(err)
}

func TestStore_Reuse(t *testing.T) {
	assert := assert.New(t)

	st := NewStore([]uint32{0})

	var handles []uint32
	for range 5 {
		handle, err := st.Allocate(2)
		assert.NoError(err)
		handles = append(handles, handle)
	}
	assert.Equal([]uint32{1, 2, 3, 4, 5}, handles)

	assert.NoError(st.Write(4, 1, 0xdeadbeef))

	// Free out of order, reuse comes back lowest first.
	assert.NoError(st.Free(4))
	assert.NoError(st.Free(2))
	assert.NoError(st.Free(5))

	table := []uint32{2, 4, 5, 6}
	for _, expected := range table {
		handle, err := st.Allocate(3)
		assert.NoError(err)
		assert.Equal(expected, handle)
	}

	// Stale content is not visible after reuse.
	value, err := st.Read(4, 1)
	assert.NoError(err)
	assert.Equal(uint32(0), value)

	_, err = st.Read(4, 3)
	assert.ErrorIs(err, ErrOffsetInvalid)
}

func TestStore_Free(t *testing.T) {
	assert := assert.New(t)

	st := NewStore([]uint32{0})

	handle, err := st.Allocate(1)
	assert.NoError(err)

	table := [](struct {
		name   string
		handle uint32
		err    error
	}){
		{"zero", 0, ErrSegmentZero},
		{"range", 99, ErrSegmentInvalid},
		{"live", handle, nil},
		{"twice", handle, ErrSegmentUnmapped},
	}

	for _, entry := range table {
		err := st.Free(entry.handle)
		if entry.err == nil {
			assert.NoError(err, entry.name)
		} else {
			assert.ErrorIs(err, entry.err, entry.name)
			var seg *ErrSegment
			assert.True(errors.As(err, &seg), entry.name)
			assert.Equal(entry.handle, seg.Handle, entry.name)
		}
	}

	_, err = st.Read(handle, 0)
	assert.ErrorIs(err, ErrSegmentUnmapped)
	assert.ErrorIs(st.Write(handle, 0, 1), ErrSegmentUnmapped)
}

func TestStore_ReadWrite(t *testing.T) {
	assert := assert.New(t)

	st := NewStore([]uint32{1, 2, 3})

	assert.NoError(st.Write(0, 2, 0xffffffff))
	value, err := st.Read(0, 2)
	assert.NoError(err)
	assert.Equal(uint32(0xffffffff), value)

	err = st.Write(0, 3, 0)
	assert.ErrorIs(err, ErrOffsetInvalid)
	assert.Equal("segment 0 offset 3: offset invalid", err.Error())
	assert.ErrorIs(st.Write(1, 0, 0), ErrSegmentInvalid)

	_, err = st.Read(0xffffffff, 0)
	assert.ErrorIs(err, ErrSegmentInvalid)

	_, err = st.Read(0, 0xffffffff)
	assert.ErrorIs(err, ErrOffsetInvalid)
}

func TestStore_Load(t *testing.T) {
	assert := assert.New(t)

	st := NewStore([]uint32{10, 11, 12, 13})

	handle, err := st.Allocate(2)
	assert.NoError(err)
	assert.NoError(st.Write(handle, 0, 0x70000000))
	assert.NoError(st.Write(handle, 1, 0x12345678))

	// Loading segment 0 is a no-op.
	assert.NoError(st.Load(0))
	assert.Equal(uint32(4), st.ProgramLen())

	assert.NoError(st.Load(handle))
	assert.Equal(uint32(2), st.ProgramLen())

	value, err := st.Read(0, 1)
	assert.NoError(err)
	assert.Equal(uint32(0x12345678), value)

	// The source segment is untouched, and not aliased.
	assert.NoError(st.Write(0, 1, 0))
	value, err = st.Read(handle, 1)
	assert.NoError(err)
	assert.Equal(uint32(0x12345678), value)
	assert.Equal(2, st.Mapped())

	assert.ErrorIs(st.Load(7), ErrSegmentInvalid)
	assert.NoError(st.Free(handle))
	assert.ErrorIs(st.Load(handle), ErrSegmentUnmapped)
}

func TestStore_Close(t *testing.T) {
	assert := assert.New(t)

	st := NewStore([]uint32{0})
	_, err := st.Allocate(8)
	assert.NoError(err)

	assert.NoError(st.Close())
	assert.Equal(0, st.Mapped())
	assert.Equal(uint32(0), st.ProgramLen())

	assert.ErrorIs(st.Close(), ErrClosed)

	_, err = st.Allocate(1)
	assert.ErrorIs(err, ErrClosed)
	_, err = st.Read(0, 0)
	assert.ErrorIs(err, ErrClosed)
	assert.ErrorIs(st.Free(1), ErrClosed)
	assert.ErrorIs(st.Load(0), ErrClosed)
}
