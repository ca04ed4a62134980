package memory

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRead(t *testing.T) {
	assert := assert.New(t)

	mem := New()
	mem.space[0x400*2] = 0xff

	word, err := mem.Read(0x400)
	assert.NoError(err)
	assert.Equal(uint16(0xff00), word)

	_, err = mem.Read(MaxAddress + 1)
	assert.ErrorIs(err, ErrOutOfBounds)

	for addr := uint16(0); addr <= MaxAddress; addr++ {
		_, err := mem.Read(addr)
		require.NoError(t, err, "0x%04x", addr)
	}
}

func TestWrite(t *testing.T) {
	assert := assert.New(t)

	mem := New()
	assert.NoError(mem.Write(0x400, 0xffff))
	assert.Equal(byte(0xff), mem.space[0x400*2], "head")
	assert.Equal(byte(0xff), mem.space[0x400*2+1], "tail")

	assert.NoError(mem.Write(ProgramStart, 0x1234))
	assert.NoError(mem.Write(MaxAddress, 0xabcd))
	word, err := mem.Read(MaxAddress)
	assert.NoError(err)
	assert.Equal(uint16(0xabcd), word)

	assert.ErrorIs(mem.Write(0x1ff, 0xffff), ErrOutOfBounds)
	assert.ErrorIs(mem.Write(MaxAddress+1, 0xffff), ErrOutOfBounds)
}

func TestUnboundWrite(t *testing.T) {
	assert := assert.New(t)

	mem := New()
	assert.NoError(mem.UnboundWrite(0x1ff, 0xbeef))
	word, err := mem.Read(0x1ff)
	assert.NoError(err)
	assert.Equal(uint16(0xbeef), word)

	assert.NoError(mem.UnboundWrite(0, 0x0102))
	assert.ErrorIs(mem.UnboundWrite(MaxAddress+1, 0xffff), ErrOutOfBounds)
}

func TestBoundsErrorAddress(t *testing.T) {
	mem := New()
	err := mem.Write(0x100, 0)

	var bounds *BoundsError
	require.ErrorAs(t, err, &bounds)
	assert.Equal(t, 0x100, bounds.Addr)
}

func TestLoad(t *testing.T) {
	t.Run("exact fit", func(t *testing.T) {
		mem := New()
		program := bytes.Repeat([]byte{1}, UsableSpace)
		assert.NoError(t, mem.Load(program))
		assert.Equal(t, byte(1), mem.space[byteLimit-1])
		assert.Equal(t, byte(0), mem.space[int(ProgramStart)*2-1])
	})

	t.Run("one byte too many", func(t *testing.T) {
		mem := New()
		err := mem.Load(make([]byte, UsableSpace+1))
		assert.ErrorIs(t, err, ErrProgramTooLarge)

		var size *ProgramSizeError
		require.ErrorAs(t, err, &size)
		assert.Equal(t, UsableSpace+1, size.Size)
		assert.Equal(t, "program bigger than memory space: 7169 bytes, 7168 available", err.Error())
	})

	t.Run("way too big", func(t *testing.T) {
		mem := New()
		assert.ErrorIs(t, mem.Load(make([]byte, 0xffff)), ErrProgramTooLarge)
	})

	t.Run("first word", func(t *testing.T) {
		mem := New()
		require.NoError(t, mem.Load([]byte{0x12, 0x34, 0x56}))
		word, err := mem.Read(ProgramStart)
		assert.NoError(t, err)
		assert.Equal(t, uint16(0x1234), word)
		word, err = mem.Read(ProgramStart + 1)
		assert.NoError(t, err)
		assert.Equal(t, uint16(0x5600), word)
	})
}

func TestReadBytes(t *testing.T) {
	assert := assert.New(t)

	mem := New()
	assert.NoError(mem.UnboundWrite(0x10, 0xf090))
	assert.NoError(mem.UnboundWrite(0x11, 0x9090))
	assert.NoError(mem.UnboundWrite(0x12, 0xf000))

	data, err := mem.ReadBytes(0x10, 5)
	assert.NoError(err)
	assert.Equal([]byte{0xf0, 0x90, 0x90, 0x90, 0xf0}, data)

	// the returned slice is a copy
	data[0] = 0
	word, _ := mem.Read(0x10)
	assert.Equal(uint16(0xf090), word)

	data, err = mem.ReadBytes(MaxAddress, 2)
	assert.NoError(err)
	assert.Len(data, 2)

	_, err = mem.ReadBytes(MaxAddress, 3)
	assert.ErrorIs(err, ErrOutOfBounds)

	_, err = mem.ReadBytes(MaxAddress+1, 0)
	assert.ErrorIs(err, ErrOutOfBounds)
}

func TestWriteBytes(t *testing.T) {
	assert := assert.New(t)

	mem := New()
	assert.NoError(mem.WriteBytes(0x300, []byte{1, 2, 3}))
	word, _ := mem.Read(0x300)
	assert.Equal(uint16(0x0102), word)
	word, _ = mem.Read(0x301)
	assert.Equal(uint16(0x0300), word)

	assert.ErrorIs(mem.WriteBytes(0x1ff, []byte{1}), ErrOutOfBounds)

	// a write that would run off the end changes nothing
	assert.ErrorIs(mem.WriteBytes(MaxAddress, []byte{9, 9, 9}), ErrOutOfBounds)
	word, _ = mem.Read(MaxAddress)
	assert.Equal(uint16(0), word)
}

func TestReset(t *testing.T) {
	mem := New()
	require.NoError(t, mem.UnboundWrite(0x10, 0xffff))
	require.NoError(t, mem.Write(0x300, 0xffff))
	mem.Reset()
	assert.Equal(t, [Size]byte{}, mem.space)
}

func TestDump(t *testing.T) {
	mem := New()
	require.NoError(t, mem.Load([]byte{0x00, 0xe0, 0x12, 0x00}))

	var out strings.Builder
	require.NoError(t, mem.Dump(&out))

	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	assert.Len(t, lines, int(MaxAddress-ProgramStart)+1)
	assert.Equal(t, "   0: 00e0", lines[0])
	assert.Equal(t, "   1: 1200", lines[1])
}
