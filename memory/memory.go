// Package memory implements the word addressed RAM of the Chip-8.
//
// Addresses are word addresses: word a is stored big-endian in the backing
// bytes 2a and 2a+1. The region below ProgramStart is reserved for the
// interpreter (the font lives there) and can only be written through
// UnboundWrite. Everything from ProgramStart to MaxAddress is program space.
package memory

import (
	"fmt"
	"io"
)

const (
	// ProgramStart is the first word of program space. Programs are loaded here.
	ProgramStart uint16 = 0x200

	// MaxAddress is the highest addressable word. The I register cannot
	// be loaded with anything larger.
	MaxAddress uint16 = 0xFFF

	// Size of the backing store in bytes. The biggest memory used with the
	// Chip-8 was the 8k of the COSMAC VIP, so that's what we allocate.
	Size = 8192

	// UsableSpace is the largest program, in bytes, that fits in program space.
	UsableSpace = (int(MaxAddress) - int(ProgramStart) + 1) * 2

	// byteLimit is one past the last backing byte reachable from MaxAddress.
	byteLimit = (int(MaxAddress) + 1) * 2
)

// Memory represents the RAM of the virtual computer.
//
// The zero value is empty memory, ready to use. Remember to load the font
// before running a program that draws digits.
type Memory struct {
	space [Size]byte
}

// New returns empty memory.
func New() *Memory {
	return new(Memory)
}

// Reset zeroes all of memory, including the reserved region.
func (m *Memory) Reset() {
	m.space = [Size]byte{}
}

// Read returns the word at addr.
func (m *Memory) Read(addr uint16) (uint16, error) {
	if addr > MaxAddress {
		return 0, &BoundsError{Addr: int(addr)}
	}
	pos := int(addr) * 2
	return uint16(m.space[pos])<<8 | uint16(m.space[pos+1]), nil
}

// Write stores value at addr. Only program space is writable.
func (m *Memory) Write(addr, value uint16) error {
	if addr < ProgramStart {
		return &BoundsError{Addr: int(addr)}
	}
	return m.UnboundWrite(addr, value)
}

// UnboundWrite stores value at addr without protecting the reserved region.
// It exists so the interpreter can install the font below ProgramStart.
func (m *Memory) UnboundWrite(addr, value uint16) error {
	if addr > MaxAddress {
		return &BoundsError{Addr: int(addr)}
	}
	pos := int(addr) * 2
	m.space[pos] = byte(value >> 8)
	m.space[pos+1] = byte(value & 0x00ff)
	return nil
}

// Load copies program into memory starting at ProgramStart.
func (m *Memory) Load(program []byte) error {
	if len(program) > UsableSpace {
		return &ProgramSizeError{Size: len(program)}
	}
	copy(m.space[int(ProgramStart)*2:], program)
	return nil
}

// ReadBytes returns a copy of n bytes of the byte stream that begins at
// word addr. Sprites, BCD digits and saved registers are byte sized, so the
// instructions that handle them go through here instead of Read.
func (m *Memory) ReadBytes(addr uint16, n int) ([]byte, error) {
	start, err := byteRange(addr, n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, m.space[start:start+n])
	return out, nil
}

// WriteBytes stores data in the byte stream that begins at word addr.
// The whole range is checked before anything is written, and like Write it
// refuses to touch the reserved region.
func (m *Memory) WriteBytes(addr uint16, data []byte) error {
	if addr < ProgramStart {
		return &BoundsError{Addr: int(addr)}
	}
	start, err := byteRange(addr, len(data))
	if err != nil {
		return err
	}
	copy(m.space[start:], data)
	return nil
}

// byteRange returns the backing offset of word addr after checking that
// n bytes from there stay inside the addressable window.
func byteRange(addr uint16, n int) (int, error) {
	if addr > MaxAddress {
		return 0, &BoundsError{Addr: int(addr)}
	}
	start := int(addr) * 2
	if n < 0 {
		return 0, &BoundsError{Addr: int(addr)}
	}
	if start+n > byteLimit {
		// report the word holding the last byte asked for
		return 0, &BoundsError{Addr: (start + n - 1) / 2}
	}
	return start, nil
}

// Dump writes every word of program space to w, one per line, keyed by its
// offset from ProgramStart.
func (m *Memory) Dump(w io.Writer) error {
	for addr := ProgramStart; addr <= MaxAddress; addr++ {
		word, err := m.Read(addr)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%4x: %04x\n", addr-ProgramStart, word); err != nil {
			return err
		}
	}
	return nil
}
