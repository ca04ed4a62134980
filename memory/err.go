package memory

import (
	"errors"
	"strconv"

	"github.com/mpingram/chip8/translate"
)

var f = translate.From

var (
	ErrOutOfBounds     = errors.New(f("address out of bounds"))
	ErrProgramTooLarge = errors.New(f("program bigger than memory space"))
)

// BoundsError reports the word address of a refused memory access.
type BoundsError struct {
	Addr int
}

func (err *BoundsError) Error() string {
	return f("%v: 0x%04x", ErrOutOfBounds, err.Addr)
}

func (err *BoundsError) Unwrap() error {
	return ErrOutOfBounds
}

// ProgramSizeError reports the size in bytes of a program that didn't fit.
type ProgramSizeError struct {
	Size int
}

func (err *ProgramSizeError) Error() string {
	// counts are preformatted so the printer doesn't group their digits
	return f("%v: %s bytes, %s available", ErrProgramTooLarge, strconv.Itoa(err.Size), strconv.Itoa(UsableSpace))
}

func (err *ProgramSizeError) Unwrap() error {
	return ErrProgramTooLarge
}
