package cpu

import (
	"errors"

	"github.com/mpingram/chip8/translate"
)

var f = translate.From

var (
	ErrUnknownOpcode  = errors.New(f("unknown opcode"))
	ErrStackUnderflow = errors.New(f("return with an empty stack"))
)

// StepError records where a step failed. Err is one of ErrUnknownOpcode,
// ErrStackUnderflow or a memory error.
type StepError struct {
	PC     uint16
	Opcode uint16
	Err    error
}

func (err *StepError) Error() string {
	return f("pc 0x%03x opcode %04x: %v", err.PC, err.Opcode, err.Err)
}

func (err *StepError) Unwrap() error {
	return err.Err
}
