// Package cpu implements the Chip-8 fetch, decode and execute engine.
//
// The Cpu owns the registers, the call stack, the program counter, the address
// register and the two timers. It doesn't own memory, the screen or the
// keyboard: each call to Step is handed the Memory to run against, the
// Framebuffer to draw on and a fresh snapshot of the keypad, and executes
// exactly one instruction.
//
// Nothing in here blocks or spawns goroutines. Fx0A (wait for a key) is
// implemented by polling: the instruction keeps re-executing on each Step
// until the keypad changes.
package cpu

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/mpingram/chip8/memory"
)

// Quirks select between the incompatible ways different interpreters
// implemented a couple of instructions.
type Quirks struct {
	// StoreLoad leaves I unchanged after Fx55 and Fx65.
	StoreLoad bool

	// ShiftY makes 8xy6 and 8xyE shift Vy (into Vx) instead of Vx.
	ShiftY bool
}

// Cpu represents the Chip-8 interpreter state.
type Cpu struct {
	// program counter
	pc uint16
	// address register
	i uint16
	// data registers
	v [16]byte
	// delay and sound timers.
	// Both are decremented by TickTimers, which the owner calls at 60hz.
	dt byte
	st byte

	// return addresses. Real hardware had room for 12 or 16 of these; we
	// don't limit the depth.
	stack []uint16

	// keypad snapshot taken when Fx0A started waiting, nil otherwise
	pendingKeys *KeyState

	quirks Quirks
	rng    *rand.Rand
	logger *slog.Logger

	// set when the last step changed the framebuffer
	drawn bool
}

// State is a read-only copy of the Cpu registers.
type State struct {
	PC            uint16
	I             uint16
	V             [16]byte
	DT            byte
	ST            byte
	Stack         []uint16
	WaitingForKey bool
	Quirks        Quirks
}

// New returns a Cpu in its power-on state, with the program counter at the
// start of program space.
func New(quirks Quirks) *Cpu {
	c := &Cpu{
		quirks: quirks,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		logger: slog.New(slog.DiscardHandler),
	}
	c.Reset()
	return c
}

// SetLogger sets the logger instructions are traced to, at debug level.
// A nil logger discards the trace.
func (c *Cpu) SetLogger(logger *slog.Logger) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	c.logger = logger
}

// Seed makes the random numbers of Cxnn reproducible.
func (c *Cpu) Seed(seed int64) {
	c.rng = rand.New(rand.NewSource(seed))
}

// Reset puts the registers back to their power-on state. Quirks, the random
// source and the logger are kept.
func (c *Cpu) Reset() {
	c.pc = memory.ProgramStart
	c.i = 0
	c.v = [16]byte{}
	c.dt = 0
	c.st = 0
	c.stack = nil
	c.pendingKeys = nil
	c.drawn = false
}

// Step fetches the instruction at the program counter and executes it.
//
// It returns the executed instruction on success. On failure the returned
// error is a *StepError wrapping ErrUnknownOpcode, ErrStackUnderflow or a
// memory error, and no register, memory cell or pixel has been changed.
func (c *Cpu) Step(mem *memory.Memory, screen *Framebuffer, keys KeyState) (Op, error) {
	c.drawn = false

	opcode, err := mem.Read(c.pc)
	if err != nil {
		return OpNone, &StepError{PC: c.pc, Err: err}
	}

	inst, err := Decode(opcode)
	if err != nil {
		return OpNone, &StepError{PC: c.pc, Opcode: opcode, Err: err}
	}

	if c.logger.Enabled(context.Background(), slog.LevelDebug) {
		c.logger.Debug("exec",
			"pc", fmt.Sprintf("0x%03x", c.pc),
			"opcode", fmt.Sprintf("%04x", opcode),
			"instr", inst.String(),
		)
	}

	next, err := c.exec(inst, mem, screen, keys)
	if err != nil {
		return inst.Op, &StepError{PC: c.pc, Opcode: opcode, Err: err}
	}
	c.pc = next
	return inst.Op, nil
}

// TickTimers decrements the delay and sound timers if they're running.
func (c *Cpu) TickTimers() {
	if c.dt > 0 {
		c.dt--
	}
	if c.st > 0 {
		c.st--
	}
}

// SoundTimer returns the sound timer. The buzzer sounds while it's above zero.
func (c *Cpu) SoundTimer() byte {
	return c.st
}

// DelayTimer returns the delay timer.
func (c *Cpu) DelayTimer() byte {
	return c.dt
}

// PC returns the address of the next instruction.
func (c *Cpu) PC() uint16 {
	return c.pc
}

// Drawn reports whether the last step cleared or drew on the framebuffer.
func (c *Cpu) Drawn() bool {
	return c.drawn
}

// Waiting reports whether Fx0A is blocked waiting for the keypad to change.
func (c *Cpu) Waiting() bool {
	return c.pendingKeys != nil
}

// Snapshot returns a static copy of the Cpu at the moment the method is called.
func (c *Cpu) Snapshot() State {
	return State{
		PC:            c.pc,
		I:             c.i,
		V:             c.v,
		DT:            c.dt,
		ST:            c.st,
		Stack:         append([]uint16(nil), c.stack...),
		WaitingForKey: c.pendingKeys != nil,
		Quirks:        c.quirks,
	}
}
