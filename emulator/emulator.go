// Package emulator runs a Chip-8 program: it paces the interpreter, drives
// the 60hz timers, and connects the machine to a display, a keyboard and a
// speaker.
package emulator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mpingram/chip8/cpu"
	"github.com/mpingram/chip8/memory"
)

// Display shows the framebuffer. Render is only called between steps.
type Display interface {
	Render(screen cpu.Framebuffer)
}

// Input reports the keypad and the emulator controls. It's polled once per
// timer tick.
type Input interface {
	Poll() (cpu.KeyState, Controls)
}

// Speaker sounds the buzzer while the sound timer runs.
type Speaker interface {
	StartSound()
	StopSound()
}

// Controls are the keys that operate the emulator rather than the program.
// Each takes effect when it goes down, not while it's held.
type Controls struct {
	// Quit ends Run.
	Quit bool
	// Pause stops the interpreter and the timers.
	Pause bool
	// Resume undoes Pause.
	Resume bool
	// Step executes a single instruction while paused.
	Step bool
	// Dump logs the screen and registers.
	Dump bool
}

// pressed returns the controls that are down now and weren't before.
func (c Controls) pressed(prev Controls) Controls {
	return Controls{
		Quit:   c.Quit && !prev.Quit,
		Pause:  c.Pause && !prev.Pause,
		Resume: c.Resume && !prev.Resume,
		Step:   c.Step && !prev.Step,
		Dump:   c.Dump && !prev.Dump,
	}
}

// Options configure a new Emulator. Zero values pick the defaults.
type Options struct {
	Quirks cpu.Quirks

	// Rate is the number of instructions per second. Default 540.
	Rate int
	// TimerRate is the timer frequency in hz. Default 60.
	TimerRate int
	// Seed for the random number generator. Zero keeps the time based seed.
	Seed int64

	Logger *slog.Logger
}

const (
	DefaultRate      = 540
	DefaultTimerRate = 60
)

type Emulator struct {
	cpu    *cpu.Cpu
	mem    *memory.Memory
	screen cpu.Framebuffer

	// keyState holds the most recent keypad snapshot from the input.
	keyState cpu.KeyState
	controls Controls

	display Display
	input   Input
	speaker Speaker
	logger  *slog.Logger

	rate      int
	timerRate int
	// instructions owed to the next tick, in units of 1/timerRate
	owed int

	drawFlag        bool
	soundingFlag    bool
	shouldCloseFlag bool
	isPausedFlag    bool

	// fault is the error that stopped the interpreter
	fault error
}

// New returns an Emulator with nothing attached and nothing loaded.
func New(opts Options) *Emulator {
	if opts.Rate <= 0 {
		opts.Rate = DefaultRate
	}
	if opts.TimerRate <= 0 {
		opts.TimerRate = DefaultTimerRate
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}

	e := &Emulator{
		cpu:       cpu.New(opts.Quirks),
		mem:       memory.New(),
		display:   nullDevice{},
		input:     nullDevice{},
		speaker:   nullDevice{},
		logger:    opts.Logger,
		rate:      opts.Rate,
		timerRate: opts.TimerRate,
	}
	e.cpu.SetLogger(opts.Logger)
	if opts.Seed != 0 {
		e.cpu.Seed(opts.Seed)
	}
	return e
}

func (e *Emulator) AttachDisplay(display Display) {
	if display == nil {
		display = nullDevice{}
	}
	e.display = display
}

func (e *Emulator) AttachInput(input Input) {
	if input == nil {
		input = nullDevice{}
	}
	e.input = input
}

func (e *Emulator) AttachSpeaker(speaker Speaker) {
	if speaker == nil {
		speaker = nullDevice{}
	}
	e.speaker = speaker
}

// Load resets the machine, installs the font and copies program to the
// start of program space.
func (e *Emulator) Load(program []byte) error {
	e.cpu.Reset()
	e.mem.Reset()
	e.screen.Clear()
	e.keyState = cpu.KeyState{}
	e.owed = 0
	e.fault = nil
	e.isPausedFlag = false
	e.shouldCloseFlag = false
	e.drawFlag = true
	e.setSound(false)

	if err := cpu.LoadFont(e.mem); err != nil {
		return err
	}
	if err := e.mem.Load(program); err != nil {
		return err
	}

	e.logger.Info("program loaded", "bytes", len(program))
	return nil
}

// Step executes one instruction against the latest keypad snapshot.
//
// If the instruction fails the emulator freezes: the registers, memory and
// screen stay as they were, and every later Step returns the same error
// without doing anything.
func (e *Emulator) Step() error {
	if e.fault != nil {
		return e.fault
	}

	if _, err := e.cpu.Step(e.mem, &e.screen, e.keyState); err != nil {
		e.fault = err
		e.logger.Error("interpreter halted", "err", err)
		return err
	}

	if e.cpu.Drawn() {
		e.drawFlag = true
	}
	e.setSound(e.cpu.SoundTimer() > 0)
	return nil
}

// TickTimers decrements the delay and sound timers, starting or stopping the
// speaker as the sound timer changes. Call it at the timer rate.
func (e *Emulator) TickTimers() {
	if e.fault != nil {
		return
	}
	e.cpu.TickTimers()
	e.setSound(e.cpu.SoundTimer() > 0)
}

func (e *Emulator) setSound(on bool) {
	if on == e.soundingFlag {
		return
	}
	e.soundingFlag = on
	if on {
		e.speaker.StartSound()
	} else {
		e.speaker.StopSound()
	}
}

// Run executes the loaded program until ctx is done or the Quit control is
// pressed.
//
// Every timer tick it polls the input, executes the instructions due at the
// configured rate, decrements the timers and renders the screen if it
// changed. A fault doesn't end Run; the frozen screen stays up and the
// controls keep working until the user quits.
func (e *Emulator) Run(ctx context.Context) error {
	// render the blank screen first
	e.render()

	ticker := time.NewTicker(time.Second / time.Duration(e.timerRate))
	defer ticker.Stop()

	for !e.shouldClose() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		e.Tick()
	}
	e.setSound(false)
	return nil
}

// Tick does one timer period worth of work: poll, run, count down, render.
// Run calls it on a ticker; it's exported for callers that own their loop.
func (e *Emulator) Tick() {
	e.poll()

	if !e.isPaused() && e.fault == nil {
		e.owed += e.rate
		for ; e.owed >= e.timerRate; e.owed -= e.timerRate {
			if err := e.Step(); err != nil {
				e.owed = 0
				break
			}
		}
		e.TickTimers()
	}

	e.render()
}

func (e *Emulator) poll() {
	var controls Controls
	e.keyState, controls = e.input.Poll()
	pressed := controls.pressed(e.controls)
	e.controls = controls

	if pressed.Quit {
		e.TurnOff()
	}
	if pressed.Pause && !e.isPaused() {
		e.Pause()
		e.logger.Info("paused", "pc", fmt.Sprintf("0x%03x", e.cpu.PC()))
	}
	if pressed.Resume && e.isPaused() {
		e.Resume()
		e.logger.Info("resumed")
	}
	if pressed.Step && e.isPaused() {
		// only step forward a paused CPU to avoid a double-step
		e.Step()
	}
	if pressed.Dump {
		e.logger.Info("state\n" + e.DumpState())
	}
}

func (e *Emulator) render() {
	if !e.drawFlag {
		return
	}
	e.display.Render(e.screen)
	e.drawFlag = false
}

// Err returns the error that stopped the interpreter, or nil.
func (e *Emulator) Err() error {
	return e.fault
}

func (e *Emulator) TurnOff() {
	e.shouldCloseFlag = true
}

func (e *Emulator) Pause() {
	e.isPausedFlag = true
}

func (e *Emulator) Resume() {
	e.isPausedFlag = false
}

func (e *Emulator) Paused() bool {
	return e.isPausedFlag
}

func (e *Emulator) shouldClose() bool {
	return e.shouldCloseFlag
}

func (e *Emulator) isPaused() bool {
	return e.isPausedFlag
}

// Snapshot returns a copy of the interpreter registers.
func (e *Emulator) Snapshot() cpu.State {
	return e.cpu.Snapshot()
}

// Screen returns a copy of the framebuffer.
func (e *Emulator) Screen() cpu.Framebuffer {
	return e.screen
}

// Memory returns the machine's memory, for listings and dumps.
func (e *Emulator) Memory() *memory.Memory {
	return e.mem
}

// DumpState draws the screen as ASCII art in a box, followed by the
// registers.
func (e *Emulator) DumpState() string {
	var dump strings.Builder

	border := "+" + strings.Repeat("-", cpu.Width) + "+\n"
	dump.WriteString(border)
	for y := 0; y < cpu.Height; y++ {
		dump.WriteByte('|')
		for x := 0; x < cpu.Width; x++ {
			if e.screen[x][y] {
				dump.WriteByte('*')
			} else {
				dump.WriteByte(' ')
			}
		}
		dump.WriteString("|\n")
	}
	dump.WriteString(border)

	state := e.cpu.Snapshot()
	fmt.Fprintf(&dump, "pc=%03x i=%03x dt=%02x st=%02x\n", state.PC, state.I, state.DT, state.ST)
	for r, v := range state.V {
		fmt.Fprintf(&dump, "V%X=%02x", r, v)
		if r%8 == 7 {
			dump.WriteByte('\n')
		} else {
			dump.WriteByte(' ')
		}
	}
	fmt.Fprintf(&dump, "stack=%03x\n", state.Stack)
	if e.fault != nil {
		fmt.Fprintf(&dump, "halted: %v\n", e.fault)
	}

	return dump.String()
}

// nullDevice stands in for whatever isn't attached.
type nullDevice struct{}

func (nullDevice) Render(cpu.Framebuffer) {}
func (nullDevice) Poll() (cpu.KeyState, Controls) { return cpu.KeyState{}, Controls{} }
func (nullDevice) StartSound() {}
func (nullDevice) StopSound() {}
