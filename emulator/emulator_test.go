package emulator

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpingram/chip8/cpu"
	"github.com/mpingram/chip8/memory"
)

type fakeDisplay struct {
	frames []cpu.Framebuffer
}

func (d *fakeDisplay) Render(screen cpu.Framebuffer) {
	d.frames = append(d.frames, screen)
}

// scriptedInput plays back one poll result per call and then repeats the
// last one.
type scriptedInput struct {
	keys     []cpu.KeyState
	controls []Controls
	polls    int
}

func (in *scriptedInput) Poll() (cpu.KeyState, Controls) {
	n := in.polls
	in.polls++

	var keys cpu.KeyState
	if len(in.keys) > 0 {
		keys = in.keys[min(n, len(in.keys)-1)]
	}
	var controls Controls
	if len(in.controls) > 0 {
		controls = in.controls[min(n, len(in.controls)-1)]
	}
	return keys, controls
}

type fakeSpeaker struct {
	events []string
}

func (s *fakeSpeaker) StartSound() { s.events = append(s.events, "start") }
func (s *fakeSpeaker) StopSound()  { s.events = append(s.events, "stop") }

func image(opcodes ...uint16) []byte {
	out := make([]byte, 0, len(opcodes)*2)
	for _, op := range opcodes {
		out = append(out, byte(op>>8), byte(op))
	}
	return out
}

func load(t *testing.T, opts Options, opcodes ...uint16) *Emulator {
	t.Helper()
	e := New(opts)
	require.NoError(t, e.Load(image(opcodes...)))
	return e
}

func TestLoadAndStep(t *testing.T) {
	assert := assert.New(t)

	e := load(t, Options{}, 0x6005, 0x7003)
	require.NoError(t, e.Step())
	require.NoError(t, e.Step())
	assert.Equal(byte(8), e.Snapshot().V[0])
	assert.Equal(uint16(0x202), e.Snapshot().PC)
	assert.NoError(e.Err())
}

func TestLoadInstallsFont(t *testing.T) {
	e := load(t, Options{})
	rows, err := e.Memory().ReadBytes(cpu.FontAddress, 5)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xf0, 0x90, 0x90, 0x90, 0xf0}, rows)
}

func TestLoadTooLarge(t *testing.T) {
	e := New(Options{})
	err := e.Load(make([]byte, memory.UsableSpace+1))
	assert.ErrorIs(t, err, memory.ErrProgramTooLarge)
}

func TestLoadClearsFault(t *testing.T) {
	e := load(t, Options{}, 0x0000)
	require.Error(t, e.Step())
	require.NoError(t, e.Load(image(0x6001)))
	assert.NoError(t, e.Err())
	assert.NoError(t, e.Step())
}

func TestFaultFreezes(t *testing.T) {
	assert := assert.New(t)

	// draw something, set the delay timer, then hit an unknown opcode
	e := load(t, Options{}, 0xa010, 0xd005, 0x6009, 0xf015, 0x0000)
	display := &fakeDisplay{}
	e.AttachDisplay(display)
	for n := 0; n < 4; n++ {
		require.NoError(t, e.Step())
	}

	err := e.Step()
	require.ErrorIs(t, err, cpu.ErrUnknownOpcode)
	assert.Equal(err, e.Err())

	before := e.Snapshot()
	screen := e.Screen()

	assert.Equal(err, e.Step(), "later steps report the same fault")
	e.TickTimers()
	e.Tick()
	e.Tick()

	assert.Equal(before, e.Snapshot())
	assert.Equal(byte(9), e.Snapshot().DT, "timers stop too")
	assert.Equal(screen, e.Screen())

	// the frame drawn before the fault still reaches the display
	require.Len(t, display.frames, 1)
	assert.Equal(screen, display.frames[0])
}

func TestSound(t *testing.T) {
	assert := assert.New(t)

	e := load(t, Options{}, 0x6002, 0xf018, 0x1204)
	speaker := &fakeSpeaker{}
	e.AttachSpeaker(speaker)

	require.NoError(t, e.Step())
	assert.Empty(speaker.events)
	require.NoError(t, e.Step())
	assert.Equal([]string{"start"}, speaker.events)

	e.TickTimers()
	assert.Equal([]string{"start"}, speaker.events)
	e.TickTimers()
	assert.Equal([]string{"start", "stop"}, speaker.events)
	e.TickTimers()
	assert.Equal([]string{"start", "stop"}, speaker.events)
}

func TestTickPacing(t *testing.T) {
	tests := []struct {
		rate, timerRate int
		ticks           int
		want            byte
	}{
		{120, 60, 3, 3},
		{90, 60, 2, 2},
		{90, 60, 4, 3},
		{60, 60, 5, 3},
		{30, 60, 4, 1},
	}

	for _, tt := range tests {
		// ADD V0, 1 then jump back: every other instruction counts
		e := load(t, Options{Rate: tt.rate, TimerRate: tt.timerRate}, 0x7001, 0x1200)
		for n := 0; n < tt.ticks; n++ {
			e.Tick()
		}
		assert.Equal(t, tt.want, e.Snapshot().V[0], "rate %d/%d after %d ticks", tt.rate, tt.timerRate, tt.ticks)
	}
}

func TestTickRendersOnlyWhenDrawn(t *testing.T) {
	assert := assert.New(t)

	// one instruction per tick: LD V0, CLS, LD V0, JP to the second LD
	e := load(t, Options{Rate: 60, TimerRate: 60}, 0x6000, 0x00e0, 0x6001, 0x1202)
	display := &fakeDisplay{}
	e.AttachDisplay(display)

	e.Tick()
	assert.Len(display.frames, 1, "the freshly loaded screen")
	e.Tick()
	assert.Len(display.frames, 2, "CLS")
	e.Tick()
	e.Tick()
	e.Tick()
	assert.Len(display.frames, 2)
}

func TestKeysReachTheProgram(t *testing.T) {
	// V0 = 5; skip the jump-to-self while key 5 is down
	e := load(t, Options{Rate: 60, TimerRate: 60}, 0x6005, 0xe09e, 0x1201, 0x6101)
	input := &scriptedInput{keys: []cpu.KeyState{{}, {}, {5: true}}}
	e.AttachInput(input)

	e.Tick()
	e.Tick()
	assert.Equal(t, uint16(0x202), e.Snapshot().PC)
	e.Tick()
	e.Tick()
	assert.Equal(t, uint16(0x203), e.Snapshot().PC)
}

func TestWaitKeyAcrossTicks(t *testing.T) {
	e := load(t, Options{Rate: 600, TimerRate: 60}, 0xf30a, 0x1201)
	input := &scriptedInput{keys: []cpu.KeyState{{}, {}, {}, {0xc: true}}}
	e.AttachInput(input)

	for n := 0; n < 3; n++ {
		e.Tick()
		assert.True(t, e.Snapshot().WaitingForKey)
		assert.Equal(t, uint16(0x200), e.Snapshot().PC)
	}
	e.Tick()
	assert.Equal(t, byte(0xc), e.Snapshot().V[3])
	assert.Equal(t, uint16(0x201), e.Snapshot().PC)
}

func TestControls(t *testing.T) {
	assert := assert.New(t)

	e := load(t, Options{Rate: 60, TimerRate: 60}, 0x7001, 0x1200)
	input := &scriptedInput{controls: []Controls{
		{},                          // run: V0=1
		{Pause: true},               // paused
		{Pause: true},               // held, still paused
		{Pause: true, Step: true},   // one step: jump
		{Pause: true, Step: true},   // held, no step
		{Pause: true},               // step released
		{Step: true},                // one step: V0=2
		{Resume: true},              // running: jump
		{Resume: true, Pause: true}, // paused again
		{},                          // stays paused
	}}
	e.AttachInput(input)

	want := []struct {
		paused bool
		pc     uint16
		v0     byte
	}{
		{false, 0x201, 1},
		{true, 0x201, 1},
		{true, 0x201, 1},
		{true, 0x200, 1},
		{true, 0x200, 1},
		{true, 0x200, 1},
		{true, 0x201, 2},
		{false, 0x200, 2},
		{true, 0x200, 2},
		{true, 0x200, 2},
	}
	for n, w := range want {
		e.Tick()
		assert.Equal(w.paused, e.Paused(), "tick %d", n)
		assert.Equal(w.pc, e.Snapshot().PC, "tick %d", n)
		assert.Equal(w.v0, e.Snapshot().V[0], "tick %d", n)
	}
}

func TestRunQuit(t *testing.T) {
	e := load(t, Options{Rate: 1000, TimerRate: 1000}, 0x7001, 0x1200)
	input := &scriptedInput{controls: []Controls{{}, {}, {}, {Quit: true}}}
	e.AttachInput(input)
	speaker := &fakeSpeaker{}
	e.AttachSpeaker(speaker)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	assert.NoError(t, e.Run(ctx))
	assert.Equal(t, 4, input.polls)
	assert.Equal(t, byte(2), e.Snapshot().V[0], "three ticks ran before the quit")
}

func TestRunCancel(t *testing.T) {
	e := load(t, Options{Rate: 1000, TimerRate: 1000}, 0x1200)
	display := &fakeDisplay{}
	e.AttachDisplay(display)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	assert.ErrorIs(t, e.Run(ctx), context.DeadlineExceeded)
	assert.Len(t, display.frames, 1, "the blank screen")
}

func TestRunKeepsGoingAfterFault(t *testing.T) {
	e := load(t, Options{Rate: 1000, TimerRate: 1000}, 0x0000)
	input := &scriptedInput{controls: []Controls{{}, {}, {}, {}, {}, {Quit: true}}}
	e.AttachInput(input)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	assert.NoError(t, e.Run(ctx))
	assert.Equal(t, 6, input.polls)
	assert.ErrorIs(t, e.Err(), cpu.ErrUnknownOpcode)
}

func TestDumpState(t *testing.T) {
	assert := assert.New(t)

	// draw the top row of the 0 glyph at 0,0
	e := load(t, Options{}, 0xa010, 0xd001, 0x6a42)
	for n := 0; n < 3; n++ {
		require.NoError(t, e.Step())
	}

	lines := strings.Split(e.DumpState(), "\n")
	border := "+" + strings.Repeat("-", cpu.Width) + "+"
	assert.Equal(border, lines[0])
	assert.Equal("|****"+strings.Repeat(" ", cpu.Width-4)+"|", lines[1])
	assert.Equal("|"+strings.Repeat(" ", cpu.Width)+"|", lines[2])
	assert.Equal(border, lines[cpu.Height+1])
	assert.Equal("pc=203 i=010 dt=00 st=00", lines[cpu.Height+2])
	assert.Contains(lines[cpu.Height+4], "VA=42")
}

func TestControlsPressed(t *testing.T) {
	held := Controls{Pause: true, Dump: true}
	now := Controls{Pause: true, Dump: false, Step: true}
	assert.Equal(t, Controls{Step: true}, now.pressed(held))
}

func TestDetach(t *testing.T) {
	e := load(t, Options{Rate: 60, TimerRate: 60}, 0x6001, 0xf018, 0x00e0)
	e.AttachDisplay(nil)
	e.AttachInput(nil)
	e.AttachSpeaker(nil)
	e.Tick()
	e.Tick()
	e.Tick()
	assert.NoError(t, e.Err())
}
