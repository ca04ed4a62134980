package main

import (
	"errors"
	"strings"

	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/mpingram/chip8/cpu"
	"github.com/mpingram/chip8/emulator"
	"github.com/mpingram/chip8/translate"
)

var f = translate.From

var (
	ErrUnknownKey  = errors.New(f("unknown key"))
	ErrReservedKey = errors.New(f("key is reserved for emulator controls"))
)

// KeyError names a key binding that couldn't be used.
type KeyError struct {
	Name string
	Err  error
}

func (err *KeyError) Error() string {
	return f("%v: %q", err.Err, err.Name)
}

func (err *KeyError) Unwrap() error {
	return err.Err
}

// Emulator controls. These are fixed; only the keypad can be remapped.
const (
	powerOffKey = glfw.KeyEscape
	pauseKey    = glfw.KeyP
	unpauseKey  = glfw.KeyLeftBracket
	stepKey     = glfw.KeyRightBracket
	dumpKey     = glfw.KeyO
)

var namedKeys = map[string]glfw.Key{
	"SPACE":     glfw.KeySpace,
	"ENTER":     glfw.KeyEnter,
	"TAB":       glfw.KeyTab,
	"BACKSPACE": glfw.KeyBackspace,
	"UP":        glfw.KeyUp,
	"DOWN":      glfw.KeyDown,
	"LEFT":      glfw.KeyLeft,
	"RIGHT":     glfw.KeyRight,
	"COMMA":     glfw.KeyComma,
	"PERIOD":    glfw.KeyPeriod,
	"SLASH":     glfw.KeySlash,
	"SEMICOLON": glfw.KeySemicolon,
	"MINUS":     glfw.KeyMinus,
	"EQUAL":     glfw.KeyEqual,
	"KP_ENTER":  glfw.KeyKPEnter,
	"KP_ADD":    glfw.KeyKPAdd,
}

// lookupKey turns a key name from the configuration into a GLFW key: a
// letter, a digit, KP_0 to KP_9 for the numeric keypad, or one of
// namedKeys.
func lookupKey(name string) (glfw.Key, bool) {
	name = strings.ToUpper(name)
	if len(name) == 1 {
		switch c := name[0]; {
		case c >= 'A' && c <= 'Z':
			return glfw.KeyA + glfw.Key(c-'A'), true
		case c >= '0' && c <= '9':
			return glfw.Key0 + glfw.Key(c-'0'), true
		}
	}
	if len(name) == 4 && strings.HasPrefix(name, "KP_") && name[3] >= '0' && name[3] <= '9' {
		return glfw.KeyKP0 + glfw.Key(name[3]-'0'), true
	}
	key, ok := namedKeys[name]
	return key, ok
}

// binding ties a keyboard key to a keypad value.
type binding struct {
	key   glfw.Key
	index int
}

type GLFWKeyboardInput struct {
	window   *glfw.Window
	bindings []binding
}

// NewGLFWKeyboardInput reads keys from window, mapped to the keypad by
// keys (key name to keypad value).
func NewGLFWKeyboardInput(window *glfw.Window, keys map[string]int) (*GLFWKeyboardInput, error) {
	input := &GLFWKeyboardInput{window: window}
	for name, index := range keys {
		key, ok := lookupKey(name)
		if !ok {
			return nil, &KeyError{Name: name, Err: ErrUnknownKey}
		}
		switch key {
		case powerOffKey, pauseKey, unpauseKey, stepKey, dumpKey:
			return nil, &KeyError{Name: name, Err: ErrReservedKey}
		}
		input.bindings = append(input.bindings, binding{key: key, index: index})
	}
	return input, nil
}

// Poll processes pending window events and reports which keys are down.
// Closing the window counts as pressing the power off key.
func (input *GLFWKeyboardInput) Poll() (cpu.KeyState, emulator.Controls) {
	glfw.PollEvents()

	down := func(key glfw.Key) bool {
		return input.window.GetKey(key) == glfw.Press
	}

	controls := emulator.Controls{
		Quit:   down(powerOffKey) || input.window.ShouldClose(),
		Pause:  down(pauseKey),
		Resume: down(unpauseKey),
		Step:   down(stepKey),
		Dump:   down(dumpKey),
	}

	var k cpu.KeyState
	for _, b := range input.bindings {
		if down(b.key) {
			k[b.index] = true
		}
	}
	return k, controls
}
