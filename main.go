// Command chip8 runs a Chip-8 program in a window.
//
//	chip8 [flags] rom.ch8
//
// Keypad keys are read from the configuration file (see package config).
// Esc quits, P pauses, [ resumes, ] steps one instruction while paused and
// O logs the screen and registers.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"runtime"

	"github.com/go-audio/audio"
	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/mpingram/chip8/config"
	"github.com/mpingram/chip8/cpu"
	"github.com/mpingram/chip8/emulator"
	"github.com/mpingram/chip8/memory"
	"github.com/mpingram/chip8/sound"
)

func init() {
	// openGL requires this to render properly
	runtime.LockOSThread()
}

func main() {
	configPath := flag.String("config", "", "TOML configuration `file`")
	rate := flag.Int("rate", 0, "instructions per second")
	storeLoad := flag.Bool("quirk-store-load", false, "leave I unchanged after Fx55 and Fx65")
	shiftY := flag.Bool("quirk-shift-y", false, "shift Vy into Vx in 8xy6 and 8xyE")
	scale := flag.Int("scale", 0, "window pixels per Chip-8 pixel")
	seed := flag.Int64("seed", 0, "random number seed (0 picks one)")
	wavPath := flag.String("wav", "", "play this wav or mp3 `file` as the beep")
	recordPath := flag.String("record", "", "record the beeper to this wav `file`")
	mute := flag.Bool("mute", false, "don't open the audio device")
	disasm := flag.Bool("disasm", false, "print a disassembly of the program and exit")
	dump := flag.Bool("dump", false, "print program memory after loading and exit")
	verbose := flag.Bool("v", false, "log every instruction")

	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] rom.ch8\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("%v: %v", *configPath, err)
	}

	// flags given on the command line override the file
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "rate":
			cfg.Rate = *rate
		case "quirk-store-load":
			cfg.Quirks.StoreLoad = *storeLoad
		case "quirk-shift-y":
			cfg.Quirks.ShiftY = *shiftY
		case "scale":
			cfg.Scale = *scale
		case "seed":
			cfg.Seed = *seed
		case "wav":
			cfg.Sound.WAV = *wavPath
		case "record":
			cfg.Sound.Record = *recordPath
		}
	})
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	romPath := flag.Arg(0)
	rom, err := os.ReadFile(romPath)
	if err != nil {
		log.Fatal(err)
	}

	c8 := emulator.New(emulator.Options{
		Quirks:    cfg.Quirks.CPU(),
		Rate:      cfg.Rate,
		TimerRate: cfg.TimerRate,
		Seed:      cfg.Seed,
		Logger:    logger,
	})
	if err := c8.Load(rom); err != nil {
		log.Fatalf("%v: %v", romPath, err)
	}

	switch {
	case *disasm:
		words := (len(rom) + 1) / 2
		if err := cpu.Disassemble(os.Stdout, c8.Memory(), memory.ProgramStart, words); err != nil {
			log.Fatal(err)
		}
		return
	case *dump:
		if err := c8.Memory().Dump(os.Stdout); err != nil {
			log.Fatal(err)
		}
		return
	}

	on, off, err := cfg.Colors.RGB()
	if err != nil {
		log.Fatal(err)
	}

	speaker, closeSpeaker, err := openSpeaker(cfg.Sound, *mute, logger)
	if err != nil {
		log.Fatal(err)
	}
	err = play(c8, cfg, on, off, speaker, logger)
	// a recording only gets a valid header once it's closed
	closeSpeaker()
	if err != nil {
		log.Fatal(err)
	}
}

// play opens the window and runs the emulator in it until the user quits or
// the process is interrupted.
func play(c8 *emulator.Emulator, cfg config.Config, on, off [3]float32, speaker emulator.Speaker, logger *slog.Logger) error {
	if err := glfw.Init(); err != nil {
		return err
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.Resizable, glfw.False)
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	window, err := glfw.CreateWindow(cpu.Width*cfg.Scale, cpu.Height*cfg.Scale, "Chip-8", nil, nil)
	if err != nil {
		return err
	}
	window.MakeContextCurrent()
	if err := gl.Init(); err != nil {
		return err
	}

	renderer, err := NewOpenGLRenderer(window, on, off)
	if err != nil {
		return err
	}
	input, err := NewGLFWKeyboardInput(window, cfg.Keys)
	if err != nil {
		return err
	}

	c8.AttachDisplay(renderer)
	c8.AttachInput(input)
	c8.AttachSpeaker(speaker)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := c8.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("run", "err", err)
	}
	if err := c8.Err(); err != nil {
		logger.Info("program halted", "err", err)
	}
	return nil
}

// openSpeaker builds the speaker chain for the sound settings: the audio
// device unless muted, wrapped in a recorder if one was asked for. The
// returned function closes everything that was opened.
func openSpeaker(cfg config.Sound, mute bool, logger *slog.Logger) (emulator.Speaker, func(), error) {
	var clip *audio.IntBuffer
	if cfg.WAV != "" {
		var err error
		if clip, err = sound.Load(cfg.WAV); err != nil {
			return nil, nil, err
		}
	} else {
		clip = sound.SquareWave(cfg.ToneHz, cfg.SampleRate, cfg.Volume)
	}

	var closers []io.Closer
	closeAll := func() {
		// last opened, first closed
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i].Close(); err != nil {
				logger.Warn("closing sound", "err", err)
			}
		}
	}

	var speaker sound.Speaker = sound.Mute{}
	if !mute {
		beeper, err := sound.NewBeeper(clip)
		if err != nil {
			// carry on without sound
			logger.Warn("no audio device", "err", err)
		} else {
			speaker = beeper
			closers = append(closers, beeper)
		}
	}

	if cfg.Record != "" {
		file, err := os.Create(cfg.Record)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		closers = append(closers, file)

		recorder, err := sound.NewRecorder(file, clip, speaker)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		speaker = recorder
		closers = append(closers, recorder)
	}

	return speaker, closeAll, nil
}
