package sound

import (
	"sync"
	"sync/atomic"

	"github.com/go-audio/audio"
	"github.com/hajimehoshi/oto"
)

// chunksPerSecond sets how much audio the Beeper queues at a time, and with
// it how late a start or stop can be heard.
const chunksPerSecond = 60

// Beeper plays a clip on the default audio device for as long as the sound
// is on, and silence otherwise.
//
// One goroutine feeds the device; StartSound and StopSound only flip a flag
// and never block, so they're safe to call from the emulation loop.
type Beeper struct {
	ctx    *oto.Context
	player *oto.Player

	clip    []int
	chunk   int
	silence []byte

	on   atomic.Bool
	done chan struct{}
	wg   sync.WaitGroup
}

// NewBeeper opens the audio device at the clip's sample rate and starts
// feeding it. Only one Beeper can exist at a time.
func NewBeeper(clip *audio.IntBuffer) (*Beeper, error) {
	if len(clip.Data) == 0 {
		return nil, ErrEmptyClip
	}

	rate := clip.Format.SampleRate
	chunk := rate / chunksPerSecond
	if chunk < 1 {
		chunk = 1
	}

	// bytes: 2 per sample, room for a few chunks
	ctx, err := oto.NewContext(rate, 1, bitDepth/8, chunk*2*4)
	if err != nil {
		return nil, err
	}

	b := &Beeper{
		ctx:     ctx,
		player:  ctx.NewPlayer(),
		clip:    clip.Data,
		chunk:   chunk,
		silence: make([]byte, chunk*2),
		done:    make(chan struct{}),
	}

	b.wg.Add(1)
	go b.feed()

	return b, nil
}

func (b *Beeper) feed() {
	defer b.wg.Done()

	buf := make([]byte, 0, b.chunk*2)
	pos := 0
	for {
		select {
		case <-b.done:
			return
		default:
		}

		out := b.silence
		if b.on.Load() {
			buf, pos = pcm16(buf[:0], b.clip, pos, b.chunk)
			out = buf
		} else {
			// restart the clip from the top on the next beep
			pos = 0
		}

		// Write blocks until the device has room
		if _, err := b.player.Write(out); err != nil {
			return
		}
	}
}

// StartSound turns the tone on.
func (b *Beeper) StartSound() {
	b.on.Store(true)
}

// StopSound turns the tone off.
func (b *Beeper) StopSound() {
	b.on.Store(false)
}

// Close stops playback and releases the audio device.
func (b *Beeper) Close() error {
	close(b.done)
	b.wg.Wait()

	if err := b.player.Close(); err != nil {
		return err
	}
	return b.ctx.Close()
}
