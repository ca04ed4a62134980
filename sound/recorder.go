package sound

import (
	"io"
	"sync"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// wavPCM is the audio format code for uncompressed PCM in a WAV header.
const wavPCM = 1

// Recorder writes what the buzzer would sound like to a WAV file: the clip
// while the sound is on, silence while it's off. Time is measured with a
// clock, which is the wall clock unless SetClock says otherwise.
//
// Calls are passed on to the wrapped Speaker, if there is one, so a
// Recorder can sit in front of a Beeper.
type Recorder struct {
	next Speaker
	enc  *wav.Encoder
	rate int
	clip []int

	mu    sync.Mutex
	now   func() time.Time
	since time.Time
	on    bool
	pos   int
	err   error
}

// NewRecorder starts a recording into w at the clip's sample rate. next may
// be nil.
func NewRecorder(w io.WriteSeeker, clip *audio.IntBuffer, next Speaker) (*Recorder, error) {
	if len(clip.Data) == 0 {
		return nil, ErrEmptyClip
	}
	rate := clip.Format.SampleRate
	r := &Recorder{
		next: next,
		enc:  wav.NewEncoder(w, rate, bitDepth, 1, wavPCM),
		rate: rate,
		clip: clip.Data,
		now:  time.Now,
	}
	r.since = r.now()
	return r, nil
}

// SetClock replaces the clock and restarts the measurement from its
// current time. Anything not yet written is dropped.
func (r *Recorder) SetClock(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
	r.since = now()
}

// StartSound records everything up to now as silence and turns the tone on.
func (r *Recorder) StartSound() {
	r.toggle(true)
	if r.next != nil {
		r.next.StartSound()
	}
}

// StopSound records everything up to now as tone and turns it off.
func (r *Recorder) StopSound() {
	r.toggle(false)
	if r.next != nil {
		r.next.StopSound()
	}
}

func (r *Recorder) toggle(on bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.on == on {
		return
	}
	r.flush()
	r.on = on
	if on {
		r.pos = 0
	}
}

// flush writes the samples between since and now. The caller holds mu.
func (r *Recorder) flush() {
	if r.err != nil {
		return
	}

	now := r.now()
	count := int(now.Sub(r.since) * time.Duration(r.rate) / time.Second)
	if count <= 0 {
		return
	}
	// advance by whole samples so rounding doesn't drift
	r.since = r.since.Add(time.Duration(count) * time.Second / time.Duration(r.rate))

	samples := make([]int, count)
	if r.on {
		for i := range samples {
			samples[i] = r.clip[r.pos]
			r.pos = (r.pos + 1) % len(r.clip)
		}
	}

	r.err = r.enc.Write(newClip(r.rate, samples))
}

// Close records up to now and finishes the WAV file. It doesn't close the
// wrapped Speaker or the writer.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.flush()
	if r.err != nil {
		return r.err
	}
	return r.enc.Close()
}
