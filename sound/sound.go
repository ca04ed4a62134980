// Package sound makes the Chip-8 buzzer audible.
//
// The interpreter only knows that the sound timer is running or not. This
// package turns that into a looping clip played on the audio device
// (Beeper), written to a WAV file (Recorder), or nothing at all (Mute).
//
// Clips are mono 16 bit *audio.IntBuffer values. They come from SquareWave or
// from a WAV or MP3 file.
package sound

import (
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"

	"github.com/mpingram/chip8/translate"
)

var f = translate.From

var (
	ErrNotWAV      = errors.New(f("not a valid wav file"))
	ErrEmptyClip   = errors.New(f("sound clip has no samples"))
	ErrUnsupported = errors.New(f("unsupported sound file"))
)

// Speaker is anything that can be told when the buzzer starts and stops.
type Speaker interface {
	StartSound()
	StopSound()
}

// Mute is a Speaker that stays silent.
type Mute struct{}

func (Mute) StartSound() {}
func (Mute) StopSound()  {}

const bitDepth = 16

func newClip(sampleRate int, samples []int) *audio.IntBuffer {
	return &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: 1,
			SampleRate:  sampleRate,
		},
		Data:           samples,
		SourceBitDepth: bitDepth,
	}
}

// SquareWave returns one cycle of a square wave at freq, so the clip loops
// without a click. volume runs from 0 to 1.
func SquareWave(freq float64, sampleRate int, volume float64) *audio.IntBuffer {
	period := int(math.Round(float64(sampleRate) / freq))
	if period < 2 {
		period = 2
	}
	amplitude := int(math.Round(volume * math.MaxInt16))

	samples := make([]int, period)
	for i := range samples {
		if i < period/2 {
			samples[i] = amplitude
		} else {
			samples[i] = -amplitude
		}
	}
	return newClip(sampleRate, samples)
}

// LoadWAV decodes a WAV file into a clip. Only the first channel is kept.
func LoadWAV(r io.ReadSeeker) (*audio.IntBuffer, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, ErrNotWAV
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, &DecodeError{Format: "wav", Err: err}
	}

	channels := int(dec.NumChans)
	depth := int(dec.BitDepth)
	if channels < 1 {
		return nil, ErrNotWAV
	}

	// copy first channel only of data stream
	samples := make([]int, 0, len(buf.Data)/channels)
	for i := 0; i < len(buf.Data); i += channels {
		samples = append(samples, to16(buf.Data[i], depth))
	}
	if len(samples) == 0 {
		return nil, ErrEmptyClip
	}
	return newClip(int(dec.SampleRate), samples), nil
}

// to16 rescales a sample of the given bit depth to signed 16 bit.
func to16(v, depth int) int {
	switch {
	case depth == 8:
		// 8bit values are unsigned
		return (v - 128) << 8
	case depth > bitDepth:
		return v >> (depth - bitDepth)
	}
	return v
}

// LoadMP3 decodes an MP3 stream into a clip. Only the left channel is kept.
func LoadMP3(r io.Reader) (*audio.IntBuffer, error) {
	dec, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, &DecodeError{Format: "mp3", Err: err}
	}

	// the decoder always produces 16 bit little endian stereo, four bytes
	// per sample of which the first two are the left channel
	pcm, err := io.ReadAll(dec)
	if err != nil {
		return nil, &DecodeError{Format: "mp3", Err: err}
	}
	samples := make([]int, 0, len(pcm)/4)
	for i := 0; i+1 < len(pcm); i += 4 {
		samples = append(samples, int(int16(uint16(pcm[i])|uint16(pcm[i+1])<<8)))
	}
	if len(samples) == 0 {
		return nil, ErrEmptyClip
	}
	return newClip(dec.SampleRate(), samples), nil
}

// Load reads a clip from a .wav or .mp3 file.
func Load(path string) (*audio.IntBuffer, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return LoadWAV(file)
	case ".mp3":
		return LoadMP3(file)
	}
	return nil, &FileError{Path: path, Err: ErrUnsupported}
}

// FileError names the file a clip couldn't be loaded from.
type FileError struct {
	Path string
	Err  error
}

func (err *FileError) Error() string {
	return f("%v: %v", err.Path, err.Err)
}

func (err *FileError) Unwrap() error {
	return err.Err
}

// DecodeError wraps a failure of the wav or mp3 decoder.
type DecodeError struct {
	Format string
	Err    error
}

func (err *DecodeError) Error() string {
	return f("%v: %v", err.Format, err.Err)
}

func (err *DecodeError) Unwrap() error {
	return err.Err
}

// pcm16 appends the samples, looping through clip from pos, as 16 bit
// little endian bytes. It returns the position to continue from.
func pcm16(dst []byte, clip []int, pos, count int) ([]byte, int) {
	for n := 0; n < count; n++ {
		s := uint16(int16(clip[pos]))
		dst = append(dst, byte(s), byte(s>>8))
		pos++
		if pos == len(clip) {
			pos = 0
		}
	}
	return dst, pos
}
