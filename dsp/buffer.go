package dsp

import (
	"errors"
	"fmt"
	"math"

	dsptime "github.com/cwbudde/algo-dsp/stats/time"
	"github.com/tphakala/simd/f64"
)

// MinEnergy is the level below which RMS/peak based gain computations are
// skipped instead of dividing by a near-zero measurement.
const MinEnergy = 1e-12

var (
	ErrNoChannels       = errors.New("dsp: buffer has no channels")
	ErrTooManyChannels  = errors.New("dsp: buffer has more than two channels")
	ErrChannelMismatch  = errors.New("dsp: channel lengths differ")
	ErrInvalidRate      = errors.New("dsp: sample rate must be > 0")
	ErrNonFiniteSamples = errors.New("dsp: buffer contains NaN or Inf")
)

// Buffer is a block of mono or stereo float samples tagged with its sample
// rate. Channels[0] is left (or mono), Channels[1] is right.
type Buffer struct {
	SampleRate int
	Channels   [][]float64
}

// NewBuffer allocates a zeroed buffer.
func NewBuffer(sampleRate, channels, frames int) Buffer {
	b := Buffer{SampleRate: sampleRate, Channels: make([][]float64, channels)}
	for c := range b.Channels {
		b.Channels[c] = make([]float64, frames)
	}
	return b
}

// NewStereo wraps left/right slices without copying.
func NewStereo(sampleRate int, left, right []float64) Buffer {
	return Buffer{SampleRate: sampleRate, Channels: [][]float64{left, right}}
}

// NewMono wraps a mono slice without copying.
func NewMono(sampleRate int, samples []float64) Buffer {
	return Buffer{SampleRate: sampleRate, Channels: [][]float64{samples}}
}

// NumChannels returns the channel count.
func (b Buffer) NumChannels() int { return len(b.Channels) }

// Len returns the number of frames.
func (b Buffer) Len() int {
	if len(b.Channels) == 0 {
		return 0
	}
	return len(b.Channels[0])
}

// IsStereo reports whether b has two channels.
func (b Buffer) IsStereo() bool { return len(b.Channels) == 2 }

// Validate checks the channel layout and sample rate.
func (b Buffer) Validate() error {
	if b.SampleRate <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidRate, b.SampleRate)
	}
	if len(b.Channels) == 0 {
		return ErrNoChannels
	}
	if len(b.Channels) > 2 {
		return fmt.Errorf("%w: %d", ErrTooManyChannels, len(b.Channels))
	}
	if len(b.Channels) == 2 && len(b.Channels[0]) != len(b.Channels[1]) {
		return fmt.Errorf("%w: %d vs %d", ErrChannelMismatch, len(b.Channels[0]), len(b.Channels[1]))
	}
	return nil
}

// Clone returns a deep copy.
func (b Buffer) Clone() Buffer {
	out := Buffer{SampleRate: b.SampleRate, Channels: make([][]float64, len(b.Channels))}
	for c, ch := range b.Channels {
		out.Channels[c] = append([]float64(nil), ch...)
	}
	return out
}

// ToStereo returns a stereo copy; mono input is duplicated to both sides.
func (b Buffer) ToStereo() Buffer {
	if b.IsStereo() {
		return b.Clone()
	}
	if len(b.Channels) == 0 {
		return NewBuffer(b.SampleRate, 2, 0)
	}
	left := append([]float64(nil), b.Channels[0]...)
	right := append([]float64(nil), b.Channels[0]...)
	return NewStereo(b.SampleRate, left, right)
}

// Downmix averages a stereo buffer into mono. Mono input is copied.
func (b Buffer) Downmix() Buffer {
	if !b.IsStereo() {
		return b.Clone()
	}
	n := b.Len()
	out := make([]float64, n)
	l, r := b.Channels[0], b.Channels[1]
	for i := 0; i < n; i++ {
		out[i] = 0.5 * (l[i] + r[i])
	}
	return NewMono(b.SampleRate, out)
}

// Fit returns a copy trimmed or zero-padded to exactly n frames.
func (b Buffer) Fit(n int) Buffer {
	if n < 0 {
		n = 0
	}
	out := NewBuffer(b.SampleRate, len(b.Channels), n)
	for c, ch := range b.Channels {
		copy(out.Channels[c], ch)
	}
	return out
}

// Shift delays every channel by delay samples, zero-filling the front and
// keeping the length unchanged.
func (b Buffer) Shift(delay int) Buffer {
	if delay <= 0 {
		return b.Clone()
	}
	out := NewBuffer(b.SampleRate, len(b.Channels), b.Len())
	for c, ch := range b.Channels {
		if delay < len(ch) {
			copy(out.Channels[c][delay:], ch[:len(ch)-delay])
		}
	}
	return out
}

// PadFront returns a copy with delay zero samples prepended.
func (b Buffer) PadFront(delay int) Buffer {
	if delay <= 0 {
		return b.Clone()
	}
	out := NewBuffer(b.SampleRate, len(b.Channels), b.Len()+delay)
	for c, ch := range b.Channels {
		copy(out.Channels[c][delay:], ch)
	}
	return out
}

// Scale multiplies every sample by g in place.
func (b Buffer) Scale(g float64) {
	for _, ch := range b.Channels {
		if len(ch) == 0 {
			continue
		}
		f64.Scale(ch, ch, g)
	}
}

// Peak returns the largest absolute sample over all channels.
func (b Buffer) Peak() float64 {
	peak := 0.0
	for _, ch := range b.Channels {
		if p := dsptime.Peak(ch); p > peak {
			peak = p
		}
	}
	return peak
}

// RMS returns the root-mean-square over all samples of all channels.
func (b Buffer) RMS() float64 {
	n := 0
	sumSq := 0.0
	for _, ch := range b.Channels {
		r := dsptime.RMS(ch)
		sumSq += r * r * float64(len(ch))
		n += len(ch)
	}
	if n == 0 {
		return 0
	}
	return math.Sqrt(sumSq / float64(n))
}

// IsFinite reports whether all samples are finite.
func (b Buffer) IsFinite() bool {
	for _, ch := range b.Channels {
		for _, v := range ch {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}
	return true
}

// MsToSamples converts milliseconds to a whole number of samples.
func MsToSamples(ms float64, sampleRate int) int {
	if ms <= 0 {
		return 0
	}
	return int(math.Round(ms * float64(sampleRate) / 1000.0))
}
