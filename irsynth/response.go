package irsynth

import (
	"fmt"

	"github.com/cwbudde/algo-reverb/dsp"
)

// ImpulseResponse is an immutable stereo IR. It is safe for concurrent use;
// every accessor returning samples hands out a copy.
type ImpulseResponse struct {
	sampleRate int
	left       []float64
	right      []float64

	config    Config
	generated bool
}

// NewImpulseResponse wraps externally supplied samples, for example a decoded
// IR file. A nil or empty right channel makes the IR dual-mono. The slices are
// copied.
func NewImpulseResponse(sampleRate int, left, right []float64) (*ImpulseResponse, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: %d", dsp.ErrInvalidRate, sampleRate)
	}
	if len(right) == 0 {
		right = left
	}
	if len(left) != len(right) {
		return nil, fmt.Errorf("%w: %d vs %d", dsp.ErrChannelMismatch, len(left), len(right))
	}
	ir := &ImpulseResponse{
		sampleRate: sampleRate,
		left:       append([]float64(nil), left...),
		right:      append([]float64(nil), right...),
	}
	if !ir.Buffer().IsFinite() {
		return nil, dsp.ErrNonFiniteSamples
	}
	return ir, nil
}

func newGenerated(buf dsp.Buffer, cfg Config) *ImpulseResponse {
	return &ImpulseResponse{
		sampleRate: buf.SampleRate,
		left:       buf.Channels[0],
		right:      buf.Channels[1],
		config:     cfg,
		generated:  true,
	}
}

// Len returns the IR length in samples.
func (ir *ImpulseResponse) Len() int { return len(ir.left) }

func (ir *ImpulseResponse) SampleRate() int { return ir.sampleRate }

// NumChannels is always 2.
func (ir *ImpulseResponse) NumChannels() int { return 2 }

// Channel returns a copy of channel c (0 = left, 1 = right).
func (ir *ImpulseResponse) Channel(c int) []float64 {
	if c == 0 {
		return append([]float64(nil), ir.left...)
	}
	return append([]float64(nil), ir.right...)
}

func (ir *ImpulseResponse) Left() []float64  { return ir.Channel(0) }
func (ir *ImpulseResponse) Right() []float64 { return ir.Channel(1) }

// Buffer returns a stereo copy of the IR.
func (ir *ImpulseResponse) Buffer() dsp.Buffer {
	return dsp.NewStereo(ir.sampleRate, ir.Channel(0), ir.Channel(1))
}

// view exposes the backing samples for read-only use inside the module.
func (ir *ImpulseResponse) view() dsp.Buffer {
	return dsp.NewStereo(ir.sampleRate, ir.left, ir.right)
}

func (ir *ImpulseResponse) Peak() float64 { return ir.view().Peak() }
func (ir *ImpulseResponse) RMS() float64  { return ir.view().RMS() }

// Config returns the synthesis parameters and true for generated IRs, or a
// zero Config and false for loaded ones.
func (ir *ImpulseResponse) Config() (Config, bool) {
	return ir.config, ir.generated
}

// PreDelayMs returns the pre-delay already baked into the IR. Loaded IRs
// report 0.
func (ir *ImpulseResponse) PreDelayMs() float64 {
	if !ir.generated {
		return 0
	}
	return ir.config.PreDelayMs
}
