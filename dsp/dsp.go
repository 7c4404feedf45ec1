package dsp

import (
	"math"

	"github.com/cwbudde/algo-dsp/dsp/filter/biquad"
	"github.com/cwbudde/algo-dsp/dsp/filter/design"
)

// ButterworthQ gives a maximally flat 2nd-order response.
const ButterworthQ = 1 / math.Sqrt2

// Filter is a second-order IIR section. Coefficients can be swapped between
// blocks without clearing the delay state, which keeps time-varying filters
// click-free.
type Filter struct {
	sec        *biquad.Section
	sampleRate float64
	bypass     bool
}

// NewLowpass creates a 2nd-order lowpass. A cutoff outside (0, Nyquist)
// yields a pass-through filter.
func NewLowpass(cutoff, sampleRate float64) *Filter {
	f := &Filter{sec: biquad.NewSection(biquad.Coefficients{}), sampleRate: sampleRate}
	f.SetLowpass(cutoff)
	return f
}

// NewHighpass creates a 2nd-order highpass. A cutoff outside (0, Nyquist)
// yields a pass-through filter.
func NewHighpass(cutoff, sampleRate float64) *Filter {
	f := &Filter{sec: biquad.NewSection(biquad.Coefficients{}), sampleRate: sampleRate}
	f.SetHighpass(cutoff)
	return f
}

// SetLowpass retunes the filter as a lowpass at cutoff.
func (f *Filter) SetLowpass(cutoff float64) {
	if !inBand(cutoff, f.sampleRate) {
		f.bypass = true
		return
	}
	f.bypass = false
	f.sec.Coefficients = design.Lowpass(cutoff, ButterworthQ, f.sampleRate)
}

// SetHighpass retunes the filter as a highpass at cutoff.
func (f *Filter) SetHighpass(cutoff float64) {
	if !inBand(cutoff, f.sampleRate) {
		f.bypass = true
		return
	}
	f.bypass = false
	f.sec.Coefficients = design.Highpass(cutoff, ButterworthQ, f.sampleRate)
}

// Bypassed reports whether the filter currently passes input unchanged.
func (f *Filter) Bypassed() bool { return f.bypass }

// ProcessBlock filters buf in place.
func (f *Filter) ProcessBlock(buf []float64) {
	if f.bypass || len(buf) == 0 {
		return
	}
	f.sec.ProcessBlock(buf)
}

// Reset clears the filter state.
func (f *Filter) Reset() {
	f.sec.Reset()
}

func inBand(freq, sampleRate float64) bool {
	return freq > 0 && sampleRate > 0 && freq < 0.5*sampleRate &&
		!math.IsNaN(freq) && !math.IsInf(freq, 0)
}

// SoftClip applies tanh saturation in place.
func SoftClip(x []float64, drive float64) {
	if drive <= 0 {
		return
	}
	for i, v := range x {
		x[i] = math.Tanh(drive * v)
	}
}

// FlushDenormals zeroes values too small to matter.
func FlushDenormals(x []float64) {
	const epsilon = 1e-30
	for i, v := range x {
		if v > -epsilon && v < epsilon {
			x[i] = 0
		}
	}
}
