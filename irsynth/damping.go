package irsynth

import (
	"math"

	"github.com/cwbudde/algo-approx"

	"github.com/cwbudde/algo-reverb/dsp"
)

// DampingChunkSize is the block length over which the damping low-pass keeps
// a fixed cutoff.
const DampingChunkSize = 512

const (
	dampingMaxCutoffHz = 20000.0
	dampingCutoffDepth = 0.8
	dampingCurveShape  = 3.0
	dampingNyquistCap  = 0.45
)

// DampingFilter applies a low-pass whose cutoff falls chunk by chunk as the
// damping curve rises over the tail. The curve is
//
//	d(i) = damping * (1 - e^(-3i/N)) / (1 - e^-3)
//
// so it goes from 0 at the first sample to damping at the last. Each chunk
// uses the mean of the curve across its span, mapped to
// 20 kHz * (1 - 0.8*mean). Filter state carries across chunk boundaries.
type DampingFilter struct {
	damping    float64
	sampleRate float64
	total      int

	chunk  int
	cutoff float64
	lp     *dsp.Filter
}

// NewDampingFilter prepares a filter for a buffer of total samples.
func NewDampingFilter(damping float64, sampleRate, total int) *DampingFilter {
	f := &DampingFilter{
		damping:    damping,
		sampleRate: float64(sampleRate),
		total:      total,
	}
	f.cutoff = f.CutoffForChunk(0)
	f.lp = dsp.NewLowpass(f.cutoff, f.sampleRate)
	return f
}

// curve evaluates d(i).
func (f *DampingFilter) curve(i int) float64 {
	if f.total <= 0 || f.damping == 0 {
		return 0
	}
	norm := 1 - math.Exp(-dampingCurveShape)
	x := float32(-dampingCurveShape * float64(i) / float64(f.total))
	v := f.damping * (1 - float64(approx.FastExp(x))) / norm
	if v < 0 {
		return 0
	}
	if v > f.damping {
		return f.damping
	}
	return v
}

// CutoffForChunk returns the cutoff in Hz applied to chunk k.
func (f *DampingFilter) CutoffForChunk(k int) float64 {
	start := k * DampingChunkSize
	end := start + DampingChunkSize
	if end > f.total {
		end = f.total
	}
	avg := 0.5 * (f.curve(start) + f.curve(end))
	cutoff := dampingMaxCutoffHz * (1 - avg*dampingCutoffDepth)
	if limit := dampingNyquistCap * f.sampleRate; cutoff > limit {
		cutoff = limit
	}
	return cutoff
}

// Chunk returns the index of the chunk the next Process call will start in.
func (f *DampingFilter) Chunk() int { return f.chunk }

// Cutoff returns the cutoff of the current chunk.
func (f *DampingFilter) Cutoff() float64 { return f.cutoff }

// Process filters x in place, advancing one chunk at a time. Successive calls
// continue where the previous one stopped, so one filter must be used per
// channel.
func (f *DampingFilter) Process(x []float64) {
	for off := 0; off < len(x); off += DampingChunkSize {
		end := off + DampingChunkSize
		if end > len(x) {
			end = len(x)
		}
		f.cutoff = f.CutoffForChunk(f.chunk)
		f.lp.SetLowpass(f.cutoff)
		f.lp.ProcessBlock(x[off:end])
		f.chunk++
	}
	dsp.FlushDenormals(x)
}
