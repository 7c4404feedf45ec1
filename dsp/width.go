package dsp

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-dsp/dsp/filter/biquad"
	"github.com/cwbudde/algo-dsp/dsp/filter/design"
)

// MinStereoWidth is the smallest accepted width. There is no upper bound.
const MinStereoWidth = 0.0

const bassMonoOrder = 2

// ApplyStereoWidth scales the side component of a stereo buffer:
// mid=(L+R)/2, side=(L-R)/2*width, L'=mid+side, R'=mid-side.
// Width 1 returns an exact copy, width 0 collapses to mono and any finite
// width >= 0 is accepted. Mono buffers are returned unchanged.
func ApplyStereoWidth(buf Buffer, width float64) (Buffer, error) {
	return ApplyStereoWidthBassMono(buf, width, 0)
}

// ApplyStereoWidthBassMono is ApplyStereoWidth with an optional Butterworth
// crossover below which the signal is collapsed to mono and only the band
// above is widened. bassMonoHz 0 disables it.
func ApplyStereoWidthBassMono(buf Buffer, width, bassMonoHz float64) (Buffer, error) {
	if !(width >= MinStereoWidth) || math.IsInf(width, 0) {
		return Buffer{}, fmt.Errorf("stereo width must be >= %g and finite: %g", MinStereoWidth, width)
	}
	out := buf.Clone()
	if !buf.IsStereo() || buf.Len() == 0 {
		return out, nil
	}
	if width == 1 && bassMonoHz == 0 {
		return out, nil
	}
	left, right := out.Channels[0], out.Channels[1]

	if bassMonoHz == 0 {
		for i := range left {
			mid := (left[i] + right[i]) * 0.5
			side := (left[i] - right[i]) * 0.5 * width
			left[i], right[i] = mid+side, mid-side
		}
		return out, nil
	}

	if !inBand(bassMonoHz, float64(buf.SampleRate)) {
		return Buffer{}, fmt.Errorf("bass mono crossover must be below Nyquist: %g", bassMonoHz)
	}
	sr := float64(buf.SampleRate)
	lp := design.ButterworthLP(bassMonoHz, bassMonoOrder, sr)
	hp := design.ButterworthHP(bassMonoHz, bassMonoOrder, sr)
	if len(lp) == 0 || len(hp) == 0 {
		return Buffer{}, fmt.Errorf("bass mono crossover design failed at %g Hz", bassMonoHz)
	}
	lpL, lpR := biquad.NewChain(lp), biquad.NewChain(lp)
	hpL, hpR := biquad.NewChain(hp), biquad.NewChain(hp)
	for i := range left {
		bass := (lpL.ProcessSample(left[i]) + lpR.ProcessSample(right[i])) * 0.5
		hl, hr := hpL.ProcessSample(left[i]), hpR.ProcessSample(right[i])
		mid := (hl + hr) * 0.5
		side := (hl - hr) * 0.5 * width
		left[i], right[i] = bass+mid+side, bass+mid-side
	}
	return out, nil
}
