package dsp

import (
	"math"

	"github.com/cwbudde/algo-dsp/dsp/conv"
	"github.com/cwbudde/algo-dsp/dsp/window"
	vecmath "github.com/cwbudde/algo-vecmath"
	"github.com/tphakala/simd/f64"
)

// HannSmooth convolves x with a unit-sum Hann kernel of the given length and
// returns a centred result of len(x) samples.
func HannSmooth(x []float64, length int) ([]float64, error) {
	if len(x) == 0 || length <= 1 {
		return append([]float64(nil), x...), nil
	}
	kernel, err := window.Hann(length)
	if err != nil {
		return nil, err
	}
	sum := f64.Sum(kernel)
	if sum < MinEnergy {
		return append([]float64(nil), x...), nil
	}
	f64.Scale(kernel, kernel, 1/sum)
	return conv.ConvolveMode(x, kernel, conv.ModeSame)
}

// FadeOut applies a raised-cosine fade over the last fadeSamples of x.
func FadeOut(x []float64, fadeSamples int) {
	if fadeSamples <= 0 || len(x) == 0 {
		return
	}
	if fadeSamples > len(x) {
		fadeSamples = len(x)
	}
	gain := make([]float64, fadeSamples)
	for i := range gain {
		t := float64(i) / float64(fadeSamples)
		gain[i] = 0.5 * (1.0 + math.Cos(t*math.Pi))
	}
	vecmath.MulBlockInPlace(x[len(x)-fadeSamples:], gain)
}

// Truncate silences x from index end onwards with a short fade so the cut
// does not click. The slice length is unchanged.
func Truncate(x []float64, end, fadeSamples int) {
	if end < 0 {
		end = 0
	}
	if end >= len(x) {
		return
	}
	if fadeSamples > end {
		fadeSamples = end
	}
	FadeOut(x[:end], fadeSamples)
	for i := end; i < len(x); i++ {
		x[i] = 0
	}
}
