package irsynth

import (
	"math"

	"github.com/cwbudde/algo-dsp/dsp/interp"
)

const (
	modulationMaxDepthSeconds = 0.002
	modulationRateHz          = 0.5
)

// modulate applies a slow sinusoidal fractional delay to x in place. The
// delay swings between 0 and depth*2ms at 0.5 Hz; samples are read with
// 4-point Hermite interpolation.
func modulate(x []float64, depth float64, sampleRate int) {
	if depth <= 0 || len(x) == 0 {
		return
	}
	sr := float64(sampleRate)
	maxDelay := depth * modulationMaxDepthSeconds * sr
	src := append([]float64(nil), x...)
	at := func(i int) float64 {
		if i < 0 || i >= len(src) {
			return 0
		}
		return src[i]
	}
	w := 2 * math.Pi * modulationRateHz / sr
	for n := range x {
		d := maxDelay * (0.5 + 0.5*math.Sin(w*float64(n)))
		pos := float64(n) - d
		i := int(math.Floor(pos))
		t := pos - float64(i)
		x[n] = interp.Hermite4(t, at(i-1), at(i), at(i+1), at(i+2))
	}
}
