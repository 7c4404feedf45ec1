package irsynth

import (
	"math"
	"math/rand"

	"github.com/cwbudde/algo-reverb/dsp"
)

const (
	earlyMaxDelayMsPerSize = 80.0
	earlyMinDelayMs        = 5.0
	earlyDecayRatio        = 0.7
	earlyTailSamples       = 1000
	earlyMinSamples        = 2000
)

// EarlySynth builds the direct sound plus discrete first reflections.
// Every call reseeds from the same seed, so identical parameters give
// bit-identical output.
type EarlySynth struct {
	sampleRate int
	seed       int64
}

func NewEarlySynth(sampleRate int, seed int64) *EarlySynth {
	return &EarlySynth{sampleRate: sampleRate, seed: seed}
}

// Generate returns a stereo buffer with a unit impulse at sample 0 followed
// by numReflections echoes. The first half of the echoes land in
// [5ms, maxDelay/2], the rest in [maxDelay/2, maxDelay] with
// maxDelay = 80ms*size. Echo i has amplitude 0.7^(i+1) scaled per channel by
// a random factor in [0.8, 1.0].
func (s *EarlySynth) Generate(size float64, numReflections int) dsp.Buffer {
	sr := float64(s.sampleRate)
	maxDelayMs := earlyMaxDelayMsPerSize * size
	maxDelaySamples := int(maxDelayMs * sr / 1000.0)
	n := maxDelaySamples + earlyTailSamples
	if n < earlyMinSamples {
		n = earlyMinSamples
	}
	out := dsp.NewBuffer(s.sampleRate, 2, n)
	left, right := out.Channels[0], out.Channels[1]

	left[0] = 1
	right[0] = 1

	rng := rand.New(rand.NewSource(s.seed))
	half := numReflections / 2
	mid := 0.5 * maxDelayMs
	for i := 0; i < numReflections; i++ {
		var delayMs float64
		if i < half {
			delayMs = uniform(rng, earlyMinDelayMs, mid)
		} else {
			delayMs = uniform(rng, mid, maxDelayMs)
		}
		amp := math.Pow(earlyDecayRatio, float64(i+1))
		scaleL := uniform(rng, 0.8, 1.0)
		scaleR := uniform(rng, 0.8, 1.0)

		idx := int(delayMs * sr / 1000.0)
		if idx < 0 || idx >= n {
			continue
		}
		left[idx] += amp * scaleL
		right[idx] += amp * scaleR
	}
	return out
}

// uniform draws from [lo, hi); reversed bounds are accepted.
func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + (hi-lo)*rng.Float64()
}
