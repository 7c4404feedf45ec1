package irsynth

import (
	"math"
	"math/rand"
	"sort"

	"github.com/cwbudde/algo-reverb/dsp"
)

const (
	lateLengthFactor   = 1.2
	lateOnsetSeconds   = 0.080
	lateEchoesPerSec   = 1000.0
	rt60Ln1000         = 6.91 // ln(1000): amplitude -60 dB
	smoothingSeconds   = 0.005
	smoothingThreshold = 0.5
)

// LateSynth builds the diffuse tail as velvet noise: sparse echoes at random
// times with random polarity under an RT60-correct exponential envelope.
type LateSynth struct {
	sampleRate int
	seed       int64
}

func NewLateSynth(sampleRate int, seed int64) *LateSynth {
	return &LateSynth{sampleRate: sampleRate, seed: seed}
}

// Generate returns a stereo tail of decaySeconds*1.2 seconds starting after an
// 80 ms onset. The echo count is decaySeconds*1000*diffusion. When diffusion
// exceeds 0.5 each channel is smoothed with a 5 ms Hann kernel. damping is
// unused here; the generator's damping filter applies it.
func (s *LateSynth) Generate(decaySeconds, _, diffusion float64) (dsp.Buffer, error) {
	sr := float64(s.sampleRate)
	n := int(decaySeconds * sr * lateLengthFactor)
	if n < 1 {
		n = 1
	}
	out := dsp.NewBuffer(s.sampleRate, 2, n)
	left, right := out.Channels[0], out.Channels[1]

	rng := rand.New(rand.NewSource(s.seed))
	onset := int(lateOnsetSeconds * sr)
	numEchoes := int(decaySeconds * lateEchoesPerSec * diffusion)

	times := make([]float64, numEchoes)
	for i := range times {
		times[i] = decaySeconds * rng.Float64()
	}
	sort.Float64s(times)

	for _, t := range times {
		polL := polarity(rng)
		polR := polarity(rng)
		idx := onset + int(t*sr)
		if idx >= n {
			continue
		}
		amp := math.Exp(-t * rt60Ln1000 / decaySeconds)
		left[idx] += amp * polL
		right[idx] += amp * polR
	}

	if diffusion > smoothingThreshold {
		length := int(smoothingSeconds * sr)
		for c, ch := range out.Channels {
			smoothed, err := dsp.HannSmooth(ch, length)
			if err != nil {
				return dsp.Buffer{}, err
			}
			out.Channels[c] = smoothed
		}
	}
	return out, nil
}

func polarity(rng *rand.Rand) float64 {
	if rng.Intn(2) == 0 {
		return -1
	}
	return 1
}
