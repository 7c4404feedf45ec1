package irsynth

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/cwbudde/algo-reverb/dsp"
)

// MinSampleRate is the lowest rate the generator accepts.
const MinSampleRate = 8000

const (
	targetRMS  = 0.1
	targetPeak = 0.3

	plateNoiseLevel = 0.2
	plateHighpassHz = 2000.0

	springBounces       = 8
	springBounceDecay   = 0.6
	springBaseSpacingMs = 25.0
	springSizeSpacingMs = 35.0
	springPingBaseHz    = 1800.0
	springPingSizeHz    = 400.0
	springPingSeconds   = 0.010
	springPingTau       = 0.002
	springStereoSkewMs  = 0.3

	lofiLengthRatio = 0.5
	lofiFadeSeconds = 0.005
	lofiDrive       = 2.0

	dcBlockPole = 0.995
)

// Seeds holds the random seeds of the three stochastic stages.
type Seeds struct {
	Early int64
	Late  int64
	Noise int64
}

// DefaultSeeds returns the seeds used by the built-in presets.
func DefaultSeeds() Seeds {
	return Seeds{Early: 42, Late: 1337, Noise: 7}
}

// Generator synthesizes impulse responses at a fixed sample rate. It holds no
// mutable state, so one Generator may serve many goroutines.
type Generator struct {
	sampleRate int
	seeds      Seeds
}

func NewGenerator(sampleRate int, seeds Seeds) (*Generator, error) {
	if sampleRate < MinSampleRate {
		return nil, fmt.Errorf("sample rate too low: %d", sampleRate)
	}
	return &Generator{sampleRate: sampleRate, seeds: seeds}, nil
}

func (g *Generator) SampleRate() int { return g.sampleRate }

func (g *Generator) Seeds() Seeds { return g.seeds }

// Generate synthesizes a stereo IR for cfg.
//
// Early reflections and the late tail are mixed with per-type weights, the
// type-specific extras are added, and the result is damped, optionally
// modulated, DC-blocked, delayed by cfg.PreDelayMs and normalized to an RMS
// of 0.1 with peaks at or below 0.3.
func (g *Generator) Generate(cfg Config) (*ImpulseResponse, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	fl := flavors[cfg.Type]

	early := NewEarlySynth(g.sampleRate, g.seeds.Early).Generate(cfg.Size, fl.reflections)
	late, err := NewLateSynth(g.sampleRate, g.seeds.Late).Generate(cfg.DecaySeconds, cfg.Damping, cfg.Diffusion)
	if err != nil {
		return nil, fmt.Errorf("late reverb: %w", err)
	}

	n := late.Len()
	if early.Len() > n {
		n = early.Len()
	}
	if minLen := int(math.Ceil(cfg.DecaySeconds * float64(g.sampleRate))); n < minLen {
		n = minLen
	}
	early = early.Fit(n)
	late = late.Fit(n)

	out := dsp.NewBuffer(g.sampleRate, 2, n)
	for c := range out.Channels {
		dst := out.Channels[c]
		e, l := early.Channels[c], late.Channels[c]
		for i := range dst {
			dst[i] = fl.early*e[i] + fl.late*l[i]
		}
	}

	switch cfg.Type {
	case TypePlate:
		g.addPlateNoise(out, cfg.DecaySeconds)
	case TypeSpring:
		g.addSpringBounces(out, cfg.Size)
	case TypeLofi:
		end := int(cfg.DecaySeconds * lofiLengthRatio * float64(g.sampleRate))
		fade := int(lofiFadeSeconds * float64(g.sampleRate))
		for _, ch := range out.Channels {
			dsp.Truncate(ch, end, fade)
			dsp.SoftClip(ch, lofiDrive)
		}
	}

	for _, ch := range out.Channels {
		NewDampingFilter(cfg.Damping, g.sampleRate, n).Process(ch)
	}
	modulate(out.Channels[1], cfg.Modulation, g.sampleRate)

	for _, ch := range out.Channels {
		highpassDC(ch, dcBlockPole)
	}

	out = out.PadFront(dsp.MsToSamples(cfg.PreDelayMs, g.sampleRate))
	normalize(out)

	if !out.IsFinite() {
		return nil, fmt.Errorf("irsynth: %s produced %w", cfg.Type, dsp.ErrNonFiniteSamples)
	}
	return newGenerated(out, cfg), nil
}

// addPlateNoise adds a bright, dense noise bed with the same RT60 envelope as
// the late tail.
func (g *Generator) addPlateNoise(out dsp.Buffer, decaySeconds float64) {
	rng := rand.New(rand.NewSource(g.seeds.Noise))
	sr := float64(g.sampleRate)
	for _, ch := range out.Channels {
		noise := make([]float64, len(ch))
		for i := range noise {
			t := float64(i) / sr
			noise[i] = plateNoiseLevel * rng.NormFloat64() * math.Exp(-t*rt60Ln1000/decaySeconds)
		}
		dsp.NewHighpass(plateHighpassHz, sr).ProcessBlock(noise)
		for i, v := range noise {
			ch[i] += v
		}
	}
}

// addSpringBounces adds decaying resonant pings, the first of which doubles
// as the direct sound. Larger springs space the bounces further apart and
// ring slightly higher. The right channel lags a little more on every bounce.
func (g *Generator) addSpringBounces(out dsp.Buffer, size float64) {
	sr := float64(g.sampleRate)
	spacing := (springBaseSpacingMs + springSizeSpacingMs*size) * sr / 1000.0
	freq := springPingBaseHz + springPingSizeHz*size
	pingLen := int(springPingSeconds * sr)
	decay := math.Exp(-1.0 / (springPingTau * sr))
	skew := springStereoSkewMs * sr / 1000.0

	amp := 1.0
	for k := 0; k < springBounces; k++ {
		base := int(float64(k) * spacing)
		for c, ch := range out.Channels {
			start := base
			if c == 1 {
				start += int(float64(k) * skew)
			}
			if start >= len(ch) {
				continue
			}
			end := start + pingLen
			if end > len(ch) {
				end = len(ch)
			}
			addModeRec(ch[start:end], amp, freq, 0, decay, g.sampleRate)
		}
		amp *= springBounceDecay
	}
}

// normalize scales buf to the target RMS, then pulls the peak down to the
// target peak if needed. Generated IRs (direct impulse, sparse echoes,
// decaying bounces) have a crest factor above targetPeak/targetRMS, so the
// peak stage always sets the final gain: peak ends at targetPeak and RMS
// well below targetRMS.
func normalize(buf dsp.Buffer) {
	rms := buf.RMS()
	if rms < dsp.MinEnergy {
		return
	}
	buf.Scale(targetRMS / rms)
	if peak := buf.Peak(); peak > targetPeak {
		buf.Scale(targetPeak / peak * (1 - 1e-12))
	}
}

// addModeRec adds an exponentially decaying cosine using the two-term
// recurrence x[n] = 2cos(w)x[n-1] - x[n-2].
func addModeRec(out []float64, amp float64, freq float64, phase float64, decay float64, sampleRate int) {
	if len(out) == 0 {
		return
	}
	w := 2.0 * math.Pi * freq / float64(sampleRate)
	cw := math.Cos(w)
	x0 := math.Cos(phase)
	x1 := math.Cos(phase + w)
	env := 1.0

	out[0] += amp * env * x0
	env *= decay
	if len(out) == 1 {
		return
	}
	out[1] += amp * env * x1
	env *= decay
	for i := 2; i < len(out); i++ {
		x2 := 2.0*cw*x1 - x0
		x0 = x1
		x1 = x2
		out[i] += amp * env * x2
		env *= decay
	}
}

func highpassDC(x []float64, r float64) {
	if len(x) == 0 {
		return
	}
	prevIn := 0.0
	prevOut := 0.0
	for i := range x {
		y := x[i] - prevIn + r*prevOut
		prevIn = x[i]
		prevOut = y
		x[i] = y
	}
}
