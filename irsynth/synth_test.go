package irsynth

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-dsp/measure/ir"
)

func newTestGenerator(t *testing.T, sampleRate int) *Generator {
	t.Helper()
	g, err := NewGenerator(sampleRate, DefaultSeeds())
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}
	return g
}

func TestGenerateRoomScenario(t *testing.T) {
	const sr = 44100
	g := newTestGenerator(t, sr)
	cfg := DefaultConfig()
	cfg.Type = TypeRoom
	cfg.DecaySeconds = 1.0

	resp, err := g.Generate(cfg)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if resp.NumChannels() != 2 {
		t.Fatalf("expected 2 channels, got %d", resp.NumChannels())
	}
	if resp.Len() < sr {
		t.Fatalf("IR too short: %d < %d", resp.Len(), sr)
	}
	if p := resp.Peak(); p > 0.30 {
		t.Fatalf("peak %.6f exceeds 0.30", p)
	}
	if resp.SampleRate() != sr {
		t.Fatalf("unexpected sample rate %d", resp.SampleRate())
	}
}

func TestGenerateNormalizationGrid(t *testing.T) {
	const sr = 16000
	g := newTestGenerator(t, sr)
	values := []float64{0, 0.5, 1}
	for _, typ := range Types() {
		for _, damping := range values {
			for _, size := range values {
				for _, diffusion := range values {
					cfg := Config{
						Type:         typ,
						DecaySeconds: 0.5,
						Damping:      damping,
						Size:         size,
						Diffusion:    diffusion,
					}
					resp, err := g.Generate(cfg)
					if err != nil {
						t.Fatalf("%+v: %v", cfg, err)
					}
					if resp.Len() < int(cfg.DecaySeconds*sr) {
						t.Fatalf("%+v: length %d below decay", cfg, resp.Len())
					}
					if p := resp.Peak(); p > 0.30 {
						t.Fatalf("%+v: peak %.6f > 0.30", cfg, p)
					}
					r := resp.RMS()
					if r > 0.105 || r <= 0 {
						t.Fatalf("%+v: rms %.6f outside (0, 0.105]", cfg, r)
					}
				}
			}
		}
	}
}

// Generated IRs are impulsive enough that the peak stage always sets the
// final gain and the RMS ends below target.
func TestGenerateNormalizationPeakStageSetsGain(t *testing.T) {
	const sr = 44100
	g := newTestGenerator(t, sr)
	for _, typ := range Types() {
		for _, decay := range []float64{0.05, 0.5, 2} {
			for _, v := range []float64{0, 1} {
				cfg := Config{Type: typ, DecaySeconds: decay, Damping: v, Size: v, Diffusion: v, Modulation: v}
				resp, err := g.Generate(cfg)
				if err != nil {
					t.Fatalf("%+v: %v", cfg, err)
				}
				if p := resp.Peak(); p > targetPeak || p < targetPeak*(1-1e-9) {
					t.Fatalf("%+v: peak %.12f, want peak-limited to %g", cfg, p, targetPeak)
				}
				if r := resp.RMS(); r <= 0 || r >= targetRMS {
					t.Fatalf("%+v: rms %.6f, want in (0, %g)", cfg, r, targetRMS)
				}
			}
		}
	}
}

func TestGenerateNoNonFiniteSweep(t *testing.T) {
	const sr = 8000
	g := newTestGenerator(t, sr)
	types := Types()
	steps := []float64{0, 0.25, 0.5, 0.75, 1.0}
	i := 0
	for _, decay := range []float64{0.1, 1.0, 5.0} {
		for _, damping := range steps {
			for _, diffusion := range steps {
				cfg := DefaultConfig()
				cfg.Type = types[i%len(types)]
				cfg.DecaySeconds = decay
				cfg.Damping = damping
				cfg.Diffusion = diffusion
				cfg.Modulation = damping
				i++

				resp, err := g.Generate(cfg)
				if err != nil {
					t.Fatalf("%+v: %v", cfg, err)
				}
				if !resp.Buffer().IsFinite() {
					t.Fatalf("%+v: non-finite output", cfg)
				}
			}
		}
	}
}

func TestGenerateDeterministic(t *testing.T) {
	g := newTestGenerator(t, 22050)
	cfg := DefaultConfig()
	cfg.Type = TypePlate
	cfg.Modulation = 0.5

	a, err := g.Generate(cfg)
	if err != nil {
		t.Fatalf("first Generate: %v", err)
	}
	b, err := g.Generate(cfg)
	if err != nil {
		t.Fatalf("second Generate: %v", err)
	}
	if a.Len() != b.Len() {
		t.Fatalf("length mismatch")
	}
	for c := 0; c < 2; c++ {
		x, y := a.Channel(c), b.Channel(c)
		for i := range x {
			if x[i] != y[i] {
				t.Fatalf("non-deterministic output at ch=%d i=%d", c, i)
			}
		}
	}
}

func TestGenerateSeedsChangeOutput(t *testing.T) {
	cfg := DefaultConfig()
	a, err := newTestGenerator(t, 22050).Generate(cfg)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	other, err := NewGenerator(22050, Seeds{Early: 1, Late: 2, Noise: 3})
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}
	b, err := other.Generate(cfg)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	x, y := a.Left(), b.Left()
	same := true
	for i := range x {
		if i < len(y) && x[i] != y[i] {
			same = false
			break
		}
	}
	if same {
		t.Fatal("different seeds produced identical output")
	}
}

func TestGenerateRejectsInvalidConfig(t *testing.T) {
	g := newTestGenerator(t, 22050)
	cases := []Config{
		{Type: "cave", DecaySeconds: 1},
		{Type: TypeRoom, DecaySeconds: 0},
		{Type: TypeRoom, DecaySeconds: 1, Damping: 1.5},
		{Type: TypeRoom, DecaySeconds: 1, Size: -0.1},
		{Type: TypeRoom, DecaySeconds: 1, Diffusion: math.NaN()},
		{Type: TypeRoom, DecaySeconds: 1, Modulation: 2},
		{Type: TypeRoom, DecaySeconds: 1, PreDelayMs: -5},
	}
	for _, cfg := range cases {
		_, err := g.Generate(cfg)
		if !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("%+v: expected ErrInvalidConfig, got %v", cfg, err)
		}
		var pe *ParamError
		if !errors.As(err, &pe) || pe.Field == "" {
			t.Fatalf("%+v: expected ParamError with field, got %v", cfg, err)
		}
	}
}

func TestNewGeneratorRejectsLowRate(t *testing.T) {
	if _, err := NewGenerator(4000, DefaultSeeds()); err == nil {
		t.Fatal("expected error for low sample rate")
	}
}

func TestParseType(t *testing.T) {
	typ, err := ParseType(" Hall ")
	if err != nil || typ != TypeHall {
		t.Fatalf("ParseType: %v %q", err, typ)
	}
	if _, err := ParseType("chamber"); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestGeneratePreDelayPadsFront(t *testing.T) {
	const sr = 22050
	g := newTestGenerator(t, sr)
	cfg := DefaultConfig()
	base, err := g.Generate(cfg)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	cfg.PreDelayMs = 50
	delayed, err := g.Generate(cfg)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	pad := int(math.Round(0.050 * sr))
	if delayed.Len() != base.Len()+pad {
		t.Fatalf("expected length %d, got %d", base.Len()+pad, delayed.Len())
	}
	left := delayed.Left()
	for i := 0; i < pad; i++ {
		if left[i] != 0 {
			t.Fatalf("expected silence before pre-delay, sample %d = %g", i, left[i])
		}
	}
	if left[pad] == 0 {
		t.Fatal("expected direct sound right after pre-delay")
	}
	if delayed.PreDelayMs() != 50 {
		t.Fatalf("PreDelayMs = %g", delayed.PreDelayMs())
	}
}

func TestGenerateLofiSilencesTail(t *testing.T) {
	const sr = 16000
	g := newTestGenerator(t, sr)
	cfg := DefaultConfig()
	cfg.Type = TypeLofi
	cfg.DecaySeconds = 2.0

	resp, err := g.Generate(cfg)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if resp.Len() < int(cfg.DecaySeconds*sr) {
		t.Fatalf("lofi IR shorter than decay: %d", resp.Len())
	}
	left := resp.Left()
	cut := int(0.6 * cfg.DecaySeconds * sr)
	var head, tail float64
	for i, v := range left {
		if i < cut {
			head += v * v
		} else {
			tail += v * v
		}
	}
	if tail > 1e-3*head {
		t.Fatalf("expected silent tail after truncation: head=%g tail=%g", head, tail)
	}
}

func TestGenerateSpringHasBounces(t *testing.T) {
	const sr = 22050
	g := newTestGenerator(t, sr)
	cfg := DefaultConfig()
	cfg.Type = TypeSpring
	cfg.Diffusion = 0
	cfg.Size = 0

	resp, err := g.Generate(cfg)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if resp.RMS() <= 0 {
		t.Fatal("spring without diffusion should still ring")
	}
	// bounce k starts at k*25ms for size 0
	left := resp.Left()
	srf := float64(sr)
	spacing := int(0.025 * srf)
	window := func(start int) float64 {
		e := 0.0
		for i := start; i < start+spacing/4 && i < len(left); i++ {
			e += left[i] * left[i]
		}
		return e
	}
	if window(spacing) <= window(spacing/2) {
		t.Fatalf("expected energy at the second bounce")
	}
}

func TestGenerateDecayMatchesRT60(t *testing.T) {
	const sr = 16000
	g := newTestGenerator(t, sr)
	for _, decay := range []float64{0.8, 2.0} {
		cfg := DefaultConfig()
		cfg.Type = TypeHall
		cfg.DecaySeconds = decay
		cfg.Damping = 0
		cfg.Diffusion = 1

		resp, err := g.Generate(cfg)
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		rt, err := ir.NewAnalyzer(sr).RT60(resp.Left())
		if err != nil {
			t.Fatalf("RT60: %v", err)
		}
		if rt < 0.6*decay || rt > 1.4*decay {
			t.Fatalf("decay %.2fs measured RT60 %.3fs", decay, rt)
		}
	}
}

func TestEarlySynthContract(t *testing.T) {
	const sr = 48000
	s := NewEarlySynth(sr, 42)
	out := s.Generate(1.0, 12)
	if out.Len() != int(80*sr/1000)+1000 {
		t.Fatalf("unexpected early length %d", out.Len())
	}
	if out.Channels[0][0] != 1 || out.Channels[1][0] != 1 {
		t.Fatal("expected unit direct impulse on both channels")
	}
	nonZero := 0
	for i := 1; i < out.Len(); i++ {
		v := out.Channels[0][i]
		if v == 0 {
			continue
		}
		nonZero++
		if i < int(0.005*sr) {
			t.Fatalf("reflection before 5ms at %d", i)
		}
		if v <= 0 || v > 0.7/(1-0.7) {
			t.Fatalf("reflection amplitude %g outside geometric bound", v)
		}
	}
	if nonZero == 0 || nonZero > 12 {
		t.Fatalf("unexpected reflection count %d", nonZero)
	}

	if got := NewEarlySynth(sr, 42).Generate(0, 4).Len(); got != 2000 {
		t.Fatalf("expected minimum length 2000, got %d", got)
	}

	again := NewEarlySynth(sr, 42).Generate(1.0, 12)
	for i := range out.Channels[1] {
		if out.Channels[1][i] != again.Channels[1][i] {
			t.Fatalf("early synth not reproducible at %d", i)
		}
	}
}

func TestLateSynthContract(t *testing.T) {
	const sr = 16000
	s := NewLateSynth(sr, 1337)
	out, err := s.Generate(1.0, 0.5, 0.4)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if out.Len() != int(1.0*sr*1.2) {
		t.Fatalf("unexpected late length %d", out.Len())
	}
	onset := int(0.080 * sr)
	for c := range out.Channels {
		for i := 0; i < onset; i++ {
			if out.Channels[c][i] != 0 {
				t.Fatalf("energy before onset at ch=%d i=%d", c, i)
			}
		}
	}
	// unsmoothed echoes follow the exp(-6.91 t/decay) envelope
	for i := onset; i < out.Len(); i++ {
		tSec := float64(i-onset) / sr
		limit := 2*math.Exp(-tSec*6.91/1.0) + 1e-12
		if math.Abs(out.Channels[0][i]) > limit {
			t.Fatalf("echo at %d exceeds envelope: %g > %g", i, out.Channels[0][i], limit)
		}
	}

	smooth, err := s.Generate(1.0, 0.5, 0.9)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !smooth.IsFinite() || smooth.Len() != out.Len() {
		t.Fatalf("smoothed tail malformed")
	}
	if smooth.RMS() <= 0 {
		t.Fatal("expected energy in smoothed tail")
	}

	for _, damping := range []float64{0, 1} {
		other, err := s.Generate(1.0, damping, 0.9)
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		for c := range smooth.Channels {
			for i, v := range smooth.Channels[c] {
				if other.Channels[c][i] != v {
					t.Fatalf("damping %g changed the tail at ch=%d i=%d", damping, c, i)
				}
			}
		}
	}

	empty, err := s.Generate(1.0, 0.5, 0)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if empty.Peak() != 0 {
		t.Fatal("zero diffusion should give no echoes")
	}
}

func TestDampingFilterCutoffSchedule(t *testing.T) {
	const sr = 48000
	const total = 48000
	f := NewDampingFilter(1.0, sr, total)

	first := f.CutoffForChunk(0)
	if first < 19000 || first > 20000 {
		t.Fatalf("first chunk cutoff %g, expected near 20 kHz", first)
	}
	chunks := (total + DampingChunkSize - 1) / DampingChunkSize
	last := f.CutoffForChunk(chunks - 1)
	if last < 4000 || last > 4500 {
		t.Fatalf("last chunk cutoff %g, expected near 4 kHz", last)
	}
	prev := first
	for k := 1; k < chunks; k++ {
		c := f.CutoffForChunk(k)
		if c > prev+1 {
			t.Fatalf("cutoff rose at chunk %d: %g > %g", k, c, prev)
		}
		prev = c
	}

	x := make([]float64, 2*DampingChunkSize)
	x[0] = 1
	f.Process(x)
	if f.Chunk() != 2 {
		t.Fatalf("expected to be at chunk 2, got %d", f.Chunk())
	}
	if f.Cutoff() != f.CutoffForChunk(1) {
		t.Fatalf("current cutoff %g != chunk 1 cutoff %g", f.Cutoff(), f.CutoffForChunk(1))
	}
}

func TestDampingFilterCapsBelowNyquist(t *testing.T) {
	f := NewDampingFilter(0, 22050, 4096)
	for k := 0; k < 8; k++ {
		if c := f.CutoffForChunk(k); c >= 0.5*22050 {
			t.Fatalf("cutoff %g not below Nyquist", c)
		}
	}
}

func TestModulateDepthZeroIsIdentity(t *testing.T) {
	x := []float64{0.1, 0.2, -0.3, 0.4}
	modulate(x, 0, 44100)
	if x[0] != 0.1 || x[3] != 0.4 {
		t.Fatalf("zero-depth modulation changed input: %v", x)
	}
}

func TestModulateDelaysSignal(t *testing.T) {
	const sr = 8000
	x := make([]float64, sr)
	for i := range x {
		x[i] = math.Sin(2 * math.Pi * 100 * float64(i) / sr)
	}
	ref := append([]float64(nil), x...)
	modulate(x, 1.0, sr)

	// full depth is 2 ms: 16 samples at 8 kHz
	n := 1000
	pos := float64(n) - 0.5*0.002*sr*(1+math.Sin(2*math.Pi*0.5*float64(n)/sr))
	want := math.Sin(2 * math.Pi * 100 * pos / sr)
	if math.Abs(x[n]-want) > 1e-3 {
		t.Fatalf("modulated sample %g, want %g", x[n], want)
	}
	if x[n] == ref[n] {
		t.Fatal("expected modulation to move the signal")
	}
}

func TestNewImpulseResponse(t *testing.T) {
	left := []float64{1, 0.5, 0.25}
	resp, err := NewImpulseResponse(48000, left, nil)
	if err != nil {
		t.Fatalf("NewImpulseResponse: %v", err)
	}
	left[0] = 9
	if resp.Left()[0] != 1 || resp.Right()[2] != 0.25 {
		t.Fatal("expected dual-mono copy of input")
	}
	ch := resp.Channel(0)
	ch[1] = 7
	if resp.Left()[1] != 0.5 {
		t.Fatal("Channel must return a copy")
	}
	if _, ok := resp.Config(); ok {
		t.Fatal("loaded IR should not report a synthesis config")
	}
	if resp.PreDelayMs() != 0 {
		t.Fatal("loaded IR should report no pre-delay")
	}

	if _, err := NewImpulseResponse(48000, []float64{1, 2}, []float64{1}); err == nil {
		t.Fatal("expected channel mismatch error")
	}
	if _, err := NewImpulseResponse(0, []float64{1}, nil); err == nil {
		t.Fatal("expected invalid rate error")
	}
	if _, err := NewImpulseResponse(48000, []float64{math.Inf(1)}, nil); err == nil {
		t.Fatal("expected non-finite error")
	}
}
