package dsp

import (
	"math"
	"math/rand"
	"testing"
)

func noiseStereo(sr, n int, seed int64) Buffer {
	rng := rand.New(rand.NewSource(seed))
	b := NewBuffer(sr, 2, n)
	for i := 0; i < n; i++ {
		b.Channels[0][i] = rng.NormFloat64() * 0.3
		b.Channels[1][i] = rng.NormFloat64() * 0.3
	}
	return b
}

func sine(sr, n int, freq, amp float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = amp * math.Sin(2*math.Pi*freq*float64(i)/float64(sr))
	}
	return out
}

func rms(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	var s float64
	for _, v := range x {
		s += v * v
	}
	return math.Sqrt(s / float64(len(x)))
}

func TestStereoWidthUnityIsIdentity(t *testing.T) {
	in := noiseStereo(44100, 2048, 1)
	out, err := ApplyStereoWidth(in, 1.0)
	if err != nil {
		t.Fatalf("ApplyStereoWidth: %v", err)
	}
	for c := range in.Channels {
		for i := range in.Channels[c] {
			if out.Channels[c][i] != in.Channels[c][i] {
				t.Fatalf("width=1 changed sample ch=%d i=%d: %g != %g", c, i, out.Channels[c][i], in.Channels[c][i])
			}
		}
	}
}

func TestStereoWidthZeroCollapsesToMono(t *testing.T) {
	in := noiseStereo(44100, 2048, 2)
	out, err := ApplyStereoWidth(in, 0.0)
	if err != nil {
		t.Fatalf("ApplyStereoWidth: %v", err)
	}
	for i := 0; i < out.Len(); i++ {
		if out.Channels[0][i] != out.Channels[1][i] {
			t.Fatalf("expected L == R at %d: %g vs %g", i, out.Channels[0][i], out.Channels[1][i])
		}
		mid := 0.5 * (in.Channels[0][i] + in.Channels[1][i])
		if math.Abs(out.Channels[0][i]-mid) > 1e-12 {
			t.Fatalf("expected mid at %d: got %g want %g", i, out.Channels[0][i], mid)
		}
	}
}

func TestStereoWidthDoesNotMutateInput(t *testing.T) {
	in := noiseStereo(44100, 256, 3)
	ref := in.Clone()
	if _, err := ApplyStereoWidth(in, 2.0); err != nil {
		t.Fatalf("ApplyStereoWidth: %v", err)
	}
	for c := range in.Channels {
		for i := range in.Channels[c] {
			if in.Channels[c][i] != ref.Channels[c][i] {
				t.Fatalf("input mutated at ch=%d i=%d", c, i)
			}
		}
	}
}

func sideOf(b Buffer) []float64 {
	s := make([]float64, b.Len())
	for i := range s {
		s[i] = 0.5 * (b.Channels[0][i] - b.Channels[1][i])
	}
	return s
}

func TestStereoWidthWidensSide(t *testing.T) {
	in := noiseStereo(44100, 4096, 4)
	for _, width := range []float64{2, 4, 5, 17.5} {
		out, err := ApplyStereoWidth(in, width)
		if err != nil {
			t.Fatalf("width %g: ApplyStereoWidth: %v", width, err)
		}
		want := sideOf(in)
		got := sideOf(out)
		for i := range want {
			if math.Abs(got[i]-width*want[i]) > 1e-9 {
				t.Fatalf("width %g: side[%d] = %g, want %g", width, i, got[i], width*want[i])
			}
			mid := 0.5 * (out.Channels[0][i] + out.Channels[1][i])
			if math.Abs(mid-0.5*(in.Channels[0][i]+in.Channels[1][i])) > 1e-9 {
				t.Fatalf("width %g: mid changed at %d", width, i)
			}
		}
	}
}

func TestStereoWidthBassMonoCollapsesLowSide(t *testing.T) {
	const sr = 44100
	const n = 8192
	sideTone := func(freq float64) Buffer {
		l := make([]float64, n)
		r := make([]float64, n)
		for i := range l {
			v := 0.5 * math.Sin(2*math.Pi*freq*float64(i)/sr)
			l[i], r[i] = v, -v
		}
		return NewStereo(sr, l, r)
	}
	tail := func(x []float64) []float64 { return x[n/2:] }

	low, err := ApplyStereoWidthBassMono(sideTone(40), 1, 200)
	if err != nil {
		t.Fatalf("ApplyStereoWidthBassMono: %v", err)
	}
	if r := rms(tail(sideOf(low))) / rms(tail(sideOf(sideTone(40)))); r > 0.1 {
		t.Fatalf("40 Hz side should collapse below a 200 Hz crossover, ratio %g", r)
	}

	high, err := ApplyStereoWidthBassMono(sideTone(5000), 2, 200)
	if err != nil {
		t.Fatalf("ApplyStereoWidthBassMono: %v", err)
	}
	if r := rms(tail(sideOf(high))) / rms(tail(sideOf(sideTone(5000)))); r < 1.9 || r > 2.1 {
		t.Fatalf("5 kHz side should be widened x2, ratio %g", r)
	}

	if _, err := ApplyStereoWidthBassMono(sideTone(40), 1, sr); err == nil {
		t.Fatal("expected error for crossover at Nyquist")
	}
}

func TestStereoWidthRejectsInvalid(t *testing.T) {
	in := noiseStereo(44100, 16, 5)
	for _, width := range []float64{-0.1, math.NaN(), math.Inf(1)} {
		if _, err := ApplyStereoWidth(in, width); err == nil {
			t.Fatalf("expected error for width %g", width)
		}
	}
}

func TestStereoWidthMonoPassThrough(t *testing.T) {
	in := NewMono(44100, []float64{0.1, -0.2, 0.3})
	out, err := ApplyStereoWidth(in, 0)
	if err != nil {
		t.Fatalf("ApplyStereoWidth: %v", err)
	}
	if out.NumChannels() != 1 || out.Channels[0][2] != 0.3 {
		t.Fatalf("mono buffer altered: %+v", out.Channels)
	}
}

func TestApplyEQAttenuatesOutsideBand(t *testing.T) {
	const sr = 44100
	const n = sr / 2
	low := NewMono(sr, sine(sr, n, 40, 0.5))
	high := NewMono(sr, sine(sr, n, 16000, 0.5))
	mid := NewMono(sr, sine(sr, n, 1000, 0.5))

	lowOut := ApplyEQ(low, 200, 8000)
	highOut := ApplyEQ(high, 200, 8000)
	midOut := ApplyEQ(mid, 200, 8000)

	tail := func(b Buffer) []float64 { return b.Channels[0][n/2:] }
	if r := rms(tail(lowOut)) / rms(tail(low)); r > 0.1 {
		t.Fatalf("40 Hz not attenuated by 200 Hz highpass: ratio=%g", r)
	}
	if r := rms(tail(highOut)) / rms(tail(high)); r > 0.35 {
		t.Fatalf("16 kHz not attenuated by 8 kHz lowpass: ratio=%g", r)
	}
	if r := rms(tail(midOut)) / rms(tail(mid)); r < 0.9 || r > 1.1 {
		t.Fatalf("1 kHz should pass: ratio=%g", r)
	}
}

func TestApplyEQBypassesDisabledStages(t *testing.T) {
	in := noiseStereo(44100, 512, 6)
	out := ApplyEQ(in, 0, 30000)
	for c := range in.Channels {
		for i := range in.Channels[c] {
			if out.Channels[c][i] != in.Channels[c][i] {
				t.Fatalf("expected bypass at ch=%d i=%d", c, i)
			}
		}
	}
}

func TestMixEndpoints(t *testing.T) {
	dry := noiseStereo(44100, 128, 7)
	wet := noiseStereo(44100, 128, 8)

	allDry, err := Mix(dry, wet, 0)
	if err != nil {
		t.Fatalf("Mix: %v", err)
	}
	allWet, err := Mix(dry, wet, 1)
	if err != nil {
		t.Fatalf("Mix: %v", err)
	}
	for c := range dry.Channels {
		for i := range dry.Channels[c] {
			if allDry.Channels[c][i] != dry.Channels[c][i] {
				t.Fatalf("wet_dry=0 must equal dry at ch=%d i=%d", c, i)
			}
			if allWet.Channels[c][i] != wet.Channels[c][i] {
				t.Fatalf("wet_dry=1 must equal wet at ch=%d i=%d", c, i)
			}
		}
	}

	if _, err := Mix(dry, wet.Fit(64), 0.5); err == nil {
		t.Fatalf("expected layout mismatch error")
	}
}

func TestLimitScalesToCeiling(t *testing.T) {
	b := NewStereo(44100, []float64{0.5, -2.0}, []float64{1.0, 0.25})
	g := Limit(b, 0.99)
	if math.Abs(g-0.495) > 1e-12 {
		t.Fatalf("unexpected gain %g", g)
	}
	if p := b.Peak(); math.Abs(p-0.99) > 1e-12 {
		t.Fatalf("unexpected peak after limit %g", p)
	}

	quiet := NewMono(44100, []float64{0.1, -0.2})
	if g := Limit(quiet, 0.99); g != 1 {
		t.Fatalf("quiet buffer should be untouched, gain=%g", g)
	}
}

func TestShiftAndFit(t *testing.T) {
	b := NewMono(1000, []float64{1, 2, 3, 4})
	s := b.Shift(2)
	want := []float64{0, 0, 1, 2}
	for i, v := range want {
		if s.Channels[0][i] != v {
			t.Fatalf("Shift mismatch at %d: got %g want %g", i, s.Channels[0][i], v)
		}
	}
	if got := b.Shift(10).Channels[0]; got[0] != 0 || got[3] != 0 || len(got) != 4 {
		t.Fatalf("over-long shift should zero the buffer: %v", got)
	}
	if got := b.Fit(6).Channels[0]; len(got) != 6 || got[3] != 4 || got[5] != 0 {
		t.Fatalf("Fit pad mismatch: %v", got)
	}
	if got := b.Fit(2).Channels[0]; len(got) != 2 || got[1] != 2 {
		t.Fatalf("Fit trim mismatch: %v", got)
	}
	if got := b.PadFront(1).Channels[0]; len(got) != 5 || got[0] != 0 || got[4] != 4 {
		t.Fatalf("PadFront mismatch: %v", got)
	}
}

func TestHannSmoothPreservesLevelAndLength(t *testing.T) {
	x := make([]float64, 1000)
	for i := range x {
		x[i] = 1
	}
	y, err := HannSmooth(x, 64)
	if err != nil {
		t.Fatalf("HannSmooth: %v", err)
	}
	if len(y) != len(x) {
		t.Fatalf("length changed: %d", len(y))
	}
	if math.Abs(y[500]-1) > 1e-9 {
		t.Fatalf("unit-sum kernel should preserve DC, got %g", y[500])
	}
}

func TestTruncateKeepsLength(t *testing.T) {
	x := make([]float64, 100)
	for i := range x {
		x[i] = 1
	}
	Truncate(x, 50, 10)
	if len(x) != 100 {
		t.Fatalf("length changed")
	}
	if x[60] != 0 || x[99] != 0 {
		t.Fatalf("tail not silenced")
	}
	if x[10] != 1 {
		t.Fatalf("head altered: %g", x[10])
	}
	if x[49] >= 1 {
		t.Fatalf("expected fade before cut, got %g", x[49])
	}
}

func TestBufferValidate(t *testing.T) {
	if err := (Buffer{SampleRate: 44100}).Validate(); err == nil {
		t.Fatalf("expected error for no channels")
	}
	bad := Buffer{SampleRate: 44100, Channels: [][]float64{{1, 2}, {1}}}
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected error for mismatched channels")
	}
	if err := NewMono(0, []float64{1}).Validate(); err == nil {
		t.Fatalf("expected error for zero rate")
	}
	if err := NewBuffer(44100, 3, 4).Validate(); err == nil {
		t.Fatalf("expected error for three channels")
	}
}
