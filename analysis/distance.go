// Package analysis measures impulse responses and scores how close two of
// them sound.
package analysis

import (
	"math"
	"math/cmplx"

	"github.com/cwbudde/algo-dsp/dsp/conv"
	dsptime "github.com/cwbudde/algo-dsp/stats/time"
	algofft "github.com/cwbudde/algo-fft"
	"github.com/tphakala/simd/f64"
	"gonum.org/v1/gonum/dsp/window"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/cwbudde/algo-reverb/irsynth"
)

const (
	silenceThreshold = 1e-6
	compareRMS       = 0.1
	minAlignedFrames = 256
	maxCompareSecs   = 12

	envFrame = 256
	envHop   = 128

	// Sub-metric values at which each term saturates in the score.
	timeRMSEFull   = 0.25
	envelopeDBFull = 30.0
	spectralDBFull = 30.0
	decayDiffFull  = 40.0
)

// Distance contains distance and similarity measurements between two signals.
type Distance struct {
	SampleRate int `json:"sample_rate"`

	ReferenceFrames int `json:"reference_frames"`
	CandidateFrames int `json:"candidate_frames"`
	AlignedFrames   int `json:"aligned_frames"`
	LagSamples      int `json:"lag_samples"`

	TimeRMSE        float64 `json:"time_rmse"`
	EnvelopeRMSEDB  float64 `json:"envelope_rmse_db"`
	SpectralRMSEDB  float64 `json:"spectral_rmse_db"`
	RefDecayDBPerS  float64 `json:"ref_decay_db_per_s"`
	CandDecayDBPerS float64 `json:"cand_decay_db_per_s"`
	DecayDiffDBPerS float64 `json:"decay_diff_db_per_s"`

	Score      float64 `json:"score"`
	Similarity float64 `json:"similarity"`
}

func (d *Distance) worst() Distance {
	d.Score = 1
	d.Similarity = 0
	return *d
}

// CompareIR compares two IRs on their mid (L+R)/2 signal. The IRs must share
// a sample rate; otherwise the worst score is returned.
func CompareIR(reference, candidate *irsynth.ImpulseResponse) Distance {
	if reference.SampleRate() != candidate.SampleRate() {
		return Distance{SampleRate: reference.SampleRate(), Score: 1}
	}
	return Compare(mid(reference), mid(candidate), reference.SampleRate())
}

func mid(ir *irsynth.ImpulseResponse) []float64 {
	return ir.Buffer().Downmix().Channels[0]
}

// Compare returns objective distance metrics and a combined score in [0,1]
// where 0 means identical. Both signals are trimmed of leading silence,
// brought to the same RMS and aligned by cross-correlation first, so gain
// and onset offsets do not count.
func Compare(reference []float64, candidate []float64, sampleRate int) Distance {
	d := Distance{
		SampleRate:      sampleRate,
		ReferenceFrames: len(reference),
		CandidateFrames: len(candidate),
	}
	if sampleRate <= 0 {
		return d.worst()
	}
	ref := prepare(reference)
	cand := prepare(candidate)
	if ref == nil || cand == nil {
		return d.worst()
	}

	maxLag := sampleRate / 2
	maxLag = fitLag(maxLag, len(ref), len(cand))
	d.LagSamples = estimateLag(ref, cand, maxLag)

	ref, cand = alignByLag(ref, cand, d.LagSamples)
	n := min(len(ref), len(cand), sampleRate*maxCompareSecs)
	if n < minAlignedFrames {
		return d.worst()
	}
	ref, cand = ref[:n], cand[:n]
	d.AlignedFrames = n

	d.TimeRMSE = floats.Distance(ref, cand, 2) / math.Sqrt(float64(n))

	refEnv := rmsEnvelope(ref, envFrame, envHop)
	candEnv := rmsEnvelope(cand, envFrame, envHop)
	d.EnvelopeRMSEDB = envelopeRMSEDB(refEnv, candEnv)
	d.SpectralRMSEDB = spectralRMSEDB(ref, cand)

	hopSec := float64(envHop) / float64(sampleRate)
	refSlope := decaySlopeDBPerS(refEnv, hopSec)
	candSlope := decaySlopeDBPerS(candEnv, hopSec)
	if isFinite(refSlope) && isFinite(candSlope) {
		d.DecayDiffDBPerS = math.Abs(refSlope - candSlope)
	}
	d.RefDecayDBPerS = finiteOrZero(refSlope)
	d.CandDecayDBPerS = finiteOrZero(candSlope)

	d.Score = clamp01(0.30*clamp01(d.TimeRMSE/timeRMSEFull) +
		0.25*clamp01(d.EnvelopeRMSEDB/envelopeDBFull) +
		0.30*clamp01(d.SpectralRMSEDB/spectralDBFull) +
		0.15*clamp01(d.DecayDiffDBPerS/decayDiffFull))
	d.Similarity = clamp01(math.Exp(-4.0 * d.Score))
	return d
}

// prepare trims leading silence and scales to the comparison RMS. It returns
// nil for silent input.
func prepare(x []float64) []float64 {
	start := -1
	for i, v := range x {
		if math.Abs(v) > silenceThreshold {
			start = i
			break
		}
	}
	if start < 0 {
		return nil
	}
	out := append([]float64(nil), x[start:]...)
	if r := dsptime.RMS(out); r > 1e-12 {
		f64.Scale(out, out, compareRMS/r)
	}
	return out
}

func fitLag(maxLag, refLen, candLen int) int {
	maxLag = min(maxLag, refLen-1, candLen-1)
	return max(maxLag, 1)
}

// estimateLag returns the lag in [-maxLag, maxLag] maximizing the
// cross-correlation sum ref[i+lag]*cand[i].
func estimateLag(ref []float64, cand []float64, maxLag int) int {
	if len(ref) == 0 || len(cand) == 0 {
		return 0
	}
	corr, err := conv.CorrelateFFT(ref, cand)
	if err != nil {
		return estimateLagExhaustive(ref, cand, maxLag)
	}
	bestLag := 0
	best := math.Inf(-1)
	for lag := -maxLag; lag <= maxLag; lag++ {
		idx := conv.IndexFromLag(lag, len(cand))
		if idx < 0 || idx >= len(corr) {
			continue
		}
		if corr[idx] > best {
			best = corr[idx]
			bestLag = lag
		}
	}
	return bestLag
}

func estimateLagExhaustive(ref []float64, cand []float64, maxLag int) int {
	bestLag := 0
	best := math.Inf(-1)
	for lag := -maxLag; lag <= maxLag; lag++ {
		a, b := alignByLag(ref, cand, lag)
		n := min(len(a), len(b))
		if n == 0 {
			continue
		}
		if s := floats.Dot(a[:n], b[:n]); s > best {
			best = s
			bestLag = lag
		}
	}
	return bestLag
}

// alignByLag drops the first lag samples of ref (positive lag) or of cand
// (negative lag).
func alignByLag(ref []float64, cand []float64, lag int) ([]float64, []float64) {
	if lag >= 0 {
		if lag >= len(ref) {
			return nil, nil
		}
		return ref[lag:], cand
	}
	if -lag >= len(cand) {
		return nil, nil
	}
	return ref, cand[-lag:]
}

func rmsEnvelope(x []float64, frame int, hop int) []float64 {
	if frame <= 0 || hop <= 0 || len(x) < frame {
		return nil
	}
	out := make([]float64, 1+(len(x)-frame)/hop)
	for i := range out {
		start := i * hop
		out[i] = dsptime.RMS(x[start : start+frame])
	}
	return out
}

func envelopeRMSEDB(a, b []float64) float64 {
	n := min(len(a), len(b))
	if n == 0 {
		return 0
	}
	diff := make([]float64, n)
	for i := range diff {
		diff[i] = linToDB(a[i]) - linToDB(b[i])
	}
	return dsptime.RMS(diff)
}

// spectralRMSEDB compares Hann-windowed magnitude spectra of the first
// 4096 samples (or fewer, rounded down to a power of two).
func spectralRMSEDB(a []float64, b []float64) float64 {
	n := min(len(a), len(b))
	if n < 512 {
		return 0
	}
	size := 512
	for size*2 <= n && size < 4096 {
		size *= 2
	}
	plan, err := algofft.NewPlanReal64(size)
	if err != nil {
		return 0
	}
	aw := window.Hann(append([]float64(nil), a[:size]...))
	bw := window.Hann(append([]float64(nil), b[:size]...))
	specA := make([]complex128, size/2+1)
	specB := make([]complex128, size/2+1)
	if plan.Forward(specA, aw) != nil || plan.Forward(specB, bw) != nil {
		return 0
	}

	diff := make([]float64, size/2-1)
	for k := range diff {
		diff[k] = linToDB(cmplx.Abs(specA[k+1])) - linToDB(cmplx.Abs(specB[k+1]))
	}
	return dsptime.RMS(diff)
}

func linToDB(x float64) float64 {
	if x < 1e-12 {
		x = 1e-12
	}
	return 20.0 * math.Log10(x)
}

// decaySlopeDBPerS fits a line to the envelope in dB from just after its
// peak down to 60 dB below it. NaN means the envelope is too short to fit.
func decaySlopeDBPerS(env []float64, hopSec float64) float64 {
	if len(env) < 8 || hopSec <= 0 {
		return math.NaN()
	}
	db := make([]float64, len(env))
	for i, v := range env {
		db[i] = linToDB(v)
	}
	peakIdx := floats.MaxIdx(db)
	start := peakIdx + 1
	if start >= len(db)-4 {
		return math.NaN()
	}
	end := len(db)
	for i := start; i < len(db); i++ {
		if db[i] < db[peakIdx]-60.0 {
			end = i
			break
		}
	}
	if end-start < 6 {
		return math.NaN()
	}

	t := make([]float64, end-start)
	for i := range t {
		t[i] = float64(i) * hopSec
	}
	_, slope := stat.LinearRegression(t, db[start:end], nil, false)
	return slope
}

func clamp01(x float64) float64 {
	return math.Max(0, math.Min(1, x))
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
