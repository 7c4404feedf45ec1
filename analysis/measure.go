package analysis

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	"github.com/cwbudde/algo-dsp/measure/ir"
	algofft "github.com/cwbudde/algo-fft"
	"gonum.org/v1/gonum/dsp/window"
	"gonum.org/v1/gonum/stat"

	"github.com/cwbudde/algo-reverb/irsynth"
)

const bandFFTSize = 4096

// ErrTooShort is returned when an IR is too short to measure.
var ErrTooShort = errors.New("analysis: impulse response too short")

// Band is the share of IR energy in one frequency band.
type Band struct {
	Name     string  `json:"name"`
	LoHz     float64 `json:"lo_hz"`
	HiHz     float64 `json:"hi_hz"`
	EnergyDB float64 `json:"energy_db"`
}

var bandEdges = []Band{
	{Name: "sub", LoHz: 20, HiHz: 100},
	{Name: "bass", LoHz: 100, HiHz: 300},
	{Name: "low-mid", LoHz: 300, HiHz: 1000},
	{Name: "mid", LoHz: 1000, HiHz: 3000},
	{Name: "hi-mid", LoHz: 3000, HiHz: 6000},
	{Name: "high", LoHz: 6000, HiHz: 12000},
	{Name: "air", LoHz: 12000, HiHz: 20000},
}

// IRMetrics summarizes an impulse response.
type IRMetrics struct {
	SampleRate   int     `json:"sample_rate"`
	Frames       int     `json:"frames"`
	DurationS    float64 `json:"duration_s"`
	Peak         float64 `json:"peak"`
	RMS          float64 `json:"rms"`
	PreDelayMs   float64 `json:"pre_delay_ms"`
	RT60         float64 `json:"rt60_s"`
	EDT          float64 `json:"edt_s"`
	C50          float64 `json:"c50_db"`
	C80          float64 `json:"c80_db"`
	D50          float64 `json:"d50"`
	CenterTimeS  float64 `json:"center_time_s"`
	Interchannel float64 `json:"interchannel_correlation"`
	Bands        []Band  `json:"bands"`
}

// Measure computes room-acoustic metrics of the mid signal, the
// interchannel correlation and per-band energy relative to the loudest band.
func Measure(resp *irsynth.ImpulseResponse) (IRMetrics, error) {
	sr := resp.SampleRate()
	m := IRMetrics{
		SampleRate: sr,
		Frames:     resp.Len(),
		DurationS:  float64(resp.Len()) / float64(sr),
		Peak:       resp.Peak(),
		RMS:        resp.RMS(),
	}
	if resp.Len() < sr/100 {
		return m, fmt.Errorf("%w: %d frames", ErrTooShort, resp.Len())
	}

	x := mid(resp)
	a := ir.NewAnalyzer(float64(sr))
	start, err := a.FindImpulseStart(x)
	if err != nil {
		return m, fmt.Errorf("analysis: impulse start: %w", err)
	}
	m.PreDelayMs = float64(start) * 1000 / float64(sr)

	am, err := a.Analyze(x)
	if err != nil {
		return m, fmt.Errorf("analysis: %w", err)
	}
	m.RT60 = finiteOrZero(am.RT60)
	m.EDT = finiteOrZero(am.EDT)
	m.C50 = finiteOrZero(am.C50)
	m.C80 = finiteOrZero(am.C80)
	m.D50 = finiteOrZero(am.D50)
	m.CenterTimeS = finiteOrZero(am.CenterTime)

	if c := stat.Correlation(resp.Left(), resp.Right(), nil); isFinite(c) {
		m.Interchannel = c
	} else {
		m.Interchannel = 1
	}

	bands, err := bandEnergies(x[start:], sr)
	if err != nil {
		return m, err
	}
	m.Bands = bands
	return m, nil
}

// finiteOrZero keeps metrics JSON-encodable when a ratio has no energy below
// it.
func finiteOrZero(v float64) float64 {
	if !isFinite(v) {
		return 0
	}
	return v
}

// realFFT is the part of an algo-fft real plan used for band analysis.
type realFFT interface {
	Forward(dst []complex128, src []float64) error
}

// bandEnergies averages Hann-windowed magnitude spectra over half-overlapping
// frames and reports the energy per band in dB below the strongest band.
func bandEnergies(x []float64, sampleRate int) ([]Band, error) {
	plan, err := algofft.NewPlanReal64(bandFFTSize)
	if err != nil {
		return nil, fmt.Errorf("analysis: fft plan: %w", err)
	}
	return bandEnergiesWith(plan, x, sampleRate)
}

func bandEnergiesWith(plan realFFT, x []float64, sampleRate int) ([]Band, error) {
	hann := make([]float64, bandFFTSize)
	for i := range hann {
		hann[i] = 1
	}
	window.Hann(hann)

	nBins := bandFFTSize/2 + 1
	power := make([]float64, nBins)
	spec := make([]complex128, nBins)
	frame := make([]float64, bandFFTSize)
	for pos := 0; pos < len(x); pos += bandFFTSize / 2 {
		for i := range frame {
			if pos+i < len(x) {
				frame[i] = x[pos+i] * hann[i]
			} else {
				frame[i] = 0
			}
		}
		if err := plan.Forward(spec, frame); err != nil {
			return nil, fmt.Errorf("analysis: fft: %w", err)
		}
		for k := range power {
			mag := cmplx.Abs(spec[k])
			power[k] += mag * mag
		}
	}

	binHz := float64(sampleRate) / bandFFTSize
	nyquist := float64(sampleRate) / 2
	out := make([]Band, 0, len(bandEdges))
	maxE := 0.0
	energies := make([]float64, 0, len(bandEdges))
	for _, b := range bandEdges {
		if b.LoHz >= nyquist {
			break
		}
		lo := int(math.Ceil(b.LoHz / binHz))
		hi := int(math.Min(b.HiHz, nyquist) / binHz)
		var e float64
		for k := lo; k <= hi && k < nBins; k++ {
			e += power[k]
		}
		energies = append(energies, e)
		out = append(out, b)
		if e > maxE {
			maxE = e
		}
	}
	for i := range out {
		if maxE <= 0 {
			out[i].EnergyDB = -120
			continue
		}
		out[i].EnergyDB = 10 * math.Log10(math.Max(energies[i]/maxE, 1e-12))
	}
	return out, nil
}
