package reverb

import (
	"github.com/cwbudde/algo-reverb/dsp"
)

// LimiterCeiling is the output peak enforced whenever any wet signal is mixed
// in.
const LimiterCeiling = 0.99

// PostProcess shapes the wet signal and mixes it with dry:
//
//  1. EQ: high-pass at LowCutHz, then low-pass at HighCutHz
//  2. stereo width (and optional bass mono)
//  3. trim or pad wet to len(dry)
//  4. delay wet by PreDelayMs minus the pre-delay already in the IR
//  5. dry*(1-WetDry) + wet*WetDry
//  6. scale down to LimiterCeiling if the peak exceeds it and WetDry > 0
//
// dry and wet must have the same channel count. Neither input is modified.
func PostProcess(dry, wet dsp.Buffer, cfg Config, irPreDelayMs float64) (dsp.Buffer, error) {
	out, _, err := postProcess(dry, wet, cfg, irPreDelayMs)
	return out, err
}

func postProcess(dry, wet dsp.Buffer, cfg Config, irPreDelayMs float64) (dsp.Buffer, float64, error) {
	if err := cfg.Validate(); err != nil {
		return dsp.Buffer{}, 1, err
	}

	shaped := dsp.ApplyEQ(wet, cfg.LowCutHz, cfg.HighCutHz)
	shaped, err := dsp.ApplyStereoWidthBassMono(shaped, cfg.StereoWidth, cfg.BassMonoHz)
	if err != nil {
		return dsp.Buffer{}, 1, err
	}
	shaped = shaped.Fit(dry.Len())
	shaped = shaped.Shift(dsp.MsToSamples(residualPreDelay(cfg.PreDelayMs, irPreDelayMs), dry.SampleRate))

	out, err := dsp.Mix(dry, shaped, cfg.WetDry)
	if err != nil {
		return dsp.Buffer{}, 1, err
	}
	gain := 1.0
	if cfg.WetDry > 0 {
		gain = dsp.Limit(out, LimiterCeiling)
	}
	return out, gain, nil
}

// residualPreDelay is the part of the requested pre-delay the IR does not
// already provide.
func residualPreDelay(requestedMs, irMs float64) float64 {
	if d := requestedMs - irMs; d > 0 {
		return d
	}
	return 0
}
