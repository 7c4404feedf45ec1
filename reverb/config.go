package reverb

import (
	"math"

	"github.com/cwbudde/algo-reverb/dsp"
)

const (
	minBassMonoHz = 20.0
	maxBassMonoHz = 500.0
)

// Config controls how the wet signal is shaped and mixed for one Process
// call.
type Config struct {
	// WetDry is the wet fraction: 0 is fully dry, 1 fully wet.
	WetDry float64 `json:"wet_dry" yaml:"wet_dry"`
	// PreDelayMs is the total delay of the wet signal. Any pre-delay already
	// baked into the IR counts towards it.
	PreDelayMs float64 `json:"pre_delay_ms" yaml:"pre_delay_ms"`
	// LowCutHz high-passes the wet signal; 0 disables.
	LowCutHz float64 `json:"low_cut_hz" yaml:"low_cut_hz"`
	// HighCutHz low-passes the wet signal; 0 disables.
	HighCutHz float64 `json:"high_cut_hz" yaml:"high_cut_hz"`
	// StereoWidth scales the wet side signal; any finite value >= 0.
	StereoWidth float64 `json:"stereo_width" yaml:"stereo_width"`
	// BassMonoHz collapses the wet signal to mono below this frequency;
	// 0 disables, otherwise [20,500].
	BassMonoHz float64 `json:"bass_mono_hz,omitempty" yaml:"bass_mono_hz,omitempty"`
}

func DefaultConfig() Config {
	return Config{
		WetDry:      0.3,
		PreDelayMs:  0,
		LowCutHz:    80,
		HighCutHz:   12000,
		StereoWidth: 1.0,
	}
}

func (c *Config) Validate() error {
	if !(c.WetDry >= 0 && c.WetDry <= 1) {
		return &ConfigurationError{Field: "wet_dry", Value: c.WetDry, Reason: "must be in [0,1]"}
	}
	nonNeg := []struct {
		name string
		v    float64
	}{
		{"pre_delay_ms", c.PreDelayMs},
		{"low_cut_hz", c.LowCutHz},
		{"high_cut_hz", c.HighCutHz},
	}
	for _, f := range nonNeg {
		if !(f.v >= 0) || math.IsInf(f.v, 0) {
			return &ConfigurationError{Field: f.name, Value: f.v, Reason: "must be >= 0 and finite"}
		}
	}
	if c.LowCutHz > 0 && c.HighCutHz > 0 && c.LowCutHz >= c.HighCutHz {
		return &ConfigurationError{Field: "low_cut_hz", Value: c.LowCutHz, Reason: "must be below high_cut_hz"}
	}
	if !(c.StereoWidth >= dsp.MinStereoWidth) || math.IsInf(c.StereoWidth, 0) {
		return &ConfigurationError{Field: "stereo_width", Value: c.StereoWidth, Reason: "must be >= 0 and finite"}
	}
	if c.BassMonoHz != 0 && !(c.BassMonoHz >= minBassMonoHz && c.BassMonoHz <= maxBassMonoHz) {
		return &ConfigurationError{Field: "bass_mono_hz", Value: c.BassMonoHz, Reason: "must be 0 or in [20,500]"}
	}
	return nil
}
