package reverb

import (
	"github.com/cwbudde/algo-reverb/irsynth"
)

// Preset pairs an IR description with the mix settings it sounds best with.
type Preset struct {
	Name string         `json:"name" yaml:"name"`
	IR   irsynth.Config `json:"ir" yaml:"ir"`
	Mix  Config         `json:"mix" yaml:"mix"`
}

// Validate checks both halves of the preset.
func (p *Preset) Validate() error {
	if p.Name == "" {
		return &ConfigurationError{Field: "name", Value: p.Name, Reason: "must not be empty"}
	}
	if err := p.IR.Validate(); err != nil {
		return wrapConfig(err)
	}
	return p.Mix.Validate()
}

// BuiltinPresets returns the stock bank. One preset per IR type is named
// after the type; the rest are variations.
func BuiltinPresets() []Preset {
	return []Preset{
		{
			Name: "room",
			IR:   irsynth.Config{Type: irsynth.TypeRoom, DecaySeconds: 0.8, Damping: 0.5, Size: 0.4, Diffusion: 0.7},
			Mix:  Config{WetDry: 0.25, LowCutHz: 100, HighCutHz: 10000, StereoWidth: 1.0},
		},
		{
			Name: "hall",
			IR:   irsynth.Config{Type: irsynth.TypeHall, DecaySeconds: 2.5, Damping: 0.4, Size: 0.8, Diffusion: 0.85},
			Mix:  Config{WetDry: 0.35, PreDelayMs: 20, LowCutHz: 80, HighCutHz: 9000, StereoWidth: 1.3},
		},
		{
			Name: "plate",
			IR:   irsynth.Config{Type: irsynth.TypePlate, DecaySeconds: 1.6, Damping: 0.25, Size: 0.5, Diffusion: 0.9},
			Mix:  Config{WetDry: 0.3, PreDelayMs: 10, LowCutHz: 150, HighCutHz: 14000, StereoWidth: 1.2},
		},
		{
			Name: "spring",
			IR:   irsynth.Config{Type: irsynth.TypeSpring, DecaySeconds: 1.2, Damping: 0.55, Size: 0.4, Diffusion: 0.5, Modulation: 0.3},
			Mix:  Config{WetDry: 0.3, LowCutHz: 200, HighCutHz: 6000, StereoWidth: 0.8},
		},
		{
			Name: "lofi",
			IR:   irsynth.Config{Type: irsynth.TypeLofi, DecaySeconds: 1.0, Damping: 0.7, Size: 0.3, Diffusion: 0.4},
			Mix:  Config{WetDry: 0.35, LowCutHz: 300, HighCutHz: 4000, StereoWidth: 0.6},
		},
		{
			Name: "small_room",
			IR:   irsynth.Config{Type: irsynth.TypeRoom, DecaySeconds: 0.4, Damping: 0.6, Size: 0.2, Diffusion: 0.6},
			Mix:  Config{WetDry: 0.2, LowCutHz: 120, HighCutHz: 9000, StereoWidth: 0.9},
		},
		{
			Name: "large_hall",
			IR:   irsynth.Config{Type: irsynth.TypeHall, DecaySeconds: 4.0, Damping: 0.35, Size: 1.0, Diffusion: 0.9, Modulation: 0.2},
			Mix:  Config{WetDry: 0.4, PreDelayMs: 35, LowCutHz: 60, HighCutHz: 8000, StereoWidth: 1.5, BassMonoHz: 120},
		},
		{
			Name: "vocal_plate",
			IR:   irsynth.Config{Type: irsynth.TypePlate, DecaySeconds: 1.2, Damping: 0.3, Size: 0.4, Diffusion: 0.95, PreDelayMs: 15},
			Mix:  Config{WetDry: 0.25, PreDelayMs: 15, LowCutHz: 200, HighCutHz: 12000, StereoWidth: 1.1},
		},
		{
			Name: "vintage_spring",
			IR:   irsynth.Config{Type: irsynth.TypeSpring, DecaySeconds: 2.0, Damping: 0.65, Size: 0.7, Diffusion: 0.6, Modulation: 0.5},
			Mix:  Config{WetDry: 0.35, LowCutHz: 250, HighCutHz: 5000, StereoWidth: 0.7},
		},
		{
			Name: "tape_lofi",
			IR:   irsynth.Config{Type: irsynth.TypeLofi, DecaySeconds: 1.5, Damping: 0.85, Size: 0.5, Diffusion: 0.3, Modulation: 0.6},
			Mix:  Config{WetDry: 0.4, LowCutHz: 250, HighCutHz: 3500, StereoWidth: 0.5},
		},
		{
			Name: "cathedral",
			IR:   irsynth.Config{Type: irsynth.TypeHall, DecaySeconds: 6.0, Damping: 0.45, Size: 1.0, Diffusion: 1.0, Modulation: 0.15, PreDelayMs: 40},
			Mix:  Config{WetDry: 0.45, PreDelayMs: 60, LowCutHz: 50, HighCutHz: 7000, StereoWidth: 1.6, BassMonoHz: 150},
		},
	}
}
