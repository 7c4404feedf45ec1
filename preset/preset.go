// Package preset loads reverb preset banks from JSON or YAML files. Each file
// entry is a partial override on top of the built-in bank.
package preset

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cwbudde/algo-reverb/irsynth"
	"github.com/cwbudde/algo-reverb/reverb"
)

// File is the on-disk schema of a preset bank.
type File struct {
	Presets map[string]Entry `json:"presets" yaml:"presets"`
}

// Entry is a partial preset. Unset fields keep the value of the base preset:
// Base if given, otherwise the built-in preset of the same name, otherwise
// the library defaults.
type Entry struct {
	Base string `json:"base,omitempty" yaml:"base,omitempty"`

	IRType       *string  `json:"ir_type,omitempty" yaml:"ir_type,omitempty"`
	DecaySeconds *float64 `json:"decay_seconds,omitempty" yaml:"decay_seconds,omitempty"`
	Damping      *float64 `json:"damping,omitempty" yaml:"damping,omitempty"`
	Size         *float64 `json:"size,omitempty" yaml:"size,omitempty"`
	Diffusion    *float64 `json:"diffusion,omitempty" yaml:"diffusion,omitempty"`
	Modulation   *float64 `json:"modulation,omitempty" yaml:"modulation,omitempty"`
	IRPreDelayMs *float64 `json:"ir_pre_delay_ms,omitempty" yaml:"ir_pre_delay_ms,omitempty"`

	WetDry      *float64 `json:"wet_dry,omitempty" yaml:"wet_dry,omitempty"`
	PreDelayMs  *float64 `json:"pre_delay_ms,omitempty" yaml:"pre_delay_ms,omitempty"`
	LowCutHz    *float64 `json:"low_cut_hz,omitempty" yaml:"low_cut_hz,omitempty"`
	HighCutHz   *float64 `json:"high_cut_hz,omitempty" yaml:"high_cut_hz,omitempty"`
	StereoWidth *float64 `json:"stereo_width,omitempty" yaml:"stereo_width,omitempty"`
	BassMonoHz  *float64 `json:"bass_mono_hz,omitempty" yaml:"bass_mono_hz,omitempty"`
}

// Load reads a bank file, choosing the decoder by extension, and returns the
// built-in bank with the file applied.
func Load(path string) ([]reverb.Preset, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return LoadJSON(path)
	case ".yaml", ".yml":
		return LoadYAML(path)
	default:
		return nil, fmt.Errorf("unsupported preset file extension %q (want .json, .yaml or .yml)", filepath.Ext(path))
	}
}

// Apply merges f into bank and returns the result sorted by name. bank is not
// modified. Entries are applied in name order, so an entry may use an earlier
// one as its base.
func Apply(bank []reverb.Preset, f *File) ([]reverb.Preset, error) {
	byName := make(map[string]reverb.Preset, len(bank))
	for _, p := range bank {
		byName[p.Name] = p
	}
	if f != nil {
		keys := make([]string, 0, len(f.Presets))
		for k := range f.Presets {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, name := range keys {
			p, err := applyEntry(byName, name, f.Presets[name])
			if err != nil {
				return nil, err
			}
			byName[name] = p
		}
	}

	out := make([]reverb.Preset, 0, len(byName))
	for _, p := range byName {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func applyEntry(bank map[string]reverb.Preset, name string, e Entry) (reverb.Preset, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return reverb.Preset{}, fmt.Errorf("preset name must not be empty")
	}

	var p reverb.Preset
	switch base := strings.TrimSpace(e.Base); {
	case base != "":
		b, ok := bank[base]
		if !ok {
			return reverb.Preset{}, fmt.Errorf("preset %q: unknown base %q", name, base)
		}
		p = b
	default:
		if b, ok := bank[name]; ok {
			p = b
		} else {
			p = reverb.Preset{IR: irsynth.DefaultConfig(), Mix: reverb.DefaultConfig()}
		}
	}
	p.Name = name

	if e.IRType != nil {
		t, err := irsynth.ParseType(*e.IRType)
		if err != nil {
			return reverb.Preset{}, fmt.Errorf("preset %q: %w", name, err)
		}
		p.IR.Type = t
	}
	set := func(dst *float64, src *float64) {
		if src != nil {
			*dst = *src
		}
	}
	set(&p.IR.DecaySeconds, e.DecaySeconds)
	set(&p.IR.Damping, e.Damping)
	set(&p.IR.Size, e.Size)
	set(&p.IR.Diffusion, e.Diffusion)
	set(&p.IR.Modulation, e.Modulation)
	set(&p.IR.PreDelayMs, e.IRPreDelayMs)
	set(&p.Mix.WetDry, e.WetDry)
	set(&p.Mix.PreDelayMs, e.PreDelayMs)
	set(&p.Mix.LowCutHz, e.LowCutHz)
	set(&p.Mix.HighCutHz, e.HighCutHz)
	set(&p.Mix.StereoWidth, e.StereoWidth)
	set(&p.Mix.BassMonoHz, e.BassMonoHz)

	if err := p.Validate(); err != nil {
		return reverb.Preset{}, fmt.Errorf("preset %q: %w", name, err)
	}
	return p, nil
}
