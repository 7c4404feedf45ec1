package preset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cwbudde/algo-reverb/reverb"
)

// EntryFor returns a fully specified entry for p.
func EntryFor(p reverb.Preset) Entry {
	t := string(p.IR.Type)
	f := func(v float64) *float64 { return &v }
	return Entry{
		IRType:       &t,
		DecaySeconds: f(p.IR.DecaySeconds),
		Damping:      f(p.IR.Damping),
		Size:         f(p.IR.Size),
		Diffusion:    f(p.IR.Diffusion),
		Modulation:   f(p.IR.Modulation),
		IRPreDelayMs: f(p.IR.PreDelayMs),
		WetDry:       f(p.Mix.WetDry),
		PreDelayMs:   f(p.Mix.PreDelayMs),
		LowCutHz:     f(p.Mix.LowCutHz),
		HighCutHz:    f(p.Mix.HighCutHz),
		StereoWidth:  f(p.Mix.StereoWidth),
		BassMonoHz:   f(p.Mix.BassMonoHz),
	}
}

// Save writes presets as a bank file. The format follows the extension.
func Save(path string, presets ...reverb.Preset) error {
	f := File{Presets: make(map[string]Entry, len(presets))}
	for _, p := range presets {
		f.Presets[p.Name] = EntryFor(p)
	}

	var (
		b   []byte
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		b, err = json.MarshalIndent(f, "", "  ")
		b = append(b, '\n')
	case ".yaml", ".yml":
		b, err = yaml.Marshal(f)
	default:
		return fmt.Errorf("unsupported preset file extension %q (want .json, .yaml or .yml)", filepath.Ext(path))
	}
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
