package preset

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cwbudde/algo-reverb/reverb"
)

// LoadYAML loads a YAML bank file and applies it on top of the built-in bank.
func LoadYAML(path string) ([]reverb.Preset, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f File
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, err
	}
	return Apply(reverb.BuiltinPresets(), &f)
}
