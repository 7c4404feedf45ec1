package preset

import (
	"encoding/json"
	"os"

	"github.com/cwbudde/algo-reverb/reverb"
)

// LoadJSON loads a JSON bank file and applies it on top of the built-in bank.
func LoadJSON(path string) ([]reverb.Preset, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f File
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, err
	}
	return Apply(reverb.BuiltinPresets(), &f)
}
