package dsp

import (
	"fmt"

	"github.com/tphakala/simd/f64"
)

// Mix returns dry*(1-wetDry) + wet*wetDry. Both buffers must share layout.
func Mix(dry, wet Buffer, wetDry float64) (Buffer, error) {
	if dry.NumChannels() != wet.NumChannels() || dry.Len() != wet.Len() {
		return Buffer{}, fmt.Errorf("mix layout mismatch: dry %dx%d, wet %dx%d",
			dry.NumChannels(), dry.Len(), wet.NumChannels(), wet.Len())
	}
	out := NewBuffer(dry.SampleRate, dry.NumChannels(), dry.Len())
	dryGain := 1 - wetDry
	for c := range out.Channels {
		d, w, o := dry.Channels[c], wet.Channels[c], out.Channels[c]
		if len(o) == 0 {
			continue
		}
		f64.Scale(o, d, dryGain)
		for i := range o {
			o[i] += w[i] * wetDry
		}
	}
	return out, nil
}

// Limit scales buf down in place when its peak exceeds ceiling and reports
// the applied gain (1 when untouched).
func Limit(buf Buffer, ceiling float64) float64 {
	peak := buf.Peak()
	if peak <= ceiling || peak < MinEnergy {
		return 1
	}
	g := ceiling / peak
	buf.Scale(g)
	return g
}
