package reverb

import (
	"fmt"

	"github.com/cwbudde/algo-dsp/dsp/conv"

	"github.com/cwbudde/algo-reverb/dsp"
	"github.com/cwbudde/algo-reverb/irsynth"
)

// Convolve returns the full linear convolution of every channel of audio with
// the IR, len(audio)+len(ir)-1 samples long. Channel c uses IR channel
// min(c, 1). Empty audio or an empty IR give an empty result.
func Convolve(audio dsp.Buffer, ir *irsynth.ImpulseResponse) (dsp.Buffer, error) {
	if err := audio.Validate(); err != nil {
		return dsp.Buffer{}, err
	}
	if audio.Len() == 0 || ir == nil || ir.Len() == 0 {
		return dsp.NewBuffer(audio.SampleRate, audio.NumChannels(), 0), nil
	}

	out := dsp.Buffer{SampleRate: audio.SampleRate, Channels: make([][]float64, audio.NumChannels())}
	for c, ch := range audio.Channels {
		irCh := c
		if irCh > 1 {
			irCh = 1
		}
		oa, err := conv.NewOverlapAdd(ir.Channel(irCh), 0)
		if err != nil {
			return dsp.Buffer{}, fmt.Errorf("convolve: %w", err)
		}
		y, err := oa.Process(ch)
		if err != nil {
			return dsp.Buffer{}, fmt.Errorf("convolve channel %d: %w", c, err)
		}
		out.Channels[c] = y
	}
	return out, nil
}
