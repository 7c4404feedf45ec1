package codec

import (
	dspresample "github.com/cwbudde/algo-dsp/dsp/resample"

	"github.com/cwbudde/algo-reverb/dsp"
)

// Resample converts buf to toRate with the highest quality polyphase
// resampler. Each channel is processed independently; the result channels are
// trimmed to a common length.
func Resample(buf dsp.Buffer, toRate int) (dsp.Buffer, error) {
	if err := buf.Validate(); err != nil {
		return dsp.Buffer{}, err
	}
	if buf.SampleRate == toRate {
		return buf.Clone(), nil
	}
	if toRate <= 0 {
		return dsp.Buffer{}, dsp.ErrInvalidRate
	}

	out := dsp.Buffer{SampleRate: toRate, Channels: make([][]float64, buf.NumChannels())}
	n := -1
	for c, ch := range buf.Channels {
		r, err := dspresample.NewForRates(
			float64(buf.SampleRate),
			float64(toRate),
			dspresample.WithQuality(dspresample.QualityBest),
		)
		if err != nil {
			return dsp.Buffer{}, err
		}
		out.Channels[c] = r.Process(ch)
		if n < 0 || len(out.Channels[c]) < n {
			n = len(out.Channels[c])
		}
	}
	return out.Fit(n), nil
}
