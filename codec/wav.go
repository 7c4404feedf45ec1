package codec

import (
	"fmt"
	"io"

	"github.com/cwbudde/wav"
	"github.com/go-audio/audio"
	"github.com/tphakala/simd/f32"

	"github.com/cwbudde/algo-reverb/dsp"
)

// WAV reads and writes RIFF/WAVE files.
type WAV struct {
	// BitDepth used when encoding.
	BitDepth int
}

// NewWAV returns a 16-bit WAV codec.
func NewWAV() *WAV { return &WAV{BitDepth: 16} }

func (c *WAV) Extensions() []string { return []string{".wav", ".wave"} }

func (c *WAV) Decode(r io.ReadSeeker) (dsp.Buffer, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return dsp.Buffer{}, ErrInvalidFile
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return dsp.Buffer{}, err
	}
	if buf == nil || buf.Format == nil || buf.Format.NumChannels < 1 {
		return dsp.Buffer{}, fmt.Errorf("%w: missing format", ErrInvalidFile)
	}
	numCh := buf.Format.NumChannels
	if buf.Format.SampleRate <= 0 {
		return dsp.Buffer{}, fmt.Errorf("%w: sample rate %d", ErrInvalidFile, buf.Format.SampleRate)
	}

	outCh := numCh
	if outCh > 2 {
		outCh = 2
	}
	frames := len(buf.Data) / numCh
	out := dsp.NewBuffer(buf.Format.SampleRate, outCh, frames)
	for i := 0; i < frames; i++ {
		for c := 0; c < outCh; c++ {
			out.Channels[c][i] = float64(buf.Data[i*numCh+c])
		}
	}
	return out, nil
}

func (c *WAV) Encode(w io.WriteSeeker, b dsp.Buffer) error {
	if err := b.Validate(); err != nil {
		return err
	}
	bitDepth := c.BitDepth
	if bitDepth == 0 {
		bitDepth = 16
	}
	numCh := b.NumChannels()
	n := b.Len()

	l32 := toFloat32(b.Channels[0])
	data := l32
	if numCh == 2 {
		data = make([]float32, 2*n)
		f32.Interleave2(data, l32, toFloat32(b.Channels[1]))
	}

	enc := wav.NewEncoder(w, b.SampleRate, bitDepth, numCh, 1)
	pcm := &audio.Float32Buffer{
		Format: &audio.Format{
			SampleRate:  b.SampleRate,
			NumChannels: numCh,
		},
		Data:           data,
		SourceBitDepth: bitDepth,
	}
	if err := enc.Write(pcm); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

func toFloat32(x []float64) []float32 {
	out := make([]float32, len(x))
	for i, v := range x {
		out[i] = float32(v)
	}
	return out
}
