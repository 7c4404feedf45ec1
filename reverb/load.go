package reverb

import (
	"io"

	"github.com/sirupsen/logrus"

	"github.com/cwbudde/algo-reverb/codec"
	"github.com/cwbudde/algo-reverb/dsp"
	"github.com/cwbudde/algo-reverb/irsynth"
)

// LoadIR reads an external IR with the engine's codec. The file must use the
// engine's sample rate; it is never resampled implicitly. Mono files become
// dual-mono IRs.
func (e *Engine) LoadIR(path string) (*irsynth.ImpulseResponse, error) {
	buf, err := codec.ReadFile(e.codec, path)
	if err != nil {
		e.log.WithFields(logrus.Fields{"path": path, "error": err}).Warn("IR load failed")
		return nil, err
	}
	ir, err := e.irFromBuffer(buf)
	if err != nil {
		e.log.WithFields(logrus.Fields{"path": path, "error": err}).Warn("IR rejected")
		return nil, err
	}
	return ir, nil
}

// LoadIRFrom is LoadIR for an already open stream.
func (e *Engine) LoadIRFrom(r io.ReadSeeker) (*irsynth.ImpulseResponse, error) {
	buf, err := e.codec.Decode(r)
	if err != nil {
		return nil, err
	}
	return e.irFromBuffer(buf)
}

func (e *Engine) irFromBuffer(buf dsp.Buffer) (*irsynth.ImpulseResponse, error) {
	if err := buf.Validate(); err != nil {
		return nil, err
	}
	if buf.SampleRate != e.sampleRate {
		return nil, &SampleRateMismatchError{Got: buf.SampleRate, Want: e.sampleRate}
	}
	var right []float64
	if buf.IsStereo() {
		right = buf.Channels[1]
	}
	return irsynth.NewImpulseResponse(buf.SampleRate, buf.Channels[0], right)
}
