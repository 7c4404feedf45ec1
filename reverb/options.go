package reverb

import (
	"io"

	"github.com/sirupsen/logrus"

	"github.com/cwbudde/algo-reverb/codec"
	"github.com/cwbudde/algo-reverb/irsynth"
)

// Option configures an Engine.
type Option func(*options)

type options struct {
	log     logrus.FieldLogger
	seeds   irsynth.Seeds
	codec   codec.AudioCodec
	presets []Preset
}

func defaultOptions() options {
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)
	return options{
		log:     quiet,
		seeds:   irsynth.DefaultSeeds(),
		codec:   codec.NewWAV(),
		presets: BuiltinPresets(),
	}
}

// WithLogger routes engine logs to log. The default discards them.
func WithLogger(log logrus.FieldLogger) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}

// WithSeeds replaces the synthesizer seeds.
func WithSeeds(s irsynth.Seeds) Option {
	return func(o *options) { o.seeds = s }
}

// WithCodec sets the codec LoadIR uses. The default reads WAV files.
func WithCodec(c codec.AudioCodec) Option {
	return func(o *options) {
		if c != nil {
			o.codec = c
		}
	}
}

// WithPresets replaces the preset bank.
func WithPresets(p []Preset) Option {
	return func(o *options) { o.presets = append([]Preset(nil), p...) }
}
