// Package reverb applies synthesized or loaded impulse responses to audio.
//
// An Engine owns a preset registry whose IRs are built once at construction
// and shared read-only afterwards, so one Engine can serve concurrent
// callers. Processing never modifies the input buffer and always returns a
// buffer with the same length and channel count.
package reverb

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/cwbudde/algo-reverb/codec"
	"github.com/cwbudde/algo-reverb/dsp"
	"github.com/cwbudde/algo-reverb/irsynth"
)

type Engine struct {
	sampleRate int
	log        logrus.FieldLogger
	codec      codec.AudioCodec
	registry   *Registry
}

// New builds an engine for one sample rate and generates every preset IR.
func New(sampleRate int, opts ...Option) (*Engine, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	gen, err := irsynth.NewGenerator(sampleRate, o.seeds)
	if err != nil {
		return nil, &ConfigurationError{Field: "sample_rate", Value: sampleRate, Reason: err.Error(), Err: err}
	}
	reg, err := NewRegistry(gen, o.presets, o.log)
	if err != nil {
		return nil, err
	}
	o.log.WithFields(logrus.Fields{
		"sample_rate": sampleRate,
		"presets":     len(o.presets),
	}).Info("reverb engine ready")

	return &Engine{
		sampleRate: sampleRate,
		log:        o.log,
		codec:      o.codec,
		registry:   reg,
	}, nil
}

func (e *Engine) SampleRate() int { return e.sampleRate }

func (e *Engine) Registry() *Registry { return e.registry }

// Presets lists the preset names in sorted order.
func (e *Engine) Presets() []string { return e.registry.Names() }

// PresetIR returns the cached IR of a preset; repeated calls return the same
// pointer.
func (e *Engine) PresetIR(name string) (*irsynth.ImpulseResponse, error) {
	return e.registry.IR(name)
}

// GenerateIR returns the IR for cfg, generating and caching it on first use.
func (e *Engine) GenerateIR(cfg irsynth.Config) (*irsynth.ImpulseResponse, error) {
	return e.registry.Get(cfg)
}

// Process applies a preset with its own mix settings.
func (e *Engine) Process(buf dsp.Buffer, preset string) (dsp.Buffer, error) {
	p, err := e.registry.Preset(preset)
	if err != nil {
		return dsp.Buffer{}, err
	}
	return e.ProcessPreset(buf, preset, p.Mix)
}

// ProcessPreset applies a preset's IR with caller-supplied mix settings.
func (e *Engine) ProcessPreset(buf dsp.Buffer, preset string, rc Config) (dsp.Buffer, error) {
	ir, err := e.registry.IR(preset)
	if err != nil {
		return dsp.Buffer{}, err
	}
	return e.ProcessIR(buf, ir, rc)
}

// ProcessConfig applies an ad-hoc IR described by irCfg.
func (e *Engine) ProcessConfig(buf dsp.Buffer, irCfg irsynth.Config, rc Config) (dsp.Buffer, error) {
	if err := rc.Validate(); err != nil {
		return dsp.Buffer{}, err
	}
	ir, err := e.registry.Get(irCfg)
	if err != nil {
		return dsp.Buffer{}, err
	}
	return e.ProcessIR(buf, ir, rc)
}

// ProcessIR convolves buf with ir and post-processes the result. Mono input
// is processed as dual-mono and downmixed back.
func (e *Engine) ProcessIR(buf dsp.Buffer, ir *irsynth.ImpulseResponse, rc Config) (dsp.Buffer, error) {
	if err := rc.Validate(); err != nil {
		return dsp.Buffer{}, err
	}
	if ir == nil {
		return dsp.Buffer{}, &ConfigurationError{Field: "ir", Value: nil, Reason: "must not be nil"}
	}
	if isEmpty(buf) {
		return buf.Clone(), nil
	}
	if err := buf.Validate(); err != nil {
		return dsp.Buffer{}, fmt.Errorf("input: %w", err)
	}
	if buf.SampleRate != e.sampleRate {
		return dsp.Buffer{}, &SampleRateMismatchError{Got: buf.SampleRate, Want: e.sampleRate}
	}
	if ir.SampleRate() != e.sampleRate {
		return dsp.Buffer{}, &SampleRateMismatchError{Got: ir.SampleRate(), Want: e.sampleRate}
	}
	if !buf.IsFinite() {
		return dsp.Buffer{}, fmt.Errorf("input: %w", dsp.ErrNonFiniteSamples)
	}

	mono := buf.NumChannels() == 1
	dry := buf.ToStereo()
	wet, err := Convolve(dry, ir)
	if err != nil {
		return dsp.Buffer{}, err
	}
	out, gain, err := postProcess(dry, wet, rc, ir.PreDelayMs())
	if err != nil {
		return dsp.Buffer{}, err
	}
	if gain < 1 {
		e.log.WithFields(logrus.Fields{
			"gain":    gain,
			"wet_dry": rc.WetDry,
		}).Debug("limiter engaged")
	}
	if mono {
		out = out.Downmix()
	}
	return out, nil
}

// isEmpty reports whether buf holds no samples at all, including a buffer
// with no channels.
func isEmpty(buf dsp.Buffer) bool {
	for _, ch := range buf.Channels {
		if len(ch) > 0 {
			return false
		}
	}
	return true
}
