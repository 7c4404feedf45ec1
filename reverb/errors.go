package reverb

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-reverb/irsynth"
)

var (
	// ErrConfiguration matches every ConfigurationError.
	ErrConfiguration = errors.New("reverb: configuration error")
	// ErrSampleRateMismatch matches every SampleRateMismatchError.
	ErrSampleRateMismatch = errors.New("reverb: sample rate mismatch")
)

// ConfigurationError reports an unknown preset or IR type, or a parameter
// outside its valid range. Values are never clamped.
type ConfigurationError struct {
	Field  string
	Value  any
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("reverb: %s=%v: %s", e.Field, e.Value, e.Reason)
}

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

func (e *ConfigurationError) Unwrap() error { return e.Err }

// SampleRateMismatchError is returned when input audio or an external IR does
// not match the engine's sample rate.
type SampleRateMismatchError struct {
	Got  int
	Want int
}

func (e *SampleRateMismatchError) Error() string {
	return fmt.Sprintf("reverb: sample rate %d Hz does not match engine rate %d Hz", e.Got, e.Want)
}

func (e *SampleRateMismatchError) Is(target error) bool { return target == ErrSampleRateMismatch }

// wrapConfig turns irsynth parameter errors into ConfigurationErrors and
// passes everything else through.
func wrapConfig(err error) error {
	if err == nil {
		return nil
	}
	var pe *irsynth.ParamError
	if errors.As(err, &pe) {
		return &ConfigurationError{Field: pe.Field, Value: pe.Value, Reason: pe.Reason, Err: err}
	}
	return err
}
