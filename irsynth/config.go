package irsynth

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Type selects the room flavor of a synthesized IR.
type Type string

const (
	TypeRoom   Type = "room"
	TypeHall   Type = "hall"
	TypePlate  Type = "plate"
	TypeSpring Type = "spring"
	TypeLofi   Type = "lofi"
)

// Types lists every supported flavor in a stable order.
func Types() []Type {
	return []Type{TypeRoom, TypeHall, TypePlate, TypeSpring, TypeLofi}
}

// ParseType converts a case-insensitive name into a Type.
func ParseType(s string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := flavors[t]; !ok {
		return "", &ParamError{Field: "ir_type", Value: s, Reason: "unknown IR type"}
	}
	return t, nil
}

// ErrInvalidConfig is wrapped by every ParamError.
var ErrInvalidConfig = errors.New("irsynth: invalid config")

// ParamError reports a rejected configuration field.
type ParamError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("irsynth: %s=%v: %s", e.Field, e.Value, e.Reason)
}

func (e *ParamError) Unwrap() error { return ErrInvalidConfig }

// Config describes an impulse response by perceptual parameters.
type Config struct {
	Type         Type    `json:"ir_type" yaml:"ir_type"`
	DecaySeconds float64 `json:"decay_seconds" yaml:"decay_seconds"`
	Damping      float64 `json:"damping" yaml:"damping"`
	Size         float64 `json:"size" yaml:"size"`
	Diffusion    float64 `json:"diffusion" yaml:"diffusion"`
	Modulation   float64 `json:"modulation" yaml:"modulation"`
	PreDelayMs   float64 `json:"pre_delay_ms" yaml:"pre_delay_ms"`
}

// DefaultConfig returns a medium room.
func DefaultConfig() Config {
	return Config{
		Type:         TypeRoom,
		DecaySeconds: 1.0,
		Damping:      0.5,
		Size:         0.5,
		Diffusion:    0.7,
		Modulation:   0.0,
		PreDelayMs:   0.0,
	}
}

func (c *Config) Validate() error {
	if _, ok := flavors[c.Type]; !ok {
		return &ParamError{Field: "ir_type", Value: c.Type, Reason: "unknown IR type"}
	}
	if !(c.DecaySeconds > 0) || math.IsInf(c.DecaySeconds, 0) {
		return &ParamError{Field: "decay_seconds", Value: c.DecaySeconds, Reason: "must be > 0 and finite"}
	}
	unit := []struct {
		name string
		v    float64
	}{
		{"damping", c.Damping},
		{"size", c.Size},
		{"diffusion", c.Diffusion},
		{"modulation", c.Modulation},
	}
	for _, u := range unit {
		if !(u.v >= 0 && u.v <= 1) {
			return &ParamError{Field: u.name, Value: u.v, Reason: "must be in [0,1]"}
		}
	}
	if !(c.PreDelayMs >= 0) || math.IsInf(c.PreDelayMs, 0) {
		return &ParamError{Field: "pre_delay_ms", Value: c.PreDelayMs, Reason: "must be >= 0 and finite"}
	}
	return nil
}

// flavor holds the per-type mix of early and late energy.
type flavor struct {
	early       float64
	late        float64
	reflections int
}

var flavors = map[Type]flavor{
	TypeRoom:   {early: 0.4, late: 0.6, reflections: 12},
	TypeHall:   {early: 0.2, late: 0.8, reflections: 16},
	TypePlate:  {early: 0.3, late: 0.5, reflections: 10},
	TypeSpring: {early: 0.0, late: 0.4, reflections: 0},
	TypeLofi:   {early: 0.7, late: 0.3, reflections: 6},
}
