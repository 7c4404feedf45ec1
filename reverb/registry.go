package reverb

import (
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/cwbudde/algo-reverb/irsynth"
)

// Registry maps preset names to their configs and pre-built IRs, and caches
// IRs generated for ad-hoc configs.
//
// Preset IRs are built once in NewRegistry and never change. Ad-hoc IRs are
// generated at most once per config, even under concurrent first use.
type Registry struct {
	gen *irsynth.Generator
	log logrus.FieldLogger

	presets map[string]Preset
	irs     map[string]*irsynth.ImpulseResponse
	names   []string

	mu    sync.Mutex
	adhoc map[irsynth.Config]*cacheEntry
}

type cacheEntry struct {
	once sync.Once
	ir   *irsynth.ImpulseResponse
	err  error
}

// NewRegistry validates every preset and builds its IR.
func NewRegistry(gen *irsynth.Generator, presets []Preset, log logrus.FieldLogger) (*Registry, error) {
	r := &Registry{
		gen:     gen,
		log:     log,
		presets: make(map[string]Preset, len(presets)),
		irs:     make(map[string]*irsynth.ImpulseResponse, len(presets)),
		adhoc:   make(map[irsynth.Config]*cacheEntry),
	}
	for _, p := range presets {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if _, dup := r.presets[p.Name]; dup {
			return nil, &ConfigurationError{Field: "name", Value: p.Name, Reason: "duplicate preset"}
		}
		ir, err := gen.Generate(p.IR)
		if err != nil {
			return nil, wrapConfig(err)
		}
		r.presets[p.Name] = p
		r.irs[p.Name] = ir
		r.names = append(r.names, p.Name)

		log.WithFields(logrus.Fields{
			"preset":  p.Name,
			"ir_type": p.IR.Type,
			"samples": ir.Len(),
			"peak":    ir.Peak(),
			"rms":     ir.RMS(),
		}).Debug("preset IR ready")
	}
	sort.Strings(r.names)
	return r, nil
}

// Names returns the preset names in sorted order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.names...)
}

// Preset looks up a preset by name.
func (r *Registry) Preset(name string) (Preset, error) {
	p, ok := r.presets[name]
	if !ok {
		return Preset{}, &ConfigurationError{Field: "preset", Value: name, Reason: "unknown preset"}
	}
	return p, nil
}

// IR returns the cached IR of a preset. Every call for the same name returns
// the same pointer.
func (r *Registry) IR(name string) (*irsynth.ImpulseResponse, error) {
	ir, ok := r.irs[name]
	if !ok {
		return nil, &ConfigurationError{Field: "preset", Value: name, Reason: "unknown preset"}
	}
	return ir, nil
}

// Get returns the IR for an arbitrary config, generating it on first use.
// Invalid configs fail without touching the cache.
func (r *Registry) Get(cfg irsynth.Config) (*irsynth.ImpulseResponse, error) {
	if err := cfg.Validate(); err != nil {
		return nil, wrapConfig(err)
	}

	r.mu.Lock()
	e, ok := r.adhoc[cfg]
	if !ok {
		e = &cacheEntry{}
		r.adhoc[cfg] = e
	}
	r.mu.Unlock()

	e.once.Do(func() {
		r.log.WithFields(logrus.Fields{
			"ir_type": cfg.Type,
			"decay":   cfg.DecaySeconds,
		}).Debug("generating ad-hoc IR")
		e.ir, e.err = r.gen.Generate(cfg)
		e.err = wrapConfig(e.err)
	})
	return e.ir, e.err
}

// Cached reports how many ad-hoc IRs have been requested so far.
func (r *Registry) Cached() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.adhoc)
}
