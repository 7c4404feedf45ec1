package main

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"github.com/cwbudde/algo-reverb/analysis"
	"github.com/cwbudde/algo-reverb/codec"
	"github.com/cwbudde/algo-reverb/irsynth"
	"github.com/cwbudde/algo-reverb/preset"
	"github.com/cwbudde/algo-reverb/reverb"
)

type runReport struct {
	ReferencePath  string             `json:"reference_path"`
	OutputPreset   string             `json:"output_preset"`
	OutputIR       string             `json:"output_ir"`
	SampleRate     int                `json:"sample_rate"`
	IRType         irsynth.Type       `json:"ir_type"`
	DurationSec    float64            `json:"elapsed_seconds"`
	Evaluations    int                `json:"evaluations"`
	MayflyVariant  string             `json:"mayfly_variant"`
	BestScore      float64            `json:"best_score"`
	BestSimilarity float64            `json:"best_similarity"`
	BestMetrics    analysis.Distance  `json:"best_metrics"`
	BestKnobs      map[string]float64 `json:"best_knobs"`
	BestIR         analysis.IRMetrics `json:"best_ir"`
	TopCandidates  []topCandidate     `json:"top_candidates,omitempty"`
}

type outputs struct {
	referencePath string
	outputIR      string
	outputPreset  string
	reportPath    string
	variant       string
	gen           *irsynth.Generator
	preset        reverb.Preset
	defs          []knobDef
}

// write regenerates the IR of best and writes the IR WAV, the preset bank
// and the JSON report.
func (o *outputs) write(best candidate, m analysis.Distance, evals int, elapsed float64, top []topCandidate) error {
	p := o.preset
	p.IR = applyCandidate(p.IR, o.defs, best)
	ir, err := o.gen.Generate(p.IR)
	if err != nil {
		return err
	}
	if err := codec.Write(o.outputIR, ir.Buffer()); err != nil {
		return err
	}
	if err := preset.Save(o.outputPreset, p); err != nil {
		return err
	}

	irMetrics, err := analysis.Measure(ir)
	if err != nil {
		return err
	}
	rep := runReport{
		ReferencePath:  o.referencePath,
		OutputPreset:   o.outputPreset,
		OutputIR:       o.outputIR,
		SampleRate:     o.gen.SampleRate(),
		IRType:         p.IR.Type,
		DurationSec:    elapsed,
		Evaluations:    evals,
		MayflyVariant:  o.variant,
		BestScore:      m.Score,
		BestSimilarity: m.Similarity,
		BestMetrics:    m,
		BestKnobs:      knobsOf(o.defs, best),
		BestIR:         irMetrics,
		TopCandidates:  top,
	}
	return writeJSON(o.reportPath, rep)
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	return os.WriteFile(path, b, 0o644)
}

// loadCandidateFromReport restores the best knobs of an earlier run of the
// same IR type. Missing reports are not an error.
func loadCandidateFromReport(path string, irType irsynth.Type, defs []knobDef, fallback candidate) (candidate, bool, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fallback, false, nil
		}
		return fallback, false, err
	}
	var rep runReport
	if err := json.Unmarshal(b, &rep); err != nil {
		return fallback, false, err
	}
	if len(rep.BestKnobs) == 0 || rep.IRType != irType {
		return fallback, false, nil
	}

	c := cloneCandidate(fallback)
	updated := false
	for i, d := range defs {
		if v, ok := rep.BestKnobs[d.Name]; ok {
			c.Vals[i] = d.quantize(v)
			updated = true
		}
	}
	if !updated {
		return fallback, false, nil
	}
	return c, true, nil
}
