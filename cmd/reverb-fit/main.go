package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/cwbudde/algo-reverb/analysis"
	"github.com/cwbudde/algo-reverb/codec"
	fitcommon "github.com/cwbudde/algo-reverb/internal/fitcommon"
	"github.com/cwbudde/algo-reverb/irsynth"
	"github.com/cwbudde/algo-reverb/reverb"
)

func main() {
	referencePath := flag.String("reference", "reference/room.wav", "Measured reference IR WAV path")
	irType := flag.String("type", "auto", "IR type to fit: room|hall|plate|spring|lofi|auto")
	presetName := flag.String("name", "fitted", "Name of the fitted preset")
	outputIR := flag.String("output-ir", "out/fit/fitted.wav", "Path to write best synthesized IR WAV")
	outputPreset := flag.String("output-preset", "out/fit/fitted.json", "Path to write the fitted preset bank (.json or .yaml)")
	reportPath := flag.String("report", "", "Optional report JSON path (default: <output-preset>.report.json)")
	sampleRate := flag.Int("sample-rate", 48000, "Synthesis/analysis sample rate")
	seed := flag.Int64("seed", 1, "Random seed")
	timeBudget := flag.Float64("time-budget", 120.0, "Optimization time budget in seconds")
	maxEvals := flag.Int("max-evals", 2000, "Maximum objective evaluations")
	reportEvery := flag.Int("report-every", 20, "Print progress every N evaluations")
	topK := flag.Int("top-k", 5, "How many top candidates to keep in report")
	fix := flag.String("fix", "", "Comma-separated knobs to keep at their start value (e.g. modulation,pre_delay_ms)")
	resume := flag.Bool("resume", true, "Resume from previous best_knobs report when available")
	workersRaw := flag.String("workers", "auto", "Parallel Mayfly rounds: integer >= 1 or 'auto'")

	mayflyVariant := flag.String("mayfly-variant", "desma", "Mayfly variant: ma|desma|olce|eobbma|gsasma|mpma|aoblmoa")
	mayflyPop := flag.Int("mayfly-pop", 10, "Male and female population size per Mayfly run")
	mayflyRoundEvals := flag.Int("mayfly-round-evals", 240, "Target eval budget per Mayfly round")
	flag.Parse()

	if *outputIR == "" {
		die("output-ir must not be empty")
	}
	if *outputPreset == "" {
		die("output-preset must not be empty")
	}
	if *maxEvals < 1 {
		die("max-evals must be >= 1")
	}
	if *timeBudget <= 0 {
		die("time-budget must be > 0")
	}
	if *reportEvery < 1 {
		*reportEvery = 1
	}
	if *mayflyPop < 2 {
		*mayflyPop = 2
	}
	if *mayflyRoundEvals < *mayflyPop*2 {
		*mayflyRoundEvals = *mayflyPop * 2
	}
	if *topK < 1 {
		*topK = 1
	}
	workers, err := fitcommon.ParseWorkers(*workersRaw)
	if err != nil {
		die("invalid workers: %v", err)
	}

	ref, err := readReference(*referencePath, *sampleRate)
	if err != nil {
		die("failed to read reference: %v", err)
	}
	gen, err := irsynth.NewGenerator(*sampleRate, irsynth.DefaultSeeds())
	if err != nil {
		die("invalid sample rate: %v", err)
	}

	start, err := startPreset(gen, ref, *irType)
	if err != nil {
		die("%v", err)
	}
	start.Name = *presetName
	fmt.Printf("Fitting type=%s from preset decay=%.2fs\n", start.IR.Type, start.IR.DecaySeconds)

	defs, initCand := initCandidate(start.IR, parseFixed(*fix))
	if len(defs) == 0 {
		die("all knobs are fixed; nothing to fit")
	}
	if *resume {
		resumePath := reportPathFor(*reportPath, *outputPreset)
		if resumed, ok, err := loadCandidateFromReport(resumePath, start.IR.Type, defs, initCand); err != nil {
			fmt.Fprintf(os.Stderr, "resume skipped (%s): %v\n", resumePath, err)
		} else if ok {
			initCand = resumed
			fmt.Printf("Resumed candidate from %s\n", resumePath)
		}
	}

	out := outputs{
		referencePath: *referencePath,
		outputIR:      *outputIR,
		outputPreset:  *outputPreset,
		reportPath:    reportPathFor(*reportPath, *outputPreset),
		variant:       strings.ToLower(*mayflyVariant),
		gen:           gen,
		preset:        start,
		defs:          defs,
	}
	var outMu sync.Mutex
	cfg := &optimizationConfig{
		reference:        ref,
		gen:              gen,
		base:             start.IR,
		defs:             defs,
		initCandidate:    initCand,
		seed:             *seed,
		timeBudget:       *timeBudget,
		maxEvals:         *maxEvals,
		reportEvery:      *reportEvery,
		topK:             *topK,
		mayflyVariant:    *mayflyVariant,
		mayflyPop:        *mayflyPop,
		mayflyRoundEvals: *mayflyRoundEvals,
		workers:          workers,
		onImprove: func(best candidate, m analysis.Distance, evals int) {
			outMu.Lock()
			defer outMu.Unlock()
			if err := out.write(best, m, evals, 0, nil); err != nil {
				fmt.Fprintf(os.Stderr, "checkpoint write failed: %v\n", err)
			}
		},
	}

	res, err := runOptimization(cfg)
	if err != nil {
		die("%v", err)
	}
	outMu.Lock()
	err = out.write(res.best, res.bestMetrics, res.evals, res.elapsed, res.top)
	outMu.Unlock()
	if err != nil {
		die("failed to write outputs: %v", err)
	}

	fmt.Printf("Done evals=%d elapsed=%.1fs best_score=%.4f best_similarity=%.2f%% variant=%s\n",
		res.evals, res.elapsed, res.bestMetrics.Score, res.bestMetrics.Similarity*100.0, out.variant)
}

// readReference loads a measured IR and resamples it to sampleRate.
func readReference(path string, sampleRate int) (*irsynth.ImpulseResponse, error) {
	buf, err := codec.Read(path)
	if err != nil {
		return nil, err
	}
	if buf, err = codec.Resample(buf, sampleRate); err != nil {
		return nil, err
	}
	var right []float64
	if buf.IsStereo() {
		right = buf.Channels[1]
	}
	return irsynth.NewImpulseResponse(sampleRate, buf.Channels[0], right)
}

// startPreset picks the built-in preset named after irType. With "auto" it
// scores the base preset of every type against ref and keeps the closest.
func startPreset(gen *irsynth.Generator, ref *irsynth.ImpulseResponse, irType string) (reverb.Preset, error) {
	builtin := make(map[irsynth.Type]reverb.Preset)
	for _, p := range reverb.BuiltinPresets() {
		if p.Name == string(p.IR.Type) {
			builtin[p.IR.Type] = p
		}
	}
	if !strings.EqualFold(irType, "auto") {
		t, err := irsynth.ParseType(irType)
		if err != nil {
			return reverb.Preset{}, err
		}
		return builtin[t], nil
	}

	var best reverb.Preset
	bestScore := 2.0
	for _, t := range irsynth.Types() {
		p := builtin[t]
		ir, err := gen.Generate(p.IR)
		if err != nil {
			return reverb.Preset{}, fmt.Errorf("type %s: %w", t, err)
		}
		d := analysis.CompareIR(ref, ir)
		fmt.Printf("Type %-6s score=%.4f\n", t, d.Score)
		if d.Score < bestScore {
			best, bestScore = p, d.Score
		}
	}
	return best, nil
}

func parseFixed(raw string) map[string]bool {
	fixed := make(map[string]bool)
	for _, name := range strings.Split(raw, ",") {
		if name = strings.TrimSpace(name); name != "" {
			fixed[name] = true
		}
	}
	return fixed
}

func reportPathFor(reportPath, outputPreset string) string {
	if reportPath != "" {
		return reportPath
	}
	return outputPreset + ".report.json"
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
