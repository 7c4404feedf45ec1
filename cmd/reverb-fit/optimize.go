package main

import (
	"fmt"
	"math"
	"math/rand"
	"os"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cwbudde/mayfly"

	"github.com/cwbudde/algo-reverb/analysis"
	fitcommon "github.com/cwbudde/algo-reverb/internal/fitcommon"
	"github.com/cwbudde/algo-reverb/irsynth"
)

// knobDef is one searchable irsynth.Config field.
type knobDef struct {
	Name  string
	Min   float64
	Max   float64
	IsInt bool

	get func(irsynth.Config) float64
	set func(*irsynth.Config, float64)
}

// quantize clamps v to the knob range and rounds integer knobs.
func (d knobDef) quantize(v float64) float64 {
	v = fitcommon.Clamp(v, d.Min, d.Max)
	if d.IsInt {
		v = math.Round(v)
	}
	return v
}

type candidate struct {
	Vals []float64
}

type topCandidate struct {
	Eval       int                `json:"eval"`
	Score      float64            `json:"score"`
	Similarity float64            `json:"similarity"`
	Knobs      map[string]float64 `json:"knobs"`
}

type optimizationConfig struct {
	reference        *irsynth.ImpulseResponse
	gen              *irsynth.Generator
	base             irsynth.Config
	defs             []knobDef
	initCandidate    candidate
	seed             int64
	timeBudget       float64
	maxEvals         int
	reportEvery      int
	topK             int
	mayflyVariant    string
	mayflyPop        int
	mayflyRoundEvals int
	workers          int
	onImprove        func(best candidate, m analysis.Distance, evals int)
}

type optimizationResult struct {
	best        candidate
	bestMetrics analysis.Distance
	evals       int
	elapsed     float64
	top         []topCandidate
}

var irKnobs = []knobDef{
	{
		Name: "decay_seconds", Min: 0.1, Max: 8.0,
		get: func(c irsynth.Config) float64 { return c.DecaySeconds },
		set: func(c *irsynth.Config, v float64) { c.DecaySeconds = v },
	},
	{
		Name: "damping", Min: 0, Max: 1,
		get: func(c irsynth.Config) float64 { return c.Damping },
		set: func(c *irsynth.Config, v float64) { c.Damping = v },
	},
	{
		Name: "size", Min: 0, Max: 1,
		get: func(c irsynth.Config) float64 { return c.Size },
		set: func(c *irsynth.Config, v float64) { c.Size = v },
	},
	{
		Name: "diffusion", Min: 0, Max: 1,
		get: func(c irsynth.Config) float64 { return c.Diffusion },
		set: func(c *irsynth.Config, v float64) { c.Diffusion = v },
	},
	{
		Name: "modulation", Min: 0, Max: 1,
		get: func(c irsynth.Config) float64 { return c.Modulation },
		set: func(c *irsynth.Config, v float64) { c.Modulation = v },
	},
	{
		Name: "pre_delay_ms", Min: 0, Max: 150, IsInt: true,
		get: func(c irsynth.Config) float64 { return c.PreDelayMs },
		set: func(c *irsynth.Config, v float64) { c.PreDelayMs = v },
	},
}

// initCandidate starts from base; knobs listed in fixed keep their base value
// and are left out of the search.
func initCandidate(base irsynth.Config, fixed map[string]bool) ([]knobDef, candidate) {
	var defs []knobDef
	var vals []float64
	for _, d := range irKnobs {
		if fixed[d.Name] {
			continue
		}
		defs = append(defs, d)
		vals = append(vals, d.quantize(d.get(base)))
	}
	return defs, candidate{Vals: vals}
}

func applyCandidate(base irsynth.Config, defs []knobDef, c candidate) irsynth.Config {
	cfg := base
	for i, d := range defs {
		if d.set != nil {
			d.set(&cfg, c.Vals[i])
		}
	}
	return cfg
}

func knobsOf(defs []knobDef, c candidate) map[string]float64 {
	knobs := make(map[string]float64, len(defs))
	for i, d := range defs {
		knobs[d.Name] = c.Vals[i]
	}
	return knobs
}

// updateTopCandidates inserts the evaluation and keeps the topK lowest
// scores; ties go to the earlier evaluation.
func updateTopCandidates(top []topCandidate, topK int, eval int, metrics analysis.Distance, defs []knobDef, cand candidate) []topCandidate {
	entry := topCandidate{
		Eval:       eval,
		Score:      metrics.Score,
		Similarity: metrics.Similarity,
		Knobs:      knobsOf(defs, cand),
	}
	i := sort.Search(len(top), func(i int) bool {
		if top[i].Score == entry.Score {
			return top[i].Eval > entry.Eval
		}
		return top[i].Score > entry.Score
	})
	if i >= topK {
		return top
	}
	top = append(top, topCandidate{})
	copy(top[i+1:], top[i:])
	top[i] = entry
	if len(top) > topK {
		top = top[:topK]
	}
	return top
}

// fromNormalized maps a Mayfly position in [0,1]^n onto the knob ranges.
func fromNormalized(pos []float64, defs []knobDef) candidate {
	vals := make([]float64, len(defs))
	for i, d := range defs {
		var x float64
		if i < len(pos) {
			x = fitcommon.Clamp(pos[i], 0, 1)
		}
		vals[i] = d.quantize(d.Min + x*(d.Max-d.Min))
	}
	return candidate{Vals: vals}
}

func cloneCandidate(c candidate) candidate {
	return candidate{Vals: append([]float64(nil), c.Vals...)}
}

var mayflyVariants = map[string]func() *mayfly.Config{
	"ma":      mayfly.NewDefaultConfig,
	"desma":   mayfly.NewDESMAConfig,
	"olce":    mayfly.NewOLCEConfig,
	"eobbma":  mayfly.NewEOBBMAConfig,
	"gsasma":  mayfly.NewGSASMAConfig,
	"mpma":    mayfly.NewMPMAConfig,
	"aoblmoa": mayfly.NewAOBLMOAConfig,
}

func newMayflyConfig(variant string, pop int, dims int, iters int) (*mayfly.Config, error) {
	newConfig, ok := mayflyVariants[variant]
	if !ok {
		return nil, fmt.Errorf("unsupported variant %q", variant)
	}
	cfg := newConfig()
	cfg.ProblemSize = dims
	cfg.LowerBound = 0.0
	cfg.UpperBound = 1.0
	cfg.MaxIterations = iters
	cfg.NPop = pop
	cfg.NPopF = pop
	cfg.NC = 2 * pop
	cfg.NM = fitcommon.MaxInt(1, int(math.Round(0.05*float64(pop))))
	return cfg, nil
}

func runMayfly(cfg *mayfly.Config) (_ *mayfly.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("mayfly panic: %v", r)
		}
	}()
	return mayfly.Optimize(cfg)
}

// evaluate synthesizes the candidate IR and scores it against the reference.
func (cfg *optimizationConfig) evaluate(c candidate) (analysis.Distance, error) {
	ir, err := cfg.gen.Generate(applyCandidate(cfg.base, cfg.defs, c))
	if err != nil {
		return analysis.Distance{}, err
	}
	return analysis.CompareIR(cfg.reference, ir), nil
}

// fitRun is the state shared by the Mayfly rounds of one optimization.
type fitRun struct {
	cfg      *optimizationConfig
	variant  string
	start    time.Time
	deadline time.Time

	evals    int64
	rounds   int64
	improves int64

	mu          sync.Mutex
	best        candidate
	bestMetrics analysis.Distance
	top         []topCandidate
}

func (r *fitRun) expired() bool {
	return time.Now().After(r.deadline) || atomic.LoadInt64(&r.evals) >= int64(r.cfg.maxEvals)
}

func (r *fitRun) bestScore() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.bestMetrics.Score
}

// record adds an evaluation and reports whether it is a new best.
func (r *fitRun) record(eval int64, cand candidate, m analysis.Distance) (bool, float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.top = updateTopCandidates(r.top, r.cfg.topK, int(eval), m, r.cfg.defs, cand)
	if m.Score >= r.bestMetrics.Score {
		return false, r.bestMetrics.Score
	}
	r.best = cloneCandidate(cand)
	r.bestMetrics = m
	return true, m.Score
}

// objective scores a Mayfly position. Once the budget is spent it returns a
// score worse than the current best so the round winds down.
func (r *fitRun) objective(round int) func(pos []float64) float64 {
	cfg := r.cfg
	return func(pos []float64) float64 {
		if time.Now().After(r.deadline) {
			return r.bestScore() + 1.0
		}
		evalNum, ok := fitcommon.ReserveEval(&r.evals, cfg.maxEvals)
		if !ok {
			return r.bestScore() + 1.0
		}

		cand := fromNormalized(pos, cfg.defs)
		m, err := cfg.evaluate(cand)
		if err != nil {
			return r.bestScore() + 0.8
		}

		improved, best := r.record(evalNum, cand, m)
		if improved {
			n := atomic.AddInt64(&r.improves, 1)
			fmt.Printf("Improved #%d eval=%d score=%.4f sim=%.2f%%\n", n, evalNum, m.Score, m.Similarity*100.0)
			if cfg.onImprove != nil {
				cfg.onImprove(cand, m, int(evalNum))
			}
		}
		if cfg.reportEvery > 0 && evalNum%int64(cfg.reportEvery) == 0 {
			fmt.Printf("Progress round=%d eval=%d elapsed=%.1fs best=%.4f\n", round, evalNum, time.Since(r.start).Seconds(), best)
		}
		return m.Score
	}
}

// worker runs Mayfly rounds until the evaluation or time budget is spent.
func (r *fitRun) worker() {
	cfg := r.cfg
	for !r.expired() {
		round := int(atomic.AddInt64(&r.rounds, 1))
		remaining := cfg.maxEvals - int(atomic.LoadInt64(&r.evals))
		if remaining <= 0 {
			return
		}
		budget := fitcommon.MinInt(cfg.mayflyRoundEvals, remaining)

		mcfg, err := newMayflyConfig(r.variant, cfg.mayflyPop, len(cfg.defs), fitcommon.MaxInt(1, budget/(2*cfg.mayflyPop)))
		if err != nil {
			fmt.Fprintf(os.Stderr, "mayfly round %d setup failed: %v\n", round, err)
			return
		}
		mcfg.Rand = rand.New(rand.NewSource(cfg.seed + int64(round)*7919))
		mcfg.ObjectiveFunc = r.objective(round)
		if _, err := runMayfly(mcfg); err != nil {
			fmt.Fprintf(os.Stderr, "mayfly round %d failed: %v\n", round, err)
		}
	}
}

// runOptimization runs independent Mayfly rounds on cfg.workers goroutines
// sharing one evaluation budget.
func runOptimization(cfg *optimizationConfig) (*optimizationResult, error) {
	start := time.Now()
	best := cloneCandidate(cfg.initCandidate)
	bestM, err := cfg.evaluate(best)
	if err != nil {
		return nil, fmt.Errorf("initial evaluation failed: %w", err)
	}
	fmt.Printf("Start score=%.4f similarity=%.2f%%\n", bestM.Score, bestM.Similarity*100.0)

	r := &fitRun{
		cfg:         cfg,
		variant:     strings.ToLower(cfg.mayflyVariant),
		start:       start,
		deadline:    start.Add(time.Duration(cfg.timeBudget * float64(time.Second))),
		evals:       1,
		best:        best,
		bestMetrics: bestM,
		top:         updateTopCandidates(nil, cfg.topK, 1, bestM, cfg.defs, best),
	}

	var wg sync.WaitGroup
	for i := 0; i < fitcommon.ResolveWorkers(cfg.workers); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.worker()
		}()
	}
	wg.Wait()

	r.mu.Lock()
	defer r.mu.Unlock()
	return &optimizationResult{
		best:        cloneCandidate(r.best),
		bestMetrics: r.bestMetrics,
		evals:       int(atomic.LoadInt64(&r.evals)),
		elapsed:     time.Since(start).Seconds(),
		top:         r.top,
	}, nil
}
