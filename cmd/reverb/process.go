package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-reverb/codec"
	fitcommon "github.com/cwbudde/algo-reverb/internal/fitcommon"
	"github.com/cwbudde/algo-reverb/irsynth"
	"github.com/cwbudde/algo-reverb/reverb"
)

type processOptions struct {
	output   string
	outDir   string
	preset   string
	irPath   string
	resample bool
	workers  string

	ir  irFlags
	mix mixFlags
}

// irFlags override the IR config of the chosen preset.
type irFlags struct {
	irType     string
	decay      float64
	damping    float64
	size       float64
	diffusion  float64
	modulation float64
	preDelayMs float64
}

func (f *irFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.irType, "type", "", "IR type: room, hall, plate, spring or lofi")
	fs.Float64Var(&f.decay, "decay", 0, "RT60 decay time in seconds")
	fs.Float64Var(&f.damping, "damping", 0, "High-frequency damping 0..1")
	fs.Float64Var(&f.size, "size", 0, "Room size 0..1")
	fs.Float64Var(&f.diffusion, "diffusion", 0, "Diffusion 0..1")
	fs.Float64Var(&f.modulation, "modulation", 0, "Right-channel modulation depth 0..1")
	fs.Float64Var(&f.preDelayMs, "ir-pre-delay", 0, "Pre-delay baked into the IR in ms")
}

// apply overrides the changed flags on cfg and reports whether any was set.
func (f *irFlags) apply(cmd *cobra.Command, cfg *irsynth.Config) (bool, error) {
	fs := cmd.Flags()
	changed := false
	if fs.Changed("type") {
		t, err := irsynth.ParseType(f.irType)
		if err != nil {
			return false, err
		}
		cfg.Type = t
		changed = true
	}
	for _, o := range []struct {
		name string
		src  float64
		dst  *float64
	}{
		{"decay", f.decay, &cfg.DecaySeconds},
		{"damping", f.damping, &cfg.Damping},
		{"size", f.size, &cfg.Size},
		{"diffusion", f.diffusion, &cfg.Diffusion},
		{"modulation", f.modulation, &cfg.Modulation},
		{"ir-pre-delay", f.preDelayMs, &cfg.PreDelayMs},
	} {
		if fs.Changed(o.name) {
			*o.dst = o.src
			changed = true
		}
	}
	return changed, nil
}

// mixFlags override the mix settings of the chosen preset.
type mixFlags struct {
	wetDry     float64
	preDelayMs float64
	lowCutHz   float64
	highCutHz  float64
	width      float64
	bassMonoHz float64
}

func (f *mixFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.Float64Var(&f.wetDry, "wet-dry", 0, "Wet/dry balance 0..1")
	fs.Float64Var(&f.preDelayMs, "pre-delay", 0, "Total pre-delay of the wet signal in ms")
	fs.Float64Var(&f.lowCutHz, "low-cut", 0, "Wet high-pass cutoff in Hz (0 disables)")
	fs.Float64Var(&f.highCutHz, "high-cut", 0, "Wet low-pass cutoff in Hz (0 disables)")
	fs.Float64Var(&f.width, "width", 0, "Wet stereo width >= 0 (1 leaves the image unchanged)")
	fs.Float64Var(&f.bassMonoHz, "bass-mono", 0, "Keep the wet signal mono below this frequency in Hz")
}

func (f *mixFlags) apply(cmd *cobra.Command, rc *reverb.Config) {
	fs := cmd.Flags()
	for _, o := range []struct {
		name string
		src  float64
		dst  *float64
	}{
		{"wet-dry", f.wetDry, &rc.WetDry},
		{"pre-delay", f.preDelayMs, &rc.PreDelayMs},
		{"low-cut", f.lowCutHz, &rc.LowCutHz},
		{"high-cut", f.highCutHz, &rc.HighCutHz},
		{"width", f.width, &rc.StereoWidth},
		{"bass-mono", f.bassMonoHz, &rc.BassMonoHz},
	} {
		if fs.Changed(o.name) {
			*o.dst = o.src
		}
	}
}

func newProcessCmd(g *globalOptions) *cobra.Command {
	o := &processOptions{}
	cmd := &cobra.Command{
		Use:   "process [flags] input.wav...",
		Short: "Apply a reverb preset, an ad-hoc IR config or an IR file to audio files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProcess(cmd, g, o, args)
		},
	}
	fs := cmd.Flags()
	fs.StringVarP(&o.output, "output", "o", "", "Output path (single input only)")
	fs.StringVar(&o.outDir, "out-dir", "", "Output directory; files are named <input>.wet.wav")
	fs.StringVarP(&o.preset, "preset", "p", "room", "Preset name")
	fs.StringVar(&o.irPath, "ir", "", "External IR file used instead of a synthesized IR")
	fs.BoolVar(&o.resample, "resample", false, "Resample inputs and --ir to the engine rate instead of failing")
	fs.StringVar(&o.workers, "workers", "auto", "Parallel files: integer >= 1 or 'auto'")
	o.ir.register(cmd)
	o.mix.register(cmd)
	return cmd
}

func runProcess(cmd *cobra.Command, g *globalOptions, o *processOptions, inputs []string) error {
	if o.output != "" && len(inputs) > 1 {
		return errors.New("--output takes a single input; use --out-dir for several")
	}
	workers, err := fitcommon.ParseWorkers(o.workers)
	if err != nil {
		return fmt.Errorf("invalid --workers: %w", err)
	}

	eng, log, err := g.engine(cmd)
	if err != nil {
		return err
	}
	p, err := eng.Registry().Preset(o.preset)
	if err != nil {
		return err
	}
	rc := p.Mix
	o.mix.apply(cmd, &rc)
	if err := rc.Validate(); err != nil {
		return err
	}

	irCfg := p.IR
	custom, err := o.ir.apply(cmd, &irCfg)
	if err != nil {
		return err
	}

	var ir *irsynth.ImpulseResponse
	switch {
	case o.irPath != "":
		ir, err = loadIR(eng, o.irPath, o.resample)
	case custom:
		ir, err = eng.GenerateIR(irCfg)
	default:
		ir, err = eng.PresetIR(o.preset)
	}
	if err != nil {
		return err
	}

	var outMu sync.Mutex
	errs := fitcommon.ForEach(len(inputs), workers, func(i int) error {
		in := inputs[i]
		out := outputPath(in, o.output, o.outDir)
		if err := processFile(eng, ir, rc, in, out, o.resample); err != nil {
			return fmt.Errorf("%s: %w", in, err)
		}
		log.WithFields(logrus.Fields{"input": in, "output": out}).Info("processed")
		outMu.Lock()
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", out)
		outMu.Unlock()
		return nil
	})
	return errors.Join(errs...)
}

func loadIR(eng *reverb.Engine, path string, resample bool) (*irsynth.ImpulseResponse, error) {
	if !resample {
		return eng.LoadIR(path)
	}
	buf, err := codec.Read(path)
	if err != nil {
		return nil, err
	}
	if buf, err = codec.Resample(buf, eng.SampleRate()); err != nil {
		return nil, err
	}
	var right []float64
	if buf.IsStereo() {
		right = buf.Channels[1]
	}
	return irsynth.NewImpulseResponse(buf.SampleRate, buf.Channels[0], right)
}

func processFile(eng *reverb.Engine, ir *irsynth.ImpulseResponse, rc reverb.Config, in, out string, resample bool) error {
	buf, err := codec.Read(in)
	if err != nil {
		return err
	}
	if resample && buf.SampleRate != eng.SampleRate() {
		if buf, err = codec.Resample(buf, eng.SampleRate()); err != nil {
			return err
		}
	}
	wet, err := eng.ProcessIR(buf, ir, rc)
	if err != nil {
		return err
	}
	return codec.Write(out, wet)
}

func outputPath(in, output, outDir string) string {
	if output != "" {
		return output
	}
	base := strings.TrimSuffix(filepath.Base(in), filepath.Ext(in)) + ".wet.wav"
	if outDir == "" {
		return filepath.Join(filepath.Dir(in), base)
	}
	return filepath.Join(outDir, base)
}
