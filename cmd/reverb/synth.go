package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-reverb/codec"
	"github.com/cwbudde/algo-reverb/irsynth"
)

type synthOptions struct {
	output string
	preset string
	seeds  irsynth.Seeds
	ir     irFlags
}

func newSynthCmd(g *globalOptions) *cobra.Command {
	o := &synthOptions{seeds: irsynth.DefaultSeeds()}
	cmd := &cobra.Command{
		Use:   "synth -o ir.wav",
		Short: "Synthesize an impulse response and write it as a stereo WAV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSynth(cmd, g, o)
		},
	}
	fs := cmd.Flags()
	fs.StringVarP(&o.output, "output", "o", "ir.wav", "Output WAV path")
	fs.StringVarP(&o.preset, "preset", "p", "room", "Preset whose IR config is the starting point")
	fs.Int64Var(&o.seeds.Early, "seed-early", o.seeds.Early, "Early reflection seed")
	fs.Int64Var(&o.seeds.Late, "seed-late", o.seeds.Late, "Late tail seed")
	fs.Int64Var(&o.seeds.Noise, "seed-noise", o.seeds.Noise, "Plate noise seed")
	o.ir.register(cmd)
	return cmd
}

func runSynth(cmd *cobra.Command, g *globalOptions, o *synthOptions) error {
	log, err := g.logger(cmd)
	if err != nil {
		return err
	}
	bank, err := g.presets()
	if err != nil {
		return fmt.Errorf("preset bank: %w", err)
	}
	cfg := irsynth.DefaultConfig()
	found := false
	for _, p := range bank {
		if p.Name == o.preset {
			cfg = p.IR
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("unknown preset %q", o.preset)
	}
	if _, err := o.ir.apply(cmd, &cfg); err != nil {
		return err
	}

	gen, err := irsynth.NewGenerator(g.sampleRate, o.seeds)
	if err != nil {
		return err
	}
	ir, err := gen.Generate(cfg)
	if err != nil {
		return err
	}
	if err := codec.Write(o.output, ir.Buffer()); err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"type":   cfg.Type,
		"decay":  cfg.DecaySeconds,
		"frames": ir.Len(),
	}).Debug("IR synthesized")

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Wrote %s\n", o.output)
	fmt.Fprintf(w, "SampleRate: %d Hz, Duration: %.3f s, Samples: %d\n",
		ir.SampleRate(), float64(ir.Len())/float64(ir.SampleRate()), ir.Len())
	fmt.Fprintf(w, "Peak: %.6f, RMS: %.6f\n", ir.Peak(), ir.RMS())
	return nil
}
