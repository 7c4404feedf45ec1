package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-reverb/preset"
	"github.com/cwbudde/algo-reverb/reverb"
)

type globalOptions struct {
	logLevel   string
	sampleRate int
	bank       string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "reverb: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	g := &globalOptions{}
	root := &cobra.Command{
		Use:           "reverb",
		Short:         "Procedural convolution reverb",
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}
	root.SetHelpCommand(&cobra.Command{Hidden: true})

	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "warn",
		"Log level: debug, info, warn or error")
	root.PersistentFlags().IntVarP(&g.sampleRate, "sample-rate", "s", 48000,
		"Engine sample rate in Hz (input files must match unless resampled)")
	root.PersistentFlags().StringVar(&g.bank, "bank", "",
		"Optional preset bank file (.json, .yaml) applied over the built-in presets")

	root.AddCommand(
		newProcessCmd(g),
		newSynthCmd(g),
		newPresetsCmd(g),
		newAnalyzeCmd(),
	)
	return root
}

func (g *globalOptions) logger(cmd *cobra.Command) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(g.logLevel)
	if err != nil {
		return nil, err
	}
	log := logrus.New()
	log.SetOutput(cmd.ErrOrStderr())
	log.SetLevel(lvl)
	return log, nil
}

func (g *globalOptions) presets() ([]reverb.Preset, error) {
	if g.bank == "" {
		return reverb.BuiltinPresets(), nil
	}
	return preset.Load(g.bank)
}

func (g *globalOptions) engine(cmd *cobra.Command) (*reverb.Engine, *logrus.Logger, error) {
	log, err := g.logger(cmd)
	if err != nil {
		return nil, nil, err
	}
	bank, err := g.presets()
	if err != nil {
		return nil, nil, fmt.Errorf("preset bank: %w", err)
	}
	eng, err := reverb.New(g.sampleRate, reverb.WithLogger(log), reverb.WithPresets(bank))
	if err != nil {
		return nil, nil, err
	}
	return eng, log, nil
}
