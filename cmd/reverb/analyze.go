package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-reverb/analysis"
	"github.com/cwbudde/algo-reverb/codec"
	"github.com/cwbudde/algo-reverb/irsynth"
)

type analyzeReport struct {
	Path      string             `json:"path"`
	Metrics   analysis.IRMetrics `json:"metrics"`
	Reference string             `json:"reference,omitempty"`
	Distance  *analysis.Distance `json:"distance,omitempty"`
}

func newAnalyzeCmd() *cobra.Command {
	var (
		reference string
		asJSON    bool
	)
	cmd := &cobra.Command{
		Use:   "analyze ir.wav",
		Short: "Measure an impulse response and optionally compare it to a reference",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ir, err := readIR(args[0], 0)
			if err != nil {
				return err
			}
			m, err := analysis.Measure(ir)
			if err != nil {
				return err
			}
			rep := analyzeReport{Path: args[0], Metrics: m}
			if reference != "" {
				ref, err := readIR(reference, ir.SampleRate())
				if err != nil {
					return fmt.Errorf("reference: %w", err)
				}
				d := analysis.CompareIR(ref, ir)
				rep.Reference = reference
				rep.Distance = &d
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(rep)
			}
			printReport(cmd, rep)
			return nil
		},
	}
	cmd.Flags().StringVar(&reference, "reference", "", "Reference IR to compare against (resampled to the IR rate)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")
	return cmd
}

// readIR decodes an IR file, resampling it to rate when rate is positive.
func readIR(path string, rate int) (*irsynth.ImpulseResponse, error) {
	buf, err := codec.Read(path)
	if err != nil {
		return nil, err
	}
	if rate > 0 {
		if buf, err = codec.Resample(buf, rate); err != nil {
			return nil, err
		}
	}
	var right []float64
	if buf.IsStereo() {
		right = buf.Channels[1]
	}
	return irsynth.NewImpulseResponse(buf.SampleRate, buf.Channels[0], right)
}

func printReport(cmd *cobra.Command, rep analyzeReport) {
	w := cmd.OutOrStdout()
	m := rep.Metrics
	fmt.Fprintf(w, "%s: %d Hz, %.3f s, %d samples\n", rep.Path, m.SampleRate, m.DurationS, m.Frames)
	fmt.Fprintf(w, "Peak: %.4f  RMS: %.4f  Pre-delay: %.1f ms\n", m.Peak, m.RMS, m.PreDelayMs)
	fmt.Fprintf(w, "RT60: %.3f s  EDT: %.3f s  C50: %.1f dB  C80: %.1f dB  D50: %.2f  Ts: %.1f ms\n",
		m.RT60, m.EDT, m.C50, m.C80, m.D50, m.CenterTimeS*1000)
	fmt.Fprintf(w, "Interchannel correlation: %.3f\n", m.Interchannel)
	for _, b := range m.Bands {
		fmt.Fprintf(w, "  %-8s %6.0f-%-6.0f Hz %7.1f dB\n", b.Name, b.LoHz, b.HiHz, b.EnergyDB)
	}
	if rep.Distance != nil {
		d := rep.Distance
		fmt.Fprintf(w, "Compared to %s: score=%.4f similarity=%.2f%% lag=%d\n",
			rep.Reference, d.Score, d.Similarity*100, d.LagSamples)
	}
}
