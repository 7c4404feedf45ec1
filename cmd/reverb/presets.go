package main

import (
	"encoding/json"
	"fmt"
	"math"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newPresetsCmd(g *globalOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "presets",
		Short: "List the available presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			bank, err := g.presets()
			if err != nil {
				return fmt.Errorf("preset bank: %w", err)
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(bank)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tTYPE\tDECAY\tDAMPING\tSIZE\tWET/DRY\tPRE-DELAY")
			for _, p := range bank {
				fmt.Fprintf(tw, "%s\t%s\t%.2fs\t%.2f\t%.2f\t%.2f\t%.0fms\n",
					p.Name, p.IR.Type, p.IR.DecaySeconds, p.IR.Damping, p.IR.Size,
					p.Mix.WetDry, math.Max(p.Mix.PreDelayMs, p.IR.PreDelayMs))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the bank as JSON")
	return cmd
}
