package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/tabexport/internal/core"
)

var presetsCmd = &cobra.Command{
	Use:   "presets [key]",
	Short: "List column presets, or show one preset's columns",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runPresets,
}

func init() {
	rootCmd.AddCommand(presetsCmd)
}

func runPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	defer w.Flush()

	if len(args) == 1 {
		p, err := core.MustPreset(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(w, "KEY\tHEADER\tFORMAT\tWIDTH")
		for _, c := range p.Columns {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", c.Key, c.Header, c.Format, c.Width)
		}
		return nil
	}

	fmt.Fprintln(w, "KEY\tGROUP\tLABEL\tCOLUMNS")
	for _, p := range core.AllPresets() {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", p.Key, p.Group, p.Label, len(p.Columns))
	}
	return nil
}
