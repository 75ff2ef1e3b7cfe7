package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/tabexport/internal/core"
)

var previewFlags struct {
	input      inputFlags
	exclude    []string
	mapping    []string
	dateFormat string
}

var previewCmd = &cobra.Command{
	Use:   "preview [file]",
	Short: "Show row and column counts, estimated size and the first rows",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runPreview,
}

func init() {
	rootCmd.AddCommand(previewCmd)

	addInputFlags(previewCmd, &previewFlags.input)
	previewCmd.Flags().StringSliceVar(&previewFlags.exclude, "exclude", nil, "fields to drop")
	previewCmd.Flags().StringArrayVar(&previewFlags.mapping, "map", nil, "rename a field: from=to (repeatable)")
	previewCmd.Flags().StringVar(&previewFlags.dateFormat, "date-format", "", "MM/dd/yyyy, dd/MM/yyyy or yyyy-MM-dd")
}

func runPreview(cmd *cobra.Command, args []string) error {
	mapping, err := parseMappings(previewFlags.mapping)
	if err != nil {
		return err
	}

	records, err := readInput(cmd.Context(), previewFlags.input, args)
	if err != nil {
		return err
	}

	policy, err := cfg.FormatPolicy()
	if err != nil {
		return err
	}

	preview := core.PreviewRecords(records, core.ExportConfig{
		DateFormat:     previewFlags.dateFormat,
		ExcludeColumns: previewFlags.exclude,
		ColumnMapping:  mapping,
	}, core.NewFormatter(policy))

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(preview)
}
