package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/tabexport/internal/core"
	"github.com/JonMunkholm/tabexport/internal/sink"
	"github.com/JonMunkholm/tabexport/internal/source"
)

// inputFlags select where records come from.
type inputFlags struct {
	noHeader bool
	remote   string
	path     string
	params   []string
	headers  []string
}

var exportFlags struct {
	input      inputFlags
	format     string
	out        string
	filename   string
	preset     string
	exclude    []string
	mapping    []string
	dateFormat string
	noHeaders  bool
	filters    []string
	sortBy     string
	desc       bool
}

var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Export records from a file or HTTP endpoint",
	Long: `Export records from a .json or .csv file, or from an HTTP endpoint with
--remote, into the output directory.

Filters use key=op:value with op one of contains, eq, in or between.
A bare key=value is a case-insensitive contains filter.

Examples:
  # CSV with renamed and dropped columns
  exportctl export orders.json --map orderNumber="Order #" --exclude internalId

  # Printable document of the products preset
  exportctl export products.csv --preset products --format pdf

  # Only shipped orders, newest first
  exportctl export orders.json --filter status=eq:shipped --sort orderDate --desc`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	f := exportCmd.Flags()
	addInputFlags(exportCmd, &exportFlags.input)
	f.StringVarP(&exportFlags.format, "format", "f", "csv", "output format: csv, excel, json, pdf")
	f.StringVarP(&exportFlags.out, "out", "o", ".", "output directory")
	f.StringVar(&exportFlags.filename, "filename", "", "output filename (default depends on format)")
	f.StringVar(&exportFlags.preset, "preset", "", "project onto a column preset")
	f.StringSliceVar(&exportFlags.exclude, "exclude", nil, "fields to drop")
	f.StringArrayVar(&exportFlags.mapping, "map", nil, "rename a field: from=to (repeatable)")
	f.StringVar(&exportFlags.dateFormat, "date-format", "", "MM/dd/yyyy, dd/MM/yyyy or yyyy-MM-dd")
	f.BoolVar(&exportFlags.noHeaders, "no-headers", false, "omit the CSV header row")
	f.StringArrayVar(&exportFlags.filters, "filter", nil, "filter: key=op:value (repeatable)")
	f.StringVar(&exportFlags.sortBy, "sort", "", "sort by field")
	f.BoolVar(&exportFlags.desc, "desc", false, "sort descending")
}

func addInputFlags(cmd *cobra.Command, in *inputFlags) {
	f := cmd.Flags()
	f.BoolVar(&in.noHeader, "no-header", false, "first CSV row is data")
	f.StringVar(&in.remote, "remote", "", "base URL of an HTTP JSON endpoint")
	f.StringVar(&in.path, "path", "/", "endpoint path used with --remote")
	f.StringArrayVar(&in.params, "param", nil, "query parameter for --remote: key=value (repeatable)")
	f.StringArrayVar(&in.headers, "header", nil, "request header for --remote: key=value (repeatable)")
}

// readInput loads records from the remote endpoint or the single file argument.
func readInput(ctx context.Context, in inputFlags, args []string) ([]core.Record, error) {
	if in.remote != "" {
		if len(args) > 0 {
			return nil, fmt.Errorf("a file argument cannot be combined with --remote")
		}
		params, err := parsePairs(in.params)
		if err != nil {
			return nil, fmt.Errorf("--param: %w", err)
		}
		headers, err := parsePairs(in.headers)
		if err != nil {
			return nil, fmt.Errorf("--header: %w", err)
		}

		opts := []source.HTTPOption{source.WithRetries(2)}
		for k, v := range headers {
			opts = append(opts, source.WithHeader(k, v))
		}
		return source.NewHTTP(in.remote, opts...).Fetch(ctx, in.path, params)
	}

	if len(args) != 1 {
		return nil, fmt.Errorf("an input file or --remote is required")
	}
	return source.File{Path: args[0], NoHeader: in.noHeader}.Records(ctx)
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	format, err := core.ParseFormat(exportFlags.format)
	if err != nil {
		return err
	}

	exportCfg, err := buildExportConfig()
	if err != nil {
		return err
	}

	filters, err := parseFilterFlags(exportFlags.filters)
	if err != nil {
		return err
	}

	var columns []core.ExportColumn
	if exportFlags.preset != "" {
		p, err := core.MustPreset(exportFlags.preset)
		if err != nil {
			return err
		}
		columns = p.Columns
	}

	records, err := readInput(ctx, exportFlags.input, args)
	if err != nil {
		return err
	}

	policy, err := cfg.FormatPolicy()
	if err != nil {
		return err
	}

	records = core.ApplyFilters(records, filters)
	if exportFlags.sortBy != "" {
		order := core.SortAsc
		if exportFlags.desc {
			order = core.SortDesc
		}
		records = core.SortRecordsLocale(records, exportFlags.sortBy, order, policy.Locale)
	}

	dir, err := sink.NewDir(exportFlags.out)
	if err != nil {
		return err
	}
	out := &reportingSink{dir: dir, w: cmd.OutOrStdout()}
	exporter := core.New(out,
		core.WithPolicy(policy),
		core.WithPresenter(out),
		core.WithLogger(slog.Default()),
	)

	if columns != nil {
		return exporter.ExportAdvanced(ctx, records, columns, format, exportCfg)
	}
	return exporter.Export(ctx, format, records, exportCfg)
}

func buildExportConfig() (core.ExportConfig, error) {
	mapping, err := parseMappings(exportFlags.mapping)
	if err != nil {
		return core.ExportConfig{}, err
	}

	exportCfg := core.ExportConfig{
		Filename:       exportFlags.filename,
		DateFormat:     exportFlags.dateFormat,
		ExcludeColumns: exportFlags.exclude,
		ColumnMapping:  mapping,
	}
	if exportFlags.noHeaders {
		headers := false
		exportCfg.IncludeHeaders = &headers
	}
	return exportCfg, nil
}

// parseMappings reads from=to pairs in flag order.
func parseMappings(pairs []string) ([]core.Mapping, error) {
	mapping := make([]core.Mapping, 0, len(pairs))
	for _, p := range pairs {
		from, to, ok := strings.Cut(p, "=")
		if !ok || from == "" {
			return nil, fmt.Errorf("--map %q: want from=to", p)
		}
		mapping = append(mapping, core.Mapping{From: from, To: to})
	}
	return mapping, nil
}

// parseFilterFlags reads key=op:value filters.
func parseFilterFlags(specs []string) (core.Filters, error) {
	filters := make(core.Filters, len(specs))
	for _, spec := range specs {
		key, expr, ok := strings.Cut(spec, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid filter %q: want key=op:value", spec)
		}
		f, err := core.ParseFilterParam(expr)
		if err != nil {
			return nil, fmt.Errorf("invalid filter %q: %w", spec, err)
		}
		filters[key] = f
	}
	return filters, nil
}

func parsePairs(pairs []string) (map[string]string, error) {
	m := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("%q: want key=value", p)
		}
		m[k] = v
	}
	return m, nil
}

// reportingSink writes into a directory and prints each file it wrote.
type reportingSink struct {
	dir *sink.Dir
	w   io.Writer
}

func (r *reportingSink) Deliver(ctx context.Context, a core.Artifact) error {
	if err := r.dir.Deliver(ctx, a); err != nil {
		return err
	}
	fmt.Fprintf(r.w, "wrote %s (%s)\n", a.Filename, core.HumanizeBytes(float64(len(a.Content))))
	return nil
}

func (r *reportingSink) Present(ctx context.Context, title, document string) error {
	if err := r.dir.Present(ctx, title, document); err != nil {
		return err
	}
	name := strings.TrimSuffix(title, filepath.Ext(title)) + ".html"
	fmt.Fprintf(r.w, "wrote %s (%s)\n", name, core.HumanizeBytes(float64(len(document))))
	return nil
}
