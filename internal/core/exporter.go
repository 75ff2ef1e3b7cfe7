package core

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"
)

// Default artifact names per format.
const (
	DefaultCSVFilename   = "export.csv"
	DefaultExcelFilename = "export.xlsx"
	DefaultJSONFilename  = "export.json"
	DefaultPDFFilename   = "export.pdf"
)

// Exporter runs records through the export pipeline and hands the result to
// a Sink. It holds no per-export state and is safe for concurrent use as
// long as its Sink and Presenter are.
type Exporter struct {
	sink        Sink
	presenter   Presenter
	formatter   Formatter
	logger      *slog.Logger
	observer    Observer
	concurrency int
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithPolicy sets the formatting policy.
func WithPolicy(p FormatPolicy) Option {
	return func(e *Exporter) { e.formatter = NewFormatter(p) }
}

// WithPresenter sets where printable documents are shown.
func WithPresenter(p Presenter) Option {
	return func(e *Exporter) { e.presenter = p }
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Exporter) { e.logger = l }
}

// WithObserver registers a hook called after every export attempt.
func WithObserver(o Observer) Option {
	return func(e *Exporter) { e.observer = o }
}

// WithConcurrency bounds how many batch jobs run at once. Values below 1
// run jobs one at a time.
func WithConcurrency(n int) Option {
	return func(e *Exporter) { e.concurrency = n }
}

// New returns an Exporter delivering to sink.
func New(sink Sink, opts ...Option) *Exporter {
	e := &Exporter{
		sink:        sink,
		formatter:   NewFormatter(DefaultPolicy()),
		concurrency: 1,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.concurrency < 1 {
		e.concurrency = 1
	}
	return e
}

// Formatter returns the formatter built from the exporter's policy.
func (e *Exporter) Formatter() Formatter { return e.formatter }

// ExportCSV transforms records and delivers them as CSV.
func (e *Exporter) ExportCSV(ctx context.Context, records []Record, cfg ExportConfig) error {
	return e.export(ctx, FormatCSV, records, cfg)
}

// ExportExcel delivers CSV content under the spreadsheet media type and an
// .xlsx name. Real workbook encoding is not supported.
func (e *Exporter) ExportExcel(ctx context.Context, records []Record, cfg ExportConfig) error {
	return e.export(ctx, FormatExcel, records, cfg)
}

// ExportJSON transforms records and delivers them as an indented JSON array.
func (e *Exporter) ExportJSON(ctx context.Context, records []Record, cfg ExportConfig) error {
	return e.export(ctx, FormatJSON, records, cfg)
}

// Export dispatches on format. PDF exports use one text column per field of
// the first transformed record.
func (e *Exporter) Export(ctx context.Context, format ExportFormat, records []Record, cfg ExportConfig) error {
	switch format {
	case FormatCSV, FormatExcel, FormatJSON:
		return e.export(ctx, format, records, cfg)
	case FormatPDF:
		var columns []ExportColumn
		if len(records) > 0 {
			columns = ColumnsOf(Transform(records[:1], cfg, e.formatter)[0])
		}
		_, err := e.ExportPDF(ctx, records, columns, cfg)
		return err
	}
	return exportError(format, len(records), fmt.Errorf("%w: %q", ErrUnsupportedFormat, format))
}

// Encode runs the transformer and encoder for csv, excel or json without
// delivering the result.
func (e *Exporter) Encode(format ExportFormat, records []Record, cfg ExportConfig) (Artifact, error) {
	if len(records) == 0 {
		return Artifact{}, exportError(format, 0, ErrEmptyInput)
	}

	rows := Transform(records, cfg, e.formatter)

	switch format {
	case FormatCSV:
		return Artifact{
			Content:   []byte(EncodeCSV(rows, cfg.Headers())),
			Filename:  filenameOr(cfg.Filename, DefaultCSVFilename),
			MediaType: MediaCSV,
		}, nil
	case FormatExcel:
		return Artifact{
			Content:   []byte(EncodeCSV(rows, cfg.Headers())),
			Filename:  filenameOr(cfg.Filename, DefaultExcelFilename),
			MediaType: MediaExcel,
		}, nil
	case FormatJSON:
		content, err := EncodeJSON(rows)
		if err != nil {
			return Artifact{}, exportError(format, len(records), err)
		}
		return Artifact{
			Content:   content,
			Filename:  filenameOr(cfg.Filename, DefaultJSONFilename),
			MediaType: MediaJSON,
		}, nil
	}
	return Artifact{}, exportError(format, len(records), fmt.Errorf("%w: %q", ErrUnsupportedFormat, format))
}

func (e *Exporter) export(ctx context.Context, format ExportFormat, records []Record, cfg ExportConfig) error {
	start := time.Now()

	art, err := e.Encode(format, records, cfg)
	if err == nil {
		err = e.deliver(ctx, art)
		if err != nil {
			err = exportError(format, len(records), err)
		}
	}

	e.finish(format, len(records), len(art.Content), art.Filename, err, start)
	return err
}

// ExportPDF transforms records, projects them onto columns and renders the
// printable table, which it returns. With a Presenter configured the full
// print document is presented as well.
func (e *Exporter) ExportPDF(ctx context.Context, records []Record, columns []ExportColumn, cfg ExportConfig) (string, error) {
	start := time.Now()
	if len(records) == 0 {
		err := exportError(FormatPDF, 0, ErrEmptyInput)
		e.finish(FormatPDF, 0, 0, "", err, start)
		return "", err
	}

	rows := Project(Transform(records, cfg, e.formatter), columns, cfg, e.formatter)
	table := RenderTable(rows, columns)

	return table, e.presentTable(ctx, table, len(records), cfg, start)
}

// ExportAdvanced projects records onto columns first and then exports the
// projected rows in format.
func (e *Exporter) ExportAdvanced(ctx context.Context, records []Record, columns []ExportColumn, format ExportFormat, cfg ExportConfig) error {
	projected := Project(records, columns, cfg, e.formatter)

	switch format {
	case FormatCSV, FormatExcel, FormatJSON:
		return e.export(ctx, format, projected, cfg)
	case FormatPDF:
		start := time.Now()
		if len(projected) == 0 {
			err := exportError(FormatPDF, 0, ErrEmptyInput)
			e.finish(FormatPDF, 0, 0, "", err, start)
			return err
		}
		// Rows are already keyed by header, so only the transformer runs.
		table := RenderTable(Transform(projected, cfg, e.formatter), columns)
		return e.presentTable(ctx, table, len(projected), cfg, start)
	}
	return exportError(format, len(records), fmt.Errorf("%w: %q", ErrUnsupportedFormat, format))
}

// presentTable shows the print document. Without a Presenter, ExportPDF is
// done once the table is rendered, while the document is delivered to the
// sink as HTML when one is available.
func (e *Exporter) presentTable(ctx context.Context, table string, n int, cfg ExportConfig, start time.Time) error {
	title := filenameOr(cfg.Filename, DefaultPDFFilename)
	doc := PrintDocument(title, table)

	var err error
	switch {
	case e.presenter != nil:
		err = e.presenter.Present(ctx, title, doc)
	case e.sink != nil:
		err = e.sink.Deliver(ctx, Artifact{
			Content:   []byte(doc),
			Filename:  htmlFilename(title),
			MediaType: MediaHTML,
		})
	}
	if err != nil {
		err = exportError(FormatPDF, n, err)
	}

	e.finish(FormatPDF, n, len(doc), title, err, start)
	return err
}

// ExportFiltered filters records, optionally sorts them by sortBy, and exports
// the result as csv, excel or json.
func (e *Exporter) ExportFiltered(ctx context.Context, records []Record, filters Filters, sortBy string, order SortOrder, format ExportFormat, cfg ExportConfig) error {
	switch format {
	case FormatCSV, FormatExcel, FormatJSON:
	default:
		return exportError(format, len(records), fmt.Errorf("%w: %q", ErrUnsupportedFormat, format))
	}

	selected := ApplyFilters(records, filters)
	if sortBy != "" {
		selected = SortRecordsLocale(selected, sortBy, order, e.formatter.policy().Locale)
	}
	return e.export(ctx, format, selected, cfg)
}

func (e *Exporter) deliver(ctx context.Context, a Artifact) error {
	if e.sink == nil {
		return ErrNoSink
	}
	return e.sink.Deliver(ctx, a)
}

func (e *Exporter) finish(format ExportFormat, records, size int, filename string, err error, start time.Time) {
	elapsed := time.Since(start)
	if e.observer != nil {
		e.observer.ObserveExport(format, records, size, err, elapsed)
	}

	if err != nil {
		e.logger.Warn("export failed",
			"format", format,
			"filename", filename,
			"records", records,
			"error", err,
		)
		return
	}
	e.logger.Debug("export delivered",
		"format", format,
		"filename", filename,
		"records", records,
		"bytes", size,
		"duration", elapsed,
	)
}

// EncodeJSON renders rows as a JSON array indented by two spaces. Field
// order is kept and HTML characters are not escaped.
func EncodeJSON(rows []Record) ([]byte, error) {
	if rows == nil {
		rows = []Record{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rows); err != nil {
		return nil, fmt.Errorf("encode json: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// ColumnsOf returns one text column per field of r, keyed and headed by the
// field name.
func ColumnsOf(r Record) []ExportColumn {
	keys := r.Keys()
	columns := make([]ExportColumn, len(keys))
	for i, k := range keys {
		columns[i] = ExportColumn{Key: k, Header: k, Format: ColumnText}
	}
	return columns
}

func filenameOr(name, fallback string) string {
	if strings.TrimSpace(name) == "" {
		return fallback
	}
	return name
}

func htmlFilename(name string) string {
	return strings.TrimSuffix(name, path.Ext(name)) + ".html"
}
