package core

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// ExportFormat is an output encoding.
type ExportFormat string

const (
	FormatCSV   ExportFormat = "csv"
	FormatExcel ExportFormat = "excel"
	FormatJSON  ExportFormat = "json"
	FormatPDF   ExportFormat = "pdf"
)

// ParseFormat resolves a format name. "xlsx" is accepted as an alias for excel.
func ParseFormat(s string) (ExportFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return FormatCSV, nil
	case "excel", "xlsx":
		return FormatExcel, nil
	case "json":
		return FormatJSON, nil
	case "pdf":
		return FormatPDF, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// ColumnFormat selects how a column's values are rendered.
type ColumnFormat string

const (
	ColumnText       ColumnFormat = "text"
	ColumnNumber     ColumnFormat = "number"
	ColumnDate       ColumnFormat = "date"
	ColumnCurrency   ColumnFormat = "currency"
	ColumnPercentage ColumnFormat = "percentage"
)

// Align is the horizontal alignment of a rendered column.
type Align string

const (
	AlignLeft   Align = "left"
	AlignCenter Align = "center"
	AlignRight  Align = "right"
)

// SortOrder is the direction of SortRecords.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// ExportColumn describes one output column of a projected export. Key names
// the source field and Header the output column.
type ExportColumn struct {
	Key    string       `json:"key" yaml:"key"`
	Header string       `json:"header" yaml:"header"`
	Width  int          `json:"width,omitempty" yaml:"width,omitempty"`
	Format ColumnFormat `json:"format,omitempty" yaml:"format,omitempty"`
	Align  Align        `json:"align,omitempty" yaml:"align,omitempty"`
}

// Mapping renames one source field.
type Mapping struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`
}

// ExportConfig controls the record transformer and delivery.
type ExportConfig struct {
	Filename       string    // Suggested output name; each format has a default
	SheetName      string    // Advisory only
	IncludeHeaders *bool     // nil means true
	DateFormat     string    // MM/dd/yyyy, dd/MM/yyyy, yyyy-MM-dd; anything else uses the policy default
	ExcludeColumns []string  // Field names removed before renaming
	ColumnMapping  []Mapping // Source name to output name

	// CustomFormatter runs first and receives a copy of each record.
	CustomFormatter func(Record) Record
}

// Headers reports whether a header row should be emitted.
func (c ExportConfig) Headers() bool {
	return c.IncludeHeaders == nil || *c.IncludeHeaders
}

// mappedName returns the output name for field, or field itself when unmapped.
func (c ExportConfig) mappedName(field string) string {
	for _, m := range c.ColumnMapping {
		if m.From == field && m.To != "" {
			return m.To
		}
	}
	return field
}

// Artifact is an encoded export ready for delivery.
type Artifact struct {
	Content   []byte
	Filename  string
	MediaType string
}

// Media types for each artifact kind.
const (
	MediaCSV   = "text/csv"
	MediaJSON  = "application/json"
	MediaExcel = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	MediaHTML  = "text/html"
)

// Sink receives finished artifacts.
type Sink interface {
	Deliver(ctx context.Context, a Artifact) error
}

// Presenter shows a print-ready HTML document to the user.
type Presenter interface {
	Present(ctx context.Context, title, document string) error
}

// Source supplies the records for an export. It is read once per call.
type Source interface {
	Records(ctx context.Context) ([]Record, error)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, a Artifact) error

// Deliver calls f.
func (f SinkFunc) Deliver(ctx context.Context, a Artifact) error { return f(ctx, a) }

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context) ([]Record, error)

// Records calls f.
func (f SourceFunc) Records(ctx context.Context) ([]Record, error) { return f(ctx) }

// Observer is notified after every export attempt.
type Observer interface {
	ObserveExport(format ExportFormat, records, bytes int, err error, elapsed time.Duration)
}
