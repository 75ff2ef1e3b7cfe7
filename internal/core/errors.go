package core

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyInput is returned when an export is given no records.
	ErrEmptyInput = errors.New("no data to export")

	// ErrUnsupportedFormat is returned for unknown format names.
	ErrUnsupportedFormat = errors.New("unsupported export format")

	// ErrNoSink is returned when an Exporter has nowhere to deliver.
	ErrNoSink = errors.New("no sink configured")

	// ErrUnknownPreset is returned when a column preset key is not registered.
	ErrUnknownPreset = errors.New("unknown preset")
)

// ExportError describes a failed export attempt.
type ExportError struct {
	Format      ExportFormat
	RecordCount int
	Cause       error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export %s (%d records): %v", e.Format, e.RecordCount, e.Cause)
}

func (e *ExportError) Unwrap() error {
	return e.Cause
}

func exportError(format ExportFormat, n int, cause error) error {
	return &ExportError{Format: format, RecordCount: n, Cause: cause}
}
