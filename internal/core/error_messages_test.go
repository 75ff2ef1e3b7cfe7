package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    string
		wantMessage string
	}{
		{
			name:        "nil error returns empty",
			err:         nil,
			wantCode:    "",
			wantMessage: "",
		},
		{
			name:        "empty input through export error",
			err:         &ExportError{Format: FormatCSV, Cause: ErrEmptyInput},
			wantCode:    "EXP001",
			wantMessage: "There are no records to export",
		},
		{
			name:        "unsupported format",
			err:         fmt.Errorf("%w: %q", ErrUnsupportedFormat, "docx"),
			wantCode:    "EXP002",
			wantMessage: "The requested export format is not available",
		},
		{
			name:        "limiter rejection",
			err:         ErrTooManyExports,
			wantCode:    "EXP003",
			wantMessage: "System is busy processing other exports",
		},
		{
			name:        "unknown preset",
			err:         fmt.Errorf("%w: widgets", ErrUnknownPreset),
			wantCode:    "EXP005",
			wantMessage: "No column preset with that name",
		},
		{
			name:        "closed limiter",
			err:         ErrExportsClosed,
			wantCode:    "EXP008",
			wantMessage: "The server is restarting and not taking exports",
		},
		{
			name:        "manifest job",
			err:         errors.New(`invalid manifest job 2 (line 9): column mapping: "x" must map to a string`),
			wantCode:    "EXP007",
			wantMessage: "A batch job could not be read from the manifest",
		},
		{
			name:        "connection refused maps correctly",
			err:         errors.New("dial tcp: connection refused"),
			wantCode:    "DB001",
			wantMessage: "Unable to connect to database",
		},
		{
			name:        "missing relation",
			err:         errors.New(`ERROR: relation "products" does not exist (SQLSTATE 42P01)`),
			wantCode:    "DB004",
			wantMessage: "The source table does not exist",
		},
		{
			name:        "deadline before generic timeout",
			err:         errors.New("query rows: context deadline exceeded"),
			wantCode:    "REQ002",
			wantMessage: "Request timed out",
		},
		{
			name:        "rate limit maps correctly",
			err:         errors.New("rate limit exceeded"),
			wantCode:    "RATE001",
			wantMessage: "Too many requests",
		},
		{
			name:        "unknown error returns default",
			err:         errors.New("some random internal error"),
			wantCode:    "ERR000",
			wantMessage: "An unexpected error occurred",
		},
		{
			name:        "case insensitive matching",
			err:         errors.New("NO DATA TO EXPORT"),
			wantCode:    "EXP001",
			wantMessage: "There are no records to export",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
			if got.Message != tt.wantMessage {
				t.Errorf("MapError() message = %q, want %q", got.Message, tt.wantMessage)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	result := FormatUserError(ErrEmptyInput)

	expected := "There are no records to export (Code: EXP001). Adjust your filters or select some rows first"
	if result != expected {
		t.Errorf("FormatUserError() = %q, want %q", result, expected)
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error is not user facing", nil, false},
		{"known error is user facing", ErrUnsupportedFormat, true},
		{"unknown error is not user facing", errors.New("random internal error xyz"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUserFacing(tt.err); got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExportError(t *testing.T) {
	err := exportError(FormatCSV, 3, ErrNoSink)

	want := "export csv (3 records): no sink configured"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	var exportErr *ExportError
	if !errors.As(err, &exportErr) {
		t.Fatal("errors.As(*ExportError) = false")
	}
	if exportErr.RecordCount != 3 {
		t.Errorf("RecordCount = %d, want 3", exportErr.RecordCount)
	}
}
