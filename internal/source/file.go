package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/JonMunkholm/tabexport/internal/core"
)

var errInputTooLarge = errors.New("input too large")

// File reads records from a local .json or .csv file.
type File struct {
	Path string
	// NoHeader treats the first CSV row as data. Columns become column1..N.
	NoHeader bool
}

// Records implements core.Source.
func (f File) Records(ctx context.Context) ([]core.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fh, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("read file %s: %w", f.Path, err)
	}
	defer fh.Close()

	in := inputReader(fh)
	in.limit = maxFileBytes
	data, err := io.ReadAll(in)
	if err != nil {
		return nil, fmt.Errorf("read file %s: %w", f.Path, err)
	}

	var records []core.Record
	switch ext := strings.ToLower(filepath.Ext(f.Path)); ext {
	case ".json":
		records, err = decodeRecords(data)
	case ".csv":
		records, err = core.DecodeCSV(trimLineEnd(string(data)), !f.NoHeader)
	default:
		return nil, fmt.Errorf("read file %s: unsupported extension %q", f.Path, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("read file %s: %w", f.Path, err)
	}
	return records, nil
}

// trimLineEnd drops the newline most tools end a file with, which would
// otherwise decode as an empty row in single-column files.
func trimLineEnd(text string) string {
	if t, ok := strings.CutSuffix(text, "\r\n"); ok {
		return t
	}
	return strings.TrimSuffix(text, "\n")
}
