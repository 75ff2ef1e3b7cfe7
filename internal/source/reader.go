package source

import (
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// maxFileBytes caps how much of a local file is read into memory.
const maxFileBytes = 256 << 20

// inputReader strips a leading UTF-8 BOM and replaces invalid UTF-8 with
// U+FFFD. Spreadsheet programs on Windows emit both.
func inputReader(r io.Reader) *countingReader {
	return &countingReader{r: transform.NewReader(r, unicode.UTF8BOM.NewDecoder())}
}

// countingReader tracks bytes read so oversized inputs fail instead of
// exhausting memory.
type countingReader struct {
	r     io.Reader
	n     int64
	limit int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	if c.limit > 0 && c.n > c.limit {
		return n, errInputTooLarge
	}
	return n, err
}
