package core

import (
	"fmt"
	"strconv"
	"strings"
)

// utf8BOM is stripped from decoded input.
const utf8BOM = "\ufeff"

// EncodeCSV renders rows as CSV text. The header comes from the first row's
// keys; every row is read by those keys, so missing fields render empty.
// Rows are separated by "\n" with no trailing newline. A cell is quoted only
// when it contains a comma, a double quote or a newline.
func EncodeCSV(rows []Record, includeHeaders bool) string {
	if len(rows) == 0 {
		return ""
	}

	headers := rows[0].Keys()
	lines := make([]string, 0, len(rows)+1)

	if includeHeaders {
		cells := make([]string, len(headers))
		for i, h := range headers {
			cells[i] = escapeCSVCell(h)
		}
		lines = append(lines, strings.Join(cells, ","))
	}

	for _, row := range rows {
		cells := make([]string, len(headers))
		for i, h := range headers {
			cells[i] = escapeCSVCell(row.Value(h).String())
		}
		lines = append(lines, strings.Join(cells, ","))
	}

	return strings.Join(lines, "\n")
}

func escapeCSVCell(s string) string {
	if !strings.ContainsAny(s, ",\"\n") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// DecodeCSV parses CSV text into records of string values. Without a header
// row the fields are named column1, column2, and so on. Short rows leave the
// missing fields null.
//
// It reads the dialect EncodeCSV writes: a blank line is a row holding one
// empty cell, so single-column exports keep their empty values. Blank lines
// are skipped when there is more than one column. Quoted cells keep their
// bytes as written, including "\r\n"; outside quotes "\r\n" ends a row.
func DecodeCSV(text string, hasHeader bool) ([]Record, error) {
	text = strings.TrimPrefix(text, utf8BOM)
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	rows, err := splitCSV(text)
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	var headers []string
	if hasHeader {
		headers = make([]string, len(rows[0]))
		for i, h := range rows[0] {
			headers[i] = strings.TrimSpace(h)
		}
		rows = rows[1:]
	}

	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		if len(headers) > 1 && len(row) == 1 && row[0] == "" {
			continue
		}

		for len(headers) < len(row) {
			headers = append(headers, "column"+strconv.Itoa(len(headers)+1))
		}

		var rec Record
		for i, h := range headers {
			if i < len(row) {
				rec.Set(h, String(row[i]))
			} else {
				rec.Set(h, Null())
			}
		}
		records = append(records, rec)
	}

	return records, nil
}

// splitCSV splits text into rows of cells. Every "\n" outside quotes ends a
// row, so text ending in a newline yields a final row with one empty cell.
func splitCSV(text string) ([][]string, error) {
	var (
		rows [][]string
		row  []string
		cell strings.Builder
		line = 1
		i    int
	)

	for {
		if i < len(text) && text[i] == '"' {
			start := line
			i++
			for {
				j := strings.IndexByte(text[i:], '"')
				if j < 0 {
					return nil, fmt.Errorf("line %d: unterminated quoted field", start)
				}
				cell.WriteString(text[i : i+j])
				line += strings.Count(text[i:i+j], "\n")
				i += j + 1
				if i < len(text) && text[i] == '"' {
					cell.WriteByte('"')
					i++
					continue
				}
				break
			}
			if i < len(text) && text[i] != ',' && text[i] != '\n' && !strings.HasPrefix(text[i:], "\r\n") {
				return nil, fmt.Errorf("line %d: unexpected %q after quoted field", line, text[i])
			}
		} else {
			j := strings.IndexAny(text[i:], ",\n")
			if j < 0 {
				j = len(text) - i
			}
			value := text[i : i+j]
			if i+j < len(text) && text[i+j] == '\n' {
				value = strings.TrimSuffix(value, "\r")
			}
			cell.WriteString(value)
			i += j
		}

		row = append(row, cell.String())
		cell.Reset()

		if i >= len(text) {
			return append(rows, row), nil
		}
		if text[i] == '\r' {
			i++
		}
		if text[i] == '\n' {
			rows = append(rows, row)
			row = nil
			line++
		}
		i++
	}
}
