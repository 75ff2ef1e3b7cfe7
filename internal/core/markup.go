package core

//go:generate go run github.com/a-h/templ/cmd/templ generate -f table.templ

import (
	"bytes"
	"context"
	"fmt"
)

const (
	tableStyle     = "width: 100%; border-collapse: collapse; font-family: Arial, sans-serif;"
	headerRowStyle = "background-color: #f8f9fa;"
	evenRowColor   = "#ffffff"
	oddRowColor    = "#f8f9fa"
)

// RenderTable returns the markup of TableComponent as a string. Cells are
// looked up by column header, so rows are expected to be the output of
// Project.
func RenderTable(rows []Record, columns []ExportColumn) string {
	var b bytes.Buffer
	// Writes to a bytes.Buffer do not fail.
	_ = TableComponent(rows, columns).Render(context.Background(), &b)
	return b.String()
}

// PrintDocument returns the markup of PrintComponent as a string. table is
// inserted without escaping.
func PrintDocument(title, table string) string {
	var b bytes.Buffer
	_ = PrintComponent(title, table).Render(context.Background(), &b)
	return b.String()
}

func cellStyle(padding string, col ExportColumn) string {
	return fmt.Sprintf("padding: %s; text-align: %s; border: 1px solid #dee2e6;", padding, alignOf(col))
}

func rowStyle(i int) string {
	color := evenRowColor
	if i%2 == 1 {
		color = oddRowColor
	}
	return "background-color: " + color + ";"
}

func alignOf(col ExportColumn) Align {
	switch col.Align {
	case AlignCenter, AlignRight:
		return col.Align
	}
	return AlignLeft
}
