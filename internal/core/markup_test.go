package core

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestRenderTable_Empty(t *testing.T) {
	if got := RenderTable(nil, []ExportColumn{{Key: "a", Header: "A"}}); got != "<table></table>" {
		t.Errorf("RenderTable(nil) = %q, want <table></table>", got)
	}
}

func TestRenderTable(t *testing.T) {
	columns := []ExportColumn{
		{Key: "name", Header: "Name"},
		{Key: "price", Header: "Price", Align: AlignRight},
	}
	rows := []Record{
		NewRecord(Field{"Name", String("Widget")}, Field{"Price", String("$1.00")}),
		NewRecord(Field{"Name", String("<script>alert(1)</script>")}),
	}

	got := RenderTable(rows, columns)

	checks := []string{
		`<table style="width: 100%; border-collapse: collapse; font-family: Arial, sans-serif;">`,
		`<tr style="background-color: #f8f9fa;">`,
		`<th style="padding: 12px; text-align: left; border: 1px solid #dee2e6;">Name</th>`,
		`<th style="padding: 12px; text-align: right; border: 1px solid #dee2e6;">Price</th>`,
		`<tr style="background-color: #ffffff;"><td style="padding: 8px; text-align: left; border: 1px solid #dee2e6;">Widget</td>`,
		`&lt;script&gt;alert(1)&lt;/script&gt;`,
		`</tbody></table>`,
	}
	for _, want := range checks {
		if !strings.Contains(got, want) {
			t.Errorf("RenderTable() missing %q\n%s", want, got)
		}
	}

	if strings.Contains(got, "<script>") {
		t.Error("RenderTable() emitted unescaped markup")
	}
	if n := strings.Count(got, "<tr "); n != 3 {
		t.Errorf("row count = %d, want 3 (header + 2)", n)
	}
	if n := strings.Count(got, "<td "); n != 4 {
		t.Errorf("cell count = %d, want 4", n)
	}
}

func TestRenderTable_AlternatesRows(t *testing.T) {
	columns := []ExportColumn{{Key: "n", Header: "N"}}
	rows := []Record{
		NewRecord(Field{"N", String("1")}),
		NewRecord(Field{"N", String("2")}),
		NewRecord(Field{"N", String("3")}),
	}

	got := RenderTable(rows, columns)
	body := got[strings.Index(got, "<tbody>"):]

	if n := strings.Count(body, "#ffffff"); n != 2 {
		t.Errorf("white rows = %d, want 2", n)
	}
	if n := strings.Count(body, "#f8f9fa"); n != 1 {
		t.Errorf("shaded rows = %d, want 1", n)
	}
}

func TestPrintDocument(t *testing.T) {
	table := RenderTable([]Record{NewRecord(Field{"A", String("x")})}, []ExportColumn{{Key: "a", Header: "A"}})
	doc := PrintDocument("Q1 <report>.pdf", table)

	if !strings.HasPrefix(doc, "<!doctype html><html><head>") {
		t.Errorf("PrintDocument() = %q, want a standalone document", doc[:min(len(doc), 40)])
	}
	for _, want := range []string{
		`<meta charset="utf-8">`,
		"<title>Q1 &lt;report&gt;.pdf</title>",
		"body { margin: 20px; }",
		"@media print { body { margin: 0; } }",
		`onload="window.print()"`,
		table,
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("PrintDocument() missing %q", want)
		}
	}
}

func TestTableComponent_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rows := []Record{NewRecord(Field{"A", String("x")})}
	err := TableComponent(rows, []ExportColumn{{Key: "a", Header: "A"}}).Render(ctx, io.Discard)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Render() error = %v, want context.Canceled", err)
	}
}

func TestCellStyle(t *testing.T) {
	tests := []struct {
		align Align
		want  string
	}{
		{"", "padding: 8px; text-align: left; border: 1px solid #dee2e6;"},
		{AlignCenter, "padding: 8px; text-align: center; border: 1px solid #dee2e6;"},
		{"justify", "padding: 8px; text-align: left; border: 1px solid #dee2e6;"},
	}
	for _, tt := range tests {
		if got := cellStyle("8px", ExportColumn{Align: tt.align}); got != tt.want {
			t.Errorf("cellStyle(%q) = %q, want %q", tt.align, got, tt.want)
		}
	}
}
