package source

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/JonMunkholm/tabexport/internal/core"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFile_Records(t *testing.T) {
	ctx := context.Background()

	t.Run("json", func(t *testing.T) {
		path := writeFile(t, "data.JSON", `[{"name":"Ada","age":36}]`)

		records, err := File{Path: path}.Records(ctx)
		if err != nil {
			t.Fatalf("Records() error = %v", err)
		}
		if got := records[0].Value("age"); !got.Equal(core.Number(36)) {
			t.Errorf("age = %v, want 36", got)
		}
	})

	t.Run("csv with header", func(t *testing.T) {
		path := writeFile(t, "data.csv", "name,city\nAda,London\nAlan,\n")

		records, err := File{Path: path}.Records(ctx)
		if err != nil {
			t.Fatalf("Records() error = %v", err)
		}
		if len(records) != 2 {
			t.Fatalf("len(records) = %d, want 2", len(records))
		}
		if got := records[0].Value("city").String(); got != "London" {
			t.Errorf("city = %q, want London", got)
		}
	})

	t.Run("csv without header", func(t *testing.T) {
		path := writeFile(t, "data.csv", "Ada,London\n")

		records, err := File{Path: path, NoHeader: true}.Records(ctx)
		if err != nil {
			t.Fatalf("Records() error = %v", err)
		}
		if got := records[0].Value("column2").String(); got != "London" {
			t.Errorf("column2 = %q, want London", got)
		}
	})
}

func TestFile_Records_BOM(t *testing.T) {
	path := writeFile(t, "excel.csv", "\ufeffname,city\nAda,Z\xfcrich\n")

	records, err := File{Path: path}.Records(context.Background())
	if err != nil {
		t.Fatalf("Records() error = %v", err)
	}
	if got := records[0].Value("name").String(); got != "Ada" {
		t.Errorf("name = %q, want Ada", got)
	}
	if got := records[0].Value("city").String(); got != "Z\uFFFDrich" {
		t.Errorf("city = %q, want invalid byte replaced", got)
	}

	path = writeFile(t, "bom.json", "\ufeff[{\"a\":1}]")
	if _, err := (File{Path: path}).Records(context.Background()); err != nil {
		t.Errorf("json with BOM: error = %v", err)
	}
}

func TestFile_Records_SingleColumn(t *testing.T) {
	path := writeFile(t, "tags.csv", "tag\nred\n\nblue\r\n")

	records, err := File{Path: path}.Records(context.Background())
	if err != nil {
		t.Fatalf("Records() error = %v", err)
	}

	var got []string
	for _, r := range records {
		got = append(got, r.Value("tag").String())
	}
	if want := []string{"red", "", "blue"}; strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("tags = %q, want %q", got, want)
	}
}

func TestFile_Records_Errors(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		file File
	}{
		{"missing", File{Path: filepath.Join(t.TempDir(), "nope.json")}},
		{"unsupported extension", File{Path: writeFile(t, "data.txt", "x")}},
		{"bad json", File{Path: writeFile(t, "data.json", "{")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.file.Records(ctx)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), "read file") {
				t.Errorf("error = %v, want read file prefix", err)
			}
			if got := core.MapError(err).Code; got != "SRC002" {
				t.Errorf("MapError code = %q, want SRC002", got)
			}
		})
	}
}

func TestFile_Records_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := (File{Path: "whatever.json"}).Records(ctx); err != context.Canceled {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}
