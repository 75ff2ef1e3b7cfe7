package core

import (
	"reflect"
	"testing"
	"time"
)

func names(records []Record, key string) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Value(key).String()
	}
	return out
}

func TestSortRecords(t *testing.T) {
	tests := []struct {
		name  string
		input []Value
		order SortOrder
		want  []string
	}{
		{
			name:  "strings collate case-insensitively",
			input: []Value{String("cherry"), String("Banana"), String("apple")},
			order: SortAsc,
			want:  []string{"apple", "Banana", "cherry"},
		},
		{
			name:  "numbers numerically",
			input: []Value{Number(10), Number(9), Number(100)},
			order: SortAsc,
			want:  []string{"9", "10", "100"},
		},
		{
			name:  "descending",
			input: []Value{Number(1), Number(3), Number(2)},
			order: SortDesc,
			want:  []string{"3", "2", "1"},
		},
		{
			name: "dates by instant",
			input: []Value{
				Date(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)),
				Date(time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)),
			},
			order: SortAsc,
			want:  []string{"2023-12-31T00:00:00Z", "2024-03-01T00:00:00Z"},
		},
		{
			name:  "null sorts as empty text",
			input: []Value{String("b"), Null(), String("a")},
			order: SortAsc,
			want:  []string{"", "a", "b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := make([]Record, len(tt.input))
			for i, v := range tt.input {
				records[i] = NewRecord(Field{"k", v})
			}

			got := names(SortRecords(records, "k", tt.order), "k")
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SortRecords() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSortRecords_StableAndPure(t *testing.T) {
	records := []Record{
		NewRecord(Field{"group", String("b")}, Field{"id", Number(1)}),
		NewRecord(Field{"group", String("a")}, Field{"id", Number(2)}),
		NewRecord(Field{"group", String("b")}, Field{"id", Number(3)}),
		NewRecord(Field{"group", String("a")}, Field{"id", Number(4)}),
	}

	got := names(SortRecords(records, "group", SortAsc), "id")
	if want := []string{"2", "4", "1", "3"}; !reflect.DeepEqual(got, want) {
		t.Errorf("ids = %v, want %v", got, want)
	}

	got = names(SortRecords(records, "group", SortDesc), "id")
	if want := []string{"1", "3", "2", "4"}; !reflect.DeepEqual(got, want) {
		t.Errorf("desc ids = %v, want %v", got, want)
	}

	if orig := names(records, "id"); !reflect.DeepEqual(orig, []string{"1", "2", "3", "4"}) {
		t.Errorf("input reordered: %v", orig)
	}
}

func TestHumanizeBytes(t *testing.T) {
	tests := []struct {
		n    float64
		want string
	}{
		{0, "0 B"},
		{-5, "0 B"},
		{1, "1 B"},
		{1023, "1023 B"},
		{1024, "1 KB"},
		{1536, "1.5 KB"},
		{1100, "1.07 KB"},
		{1048576, "1 MB"},
		{3.25 * 1024 * 1024 * 1024, "3.25 GB"},
		{2 * 1024 * 1024 * 1024 * 1024, "2048 GB"},
		{0.5, "0.5 B"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := HumanizeBytes(tt.n); got != tt.want {
				t.Errorf("HumanizeBytes(%v) = %q, want %q", tt.n, got, tt.want)
			}
		})
	}
}

func TestEstimateSize(t *testing.T) {
	records := []Record{NewRecord(Field{"a", String("b")})} // [{"a":"b"}] is 11 bytes

	tests := []struct {
		format ExportFormat
		want   float64
	}{
		{FormatCSV, 7.7},
		{FormatExcel, 8.8},
		{FormatJSON, 11},
		{FormatPDF, 16.5},
		{ExportFormat("xml"), 11},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			got := EstimateSize(records, tt.format)
			if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("EstimateSize(%s) = %v, want %v", tt.format, got, tt.want)
			}
		})
	}
}
