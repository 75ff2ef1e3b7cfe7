package core

import (
	"testing"
	"time"
)

func TestFilters_Match(t *testing.T) {
	jan15 := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	jan31 := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		filter Filter
		v      Value
		want   bool
	}{
		{"contains ignores case", Contains{Text: "WID"}, String("Blue widget"), true},
		{"contains number text", Contains{Text: "12"}, Number(3120), true},
		{"contains miss", Contains{Text: "zzz"}, String("widget"), false},
		{"contains null fails", Contains{Text: "a"}, Null(), false},
		{"contains empty passes", Contains{}, Null(), true},

		{"equals number", Equals{Value: Number(5)}, Number(5), true},
		{"equals kind mismatch", Equals{Value: Number(5)}, String("5"), false},
		{"equals bool", Equals{Value: Bool(true)}, Bool(true), true},

		{"one of hit", OneOf{Values: []Value{String("a"), String("b")}}, String("b"), true},
		{"one of miss", OneOf{Values: []Value{String("a")}}, String("c"), false},
		{"one of empty", OneOf{}, String("a"), false},

		{"range inside", DateRange{Start: jan15, End: jan31}, String("2024-01-20"), true},
		{"range start inclusive", DateRange{Start: jan15, End: jan31}, Date(jan15), true},
		{"range end inclusive", DateRange{Start: jan15, End: jan31}, String("2024-01-31"), true},
		{"range outside", DateRange{Start: jan15, End: jan31}, String("2024-02-01"), false},
		{"range unparseable", DateRange{Start: jan15, End: jan31}, String("someday"), false},
		{"range null", DateRange{Start: jan15, End: jan31}, Null(), false},
		{"range number is not a date", DateRange{Start: time.UnixMilli(0), End: jan31}, Number(15), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Match(tt.v); got != tt.want {
				t.Errorf("Match(%v) = %v, want %v", tt.v, got, tt.want)
			}
		})
	}
}

func TestApplyFilters(t *testing.T) {
	records := []Record{
		NewRecord(Field{"name", String("Red shirt")}, Field{"size", String("M")}, Field{"stock", Number(3)}),
		NewRecord(Field{"name", String("Blue shirt")}, Field{"size", String("L")}, Field{"stock", Number(0)}),
		NewRecord(Field{"name", String("Red hat")}, Field{"size", String("L")}, Field{"stock", Number(3)}),
	}

	tests := []struct {
		name    string
		filters Filters
		want    []string
	}{
		{"no filters", nil, []string{"Red shirt", "Blue shirt", "Red hat"}},
		{"nil filter skipped", Filters{"name": nil}, []string{"Red shirt", "Blue shirt", "Red hat"}},
		{"single", Filters{"name": Contains{Text: "red"}}, []string{"Red shirt", "Red hat"}},
		{"all must pass", Filters{"name": Contains{Text: "red"}, "size": OneOf{Values: []Value{String("L")}}}, []string{"Red hat"}},
		{"missing field", Filters{"color": Contains{Text: "x"}}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ApplyFilters(records, tt.filters)
			if len(got) != len(tt.want) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.want))
			}
			for i, r := range got {
				if name := r.Value("name").String(); name != tt.want[i] {
					t.Errorf("row %d = %q, want %q", i, name, tt.want[i])
				}
			}
		})
	}
}

func TestInferFilter(t *testing.T) {
	tests := []struct {
		name  string
		raw   any
		input Value
		want  bool
		isNil bool
	}{
		{name: "nil skips", raw: nil, isNil: true},
		{name: "empty string skips", raw: "", isNil: true},
		{name: "string is contains", raw: "shirt", input: String("Red Shirt"), want: true},
		{name: "number is equals", raw: float64(3), input: Number(3), want: true},
		{name: "number rejects string", raw: float64(3), input: String("3"), want: false},
		{name: "array is one of", raw: []any{"M", "L"}, input: String("L"), want: true},
		{name: "range object", raw: map[string]any{"start": "2024-01-01", "end": "2024-01-31"}, input: String("2024-01-10"), want: true},
		{name: "range missing end matches nothing", raw: map[string]any{"start": "2024-01-01"}, input: String("2024-01-10"), want: false},
		{name: "range bad bound matches nothing", raw: map[string]any{"start": "soon", "end": "later"}, input: String("2024-01-10"), want: false},
		{name: "range numeric bounds match nothing", raw: map[string]any{"start": float64(10), "end": float64(20)}, input: Number(15), want: false},
		{name: "bool is equals", raw: true, input: Bool(true), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := InferFilter(tt.raw)
			if tt.isNil {
				if f != nil {
					t.Errorf("InferFilter(%v) = %#v, want nil", tt.raw, f)
				}
				return
			}
			if f == nil {
				t.Fatalf("InferFilter(%v) = nil", tt.raw)
			}
			if got := f.Match(tt.input); got != tt.want {
				t.Errorf("Match(%v) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestApplyFilters_NumericDateRange(t *testing.T) {
	records := []Record{
		NewRecord(Field{"age", Number(5)}),
		NewRecord(Field{"age", Number(15)}),
	}

	filters, err := DecodeFilters([]byte(`{"age":{"start":10,"end":20}}`))
	if err != nil {
		t.Fatalf("DecodeFilters() error = %v", err)
	}

	if got := ApplyFilters(records, filters); len(got) != 0 {
		t.Errorf("ApplyFilters() = %v, want no records", got)
	}
}

func TestDecodeFilters(t *testing.T) {
	filters, err := DecodeFilters([]byte(`{"name":"red","stock":3,"size":["M","L"],"skip":null}`))
	if err != nil {
		t.Fatalf("DecodeFilters() error = %v", err)
	}

	r := NewRecord(Field{"name", String("Red hat")}, Field{"stock", Number(3)}, Field{"size", String("M")})
	if got := ApplyFilters([]Record{r}, filters); len(got) != 1 {
		t.Errorf("ApplyFilters() kept %d, want 1", len(got))
	}

	if _, err := DecodeFilters([]byte(`[1]`)); err == nil {
		t.Error("DecodeFilters(array) error = nil, want error")
	}
}

func TestParseFilterParam(t *testing.T) {
	tests := []struct {
		param   string
		input   Value
		want    bool
		wantErr bool
	}{
		{param: "contains:Shirt", input: String("red shirt"), want: true},
		{param: "shirt", input: String("red shirt"), want: true},
		{param: "eq:5", input: Number(5), want: true},
		{param: "eq:5", input: String("5"), want: false},
		{param: "eq:true", input: Bool(true), want: true},
		{param: "eq:Shipped", input: String("Shipped"), want: true},
		{param: "in:M, L", input: String("L"), want: true},
		{param: "in:1,2", input: Number(2), want: true},
		{param: "between:2024-01-01,2024-01-31", input: String("2024-01-31"), want: true},
		{param: "between:2024-01-01,2024-01-31", input: String("2024-02-01"), want: false},
		{param: "10:30", input: String("at 10:30"), want: true},
		{param: "between:2024-01-01", wantErr: true},
		{param: "between:soon,later", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.param, func(t *testing.T) {
			f, err := ParseFilterParam(tt.param)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseFilterParam(%q) error = nil, want error", tt.param)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseFilterParam(%q) error = %v", tt.param, err)
			}
			if got := f.Match(tt.input); got != tt.want {
				t.Errorf("Match(%v) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
