package core

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Filter decides whether a single field value passes.
type Filter interface {
	Match(v Value) bool
}

// Filters maps field names to the filter applied to that field.
// A nil Filter always passes.
type Filters map[string]Filter

// Contains matches values whose text contains Text, ignoring case.
// An empty Text matches everything; a null value never matches.
type Contains struct {
	Text string
}

func (c Contains) Match(v Value) bool {
	if c.Text == "" {
		return true
	}
	if v.IsNull() {
		return false
	}
	return strings.Contains(strings.ToLower(v.String()), strings.ToLower(c.Text))
}

// Equals matches values of the same kind and payload.
type Equals struct {
	Value Value
}

func (e Equals) Match(v Value) bool { return v.Equal(e.Value) }

// OneOf matches values equal to any of Values.
type OneOf struct {
	Values []Value
}

func (o OneOf) Match(v Value) bool {
	for _, candidate := range o.Values {
		if v.Equal(candidate) {
			return true
		}
	}
	return false
}

// DateRange matches values that parse as a date within [Start, End].
type DateRange struct {
	Start time.Time
	End   time.Time
}

func (d DateRange) Match(v Value) bool {
	t, ok := rangeDate(v)
	if !ok {
		return false
	}
	return !t.Before(d.Start) && !t.After(d.End)
}

// rangeDate resolves v for range filtering. Unlike formatting, numbers are
// not read as epoch milliseconds: a numeric field such as an age never falls
// inside a date range.
func rangeDate(v Value) (time.Time, bool) {
	if v.kind == KindNumber {
		return time.Time{}, false
	}
	return asDate(v, time.UTC)
}

// noMatch rejects every value. It stands in for filters whose bounds could
// not be understood.
type noMatch struct{}

func (noMatch) Match(Value) bool { return false }

// ApplyFilters returns the records for which every filter passes, in input
// order. The returned records share storage with the input.
func ApplyFilters(records []Record, filters Filters) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if matchesAll(r, filters) {
			out = append(out, r)
		}
	}
	return out
}

func matchesAll(r Record, filters Filters) bool {
	for field, f := range filters {
		if f == nil {
			continue
		}
		if !f.Match(r.Value(field)) {
			return false
		}
	}
	return true
}

// InferFilter builds a Filter from a loosely typed value such as a decoded
// JSON body: strings filter by substring, arrays by membership, objects with
// non-empty start and end by date range, and anything else by equality.
// nil and "" produce a nil Filter.
func InferFilter(raw any) Filter {
	switch val := raw.(type) {
	case nil:
		return nil
	case string:
		if val == "" {
			return nil
		}
		return Contains{Text: val}
	case []any:
		values := make([]Value, len(val))
		for i, item := range val {
			values[i] = ValueOf(item)
		}
		return OneOf{Values: values}
	case []string:
		values := make([]Value, len(val))
		for i, item := range val {
			values[i] = String(item)
		}
		return OneOf{Values: values}
	case map[string]any:
		return inferDateRange(val)
	default:
		return Equals{Value: ValueOf(raw)}
	}
}

func inferDateRange(m map[string]any) Filter {
	start, end := ValueOf(m["start"]), ValueOf(m["end"])
	if isBlank(start) || isBlank(end) {
		return noMatch{}
	}
	from, ok := rangeDate(start)
	if !ok {
		return noMatch{}
	}
	to, ok := rangeDate(end)
	if !ok {
		return noMatch{}
	}
	return DateRange{Start: from, End: to}
}

// InferFilters applies InferFilter to each entry of a decoded JSON object.
func InferFilters(raw map[string]any) Filters {
	filters := make(Filters, len(raw))
	for field, v := range raw {
		filters[field] = InferFilter(v)
	}
	return filters
}

// DecodeFilters decodes a JSON object of loosely typed filters.
func DecodeFilters(data []byte) (Filters, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode filters: %w", err)
	}
	return InferFilters(raw), nil
}

// Filter operators accepted by ParseFilterParam.
const (
	OpContains = "contains"
	OpEquals   = "eq"
	OpIn       = "in"
	OpBetween  = "between"
)

// ParseFilterParam parses the query syntax "op:value". Without an operator
// the whole string is a contains filter. "in" takes a comma-separated list
// and "between" takes "start,end". Scalars that look like numbers, booleans
// or dates are compared as such.
func ParseFilterParam(s string) (Filter, error) {
	op, value, found := strings.Cut(s, ":")
	if !found {
		return InferFilter(s), nil
	}

	switch strings.ToLower(op) {
	case OpContains:
		return InferFilter(value), nil
	case OpEquals:
		return Equals{Value: inferScalar(value)}, nil
	case OpIn:
		parts := strings.Split(value, ",")
		values := make([]Value, len(parts))
		for i, p := range parts {
			values[i] = inferScalar(strings.TrimSpace(p))
		}
		return OneOf{Values: values}, nil
	case OpBetween:
		start, end, ok := strings.Cut(value, ",")
		if !ok {
			return nil, fmt.Errorf("between filter needs start,end: %q", value)
		}
		from, ok := ParseDate(start, time.UTC)
		if !ok {
			return nil, fmt.Errorf("invalid start date: %q", start)
		}
		to, ok := ParseDate(end, time.UTC)
		if !ok {
			return nil, fmt.Errorf("invalid end date: %q", end)
		}
		return DateRange{Start: from, End: to}, nil
	default:
		// Values like "10:30" contain a colon without naming an operator.
		return InferFilter(s), nil
	}
}

// inferScalar reads s as a number, bool, or date before falling back to text.
func inferScalar(s string) Value {
	if numericRegex.MatchString(s) {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return Number(f)
		}
	}
	switch strings.ToLower(s) {
	case "true":
		return Bool(true)
	case "false":
		return Bool(false)
	}
	if t, ok := ParseDate(s, time.UTC); ok {
		return Date(t)
	}
	return String(s)
}
