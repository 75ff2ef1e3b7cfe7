package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
)

// Field is a single named cell of a Record.
type Field struct {
	Key   string
	Value Value
}

// Record is an ordered mapping from field name to Value.
// Field order is the order keys were first set.
type Record struct {
	fields []Field
	index  map[string]int
}

// NewRecord builds a Record from fields in order. A repeated key keeps its
// first position and takes the last value.
func NewRecord(fields ...Field) Record {
	var r Record
	for _, f := range fields {
		r.Set(f.Key, f.Value)
	}
	return r
}

// FromMap builds a Record from a map. Keys are sorted since maps carry no order.
func FromMap(m map[string]any) Record {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var r Record
	for _, k := range keys {
		r.Set(k, ValueOf(m[k]))
	}
	return r
}

// Len returns the number of fields.
func (r Record) Len() int { return len(r.fields) }

// Keys returns the field names in order.
func (r Record) Keys() []string {
	keys := make([]string, len(r.fields))
	for i, f := range r.fields {
		keys[i] = f.Key
	}
	return keys
}

// Fields returns a copy of the fields in order.
func (r Record) Fields() []Field {
	out := make([]Field, len(r.fields))
	copy(out, r.fields)
	return out
}

// Get returns the value for key and whether it is present.
func (r Record) Get(key string) (Value, bool) {
	i, ok := r.index[key]
	if !ok {
		return Null(), false
	}
	return r.fields[i].Value, true
}

// Value returns the value for key, or Null if absent.
func (r Record) Value(key string) Value {
	v, _ := r.Get(key)
	return v
}

// Has reports whether key is present.
func (r Record) Has(key string) bool {
	_, ok := r.index[key]
	return ok
}

// Set replaces the value of an existing key in place or appends a new field.
func (r *Record) Set(key string, v Value) {
	if r.index == nil {
		r.index = make(map[string]int)
	}
	if i, ok := r.index[key]; ok {
		r.fields[i].Value = v
		return
	}
	r.index[key] = len(r.fields)
	r.fields = append(r.fields, Field{Key: key, Value: v})
}

// Delete removes key if present, keeping the order of the remaining fields.
func (r *Record) Delete(key string) {
	i, ok := r.index[key]
	if !ok {
		return
	}
	r.fields = append(r.fields[:i:i], r.fields[i+1:]...)
	delete(r.index, key)
	for j := i; j < len(r.fields); j++ {
		r.index[r.fields[j].Key] = j
	}
}

// Clone returns a deep copy of r.
func (r Record) Clone() Record {
	out := Record{
		fields: make([]Field, len(r.fields)),
		index:  make(map[string]int, len(r.index)),
	}
	copy(out.fields, r.fields)
	for k, v := range r.index {
		out.index[k] = v
	}
	return out
}

// Map returns the record as a map of canonical string values.
func (r Record) Map() map[string]string {
	m := make(map[string]string, len(r.fields))
	for _, f := range r.fields {
		m[f.Key] = f.Value.String()
	}
	return m
}

// MarshalJSON encodes the record as a JSON object preserving field order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := marshalJSONString(f.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')

		val, err := f.Value.MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Key, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object, keeping keys in document order.
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("record: expected JSON object, got %v", tok)
	}

	*r = Record{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("record: expected string key, got %v", tok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("record: field %q: %w", key, err)
		}
		var v Value
		if err := v.UnmarshalJSON(raw); err != nil {
			return fmt.Errorf("record: field %q: %w", key, err)
		}
		r.Set(key, v)
	}

	if _, err := dec.Token(); err != nil && err != io.EOF {
		return err
	}
	return nil
}

// String renders the record as key=value pairs, mostly for logs and tests.
func (r Record) String() string {
	parts := make([]string, len(r.fields))
	for i, f := range r.fields {
		parts[i] = f.Key + "=" + f.Value.String()
	}
	return "{" + strings.Join(parts, " ") + "}"
}
