package core

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ConfigOptions is the wire form of ExportConfig used by HTTP requests and
// batch manifests.
type ConfigOptions struct {
	Filename       string      `json:"filename,omitempty" yaml:"filename,omitempty"`
	SheetName      string      `json:"sheetName,omitempty" yaml:"sheetName,omitempty"`
	IncludeHeaders *bool       `json:"includeHeaders,omitempty" yaml:"includeHeaders,omitempty"`
	DateFormat     string      `json:"dateFormat,omitempty" yaml:"dateFormat,omitempty"`
	ExcludeColumns []string    `json:"excludeColumns,omitempty" yaml:"excludeColumns,omitempty"`
	ColumnMapping  MappingList `json:"columnMapping,omitempty" yaml:"columnMapping,omitempty"`
}

// Config converts the options to an ExportConfig.
func (o ConfigOptions) Config() ExportConfig {
	return ExportConfig{
		Filename:       o.Filename,
		SheetName:      o.SheetName,
		IncludeHeaders: o.IncludeHeaders,
		DateFormat:     o.DateFormat,
		ExcludeColumns: o.ExcludeColumns,
		ColumnMapping:  []Mapping(o.ColumnMapping),
	}
}

// MappingList decodes a column mapping written either as an object
// ({"from": "to"}, order kept) or as a list of {from, to} pairs.
type MappingList []Mapping

// UnmarshalJSON implements json.Unmarshaler.
func (m *MappingList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*m = nil
		return nil
	}

	if data[0] == '[' {
		var list []Mapping
		if err := json.Unmarshal(data, &list); err != nil {
			return fmt.Errorf("column mapping: %w", err)
		}
		*m = list
		return nil
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return fmt.Errorf("column mapping: %w", err)
	}
	list := make(MappingList, 0, rec.Len())
	for _, f := range rec.Fields() {
		to, ok := f.Value.Str()
		if !ok {
			return fmt.Errorf("column mapping: %q must map to a string", f.Key)
		}
		list = append(list, Mapping{From: f.Key, To: to})
	}
	*m = list
	return nil
}

// MarshalJSON writes the mapping as an ordered object.
func (m MappingList) MarshalJSON() ([]byte, error) {
	fields := make([]Field, len(m))
	for i, p := range m {
		fields[i] = Field{Key: p.From, Value: String(p.To)}
	}
	return NewRecord(fields...).MarshalJSON()
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (m *MappingList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		var list []Mapping
		if err := node.Decode(&list); err != nil {
			return fmt.Errorf("column mapping: %w", err)
		}
		*m = list
		return nil
	case yaml.MappingNode:
		list := make(MappingList, 0, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			k, v := node.Content[i], node.Content[i+1]
			if v.Kind != yaml.ScalarNode {
				return fmt.Errorf("column mapping line %d: %q must map to a string", v.Line, k.Value)
			}
			list = append(list, Mapping{From: k.Value, To: v.Value})
		}
		*m = list
		return nil
	}
	return fmt.Errorf("column mapping line %d: expected mapping or list", node.Line)
}
