package core

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode"
)

// Preset is a named column set for a common entity.
type Preset struct {
	Key     string         `json:"key"`             // Unique identifier: "products"
	Group   string         `json:"group"`           // Display grouping: "Catalog", "Sales"
	Label   string         `json:"label"`           // Display name: "Products"
	Table   string         `json:"table,omitempty"` // Source table; defaults to Key
	Columns []ExportColumn `json:"columns"`
}

// TableName returns the source table the preset reads from.
func (p Preset) TableName() string {
	if p.Table != "" {
		return p.Table
	}
	return p.Key
}

// SourceColumns returns the snake_case database column for each column key,
// in column order: "createdAt" -> "created_at".
func (p Preset) SourceColumns() []string {
	cols := make([]string, len(p.Columns))
	for i, c := range p.Columns {
		cols[i] = toDBColumnName(c.Key)
	}
	return cols
}

// toDBColumnName converts a camelCase field key to a snake_case column name.
func toDBColumnName(key string) string {
	var b strings.Builder
	for i, r := range key {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		if r == ' ' {
			r = '_'
		}
		b.WriteRune(r)
	}
	return b.String()
}

var (
	presets   = make(map[string]Preset)
	presetsMu sync.RWMutex
)

// RegisterPreset adds a preset to the registry.
// Panics if a preset with the same key is already registered.
func RegisterPreset(p Preset) {
	presetsMu.Lock()
	defer presetsMu.Unlock()

	if _, exists := presets[p.Key]; exists {
		panic(fmt.Sprintf("preset already registered: %s", p.Key))
	}

	// Headers default to the key
	for i := range p.Columns {
		if p.Columns[i].Header == "" {
			p.Columns[i].Header = p.Columns[i].Key
		}
	}

	presets[p.Key] = p
}

// LookupPreset returns a preset by key.
// Returns false if not found.
func LookupPreset(key string) (Preset, bool) {
	presetsMu.RLock()
	defer presetsMu.RUnlock()

	p, ok := presets[key]
	return p, ok
}

// MustPreset returns the preset for key or an error wrapping ErrUnknownPreset.
func MustPreset(key string) (Preset, error) {
	p, ok := LookupPreset(key)
	if !ok {
		return Preset{}, fmt.Errorf("%w: %s", ErrUnknownPreset, key)
	}
	return p, nil
}

// AllPresets returns all registered presets.
// Sorted by group then by key for consistent ordering.
func AllPresets() []Preset {
	presetsMu.RLock()
	defer presetsMu.RUnlock()

	result := make([]Preset, 0, len(presets))
	for _, p := range presets {
		result = append(result, p)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Group != result[j].Group {
			return result[i].Group < result[j].Group
		}
		return result[i].Key < result[j].Key
	})

	return result
}

// PresetGroups returns all unique group names, sorted.
func PresetGroups() []string {
	presetsMu.RLock()
	defer presetsMu.RUnlock()

	seen := make(map[string]bool)
	for _, p := range presets {
		seen[p.Group] = true
	}

	groups := make([]string, 0, len(seen))
	for g := range seen {
		groups = append(groups, g)
	}

	sort.Strings(groups)
	return groups
}

// PresetCount returns the number of registered presets.
func PresetCount() int {
	presetsMu.RLock()
	defer presetsMu.RUnlock()
	return len(presets)
}

// ClearPresets removes all registered presets.
// Primarily useful for testing.
func ClearPresets() {
	presetsMu.Lock()
	defer presetsMu.Unlock()
	presets = make(map[string]Preset)
}
