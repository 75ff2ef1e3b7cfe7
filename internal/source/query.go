// Package source reads export records from PostgreSQL, SQL databases, remote
// JSON endpoints and local files. Every source hands back []core.Record with
// driver values converted through core.ValueOf.
package source

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/JonMunkholm/tabexport/internal/core"
)

// ErrSourceNotConfigured is returned when an export asks for a source the
// process was started without.
var ErrSourceNotConfigured = errors.New("source not configured")

// Dialect selects the placeholder and case-insensitive match syntax.
type Dialect int

const (
	// Postgres uses $N placeholders and ILIKE.
	Postgres Dialect = iota
	// SQLite uses ?N placeholders and LIKE, which is case-insensitive for ASCII.
	SQLite
)

// Query describes a table read.
type Query struct {
	Table string
	// Columns are the source column names to select, in output order.
	Columns []string
	// Keys are the record keys for Columns. Defaults to Columns.
	Keys []string
	// Equals restricts rows to exact column matches.
	Equals map[string]any
	// Search matches any selected column containing the text.
	Search string
	// Limit caps the number of rows. Zero means no limit.
	Limit int
}

// PresetQuery builds a Query for a registered preset: snake_case source
// columns read back under the preset's camelCase keys.
func PresetQuery(p core.Preset) Query {
	keys := make([]string, len(p.Columns))
	for i, c := range p.Columns {
		keys[i] = c.Key
	}
	return Query{
		Table:   p.TableName(),
		Columns: p.SourceColumns(),
		Keys:    keys,
	}
}

func (q Query) keys() []string {
	if len(q.Keys) == len(q.Columns) {
		return q.Keys
	}
	return q.Columns
}

func (q Query) validate() error {
	if q.Table == "" {
		return errors.New("query: table is required")
	}
	if len(q.Columns) == 0 {
		return fmt.Errorf("query %s: no columns", q.Table)
	}
	return nil
}

// Build renders the SELECT statement and its arguments, sorted by the first
// column.
func (q Query) Build(d Dialect) (string, []any, error) {
	if err := q.validate(); err != nil {
		return "", nil, err
	}

	quotedCols := quoteColumns(q.Columns)

	wb := NewWhereBuilderFor(d)
	for _, col := range sortedKeys(q.Equals) {
		wb.Add(quoteIdentifier(col), q.Equals[col])
	}
	wb.AddSearch(q.Search, q.Columns)
	whereClause, args := wb.Build()

	query := fmt.Sprintf(
		"SELECT %s FROM %s%s ORDER BY %s ASC",
		strings.Join(quotedCols, ", "),
		quoteIdentifier(q.Table),
		whereClause,
		quotedCols[0],
	)
	if q.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", q.Limit)
	}
	return query, args, nil
}

// WhereBuilder accumulates AND-ed conditions with numbered arguments.
type WhereBuilder struct {
	dialect    Dialect
	conditions []string
	args       []any
	argIndex   int
}

// NewWhereBuilder returns a builder using PostgreSQL placeholders.
func NewWhereBuilder() *WhereBuilder {
	return NewWhereBuilderFor(Postgres)
}

// NewWhereBuilderFor returns a builder for the given dialect.
func NewWhereBuilderFor(d Dialect) *WhereBuilder {
	return &WhereBuilder{dialect: d, argIndex: 1}
}

func (wb *WhereBuilder) placeholder() string {
	if wb.dialect == SQLite {
		return fmt.Sprintf("?%d", wb.argIndex)
	}
	return fmt.Sprintf("$%d", wb.argIndex)
}

func (wb *WhereBuilder) bind(v any) string {
	p := wb.placeholder()
	wb.args = append(wb.args, v)
	wb.argIndex++
	return p
}

// Add appends "column = value". Empty string values are skipped.
func (wb *WhereBuilder) Add(column string, value any) {
	if s, ok := value.(string); ok && s == "" {
		return
	}
	if value == nil {
		return
	}
	wb.conditions = append(wb.conditions, fmt.Sprintf("%s = %s", column, wb.bind(value)))
}

// AddSearch matches the text against every column, cast to text. All
// columns share one argument.
func (wb *WhereBuilder) AddSearch(text string, columns []string) {
	text = strings.TrimSpace(text)
	if text == "" || len(columns) == 0 {
		return
	}

	op := "ILIKE"
	if wb.dialect == SQLite {
		op = "LIKE"
	}

	p := wb.bind("%" + escapeLike(text) + "%")
	parts := make([]string, len(columns))
	for i, col := range columns {
		parts[i] = fmt.Sprintf("CAST(%s AS TEXT) %s %s ESCAPE '\\'", quoteIdentifier(col), op, p)
	}
	wb.conditions = append(wb.conditions, "("+strings.Join(parts, " OR ")+")")
}

// NextArgIndex reports the number the next argument will take.
func (wb *WhereBuilder) NextArgIndex() int {
	return wb.argIndex
}

// Build returns the WHERE clause (with a leading space) and its arguments,
// or "" and nil when nothing was added.
func (wb *WhereBuilder) Build() (string, []any) {
	if len(wb.conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(wb.conditions, " AND "), wb.args
}

// quoteIdentifier quotes a SQL identifier to prevent injection.
func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func quoteColumns(cols []string) []string {
	quoted := make([]string, len(cols))
	for i, col := range cols {
		quoted[i] = quoteIdentifier(col)
	}
	return quoted
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// toRecord pairs a row's driver values with record keys.
func toRecord(keys []string, values []any) core.Record {
	fields := make([]core.Field, len(keys))
	for i, k := range keys {
		var v any
		if i < len(values) {
			v = values[i]
		}
		fields[i] = core.Field{Key: k, Value: core.ValueOf(v)}
	}
	return core.NewRecord(fields...)
}
