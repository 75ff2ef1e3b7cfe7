package core

// Project builds one output record per input record with exactly the given
// columns, in column order. Each field is named by the column header and holds
// the value rendered under the column format. Date columns use cfg.DateFormat,
// or MM/dd/yyyy when unset. Inputs are not modified.
func Project(records []Record, columns []ExportColumn, cfg ExportConfig, fm Formatter) []Record {
	pattern := cfg.DateFormat
	if pattern == "" {
		pattern = DatePatternUS
	}

	out := make([]Record, len(records))
	for i, r := range records {
		var row Record
		for _, col := range columns {
			v := r.Value(col.Key)
			row.Set(col.Header, String(fm.Format(v, col.Format, pattern)))
		}
		out[i] = row
	}
	return out
}
