package core

// maxPreviewRows is how many transformed rows a preview carries.
const maxPreviewRows = 5

// Preview summarises what an export would produce.
type Preview struct {
	RowCount      int      `json:"rowCount"`
	ColumnCount   int      `json:"columnCount"`
	EstimatedSize string   `json:"estimatedSize"`
	Preview       []Record `json:"preview"`
	Columns       []string `json:"columns"`
}

// PreviewExport transforms records with cfg and reports the row and column
// counts, the estimated CSV size, the first five rows and the column names of
// the first row. Empty input yields an empty preview of "0 B".
func (e *Exporter) PreviewExport(records []Record, cfg ExportConfig) Preview {
	return PreviewRecords(records, cfg, e.formatter)
}

// PreviewRecords is PreviewExport with an explicit formatter.
func PreviewRecords(records []Record, cfg ExportConfig, fm Formatter) Preview {
	if len(records) == 0 {
		return Preview{
			EstimatedSize: HumanizeBytes(0),
			Preview:       []Record{},
			Columns:       []string{},
		}
	}

	rows := Transform(records, cfg, fm)
	columns := rows[0].Keys()

	return Preview{
		RowCount:      len(rows),
		ColumnCount:   len(columns),
		EstimatedSize: HumanizeBytes(EstimateSize(rows, FormatCSV)),
		Preview:       rows[:min(maxPreviewRows, len(rows))],
		Columns:       columns,
	}
}
