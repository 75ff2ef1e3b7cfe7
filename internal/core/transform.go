package core

// Transform shapes records for export. Stages run in a fixed order, each
// seeing the output of the previous one:
//
//  1. CustomFormatter, on a copy of the record
//  2. ExcludeColumns
//  3. ColumnMapping (renames; later fields win a name collision but the
//     first position is kept)
//  4. DateFormat, applied to date values and date-like strings
//
// The input slice and its records are never modified.
func Transform(records []Record, cfg ExportConfig, fm Formatter) []Record {
	out := make([]Record, len(records))
	for i, r := range records {
		out[i] = transformRecord(r, cfg, fm)
	}
	return out
}

func transformRecord(r Record, cfg ExportConfig, fm Formatter) Record {
	rec := r.Clone()

	if cfg.CustomFormatter != nil {
		rec = cfg.CustomFormatter(rec).Clone()
	}

	for _, col := range cfg.ExcludeColumns {
		rec.Delete(col)
	}

	if len(cfg.ColumnMapping) > 0 {
		var renamed Record
		for _, f := range rec.fields {
			renamed.Set(cfg.mappedName(f.Key), f.Value)
		}
		rec = renamed
	}

	if cfg.DateFormat != "" {
		for i, f := range rec.fields {
			if !isDateLike(f.Value) {
				continue
			}
			rec.fields[i].Value = String(fm.FormatDate(f.Value, cfg.DateFormat))
		}
	}

	return rec
}

func isDateLike(v Value) bool {
	switch v.Kind() {
	case KindDate:
		return true
	case KindString:
		_, ok := ParseDate(v.str, nil)
		return ok
	}
	return false
}
