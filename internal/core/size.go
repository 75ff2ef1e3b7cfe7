package core

import (
	"encoding/json"
	"math"
	"strconv"
)

var sizeMultipliers = map[ExportFormat]float64{
	FormatCSV:   0.7,
	FormatExcel: 0.8,
	FormatJSON:  1.0,
	FormatPDF:   1.5,
}

var sizeUnits = []string{"B", "KB", "MB", "GB"}

// EstimateSize approximates the encoded size of records in bytes from the
// length of their compact JSON form scaled per format.
func EstimateSize(records []Record, format ExportFormat) float64 {
	if records == nil {
		records = []Record{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return 0
	}

	multiplier, ok := sizeMultipliers[format]
	if !ok {
		multiplier = 1.0
	}
	return float64(len(data)) * multiplier
}

// HumanizeBytes renders a byte count with a 1024-based unit, B through GB,
// rounded to two decimals: 1536 becomes "1.5 KB".
func HumanizeBytes(n float64) string {
	if n <= 0 || math.IsNaN(n) {
		return "0 B"
	}

	// Repeated division keeps exact powers of 1024 on the right unit.
	i, scaled := 0, n
	for scaled >= 1024 && i < len(sizeUnits)-1 {
		scaled /= 1024
		i++
	}

	rounded := math.Round(scaled*100) / 100
	return strconv.FormatFloat(rounded, 'f', -1, 64) + " " + sizeUnits[i]
}
