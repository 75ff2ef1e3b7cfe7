package core

// convert.go turns loosely typed input into Values.
//
// Inputs come from three places: decoded JSON bodies, rows scanned by pgx or
// database/sql, and CSV cells. Each arrives with its own representation of
// "missing", so everything funnels through ValueOf and ParseDate.

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// numericRegex matches integers, decimals, and scientific notation.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// TwoDigitYearPivot defines how 2-digit years are interpreted.
// Years that would land more than this many years in the future
// are assumed to be in the previous century.
var TwoDigitYearPivot = 20

// Timestamp layouts carry their own offset or are read in the caller's location.
var (
	dateTimeLayouts = []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02T15:04",
		"2006-01-02 15:04:05",
		time.RFC1123Z,
		time.RFC1123,
	}
	dateOnlyLayouts = []string{
		"2006-01-02", "2006/01/02",
		"1/2/2006", "01/02/2006",
		"Jan 2, 2006", "January 2, 2006", "2 Jan 2006",
	}
	twoDigitYearLayouts = []string{
		"1/2/06", "01/02/06",
	}
)

// ParseDate parses s as a calendar date or timestamp. Strings without an
// explicit offset are read in loc (UTC when nil). Purely numeric strings are
// never dates.
func ParseDate(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" || numericRegex.MatchString(s) {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.UTC
	}

	for _, layout := range dateTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	for _, layout := range dateOnlyLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}

	pivotYear := time.Now().Year() + TwoDigitYearPivot
	for _, layout := range twoDigitYearLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			if t.Year() > pivotYear {
				t = t.AddDate(-100, 0, 0)
			}
			return t, true
		}
	}

	return time.Time{}, false
}

// maxEpochMillis bounds numeric dates to ±100,000,000 days around the epoch,
// the range a JavaScript Date accepts.
const maxEpochMillis = 8.64e15

// asDate resolves v to an instant: dates as-is, strings via ParseDate and
// numbers as Unix milliseconds.
func asDate(v Value, loc *time.Location) (time.Time, bool) {
	switch v.kind {
	case KindDate:
		return v.t, true
	case KindString:
		return ParseDate(v.str, loc)
	case KindNumber:
		if math.IsNaN(v.num) || math.Abs(v.num) > maxEpochMillis {
			return time.Time{}, false
		}
		return time.UnixMilli(int64(v.num)).UTC(), true
	}
	return time.Time{}, false
}

// ParseNumber parses a user-entered number, tolerating currency symbols,
// thousands separators, and accounting negatives "(123.45)".
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, "€", "") // Euro
	s = strings.ReplaceAll(s, "£", "") // Pound
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	if !numericRegex.MatchString(s) {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if negative {
		f = -f
	}
	return f, true
}

// ParseBool accepts true/false, yes/no, t/f, y/n and 1/0.
func ParseBool(s string) (bool, bool) {
	switch strings.TrimSpace(strings.ToLower(s)) {
	case "true", "t", "yes", "y", "1":
		return true, true
	case "false", "f", "no", "n", "0":
		return false, true
	}
	return false, false
}

// CleanCell removes common spreadsheet artifacts from a cell:
// surrounding whitespace, the Excel formula prefix (="...") and quotes.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	return strings.Trim(s, `"'`)
}

// ValueOf converts a Go value into a Value. It understands plain scalars,
// json.Number, time.Time, uuid.UUID, byte slices and the pgtype values pgx
// returns from rows.Values(). Anything else is rendered with %v.
func ValueOf(v any) Value {
	if v == nil {
		return Null()
	}

	switch val := v.(type) {
	case Value:
		return val
	case string:
		return String(val)
	case []byte:
		return String(string(val))
	case bool:
		return Bool(val)
	case int:
		return Number(float64(val))
	case int8:
		return Number(float64(val))
	case int16:
		return Number(float64(val))
	case int32:
		return Number(float64(val))
	case int64:
		return Number(float64(val))
	case uint:
		return Number(float64(val))
	case uint8:
		return Number(float64(val))
	case uint16:
		return Number(float64(val))
	case uint32:
		return Number(float64(val))
	case uint64:
		return Number(float64(val))
	case float32:
		return Number(float64(val))
	case float64:
		return Number(val)
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return String(val.String())
		}
		return Number(f)
	case *big.Float:
		f, _ := val.Float64()
		return Number(f)
	case time.Time:
		if val.IsZero() {
			return Null()
		}
		return Date(val)
	case uuid.UUID:
		return String(val.String())
	case [16]byte:
		return String(uuid.UUID(val).String())

	case pgtype.Numeric:
		if !val.Valid {
			return Null()
		}
		f, err := val.Float64Value()
		if err != nil || !f.Valid {
			return Null()
		}
		return Number(f.Float64)
	case pgtype.Date:
		if !val.Valid {
			return Null()
		}
		return Date(val.Time)
	case pgtype.Timestamp:
		if !val.Valid {
			return Null()
		}
		return Date(val.Time)
	case pgtype.Timestamptz:
		if !val.Valid {
			return Null()
		}
		return Date(val.Time)
	case pgtype.Text:
		if !val.Valid {
			return Null()
		}
		return String(val.String)
	case pgtype.Bool:
		if !val.Valid {
			return Null()
		}
		return Bool(val.Bool)
	case pgtype.Int2:
		if !val.Valid {
			return Null()
		}
		return Number(float64(val.Int16))
	case pgtype.Int4:
		if !val.Valid {
			return Null()
		}
		return Number(float64(val.Int32))
	case pgtype.Int8:
		if !val.Valid {
			return Null()
		}
		return Number(float64(val.Int64))
	case pgtype.Float8:
		if !val.Valid {
			return Null()
		}
		return Number(val.Float64)
	case pgtype.UUID:
		if !val.Valid {
			return Null()
		}
		return String(uuid.UUID(val.Bytes).String())

	case fmt.Stringer:
		return String(val.String())
	default:
		return String(fmt.Sprintf("%v", v))
	}
}
