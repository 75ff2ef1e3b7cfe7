package core

import (
	"math"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Date patterns accepted by ExportConfig.DateFormat.
const (
	DatePatternUS  = "MM/dd/yyyy"
	DatePatternEU  = "dd/MM/yyyy"
	DatePatternISO = "yyyy-MM-dd"
)

var datePatternLayouts = map[string]string{
	DatePatternUS:  "01/02/2006",
	DatePatternEU:  "02/01/2006",
	DatePatternISO: "2006-01-02",
}

// FormatPolicy holds the locale-dependent choices of a Formatter.
type FormatPolicy struct {
	Locale            language.Tag
	CurrencySymbol    string
	Location          *time.Location
	DefaultDateLayout string // Go layout used for unrecognised date patterns
}

// DefaultPolicy returns the en-US policy: "$", UTC, and "1/2/2006" dates.
func DefaultPolicy() FormatPolicy {
	return FormatPolicy{
		Locale:            language.AmericanEnglish,
		CurrencySymbol:    "$",
		Location:          time.UTC,
		DefaultDateLayout: "1/2/2006",
	}
}

func (p FormatPolicy) location() *time.Location {
	if p.Location == nil {
		return time.UTC
	}
	return p.Location
}

func (p FormatPolicy) dateLayout(pattern string) string {
	if layout, ok := datePatternLayouts[pattern]; ok {
		return layout
	}
	if p.DefaultDateLayout == "" {
		return "1/2/2006"
	}
	return p.DefaultDateLayout
}

// Formatter renders values under a column format.
// The zero Formatter uses DefaultPolicy.
type Formatter struct {
	Policy FormatPolicy
}

// NewFormatter returns a Formatter with the given policy.
func NewFormatter(p FormatPolicy) Formatter {
	return Formatter{Policy: p}
}

func (f Formatter) policy() FormatPolicy {
	if f.Policy.Locale == language.Und && f.Policy.CurrencySymbol == "" {
		return DefaultPolicy()
	}
	return f.Policy
}

// Format renders v according to format. pattern only applies to dates.
// Values that do not suit the format fall back to their text form; Format
// never fails.
func (f Formatter) Format(v Value, format ColumnFormat, pattern string) string {
	p := f.policy()

	switch format {
	case ColumnNumber:
		n, ok := finiteNumber(v)
		if !ok {
			return v.String()
		}
		return message.NewPrinter(p.Locale).Sprint(number.Decimal(n, number.MaxFractionDigits(3)))

	case ColumnCurrency:
		n, ok := finiteNumber(v)
		if !ok {
			return v.String()
		}
		sign := ""
		if n < 0 {
			sign = "-"
			n = -n
		}
		return sign + p.CurrencySymbol + fixed2(p.Locale, n)

	case ColumnPercentage:
		n, ok := finiteNumber(v)
		if !ok {
			return v.String()
		}
		sign := ""
		if n < 0 {
			sign = "-"
			n = -n
		}
		return sign + fixed2(p.Locale, n) + "%"

	case ColumnDate:
		return f.FormatDate(v, pattern)

	default:
		return v.String()
	}
}

// FormatDate renders v as a calendar date in the policy location.
// Null and empty strings render as ""; unparseable values keep their text.
func (f Formatter) FormatDate(v Value, pattern string) string {
	if isBlank(v) {
		return ""
	}
	p := f.policy()
	t, ok := asDate(v, p.location())
	if !ok {
		return v.String()
	}
	return t.In(p.location()).Format(p.dateLayout(pattern))
}

func finiteNumber(v Value) (float64, bool) {
	n, ok := v.Num()
	if !ok || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

// fixed2 renders n with grouping and exactly two fraction digits.
func fixed2(tag language.Tag, n float64) string {
	return message.NewPrinter(tag).Sprint(
		number.Decimal(n, number.MinFractionDigits(2), number.MaxFractionDigits(2)),
	)
}
