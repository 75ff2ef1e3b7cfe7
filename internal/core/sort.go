package core

import (
	"cmp"
	"slices"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortRecords returns a stably sorted copy of records ordered by the value of
// key, collating text in American English.
func SortRecords(records []Record, key string, order SortOrder) []Record {
	return SortRecordsLocale(records, key, order, language.AmericanEnglish)
}

// SortRecordsLocale is SortRecords with text collated for tag.
//
// Two strings compare by collation, two numbers numerically and two dates by
// instant. Any other pairing compares the text of both sides, with null as
// the empty string.
func SortRecordsLocale(records []Record, key string, order SortOrder, tag language.Tag) []Record {
	out := make([]Record, len(records))
	copy(out, records)

	// Collators keep internal buffers and must not be shared across goroutines.
	coll := collate.New(tag)

	slices.SortStableFunc(out, func(a, b Record) int {
		c := compareValues(coll, a.Value(key), b.Value(key))
		if order == SortDesc {
			return -c
		}
		return c
	})
	return out
}

func compareValues(coll *collate.Collator, a, b Value) int {
	if a.Equal(b) {
		return 0
	}

	switch {
	case a.kind == KindString && b.kind == KindString:
		return coll.CompareString(a.str, b.str)
	case a.kind == KindNumber && b.kind == KindNumber:
		return cmp.Compare(a.num, b.num)
	case a.kind == KindDate && b.kind == KindDate:
		return a.t.Compare(b.t)
	}
	return coll.CompareString(a.String(), b.String())
}
