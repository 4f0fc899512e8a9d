package core

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Sort returns rows ordered by the column at index col. A negative col
// means "unsorted" and returns rows unchanged; otherwise the input slice is
// copied and never reordered in place.
//
// Comparison per pair:
//  1. null vs null is equal; null sorts first ascending, last descending
//  2. two numbers compare numerically
//  3. in date columns, two parseable dates compare chronologically
//  4. otherwise lower-cased text compares with locale-aware collation
func Sort(rows []*Record, col int, dir SortDirection, colType ColumnType) []*Record {
	if col < 0 {
		return rows
	}

	out := make([]*Record, len(rows))
	copy(out, rows)

	cmp := newValueComparer(colType)
	desc := dir == SortDesc

	sort.SliceStable(out, func(i, j int) bool {
		c := cmp.compare(cellAt(out[i], col), cellAt(out[j], col))
		if desc {
			return c > 0
		}
		return c < 0
	})
	return out
}

func cellAt(rec *Record, col int) Value {
	if col < len(rec.Values) {
		return rec.Values[col]
	}
	return NullValue()
}

// valueComparer holds per-sort state. A collator is not safe for concurrent
// use, so each sort gets its own.
type valueComparer struct {
	colType  ColumnType
	collator *collate.Collator
}

func newValueComparer(colType ColumnType) *valueComparer {
	return &valueComparer{
		colType:  colType,
		collator: collate.New(language.Und),
	}
}

// compare returns the ascending order of a and b as -1, 0 or 1.
func (c *valueComparer) compare(a, b Value) int {
	switch {
	case a.IsNull() && b.IsNull():
		return 0
	case a.IsNull():
		return -1
	case b.IsNull():
		return 1
	}

	if na, ok := a.Number(); ok {
		if nb, ok := b.Number(); ok {
			return compareFloat(na, nb)
		}
	}

	if c.colType == TypeDate {
		if ta, ok := parseDate(a.Text()); ok {
			if tb, ok := parseDate(b.Text()); ok {
				return ta.Compare(tb)
			}
		}
	}

	return c.collator.CompareString(strings.ToLower(a.Text()), strings.ToLower(b.Text()))
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
