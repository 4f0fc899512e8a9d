package core

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ResolveViewRow maps a row index on the current page to the canonical
// record it displays. rows is the filtered-sorted sequence the page was cut
// from; the record is then looked up in the dataset by ID, so records with
// identical field values never collide.
func ResolveViewRow(ds *Dataset, rows []*Record, vs ViewState, viewRow int) (*Record, error) {
	pageSize := vs.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if viewRow < 0 || viewRow >= pageSize {
		return nil, fmt.Errorf("%w: index %d on a page of %d", ErrRowOutOfRange, viewRow, pageSize)
	}

	page := vs.Page
	if page < 1 {
		page = 1
	}
	abs := (page-1)*pageSize + viewRow
	if abs >= len(rows) {
		return nil, fmt.Errorf("%w: index %d on page %d", ErrRowOutOfRange, viewRow, page)
	}

	rec, ok := ds.Lookup(rows[abs].ID)
	if !ok {
		return nil, fmt.Errorf("%w: record %d no longer exists", ErrRowOutOfRange, rows[abs].ID)
	}
	return rec, nil
}

// ApplyTransform derives a new draft value.
func ApplyTransform(kind TransformKind, s string) (string, error) {
	switch kind {
	case TransformUpper:
		return strings.ToUpper(s), nil
	case TransformLower:
		return strings.ToLower(s), nil
	case TransformTitle:
		return titleCase(s), nil
	case TransformClear:
		return "", nil
	default:
		return "", fmt.Errorf("%w %q", ErrInvalidTransform, kind)
	}
}

// titleCase upper-cases the first letter of every whitespace-separated token
// and lower-cases the rest. Whitespace is kept as is.
func titleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	start := true
	for len(s) > 0 {
		r, size := utf8.DecodeRuneInString(s)
		s = s[size:]

		switch {
		case unicode.IsSpace(r):
			start = true
			b.WriteRune(r)
		case start:
			start = false
			b.WriteRune(unicode.ToUpper(r))
		default:
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}
