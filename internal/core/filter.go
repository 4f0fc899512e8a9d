package core

import "strings"

// Filter returns the records in which any field contains query,
// case-insensitively. A blank query keeps every record. The result is always
// a new slice in the original order; null fields never match and hidden
// columns are searched like visible ones.
func Filter(rows []*Record, query string) []*Record {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		out := make([]*Record, len(rows))
		copy(out, rows)
		return out
	}

	var out []*Record
	for _, rec := range rows {
		if recordContains(rec, needle) {
			out = append(out, rec)
		}
	}
	return out
}

// recordContains reports whether any non-null field of rec contains the
// already lower-cased needle.
func recordContains(rec *Record, needle string) bool {
	for _, v := range rec.Values {
		if v.IsNull() {
			continue
		}
		if strings.Contains(strings.ToLower(v.Text()), needle) {
			return true
		}
	}
	return false
}
