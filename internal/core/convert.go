package core

// convert.go turns raw cell text into typed values and reads values back as
// numbers and dates.
//
// Ingestion typing is deliberately conservative:
//   - Empty cells become null
//   - true/false (any case) become booleans
//   - Plain numeric literals become integers or decimals
//   - Numbers with significant leading zeros ("007", zip codes) stay strings
//   - Everything else is kept verbatim as a string

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// numericRegex validates that a string is a plain numeric literal.
// Matches integers, decimals, and scientific notation.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// dateLikeRegex matches the date shapes the inferencer recognizes. Only the
// prefix has to match.
var dateLikeRegex = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2}|\d{2}/\d{2}/\d{4}|\d{2}-\d{2}-\d{4})`)

// Date layouts tried when comparing date columns, most specific first.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"01/02/2006 15:04:05",
	"01/02/2006",
	"1/2/2006",
	"01-02-2006",
	"1-2-2006",
	"2006/01/02",
	"2006.01.02",
	"Jan 2, 2006",
	"2 Jan 2006",
}

// ParseCell applies ingestion typing to a raw cell.
func ParseCell(raw string) Value {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return NullValue()
	}

	if strings.EqualFold(trimmed, "true") {
		return BoolValue(true)
	}
	if strings.EqualFold(trimmed, "false") {
		return BoolValue(false)
	}

	if numericRegex.MatchString(trimmed) && !hasLeadingZero(trimmed) {
		if !strings.ContainsAny(trimmed, ".eE") {
			if i, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
				return IntValue(i)
			}
		}
		if f, err := strconv.ParseFloat(trimmed, 64); err == nil && !math.IsInf(f, 0) {
			return FloatValue(f)
		}
	}

	return StringValue(raw)
}

// hasLeadingZero reports numbers such as "007" whose zeros carry meaning.
func hasLeadingZero(s string) bool {
	s = strings.TrimLeft(s, "+-")
	return len(s) > 1 && s[0] == '0' && s[1] >= '0' && s[1] <= '9'
}

// parseNumber reads a string as a plain numeric literal.
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || !numericRegex.MatchString(s) {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// isDateLike reports whether s starts with a recognized date shape.
func isDateLike(s string) bool {
	return dateLikeRegex.MatchString(strings.TrimSpace(s))
}

// parseDate parses s as a calendar date or timestamp. When no full layout
// matches, the date-shaped prefix alone is tried.
func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	if prefix := dateLikeRegex.FindString(s); prefix != "" && prefix != s {
		for _, layout := range []string{"2006-01-02", "01/02/2006", "01-02-2006"} {
			if t, err := time.Parse(layout, prefix); err == nil {
				return t, true
			}
		}
	}

	return time.Time{}, false
}

// isBooleanText reports whether s is one of the boolean spellings the
// inferencer accepts.
func isBooleanText(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "false", "0", "1", "yes", "no":
		return true
	}
	return false
}
