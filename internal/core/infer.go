package core

import "math"

// InferenceSampleSize bounds how many leading rows the inferencer examines.
const InferenceSampleSize = 100

// InferColumnTypes classifies every column from a sample of the first
// InferenceSampleSize records. Later rows are not checked and may violate
// the inferred type.
func InferColumnTypes(columns []string, records []*Record) map[string]ColumnType {
	types := make(map[string]ColumnType, len(columns))
	sample := records
	if len(sample) > InferenceSampleSize {
		sample = sample[:InferenceSampleSize]
	}

	values := make([]Value, 0, len(sample))
	for col, name := range columns {
		values = values[:0]
		for _, rec := range sample {
			if col >= len(rec.Values) {
				continue
			}
			v := rec.Values[col]
			if v.IsNull() || (v.Kind() == KindString && v.Text() == "") {
				continue
			}
			values = append(values, v)
		}
		types[name] = inferType(values)
	}
	return types
}

// inferType applies the classification rules in priority order to the
// non-empty values of one column.
func inferType(values []Value) ColumnType {
	if len(values) == 0 {
		return TypeUnknown
	}

	if every(values, isNumeric) {
		if every(values, isIntegral) {
			return TypeInteger
		}
		return TypeDecimal
	}

	if every(values, func(v Value) bool { return v.Kind() == KindString && isDateLike(v.Text()) }) {
		return TypeDate
	}

	if every(values, func(v Value) bool { return v.Kind() == KindBoolean || isBooleanText(v.Text()) }) {
		return TypeBoolean
	}

	return TypeString
}

func isNumeric(v Value) bool {
	_, ok := v.Number()
	return ok
}

func isIntegral(v Value) bool {
	f, _ := v.Number()
	return f == math.Trunc(f)
}

func every(values []Value, pred func(Value) bool) bool {
	for _, v := range values {
		if !pred(v) {
			return false
		}
	}
	return true
}
