package core

import (
	"encoding/json"
	"testing"
	"time"
)

// ----------------------------------------------------------------------------
// ParseCell Tests
// ----------------------------------------------------------------------------

func TestParseCell(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantKind Kind
		wantText string
	}{
		{name: "empty", input: "", wantKind: KindNull, wantText: ""},
		{name: "whitespace", input: "   ", wantKind: KindNull, wantText: ""},
		{name: "true", input: "true", wantKind: KindBoolean, wantText: "true"},
		{name: "FALSE upper", input: "FALSE", wantKind: KindBoolean, wantText: "false"},
		{name: "integer", input: "42", wantKind: KindInteger, wantText: "42"},
		{name: "negative integer", input: "-7", wantKind: KindInteger, wantText: "-7"},
		{name: "zero", input: "0", wantKind: KindInteger, wantText: "0"},
		{name: "padded integer", input: " 12 ", wantKind: KindInteger, wantText: "12"},
		{name: "decimal", input: "1.5", wantKind: KindDecimal, wantText: "1.5"},
		{name: "leading zero decimal", input: "0.25", wantKind: KindDecimal, wantText: "0.25"},
		{name: "exponent", input: "1e3", wantKind: KindDecimal, wantText: "1000"},
		{name: "int overflow becomes decimal", input: "99999999999999999999", wantKind: KindDecimal, wantText: "100000000000000000000"},
		{name: "zip code stays string", input: "007", wantKind: KindString, wantText: "007"},
		{name: "signed leading zero stays string", input: "-01.5", wantKind: KindString, wantText: "-01.5"},
		{name: "negative fraction", input: "-0.25", wantKind: KindDecimal, wantText: "-0.25"},
		{name: "whole decimal", input: "2.0", wantKind: KindDecimal, wantText: "2"},
		{name: "lone dot", input: ".", wantKind: KindString, wantText: "."},
		{name: "currency stays string", input: "$1.50", wantKind: KindString, wantText: "$1.50"},
		{name: "yes stays string", input: "yes", wantKind: KindString, wantText: "yes"},
		{name: "text kept verbatim", input: " abc ", wantKind: KindString, wantText: " abc "},
		{name: "date stays string", input: "2023-01-15", wantKind: KindString, wantText: "2023-01-15"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseCell(tt.input)
			if got.Kind() != tt.wantKind {
				t.Errorf("ParseCell(%q).Kind() = %v, want %v", tt.input, got.Kind(), tt.wantKind)
			}
			if got.Text() != tt.wantText {
				t.Errorf("ParseCell(%q).Text() = %q, want %q", tt.input, got.Text(), tt.wantText)
			}
		})
	}
}

func TestValueNumber(t *testing.T) {
	tests := []struct {
		name   string
		value  Value
		want   float64
		wantOK bool
	}{
		{"integer", IntValue(3), 3, true},
		{"decimal", FloatValue(2.5), 2.5, true},
		{"numeric string", StringValue("10"), 10, true},
		{"text", StringValue("ten"), 0, false},
		{"boolean", BoolValue(true), 0, false},
		{"null", NullValue(), 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.value.Number()
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("Number() = (%v, %v), want (%v, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// Date Parsing Tests
// ----------------------------------------------------------------------------

func TestParseDate(t *testing.T) {
	tests := []struct {
		input  string
		want   time.Time
		wantOK bool
	}{
		{"2023-01-15", time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC), true},
		{"01/15/2023", time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC), true},
		{"01-15-2023", time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC), true},
		{"2023-01-15T10:30:00Z", time.Date(2023, 1, 15, 10, 30, 0, 0, time.UTC), true},
		{"2023-01-15 extra text", time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC), true},
		{"13/45/2023", time.Time{}, false},
		{"not a date", time.Time{}, false},
		{"", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := parseDate(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("parseDate(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if ok && !got.Equal(tt.want) {
				t.Errorf("parseDate(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestIsDateLike(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"2023-01-15", true},
		{"2023-01-15T00:00:00", true},
		{"12/31/2022", true},
		{"12-31-2022", true},
		{"2023/01/15", false},
		{"Jan 15, 2023", false},
		{"x2023-01-15", false},
	}

	for _, tt := range tests {
		if got := isDateLike(tt.input); got != tt.want {
			t.Errorf("isDateLike(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

// ----------------------------------------------------------------------------
// Value JSON Tests
// ----------------------------------------------------------------------------

func TestValueUnmarshalJSON(t *testing.T) {
	tests := []struct {
		input    string
		wantKind Kind
		wantText string
		wantErr  bool
	}{
		{`null`, KindNull, "", false},
		{`true`, KindBoolean, "true", false},
		{`5`, KindInteger, "5", false},
		{`5.0`, KindDecimal, "5", false},
		{`-1.25`, KindDecimal, "-1.25", false},
		{`"007"`, KindString, "007", false},
		{`[1]`, KindNull, "", true},
		{`{"a":1}`, KindNull, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var v Value
			err := json.Unmarshal([]byte(tt.input), &v)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Unmarshal(%s) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if v.Kind() != tt.wantKind || v.Text() != tt.wantText {
				t.Errorf("Unmarshal(%s) = %v %q, want %v %q", tt.input, v.Kind(), v.Text(), tt.wantKind, tt.wantText)
			}
		})
	}
}

func TestValueMarshalJSON(t *testing.T) {
	row := map[string]Value{
		"a": IntValue(1),
		"b": StringValue("x\"y"),
		"c": NullValue(),
		"d": BoolValue(false),
	}
	got, err := json.Marshal(row)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	want := `{"a":1,"b":"x\"y","c":null,"d":false}`
	if string(got) != want {
		t.Errorf("Marshal = %s, want %s", got, want)
	}
}

func TestValueJSON_KeepsKind(t *testing.T) {
	tests := []struct {
		in   Value
		want string
	}{
		{FloatValue(2), `2.0`},
		{FloatValue(-40), `-40.0`},
		{FloatValue(2.5), `2.5`},
		{FloatValue(1e21), `1e+21`},
		{IntValue(2), `2`},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			data, err := json.Marshal(tt.in)
			if err != nil {
				t.Fatalf("Marshal failed: %v", err)
			}
			if string(data) != tt.want {
				t.Errorf("Marshal = %s, want %s", data, tt.want)
			}

			var back Value
			if err := json.Unmarshal(data, &back); err != nil {
				t.Fatalf("Unmarshal(%s) failed: %v", data, err)
			}
			if back.Kind() != tt.in.Kind() || back.Text() != tt.in.Text() {
				t.Errorf("restored %v %q, want %v %q", back.Kind(), back.Text(), tt.in.Kind(), tt.in.Text())
			}
		})
	}
}
