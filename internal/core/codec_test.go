package core

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"testing"

	"github.com/xuri/excelize/v2"
)

func codecRecords() []*Record {
	return records(
		[]Value{IntValue(1), StringValue("Smith, Jane"), StringValue("said \"hi\""), FloatValue(9.5)},
		[]Value{IntValue(2), StringValue("line\nbreak"), NullValue(), BoolValue(true)},
	)
}

var codecColumns = []string{"id", "name", "note", "score"}

func TestRenderCSV_RoundTrip(t *testing.T) {
	rows := codecRecords()
	visible := []string{"score", "name", "id"} // dataset order wins

	out, err := Render(rows, codecColumns, visible, FormatCSV)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	parsed, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
	if err != nil {
		t.Fatalf("re-parse failed: %v", err)
	}

	want := [][]string{
		{"id", "name", "score"},
		{"1", "Smith, Jane", "9.5"},
		{"2", "line\nbreak", "true"},
	}
	if len(parsed) != len(want) {
		t.Fatalf("parsed %d lines, want %d", len(parsed), len(want))
	}
	for i := range want {
		if !equalStrings(parsed[i], want[i]) {
			t.Errorf("line %d = %q, want %q", i, parsed[i], want[i])
		}
	}

	if !bytes.HasSuffix(out, []byte("\r\n")) {
		t.Error("CSV lines should end with CRLF")
	}
}

func TestRenderCSV_HeaderOnlyWhenEmpty(t *testing.T) {
	out, err := Render(nil, codecColumns, []string{"id", "note"}, FormatCSV)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if got := string(out); got != "id,note\r\n" {
		t.Errorf("Render = %q, want header line", got)
	}
}

func TestRenderJSON(t *testing.T) {
	rows := codecRecords()[:1]
	out, err := Render(rows, codecColumns, []string{"id", "name", "note"}, FormatJSON)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	want := "[\n" +
		"  {\n" +
		"    \"id\": 1,\n" +
		"    \"name\": \"Smith, Jane\",\n" +
		"    \"note\": \"said \\\"hi\\\"\"\n" +
		"  }\n" +
		"]"
	if string(out) != want {
		t.Errorf("Render JSON =\n%s\nwant\n%s", out, want)
	}
}

func TestRenderJSON_Decodes(t *testing.T) {
	out, err := Render(codecRecords(), codecColumns, codecColumns, FormatJSON)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	var decoded []map[string]any
	if err := json.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(decoded) != 2 {
		t.Fatalf("decoded %d objects, want 2", len(decoded))
	}
	if decoded[1]["note"] != nil {
		t.Errorf("null cell decoded as %v, want nil", decoded[1]["note"])
	}
	if decoded[1]["score"] != true {
		t.Errorf("boolean cell decoded as %v, want true", decoded[1]["score"])
	}
}

func TestRenderXLSX(t *testing.T) {
	out, err := Render(codecRecords(), codecColumns, []string{"id", "name", "score"}, FormatXLSX)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("OpenReader failed: %v", err)
	}
	defer f.Close()

	got, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		t.Fatalf("GetRows failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("rows = %d, want 3", len(got))
	}
	if !equalStrings(got[0], []string{"id", "name", "score"}) {
		t.Errorf("header = %v", got[0])
	}
	if got[1][0] != "1" || got[1][1] != "Smith, Jane" {
		t.Errorf("first row = %v", got[1])
	}
}

func TestRender_UnsupportedFormat(t *testing.T) {
	_, err := Render(nil, codecColumns, codecColumns, ExportFormat("pdf"))

	var exportErr *ExportError
	if !errors.As(err, &exportErr) {
		t.Fatalf("error = %v, want *ExportError", err)
	}
	if msg := MapError(err); msg.Code != "EXP001" {
		t.Errorf("MapError code = %s, want EXP001", msg.Code)
	}
}

func TestExportFileName(t *testing.T) {
	tests := []struct {
		source string
		format ExportFormat
		want   string
	}{
		{"sales.csv", FormatCSV, "sales_export.csv"},
		{"sales.csv", FormatJSON, "sales_export.json"},
		{"data.tar.tsv", FormatXLSX, "data.tar_export.xlsx"},
		{"/tmp/uploads/report.csv", FormatCSV, "report_export.csv"},
		{"noext", FormatCSV, "noext_export.csv"},
		{"", FormatJSON, "export.json"},
	}

	for _, tt := range tests {
		if got := ExportFileName(tt.source, tt.format); got != tt.want {
			t.Errorf("ExportFileName(%q, %s) = %q, want %q", tt.source, tt.format, got, tt.want)
		}
	}
}
