package core

// ingest.go parses a delimited document into a Dataset.
//
// The whole document is read into memory (bounded by a size cap), stripped
// of a UTF-8 BOM and sanitized before CSV decoding:
//  1. Extension selects the delimiter (.csv comma, .tsv tab)
//  2. The first non-empty record is the header
//  3. Empty lines are skipped
//  4. Short rows are padded with null, extra fields are dropped
//  5. Every cell is typed with ParseCell

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// DefaultMaxFileSize is the default cap for a single load (100MB).
const DefaultMaxFileSize int64 = 100 * 1024 * 1024

// ctxCheckInterval is how many records are parsed between context checks.
const ctxCheckInterval = 1024

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DelimiterFor returns the field delimiter for a file name's extension.
func DelimiterFor(fileName string) (rune, bool) {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".csv":
		return ',', true
	case ".tsv":
		return '\t', true
	}
	return 0, false
}

// ParseDelimited reads a whole delimited document and builds a dataset from
// it. Every failure is an *IngestionError.
func ParseDelimited(ctx context.Context, r io.Reader, fileName string, maxSize int64) (*Dataset, LoadReport, error) {
	report := LoadReport{FileName: fileName}
	fail := func(reason IngestionReason, err error) (*Dataset, LoadReport, error) {
		return nil, report, &IngestionError{FileName: fileName, Reason: reason, Err: err}
	}

	if r == nil {
		return fail(ReasonNoFile, nil)
	}
	comma, ok := DelimiterFor(fileName)
	if !ok {
		return fail(ReasonExtension, fmt.Errorf("extension %q", filepath.Ext(fileName)))
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}

	data, err := io.ReadAll(io.LimitReader(r, maxSize+1))
	if err != nil {
		return fail(ReasonMalformed, fmt.Errorf("read: %w", err))
	}
	if int64(len(data)) > maxSize {
		return fail(ReasonTooLarge, fmt.Errorf("exceeds %dMB limit", maxSize/(1024*1024)))
	}

	data = bytes.TrimPrefix(data, utf8BOM)
	data = bytes.ToValidUTF8(data, []byte("\uFFFD"))
	if len(bytes.TrimSpace(data)) == 0 {
		return fail(ReasonEmpty, nil)
	}

	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = comma
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var ds *Dataset
	width := 0
	for n := 0; ; n++ {
		if n%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return fail(ReasonMalformed, err)
			}
		}

		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fail(ReasonMalformed, err)
		}
		if ds == nil {
			// Blank lines before the header carry no column names.
			if isEmptyRow(fields) {
				continue
			}
			header, err := cleanHeader(fields)
			if err != nil {
				return fail(ReasonHeader, err)
			}
			ds = NewDataset(header)
			width = len(header)
			continue
		}

		switch {
		case len(fields) < width:
			report.PaddedRows++
		case len(fields) > width:
			report.TruncatedRows++
			fields = fields[:width]
		}

		values := make([]Value, width)
		for i, f := range fields {
			values[i] = ParseCell(f)
		}
		ds.Append(values)
	}

	if ds == nil || ds.Len() == 0 {
		return fail(ReasonEmpty, errors.New("no data rows"))
	}

	report.Rows = ds.Len()
	report.Columns = width
	return ds, report, nil
}

// cleanHeader trims header names and rejects blank or repeated ones.
func cleanHeader(fields []string) ([]string, error) {
	header := make([]string, len(fields))
	seen := make(map[string]int, len(fields))
	for i, f := range fields {
		name := strings.TrimSpace(f)
		if name == "" {
			return nil, fmt.Errorf("column %d has no name", i+1)
		}
		if prev, dup := seen[name]; dup {
			return nil, fmt.Errorf("column %q appears at positions %d and %d", name, prev+1, i+1)
		}
		seen[name] = i
		header[i] = name
	}
	return header, nil
}

func isEmptyRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
