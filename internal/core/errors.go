package core

import (
	"errors"
	"fmt"
)

var (
	// ErrNotReady is returned by view and edit operations before any dataset
	// has been loaded.
	ErrNotReady = errors.New("no dataset loaded")

	// ErrLoadInProgress is returned when a load starts while another is
	// still parsing.
	ErrLoadInProgress = errors.New("load already in progress")

	// ErrUnknownColumn is returned for column names the dataset does not have.
	ErrUnknownColumn = errors.New("unknown column")

	// ErrRowOutOfRange is returned when a view-relative row index does not
	// address a row on the current page.
	ErrRowOutOfRange = errors.New("row out of range")

	// ErrNoDraft is returned by draft operations when no edit is open.
	ErrNoDraft = errors.New("no edit in progress")

	// ErrInvalidTransform is returned for unknown draft transforms.
	ErrInvalidTransform = errors.New("unknown transform")

	// ErrInvalidPageSize is returned for non-positive or oversized page sizes.
	ErrInvalidPageSize = errors.New("invalid page size")

	// ErrUnsupportedFormat is returned for export formats other than
	// csv, json and xlsx.
	ErrUnsupportedFormat = errors.New("unsupported export format")

	// ErrSessionNotFound is returned when a session id is unknown both in
	// memory and in the store.
	ErrSessionNotFound = errors.New("session not found")

	// ErrNotFound is returned by a Store when the key has no entry.
	ErrNotFound = errors.New("entry not found")
)

// IngestionReason classifies why a load was rejected.
type IngestionReason string

const (
	ReasonExtension IngestionReason = "unsupported file type"
	ReasonEmpty     IngestionReason = "empty file"
	ReasonMalformed IngestionReason = "malformed file"
	ReasonTooLarge  IngestionReason = "file too large"
	ReasonHeader    IngestionReason = "invalid header"
	ReasonNoFile    IngestionReason = "no file provided"
)

// IngestionError reports a rejected load. The dataset is left as it was.
type IngestionError struct {
	FileName string
	Reason   IngestionReason
	Err      error
}

func (e *IngestionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("load %q: %s: %v", e.FileName, e.Reason, e.Err)
	}
	return fmt.Sprintf("load %q: %s", e.FileName, e.Reason)
}

func (e *IngestionError) Unwrap() error { return e.Err }

// PersistenceError reports a failed save, restore or clear. It is logged and
// never surfaced as a blocking failure.
type PersistenceError struct {
	Op  string
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// ExportError reports a failed export. No partial output is returned with it.
type ExportError struct {
	Format string
	Err    error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export failed (%s): %v", e.Format, e.Err)
}

func (e *ExportError) Unwrap() error { return e.Err }
