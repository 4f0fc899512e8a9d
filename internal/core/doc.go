// Package core provides the tabular data engine.
//
// This package owns all domain logic independent of any UI or transport
// layer. It can be used by web handlers, CLI tools, or tests without
// modification.
//
// # Architecture
//
// An [Engine] owns one canonical [Dataset] plus its column metadata and view
// state. Every operation recomputes the displayed [View] before returning:
//
//	Dataset -> Filter -> Sort -> Pagination -> View
//
// Records carry a stable [RecordID] assigned at ingestion. Edits address a
// row by its position on the current page; the engine maps that position to
// the record's ID, so rows with identical values never collide.
//
// # Ingestion
//
// [Engine.Load] accepts .csv and .tsv documents. The whole document is read
// into memory up to a size cap, a UTF-8 BOM is stripped and invalid UTF-8 is
// replaced. Cells are typed on the way in:
//
//	""            -> null
//	"true"        -> boolean
//	"42", "-1.5"  -> integer, decimal
//	"007", "abc"  -> string
//
// Column types (integer, decimal, date, boolean, string, unknown) are then
// inferred from the first [InferenceSampleSize] rows.
//
// # Persistence
//
// An engine with a [Persister] saves a [Snapshot] to a [Store] after every
// dataset or settings change. Writes run in the background and coalesce;
// failures are logged as [PersistenceError] and never block the caller.
//
// # Sessions
//
// [Service] holds many engines keyed by session id, restores them lazily
// from the store, limits concurrent parses with a [LoadLimiter] and evicts
// idle sessions with a reaper.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - FILE001-FILE006: Ingestion errors (size, type, header, empty)
//   - VIEW001-VIEW003: View errors (no data, page size, column)
//   - EDIT001-EDIT003: Edit errors (row, draft, transform)
//   - EXP001-EXP002: Export errors
//   - SES001-SES002: Session errors
//   - UPL001-UPL003: Load capacity and request errors
//   - REQ001: Unreadable request bodies
//   - RATE001: Rate limiting
package core
