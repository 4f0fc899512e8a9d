package core

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"sync"
	"time"
)

// EngineConfig holds the dependencies and limits of an Engine.
// Zero values fall back to defaults.
type EngineConfig struct {
	Session         string       // session id for log attribution
	Logger          *slog.Logger // defaults to slog.Default()
	Persister       *Persister   // nil disables persistence
	MaxFileSize     int64        // default DefaultMaxFileSize
	DefaultPageSize int          // default DefaultPageSize
	MaxPageSize     int          // 0 means unbounded
	Rand            *rand.Rand   // example data source, default time-seeded
}

// Engine owns one dataset together with its column metadata, view state
// and the derived view. All methods are safe for concurrent use; each one
// recomputes the view before returning so callers never observe a dataset
// whose view is stale.
type Engine struct {
	logger      *slog.Logger
	persister   *Persister
	maxFileSize int64
	defaultSize int
	maxPageSize int

	mu       sync.Mutex
	rng      *rand.Rand
	state    State
	loading  bool
	ds       *Dataset
	columns  []Column
	fileName string
	vs       ViewState
	rows     []*Record // filtered-sorted sequence behind view
	view     View
	draft    *EditDraft
}

// NewEngine creates an engine in the Empty state.
func NewEngine(cfg EngineConfig) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Session != "" {
		logger = logger.With("session", cfg.Session)
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = DefaultMaxFileSize
	}
	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = DefaultPageSize
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	e := &Engine{
		logger:      logger,
		persister:   cfg.Persister,
		maxFileSize: cfg.MaxFileSize,
		defaultSize: cfg.DefaultPageSize,
		maxPageSize: cfg.MaxPageSize,
		rng:         cfg.Rand,
		state:       StateEmpty,
		vs:          defaultViewState(cfg.DefaultPageSize),
	}
	e.recomputeView()
	return e
}

// View returns the current view.
func (e *Engine) View() View {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.view
}

// State returns the lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// FileName returns the source name of the loaded dataset.
func (e *Engine) FileName() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.fileName
}

// Load parses a delimited document and replaces the dataset with it. The
// engine is Loading while the document is parsed; view and edit calls keep
// working against the previous dataset during that time. On failure the
// previous dataset stays installed.
func (e *Engine) Load(ctx context.Context, r io.Reader, fileName string) (View, LoadReport, error) {
	e.mu.Lock()
	if e.loading {
		v := e.view
		e.mu.Unlock()
		return v, LoadReport{}, ErrLoadInProgress
	}
	e.loading = true
	e.state = StateLoading
	e.view.State = StateLoading
	e.mu.Unlock()

	start := time.Now()
	ds, report, err := ParseDelimited(ctx, r, fileName, e.maxFileSize)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.loading = false

	if err != nil {
		e.state = e.settledState()
		e.recomputeView()
		e.logger.Warn("load rejected", "file", fileName, "error", err)
		return e.view, report, err
	}

	pageSize := e.vs.PageSize
	e.install(ds, fileName, defaultViewState(pageSize))
	e.logger.Info("dataset loaded",
		"file", fileName,
		"rows", report.Rows,
		"columns", report.Columns,
		"padded_rows", report.PaddedRows,
		"truncated_rows", report.TruncatedRows,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return e.view, report, nil
}

// LoadExample replaces the dataset with generated example data and resets
// the view state to defaults.
func (e *Engine) LoadExample() (View, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.loading {
		return e.view, ErrLoadInProgress
	}

	ds := GenerateExample(e.rng)
	e.install(ds, ExampleFileName, defaultViewState(e.defaultSize))
	e.logger.Info("example dataset loaded", "rows", ds.Len())
	return e.view, nil
}

// install replaces the dataset. Caller holds e.mu.
func (e *Engine) install(ds *Dataset, fileName string, vs ViewState) {
	types := InferColumnTypes(ds.Columns(), ds.Records())
	columns := make([]Column, 0, len(ds.Columns()))
	for _, name := range ds.Columns() {
		columns = append(columns, Column{Name: name, Visible: true, Type: types[name]})
	}

	e.ds = ds
	e.columns = columns
	e.fileName = fileName
	e.vs = vs
	e.draft = nil
	e.state = StateReady
	e.recomputeView()
	e.scheduleSave()
}

// Clear drops the dataset and erases persisted state.
func (e *Engine) Clear() View {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.ds = nil
	e.columns = nil
	e.fileName = ""
	e.vs = defaultViewState(e.defaultSize)
	e.draft = nil
	if e.loading {
		e.state = StateLoading
	} else {
		e.state = StateEmpty
	}
	e.recomputeView()

	if e.persister != nil {
		e.persister.Clear()
	}
	e.logger.Info("dataset cleared")
	return e.view
}

// SetQuery changes the search query and returns to page 1.
func (e *Engine) SetQuery(query string) (View, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireData(); err != nil {
		return e.view, err
	}

	e.vs.Query = query
	e.vs.Page = 1
	e.recomputeView()
	return e.view, nil
}

// SetSort sorts by column. Sorting by the current sort column again flips
// the direction; a new column starts ascending. The page is kept.
func (e *Engine) SetSort(column string) (View, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireColumn(column); err != nil {
		return e.view, err
	}

	dir := SortAsc
	if e.vs.SortColumn == column {
		dir = e.vs.SortDirection.Toggle()
	}
	return e.applySort(column, dir), nil
}

// SortBy sorts by column in an explicit direction. An empty column removes
// the sort.
func (e *Engine) SortBy(column string, dir SortDirection) (View, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if column == "" {
		if err := e.requireData(); err != nil {
			return e.view, err
		}
		return e.applySort("", SortAsc), nil
	}
	if err := e.requireColumn(column); err != nil {
		return e.view, err
	}
	return e.applySort(column, dir), nil
}

func (e *Engine) applySort(column string, dir SortDirection) View {
	e.vs.SortColumn = column
	e.vs.SortDirection = dir
	e.recomputeView()
	e.scheduleSave()
	return e.view
}

// SetPage moves to page, clamped to the valid range.
func (e *Engine) SetPage(page int) (View, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireData(); err != nil {
		return e.view, err
	}

	e.vs.Page = page
	e.repage()
	return e.view, nil
}

// SetPageSize changes the page size and returns to page 1.
func (e *Engine) SetPageSize(size int) (View, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if size <= 0 || (e.maxPageSize > 0 && size > e.maxPageSize) {
		return e.view, fmt.Errorf("%w: %d", ErrInvalidPageSize, size)
	}
	if err := e.requireData(); err != nil {
		return e.view, err
	}

	e.vs.PageSize = size
	e.vs.Page = 1
	e.repage()
	e.scheduleSave()
	return e.view, nil
}

// ToggleColumnVisibility shows or hides a column. Data is never removed.
func (e *Engine) ToggleColumnVisibility(column string) (View, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireColumn(column); err != nil {
		return e.view, err
	}

	for i := range e.columns {
		if e.columns[i].Name == column {
			e.columns[i].Visible = !e.columns[i].Visible
		}
	}
	e.repage()
	e.scheduleSave()
	return e.view, nil
}

// ResetColumnVisibility makes every column visible.
func (e *Engine) ResetColumnVisibility() (View, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireData(); err != nil {
		return e.view, err
	}

	for i := range e.columns {
		e.columns[i].Visible = true
	}
	e.repage()
	e.scheduleSave()
	return e.view, nil
}

// EditCell replaces one field of the record shown at viewRow on the current
// page and recomputes the view.
func (e *Engine) EditCell(viewRow int, column string, v Value) (View, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireColumn(column); err != nil {
		return e.view, err
	}

	rec, err := ResolveViewRow(e.ds, e.rows, e.vs, viewRow)
	if err != nil {
		return e.view, err
	}
	return e.commit(rec.ID, column, v)
}

// commit writes v and recomputes. Caller holds e.mu.
func (e *Engine) commit(id RecordID, column string, v Value) (View, error) {
	if err := e.ds.Set(id, column, v); err != nil {
		return e.view, fmt.Errorf("edit %q of record %d: %w", column, id, err)
	}
	e.recomputeView()
	e.scheduleSave()
	e.logger.Debug("cell edited", "record", id, "column", column)
	return e.view, nil
}

// BeginEdit opens a draft for the cell at viewRow. The draft is bound to the
// record, not the position, so a later page or sort change cannot retarget
// it. An open draft is replaced.
func (e *Engine) BeginEdit(viewRow int, column string) (EditDraft, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireColumn(column); err != nil {
		return EditDraft{}, err
	}

	rec, err := ResolveViewRow(e.ds, e.rows, e.vs, viewRow)
	if err != nil {
		return EditDraft{}, err
	}
	current, err := e.ds.Value(rec.ID, column)
	if err != nil {
		return EditDraft{}, err
	}

	e.draft = &EditDraft{
		Row:      viewRow,
		RecordID: rec.ID,
		Column:   column,
		Value:    current.Text(),
		Original: current.Text(),
	}
	return *e.draft, nil
}

// Draft returns the open draft.
func (e *Engine) Draft() (EditDraft, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.draft == nil {
		return EditDraft{}, false
	}
	return *e.draft, true
}

// SetDraftValue replaces the working value of the open draft.
func (e *Engine) SetDraftValue(value string) (EditDraft, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.draft == nil {
		return EditDraft{}, ErrNoDraft
	}
	e.draft.Value = value
	return *e.draft, nil
}

// TransformDraft rewrites the working value of the open draft. The dataset
// is untouched until CommitEdit.
func (e *Engine) TransformDraft(kind TransformKind) (EditDraft, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.draft == nil {
		return EditDraft{}, ErrNoDraft
	}

	v, err := ApplyTransform(kind, e.draft.Value)
	if err != nil {
		return *e.draft, err
	}
	e.draft.Value = v
	return *e.draft, nil
}

// CommitEdit writes the draft into its record and closes it. The working
// text is typed like an ingested cell, so clearing a cell stores null.
func (e *Engine) CommitEdit() (View, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.draft == nil {
		return e.view, ErrNoDraft
	}
	if err := e.requireData(); err != nil {
		e.draft = nil
		return e.view, err
	}

	d := e.draft
	e.draft = nil
	return e.commit(d.RecordID, d.Column, ParseCell(d.Value))
}

// CancelEdit discards the open draft, if any.
func (e *Engine) CancelEdit() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.draft = nil
}

// Export renders every filtered-sorted row (all pages) restricted to the
// visible columns.
func (e *Engine) Export(format ExportFormat) (ExportResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireData(); err != nil {
		return ExportResult{}, err
	}

	content, err := Render(e.rows, e.ds.Columns(), VisibleColumns(e.columns), format)
	if err != nil {
		e.logger.Error("export failed", "format", format, "error", err)
		return ExportResult{}, err
	}
	return ExportResult{
		FileName:    ExportFileName(e.fileName, format),
		ContentType: format.ContentType(),
		Content:     content,
		Rows:        len(e.rows),
	}, nil
}

// CopyRenderedText returns the JSON rendering of the export set, for a
// collaborator to place on a clipboard.
func (e *Engine) CopyRenderedText() (string, error) {
	res, err := e.Export(FormatJSON)
	if err != nil {
		return "", err
	}
	return string(res.Content), nil
}

// Restore installs the persisted state, if any. It reports whether data was
// restored. Query and page are not persisted, so the restored view is
// unfiltered and on page 1.
func (e *Engine) Restore(ctx context.Context) (View, bool, error) {
	if e.persister == nil {
		return e.View(), false, nil
	}

	snap, err := e.persister.Load(ctx)
	if err != nil {
		e.logger.Error("restore failed", "error", err)
		return e.View(), false, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if snap == nil {
		return e.view, false, nil
	}
	r, ok := snap.restore(e.maxPageSize)
	if !ok {
		return e.view, false, nil
	}

	e.ds = r.ds
	e.columns = r.columns
	e.fileName = r.fileName
	e.vs = r.vs
	e.draft = nil
	e.state = StateReady
	e.recomputeView()
	e.logger.Info("dataset restored", "file", r.fileName, "rows", r.ds.Len())
	return e.view, true, nil
}

// Flush waits until every scheduled save has been written.
func (e *Engine) Flush(ctx context.Context) error {
	if e.persister == nil {
		return nil
	}
	return e.persister.Flush(ctx)
}

// Close flushes pending saves and stops the background writer. The engine
// must not be used afterwards.
func (e *Engine) Close(ctx context.Context) error {
	if e.persister == nil {
		return nil
	}
	return e.persister.Close(ctx)
}

func (e *Engine) settledState() State {
	if e.ds != nil {
		return StateReady
	}
	return StateEmpty
}

func (e *Engine) requireData() error {
	if e.ds == nil {
		return ErrNotReady
	}
	return nil
}

func (e *Engine) requireColumn(column string) error {
	if err := e.requireData(); err != nil {
		return err
	}
	if e.ds.ColumnIndex(column) < 0 {
		return fmt.Errorf("%w %q", ErrUnknownColumn, column)
	}
	return nil
}

// recomputeView re-derives the filtered-sorted sequence and the page from
// scratch. Caller holds e.mu.
func (e *Engine) recomputeView() {
	if e.ds == nil {
		e.rows = nil
		e.vs.Page = 1
		e.view = emptyView(e.state, e.vs)
		return
	}
	e.rows = DeriveRows(e.ds, e.columns, e.vs)
	e.repage()
}

// repage rebuilds the page from the current sequence without re-filtering.
// Used for changes that do not affect which rows match or their order.
func (e *Engine) repage() {
	e.view = pageView(e.ds, e.columns, e.vs, e.rows)
	e.view.State = e.state
	e.view.FileName = e.fileName
	e.vs.Page = e.view.Page
}

// scheduleSave hands a copy of the current state to the persister.
// Caller holds e.mu.
func (e *Engine) scheduleSave() {
	if e.persister == nil || e.ds == nil {
		return
	}
	e.persister.Save(newSnapshot(e.ds, e.columns, e.fileName, e.vs))
}
