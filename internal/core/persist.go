package core

// persist.go saves and restores engine state through a key-value Store.
//
// Writes are asynchronous. A single background writer drains one pending
// operation slot, so a burst of saves collapses into the latest one and a
// clear always lands after any save scheduled before it. Failures are logged
// and never reach the caller.

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// DefaultStateKey is the entry name used when an engine has no session key.
const DefaultStateKey = "tableTamerData"

// DefaultWriteTimeout bounds a single store write.
var DefaultWriteTimeout = 10 * time.Second

// Store is a key-value backend for persisted state.
// Get returns ErrNotFound when the key has no entry.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Snapshot is the persisted layout: the dataset plus the settings that
// survive a restart. Query and page index are not part of it.
type Snapshot struct {
	Data             []map[string]Value    `json:"data"`
	Columns          []string              `json:"columns"`
	ColumnVisibility map[string]bool       `json:"columnVisibility"`
	FileName         string                `json:"fileName"`
	SortColumn       *string               `json:"sortColumn"`
	SortDirection    SortDirection         `json:"sortDirection"`
	PageSize         int                   `json:"pageSize"`
	ColumnTypes      map[string]ColumnType `json:"columnTypes,omitempty"`
}

// newSnapshot copies engine state into a Snapshot that shares nothing with it.
func newSnapshot(ds *Dataset, columns []Column, fileName string, vs ViewState) *Snapshot {
	names := ds.Columns()
	s := &Snapshot{
		Data:             make([]map[string]Value, 0, ds.Len()),
		Columns:          names,
		ColumnVisibility: make(map[string]bool, len(columns)),
		FileName:         fileName,
		SortDirection:    vs.SortDirection,
		PageSize:         vs.PageSize,
		ColumnTypes:      make(map[string]ColumnType, len(columns)),
	}
	if vs.SortColumn != "" {
		col := vs.SortColumn
		s.SortColumn = &col
	}
	for _, c := range columns {
		s.ColumnVisibility[c.Name] = c.Visible
		s.ColumnTypes[c.Name] = c.Type
	}
	for _, rec := range ds.Records() {
		row := make(map[string]Value, len(names))
		for i, name := range names {
			row[name] = cellAt(rec, i)
		}
		s.Data = append(s.Data, row)
	}
	return s
}

// restored is the engine state rebuilt from a Snapshot.
type restored struct {
	ds       *Dataset
	columns  []Column
	fileName string
	vs       ViewState
}

// restore rebuilds engine state. Records receive fresh IDs; missing fields
// become null; missing column types are re-inferred; an unknown sort column
// is dropped. It returns false when the snapshot holds no data.
func (s *Snapshot) restore(maxPageSize int) (restored, bool) {
	if len(s.Columns) == 0 || len(s.Data) == 0 {
		return restored{}, false
	}

	ds := NewDataset(s.Columns)
	for _, row := range s.Data {
		values := make([]Value, len(s.Columns))
		for i, name := range s.Columns {
			values[i] = row[name]
		}
		ds.Append(values)
	}

	var inferred map[string]ColumnType
	columns := make([]Column, len(s.Columns))
	for i, name := range s.Columns {
		visible, ok := s.ColumnVisibility[name]
		if !ok {
			visible = true
		}
		t, ok := s.ColumnTypes[name]
		if !ok || !t.Valid() {
			if inferred == nil {
				inferred = InferColumnTypes(s.Columns, ds.Records())
			}
			t = inferred[name]
		}
		columns[i] = Column{Name: name, Visible: visible, Type: t}
	}

	pageSize := s.PageSize
	if pageSize <= 0 || (maxPageSize > 0 && pageSize > maxPageSize) {
		pageSize = DefaultPageSize
	}
	vs := defaultViewState(pageSize)
	if s.SortDirection == SortDesc {
		vs.SortDirection = SortDesc
	}
	if s.SortColumn != nil && ds.ColumnIndex(*s.SortColumn) >= 0 {
		vs.SortColumn = *s.SortColumn
	}

	return restored{ds: ds, columns: columns, fileName: s.FileName, vs: vs}, true
}

type persistOp struct {
	remove bool
	snap   *Snapshot
}

// Persister runs the background writer for one state key.
type Persister struct {
	store   Store
	key     string
	logger  *slog.Logger
	timeout time.Duration

	mu      sync.Mutex
	idle    *sync.Cond
	pending *persistOp
	busy    bool
	closed  bool

	wake chan struct{}
	done chan struct{}
	exit chan struct{}
}

// NewPersister starts a writer for key. Call Close to stop it.
func NewPersister(store Store, key string, logger *slog.Logger) *Persister {
	if key == "" {
		key = DefaultStateKey
	}
	if logger == nil {
		logger = slog.Default()
	}
	p := &Persister{
		store:   store,
		key:     key,
		logger:  logger.With("key", key),
		timeout: DefaultWriteTimeout,
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
		exit:    make(chan struct{}),
	}
	p.idle = sync.NewCond(&p.mu)
	go p.run()
	return p
}

// Key returns the store key the persister writes.
func (p *Persister) Key() string { return p.key }

// Save schedules a write of s, replacing any write not yet started.
func (p *Persister) Save(s *Snapshot) {
	p.schedule(&persistOp{snap: s})
}

// Clear schedules deletion of the entry, replacing any pending save.
func (p *Persister) Clear() {
	p.schedule(&persistOp{remove: true})
}

func (p *Persister) schedule(op *persistOp) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.logger.Debug("persister closed, dropping write", "remove", op.remove)
		return
	}
	p.pending = op
	p.mu.Unlock()

	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// Flush blocks until every scheduled write has been applied or ctx ends.
func (p *Persister) Flush(ctx context.Context) error {
	drained := make(chan struct{})
	go func() {
		p.mu.Lock()
		for p.pending != nil || p.busy {
			p.idle.Wait()
		}
		p.mu.Unlock()
		close(drained)
	}()

	select {
	case <-drained:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close flushes pending writes and stops the writer. Later saves are dropped.
func (p *Persister) Close(ctx context.Context) error {
	err := p.Flush(ctx)

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return err
	}
	p.closed = true
	p.mu.Unlock()

	close(p.done)
	<-p.exit
	return err
}

// Load reads the persisted snapshot. A missing entry returns (nil, nil);
// an undecodable entry is logged and also treated as missing.
func (p *Persister) Load(ctx context.Context) (*Snapshot, error) {
	data, err := p.store.Get(ctx, p.key)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, &PersistenceError{Op: "restore", Key: p.key, Err: err}
	}

	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		p.logger.Warn("discarding unreadable saved state",
			"error", &PersistenceError{Op: "restore", Key: p.key, Err: err},
		)
		return nil, nil
	}
	return &s, nil
}

func (p *Persister) run() {
	defer close(p.exit)
	for {
		select {
		case <-p.wake:
		case <-p.done:
			return
		}

		for {
			p.mu.Lock()
			op := p.pending
			p.pending = nil
			if op == nil {
				p.busy = false
				p.idle.Broadcast()
				p.mu.Unlock()
				break
			}
			p.busy = true
			p.mu.Unlock()

			p.apply(op)
		}
	}
}

func (p *Persister) apply(op *persistOp) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	start := time.Now()
	if op.remove {
		if err := p.store.Delete(ctx, p.key); err != nil && !errors.Is(err, ErrNotFound) {
			p.logger.Error("clear saved state failed", "error", &PersistenceError{Op: "clear", Key: p.key, Err: err})
			return
		}
		p.logger.Debug("saved state cleared", "duration_ms", time.Since(start).Milliseconds())
		return
	}

	data, err := json.Marshal(op.snap)
	if err != nil {
		p.logger.Error("encode state failed", "error", &PersistenceError{Op: "save", Key: p.key, Err: err})
		return
	}
	if err := p.store.Put(ctx, p.key, data); err != nil {
		p.logger.Error("save state failed", "error", &PersistenceError{Op: "save", Key: p.key, Err: err})
		return
	}
	p.logger.Debug("state saved",
		"rows", len(op.snap.Data),
		"bytes", len(data),
		"duration_ms", time.Since(start).Milliseconds(),
	)
}
