package core

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

// memStore is a Store for tests. Setting failPut makes every Put fail.
type memStore struct {
	mu      sync.Mutex
	data    map[string][]byte
	puts    int
	failPut bool
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string][]byte)}
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *memStore) Put(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failPut {
		return errors.New("disk full")
	}
	m.puts++
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *memStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *memStore) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// peopleCSV is the three-row scenario used across the engine tests.
const peopleCSV = "id,name\n1,Bob\n2,amy\n3,Cara\n"

// newTestEngine returns an engine without persistence, loaded with doc.
func newTestEngine(t *testing.T, doc string) *Engine {
	t.Helper()
	e := NewEngine(EngineConfig{Logger: discardLogger()})
	if _, _, err := e.Load(context.Background(), strings.NewReader(doc), "people.csv"); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return e
}

// records builds records with sequential IDs from typed rows.
func records(rows ...[]Value) []*Record {
	out := make([]*Record, len(rows))
	for i, r := range rows {
		out[i] = &Record{ID: RecordID(i + 1), Values: r}
	}
	return out
}

// column returns the text of one column across rows.
func column(rows []*Record, col int) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = cellAt(r, col).Text()
	}
	return out
}

// viewColumn returns the text of one visible column across the page.
func viewColumn(v View, name string) []string {
	idx := -1
	for i, c := range v.VisibleColumns {
		if c == name {
			idx = i
		}
	}
	out := make([]string, len(v.Rows))
	for i, r := range v.Rows {
		if idx >= 0 {
			out[i] = r.Values[idx].Text()
		}
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
