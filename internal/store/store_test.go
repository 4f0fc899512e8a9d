package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/TableTamer/internal/config"
	"github.com/JonMunkholm/TableTamer/internal/core"
)

// exerciseStore runs the shared contract against any driver.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Get(ctx, "tt:missing")
	assert.ErrorIs(t, err, core.ErrNotFound)

	require.NoError(t, s.Put(ctx, "tt:a", []byte(`{"v":1}`)))
	require.NoError(t, s.Put(ctx, "tt:b", []byte(`{"v":2}`)))
	require.NoError(t, s.Put(ctx, "other", []byte(`{}`)))

	got, err := s.Get(ctx, "tt:a")
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":1}`, string(got))

	require.NoError(t, s.Put(ctx, "tt:a", []byte(`{"v":3}`)))
	got, err = s.Get(ctx, "tt:a")
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":3}`, string(got), "put should overwrite")

	keys, err := s.Keys(ctx, "tt:")
	require.NoError(t, err)
	assert.Equal(t, []string{"tt:a", "tt:b"}, keys)

	require.NoError(t, s.Delete(ctx, "tt:a"))
	_, err = s.Get(ctx, "tt:a")
	assert.ErrorIs(t, err, core.ErrNotFound)

	// Deleting a missing key is not an error.
	assert.NoError(t, s.Delete(ctx, "tt:a"))
}

func TestMemory(t *testing.T) {
	m := NewMemory()
	defer m.Close()
	exerciseStore(t, m)
	assert.Equal(t, 2, m.Len())
}

func TestMemory_CopiesValues(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	buf := []byte("abc")
	require.NoError(t, m.Put(ctx, "k", buf))
	buf[0] = 'x'

	got, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}

func TestMemory_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewMemory().Get(ctx, "k")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBadger_InMemory(t *testing.T) {
	b, err := OpenBadger(InMemoryConfig())
	require.NoError(t, err)
	defer b.Close()

	exerciseStore(t, b)
}

func TestBadger_Persistent(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Path = dir
	cfg.SyncWrites = false
	cfg.GCInterval = time.Hour

	b, err := OpenBadger(cfg)
	require.NoError(t, err)
	require.NoError(t, b.Put(context.Background(), "session", []byte("state")))
	require.NoError(t, b.Close())

	reopened, err := OpenBadger(cfg)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Get(context.Background(), "session")
	require.NoError(t, err)
	assert.Equal(t, []byte("state"), got)
}

func TestBadger_RequiresPath(t *testing.T) {
	_, err := OpenBadger(Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "path is required")
}

func TestConfigFunctions(t *testing.T) {
	t.Run("DefaultConfig syncs writes", func(t *testing.T) {
		cfg := DefaultConfig()
		assert.True(t, cfg.SyncWrites)
		assert.False(t, cfg.InMemory)
		assert.Equal(t, 5*time.Minute, cfg.GCInterval)
	})

	t.Run("InMemoryConfig disables GC", func(t *testing.T) {
		cfg := InMemoryConfig()
		assert.True(t, cfg.InMemory)
		assert.False(t, cfg.SyncWrites)
		assert.Equal(t, time.Duration(0), cfg.GCInterval)
	})
}

func TestOpen_Drivers(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, config.StoreConfig{Driver: "MEMORY"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, s)
	require.NoError(t, s.Close())

	s, err = Open(ctx, config.StoreConfig{Driver: config.DriverBadger, Path: t.TempDir()}, nil)
	require.NoError(t, err)
	assert.IsType(t, &Badger{}, s)
	require.NoError(t, s.Close())

	_, err = Open(ctx, config.StoreConfig{Driver: "redis"}, nil)
	assert.Error(t, err)
}

func TestPersisterOverBadger(t *testing.T) {
	b, err := OpenBadger(InMemoryConfig())
	require.NoError(t, err)
	defer b.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	engine := core.NewEngine(core.EngineConfig{Persister: core.NewPersister(b, "tt:one", nil)})
	_, err = engine.LoadExample()
	require.NoError(t, err)
	require.NoError(t, engine.Close(ctx))

	restored := core.NewEngine(core.EngineConfig{Persister: core.NewPersister(b, "tt:one", nil)})
	defer restored.Close(ctx)

	view, found, err := restored.Restore(ctx)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, core.ExampleRowCount, view.TotalCount)
	assert.Equal(t, core.ExampleFileName, view.FileName)
}

func TestPostgres(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	p, err := OpenPostgres(ctx, PostgresConfig{URL: dsn, MaxConns: 2}, nil)
	require.NoError(t, err)
	defer p.Close()

	_, err = p.pool.Exec(ctx, `DELETE FROM session_state WHERE key LIKE 'tt:%' OR key = 'other'`)
	require.NoError(t, err)

	exerciseStore(t, p)
}
