package core

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// LoadTimeout is the default maximum duration for a single document load.
var LoadTimeout = 5 * time.Minute

// DefaultKeyPrefix namespaces session entries in a shared store.
const DefaultKeyPrefix = DefaultStateKey + ":"

// ServiceConfig configures a Service. Zero values fall back to defaults.
type ServiceConfig struct {
	Store              Store // nil keeps sessions in memory only
	KeyPrefix          string
	Logger             *slog.Logger
	MaxFileSize        int64
	DefaultPageSize    int
	MaxPageSize        int
	MaxConcurrentLoads int
	MaxLoadWait        time.Duration
	LoadTimeout        time.Duration
	Seed               int64 // example data seed, 0 derives one per session
}

// Service owns many independent engines keyed by session id.
type Service struct {
	cfg     ServiceConfig
	logger  *slog.Logger
	limiter *LoadLimiter

	mu       sync.RWMutex
	sessions map[string]*session
}

type session struct {
	id       string
	engine   *Engine
	lastUsed atomic.Int64 // unix nanoseconds
}

func (s *session) touch() { s.lastUsed.Store(time.Now().UnixNano()) }

func (s *session) idleSince() time.Time { return time.Unix(0, s.lastUsed.Load()) }

// NewService creates a Service.
func NewService(cfg ServiceConfig) *Service {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = DefaultKeyPrefix
	}
	if cfg.LoadTimeout <= 0 {
		cfg.LoadTimeout = LoadTimeout
	}

	return &Service{
		cfg:      cfg,
		logger:   cfg.Logger,
		limiter:  NewLoadLimiter(cfg.MaxConcurrentLoads, cfg.MaxLoadWait),
		sessions: make(map[string]*session),
	}
}

// Limiter returns the load limiter shared by all sessions.
func (s *Service) Limiter() *LoadLimiter { return s.limiter }

// Len returns the number of sessions held in memory.
func (s *Service) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Create starts a new empty session.
func (s *Service) Create(ctx context.Context) (string, *Engine, error) {
	id := uuid.New().String()
	sess := &session{id: id, engine: s.newEngine(id)}
	sess.touch()

	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()

	s.logger.Info("session created", "session", id)
	return id, sess.engine, nil
}

// Open returns the engine of a session. A session that is not in memory is
// restored from the store; one with no saved data is ErrSessionNotFound.
func (s *Service) Open(ctx context.Context, id string) (*Engine, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrSessionNotFound, id)
	}

	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if ok {
		sess.touch()
		return sess.engine, nil
	}

	if s.cfg.Store == nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}

	engine := s.newEngine(id)
	_, found, err := engine.Restore(ctx)
	if err != nil || !found {
		_ = engine.Close(ctx)
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}

	s.mu.Lock()
	if existing, ok := s.sessions[id]; ok {
		// Another request restored the same session first.
		s.mu.Unlock()
		_ = engine.Close(ctx)
		existing.touch()
		return existing.engine, nil
	}
	sess = &session{id: id, engine: engine}
	sess.touch()
	s.sessions[id] = sess
	s.mu.Unlock()

	s.logger.Info("session restored", "session", id, "rows", engine.View().TotalCount)
	return engine, nil
}

// Load parses a document into a session, holding a load slot while parsing.
func (s *Service) Load(ctx context.Context, id string, r io.Reader, fileName string) (View, LoadReport, error) {
	engine, err := s.Open(ctx, id)
	if err != nil {
		return View{}, LoadReport{}, err
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return engine.View(), LoadReport{}, err
	}
	defer s.limiter.Release()

	loadCtx, cancel := context.WithTimeout(ctx, s.cfg.LoadTimeout)
	defer cancel()
	return engine.Load(loadCtx, r, fileName)
}

// Close drops a session from memory after flushing its pending saves. Its
// persisted state stays, so it can be opened again.
func (s *Service) Close(ctx context.Context, id string) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if err := sess.engine.Close(ctx); err != nil {
		return fmt.Errorf("close session %s: %w", id, err)
	}
	s.logger.Info("session closed", "session", id)
	return nil
}

// Destroy clears a session's data, erases its persisted state and drops it.
func (s *Service) Destroy(ctx context.Context, id string) error {
	engine, err := s.Open(ctx, id)
	if err != nil {
		return err
	}
	engine.Clear()
	return s.Close(ctx, id)
}

// Shutdown waits for running loads and closes every session.
func (s *Service) Shutdown(ctx context.Context) error {
	if err := s.limiter.WaitForDrain(ctx); err != nil {
		s.logger.Warn("loads still running at shutdown", "active", s.limiter.ActiveCount())
	}

	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*session)
	s.mu.Unlock()

	var firstErr error
	for id, sess := range sessions {
		if err := sess.engine.Close(ctx); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close session %s: %w", id, err)
		}
	}
	s.logger.Info("sessions closed", "count", len(sessions))
	return firstErr
}

func (s *Service) newEngine(id string) *Engine {
	var persister *Persister
	if s.cfg.Store != nil {
		persister = NewPersister(s.cfg.Store, s.cfg.KeyPrefix+id, s.logger.With("session", id))
	}

	var rng *rand.Rand
	if s.cfg.Seed != 0 {
		rng = rand.New(rand.NewSource(s.cfg.Seed))
	}

	return NewEngine(EngineConfig{
		Session:         id,
		Logger:          s.logger,
		Persister:       persister,
		MaxFileSize:     s.cfg.MaxFileSize,
		DefaultPageSize: s.cfg.DefaultPageSize,
		MaxPageSize:     s.cfg.MaxPageSize,
		Rand:            rng,
	})
}
