package session

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/heimdex/heimdex-cropper/internal/geometry"
	"github.com/heimdex/heimdex-cropper/internal/history"
	"github.com/heimdex/heimdex-cropper/internal/logging"
	"github.com/heimdex/heimdex-cropper/internal/playback"
	"github.com/heimdex/heimdex-cropper/internal/schedule"
)

type SessionManager interface {
	Create(ctx context.Context, req CreateRequest) (*Session, error)
	Get(id string) (*Session, error)
	Delete(ctx context.Context, id string) error
	Len() int
	Stats() Stats
	IDs() []string
}

// CreateRequest carries the caller-chosen starting values. Zero fields take
// the defaults.
type CreateRequest struct {
	Label  string
	Ratio  geometry.AspectRatio
	Volume float64
	Rate   playback.Rate
}

// Stats summarizes the open sessions for status displays.
type Stats struct {
	Active int
	Oldest time.Time
}

type Manager struct {
	store          history.Store
	logger         *slog.Logger
	resizeDebounce time.Duration
	clock          func() time.Time
	afterFunc      schedule.AfterFunc

	mu       sync.RWMutex
	sessions map[string]*Session
}

type ManagerOption func(*Manager)

func WithResizeDebounce(d time.Duration) ManagerOption {
	return func(m *Manager) { m.resizeDebounce = d }
}

func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) { m.clock = now }
}

func WithAfterFunc(fn schedule.AfterFunc) ManagerOption {
	return func(m *Manager) { m.afterFunc = fn }
}

func NewManager(store history.Store, logger *slog.Logger, opts ...ManagerOption) *Manager {
	if store == nil {
		store = history.NewMemoryStore()
	}
	if logger == nil {
		logger = logging.Discard()
	}
	m := &Manager{
		store:          store,
		logger:         logger,
		resizeDebounce: DefaultResizeDebounce,
		clock:          time.Now,
		sessions:       make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) Create(ctx context.Context, req CreateRequest) (*Session, error) {
	id := uuid.NewString()
	s := New(Options{
		ID:             id,
		Label:          SanitizeLabel(req.Label, maxLabelLen),
		Ratio:          req.Ratio,
		Volume:         req.Volume,
		Rate:           req.Rate,
		ResizeDebounce: m.resizeDebounce,
		Store:          m.store,
		Logger:         m.logger,
		Clock:          m.clock,
		AfterFunc:      m.afterFunc,
	})

	m.mu.Lock()
	m.sessions[id] = s
	n := len(m.sessions)
	m.mu.Unlock()

	m.logger.Info("session created", "session_id", id, "ratio", s.ratio.String(), "active_sessions", n)
	return s, nil
}

func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s, nil
}

func (m *Manager) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err := s.Close(ctx); err != nil {
		return err
	}
	m.logger.Info("session deleted", "session_id", id)
	return nil
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *Manager) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st := Stats{Active: len(m.sessions)}
	for _, s := range m.sessions {
		if st.Oldest.IsZero() || s.CreatedAt().Before(st.Oldest) {
			st.Oldest = s.CreatedAt()
		}
	}
	return st
}

// IDs returns the open session IDs, oldest first.
func (m *Manager) IDs() []string {
	m.mu.RLock()
	all := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		all = append(all, s)
	}
	m.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt().Before(all[j].CreatedAt())
	})
	ids := make([]string, len(all))
	for i, s := range all {
		ids[i] = s.ID()
	}
	return ids
}

// CloseIdle closes sessions with no inbound event for longer than maxIdle
// and returns how many it closed.
func (m *Manager) CloseIdle(ctx context.Context, maxIdle time.Duration) int {
	cutoff := m.clock().Add(-maxIdle)

	m.mu.Lock()
	var idle []*Session
	for id, s := range m.sessions {
		if s.LastActive().Before(cutoff) {
			idle = append(idle, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range idle {
		if err := s.Close(ctx); err != nil {
			m.logger.Warn("failed to close idle session", "session_id", s.ID(), "error", err)
			continue
		}
		m.logger.Info("idle session closed", "session_id", s.ID(), "idle_since", s.LastActive())
	}
	return len(idle)
}

// CloseAll closes every session, for shutdown.
func (m *Manager) CloseAll(ctx context.Context) {
	m.mu.Lock()
	all := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range all {
		if err := s.Close(ctx); err != nil {
			m.logger.Warn("failed to close session", "session_id", s.ID(), "error", err)
		}
	}
}
