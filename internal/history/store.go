package history

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/heimdex/heimdex-cropper/internal/playback"
)

// MemoryStore keeps history in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]Snapshot
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string][]Snapshot)}
}

func (m *MemoryStore) Append(ctx context.Context, sessionID string, snap Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sessionID] = append(m.sessions[sessionID], snap)
	return nil
}

func (m *MemoryStore) List(ctx context.Context, sessionID string) ([]Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	src := m.sessions[sessionID]
	out := make([]Snapshot, len(src))
	copy(out, src)
	return out, nil
}

func (m *MemoryStore) Delete(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
	return nil
}

// SQLiteStore keeps history in the settings_snapshots table.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Append(ctx context.Context, sessionID string, snap Snapshot) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings_snapshots (session_id, volume, left_bound, right_bound, playback_rate, captured_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, sessionID, snap.Volume, snap.LeftBound, snap.RightBound, float64(snap.Rate), snap.Timestamp.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("append snapshot: %w", err)
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context, sessionID string) ([]Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT volume, left_bound, right_bound, playback_rate, captured_at
		FROM settings_snapshots WHERE session_id = ? ORDER BY seq ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []Snapshot
	for rows.Next() {
		var snap Snapshot
		var rate float64
		var capturedAt string
		if err := rows.Scan(&snap.Volume, &snap.LeftBound, &snap.RightBound, &rate, &capturedAt); err != nil {
			return nil, err
		}
		snap.Rate = playback.Rate(rate)
		snap.Timestamp, err = time.Parse(time.RFC3339Nano, capturedAt)
		if err != nil {
			return nil, fmt.Errorf("parse captured_at %q: %w", capturedAt, err)
		}
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}

func (s *SQLiteStore) Delete(ctx context.Context, sessionID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM settings_snapshots WHERE session_id = ?`, sessionID)
	return err
}
