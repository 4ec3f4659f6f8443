// Package history keeps the append-only log of crop settings captured each
// time a drag completes.
package history

import (
	"context"
	"sync"
	"time"

	"github.com/heimdex/heimdex-cropper/internal/playback"
)

// Settings is the state a drag completion is measured against.
type Settings struct {
	Volume     float64
	Percentage float64
	Rate       playback.Rate
	Timestamp  time.Time
}

// DefaultSettings is the baseline before any drag has completed.
func DefaultSettings() Settings {
	return Settings{
		Volume:     playback.DefaultVolume,
		Percentage: 0,
		Rate:       playback.DefaultRate,
	}
}

// Snapshot is one immutable history entry.
type Snapshot struct {
	Volume     float64
	LeftBound  float64
	RightBound float64
	Rate       playback.Rate
	Timestamp  time.Time
}

// Capture builds the entry for the baseline being replaced.
func Capture(previous Settings, at time.Time) Snapshot {
	return Snapshot{
		Volume:     previous.Volume,
		LeftBound:  previous.Percentage,
		RightBound: 100 - previous.Percentage,
		Rate:       previous.Rate,
		Timestamp:  at,
	}
}

// Completion is one finished drag: the settings in effect when it ended.
type Completion struct {
	Settings Settings
	At       time.Time
}

// Step applies one completion to a baseline. It returns the appended
// snapshot and the baseline for the next step.
func Step(baseline Settings, c Completion) (Snapshot, Settings) {
	snap := Capture(baseline, c.At)
	next := c.Settings
	next.Timestamp = c.At
	return snap, next
}

// Fold replays completions over initial, yielding the full history and the
// resulting baseline.
func Fold(initial Settings, completions []Completion) ([]Snapshot, Settings) {
	snaps := make([]Snapshot, 0, len(completions))
	baseline := initial
	for _, c := range completions {
		var snap Snapshot
		snap, baseline = Step(baseline, c)
		snaps = append(snaps, snap)
	}
	return snaps, baseline
}

// Store persists snapshots per session in append order.
type Store interface {
	Append(ctx context.Context, sessionID string, snap Snapshot) error
	List(ctx context.Context, sessionID string) ([]Snapshot, error)
	Delete(ctx context.Context, sessionID string) error
}

// Recorder is the stateful wrapper around Step for a single session.
type Recorder struct {
	sessionID string
	store     Store
	now       func() time.Time

	mu       sync.Mutex
	baseline Settings
	last     time.Time
	count    int
}

type RecorderOption func(*Recorder)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) RecorderOption {
	return func(r *Recorder) { r.now = now }
}

func NewRecorder(sessionID string, store Store, initial Settings, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		sessionID: sessionID,
		store:     store,
		now:       time.Now,
		baseline:  initial,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record appends a snapshot of the current baseline and makes current the
// new baseline. Timestamps never go backwards even if the clock does.
func (r *Recorder) Record(ctx context.Context, current Settings) (Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	at := r.now().UTC()
	if at.Before(r.last) {
		at = r.last
	}

	snap, next := Step(r.baseline, Completion{Settings: current, At: at})
	if err := r.store.Append(ctx, r.sessionID, snap); err != nil {
		return Snapshot{}, err
	}

	r.baseline = next
	r.last = at
	r.count++
	return snap, nil
}

// Baseline is the most recent settings, the head of the exported document.
func (r *Recorder) Baseline() Settings {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.baseline
}

func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

func (r *Recorder) History(ctx context.Context) ([]Snapshot, error) {
	return r.store.List(ctx, r.sessionID)
}

// Discard drops the session's history from the store.
func (r *Recorder) Discard(ctx context.Context) error {
	return r.store.Delete(ctx, r.sessionID)
}
