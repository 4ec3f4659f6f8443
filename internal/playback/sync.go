// Package playback mirrors the primary video's playback state onto the
// cropped preview. The primary is only ever read; the preview is only ever
// written.
package playback

import (
	"log/slog"
	"sync"
)

// Synchronizer writes the primary's time, rate, volume and play state onto
// the preview element on every tick while the preview is visible.
type Synchronizer struct {
	preview Element
	logger  *slog.Logger

	mu           sync.Mutex
	active       bool
	suspended    bool
	resetPending bool
	playFailures int
}

func NewSynchronizer(preview Element, logger *slog.Logger) *Synchronizer {
	return &Synchronizer{preview: preview, logger: logger}
}

// SetActive turns the crop preview on or off.
func (s *Synchronizer) SetActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = active
}

// Suspend stops mirroring until Resume. Used for the duration of a drag.
func (s *Synchronizer) Suspend() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.suspended = true
}

func (s *Synchronizer) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.suspended = false
}

// ResetVisibility hides the preview for the next sync opportunity.
func (s *Synchronizer) ResetVisibility() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetPending = true
}

// Visible reports whether the preview should currently be shown.
func (s *Synchronizer) Visible() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visibleLocked()
}

func (s *Synchronizer) visibleLocked() bool {
	return s.active && !s.suspended && !s.resetPending
}

// Mirror copies primary onto the preview. It returns false when nothing was
// written: inactive, suspended, or the one hidden cycle after a reset, which
// it consumes.
func (s *Synchronizer) Mirror(primary State) bool {
	s.mu.Lock()
	if !s.active || s.suspended {
		s.mu.Unlock()
		return false
	}
	if s.resetPending {
		s.resetPending = false
		s.mu.Unlock()
		return false
	}
	s.mu.Unlock()

	primary = primary.Normalize()
	s.preview.Seek(primary.CurrentTime)
	s.preview.SetRate(primary.Rate)
	s.preview.SetVolume(primary.Volume)
	if !primary.IsPlaying {
		s.preview.Pause()
		return true
	}
	if err := s.preview.Play(); err != nil {
		s.PlayFailed(err)
	}
	return true
}

// PlayFailed records a rejected preview play request. Sync continues on the
// next tick.
func (s *Synchronizer) PlayFailed(err error) {
	s.mu.Lock()
	s.playFailures++
	n := s.playFailures
	s.mu.Unlock()

	if s.logger != nil {
		s.logger.Warn("preview play rejected", "error", err, "failures", n)
	}
}

func (s *Synchronizer) PlayFailures() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playFailures
}
