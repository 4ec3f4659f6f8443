package ui

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/getlantern/systray"

	"github.com/heimdex/heimdex-cropper/internal/session"
)

const refreshInterval = 5 * time.Second

type Tray struct {
	sessions session.SessionManager
	reaper   *session.Reaper
	logger   *slog.Logger

	sessionsItem *systray.MenuItem
	oldestItem   *systray.MenuItem
	pauseItem    *systray.MenuItem

	mu sync.Mutex

	onQuit func()
}

type TrayConfig struct {
	Sessions session.SessionManager
	Reaper   *session.Reaper
	Logger   *slog.Logger
	OnQuit   func()
}

func NewTray(cfg TrayConfig) *Tray {
	return &Tray{
		sessions: cfg.Sessions,
		reaper:   cfg.Reaper,
		logger:   cfg.Logger,
		onQuit:   cfg.OnQuit,
	}
}

// Run blocks until the tray exits. ctx stops the periodic refresh.
func (t *Tray) Run(ctx context.Context) {
	systray.Run(func() { t.onReady(ctx) }, t.onExit)
}

func (t *Tray) onReady(ctx context.Context) {
	systray.SetTitle("Cropper")
	systray.SetTooltip("Heimdex Cropper")

	t.sessionsItem = systray.AddMenuItem(sessionsTitle(0), "Open editing sessions")
	t.sessionsItem.Disable()

	t.oldestItem = systray.AddMenuItem(oldestTitle(session.Stats{}), "Oldest open session")
	t.oldestItem.Disable()

	systray.AddSeparator()

	t.pauseItem = systray.AddMenuItem("Pause Idle Cleanup", "Stop closing idle sessions")

	systray.AddSeparator()

	quitItem := systray.AddMenuItem("Quit", "Quit Heimdex Cropper")

	go func() {
		ticker := time.NewTicker(refreshInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				t.Refresh()
			case <-t.pauseItem.ClickedCh:
				t.togglePause()
			case <-quitItem.ClickedCh:
				t.logger.Info("quit requested from tray")
				if t.onQuit != nil {
					t.onQuit()
				}
				systray.Quit()
				return
			}
		}
	}()

	t.Refresh()
	t.logger.Info("system tray ready")
}

func (t *Tray) onExit() {
	t.logger.Info("system tray exiting")
}

func (t *Tray) togglePause() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.reaper == nil {
		return
	}

	if t.reaper.IsPaused() {
		t.reaper.Resume()
		t.pauseItem.SetTitle("Pause Idle Cleanup")
	} else {
		t.reaper.Pause()
		t.pauseItem.SetTitle("Resume Idle Cleanup")
	}
}

// Refresh redraws the session count and the oldest session's age.
func (t *Tray) Refresh() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.sessions == nil || t.sessionsItem == nil {
		return
	}
	st := t.sessions.Stats()
	t.sessionsItem.SetTitle(sessionsTitle(st.Active))
	t.oldestItem.SetTitle(oldestTitle(st))
}

func (t *Tray) Quit() {
	systray.Quit()
}

func sessionsTitle(n int) string {
	if n == 1 {
		return "1 active session"
	}
	return fmt.Sprintf("%d active sessions", n)
}

func oldestTitle(st session.Stats) string {
	if st.Oldest.IsZero() {
		return "Oldest: none"
	}
	return "Oldest: opened " + humanize.Time(st.Oldest)
}
