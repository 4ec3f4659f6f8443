package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/heimdex/heimdex-cropper/internal/geometry"
	"github.com/heimdex/heimdex-cropper/internal/history"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestManager(clock *fakeClock) (*Manager, *history.MemoryStore) {
	store := history.NewMemoryStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewManager(store, logger, WithClock(clock.Now), WithResizeDebounce(0)), store
}

func TestManager_CreateGetDelete(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	m, store := newTestManager(clock)
	ctx := context.Background()

	s, err := m.Create(ctx, CreateRequest{Label: "Intro\ncut", Ratio: geometry.Ratio4x5})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if s.ID() == "" {
		t.Fatal("ID() is empty")
	}

	got, err := m.Get(s.ID())
	if err != nil || got != s {
		t.Fatalf("Get() = %v, %v", got, err)
	}
	v := mustView(t)(got.State())
	if v.Label != "Introcut" || v.Ratio != geometry.Ratio4x5 {
		t.Fatalf("view = %+v", v)
	}

	mustView(t)(s.StartCropper())
	s.OnResize(hd)
	mustView(t)(s.OnDragStart())
	mustView(t)(s.OnDragEnd(ctx))
	if snaps, _ := store.List(ctx, s.ID()); len(snaps) != 1 {
		t.Fatalf("stored snapshots = %d, want 1", len(snaps))
	}

	if err := m.Delete(ctx, s.ID()); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := m.Get(s.ID()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get() after Delete error = %v, want ErrNotFound", err)
	}
	if err := m.Delete(ctx, s.ID()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second Delete() error = %v, want ErrNotFound", err)
	}
	if snaps, _ := store.List(ctx, s.ID()); len(snaps) != 0 {
		t.Fatalf("snapshots after Delete = %d, want 0", len(snaps))
	}
	if _, err := s.State(); !errors.Is(err, ErrClosed) {
		t.Fatalf("deleted session State() error = %v, want ErrClosed", err)
	}
}

func TestManager_CloseIdle(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	m, _ := newTestManager(clock)
	ctx := context.Background()

	stale, _ := m.Create(ctx, CreateRequest{})
	clock.Advance(20 * time.Minute)
	fresh, _ := m.Create(ctx, CreateRequest{})
	clock.Advance(15 * time.Minute)
	mustView(t)(fresh.StartCropper())

	if n := m.CloseIdle(ctx, 30*time.Minute); n != 1 {
		t.Fatalf("CloseIdle() = %d, want 1", n)
	}
	if _, err := m.Get(stale.ID()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("stale session still present: %v", err)
	}
	if _, err := m.Get(fresh.ID()); err != nil {
		t.Fatalf("fresh session removed: %v", err)
	}
	if m.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", m.Len())
	}
}

func TestManager_StatsAndIDs(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	clock := &fakeClock{now: start}
	m, _ := newTestManager(clock)
	ctx := context.Background()

	if st := m.Stats(); st.Active != 0 || !st.Oldest.IsZero() {
		t.Fatalf("empty Stats() = %+v", st)
	}

	first, _ := m.Create(ctx, CreateRequest{})
	clock.Advance(time.Minute)
	second, _ := m.Create(ctx, CreateRequest{})

	st := m.Stats()
	if st.Active != 2 || !st.Oldest.Equal(start) {
		t.Fatalf("Stats() = %+v", st)
	}

	ids := m.IDs()
	if len(ids) != 2 || ids[0] != first.ID() || ids[1] != second.ID() {
		t.Fatalf("IDs() = %v", ids)
	}

	m.CloseAll(ctx)
	if m.Len() != 0 {
		t.Fatalf("Len() after CloseAll = %d", m.Len())
	}
}

func TestReaper_Sweep(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	m, _ := newTestManager(clock)
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	m.Create(ctx, CreateRequest{})
	m.Create(ctx, CreateRequest{})
	r := NewReaper(m, time.Hour, logger)

	if n := r.Sweep(ctx); n != 0 {
		t.Fatalf("Sweep() before idle = %d, want 0", n)
	}
	clock.Advance(2 * time.Hour)
	if n := r.Sweep(ctx); n != 2 {
		t.Fatalf("Sweep() = %d, want 2", n)
	}
	if r.Reaped() != 2 {
		t.Fatalf("Reaped() = %d, want 2", r.Reaped())
	}
}

func TestReaper_StartStopsWithContext(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	m, _ := newTestManager(clock)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := NewReaper(m, time.Hour, logger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Start(ctx)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for !r.IsRunning() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if !r.IsRunning() {
		t.Fatal("IsRunning() = false after Start")
	}

	r.Pause()
	if !r.IsPaused() {
		t.Fatal("IsPaused() = false after Pause")
	}
	r.Resume()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Start() did not return after cancel")
	}
	if r.IsRunning() {
		t.Fatal("IsRunning() = true after stop")
	}
}
