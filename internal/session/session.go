// Package session wires the crop engine together for one editing session:
// geometry, drag, clip, playback mirroring and history. Every inbound event
// is serialized by the session mutex, including the debounced resize.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/heimdex/heimdex-cropper/internal/drag"
	"github.com/heimdex/heimdex-cropper/internal/export"
	"github.com/heimdex/heimdex-cropper/internal/geometry"
	"github.com/heimdex/heimdex-cropper/internal/history"
	"github.com/heimdex/heimdex-cropper/internal/logging"
	"github.com/heimdex/heimdex-cropper/internal/playback"
	"github.com/heimdex/heimdex-cropper/internal/preview"
	"github.com/heimdex/heimdex-cropper/internal/schedule"
)

var (
	ErrNotFound = errors.New("session not found")
	ErrClosed   = errors.New("session closed")
)

// DefaultResizeDebounce is one frame at 60Hz.
const DefaultResizeDebounce = 16 * time.Millisecond

type Options struct {
	ID     string
	Label  string
	Ratio  geometry.AspectRatio
	Volume float64
	Rate   playback.Rate

	ResizeDebounce time.Duration
	Store          history.Store
	Logger         *slog.Logger
	Clock          func() time.Time
	AfterFunc      schedule.AfterFunc

	// Primary and Preview default to command queues drained by Commands.
	Primary playback.Element
	Preview playback.Element
}

// View is the outbound state the view layer renders.
type View struct {
	ID             string
	Label          string
	Active         bool
	Ratio          geometry.AspectRatio
	Geometry       geometry.Geometry
	OverlayVisible bool
	Position       drag.Position
	Clip           preview.ClipInsets
	PreviewVisible bool
	Playback       playback.State
	Drag           drag.State
	HistoryLen     int
	ResizePending  bool

	// ResumeAvailable is set when a drag paused active playback and stays
	// set until playback is resumed.
	ResumeAvailable bool
}

// Commands are media writes queued since the last drain.
type Commands struct {
	Primary []playback.Command
	Preview []playback.Command
}

type Session struct {
	id        string
	label     string
	logger    *slog.Logger
	now       func() time.Time
	createdAt time.Time

	primary  playback.Element
	preview  playback.Element
	primaryQ *playback.CommandQueue
	previewQ *playback.CommandQueue
	mirror   *playback.Synchronizer
	recorder *history.Recorder
	resize   *schedule.Debouncer

	mu         sync.Mutex
	closed     bool
	lastActive time.Time
	active     bool
	video      geometry.VideoBox
	ratio      geometry.AspectRatio
	geom       geometry.Geometry
	drag       *drag.Controller
	clip       preview.ClipInsets
	state      playback.State
	wasPlaying bool
}

func New(opts Options) *Session {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	if opts.Store == nil {
		opts.Store = history.NewMemoryStore()
	}
	if opts.Ratio == (geometry.AspectRatio{}) {
		opts.Ratio = geometry.DefaultRatio
	}

	state := playback.DefaultState()
	if opts.Volume != 0 {
		state.Volume = playback.ClampVolume(opts.Volume)
	}
	if opts.Rate != 0 {
		state.Rate = playback.NearestRate(float64(opts.Rate))
	}

	logger := logging.WithSessionID(opts.Logger, opts.ID)
	now := opts.Clock()

	s := &Session{
		id:         opts.ID,
		label:      opts.Label,
		logger:     logger,
		now:        opts.Clock,
		createdAt:  now,
		lastActive: now,
		ratio:      opts.Ratio,
		drag:       drag.NewController(),
		state:      state,
	}

	s.primary = opts.Primary
	if s.primary == nil {
		s.primaryQ = playback.NewCommandQueue(playback.TargetPrimary)
		s.primary = s.primaryQ
	}
	s.preview = opts.Preview
	if s.preview == nil {
		s.previewQ = playback.NewCommandQueue(playback.TargetPreview)
		s.preview = s.previewQ
	}
	s.mirror = playback.NewSynchronizer(s.preview, logger)

	baseline := history.DefaultSettings()
	baseline.Volume = state.Volume
	baseline.Rate = state.Rate
	s.recorder = history.NewRecorder(opts.ID, opts.Store, baseline, history.WithClock(opts.Clock))

	debounce := opts.ResizeDebounce
	if debounce < 0 {
		debounce = 0
	}
	var dopts []schedule.Option
	if opts.AfterFunc != nil {
		dopts = append(dopts, schedule.WithAfterFunc(opts.AfterFunc))
	}
	s.resize = schedule.New(debounce, dopts...)

	return s
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) CreatedAt() time.Time {
	return s.createdAt
}

func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// begin locks the session for an inbound event. Callers must unlock.
func (s *Session) begin() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.lastActive = s.now()
	return nil
}

// StartCropper shows the overlay and enables the preview.
func (s *Session) StartCropper() (View, error) {
	if err := s.begin(); err != nil {
		return View{}, err
	}
	defer s.mu.Unlock()

	s.active = true
	s.mirror.SetActive(true)
	s.logger.Debug("cropper started")
	return s.viewLocked(), nil
}

// RemoveCropper hides the overlay and preview. A drag in progress is
// finalized first.
func (s *Session) RemoveCropper(ctx context.Context) (View, error) {
	if err := s.begin(); err != nil {
		return View{}, err
	}
	defer s.mu.Unlock()

	err := s.endDragLocked(ctx)
	s.active = false
	s.mirror.SetActive(false)
	s.logger.Debug("cropper removed")
	return s.viewLocked(), err
}

// OnResize schedules a geometry recompute for box. Overlapping calls
// coalesce; only the latest box is applied.
func (s *Session) OnResize(box geometry.VideoBox) error {
	if err := s.begin(); err != nil {
		return err
	}
	s.mu.Unlock()

	s.resize.Schedule(func() { s.applyResize(box) })
	return nil
}

// FlushResize applies a pending resize immediately.
func (s *Session) FlushResize() (View, error) {
	s.resize.Flush()
	return s.State()
}

func (s *Session) applyResize(box geometry.VideoBox) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.video = box
	s.recomputeLocked()
	s.logger.Debug("geometry resolved",
		"width", box.Width,
		"height", box.Height,
		"renderable", s.geom.Renderable(),
	)
}

// recomputeLocked resolves geometry, refits the position and then derives
// the clip, in that order.
func (s *Session) recomputeLocked() {
	s.geom = geometry.Resolve(s.video, s.ratio)
	pos := s.drag.Fit(s.geom)
	s.clip = preview.Clip(pos.Percentage, s.geom.WidthPercent)
}

// OnRatioSelected switches the aspect ratio and recomputes synchronously
// against the current video box. A change hides the preview for one cycle.
func (s *Session) OnRatioSelected(ratio geometry.AspectRatio) (View, error) {
	if err := s.begin(); err != nil {
		return View{}, err
	}
	defer s.mu.Unlock()

	if ratio != s.ratio {
		s.ratio = ratio
		s.mirror.ResetVisibility()
	}
	s.recomputeLocked()
	return s.viewLocked(), nil
}

// SetRate changes the primary's playback rate, snapped to a supported one.
func (s *Session) SetRate(rate float64) (View, error) {
	if err := s.begin(); err != nil {
		return View{}, err
	}
	defer s.mu.Unlock()

	s.setRateLocked(playback.NearestRate(rate))
	return s.viewLocked(), nil
}

func (s *Session) setRateLocked(r playback.Rate) {
	if r == s.state.Rate {
		return
	}
	s.state.Rate = r
	s.primary.SetRate(r)
	s.mirror.ResetVisibility()
}

func (s *Session) SetVolume(v float64) (View, error) {
	if err := s.begin(); err != nil {
		return View{}, err
	}
	defer s.mu.Unlock()

	v = playback.ClampVolume(v)
	if v != s.state.Volume {
		s.state.Volume = v
		s.primary.SetVolume(v)
	}
	return s.viewLocked(), nil
}

// TogglePlay flips the primary between playing and paused. It is the only
// way playback resumes after a drag. Ignored while dragging.
func (s *Session) TogglePlay() (View, error) {
	if err := s.begin(); err != nil {
		return View{}, err
	}
	defer s.mu.Unlock()

	if s.drag.Dragging() {
		return s.viewLocked(), nil
	}
	if s.state.IsPlaying {
		s.state.IsPlaying = false
		s.primary.Pause()
		return s.viewLocked(), nil
	}
	s.state.IsPlaying = true
	if err := s.primary.Play(); err != nil {
		s.state.IsPlaying = false
		s.logger.Warn("primary play rejected", "error", err)
		return s.viewLocked(), nil
	}
	s.wasPlaying = false
	return s.viewLocked(), nil
}

// Seek moves the primary to seconds.
func (s *Session) Seek(seconds float64) (View, error) {
	if err := s.begin(); err != nil {
		return View{}, err
	}
	defer s.mu.Unlock()

	s.seekLocked(seconds)
	return s.viewLocked(), nil
}

// SeekFraction maps a progress-bar position in [0,1] onto duration.
func (s *Session) SeekFraction(fraction, duration float64) (View, error) {
	if err := s.begin(); err != nil {
		return View{}, err
	}
	defer s.mu.Unlock()

	s.seekLocked(playback.SeekTime(fraction, duration))
	return s.viewLocked(), nil
}

func (s *Session) seekLocked(seconds float64) {
	if math.IsNaN(seconds) || seconds < 0 {
		seconds = 0
	}
	s.state.CurrentTime = seconds
	s.primary.Seek(seconds)
}

// OnDragStart remembers whether the primary was playing, pauses both media
// and suspends mirroring. Ignored while the cropper is inactive, the overlay
// is not renderable, or a drag is already running.
func (s *Session) OnDragStart() (View, error) {
	if err := s.begin(); err != nil {
		return View{}, err
	}
	defer s.mu.Unlock()

	if !s.active || !s.geom.Renderable() {
		return s.viewLocked(), nil
	}
	if !s.drag.Start() {
		return s.viewLocked(), nil
	}

	s.wasPlaying = s.wasPlaying || s.state.IsPlaying
	s.state.IsPlaying = false
	s.primary.Pause()
	s.preview.Pause()
	s.mirror.Suspend()
	return s.viewLocked(), nil
}

// OnDragMove clamps rawX into the drag bounds and recomputes the clip when
// the position actually changed.
func (s *Session) OnDragMove(rawX float64) (View, error) {
	if err := s.begin(); err != nil {
		return View{}, err
	}
	defer s.mu.Unlock()

	if pos, changed := s.drag.Move(rawX, s.geom.Bounds); changed {
		s.clip = preview.Clip(pos.Percentage, s.geom.WidthPercent)
	}
	return s.viewLocked(), nil
}

// OnDragEnd finalizes the drag, records one history snapshot and resumes
// mirroring. Playback stays paused.
func (s *Session) OnDragEnd(ctx context.Context) (View, error) {
	if err := s.begin(); err != nil {
		return View{}, err
	}
	defer s.mu.Unlock()

	err := s.endDragLocked(ctx)
	return s.viewLocked(), err
}

func (s *Session) endDragLocked(ctx context.Context) error {
	pos, ok := s.drag.End()
	if !ok {
		return nil
	}
	s.mirror.Resume()

	snap, err := s.recorder.Record(ctx, history.Settings{
		Volume:     s.state.Volume,
		Percentage: pos.Percentage,
		Rate:       s.state.Rate,
	})
	if err != nil {
		s.logger.Error("failed to record settings", "error", err)
		return fmt.Errorf("record settings: %w", err)
	}
	s.logger.Info("drag completed",
		"percentage", pos.Percentage,
		"left_bound", snap.LeftBound,
		"history_len", s.recorder.Len(),
	)
	return nil
}

// OnPlaybackTick takes the primary's reported state and mirrors it onto
// the preview. Ticks during a drag are dropped. The tick that consumes a
// visibility reset reports the preview hidden.
func (s *Session) OnPlaybackTick(tick playback.State) (View, error) {
	if err := s.begin(); err != nil {
		return View{}, err
	}
	defer s.mu.Unlock()

	if s.drag.Dragging() {
		return s.viewLocked(), nil
	}

	tick = tick.Normalize()
	if tick.Rate != s.state.Rate {
		s.mirror.ResetVisibility()
	}
	s.state = tick
	if tick.IsPlaying {
		s.wasPlaying = false
	}

	visible := s.mirror.Visible()
	s.mirror.Mirror(tick)
	v := s.viewLocked()
	if !visible {
		v.PreviewVisible = false
	}
	return v, nil
}

// ReportPreviewPlayError records a rejected preview play request.
func (s *Session) ReportPreviewPlayError(reason string) error {
	if err := s.begin(); err != nil {
		return err
	}
	s.mu.Unlock()

	s.mirror.PlayFailed(errors.New(reason))
	return nil
}

func (s *Session) State() (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return View{}, ErrClosed
	}
	return s.viewLocked(), nil
}

func (s *Session) viewLocked() View {
	renderable := s.geom.Renderable()
	return View{
		ID:             s.id,
		Label:          s.label,
		Active:         s.active,
		Ratio:          s.ratio,
		Geometry:       s.geom,
		OverlayVisible: s.active && renderable,
		Position:       s.drag.Position(),
		Clip:           s.clip,
		PreviewVisible: renderable && s.mirror.Visible(),
		Playback:       s.state,
		Drag:           s.drag.State(),
		HistoryLen:     s.recorder.Len(),
		ResizePending:  s.resize.Pending(),

		ResumeAvailable: s.wasPlaying,
	}
}

// Commands drains the queued media writes. Sessions built with custom
// elements return nothing.
func (s *Session) Commands() Commands {
	var c Commands
	if s.primaryQ != nil {
		c.Primary = s.primaryQ.Drain()
	}
	if s.previewQ != nil {
		c.Preview = s.previewQ.Drain()
	}
	return c
}

// ExportHistory builds the video-settings.json document. The baseline and
// the history are read under the session lock so they stay in step.
func (s *Session) ExportHistory(ctx context.Context) (export.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return export.Document{}, ErrClosed
	}

	snaps, err := s.recorder.History(ctx)
	if err != nil {
		return export.Document{}, fmt.Errorf("load history: %w", err)
	}
	return export.NewDocument(s.recorder.Baseline(), snaps), nil
}

// Close cancels any pending resize and drops the session's history.
// Further events return ErrClosed.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.resize.Close()
	if err := s.recorder.Discard(ctx); err != nil {
		return fmt.Errorf("discard history: %w", err)
	}
	s.logger.Debug("session closed")
	return nil
}
