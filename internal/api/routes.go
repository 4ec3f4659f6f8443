package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/heimdex/heimdex-cropper/internal/geometry"
	"github.com/heimdex/heimdex-cropper/internal/playback"
	"github.com/heimdex/heimdex-cropper/internal/session"
)

func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()
	v := newValidator()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(LoopbackGuard(cfg.Logger))
	r.Use(CORSAllowlist(cfg.AllowedOrigins))

	r.Get("/health", healthHandler(cfg))

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.AuthToken, cfg.Logger))

		r.Get("/status", statusHandler(cfg))
		r.Get("/sessions", listSessionsHandler(cfg))
		r.Post("/sessions", createSessionHandler(cfg, v))

		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", getSessionHandler(cfg))
			r.Delete("/", deleteSessionHandler(cfg))
			r.Post("/cropper", cropperHandler(cfg, v))
			r.Post("/resize", resizeHandler(cfg, v))
			r.Post("/ratio", ratioHandler(cfg, v))
			r.Post("/drag/start", dragStartHandler(cfg))
			r.Post("/drag/move", dragMoveHandler(cfg, v))
			r.Post("/drag/end", dragEndHandler(cfg))
			r.Post("/tick", tickHandler(cfg, v))
			r.Post("/playback", playbackHandler(cfg, v))
			r.Post("/preview/play-error", playErrorHandler(cfg, v))
			r.Get("/history/export", exportHistoryHandler(cfg))
		})
	})

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uptime := int64(time.Since(cfg.StartTime).Seconds())
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:  "ok",
			Version: cfg.Version,
			UptimeS: uptime,
		})
	}
}

func statusHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st := cfg.Sessions.Stats()
		resp := StatusResponse{
			ActiveSessions: st.Active,
			HistoryStore:   cfg.HistoryStore,
			Uptime:         time.Since(cfg.StartTime).Round(time.Second).String(),
		}
		if !st.Oldest.IsZero() {
			resp.OldestSession = humanize.Time(st.Oldest)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func listSessionsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, SessionsResponse{Sessions: cfg.Sessions.IDs()})
	}
}

func createSessionHandler(cfg ServerConfig, v *validator.Validate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateSessionRequest
		if !decodeRequest(w, r, v, &req, true) {
			return
		}

		create := session.CreateRequest{Label: req.Label}
		if req.Ratio != "" {
			ratio, err := geometry.ParseRatio(req.Ratio)
			if err != nil {
				WriteError(w, http.StatusBadRequest, err.Error(), "VALIDATION_FAILED")
				return
			}
			create.Ratio = ratio
		}
		if req.Volume != nil {
			create.Volume = *req.Volume
		}
		if req.Rate != nil {
			create.Rate = playback.NearestRate(*req.Rate)
		}

		s, err := cfg.Sessions.Create(r.Context(), create)
		if err != nil {
			writeSessionError(w, cfg, err)
			return
		}
		view, err := s.State()
		writeView(w, cfg, s, http.StatusCreated, view, err)
	}
}

func getSessionHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := lookupSession(w, r, cfg)
		if !ok {
			return
		}
		view, err := s.State()
		if err != nil {
			writeSessionError(w, cfg, err)
			return
		}
		WriteJSON(w, http.StatusOK, ViewToResponse(view))
	}
}

func deleteSessionHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := cfg.Sessions.Delete(r.Context(), id); err != nil {
			writeSessionError(w, cfg, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func cropperHandler(cfg ServerConfig, v *validator.Validate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CropperRequest
		if !decodeRequest(w, r, v, &req, false) {
			return
		}
		s, ok := lookupSession(w, r, cfg)
		if !ok {
			return
		}

		var (
			view session.View
			err  error
		)
		if *req.Active {
			view, err = s.StartCropper()
		} else {
			view, err = s.RemoveCropper(r.Context())
		}
		writeView(w, cfg, s, http.StatusOK, view, err)
	}
}

// resizeHandler schedules a debounced recompute and answers 202 with the
// pre-recompute view. With flush set the recompute runs before responding.
func resizeHandler(cfg ServerConfig, v *validator.Validate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ResizeRequest
		if !decodeRequest(w, r, v, &req, false) {
			return
		}
		s, ok := lookupSession(w, r, cfg)
		if !ok {
			return
		}

		if err := s.OnResize(geometry.VideoBox{Width: req.Width, Height: req.Height}); err != nil {
			writeSessionError(w, cfg, err)
			return
		}

		if req.Flush {
			view, err := s.FlushResize()
			writeView(w, cfg, s, http.StatusOK, view, err)
			return
		}
		view, err := s.State()
		status := http.StatusAccepted
		if err == nil && !view.ResizePending {
			status = http.StatusOK
		}
		writeView(w, cfg, s, status, view, err)
	}
}

func ratioHandler(cfg ServerConfig, v *validator.Validate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RatioRequest
		if !decodeRequest(w, r, v, &req, false) {
			return
		}
		ratio, err := geometry.ParseRatio(req.Ratio)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "VALIDATION_FAILED")
			return
		}
		s, ok := lookupSession(w, r, cfg)
		if !ok {
			return
		}

		view, err := s.OnRatioSelected(ratio)
		writeView(w, cfg, s, http.StatusOK, view, err)
	}
}

func dragStartHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := lookupSession(w, r, cfg)
		if !ok {
			return
		}
		view, err := s.OnDragStart()
		writeView(w, cfg, s, http.StatusOK, view, err)
	}
}

func dragMoveHandler(cfg ServerConfig, v *validator.Validate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req DragMoveRequest
		if !decodeRequest(w, r, v, &req, false) {
			return
		}
		s, ok := lookupSession(w, r, cfg)
		if !ok {
			return
		}
		view, err := s.OnDragMove(*req.X)
		writeView(w, cfg, s, http.StatusOK, view, err)
	}
}

func dragEndHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := lookupSession(w, r, cfg)
		if !ok {
			return
		}
		view, err := s.OnDragEnd(r.Context())
		writeView(w, cfg, s, http.StatusOK, view, err)
	}
}

func tickHandler(cfg ServerConfig, v *validator.Validate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req TickRequest
		if !decodeRequest(w, r, v, &req, false) {
			return
		}
		s, ok := lookupSession(w, r, cfg)
		if !ok {
			return
		}
		view, err := s.OnPlaybackTick(playback.State{
			IsPlaying:   req.IsPlaying,
			Volume:      req.Volume,
			Rate:        playback.Rate(req.Rate),
			CurrentTime: req.CurrentTime,
		})
		writeView(w, cfg, s, http.StatusOK, view, err)
	}
}

// playbackHandler applies primary controls in a fixed order: rate, volume,
// seek, then the play toggle.
func playbackHandler(cfg ServerConfig, v *validator.Validate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PlaybackRequest
		if !decodeRequest(w, r, v, &req, false) {
			return
		}
		if req.Seek != nil && req.SeekFraction != nil {
			WriteError(w, http.StatusBadRequest, "seek and seek_fraction are mutually exclusive", "VALIDATION_FAILED")
			return
		}
		s, ok := lookupSession(w, r, cfg)
		if !ok {
			return
		}

		view, err := s.State()
		if err == nil && req.Rate != nil {
			view, err = s.SetRate(*req.Rate)
		}
		if err == nil && req.Volume != nil {
			view, err = s.SetVolume(*req.Volume)
		}
		if err == nil && req.Seek != nil {
			view, err = s.Seek(*req.Seek)
		}
		if err == nil && req.SeekFraction != nil {
			view, err = s.SeekFraction(*req.SeekFraction, req.Duration)
		}
		if err == nil && req.Toggle {
			view, err = s.TogglePlay()
		}
		writeView(w, cfg, s, http.StatusOK, view, err)
	}
}

func playErrorHandler(cfg ServerConfig, v *validator.Validate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PlayErrorRequest
		if !decodeRequest(w, r, v, &req, false) {
			return
		}
		s, ok := lookupSession(w, r, cfg)
		if !ok {
			return
		}
		if err := s.ReportPreviewPlayError(req.Reason); err != nil {
			writeSessionError(w, cfg, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func lookupSession(w http.ResponseWriter, r *http.Request, cfg ServerConfig) (*session.Session, bool) {
	id := chi.URLParam(r, "id")
	if id == "" {
		WriteError(w, http.StatusBadRequest, "session id required", "BAD_REQUEST")
		return nil, false
	}
	s, err := cfg.Sessions.Get(id)
	if err != nil {
		writeSessionError(w, cfg, err)
		return nil, false
	}
	return s, true
}

func writeSessionError(w http.ResponseWriter, cfg ServerConfig, err error) {
	switch {
	case errors.Is(err, session.ErrNotFound):
		WriteError(w, http.StatusNotFound, "session not found", "NOT_FOUND")
	case errors.Is(err, session.ErrClosed):
		WriteError(w, http.StatusConflict, "session closed", "SESSION_CLOSED")
	default:
		cfg.Logger.Error("session operation failed", "error", err)
		WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
	}
}

// writeView answers a mutating event with the view and the media commands
// queued by it.
func writeView(w http.ResponseWriter, cfg ServerConfig, s *session.Session, status int, view session.View, err error) {
	if err != nil {
		writeSessionError(w, cfg, err)
		return
	}
	resp := ViewToResponse(view)
	resp.Commands = CommandsToResponse(s.Commands())
	WriteJSON(w, status, resp)
}
