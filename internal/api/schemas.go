package api

import (
	"github.com/heimdex/heimdex-cropper/internal/playback"
	"github.com/heimdex/heimdex-cropper/internal/session"
)

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	UptimeS int64  `json:"uptime_s"`
}

type StatusResponse struct {
	ActiveSessions int    `json:"active_sessions"`
	OldestSession  string `json:"oldest_session,omitempty"`
	HistoryStore   string `json:"history_store"`
	Uptime         string `json:"uptime"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type CreateSessionRequest struct {
	Label  string   `json:"label,omitempty" validate:"max=200"`
	Ratio  string   `json:"ratio,omitempty" validate:"omitempty,aspect_ratio"`
	Volume *float64 `json:"volume,omitempty" validate:"omitnil,gte=0,lte=1"`
	Rate   *float64 `json:"playback_rate,omitempty" validate:"omitnil,playback_rate"`
}

type CropperRequest struct {
	Active *bool `json:"active" validate:"required"`
}

// ResizeRequest reports the video element's rendered size. Zero sizes are
// accepted; they resolve to a hidden overlay.
type ResizeRequest struct {
	Width  float64 `json:"width" validate:"gte=0"`
	Height float64 `json:"height" validate:"gte=0"`
	Flush  bool    `json:"flush,omitempty"`
}

type RatioRequest struct {
	Ratio string `json:"ratio" validate:"required,aspect_ratio"`
}

type DragMoveRequest struct {
	X *float64 `json:"x" validate:"required"`
}

type TickRequest struct {
	CurrentTime float64 `json:"current_time" validate:"gte=0"`
	IsPlaying   bool    `json:"is_playing"`
	Rate        float64 `json:"playback_rate" validate:"gt=0"`
	Volume      float64 `json:"volume" validate:"gte=0,lte=1"`
}

type PlaybackRequest struct {
	Toggle       bool     `json:"toggle,omitempty"`
	Rate         *float64 `json:"playback_rate,omitempty" validate:"omitnil,playback_rate"`
	Volume       *float64 `json:"volume,omitempty" validate:"omitnil,gte=0,lte=1"`
	Seek         *float64 `json:"seek,omitempty" validate:"omitnil,gte=0"`
	SeekFraction *float64 `json:"seek_fraction,omitempty" validate:"omitnil,gte=0,lte=1"`
	Duration     float64  `json:"duration,omitempty" validate:"gte=0"`
}

type PlayErrorRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

type BoundsResponse struct {
	Left  float64 `json:"left"`
	Right float64 `json:"right"`
}

type OverlayResponse struct {
	Visible    bool           `json:"visible"`
	Width      float64        `json:"width"`
	Height     float64        `json:"height"`
	X          float64        `json:"x"`
	Percentage float64        `json:"percentage"`
	Label      string         `json:"label"`
	Bounds     BoundsResponse `json:"bounds"`
}

type VideoBoxResponse struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type ClipResponse struct {
	Left  float64 `json:"left"`
	Right float64 `json:"right"`
	CSS   string  `json:"css"`
}

type PlaybackResponse struct {
	IsPlaying   bool    `json:"is_playing"`
	Volume      float64 `json:"volume"`
	Rate        float64 `json:"playback_rate"`
	CurrentTime float64 `json:"current_time"`
	Display     string  `json:"display"`
}

type CommandResponse struct {
	Target string   `json:"target"`
	Seek   *float64 `json:"seek,omitempty"`
	Rate   *float64 `json:"playback_rate,omitempty"`
	Volume *float64 `json:"volume,omitempty"`
	Action string   `json:"action,omitempty"`
}

type CommandsResponse struct {
	Primary []CommandResponse `json:"primary"`
	Preview []CommandResponse `json:"preview"`
}

type SessionResponse struct {
	ID              string            `json:"id"`
	Label           string            `json:"label,omitempty"`
	Active          bool              `json:"active"`
	Ratio           string            `json:"ratio"`
	Video           VideoBoxResponse  `json:"video"`
	WidthPercent    float64           `json:"width_percent"`
	Overlay         OverlayResponse   `json:"overlay"`
	Clip            ClipResponse      `json:"clip"`
	PreviewVisible  bool              `json:"preview_visible"`
	Playback        PlaybackResponse  `json:"playback"`
	DragState       string            `json:"drag_state"`
	HistoryLen      int               `json:"history_len"`
	ResizePending   bool              `json:"resize_pending"`
	// ResumeAvailable is true after a drag paused playback, until it resumes.
	ResumeAvailable bool              `json:"resume_available"`
	Commands        *CommandsResponse `json:"commands,omitempty"`
}

type SessionsResponse struct {
	Sessions []string `json:"sessions"`
}

func ViewToResponse(v session.View) SessionResponse {
	return SessionResponse{
		ID:           v.ID,
		Label:        v.Label,
		Active:       v.Active,
		Ratio:        v.Ratio.String(),
		Video:        VideoBoxResponse{Width: v.Geometry.Video.Width, Height: v.Geometry.Video.Height},
		WidthPercent: v.Geometry.WidthPercent,
		Overlay: OverlayResponse{
			Visible:    v.OverlayVisible,
			Width:      v.Geometry.Overlay.Width,
			Height:     v.Geometry.Overlay.Height,
			X:          v.Position.X,
			Percentage: v.Position.Percentage,
			Label:      v.Position.Label(),
			Bounds:     BoundsResponse{Left: v.Geometry.Bounds.Left, Right: v.Geometry.Bounds.Right},
		},
		Clip: ClipResponse{
			Left:  v.Clip.Left,
			Right: v.Clip.Right,
			CSS:   v.Clip.CSS(),
		},
		PreviewVisible: v.PreviewVisible,
		Playback: PlaybackResponse{
			IsPlaying:   v.Playback.IsPlaying,
			Volume:      v.Playback.Volume,
			Rate:        float64(v.Playback.Rate),
			CurrentTime: v.Playback.CurrentTime,
			Display:     playback.FormatTime(v.Playback.CurrentTime),
		},
		DragState:       v.Drag.String(),
		HistoryLen:      v.HistoryLen,
		ResizePending:   v.ResizePending,
		ResumeAvailable: v.ResumeAvailable,
	}
}

func CommandsToResponse(c session.Commands) *CommandsResponse {
	return &CommandsResponse{
		Primary: commandsToResponse(c.Primary),
		Preview: commandsToResponse(c.Preview),
	}
}

func commandsToResponse(cmds []playback.Command) []CommandResponse {
	out := make([]CommandResponse, len(cmds))
	for i, c := range cmds {
		out[i] = CommandResponse{
			Target: c.Target,
			Seek:   c.Seek,
			Volume: c.Volume,
			Action: string(c.Action),
		}
		if c.Rate != nil {
			r := float64(*c.Rate)
			out[i].Rate = &r
		}
	}
	return out
}
