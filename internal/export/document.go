// Package export renders a session's settings history as the downloadable
// video-settings.json document.
package export

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/heimdex/heimdex-cropper/internal/history"
)

const (
	Filename    = "video-settings.json"
	ContentType = "application/json"
)

// timestampLayout is ISO-8601 in UTC with millisecond precision.
const timestampLayout = "2006-01-02T15:04:05.000Z"

type Document struct {
	Volume           float64 `json:"volume"`
	Percentage       float64 `json:"percentage"`
	PlaybackRate     float64 `json:"playbackRate"`
	Timestamp        string  `json:"timestamp,omitempty"`
	PreviousSettings []Entry `json:"previousSettings"`
}

type Entry struct {
	Volume       float64 `json:"volume"`
	LeftBound    float64 `json:"leftBound"`
	RightBound   float64 `json:"rightBound"`
	PlaybackRate float64 `json:"playbackRate"`
	Timestamp    string  `json:"timestamp"`
}

// NewDocument builds the export from the current baseline and the full
// ordered history.
func NewDocument(current history.Settings, snaps []history.Snapshot) Document {
	doc := Document{
		Volume:           current.Volume,
		Percentage:       current.Percentage,
		PlaybackRate:     float64(current.Rate),
		PreviousSettings: make([]Entry, 0, len(snaps)),
	}
	if !current.Timestamp.IsZero() {
		doc.Timestamp = FormatTimestamp(current.Timestamp)
	}
	for _, s := range snaps {
		doc.PreviousSettings = append(doc.PreviousSettings, Entry{
			Volume:       s.Volume,
			LeftBound:    s.LeftBound,
			RightBound:   s.RightBound,
			PlaybackRate: float64(s.Rate),
			Timestamp:    FormatTimestamp(s.Timestamp),
		})
	}
	return doc
}

// Render encodes the document with two-space indentation.
func Render(doc Document) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", Filename, err)
	}
	return data, nil
}

func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}
