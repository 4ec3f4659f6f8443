package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/dustin/go-humanize"

	"github.com/heimdex/heimdex-cropper/internal/export"
)

func exportHistoryHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := lookupSession(w, r, cfg)
		if !ok {
			return
		}

		doc, err := s.ExportHistory(r.Context())
		if err != nil {
			writeSessionError(w, cfg, err)
			return
		}

		body, err := export.Render(doc)
		if err != nil {
			cfg.Logger.Error("failed to render settings export", "error", err, "session_id", s.ID())
			WriteError(w, http.StatusInternalServerError, "failed to render export", "INTERNAL_ERROR")
			return
		}

		w.Header().Set("Content-Type", export.ContentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename))
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(body); err != nil {
			cfg.Logger.Warn("failed to write settings export", "error", err, "session_id", s.ID())
			return
		}

		cfg.Logger.Info("settings exported",
			"session_id", s.ID(),
			"entries", len(doc.PreviousSettings),
			"size", humanize.Bytes(uint64(len(body))),
		)
	}
}
