package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/homedash/internal/httpserver/deps"
	"github.com/MrSnakeDoc/homedash/internal/logger"
)

func SystemStats(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := d.Stats.Collect(r.Context())
		if err != nil {
			d.Logger.Error("system stats failed", logger.Error(err))
			writeJSON(w, http.StatusInternalServerError, messageResponse{
				Message: "could not read system stats",
				Error:   err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}
