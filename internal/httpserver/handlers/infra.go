package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/homedash/internal/domain"
	"github.com/MrSnakeDoc/homedash/internal/httpserver/deps"
)

type componentStatus struct {
	OK      bool   `json:"ok"`
	Mode    string `json:"mode,omitempty"`
	Path    string `json:"path,omitempty"`
	Tiles   *int   `json:"tiles,omitempty"`
	Enabled *bool  `json:"enabled,omitempty"`
	Error   string `json:"error,omitempty"`
}

type infraResponse struct {
	Status     string                     `json:"status"`
	Components map[string]componentStatus `json:"components"`
}

// Infra summarizes the wiring of the running process.
func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tiles := len(d.Catalog.ListTiles(r.Context()))
		authEnabled := d.Auth != nil

		components := map[string]componentStatus{
			"configStore": {OK: true, Path: d.ConfigPath, Tiles: &tiles},
			"titleCache":  checkTitleCache(r.Context(), d),
			"auth":        {OK: true, Enabled: &authEnabled},
		}
		for _, key := range domain.IntegrationKeys {
			view, err := d.Catalog.Settings(r.Context(), key)
			if err != nil {
				components[string(key)] = componentStatus{OK: false, Error: err.Error()}
				continue
			}
			enabled := view.Enabled
			components[string(key)] = componentStatus{OK: true, Enabled: &enabled}
		}

		writeJSON(w, http.StatusOK, infraResponse{
			Status:     determineStatus(components),
			Components: components,
		})
	}
}

func determineStatus(components map[string]componentStatus) string {
	for _, c := range components {
		if !c.OK {
			return "degraded"
		}
	}
	return "ok"
}

func checkTitleCache(ctx context.Context, d deps.Deps) componentStatus {
	if d.RedisClient == nil {
		return componentStatus{OK: true, Mode: d.TitleBackend}
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := d.RedisClient.Ping(ctx).Err(); err != nil {
		return componentStatus{OK: false, Mode: d.TitleBackend, Error: "redis unreachable"}
	}
	return componentStatus{OK: true, Mode: d.TitleBackend}
}
