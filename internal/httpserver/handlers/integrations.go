package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/homedash/internal/catalog"
	"github.com/MrSnakeDoc/homedash/internal/domain"
	"github.com/MrSnakeDoc/homedash/internal/httpserver/deps"
	"github.com/MrSnakeDoc/homedash/internal/integrations"
	"github.com/MrSnakeDoc/homedash/internal/logger"
)

type settingsRequest struct {
	Enabled   *bool   `json:"enabled"`
	Name      *string `json:"name" validate:"omitempty,max=100"`
	ServerURL *string `json:"serverUrl" validate:"omitempty,max=2048"`
	Host      *string `json:"host" validate:"omitempty,max=255"`
	Port      *int    `json:"port" validate:"omitempty,min=0,max=65535"`
	Protocol  *string `json:"protocol" validate:"omitempty,oneof=http https HTTP HTTPS"`
	BasePath  *string `json:"basePath" validate:"omitempty,max=512"`

	Token    *string `json:"token" validate:"omitempty,max=512"`
	Username *string `json:"username" validate:"omitempty,max=255"`
	Password *string `json:"password" validate:"omitempty,max=512"`
	APIKey   *string `json:"apiKey" validate:"omitempty,max=512"`
}

// integrationKey resolves the {key} route parameter, accepting aliases.
func integrationKey(r *http.Request) (domain.IntegrationKey, bool) {
	return domain.ParseIntegrationKey(chi.URLParam(r, "key"))
}

func GetSettings(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key, ok := integrationKey(r)
		if !ok {
			writeMessage(w, http.StatusNotFound, "unknown integration '"+chi.URLParam(r, "key")+"'")
			return
		}

		view, err := d.Catalog.Settings(r.Context(), key)
		if err != nil {
			writeError(w, d, r, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

func UpdateSettings(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key, ok := integrationKey(r)
		if !ok {
			writeMessage(w, http.StatusNotFound, "unknown integration '"+chi.URLParam(r, "key")+"'")
			return
		}

		var req settingsRequest
		if !decodeBody(w, r, &req) {
			return
		}

		view, err := d.Catalog.UpdateSettings(r.Context(), key, catalog.SettingsPatch(req))
		if err != nil {
			writeError(w, d, r, err)
			return
		}
		d.Logger.Info("integration settings updated",
			logger.String("integration", string(key)),
			logger.Bool("enabled", view.Enabled))
		writeJSON(w, http.StatusOK, view)
	}
}

func NowPlaying(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg, err := d.Catalog.IntegrationConfig(r.Context(), domain.MediaServer)
		if err != nil {
			writeError(w, d, r, err)
			return
		}

		res, err := d.MediaServer.NowPlaying(r.Context(), cfg)
		if err != nil {
			writeError(w, d, r, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func Downloads(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg, err := d.Catalog.IntegrationConfig(r.Context(), domain.TorrentClient)
		if err != nil {
			writeError(w, d, r, err)
			return
		}

		limit := queryInt(r, "take", integrations.DefaultListLimit)
		res, err := d.Torrent.Downloads(r.Context(), cfg, limit)
		if err != nil {
			writeError(w, d, r, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func MediaRequests(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg, err := d.Catalog.IntegrationConfig(r.Context(), domain.RequestManager)
		if err != nil {
			writeError(w, d, r, err)
			return
		}

		limit := queryInt(r, "take", integrations.DefaultListLimit)
		res, err := d.Requests.Requests(r.Context(), cfg, limit, r.URL.Query().Get("filter"))
		if err != nil {
			writeError(w, d, r, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}
