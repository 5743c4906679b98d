package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/homedash/internal/httpserver/deps"
	"github.com/MrSnakeDoc/homedash/internal/httpserver/handlers"
)

func init() { Register(Admin, registerIntegrations) }

func registerIntegrations(r chi.Router, d deps.Deps) {
	r.Route("/api/integrations", func(r chi.Router) {
		r.Get("/{key}/settings", handlers.GetSettings(d))
		r.Put("/{key}/settings", handlers.UpdateSettings(d))
		r.Post("/{key}/settings", handlers.UpdateSettings(d))

		// product-named paths are kept for older frontends
		for _, p := range []string{"/media-server", "/plex"} {
			r.Get(p+"/now-playing", handlers.NowPlaying(d))
		}
		for _, p := range []string{"/torrent", "/qbittorrent"} {
			r.Get(p+"/downloads", handlers.Downloads(d))
		}
		for _, p := range []string{"/request-manager", "/overseerr"} {
			r.Get(p+"/requests", handlers.MediaRequests(d))
		}
	})
}
