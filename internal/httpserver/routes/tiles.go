package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/homedash/internal/httpserver/deps"
	"github.com/MrSnakeDoc/homedash/internal/httpserver/handlers"
)

func init() { Register(Admin, registerTiles) }

// /api/containers is the path older frontends use.
var tileBases = []string{"/api/tiles", "/api/containers"}

func registerTiles(r chi.Router, d deps.Deps) {
	for _, base := range tileBases {
		r.Route(base, func(r chi.Router) {
			r.Get("/", handlers.ListTiles(d))
			r.Post("/", handlers.CreateTile(d))
			r.Get("/status", handlers.TileStatus(d))
			r.Post("/reorder", handlers.ReorderTiles(d))
			r.Post("/import", handlers.ImportTiles(d))
			r.Put("/{id}", handlers.UpdateTile(d))
			r.Patch("/{id}", handlers.UpdateTile(d))
			r.Delete("/{id}", handlers.DeleteTile(d))
		})
	}
}
