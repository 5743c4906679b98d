package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/homedash/internal/httpserver/deps"
	"github.com/MrSnakeDoc/homedash/internal/httpserver/handlers"
)

func init() { Register(Admin, registerSystem) }

func registerSystem(r chi.Router, d deps.Deps) {
	r.Get("/api/system/stats", handlers.SystemStats(d))
}
