package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/homedash/internal/httpserver/deps"
	"github.com/MrSnakeDoc/homedash/internal/httpserver/handlers"
)

func init() { Register(Public, registerAuth) }

func registerAuth(r chi.Router, d deps.Deps) {
	r.Route("/api/auth", func(r chi.Router) {
		r.Get("/state", handlers.AuthState(d))
		r.Post("/setup", handlers.AuthSetup(d))
		r.Post("/login", handlers.AuthLogin(d))
		r.Post("/logout", handlers.AuthLogout(d))
	})
}
