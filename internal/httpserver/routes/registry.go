package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/homedash/internal/httpserver/deps"
	"github.com/MrSnakeDoc/homedash/internal/httpserver/mw"
)

type Registrar func(r chi.Router, d deps.Deps)

// Access selects the guard RegisterAll puts in front of a registrar.
type Access int

const (
	Public   Access = iota
	Admin           // admin session when auth is enabled
	Operator        // client IP within HOMEDASH_ALLOWED_CIDRS
)

type entry struct {
	reg    Registrar
	access Access
}

var registry []entry

// Register adds a registrar; called from init() in each route file.
func Register(access Access, reg Registrar) {
	registry = append(registry, entry{reg: reg, access: access})
}

// RegisterAll mounts every registrar behind its guard. Called once from
// NewRouter.
func RegisterAll(r chi.Router, d deps.Deps) {
	for _, e := range registry {
		e.reg(guard(r, e.access, d), d)
	}
}

func guard(r chi.Router, access Access, d deps.Deps) chi.Router {
	switch access {
	case Admin:
		return r.With(mw.RequireAuth(d.Auth, d.Logger))
	case Operator:
		return r.With(mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger))
	default:
		return r
	}
}
