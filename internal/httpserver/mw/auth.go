package mw

import (
	"errors"
	"net/http"

	"github.com/MrSnakeDoc/homedash/internal/auth"
	"github.com/MrSnakeDoc/homedash/internal/logger"
)

// RequireAuth rejects requests without a valid admin session. A nil service
// means auth is disabled and the middleware is a passthrough.
func RequireAuth(svc *auth.Service, log logger.Logger) func(http.Handler) http.Handler {
	if svc == nil {
		log.Debug("RequireAuth: auth disabled, passthrough mode")
		return func(next http.Handler) http.Handler { return next }
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := auth.TokenFromRequest(r)
			if token == "" {
				writeError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			if _, err := svc.Verify(r.Context(), token); err != nil {
				if errors.Is(err, auth.ErrInvalidToken) || errors.Is(err, auth.ErrSetupRequired) {
					log.Debug("RequireAuth: session rejected",
						logger.String("path", r.URL.Path),
						logger.Error(err))
					writeError(w, http.StatusUnauthorized, "invalid or expired session")
					return
				}
				log.Error("RequireAuth: account unreadable", logger.Error(err))
				writeError(w, http.StatusInternalServerError, "authentication unavailable")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
