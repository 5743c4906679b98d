package handlers

import (
	"errors"
	"net/http"

	"github.com/MrSnakeDoc/homedash/internal/auth"
	"github.com/MrSnakeDoc/homedash/internal/httpserver/deps"
	"github.com/MrSnakeDoc/homedash/internal/logger"
	"github.com/MrSnakeDoc/homedash/internal/utils"
)

type setupRequest struct {
	Name     string `json:"name" validate:"max=100"`
	Email    string `json:"email" validate:"required,max=254"`
	Password string `json:"password" validate:"required,min=4,max=72"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,max=254"`
	Password string `json:"password" validate:"required,max=72"`
}

type userResponse struct {
	User auth.Profile `json:"user"`
}

type setupRequiredResponse struct {
	Message       string `json:"message"`
	SetupRequired bool   `json:"setupRequired"`
}

// AuthState reports the session state. With auth disabled every caller is
// treated as signed in.
func AuthState(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.Auth == nil {
			writeJSON(w, http.StatusOK, auth.State{Authenticated: true})
			return
		}

		st, err := d.Auth.State(r.Context(), auth.TokenFromRequest(r))
		if err != nil {
			writeError(w, d, r, err)
			return
		}
		writeJSON(w, http.StatusOK, st)
	}
}

func AuthSetup(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.Auth == nil {
			writeMessage(w, http.StatusNotFound, "authentication is disabled")
			return
		}

		var req setupRequest
		if !decodeBody(w, r, &req) {
			return
		}

		profile, token, err := d.Auth.Setup(r.Context(), req.Name, req.Email, req.Password)
		if err != nil {
			if errors.Is(err, auth.ErrAlreadySetUp) {
				writeMessage(w, http.StatusForbidden, err.Error())
				return
			}
			writeError(w, d, r, err)
			return
		}

		auth.SetCookie(w, r, token, d.Auth.TokenTTL())
		writeJSON(w, http.StatusOK, userResponse{User: profile})
	}
}

func AuthLogin(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.Auth == nil {
			writeMessage(w, http.StatusNotFound, "authentication is disabled")
			return
		}

		var req loginRequest
		if !decodeBody(w, r, &req) {
			return
		}

		profile, token, err := d.Auth.Login(r.Context(), req.Email, req.Password)
		switch {
		case errors.Is(err, auth.ErrSetupRequired):
			writeJSON(w, http.StatusForbidden, setupRequiredResponse{Message: err.Error(), SetupRequired: true})
			return
		case errors.Is(err, auth.ErrInvalidCredentials):
			d.Logger.Warn("failed login",
				logger.String("remote_ip", utils.ClientIP(r, d.TrustProxy)))
			writeMessage(w, http.StatusUnauthorized, err.Error())
			return
		case err != nil:
			writeError(w, d, r, err)
			return
		}

		auth.SetCookie(w, r, token, d.Auth.TokenTTL())
		writeJSON(w, http.StatusOK, userResponse{User: profile})
	}
}

func AuthLogout(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auth.ClearCookie(w)
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}
