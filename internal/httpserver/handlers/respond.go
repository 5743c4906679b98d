package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/MrSnakeDoc/homedash/internal/catalog"
	"github.com/MrSnakeDoc/homedash/internal/domain"
	"github.com/MrSnakeDoc/homedash/internal/httpserver/deps"
	"github.com/MrSnakeDoc/homedash/internal/integrations"
	"github.com/MrSnakeDoc/homedash/internal/logger"
	"github.com/MrSnakeDoc/homedash/internal/store/configfile"
	"github.com/MrSnakeDoc/homedash/internal/validation"
)

const maxBodyBytes = 1 << 20

type messageResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, messageResponse{Message: msg})
}

// decodeBody reads a JSON request body into v and validates it. It writes the
// 400 response itself and reports false when the handler must stop.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			writeMessage(w, http.StatusBadRequest, "request body is required")
			return false
		}
		writeMessage(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	if err := validation.Struct(v); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

// writeError maps domain errors onto status codes.
func writeError(w http.ResponseWriter, d deps.Deps, r *http.Request, err error) {
	if ie, ok := integrations.AsError(err); ok {
		if ie.HTTPStatus() >= http.StatusInternalServerError {
			d.Logger.Warn("integration call failed",
				logger.String("service", ie.Service),
				logger.String("path", r.URL.Path),
				logger.Error(err))
		}
		writeJSON(w, ie.HTTPStatus(), ie.Payload())
		return
	}

	switch {
	case errors.Is(err, catalog.ErrValidation):
		writeMessage(w, http.StatusBadRequest, trimSentinel(err, catalog.ErrValidation))
	case errors.Is(err, domain.ErrInvalidURL):
		writeMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, catalog.ErrTileNotFound):
		writeMessage(w, http.StatusNotFound, "tile '"+trimSentinel(err, catalog.ErrTileNotFound)+"' not found")
	case errors.Is(err, catalog.ErrUnknownIntegration):
		writeMessage(w, http.StatusNotFound, "unknown integration '"+trimSentinel(err, catalog.ErrUnknownIntegration)+"'")
	case errors.Is(err, configfile.ErrPersistence):
		d.Logger.Error("config write failed", logger.String("path", r.URL.Path), logger.Error(err))
		writeJSON(w, http.StatusInternalServerError, messageResponse{
			Message: "could not save configuration",
			Error:   err.Error(),
		})
	default:
		d.Logger.Error("request failed", logger.String("path", r.URL.Path), logger.Error(err))
		writeJSON(w, http.StatusInternalServerError, messageResponse{
			Message: "internal error",
			Error:   err.Error(),
		})
	}
}

// trimSentinel drops the "sentinel: " prefix added when wrapping.
func trimSentinel(err, sentinel error) string {
	return strings.TrimPrefix(err.Error(), sentinel.Error()+": ")
}

// queryInt parses an integer query parameter, returning def when it is
// missing or not a number.
func queryInt(r *http.Request, key string, def int) int {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
