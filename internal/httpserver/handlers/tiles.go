package handlers

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/homedash/internal/catalog"
	"github.com/MrSnakeDoc/homedash/internal/httpserver/deps"
	"github.com/MrSnakeDoc/homedash/internal/logger"
	"github.com/MrSnakeDoc/homedash/internal/sources/homepage"
)

type createTileRequest struct {
	ID          string `json:"id" validate:"max=128"`
	Name        string `json:"name" validate:"required,max=200"`
	URL         string `json:"url" validate:"required,max=2048"`
	Description string `json:"description" validate:"max=2000"`
	IconName    string `json:"iconName" validate:"max=64"`
	Color       string `json:"color" validate:"max=128"`
}

type updateTileRequest struct {
	Name        *string `json:"name" validate:"omitempty,max=200"`
	URL         *string `json:"url" validate:"omitempty,max=2048"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	IconName    *string `json:"iconName" validate:"omitempty,max=64"`
	Color       *string `json:"color" validate:"omitempty,max=128"`
}

type reorderRequest struct {
	IDs []string `json:"ids" validate:"required,max=10000,dive,required"`
}

func ListTiles(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, d.Catalog.ListTiles(r.Context()))
	}
}

func CreateTile(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createTileRequest
		if !decodeBody(w, r, &req) {
			return
		}

		tile, err := d.Catalog.CreateTile(r.Context(), catalog.TileInput(req))
		if err != nil {
			writeError(w, d, r, err)
			return
		}
		d.Logger.Info("tile created",
			logger.String("id", tile.ID),
			logger.String("host", tile.Host))
		writeJSON(w, http.StatusCreated, tile)
	}
}

func UpdateTile(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateTileRequest
		if !decodeBody(w, r, &req) {
			return
		}

		tile, err := d.Catalog.UpdateTile(r.Context(), chi.URLParam(r, "id"), catalog.TilePatch(req))
		if err != nil {
			writeError(w, d, r, err)
			return
		}
		writeJSON(w, http.StatusOK, tile)
	}
}

func DeleteTile(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := d.Catalog.DeleteTile(r.Context(), id); err != nil {
			writeError(w, d, r, err)
			return
		}
		d.Logger.Info("tile deleted", logger.String("id", id))
		w.WriteHeader(http.StatusNoContent)
	}
}

func ReorderTiles(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req reorderRequest
		if !decodeBody(w, r, &req) {
			return
		}

		tiles, err := d.Catalog.ReorderTiles(r.Context(), req.IDs)
		if err != nil {
			writeError(w, d, r, err)
			return
		}
		writeJSON(w, http.StatusOK, tiles)
	}
}

// TileStatus probes every tile concurrently and returns them in catalog order.
func TileStatus(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tiles := d.Catalog.ListTiles(r.Context())
		writeJSON(w, http.StatusOK, d.Prober.ProbeAll(r.Context(), tiles))
	}
}

// ImportTiles accepts a Homepage services.yaml body and adds the services
// whose address is not in the catalog yet.
func ImportTiles(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			writeMessage(w, http.StatusBadRequest, "request body too large or unreadable")
			return
		}

		services, err := homepage.Parse(body)
		if err != nil {
			writeMessage(w, http.StatusBadRequest, err.Error())
			return
		}
		inputs, err := homepage.NewMapper().MapTiles(services)
		if err != nil {
			writeMessage(w, http.StatusBadRequest, err.Error())
			return
		}

		res, err := d.Catalog.ImportTiles(r.Context(), inputs)
		if err != nil {
			writeError(w, d, r, err)
			return
		}
		d.Logger.Info("homepage import",
			logger.Int("added", len(res.Added)),
			logger.Int("skipped", res.Skipped))
		writeJSON(w, http.StatusOK, res)
	}
}
