package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/pokedex/internal/catalog"
)

type PokemonHandler struct {
	catalog *catalog.Catalog
	detail  *catalog.Detail
	logger  *slog.Logger
}

func NewPokemonHandler(c *catalog.Catalog, d *catalog.Detail, logger *slog.Logger) *PokemonHandler {
	return &PokemonHandler{catalog: c, detail: d, logger: logger}
}

// List returns the current list view without triggering a query.
func (h *PokemonHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.catalog.View())
}

func (h *PokemonHandler) LoadMore(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.catalog.LoadMore(r.Context()))
}

func (h *PokemonHandler) Retry(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.catalog.Retry(r.Context()))
}

// Get runs the by-id query to completion and returns its final state. A
// not-found or failed lookup is still a 200 with state "error"; only a
// malformed id is a client error.
func (h *PokemonHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	v := h.detail.Load(r.Context(), id, nil)
	h.logger.Debug("detail loaded", "id", id, "state", v.Kind, "from_cache", v.FromCache)
	writeJSON(w, http.StatusOK, v)
}

func (h *PokemonHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	writeJSON(w, http.StatusOK, h.catalog.Search(r.Context(), q))
}

func (h *PokemonHandler) ClearSearch(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.catalog.ClearSearch())
}
