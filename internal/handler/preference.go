package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dukerupert/pokedex/internal/catalog"
	"github.com/dukerupert/pokedex/internal/model"
)

type PreferenceHandler struct {
	catalog *catalog.Catalog
	logger  *slog.Logger
}

func NewPreferenceHandler(c *catalog.Catalog, logger *slog.Logger) *PreferenceHandler {
	return &PreferenceHandler{catalog: c, logger: logger}
}

func (h *PreferenceHandler) GetSort(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.catalog.View().Sort)
}

// UpdateSort persists the preference and returns the re-sorted view.
func (h *PreferenceHandler) UpdateSort(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SortType    string `json:"sort_type"`
		IsAscending *bool  `json:"is_ascending"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	pref := h.catalog.View().Sort
	if req.SortType != "" {
		field := model.SortField(req.SortType)
		if field != model.SortByNumber && field != model.SortByName {
			writeError(w, http.StatusBadRequest, "sort_type must be NUMBER or NAME")
			return
		}
		pref.Field = field
	}
	if req.IsAscending != nil {
		pref.Ascending = *req.IsAscending
	}

	v, err := h.catalog.ApplySort(r.Context(), pref)
	if err != nil {
		h.logger.Error("save sort preference", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save sort preference")
		return
	}
	writeJSON(w, http.StatusOK, v)
}
