package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/pokedex/internal/repository"
	"github.com/dukerupert/pokedex/internal/websocket"
)

// CacheAdmin is the part of the repository that manages the local cache.
type CacheAdmin interface {
	ForceSync(ctx context.Context) (int, error)
	ClearCache(ctx context.Context) error
	Stats(ctx context.Context, maxAge time.Duration) (repository.CacheStats, error)
}

type CacheHandler struct {
	repo       CacheAdmin
	hub        *websocket.Hub
	staleAfter time.Duration
	logger     *slog.Logger
}

func NewCacheHandler(repo CacheAdmin, hub *websocket.Hub, staleAfter time.Duration, logger *slog.Logger) *CacheHandler {
	return &CacheHandler{repo: repo, hub: hub, staleAfter: staleAfter, logger: logger}
}

func (h *CacheHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

func (h *CacheHandler) Sync(w http.ResponseWriter, r *http.Request) {
	n, err := h.repo.ForceSync(r.Context())
	if errors.Is(err, repository.ErrNoConnectivity) {
		writeError(w, http.StatusServiceUnavailable, "no connectivity")
		return
	}
	if err != nil {
		h.logger.Warn("sync failed", "error", err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	h.broadcast(websocket.NewMessage(websocket.TypeSync, map[string]any{"action": "synced", "count": n}))
	writeJSON(w, http.StatusOK, map[string]int{"synced": n})
}

func (h *CacheHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.ClearCache(r.Context()); err != nil {
		h.logger.Error("clear cache", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to clear cache")
		return
	}
	h.broadcast(websocket.NewMessage(websocket.TypeSync, map[string]any{"action": "cleared"}))
	w.WriteHeader(http.StatusNoContent)
}

func (h *CacheHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.repo.Stats(r.Context(), h.staleAfter)
	if err != nil {
		h.logger.Error("cache stats", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read cache stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
