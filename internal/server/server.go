package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/cors"

	"github.com/dukerupert/pokedex/internal/catalog"
	"github.com/dukerupert/pokedex/internal/handler"
	"github.com/dukerupert/pokedex/internal/middleware"
	ws "github.com/dukerupert/pokedex/internal/websocket"
)

// Config holds the HTTP-facing settings.
type Config struct {
	AllowedOrigins []string
	StaleAfter     time.Duration
	// SyncLimit is the number of forced syncs allowed per client per minute.
	SyncLimit int
}

type Server struct {
	hub         *ws.Hub
	catalog     *catalog.Catalog
	pokemonH    *handler.PokemonHandler
	prefH       *handler.PreferenceHandler
	cacheH      *handler.CacheHandler
	rateLimiter *middleware.RateLimiter
	cfg         Config
	logger      *slog.Logger

	mu            sync.Mutex
	lastConnected *bool
	unsubscribe   func()
}

func New(cfg Config, c *catalog.Catalog, detail *catalog.Detail, repo handler.CacheAdmin, logger *slog.Logger) *Server {
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = 24 * time.Hour
	}
	if cfg.SyncLimit <= 0 {
		cfg.SyncLimit = 6
	}

	hub := ws.NewHub(logger.With("component", "websocket"))
	s := &Server{
		hub:         hub,
		catalog:     c,
		pokemonH:    handler.NewPokemonHandler(c, detail, logger.With("component", "pokemon")),
		prefH:       handler.NewPreferenceHandler(c, logger.With("component", "preference")),
		cacheH:      handler.NewCacheHandler(repo, hub, cfg.StaleAfter, logger.With("component", "cache")),
		rateLimiter: middleware.NewRateLimiter(),
		cfg:         cfg,
		logger:      logger,
	}
	s.unsubscribe = c.Subscribe(s.broadcastView)
	return s
}

// broadcastView pushes every catalog view, plus a connectivity message
// whenever the connected flag flips.
func (s *Server) broadcastView(v catalog.View) {
	s.hub.Broadcast(ws.NewMessage(ws.TypeCatalog, v))

	s.mu.Lock()
	changed := s.lastConnected == nil || *s.lastConnected != v.Connected
	connected := v.Connected
	s.lastConnected = &connected
	s.mu.Unlock()
	if changed {
		s.hub.Broadcast(ws.NewMessage(ws.TypeConnectivity, map[string]bool{"connected": connected}))
	}
}

// snapshot is what a new WebSocket client receives first.
func (s *Server) snapshot() []ws.Message {
	v := s.catalog.View()
	return []ws.Message{
		ws.NewMessage(ws.TypeCatalog, v),
		ws.NewMessage(ws.TypeConnectivity, map[string]bool{"connected": v.Connected}),
	}
}

// Close detaches the server from the catalog.
func (s *Server) Close() {
	s.unsubscribe()
}

// Hub returns the websocket hub.
func (s *Server) Hub() *ws.Hub {
	return s.hub
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)

	mux.HandleFunc("GET /api/pokemon", s.pokemonH.List)
	mux.HandleFunc("POST /api/pokemon/more", s.pokemonH.LoadMore)
	mux.HandleFunc("POST /api/pokemon/retry", s.pokemonH.Retry)
	mux.HandleFunc("GET /api/pokemon/{id}", s.pokemonH.Get)

	mux.HandleFunc("GET /api/search", s.pokemonH.Search)
	mux.HandleFunc("DELETE /api/search", s.pokemonH.ClearSearch)

	mux.HandleFunc("GET /api/preferences/sort", s.prefH.GetSort)
	mux.HandleFunc("PUT /api/preferences/sort", s.prefH.UpdateSort)

	mux.HandleFunc("POST /api/sync", s.rateLimitedHandler(s.cacheH.Sync))
	mux.HandleFunc("DELETE /api/cache", s.cacheH.Clear)
	mux.HandleFunc("GET /api/cache/stats", s.cacheH.Stats)

	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.logger.With("component", "websocket"), s.snapshot))

	corsHandler := cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	})
	return middleware.RequestLogger(s.logger.With("component", "http"))(corsHandler(mux))
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":    "ok",
		"connected": s.catalog.View().Connected,
		"clients":   s.hub.ClientCount(),
	})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, s.cfg.SyncLimit, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}
