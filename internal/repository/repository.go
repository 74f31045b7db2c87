package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/pokedex/internal/connectivity"
	"github.com/dukerupert/pokedex/internal/model"
	"github.com/dukerupert/pokedex/internal/result"
)

const (
	// SyncPageSize is the page fetched by ForceSync.
	SyncPageSize = 100

	msgNoConnectivity = "no connectivity and no cached data"
	msgUnknown        = "unknown error"
	msgNotFound       = "Pokemon not found"
)

// ErrNoConnectivity is returned by ForceSync when offline.
var ErrNoConnectivity = errors.New("no connectivity")

// Cache is the local persistent store.
type Cache interface {
	ListAll(ctx context.Context) ([]model.CachedPokemon, error)
	GetByID(ctx context.Context, id int) (*model.CachedPokemon, error)
	SearchByNamePrefix(ctx context.Context, prefix string) (*model.CachedPokemon, error)
	UpsertMany(ctx context.Context, list []model.Pokemon, fetchedAt time.Time) error
	Count(ctx context.Context) (int, error)
	ClearAll(ctx context.Context) error
	ListStale(ctx context.Context, olderThan time.Time) ([]model.CachedPokemon, error)
}

// Remote is the network catalog source.
type Remote interface {
	FetchPage(ctx context.Context, limit, offset int) result.Result[[]model.Pokemon]
	FetchByID(ctx context.Context, id int) result.Result[model.Pokemon]
	FetchByName(ctx context.Context, name string) result.Result[model.Pokemon]
}

// Preferences persists the list sort choice.
type Preferences interface {
	Get(ctx context.Context) (model.SortPreference, error)
	Save(ctx context.Context, pref model.SortPreference) error
	Stream(ctx context.Context) (<-chan model.SortPreference, error)
}

// Repository reconciles the local cache with the remote source. Every query
// returns a channel of states: Loading, then a cached Success if the cache
// has an answer, then the network-derived Success, Empty or Error. Cached
// data always wins over a network error.
type Repository struct {
	cache  Cache
	remote Remote
	conn   connectivity.Monitor
	prefs  Preferences
	logger *slog.Logger
	now    func() time.Time
}

func New(cache Cache, remote Remote, conn connectivity.Monitor, prefs Preferences, logger *slog.Logger) *Repository {
	return &Repository{
		cache:  cache,
		remote: remote,
		conn:   conn,
		prefs:  prefs,
		logger: logger,
		now:    time.Now,
	}
}

// run executes body on its own goroutine and closes the returned channel
// when body returns. emit reports false once ctx is done, and body should
// stop. A panic inside body is reported as a terminal Error state.
func run[T any](ctx context.Context, logger *slog.Logger, query string, body func(emit func(State[T]) bool) error) <-chan State[T] {
	out := make(chan State[T])
	id := uuid.NewString()
	logger = logger.With("query", query, "query_id", id)

	emit := func(s State[T]) bool {
		select {
		case out <- s:
			return true
		case <-ctx.Done():
			return false
		}
	}

	go func() {
		defer close(out)
		defer func() {
			if r := recover(); r != nil {
				logger.Error("query panicked", "panic", r)
				emit(Failure[T](fmt.Sprint(r)))
			}
		}()

		start := time.Now()
		logger.Debug("query started")
		if err := body(emit); err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Warn("query failed", "error", err)
			emit(Failure[T](err.Error()))
			return
		}
		logger.Debug("query finished", "duration", time.Since(start))
	}()

	return out
}

func failureMessage(msg, fallback string) string {
	if strings.TrimSpace(msg) == "" {
		return fallback
	}
	return msg
}

func toDomain(cached []model.CachedPokemon) []model.Pokemon {
	list := make([]model.Pokemon, len(cached))
	for i, c := range cached {
		list[i] = c.Pokemon
	}
	return list
}

// List streams the catalog list for one page request.
func (r *Repository) List(ctx context.Context, limit, offset int) <-chan State[[]model.Pokemon] {
	return run(ctx, r.logger, "list", func(emit func(State[[]model.Pokemon]) bool) error {
		if !emit(Loading[[]model.Pokemon]()) {
			return nil
		}

		cachedCount, err := r.cache.Count(ctx)
		if err != nil {
			return err
		}
		hasCache := false
		if cachedCount > 0 {
			cached, err := r.cache.ListAll(ctx)
			if err != nil {
				return err
			}
			if len(cached) > 0 {
				hasCache = true
				if !emit(Success(toDomain(cached), true, false)) {
					return nil
				}
			}
		}

		if !r.conn.Connected() {
			if !hasCache {
				emit(Failure[[]model.Pokemon](msgNoConnectivity))
			}
			return nil
		}

		res := r.remote.FetchPage(ctx, limit, offset)
		page, ok := res.Get()
		if !ok {
			r.logger.Debug("page fetch failed", "limit", limit, "offset", offset, "error", res.Message(), "cached", hasCache)
			if !hasCache {
				emit(Failure[[]model.Pokemon](failureMessage(res.Message(), msgUnknown)))
			}
			return nil
		}

		if err := r.cache.UpsertMany(ctx, page, r.now()); err != nil {
			return err
		}
		if len(page) == 0 {
			emit(Empty[[]model.Pokemon]())
			return nil
		}
		emit(Success(page, false, false))
		return nil
	})
}

// ByID streams the detail of one Pokemon.
func (r *Repository) ByID(ctx context.Context, id int) <-chan State[model.Pokemon] {
	return run(ctx, r.logger, "by_id", func(emit func(State[model.Pokemon]) bool) error {
		return r.single(ctx, emit, false,
			func() (*model.CachedPokemon, error) { return r.cache.GetByID(ctx, id) },
			func() result.Result[model.Pokemon] { return r.remote.FetchByID(ctx, id) },
			msgUnknown,
		)
	})
}

// ByName streams a name search: a cached prefix match first, then the exact
// remote lookup.
func (r *Repository) ByName(ctx context.Context, name string) <-chan State[model.Pokemon] {
	return run(ctx, r.logger, "by_name", func(emit func(State[model.Pokemon]) bool) error {
		return r.single(ctx, emit, true,
			func() (*model.CachedPokemon, error) { return r.cache.SearchByNamePrefix(ctx, strings.ToLower(name)) },
			func() result.Result[model.Pokemon] { return r.remote.FetchByName(ctx, name) },
			msgNotFound,
		)
	})
}

func (r *Repository) single(
	ctx context.Context,
	emit func(State[model.Pokemon]) bool,
	isSearch bool,
	lookup func() (*model.CachedPokemon, error),
	fetch func() result.Result[model.Pokemon],
	fallbackMsg string,
) error {
	if !emit(Loading[model.Pokemon]()) {
		return nil
	}

	cached, err := lookup()
	if err != nil {
		return err
	}
	if cached != nil {
		if !emit(Success(cached.Pokemon, true, isSearch)) {
			return nil
		}
	}

	if !r.conn.Connected() {
		if cached == nil {
			emit(Failure[model.Pokemon](msgNoConnectivity))
		}
		return nil
	}

	res := fetch()
	p, ok := res.Get()
	if !ok {
		if cached == nil {
			emit(Failure[model.Pokemon](failureMessage(res.Message(), fallbackMsg)))
		}
		return nil
	}

	if err := r.cache.UpsertMany(ctx, []model.Pokemon{p}, r.now()); err != nil {
		return err
	}
	emit(Success(p, false, isSearch))
	return nil
}

// ForceSync fetches a large first page and writes it to the cache.
func (r *Repository) ForceSync(ctx context.Context) (int, error) {
	if !r.conn.Connected() {
		return 0, ErrNoConnectivity
	}
	res := r.remote.FetchPage(ctx, SyncPageSize, 0)
	page, ok := res.Get()
	if !ok {
		return 0, fmt.Errorf("sync: %w", res.Err())
	}
	if err := r.cache.UpsertMany(ctx, page, r.now()); err != nil {
		return 0, fmt.Errorf("sync: %w", err)
	}
	return len(page), nil
}

func (r *Repository) ClearCache(ctx context.Context) error {
	return r.cache.ClearAll(ctx)
}

// CacheStats summarises the local cache.
type CacheStats struct {
	Count int `json:"count"`
	Stale int `json:"stale"`
}

// Stats counts cached rows and those older than maxAge.
func (r *Repository) Stats(ctx context.Context, maxAge time.Duration) (CacheStats, error) {
	n, err := r.cache.Count(ctx)
	if err != nil {
		return CacheStats{}, err
	}
	stale, err := r.cache.ListStale(ctx, r.now().Add(-maxAge))
	if err != nil {
		return CacheStats{}, err
	}
	return CacheStats{Count: n, Stale: len(stale)}, nil
}

// Stale lists cached rows older than maxAge. Staleness is reported only;
// it does not gate refreshes.
func (r *Repository) Stale(ctx context.Context, maxAge time.Duration) ([]model.CachedPokemon, error) {
	return r.cache.ListStale(ctx, r.now().Add(-maxAge))
}

func (r *Repository) IsConnected() bool {
	return r.conn.Connected()
}

// Connected streams reachability changes.
func (r *Repository) Connected(ctx context.Context) <-chan bool {
	return connectivity.Stream(ctx, r.conn)
}

func (r *Repository) SortPreference(ctx context.Context) (model.SortPreference, error) {
	return r.prefs.Get(ctx)
}

func (r *Repository) SortPreferences(ctx context.Context) (<-chan model.SortPreference, error) {
	return r.prefs.Stream(ctx)
}

func (r *Repository) SaveSortPreference(ctx context.Context, pref model.SortPreference) error {
	return r.prefs.Save(ctx, pref)
}

// Collect drains a state channel and returns every emitted state.
func Collect[T any](ch <-chan State[T]) []State[T] {
	var states []State[T]
	for s := range ch {
		states = append(states, s)
	}
	return states
}

// Last drains a state channel and returns the final state.
func Last[T any](ch <-chan State[T]) (State[T], bool) {
	var last State[T]
	var ok bool
	for s := range ch {
		last, ok = s, true
	}
	return last, ok
}
