// Package catalog holds the list and detail screen state on top of the
// repository: the accumulated list, pagination, sorting, search and
// background resync.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/dukerupert/pokedex/internal/model"
	"github.com/dukerupert/pokedex/internal/repository"
)

const DefaultPageSize = 20

// Source is the subset of the repository the catalog drives.
type Source interface {
	List(ctx context.Context, limit, offset int) <-chan repository.State[[]model.Pokemon]
	ByID(ctx context.Context, id int) <-chan repository.State[model.Pokemon]
	ByName(ctx context.Context, name string) <-chan repository.State[model.Pokemon]
	ForceSync(ctx context.Context) (int, error)
	Connected(ctx context.Context) <-chan bool
	SortPreferences(ctx context.Context) (<-chan model.SortPreference, error)
	SaveSortPreference(ctx context.Context, pref model.SortPreference) error
}

// Catalog is the list screen model. All exported methods are safe for
// concurrent use; the blocking ones return the view once their query ends.
type Catalog struct {
	src      Source
	pageSize int
	logger   *slog.Logger

	mu          sync.Mutex
	items       []model.Pokemon
	offset      int
	pref        model.SortPreference
	prefLoaded  bool
	query       string
	searchSeq   int
	cancelQuery context.CancelFunc
	view        View
	connected   *bool
	nextSubID   int
	subs        map[int]func(View)

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(src Source, pageSize int, logger *slog.Logger) *Catalog {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Catalog{
		src:      src,
		pageSize: pageSize,
		logger:   logger,
		pref:     model.DefaultSortPreference(),
		view:     View{Kind: ViewLoading, Sort: model.DefaultSortPreference()},
		subs:     make(map[int]func(View)),
		cancel:   func() {},
	}
}

// Start observes connectivity and the stored sort preference. The first
// preference triggers the initial load.
func (c *Catalog) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.cancel = cancel
	c.mu.Unlock()

	prefs, err := c.src.SortPreferences(ctx)
	if err != nil {
		cancel()
		return fmt.Errorf("observe sort preferences: %w", err)
	}
	conn := c.src.Connected(ctx)

	c.wg.Add(2)
	go func() {
		defer c.wg.Done()
		for pref := range prefs {
			c.onPreference(ctx, pref)
		}
	}()
	go func() {
		defer c.wg.Done()
		for connected := range conn {
			c.onConnectivity(ctx, connected)
		}
	}()
	return nil
}

// Stop cancels background work and waits for it.
func (c *Catalog) Stop() {
	c.mu.Lock()
	cancel := c.cancel
	c.mu.Unlock()
	cancel()
	c.wg.Wait()
}

// Subscribe registers fn for every view change. fn runs on the goroutine
// that changed the view and must not call back into the Catalog.
func (c *Catalog) Subscribe(fn func(View)) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextSubID
	c.nextSubID++
	c.subs[id] = fn
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, id)
			c.mu.Unlock()
		})
	}
}

func (c *Catalog) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

// setViewLocked stores v and returns the callbacks to notify after unlock.
func (c *Catalog) setViewLocked(v View) []func(View) {
	v.Sort = c.pref
	v.Connected = c.connected != nil && *c.connected
	if v.Items == nil {
		v.Items = []model.Pokemon{}
	}
	c.view = v
	fns := make([]func(View), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	return fns
}

func (c *Catalog) publish(fns []func(View), v View) {
	for _, fn := range fns {
		fn(v)
	}
}

// update runs fn under the lock and publishes the resulting view if fn
// changed it.
func (c *Catalog) update(fn func() bool) View {
	c.mu.Lock()
	changed := fn()
	v := c.view
	var fns []func(View)
	if changed {
		fns = c.setViewLocked(v)
		v = c.view
	}
	c.mu.Unlock()
	c.publish(fns, v)
	return v
}

// listViewLocked derives the list view from the accumulated items.
func (c *Catalog) listViewLocked() View {
	if len(c.items) == 0 {
		return View{Kind: ViewEmpty}
	}
	return View{Kind: ViewSuccess, Items: SortPokemon(c.items, c.pref)}
}

func (c *Catalog) onPreference(ctx context.Context, pref model.SortPreference) {
	var needInitial bool
	c.update(func() bool {
		changed := !c.prefLoaded || pref != c.pref
		c.prefLoaded = true
		c.pref = pref
		needInitial = len(c.items) == 0 && c.view.Kind != ViewLoadingMore
		if changed && len(c.items) > 0 && c.query == "" {
			c.view = c.listViewLocked()
			return true
		}
		return false
	})
	if needInitial {
		c.LoadInitial(ctx)
	}
}

func (c *Catalog) onConnectivity(ctx context.Context, connected bool) {
	var resync bool
	c.update(func() bool {
		resync = connected && c.connected != nil && !*c.connected && len(c.items) > 0
		c.connected = &connected
		return true
	})
	if !resync {
		return
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		n, err := c.src.ForceSync(ctx)
		if err != nil {
			c.logger.Debug("background resync failed", "error", err)
			return
		}
		c.logger.Debug("background resync done", "count", n)
	}()
}

// LoadInitial loads the first page. Every Success (cached or fresh) is
// merged into the accumulated list, fresh rows replacing cached ones.
func (c *Catalog) LoadInitial(ctx context.Context) View {
	c.update(func() bool {
		if c.query != "" {
			return false
		}
		c.view = View{Kind: ViewLoading}
		return true
	})

	for s := range c.src.List(ctx, c.pageSize, 0) {
		state := s
		c.update(func() bool {
			searching := c.query != ""
			switch state.Kind {
			case repository.StateLoading:
				if searching {
					return false
				}
				c.view = View{Kind: ViewLoading}
			case repository.StateSuccess:
				c.items = mergeRefresh(c.items, state.Data)
				c.offset = c.pageSize
				if searching {
					return false
				}
				c.view = c.listViewLocked()
			case repository.StateError:
				if searching {
					return false
				}
				c.view = View{Kind: ViewError, Message: state.Message}
			case repository.StateEmpty:
				if searching {
					return false
				}
				c.view = c.listViewLocked()
			}
			return true
		})
	}
	return c.View()
}

// LoadMore fetches the page at the current offset and appends entries with
// unseen ids. It is a no-op while another LoadMore is running or while a
// search result is shown.
func (c *Catalog) LoadMore(ctx context.Context) View {
	var offset int
	var current []model.Pokemon
	var started bool
	v := c.update(func() bool {
		if c.view.Kind == ViewLoadingMore || c.query != "" {
			return false
		}
		started = true
		offset = c.offset
		if c.view.Kind == ViewSuccess {
			current = c.view.Items
		}
		c.view = View{Kind: ViewLoadingMore, Items: current}
		return true
	})
	if !started {
		return v
	}

	advanced := false
	var failure string
	for s := range c.src.List(ctx, c.pageSize, offset) {
		switch s.Kind {
		case repository.StateSuccess:
			c.mu.Lock()
			var added int
			c.items, added = appendNew(c.items, s.Data)
			c.mu.Unlock()
			if !s.FromCache {
				advanced = true
			}
			c.logger.Debug("load more", "offset", offset, "added", added, "from_cache", s.FromCache)
		case repository.StateError:
			failure = s.Message
		}
	}

	return c.update(func() bool {
		if advanced {
			c.offset = offset + c.pageSize
		}
		if c.query != "" {
			return false
		}
		if failure != "" {
			c.view = View{
				Kind:         ViewSuccess,
				Items:        current,
				ErrorMessage: "error loading more: " + failure,
			}
			return true
		}
		c.view = c.listViewLocked()
		return true
	})
}

// Search replaces the list with the single result for query. A newer Search
// or ClearSearch cancels this one. An empty query clears the search.
func (c *Catalog) Search(ctx context.Context, query string) View {
	query = strings.TrimSpace(query)
	if query == "" {
		return c.ClearSearch()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var seq int
	c.update(func() bool {
		if c.cancelQuery != nil {
			c.cancelQuery()
		}
		c.searchSeq++
		seq = c.searchSeq
		c.cancelQuery = cancel
		c.query = query
		c.view = View{Kind: ViewLoading}
		return true
	})

	for s := range c.src.ByName(ctx, query) {
		state := s
		c.update(func() bool {
			if c.searchSeq != seq {
				return false
			}
			switch state.Kind {
			case repository.StateLoading:
				c.view = View{Kind: ViewLoading}
			case repository.StateSuccess:
				c.view = View{Kind: ViewSuccess, Items: []model.Pokemon{state.Data}, IsSearchResult: true}
			case repository.StateError:
				c.view = View{Kind: ViewError, Message: state.Message}
			case repository.StateEmpty:
				c.view = View{Kind: ViewEmpty}
			}
			return true
		})
	}

	c.mu.Lock()
	if c.searchSeq == seq {
		c.cancelQuery = nil
	}
	c.mu.Unlock()
	return c.View()
}

// ClearSearch cancels any running search and restores the sorted list.
func (c *Catalog) ClearSearch() View {
	return c.update(func() bool {
		if c.cancelQuery != nil {
			c.cancelQuery()
			c.cancelQuery = nil
		}
		c.searchSeq++
		c.query = ""
		c.view = c.listViewLocked()
		return true
	})
}

// ApplySort persists pref and re-sorts the accumulated list in memory.
func (c *Catalog) ApplySort(ctx context.Context, pref model.SortPreference) (View, error) {
	pref.Field = model.ParseSortField(string(pref.Field))
	v := c.update(func() bool {
		c.pref = pref
		c.prefLoaded = true
		if c.query != "" || len(c.items) == 0 {
			return true
		}
		c.view = c.listViewLocked()
		return true
	})
	if err := c.src.SaveSortPreference(ctx, pref); err != nil {
		return v, fmt.Errorf("save sort preference: %w", err)
	}
	return v, nil
}

// Retry reloads from scratch when nothing is loaded, otherwise re-derives
// the list view.
func (c *Catalog) Retry(ctx context.Context) View {
	c.mu.Lock()
	empty := len(c.items) == 0
	c.mu.Unlock()
	if empty {
		return c.LoadInitial(ctx)
	}
	return c.update(func() bool {
		if c.query != "" {
			return false
		}
		c.view = c.listViewLocked()
		return true
	})
}

// Len returns the number of accumulated items.
func (c *Catalog) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Offset returns the next page offset.
func (c *Catalog) Offset() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.offset
}
