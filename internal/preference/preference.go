// Package preference persists the user's list sort choice.
package preference

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/dukerupert/pokedex/internal/model"
	"github.com/dukerupert/pokedex/internal/store"
)

const (
	keySortType    = "sort_type"
	keyIsAscending = "is_ascending"
)

// Store reads and writes the sort preference and notifies subscribers of
// every save.
type Store struct {
	settings *store.SettingsStore

	mu     sync.Mutex
	nextID int
	subs   map[int]func(model.SortPreference)
}

func NewStore(settings *store.SettingsStore) *Store {
	return &Store{settings: settings, subs: make(map[int]func(model.SortPreference))}
}

// Get returns the stored preference; each missing key takes its default.
func (s *Store) Get(ctx context.Context) (model.SortPreference, error) {
	pref := model.DefaultSortPreference()

	field, ok, err := s.settings.Get(ctx, keySortType)
	if err != nil {
		return pref, err
	}
	if ok {
		pref.Field = model.ParseSortField(field)
	}

	asc, ok, err := s.settings.Get(ctx, keyIsAscending)
	if err != nil {
		return pref, err
	}
	if ok {
		if b, err := strconv.ParseBool(asc); err == nil {
			pref.Ascending = b
		}
	}
	return pref, nil
}

// Save writes both keys together and notifies subscribers.
func (s *Store) Save(ctx context.Context, pref model.SortPreference) error {
	pref.Field = model.ParseSortField(string(pref.Field))
	err := s.settings.SetMany(ctx, map[string]string{
		keySortType:    string(pref.Field),
		keyIsAscending: strconv.FormatBool(pref.Ascending),
	})
	if err != nil {
		return fmt.Errorf("save sort preference: %w", err)
	}

	s.mu.Lock()
	fns := make([]func(model.SortPreference), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(pref)
	}
	return nil
}

// Subscribe calls fn with the current preference, then after every Save.
func (s *Store) Subscribe(ctx context.Context, fn func(model.SortPreference)) (unsubscribe func(), err error) {
	pref, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	fn(pref)

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}, nil
}

// Stream delivers the preference as a channel until ctx is done. Pending
// values are replaced by newer ones if the reader falls behind.
func (s *Store) Stream(ctx context.Context) (<-chan model.SortPreference, error) {
	latest := make(chan model.SortPreference, 1)
	push := func(p model.SortPreference) {
		for {
			select {
			case latest <- p:
				return
			default:
				select {
				case <-latest:
				default:
				}
			}
		}
	}

	unsubscribe, err := s.Subscribe(ctx, push)
	if err != nil {
		return nil, err
	}

	out := make(chan model.SortPreference)
	go func() {
		defer close(out)
		defer unsubscribe()
		for {
			select {
			case p := <-latest:
				select {
				case out <- p:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
