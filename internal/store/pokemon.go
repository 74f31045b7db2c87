package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dukerupert/pokedex/internal/model"
)

// PokemonStore is the local cache of fetched Pokemon, keyed by id.
type PokemonStore struct {
	db *sql.DB

	mu       sync.Mutex
	watchers map[chan struct{}]struct{}
}

func NewPokemonStore(db *sql.DB) *PokemonStore {
	return &PokemonStore{
		db:       db,
		watchers: make(map[chan struct{}]struct{}),
	}
}

type storedStat struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

func scanPokemon(scanner interface{ Scan(...any) error }) (*model.CachedPokemon, error) {
	var c model.CachedPokemon
	var typesJSON, statsJSON string

	err := scanner.Scan(
		&c.ID, &c.Name, &c.ImageURL, &typesJSON,
		&c.Height, &c.Weight, &statsJSON, &c.LastFetchedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(typesJSON), &c.Types); err != nil {
		return nil, fmt.Errorf("decode types for %d: %w", c.ID, err)
	}

	var stats []storedStat
	if err := json.Unmarshal([]byte(statsJSON), &stats); err != nil {
		return nil, fmt.Errorf("decode stats for %d: %w", c.ID, err)
	}
	for _, s := range stats {
		switch s.Name {
		case "hp":
			c.HP = s.Value
		case "attack":
			c.Attack = s.Value
		case "defense":
			c.Defense = s.Value
		case "special-attack":
			c.SpecialAttack = s.Value
		case "special-defense":
			c.SpecialDefense = s.Value
		case "speed":
			c.Speed = s.Value
		}
	}
	return &c, nil
}

const pokemonCols = `id, name, image_url, types, height, weight, stats, last_fetched_at`

func (s *PokemonStore) queryList(ctx context.Context, query string, args ...any) ([]model.CachedPokemon, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []model.CachedPokemon
	for rows.Next() {
		p, err := scanPokemon(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pokemon: %w", err)
		}
		list = append(list, *p)
	}
	return list, rows.Err()
}

// ListAll returns every cached row ordered by id ascending.
func (s *PokemonStore) ListAll(ctx context.Context) ([]model.CachedPokemon, error) {
	list, err := s.queryList(ctx, `SELECT `+pokemonCols+` FROM cached_pokemon ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list pokemon: %w", err)
	}
	return list, nil
}

// GetByID returns nil, nil when the id is not cached.
func (s *PokemonStore) GetByID(ctx context.Context, id int) (*model.CachedPokemon, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+pokemonCols+` FROM cached_pokemon WHERE id = ?`, id)
	p, err := scanPokemon(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get pokemon %d: %w", id, err)
	}
	return p, nil
}

// SearchByNamePrefix returns the lowest-id row whose name starts with prefix.
// The prefix is lower-cased first; SQLite's LIKE folds ASCII case, so
// "pika" finds the stored "Pikachu".
func (s *PokemonStore) SearchByNamePrefix(ctx context.Context, prefix string) (*model.CachedPokemon, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+pokemonCols+` FROM cached_pokemon WHERE name LIKE ? ESCAPE '\' ORDER BY id ASC LIMIT 1`,
		likeEscaper.Replace(strings.ToLower(prefix))+"%",
	)
	p, err := scanPokemon(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("search pokemon %q: %w", prefix, err)
	}
	return p, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// UpsertMany writes all rows in one transaction, replacing every column of
// an existing id and stamping fetchedAt.
func (s *PokemonStore) UpsertMany(ctx context.Context, list []model.Pokemon, fetchedAt time.Time) error {
	if len(list) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO cached_pokemon (`+pokemonCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			image_url = excluded.image_url,
			types = excluded.types,
			height = excluded.height,
			weight = excluded.weight,
			stats = excluded.stats,
			last_fetched_at = excluded.last_fetched_at`,
	)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	ts := fetchedAt.UnixMilli()
	for _, p := range list {
		types := p.Types
		if types == nil {
			types = []model.Category{}
		}
		typesJSON, err := json.Marshal(types)
		if err != nil {
			return fmt.Errorf("encode types for %d: %w", p.ID, err)
		}
		stats := make([]storedStat, 0, 6)
		for _, st := range p.Stats() {
			stats = append(stats, storedStat{Name: st.Name, Value: st.Value})
		}
		statsJSON, err := json.Marshal(stats)
		if err != nil {
			return fmt.Errorf("encode stats for %d: %w", p.ID, err)
		}

		if _, err := stmt.ExecContext(ctx,
			p.ID, p.Name, p.ImageURL, string(typesJSON),
			p.Height, p.Weight, string(statsJSON), ts,
		); err != nil {
			return fmt.Errorf("upsert pokemon %d: %w", p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert: %w", err)
	}

	s.notify()
	return nil
}

func (s *PokemonStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cached_pokemon`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count pokemon: %w", err)
	}
	return n, nil
}

func (s *PokemonStore) ClearAll(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM cached_pokemon`); err != nil {
		return fmt.Errorf("clear pokemon: %w", err)
	}
	s.notify()
	return nil
}

// ListStale returns rows last fetched before the cutoff, oldest first.
func (s *PokemonStore) ListStale(ctx context.Context, olderThan time.Time) ([]model.CachedPokemon, error) {
	list, err := s.queryList(ctx,
		`SELECT `+pokemonCols+` FROM cached_pokemon WHERE last_fetched_at < ? ORDER BY last_fetched_at ASC, id ASC`,
		olderThan.UnixMilli(),
	)
	if err != nil {
		return nil, fmt.Errorf("list stale pokemon: %w", err)
	}
	return list, nil
}

// Watch emits the full cached list now and again after every committed
// write, until ctx is done. Snapshots may coalesce if the reader is slow;
// the last one received always reflects the latest write.
func (s *PokemonStore) Watch(ctx context.Context) <-chan []model.CachedPokemon {
	out := make(chan []model.CachedPokemon)
	changed := make(chan struct{}, 1)

	s.mu.Lock()
	s.watchers[changed] = struct{}{}
	s.mu.Unlock()

	go func() {
		defer close(out)
		defer func() {
			s.mu.Lock()
			delete(s.watchers, changed)
			s.mu.Unlock()
		}()

		for {
			list, err := s.ListAll(ctx)
			if err != nil {
				return
			}
			select {
			case out <- list:
			case <-ctx.Done():
				return
			}

			select {
			case <-changed:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}

func (s *PokemonStore) notify() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.watchers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
