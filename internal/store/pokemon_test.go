package store

import (
	"context"
	"testing"
	"time"

	"github.com/dukerupert/pokedex/internal/database"
	"github.com/dukerupert/pokedex/internal/model"
)

func setupPokemonTestDB(t *testing.T) *PokemonStore {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewPokemonStore(db)
}

func pikachu() model.Pokemon {
	return model.Pokemon{
		ID:             25,
		Name:           "Pikachu",
		ImageURL:       "https://img.example/25.png",
		Types:          []model.Category{model.CategoryElectric},
		Height:         4,
		Weight:         60,
		HP:             35,
		Attack:         55,
		Defense:        40,
		SpecialAttack:  50,
		SpecialDefense: 50,
		Speed:          90,
	}
}

func TestPokemonUpsertAndGet(t *testing.T) {
	ps := setupPokemonTestDB(t)
	ctx := context.Background()
	fetched := time.UnixMilli(1_700_000_000_000)

	if err := ps.UpsertMany(ctx, []model.Pokemon{pikachu()}, fetched); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := ps.GetByID(ctx, 25)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil {
		t.Fatal("expected cached row, got nil")
	}
	if got.Name != "Pikachu" {
		t.Errorf("name = %q, want %q", got.Name, "Pikachu")
	}
	if len(got.Types) != 1 || got.Types[0] != model.CategoryElectric {
		t.Errorf("types = %v, want [ELECTRIC]", got.Types)
	}
	if got.Speed != 90 || got.HP != 35 || got.SpecialDefense != 50 {
		t.Errorf("stats not round-tripped: %+v", got.Pokemon)
	}
	if got.LastFetchedAt != fetched.UnixMilli() {
		t.Errorf("last_fetched_at = %d, want %d", got.LastFetchedAt, fetched.UnixMilli())
	}

	missing, err := ps.GetByID(ctx, 999)
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for missing id, got %+v", missing)
	}
}

func TestPokemonUpsertOverwrites(t *testing.T) {
	ps := setupPokemonTestDB(t)
	ctx := context.Background()

	first := time.UnixMilli(1_000)
	if err := ps.UpsertMany(ctx, []model.Pokemon{pikachu()}, first); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	updated := pikachu()
	updated.Name = "Raichu-ish"
	updated.Types = []model.Category{model.CategoryElectric, model.CategoryPsychic}
	updated.Speed = 110
	second := time.UnixMilli(2_000)
	if err := ps.UpsertMany(ctx, []model.Pokemon{updated}, second); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	n, err := ps.Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("count = %d, want 1", n)
	}

	got, _ := ps.GetByID(ctx, 25)
	if got.Name != "Raichu-ish" {
		t.Errorf("name = %q, want overwritten", got.Name)
	}
	if len(got.Types) != 2 {
		t.Errorf("types = %v, want 2 entries", got.Types)
	}
	if got.Speed != 110 {
		t.Errorf("speed = %d, want 110", got.Speed)
	}
	if got.LastFetchedAt != 2_000 {
		t.Errorf("last_fetched_at = %d, want 2000", got.LastFetchedAt)
	}
}

func TestPokemonListAllOrderedByID(t *testing.T) {
	ps := setupPokemonTestDB(t)
	ctx := context.Background()

	list := []model.Pokemon{
		{ID: 25, Name: "Pikachu"},
		{ID: 1, Name: "Bulbasaur"},
		{ID: 4, Name: "Charmander"},
	}
	if err := ps.UpsertMany(ctx, list, time.Now()); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	all, err := ps.ListAll(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []int{1, 4, 25}
	if len(all) != len(want) {
		t.Fatalf("len = %d, want %d", len(all), len(want))
	}
	for i, id := range want {
		if all[i].ID != id {
			t.Errorf("all[%d].ID = %d, want %d", i, all[i].ID, id)
		}
	}
	if all[0].Types == nil {
		t.Error("nil types should round-trip as empty slice")
	}
}

func TestPokemonSearchByNamePrefix(t *testing.T) {
	ps := setupPokemonTestDB(t)
	ctx := context.Background()

	list := []model.Pokemon{
		{ID: 26, Name: "Raichu"},
		{ID: 25, Name: "Pikachu"},
		{ID: 172, Name: "Pichu"},
	}
	if err := ps.UpsertMany(ctx, list, time.Now()); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	tests := []struct {
		query  string
		wantID int
	}{
		{"Pikachu", 25},
		{"PIKA", 25},
		{"pi", 25},
		{"pich", 172},
		{"rai", 26},
		{"mew", 0},
		{"%", 0},
		{"_ichu", 0},
	}
	for _, tt := range tests {
		got, err := ps.SearchByNamePrefix(ctx, tt.query)
		if err != nil {
			t.Fatalf("search %q: %v", tt.query, err)
		}
		if tt.wantID == 0 {
			if got != nil {
				t.Errorf("search %q = %d, want no match", tt.query, got.ID)
			}
			continue
		}
		if got == nil || got.ID != tt.wantID {
			t.Errorf("search %q = %v, want id %d", tt.query, got, tt.wantID)
		}
	}
}

func TestPokemonClearAll(t *testing.T) {
	ps := setupPokemonTestDB(t)
	ctx := context.Background()

	if err := ps.UpsertMany(ctx, []model.Pokemon{{ID: 1, Name: "Bulbasaur"}, {ID: 2, Name: "Ivysaur"}}, time.Now()); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := ps.ClearAll(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	n, err := ps.Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Errorf("count after clear = %d, want 0", n)
	}
}

func TestPokemonListStale(t *testing.T) {
	ps := setupPokemonTestDB(t)
	ctx := context.Background()

	if err := ps.UpsertMany(ctx, []model.Pokemon{{ID: 1, Name: "Bulbasaur"}}, time.UnixMilli(1_000)); err != nil {
		t.Fatalf("upsert old: %v", err)
	}
	if err := ps.UpsertMany(ctx, []model.Pokemon{{ID: 2, Name: "Ivysaur"}}, time.UnixMilli(5_000)); err != nil {
		t.Fatalf("upsert new: %v", err)
	}

	stale, err := ps.ListStale(ctx, time.UnixMilli(3_000))
	if err != nil {
		t.Fatalf("list stale: %v", err)
	}
	if len(stale) != 1 || stale[0].ID != 1 {
		t.Errorf("stale = %v, want only id 1", stale)
	}
}

func TestPokemonWatch(t *testing.T) {
	ps := setupPokemonTestDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates := ps.Watch(ctx)

	next := func() []model.CachedPokemon {
		t.Helper()
		select {
		case list, ok := <-updates:
			if !ok {
				t.Fatal("watch channel closed early")
			}
			return list
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for watch update")
		}
		return nil
	}

	if got := next(); len(got) != 0 {
		t.Fatalf("initial snapshot len = %d, want 0", len(got))
	}

	if err := ps.UpsertMany(ctx, []model.Pokemon{{ID: 7, Name: "Squirtle"}}, time.Now()); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if got := next(); len(got) != 1 || got[0].ID != 7 {
		t.Fatalf("after upsert = %v, want [7]", got)
	}

	if err := ps.ClearAll(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if got := next(); len(got) != 0 {
		t.Fatalf("after clear len = %d, want 0", len(got))
	}

	cancel()
	select {
	case _, ok := <-updates:
		if ok {
			// A final snapshot may race with cancellation; the channel must still close.
			for range updates {
			}
		}
	case <-time.After(2 * time.Second):
		t.Fatal("watch channel not closed after cancel")
	}
}
