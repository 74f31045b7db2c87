package preference

import (
	"context"
	"testing"
	"time"

	"github.com/dukerupert/pokedex/internal/database"
	"github.com/dukerupert/pokedex/internal/model"
	"github.com/dukerupert/pokedex/internal/store"
)

func setupPreferenceStore(t *testing.T) (*Store, *store.SettingsStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	settings := store.NewSettingsStore(db)
	return NewStore(settings), settings
}

func TestDefaults(t *testing.T) {
	ps, _ := setupPreferenceStore(t)

	pref, err := ps.Get(context.Background())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if pref != model.DefaultSortPreference() {
		t.Errorf("pref = %+v, want defaults", pref)
	}
}

func TestDefaultsWhenKeysMissing(t *testing.T) {
	ps, settings := setupPreferenceStore(t)
	ctx := context.Background()

	if err := settings.SetMany(ctx, map[string]string{"sort_type": "BOGUS", "is_ascending": "maybe"}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	pref, err := ps.Get(ctx)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if pref.Field != model.SortByNumber || !pref.Ascending {
		t.Errorf("pref = %+v, want NUMBER ascending", pref)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	ps, _ := setupPreferenceStore(t)
	ctx := context.Background()

	want := model.SortPreference{Field: model.SortByName, Ascending: false}
	if err := ps.Save(ctx, want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := ps.Get(ctx)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestSubscribe(t *testing.T) {
	ps, _ := setupPreferenceStore(t)
	ctx := context.Background()

	var got []model.SortPreference
	unsubscribe, err := ps.Subscribe(ctx, func(p model.SortPreference) { got = append(got, p) })
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	ps.Save(ctx, model.SortPreference{Field: model.SortByName, Ascending: true})
	unsubscribe()
	ps.Save(ctx, model.SortPreference{Field: model.SortByNumber, Ascending: false})

	if len(got) != 2 {
		t.Fatalf("got %d notifications, want 2: %v", len(got), got)
	}
	if got[0] != model.DefaultSortPreference() {
		t.Errorf("first = %+v, want defaults", got[0])
	}
	if got[1].Field != model.SortByName {
		t.Errorf("second = %+v, want NAME", got[1])
	}
}

func TestStream(t *testing.T) {
	ps, _ := setupPreferenceStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := ps.Stream(ctx)
	if err != nil {
		t.Fatalf("stream: %v", err)
	}

	next := func() model.SortPreference {
		t.Helper()
		select {
		case p := <-ch:
			return p
		case <-time.After(2 * time.Second):
			t.Fatal("timed out")
		}
		return model.SortPreference{}
	}

	if p := next(); p != model.DefaultSortPreference() {
		t.Errorf("initial = %+v", p)
	}
	want := model.SortPreference{Field: model.SortByName, Ascending: false}
	if err := ps.Save(ctx, want); err != nil {
		t.Fatalf("save: %v", err)
	}
	if p := next(); p != want {
		t.Errorf("after save = %+v, want %+v", p, want)
	}
}
