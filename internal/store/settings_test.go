package store

import (
	"context"
	"testing"

	"github.com/dukerupert/pokedex/internal/database"
)

func setupSettingsTestDB(t *testing.T) *SettingsStore {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewSettingsStore(db)
}

func TestSettingsSeedData(t *testing.T) {
	ss := setupSettingsTestDB(t)

	settings, err := ss.GetAll(context.Background())
	if err != nil {
		t.Fatalf("get all: %v", err)
	}

	expected := map[string]string{
		"sort_type":    "NUMBER",
		"is_ascending": "true",
	}
	for key, want := range expected {
		if got := settings[key]; got != want {
			t.Errorf("setting %q = %q, want %q", key, got, want)
		}
	}
}

func TestSettingsGetMissing(t *testing.T) {
	ss := setupSettingsTestDB(t)

	_, ok, err := ss.Get(context.Background(), "nonexistent")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ok {
		t.Error("expected ok=false for missing key")
	}
}

func TestSettingsSetMany(t *testing.T) {
	ss := setupSettingsTestDB(t)
	ctx := context.Background()

	if err := ss.SetMany(ctx, map[string]string{"sort_type": "NAME", "is_ascending": "false"}); err != nil {
		t.Fatalf("set many: %v", err)
	}

	val, ok, err := ss.Get(ctx, "sort_type")
	if err != nil || !ok {
		t.Fatalf("get sort_type: ok=%v err=%v", ok, err)
	}
	if val != "NAME" {
		t.Errorf("sort_type = %q, want NAME", val)
	}

	if err := ss.Set(ctx, "is_ascending", "true"); err != nil {
		t.Fatalf("set: %v", err)
	}
	val, _, _ = ss.Get(ctx, "is_ascending")
	if val != "true" {
		t.Errorf("is_ascending = %q, want true", val)
	}
}
