package database

import (
	"context"
	"path/filepath"
	"testing"
)

func TestOpenRunsMigrations(t *testing.T) {
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	for _, table := range []string{"cached_pokemon", "settings"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		if err != nil {
			t.Errorf("table %q missing: %v", table, err)
		}
	}
}

func TestOpenFileIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pokedex.db")

	db, err := Open(path)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	db.Close()

	db, err = Open(path)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	db.Close()
}

func TestAcquireLockExclusive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pokedex.db")
	ctx := context.Background()

	first, err := AcquireLock(ctx, path)
	if err != nil {
		t.Fatalf("first lock: %v", err)
	}

	ctx2, cancel := context.WithTimeout(ctx, 0)
	defer cancel()
	if _, err := AcquireLock(ctx2, path); err == nil {
		t.Fatal("expected second lock to fail while the first is held")
	}

	if err := first.Release(); err != nil {
		t.Fatalf("release: %v", err)
	}

	second, err := AcquireLock(ctx, path)
	if err != nil {
		t.Fatalf("lock after release: %v", err)
	}
	second.Release()
}

func TestAcquireLockMemory(t *testing.T) {
	l, err := AcquireLock(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("lock: %v", err)
	}
	if err := l.Release(); err != nil {
		t.Errorf("release: %v", err)
	}
}
