package database

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/flock"
)

// Lock is an exclusive cross-process lock held next to the database file.
type Lock struct {
	flock *flock.Flock
}

// AcquireLock takes the "<dbPath>.lock" file lock, retrying until ctx is done.
// In-memory databases need no lock and get a no-op Lock.
func AcquireLock(ctx context.Context, dbPath string) (*Lock, error) {
	if dbPath == ":memory:" {
		return &Lock{}, nil
	}

	fl := flock.New(dbPath + ".lock")
	ok, err := fl.TryLockContext(ctx, 250*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", fl.Path(), err)
	}
	if !ok {
		return nil, fmt.Errorf("lock %s: held by another process", fl.Path())
	}
	return &Lock{flock: fl}, nil
}

func (l *Lock) Release() error {
	if l.flock == nil {
		return nil
	}
	return l.flock.Unlock()
}
