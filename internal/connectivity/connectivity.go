// Package connectivity reports whether the remote catalog is reachable, both
// as a point-in-time check and as a stream of changes.
package connectivity

import (
	"context"
	"sync"
)

type Status string

const (
	Available   Status = "available"
	Unavailable Status = "unavailable"
	Losing      Status = "losing"
	Lost        Status = "lost"
)

// Monitor is implemented by Prober and Static.
type Monitor interface {
	// Connected is the instantaneous reachability check.
	Connected() bool
	// Subscribe registers fn to receive the current status immediately and
	// every subsequent change. The returned func unregisters it.
	Subscribe(fn func(Status)) (unsubscribe func())
}

// broadcaster holds the last status and the registered callbacks. Callbacks
// run on the publishing goroutine and must not block.
type broadcaster struct {
	mu     sync.Mutex
	status Status
	nextID int
	subs   map[int]func(Status)
}

func newBroadcaster(initial Status) *broadcaster {
	return &broadcaster{status: initial, subs: make(map[int]func(Status))}
}

func (b *broadcaster) current() Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.status
}

func (b *broadcaster) subscribe(fn func(Status)) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = fn
	status := b.status
	b.mu.Unlock()

	fn(status)

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		})
	}
}

// publish records status and notifies subscribers if it changed.
func (b *broadcaster) publish(status Status) bool {
	b.mu.Lock()
	if b.status == status {
		b.mu.Unlock()
		return false
	}
	b.status = status
	fns := make([]func(Status), 0, len(b.subs))
	for _, fn := range b.subs {
		fns = append(fns, fn)
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn(status)
	}
	return true
}

// Stream adapts a Monitor to a channel of reachability booleans. Consecutive
// duplicates are suppressed. The channel closes when ctx is done.
func Stream(ctx context.Context, m Monitor) <-chan bool {
	out := make(chan bool, 1)
	statuses := make(chan Status, 8)

	unsubscribe := m.Subscribe(func(s Status) {
		select {
		case statuses <- s:
		default:
			// Slow reader: drop the oldest pending status so the latest wins.
			select {
			case <-statuses:
			default:
			}
			select {
			case statuses <- s:
			default:
			}
		}
	})

	go func() {
		defer close(out)
		defer unsubscribe()

		var last *bool
		for {
			select {
			case s := <-statuses:
				v := s == Available
				if last != nil && *last == v {
					continue
				}
				last = &v
				select {
				case out <- v:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}
