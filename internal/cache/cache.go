// Package cache holds small in-process caches for backend lookups that
// rarely change, such as a user's category list.
package cache

import (
	"context"
	"log/slog"
	"time"
)

// Cache is a keyed store of T.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	Size() int
}

// Cleaner is implemented by caches whose entries expire.
type Cleaner interface {
	CleanExpired() int
}

// Sweeper periodically drops expired entries from the registered caches.
type Sweeper struct {
	caches []Cleaner
	stop   chan struct{}
	done   chan struct{}
}

func NewSweeper(caches ...Cleaner) *Sweeper {
	return &Sweeper{
		caches: caches,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Start runs the sweep loop every interval until Stop is called.
func (s *Sweeper) Start(ctx context.Context, interval time.Duration) {
	go s.run(ctx, interval)
}

func (s *Sweeper) run(ctx context.Context, interval time.Duration) {
	defer close(s.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				slog.DebugContext(ctx, "Cache sweep", "removed", n)
			}
		case <-s.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Sweep cleans every registered cache once and returns the entries removed.
func (s *Sweeper) Sweep() int {
	total := 0
	for _, c := range s.caches {
		total += c.CleanExpired()
	}
	return total
}

// Stop ends the sweep loop and waits for it to return. Only call it after
// Start.
func (s *Sweeper) Stop() {
	close(s.stop)
	<-s.done
}
