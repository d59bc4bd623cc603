// Package health tracks per-bank circuit state from a cached snapshot.
// Circuit rows are written by the external evaluation job; this package only
// reads them and applies them to channel eligibility.
package health

import (
	"context"
	"log"
	"sync"
	"time"

	"upiroute/internal/repositories"
)

const DefaultTTL = 30 * time.Second

// Registry caches the bank circuit snapshot process-locally. Staleness of up
// to one TTL is accepted; it trades a few seconds of lag for not hitting the
// store on every routing request.
type Registry struct {
	repo repositories.CircuitRepository
	ttl  time.Duration

	mu        sync.Mutex
	snapshot  map[string]string
	expiresAt time.Time
}

func NewRegistry(repo repositories.CircuitRepository, ttl time.Duration) *Registry {
	if repo == nil {
		panic("circuit repository is required")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Registry{
		repo:     repo,
		ttl:      ttl,
		snapshot: map[string]string{},
	}
}

// Snapshot returns the circuit state per bank, refreshing from the store at
// most once per TTL. A failed refresh serves the stale snapshot.
func (r *Registry) Snapshot(ctx context.Context) map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if time.Now().Before(r.expiresAt) {
		return r.snapshot
	}

	circuits, err := r.repo.List(ctx)
	if err != nil {
		log.Printf("circuit snapshot refresh failed, serving stale: %v", err)
		// Push the retry out a little so a down store isn't hammered.
		r.expiresAt = time.Now().Add(r.ttl / 3)
		return r.snapshot
	}

	fresh := make(map[string]string, len(circuits))
	for _, c := range circuits {
		fresh[c.BankName] = c.State
	}
	r.snapshot = fresh
	r.expiresAt = time.Now().Add(r.ttl)
	return r.snapshot
}

