package authstate

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/surveyhub/surveyhub/internal/auth"
)

const defaultIdleTTL = 30 * time.Minute

// Registry owns one running Store per client key and closes stores that
// have not been used for the idle TTL.
type Registry struct {
	provider auth.Provider
	roles    RoleLookup
	logger   *slog.Logger
	idleTTL  time.Duration
	now      func() time.Time

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	stores map[string]*entry
	closed bool
}

type entry struct {
	store    *Store
	lastSeen time.Time
}

// NewRegistry constructs a Registry. Stores live until idle or Close.
func NewRegistry(provider auth.Provider, roles RoleLookup, idleTTL time.Duration, logger *slog.Logger) *Registry {
	if idleTTL <= 0 {
		idleTTL = defaultIdleTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Registry{
		provider: provider,
		roles:    roles,
		logger:   logger,
		idleTTL:  idleTTL,
		now:      time.Now,
		ctx:      ctx,
		cancel:   cancel,
		stores:   make(map[string]*entry),
	}
}

// Acquire returns the store for key, starting one on first use.
func (r *Registry) Acquire(key string) *Store {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.stores[key]; ok {
		e.lastSeen = r.now()
		return e.store
	}
	store := NewStore(r.provider, r.roles, key, r.logger)
	if r.closed {
		store.Close()
		return store
	}
	r.stores[key] = &entry{store: store, lastSeen: r.now()}
	store.Start(r.ctx)
	return store
}

// Release closes and forgets the store for key.
func (r *Registry) Release(key string) {
	r.mu.Lock()
	e, ok := r.stores[key]
	delete(r.stores, key)
	r.mu.Unlock()
	if ok {
		e.store.Close()
	}
}

// Len reports the number of live stores.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stores)
}

// Sweep closes stores idle for longer than the TTL and returns how many.
func (r *Registry) Sweep() int {
	cutoff := r.now().Add(-r.idleTTL)
	var idle []*Store
	r.mu.Lock()
	for key, e := range r.stores {
		if e.lastSeen.Before(cutoff) {
			idle = append(idle, e.store)
			delete(r.stores, key)
		}
	}
	r.mu.Unlock()
	for _, store := range idle {
		store.Close()
	}
	return len(idle)
}

// Run sweeps idle stores until ctx is cancelled, then closes every store.
func (r *Registry) Run(ctx context.Context) error {
	interval := r.idleTTL / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			r.Close()
			return nil
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				r.logger.Debug("closed idle auth stores", slog.Int("count", n))
			}
		}
	}
}

// Close stops every store. Later Acquire calls return closed stores.
func (r *Registry) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	stores := r.stores
	r.stores = make(map[string]*entry)
	r.mu.Unlock()

	for _, e := range stores {
		e.store.Close()
	}
	r.cancel()
}
