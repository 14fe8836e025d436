// Package authstate keeps a per-client view of who is signed in and which
// role they hold, in step with the auth provider.
//
// A Store moves INIT → LOADING → READY and re-enters LOADING whenever a
// change notification introduces a user. Role lookups never run inside the
// provider's notification callback; they are handed to the store's own
// worker goroutine. Every lookup is tagged with the generation it was
// issued for, and results from an older generation never overwrite the
// role.
package authstate

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/surveyhub/surveyhub/internal/auth"
	"github.com/surveyhub/surveyhub/internal/profiles"
)

// RoleLookup resolves the role stored for a user id.
type RoleLookup interface {
	RoleFor(ctx context.Context, userID string) (profiles.Role, error)
}

// Snapshot is a read-only copy of the store state. Consumers must treat
// Loading as "decision pending", never as unauthorized.
type Snapshot struct {
	User    *auth.Identity
	Session *auth.Session
	Role    profiles.Role
	Loading bool

	version uint64
}

// SignedIn reports whether a user is present.
func (s Snapshot) SignedIn() bool {
	return s.User != nil
}

// HasRole reports whether the resolved role equals role. Always false while loading.
func (s Snapshot) HasRole(role profiles.Role) bool {
	return !s.Loading && s.User != nil && s.Role == role
}

type lookup struct {
	gen    uint64
	userID string
}

// Store tracks one client's session, user and role.
type Store struct {
	provider auth.Provider
	roles    RoleLookup
	key      string
	logger   *slog.Logger

	mu        sync.Mutex
	state     Snapshot
	gen       uint64
	pending   *lookup
	listeners map[int]func(Snapshot)
	nextID    int
	closed    bool
	started   bool

	// notifyMu serialises delivery so consumers see versions in order.
	notifyMu  sync.Mutex
	delivered uint64

	wake      chan struct{}
	sub       auth.Subscription
	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
}

// NewStore constructs a Store in the loading state. Call Start to begin.
func NewStore(provider auth.Provider, roles RoleLookup, key string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		provider:  provider,
		roles:     roles,
		key:       key,
		logger:    logger.With(slog.String("component", "authstate")),
		state:     Snapshot{Loading: true},
		listeners: make(map[int]func(Snapshot)),
		wake:      make(chan struct{}, 1),
		done:      make(chan struct{}),
	}
}

// Key returns the client key the store follows.
func (s *Store) Key() string {
	return s.key
}

// Start subscribes to auth-state changes and requests the current session
// on the store's worker goroutine. Cancelling ctx stops the worker.
func (s *Store) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started || s.closed {
		s.mu.Unlock()
		return
	}
	s.started = true
	// The initial session read is tagged with the generation in force
	// before any change could be delivered.
	initGen := s.gen
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	// Subscribing takes the notifier lock, which the callback path holds
	// while taking s.mu, so it must happen outside s.mu.
	sub := s.provider.OnAuthStateChange(s.key, s.onAuthStateChange)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		sub.Unsubscribe()
		cancel()
		close(s.done)
		return
	}
	s.cancel = cancel
	s.sub = sub
	s.mu.Unlock()

	go s.run(ctx, initGen)
}

// Snapshot returns the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Subscribe registers fn to receive every later snapshot. fn may run on
// the provider's notification path, so it must not block or call into the
// provider. The returned func removes fn and may be called more than once.
func (s *Store) Subscribe(fn func(Snapshot)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return func() {}
	}
	s.nextID++
	id := s.nextID
	s.listeners[id] = fn
	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

// Close unsubscribes from the provider and stops the worker. It is
// idempotent and safe before Start.
func (s *Store) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		sub := s.sub
		cancel := s.cancel
		neverStarted := !s.started
		s.sub = nil
		s.cancel = nil
		s.listeners = make(map[int]func(Snapshot))
		s.pending = nil
		s.mu.Unlock()

		if sub != nil {
			sub.Unsubscribe()
		}
		if cancel != nil {
			cancel()
		}
		if neverStarted {
			close(s.done)
		}
	})
}

// Done is closed once the worker goroutine has exited, or on Close when
// the store never started.
func (s *Store) Done() <-chan struct{} {
	return s.done
}

// onAuthStateChange runs inside the provider's notification path. It only
// updates in-memory state and queues work.
func (s *Store) onAuthStateChange(_ auth.Event, session *auth.Session) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.gen++
	if session != nil && (s.state.User == nil || s.state.User.ID != session.User.ID) {
		// A role never outlives the user it was resolved for.
		s.state.Role = profiles.RoleNone
	}
	s.setSessionLocked(session)
	if session == nil {
		s.state.Role = profiles.RoleNone
		if s.pending != nil {
			// The queued lookup was never dispatched, so no result will
			// arrive to end loading.
			s.pending = nil
			s.state.Loading = false
		}
		snap := s.bumpLocked()
		s.mu.Unlock()
		s.notify(snap)
		return
	}
	s.state.Loading = true
	s.pending = &lookup{gen: s.gen, userID: session.User.ID}
	snap := s.bumpLocked()
	s.mu.Unlock()

	s.notify(snap)
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Store) run(ctx context.Context, initGen uint64) {
	defer close(s.done)
	s.loadInitial(ctx, initGen)
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.wake:
		}
		s.resolvePending(ctx)
	}
}

func (s *Store) loadInitial(ctx context.Context, gen uint64) {
	session, err := s.provider.GetSession(ctx, s.key)
	if err != nil {
		s.logger.Warn("get session", slog.Any("error", err))
		session = nil
	}
	role := profiles.RoleNone
	if session != nil {
		role = s.lookupRole(ctx, session.User.ID)
	}
	if ctx.Err() != nil {
		return
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if gen == s.gen {
		s.setSessionLocked(session)
		s.state.Role = role
		s.state.Loading = false
	} else {
		s.settleStaleLocked()
	}
	snap := s.bumpLocked()
	s.mu.Unlock()
	s.notify(snap)
}

func (s *Store) resolvePending(ctx context.Context) {
	s.mu.Lock()
	req := s.pending
	s.pending = nil
	s.mu.Unlock()
	if req == nil {
		return
	}

	role := s.lookupRole(ctx, req.userID)
	if ctx.Err() != nil {
		return
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if req.gen == s.gen {
		s.state.Role = role
		s.state.Loading = false
	} else {
		s.settleStaleLocked()
	}
	snap := s.bumpLocked()
	s.mu.Unlock()
	s.notify(snap)
}

// settleStaleLocked handles a result that lost the race to a newer change.
// With no user there is nothing left to resolve, so loading ends.
func (s *Store) settleStaleLocked() {
	if s.state.User == nil {
		s.state.Role = profiles.RoleNone
		s.state.Loading = false
	}
}

// lookupRole degrades every failure to RoleNone.
func (s *Store) lookupRole(ctx context.Context, userID string) profiles.Role {
	role, err := s.roles.RoleFor(ctx, userID)
	if err != nil {
		if !errors.Is(err, profiles.ErrNotFound) && ctx.Err() == nil {
			s.logger.Debug("role lookup failed", slog.String("user_id", userID), slog.Any("error", err))
		}
		return profiles.RoleNone
	}
	return role
}

func (s *Store) setSessionLocked(session *auth.Session) {
	if session == nil {
		s.state.Session = nil
		s.state.User = nil
		return
	}
	s.state.Session = session.Clone()
	user := session.User
	s.state.User = &user
}

func (s *Store) bumpLocked() Snapshot {
	s.state.version++
	return s.state.clone()
}

func (s *Store) notify(snap Snapshot) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	if snap.version <= s.delivered {
		return
	}
	s.delivered = snap.version

	s.mu.Lock()
	fns := make([]func(Snapshot), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(snap.clone())
	}
}

func (s Snapshot) clone() Snapshot {
	out := s
	if s.User != nil {
		user := *s.User
		out.User = &user
	}
	out.Session = s.Session.Clone()
	return out
}
