package authstate

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/surveyhub/surveyhub/internal/auth"
	"github.com/surveyhub/surveyhub/internal/profiles"
)

// fakeProvider mimics the real notifier: listeners run while its lock is held.
type fakeProvider struct {
	mu        sync.Mutex
	sessions  map[string]*auth.Session
	getGate   chan struct{}
	listeners map[int]auth.Listener
	nextID    int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		sessions:  make(map[string]*auth.Session),
		listeners: make(map[int]auth.Listener),
	}
}

func (p *fakeProvider) GetSession(ctx context.Context, key string) (*auth.Session, error) {
	p.mu.Lock()
	gate := p.getGate
	p.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sessions[key].Clone(), nil
}

func (p *fakeProvider) SignInWithPassword(ctx context.Context, key, email, password string) (*auth.Session, error) {
	return nil, errors.New("not implemented")
}

func (p *fakeProvider) SignUp(ctx context.Context, email, password, redirectTo string) error {
	return errors.New("not implemented")
}

func (p *fakeProvider) SignOut(ctx context.Context, key string) error {
	p.emit(auth.EventSignedOut, nil)
	return nil
}

func (p *fakeProvider) OnAuthStateChange(key string, fn auth.Listener) auth.Subscription {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextID++
	id := p.nextID
	p.listeners[id] = fn
	return &fakeSubscription{provider: p, id: id}
}

func (p *fakeProvider) emit(event auth.Event, session *auth.Session) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, fn := range p.listeners {
		fn(event, session.Clone())
	}
}

func (p *fakeProvider) listenerCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.listeners)
}

type fakeSubscription struct {
	provider *fakeProvider
	id       int
	once     sync.Once
}

func (s *fakeSubscription) Unsubscribe() {
	s.once.Do(func() {
		s.provider.mu.Lock()
		delete(s.provider.listeners, s.id)
		s.provider.mu.Unlock()
	})
}

type fakeRoles struct {
	mu    sync.Mutex
	roles map[string]profiles.Role
	errs  map[string]error
	gates map[string]chan struct{}
	calls []string
}

func newFakeRoles() *fakeRoles {
	return &fakeRoles{
		roles: make(map[string]profiles.Role),
		errs:  make(map[string]error),
		gates: make(map[string]chan struct{}),
	}
}

func (r *fakeRoles) RoleFor(ctx context.Context, userID string) (profiles.Role, error) {
	r.mu.Lock()
	r.calls = append(r.calls, userID)
	gate := r.gates[userID]
	r.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return profiles.RoleNone, ctx.Err()
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.errs[userID]; err != nil {
		return profiles.RoleNone, err
	}
	role, ok := r.roles[userID]
	if !ok {
		return profiles.RoleNone, profiles.ErrNotFound
	}
	return role, nil
}

func (r *fakeRoles) hold(userID string) chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	gate := make(chan struct{})
	r.gates[userID] = gate
	return gate
}

func (r *fakeRoles) callCount(userID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, id := range r.calls {
		if id == userID {
			n++
		}
	}
	return n
}

func sessionFor(id, email string) *auth.Session {
	return &auth.Session{
		AccessToken: "token-" + id,
		ExpiresAt:   time.Now().Add(time.Hour),
		User:        auth.Identity{ID: id, Email: email},
	}
}

// recorder collects every snapshot a store delivers.
type recorder struct {
	mu    sync.Mutex
	snaps []Snapshot
}

func (r *recorder) record(s Snapshot) {
	r.mu.Lock()
	r.snaps = append(r.snaps, s)
	r.mu.Unlock()
}

func (r *recorder) all() []Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Snapshot(nil), r.snaps...)
}
