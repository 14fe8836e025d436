package e2e

import (
	"context"
	"html"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/surveyhub/surveyhub/internal/auth"
	"github.com/surveyhub/surveyhub/internal/authstate"
	"github.com/surveyhub/surveyhub/internal/profiles"
)

const (
	waitFor = 2 * time.Second
	tick    = 10 * time.Millisecond
)

// stubProvider serves fixed sessions per client key and never emits changes.
type stubProvider struct {
	mu       sync.Mutex
	sessions map[string]*auth.Session
}

func (p *stubProvider) GetSession(_ context.Context, key string) (*auth.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sessions[key].Clone(), nil
}

func (p *stubProvider) SignInWithPassword(context.Context, string, string, string) (*auth.Session, error) {
	return nil, auth.ErrInvalidCredentials
}

func (p *stubProvider) SignUp(context.Context, string, string, string) error { return nil }

func (p *stubProvider) SignOut(context.Context, string) error { return nil }

func (p *stubProvider) OnAuthStateChange(string, auth.Listener) auth.Subscription {
	return noopSubscription{}
}

func (p *stubProvider) signIn(key, userID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sessions[key] = &auth.Session{
		AccessToken: "token-" + userID,
		ExpiresAt:   time.Now().Add(time.Hour),
		User:        auth.Identity{ID: userID, Email: userID + "@example.com"},
	}
}

type noopSubscription struct{}

func (noopSubscription) Unsubscribe() {}

// stubRoles answers role lookups, optionally blocking until released.
type stubRoles struct {
	roles map[string]profiles.Role
	gate  chan struct{}
}

func (r *stubRoles) RoleFor(ctx context.Context, userID string) (profiles.Role, error) {
	if r.gate != nil {
		select {
		case <-r.gate:
		case <-ctx.Done():
			return profiles.RoleNone, ctx.Err()
		}
	}
	role, ok := r.roles[userID]
	if !ok {
		return profiles.RoleNone, profiles.ErrNotFound
	}
	return role, nil
}

func guardedBrowser(t *testing.T, roles *stubRoles) (*browser, *stubProvider) {
	t.Helper()
	provider := &stubProvider{sessions: map[string]*auth.Session{}}
	registry := authstate.NewRegistry(provider, roles, time.Minute, nil)
	t.Cleanup(registry.Close)

	b := newBrowserWithAuth(t, nil, registry)
	b.client.CheckRedirect = func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }

	status, _ := b.get("/")
	require.Equal(t, http.StatusOK, status)
	return b, provider
}

func TestCreateAllowsSignedInAdmin(t *testing.T) {
	b, provider := guardedBrowser(t, &stubRoles{roles: map[string]profiles.Role{"u1": profiles.RoleAdmin}})
	provider.signIn(b.sessionID(), "u1")

	var body string
	require.Eventually(t, func() bool {
		status, page, err := b.fetch("/create")
		body = page
		return err == nil && status == http.StatusOK && !isPending(page)
	}, waitFor, tick)
	assert.Contains(t, body, "Survey Details")
	assert.Contains(t, body, "u1@example.com")
}

func TestCreateRedirectsPlainUser(t *testing.T) {
	b, provider := guardedBrowser(t, &stubRoles{roles: map[string]profiles.Role{"u1": profiles.RoleUser}})
	provider.signIn(b.sessionID(), "u1")

	require.Eventually(t, func() bool {
		resp, err := b.client.Get(b.base + "/create")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusSeeOther && resp.Header.Get("Location") == "/"
	}, waitFor, tick)
}

func TestCreateShowsPendingWhileRoleLoads(t *testing.T) {
	roles := &stubRoles{roles: map[string]profiles.Role{"u1": profiles.RoleAdmin}, gate: make(chan struct{})}
	b, provider := guardedBrowser(t, roles)
	provider.signIn(b.sessionID(), "u1")

	resp, err := b.client.Get(b.base + "/create")
	require.NoError(t, err)
	_, body := b.read(resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "1", resp.Header.Get("Refresh"))
	assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))
	assert.True(t, isPending(body))
	assert.NotContains(t, body, "Survey Details")

	close(roles.gate)
	require.Eventually(t, func() bool {
		status, body, err := b.fetch("/create")
		return err == nil && status == http.StatusOK && !isPending(body)
	}, waitFor, tick)
}

// fetch is get without assertions, for use inside polling conditions.
func (b *browser) fetch(path string) (int, string, error) {
	resp, err := b.client.Get(b.base + path)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, "", err
	}
	return resp.StatusCode, html.UnescapeString(string(raw)), nil
}

func isPending(body string) bool {
	return strings.Contains(body, "data-pending-target")
}
