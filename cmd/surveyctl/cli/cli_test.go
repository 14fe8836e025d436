package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/surveyhub/surveyhub/internal/auth"
	"github.com/surveyhub/surveyhub/internal/profiles"
	"github.com/surveyhub/surveyhub/jobs"
)

type stubUsers struct {
	created []string
	roles   []profiles.Role
	byEmail map[string]*auth.User
}

func (s *stubUsers) CreateConfirmedUser(ctx context.Context, email, password string, role profiles.Role) (*auth.User, error) {
	s.created = append(s.created, email)
	s.roles = append(s.roles, role)
	return &auth.User{ID: "u-1", Email: email}, nil
}

func (s *stubUsers) FindUser(ctx context.Context, email string) (*auth.User, error) {
	if u, ok := s.byEmail[email]; ok {
		return u, nil
	}
	return nil, errors.New("not found")
}

type stubProfiles struct {
	list    []profiles.Profile
	granted map[string]profiles.Role
}

func (s *stubProfiles) List(ctx context.Context) ([]profiles.Profile, error) {
	return s.list, nil
}

func (s *stubProfiles) Grant(ctx context.Context, userID string, role profiles.Role) error {
	if s.granted == nil {
		s.granted = map[string]profiles.Role{}
	}
	s.granted[userID] = role
	return nil
}

type stubInspector map[string]*asynq.QueueInfo

func (s stubInspector) GetQueueInfo(queue string) (*asynq.QueueInfo, error) {
	if info, ok := s[queue]; ok {
		return info, nil
	}
	return nil, asynq.ErrQueueNotFound
}

func passwords(values ...string) PasswordReader {
	return func(string) (string, error) {
		if len(values) == 0 {
			return "", errors.New("no more input")
		}
		v := values[0]
		values = values[1:]
		return v, nil
	}
}

func run(t *testing.T, deps *Deps, pw PasswordReader, args ...string) (string, error) {
	t.Helper()
	loads := 0
	root := NewRootCommand(func(context.Context) (*Deps, error) {
		loads++
		return deps, nil
	}, pw)
	var stdout, stderr bytes.Buffer
	err := Execute(context.Background(), root, args, &stdout, &stderr)
	assert.LessOrEqual(t, loads, 1)
	return stdout.String(), err
}

func TestCreateUserAsAdmin(t *testing.T) {
	users := &stubUsers{}
	out, err := run(t, &Deps{Users: users}, passwords("secret1", "secret1"), "create-user", "--email", "ada@example.com", "--admin")
	require.NoError(t, err)
	assert.Equal(t, []string{"ada@example.com"}, users.created)
	assert.Equal(t, []profiles.Role{profiles.RoleAdmin}, users.roles)
	assert.Contains(t, out, "with role admin")
}

func TestCreateUserRejectsMismatchedPasswords(t *testing.T) {
	users := &stubUsers{}
	_, err := run(t, &Deps{Users: users}, passwords("secret1", "secret2"), "create-user", "--email", "ada@example.com")
	require.Error(t, err)
	assert.Empty(t, users.created)
}

func TestCreateUserRejectsShortPassword(t *testing.T) {
	_, err := run(t, &Deps{Users: &stubUsers{}}, passwords("123"), "create-user", "--email", "ada@example.com")
	assert.ErrorContains(t, err, "at least 6 characters")
}

func TestGrantRole(t *testing.T) {
	users := &stubUsers{byEmail: map[string]*auth.User{"grace@example.com": {ID: "u-2", Email: "grace@example.com"}}}
	profs := &stubProfiles{}
	out, err := run(t, &Deps{Users: users, Profiles: profs}, nil, "grant-role", "grace@example.com", "admin")
	require.NoError(t, err)
	assert.Equal(t, profiles.RoleAdmin, profs.granted["u-2"])
	assert.Contains(t, out, "grace@example.com is now admin")
}

func TestGrantRoleRejectsUnknownRole(t *testing.T) {
	_, err := run(t, &Deps{Users: &stubUsers{}, Profiles: &stubProfiles{}}, nil, "grant-role", "x@example.com", "owner")
	assert.ErrorContains(t, err, "unknown role")
}

func TestProfilesListing(t *testing.T) {
	profs := &stubProfiles{list: []profiles.Profile{
		{ID: "u-1", Role: profiles.RoleAdmin, CreatedAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)},
	}}
	out, err := run(t, &Deps{Profiles: profs}, nil, "profiles")
	require.NoError(t, err)
	assert.Contains(t, out, "u-1")
	assert.Contains(t, out, "admin")
	assert.Contains(t, out, "2026-03-01")
}

func TestMigrate(t *testing.T) {
	called := false
	out, err := run(t, &Deps{Migrate: func(context.Context) error { called = true; return nil }}, nil, "migrate")
	require.NoError(t, err)
	assert.True(t, called)
	assert.Contains(t, out, "schema applied")
}

func TestQueueStats(t *testing.T) {
	inspector := stubInspector{jobs.QueueCritical: {Pending: 2, Failed: 1}}
	out, err := run(t, &Deps{Queue: inspector}, nil, "queue")
	require.NoError(t, err)
	assert.Contains(t, out, "critical")
	assert.Contains(t, out, "default")

	stats, err := InspectQueues(inspector)
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, 2, stats[0].Pending)
	assert.Zero(t, stats[1].Pending)
}

func TestHelpDoesNotLoadBackends(t *testing.T) {
	root := NewRootCommand(func(context.Context) (*Deps, error) {
		t.Fatal("help must not open backends")
		return nil, nil
	}, nil)
	var out bytes.Buffer
	require.NoError(t, Execute(context.Background(), root, []string{"--help"}, &out, &out))
	assert.Contains(t, out.String(), "create-user")
}
