package authstate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryAcquireReusesStore(t *testing.T) {
	registry := NewRegistry(newFakeProvider(), newFakeRoles(), time.Minute, nil)
	defer registry.Close()

	first := registry.Acquire("a")
	second := registry.Acquire("a")
	other := registry.Acquire("b")

	assert.Same(t, first, second)
	assert.NotSame(t, first, other)
	assert.Equal(t, 2, registry.Len())
	assert.Equal(t, "a", first.Key())
}

func TestRegistrySweepClosesIdleStores(t *testing.T) {
	provider := newFakeProvider()
	registry := NewRegistry(provider, newFakeRoles(), time.Minute, nil)
	defer registry.Close()

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	registry.now = func() time.Time { return now }

	idle := registry.Acquire("idle")
	now = now.Add(45 * time.Second)
	registry.Acquire("busy")
	now = now.Add(30 * time.Second)

	assert.Equal(t, 1, registry.Sweep())
	assert.Equal(t, 1, registry.Len())
	select {
	case <-idle.Done():
	case <-time.After(waitFor):
		t.Fatal("idle store was not closed")
	}
	assert.Equal(t, 1, provider.listenerCount())
}

func TestRegistryRelease(t *testing.T) {
	provider := newFakeProvider()
	registry := NewRegistry(provider, newFakeRoles(), time.Minute, nil)
	defer registry.Close()

	registry.Acquire("a")
	registry.Release("a")
	registry.Release("a")
	assert.Zero(t, registry.Len())
	assert.Zero(t, provider.listenerCount())
}

func TestRegistryCloseStopsEveryStore(t *testing.T) {
	provider := newFakeProvider()
	registry := NewRegistry(provider, newFakeRoles(), time.Minute, nil)

	a := registry.Acquire("a")
	b := registry.Acquire("b")
	registry.Close()
	registry.Close()

	for _, store := range []*Store{a, b} {
		select {
		case <-store.Done():
		case <-time.After(waitFor):
			t.Fatal("store not stopped")
		}
	}
	assert.Zero(t, provider.listenerCount())

	late := registry.Acquire("c")
	select {
	case <-late.Done():
	default:
		t.Fatal("stores acquired after close must already be closed")
	}
	assert.Zero(t, registry.Len())
}

func TestRegistryRunClosesOnCancel(t *testing.T) {
	registry := NewRegistry(newFakeProvider(), newFakeRoles(), time.Minute, nil)
	store := registry.Acquire("a")

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- registry.Run(ctx) }()
	cancel()

	require.NoError(t, <-errCh)
	select {
	case <-store.Done():
	case <-time.After(waitFor):
		t.Fatal("store not stopped")
	}
}
