package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const stateChannel = "auth:state"

// Notifier fans auth-state changes out to listeners registered per client
// key. Changes published on one instance reach the others over Redis.
//
// Listeners run on the publishing goroutine while the notifier holds its
// lock. A listener must not call back into the notifier or the provider;
// doing so deadlocks.
type Notifier struct {
	client *redis.Client
	origin string
	logger *slog.Logger

	mu        sync.Mutex
	nextID    int
	listeners map[string]map[int]Listener
}

type stateMessage struct {
	Origin  string   `json:"origin"`
	Key     string   `json:"key"`
	Event   Event    `json:"event"`
	Session *Session `json:"session,omitempty"`
}

// NewNotifier constructs a Notifier. client may be nil for a single process.
func NewNotifier(client *redis.Client, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		client:    client,
		origin:    uuid.NewString(),
		logger:    logger,
		listeners: make(map[string]map[int]Listener),
	}
}

// Subscribe registers fn for changes on key.
func (n *Notifier) Subscribe(key string, fn Listener) Subscription {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.nextID++
	id := n.nextID
	if n.listeners[key] == nil {
		n.listeners[key] = make(map[int]Listener)
	}
	n.listeners[key][id] = fn
	return &subscription{notifier: n, key: key, id: id}
}

// Publish delivers the change locally, then broadcasts it to other instances.
func (n *Notifier) Publish(ctx context.Context, key string, event Event, session *Session) error {
	n.dispatch(key, event, session)
	if n.client == nil {
		return nil
	}
	payload, err := json.Marshal(stateMessage{Origin: n.origin, Key: key, Event: event, Session: session})
	if err != nil {
		return fmt.Errorf("auth: encode state change: %w", err)
	}
	if err := n.client.Publish(ctx, stateChannel, payload).Err(); err != nil {
		return fmt.Errorf("auth: publish state change: %w", err)
	}
	return nil
}

// Run relays changes published by other instances until ctx is cancelled.
func (n *Notifier) Run(ctx context.Context) error {
	if n.client == nil {
		<-ctx.Done()
		return nil
	}
	pubsub := n.client.Subscribe(ctx, stateChannel)
	defer pubsub.Close()
	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("auth: subscribe state channel: %w", err)
	}
	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var change stateMessage
			if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
				n.logger.Warn("decode auth state change", slog.Any("error", err))
				continue
			}
			if change.Origin == n.origin {
				continue
			}
			n.dispatch(change.Key, change.Event, change.Session)
		}
	}
}

// Listeners reports how many listeners are registered for key.
func (n *Notifier) Listeners(key string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.listeners[key])
}

func (n *Notifier) dispatch(key string, event Event, session *Session) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, fn := range n.listeners[key] {
		fn(event, session.Clone())
	}
}

type subscription struct {
	notifier *Notifier
	key      string
	id       int
	once     sync.Once
}

func (s *subscription) Unsubscribe() {
	if s == nil {
		return
	}
	s.once.Do(func() {
		n := s.notifier
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.listeners[s.key], s.id)
		if len(n.listeners[s.key]) == 0 {
			delete(n.listeners, s.key)
		}
	})
}
