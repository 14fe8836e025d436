package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const verificationTTL = 24 * time.Hour

// SessionStore keeps auth sessions and verification tokens in Redis.
type SessionStore struct {
	client *redis.Client
}

// NewSessionStore constructs a SessionStore.
func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{client: client}
}

// Save stores the session for key until it expires.
func (s *SessionStore) Save(ctx context.Context, key string, session *Session) error {
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("auth: save session: already expired")
	}
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("auth: encode session: %w", err)
	}
	if err := s.client.Set(ctx, sessionKey(key), payload, ttl).Err(); err != nil {
		return fmt.Errorf("auth: save session: %w", err)
	}
	return nil
}

// Load returns the session for key or nil when none is stored.
func (s *SessionStore) Load(ctx context.Context, key string) (*Session, error) {
	payload, err := s.client.Get(ctx, sessionKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("auth: load session: %w", err)
	}
	var session Session
	if err := json.Unmarshal(payload, &session); err != nil {
		return nil, fmt.Errorf("auth: decode session: %w", err)
	}
	return &session, nil
}

// Delete removes the session for key.
func (s *SessionStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, sessionKey(key)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("auth: delete session: %w", err)
	}
	return nil
}

// IssueVerification stores a single-use token confirming userID.
func (s *SessionStore) IssueVerification(ctx context.Context, userID string) (string, error) {
	token := uuid.NewString()
	if err := s.client.Set(ctx, verificationKey(token), userID, verificationTTL).Err(); err != nil {
		return "", fmt.Errorf("auth: store verification: %w", err)
	}
	return token, nil
}

// ConsumeVerification returns the user id for token and invalidates it.
func (s *SessionStore) ConsumeVerification(ctx context.Context, token string) (string, error) {
	if _, err := uuid.Parse(token); err != nil {
		return "", ErrInvalidToken
	}
	userID, err := s.client.GetDel(ctx, verificationKey(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrInvalidToken
		}
		return "", fmt.Errorf("auth: consume verification: %w", err)
	}
	return userID, nil
}

func sessionKey(key string) string {
	return "auth:session:" + key
}

func verificationKey(token string) string {
	return "auth:verify:" + token
}
