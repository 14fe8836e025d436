package survey

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultStateTTL = 24 * time.Hour

// StateStore keeps per-client drafts and wizard positions in Redis.
type StateStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStateStore constructs a StateStore. Entries expire after ttl of inactivity.
func NewStateStore(client *redis.Client, ttl time.Duration) *StateStore {
	if ttl <= 0 {
		ttl = defaultStateTTL
	}
	return &StateStore{client: client, ttl: ttl}
}

// LoadDraft returns the draft for key, or a fresh draft.
func (s *StateStore) LoadDraft(ctx context.Context, key string) (Draft, error) {
	var d Draft
	found, err := s.load(ctx, draftKey(key), &d)
	if err != nil {
		return Draft{}, fmt.Errorf("survey: load draft: %w", err)
	}
	if !found {
		return NewDraft(), nil
	}
	return d, nil
}

// SaveDraft stores the draft for key.
func (s *StateStore) SaveDraft(ctx context.Context, key string, d Draft) error {
	if err := s.save(ctx, draftKey(key), d); err != nil {
		return fmt.Errorf("survey: save draft: %w", err)
	}
	return nil
}

// DeleteDraft discards the draft for key.
func (s *StateStore) DeleteDraft(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, draftKey(key)).Err(); err != nil {
		return fmt.Errorf("survey: delete draft: %w", err)
	}
	return nil
}

// LoadWizard returns the saved position of key in surveyID.
func (s *StateStore) LoadWizard(ctx context.Context, key, surveyID string) (State, bool, error) {
	var st State
	found, err := s.load(ctx, wizardKey(key, surveyID), &st)
	if err != nil {
		return State{}, false, fmt.Errorf("survey: load wizard: %w", err)
	}
	return st, found, nil
}

// SaveWizard stores the wizard position.
func (s *StateStore) SaveWizard(ctx context.Context, key string, st State) error {
	if err := s.save(ctx, wizardKey(key, st.SurveyID), st); err != nil {
		return fmt.Errorf("survey: save wizard: %w", err)
	}
	return nil
}

// DeleteWizard forgets the wizard position.
func (s *StateStore) DeleteWizard(ctx context.Context, key, surveyID string) error {
	if err := s.client.Del(ctx, wizardKey(key, surveyID)).Err(); err != nil {
		return fmt.Errorf("survey: delete wizard: %w", err)
	}
	return nil
}

func (s *StateStore) load(ctx context.Context, key string, dst any) (bool, error) {
	payload, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(payload, dst); err != nil {
		return false, err
	}
	return true, nil
}

func (s *StateStore) save(ctx context.Context, key string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, payload, s.ttl).Err()
}

func draftKey(key string) string {
	return "survey:draft:" + key
}

func wizardKey(key, surveyID string) string {
	return "survey:wizard:" + key + ":" + surveyID
}
