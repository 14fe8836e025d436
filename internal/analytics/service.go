package analytics

import (
	"context"
	"fmt"
	"strings"
)

// Service coordinates a dashboard Source with the cache layer.
type Service struct {
	source Source
	cache  *Cache
}

// NewService wires a Source with a Cache helper.
func NewService(source Source, cache *Cache) *Service {
	return &Service{source: source, cache: cache}
}

// Dashboard returns the dashboard for surveyID, served from cache when fresh.
func (s *Service) Dashboard(ctx context.Context, surveyID string) (Dashboard, error) {
	surveyID = strings.TrimSpace(surveyID)
	if surveyID == "" {
		return Dashboard{}, fmt.Errorf("%w: empty id", ErrUnknownSurvey)
	}
	key, err := s.cache.BuildKey(ctx, keyDashboard(surveyID))
	if err != nil {
		return Dashboard{}, fmt.Errorf("analytics: cache key: %w", err)
	}
	dash, err := fetchJSON(ctx, s.cache, key, func(ctx context.Context) (Dashboard, error) {
		return s.source.Dashboard(ctx, surveyID)
	})
	if err != nil {
		return Dashboard{}, fmt.Errorf("analytics: dashboard %s: %w", surveyID, err)
	}
	return dash, nil
}

// Invalidate drops every cached dashboard. It runs after new submissions.
func (s *Service) Invalidate(ctx context.Context) error {
	if err := s.cache.Bump(ctx); err != nil {
		return fmt.Errorf("analytics: invalidate: %w", err)
	}
	return nil
}
