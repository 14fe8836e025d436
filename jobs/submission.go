package jobs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/surveyhub/surveyhub/internal/jobs"
)

// CacheInvalidator drops cached analytics after new responses arrive.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

// SubmissionJob forwards completed surveys to the configured endpoint.
type SubmissionJob struct {
	Endpoint  string
	Client    *http.Client
	Analytics CacheInvalidator
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
}

// Handle processes TaskTypeSurveySubmitted tasks.
func (j *SubmissionJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	var payload SurveySubmittedPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("submission: decode payload: %w", asynq.SkipRetry)
	}
	tracker := j.Metrics.Track(TaskTypeSurveySubmitted)
	defer func() { err = tracker.End(err) }()

	logger := loggerOr(j.Logger).With(slog.String("survey_id", payload.SurveyID))
	if j.Endpoint != "" {
		if err := j.post(ctx, t.Payload()); err != nil {
			logger.Warn("forward submission", slog.Any("error", err))
			return err
		}
	}
	if j.Analytics != nil {
		if err := j.Analytics.Invalidate(ctx); err != nil {
			logger.Warn("invalidate analytics", slog.Any("error", err))
		}
	}
	logger.Info("submission processed", slog.Int("answers", len(payload.Answers)), slog.Bool("forwarded", j.Endpoint != ""))
	return nil
}

func (j *SubmissionJob) post(ctx context.Context, body []byte) error {
	client := j.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, j.Endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("submission: build request: %w", asynq.SkipRetry)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("submission: post: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	switch {
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("submission: endpoint returned %d", resp.StatusCode)
	case resp.StatusCode >= 400:
		return fmt.Errorf("submission: endpoint rejected with %d: %w", resp.StatusCode, asynq.SkipRetry)
	}
	return nil
}
