package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jobmetrics "github.com/surveyhub/surveyhub/internal/jobs"
	"github.com/surveyhub/surveyhub/internal/survey"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeSender struct {
	sent []SendEmailPayload
	err  error
}

func (f *fakeSender) Send(_ context.Context, msg SendEmailPayload) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

type countingInvalidator struct{ calls int }

func (c *countingInvalidator) Invalidate(context.Context) error {
	c.calls++
	return nil
}

func TestMailJobSends(t *testing.T) {
	sender := &fakeSender{}
	metrics := jobmetrics.NewMetrics(prometheus.NewRegistry())
	job := &MailJob{Sender: sender, Logger: quiet, Metrics: metrics}

	task, err := NewSendEmailTask(SendEmailPayload{To: "a@example.com", Subject: "Hi", Body: "hello"})
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "a@example.com", sender.sent[0].To)
}

func TestMailJobSkipsBadPayload(t *testing.T) {
	job := &MailJob{Sender: &fakeSender{}, Logger: quiet}
	err := job.Handle(context.Background(), asynq.NewTask(TaskTypeSendEmail, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	task, err := NewSendEmailTask(SendEmailPayload{Subject: "no recipient"})
	require.NoError(t, err)
	assert.ErrorIs(t, job.Handle(context.Background(), task), asynq.SkipRetry)
}

func TestMailJobReturnsSenderError(t *testing.T) {
	boom := errors.New("relay down")
	job := &MailJob{Sender: &fakeSender{err: boom}, Logger: quiet}
	task, err := NewSendEmailTask(SendEmailPayload{To: "a@example.com"})
	require.NoError(t, err)
	assert.ErrorIs(t, job.Handle(context.Background(), task), boom)
}

func TestSMTPSenderRejectsHeaderInjection(t *testing.T) {
	s := NewSMTPSender("localhost", 1025, "noreply@surveyhub.com")
	err := s.Send(context.Background(), SendEmailPayload{To: "a@example.com\r\nBcc: x@example.com", Subject: "x"})
	require.ErrorIs(t, err, ErrHeaderInjection)
}

func TestMailJobDoesNotRetryHeaderInjection(t *testing.T) {
	job := &MailJob{Sender: NewSMTPSender("localhost", 1025, "noreply@surveyhub.com"), Logger: quiet}
	task, err := NewSendEmailTask(SendEmailPayload{To: "support@surveyhub.com", Subject: "[Contact] hi\r\nBcc: x@example.com"})
	require.NoError(t, err)
	err = job.Handle(context.Background(), task)
	assert.ErrorIs(t, err, asynq.SkipRetry)
	assert.ErrorIs(t, err, ErrHeaderInjection)
}

func submissionTask(t *testing.T) *asynq.Task {
	t.Helper()
	task, err := NewSurveySubmittedTask(survey.Submission{
		SurveyID:    "customer-satisfaction",
		SurveyTitle: "Customer Satisfaction Survey",
		Answers:     map[string]any{"1": "Good", "2": 4},
		SubmittedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	})
	require.NoError(t, err)
	return task
}

func TestSubmissionJobForwardsAndInvalidates(t *testing.T) {
	var got SurveySubmittedPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	reg := prometheus.NewRegistry()
	inv := &countingInvalidator{}
	job := &SubmissionJob{Endpoint: srv.URL, Client: srv.Client(), Analytics: inv, Logger: quiet, Metrics: jobmetrics.NewMetrics(reg)}

	require.NoError(t, job.Handle(context.Background(), submissionTask(t)))
	assert.Equal(t, "customer-satisfaction", got.SurveyID)
	assert.Equal(t, "Good", got.Answers["1"])
	assert.Equal(t, 1, inv.calls)
	assert.Equal(t, 1, testutil.CollectAndCount(reg, "surveyhub_jobs_total"))
}

func TestSubmissionJobRetriesServerErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	inv := &countingInvalidator{}
	job := &SubmissionJob{Endpoint: srv.URL, Client: srv.Client(), Analytics: inv, Logger: quiet}
	err := job.Handle(context.Background(), submissionTask(t))
	require.Error(t, err)
	assert.NotErrorIs(t, err, asynq.SkipRetry)
	assert.Zero(t, inv.calls)
}

func TestSubmissionJobSkipsRejectedPayloads(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	job := &SubmissionJob{Endpoint: srv.URL, Client: srv.Client(), Logger: quiet}
	assert.ErrorIs(t, job.Handle(context.Background(), submissionTask(t)), asynq.SkipRetry)
}

func TestSubmissionJobWithoutEndpointOnlyInvalidates(t *testing.T) {
	inv := &countingInvalidator{}
	job := &SubmissionJob{Analytics: inv, Logger: quiet}
	require.NoError(t, job.Handle(context.Background(), submissionTask(t)))
	assert.Equal(t, 1, inv.calls)
}

type stubInspector struct {
	info map[string]*asynq.QueueInfo
	err  error
}

func (s stubInspector) GetQueueInfo(queue string) (*asynq.QueueInfo, error) {
	if s.err != nil {
		return nil, s.err
	}
	if info, ok := s.info[queue]; ok {
		return info, nil
	}
	return nil, asynq.ErrQueueNotFound
}

func serveHealth(t *testing.T, h *Handler) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	h.MountRoutes(r)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	return rr
}

func TestHealthWithoutInspector(t *testing.T) {
	rr := serveHealth(t, NewHandler(nil, quiet))
	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Queues []QueueHealth `json:"queues"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Len(t, body.Queues, 2)
	assert.Equal(t, QueueCritical, body.Queues[0].Queue)
}

func TestHealthReportsQueueCounts(t *testing.T) {
	inspector := stubInspector{info: map[string]*asynq.QueueInfo{
		QueueDefault: {Queue: QueueDefault, Pending: 3, Failed: 1},
	}}
	rr := serveHealth(t, NewHandler(inspector, quiet))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"pending":3`)
}

func TestHealthUnavailable(t *testing.T) {
	rr := serveHealth(t, NewHandler(stubInspector{err: errors.New("dial redis")}, quiet))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Equal(t, "application/problem+json", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Body.String(), "job queue critical")
	assert.NotContains(t, rr.Body.String(), "dial redis")
}

func TestAnalyticsRefreshJobInvalidates(t *testing.T) {
	inv := &countingInvalidator{}
	job := &AnalyticsRefreshJob{Analytics: inv}
	require.NoError(t, job.Handle(context.Background(), NewAnalyticsRefreshTask()))
	assert.Equal(t, 1, inv.calls)
}
