package perf

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	jobmetrics "github.com/surveyhub/surveyhub/internal/jobs"
	"github.com/surveyhub/surveyhub/internal/survey"
	"github.com/surveyhub/surveyhub/jobs"
)

type slowSender struct {
	delay time.Duration
	fail  func(n int64) bool
	n     atomic.Int64
}

func (s *slowSender) Send(ctx context.Context, _ jobs.SendEmailPayload) error {
	n := s.n.Add(1)
	time.Sleep(s.delay)
	if s.fail != nil && s.fail(n) {
		return errors.New("relay timeout")
	}
	return ctx.Err()
}

func TestJobThroughputAndReliability(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := jobmetrics.NewMetrics(reg)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	endpoint := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(5 * time.Millisecond)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer endpoint.Close()

	submissions := &jobs.SubmissionJob{Endpoint: endpoint.URL, Client: endpoint.Client(), Logger: logger, Metrics: metrics}
	for i := 0; i < 40; i++ {
		task, err := jobs.NewSurveySubmittedTask(survey.Submission{
			SurveyID:    "customer-satisfaction",
			Answers:     map[string]any{"1": "Good", "2": 5},
			SubmittedAt: time.Now().UTC(),
		})
		if err != nil {
			t.Fatalf("build task: %v", err)
		}
		if err := submissions.Handle(ctx, task); err != nil {
			t.Fatalf("submission %d: %v", i, err)
		}
	}

	// Every twentieth delivery fails to exercise the failure counters.
	mail := &jobs.MailJob{
		Sender:  &slowSender{delay: 2 * time.Millisecond, fail: func(n int64) bool { return n%20 == 0 }},
		Logger:  logger,
		Metrics: metrics,
	}
	for i := 0; i < 60; i++ {
		task, err := jobs.NewSendEmailTask(jobs.SendEmailPayload{To: "user@example.com", Subject: "Welcome", Body: "hi"})
		if err != nil {
			t.Fatalf("build task: %v", err)
		}
		_ = mail.Handle(ctx, task)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	forwarded := metricValue(t, families, "surveyhub_jobs_total", map[string]string{"job": jobs.TaskTypeSurveySubmitted, "status": "success"})
	if forwarded != 40 {
		t.Fatalf("expected 40 forwarded submissions, got %f", forwarded)
	}

	success := metricValue(t, families, "surveyhub_jobs_total", map[string]string{"job": jobs.TaskTypeSendEmail, "status": "success"})
	failure := metricValue(t, families, "surveyhub_jobs_total", map[string]string{"job": jobs.TaskTypeSendEmail, "status": "failure"})
	if failure == 0 {
		t.Fatal("no mail failures recorded")
	}
	if ratio := success / (success + failure); ratio < 0.9 {
		t.Fatalf("mail success ratio too low: %f", ratio)
	}

	if mean := histogramMean(t, families, "surveyhub_job_duration_seconds", map[string]string{"job": jobs.TaskTypeSurveySubmitted}); mean > 0.5 {
		t.Fatalf("submission forward duration above budget: %f", mean)
	}
	if mean := histogramMean(t, families, "surveyhub_job_duration_seconds", map[string]string{"job": jobs.TaskTypeSendEmail}); mean > 0.2 {
		t.Fatalf("mail duration above budget: %f", mean)
	}
}

func metricValue(t *testing.T, families []*dto.MetricFamily, name string, labels map[string]string) float64 {
	t.Helper()
	for _, fam := range families {
		if fam.GetName() != name {
			continue
		}
		for _, metric := range fam.GetMetric() {
			if hasLabels(metric, labels) {
				if fam.GetType() == dto.MetricType_COUNTER {
					return metric.GetCounter().GetValue()
				}
				if fam.GetType() == dto.MetricType_GAUGE {
					return metric.GetGauge().GetValue()
				}
			}
		}
	}
	t.Fatalf("metric %s with labels %v not found", name, labels)
	return 0
}

func histogramMean(t *testing.T, families []*dto.MetricFamily, name string, labels map[string]string) float64 {
	t.Helper()
	for _, fam := range families {
		if fam.GetName() != name {
			continue
		}
		for _, metric := range fam.GetMetric() {
			if hasLabels(metric, labels) {
				hist := metric.GetHistogram()
				if hist == nil || hist.GetSampleCount() == 0 {
					t.Fatalf("histogram %s missing samples", name)
				}
				return hist.GetSampleSum() / float64(hist.GetSampleCount())
			}
		}
	}
	t.Fatalf("histogram %s with labels %v not found", name, labels)
	return 0
}

func hasLabels(metric *dto.Metric, labels map[string]string) bool {
	found := 0
	for _, lp := range metric.GetLabel() {
		want, ok := labels[lp.GetName()]
		if !ok {
			continue
		}
		if lp.GetValue() != want {
			return false
		}
		found++
	}
	return found == len(labels)
}
