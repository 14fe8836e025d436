package jobs

import (
	"context"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/surveyhub/surveyhub/internal/jobs"
)

// TaskTypeAnalyticsRefresh drops cached dashboards on a schedule.
const TaskTypeAnalyticsRefresh = "analytics:refresh"

// NewAnalyticsRefreshTask constructs the scheduled refresh task.
func NewAnalyticsRefreshTask() *asynq.Task {
	return asynq.NewTask(TaskTypeAnalyticsRefresh, nil, asynq.MaxRetry(3))
}

// AnalyticsRefreshJob bumps the analytics cache version so dashboards are
// rebuilt on the next read.
type AnalyticsRefreshJob struct {
	Analytics CacheInvalidator
	Metrics   *jobmetrics.Metrics
}

// Handle processes TaskTypeAnalyticsRefresh tasks.
func (j *AnalyticsRefreshJob) Handle(ctx context.Context, _ *asynq.Task) (err error) {
	tracker := j.Metrics.Track(TaskTypeAnalyticsRefresh)
	defer func() { err = tracker.End(err) }()
	if j.Analytics == nil {
		return nil
	}
	return j.Analytics.Invalidate(ctx)
}
