package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"

	"github.com/surveyhub/surveyhub/internal/survey"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// QueueCritical holds user-facing mail that should not wait behind reports.
	QueueCritical = "critical"
	// TaskTypeSendEmail is the task type for sending transactional emails.
	TaskTypeSendEmail = "mail:send"
	// TaskTypeSurveySubmitted forwards a completed survey.
	TaskTypeSurveySubmitted = "survey:submitted"
)

// SendEmailPayload describes the information required to send an email.
type SendEmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// SurveySubmittedPayload carries one completed survey.
type SurveySubmittedPayload struct {
	SurveyID    string         `json:"survey_id"`
	SurveyTitle string         `json:"survey_title"`
	Answers     map[string]any `json:"answers"`
	SubmittedAt time.Time      `json:"submitted_at"`
}

// NewSendEmailTask constructs an Asynq task.
func NewSendEmailTask(payload SendEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendEmail, data, asynq.MaxRetry(5)), nil
}

// NewSurveySubmittedTask constructs the submission forwarding task.
func NewSurveySubmittedTask(sub survey.Submission) (*asynq.Task, error) {
	data, err := json.Marshal(SurveySubmittedPayload{
		SurveyID:    sub.SurveyID,
		SurveyTitle: sub.SurveyTitle,
		Answers:     sub.Answers,
		SubmittedAt: sub.SubmittedAt,
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSurveySubmitted, data, asynq.MaxRetry(10), asynq.Timeout(30*time.Second)), nil
}
