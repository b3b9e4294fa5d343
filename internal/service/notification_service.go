package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/TWRT/board-sync/internal/client"
	"github.com/TWRT/board-sync/internal/models"
)

type StatusChangePayload struct {
	TaskID          string            `json:"taskId"`
	TaskName        string            `json:"taskName"`
	TaskDescription string            `json:"taskDescription"`
	PreviousStatus  models.TaskStatus `json:"previousStatus"`
	NewStatus       models.TaskStatus `json:"newStatus"`
	Creator         *models.Creator   `json:"creator"`
	Timestamp       string            `json:"timestamp"`
}

type FormConfirmationPayload struct {
	TaskID          string            `json:"taskId"`
	TaskName        string            `json:"taskName"`
	TaskDescription string            `json:"taskDescription"`
	Status          models.TaskStatus `json:"status"`
	Creator         *models.Creator   `json:"creator"`
	Timestamp       string            `json:"timestamp"`
}

type NotificationConfig struct {
	StatusWebhookURL string
	FormWebhookURL   string
	BaseURL          string
}

// NotificationService posts task events to the workflow webhooks. Delivery is
// best effort: nothing is retried or recorded, and no error reaches the caller.
type NotificationService struct {
	poster client.WebhookPoster
	cfg    NotificationConfig
	logger zerolog.Logger
	now    func() time.Time
}

func NewNotificationService(poster client.WebhookPoster, cfg NotificationConfig, logger zerolog.Logger) *NotificationService {
	return &NotificationService{
		poster: poster,
		cfg:    cfg,
		logger: logger.With().Str("service", "notifications").Logger(),
		now:    time.Now,
	}
}

func (s *NotificationService) SendStatusChange(ctx context.Context, task models.Task, previous models.TaskStatus) {
	if task.Creator == nil || task.Creator.Email == "" || s.cfg.StatusWebhookURL == "" {
		return
	}

	payload := StatusChangePayload{
		TaskID:          task.ID,
		TaskName:        task.Name,
		TaskDescription: task.Description,
		PreviousStatus:  previous,
		NewStatus:       task.Status,
		Creator:         task.Creator,
		Timestamp:       models.FormatTimestamp(s.now()),
	}
	s.deliver(ctx, s.cfg.StatusWebhookURL, "status_change", task.ID, payload)
}

// SendFormConfirmation tells the workflow a stakeholder request became a task.
func (s *NotificationService) SendFormConfirmation(ctx context.Context, task models.Task) {
	if task.Creator == nil || task.Creator.Email == "" || s.cfg.FormWebhookURL == "" {
		return
	}

	payload := FormConfirmationPayload{
		TaskID:          task.ID,
		TaskName:        task.Name,
		TaskDescription: task.Description,
		Status:          task.Status,
		Creator:         task.Creator,
		Timestamp:       models.FormatTimestamp(s.now()),
	}
	s.deliver(ctx, s.cfg.FormWebhookURL, "form_confirmation", task.ID, payload)
}

// Wake pings the workflow host, which may be asleep after a quiet period.
func (s *NotificationService) Wake(ctx context.Context) {
	if s.cfg.BaseURL == "" {
		return
	}
	url := strings.TrimRight(s.cfg.BaseURL, "/") + "/healthz"
	if err := s.poster.Ping(ctx, url); err != nil {
		s.logger.Debug().Err(err).Msg("wake ping failed")
	}
}

func (s *NotificationService) deliver(ctx context.Context, url, kind, taskID string, payload any) {
	if err := s.poster.Post(ctx, url, payload); err != nil {
		s.logger.Debug().
			Err(err).
			Str("kind", kind).
			Str("task_id", taskID).
			Msg("notification dropped")
		return
	}
	s.logger.Info().
		Str("kind", kind).
		Str("task_id", taskID).
		Msg("notification sent")
}
