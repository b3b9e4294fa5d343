package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/TWRT/board-sync/internal/models"
	"github.com/TWRT/board-sync/internal/sanitize"
	"github.com/TWRT/board-sync/internal/validate"
)

var ErrLimitReached = errors.New("daily request limit reached")

// StakeholderRequest is the public form an external stakeholder fills in to
// open a ticket. Website is a honeypot that people never see.
type StakeholderRequest struct {
	Name            string          `json:"name"`
	Email           string          `json:"email"`
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	Priority        models.Priority `json:"prio"`
	Category        models.Category `json:"category"`
	DueDate         string          `json:"due_date"`
	Subtasks        []string        `json:"subtasks"`
	PrivacyAccepted bool            `json:"privacy_accepted"`
	Website         string          `json:"website"`
}

func (r StakeholderRequest) Validate(now time.Time) error {
	errs := validate.Errors{}

	switch {
	case strings.TrimSpace(r.Name) == "":
		errs.Add("name", validate.MsgRequired)
	case !validate.MinLen(r.Name, 2):
		errs.Add("name", "Name must be at least 2 characters")
	}

	switch {
	case strings.TrimSpace(r.Email) == "":
		errs.Add("email", validate.MsgRequired)
	case !validate.IsEmail(strings.TrimSpace(r.Email)):
		errs.Add("email", "Please enter a valid email address")
	}

	switch {
	case strings.TrimSpace(r.Title) == "":
		errs.Add("title", validate.MsgRequired)
	case !validate.MinLen(r.Title, 3):
		errs.Add("title", "Title must be at least 3 characters")
	}

	switch {
	case strings.TrimSpace(r.Description) == "":
		errs.Add("description", validate.MsgRequired)
	case !validate.MinLen(r.Description, 10):
		errs.Add("description", "Description must be at least 10 characters")
	}

	if !r.Category.Valid() {
		errs.Add("category", validate.MsgRequired)
	}
	if r.DueDate != "" && !validate.NotPast(r.DueDate, now) {
		errs.Add("due_date", validate.MsgPastDate)
	}
	if !r.PrivacyAccepted {
		errs.Add("privacy_accepted", "You must accept the privacy policy")
	}
	return errs.Err()
}

// RequestService turns stakeholder form submissions into triage tasks.
type RequestService struct {
	tasks         *TaskService
	limits        *RateLimitService
	notifications *NotificationService
	logger        zerolog.Logger
	now           func() time.Time
}

func NewRequestService(
	tasks *TaskService,
	limits *RateLimitService,
	notifications *NotificationService,
	logger zerolog.Logger,
) *RequestService {
	return &RequestService{
		tasks:         tasks,
		limits:        limits,
		notifications: notifications,
		logger:        logger.With().Str("service", "requests").Logger(),
		now:           time.Now,
	}
}

// Submit validates, rate-limits and stores a request. A filled honeypot
// returns (nil, nil) without writing anything so bots see a success.
func (s *RequestService) Submit(ctx context.Context, req StakeholderRequest, fingerprint string) (*models.Task, error) {
	if err := req.Validate(s.now()); err != nil {
		return nil, err
	}

	if req.Website != "" {
		s.logger.Info().Str("fingerprint", fingerprint).Msg("honeypot filled, dropping request")
		return nil, nil
	}

	if limit := s.limits.Check(ctx, fingerprint); !limit.Allowed {
		return nil, ErrLimitReached
	}

	// fresh copy first so the whole-collection write keeps other people's tasks
	s.tasks.Load(ctx)

	prio := req.Priority
	if prio == models.PriorityNone {
		prio = models.PriorityMedium
	}
	subtasks := make(models.Subtasks, 0, len(req.Subtasks))
	for _, name := range req.Subtasks {
		subtasks = append(subtasks, models.SubTask{ID: subtasks.NextID(), Name: sanitize.Text(name)})
	}
	creator := &models.Creator{
		Name:  sanitize.Text(strings.TrimSpace(req.Name)),
		Email: strings.TrimSpace(req.Email),
		Type:  models.CreatorExternal,
	}

	task, err := s.tasks.Create(ctx, TaskInput{
		Name:        sanitize.Text(strings.TrimSpace(req.Title)),
		Description: sanitize.Text(strings.TrimSpace(req.Description)),
		DueDate:     req.DueDate,
		Prio:        prio,
		Category:    req.Category,
		Subtasks:    subtasks,
	}, creator)
	if err != nil {
		return nil, err
	}

	if err := s.limits.Increment(ctx, fingerprint); err != nil {
		s.logger.Warn().Err(err).Msg("failed to count request")
	}
	s.notifications.SendFormConfirmation(ctx, task)

	return &task, nil
}
