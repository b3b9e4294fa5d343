package handlers

import (
	"github.com/rs/zerolog"

	"github.com/TWRT/board-sync/internal/service"
)

type Handler struct {
	logger    zerolog.Logger
	tasks     *service.TaskService
	contacts  *service.ContactService
	auth      *service.AuthService
	rateLimit *service.RateLimitService
	requests  *service.RequestService
}

func NewHandler(
	logger zerolog.Logger,
	tasks *service.TaskService,
	contacts *service.ContactService,
	auth *service.AuthService,
	rateLimit *service.RateLimitService,
	requests *service.RequestService,
) *Handler {
	return &Handler{
		logger:    logger.With().Str("component", "api").Logger(),
		tasks:     tasks,
		contacts:  contacts,
		auth:      auth,
		rateLimit: rateLimit,
		requests:  requests,
	}
}
