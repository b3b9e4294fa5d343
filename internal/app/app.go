package app

import (
	"context"
	"database/sql"

	"github.com/rs/zerolog"

	"github.com/TWRT/board-sync/internal/client/firebase"
	"github.com/TWRT/board-sync/internal/client/webhook"
	"github.com/TWRT/board-sync/internal/config"
	"github.com/TWRT/board-sync/internal/repository"
	"github.com/TWRT/board-sync/internal/service"
)

// App owns one instance of every service for the life of the process.
type App struct {
	Config        *config.Config
	Logger        zerolog.Logger
	DB            *sql.DB
	Tasks         *service.TaskService
	Contacts      *service.ContactService
	Auth          *service.AuthService
	RateLimit     *service.RateLimitService
	Notifications *service.NotificationService
	Requests      *service.RequestService
}

func New(cfg *config.Config, logger zerolog.Logger) (*App, error) {
	db, err := repository.InitDB(cfg.State.DBPath)
	if err != nil {
		return nil, err
	}
	logger.Info().Str("path", cfg.State.DBPath).Msg("opened state db")

	store := firebase.NewFirebaseClient(cfg.Firebase.URL, cfg.Firebase.Timeout, logger)
	poster := webhook.NewWebhookClient(cfg.N8N.WebhookSecret, cfg.N8N.Timeout)

	notifications := service.NewNotificationService(poster, service.NotificationConfig{
		StatusWebhookURL: cfg.N8N.WebhookURL,
		FormWebhookURL:   cfg.N8N.FormWebhookURL,
		BaseURL:          cfg.N8N.BaseURL,
	}, logger)
	tasks := service.NewTaskService(store, notifications, logger)
	contacts := service.NewContactService(store, tasks, logger)
	limits := service.NewRateLimitService(store, cfg.RateLimit.DailyMax, cfg.RateLimit.ClientMax, logger)
	auth := service.NewAuthService(store, repository.NewSessionRepository(db), service.AuthConfig{
		SigningKey: []byte(cfg.JWT.SigningKey),
		TokenTTL:   cfg.JWT.TTL,
	}, logger)

	return &App{
		Config:        cfg,
		Logger:        logger,
		DB:            db,
		Tasks:         tasks,
		Contacts:      contacts,
		Auth:          auth,
		RateLimit:     limits,
		Notifications: notifications,
		Requests:      service.NewRequestService(tasks, limits, notifications, logger),
	}, nil
}

// Warm loads both collections so the first requests see the board.
func (a *App) Warm(ctx context.Context) {
	tasks := a.Tasks.Load(ctx)
	contacts := a.Contacts.Load(ctx)
	a.Logger.Info().
		Int("tasks", len(tasks)).
		Int("contacts", len(contacts)).
		Msg("loaded collections")
	a.Notifications.Wake(ctx)
}

func (a *App) Close() {
	if err := a.DB.Close(); err != nil {
		a.Logger.Error().Err(err).Msg("failed to close state db")
		return
	}
	a.Logger.Info().Msg("closed state db")
}
