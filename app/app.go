// Package app baut alle Kollaborateure einmal beim Start zusammen und räumt sie beim Beenden ab.
package app

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"paper-birthdays/config"
	"paper-birthdays/handlers"
	"paper-birthdays/providers"
	"paper-birthdays/providers/logmail"
	"paper-birthdays/providers/mailgun"
	"paper-birthdays/providers/resend"
	"paper-birthdays/providers/sendgrid"
	"paper-birthdays/services"
	"paper-birthdays/storage"
)

// App hält die verdrahteten Services eines Prozesses.
type App struct {
	Config        *config.Config
	Logger        *zap.Logger
	DB            *gorm.DB
	Redis         *redis.Client
	Papers        *services.PaperService
	Subscriptions *services.SubscriptionService
	Dispatcher    *services.Dispatcher
	// Snapshots ist nil, wenn SNAPSHOT_S3_BUCKET leer ist.
	Snapshots *services.SnapshotExporter
}

// NewLogger liefert den Produktions-Logger, mit LOG_DEVELOPMENT den Entwicklungs-Logger.
func NewLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.LogDevelopment {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// NewSender wählt den E-Mail-Anbieter über EMAIL_SERVICE.
func NewSender(cfg *config.Config, logger *zap.Logger) (providers.Sender, error) {
	switch cfg.EmailService {
	case "resend":
		return resend.NewSender(cfg, logger), nil
	case "sendgrid":
		return sendgrid.NewSender(cfg, logger), nil
	case "mailgun":
		return mailgun.NewSender(cfg, logger), nil
	case "log":
		return logmail.NewSender(logger), nil
	default:
		return nil, fmt.Errorf("unknown EMAIL_SERVICE %q", cfg.EmailService)
	}
}

// New öffnet Datenbank, optional Redis und S3, und baut die Services.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	sender, err := NewSender(cfg, logger)
	if err != nil {
		return nil, err
	}

	db, err := storage.Open(cfg, logger)
	if err != nil {
		return nil, err
	}
	a := &App{Config: cfg, Logger: logger, DB: db}

	paperStore := storage.NewPaperStore(db)
	subStore := storage.NewSubscriptionStore(db)

	var papers services.PaperStore = paperStore
	a.Redis, err = storage.NewRedisClient(ctx, cfg)
	if err != nil {
		// Ohne Cache weiterlaufen; die Tageslisten kommen dann direkt aus der Datenbank.
		logger.Warn("Redis unavailable, day cache disabled", zap.Error(err))
	}
	if a.Redis != nil {
		papers = storage.NewCachedPapers(paperStore, a.Redis, cfg.PaperCacheTTL, logger)
		logger.Info("Day cache enabled", zap.Duration("ttl", cfg.PaperCacheTTL))
	}

	a.Papers = services.NewPaperService(cfg, logger, papers)
	a.Subscriptions = services.NewSubscriptionService(cfg, logger, papers, subStore, sender)
	a.Dispatcher = services.NewDispatcher(cfg, logger, subStore, sender)

	if cfg.SnapshotEnabled() {
		objects, err := storage.NewS3Store(ctx, cfg)
		if err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("snapshot store: %w", err)
		}
		a.Snapshots = services.NewSnapshotExporter(cfg, logger, paperStore, objects)
	}

	logger.Info("Application ready",
		zap.String("email_service", sender.Name()),
		zap.Bool("email_dry_run", cfg.EmailDryRun),
		zap.Bool("snapshots", a.Snapshots != nil))
	return a, nil
}

// Handler liefert die Abhängigkeiten für den HTTP-Router.
func (a *App) Handler() *handlers.Handler {
	return &handlers.Handler{
		Config:        a.Config,
		Logger:        a.Logger,
		Papers:        a.Papers,
		Subscriptions: a.Subscriptions,
		Dispatcher:    a.Dispatcher,
		Snapshots:     a.Snapshots,
	}
}

// Close baut Redis-Client und Datenbankpool ab.
func (a *App) Close() error {
	var firstErr error
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			firstErr = err
		}
	}
	if a.DB != nil {
		if err := storage.Close(a.DB); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
