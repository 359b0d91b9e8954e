package services

import (
	"context"
	"time"

	"paper-birthdays/models"
)

// PaperStore ist die lesende Sicht auf die Paper-Tabelle.
type PaperStore interface {
	PapersByMonthDay(ctx context.Context, monthDay string) ([]models.Paper, error)
	SearchTitles(ctx context.Context, query string, limit int) ([]models.Paper, error)
	PaperByID(ctx context.Context, id string) (models.Paper, error)
	Stats(ctx context.Context) (models.PaperStats, error)
}

// SubscriptionStore persistiert Abonnements. MarkVerified und MarkUnsubscribed sind
// bedingte Updates in einem Statement und melden, ob eine Zeile übergegangen ist.
type SubscriptionStore interface {
	Create(ctx context.Context, sub *models.Subscription) error
	FindActive(ctx context.Context, email, paperID string) (models.Subscription, error)
	CountByEmail(ctx context.Context, email string) (int64, error)
	ByVerificationToken(ctx context.Context, token string) (models.Subscription, error)
	ByUnsubscribeToken(ctx context.Context, token string) (models.Subscription, error)
	MarkVerified(ctx context.Context, token string, at time.Time) (bool, error)
	MarkUnsubscribed(ctx context.Context, token string, at time.Time) (bool, error)
	Due(ctx context.Context, monthDay string, year int) ([]models.DueSubscription, error)
	MarkSent(ctx context.Context, id uint, year int) error
}

// ObjectStore nimmt exportierte Dateien entgegen (S3 oder kompatibel).
type ObjectStore interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
}

// BackupStore erweitert ObjectStore um Auflisten und Löschen für die Rotation.
type BackupStore interface {
	ObjectStore
	List(ctx context.Context, prefix string) ([]models.StoredObject, error)
	Delete(ctx context.Context, key string) error
}
