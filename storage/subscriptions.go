package storage

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"paper-birthdays/models"
)

// SubscriptionStore persistiert Abonnements in paper_birthday_subscriptions.
type SubscriptionStore struct {
	DB *gorm.DB
}

// NewSubscriptionStore erstellt einen neuen SubscriptionStore.
func NewSubscriptionStore(db *gorm.DB) *SubscriptionStore {
	return &SubscriptionStore{DB: db}
}

// Create fügt eine Zeile ein. Verletzt sie den partiellen Unique-Index, kommt models.ErrDuplicate.
func (s *SubscriptionStore) Create(ctx context.Context, sub *models.Subscription) error {
	err := s.DB.WithContext(ctx).Create(sub).Error
	if err != nil && isDuplicate(err) {
		return models.ErrDuplicate
	}
	return err
}

// FindActive liefert die nicht abgemeldete Zeile für (email, paper_id).
func (s *SubscriptionStore) FindActive(ctx context.Context, email, paperID string) (models.Subscription, error) {
	var sub models.Subscription
	err := s.DB.WithContext(ctx).
		Where("email = ? AND paper_id = ? AND unsubscribed = ?", email, paperID, false).
		First(&sub).Error
	return sub, notFound(err)
}

// CountByEmail zählt alle Zeilen einer Adresse, abgemeldete eingeschlossen.
func (s *SubscriptionStore) CountByEmail(ctx context.Context, email string) (int64, error) {
	var n int64
	err := s.DB.WithContext(ctx).Model(&models.Subscription{}).Where("email = ?", email).Count(&n).Error
	return n, err
}

// ByVerificationToken sucht nur im Raum der Bestätigungstokens.
func (s *SubscriptionStore) ByVerificationToken(ctx context.Context, token string) (models.Subscription, error) {
	var sub models.Subscription
	err := s.DB.WithContext(ctx).Where("verification_token = ?", token).First(&sub).Error
	return sub, notFound(err)
}

// ByUnsubscribeToken sucht nur im Raum der Abmeldetokens.
func (s *SubscriptionStore) ByUnsubscribeToken(ctx context.Context, token string) (models.Subscription, error) {
	var sub models.Subscription
	err := s.DB.WithContext(ctx).Where("unsubscribe_token = ?", token).First(&sub).Error
	return sub, notFound(err)
}

// MarkVerified setzt verified nur für unbestätigte, nicht abgemeldete Zeilen.
// Von zwei gleichzeitigen Aufrufen bekommt genau einer true.
func (s *SubscriptionStore) MarkVerified(ctx context.Context, token string, at time.Time) (bool, error) {
	res := s.DB.WithContext(ctx).Model(&models.Subscription{}).
		Where("verification_token = ? AND verified = ? AND unsubscribed = ?", token, false, false).
		Updates(map[string]any{"verified": true, "verified_at": at})
	return res.RowsAffected == 1, res.Error
}

// MarkUnsubscribed setzt unsubscribed nur für noch aktive Zeilen.
func (s *SubscriptionStore) MarkUnsubscribed(ctx context.Context, token string, at time.Time) (bool, error) {
	res := s.DB.WithContext(ctx).Model(&models.Subscription{}).
		Where("unsubscribe_token = ? AND unsubscribed = ?", token, false).
		Updates(map[string]any{"unsubscribed": true, "unsubscribed_at": at})
	return res.RowsAffected == 1, res.Error
}

// Due liefert bestätigte, aktive Abonnements des Tages, die im Jahr noch nicht verschickt wurden,
// zusammen mit den Paper-Daten für die Nachricht.
func (s *SubscriptionStore) Due(ctx context.Context, monthDay string, year int) ([]models.DueSubscription, error) {
	var due []models.DueSubscription
	err := s.DB.WithContext(ctx).
		Table("paper_birthday_subscriptions AS s").
		Select(`s.*, p.year AS paper_year, p.citation_count AS citation_count, p.url AS paper_url,
			p.venue AS paper_venue, p.fields_of_study AS fields_of_study`).
		Joins("JOIN papers p ON p.paper_id = s.paper_id").
		Where("s.publication_month_day = ?", monthDay).
		Where("s.verified = ? AND s.unsubscribed = ?", true, false).
		Where("s.last_sent_year IS NULL OR s.last_sent_year < ?", year).
		Order("s.id").
		Scan(&due).Error
	return due, err
}

// MarkSent setzt last_sent_year, aber nie zurück.
func (s *SubscriptionStore) MarkSent(ctx context.Context, id uint, year int) error {
	return s.DB.WithContext(ctx).Model(&models.Subscription{}).
		Where("id = ? AND (last_sent_year IS NULL OR last_sent_year < ?)", id, year).
		Update("last_sent_year", year).Error
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.ErrNotFound
	}
	return err
}
