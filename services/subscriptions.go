package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"paper-birthdays/config"
	"paper-birthdays/metrics"
	"paper-birthdays/models"
	"paper-birthdays/providers"
)

// MaxSubscriptionsPerEmail ist die Obergrenze pro Adresse. Abgemeldete Zeilen zählen mit.
const MaxSubscriptionsPerEmail = 5

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// SubscriptionService verwaltet den Double-Opt-In-Lebenszyklus.
type SubscriptionService struct {
	Config        *config.Config
	Logger        *zap.Logger
	Papers        PaperStore
	Subscriptions SubscriptionStore
	Tokens        TokenGenerator
	Sender        providers.Sender
	Mailer        Mailer

	now func() time.Time
}

// NewSubscriptionService erstellt eine neue Instanz des SubscriptionService.
func NewSubscriptionService(cfg *config.Config, logger *zap.Logger, papers PaperStore, subs SubscriptionStore, sender providers.Sender) *SubscriptionService {
	return &SubscriptionService{
		Config:        cfg,
		Logger:        logger,
		Papers:        papers,
		Subscriptions: subs,
		Tokens:        RandomTokens{},
		Sender:        sender,
		Mailer:        Mailer{SiteURL: cfg.SiteURL},
		now:           time.Now,
	}
}

// NormalizeEmail entfernt Leerraum und wandelt in Kleinbuchstaben um.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidEmail prüft die Syntax local@domain.tld.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// Create legt ein unbestätigtes Abonnement an und verschickt die Bestätigungsmail.
// Schlägt der Versand fehl, bleibt die Zeile im Zustand "created" und der Aufruf gilt als gescheitert.
func (s *SubscriptionService) Create(ctx context.Context, email, paperID string) (*models.Subscription, error) {
	email = NormalizeEmail(email)
	paperID = strings.TrimSpace(paperID)
	if email == "" || paperID == "" {
		return nil, ErrMissingInput
	}
	if !ValidEmail(email) {
		return nil, ErrInvalidEmail
	}

	paper, err := s.Papers.PaperByID(ctx, paperID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, ErrPaperNotFound
	}
	if err != nil {
		s.Logger.Error("Paper lookup failed", zap.String("paper_id", paperID), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrInternal, err)
	}
	if paper.PublicationMonthDay == nil || *paper.PublicationMonthDay == "" {
		return nil, ErrPaperNoDate
	}

	count, err := s.Subscriptions.CountByEmail(ctx, email)
	if err != nil {
		s.Logger.Error("Subscription count failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrInternal, err)
	}
	if count >= MaxSubscriptionsPerEmail {
		return nil, ErrLimitExceeded
	}

	if err := s.checkActive(ctx, email, paperID); err != nil {
		return nil, err
	}

	verifyToken, unsubToken, err := s.tokenPair()
	if err != nil {
		s.Logger.Error("Token generation failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrInternal, err)
	}

	sub := &models.Subscription{
		Email:               email,
		PaperID:             paper.PaperID,
		PaperTitle:          paper.Title,
		PublicationMonthDay: *paper.PublicationMonthDay,
		VerificationToken:   verifyToken,
		UnsubscribeToken:    unsubToken,
	}
	if err := s.Subscriptions.Create(ctx, sub); err != nil {
		if errors.Is(err, models.ErrDuplicate) {
			// Ein paralleler Request hat das Paar zuerst geschrieben.
			if cerr := s.checkActive(ctx, email, paperID); cerr != nil {
				return nil, cerr
			}
			return nil, ErrPendingVerification
		}
		s.Logger.Error("Subscription insert failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrInternal, err)
	}

	msg, err := s.Mailer.VerificationMessage(email, sub.PaperTitle, verifyToken, sub.PublicationMonthDay)
	if err != nil {
		s.Logger.Error("Verification email render failed", zap.Uint("subscription_id", sub.ID), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrEmailDelivery, err)
	}
	if err := s.Sender.Send(ctx, msg); err != nil {
		metrics.EmailsSent.WithLabelValues("verification", "failed").Inc()
		s.Logger.Error("Verification email failed",
			zap.Uint("subscription_id", sub.ID),
			zap.String("provider", s.Sender.Name()),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrEmailDelivery, err)
	}
	metrics.EmailsSent.WithLabelValues("verification", "sent").Inc()
	metrics.SubscriptionsCreated.Inc()

	s.Logger.Info("Subscription created",
		zap.Uint("subscription_id", sub.ID),
		zap.String("paper_id", sub.PaperID))
	s.Logger.Debug("Verification email sent", zap.String("email", email))
	return sub, nil
}

// checkActive meldet einen Konflikt, wenn für das Paar bereits eine nicht abgemeldete Zeile existiert.
func (s *SubscriptionService) checkActive(ctx context.Context, email, paperID string) error {
	existing, err := s.Subscriptions.FindActive(ctx, email, paperID)
	switch {
	case errors.Is(err, models.ErrNotFound):
		return nil
	case err != nil:
		s.Logger.Error("Active subscription lookup failed", zap.Error(err))
		return fmt.Errorf("%w: %w", ErrInternal, err)
	case existing.Verified:
		return ErrAlreadySubscribed
	default:
		return ErrPendingVerification
	}
}

func (s *SubscriptionService) tokenPair() (string, string, error) {
	verifyToken, err := s.Tokens.NewToken()
	if err != nil {
		return "", "", err
	}
	for range maxPickAttempts {
		unsubToken, err := s.Tokens.NewToken()
		if err != nil {
			return "", "", err
		}
		if unsubToken != verifyToken {
			return verifyToken, unsubToken, nil
		}
	}
	return "", "", errors.New("token generator returned identical tokens")
}

// Verify bestätigt ein Abonnement. Der Übergang erfolgt genau einmal.
func (s *SubscriptionService) Verify(ctx context.Context, token string) (*models.Subscription, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidToken
	}
	ok, err := s.Subscriptions.MarkVerified(ctx, token, s.now().UTC())
	if err != nil {
		s.Logger.Error("Verify update failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrInternal, err)
	}
	sub, err := s.Subscriptions.ByVerificationToken(ctx, token)
	if errors.Is(err, models.ErrNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		s.Logger.Error("Verification token lookup failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrInternal, err)
	}
	if !ok {
		return nil, ErrAlreadyVerified
	}
	metrics.SubscriptionTransitions.WithLabelValues(string(models.StateVerified)).Inc()
	s.Logger.Info("Subscription verified", zap.Uint("subscription_id", sub.ID))
	return &sub, nil
}

// Unsubscribe meldet ein Abonnement ab, aus "created" oder "verified".
func (s *SubscriptionService) Unsubscribe(ctx context.Context, token string) (*models.Subscription, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidToken
	}
	ok, err := s.Subscriptions.MarkUnsubscribed(ctx, token, s.now().UTC())
	if err != nil {
		s.Logger.Error("Unsubscribe update failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrInternal, err)
	}
	sub, err := s.Subscriptions.ByUnsubscribeToken(ctx, token)
	if errors.Is(err, models.ErrNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		s.Logger.Error("Unsubscribe token lookup failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrInternal, err)
	}
	if !ok {
		return nil, ErrAlreadyUnsubscribed
	}
	metrics.SubscriptionTransitions.WithLabelValues(string(models.StateUnsubscribed)).Inc()
	s.Logger.Info("Subscription cancelled", zap.Uint("subscription_id", sub.ID))
	return &sub, nil
}
