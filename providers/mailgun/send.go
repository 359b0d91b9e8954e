package mailgun

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"paper-birthdays/config"
	"paper-birthdays/providers"
)

var httpClient = &http.Client{Timeout: 30 * time.Second}

// Sender implementiert das Sender-Interface für Mailgun.
type Sender struct {
	Config *config.Config
	Logger *zap.Logger
}

// NewSender erstellt einen neuen Mailgun-Sender.
func NewSender(cfg *config.Config, logger *zap.Logger) *Sender {
	return &Sender{Config: cfg, Logger: logger}
}

// Name gibt den Namen des Anbieters zurück.
func (s *Sender) Name() string {
	return "mailgun"
}

func (s *Sender) fromAddress() string {
	from := s.Config.FromEmail
	if from == "" {
		from = "noreply@" + s.Config.MailgunDomain
	}
	return fmt.Sprintf("%s <%s>", s.Config.FromName, from)
}

// Send stellt die Nachricht als Formular-POST an die Messages-API zu.
func (s *Sender) Send(ctx context.Context, msg providers.Message) error {
	if s.Config.MailgunAPIKey == "" || s.Config.MailgunDomain == "" {
		return fmt.Errorf("MAILGUN_API_KEY or MAILGUN_DOMAIN not configured")
	}

	form := url.Values{}
	form.Set("from", s.fromAddress())
	form.Set("to", msg.To)
	form.Set("subject", msg.Subject)
	form.Set("text", msg.Text)
	form.Set("html", msg.HTML)

	endpoint := fmt.Sprintf("%s/v3/%s/messages", s.Config.MailgunBaseURL, s.Config.MailgunDomain)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.SetBasicAuth("api", s.Config.MailgunAPIKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("mailgun request failed with status %d: %s", resp.StatusCode, detail)
	}

	s.Logger.Debug("Email accepted by Mailgun", zap.String("subject", msg.Subject))
	return nil
}
