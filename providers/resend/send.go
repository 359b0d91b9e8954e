package resend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"paper-birthdays/config"
	"paper-birthdays/providers"
)

var httpClient = &http.Client{Timeout: 30 * time.Second}

type request struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
	Text    string   `json:"text"`
}

// Sender implementiert das Sender-Interface für Resend.
type Sender struct {
	Config *config.Config
	Logger *zap.Logger
}

// NewSender erstellt einen neuen Resend-Sender.
func NewSender(cfg *config.Config, logger *zap.Logger) *Sender {
	return &Sender{Config: cfg, Logger: logger}
}

// Name gibt den Namen des Anbieters zurück.
func (s *Sender) Name() string {
	return "resend"
}

// Send stellt die Nachricht über die Resend-API zu.
func (s *Sender) Send(ctx context.Context, msg providers.Message) error {
	if s.Config.ResendAPIKey == "" {
		return fmt.Errorf("RESEND_API_KEY not configured")
	}

	body, err := json.Marshal(request{
		From:    fmt.Sprintf("%s <%s>", s.Config.FromName, s.Config.FromEmail),
		To:      []string{msg.To},
		Subject: msg.Subject,
		HTML:    msg.HTML,
		Text:    msg.Text,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.Config.ResendBaseURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.Config.ResendAPIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("resend request failed with status %d: %s", resp.StatusCode, detail)
	}

	s.Logger.Debug("Email accepted by Resend", zap.String("subject", msg.Subject))
	return nil
}
