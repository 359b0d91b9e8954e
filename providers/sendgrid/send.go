package sendgrid

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

type address struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type content struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type personalization struct {
	To []address `json:"to"`
}

type request struct {
	Personalizations []personalization `json:"personalizations"`
	From             address           `json:"from"`
	Subject          string            `json:"subject"`
	Content          []content         `json:"content"`
}

// Sender implementiert das Sender-Interface für SendGrid (v3 Mail Send).
type Sender struct {
	Config *config.Config
	Logger *zap.Logger
}

// NewSender erstellt einen neuen SendGrid-Sender.
func NewSender(cfg *config.Config, logger *zap.Logger) *Sender {
	return &Sender{Config: cfg, Logger: logger}
}

// Name gibt den Namen des Anbieters zurück.
func (s *Sender) Name() string {
	return "sendgrid"
}

// Send stellt die Nachricht zu. SendGrid antwortet bei Erfolg mit 202.
func (s *Sender) Send(ctx context.Context, msg providers.Message) error {
	if s.Config.SendGridAPIKey == "" {
		return fmt.Errorf("SENDGRID_API_KEY not configured")
	}

	// text/plain muss laut API vor text/html stehen
	body, err := json.Marshal(request{
		Personalizations: []personalization{{To: []address{{Email: msg.To}}}},
		From:             address{Email: s.Config.FromEmail, Name: s.Config.FromName},
		Subject:          msg.Subject,
		Content: []content{
			{Type: "text/plain", Value: msg.Text},
			{Type: "text/html", Value: msg.HTML},
		},
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.Config.SendGridBaseURL+"/v3/mail/send", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.Config.SendGridAPIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("sendgrid request failed with status %d: %s", resp.StatusCode, detail)
	}

	s.Logger.Debug("Email accepted by SendGrid", zap.String("subject", msg.Subject))
	return nil
}
